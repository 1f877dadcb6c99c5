package lint

import (
	"strconv"

	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
)

// usage holds references that are cheaper to collect once per document.
type usage struct {
	messages map[*quest.Message]struct{}
	timers   map[string]struct{}
}

func collectUsage(q *quest.Quest) *usage {
	u := &usage{
		messages: make(map[*quest.Message]struct{}),
		timers:   make(map[string]struct{}),
	}
	for a := range q.Qbn.AllActions() {
		if a.IsInvocationOf("start", "timer") && len(a.Params) > 2 {
			u.timers[quest.BaseSymbol(a.Params[2].Value)] = struct{}{}
		}
		for _, p := range a.Params {
			if m, ok := ResolveMessage(q, p); ok {
				u.messages[m] = struct{}{}
			}
		}
	}
	return u
}

// ResolveMessage returns the message referenced by a message-typed parameter.
func ResolveMessage(q *quest.Quest, p signature.Parameter) (*quest.Message, bool) {
	switch p.Type {
	case kb.ParamMessage:
		return q.GetMessage(p.Value)
	case kb.ParamMessageID:
		id, err := strconv.Atoi(p.Value)
		if err != nil {
			return nil, false
		}
		return q.Qrc.MessageByID(id)
	case kb.ParamMessageName:
		id, ok := q.KB.Tables.StaticMessageID(p.Value)
		if !ok {
			return nil, false
		}
		return q.Qrc.MessageByID(id)
	}
	return nil, false
}
