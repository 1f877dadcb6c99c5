package workspace

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"dftemplate/internal/kb"
	"dftemplate/internal/lint"
	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// Location is one reference inside a document.
type Location struct {
	Doc  *Document
	Span source.Span
}

// Call is an edge of the quest call graph. Target is nil when the called
// quest is not part of the workspace.
type Call struct {
	Caller *Document
	Name   string
	Target *Document
	Span   source.Span
}

func locations(doc *Document, spans ...source.Span) []Location {
	out := make([]Location, len(spans))
	for i, sp := range spans {
		out[i] = Location{Doc: doc, Span: sp}
	}
	return out
}

func sortLocations(locs []Location) []Location {
	slices.SortStableFunc(locs, func(a, b Location) int {
		if c := cmp.Compare(a.Span.File, b.Span.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
	return slices.CompactFunc(locs, func(a, b Location) bool { return a.Span == b.Span })
}

// SymbolReferences finds every variation of a symbol: its declarations,
// message text, action parameters and a clock task of the same name.
func SymbolReferences(doc *Document, name string) []Location {
	q := doc.Quest
	base := quest.BaseSymbol(name)
	var out []Location
	for _, s := range q.Qbn.Symbols.Definitions(base) {
		out = append(out, Location{Doc: doc, Span: s.Span})
	}
	pattern := quest.SymbolPattern(base)
	for line := range q.Qrc.Lines() {
		text := line.Text(doc.File)
		for _, m := range pattern.FindAll(text) {
			out = append(out, Location{Doc: doc, Span: source.Span{
				File:  line.File,
				Start: line.Start + uint32(m[0]),
				End:   line.Start + uint32(m[1]),
			}})
		}
	}
	for a := range q.Qbn.AllActions() {
		for _, p := range a.Params {
			if p.IsPlaceholder() && quest.BaseSymbol(p.Value) == base {
				out = append(out, Location{Doc: doc, Span: p.Span})
			}
		}
	}
	// часы связаны с задачей того же имени
	if s, ok := q.GetSymbol(base); ok && s.Type == kb.TypeClock {
		for _, t := range q.Qbn.Tasks.Definitions(base) {
			out = append(out, Location{Doc: doc, Span: t.Span})
		}
	}
	return sortLocations(out)
}

// TaskReferences finds the declarations of a task, persist-until headers
// naming it and task parameters.
func TaskReferences(doc *Document, name string) []Location {
	q := doc.Quest
	var out []Location
	for t := range q.Qbn.AllTasks() {
		if t.Name == name {
			out = append(out, Location{Doc: doc, Span: t.Span})
		}
	}
	for a := range q.Qbn.AllActions() {
		for _, p := range a.Params {
			if p.Type == kb.ParamTask && p.Value == name {
				out = append(out, Location{Doc: doc, Span: p.Span})
			}
		}
	}
	return sortLocations(out)
}

// MessageReferences finds the header of m and every parameter resolving to
// it, by number or by alias.
func MessageReferences(doc *Document, m *quest.Message) []Location {
	q := doc.Quest
	out := locations(doc, m.Span)
	for a := range q.Qbn.AllActions() {
		for _, p := range a.Params {
			if target, ok := lint.ResolveMessage(q, p); ok && target == m {
				out = append(out, Location{Doc: doc, Span: p.Span})
			}
		}
	}
	return sortLocations(out)
}

// eachQuest calls fn for every quest document, stopping early when ctx is
// done.
func (ws *Workspace) eachQuest(ctx context.Context, fn func(doc *Document)) error {
	for _, doc := range ws.Quests() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(doc)
	}
	return nil
}

// ActionReferences finds every invocation of the catalog action across the
// workspace. Partial results are returned with the context error.
func (ws *Workspace) ActionReferences(ctx context.Context, info *kb.Action) ([]Location, error) {
	var out []Location
	err := ws.eachQuest(ctx, func(doc *Document) {
		for a := range doc.Quest.Qbn.AllActions() {
			if info != nil && a.Info() == info {
				out = append(out, Location{Doc: doc, Span: a.DeclSpan()})
			}
		}
	})
	return sortLocations(out), err
}

// MacroReferences finds a context macro such as %pcn in message text.
func (ws *Workspace) MacroReferences(ctx context.Context, macro string) ([]Location, error) {
	var out []Location
	err := ws.eachQuest(ctx, func(doc *Document) {
		for _, m := range doc.Quest.Qrc.Macros {
			if m.Symbol == macro {
				out = append(out, Location{Doc: doc, Span: m.Span})
			}
		}
	})
	return sortLocations(out), err
}

// GlobalVarReferences finds tasks linked to a global variable.
func (ws *Workspace) GlobalVarReferences(ctx context.Context, name string) ([]Location, error) {
	var out []Location
	err := ws.eachQuest(ctx, func(doc *Document) {
		for t := range doc.Quest.Qbn.AllTasks() {
			if t.Kind == quest.TaskGlobalVarLink && strings.EqualFold(t.GlobalVar, name) {
				out = append(out, Location{Doc: doc, Span: t.Span})
			}
		}
	})
	return sortLocations(out), err
}

// QuestReferences finds the Quest directive of a quest and every
// "start quest" naming it by name or numeric id.
func (ws *Workspace) QuestReferences(ctx context.Context, nameOrID string) ([]Location, error) {
	name := quest.QuestName(nameOrID)
	var out []Location
	err := ws.eachQuest(ctx, func(doc *Document) {
		if d, ok := doc.Quest.Preamble.Directive("Quest"); ok && d.Parameter.Value == name {
			out = append(out, Location{Doc: doc, Span: d.Parameter.Span})
		}
		for a := range doc.Quest.Qbn.AllActions() {
			for _, p := range a.Params {
				if isQuestParam(p) && quest.QuestName(p.Value) == name {
					out = append(out, Location{Doc: doc, Span: p.Span})
				}
			}
		}
	})
	return sortLocations(out), err
}

// Callees lists the quests started by doc.
func (ws *Workspace) Callees(doc *Document) []Call {
	if !doc.IsQuest() {
		return nil
	}
	var out []Call
	for _, p := range questCalls(doc) {
		out = append(out, ws.call(doc, p))
	}
	return out
}

// Callers lists the "start quest" invocations of the named quest.
func (ws *Workspace) Callers(ctx context.Context, nameOrID string) ([]Call, error) {
	name := quest.QuestName(nameOrID)
	var out []Call
	err := ws.eachQuest(ctx, func(doc *Document) {
		for _, p := range questCalls(doc) {
			if quest.QuestName(p.Value) == name {
				out = append(out, ws.call(doc, p))
			}
		}
	})
	return out, err
}

func (ws *Workspace) call(caller *Document, p signature.Parameter) Call {
	c := Call{Caller: caller, Name: quest.QuestName(p.Value), Span: p.Span}
	if target, ok := ws.FindQuest(c.Name); ok {
		c.Target = target
	}
	return c
}
