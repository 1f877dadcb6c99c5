package workspace

import (
	"context"
	"fmt"

	"dftemplate/internal/callgraph"
	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
)

// FindQuest returns the document declaring the quest. Numeric ids are
// accepted as well as names.
func (ws *Workspace) FindQuest(nameOrID string) (*Document, bool) {
	docs := ws.byName[quest.QuestName(nameOrID)]
	if len(docs) == 0 {
		return nil, false
	}
	return docs[0], true
}

// QuestNames returns the declared quest names in document order.
func (ws *Workspace) QuestNames() []string {
	var out []string
	for _, doc := range ws.Quests() {
		if name := doc.Quest.Name(); name != "" && ws.byName[name][0] == doc {
			out = append(out, name)
		}
	}
	return out
}

// isQuestParam reports whether p names another quest.
func isQuestParam(p signature.Parameter) bool {
	return p.Type == kb.ParamQuestName || p.Type == kb.ParamQuestID
}

// questCalls yields the "start quest" targets of a document.
func questCalls(doc *Document) []signature.Parameter {
	var out []signature.Parameter
	for a := range doc.Quest.Qbn.AllActions() {
		if !a.IsInvocationOf("start", "quest") {
			continue
		}
		for _, p := range a.Params {
			if isQuestParam(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (ws *Workspace) checkQuests(ctx context.Context, opts Options) {
	for _, doc := range ws.Quests() {
		if ctx.Err() != nil {
			return
		}
		r := diag.BagReporter{Bag: doc.Bag}

		name := doc.Quest.Name()
		if decls := ws.byName[name]; len(decls) > 1 && decls[0] != doc {
			d, _ := doc.Quest.Preamble.Directive("Quest")
			first, _ := decls[0].Quest.Preamble.Directive("Quest")
			diag.ReportError(r, diag.SemDuplicateQuestName, d.Parameter.Span,
				fmt.Sprintf("Quest name already in use: %s.", name)).
				WithNote(first.Parameter.Span, "first declared here").
				Emit()
		}

		if !opts.ResolveQuests {
			continue
		}
		for _, p := range questCalls(doc) {
			if _, ok := ws.FindQuest(p.Value); ok {
				continue
			}
			diag.ReportWarning(r, diag.SemUndefinedQuest, p.Span,
				fmt.Sprintf("Reference to undefined quest: %s.", quest.QuestName(p.Value))).
				Emit()
		}
	}
}

// CallGraph builds the "start quest" graph of the declared quests.
func (ws *Workspace) CallGraph() (callgraph.Index, callgraph.Graph) {
	var nodes []callgraph.Node
	for _, doc := range ws.Quests() {
		n := callgraph.Node{Name: doc.Quest.Name()}
		if d, ok := doc.Quest.Preamble.Directive("Quest"); ok {
			n.Span = d.Parameter.Span
		}
		for _, p := range questCalls(doc) {
			n.Calls = append(n.Calls, callgraph.Call{Name: quest.QuestName(p.Value), Span: p.Span})
		}
		nodes = append(nodes, n)
	}
	idx := callgraph.BuildIndex(nodes)
	g, _ := callgraph.Build(idx, nodes)
	return idx, g
}
