// Package quest is the semantic model of a quest template: the Preamble,
// QRC and QBN sections with their directives, messages, symbols, tasks and
// actions.
package quest

import (
	"iter"

	"dftemplate/internal/kb"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// Quest is the parsed form of one document. It is built by the parser and
// read-only afterwards.
type Quest struct {
	File     *source.File
	KB       *kb.KnowledgeBase
	Preamble *Preamble
	Qrc      *Qrc
	Qbn      *Qbn
}

// New returns an empty model for file.
func New(file *source.File, base *kb.KnowledgeBase) *Quest {
	return &Quest{
		File:     file,
		KB:       base,
		Preamble: &Preamble{Block: Block{kind: BlockPreamble}},
		Qrc:      &Qrc{Block: Block{kind: BlockQRC}},
		Qbn: &Qbn{
			Block:   Block{kind: BlockQBN},
			Symbols: NewIndex[*Symbol](),
			Tasks:   NewIndex[*Task](),
		},
	}
}

// Blocks returns the sections in document order.
func (q *Quest) Blocks() []*Block {
	return []*Block{&q.Preamble.Block, &q.Qrc.Block, &q.Qbn.Block}
}

// Name is the value of the Quest directive, or "" when absent.
func (q *Quest) Name() string {
	if d, ok := q.Preamble.Directive("Quest"); ok {
		return d.Parameter.Value
	}
	return ""
}

// IsQuest reports whether the document looks like a quest template rather
// than an unrelated text file.
func (q *Quest) IsQuest() bool {
	_, named := q.Preamble.Directive("Quest")
	return named || q.Qrc.Found() || q.Qbn.Found()
}

// DisplayName is the value of the DisplayName directive.
func (q *Quest) DisplayName() string {
	if d, ok := q.Preamble.Directive("DisplayName"); ok {
		return d.Parameter.Value
	}
	return ""
}

// GetSymbol finds the primary declaration of any variation of name.
func (q *Quest) GetSymbol(name string) (*Symbol, bool) {
	return q.Qbn.Symbols.Get(BaseSymbol(name))
}

func (q *Quest) GetTask(name string) (*Task, bool) {
	return q.Qbn.Tasks.Get(name)
}

// GetMessage resolves a numeric id or static alias.
func (q *Quest) GetMessage(name string) (*Message, bool) {
	return q.Qrc.GetMessage(name, q.KB.Tables)
}

// Resources yields every declared resource in section order.
func (q *Quest) Resources() iter.Seq[Resource] {
	return func(yield func(Resource) bool) {
		for _, d := range q.Preamble.Directives {
			if !yield(d) {
				return
			}
		}
		for _, m := range q.Qrc.Messages {
			if !yield(m) {
				return
			}
		}
		for s := range q.Qbn.Symbols.All() {
			if !yield(s) {
				return
			}
		}
		for t := range q.Qbn.AllTasks() {
			if !yield(t) {
				return
			}
		}
		for a := range q.Qbn.AllActions() {
			if !yield(a) {
				return
			}
		}
	}
}

// ResourceAt returns the resource whose declaration span equals span.
func (q *Quest) ResourceAt(span source.Span) (Resource, bool) {
	for r := range q.Resources() {
		if r.DeclSpan() == span {
			return r, true
		}
	}
	return nil, false
}

// ResourceContaining returns the innermost resource whose block contains
// span. Actions win over the task that owns them.
func (q *Quest) ResourceContaining(span source.Span) (Resource, bool) {
	var best Resource
	for r := range q.Resources() {
		if !r.BlockSpan().Contains(span) {
			continue
		}
		if best == nil || best.BlockSpan().Contains(r.BlockSpan()) {
			best = r
		}
	}
	return best, best != nil
}

// ParameterAt returns the symbol or action parameter containing span.
func (q *Quest) ParameterAt(span source.Span) (signature.Parameter, bool) {
	for s := range q.Qbn.Symbols.All() {
		if s.Line.Contains(span) {
			return s.ParameterAt(span)
		}
	}
	for a := range q.Qbn.AllActions() {
		if a.Line.Contains(span) {
			return a.ParameterAt(span)
		}
	}
	return signature.Parameter{}, false
}
