package quest

import (
	"iter"
	"strconv"

	"dftemplate/internal/kb"
	"dftemplate/internal/source"
)

type BlockKind uint8

const (
	BlockPreamble BlockKind = iota
	BlockQRC
	BlockQBN
)

func (k BlockKind) String() string {
	switch k {
	case BlockPreamble:
		return "Preamble"
	case BlockQRC:
		return "QRC"
	case BlockQBN:
		return "QBN"
	}
	return "unknown"
}

// Block is the common part of the three quest sections.
type Block struct {
	kind  BlockKind
	span  source.Span
	found bool
	// Failed holds lines that could not be parsed, in document order.
	Failed []source.Span
}

func (b *Block) Kind() BlockKind { return b.kind }

// Found reports whether the section appears in the document.
func (b *Block) Found() bool { return b.found }

// Span is valid only when Found.
func (b *Block) Span() source.Span { return b.span }

// SetRange finalizes the section range. Finalizing twice is a programming
// error.
func (b *Block) SetRange(span source.Span) {
	if b.found {
		panic("quest: " + b.kind.String() + " block range is already set")
	}
	b.span = span
	b.found = true
}

type Preamble struct {
	Block
	Directives []*Directive
}

// Directive returns the first directive with the given keyword.
func (p *Preamble) Directive(name string) (*Directive, bool) {
	for _, d := range p.Directives {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

type Qrc struct {
	Block
	Messages []*Message
	Macros   []ContextMacro
}

// GetMessage resolves a numeric id or a static alias.
func (q *Qrc) GetMessage(name string, tables *kb.Tables) (*Message, bool) {
	id, err := strconv.Atoi(name)
	if err != nil {
		var ok bool
		if id, ok = tables.StaticMessageID(name); !ok {
			return nil, false
		}
	}
	return q.MessageByID(id)
}

func (q *Qrc) MessageByID(id int) (*Message, bool) {
	for _, m := range q.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Lines yields every body line of every message.
func (q *Qrc) Lines() iter.Seq[source.Span] {
	return func(yield func(source.Span) bool) {
		for _, m := range q.Messages {
			for _, l := range m.Body {
				if !yield(l) {
					return
				}
			}
		}
	}
}

// AvailableID returns the smallest unused id not lower than min.
func (q *Qrc) AvailableID(min int) int {
	id := min
	for {
		if _, used := q.MessageByID(id); !used {
			return id
		}
		id++
	}
}

// AvailableIDAt returns an unused id following the message declared before
// offset, or starting at FirstFreeMessageID.
func (q *Qrc) AvailableIDAt(offset uint32) int {
	min := FirstFreeMessageID
	var preceding *Message
	for _, m := range q.Messages {
		if m.Span.Start < offset && (preceding == nil || m.Span.Start > preceding.Span.Start) {
			preceding = m
		}
	}
	if preceding != nil {
		min = preceding.ID + 1
	}
	return q.AvailableID(min)
}

type Qbn struct {
	Block
	Symbols *Index[*Symbol]
	Tasks   *Index[*Task]
	// EntryPoint holds actions that precede the first task.
	EntryPoint   []*Action
	PersistUntil []*Task
}

// AllTasks yields indexed tasks followed by persist-until tasks.
func (q *Qbn) AllTasks() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for t := range q.Tasks.All() {
			if !yield(t) {
				return
			}
		}
		for _, t := range q.PersistUntil {
			if !yield(t) {
				return
			}
		}
	}
}

// AllActions yields the entry point and the actions of every task.
func (q *Qbn) AllActions() iter.Seq[*Action] {
	return func(yield func(*Action) bool) {
		for _, a := range q.EntryPoint {
			if !yield(a) {
				return
			}
		}
		for t := range q.AllTasks() {
			for _, a := range t.Actions {
				if !yield(a) {
					return
				}
			}
		}
	}
}
