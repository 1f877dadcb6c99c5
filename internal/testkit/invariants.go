// Package testkit holds checks shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed quest:
// 1) every found block span is non-empty and within the file content
// 2) found blocks follow each other without overlapping
// 3) every resource lies inside the block that declared it
// 4) action and symbol parameters lie inside their line
func CheckSpanInvariants(q *quest.Quest) error {
	if q == nil || q.File == nil {
		return fmt.Errorf("nil quest or file")
	}
	sf := q.File
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 1) и 2) границы секций
	var prev *quest.Block
	for _, b := range q.Blocks() {
		if !b.Found() {
			continue
		}
		sp := b.Span()
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to different file id: got=%d want=%d", b.Kind(), sp.File, sf.ID)
		}
		if sp.End > lenContent || sp.Start > sp.End {
			return fmt.Errorf("%s span %v is outside content of %d bytes", b.Kind(), sp, lenContent)
		}
		if prev != nil && prev.Span().End > sp.Start {
			return fmt.Errorf("%s span %v overlaps %s span %v", prev.Kind(), prev.Span(), b.Kind(), sp)
		}
		for _, failed := range b.Failed {
			if !sp.Contains(failed) {
				return fmt.Errorf("failed line %v is outside %s span %v", failed, b.Kind(), sp)
			}
		}
		prev = b
	}

	// 3) ресурсы внутри своей секции
	for r := range q.Resources() {
		block := ownerBlock(q, r)
		if !block.Found() {
			return fmt.Errorf("%T at %v belongs to a missing %s block", r, r.DeclSpan(), block.Kind())
		}
		if !r.BlockSpan().Contains(r.DeclSpan()) {
			return fmt.Errorf("%T declaration %v is outside its block %v", r, r.DeclSpan(), r.BlockSpan())
		}
		if !block.Span().Contains(r.BlockSpan()) {
			return fmt.Errorf("%T block %v is outside %s span %v", r, r.BlockSpan(), block.Kind(), block.Span())
		}
	}

	// 4) параметры внутри строки
	for a := range q.Qbn.AllActions() {
		if err := checkParams(a.Line, a.Params); err != nil {
			return fmt.Errorf("action at %v: %w", a.Line, err)
		}
	}
	for s := range q.Qbn.Symbols.All() {
		if err := checkParams(s.Line, s.Signature); err != nil {
			return fmt.Errorf("symbol %s: %w", s.Name, err)
		}
	}
	return nil
}

func ownerBlock(q *quest.Quest, r quest.Resource) *quest.Block {
	switch r.(type) {
	case *quest.Directive:
		return &q.Preamble.Block
	case *quest.Message:
		return &q.Qrc.Block
	default:
		return &q.Qbn.Block
	}
}

func checkParams(line source.Span, params []signature.Parameter) error {
	for i, p := range params {
		if !line.Contains(p.Span) {
			return fmt.Errorf("parameter %d span %v is outside line %v", i, p.Span, line)
		}
	}
	return nil
}
