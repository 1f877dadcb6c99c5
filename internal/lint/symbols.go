package lint

import (
	"fmt"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
	"dftemplate/internal/source"
)

func (l *linter) checkSymbols() {
	symbols := l.q.Qbn.Symbols
	for _, key := range symbols.Keys() {
		decls := symbols.Definitions(key)

		var valid []*quest.Symbol
		for _, s := range decls {
			if s.Valid() {
				valid = append(valid, s)
				continue
			}
			if l.opts.enabled(CheckDefinition) {
				diag.ReportError(l.r, diag.SynInvalidDefinition, l.trimmed(s.Line),
					fmt.Sprintf("Invalid definition for %s (%s).", s.Name, s.Type)).Emit()
			}
		}
		if len(valid) == 0 {
			continue
		}

		if l.opts.enabled(CheckDuplicate) {
			l.duplicates(spansOf(valid), valid[0].Name)
		}
		for _, s := range valid {
			l.checkSignature(s.Signature)
		}

		primary := valid[0]
		if primary.Type == kb.TypeClock {
			l.checkClock(primary)
		} else if l.opts.enabled(CheckUnused) && !l.symbolReferenced(primary, decls) {
			diag.ReportWarning(l.r, diag.LntUnusedSymbol, primary.Span,
				primary.Name+" is declared but never used.").Emit()
		}

		if l.opts.enabled(CheckNaming) && !quest.FollowsNamingConvention(primary.Name) {
			diag.ReportHint(l.r, diag.StyNamingConvention, primary.Span,
				"Violation of naming convention: use _symbol_.").Emit()
		}
	}
}

func (l *linter) checkClock(s *quest.Symbol) {
	if !l.opts.enabled(CheckClock) {
		return
	}
	if _, ok := l.usage.timers[s.Base()]; !ok {
		diag.ReportWarning(l.r, diag.LntUnstartedClock, s.Span,
			s.Name+" is declared but never starts.").Emit()
	}
	_, linked := l.q.GetTask(s.Name)
	if !linked {
		_, linked = l.q.GetTask(s.Base())
	}
	if !linked {
		diag.ReportWarning(l.r, diag.LntUnlinkedClock, s.Span,
			s.Name+" doesn't activate a task.").Emit()
	}
}

// symbolReferenced searches every line but the declarations for any
// variation of the symbol, message text included.
func (l *linter) symbolReferenced(s *quest.Symbol, decls []*quest.Symbol) bool {
	skip := make(map[int]bool, len(decls))
	for _, d := range decls {
		skip[l.lineOf(d.Line)] = true
	}
	re := quest.SymbolPattern(s.Base())
	for i, text := range l.lines {
		if !skip[i] && re.Match(text) {
			return true
		}
	}
	return false
}

// duplicates reports one error per extra declaration, with notes pointing at
// every other declaration of the name.
func (l *linter) duplicates(spans []source.Span, name string) {
	for i := 1; i < len(spans); i++ {
		b := diag.ReportError(l.r, diag.SemDuplicateDefinition, spans[i], name+" is already defined.")
		for j, other := range spans {
			if j != i {
				b.WithNote(other, name+" is also declared here")
			}
		}
		b.Emit()
	}
}

func spansOf[T quest.Resource](items []T) []source.Span {
	out := make([]source.Span, len(items))
	for i, it := range items {
		out[i] = it.DeclSpan()
	}
	return out
}
