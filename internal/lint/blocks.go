package lint

import (
	"dftemplate/internal/diag"
)

func (l *linter) checkBlocks() {
	if l.opts.enabled(CheckExpression) {
		for _, b := range l.q.Blocks() {
			for _, line := range b.Failed {
				diag.ReportError(l.r, diag.SynUndefinedExpression, l.trimmed(line),
					"Undefined expression inside block '"+b.Kind().String()+"'.").Emit()
			}
		}
	}

	if !l.opts.enabled(CheckBlocks) {
		return
	}
	questDirective, ok := l.q.Preamble.Directive("Quest")
	if !ok {
		return
	}
	for _, b := range l.q.Blocks()[1:] {
		if !b.Found() {
			diag.ReportError(l.r, diag.SynBlockMissing, questDirective.Span,
				"Block '"+b.Kind().String()+"' is missing.").Emit()
		}
	}
}
