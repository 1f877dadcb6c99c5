package lint

import (
	"fmt"
	"strings"

	"dftemplate/internal/diag"
	"dftemplate/internal/quest"
	"dftemplate/internal/signature"
)

func (l *linter) checkTasks() {
	tasks := l.q.Qbn.Tasks
	for _, name := range tasks.Keys() {
		decls := tasks.Definitions(name)
		if l.opts.enabled(CheckDuplicate) {
			l.duplicates(spansOf(decls), name)
		}

		primary := decls[0]
		if l.opts.enabled(CheckUnused) && !primary.HasAnyCondition() && !l.taskReferenced(primary) {
			display := primary.Name
			if primary.Kind == quest.TaskGlobalVarLink {
				display = fmt.Sprintf("%s from %s", primary.Name, primary.GlobalVar)
			}
			diag.ReportWarning(l.r, diag.LntUnusedTask, primary.Span,
				display+" is declared but never used.").Emit()
		}

		if l.opts.enabled(CheckNaming) && !quest.FollowsNamingConvention(name) {
			diag.ReportHint(l.r, diag.StyNamingConvention, primary.Span,
				"Violation of naming convention: use _symbol_.").Emit()
		}
	}

	if !l.opts.enabled(CheckUntil) {
		return
	}
	for _, t := range l.q.Qbn.PersistUntil {
		if _, ok := l.q.GetTask(t.Name); !ok {
			diag.ReportError(l.r, diag.SemUndefinedUntilTask, t.Span,
				"Task execution is based on another task which is not defined: "+t.Name+".").Emit()
		}
	}
}

// taskReferenced reports whether the name appears on any other line.
func (l *linter) taskReferenced(t *quest.Task) bool {
	own := l.lineOf(t.Line)
	for i, text := range l.lines {
		if i != own && strings.Contains(text, t.Name) {
			return true
		}
	}
	return false
}

func (l *linter) checkActions() {
	for a := range l.q.Qbn.AllActions() {
		l.checkArity(a)
		l.checkSignature(a.Params)
	}
}

// checkArity reports surplus or missing words against the chosen overload.
func (l *linter) checkArity(a *quest.Action) {
	if !l.opts.enabled(CheckSignature) {
		return
	}
	pattern := a.Match.Pattern()
	if pattern.Fits(len(a.Params)) {
		return
	}
	diag.ReportError(l.r, diag.SynInvalidSignature, l.trimmed(a.Line),
		fmt.Sprintf("Invalid signature for action '%s'. Expected: %s.", a.Name(), pattern.Snippet)).Emit()
}

func (l *linter) checkDirectives() {
	for _, d := range l.q.Preamble.Directives {
		if d.Parameter.Value != "" {
			l.checkSignature([]signature.Parameter{d.Parameter})
		}
	}
}
