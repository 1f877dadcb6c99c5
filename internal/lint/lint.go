// Package lint runs the static checks over a parsed quest and reports the
// findings through a diag.Reporter, in model traversal order: symbols,
// tasks, actions, then messages and section-level findings.
package lint

import (
	"fmt"
	"slices"
	"strings"

	"dftemplate/internal/diag"
	"dftemplate/internal/kb"
	"dftemplate/internal/quest"
	"dftemplate/internal/source"
)

// Check names one independent group of findings.
type Check string

const (
	CheckDefinition Check = "definition"
	CheckDuplicate  Check = "duplicate"
	CheckSignature  Check = "signature"
	CheckUnused     Check = "unused"
	CheckClock      Check = "clock"
	CheckNaming     Check = "naming"
	CheckUntil      Check = "until"
	CheckOrder      Check = "order"
	CheckExpression Check = "expression"
	CheckBlocks     Check = "blocks"
	CheckStatic     Check = "static"
	CheckVariation  Check = "variation"
)

var allChecks = []Check{
	CheckDefinition, CheckDuplicate, CheckSignature, CheckUnused,
	CheckClock, CheckNaming, CheckUntil, CheckOrder,
	CheckExpression, CheckBlocks, CheckStatic, CheckVariation,
}

// Checks returns every check name.
func Checks() []Check {
	return slices.Clone(allChecks)
}

// ParseCheck resolves a check name from configuration.
func ParseCheck(name string) (Check, error) {
	c := Check(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(allChecks, c) {
		return c, nil
	}
	return "", fmt.Errorf("unknown check %q", name)
}

type Options struct {
	// Disabled checks are skipped entirely.
	Disabled []Check
	// NoSuggestions turns off "did you mean" notes.
	NoSuggestions bool
}

func (o Options) enabled(c Check) bool {
	return !slices.Contains(o.Disabled, c)
}

type linter struct {
	q     *quest.Quest
	kb    *kb.KnowledgeBase
	file  *source.File
	r     diag.Reporter
	opts  Options
	lines []string
	usage *usage
}

// Run checks q and reports every finding to r.
func Run(q *quest.Quest, r diag.Reporter, opts Options) {
	l := &linter{
		q:     q,
		kb:    q.KB,
		file:  q.File,
		r:     r,
		opts:  opts,
		lines: make([]string, q.File.LineCount()),
	}
	for i := range l.lines {
		l.lines[i] = q.File.Line(i)
	}
	l.usage = collectUsage(q)

	l.checkSymbols()
	l.checkTasks()
	l.checkActions()
	l.checkDirectives()
	l.checkMessages()
	l.checkBlocks()
}

// Lint is Run with a fresh bag; handy for tests and one-off callers.
func Lint(q *quest.Quest, opts Options) *diag.Bag {
	bag := diag.NewBag(0)
	Run(q, diag.BagReporter{Bag: bag}, opts)
	return bag
}

// trimmed returns the span of line i without surrounding whitespace.
func (l *linter) trimmed(span source.Span) source.Span {
	text := span.Text(l.file)
	lead := len(text) - len(strings.TrimLeft(text, " \t"))
	trail := len(text) - len(strings.TrimRight(text, " \t"))
	if lead == len(text) {
		return span
	}
	span.Start += uint32(lead)
	span.End -= uint32(trail)
	return span
}

// lineOf returns the 0-based line of a span start.
func (l *linter) lineOf(span source.Span) int {
	return l.file.LineOf(span.Start)
}
