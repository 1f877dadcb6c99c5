package lint

import (
	"fmt"
	"strconv"

	"dftemplate/internal/diag"
	"dftemplate/internal/quest"
)

func (l *linter) checkMessages() {
	seen := make(map[int]*quest.Message, len(l.q.Qrc.Messages))
	var prev *quest.Message
	for _, m := range l.q.Qrc.Messages {
		first, dup := seen[m.ID]
		if dup {
			if l.opts.enabled(CheckDuplicate) {
				diag.ReportError(l.r, diag.SemDuplicateMessageID, m.Span,
					fmt.Sprintf("Message number already in use: %d.", m.ID)).
					WithNote(first.Span, "first declared here").
					Emit()
			}
		} else {
			seen[m.ID] = m
		}

		if m.Alias != "" && l.opts.enabled(CheckStatic) {
			l.checkStaticAlias(m)
		}

		if !dup && !m.IsStatic() && l.opts.enabled(CheckUnused) {
			if _, used := l.usage.messages[m]; !used {
				diag.ReportWarning(l.r, diag.LntUnusedMessage, m.Span,
					strconv.Itoa(m.ID)+" is declared but never used.").Emit()
			}
		}

		if prev != nil && m.ID < prev.ID && l.opts.enabled(CheckOrder) {
			diag.ReportHint(l.r, diag.StyMessagePosition, m.Span,
				fmt.Sprintf("Message %d should not be positioned after %d.", m.ID, prev.ID)).Emit()
		}
		prev = m
	}

	if l.opts.enabled(CheckVariation) {
		l.checkVariations()
	}
}

// checkStaticAlias compares "Alias: [n]" with the static message table.
func (l *linter) checkStaticAlias(m *quest.Message) {
	tables := l.kb.Tables
	id, known := tables.StaticMessageID(m.Alias)
	if (known && id == m.ID) || (!known && !m.IsStatic()) {
		return
	}
	b := diag.ReportError(l.r, diag.SemInvalidStaticAlias, m.AliasSpan,
		fmt.Sprintf("'%s' is not a valid alias for message %d.", m.Alias, m.ID))
	if alias, ok := tables.StaticMessageAlias(m.ID); ok {
		b.WithFix("Replace with "+alias, diag.FixEdit{Span: m.AliasSpan, NewText: alias})
	}
	b.Emit()
}

// checkVariations validates symbol prefixes used inside message text.
func (l *linter) checkVariations() {
	lang := l.kb.Language
	for _, key := range l.q.Qbn.Symbols.Keys() {
		s, _ := l.q.Qbn.Symbols.Get(key)
		if !s.Valid() {
			continue
		}
		re := quest.SymbolPattern(s.Base())
		for line := range l.q.Qrc.Lines() {
			text := line.Text(l.file)
			for _, m := range re.FindAll(text) {
				word := text[m[0]:m[1]]
				allowed, known := lang.AllowsVariation(s.Type, quest.SymbolPrefix(word))
				if !known || allowed {
					continue
				}
				span := line
				span.Start += uint32(m[0])
				span.End = span.Start + uint32(len(word))
				diag.ReportWarning(l.r, diag.LntSymbolVariation, span,
					fmt.Sprintf("%s is not a valid variation for type '%s'.", word, s.Type)).Emit()
			}
		}
	}
}
