package lint

import (
	"sort"
	"strconv"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"dftemplate/internal/diag"
	"dftemplate/internal/signature"
)

// closestMatch returns the best fuzzy candidate for target.
func closestMatch(target string, candidates []string) (string, bool) {
	if target == "" || len(candidates) == 0 {
		return "", false
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return ranks[0].Target, true
}

func (l *linter) suggest(b *diag.ReportBuilder, p signature.Parameter, candidates []string) {
	if l.opts.NoSuggestions {
		return
	}
	if best, ok := closestMatch(p.Value, candidates); ok && best != p.Value {
		b.WithNote(p.Span, "did you mean "+best+"?")
	}
}

func (l *linter) symbolNames() []string {
	names := make([]string, 0, l.q.Qbn.Symbols.Len())
	for _, key := range l.q.Qbn.Symbols.Keys() {
		s, _ := l.q.Qbn.Symbols.Get(key)
		names = append(names, s.Name)
	}
	return names
}

func (l *linter) messageNames() []string {
	var names []string
	for _, m := range l.q.Qrc.Messages {
		names = append(names, strconv.Itoa(m.ID))
		if m.Alias != "" {
			names = append(names, m.Alias)
		}
	}
	return names
}
