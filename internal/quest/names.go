package quest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	symbolPrefix     = regexp.MustCompile(`^[_=#]+`)
	namingConvention = regexp.MustCompile(`^_[a-zA-Z0-9][a-zA-Z0-9._]*_$`)
)

// BaseSymbol reduces any variation of a symbol to its base form:
// "__qgiver_", "=qgiver_" and "_qgiver_" all become "_qgiver_".
func BaseSymbol(name string) string {
	return symbolPrefix.ReplaceAllString(name, "_")
}

// SymbolPrefix returns the variation prefix of a symbol, e.g. "__" for
// "__qgiver_".
func SymbolPrefix(name string) string {
	return symbolPrefix.FindString(name)
}

// FollowsNamingConvention reports whether name looks like "_name_".
func FollowsNamingConvention(name string) bool {
	return namingConvention.MatchString(name)
}

// SymbolMatcher finds variations of one symbol inside free text. A match
// must not touch a name character on either side, so "_gold_" is not found
// inside "_gold_bar_" or "a_gold_".
type SymbolMatcher struct {
	core *regexp.Regexp
}

// SymbolPattern builds the matcher for the symbol with the given base form.
func SymbolPattern(base string) *SymbolMatcher {
	if strings.HasPrefix(base, "_") && len(base) > 1 {
		return &SymbolMatcher{core: regexp.MustCompile(`[_=#]+` + regexp.QuoteMeta(base[1:]))}
	}
	return &SymbolMatcher{core: regexp.MustCompile(regexp.QuoteMeta(base))}
}

// FindAll returns the byte ranges of every occurrence in text. Adjacent
// occurrences separated by a single character are both reported.
func (m *SymbolMatcher) FindAll(text string) [][2]int {
	var out [][2]int
	for pos := 0; pos < len(text); {
		loc := m.core.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if (start == 0 || !isLeadingNameByte(text[start-1])) &&
			(end == len(text) || !isNameByte(text[end])) {
			out = append(out, [2]int{start, end})
		}
		if end == pos {
			end++
		}
		pos = end
	}
	return out
}

// Match reports whether text holds at least one occurrence.
func (m *SymbolMatcher) Match(text string) bool {
	return len(m.FindAll(text)) > 0
}

func isNameByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// перед символом ещё и префиксы вариаций
func isLeadingNameByte(c byte) bool {
	return isNameByte(c) || c == '=' || c == '#'
}

// SymbolOccurrences returns the byte ranges of every variation of base in text.
func SymbolOccurrences(text, base string) [][2]int {
	return SymbolPattern(base).FindAll(text)
}

// IndexToName converts a numeric quest id into a quest name: 12 -> "S0000012".
func IndexToName(id int) string {
	return fmt.Sprintf("S%07d", id)
}

// QuestName accepts either form used by "start quest": numeric ids become
// names, names are returned unchanged.
func QuestName(nameOrID string) string {
	if id, err := strconv.Atoi(nameOrID); err == nil && id >= 0 {
		return IndexToName(id)
	}
	return nameOrID
}
