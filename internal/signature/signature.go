// Package signature binds the words of a quest line to the parameter types
// declared by a snippet pattern such as "give pc ${1:_item_} notify ${2:message}".
package signature

import (
	"regexp"
	"strings"

	"dftemplate/internal/source"
)

// Token is a whitespace-separated word with its absolute span.
type Token struct {
	Text string
	Span source.Span
}

// Parameter is one token bound to a type. Literal words have the literal as
// type; placeholders have a "${...}" type; surplus tokens have an empty type.
type Parameter struct {
	Type  string
	Value string
	Span  source.Span
}

// IsPlaceholder reports whether the parameter type is a typed slot.
func (p Parameter) IsPlaceholder() bool {
	return IsPlaceholder(p.Type)
}

// Split tokenizes text, which starts at byte offset base in file.
func Split(file source.FileID, text string, base uint32) []Token {
	var out []Token
	start := -1
	for i := 0; i <= len(text); i++ {
		space := i == len(text) || text[i] == ' ' || text[i] == '\t'
		switch {
		case space && start >= 0:
			out = append(out, Token{
				Text: text[start:i],
				Span: source.Span{File: file, Start: base + uint32(start), End: base + uint32(i)},
			})
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	return out
}

// Texts returns the raw words of tokens.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

var indexPrefix = regexp.MustCompile(`\$\{(\.\.\.)?\d+:`)

// NormalizeWord turns "${1:nn}" into "${nn}" and "${...2:task}" into
// "${...task}". Literal words are returned unchanged.
func NormalizeWord(word string) string {
	return indexPrefix.ReplaceAllStringFunc(word, func(m string) string {
		if strings.HasPrefix(m, "${...") {
			return "${..."
		}
		return "${"
	})
}

// IsPlaceholder reports whether a normalized pattern word is a typed slot.
func IsPlaceholder(word string) bool {
	return strings.HasPrefix(word, "$")
}

// TypeName strips the "${" and "}" decoration: "${_item_}" -> "_item_".
func TypeName(typ string) string {
	return strings.TrimSuffix(strings.TrimPrefix(typ, "${"), "}")
}

// Pattern is a parsed snippet: normalized words and a variadic flag for the
// last word.
type Pattern struct {
	Snippet  string
	Words    []string
	Variadic bool
}

// ParsePattern parses a snippet. A trailing "${...type}" word makes the
// pattern variadic; its type is stored without the ellipsis.
func ParsePattern(snippet string) Pattern {
	words := strings.Fields(snippet)
	p := Pattern{Snippet: snippet, Words: make([]string, len(words))}
	for i, w := range words {
		p.Words[i] = NormalizeWord(w)
	}
	if n := len(p.Words); n > 0 && strings.HasPrefix(p.Words[n-1], "${...") {
		p.Words[n-1] = strings.Replace(p.Words[n-1], "${...", "${", 1)
		p.Variadic = true
	}
	return p
}

// Arity is the number of words in the pattern before variadic expansion.
func (p Pattern) Arity() int {
	return len(p.Words)
}

// Fits reports whether n tokens satisfy the pattern length.
func (p Pattern) Fits(n int) bool {
	if p.Variadic {
		return n >= len(p.Words)
	}
	return n == len(p.Words)
}

// Expand returns the types for n tokens, replicating the variadic tail.
func (p Pattern) Expand(n int) []string {
	if !p.Variadic || n <= len(p.Words) {
		return p.Words
	}
	out := make([]string, n)
	copy(out, p.Words)
	last := p.Words[len(p.Words)-1]
	for i := len(p.Words); i < n; i++ {
		out[i] = last
	}
	return out
}

// LiteralMatches counts literal pattern words agreeing with tokens at the
// same position. ok is false when a literal inside the token range disagrees.
func (p Pattern) LiteralMatches(words []string) (matched int, ok bool) {
	for i, w := range p.Words {
		if i >= len(words) {
			break
		}
		if IsPlaceholder(w) {
			continue
		}
		if !strings.EqualFold(w, words[i]) {
			return matched, false
		}
		matched++
	}
	return matched, true
}

// Bind assigns a type to every token. Extra tokens stay untyped; missing
// tokens are simply absent.
func Bind(p Pattern, tokens []Token) []Parameter {
	types := p.Expand(len(tokens))
	out := make([]Parameter, len(tokens))
	for i, tok := range tokens {
		out[i] = Parameter{Value: tok.Text, Span: tok.Span}
		if i < len(types) {
			out[i].Type = types[i]
		}
	}
	return out
}
