package kb

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"dftemplate/internal/signature"
	"dftemplate/internal/source"
)

// Keyword is a preamble directive such as "Quest: ${1:questName}".
type Keyword struct {
	Name      string
	Summary   string
	Signature string
	// ParamType is the normalized type of the single parameter, e.g. "${questName}".
	ParamType string
}

// Definition is one accepted form of a symbol declaration.
type Definition struct {
	Type    string
	Snippet string
	Summary string
	Pattern signature.Pattern

	re    *regexp.Regexp
	types []string
}

// Variation is a symbol prefix accepted for a given type, e.g. "__" for the
// town of a Person.
type Variation struct {
	Prefix  string
	Summary string
}

// Language holds keywords, symbol definitions and variations.
type Language struct {
	keywords    []Keyword
	byKeyword   map[string]int
	definitions map[string][]*Definition
	types       []string
	variations  map[string][]Variation
}

type languageFile struct {
	Keywords []struct {
		Name      string `json:"name"`
		Summary   string `json:"summary"`
		Signature string `json:"signature"`
	} `json:"keywords"`
	Definitions map[string][]struct {
		Snippet string `json:"snippet"`
		Summary string `json:"summary"`
	} `json:"definitions"`
	Variations map[string][]Variation `json:"variations"`
}

var keywordSignature = regexp.MustCompile(`^[a-zA-Z]+: \$\{1:([a-zA-Z]+)\}`)

func parseLanguage(raw []byte) (*Language, error) {
	var file languageFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	lang := &Language{
		byKeyword:   make(map[string]int, len(file.Keywords)),
		definitions: make(map[string][]*Definition, len(file.Definitions)),
		variations:  make(map[string][]Variation, len(file.Variations)),
	}
	for _, kw := range file.Keywords {
		m := keywordSignature.FindStringSubmatch(kw.Signature)
		if m == nil {
			return nil, fmt.Errorf("keyword %s: signature %q has no typed parameter", kw.Name, kw.Signature)
		}
		lang.byKeyword[kw.Name] = len(lang.keywords)
		lang.keywords = append(lang.keywords, Keyword{
			Name:      kw.Name,
			Summary:   kw.Summary,
			Signature: kw.Signature,
			ParamType: "${" + m[1] + "}",
		})
	}
	for typ, defs := range file.Definitions {
		for _, d := range defs {
			def, err := compileDefinition(typ, d.Snippet, d.Summary)
			if err != nil {
				return nil, fmt.Errorf("definition %s: %w", typ, err)
			}
			lang.definitions[typ] = append(lang.definitions[typ], def)
		}
		lang.types = append(lang.types, typ)
	}
	slices.Sort(lang.types)
	for typ, vars := range file.Variations {
		lang.variations[typ] = vars
	}
	return lang, nil
}

var placeholder = regexp.MustCompile(`\$\{[^}]*\}`)

// compileDefinition turns a snippet into a whole-line matcher. Each word
// holding a placeholder becomes one capture group.
func compileDefinition(typ, snippet, summary string) (*Definition, error) {
	words := strings.Fields(snippet)
	if len(words) == 0 || words[0] != typ {
		return nil, fmt.Errorf("snippet %q must start with %s", snippet, typ)
	}
	def := &Definition{Type: typ, Snippet: snippet, Summary: summary, Pattern: signature.ParsePattern(snippet)}
	parts := make([]string, len(words))
	for i, w := range words {
		locs := placeholder.FindAllStringIndex(w, -1)
		switch {
		case len(locs) == 0:
			parts[i] = regexp.QuoteMeta(w)
		case len(locs) == 1 && locs[0][0] == 0 && locs[0][1] == len(w):
			parts[i] = `(\S+)`
			def.types = append(def.types, signature.NormalizeWord(w))
		default:
			var b strings.Builder
			b.WriteByte('(')
			last := 0
			for _, loc := range locs {
				b.WriteString(regexp.QuoteMeta(w[last:loc[0]]))
				b.WriteString(`\S*?`)
				last = loc[1]
			}
			b.WriteString(regexp.QuoteMeta(w[last:]))
			b.WriteByte(')')
			parts[i] = b.String()
			def.types = append(def.types, signature.NormalizeWord(w))
		}
	}
	re, err := regexp.Compile(`(?i)^\s*` + strings.Join(parts, `\s+`) + `\s*$`)
	if err != nil {
		return nil, err
	}
	def.re = re
	return def, nil
}

// Matches reports whether a whole line implements the definition.
func (d *Definition) Matches(line string) bool {
	return d.re.MatchString(line)
}

// Bind extracts the typed parameters of line, which starts at offset base.
// It returns nil when the line does not match.
func (d *Definition) Bind(file source.FileID, line string, base uint32) []signature.Parameter {
	loc := d.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return nil
	}
	params := make([]signature.Parameter, 0, len(d.types))
	for i, typ := range d.types {
		start, end := loc[2*(i+1)], loc[2*(i+1)+1]
		params = append(params, signature.Parameter{
			Type:  typ,
			Value: line[start:end],
			Span:  source.Span{File: file, Start: base + uint32(start), End: base + uint32(end)},
		})
	}
	return params
}

// Keyword looks up a preamble directive by name.
func (l *Language) Keyword(name string) (Keyword, bool) {
	i, ok := l.byKeyword[name]
	if !ok {
		return Keyword{}, false
	}
	return l.keywords[i], true
}

func (l *Language) Keywords() []Keyword {
	return l.keywords
}

// IsSymbolType reports whether word names a declarable type.
func (l *Language) IsSymbolType(word string) bool {
	_, ok := l.definitions[word]
	return ok
}

// SymbolTypes returns the declarable types in sorted order.
func (l *Language) SymbolTypes() []string {
	return l.types
}

func (l *Language) Definitions(typ string) []*Definition {
	return l.definitions[typ]
}

// FindDefinition returns the first definition of typ matching line.
func (l *Language) FindDefinition(typ, line string) (*Definition, bool) {
	for _, def := range l.definitions[typ] {
		if def.Matches(line) {
			return def, true
		}
	}
	return nil, false
}

func (l *Language) Variations(typ string) []Variation {
	return l.variations[typ]
}

// AllowsVariation checks a symbol prefix against the variations of typ.
// known is false when the table has no variations for the type.
func (l *Language) AllowsVariation(typ, prefix string) (allowed, known bool) {
	vars, ok := l.variations[typ]
	if !ok {
		return false, false
	}
	for _, v := range vars {
		if v.Prefix == prefix {
			return true, true
		}
	}
	return false, true
}
