package kb

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"dftemplate/internal/signature"
)

type Category string

const (
	CategoryAction    Category = "action"
	CategoryCondition Category = "condition"
	CategoryTrigger   Category = "trigger"
)

// Action is one catalog entry. Overloads share the summary and category.
type Action struct {
	Module    string
	Summary   string
	Category  Category
	Overloads []signature.Pattern
}

// IsCondition reports whether the action makes its task conditional.
func (a *Action) IsCondition() bool {
	return a.Category == CategoryCondition || a.Category == CategoryTrigger
}

// Match is the result of a catalog lookup: the action and its chosen overload.
type Match struct {
	Action   *Action
	Overload int
}

func (m Match) Pattern() signature.Pattern {
	return m.Action.Overloads[m.Overload]
}

// Modules is the action catalog plus the known spell effect keys.
type Modules struct {
	actions    []*Action
	effectKeys []string
	effectSet  map[string]struct{}
}

type modulesFile struct {
	Modules []struct {
		Name    string `json:"name"`
		Actions []struct {
			Summary   string   `json:"summary"`
			Category  Category `json:"category"`
			Overloads []string `json:"overloads"`
		} `json:"actions"`
	} `json:"modules"`
	EffectKeys []string `json:"effectKeys"`
}

func parseModules(raw []byte) (*Modules, error) {
	var file modulesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	m := &Modules{effectSet: make(map[string]struct{}, len(file.EffectKeys))}
	for _, mod := range file.Modules {
		for _, a := range mod.Actions {
			action := &Action{Module: mod.Name, Summary: a.Summary, Category: a.Category}
			for _, o := range a.Overloads {
				p := signature.ParsePattern(o)
				if firstLiteral(p) < 0 {
					return nil, fmt.Errorf("module %s: overload %q has no literal word", mod.Name, o)
				}
				action.Overloads = append(action.Overloads, p)
			}
			m.actions = append(m.actions, action)
		}
	}
	for _, key := range file.EffectKeys {
		m.effectKeys = append(m.effectKeys, key)
		m.effectSet[strings.ToLower(key)] = struct{}{}
	}
	slices.Sort(m.effectKeys)
	return m, nil
}

func firstLiteral(p signature.Pattern) int {
	for i, w := range p.Words {
		if !signature.IsPlaceholder(w) {
			return i
		}
	}
	return -1
}

// FirstLiteral returns the index of the first literal word of the matched
// overload; it names the action.
func (m Match) FirstLiteral() int {
	return firstLiteral(m.Pattern())
}

// FindAction resolves the words of a line to a catalog overload. Overloads
// whose literal words agree with the line are ranked by arity fit, then by
// the number of agreeing literals, then by declaration order.
func (m *Modules) FindAction(words []string) (Match, bool) {
	var (
		best        Match
		bestFits    bool
		bestMatched int
		found       bool
	)
	for _, action := range m.actions {
		for i, p := range action.Overloads {
			matched, ok := p.LiteralMatches(words)
			if !ok || matched == 0 {
				continue
			}
			fits := p.Fits(len(words))
			better := !found ||
				(fits && !bestFits) ||
				(fits == bestFits && matched > bestMatched)
			if better {
				best, bestFits, bestMatched, found = Match{Action: action, Overload: i}, fits, matched, true
			}
		}
	}
	return best, found
}

func (m *Modules) Actions() []*Action {
	return m.actions
}

// EffectKeyExists reports whether key names a spell effect (case-insensitive).
func (m *Modules) EffectKeyExists(key string) bool {
	_, ok := m.effectSet[strings.ToLower(key)]
	return ok
}

func (m *Modules) EffectKeys() []string {
	return m.effectKeys
}
