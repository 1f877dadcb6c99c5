package kb

import (
	"encoding/json"
	"slices"
	"strings"
)

// StaticMessage is a built-in message id with its text alias.
type StaticMessage struct {
	Alias string
	ID    int
}

// Tables holds the static message aliases, global variables and attribute
// value sets.
type Tables struct {
	static     []StaticMessage
	byAlias    map[string]int
	byID       map[int]string
	globalVars map[string]int
	attributes map[string][]string
	attrSet    map[string]map[string]struct{}
}

type tablesFile struct {
	StaticMessages map[string]int      `json:"staticMessages"`
	GlobalVars     map[string]int      `json:"globalVars"`
	Attributes     map[string][]string `json:"attributes"`
}

func parseTables(raw []byte) (*Tables, error) {
	var file tablesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, err
	}
	t := &Tables{
		byAlias:    make(map[string]int, len(file.StaticMessages)),
		byID:       make(map[int]string, len(file.StaticMessages)),
		globalVars: make(map[string]int, len(file.GlobalVars)),
		attributes: make(map[string][]string, len(file.Attributes)),
		attrSet:    make(map[string]map[string]struct{}, len(file.Attributes)),
	}
	for alias, id := range file.StaticMessages {
		t.static = append(t.static, StaticMessage{Alias: alias, ID: id})
		t.byAlias[alias] = id
	}
	slices.SortFunc(t.static, func(a, b StaticMessage) int {
		if a.ID != b.ID {
			return a.ID - b.ID
		}
		return strings.Compare(a.Alias, b.Alias)
	})
	for _, s := range t.static {
		if _, ok := t.byID[s.ID]; !ok {
			t.byID[s.ID] = s.Alias
		}
	}
	for name, idx := range file.GlobalVars {
		t.globalVars[name] = idx
	}
	for key, values := range file.Attributes {
		key = attributeKey(key)
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[strings.ToLower(v)] = struct{}{}
		}
		t.attributes[key] = values
		t.attrSet[key] = set
	}
	return t, nil
}

// StaticMessageID resolves a static alias such as "QuestComplete".
func (t *Tables) StaticMessageID(alias string) (int, bool) {
	id, ok := t.byAlias[alias]
	return id, ok
}

// StaticMessageAlias returns the alias of a static message id.
func (t *Tables) StaticMessageAlias(id int) (string, bool) {
	alias, ok := t.byID[id]
	return alias, ok
}

// StaticMessages lists static messages ordered by id.
func (t *Tables) StaticMessages() []StaticMessage {
	return t.static
}

func (t *Tables) GlobalVar(name string) (int, bool) {
	idx, ok := t.globalVars[name]
	return idx, ok
}

func (t *Tables) GlobalVarNames() []string {
	names := make([]string, 0, len(t.globalVars))
	for name := range t.globalVars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// HasAttributes reports whether typ ("${faction}" or "faction") has a value set.
func (t *Tables) HasAttributes(typ string) bool {
	_, ok := t.attrSet[attributeKey(typ)]
	return ok
}

// Attribute reports whether value belongs to the set of typ. Comparison
// ignores case.
func (t *Tables) Attribute(typ, value string) bool {
	set, ok := t.attrSet[attributeKey(typ)]
	if !ok {
		return false
	}
	_, ok = set[strings.ToLower(value)]
	return ok
}

func (t *Tables) Attributes(typ string) []string {
	return t.attributes[attributeKey(typ)]
}

// AttributeGroups returns the table keys in sorted order.
func (t *Tables) AttributeGroups() []string {
	keys := make([]string, 0, len(t.attributes))
	for k := range t.attributes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
