// Package callgraph orders quests by their "start quest" calls: callers come
// before the quests they start, quests that start each other form cycles.
package callgraph

import "sort"

type QuestID uint32

type Index struct {
	NameToID map[string]QuestID
	IDToName []string
}

// собрать уникальные имена (объявленные и вызываемые), отсортировать, раздать ID по порядку
func BuildIndex(nodes []Node) Index {
	uniq := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Name != "" {
			uniq[n.Name] = struct{}{}
		}
		for _, c := range n.Calls {
			if c.Name == "" {
				continue
			}
			uniq[c.Name] = struct{}{}
		}
	}

	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	sort.Strings(names)

	nameToID := make(map[string]QuestID, len(names))
	for i, name := range names {
		nameToID[name] = QuestID(i)
	}
	return Index{NameToID: nameToID, IDToName: names}
}

// Names maps ids back to quest names.
func (idx Index) Names(ids []QuestID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}
