package callgraph

import (
	"slices"

	"dftemplate/internal/source"
)

// Node is one declared quest and the quests it starts.
type Node struct {
	Name  string
	Span  source.Span
	Calls []Call
}

// Call is one "start quest" target.
type Call struct {
	Name string
	Span source.Span
}

type Graph struct {
	Edges   [][]QuestID // Edges[caller] = []callee
	Indeg   []int       // входящие степени для Kahn (только объявленные квесты)
	Present []bool      // квест объявлен в рабочей области, а не только вызывается
	// SelfCalls lists quests that start themselves; such edges are left out.
	SelfCalls []QuestID
}

// Build wires the calls of nodes. A name declared twice keeps its first
// node; duplicates are reported by the workspace, not here.
func Build(idx Index, nodes []Node) (Graph, []Node) {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]QuestID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	slots := make([]Node, count)
	for i, name := range idx.IDToName {
		slots[i].Name = name
	}

	for _, n := range nodes {
		id, ok := idx.NameToID[n.Name]
		if !ok || g.Present[int(id)] {
			continue
		}
		slots[int(id)] = n
		g.Present[int(id)] = true
	}

	for from := range slots {
		if !g.Present[from] {
			continue
		}
		seen := make(map[QuestID]struct{}, len(slots[from].Calls))
		for _, c := range slots[from].Calls {
			to, ok := idx.NameToID[c.Name]
			if !ok {
				continue
			}
			if QuestID(from) == to {
				if !slices.Contains(g.SelfCalls, to) {
					g.SelfCalls = append(g.SelfCalls, to)
				}
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[from] = append(g.Edges[from], to)
			if g.Present[int(to)] {
				g.Indeg[int(to)]++
			}
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}
	slices.Sort(g.SelfCalls)
	return g, slots
}

// Missing lists called quests that no node declares.
func (g Graph) Missing() []QuestID {
	var out []QuestID
	for from, edges := range g.Edges {
		if !g.Present[from] {
			continue
		}
		for _, to := range edges {
			if !g.Present[int(to)] && !slices.Contains(out, to) {
				out = append(out, to)
			}
		}
	}
	slices.Sort(out)
	return out
}
