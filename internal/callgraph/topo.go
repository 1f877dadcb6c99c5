package callgraph

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []QuestID   // линейный порядок (только объявленные квесты)
	Batches [][]QuestID // волны: квесты, которых никто из оставшихся не запускает
	Cyclic  bool
	Cycles  []QuestID // квесты, оставшиеся в цикле
}

func toID(i int) QuestID {
	id, err := safecast.Conv[QuestID](i)
	if err != nil {
		panic(fmt.Errorf("quest id overflow: %w", err))
	}
	return id
}

// ToposortKahn orders the declared quests so that callers precede callees.
func ToposortKahn(g Graph) *Topo {
	count := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]QuestID, 0, count),
		Batches: make([][]QuestID, 0),
	}

	active := 0
	current := make([]QuestID, 0, count)
	for i := range count {
		if !g.Present[i] {
			continue
		}
		active++
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]QuestID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range count {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}
