package graph

// LifetimePlan maps each node id to a buffer slot, assigned so that two
// nodes whose output lifetimes don't overlap can share the same
// underlying allocation. Built after TopologicalOrder, since liveness is
// defined relative to execution order.
type LifetimePlan struct {
	Slot       map[NodeID]int
	SlotCount  int
}

// PlanLifetimes computes a greedy interval-based buffer reuse plan: scan
// order in execution sequence, assign each node the lowest-numbered free
// slot, and free a node's slot once every consumer that reads it has
// executed. This is the same shrink-to-fit idea a register allocator
// uses for live ranges, applied to tensor buffers instead of registers.
func PlanLifetimes(g *Graph, order []NodeID) *LifetimePlan {
	lastUse := make(map[NodeID]int, len(order))
	posOf := make(map[NodeID]int, len(order))
	for pos, id := range order {
		posOf[id] = pos
		lastUse[id] = pos // a node with no consumers is "used" at its own step
	}
	for _, n := range g.nodes {
		pos := posOf[n.ID]
		for _, in := range n.Inputs {
			if pos > lastUse[in] {
				lastUse[in] = pos
			}
		}
	}
	for _, out := range g.outputs {
		lastUse[out] = len(order) // outputs live past the last compute step
	}

	slot := make(map[NodeID]int, len(order))
	var free []int
	nextSlot := 0
	// active holds, per currently-live slot, which node occupies it so we
	// know when to free it.
	type occupant struct {
		id      NodeID
		freedAt int
	}
	active := make([]occupant, 0, len(order))

	for pos, id := range order {
		// Free any slots whose occupant's lastUse is strictly before the
		// current step.
		remaining := active[:0]
		for _, o := range active {
			if o.freedAt < pos {
				free = append(free, slot[o.id])
			} else {
				remaining = append(remaining, o)
			}
		}
		active = remaining

		var s int
		if len(free) > 0 {
			s = free[len(free)-1]
			free = free[:len(free)-1]
		} else {
			s = nextSlot
			nextSlot++
		}
		slot[id] = s
		active = append(active, occupant{id: id, freedAt: lastUse[id]})
	}

	return &LifetimePlan{Slot: slot, SlotCount: nextSlot}
}
