package graph

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// TopologicalOrder returns node ids in an order where every node appears
// after all of its inputs, using Kahn's algorithm with a deterministic
// tie-break: among nodes simultaneously ready to schedule, the
// lowest-id (earliest inserted) one goes first. This makes execution
// order reproducible across runs of the same graph.
func TopologicalOrder(g *Graph) ([]NodeID, error) {
	indegree := make([]int, len(g.nodes))
	dependents := make([][]NodeID, len(g.nodes))
	for _, n := range g.nodes {
		indegree[n.ID] = len(n.Inputs)
		for _, in := range n.Inputs {
			dependents[in] = append(dependents[in], n.ID)
		}
	}

	ready := newMinHeap()
	for _, n := range g.nodes {
		if indegree[n.ID] == 0 {
			ready.push(n.ID)
		}
	}

	order := make([]NodeID, 0, len(g.nodes))
	for ready.len() > 0 {
		id := ready.pop()
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready.push(dep)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph: topological sort covered %d of %d nodes, graph has a cycle: %w", len(order), len(g.nodes), errs.ErrInvalidState)
	}
	return order, nil
}

// minHeap is a tiny binary min-heap over NodeID, used instead of
// container/heap's interface boilerplate for a single fixed element
// type.
type minHeap struct{ data []NodeID }

func newMinHeap() *minHeap { return &minHeap{} }

func (h *minHeap) len() int { return len(h.data) }

func (h *minHeap) push(id NodeID) {
	h.data = append(h.data, id)
	i := len(h.data) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.data[parent] <= h.data[i] {
			break
		}
		h.data[parent], h.data[i] = h.data[i], h.data[parent]
		i = parent
	}
}

func (h *minHeap) pop() NodeID {
	top := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < len(h.data) && h.data[left] < h.data[smallest] {
			smallest = left
		}
		if right < len(h.data) && h.data[right] < h.data[smallest] {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.data[i], h.data[smallest] = h.data[smallest], h.data[i]
		i = smallest
	}
	return top
}
