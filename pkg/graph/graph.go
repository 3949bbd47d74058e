// Package graph implements the computation-graph engine: node-id based
// graph construction, cycle detection, topological scheduling, the
// optimization passes (fusion, dead-code elimination, in-place rewrite,
// lifetime-based buffer reuse), and execution against a tensor pool.
//
// Nodes are referenced by integer id rather than pointer, per the
// runtime's "explicit context over shared mutable pointers" convention
// — a Graph can be serialized, diffed, or rewritten by passes that only
// ever touch ids and a flat node slice.
package graph

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// NodeID indexes into a Graph's node slice.
type NodeID int

// Node is one computation-graph vertex: an operator type, its static
// parameters, and the ids of the nodes feeding it.
type Node struct {
	ID      NodeID
	OpType  string
	Params  map[string]any
	Inputs  []NodeID
	Name    string
	InPlace bool // set by the in-place optimization pass
}

// Graph is a node-id-indexed DAG plus the ids designated as outputs.
type Graph struct {
	nodes   []*Node
	outputs []NodeID
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{}
}

// AddNode appends a node and returns its id. AddNode itself does not
// check inputs; Validate rejects any input id that is not already
// present in the graph before this node (an earlier id).
func (g *Graph) AddNode(name, opType string, params map[string]any, inputs ...NodeID) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{ID: id, Name: name, OpType: opType, Params: params, Inputs: append([]NodeID(nil), inputs...)})
	return id
}

// SetOutputs designates which node ids are graph outputs; dead-code
// elimination treats every other node as a candidate for removal unless
// it transitively feeds one of these.
func (g *Graph) SetOutputs(ids ...NodeID) {
	g.outputs = append([]NodeID(nil), ids...)
}

// Outputs returns the designated output node ids.
func (g *Graph) Outputs() []NodeID { return g.outputs }

// Node returns the node at id.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("graph: node id %d out of range: %w", id, errs.ErrInvalidArgument)
	}
	return g.nodes[id], nil
}

// Nodes returns every node in insertion order. Callers must not retain
// the slice across a call to RemoveNodes.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Len reports how many nodes the graph holds.
func (g *Graph) Len() int { return len(g.nodes) }

// Validate checks that every node's inputs reference valid, earlier ids
// (the builder API only ever appends, so a well-formed graph is already
// acyclic by construction) and that every declared output id exists.
func (g *Graph) Validate() error {
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			if int(in) < 0 || int(in) >= len(g.nodes) {
				return fmt.Errorf("graph: node %q references missing input id %d: %w", n.Name, in, errs.ErrInvalidState)
			}
			if in >= n.ID {
				return fmt.Errorf("graph: node %q (id %d) references non-earlier input id %d: %w", n.Name, n.ID, in, errs.ErrInvalidState)
			}
		}
	}
	for _, out := range g.outputs {
		if int(out) < 0 || int(out) >= len(g.nodes) {
			return fmt.Errorf("graph: output references missing node id %d: %w", out, errs.ErrInvalidState)
		}
	}
	if cyc, ok := detectCycle(g); ok {
		return fmt.Errorf("graph: cycle detected at node %d: %w", cyc, errs.ErrInvalidState)
	}
	return nil
}

// RemoveNodes deletes the nodes with the given ids and renumbers the
// remaining nodes to a dense [0, n) id space, rewriting every Inputs and
// Outputs reference accordingly. Used by the dead-code-elimination pass.
func (g *Graph) RemoveNodes(dead map[NodeID]bool) {
	if len(dead) == 0 {
		return
	}
	remap := make(map[NodeID]NodeID, len(g.nodes))
	kept := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if dead[n.ID] {
			continue
		}
		newID := NodeID(len(kept))
		remap[n.ID] = newID
		n.ID = newID
		kept = append(kept, n)
	}
	for _, n := range kept {
		newInputs := make([]NodeID, 0, len(n.Inputs))
		for _, in := range n.Inputs {
			if id, ok := remap[in]; ok {
				newInputs = append(newInputs, id)
			}
		}
		n.Inputs = newInputs
	}
	newOutputs := make([]NodeID, 0, len(g.outputs))
	for _, out := range g.outputs {
		if id, ok := remap[out]; ok {
			newOutputs = append(newOutputs, id)
		}
	}
	g.nodes = kept
	g.outputs = newOutputs
}
