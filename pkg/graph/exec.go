package graph

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/operator"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// Executor runs a Graph's nodes in topological order against a tensor
// pool, building each node's Operator lazily on first run and caching it
// for subsequent runs (so a repeated inference pass over the same graph
// doesn't rebuild filter banks or validate parameters every time).
type Executor struct {
	g        *Graph
	registry *operator.Registry
	order    []NodeID
	ops      map[NodeID]operator.Operator
	inputs   map[NodeID]*tensor.Tensor // externally-provided leaf tensors, keyed by node id
}

// NewExecutor builds an Executor for g using registry to construct
// operators. Call Optimize(g) before this if optimization passes should
// run — the executor does not run them implicitly, so callers can
// inspect the unoptimized graph first if they want to.
func NewExecutor(g *Graph, registry *operator.Registry) (*Executor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	order, err := TopologicalOrder(g)
	if err != nil {
		return nil, err
	}
	return &Executor{
		g:        g,
		registry: registry,
		order:    order,
		ops:      make(map[NodeID]operator.Operator),
		inputs:   make(map[NodeID]*tensor.Tensor),
	}, nil
}

// BindInput supplies the tensor a leaf node (one with no Inputs) should
// read from, instead of computing it from upstream nodes.
func (e *Executor) BindInput(id NodeID, t *tensor.Tensor) {
	e.inputs[id] = t
}

// Run executes every node in topological order, allocating each node's
// output tensor from pool, and returns the output tensors corresponding
// to the graph's declared Outputs, in order.
func (e *Executor) Run(pool *tensor.Pool, outputShape func(id NodeID) []int) ([]*tensor.Tensor, error) {
	results := make(map[NodeID]*tensor.Tensor, len(e.order))

	for _, id := range e.order {
		if t, ok := e.inputs[id]; ok {
			results[id] = t
			continue
		}
		n, err := e.g.Node(id)
		if err != nil {
			return nil, err
		}
		if len(n.Inputs) == 0 {
			return nil, fmt.Errorf("graph: node %q (id %d) has no inputs and no bound tensor: %w", n.Name, id, errs.ErrInvalidState)
		}

		op, err := e.operatorFor(n)
		if err != nil {
			return nil, err
		}

		inTensors := make([]*tensor.Tensor, len(n.Inputs))
		for i, in := range n.Inputs {
			t, ok := results[in]
			if !ok {
				return nil, fmt.Errorf("graph: node %q depends on unexecuted node %d: %w", n.Name, in, errs.ErrInvalidState)
			}
			inTensors[i] = t
		}

		var out *tensor.Tensor
		if n.InPlace {
			out = inTensors[0]
		} else {
			shape := outputShape(id)
			out, err = tensor.New(pool, tensor.F32, shape)
			if err != nil {
				return nil, fmt.Errorf("graph: allocate output for node %q: %w", n.Name, err)
			}
		}

		if err := op.Forward(inTensors, []*tensor.Tensor{out}); err != nil {
			return nil, fmt.Errorf("graph: node %q forward: %w", n.Name, err)
		}
		results[id] = out
	}

	outs := make([]*tensor.Tensor, len(e.g.outputs))
	for i, id := range e.g.outputs {
		t, ok := results[id]
		if !ok {
			return nil, fmt.Errorf("graph: output node %d never executed: %w", id, errs.ErrInvalidState)
		}
		outs[i] = t
	}
	return outs, nil
}

func (e *Executor) operatorFor(n *Node) (operator.Operator, error) {
	if op, ok := e.ops[n.ID]; ok {
		return op, nil
	}
	op, err := e.registry.Build(n.OpType, n.Params)
	if err != nil {
		return nil, err
	}
	e.ops[n.ID] = op
	return op, nil
}

// Close releases every operator the executor built.
func (e *Executor) Close() {
	for _, op := range e.ops {
		op.Destroy()
	}
}
