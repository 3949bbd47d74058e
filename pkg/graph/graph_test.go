package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildLinearReLUGraph() *Graph {
	g := New()
	input := g.AddNode("x", "leaf", nil)
	lin := g.AddNode("fc1", "linear", map[string]any{"in_features": 4, "out_features": 4}, input)
	act := g.AddNode("relu1", "relu", nil, lin)
	g.SetOutputs(act)
	return g
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	g := buildLinearReLUGraph()
	require.NoError(t, g.Validate())
}

func TestValidateRejectsForwardReference(t *testing.T) {
	g := New()
	// Manually construct an out-of-order reference.
	g.nodes = append(g.nodes, &Node{ID: 0, Name: "a", OpType: "relu", Inputs: []NodeID{1}})
	g.nodes = append(g.nodes, &Node{ID: 1, Name: "b", OpType: "relu"})
	require.Error(t, g.Validate())
}

func TestTopologicalOrderRespectsDependencies(t *testing.T) {
	g := buildLinearReLUGraph()
	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	require.Len(t, order, 3)
	pos := make(map[NodeID]int)
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos[0], pos[1])
	assert.Less(t, pos[1], pos[2])
}

func TestFusionCollapsesLinearReLU(t *testing.T) {
	g := buildLinearReLUGraph()
	rounds, err := Optimize(g)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rounds, 0)
	require.Equal(t, 2, g.Len()) // leaf + fused node
	fused, err := g.Node(g.Outputs()[0])
	require.NoError(t, err)
	assert.Equal(t, "linear_relu_fused", fused.OpType)
}

func TestDeadCodeEliminationDropsUnreachableNode(t *testing.T) {
	g := New()
	leaf := g.AddNode("x", "leaf", nil)
	used := g.AddNode("used", "relu", nil, leaf)
	g.AddNode("unused", "relu", nil, leaf) // never set as output, never consumed
	g.SetOutputs(used)

	_, err := Optimize(g)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestPlanLifetimesReusesFreedSlot(t *testing.T) {
	g := New()
	leaf := g.AddNode("x", "leaf", nil)
	a := g.AddNode("a", "relu", nil, leaf)
	b := g.AddNode("b", "relu", nil, a)
	g.SetOutputs(b)

	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	plan := PlanLifetimes(g, order)
	assert.Equal(t, 2, plan.SlotCount)
}

func TestLoadYAMLBuildsGraph(t *testing.T) {
	src := `
nodes:
  - name: x
    type: leaf
  - name: fc1
    type: linear
    inputs: [x]
    params:
      in_features: 4
      out_features: 4
  - name: relu1
    type: relu
    inputs: [fc1]
outputs: [relu1]
`
	g, err := LoadYAML([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())
}

func TestLoadYAMLRejectsForwardReference(t *testing.T) {
	src := `
nodes:
  - name: relu1
    type: relu
    inputs: [fc1]
  - name: fc1
    type: linear
outputs: [relu1]
`
	_, err := LoadYAML([]byte(src))
	require.Error(t, err)
}
