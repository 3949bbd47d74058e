package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validate (which LoadYAML also runs) rejects a forward reference before
// it calls detectCycle, so a cycle never reaches detectCycle through
// Validate. This test builds the nodes directly — the same way
// TestValidateRejectsForwardReference does for the forward-reference
// check — and calls detectCycle itself to exercise its back-edge case.
func TestDetectCycleCatchesBackEdge(t *testing.T) {
	g := New()
	g.nodes = append(g.nodes, &Node{ID: 0, Name: "a", OpType: "relu", Inputs: []NodeID{1}})
	g.nodes = append(g.nodes, &Node{ID: 1, Name: "b", OpType: "relu", Inputs: []NodeID{0}})

	cyc, found := detectCycle(g)
	require.True(t, found)
	assert.Contains(t, []NodeID{0, 1}, cyc)
}

func TestDetectCycleAcceptsAcyclicGraph(t *testing.T) {
	g := buildLinearReLUGraph()
	_, found := detectCycle(g)
	assert.False(t, found)
}
