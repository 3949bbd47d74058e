package graph

// maxFusionRounds bounds the fixpoint loop the fusion pass runs, so a
// pathological or buggy pattern table can't spin the optimizer forever.
const maxFusionRounds = 10

// fusionPatterns lists the (producer, consumer) operator-type pairs this
// runtime knows how to collapse into a single fused node, plus the name
// the fused node should use. Fusing Linear→ReLU and Conv1D→ReLU avoids a
// round-trip through memory between the matmul/convolution and its
// activation; STFT→MelScale avoids materializing the full linear
// spectrogram when only its mel projection is needed downstream.
var fusionPatterns = map[[2]string]string{
	{"linear", "relu"}:    "linear_relu_fused",
	{"conv1d", "relu"}:    "conv1d_relu_fused",
	{"stft", "mel_scale"}: "stft_mel_scale_fused",
}

// Optimize runs the fusion, dead-code-elimination, and in-place rewrite
// passes in sequence and returns the number of fusion rounds it took to
// reach a fixpoint (0 means the graph had nothing to fuse).
func Optimize(g *Graph) (int, error) {
	rounds, err := fuse(g)
	if err != nil {
		return rounds, err
	}
	eliminateDeadCode(g)
	markInPlace(g)
	return rounds, nil
}

// fuse repeatedly scans for single-consumer producer→consumer pairs
// matching fusionPatterns and merges them into one fused node, until a
// pass finds nothing left to fuse or maxFusionRounds is hit.
func fuse(g *Graph) (int, error) {
	round := 0
	for ; round < maxFusionRounds; round++ {
		changed := false
		consumerCount := make(map[NodeID]int)
		for _, n := range g.nodes {
			for _, in := range n.Inputs {
				consumerCount[in]++
			}
		}
		for _, n := range g.nodes {
			if len(n.Inputs) != 1 {
				continue
			}
			producer, err := g.Node(n.Inputs[0])
			if err != nil {
				continue
			}
			if consumerCount[producer.ID] != 1 {
				continue // producer feeds something else too; fusing would drop that edge
			}
			fusedType, ok := fusionPatterns[[2]string{producer.OpType, n.OpType}]
			if !ok {
				continue
			}
			n.OpType = fusedType
			n.Inputs = producer.Inputs
			n.Params = mergeParams(producer.Params, n.Params)
			markDead(g, producer.ID)
			changed = true
		}
		if !changed {
			break
		}
	}
	eliminateDeadCode(g)
	return round, nil
}

func mergeParams(producer, consumer map[string]any) map[string]any {
	merged := make(map[string]any, len(producer)+len(consumer))
	for k, v := range producer {
		merged["producer_"+k] = v
	}
	for k, v := range consumer {
		merged[k] = v
	}
	return merged
}

// markDead stamps a node as slated for removal; stamped nodes stay in
// the graph through fuse's remaining rounds and are swept by
// eliminateDeadCode once fuse's rounds finish, and again at the end of
// Optimize.
func markDead(g *Graph, id NodeID) {
	g.nodes[id].OpType = deadSentinel
}

const deadSentinel = "__dead__"

// eliminateDeadCode removes every node not reachable backward from an
// output (including nodes markDead stamped during fusion).
func eliminateDeadCode(g *Graph) {
	live := make(map[NodeID]bool, len(g.nodes))
	var mark func(id NodeID)
	mark = func(id NodeID) {
		if live[id] {
			return
		}
		live[id] = true
		for _, in := range g.nodes[id].Inputs {
			mark(in)
		}
	}
	for _, out := range g.outputs {
		mark(out)
	}
	dead := make(map[NodeID]bool)
	for _, n := range g.nodes {
		if n.OpType == deadSentinel || !live[n.ID] {
			dead[n.ID] = true
		}
	}
	g.RemoveNodes(dead)
}

// markInPlace flags nodes whose operator can safely overwrite its sole
// input's buffer: the elementwise activations relu, sigmoid, tanh and
// gelu, when their input has exactly one consumer and no other reader. In-place nodes let the
// executor skip allocating a fresh output tensor.
func markInPlace(g *Graph) {
	elementwise := map[string]bool{
		"relu": true, "sigmoid": true, "tanh": true, "gelu": true,
	}
	consumerCount := make(map[NodeID]int)
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			consumerCount[in]++
		}
	}
	for _, n := range g.nodes {
		if !elementwise[n.OpType] || len(n.Inputs) != 1 {
			continue
		}
		if consumerCount[n.Inputs[0]] == 1 {
			n.InPlace = true
		}
	}
}
