package operator

import (
	"fmt"
	"math"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// attention implements scaled dot-product attention over a single head:
// softmax(Q Kᵀ / sqrt(dk)) V. Multi-head callers build one attention
// node per head and concatenate downstream, matching how the graph
// descriptor expresses it as repeated single-head nodes rather than a
// single batched kernel.
type attention struct {
	dModel int
	causal bool
	d      *kernel.Dispatcher
}

func newAttention(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	dModel, ok := intParam(params, "d_model")
	if !ok {
		return nil, fmt.Errorf("operator: attention requires d_model: %w", errs.ErrInvalidArgument)
	}
	return &attention{dModel: dModel, causal: boolParam(params, "causal", false), d: d}, nil
}

func boolParam(params map[string]any, key string, def bool) bool {
	v, ok := params[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func (a *attention) Name() string { return "attention" }
func (a *attention) Destroy()     {}

// Forward expects inputs = [q, k, v], each [seqLen, dModel] row-major,
// and a single output of the same shape as q.
func (a *attention) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 3 || len(outputs) != 1 {
		return fmt.Errorf("operator: attention expects [q, k, v] and 1 output: %w", errs.ErrInvalidArgument)
	}
	q, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	k, err := inputs[1].Float32()
	if err != nil {
		return err
	}
	v, err := inputs[2].Float32()
	if err != nil {
		return err
	}
	if a.dModel == 0 {
		return fmt.Errorf("operator: attention d_model must be > 0: %w", errs.ErrInvalidState)
	}
	seqLen := len(q) / a.dModel
	scale := float32(1.0 / math.Sqrt(float64(a.dModel)))

	scores := make([]float32, seqLen*seqLen)
	kT := transpose(k, seqLen, a.dModel)
	if err := a.d.MatmulOptimal(q, kT, scores, seqLen, a.dModel, seqLen); err != nil {
		return err
	}
	if err := a.d.VectorScaleOptimal(scores, scale, scores); err != nil {
		return err
	}
	if a.causal {
		applyCausalMask(scores, seqLen)
	}

	weights := make([]float32, seqLen*seqLen)
	for row := 0; row < seqLen; row++ {
		in := scores[row*seqLen : (row+1)*seqLen]
		out := weights[row*seqLen : (row+1)*seqLen]
		if err := a.d.SoftmaxOptimal(in, out); err != nil {
			return err
		}
	}

	out := make([]float32, seqLen*a.dModel)
	if err := a.d.MatmulOptimal(weights, v, out, seqLen, seqLen, a.dModel); err != nil {
		return err
	}
	return outputs[0].SetFloat32(out)
}

// applyCausalMask sets every score[row][col] with col > row to -inf in
// place, so softmax drives those positions to zero: position row can only
// attend to positions up to and including itself.
func applyCausalMask(scores []float32, seqLen int) {
	for row := 0; row < seqLen; row++ {
		for col := row + 1; col < seqLen; col++ {
			scores[row*seqLen+col] = float32(math.Inf(-1))
		}
	}
}

func transpose(m []float32, rows, cols int) []float32 {
	out := make([]float32, len(m))
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = m[i*cols+j]
		}
	}
	return out
}
