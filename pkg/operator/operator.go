// Package operator implements the higher-level neural ops (Linear,
// Conv1D, Attention, STFT, MelScale, Vocoder, activations, and
// normalization layers) that a graph node wraps. Every operator follows
// the same create/forward/destroy lifecycle: Create validates static
// shape/parameter arguments once, Forward runs per invocation against
// tensors sized to match, and Destroy releases anything Create
// allocated outside the tensor pool.
package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// Operator is the contract every op in this package implements.
type Operator interface {
	// Name reports the operator kind, e.g. "linear", "conv1d".
	Name() string
	// Forward runs the operator over inputs, writing into outputs.
	// Both slices are sized and ordered per the operator's own
	// documentation.
	Forward(inputs, outputs []*tensor.Tensor) error
	// Destroy releases any resources Create allocated.
	Destroy()
}

// Registry maps operator type names to factory functions, so a graph
// loader can build a node's Operator purely from the type name and
// parameter map found in a serialized graph.
type Registry struct {
	factories map[string]Factory
	dispatch  *kernel.Dispatcher
}

// Factory builds an Operator from a parameter map (already decoded from
// the graph descriptor or LEF layer header).
type Factory func(params map[string]any, dispatch *kernel.Dispatcher) (Operator, error)

// NewRegistry creates a Registry pre-populated with every operator this
// package implements.
func NewRegistry(dispatch *kernel.Dispatcher) *Registry {
	r := &Registry{factories: make(map[string]Factory), dispatch: dispatch}
	r.register("linear", newLinear)
	r.register("conv1d", newConv1D)
	r.register("attention", newAttention)
	r.register("stft", newSTFT)
	r.register("mel_scale", newMelScale)
	r.register("stft_mel_scale_fused", newSTFTMelScale)
	r.register("vocoder", newVocoder)
	r.register("relu", newReLU)
	r.register("sigmoid", newSigmoid)
	r.register("tanh", newTanh)
	r.register("gelu", newGELU)
	r.register("layer_norm", newLayerNorm)
	r.register("batch_norm", newBatchNorm)
	return r
}

func (r *Registry) register(name string, f Factory) {
	r.factories[name] = f
}

// Build constructs the named operator.
func (r *Registry) Build(opType string, params map[string]any) (Operator, error) {
	f, ok := r.factories[opType]
	if !ok {
		return nil, fmt.Errorf("operator: unknown type %q: %w", opType, errs.ErrNotFound)
	}
	op, err := f(params, r.dispatch)
	if err != nil {
		return nil, fmt.Errorf("operator: build %q: %w", opType, err)
	}
	return op, nil
}

// Types lists every registered operator type name.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	return out
}
