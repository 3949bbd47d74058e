package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// activation wraps a single elementwise kernel call (ReLU, Sigmoid,
// Tanh, GELU) behind the Operator contract; they share one
// implementation since their shape contract is identical.
type activation struct {
	name string
	fn   func(d *kernel.Dispatcher, in, out []float32) error
	d    *kernel.Dispatcher
}

func (a *activation) Name() string { return a.name }
func (a *activation) Destroy()     {}

func (a *activation) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("operator: %s expects 1 input and 1 output: %w", a.name, errs.ErrInvalidArgument)
	}
	in, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	out := make([]float32, outputs[0].ElementCount())
	if err := a.fn(a.d, in, out); err != nil {
		return err
	}
	return outputs[0].SetFloat32(out)
}

func newReLU(_ map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &activation{name: "relu", d: d, fn: func(d *kernel.Dispatcher, in, out []float32) error {
		return d.ReLUOptimal(in, out)
	}}, nil
}

func newSigmoid(_ map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &activation{name: "sigmoid", d: d, fn: func(d *kernel.Dispatcher, in, out []float32) error {
		return d.SigmoidOptimal(in, out)
	}}, nil
}

func newTanh(_ map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &activation{name: "tanh", d: d, fn: func(d *kernel.Dispatcher, in, out []float32) error {
		return d.TanhOptimal(in, out)
	}}, nil
}

func newGELU(_ map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &activation{name: "gelu", d: d, fn: func(d *kernel.Dispatcher, in, out []float32) error {
		return d.GELUOptimal(in, out)
	}}, nil
}
