package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// norm wraps LayerNorm/BatchNorm: an input tensor plus precomputed
// gamma/beta affine tensors.
type norm struct {
	name string
	eps  float32
	d    *kernel.Dispatcher
	fn   func(d *kernel.Dispatcher, in, out, gamma, beta []float32, eps float32) error
}

func (n *norm) Name() string { return n.name }
func (n *norm) Destroy()     {}

func (n *norm) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 3 || len(outputs) != 1 {
		return fmt.Errorf("operator: %s expects [input, gamma, beta] and 1 output: %w", n.name, errs.ErrInvalidArgument)
	}
	in, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	gamma, err := inputs[1].Float32()
	if err != nil {
		return err
	}
	beta, err := inputs[2].Float32()
	if err != nil {
		return err
	}
	out := make([]float32, outputs[0].ElementCount())
	if err := n.fn(n.d, in, out, gamma, beta, n.eps); err != nil {
		return err
	}
	return outputs[0].SetFloat32(out)
}

func epsFromParams(params map[string]any) float32 {
	if v, ok := params["eps"]; ok {
		switch t := v.(type) {
		case float32:
			return t
		case float64:
			return float32(t)
		}
	}
	return 1e-5
}

func newLayerNorm(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &norm{name: "layer_norm", eps: epsFromParams(params), d: d, fn: func(d *kernel.Dispatcher, in, out, gamma, beta []float32, eps float32) error {
		return d.LayerNormOptimal(in, out, gamma, beta, eps)
	}}, nil
}

func newBatchNorm(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	return &norm{name: "batch_norm", eps: epsFromParams(params), d: d, fn: func(d *kernel.Dispatcher, in, out, gamma, beta []float32, eps float32) error {
		return d.BatchNormOptimal(in, out, gamma, beta, eps)
	}}, nil
}
