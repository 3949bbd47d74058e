package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// linear is a fully-connected layer: out[m,n] = in[m,k] * weight[k,n] + bias[n].
type linear struct {
	inFeatures, outFeatures int
	hasBias                 bool
	d                       *kernel.Dispatcher
}

func newLinear(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	in, okIn := intParam(params, "in_features")
	out, okOut := intParam(params, "out_features")
	if !okIn || !okOut {
		return nil, fmt.Errorf("operator: linear requires in_features and out_features: %w", errs.ErrInvalidArgument)
	}
	_, hasBias := params["bias"]
	return &linear{inFeatures: in, outFeatures: out, hasBias: hasBias, d: d}, nil
}

func (l *linear) Name() string { return "linear" }
func (l *linear) Destroy()     {}

// Forward expects inputs = [x, weight] or [x, weight, bias]; x is
// [batch, in_features] row-major, weight is [in_features, out_features].
func (l *linear) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) < 2 || len(outputs) != 1 {
		return fmt.Errorf("operator: linear expects ≥2 inputs and 1 output: %w", errs.ErrInvalidArgument)
	}
	x, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	w, err := inputs[1].Float32()
	if err != nil {
		return err
	}
	if l.inFeatures == 0 {
		return fmt.Errorf("operator: linear in_features must be > 0: %w", errs.ErrInvalidState)
	}
	batch := len(x) / l.inFeatures
	out := make([]float32, batch*l.outFeatures)
	if err := l.d.MatmulOptimal(x, w, out, batch, l.inFeatures, l.outFeatures); err != nil {
		return err
	}
	if l.hasBias && len(inputs) >= 3 {
		bias, err := inputs[2].Float32()
		if err != nil {
			return err
		}
		for i := 0; i < batch; i++ {
			row := out[i*l.outFeatures : (i+1)*l.outFeatures]
			if err := l.d.VectorAddOptimal(row, bias, row); err != nil {
				return err
			}
		}
	}
	return outputs[0].SetFloat32(out)
}

func intParam(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}
