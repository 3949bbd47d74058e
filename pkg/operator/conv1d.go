package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// conv1D is a 1-D convolution over [channels, length] input, used for the
// convolutional feature-extraction stacks common in vocoder front ends.
type conv1D struct {
	inChannels, outChannels, kernelSize, stride, padding, dilation int
	d                                                               *kernel.Dispatcher
}

func newConv1D(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	inCh, ok1 := intParam(params, "in_channels")
	outCh, ok2 := intParam(params, "out_channels")
	ks, ok3 := intParam(params, "kernel_size")
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("operator: conv1d requires in_channels, out_channels, kernel_size: %w", errs.ErrInvalidArgument)
	}
	stride, ok := intParam(params, "stride")
	if !ok {
		stride = 1
	}
	padding, _ := intParam(params, "padding")
	dilation, ok := intParam(params, "dilation")
	if !ok || dilation == 0 {
		dilation = 1
	}
	return &conv1D{inChannels: inCh, outChannels: outCh, kernelSize: ks, stride: stride, padding: padding, dilation: dilation, d: d}, nil
}

func (c *conv1D) Name() string { return "conv1d" }
func (c *conv1D) Destroy()     {}

// Forward expects inputs = [x, weight] or [x, weight, bias], where x is
// [in_channels, length] row-major, weight is
// [out_channels, in_channels * kernel_size], and the optional bias is
// [out_channels], broadcast over every output position of its channel.
func (c *conv1D) Forward(inputs, outputs []*tensor.Tensor) error {
	if (len(inputs) != 2 && len(inputs) != 3) || len(outputs) != 1 {
		return fmt.Errorf("operator: conv1d expects [x, weight] or [x, weight, bias] and 1 output: %w", errs.ErrInvalidArgument)
	}
	x, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	w, err := inputs[1].Float32()
	if err != nil {
		return err
	}
	var bias []float32
	if len(inputs) == 3 {
		bias, err = inputs[2].Float32()
		if err != nil {
			return err
		}
		if len(bias) != c.outChannels {
			return fmt.Errorf("operator: conv1d bias length %d does not match out_channels %d: %w", len(bias), c.outChannels, errs.ErrInvalidArgument)
		}
	}
	if c.inChannels == 0 {
		return fmt.Errorf("operator: conv1d in_channels must be > 0: %w", errs.ErrInvalidState)
	}
	length := len(x) / c.inChannels
	padded := make([]float32, c.inChannels*(length+2*c.padding))
	for ch := 0; ch < c.inChannels; ch++ {
		copy(padded[ch*(length+2*c.padding)+c.padding:], x[ch*length:(ch+1)*length])
	}
	paddedLen := length + 2*c.padding
	outLen := (paddedLen-c.dilation*(c.kernelSize-1)-1)/c.stride + 1
	if outLen < 0 {
		outLen = 0
	}

	out := make([]float32, c.outChannels*outLen)
	patch := make([]float32, c.inChannels*c.kernelSize)
	for t := 0; t < outLen; t++ {
		start := t * c.stride
		for ch := 0; ch < c.inChannels; ch++ {
			for j := 0; j < c.kernelSize; j++ {
				patch[ch*c.kernelSize+j] = padded[ch*paddedLen+start+j*c.dilation]
			}
		}
		col := make([]float32, c.outChannels)
		if err := c.d.MatmulOptimal(w, patch, col, c.outChannels, c.inChannels*c.kernelSize, 1); err != nil {
			return err
		}
		for oc := 0; oc < c.outChannels; oc++ {
			v := col[oc]
			if bias != nil {
				v += bias[oc]
			}
			out[oc*outLen+t] = v
		}
	}
	return outputs[0].SetFloat32(out)
}
