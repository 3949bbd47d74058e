package operator

import (
	"fmt"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// vocoder turns a log-mel spectrogram into a waveform: nearest-neighbor
// upsample to the audio sample rate by hopSize, then a single gated
// linear projection per sample (tanh branch gated by sigmoid branch) to
// a scalar amplitude — the per-sample core of a WaveNet-style gated
// activation unit, without the dilated-convolution residual stack a
// production neural vocoder would add on top.
type vocoder struct {
	nMels, hopSize int
	d              *kernel.Dispatcher
}

func newVocoder(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	nMels, ok1 := intParam(params, "n_mels")
	hopSize, ok2 := intParam(params, "hop_size")
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("operator: vocoder requires n_mels and hop_size: %w", errs.ErrInvalidArgument)
	}
	return &vocoder{nMels: nMels, hopSize: hopSize, d: d}, nil
}

func (v *vocoder) Name() string { return "vocoder" }
func (v *vocoder) Destroy()     {}

// Forward expects inputs = [mel, tanh_weight, gate_weight], mel shaped
// [nFrames, nMels] and both weights shaped [nMels] (one scalar
// projection per mel band); output is a 1-D waveform of length
// nFrames * hopSize.
func (v *vocoder) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 3 || len(outputs) != 1 {
		return fmt.Errorf("operator: vocoder expects [mel, tanh_weight, gate_weight] and 1 output: %w", errs.ErrInvalidArgument)
	}
	mel, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	tanhW, err := inputs[1].Float32()
	if err != nil {
		return err
	}
	gateW, err := inputs[2].Float32()
	if err != nil {
		return err
	}
	if v.nMels == 0 {
		return fmt.Errorf("operator: vocoder n_mels must be > 0: %w", errs.ErrInvalidState)
	}
	nFrames := len(mel) / v.nMels

	tanhProj := make([]float32, nFrames)
	gateProj := make([]float32, nFrames)
	for f := 0; f < nFrames; f++ {
		frame := mel[f*v.nMels : (f+1)*v.nMels]
		tp, err := v.d.DotProductOptimal(frame, tanhW)
		if err != nil {
			return err
		}
		gp, err := v.d.DotProductOptimal(frame, gateW)
		if err != nil {
			return err
		}
		tanhProj[f] = tp
		gateProj[f] = gp
	}
	tanhOut := make([]float32, nFrames)
	gateOut := make([]float32, nFrames)
	if err := v.d.TanhOptimal(tanhProj, tanhOut); err != nil {
		return err
	}
	if err := v.d.SigmoidOptimal(gateProj, gateOut); err != nil {
		return err
	}
	gated := make([]float32, nFrames)
	if err := v.d.VectorMulOptimal(tanhOut, gateOut, gated); err != nil {
		return err
	}

	wave := make([]float32, nFrames*v.hopSize)
	for f := 0; f < nFrames; f++ {
		for t := 0; t < v.hopSize; t++ {
			wave[f*v.hopSize+t] = gated[f]
		}
	}
	return outputs[0].SetFloat32(wave)
}
