package operator

import (
	"fmt"
	"math"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// melScale projects a linear-frequency magnitude spectrogram onto a mel
// filterbank and takes the log, the standard front end for
// mel-spectrogram-conditioned vocoders.
type melScale struct {
	nMels, nFFT, sampleRate int
	fMin, fMax              float64
	filters                 []float32 // [nMels, nFFT/2+1], built once in newMelScale
	d                       *kernel.Dispatcher
}

func newMelScale(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	nMels, ok1 := intParam(params, "n_mels")
	nFFT, ok2 := intParam(params, "n_fft")
	sampleRate, ok3 := intParam(params, "sample_rate")
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("operator: mel_scale requires n_mels, n_fft, sample_rate: %w", errs.ErrInvalidArgument)
	}
	fMin := floatParam(params, "f_min", 0)
	fMax := floatParam(params, "f_max", float64(sampleRate)/2)

	m := &melScale{nMels: nMels, nFFT: nFFT, sampleRate: sampleRate, fMin: fMin, fMax: fMax, d: d}
	m.filters = buildMelFilterbank(nMels, nFFT, sampleRate, fMin, fMax)
	return m, nil
}

func floatParam(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	default:
		return def
	}
}

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

// buildMelFilterbank returns nMels triangular filters over
// nFFT/2+1 linear-frequency bins, spaced evenly in mel scale between
// fMin and fMax.
func buildMelFilterbank(nMels, nFFT, sampleRate int, fMin, fMax float64) []float32 {
	bins := nFFT/2 + 1
	melMin, melMax := hzToMel(fMin), hzToMel(fMax)
	melPoints := make([]float64, nMels+2)
	for i := range melPoints {
		melPoints[i] = melMin + (melMax-melMin)*float64(i)/float64(nMels+1)
	}
	hzPoints := make([]float64, len(melPoints))
	for i, m := range melPoints {
		hzPoints[i] = melToHz(m)
	}
	binPoints := make([]int, len(hzPoints))
	for i, hz := range hzPoints {
		binPoints[i] = int(math.Floor((float64(nFFT) + 1) * hz / float64(sampleRate)))
	}

	filters := make([]float32, nMels*bins)
	for m := 0; m < nMels; m++ {
		left, center, right := binPoints[m], binPoints[m+1], binPoints[m+2]
		for k := left; k < center && k < bins; k++ {
			if center != left {
				filters[m*bins+k] = float32(k-left) / float32(center-left)
			}
		}
		for k := center; k < right && k < bins; k++ {
			if right != center {
				filters[m*bins+k] = float32(right-k) / float32(right-center)
			}
		}
	}
	return filters
}

func (m *melScale) Name() string { return "mel_scale" }
func (m *melScale) Destroy()     {}

// Forward expects inputs = [spectrogram] shaped [nFrames, nFFT/2+1] and
// a single output shaped [nFrames, nMels] holding log-mel energies.
func (m *melScale) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("operator: mel_scale expects 1 input and 1 output: %w", errs.ErrInvalidArgument)
	}
	spec, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	bins := m.nFFT/2 + 1
	if bins == 0 {
		return fmt.Errorf("operator: mel_scale n_fft must be > 0: %w", errs.ErrInvalidState)
	}
	nFrames := len(spec) / bins

	mel := make([]float32, nFrames*m.nMels)
	if err := m.d.MelFilterbankOptimal(m.filters, spec, m.nMels, m.nFFT, nFrames, mel); err != nil {
		return err
	}
	logMel := make([]float32, len(mel))
	if err := m.d.LogSpectrumOptimal(mel, logMel); err != nil {
		return err
	}
	return outputs[0].SetFloat32(logMel)
}
