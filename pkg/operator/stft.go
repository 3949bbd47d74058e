package operator

import (
	"fmt"
	"math"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
	"github.com/crlotwhite/libetude-sub008/pkg/kernel"
	"github.com/crlotwhite/libetude-sub008/pkg/tensor"
)

// stft computes the short-time Fourier transform of a mono waveform:
// frame, window, DFT, then per-bin magnitude and phase. This is a direct
// O(n^2) DFT per frame rather than an FFT — acceptable at the frame
// sizes used for speech (typically ≤ 2048) and avoids pulling in a
// transform library the rest of the pack never uses.
type stft struct {
	fftSize, hopSize int
	window           []float32
	d                *kernel.Dispatcher
}

func newSTFT(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	fftSize, ok1 := intParam(params, "fft_size")
	hopSize, ok2 := intParam(params, "hop_size")
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("operator: stft requires fft_size and hop_size: %w", errs.ErrInvalidArgument)
	}
	window := hannWindow(fftSize)
	return &stft{fftSize: fftSize, hopSize: hopSize, window: window, d: d}, nil
}

func hannWindow(n int) []float32 {
	w := make([]float32, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = float32(0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1))))
	}
	return w
}

func (s *stft) Name() string { return "stft" }
func (s *stft) Destroy()     {}

// Forward expects inputs = [waveform] (mono, 1-D) and two output tensors,
// each sized [nFrames, fftSize/2+1]: outputs[0] holds magnitude, outputs[1]
// holds phase (atan2(im, re), radians). The fusion pass collapses this op
// with a following mel_scale into stft_mel_scale_fused, which drops the phase
// output entirely since a mel spectrogram never needs it.
func (s *stft) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 1 || len(outputs) != 2 {
		return fmt.Errorf("operator: stft expects 1 input and 2 outputs (magnitude, phase): %w", errs.ErrInvalidArgument)
	}
	wave, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	if len(wave) < s.fftSize {
		return fmt.Errorf("operator: stft waveform shorter than fft_size: %w", errs.ErrInvalidArgument)
	}
	bins := s.fftSize/2 + 1
	nFrames := (len(wave)-s.fftSize)/s.hopSize + 1

	outMag := make([]float32, nFrames*bins)
	outPhase := make([]float32, nFrames*bins)
	frame := make([]float32, s.fftSize)
	for f := 0; f < nFrames; f++ {
		start := f * s.hopSize
		if err := s.d.WindowApplyOptimal(wave[start:start+s.fftSize], s.window, frame); err != nil {
			return err
		}
		re, im := dft(frame, bins)
		mag := make([]float32, bins)
		if err := s.d.ComplexMagnitudeOptimal(re, im, mag); err != nil {
			return err
		}
		phase := make([]float32, bins)
		if err := s.d.ComplexPhaseOptimal(re, im, phase); err != nil {
			return err
		}
		copy(outMag[f*bins:(f+1)*bins], mag)
		copy(outPhase[f*bins:(f+1)*bins], phase)
	}
	if err := outputs[0].SetFloat32(outMag); err != nil {
		return err
	}
	return outputs[1].SetFloat32(outPhase)
}

// stftMelScale is the fused form of a stft feeding a mel_scale with no
// other consumer (see fusionPatterns in pkg/graph/optimize.go): it never
// materializes phase, since the mel projection the fusion exists for has
// no use for it.
type stftMelScale struct {
	fftSize, hopSize, nMels, sampleRate int
	fMin, fMax                          float64
	window                              []float32
	filters                             []float32
	d                                   *kernel.Dispatcher
}

func newSTFTMelScale(params map[string]any, d *kernel.Dispatcher) (Operator, error) {
	fftSize, ok1 := intParam(params, "producer_fft_size")
	if !ok1 {
		fftSize, ok1 = intParam(params, "n_fft")
	}
	hopSize, ok2 := intParam(params, "producer_hop_size")
	nMels, ok3 := intParam(params, "n_mels")
	sampleRate, ok4 := intParam(params, "sample_rate")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("operator: stft_mel_scale_fused requires fft/hop size, n_mels, sample_rate: %w", errs.ErrInvalidArgument)
	}
	fMin := floatParam(params, "f_min", 0)
	fMax := floatParam(params, "f_max", float64(sampleRate)/2)
	return &stftMelScale{
		fftSize: fftSize, hopSize: hopSize, nMels: nMels, sampleRate: sampleRate,
		fMin: fMin, fMax: fMax,
		window:  hannWindow(fftSize),
		filters: buildMelFilterbank(nMels, fftSize, sampleRate, fMin, fMax),
		d:       d,
	}, nil
}

func (s *stftMelScale) Name() string { return "stft_mel_scale_fused" }
func (s *stftMelScale) Destroy()     {}

// Forward expects inputs = [waveform] and a single output shaped
// [nFrames, nMels] holding log-mel energies.
func (s *stftMelScale) Forward(inputs, outputs []*tensor.Tensor) error {
	if len(inputs) != 1 || len(outputs) != 1 {
		return fmt.Errorf("operator: stft_mel_scale_fused expects 1 input and 1 output: %w", errs.ErrInvalidArgument)
	}
	wave, err := inputs[0].Float32()
	if err != nil {
		return err
	}
	if len(wave) < s.fftSize {
		return fmt.Errorf("operator: stft_mel_scale_fused waveform shorter than fft size: %w", errs.ErrInvalidArgument)
	}
	bins := s.fftSize/2 + 1
	nFrames := (len(wave)-s.fftSize)/s.hopSize + 1

	spec := make([]float32, nFrames*bins)
	frame := make([]float32, s.fftSize)
	for f := 0; f < nFrames; f++ {
		start := f * s.hopSize
		if err := s.d.WindowApplyOptimal(wave[start:start+s.fftSize], s.window, frame); err != nil {
			return err
		}
		re, im := dft(frame, bins)
		mag := make([]float32, bins)
		if err := s.d.ComplexMagnitudeOptimal(re, im, mag); err != nil {
			return err
		}
		copy(spec[f*bins:(f+1)*bins], mag)
	}

	mel := make([]float32, nFrames*s.nMels)
	if err := s.d.MelFilterbankOptimal(s.filters, spec, s.nMels, s.fftSize, nFrames, mel); err != nil {
		return err
	}
	logMel := make([]float32, len(mel))
	if err := s.d.LogSpectrumOptimal(mel, logMel); err != nil {
		return err
	}
	return outputs[0].SetFloat32(logMel)
}

func dft(frame []float32, bins int) (re, im []float32) {
	n := len(frame)
	re = make([]float32, bins)
	im = make([]float32, bins)
	for k := 0; k < bins; k++ {
		var sumRe, sumIm float64
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			sumRe += float64(frame[t]) * math.Cos(angle)
			sumIm += float64(frame[t]) * math.Sin(angle)
		}
		re[k] = float32(sumRe)
		im[k] = float32(sumIm)
	}
	return re, im
}
