package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-patches/algorithms/windowing"
)

// SpectrumMode selects what each spectrogram cell holds
type SpectrumMode string

const (
	// ModePSD is the one-sided power spectral density, scaled the way
	// matplotlib's specgram does by default
	ModePSD SpectrumMode = "psd"
	// ModeMagnitude is |X| divided by the window sum
	ModeMagnitude SpectrumMode = "magnitude"
)

// DefaultSampleRate matches matplotlib's default Fs, so PSD values line up
// with spectrograms computed there.
const DefaultSampleRate = 2.0

var ErrSignalTooShort = errors.New("signal too short for spectrogram window")

// SpecgramParams configures a Specgram
type SpecgramParams struct {
	NFFT       int          `json:"nfft"`
	NOverlap   int          `json:"noverlap"`
	SampleRate float64      `json:"sample_rate"`
	Mode       SpectrumMode `json:"mode"`
}

// OverlapFromRedundancy converts a redundancy factor into a sample overlap:
// nfft * (1 - 1/redundancy), truncated.
func OverlapFromRedundancy(nfft int, redundancy float64) int {
	return int(float64(nfft) * (1 - 1/redundancy))
}

// Specgram computes short-time spectra of equally long signals. It holds
// only read-only state after construction and may be shared between
// goroutines.
type Specgram struct {
	params   SpecgramParams
	hop      int
	bins     int
	window   *windowing.Hann
	winSumSq float64
	winSum   float64
	fft      *FFT
}

// NewSpecgram validates params and prepares the window
func NewSpecgram(params SpecgramParams) (*Specgram, error) {
	if params.NFFT <= 0 {
		return nil, fmt.Errorf("nfft must be positive, got %d", params.NFFT)
	}
	if params.NOverlap < 0 || params.NOverlap >= params.NFFT {
		return nil, fmt.Errorf("noverlap must be in [0, nfft), got %d for nfft %d", params.NOverlap, params.NFFT)
	}
	if params.SampleRate == 0 {
		params.SampleRate = DefaultSampleRate
	}
	if params.SampleRate < 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", params.SampleRate)
	}
	switch params.Mode {
	case "":
		params.Mode = ModePSD
	case ModePSD, ModeMagnitude:
	default:
		return nil, fmt.Errorf("unknown spectrum mode %q", params.Mode)
	}

	window := windowing.NewHann(params.NFFT, true)
	winSum := 0.0
	for _, c := range window.GetCoefficients() {
		winSum += math.Abs(c)
	}

	return &Specgram{
		params:   params,
		hop:      params.NFFT - params.NOverlap,
		bins:     params.NFFT/2 + 1,
		window:   window,
		winSumSq: window.SumSquares(),
		winSum:   winSum,
		fft:      NewFFT(),
	}, nil
}

// Params returns the effective parameters, defaults filled in
func (s *Specgram) Params() SpecgramParams {
	return s.params
}

// Shape returns (frequency bins, time frames) for a signal of length n.
// Signals shorter than nfft are zero padded to nfft first.
func (s *Specgram) Shape(n int) (bins, frames int, err error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("%w: length %d", ErrSignalTooShort, n)
	}
	n = max(n, s.params.NFFT)
	return s.bins, (n - s.params.NOverlap) / s.hop, nil
}

// Compute returns the spectrogram of x as a frequency x time matrix
func (s *Specgram) Compute(x []float64) ([][]float64, error) {
	bins, frames, err := s.Shape(len(x))
	if err != nil {
		return nil, err
	}

	flat := make([]float64, bins*frames)
	if err := s.ComputeInto(flat, x); err != nil {
		return nil, err
	}

	out := make([][]float64, bins)
	for f := range out {
		out[f] = flat[f*frames : (f+1)*frames]
	}
	return out, nil
}

// ComputeInto writes the spectrogram of x into dst, row-major with
// frequency as the slow axis. dst must hold exactly bins*frames values.
func (s *Specgram) ComputeInto(dst []float64, x []float64) error {
	bins, frames, err := s.Shape(len(x))
	if err != nil {
		return err
	}
	if len(dst) != bins*frames {
		return fmt.Errorf("destination holds %d values, spectrogram needs %d (%d x %d)", len(dst), bins*frames, bins, frames)
	}

	if len(x) < s.params.NFFT {
		padded := make([]float64, s.params.NFFT)
		copy(padded, x)
		x = padded
	}

	nfft := s.params.NFFT
	frame := make([]float64, nfft)
	for t := range frames {
		start := t * s.hop
		if err := s.window.ApplyTo(frame, x[start:start+nfft]); err != nil {
			return err
		}

		spectrum := s.fft.Compute(frame)
		for f := range bins {
			dst[f*frames+t] = s.cell(spectrum[f], f)
		}
	}

	return nil
}

func (s *Specgram) cell(c complex128, bin int) float64 {
	if s.params.Mode == ModeMagnitude {
		return cmplx.Abs(c) / s.winSum
	}

	power := real(c)*real(c) + imag(c)*imag(c)

	// One-sided spectrum: fold negative frequencies into every bin except
	// DC and, for even nfft, Nyquist
	nyquist := s.params.NFFT%2 == 0 && bin == s.bins-1
	if bin != 0 && !nyquist {
		power *= 2
	}

	return power / s.params.SampleRate / s.winSumSq
}

// LogCompress applies log(1 + scale*v) to every value in place
func LogCompress(values []float64, scale float64) {
	for i, v := range values {
		values[i] = math.Log1p(scale * v)
	}
}
