package windowing

import (
	"fmt"
	"math"
)

// Hann represents a Hann window function.
// The symmetric form matches numpy.hanning, which is what matplotlib's
// specgram applies by default; the periodic form suits spectral analysis
// of frames that tile a longer signal.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1.0
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}

// ApplyTo writes signal*window into dst. Both must match the window size.
func (h *Hann) ApplyTo(dst, signal []float64) error {
	if len(signal) != h.size || len(dst) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i, c := range h.coefficients {
		dst[i] = signal[i] * c
	}

	return nil
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	return h.ApplyTo(signal, signal)
}

// SumSquares returns the window energy sum(w^2), the PSD normaliser
func (h *Hann) SumSquares() float64 {
	s := 0.0
	for _, c := range h.coefficients {
		s += c * c
	}
	return s
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// GetSize returns the window size
func (h *Hann) GetSize() int {
	return h.size
}

// GetType returns the window type
func (h *Hann) GetType() string {
	return "hann"
}
