package filters

import (
	"fmt"
)

const (
	// DecimateOrder is the Chebyshev order used by Decimate
	DecimateOrder = 8
	// DecimateRippleDB is the passband ripple used by Decimate
	DecimateRippleDB = 0.05
)

// DecimateOptions selects how the anti-aliasing filter is applied
type DecimateOptions struct {
	// ZeroPhase runs the filter forwards and backwards. When false the
	// filter runs once, causally, and delays the signal.
	ZeroPhase bool
}

// Decimator low-pass filters a signal and keeps every factor-th sample.
// The filter is designed once and reused; a Decimator holds no per-signal
// state and is safe for concurrent use.
type Decimator struct {
	factor int
	opts   DecimateOptions
	filter *ChebyshevLowpass
}

// NewDecimator builds a decimator for an integer factor >= 1. The cutoff
// sits at 0.8 of the new Nyquist frequency.
func NewDecimator(factor int, opts DecimateOptions) (*Decimator, error) {
	if factor < 1 {
		return nil, fmt.Errorf("decimation factor must be >= 1, got %d", factor)
	}

	d := &Decimator{factor: factor, opts: opts}
	if factor == 1 {
		return d, nil
	}

	lp, err := NewChebyshevLowpass(DecimateOrder, DecimateRippleDB, 0.8/float64(factor))
	if err != nil {
		return nil, fmt.Errorf("failed to design anti-aliasing filter: %w", err)
	}
	d.filter = lp
	return d, nil
}

// Factor returns the decimation factor
func (d *Decimator) Factor() int {
	return d.factor
}

// OutputLength returns the length of a decimated signal of length n
func (d *Decimator) OutputLength(n int) int {
	return (n + d.factor - 1) / d.factor
}

// Process returns the decimated signal. A factor of 1 returns a copy.
func (d *Decimator) Process(x []float64) []float64 {
	if d.factor == 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	var filtered []float64
	if d.opts.ZeroPhase {
		filtered = d.filter.FilterZeroPhase(x)
	} else {
		filtered = d.filter.ProcessBuffer(x)
	}

	out := make([]float64, d.OutputLength(len(x)))
	for i := range out {
		out[i] = filtered[i*d.factor]
	}
	return out
}

// Decimate is a convenience wrapper around NewDecimator and Process
func Decimate(x []float64, factor int, opts DecimateOptions) ([]float64, error) {
	d, err := NewDecimator(factor, opts)
	if err != nil {
		return nil, err
	}
	return d.Process(x), nil
}
