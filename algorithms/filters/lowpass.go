package filters

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Biquad is one second-order section in transposed direct form II.
//
// The difference equations are:
// y[n]  = b0*x[n] + z1
// z1'   = b1*x[n] - a1*y[n] + z2
// z2'   = b2*x[n] - a2*y[n]
type Biquad struct {
	B0, B1, B2 float64 // Numerator coefficients
	A1, A2     float64 // Denominator coefficients (a0 normalised to 1)
}

// steadyState returns the section state reached after an infinitely long
// unit-step input, the same initial condition scipy's lfilter_zi gives.
func (bq Biquad) steadyState() (z1, z2 float64) {
	gain := bq.dcGain()
	z2 = bq.B2 - bq.A2*gain
	z1 = bq.B1 - bq.A1*gain + z2
	return z1, z2
}

func (bq Biquad) dcGain() float64 {
	return (bq.B0 + bq.B1 + bq.B2) / (1 + bq.A1 + bq.A2)
}

// filterInPlace runs the section over x starting from state (z1, z2)
func (bq Biquad) filterInPlace(x []float64, z1, z2 float64) {
	for n, in := range x {
		out := bq.B0*in + z1
		z1 = bq.B1*in - bq.A1*out + z2
		z2 = bq.B2*in - bq.A2*out
		x[n] = out
	}
}

// ChebyshevLowpass is a Chebyshev type I low-pass filter realised as a
// cascade of biquads. Coefficients come from the analog prototype poles,
// pre-warped and mapped with the bilinear transform.
//
// References:
//   - A. V. Oppenheim, R. W. Schafer, "Discrete-Time Signal Processing", 3rd Ed., §7.1
//   - scipy.signal.cheby1 (zpk design path)
type ChebyshevLowpass struct {
	order    int
	rippleDB float64 // Passband ripple in dB
	cutoff   float64 // Normalised cutoff, 1.0 = Nyquist
	sections []Biquad
}

// NewChebyshevLowpass designs a low-pass filter. order must be even and
// positive; cutoff is relative to Nyquist and must lie in (0, 1).
func NewChebyshevLowpass(order int, rippleDB, cutoff float64) (*ChebyshevLowpass, error) {
	if order <= 0 || order%2 != 0 {
		return nil, fmt.Errorf("chebyshev order must be a positive even number, got %d", order)
	}
	if rippleDB <= 0 {
		return nil, fmt.Errorf("passband ripple must be positive, got %g", rippleDB)
	}
	if cutoff <= 0 || cutoff >= 1 {
		return nil, fmt.Errorf("cutoff must be in (0, 1), got %g", cutoff)
	}

	lp := &ChebyshevLowpass{
		order:    order,
		rippleDB: rippleDB,
		cutoff:   cutoff,
	}
	lp.computeSections()
	return lp, nil
}

func (lp *ChebyshevLowpass) computeSections() {
	n := lp.order
	eps := math.Sqrt(math.Pow(10, 0.1*lp.rippleDB) - 1)
	mu := math.Asinh(1/eps) / float64(n)

	// Analog prototype poles on an ellipse in the left half plane
	poles := make([]complex128, 0, n)
	for m := -n + 1; m < n; m += 2 {
		theta := math.Pi * float64(m) / float64(2*n)
		poles = append(poles, -cmplx.Sinh(complex(mu, theta)))
	}

	gain := complex(1, 0)
	for _, p := range poles {
		gain *= -p
	}
	// Even orders start the passband at the ripple trough
	k := real(gain) / math.Sqrt(1+eps*eps)

	// Pre-warp for a sample rate of 2 (Nyquist = 1) and scale to the cutoff
	const fs2 = 4.0
	warped := fs2 * math.Tan(math.Pi*lp.cutoff/2)

	denom := complex(1, 0)
	digital := make([]complex128, len(poles))
	for i, p := range poles {
		p *= complex(warped, 0)
		k *= warped
		digital[i] = (fs2 + p) / (fs2 - p)
		denom *= fs2 - p
	}
	k *= real(1 / denom)

	// One section per conjugate pair, each with a double zero at z = -1
	lp.sections = lp.sections[:0]
	for _, p := range digital {
		if imag(p) <= 0 {
			continue
		}
		lp.sections = append(lp.sections, Biquad{
			B0: 1, B1: 2, B2: 1,
			A1: -2 * real(p),
			A2: real(p)*real(p) + imag(p)*imag(p),
		})
	}

	lp.sections[0].B0 *= k
	lp.sections[0].B1 *= k
	lp.sections[0].B2 *= k
}

// Sections returns a copy of the second-order sections
func (lp *ChebyshevLowpass) Sections() []Biquad {
	out := make([]Biquad, len(lp.sections))
	copy(out, lp.sections)
	return out
}

// PadLength is the odd-extension length used by FilterZeroPhase for
// signals long enough to carry it.
func (lp *ChebyshevLowpass) PadLength() int {
	return 3 * (2*len(lp.sections) + 1)
}

// ProcessBuffer filters x causally from a zero state and returns a new slice
func (lp *ChebyshevLowpass) ProcessBuffer(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for _, s := range lp.sections {
		s.filterInPlace(out, 0, 0)
	}
	return out
}

// FilterZeroPhase runs the cascade forward then backward so the result has
// no phase delay. The signal is padded at both ends with an odd extension
// and each pass starts from the steady state of its first sample. Signals
// shorter than PadLength use the longest pad they can support.
func (lp *ChebyshevLowpass) FilterZeroPhase(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	padLen := min(lp.PadLength(), len(x)-1)
	ext := oddExtend(x, padLen)

	lp.filterFromSteadyState(ext)
	reverse(ext)
	lp.filterFromSteadyState(ext)
	reverse(ext)

	out := make([]float64, len(x))
	copy(out, ext[padLen:padLen+len(x)])
	return out
}

func (lp *ChebyshevLowpass) filterFromSteadyState(x []float64) {
	x0 := x[0]
	scale := 1.0
	for _, s := range lp.sections {
		z1, z2 := s.steadyState()
		s.filterInPlace(x, z1*scale*x0, z2*scale*x0)
		scale *= s.dcGain()
	}
}

// GetFrequencyResponse returns the magnitude response at a normalised
// frequency (1.0 = Nyquist).
func (lp *ChebyshevLowpass) GetFrequencyResponse(frequency float64) float64 {
	w := math.Pi * frequency
	z1 := cmplx.Exp(complex(0, -w))
	z2 := z1 * z1

	h := complex(1, 0)
	for _, s := range lp.sections {
		num := complex(s.B0, 0) + complex(s.B1, 0)*z1 + complex(s.B2, 0)*z2
		den := 1 + complex(s.A1, 0)*z1 + complex(s.A2, 0)*z2
		h *= num / den
	}
	return cmplx.Abs(h)
}

func oddExtend(x []float64, padLen int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*padLen)
	for i := 0; i < padLen; i++ {
		ext[i] = 2*x[0] - x[padLen-i]
		ext[padLen+n+i] = 2*x[n-1] - x[n-2-i]
	}
	copy(ext[padLen:], x)
	return ext
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
