package spectral

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-patches/algorithms/windowing"
)

// naivePSD is a direct DFT reference for one frame
func naivePSD(frame []float64, fs float64) []float64 {
	n := len(frame)
	w := windowing.NewHann(n, true)
	windowed := make([]float64, n)
	_ = w.ApplyTo(windowed, frame)

	out := make([]float64, n/2+1)
	for k := range out {
		var sum complex128
		for i, v := range windowed {
			sum += complex(v, 0) * cmplx.Exp(complex(0, -2*math.Pi*float64(k*i)/float64(n)))
		}
		p := real(sum)*real(sum) + imag(sum)*imag(sum)
		if k != 0 && !(n%2 == 0 && k == n/2) {
			p *= 2
		}
		out[k] = p / fs / w.SumSquares()
	}
	return out
}

func TestOverlapFromRedundancy(t *testing.T) {
	assert.Equal(t, 2, OverlapFromRedundancy(4, 2))
	assert.Equal(t, 0, OverlapFromRedundancy(4, 1))
	assert.Equal(t, 192, OverlapFromRedundancy(256, 4))
}

func TestSpecgramConstantSignal(t *testing.T) {
	s, err := NewSpecgram(SpecgramParams{NFFT: 4, NOverlap: 2})
	require.NoError(t, err)

	x := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	bins, frames, err := s.Shape(len(x))
	require.NoError(t, err)
	assert.Equal(t, 3, bins)
	assert.Equal(t, 3, frames)

	spec, err := s.Compute(x)
	require.NoError(t, err)
	require.Len(t, spec, 3)

	// window [0, .75, .75, 0]: X0 = 1.5, |X1|^2 = 1.125, X2 = 0
	for frame := range 3 {
		assert.InDelta(t, 1.0, spec[0][frame], 1e-12)
		assert.InDelta(t, 1.0, spec[1][frame], 1e-12)
		assert.InDelta(t, 0.0, spec[2][frame], 1e-12)
	}
}

func TestSpecgramMatchesNaiveDFT(t *testing.T) {
	for _, nfft := range []int{4, 5, 8} {
		s, err := NewSpecgram(SpecgramParams{NFFT: nfft, NOverlap: nfft / 2})
		require.NoError(t, err)

		x := make([]float64, 40)
		for i := range x {
			x[i] = math.Sin(0.7*float64(i)) + 0.3*math.Cos(2.1*float64(i))
		}

		spec, err := s.Compute(x)
		require.NoError(t, err)

		hop := nfft - nfft/2
		for t0 := range len(spec[0]) {
			want := naivePSD(x[t0*hop:t0*hop+nfft], DefaultSampleRate)
			for f := range want {
				assert.InDelta(t, want[f], spec[f][t0], 1e-9, "nfft %d bin %d frame %d", nfft, f, t0)
			}
		}
	}
}

func TestSpecgramMagnitudeMode(t *testing.T) {
	s, err := NewSpecgram(SpecgramParams{NFFT: 4, NOverlap: 0, Mode: ModeMagnitude})
	require.NoError(t, err)

	spec, err := s.Compute([]float64{1, 1, 1, 1})
	require.NoError(t, err)

	// |X0| = 1.5 over window sum 1.5
	assert.InDelta(t, 1.0, spec[0][0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.125)/1.5, spec[1][0], 1e-12)
}

func TestSpecgramPadsShortSignal(t *testing.T) {
	s, err := NewSpecgram(SpecgramParams{NFFT: 8, NOverlap: 4})
	require.NoError(t, err)

	bins, frames, err := s.Shape(3)
	require.NoError(t, err)
	assert.Equal(t, 5, bins)
	assert.Equal(t, 1, frames)

	_, err = s.Compute([]float64{1, 2, 3})
	assert.NoError(t, err)

	_, _, err = s.Shape(0)
	assert.ErrorIs(t, err, ErrSignalTooShort)
}

func TestSpecgramInvalidParams(t *testing.T) {
	_, err := NewSpecgram(SpecgramParams{NFFT: 0})
	assert.Error(t, err)
	_, err = NewSpecgram(SpecgramParams{NFFT: 4, NOverlap: 4})
	assert.Error(t, err)
	_, err = NewSpecgram(SpecgramParams{NFFT: 4, Mode: "phase"})
	assert.Error(t, err)
}

func TestComputeIntoRejectsWrongSize(t *testing.T) {
	s, err := NewSpecgram(SpecgramParams{NFFT: 4, NOverlap: 2})
	require.NoError(t, err)

	err = s.ComputeInto(make([]float64, 5), make([]float64, 8))
	assert.Error(t, err)
}

func TestLogCompress(t *testing.T) {
	v := []float64{0, 1, 3}
	LogCompress(v, 2)
	assert.InDeltaSlice(t, []float64{0, math.Log(3), math.Log(7)}, v, 1e-15)
}
