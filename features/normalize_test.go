package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/algorithms/common"
	"github.com/RyanBlaney/sonido-patches/params"
)

func TestIntervalNormalizerApply(t *testing.T) {
	n := NewIntervalNormalizer(common.Interval{
		Min: []float64{0, -1},
		Max: []float64{4, 1},
	})

	m := mat.NewDense(2, 2, []float64{
		2, 0,
		6, -3,
	})
	require.NoError(t, n.Apply(m))

	// no clamping: out-of-interval inputs map outside [0, 1]
	assert.Equal(t, []float64{0.5, 0.5, 1.5, -1}, m.RawMatrix().Data)
}

func TestIntervalNormalizerWidthMismatch(t *testing.T) {
	n := NewIntervalNormalizer(common.Interval{Min: []float64{0}, Max: []float64{1}})
	err := n.Apply(mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, params.ErrDimensionMismatch)
}

func TestIntervalNormalizerDegenerateBounds(t *testing.T) {
	n := NewIntervalNormalizer(common.Interval{
		Min: []float64{1, 1},
		Max: []float64{1, 2},
	})
	assert.Equal(t, []int{0}, n.Degenerate())

	m := mat.NewDense(3, 2, []float64{
		2, 1,
		1, 1,
		0, 1,
	})
	require.NoError(t, n.Apply(m))

	assert.True(t, math.IsInf(m.At(0, 0), 1))
	assert.True(t, math.IsNaN(m.At(1, 0)))
	assert.True(t, math.IsInf(m.At(2, 0), -1))
	assert.Equal(t, 0.0, m.At(0, 1))
}

func TestIntervalNormalizerEmpiricalBounds(t *testing.T) {
	rows := [][]float64{{3, 10, -2}, {5, 12, 0}, {4, 11, 4}}
	bounds := common.EmpiricalInterval(rows)

	m := mat.NewDense(3, 3, nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	require.NoError(t, NewIntervalNormalizer(bounds).Apply(m))

	for _, v := range m.RawMatrix().Data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}
