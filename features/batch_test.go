package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/features/config"
	"github.com/RyanBlaney/sonido-patches/logging"
)

// distinctTensor gives every example different content so row swaps show up
func distinctTensor(n, f, t int) *Tensor3 {
	x := NewTensor3(n, f, t)
	for e := range n {
		ex := x.Example(e)
		for i := range ex {
			ex[i] = math.Sin(float64(e*31+i)*0.37) + 0.1*float64(e)
		}
	}
	return x
}

func newTestRunner(t *testing.T, batchSize, workers int) *BatchRunner {
	t.Helper()

	enc, err := NewEncoder(testDictionary(t, config.Float64(0.1)), 2, 2)
	require.NoError(t, err)

	r, err := NewBatchRunner(enc, NewPooler(config.EmptyQuadrantError), batchSize, workers, &logging.NoOpLogger{})
	require.NoError(t, err)
	return r
}

func TestNumBatches(t *testing.T) {
	r := newTestRunner(t, 100, 1)
	assert.Equal(t, 1, r.NumBatches(1))
	assert.Equal(t, 1, r.NumBatches(100))
	assert.Equal(t, 2, r.NumBatches(101))
	assert.Equal(t, 0, r.NumBatches(0))
}

func TestBatchRunnerInvalidSize(t *testing.T) {
	enc, err := NewEncoder(testDictionary(t, nil), 2, 2)
	require.NoError(t, err)

	_, err = NewBatchRunner(enc, NewPooler(""), 0, 1, nil)
	assert.Error(t, err)
}

func TestBatchRunnerBatchInvariance(t *testing.T) {
	const examples = 7
	x := distinctTensor(examples, 4, 9)
	v, err := NewPatchView(x, 2, 2)
	require.NoError(t, err)

	reference, err := newTestRunner(t, examples, 1).Run(v)
	require.NoError(t, err)
	rows, cols := reference.Dims()
	assert.Equal(t, examples, rows)
	assert.Equal(t, 5*2, cols)

	for _, batchSize := range []int{1, 2, 3, 7, 50} {
		for _, workers := range []int{1, 3} {
			got, err := newTestRunner(t, batchSize, workers).Run(v)
			require.NoError(t, err)
			assert.True(t, mat.Equal(reference, got), "batch size %d, workers %d", batchSize, workers)
		}
	}
}

func TestBatchRunnerRowOrdering(t *testing.T) {
	const examples = 5
	x := distinctTensor(examples, 4, 8)
	v, err := NewPatchView(x, 2, 2)
	require.NoError(t, err)

	all, err := newTestRunner(t, 2, 2).Run(v)
	require.NoError(t, err)

	// row i must equal example i processed on its own
	for i := range examples {
		single, err := newTestRunner(t, 1, 1).Run(v.Slice(i, i+1))
		require.NoError(t, err)
		assert.Equal(t, single.RawRowView(0), all.RawRowView(i), "example %d", i)
	}
}

func TestBatchRunnerEmptyQuadrantBeforeAnyBatch(t *testing.T) {
	x := distinctTensor(3, 4, 4) // 3 time positions with w=2
	v, err := NewPatchView(x, 2, 2)
	require.NoError(t, err)

	out, err := newTestRunner(t, 1, 1).Run(v)
	assert.ErrorIs(t, err, ErrEmptyQuadrant)
	assert.Nil(t, out)
}

func TestBatchRunnerNoExamples(t *testing.T) {
	v, err := NewPatchView(NewTensor3(0, 4, 8), 2, 2)
	require.NoError(t, err)

	_, err = newTestRunner(t, 1, 1).Run(v)
	assert.ErrorIs(t, err, ErrNoExamples)
}
