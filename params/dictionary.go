package params

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrDimensionMismatch = errors.New("trained parameter dimensions disagree")

// Dictionary is a trained patch dictionary: a whitening projection, the
// per-dimension training means, the cluster centroids in whitened space and
// an optional activation threshold. It is never mutated after construction.
type Dictionary struct {
	whitening *mat.Dense // D x D'
	means     []float64  // D
	centroids *mat.Dense // K x D'
	threshold *float64
	pc        *mat.Dense // D x K, whitening * centroids^T
}

// NewDictionary validates the shapes and precomputes the combined
// projection. A nil threshold selects linear (unrectified) features.
func NewDictionary(whitening *mat.Dense, means []float64, centroids *mat.Dense, threshold *float64) (*Dictionary, error) {
	if whitening == nil || centroids == nil {
		return nil, fmt.Errorf("%w: whitening and centroids are required", ErrDimensionMismatch)
	}

	d, dw := whitening.Dims()
	k, dc := centroids.Dims()
	if len(means) != d {
		return nil, fmt.Errorf("%w: %d means for a whitening matrix with %d rows", ErrDimensionMismatch, len(means), d)
	}
	if dw != dc {
		return nil, fmt.Errorf("%w: whitening has %d columns, centroids have %d", ErrDimensionMismatch, dw, dc)
	}

	pc := mat.NewDense(d, k, nil)
	pc.Mul(whitening, centroids.T())

	dict := &Dictionary{
		whitening: mat.DenseCopyOf(whitening),
		means:     append([]float64(nil), means...),
		centroids: mat.DenseCopyOf(centroids),
		pc:        pc,
	}
	if threshold != nil {
		t := *threshold
		dict.threshold = &t
	}
	return dict, nil
}

// InputDim is the flattened patch length D
func (d *Dictionary) InputDim() int {
	return len(d.means)
}

// NumCentroids is K, the length of one encoded patch
func (d *Dictionary) NumCentroids() int {
	_, k := d.pc.Dims()
	return k
}

// Means returns the training means. The slice must not be modified.
func (d *Dictionary) Means() []float64 {
	return d.means
}

// Projection returns the combined whitening-centroid matrix (D x K).
// The matrix must not be modified.
func (d *Dictionary) Projection() mat.Matrix {
	return d.pc
}

// Threshold returns the activation threshold and whether one is set
func (d *Dictionary) Threshold() (float64, bool) {
	if d.threshold == nil {
		return 0, false
	}
	return *d.threshold, true
}
