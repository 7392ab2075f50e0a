package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/algorithms/common"
	"github.com/RyanBlaney/sonido-patches/params"
)

// IntervalNormalizer rescales pooled features with trained per-feature
// bounds: (x - min) / (max - min). Results are not clamped to [0, 1];
// unseen data may fall outside the trained interval and the linear
// classifier downstream takes it as is. Dimensions with max == min produce
// ±Inf or NaN.
type IntervalNormalizer struct {
	bounds common.Interval
}

// NewIntervalNormalizer wraps trained bounds
func NewIntervalNormalizer(bounds common.Interval) *IntervalNormalizer {
	return &IntervalNormalizer{bounds: bounds}
}

// Width returns the number of features the bounds cover
func (n *IntervalNormalizer) Width() int {
	return n.bounds.Width()
}

// Degenerate lists the features whose bounds do not satisfy max > min
func (n *IntervalNormalizer) Degenerate() []int {
	return n.bounds.Degenerate()
}

// Apply normalises every row of features in place
func (n *IntervalNormalizer) Apply(features *mat.Dense) error {
	rows, cols := features.Dims()
	if cols != n.bounds.Width() {
		return fmt.Errorf("%w: %d features, %d normalisation bounds", params.ErrDimensionMismatch, cols, n.bounds.Width())
	}

	for i := range rows {
		n.bounds.ScaleInPlace(features.RawRowView(i))
	}
	return nil
}
