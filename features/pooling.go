package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-patches/features/config"
)

// Pooler summarises encoded patches into one vector per example: max over
// frequency positions, then over time the whole-sequence max followed by
// the max of each of four quadrants. Quadrants are Tp/4 positions long
// (floor); trailing positions past 4*(Tp/4) only reach the global max.
// NaN inputs propagate through every max, as the builtin max does.
type Pooler struct {
	policy config.EmptyQuadrantPolicy
}

// NewPooler creates a pooler. An empty policy means EmptyQuadrantError.
func NewPooler(policy config.EmptyQuadrantPolicy) *Pooler {
	if policy == "" {
		policy = config.EmptyQuadrantError
	}
	return &Pooler{policy: policy}
}

// OutputWidth returns the pooled vector length for k centroids
func (p *Pooler) OutputWidth(k int) int {
	return (config.NumQuadrants + 1) * k
}

// CheckTimePositions reports whether timePos positions can be pooled under
// the pooler's policy
func (p *Pooler) CheckTimePositions(timePos int) error {
	if timePos < 1 {
		return fmt.Errorf("%w: no time positions", ErrEmptyQuadrant)
	}
	if timePos/config.NumQuadrants == 0 && p.policy == config.EmptyQuadrantError {
		return fmt.Errorf("%w: %d time positions split into %d quadrants", ErrEmptyQuadrant, timePos, config.NumQuadrants)
	}
	return nil
}

// PoolExample writes the pooled vector of one example into dst, which must
// hold OutputWidth(act.K) values. Layout: [global, q0, q1, q2, q3].
func (p *Pooler) PoolExample(dst []float64, act *Activations, example int) error {
	k := act.K
	if len(dst) != p.OutputWidth(k) {
		return fmt.Errorf("pooled row holds %d values, need %d", len(dst), p.OutputWidth(k))
	}
	if err := p.CheckTimePositions(act.TimePos); err != nil {
		return err
	}

	// frequency pooling: (time pos, k)
	freqPooled := make([]float64, act.TimePos*k)
	for tp := range act.TimePos {
		out := freqPooled[tp*k : (tp+1)*k]
		for c := range k {
			out[c] = act.At(example, 0, tp, c)
		}
		for fp := 1; fp < act.FreqPos; fp++ {
			for c := range k {
				out[c] = max(out[c], act.At(example, fp, tp, c))
			}
		}
	}

	global := dst[:k]
	maxOverTime(global, freqPooled, 0, act.TimePos, k)

	sliceSize := act.TimePos / config.NumQuadrants
	for q := range config.NumQuadrants {
		part := dst[(q+1)*k : (q+2)*k]
		if sliceSize == 0 {
			// only reachable under EmptyQuadrantGlobal
			copy(part, global)
			continue
		}
		maxOverTime(part, freqPooled, q*sliceSize, (q+1)*sliceSize, k)
	}
	return nil
}

// maxOverTime reduces rows [lo, hi) of a (time, k) matrix into dst
func maxOverTime(dst, pooled []float64, lo, hi, k int) {
	copy(dst, pooled[lo*k:(lo+1)*k])
	for tp := lo + 1; tp < hi; tp++ {
		row := pooled[tp*k : (tp+1)*k]
		for c, v := range row {
			dst[c] = max(dst[c], v)
		}
	}
}
