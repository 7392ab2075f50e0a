package common

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Interval holds per-dimension lower and upper bounds used for min-max scaling.
type Interval struct {
	Min []float64 `json:"min" yaml:"min"`
	Max []float64 `json:"max" yaml:"max"`
}

// NewInterval builds an interval from bound slices of equal length
func NewInterval(min, max []float64) (Interval, error) {
	if len(min) != len(max) {
		return Interval{}, fmt.Errorf("interval bounds differ in length: min %d, max %d", len(min), len(max))
	}
	return Interval{Min: min, Max: max}, nil
}

// EmpiricalInterval returns the column-wise min and max of rows
func EmpiricalInterval(rows [][]float64) Interval {
	if len(rows) == 0 {
		return Interval{}
	}

	width := len(rows[0])
	iv := Interval{
		Min: make([]float64, width),
		Max: make([]float64, width),
	}
	copy(iv.Min, rows[0])
	copy(iv.Max, rows[0])

	for _, row := range rows[1:] {
		for j, v := range row {
			if v < iv.Min[j] {
				iv.Min[j] = v
			}
			if v > iv.Max[j] {
				iv.Max[j] = v
			}
		}
	}

	return iv
}

// Width returns the number of dimensions
func (iv Interval) Width() int {
	return len(iv.Min)
}

// Span returns max - min per dimension
func (iv Interval) Span() []float64 {
	span := make([]float64, len(iv.Max))
	floats.SubTo(span, iv.Max, iv.Min)
	return span
}

// Degenerate returns the dimensions whose bounds do not satisfy max > min
func (iv Interval) Degenerate() []int {
	var out []int
	for j := range iv.Min {
		if !(iv.Max[j] > iv.Min[j]) {
			out = append(out, j)
		}
	}
	return out
}

// ScaleInPlace maps row onto the interval: (row - min) / (max - min).
// Nothing is clamped; values outside the trained bounds land outside [0, 1].
func (iv Interval) ScaleInPlace(row []float64) {
	floats.Sub(row, iv.Min)
	floats.Div(row, iv.Span())
}
