package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopStdDev returns the population (ddof 0) standard deviation
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// NormalizeVolumeInPlace rescales data to zero mean and unit population
// standard deviation. A constant signal has zero deviation and turns into
// NaN; callers see that rather than a silently patched value.
func NormalizeVolumeInPlace(data []float64) {
	if len(data) == 0 {
		return
	}

	mean, std := stat.PopMeanStdDev(data, nil)
	floats.AddConst(-mean, data)
	floats.Scale(1/std, data)
}

// AllFinite reports whether data holds no NaN or Inf
func AllFinite(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
