package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/algorithms/common"
	"github.com/RyanBlaney/sonido-patches/algorithms/filters"
	"github.com/RyanBlaney/sonido-patches/algorithms/spectral"
)

// Downsample decimates every row of signals independently. With
// normaliseVolume each decimated row is shifted to zero mean and scaled to
// unit population standard deviation; a constant row becomes NaN.
func Downsample(signals mat.Matrix, d *filters.Decimator, normaliseVolume bool) [][]float64 {
	rows, cols := signals.Dims()
	raw := make([]float64, cols)
	out := make([][]float64, rows)

	for i := range rows {
		mat.Row(raw, i, signals)
		out[i] = d.Process(raw)
		if normaliseVolume {
			common.NormalizeVolumeInPlace(out[i])
		}
	}
	return out
}

// BuildSpectrograms computes log-compressed spectrograms for all signals
// into one tensor. The shape comes from the first signal and the tensor is
// allocated once; any signal producing a different shape aborts the build.
func BuildSpectrograms(signals [][]float64, sg *spectral.Specgram, logScale float64) (*Tensor3, error) {
	if len(signals) == 0 {
		return nil, ErrNoExamples
	}

	bins, frames, err := sg.Shape(len(signals[0]))
	if err != nil {
		return nil, fmt.Errorf("reference spectrogram: %w", err)
	}

	tensor := NewTensor3(len(signals), bins, frames)
	for k, x := range signals {
		b, f, err := sg.Shape(len(x))
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", k, err)
		}
		if b != bins || f != frames {
			return nil, fmt.Errorf("%w: example %d is %dx%d, reference %dx%d", ErrShapeMismatch, k, b, f, bins, frames)
		}
		if err := sg.ComputeInto(tensor.Example(k), x); err != nil {
			return nil, fmt.Errorf("example %d: %w", k, err)
		}
	}

	spectral.LogCompress(tensor.Raw(), logScale)
	return tensor, nil
}
