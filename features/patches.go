package features

import "fmt"

// Patch view axes
const (
	axisExample = iota
	axisFreqPos
	axisRow
	axisTimePos
	axisCol
)

// PatchView is a non-copying sliding-window view over a spectrogram tensor.
// Its shape is (examples, F-h+1, h, T-w+1, w): for every top-left position
// (freq pos, time pos) it exposes an h x w patch. Patches overlap and share
// the tensor's storage, so a view must not outlive the data it was built on
// and writing through the tensor changes every patch that covers the cell.
type PatchView struct {
	data    []float64
	offset  int
	shape   [5]int
	strides [5]int
}

// NewPatchView builds the view. Patches larger than the spectrogram in
// either direction are a configuration error.
func NewPatchView(x *Tensor3, height, width int) (*PatchView, error) {
	n, f, t := x.Dims()
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: patch %dx%d", ErrPatchTooLarge, height, width)
	}
	if f < height || t < width {
		return nil, fmt.Errorf("%w: patch %dx%d, spectrogram %dx%d", ErrPatchTooLarge, height, width, f, t)
	}

	return &PatchView{
		data:    x.Raw(),
		shape:   [5]int{n, f - height + 1, height, t - width + 1, width},
		strides: [5]int{f * t, t, t, 1, 1},
	}, nil
}

// Shape returns (examples, freq positions, height, time positions, width)
func (v *PatchView) Shape() [5]int {
	return v.shape
}

// Examples returns the number of examples covered by the view
func (v *PatchView) Examples() int {
	return v.shape[axisExample]
}

// PatchOffset maps (example, freq pos, time pos) to the storage offset of
// the patch's top-left cell
func (v *PatchView) PatchOffset(example, freqPos, timePos int) int {
	return v.offset +
		example*v.strides[axisExample] +
		freqPos*v.strides[axisFreqPos] +
		timePos*v.strides[axisTimePos]
}

// Offset maps a full 5-D index to its storage offset
func (v *PatchView) Offset(example, freqPos, row, timePos, col int) int {
	return v.PatchOffset(example, freqPos, timePos) +
		row*v.strides[axisRow] +
		col*v.strides[axisCol]
}

// At returns the value at a full 5-D index
func (v *PatchView) At(example, freqPos, row, timePos, col int) float64 {
	return v.data[v.Offset(example, freqPos, row, timePos, col)]
}

// RowStride is the storage distance between two rows of a patch
func (v *PatchView) RowStride() int {
	return v.strides[axisRow]
}

// Storage exposes the shared backing slice
func (v *PatchView) Storage() []float64 {
	return v.data
}

// Slice returns the view restricted to examples [lo, hi), sharing storage.
// hi is clamped to the number of examples.
func (v *PatchView) Slice(lo, hi int) *PatchView {
	hi = min(hi, v.shape[axisExample])
	lo = min(max(lo, 0), hi)

	sub := *v
	sub.offset = v.offset + lo*v.strides[axisExample]
	sub.shape[axisExample] = hi - lo
	return &sub
}
