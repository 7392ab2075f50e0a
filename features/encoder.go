package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/params"
)

// Activations holds encoded patches shaped (examples, freq pos, time pos, K)
type Activations struct {
	Data     []float64
	Examples int
	FreqPos  int
	TimePos  int
	K        int
}

// At returns activation k of the patch at (example, freq pos, time pos)
func (a *Activations) At(example, freqPos, timePos, k int) float64 {
	return a.Data[((example*a.FreqPos+freqPos)*a.TimePos+timePos)*a.K+k]
}

// Encoder projects patches onto a trained dictionary
type Encoder struct {
	dict   *params.Dictionary
	height int
	width  int
}

// NewEncoder checks that the dictionary was trained on height x width patches
func NewEncoder(dict *params.Dictionary, height, width int) (*Encoder, error) {
	if dict.InputDim() != height*width {
		return nil, fmt.Errorf("%w: dictionary input dim %d, patch %dx%d",
			params.ErrDimensionMismatch, dict.InputDim(), height, width)
	}
	return &Encoder{dict: dict, height: height, width: width}, nil
}

// NumCentroids returns K
func (e *Encoder) NumCentroids() int {
	return e.dict.NumCentroids()
}

// Encode flattens every patch of the batch into a row of h*w pixels
// (patch row major), subtracts the training means, multiplies by the
// whitening-centroid projection and applies the threshold:
// max(a - t, 0) when a threshold is set, a unchanged otherwise.
func (e *Encoder) Encode(batch *PatchView) (*Activations, error) {
	shape := batch.Shape()
	if shape[axisRow] != e.height || shape[axisCol] != e.width {
		return nil, fmt.Errorf("%w: batch patches are %dx%d, encoder expects %dx%d",
			params.ErrDimensionMismatch, shape[axisRow], shape[axisCol], e.height, e.width)
	}

	examples, freqPos, timePos := shape[axisExample], shape[axisFreqPos], shape[axisTimePos]
	k := e.dict.NumCentroids()
	act := &Activations{
		Examples: examples,
		FreqPos:  freqPos,
		TimePos:  timePos,
		K:        k,
	}

	rows := examples * freqPos * timePos
	if rows == 0 {
		act.Data = []float64{}
		return act, nil
	}

	dim := e.height * e.width
	flat := make([]float64, rows*dim)
	e.gather(flat, batch)

	x := mat.NewDense(rows, dim, flat)
	out := mat.NewDense(rows, k, nil)
	out.Mul(x, e.dict.Projection())

	act.Data = out.RawMatrix().Data
	if t, ok := e.dict.Threshold(); ok {
		for i, v := range act.Data {
			act.Data[i] = max(v-t, 0)
		}
	}
	return act, nil
}

// gather copies the patches into flat, mean-subtracted, in
// (example, freq pos, time pos) order
func (e *Encoder) gather(flat []float64, batch *PatchView) {
	shape := batch.Shape()
	storage := batch.Storage()
	rowStride := batch.RowStride()
	means := e.dict.Means()
	dim := e.height * e.width

	r := 0
	for ex := range shape[axisExample] {
		for fp := range shape[axisFreqPos] {
			for tp := range shape[axisTimePos] {
				base := batch.PatchOffset(ex, fp, tp)
				row := flat[r*dim : (r+1)*dim]
				for i := range e.height {
					src := storage[base+i*rowStride : base+i*rowStride+e.width]
					for j, v := range src {
						row[i*e.width+j] = v - means[i*e.width+j]
					}
				}
				r++
			}
		}
	}
}
