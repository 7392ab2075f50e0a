// Package features turns fixed-length signals into pooled dictionary
// features: spectrograms, strided patch views, dictionary encoding, quadrant
// max pooling and interval normalisation, run batch by batch.
package features

import "fmt"

// Tensor3 is a dense examples x frequency x time tensor stored row-major
type Tensor3 struct {
	data    []float64
	n, f, t int
}

// NewTensor3 allocates a zeroed tensor
func NewTensor3(n, f, t int) *Tensor3 {
	return &Tensor3{
		data: make([]float64, n*f*t),
		n:    n,
		f:    f,
		t:    t,
	}
}

// Dims returns (examples, frequency bins, time frames)
func (x *Tensor3) Dims() (n, f, t int) {
	return x.n, x.f, x.t
}

// Example returns example i as a frequency-major slice sharing storage
func (x *Tensor3) Example(i int) []float64 {
	size := x.f * x.t
	return x.data[i*size : (i+1)*size]
}

// At returns the value at (example, frequency bin, time frame)
func (x *Tensor3) At(i, f, t int) float64 {
	return x.data[(i*x.f+f)*x.t+t]
}

// Raw exposes the backing slice
func (x *Tensor3) Raw() []float64 {
	return x.data
}

// Release drops the backing storage. Views created earlier keep their own
// reference; the tensor itself reports zero dims afterwards.
func (x *Tensor3) Release() {
	x.data = nil
	x.n, x.f, x.t = 0, 0, 0
}

func (x *Tensor3) String() string {
	return fmt.Sprintf("Tensor3(%d x %d x %d)", x.n, x.f, x.t)
}
