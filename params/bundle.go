package params

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-patches/algorithms/common"
	"github.com/RyanBlaney/sonido-patches/features/config"
)

// Trained holds the learned arrays exactly as they are persisted
type Trained struct {
	P         [][]float64 `json:"P" yaml:"P"`
	Means     []float64   `json:"means" yaml:"means"`
	Centroids [][]float64 `json:"centroids" yaml:"centroids"`
	FMins     []float64   `json:"fmins" yaml:"fmins"`
	FMaxs     []float64   `json:"fmaxs" yaml:"fmaxs"`
}

// Bundle is the result file of an unsupervised training run: the settings
// it was trained with plus the learned parameters.
type Bundle struct {
	Settings config.Settings `json:"settings" yaml:"settings"`
	Params   Trained         `json:"params" yaml:"params"`
}

// Load reads a bundle from a .json, .yaml or .yml file. Other extensions
// are tried as YAML first, then JSON.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter bundle: %w", err)
	}

	var b *Bundle
	switch filepath.Ext(path) {
	case ".json":
		b, err = Decode(bytes.NewReader(data), "json")
	case ".yaml", ".yml":
		b, err = Decode(bytes.NewReader(data), "yaml")
	default:
		if b, err = Decode(bytes.NewReader(data), "yaml"); err != nil {
			b, err = Decode(bytes.NewReader(data), "json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter bundle %s: %w", path, err)
	}
	return b, nil
}

// Decode parses a bundle in the given format ("json" or "yaml") and
// validates it
func Decode(r io.Reader, format string) (*Bundle, error) {
	b := &Bundle{Settings: config.DefaultSettings()}

	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(b); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(b); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported bundle format %q", format)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Encode writes the bundle in the given format
func (b *Bundle) Encode(w io.Writer, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(b)
	default:
		return fmt.Errorf("unsupported bundle format %q", format)
	}
}

// Validate checks the settings and that every array agrees with them
func (b *Bundle) Validate() error {
	if err := b.Settings.Validate(); err != nil {
		return err
	}

	dict, err := b.Dictionary()
	if err != nil {
		return err
	}
	if dict.InputDim() != b.Settings.PatchSize() {
		return fmt.Errorf("%w: dictionary expects %d-value patches, settings give %dx%d", ErrDimensionMismatch,
			dict.InputDim(), b.Settings.PatchHeight, b.Settings.PatchWidth)
	}

	bounds, err := b.Bounds()
	if err != nil {
		return err
	}
	if want := (config.NumQuadrants + 1) * dict.NumCentroids(); bounds.Width() != want {
		return fmt.Errorf("%w: %d normalisation bounds for %d pooled features", ErrDimensionMismatch, bounds.Width(), want)
	}
	return nil
}

// Dictionary builds the trained dictionary, threshold taken from the settings
func (b *Bundle) Dictionary() (*Dictionary, error) {
	p, err := denseFromRows(b.Params.P)
	if err != nil {
		return nil, fmt.Errorf("whitening matrix: %w", err)
	}
	c, err := denseFromRows(b.Params.Centroids)
	if err != nil {
		return nil, fmt.Errorf("centroids: %w", err)
	}
	return NewDictionary(p, b.Params.Means, c, b.Settings.Threshold)
}

// Bounds returns the per-feature normalisation interval
func (b *Bundle) Bounds() (common.Interval, error) {
	iv, err := common.NewInterval(b.Params.FMins, b.Params.FMaxs)
	if err != nil {
		return common.Interval{}, fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	return iv, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrDimensionMismatch)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimensionMismatch, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// RowsFromDense is the inverse of the bundle's matrix layout
func RowsFromDense(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return rows
}
