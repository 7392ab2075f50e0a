package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-patches/algorithms/spectral"
)

var ErrInvalidSettings = errors.New("invalid settings")

// EmptyQuadrantPolicy decides what quadrant pooling does when the number of
// time positions is below four and floor division leaves empty quadrants.
type EmptyQuadrantPolicy string

const (
	// EmptyQuadrantError aborts the pass before any batch is encoded
	EmptyQuadrantError EmptyQuadrantPolicy = "error"
	// EmptyQuadrantGlobal fills an empty quadrant with the whole-sequence max
	EmptyQuadrantGlobal EmptyQuadrantPolicy = "global"
)

// NumQuadrants is the number of time slices pooled besides the global max
const NumQuadrants = 4

// Settings is the immutable configuration of one feature extraction run.
// Keys mirror the settings stored alongside trained dictionaries.
type Settings struct {
	// Downsampling
	DownsampleFactor  int  `json:"downsample_factor" yaml:"downsample_factor"`
	DecimateZeroPhase bool `json:"decimate_zero_phase" yaml:"decimate_zero_phase"`
	NormaliseVolume   bool `json:"normalise_volume" yaml:"normalise_volume"`

	// Spectrogram
	SpecgramNumComponents int                   `json:"specgram_num_components" yaml:"specgram_num_components"`
	SpecgramRedundancy    float64               `json:"specgram_redundancy" yaml:"specgram_redundancy"`
	SpectrumMode          spectral.SpectrumMode `json:"spectrum_mode" yaml:"spectrum_mode"`
	LogScale              float64               `json:"log_scale" yaml:"log_scale"`

	// Patches and encoding
	PatchWidth  int      `json:"patch_width" yaml:"patch_width"`   // time extent
	PatchHeight int      `json:"patch_height" yaml:"patch_height"` // frequency extent
	Threshold   *float64 `json:"threshold" yaml:"threshold"`       // nil = linear features

	// Pooling
	EmptyQuadrant EmptyQuadrantPolicy `json:"empty_quadrant" yaml:"empty_quadrant"`

	// Execution
	BatchSize int `json:"batch_size" yaml:"batch_size"`
	Workers   int `json:"workers" yaml:"workers"`
}

// DefaultSettings returns the settings the reference dictionaries were
// trained with
func DefaultSettings() Settings {
	threshold := 0.0
	return Settings{
		DownsampleFactor:      2,
		DecimateZeroPhase:     true,
		NormaliseVolume:       false,
		SpecgramNumComponents: 256,
		SpecgramRedundancy:    2,
		SpectrumMode:          spectral.ModePSD,
		LogScale:              1,
		PatchWidth:            8,
		PatchHeight:           8,
		Threshold:             &threshold,
		EmptyQuadrant:         EmptyQuadrantError,
		BatchSize:             100,
		Workers:               1,
	}
}

// Float64 returns a pointer to v, for filling Threshold
func Float64(v float64) *float64 {
	return &v
}

// Overlap returns the spectrogram overlap in samples
func (s Settings) Overlap() int {
	return spectral.OverlapFromRedundancy(s.SpecgramNumComponents, s.SpecgramRedundancy)
}

// SpecgramParams returns the spectrogram parameters these settings describe
func (s Settings) SpecgramParams() spectral.SpecgramParams {
	return spectral.SpecgramParams{
		NFFT:     s.SpecgramNumComponents,
		NOverlap: s.Overlap(),
		Mode:     s.SpectrumMode,
	}
}

// PatchSize returns the number of values in one patch
func (s Settings) PatchSize() int {
	return s.PatchWidth * s.PatchHeight
}

// Validate checks the settings on their own. Checks that need data shapes
// (patch vs spectrogram size, quadrant width) happen when a pass starts.
func (s Settings) Validate() error {
	switch {
	case s.DownsampleFactor < 1:
		return fmt.Errorf("%w: downsample_factor must be >= 1, got %d", ErrInvalidSettings, s.DownsampleFactor)
	case s.SpecgramNumComponents <= 0:
		return fmt.Errorf("%w: specgram_num_components must be positive, got %d", ErrInvalidSettings, s.SpecgramNumComponents)
	case s.SpecgramRedundancy < 1:
		return fmt.Errorf("%w: specgram_redundancy must be >= 1, got %g", ErrInvalidSettings, s.SpecgramRedundancy)
	case s.Overlap() >= s.SpecgramNumComponents:
		return fmt.Errorf("%w: spectrogram overlap %d leaves no hop for nfft %d", ErrInvalidSettings, s.Overlap(), s.SpecgramNumComponents)
	case s.LogScale < 0:
		return fmt.Errorf("%w: log_scale must not be negative, got %g", ErrInvalidSettings, s.LogScale)
	case s.PatchWidth <= 0 || s.PatchHeight <= 0:
		return fmt.Errorf("%w: patch size must be positive, got %dx%d", ErrInvalidSettings, s.PatchHeight, s.PatchWidth)
	case s.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidSettings, s.BatchSize)
	case s.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidSettings, s.Workers)
	}

	switch s.EmptyQuadrant {
	case "", EmptyQuadrantError, EmptyQuadrantGlobal:
	default:
		return fmt.Errorf("%w: unknown empty_quadrant policy %q", ErrInvalidSettings, s.EmptyQuadrant)
	}

	switch s.SpectrumMode {
	case "", spectral.ModePSD, spectral.ModeMagnitude:
	default:
		return fmt.Errorf("%w: unknown spectrum_mode %q", ErrInvalidSettings, s.SpectrumMode)
	}

	return nil
}

// LogFields flattens the settings for a log line
func (s Settings) LogFields() map[string]any {
	threshold := "none"
	if s.Threshold != nil {
		threshold = fmt.Sprintf("%g", *s.Threshold)
	}
	return map[string]any{
		"downsample_factor":       s.DownsampleFactor,
		"normalise_volume":        s.NormaliseVolume,
		"specgram_num_components": s.SpecgramNumComponents,
		"specgram_redundancy":     s.SpecgramRedundancy,
		"log_scale":               s.LogScale,
		"patch":                   fmt.Sprintf("%dx%d", s.PatchHeight, s.PatchWidth),
		"threshold":               threshold,
		"batch_size":              s.BatchSize,
	}
}
