package features

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/algorithms/common"
	"github.com/RyanBlaney/sonido-patches/algorithms/filters"
	"github.com/RyanBlaney/sonido-patches/algorithms/spectral"
	"github.com/RyanBlaney/sonido-patches/features/config"
	"github.com/RyanBlaney/sonido-patches/logging"
	"github.com/RyanBlaney/sonido-patches/params"
)

// Extractor runs one feature extraction pass: downsample, spectrogram,
// patch view, batched encoding and pooling, interval normalisation. It only
// reads its settings and trained parameters, so the same Extractor serves
// the training and the test pass.
type Extractor struct {
	settings   config.Settings
	decimator  *filters.Decimator
	specgram   *spectral.Specgram
	runner     *BatchRunner
	normalizer *IntervalNormalizer
	logger     logging.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger replaces the default component logger
func WithLogger(logger logging.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor wires the pipeline stages from settings and trained parameters
func NewExtractor(settings config.Settings, dict *params.Dictionary, bounds common.Interval, opts ...Option) (*Extractor, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		settings: settings,
		logger:   logging.WithFields(logging.Fields{"component": "feature_extractor"}),
	}
	for _, opt := range opts {
		opt(e)
	}

	decimator, err := filters.NewDecimator(settings.DownsampleFactor, filters.DecimateOptions{ZeroPhase: settings.DecimateZeroPhase})
	if err != nil {
		return nil, err
	}

	sg, err := spectral.NewSpecgram(settings.SpecgramParams())
	if err != nil {
		return nil, err
	}

	encoder, err := NewEncoder(dict, settings.PatchHeight, settings.PatchWidth)
	if err != nil {
		return nil, err
	}

	pooler := NewPooler(settings.EmptyQuadrant)
	normalizer := NewIntervalNormalizer(bounds)
	if want := pooler.OutputWidth(dict.NumCentroids()); normalizer.Width() != want {
		return nil, fmt.Errorf("%w: %d normalisation bounds for %d pooled features", params.ErrDimensionMismatch, normalizer.Width(), want)
	}
	if degenerate := normalizer.Degenerate(); len(degenerate) > 0 {
		e.logger.Warn("normalisation bounds have max <= min, these features will not be finite",
			logging.Fields{"features": degenerate})
	}

	runner, err := NewBatchRunner(encoder, pooler, settings.BatchSize, settings.Workers, e.logger)
	if err != nil {
		return nil, err
	}

	e.decimator = decimator
	e.specgram = sg
	e.runner = runner
	e.normalizer = normalizer
	return e, nil
}

// Settings returns the settings the extractor was built with
func (e *Extractor) Settings() config.Settings {
	return e.settings
}

// Extract turns a signal matrix (examples x time) into normalised features
// (examples x 5K). The signal matrix is only read; intermediate buffers are
// dropped as soon as the next stage has consumed them.
func (e *Extractor) Extract(signals mat.Matrix, pass string) (*mat.Dense, error) {
	logger := e.logger.WithFields(logging.Fields{"pass": pass})
	start := time.Now()
	tock := func(stage string) {
		logger.Info(stage, logging.Fields{"elapsed": time.Since(start).Round(time.Millisecond)})
	}

	rows, _ := signals.Dims()
	if rows == 0 {
		return nil, ErrNoExamples
	}
	logger.Info("extracting features", e.settings.LogFields())

	tensor, err := e.spectrograms(signals, tock)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", pass, err)
	}

	features, err := e.pool(tensor, tock)
	tensor.Release()
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", pass, err)
	}

	if err := e.normalizer.Apply(features); err != nil {
		return nil, fmt.Errorf("%s pass: %w", pass, err)
	}
	tock("normalised features")

	return features, nil
}

// spectrograms owns the downsampled signals; they go out of scope when it
// returns, before the patch stage allocates anything
func (e *Extractor) spectrograms(signals mat.Matrix, tock func(string)) (*Tensor3, error) {
	downsampled := Downsample(signals, e.decimator, e.settings.NormaliseVolume)
	tock("downsampled")

	tensor, err := BuildSpectrograms(downsampled, e.specgram, e.settings.LogScale)
	if err != nil {
		return nil, err
	}
	tock("computed spectrograms")
	return tensor, nil
}

func (e *Extractor) pool(tensor *Tensor3, tock func(string)) (*mat.Dense, error) {
	view, err := NewPatchView(tensor, e.settings.PatchHeight, e.settings.PatchWidth)
	if err != nil {
		return nil, err
	}
	tock("extracted patches")

	features, err := e.runner.Run(view)
	if err != nil {
		return nil, err
	}
	tock("encoded and pooled")
	return features, nil
}
