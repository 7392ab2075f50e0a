package features

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/logging"
)

// Dataset supplies already loaded signals. Each call may allocate; the
// Predictor asks for the test data only after the training data is gone.
type Dataset interface {
	LoadTrain() (signals mat.Matrix, labels []float64, err error)
	LoadTest() (signals mat.Matrix, err error)
}

// Classifier is the linear model trained on the extracted features
type Classifier interface {
	Fit(features mat.Matrix, labels []float64) error
	DecisionFunction(features mat.Matrix) ([]float64, error)
}

// Predictor drives the two passes: train features, fit, test features,
// score. The training signals and features are out of scope before the
// test signals are loaded.
type Predictor struct {
	extractor *Extractor
	logger    logging.Logger
}

// NewPredictor wraps an extractor shared by both passes
func NewPredictor(extractor *Extractor, logger logging.Logger) *Predictor {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "predictor"})
	}
	return &Predictor{extractor: extractor, logger: logger}
}

// Predict returns one decision score per test example, in input order
func (p *Predictor) Predict(ds Dataset, clf Classifier) ([]float64, error) {
	if err := p.train(ds, clf); err != nil {
		return nil, err
	}
	return p.score(ds, clf)
}

func (p *Predictor) train(ds Dataset, clf Classifier) error {
	signals, labels, err := ds.LoadTrain()
	if err != nil {
		return fmt.Errorf("failed to load training data: %w", err)
	}

	rows, _ := signals.Dims()
	if len(labels) != rows {
		return fmt.Errorf("%d training labels for %d examples", len(labels), rows)
	}

	features, err := p.extractor.Extract(signals, "train")
	if err != nil {
		return err
	}

	p.logger.Info("training classifier", logging.Fields{"examples": rows})
	if err := clf.Fit(features, labels); err != nil {
		return fmt.Errorf("failed to fit classifier: %w", err)
	}
	return nil
}

func (p *Predictor) score(ds Dataset, clf Classifier) ([]float64, error) {
	signals, err := ds.LoadTest()
	if err != nil {
		return nil, fmt.Errorf("failed to load test data: %w", err)
	}

	features, err := p.extractor.Extract(signals, "test")
	if err != nil {
		return nil, err
	}

	rows, _ := features.Dims()
	scores, err := clf.DecisionFunction(features)
	if err != nil {
		return nil, fmt.Errorf("failed to score test data: %w", err)
	}
	if len(scores) != rows {
		return nil, fmt.Errorf("classifier returned %d scores for %d examples", len(scores), rows)
	}

	p.logger.Info("computed predictions", logging.Fields{"examples": rows})
	return scores, nil
}
