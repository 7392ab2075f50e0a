package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/features/config"
	"github.com/RyanBlaney/sonido-patches/logging"
)

type recordingDataset struct {
	calls  *[]string
	train  *mat.Dense
	labels []float64
	test   *mat.Dense
	err    error
}

func (d recordingDataset) LoadTrain() (mat.Matrix, []float64, error) {
	*d.calls = append(*d.calls, "load train")
	return d.train, d.labels, nil
}

func (d recordingDataset) LoadTest() (mat.Matrix, error) {
	*d.calls = append(*d.calls, "load test")
	if d.err != nil {
		return nil, d.err
	}
	return d.test, nil
}

// sumClassifier scores an example by the sum of its features
type sumClassifier struct {
	calls     *[]string
	trainRows int
	trainCols int
}

func (c *sumClassifier) Fit(features mat.Matrix, labels []float64) error {
	*c.calls = append(*c.calls, "fit")
	c.trainRows, c.trainCols = features.Dims()
	return nil
}

func (c *sumClassifier) DecisionFunction(features mat.Matrix) ([]float64, error) {
	*c.calls = append(*c.calls, "score")
	rows, _ := features.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = mat.Sum(features.(*mat.Dense).RowView(i))
	}
	return scores, nil
}

func newScenarioPredictor(t *testing.T) *Predictor {
	s := scenarioSettings()
	s.EmptyQuadrant = config.EmptyQuadrantGlobal
	return NewPredictor(newScenarioExtractor(t, s), &logging.NoOpLogger{})
}

func TestPredictRunsPassesInOrder(t *testing.T) {
	var calls []string
	ds := recordingDataset{
		calls:  &calls,
		train:  constantSignals([]float64{1, 2, 3}, 16),
		labels: []float64{0, 1, 0},
		test:   constantSignals([]float64{2, 1}, 16),
	}
	clf := &sumClassifier{calls: &calls}

	scores, err := newScenarioPredictor(t).Predict(ds, clf)
	require.NoError(t, err)

	assert.Equal(t, []string{"load train", "fit", "load test", "score"}, calls)
	assert.Equal(t, 3, clf.trainRows)
	assert.Equal(t, 5, clf.trainCols)

	// scores follow test example order: the louder example scores higher
	require.Len(t, scores, 2)
	assert.Greater(t, scores[0], scores[1])
}

func TestPredictLabelMismatch(t *testing.T) {
	var calls []string
	ds := recordingDataset{
		calls:  &calls,
		train:  constantSignals([]float64{1, 2}, 16),
		labels: []float64{0},
	}

	_, err := newScenarioPredictor(t).Predict(ds, &sumClassifier{calls: &calls})
	assert.Error(t, err)
	assert.Equal(t, []string{"load train"}, calls)
}

func TestPredictTestLoadError(t *testing.T) {
	var calls []string
	boom := errors.New("missing file")
	ds := recordingDataset{
		calls:  &calls,
		train:  constantSignals([]float64{1}, 16),
		labels: []float64{1},
		err:    boom,
	}

	_, err := newScenarioPredictor(t).Predict(ds, &sumClassifier{calls: &calls})
	assert.ErrorIs(t, err, boom)
}
