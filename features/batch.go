package features

import (
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-patches/logging"
)

// BatchRunner encodes and pools a patch view a fixed number of examples at
// a time so only one batch of flattened patches is alive per worker.
// Batch b fills output rows [b*size, b*size+len(batch)); batches never share
// rows, so they can run on several workers without changing the result.
type BatchRunner struct {
	encoder   *Encoder
	pooler    *Pooler
	batchSize int
	workers   int
	logger    logging.Logger
}

// NewBatchRunner creates a runner. workers <= 1 runs batches sequentially
// in increasing order.
func NewBatchRunner(encoder *Encoder, pooler *Pooler, batchSize, workers int, logger logging.Logger) (*BatchRunner, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "batch_runner"})
	}
	return &BatchRunner{
		encoder:   encoder,
		pooler:    pooler,
		batchSize: batchSize,
		workers:   max(workers, 1),
		logger:    logger,
	}, nil
}

// NumBatches returns ceil(examples / batch size)
func (r *BatchRunner) NumBatches(examples int) int {
	return (examples + r.batchSize - 1) / r.batchSize
}

// Run returns the pooled (unnormalised) feature matrix, one row per
// example in input order. Quadrant geometry is checked before the first
// batch so a bad configuration produces no partial output.
func (r *BatchRunner) Run(view *PatchView) (*mat.Dense, error) {
	examples := view.Examples()
	if examples == 0 {
		return nil, ErrNoExamples
	}
	if err := r.pooler.CheckTimePositions(view.Shape()[axisTimePos]); err != nil {
		return nil, err
	}

	out := mat.NewDense(examples, r.pooler.OutputWidth(r.encoder.NumCentroids()), nil)
	numBatches := r.NumBatches(examples)

	if r.workers == 1 {
		for b := range numBatches {
			if err := r.runBatch(out, view, b, numBatches); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for b := range numBatches {
		g.Go(func() error {
			return r.runBatch(out, view, b, numBatches)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BatchRunner) runBatch(out *mat.Dense, view *PatchView, b, numBatches int) error {
	r.logger.Debug("encoding batch", logging.Fields{"batch": b + 1, "of": numBatches})

	lo := b * r.batchSize
	batch := view.Slice(lo, lo+r.batchSize)

	act, err := r.encoder.Encode(batch)
	if err != nil {
		return fmt.Errorf("batch %d of %d: %w", b+1, numBatches, err)
	}

	for i := range batch.Examples() {
		if err := r.pooler.PoolExample(out.RawRowView(lo+i), act, i); err != nil {
			return fmt.Errorf("batch %d of %d: %w", b+1, numBatches, err)
		}
	}
	return nil
}
