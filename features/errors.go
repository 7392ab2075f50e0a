package features

import "errors"

// Configuration errors. Each aborts a pass before any output is produced.
var (
	ErrPatchTooLarge = errors.New("patch does not fit in spectrogram")
	ErrEmptyQuadrant = errors.New("quadrant pooling slice is empty")
	ErrShapeMismatch = errors.New("spectrogram shape differs from reference")
	ErrNoExamples    = errors.New("dataset has no examples")
)
