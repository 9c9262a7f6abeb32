package errs

import "errors"

// Stable error kinds surfaced by the scoring core. Handlers map these to
// transport status codes with errors.Is; everything else is wrapped as an
// internal failure.
var (
	ErrMalformedInput  = errors.New("malformed input")
	ErrNotCSV          = errors.New("file is not a CSV")
	ErrValidation      = errors.New("invalid request parameters")
	ErrConflict        = errors.New("operation already in progress")
	ErrNotFound        = errors.New("not found")
	ErrTrainingData    = errors.New("invalid training data")
	ErrShape           = errors.New("invalid feature shape")
	ErrArtifactCorrupt = errors.New("model artifact corrupt")
)
