package domain

import "errors"

var (
	// ErrNotFound is returned when a review id is not part of the corpus.
	ErrNotFound = errors.New("review not found")

	// ErrEmptyCorpus is returned when no usable review survives loading or normalisation.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrNotFitted is returned when an index is queried before Fit.
	ErrNotFitted = errors.New("index not fitted")

	// ErrLengthMismatch is returned when parallel inputs disagree in length.
	ErrLengthMismatch = errors.New("length mismatch")
)
