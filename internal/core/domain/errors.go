package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")

	// ErrEmptyCorpus is returned when a lexical index is built from zero
	// chunks.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrInvalidWeight rejects a semantic weight outside [0,1] before any
	// search runs.
	ErrInvalidWeight = errors.New("semantic weight outside [0,1]")

	// ErrRetrievalUnavailable signals that both search branches failed for
	// a query; the caller owns the user-facing messaging.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
