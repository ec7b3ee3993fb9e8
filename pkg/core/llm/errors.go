package llm

import (
	"errors"
	"fmt"
)

// Failure kinds. The first three are transient and retried.
var (
	ErrUnavailable   = errors.New("generation backend unavailable")
	ErrTimeout       = errors.New("generation timed out")
	ErrEmptyResponse = errors.New("generation returned no text")
	ErrBadRequest    = errors.New("generation request rejected")
)

// GenerationError is returned once retries are exhausted or a non-transient failure occurs.
type GenerationError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate with %s failed after %d attempt(s): %v", e.Model, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func transient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrEmptyResponse)
}
