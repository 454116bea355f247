package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNoTracks         = errors.New("playlist has no tracks")
	ErrRateLimited      = errors.New("rate limited by upstream")
	ErrDocumentNotFound = errors.New("document not found")
	ErrTrackNotFound    = errors.New("track not found in document")
)

// ProviderError carries the upstream context of a failed provider call.
// Callers decide on retries with errors.Is(err, ErrRateLimited).
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider, op string, statusCode int, err error) error {
	return &ProviderError{
		Provider:   provider,
		Op:         op,
		StatusCode: statusCode,
		Err:        err,
	}
}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
