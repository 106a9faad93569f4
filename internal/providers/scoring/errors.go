package scoring

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/ecoswipe/internal/providers/backend"
)

var (
	// ErrBackendUnreachable is the locator's failure, re-exported for callers
	ErrBackendUnreachable = backend.ErrUnreachable

	// ErrRequestFailed covers network errors and non-2xx answers
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse means the body was not the expected JSON shape
	ErrMalformedResponse = errors.New("malformed response")
)

// RequestError is a non-2xx answer from the scoring service
type RequestError struct {
	Op     string
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s with status %d", e.Op, ErrRequestFailed, e.Status)
}

// Unwrap lets errors.Is match ErrRequestFailed
func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

// StatusCode extracts the HTTP status from err, if any
func StatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status, true
	}
	return 0, false
}
