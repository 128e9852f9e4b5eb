package edgar

import (
	"errors"
	"fmt"
)

// ErrMissingMetadata reports a filing metadata entry that lacks the fields
// needed to build a document URL. This is a data/caller bug, never retried.
var ErrMissingMetadata = errors.New("filing metadata missing required fields")

// ErrRetriesExhausted is returned when every attempt of a request failed
// without ever producing a response.
var ErrRetriesExhausted = errors.New("request failed after retries")

// StatusError is a non-2xx HTTP response from EDGAR.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsClientError reports whether the status is in the non-retryable 4xx range.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
