package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors the orchestrator branches on. Extraction problems are
// skip-this-listing conditions, never run-fatal.
var (
	// ErrMarkerNotFound means the embedded JSON marker was absent from the
	// fetched HTML (error page or redesigned template).
	ErrMarkerNotFound = errors.New("embedded data marker not found")
	// ErrPayloadInvalid means the marker was present but its payload did not
	// parse as JSON.
	ErrPayloadInvalid = errors.New("embedded data payload invalid")
	// ErrPhoneNotFound means no phone number matched in a reveal response.
	// Not an error condition for the lead; its phone stays empty.
	ErrPhoneNotFound = errors.New("phone number not found")
)

// TransportError wraps a failed relay fetch: network failure, non-2xx
// status, or a relay error envelope.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport: fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsExtractionError reports whether err is one of the extraction sentinels.
func IsExtractionError(err error) bool {
	return errors.Is(err, ErrMarkerNotFound) || errors.Is(err, ErrPayloadInvalid)
}
