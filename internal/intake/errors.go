package intake

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument signals a missing or malformed request field.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedMediaType is returned for non-CSV upload content types.
	ErrUnsupportedMediaType = errors.New("unsupported media type: expected text/csv")
	// ErrEmptyPayload is returned for zero-length upload bodies.
	ErrEmptyPayload = errors.New("empty file")
	// ErrPayloadTooLarge is returned when a payload exceeds the configured ceiling.
	ErrPayloadTooLarge = errors.New("file too large")
	// ErrInvalidPayloadShape is returned when a batch body is not a mapping
	// with a non-empty questions_main list.
	ErrInvalidPayloadShape = errors.New("payload must contain a non-empty questions_main list")
)

// RecordError reports a single invalid record in a batch payload.
type RecordError struct {
	Index   int
	Missing []string
	Reason  string
}

func (e *RecordError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("record %d: missing fields: %s", e.Index, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}
