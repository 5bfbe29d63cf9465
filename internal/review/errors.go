package review

import "errors"

var (
	// ErrInvalidArgument signals a missing or malformed request field.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidPageSize is returned when page_size is outside [1, 1000].
	ErrInvalidPageSize = errors.New("page_size must be between 1 and 1000")
	// ErrObjectNotFound signals the referenced object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidTransition is returned when the source key is not in the
	// pending partition or does not decompose into the expected segments.
	ErrInvalidTransition = errors.New("only pending objects can be transitioned")
	// ErrConcurrentModification is returned when the source object changed
	// between the transition's read and its conditional delete.
	ErrConcurrentModification = errors.New("object was modified concurrently")
	// ErrAccessDenied is returned for cross-bucket references or backend
	// permission failures.
	ErrAccessDenied = errors.New("access denied")
)
