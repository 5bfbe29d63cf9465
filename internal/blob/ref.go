package blob

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRef is returned when an object reference is neither a bare key
// nor a scheme://bucket/key URI using the store's scheme.
var ErrInvalidRef = errors.New("invalid object reference")

// Ref identifies an object by bucket and key.
type Ref struct {
	Bucket string
	Key    string
}

// ParseRef resolves a caller-supplied reference against a store. A bare key
// resolves to the store's own bucket; a full URI must use the store's scheme
// and may name any bucket (callers decide whether cross-bucket references
// are acceptable).
func ParseRef(s Store, raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, fmt.Errorf("%w: empty reference", ErrInvalidRef)
	}

	if !strings.Contains(raw, "://") {
		return Ref{Bucket: s.Bucket(), Key: raw}, nil
	}

	prefix := s.Scheme() + "://"
	if !strings.HasPrefix(raw, prefix) {
		return Ref{}, fmt.Errorf("%w: expected %s prefix", ErrInvalidRef, prefix)
	}

	rest := strings.TrimPrefix(raw, prefix)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, raw)
	}
	return Ref{Bucket: bucket, Key: key}, nil
}
