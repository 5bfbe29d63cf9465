// Package blob defines the object-store capability used by the intake and
// review services, together with adapters for Google Cloud Storage,
// S3-compatible stores (MinIO) and an in-memory backend. All methods must be
// safe for concurrent use.
package blob

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrPreconditionFailed is returned when a conditional delete loses a
	// race against a concurrent writer.
	ErrPreconditionFailed = errors.New("generation precondition failed")
	// ErrAccessDenied is returned when the backend rejects the caller.
	ErrAccessDenied = errors.New("access denied")
)

// Object describes a stored object as reported by the backend.
type Object struct {
	Key         string
	Size        int64
	Updated     time.Time
	ContentType string
	// Metadata is the user metadata bag attached to the object. Keys are
	// lowercase.
	Metadata map[string]string
	// Generation is an opaque version token that changes on every write to
	// the key. It is usable as a precondition for DeleteIfGeneration.
	Generation string
}

// Page is one page of a prefix listing. NextToken, when non-empty, resumes
// the listing strictly after the last returned key.
type Page struct {
	Objects   []Object
	NextToken string
}

// Store is the object-store capability. Implementations wrap one bucket of
// one backend; the bucket is fixed at construction time.
type Store interface {
	// Put writes data at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// Stat returns the object's attributes, or ErrNotFound.
	Stat(ctx context.Context, key string) (Object, error)
	// List returns up to pageSize objects whose keys start with prefix,
	// resuming after pageToken when supplied.
	List(ctx context.Context, prefix string, pageSize int, pageToken string) (Page, error)
	// Copy duplicates srcKey to dstKey within the bucket, carrying the
	// source's content and metadata.
	Copy(ctx context.Context, srcKey, dstKey string) error
	// Delete removes the object unconditionally.
	Delete(ctx context.Context, key string) error
	// DeleteIfGeneration removes the object only if its current version
	// token equals generation, failing with ErrPreconditionFailed otherwise.
	DeleteIfGeneration(ctx context.Context, key string, generation string) error
	// PatchMetadata replaces the object's user metadata bag.
	PatchMetadata(ctx context.Context, key string, metadata map[string]string) error
	// SignedURL issues a GET-only, attachment-disposition download URL
	// valid for the given duration.
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
	// Bucket returns the configured bucket name.
	Bucket() string
	// Scheme returns the URI scheme used in object references ("gs", "s3").
	Scheme() string
}

// URI renders the canonical scheme://bucket/key reference for an object in
// the given store.
func URI(s Store, key string) string {
	return s.Scheme() + "://" + s.Bucket() + "/" + key
}
