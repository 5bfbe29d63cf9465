// Package objectpath builds and parses the canonical object key layout
// <status>/<year>/<month>/<project>/<name>.<ext>. The status segment is the
// authoritative workflow state of an object; listing by status is a prefix
// scan and a status change is a rename.
package objectpath

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the workflow partition an object lives in.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a recognized workflow status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ErrMalformedKey is returned when a key does not decompose into the
// expected five segments with a recognized status.
var ErrMalformedKey = errors.New("malformed object key")

// Parts holds the decomposed segments of an object key.
type Parts struct {
	Status    Status
	Year      string
	Month     string
	ProjectID string
	Basename  string
}

// Key reassembles the segments into a full object key.
func (p Parts) Key() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", p.Status, p.Year, p.Month, p.ProjectID, p.Basename)
}

// WithStatus returns the key with only the status segment rewritten.
func (p Parts) WithStatus(status Status) string {
	p.Status = status
	return p.Key()
}

// Build composes a key for the given status, project and basename. The
// project identifier is lowercased, any existing extension on the basename is
// stripped and replaced with ext, and the year/month segments are taken from
// now in UTC.
func Build(status Status, projectID, basename, ext string, now time.Time) string {
	t := now.UTC()
	name := basename
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return fmt.Sprintf("%s/%04d/%02d/%s/%s.%s",
		status, t.Year(), int(t.Month()), strings.ToLower(projectID), name, ext)
}

// Parse splits a key into its five segments. It fails with ErrMalformedKey
// when fewer than five segments are present, any segment is empty, or the
// first segment is not a recognized status.
func Parse(key string) (Parts, error) {
	segments := strings.SplitN(key, "/", 5)
	if len(segments) < 5 {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	for _, seg := range segments {
		if seg == "" {
			return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
		}
	}
	status := Status(segments[0])
	if !status.Valid() {
		return Parts{}, fmt.Errorf("%w: unknown status %q", ErrMalformedKey, segments[0])
	}
	return Parts{
		Status:    status,
		Year:      segments[1],
		Month:     segments[2],
		ProjectID: segments[3],
		Basename:  segments[4],
	}, nil
}
