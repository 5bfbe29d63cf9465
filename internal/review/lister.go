package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/objectpath"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// ListQuery narrows a listing to one partition and optional year, month and
// project filters. Filters compose in fixed prefix order status/year/month/
// project; a month filter requires a year.
type ListQuery struct {
	Status    string
	ProjectID string
	Year      int
	Month     int
	PageSize  int
	PageToken string
}

// ListItem is one object surfaced by the lister.
type ListItem struct {
	Name     string            `json:"name"`
	URI      string            `json:"gcs_uri"`
	Size     int64             `json:"size"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	// Feedback mirrors metadata["feedback"] for rejected listings only.
	Feedback *string `json:"feedback,omitempty"`
}

// ListResult is one page of a listing.
type ListResult struct {
	Prefix        string
	Items         []ListItem
	NextPageToken string
}

// List streams one page of the partition selected by q. Ordering follows
// the backend's listing order; directory markers are filtered out.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize < 1 || q.PageSize > maxPageSize {
		return ListResult{}, ErrInvalidPageSize
	}

	status := q.Status
	if status == "" {
		status = string(objectpath.StatusPending)
	}
	if !objectpath.Status(status).Valid() {
		return ListResult{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
	if q.Year < 0 || q.Year > 9999 {
		return ListResult{}, fmt.Errorf("%w: year out of range", ErrInvalidArgument)
	}
	if q.Month != 0 && q.Year == 0 {
		return ListResult{}, fmt.Errorf("%w: month filter requires year", ErrInvalidArgument)
	}
	if q.Month < 0 || q.Month > 12 {
		return ListResult{}, fmt.Errorf("%w: month out of range", ErrInvalidArgument)
	}

	parts := []string{status}
	if q.Year != 0 {
		parts = append(parts, fmt.Sprintf("%04d", q.Year))
	}
	if q.Month != 0 {
		parts = append(parts, fmt.Sprintf("%02d", q.Month))
	}
	if q.ProjectID != "" {
		parts = append(parts, strings.ToLower(q.ProjectID))
	}
	prefix := strings.Join(parts, "/")

	page, err := s.store.List(ctx, prefix, q.PageSize, q.PageToken)
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", prefix, translateStoreError(err))
	}

	rejected := status == string(objectpath.StatusRejected)
	result := ListResult{Prefix: prefix, NextPageToken: page.NextToken}
	for _, obj := range page.Objects {
		// Directory markers are a storage artifact, not content.
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		item := ListItem{
			Name:     obj.Key,
			URI:      blob.URI(s.store, obj.Key),
			Size:     obj.Size,
			Updated:  obj.Updated,
			Metadata: obj.Metadata,
		}
		if rejected {
			feedback := obj.Metadata["feedback"]
			item.Feedback = &feedback
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}
