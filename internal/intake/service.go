// Package intake accepts dataset submissions and writes them into the
// pending partition of the object store.
package intake

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/config"
	"github.com/gfi/datareview/internal/metrics"
	"github.com/gfi/datareview/internal/objectpath"
	"go.uber.org/zap"
)

const (
	csvContentType = "text/csv"

	schemaVersionCSV   = "v1"
	schemaVersionBatch = "v3"
)

// acceptedCSVTypes is the media-type set browsers send for CSV files.
var acceptedCSVTypes = map[string]struct{}{
	"text/csv":                 {},
	"application/csv":          {},
	"application/vnd.ms-excel": {},
}

// Service validates incoming payloads and writes pending objects.
type Service struct {
	store             blob.Store
	maxSize           int64
	normalizeEncoding bool
	log               *zap.Logger
	nowFunc           func() time.Time
}

// NewService constructs an intake service over the given store.
func NewService(store blob.Store, cfg config.BlobConfig, log *zap.Logger) *Service {
	return &Service{
		store:             store,
		maxSize:           cfg.MaxUploadBytes(),
		normalizeEncoding: cfg.NormalizeEncoding,
		log:               log,
		nowFunc:           time.Now,
	}
}

// UploadInput carries one CSV submission.
type UploadInput struct {
	Content        []byte
	ContentType    string
	ProjectID      string
	Filename       string
	Uploader       string
	IdempotencyKey string
}

// UploadResult reports where the pending object landed.
type UploadResult struct {
	Key    string
	URI    string
	Status objectpath.Status
}

// UploadCSV validates the payload and writes it once under a pending key.
// The write is a blind overwrite: the idempotency key is stored in metadata
// but resubmissions are not deduplicated server-side.
func (s *Service) UploadCSV(ctx context.Context, in UploadInput) (UploadResult, error) {
	if strings.TrimSpace(in.ProjectID) == "" || strings.TrimSpace(in.Filename) == "" {
		return UploadResult{}, fmt.Errorf("%w: proj_id and filename are required", ErrInvalidArgument)
	}
	if _, ok := acceptedCSVTypes[mediaType(in.ContentType)]; !ok {
		return UploadResult{}, ErrUnsupportedMediaType
	}
	if len(in.Content) == 0 {
		return UploadResult{}, ErrEmptyPayload
	}
	if int64(len(in.Content)) > s.maxSize {
		return UploadResult{}, ErrPayloadTooLarge
	}

	data := in.Content
	if s.normalizeEncoding {
		data = normalizeCSV(data)
	}

	key := objectpath.Build(objectpath.StatusPending, in.ProjectID, in.Filename, "csv", s.nowFunc())
	metadata := map[string]string{
		"proj_id":        in.ProjectID,
		"uploader":       in.Uploader,
		"schema_version": schemaVersionCSV,
		"status":         string(objectpath.StatusPending),
	}
	if in.IdempotencyKey != "" {
		metadata["idempotency_key"] = in.IdempotencyKey
	}

	if err := s.store.Put(ctx, key, data, csvContentType, metadata); err != nil {
		return UploadResult{}, fmt.Errorf("write pending object: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("csv").Inc()
	s.log.Info("csv ingested",
		zap.String("key", key),
		zap.String("proj_id", in.ProjectID),
		zap.Int("size", len(data)))

	return UploadResult{
		Key:    key,
		URI:    blob.URI(s.store, key),
		Status: objectpath.StatusPending,
	}, nil
}

// mediaType strips parameters such as charset from a Content-Type value.
func mediaType(value string) string {
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return parsed
}
