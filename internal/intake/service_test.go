package intake

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/config"
	"github.com/gfi/datareview/internal/objectpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, maxMiB int64) (*Service, *blob.MemoryStore) {
	t.Helper()
	store := blob.NewMemoryStore("data_research")
	svc := NewService(store, config.BlobConfig{
		Backend:      "memory",
		Bucket:       "data_research",
		MaxUploadMiB: maxMiB,
	}, zap.NewNop())
	svc.nowFunc = func() time.Time {
		return time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC)
	}
	return svc, store
}

func TestUploadCSVWritesPendingObject(t *testing.T) {
	svc, store := newTestService(t, 30)

	result, err := svc.UploadCSV(context.Background(), UploadInput{
		Content:        []byte("id,score\n1,0.9\n"),
		ContentType:    "text/csv",
		ProjectID:      "Solana",
		Filename:       "metrics.xlsx",
		Uploader:       "alice",
		IdempotencyKey: "k-123",
	})
	require.NoError(t, err)

	assert.Equal(t, "pending/2025/08/solana/metrics.csv", result.Key)
	assert.Equal(t, "mem://data_research/pending/2025/08/solana/metrics.csv", result.URI)
	assert.Equal(t, objectpath.StatusPending, result.Status)

	obj, err := store.Stat(context.Background(), result.Key)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", obj.ContentType)
	assert.Equal(t, "Solana", obj.Metadata["proj_id"])
	assert.Equal(t, "alice", obj.Metadata["uploader"])
	assert.Equal(t, "v1", obj.Metadata["schema_version"])
	assert.Equal(t, "pending", obj.Metadata["status"])
	assert.Equal(t, "k-123", obj.Metadata["idempotency_key"])
}

func TestUploadCSVValidationOrdering(t *testing.T) {
	svc, _ := newTestService(t, 30)
	ctx := context.Background()

	// A non-CSV media type fails before the body is inspected, even empty.
	_, err := svc.UploadCSV(ctx, UploadInput{
		ContentType: "application/pdf",
		ProjectID:   "alpha",
		Filename:    "a",
	})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)

	// An empty body of a valid media type fails as empty, not as too large.
	_, err = svc.UploadCSV(ctx, UploadInput{
		ContentType: "text/csv",
		ProjectID:   "alpha",
		Filename:    "a",
	})
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = svc.UploadCSV(ctx, UploadInput{
		Content:     []byte("x"),
		ContentType: "text/csv",
		ProjectID:   "",
		Filename:    "a",
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUploadCSVAcceptsCharsetParameter(t *testing.T) {
	svc, _ := newTestService(t, 30)

	_, err := svc.UploadCSV(context.Background(), UploadInput{
		Content:     []byte("a,b\n"),
		ContentType: "text/csv; charset=utf-8",
		ProjectID:   "alpha",
		Filename:    "a",
	})
	assert.NoError(t, err)
}

func TestUploadCSVSizeBoundary(t *testing.T) {
	svc, _ := newTestService(t, 1)
	ctx := context.Background()
	max := int64(1) * 1024 * 1024

	_, err := svc.UploadCSV(ctx, UploadInput{
		Content:     bytes.Repeat([]byte("x"), int(max)),
		ContentType: "text/csv",
		ProjectID:   "alpha",
		Filename:    "exact",
	})
	assert.NoError(t, err, "payload of exactly MAX_SIZE must succeed")

	_, err = svc.UploadCSV(ctx, UploadInput{
		Content:     bytes.Repeat([]byte("x"), int(max)+1),
		ContentType: "text/csv",
		ProjectID:   "alpha",
		Filename:    "over",
	})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestUploadCSVNormalizesEncodingWhenEnabled(t *testing.T) {
	svc, store := newTestService(t, 30)
	svc.normalizeEncoding = true

	result, err := svc.UploadCSV(context.Background(), UploadInput{
		Content:     []byte("name\ncaf\xe9\n"), // Windows-1252 é
		ContentType: "text/csv",
		ProjectID:   "alpha",
		Filename:    "legacy",
	})
	require.NoError(t, err)

	data, ok := store.Content(result.Key)
	require.True(t, ok)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), "café")
}
