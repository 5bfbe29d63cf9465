package review

import (
	"context"
	"testing"
	"time"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/config"
	"github.com/gfi/datareview/internal/intake"
	"github.com/gfi/datareview/internal/objectpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApproveMovesObjectAndPatchesMetadata(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, "pending/2025/08/solana/data.csv", map[string]string{
		"proj_id": "solana", "uploader": "alice", "status": "pending",
	})

	result, err := svc.Approve(ctx, "pending/2025/08/solana/data.csv", "carol")
	require.NoError(t, err)
	assert.Equal(t, "pending/2025/08/solana/data.csv", result.From)
	assert.Equal(t, "approved/2025/08/solana/data.csv", result.To)
	assert.Equal(t, objectpath.StatusApproved, result.Status)

	_, err = store.Stat(ctx, result.From)
	assert.ErrorIs(t, err, blob.ErrNotFound, "source must be gone")

	dst, err := store.Stat(ctx, result.To)
	require.NoError(t, err)
	assert.Equal(t, "approved", dst.Metadata["status"])
	assert.Equal(t, "carol", dst.Metadata["approver"])
	assert.NotEmpty(t, dst.Metadata["approved_at"])
	assert.Equal(t, "alice", dst.Metadata["uploader"], "provenance metadata carries across the move")
}

func TestApproveAcceptsFullURI(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store, "pending/2025/08/solana/data.csv", nil)

	result, err := svc.Approve(context.Background(), "mem://data_research/pending/2025/08/solana/data.csv", "carol")
	require.NoError(t, err)
	assert.Equal(t, "approved/2025/08/solana/data.csv", result.To)
}

func TestApproveCrossBucketDenied(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), "mem://someone_elses_bucket/pending/2025/08/solana/data.csv", "carol")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestApproveNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Approve(context.Background(), "pending/2025/08/solana/missing.csv", "carol")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestTransitionRequiresPendingSource(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, "approved/2025/08/solana/done.csv", nil)
	seed(t, store, "rejected/2025/08/solana/bad.csv", nil)

	_, err := svc.Approve(ctx, "approved/2025/08/solana/done.csv", "carol")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Approve(ctx, "rejected/2025/08/solana/bad.csv", "carol")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Reject(ctx, "approved/2025/08/solana/done.csv", "carol", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Nothing moved.
	_, err = store.Stat(ctx, "approved/2025/08/solana/done.csv")
	assert.NoError(t, err)
	_, err = store.Stat(ctx, "rejected/2025/08/solana/bad.csv")
	assert.NoError(t, err)
}

func TestApproveMalformedKey(t *testing.T) {
	svc, store := newTestService(t)
	seed(t, store, "pending/stray.csv", nil)

	_, err := svc.Approve(context.Background(), "pending/stray.csv", "carol")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectMovesObjectWithFeedback(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, "pending/2025/08/solana/data.csv", map[string]string{
		"proj_id": "solana", "status": "pending",
	})

	result, err := svc.Reject(ctx, "pending/2025/08/solana/data.csv", "dave", "missing header row")
	require.NoError(t, err)
	assert.Equal(t, "rejected/2025/08/solana/data.csv", result.To)

	dst, err := store.Stat(ctx, result.To)
	require.NoError(t, err)
	assert.Equal(t, "rejected", dst.Metadata["status"])
	assert.Equal(t, "dave", dst.Metadata["rejected_by"])
	assert.Equal(t, "missing header row", dst.Metadata["feedback"])
	assert.NotEmpty(t, dst.Metadata["rejected_at"])

	_, err = store.Stat(ctx, result.From)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

// racingStore replaces the source object just before the conditional delete,
// simulating a client resubmission racing the reviewer.
type racingStore struct {
	*blob.MemoryStore
	raceKey string
	raced   bool
}

func (s *racingStore) DeleteIfGeneration(ctx context.Context, key, generation string) error {
	if key == s.raceKey && !s.raced {
		s.raced = true
		if err := s.MemoryStore.Put(ctx, key, []byte("corrected upload"), "text/csv", nil); err != nil {
			return err
		}
	}
	return s.MemoryStore.DeleteIfGeneration(ctx, key, generation)
}

func TestRejectConcurrentModification(t *testing.T) {
	mem := blob.NewMemoryStore("data_research")
	store := &racingStore{MemoryStore: mem, raceKey: "pending/2025/08/solana/data.csv"}
	svc := NewService(store, NewLogRecorder(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, mem.Put(ctx, store.raceKey, []byte("original"), "text/csv", nil))

	_, err := svc.Reject(ctx, store.raceKey, "dave", "stale data")
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// The newer upload survives the failed delete.
	src, err := mem.Stat(ctx, store.raceKey)
	require.NoError(t, err)
	assert.Equal(t, int64(len("corrected upload")), src.Size)

	// The rejected copy exists: partial effect is accepted non-atomicity.
	_, err = mem.Stat(ctx, "rejected/2025/08/solana/data.csv")
	assert.NoError(t, err)
}

func TestRejectRequiresPendingPrefix(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Reject(context.Background(), "approved/2025/08/solana/a.csv", "dave", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUploadThenApproveEndToEnd(t *testing.T) {
	store := blob.NewMemoryStore("data_research")
	ingest := intake.NewService(store, config.BlobConfig{
		Backend: "memory", Bucket: "data_research", MaxUploadMiB: 30,
	}, zap.NewNop())
	reviewSvc := NewService(store, NewLogRecorder(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	uploaded, err := ingest.UploadCSV(ctx, intake.UploadInput{
		Content:     []byte("wallet,balance\nabc,12\n"),
		ContentType: "text/csv",
		ProjectID:   "Solana",
		Filename:    "balances.csv",
		Uploader:    "alice",
	})
	require.NoError(t, err)

	parts, err := objectpath.Parse(uploaded.Key)
	require.NoError(t, err)
	assert.Equal(t, objectpath.StatusPending, parts.Status)
	assert.Equal(t, "solana", parts.ProjectID)

	pendingObj, err := store.Stat(ctx, uploaded.Key)
	require.NoError(t, err)
	assert.Equal(t, "pending", pendingObj.Metadata["status"])

	approved, err := reviewSvc.Approve(ctx, uploaded.Key, "carol")
	require.NoError(t, err)
	assert.Equal(t, parts.WithStatus(objectpath.StatusApproved), approved.To)

	dst, err := store.Stat(ctx, approved.To)
	require.NoError(t, err)
	assert.Equal(t, "approved", dst.Metadata["status"])
	assert.Equal(t, "carol", dst.Metadata["approver"])

	_, err = store.Stat(ctx, uploaded.Key)
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

// recordingRecorder captures events for assertions.
type recordingRecorder struct {
	events []TransitionEvent
}

func (r *recordingRecorder) Record(ctx context.Context, event TransitionEvent) {
	r.events = append(r.events, event)
}

func TestTransitionEmitsEvent(t *testing.T) {
	store := blob.NewMemoryStore("data_research")
	recorder := &recordingRecorder{}
	svc := NewService(store, recorder, zap.NewNop())
	svc.nowFunc = func() time.Time {
		return time.Date(2025, time.August, 14, 12, 0, 0, 0, time.UTC)
	}
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pending/2025/08/solana/a.csv", []byte("x"), "text/csv", nil))

	_, err := svc.Reject(ctx, "pending/2025/08/solana/a.csv", "dave", "wrong columns")
	require.NoError(t, err)

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, objectpath.StatusRejected, event.Status)
	assert.Equal(t, "dave", event.Actor)
	assert.Equal(t, "wrong columns", event.Feedback)
	assert.Equal(t, svc.nowFunc(), event.At)
}
