package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutStat(t *testing.T) {
	store := NewMemoryStore("data_research")
	ctx := context.Background()

	err := store.Put(ctx, "pending/2025/01/alpha/a.csv", []byte("a,b\n1,2\n"), "text/csv", map[string]string{"Proj_ID": "alpha"})
	require.NoError(t, err)

	obj, err := store.Stat(ctx, "pending/2025/01/alpha/a.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(8), obj.Size)
	assert.Equal(t, "text/csv", obj.ContentType)
	assert.Equal(t, "alpha", obj.Metadata["proj_id"], "metadata keys are lowercased")
	assert.NotEmpty(t, obj.Generation)

	_, err = store.Stat(ctx, "pending/2025/01/alpha/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGenerationChangesOnWrite(t *testing.T) {
	store := NewMemoryStore("data_research")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), "text/csv", nil))
	first, err := store.Stat(ctx, "k")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "k", []byte("v2"), "text/csv", nil))
	second, err := store.Stat(ctx, "k")
	require.NoError(t, err)

	assert.NotEqual(t, first.Generation, second.Generation)
}

func TestMemoryStoreConditionalDelete(t *testing.T) {
	store := NewMemoryStore("data_research")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v1"), "text/csv", nil))
	obj, err := store.Stat(ctx, "k")
	require.NoError(t, err)

	// A concurrent writer replaces the object between stat and delete.
	require.NoError(t, store.Put(ctx, "k", []byte("v2"), "text/csv", nil))

	err = store.DeleteIfGeneration(ctx, "k", obj.Generation)
	assert.ErrorIs(t, err, ErrPreconditionFailed)

	current, err := store.Stat(ctx, "k")
	require.NoError(t, err, "newer version must survive the failed delete")

	require.NoError(t, store.DeleteIfGeneration(ctx, "k", current.Generation))
	_, err = store.Stat(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopyCarriesMetadata(t *testing.T) {
	store := NewMemoryStore("data_research")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pending/2025/01/alpha/a.csv", []byte("x"), "text/csv", map[string]string{"status": "pending"}))
	require.NoError(t, store.Copy(ctx, "pending/2025/01/alpha/a.csv", "approved/2025/01/alpha/a.csv"))

	dst, err := store.Stat(ctx, "approved/2025/01/alpha/a.csv")
	require.NoError(t, err)
	assert.Equal(t, "pending", dst.Metadata["status"])

	src, err := store.Stat(ctx, "pending/2025/01/alpha/a.csv")
	require.NoError(t, err)
	assert.NotEqual(t, src.Generation, dst.Generation)
}

func TestMemoryStoreListPagination(t *testing.T) {
	store := NewMemoryStore("data_research")
	ctx := context.Background()

	keys := []string{
		"pending/2025/01/alpha/a.csv",
		"pending/2025/01/alpha/b.csv",
		"pending/2025/01/alpha/c.csv",
		"pending/2025/02/alpha/d.csv",
		"rejected/2025/01/alpha/e.csv",
	}
	for _, k := range keys {
		require.NoError(t, store.Put(ctx, k, []byte("x"), "text/csv", nil))
	}

	page, err := store.List(ctx, "pending/", 2, "")
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "pending/2025/01/alpha/a.csv", page.Objects[0].Key)
	assert.Equal(t, "pending/2025/01/alpha/b.csv", page.NextToken)

	page, err = store.List(ctx, "pending/", 2, page.NextToken)
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "pending/2025/01/alpha/c.csv", page.Objects[0].Key)
	assert.Equal(t, "pending/2025/02/alpha/d.csv", page.Objects[1].Key)

	page, err = store.List(ctx, "pending/", 2, page.NextToken)
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
	assert.Empty(t, page.NextToken)
}

func TestParseRef(t *testing.T) {
	store := NewMemoryStore("data_research")

	ref, err := ParseRef(store, "pending/2025/01/alpha/a.csv")
	require.NoError(t, err)
	assert.Equal(t, Ref{Bucket: "data_research", Key: "pending/2025/01/alpha/a.csv"}, ref)

	ref, err = ParseRef(store, "mem://other_bucket/pending/2025/01/alpha/a.csv")
	require.NoError(t, err)
	assert.Equal(t, Ref{Bucket: "other_bucket", Key: "pending/2025/01/alpha/a.csv"}, ref)

	_, err = ParseRef(store, "gs://bucket/key")
	assert.ErrorIs(t, err, ErrInvalidRef, "wrong scheme for this store")

	_, err = ParseRef(store, "")
	assert.ErrorIs(t, err, ErrInvalidRef)

	_, err = ParseRef(store, "mem://bucketonly")
	assert.ErrorIs(t, err, ErrInvalidRef)
}
