package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedDownloadURL(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, "approved/2025/08/solana/data.csv", nil)

	url, err := svc.SignedDownloadURL(ctx, "approved/2025/08/solana/data.csv", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	url, err = svc.SignedDownloadURL(ctx, "mem://data_research/approved/2025/08/solana/data.csv", 30)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
}

func TestSignedDownloadURLValidation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seed(t, store, "approved/2025/08/solana/data.csv", nil)

	_, err := svc.SignedDownloadURL(ctx, "approved/2025/08/solana/data.csv", 1441)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.SignedDownloadURL(ctx, "approved/2025/08/solana/data.csv", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.SignedDownloadURL(ctx, "gs://data_research/approved/2025/08/solana/data.csv", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument, "wrong scheme for the configured backend")

	_, err = svc.SignedDownloadURL(ctx, "mem://other_bucket/approved/2025/08/solana/data.csv", 10)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.SignedDownloadURL(ctx, "approved/2025/08/solana/missing.csv", 10)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
