package review

import (
	"context"
	"fmt"
	"time"

	"github.com/gfi/datareview/internal/blob"
)

const (
	defaultExpiresMinutes = 15
	maxExpiresMinutes     = 1440
)

// SignedDownloadURL issues a GET-only, attachment-disposition URL for the
// referenced object, valid for expiresMinutes (default 15, bounded to
// [1, 1440]). Read-only and safely retryable.
func (s *Service) SignedDownloadURL(ctx context.Context, ref string, expiresMinutes int) (string, error) {
	if expiresMinutes == 0 {
		expiresMinutes = defaultExpiresMinutes
	}
	if expiresMinutes < 1 || expiresMinutes > maxExpiresMinutes {
		return "", fmt.Errorf("%w: expires_minutes must be between 1 and %d", ErrInvalidArgument, maxExpiresMinutes)
	}

	resolved, err := blob.ParseRef(s.store, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if resolved.Bucket != s.store.Bucket() {
		return "", fmt.Errorf("%w: bucket %q is not served here", ErrAccessDenied, resolved.Bucket)
	}

	if _, err := s.store.Stat(ctx, resolved.Key); err != nil {
		return "", fmt.Errorf("stat object: %w", translateStoreError(err))
	}

	url, err := s.store.SignedURL(ctx, resolved.Key, time.Duration(expiresMinutes)*time.Minute)
	if err != nil {
		return "", fmt.Errorf("sign url: %w", translateStoreError(err))
	}
	return url, nil
}
