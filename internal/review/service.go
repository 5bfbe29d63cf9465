// Package review lists pending submissions and moves them between status
// partitions under administrator action. A transition is a copy to the
// destination partition, a metadata merge, and a delete of the source;
// copy always precedes delete so a mid-flight failure leaves the source
// recoverable.
package review

import (
	"time"

	"github.com/gfi/datareview/internal/blob"
	"go.uber.org/zap"
)

// Service bundles the lister, the transition engine and the signed URL
// issuer over one configured store.
type Service struct {
	store    blob.Store
	recorder Recorder
	log      *zap.Logger
	nowFunc  func() time.Time
}

// NewService constructs a review service. recorder may not be nil; use
// NewLogRecorder for the default.
func NewService(store blob.Store, recorder Recorder, log *zap.Logger) *Service {
	return &Service{
		store:    store,
		recorder: recorder,
		log:      log,
		nowFunc:  time.Now,
	}
}
