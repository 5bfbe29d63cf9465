package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gfi/datareview/internal/blob"
	"github.com/gfi/datareview/internal/metrics"
	"github.com/gfi/datareview/internal/objectpath"
	"go.uber.org/zap"
)

// Transition reports a completed status move. From and To are object keys.
type Transition struct {
	From   string
	To     string
	Status objectpath.Status
}

// Approve moves a pending object into the approved partition. The reference
// may be a bare key or a full URI; cross-bucket references are rejected.
//
// Steps: copy to the approved key, verify the copy landed, delete the source
// unconditionally, then merge approval metadata onto the destination. The
// unconditional delete is a deliberate asymmetry with Reject: two concurrent
// approvers both succeed and the destination is overwritten harmlessly.
func (s *Service) Approve(ctx context.Context, ref, approver string) (Transition, error) {
	resolved, err := blob.ParseRef(s.store, ref)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if resolved.Bucket != s.store.Bucket() {
		return Transition{}, fmt.Errorf("%w: bucket %q is not served here", ErrAccessDenied, resolved.Bucket)
	}
	src := resolved.Key

	if _, err := s.store.Stat(ctx, src); err != nil {
		return Transition{}, fmt.Errorf("stat source: %w", translateStoreError(err))
	}

	parts, err := objectpath.Parse(src)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	if parts.Status != objectpath.StatusPending {
		return Transition{}, fmt.Errorf("%w: source is %s", ErrInvalidTransition, parts.Status)
	}
	dst := parts.WithStatus(objectpath.StatusApproved)

	if err := s.store.Copy(ctx, src, dst); err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusApproved)).Inc()
		return Transition{}, fmt.Errorf("copy to approved: %w", translateStoreError(err))
	}

	dstObj, err := s.store.Stat(ctx, dst)
	if err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusApproved)).Inc()
		return Transition{}, fmt.Errorf("verify approved copy: %w", translateStoreError(err))
	}

	if err := s.store.Delete(ctx, src); err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusApproved)).Inc()
		return Transition{}, fmt.Errorf("delete source: %w", translateStoreError(err))
	}

	md := mergeMetadata(dstObj.Metadata, map[string]string{
		"status":      string(objectpath.StatusApproved),
		"approver":    approver,
		"approved_at": s.nowFunc().UTC().Format(timeFormat),
	})
	if err := s.store.PatchMetadata(ctx, dst, md); err != nil {
		// Torn state: the object moved but its metadata is stale. The key's
		// status segment stays authoritative; recovery is an operator
		// re-patch of dst.
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusApproved)).Inc()
		s.log.Error("approved object left with stale metadata",
			zap.String("key", dst), zap.Error(err))
		return Transition{}, fmt.Errorf("patch approved metadata: %w", translateStoreError(err))
	}

	event := TransitionEvent{
		Status: objectpath.StatusApproved,
		From:   src,
		To:     dst,
		Actor:  approver,
		At:     s.nowFunc().UTC(),
	}
	s.recorder.Record(ctx, event)

	return Transition{From: src, To: dst, Status: objectpath.StatusApproved}, nil
}

// Reject moves a pending object into the rejected partition, attaching
// reviewer feedback.
//
// Steps: copy to the rejected key, verify, re-read the destination's current
// metadata and merge the rejection fields, patch, then re-read the source's
// version token and delete conditioned on it. A precondition failure means a
// concurrent writer replaced the source (typically a client resubmitting a
// correction); the newer upload survives and the call fails with
// ErrConcurrentModification. The rejected copy is left in place.
func (s *Service) Reject(ctx context.Context, key, rejector, feedback string) (Transition, error) {
	if !strings.HasPrefix(key, string(objectpath.StatusPending)+"/") {
		return Transition{}, fmt.Errorf("%w: key %q", ErrInvalidTransition, key)
	}
	parts, err := objectpath.Parse(key)
	if err != nil {
		return Transition{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}

	if _, err := s.store.Stat(ctx, key); err != nil {
		return Transition{}, fmt.Errorf("stat source: %w", translateStoreError(err))
	}
	dst := parts.WithStatus(objectpath.StatusRejected)

	if err := s.store.Copy(ctx, key, dst); err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusRejected)).Inc()
		return Transition{}, fmt.Errorf("copy to rejected: %w", translateStoreError(err))
	}

	dstObj, err := s.store.Stat(ctx, dst)
	if err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusRejected)).Inc()
		return Transition{}, fmt.Errorf("verify rejected copy: %w", translateStoreError(err))
	}

	md := mergeMetadata(dstObj.Metadata, map[string]string{
		"status":      string(objectpath.StatusRejected),
		"rejected_by": rejector,
		"rejected_at": s.nowFunc().UTC().Format(timeFormat),
		"feedback":    feedback,
	})
	if err := s.store.PatchMetadata(ctx, dst, md); err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusRejected)).Inc()
		return Transition{}, fmt.Errorf("patch rejected metadata: %w", translateStoreError(err))
	}

	srcNow, err := s.store.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			// Someone deleted the source while we worked on the copy.
			metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusRejected)).Inc()
			return Transition{}, fmt.Errorf("%w: source disappeared", ErrConcurrentModification)
		}
		return Transition{}, fmt.Errorf("re-read source: %w", translateStoreError(err))
	}

	if err := s.store.DeleteIfGeneration(ctx, key, srcNow.Generation); err != nil {
		metrics.TransitionFailures.WithLabelValues(string(objectpath.StatusRejected)).Inc()
		if errors.Is(err, blob.ErrPreconditionFailed) {
			return Transition{}, fmt.Errorf("%w: %s", ErrConcurrentModification, key)
		}
		return Transition{}, fmt.Errorf("delete source: %w", translateStoreError(err))
	}

	event := TransitionEvent{
		Status:   objectpath.StatusRejected,
		From:     key,
		To:       dst,
		Actor:    rejector,
		At:       s.nowFunc().UTC(),
		Feedback: feedback,
	}
	s.recorder.Record(ctx, event)

	return Transition{From: key, To: dst, Status: objectpath.StatusRejected}, nil
}

const timeFormat = "2006-01-02T15:04:05.999999Z07:00"

func mergeMetadata(current, updates map[string]string) map[string]string {
	merged := make(map[string]string, len(current)+len(updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range updates {
		merged[k] = v
	}
	return merged
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case errors.Is(err, blob.ErrAccessDenied):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	default:
		return err
	}
}
