package review

import (
	"context"
	"time"

	"github.com/gfi/datareview/internal/metrics"
	"github.com/gfi/datareview/internal/objectpath"
	"go.uber.org/zap"
)

// TransitionEvent describes one completed status transition.
type TransitionEvent struct {
	Status   objectpath.Status
	From     string
	To       string
	Actor    string
	At       time.Time
	Feedback string
}

// Recorder consumes transition events. Delivery failures must not affect the
// transition itself; implementations log and move on.
type Recorder interface {
	Record(ctx context.Context, event TransitionEvent)
}

// LogRecorder writes transition events to the audit log and bumps the
// transition counters.
type LogRecorder struct {
	log *zap.Logger
}

// NewLogRecorder builds the default recorder.
func NewLogRecorder(log *zap.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(ctx context.Context, event TransitionEvent) {
	metrics.TransitionsTotal.WithLabelValues(string(event.Status)).Inc()
	r.log.Info("transition recorded",
		zap.String("status", string(event.Status)),
		zap.String("from", event.From),
		zap.String("to", event.To),
		zap.String("actor", event.Actor),
		zap.Time("at", event.At))
}
