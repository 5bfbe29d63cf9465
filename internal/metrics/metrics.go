// Package metrics exposes the Prometheus endpoint and the domain counters
// for uploads and review transitions.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// UploadsTotal counts ingested objects by kind ("csv" or "json").
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datareview_uploads_total",
		Help: "Number of objects written into the pending partition.",
	}, []string{"kind"})

	// TransitionsTotal counts status transitions by outcome.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datareview_transitions_total",
		Help: "Number of approve/reject transitions by resulting status.",
	}, []string{"status"})

	// TransitionFailures counts transitions that failed after validation.
	TransitionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "datareview_transition_failures_total",
		Help: "Number of transitions that failed against the object store.",
	}, []string{"status"})
)

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
