// Package metrics counts document store operations, GitHub requests, and
// sync runs on a private Prometheus registry. The CLI is short-lived, so
// instead of serving /metrics it can write the registry to a node-exporter
// textfile when a run ends.
//
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "motolog"

// Sync outcomes.
const (
	SyncOK      = "ok"
	SyncFailed  = "error"
	SyncSkipped = "skipped"
)

// Recorder owns the registry and its collectors.
type Recorder struct {
	reg *prometheus.Registry

	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	retries       *prometheus.CounterVec
	syncs         *prometheus.CounterVec
}

// New returns a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		storeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Document store operations by backend, operation, document, and result.",
		}, []string{"backend", "op", "doc", "result"}),
		storeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Time spent in document store operations.",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"backend", "op"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub API responses by method and status code (0 = no response).",
		}, []string{"method", "code"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_retries_total",
			Help:      "GitHub API retry attempts by method.",
		}, []string{"method"}),
		syncs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by result.",
		}, []string{"result"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}

	return r.reg
}

// ObserveStoreOp records one SaveDocument or LoadDocument call.
func (r *Recorder) ObserveStoreOp(backend, op, doc string, elapsed time.Duration, err error) {
	if r == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	r.storeOps.WithLabelValues(backend, op, doc, result).Inc()
	r.storeDuration.WithLabelValues(backend, op).Observe(elapsed.Seconds())
}

// ObserveRequest records one GitHub API response.
func (r *Recorder) ObserveRequest(method string, status int) {
	if r == nil {
		return
	}

	r.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// ObserveRetry records one GitHub API retry.
func (r *Recorder) ObserveRetry(method string) {
	if r == nil {
		return
	}

	r.retries.WithLabelValues(method).Inc()
}

// ObserveSync records the outcome of a sync run.
func (r *Recorder) ObserveSync(result string) {
	if r == nil {
		return
	}

	r.syncs.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("metrics: writing %s: %w", path, err)
	}

	return nil
}
