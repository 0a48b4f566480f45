package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreOp(t *testing.T) {
	r := New()

	r.ObserveStoreOp("github", "save", "profile", 120*time.Millisecond, nil)
	r.ObserveStoreOp("github", "save", "profile", 80*time.Millisecond, errors.New("boom"))
	r.ObserveStoreOp("local", "load", "sessions", time.Millisecond, nil)

	assert.InDelta(t, 1, testutil.ToFloat64(r.storeOps.WithLabelValues("github", "save", "profile", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.storeOps.WithLabelValues("github", "save", "profile", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.storeOps.WithLabelValues("local", "load", "sessions", "ok")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(r.storeDuration))
}

func TestObserveRequestAndRetry(t *testing.T) {
	r := New()

	r.ObserveRequest("GET", 200)
	r.ObserveRequest("GET", 200)
	r.ObserveRequest("PUT", 0)
	r.ObserveRetry("PUT")

	assert.InDelta(t, 2, testutil.ToFloat64(r.requests.WithLabelValues("GET", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.requests.WithLabelValues("PUT", "0")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.retries.WithLabelValues("PUT")), 0)
}

func TestObserveSync(t *testing.T) {
	r := New()

	r.ObserveSync(SyncOK)
	r.ObserveSync(SyncSkipped)
	r.ObserveSync(SyncSkipped)

	assert.InDelta(t, 1, testutil.ToFloat64(r.syncs.WithLabelValues(SyncOK)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.syncs.WithLabelValues(SyncSkipped)), 0)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveStoreOp("local", "save", "profile", time.Second, nil)
		r.ObserveRequest("GET", 200)
		r.ObserveRetry("GET")
		r.ObserveSync(SyncOK)
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveSync(SyncOK)

	path := filepath.Join(t.TempDir(), "motolog.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `motolog_sync_runs_total{result="ok"} 1`)
}

func TestWriteTextfile_EmptyPathIsNoop(t *testing.T) {
	assert.NoError(t, New().WriteTextfile(""))
}

func TestWriteTextfile_BadDir(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "motolog.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics: writing")
}
