package sync

import (
	"time"

	"github.com/tonimelisma/motolog/internal/store"
)

// Sync outcomes passed to Metrics.ObserveSync.
const (
	resultOK      = "ok"
	resultFailed  = "error"
	resultSkipped = "skipped"
)

// DocReport is the outcome of saving one document during SyncAll.
type DocReport struct {
	Doc store.DocType
	Err error
}

// SyncReport summarizes a SyncAll call. Docs is empty when Skipped is set.
type SyncReport struct {
	Mode     Mode
	Skipped  bool
	Reason   string
	Docs     []DocReport
	Duration time.Duration
}

// Failed returns the documents whose save failed.
func (r *SyncReport) Failed() []DocReport {
	var failed []DocReport

	for _, d := range r.Docs {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}

	return failed
}

// Saved returns the documents that were persisted.
func (r *SyncReport) Saved() []store.DocType {
	var saved []store.DocType

	for _, d := range r.Docs {
		if d.Err == nil {
			saved = append(saved, d.Doc)
		}
	}

	return saved
}
