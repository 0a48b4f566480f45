// Package sync routes document persistence to the store selected by the
// current credentials and pushes the whole in-memory log to it on demand.
//
// The Orchestrator chooses its backend once, at construction: the local
// device store in demo mode, the GitHub repository otherwise. Nothing in this
// package merges or resolves conflicts; a save either lands on the revision
// it read or fails.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

// Mode is the persistence backend an Orchestrator routes to.
type Mode int

const (
	ModeRemote Mode = iota
	ModeDemo
)

func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "github"
	case ModeDemo:
		return "demo"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Reasons reported by a skipped SyncAll.
const (
	ReasonDemo     = "demo mode: data is saved on this device"
	ReasonInFlight = "a sync is already in progress"
)

// Metrics receives operation outcomes. *metrics.Recorder implements it.
type Metrics interface {
	ObserveStoreOp(backend, op, doc string, elapsed time.Duration, err error)
	ObserveSync(result string)
}

// OrchestratorConfig holds the inputs for creating an Orchestrator. The CLI
// sets Demo from the credential store and supplies both backends; only the
// selected one needs to be non-nil.
type OrchestratorConfig struct {
	Demo    bool
	Remote  store.DocumentStore
	Local   store.DocumentStore
	Logger  *slog.Logger
	Metrics Metrics
}

// Orchestrator is the single entry point the client uses for persistence.
type Orchestrator struct {
	mode    Mode
	docs    store.DocumentStore
	logger  *slog.Logger
	metrics Metrics
	syncing atomic.Bool
	nowFunc func() time.Time
}

// NewOrchestrator selects the backend for cfg.Demo.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	o := &Orchestrator{
		mode:    ModeRemote,
		docs:    cfg.Remote,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		nowFunc: time.Now,
	}

	if cfg.Demo {
		o.mode = ModeDemo
		o.docs = cfg.Local
	}

	if o.docs == nil {
		return nil, fmt.Errorf("sync: no %s document store configured", o.mode)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return o, nil
}

// Mode reports the selected backend.
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// SaveDocument persists value as document t on the selected backend.
func (o *Orchestrator) SaveDocument(ctx context.Context, t store.DocType, value any) error {
	start := o.nowFunc()
	err := o.docs.SaveDocument(ctx, t, value)
	o.observe("save", t, start, err)

	if err != nil {
		return err
	}

	o.logger.Debug("document saved", slog.String("doc", string(t)), slog.String("mode", o.mode.String()))

	return nil
}

// LoadDocument decodes document t from the selected backend into out.
func (o *Orchestrator) LoadDocument(ctx context.Context, t store.DocType, out any) (bool, error) {
	start := o.nowFunc()
	found, err := o.docs.LoadDocument(ctx, t, out)
	o.observe("load", t, start, err)

	return found, err
}

// LoadAll fetches the three documents in parallel. Documents that were
// never saved take their defaults, and the suspension document is repaired
// so that its preset invariants hold. Any load failure fails the whole call,
// so a caller never mistakes unreadable data for an empty log and saves
// defaults over it.
func (o *Orchestrator) LoadAll(ctx context.Context) (*ridelog.Snapshot, error) {
	snap := ridelog.NewSnapshot()

	var (
		profile    ridelog.Profile
		sessions   []ridelog.Session
		suspension ridelog.Suspension
		found      [3]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		found[0], err = o.loadGuarded(gctx, store.DocProfile, &profile)
		return err
	})
	g.Go(func() (err error) {
		found[1], err = o.loadGuarded(gctx, store.DocSessions, &sessions)
		return err
	})
	g.Go(func() (err error) {
		found[2], err = o.loadGuarded(gctx, store.DocSuspension, &suspension)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if found[0] {
		snap.Profile = profile
		if snap.Profile.Injuries == nil {
			snap.Profile.Injuries = []ridelog.Injury{}
		}
	}

	if found[1] && sessions != nil {
		snap.Sessions = sessions
	}

	if found[2] {
		snap.Suspension = suspension
		if snap.Suspension.Normalize() {
			o.logger.Warn("repaired suspension presets",
				slog.String("active", snap.Suspension.ActivePreset),
			)
		}
	}

	o.logger.Debug("documents loaded",
		slog.String("mode", o.mode.String()),
		slog.Bool("profile", found[0]),
		slog.Bool("sessions", found[1]),
		slog.Bool("suspension", found[2]),
	)

	return snap, nil
}

// SyncAll saves all three documents of snap in parallel. In demo mode it
// succeeds at once: every change is already on the device. A call made while
// another SyncAll is running returns a skipped report immediately, without
// touching the store. A failed save does not stop or undo the others; the
// first failure is returned and every outcome is in the report.
func (o *Orchestrator) SyncAll(ctx context.Context, snap *ridelog.Snapshot) (*SyncReport, error) {
	if o.mode == ModeDemo {
		o.observeSync(resultSkipped)
		return &SyncReport{Mode: o.mode, Skipped: true, Reason: ReasonDemo}, nil
	}

	if !o.syncing.CompareAndSwap(false, true) {
		o.logger.Info("sync skipped", slog.String("reason", ReasonInFlight))
		o.observeSync(resultSkipped)

		return &SyncReport{Mode: o.mode, Skipped: true, Reason: ReasonInFlight}, nil
	}
	defer o.syncing.Store(false)

	start := o.nowFunc()
	types := store.Types()
	report := &SyncReport{Mode: o.mode, Docs: make([]DocReport, len(types))}

	// A plain Group: one failed save must not cancel its siblings.
	var g errgroup.Group

	for i, t := range types {
		report.Docs[i].Doc = t

		g.Go(func() error {
			err := o.saveGuarded(ctx, t, snapshotDocument(snap, t))
			report.Docs[i].Err = err

			if err != nil {
				return fmt.Errorf("sync: %s: %w", t, err)
			}

			return nil
		})
	}

	err := g.Wait()
	report.Duration = o.nowFunc().Sub(start)

	if err != nil {
		o.logger.Warn("sync failed",
			slog.Int("failed", len(report.Failed())),
			slog.String("error", err.Error()),
		)
		o.observeSync(resultFailed)

		return report, err
	}

	o.logger.Info("sync complete", slog.Duration("duration", report.Duration))
	o.observeSync(resultOK)

	return report, nil
}

// snapshotDocument returns the value persisted as document t.
func snapshotDocument(snap *ridelog.Snapshot, t store.DocType) any {
	switch t {
	case store.DocProfile:
		return snap.Profile
	case store.DocSessions:
		return snap.Sessions
	case store.DocSuspension:
		return snap.Suspension
	default:
		return nil
	}
}

// errPanic marks a store call that panicked.
var errPanic = errors.New("sync: store panicked")

func (o *Orchestrator) saveGuarded(ctx context.Context, t store.DocType, value any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w saving %s: %v", errPanic, t, r)
		}
	}()

	return o.SaveDocument(ctx, t, value)
}

func (o *Orchestrator) loadGuarded(ctx context.Context, t store.DocType, out any) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found = false
			err = fmt.Errorf("%w loading %s: %v", errPanic, t, r)
		}
	}()

	return o.LoadDocument(ctx, t, out)
}

func (o *Orchestrator) observe(op string, t store.DocType, start time.Time, err error) {
	if o.metrics == nil {
		return
	}

	o.metrics.ObserveStoreOp(o.mode.String(), op, string(t), o.nowFunc().Sub(start), err)
}

func (o *Orchestrator) observeSync(result string) {
	if o.metrics != nil {
		o.metrics.ObserveSync(result)
	}
}
