package main

import (
	"context"
	"fmt"

	"github.com/tonimelisma/motolog/internal/github"
	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
	"github.com/tonimelisma/motolog/internal/sync"
)

// loadLog opens the configured backend and loads every document.
func (cc *CLIContext) loadLog(ctx context.Context) (*sync.Orchestrator, *ridelog.Snapshot, error) {
	o, err := cc.orchestrator()
	if err != nil {
		return nil, nil, err
	}

	snap, err := o.LoadAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading log: %w%s", err, storeErrorHint(err))
	}

	return o, snap, nil
}

// saveDoc persists one mutated document.
func (cc *CLIContext) saveDoc(ctx context.Context, o *sync.Orchestrator, t store.DocType, value any) error {
	if err := o.SaveDocument(ctx, t, value); err != nil {
		return fmt.Errorf("saving %s: %w%s", t, err, storeErrorHint(err))
	}

	cc.Logger.Debug("saved", "doc", string(t), "mode", o.Mode().String())

	return nil
}

// storeErrorHint suggests what to do about a persistence failure.
func storeErrorHint(err error) string {
	switch {
	case github.IsStale(err):
		return " (the file changed on GitHub since it was read; run the command again)"
	case github.IsAuth(err):
		return " (check the token and repository with 'motolog setup')"
	case github.IsDecode(err):
		return " (the stored file is not valid; fix or delete it in the repository)"
	case github.IsTransport(err):
		return " (check the network connection)"
	default:
		return ""
	}
}
