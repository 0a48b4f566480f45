package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads h whenever its config file is written, created, or renamed
// into place, then calls onChange with the new config. It watches the parent
// directory because editors and atomicWriteFile replace the file rather than
// writing it in place. A file that fails to load is logged and the previous
// config is kept. Watch blocks until ctx is canceled.
func Watch(ctx context.Context, h *Holder, logger *slog.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(h.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	return watchLoop(ctx, watcher.Events, watcher.Errors, target, h, logger, onChange)
}

func watchLoop(
	ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	target string, h *Holder, logger *slog.Logger, onChange func(*Config),
) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target {
				continue
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			cfg, err := h.Reload()
			if err != nil {
				logger.Warn("config reload failed, keeping previous settings",
					slog.String("path", target),
					slog.String("error", err.Error()),
				)

				continue
			}

			logger.Info("config reloaded", slog.String("path", target))

			if onChange != nil {
				onChange(cfg)
			}

		case watchErr, ok := <-errs:
			if !ok {
				return nil
			}

			logger.Warn("config watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
