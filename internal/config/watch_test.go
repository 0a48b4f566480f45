package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loopHarness struct {
	events  chan fsnotify.Event
	errs    chan error
	changes chan *Config
	done    chan error
	cancel  context.CancelFunc
}

func startLoop(t *testing.T, h *Holder) *loopHarness {
	t.Helper()

	ctx, cancel := context.WithCancel(t.Context())
	lh := &loopHarness{
		events:  make(chan fsnotify.Event),
		errs:    make(chan error),
		changes: make(chan *Config, 4),
		done:    make(chan error, 1),
		cancel:  cancel,
	}

	go func() {
		lh.done <- watchLoop(ctx, lh.events, lh.errs, filepath.Clean(h.Path()), h, nil,
			func(c *Config) { lh.changes <- c })
	}()

	t.Cleanup(cancel)

	return lh
}

func TestWatchLoop_ReloadsOnWrite(t *testing.T) {
	path := writeTestConfig(t, "")
	h := NewHolder(DefaultConfig(), path)
	lh := startLoop(t, h)

	require.NoError(t, os.WriteFile(path, []byte("[advice]\nmodel = \"claude-haiku-4-5\"\n"), 0o600))
	lh.events <- fsnotify.Event{Name: path, Op: fsnotify.Write}

	select {
	case cfg := <-lh.changes:
		assert.Equal(t, "claude-haiku-4-5", cfg.Advice.Model)
		assert.Same(t, cfg, h.Config())
	case <-time.After(2 * time.Second):
		t.Fatal("onChange not called")
	}
}

func TestWatchLoop_IgnoresOtherFilesAndOps(t *testing.T) {
	path := writeTestConfig(t, "")
	original := DefaultConfig()
	h := NewHolder(original, path)
	lh := startLoop(t, h)

	lh.events <- fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.toml"), Op: fsnotify.Write}
	lh.events <- fsnotify.Event{Name: path, Op: fsnotify.Chmod}
	lh.errs <- errors.New("queue overflow")

	lh.cancel()
	require.NoError(t, <-lh.done)

	assert.Empty(t, lh.changes)
	assert.Same(t, original, h.Config())
}

func TestWatchLoop_BadFileKeepsPrevious(t *testing.T) {
	path := writeTestConfig(t, "")
	original := DefaultConfig()
	h := NewHolder(original, path)
	lh := startLoop(t, h)

	require.NoError(t, os.WriteFile(path, []byte("[advice\n"), 0o600))
	lh.events <- fsnotify.Event{Name: path, Op: fsnotify.Create}

	lh.cancel()
	require.NoError(t, <-lh.done)

	assert.Empty(t, lh.changes)
	assert.Same(t, original, h.Config())
}

func TestWatchLoop_ClosedChannelsStop(t *testing.T) {
	h := NewHolder(DefaultConfig(), writeTestConfig(t, ""))
	events := make(chan fsnotify.Event)
	close(events)

	err := watchLoop(t.Context(), events, make(chan error), h.Path(), h, nil, nil)
	assert.NoError(t, err)
}

func TestWatch_RealFilesystem(t *testing.T) {
	path := writeTestConfig(t, "")
	h := NewHolder(DefaultConfig(), path)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	changed := make(chan *Config, 8)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, h, nil, func(c *Config) { changed <- c })
	}()

	// Keep rewriting until the watcher is registered and reports the change.
	require.Eventually(t, func() bool {
		if err := atomicWriteFile(path, []byte("[advice]\nmax_tokens = 4096\n")); err != nil {
			return false
		}

		select {
		case cfg := <-changed:
			return cfg.Advice.MaxTokens == 4096
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 4096, h.Config().Advice.MaxTokens)
}

func TestWatch_MissingDirectory(t *testing.T) {
	h := NewHolder(DefaultConfig(), filepath.Join(t.TempDir(), "gone", "config.toml"))

	err := Watch(t.Context(), h, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watching")
}
