package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/motolog/internal/github/githubtest"
)

// testNow is Wednesday 2024-03-13, 10:00 UTC.
var testNow = time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)

// cliEnv runs commands against a temporary data dir, a temporary config
// file, and a fake GitHub repository.
type cliEnv struct {
	t          *testing.T
	dataDir    string
	configPath string
	gh         *githubtest.Server
	stdin      string
}

// newCLIEnv isolates the process environment and pins the clock. Tests
// using it must not run in parallel.
func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	for _, name := range []string{
		"MOTOLOG_CONFIG", "MOTOLOG_DATA_DIR", "MOTOLOG_LOG_LEVEL",
		"ANTHROPIC_API_KEY", envGitHubToken,
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	oldNow, oldTTY := timeNow, stdinIsTerminal
	timeNow = func() time.Time { return testNow }
	stdinIsTerminal = func() bool { return false }

	t.Cleanup(func() {
		timeNow, stdinIsTerminal = oldNow, oldTTY
	})

	dir := t.TempDir()
	env := &cliEnv{
		t:          t,
		dataDir:    filepath.Join(dir, "data"),
		configPath: filepath.Join(dir, "config.toml"),
		gh:         githubtest.NewServer(t, "alice", "moto"),
	}

	env.writeConfig("")

	return env
}

// writeConfig points the GitHub client at the fake and appends extra.
func (e *cliEnv) writeConfig(extra string) {
	e.t.Helper()

	content := "[github]\napi_url = \"" + e.gh.URL + "\"\n\n[network]\nmax_retries = 0\n\n" + extra
	require.NoError(e.t, os.WriteFile(e.configPath, []byte(content), 0o600))
}

// run executes one command and returns its stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir, "--quiet"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(e.stdin))

	executed, err := cmd.ExecuteContextC(context.Background())
	err = errors.Join(err, closeCLIContext(executed))

	return out.String(), err
}

// mustRun executes one command that is expected to succeed.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()

	out, err := e.run(args...)
	require.NoError(e.t, err, "motolog %s", strings.Join(args, " "))

	return out
}

// setupDemo switches the environment to demo mode.
func (e *cliEnv) setupDemo() {
	e.t.Helper()
	e.mustRun("setup", "--demo")
}

// setupRemote connects the environment to the fake repository.
func (e *cliEnv) setupRemote() {
	e.t.Helper()
	e.mustRun("setup", "--account", "alice", "--repo", "moto", "--token", "ghp_test")
}

// remoteFile returns a document stored in the fake repository.
func (e *cliEnv) remoteFile(path string) string {
	e.t.Helper()

	data, ok := e.gh.File(path)
	require.True(e.t, ok, "%s not in repository", path)

	return string(data)
}
