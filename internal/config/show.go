package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as an annotated TOML
// summary to w. This powers the "config show" command, giving users
// visibility into the effective values after all four override layers
// (defaults -> file -> env -> CLI) have been applied.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (file: %s)\n\n", r.Path)

	renderGitHubSection(ew, &r.GitHub)
	renderStorageSection(ew, r)
	renderLoggingSection(ew, &r.Logging)
	renderNetworkSection(ew, &r.Network)
	renderAdviceSection(ew, r)
	renderMetricsSection(ew, &r.Metrics)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderGitHubSection(ew *errWriter, g *GitHubConfig) {
	ew.printf("[github]\n")
	ew.printf("  api_url       = %q\n", g.APIURL)

	if g.Branch != "" {
		ew.printf("  branch        = %q\n", g.Branch)
	}

	ew.printf("  commit_prefix = %q\n", g.CommitPrefix)
	ew.printf("\n")
}

func renderStorageSection(ew *errWriter, r *Resolved) {
	ew.printf("[storage]\n")
	ew.printf("  data_dir = %q\n", r.Storage.DataDir)
	ew.printf("  # database: %s\n", r.DBPath())
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("[logging]\n")
	ew.printf("  log_level          = %q\n", l.LogLevel)

	if l.LogFile != "" {
		ew.printf("  log_file           = %q\n", l.LogFile)
	}

	ew.printf("  log_format         = %q\n", l.LogFormat)
	ew.printf("  log_retention_days = %d\n", l.LogRetentionDays)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("[network]\n")
	ew.printf("  timeout     = %q\n", n.Timeout)
	ew.printf("  max_retries = %d\n", n.MaxRetries)

	if n.UserAgent != "" {
		ew.printf("  user_agent  = %q\n", n.UserAgent)
	}

	ew.printf("\n")
}

func renderAdviceSection(ew *errWriter, r *Resolved) {
	ew.printf("[advice]\n")
	ew.printf("  model      = %q\n", r.Advice.Model)
	ew.printf("  max_tokens = %d\n", r.Advice.MaxTokens)

	if r.Advice.APIURL != "" {
		ew.printf("  api_url    = %q\n", r.Advice.APIURL)
	}

	if r.AdviceAPIKey != "" {
		ew.printf("  # %s is set\n", EnvAdviceKey)
	} else {
		ew.printf("  # %s is not set; advise is unavailable\n", EnvAdviceKey)
	}

	ew.printf("\n")
}

func renderMetricsSection(ew *errWriter, m *MetricsConfig) {
	ew.printf("[metrics]\n")

	if m.Textfile != "" {
		ew.printf("  textfile = %q\n", m.Textfile)
	} else {
		ew.printf("  # textfile export disabled\n")
	}
}
