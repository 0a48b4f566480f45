package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validation range constants.
const (
	minLogRetention = 1
	minTimeout      = 1 * time.Second
	maxTimeout      = 10 * time.Minute
	maxRetries      = 10
	minAdviceTokens = 64
	maxAdviceTokens = 8192
	maxCommitPrefix = 72
	httpsScheme     = "https"
	httpScheme      = "http"
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateGitHub(&cfg.GitHub)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateAdvice(&cfg.Advice)...)

	return errors.Join(errs...)
}

func validateGitHub(g *GitHubConfig) []error {
	var errs []error

	if err := validateURL("github.api_url", g.APIURL, true); err != nil {
		errs = append(errs, err)
	}

	if strings.TrimSpace(g.CommitPrefix) == "" {
		errs = append(errs, errors.New("github.commit_prefix: must not be empty"))
	} else if len(g.CommitPrefix) > maxCommitPrefix {
		errs = append(errs, fmt.Errorf("github.commit_prefix: must be at most %d characters, got %d",
			maxCommitPrefix, len(g.CommitPrefix)))
	}

	if strings.ContainsAny(g.Branch, " ~^:?*[\\") {
		errs = append(errs, fmt.Errorf("github.branch: %q is not a valid branch name", g.Branch))
	}

	return errs
}

// validateURL requires an absolute http(s) URL. Plain http is accepted so
// tests and local proxies work.
func validateURL(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s: must not be empty", field)
		}

		return nil
	}

	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: invalid URL %q: %w", field, value, err)
	}

	if (u.Scheme != httpsScheme && u.Scheme != httpScheme) || u.Host == "" {
		return fmt.Errorf("%s: must be an absolute http(s) URL, got %q", field, value)
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	if l.LogRetentionDays < minLogRetention {
		errs = append(errs, fmt.Errorf("logging.log_retention_days: must be >= %d, got %d",
			minLogRetention, l.LogRetentionDays))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("logging.log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	d, err := time.ParseDuration(n.Timeout)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("network.timeout: invalid duration %q: %w", n.Timeout, err))
	case d < minTimeout || d > maxTimeout:
		errs = append(errs, fmt.Errorf("network.timeout: must be between %s and %s, got %s",
			minTimeout, maxTimeout, d))
	}

	if n.MaxRetries < 0 || n.MaxRetries > maxRetries {
		errs = append(errs, fmt.Errorf("network.max_retries: must be between 0 and %d, got %d",
			maxRetries, n.MaxRetries))
	}

	return errs
}

func validateAdvice(a *AdviceConfig) []error {
	var errs []error

	if strings.TrimSpace(a.Model) == "" {
		errs = append(errs, errors.New("advice.model: must not be empty"))
	}

	if a.MaxTokens < minAdviceTokens || a.MaxTokens > maxAdviceTokens {
		errs = append(errs, fmt.Errorf("advice.max_tokens: must be between %d and %d, got %d",
			minAdviceTokens, maxAdviceTokens, a.MaxTokens))
	}

	if err := validateURL("advice.api_url", a.APIURL, false); err != nil {
		errs = append(errs, err)
	}

	return errs
}
