// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for motolog. Values resolve through four
// layers: defaults -> config file -> environment -> CLI flags.
//
// Credentials are not configuration. The GitHub account, repository, and
// token live in the device store (internal/credential); only the Anthropic
// API key is read from the environment.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	GitHub  GitHubConfig  `toml:"github" json:"github"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Network NetworkConfig `toml:"network" json:"network"`
	Advice  AdviceConfig  `toml:"advice" json:"advice"`
	Metrics MetricsConfig `toml:"metrics" json:"metrics"`
}

// GitHubConfig controls where documents are committed.
type GitHubConfig struct {
	APIURL       string `toml:"api_url" json:"api_url"`
	Branch       string `toml:"branch" json:"branch"` // empty = repository default branch
	CommitPrefix string `toml:"commit_prefix" json:"commit_prefix"`
}

// StorageConfig locates the device database (credentials and demo data).
type StorageConfig struct {
	DataDir string `toml:"data_dir" json:"data_dir"` // empty = platform data directory
}

// LoggingConfig controls log output behavior: level, format, and rotation.
type LoggingConfig struct {
	LogLevel         string `toml:"log_level" json:"log_level"`
	LogFile          string `toml:"log_file" json:"log_file"`
	LogFormat        string `toml:"log_format" json:"log_format"`
	LogRetentionDays int    `toml:"log_retention_days" json:"log_retention_days"`
}

// NetworkConfig controls the GitHub HTTP client.
type NetworkConfig struct {
	Timeout    string `toml:"timeout" json:"timeout"`
	UserAgent  string `toml:"user_agent" json:"user_agent"`
	MaxRetries int    `toml:"max_retries" json:"max_retries"`
}

// TimeoutDuration parses Timeout. Validate has already rejected bad values,
// so a parse failure here falls back to the default.
func (n NetworkConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(n.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultTimeout)
	}

	return d
}

// AdviceConfig controls the coaching chat.
type AdviceConfig struct {
	Model     string `toml:"model" json:"model"`
	MaxTokens int    `toml:"max_tokens" json:"max_tokens"`
	APIURL    string `toml:"api_url" json:"api_url"` // empty = SDK default
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `toml:"textfile" json:"textfile"` // empty = disabled
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to the zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	DataDir    *string // --data-dir flag
	LogLevel   *string // derived from --verbose / --quiet
}

// Resolved is the effective configuration after all layers are applied.
type Resolved struct {
	Config

	// Path is the config file consulted, whether or not it exists.
	Path string `json:"path"`

	// AdviceAPIKey comes from the environment only. Never printed.
	AdviceAPIKey string `json:"-"`
}

// DBPath returns the device database file under the resolved data dir.
func (r *Resolved) DBPath() string {
	return DBPath(r.Storage.DataDir)
}
