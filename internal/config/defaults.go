package config

// Default values for configuration options. These are layer 0 of the
// override chain.
const (
	defaultGitHubAPIURL     = "https://api.github.com"
	defaultCommitPrefix     = "MotoTracker"
	defaultLogLevel         = "info"
	defaultLogFormat        = "auto"
	defaultLogRetentionDays = 30
	defaultTimeout          = "30s"
	defaultMaxRetries       = 5
	defaultAdviceModel      = "claude-sonnet-4-5"
	defaultAdviceMaxTokens  = 1024
)

// DefaultConfig returns a Config populated with all default values. It is
// the starting point for TOML decoding, so unset fields keep their defaults.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:       defaultGitHubAPIURL,
			CommitPrefix: defaultCommitPrefix,
		},
		Logging: LoggingConfig{
			LogLevel:         defaultLogLevel,
			LogFormat:        defaultLogFormat,
			LogRetentionDays: defaultLogRetentionDays,
		},
		Network: NetworkConfig{
			Timeout:    defaultTimeout,
			MaxRetries: defaultMaxRetries,
		},
		Advice: AdviceConfig{
			Model:     defaultAdviceModel,
			MaxTokens: defaultAdviceMaxTokens,
		},
	}
}
