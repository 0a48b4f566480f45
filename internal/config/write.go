package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// configFilePermissions is the standard permission mode for config files.
// Owner read/write, group and others read-only.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// ErrConfigExists is returned by WriteDefaultConfig when the file is already
// present.
var ErrConfigExists = errors.New("config file already exists")

// configTemplate is the config file written by "config init". Every setting
// is present as a commented-out default so users can discover each option
// without reading docs.
const configTemplate = `# motolog configuration
# Uncomment and modify to override defaults.

[github]
# api_url = "https://api.github.com"
# Branch to commit to (default: the repository's default branch)
# branch = ""
# Prefix of every commit message
# commit_prefix = "MotoTracker"

[storage]
# Directory of the device database (default: platform standard location)
# data_dir = ""

[logging]
# Log verbosity: debug, info, warn, error
# log_level = "info"
# Log file path (default: none, logs go to stderr)
# log_file = ""
# Log format: auto, text, json
# log_format = "auto"
# log_retention_days = 30

[network]
# timeout = "30s"
# max_retries = 5
# user_agent = ""

[advice]
# model = "claude-sonnet-4-5"
# max_tokens = 1024
# api_url = ""

[metrics]
# Prometheus textfile written after each run (default: disabled)
# textfile = ""
`

// WriteDefaultConfig creates path from the default template. An existing
// file is never overwritten. The write is atomic (temp file + rename) and
// parent directories are created as needed.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	slog.Info("creating config file", "path", path)

	return atomicWriteFile(path, []byte(configTemplate))
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path, so a crash never leaves a
// partial config behind. Files are created with configFilePermissions.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
