// Package testutil provides shared test environment helpers for E2E tests,
// which drive the built binary and cannot import internal/.
package testutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// AllowlistEnv names the comma-separated list of repositories E2E tests may
// write to.
const AllowlistEnv = "MOTOLOG_ALLOWED_TEST_REPOS"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "WARNING: reading %s: %v\n", envPath, err)
	}
}

// ValidateAllowlist crashes the process if MOTOLOG_ALLOWED_TEST_REPOS is not
// set or if the repository named by repoEnvVar is not in it. Tests commit to
// that repository, so a typo must never reach a real one.
func ValidateAllowlist(repoEnvVar string) {
	allowlist := os.Getenv(AllowlistEnv)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", AllowlistEnv)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		fmt.Fprintf(os.Stderr, "Example: %s=rider/motolog-e2e\n", AllowlistEnv)
		os.Exit(1)
	}

	repo := os.Getenv(repoEnvVar)
	if repo == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", repoEnvVar)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == repo {
			return
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", repoEnvVar, repo, AllowlistEnv, allowlist)
	os.Exit(1)
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}
