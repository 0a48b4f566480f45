package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names for overrides.
const (
	EnvConfig    = "MOTOLOG_CONFIG"
	EnvDataDir   = "MOTOLOG_DATA_DIR"
	EnvLogLevel  = "MOTOLOG_LOG_LEVEL"
	EnvAdviceKey = "ANTHROPIC_API_KEY"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // MOTOLOG_CONFIG: override config file path
	DataDir    string // MOTOLOG_DATA_DIR: device database directory
	LogLevel   string // MOTOLOG_LOG_LEVEL
	AdviceKey  string // ANTHROPIC_API_KEY
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		DataDir:    os.Getenv(EnvDataDir),
		LogLevel:   os.Getenv(EnvLogLevel),
		AdviceKey:  os.Getenv(EnvAdviceKey),
	}
}

// LoadDotEnv loads KEY=value pairs from each existing file into the process
// environment. Variables that are already set win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}

		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("loading %s: %w", p, err)
		}
	}

	return nil
}
