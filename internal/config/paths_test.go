package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHome = "/home/testuser"

func TestDefaultConfigDir_NonEmpty(t *testing.T) {
	dir := DefaultConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultDataDir_NonEmpty(t *testing.T) {
	dir := DefaultDataDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultConfigPath_EndsWithConfigToml(t *testing.T) {
	path := DefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.True(t, strings.HasSuffix(path, "config.toml"))
}

func TestDefaultConfigDir_MacOS(t *testing.T) {
	if runtime.GOOS != platformDarwin {
		t.Skip("macOS-only test")
	}

	assert.Contains(t, DefaultConfigDir(), "Library/Application Support")
	assert.Equal(t, DefaultConfigDir(), DefaultDataDir())
}

func TestXDGDir_Override(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	assert.Equal(t, filepath.Join("/custom/config", appName), xdgDir("XDG_CONFIG_HOME", testHome, ".config"))
}

func TestXDGDir_DefaultFallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	os.Unsetenv("XDG_DATA_HOME")

	assert.Equal(t, filepath.Join(testHome, ".local", "share", appName),
		xdgDir("XDG_DATA_HOME", testHome, ".local", "share"))
}

func TestDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "motolog.db"), DBPath("/data"))
}

func TestDotEnvPaths(t *testing.T) {
	paths := DotEnvPaths()
	assert.Equal(t, ".env", paths[0])

	if dir := DefaultConfigDir(); dir != "" {
		assert.Equal(t, filepath.Join(dir, ".env"), paths[1])
	}
}

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", testHome)

	assert.Equal(t, testHome, expandTilde("~"))
	assert.Equal(t, filepath.Join(testHome, "moto"), expandTilde("~/moto"))
	assert.Equal(t, "/abs/path", expandTilde("/abs/path"))
	assert.Equal(t, "~other/path", expandTilde("~other/path"))
	assert.Equal(t, "", expandTilde(""))
}
