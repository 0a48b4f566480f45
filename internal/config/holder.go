package config

import "sync"

// Holder provides thread-safe access to a mutable *Config and an immutable
// config file path. The chat loop reads model settings through a Holder so
// a file edit picked up by Watch takes effect on the next message.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string // immutable after construction
}

// NewHolder creates a Holder with the initial config and config file path.
func NewHolder(cfg *Config, path string) *Holder {
	return &Holder{
		cfg:  cfg,
		path: path,
	}
}

// Config returns the current config snapshot. Thread-safe (read lock).
func (h *Holder) Config() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.cfg
}

// Path returns the config file path. Lock-free: the path never changes.
func (h *Holder) Path() string {
	return h.path
}

// Update replaces the config. Thread-safe (write lock).
func (h *Holder) Update(cfg *Config) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cfg = cfg
}

// Reload re-reads the config file and swaps it in. On error the current
// config stays in place.
func (h *Holder) Reload() (*Config, error) {
	cfg, err := LoadOrDefault(h.path)
	if err != nil {
		return nil, err
	}

	h.Update(cfg)

	return cfg, nil
}
