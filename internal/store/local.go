package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// localKeyPrefix namespaces demo documents in local storage.
const localKeyPrefix = "moto_demo_"

// KV is the local device storage LocalStore writes to.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// LocalStore keeps documents in local device storage only. It never touches
// the network, so it cannot fail for network or authorization reasons.
type LocalStore struct {
	kv     KV
	logger *slog.Logger
}

// NewLocalStore returns a LocalStore backed by kv.
func NewLocalStore(kv KV, logger *slog.Logger) *LocalStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalStore{kv: kv, logger: logger}
}

// LocalKey returns the storage key for t.
func LocalKey(t DocType) string {
	return localKeyPrefix + string(t)
}

// SaveDocument serializes value and stores it under the document's key.
func (s *LocalStore) SaveDocument(ctx context.Context, t DocType, value any) error {
	if _, err := t.Path(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", t, err)
	}

	if err := s.kv.Set(ctx, LocalKey(t), string(data)); err != nil {
		return fmt.Errorf("store: saving %s locally: %w", t, err)
	}

	s.logger.Debug("document saved locally", slog.String("doc", string(t)))

	return nil
}

// LoadDocument decodes the stored document into out. It reports false when
// the document was never saved.
func (s *LocalStore) LoadDocument(ctx context.Context, t DocType, out any) (bool, error) {
	if _, err := t.Path(); err != nil {
		return false, err
	}

	raw, ok, err := s.kv.Get(ctx, LocalKey(t))
	if err != nil {
		return false, fmt.Errorf("store: loading %s locally: %w", t, err)
	}

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("store: decoding local %s: %w: %w", t, ErrCorrupt, err)
	}

	return true, nil
}
