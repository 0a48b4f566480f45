// Package credential holds the connection settings for the remote
// repository: the account that owns it, the repository name, and the access
// token. The triple is persisted to local device storage and restored on the
// next run. A reserved token value switches the client into demo mode, where
// nothing leaves the device.
package credential

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// DemoToken is the reserved token value that selects demo mode.
const DemoToken = "__DEMO__" //nolint:gosec // G101: sentinel, not a credential

// storageKey is the local storage key holding the persisted triple.
const storageKey = "moto_gh_config"

// demoName fills the account and repository fields in demo mode so that
// IsConfigured reports true.
const demoName = "demo"

// KV is the local device storage the Store persists to. Defined here at the
// consumer; *localstore.DB is the production implementation.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Credentials is the connection triple. JSON field names match what earlier
// versions of the client stored so existing saved settings keep loading.
type Credentials struct {
	Account    string `json:"username"`
	Repository string `json:"repo"`
	Token      string `json:"token"`
}

// String redacts the token. Never log Token directly.
func (c Credentials) String() string {
	tok := "(none)"
	if c.Token != "" {
		tok = "(redacted)"
	}

	return fmt.Sprintf("%s/%s token=%s", c.Account, c.Repository, tok)
}

// complete reports whether all three fields are non-empty.
func (c Credentials) complete() bool {
	return c.Account != "" && c.Repository != "" && c.Token != ""
}

// Store is the process-wide connection configuration, constructed once at
// startup and handed to whoever needs it. It has no concurrent-writer
// protection: callers must not call SetConfig while a save or load that reads
// these credentials is in flight.
type Store struct {
	kv    KV
	creds Credentials
}

// NewStore returns an empty Store persisting to kv. Call LoadConfig to
// restore previously saved credentials.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// SetConfig replaces the credentials and persists them, overwriting whatever
// was stored before. The in-memory value is updated even if persisting fails
// so the current run can proceed; the error tells the caller the setting will
// not survive a restart.
func (s *Store) SetConfig(ctx context.Context, account, repository, token string) error {
	s.creds = Credentials{Account: account, Repository: repository, Token: token}

	data, err := json.Marshal(s.creds)
	if err != nil {
		return fmt.Errorf("credential: encoding: %w", err)
	}

	if err := s.kv.Set(ctx, storageKey, string(data)); err != nil {
		return fmt.Errorf("credential: saving: %w", err)
	}

	return nil
}

// SetDemo switches to demo mode and persists that choice.
func (s *Store) SetDemo(ctx context.Context) error {
	return s.SetConfig(ctx, demoName, demoName, DemoToken)
}

// LoadConfig restores previously persisted credentials. It reports true only
// when a complete triple was restored. A stored value that cannot be decoded
// leaves the in-memory credentials untouched and returns an error.
func (s *Store) LoadConfig(ctx context.Context) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return false, fmt.Errorf("credential: loading: %w", err)
	}

	if !ok {
		return false, nil
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return false, fmt.Errorf("credential: decoding stored settings: %w", err)
	}

	s.creds = creds

	return creds.complete(), nil
}

// Clear forgets the credentials both in memory and on the device.
func (s *Store) Clear(ctx context.Context) error {
	s.creds = Credentials{}

	if err := s.kv.Delete(ctx, storageKey); err != nil {
		return fmt.Errorf("credential: clearing: %w", err)
	}

	return nil
}

// IsConfigured reports whether account, repository, and token are all set.
func (s *Store) IsConfigured() bool {
	return s.creds.complete()
}

// IsDemoMode reports whether the token is the demo sentinel.
func (s *Store) IsDemoMode() bool {
	return s.creds.Token == DemoToken
}

// Credentials returns a copy of the current triple.
func (s *Store) Credentials() Credentials {
	return s.creds
}

// TokenSource returns a token source yielding the current access token as a
// bearer token. The token is captured at call time; a later SetConfig does
// not affect sources already handed out.
func (s *Store) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: s.creds.Token,
		TokenType:   "Bearer",
	})
}
