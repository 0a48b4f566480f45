package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tonimelisma/motolog/internal/store"
)

// SaveDocument persists value as document t. It first reads the current
// revision of the document's file, ignoring its content, then writes value
// tagged with that revision. A document that has never been created is
// written without a revision. A stored file that exists but is corrupt is
// overwritten using its revision.
func (s *ContentStore) SaveDocument(ctx context.Context, t store.DocType, value any) error {
	path, err := t.Path()
	if err != nil {
		return err
	}

	current, err := s.Read(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrDecode) || current.Revision == "" {
			return fmt.Errorf("github: saving %s: %w", t, err)
		}

		s.logger.Warn("overwriting unreadable document",
			slog.String("doc", string(t)),
			slog.String("error", err.Error()),
		)
	}

	if _, err := s.Write(ctx, path, value, current.Revision); err != nil {
		return fmt.Errorf("github: saving %s: %w", t, err)
	}

	return nil
}

// LoadDocument decodes document t into out. It reports false, with no error,
// when the document has never been created.
func (s *ContentStore) LoadDocument(ctx context.Context, t store.DocType, out any) (bool, error) {
	path, err := t.Path()
	if err != nil {
		return false, err
	}

	res, err := s.Read(ctx, path)
	if err != nil {
		return false, fmt.Errorf("github: loading %s: %w", t, err)
	}

	if res.Content == nil {
		return false, nil
	}

	if err := json.Unmarshal(res.Content, out); err != nil {
		return false, fmt.Errorf("github: loading %s: %w: %w", t, ErrDecode, err)
	}

	return true, nil
}

// RepoInfo summarizes the repository returned by TestConnection.
type RepoInfo struct {
	FullName      string
	DefaultBranch string
	Private       bool
	CanPush       bool
}

type repoResponse struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Permissions   *struct {
		Push bool `json:"push"`
	} `json:"permissions"`
}

// TestConnection checks that the repository exists and the token can reach
// it. Failures carry GitHub's own message (for example "Bad credentials" or
// "Not Found"). When GitHub reports the token's permissions and push is not
// among them, the check fails with ErrForbidden: every save would fail.
func (s *ContentStore) TestConnection(ctx context.Context) (RepoInfo, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, s.repoPath(), nil)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("github: cannot access repository %s/%s: %w", s.owner, s.repo, err)
	}
	defer resp.Body.Close()

	var rr repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return RepoInfo{}, fmt.Errorf("github: decoding repository %s/%s: %w", s.owner, s.repo, err)
	}

	info := RepoInfo{
		FullName:      rr.FullName,
		DefaultBranch: rr.DefaultBranch,
		Private:       rr.Private,
		CanPush:       rr.Permissions == nil || rr.Permissions.Push,
	}

	if !info.CanPush {
		return info, fmt.Errorf("github: token cannot write to %s: %w", rr.FullName, ErrForbidden)
	}

	s.logger.Info("repository reachable",
		slog.String("repo", rr.FullName),
		slog.String("default_branch", rr.DefaultBranch),
	)

	return info, nil
}
