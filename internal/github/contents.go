package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	pathpkg "path"
	"strings"
	gosync "sync"
	"time"
	"unicode/utf8"
)

// DefaultCommitPrefix starts every commit message written by the store.
const DefaultCommitPrefix = "MotoTracker"

// commitDateLayout formats the date tag in commit messages.
const commitDateLayout = "2006-01-02"

// utf8BOM is stripped from decoded content; some editors add it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ContentStoreConfig holds the inputs for creating a ContentStore.
type ContentStoreConfig struct {
	Owner        string // account owning the repository
	Repo         string
	Branch       string // empty = repository default branch
	CommitPrefix string // empty = DefaultCommitPrefix
	Logger       *slog.Logger
}

// ContentStore reads and writes JSON files in one repository. It remembers
// the last revision (blob SHA) it observed per path.
type ContentStore struct {
	client       *Client
	owner        string
	repo         string
	branch       string
	commitPrefix string
	logger       *slog.Logger
	nowFunc      func() time.Time // injectable for deterministic tests

	mu        gosync.Mutex
	revisions map[string]string
}

// NewContentStore returns a ContentStore issuing requests through client.
func NewContentStore(client *Client, cfg ContentStoreConfig) *ContentStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prefix := cfg.CommitPrefix
	if prefix == "" {
		prefix = DefaultCommitPrefix
	}

	return &ContentStore{
		client:       client,
		owner:        cfg.Owner,
		repo:         cfg.Repo,
		branch:       cfg.Branch,
		commitPrefix: prefix,
		logger:       logger,
		nowFunc:      time.Now,
		revisions:    make(map[string]string),
	}
}

// ReadResult is the outcome of Read. Content is nil when the file does not
// exist; Revision is then empty as well.
type ReadResult struct {
	Content  json.RawMessage
	Revision string
}

// Exists reports whether the file was found.
func (r ReadResult) Exists() bool {
	return r.Revision != ""
}

// WriteResult confirms a successful Write.
type WriteResult struct {
	Revision  string // blob SHA of the newly stored file
	CommitSHA string
}

// contentResponse mirrors the contents API file object.
type contentResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Read fetches the file at path. A missing file is not an error: it yields an
// empty ReadResult. Content that exists but cannot be decoded yields
// ErrDecode together with a ReadResult carrying the revision, so a caller can
// still overwrite the broken file.
func (s *ContentStore) Read(ctx context.Context, path string) (ReadResult, error) {
	resp, err := s.client.Do(ctx, http.MethodGet, s.contentsPath(path, true), nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("document absent", slog.String("path", path))
			s.forget(path)

			return ReadResult{}, nil
		}

		return ReadResult{}, fmt.Errorf("github: reading %s: %w", path, err)
	}
	defer resp.Body.Close()

	var cr contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return ReadResult{}, fmt.Errorf("github: reading %s: %w: %w", path, ErrDecode, err)
	}

	s.remember(path, cr.SHA)

	if cr.Type != "" && cr.Type != "file" {
		return ReadResult{Revision: cr.SHA}, fmt.Errorf("github: reading %s: %w: path is a %s", path, ErrDecode, cr.Type)
	}

	if cr.Encoding != "" && cr.Encoding != "base64" {
		return ReadResult{Revision: cr.SHA}, fmt.Errorf("github: reading %s: %w: unsupported encoding %q", path, ErrDecode, cr.Encoding)
	}

	raw, err := decodeContent(cr.Content)
	if err != nil {
		return ReadResult{Revision: cr.SHA}, fmt.Errorf("github: reading %s: %w", path, err)
	}

	s.logger.Debug("document read",
		slog.String("path", path),
		slog.String("revision", cr.SHA),
		slog.Int("bytes", len(raw)),
	)

	return ReadResult{Content: raw, Revision: cr.SHA}, nil
}

// Write stores content at path as pretty-printed JSON. An empty revision
// creates the file; a non-empty revision updates it, and GitHub rejects the
// update with ErrStaleRevision if the stored file's SHA differs.
func (s *ContentStore) Write(ctx context.Context, path string, content any, revision string) (WriteResult, error) {
	payload, err := encodeContent(content)
	if err != nil {
		return WriteResult{}, fmt.Errorf("github: writing %s: %w", path, err)
	}

	body, err := json.Marshal(putRequest{
		Message: s.commitMessage(path),
		Content: payload,
		SHA:     revision,
		Branch:  s.branch,
	})
	if err != nil {
		return WriteResult{}, fmt.Errorf("github: writing %s: encoding request: %w", path, err)
	}

	resp, err := s.client.Do(ctx, http.MethodPut, s.contentsPath(path, false), body)
	if err != nil {
		if isStaleWrite(err) {
			return WriteResult{}, fmt.Errorf("github: writing %s: %w: %w", path, ErrStaleRevision, err)
		}

		return WriteResult{}, fmt.Errorf("github: writing %s: %w", path, err)
	}
	defer resp.Body.Close()

	var pr putResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		// The write landed; only the confirmation is unreadable.
		s.logger.Warn("write confirmation unreadable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		s.forget(path)

		return WriteResult{}, nil
	}

	s.remember(path, pr.Content.SHA)

	s.logger.Info("document written",
		slog.String("path", path),
		slog.Bool("created", revision == ""),
		slog.String("revision", pr.Content.SHA),
	)

	return WriteResult{Revision: pr.Content.SHA, CommitSHA: pr.Commit.SHA}, nil
}

// LastRevision returns the most recent revision this store observed for
// path, from either a read or a write.
func (s *ContentStore) LastRevision(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.revisions[path]

	return rev, ok
}

func (s *ContentStore) remember(path, revision string) {
	if revision == "" {
		s.forget(path)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.revisions[path] = revision
}

func (s *ContentStore) forget(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.revisions, path)
}

// commitMessage names the file and today's UTC date.
func (s *ContentStore) commitMessage(path string) string {
	return fmt.Sprintf("%s: update %s [%s]",
		s.commitPrefix, pathpkg.Base(path), s.nowFunc().UTC().Format(commitDateLayout))
}

// contentsPath builds the API path for a file. GET requests pin the branch
// through the ref query parameter; PUT requests carry it in the body.
func (s *ContentStore) contentsPath(path string, withRef bool) string {
	p := s.repoPath() + "/contents/" + encodePathSegments(path)

	if withRef && s.branch != "" {
		p += "?ref=" + url.QueryEscape(s.branch)
	}

	return p
}

func (s *ContentStore) repoPath() string {
	return "/repos/" + url.PathEscape(s.owner) + "/" + url.PathEscape(s.repo)
}

// encodePathSegments URL-encodes each segment of a slash-separated path.
func encodePathSegments(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return strings.Join(segments, "/")
}

// encodeContent serializes v as two-space-indented JSON and base64-encodes
// the UTF-8 bytes. HTML characters are left unescaped so the stored file
// reads naturally.
func encodeContent(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding JSON: %w", err)
	}

	return base64.StdEncoding.EncodeToString(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// decodeContent reverses encodeContent for content as GitHub returns it:
// base64 broken into lines. The result is validated as UTF-8 JSON.
func decodeContent(s string) (json.RawMessage, error) {
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(s)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %w", ErrDecode, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrDecode)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: content is not valid JSON", ErrDecode)
	}

	return json.RawMessage(data), nil
}
