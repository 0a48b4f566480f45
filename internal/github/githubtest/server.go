// Package githubtest provides an in-memory fake of the GitHub repository
// contents API for tests. It enforces the same SHA-guarded update rules as
// GitHub: updating an existing file requires its current blob SHA.
package githubtest

import (
	"crypto/sha1" //nolint:gosec // git blob ids are SHA-1
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	gosync "sync"
	"testing"
)

// lineWidth is how GitHub wraps base64 content in responses.
const lineWidth = 60

// Request records one request received by the fake.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type file struct {
	data []byte
	sha  string
}

// Server is a fake contents API for a single repository.
type Server struct {
	*httptest.Server

	Owner string
	Repo  string

	mu       gosync.Mutex
	files    map[string]file
	requests []Request
	commits  int

	// FailStatus, when non-zero, makes every request fail with this status
	// and FailMessage.
	FailStatus  int
	FailMessage string

	// BeforePut, when set, runs after a PUT is decoded and before it is
	// applied. Tests use it to simulate a concurrent external edit.
	BeforePut func(path string)

	// Permissions overrides the permissions object in the repository
	// response. nil omits it.
	Permissions map[string]bool
}

// NewServer starts a fake for owner/repo and closes it when t finishes.
func NewServer(t *testing.T, owner, repo string) *Server {
	t.Helper()

	s := &Server{
		Owner:       owner,
		Repo:        repo,
		files:       make(map[string]file),
		Permissions: map[string]bool{"admin": true, "push": true, "pull": true},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// BlobSHA computes the git blob id of data, as GitHub reports it.
func BlobSHA(data []byte) string {
	h := sha1.New() //nolint:gosec // git blob ids are SHA-1
	fmt.Fprintf(h, "blob %d\x00", len(data))
	h.Write(data)

	return hex.EncodeToString(h.Sum(nil))
}

// SetFile stores raw bytes at path, as an external edit would.
func (s *Server) SetFile(path string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sha := BlobSHA(data)
	s.files[path] = file{data: append([]byte(nil), data...), sha: sha}

	return sha
}

// File returns the raw stored bytes at path.
func (s *Server) File(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[path]

	return f.data, ok
}

// SHA returns the current blob SHA at path, or "" when absent.
func (s *Server) SHA(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.files[path].sha
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// Commits returns how many PUTs were applied.
func (s *Server) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commits
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}

	if r.Method == http.MethodPut {
		if err := json.NewDecoder(r.Body).Decode(&req.Body); err != nil {
			s.record(req)
			writeError(w, http.StatusBadRequest, "Problems parsing JSON")

			return
		}
	}

	s.record(req)

	if s.FailStatus != 0 {
		writeError(w, s.FailStatus, s.FailMessage)
		return
	}

	repoPrefix := "/repos/" + s.Owner + "/" + s.Repo
	switch {
	case r.URL.Path == repoPrefix && r.Method == http.MethodGet:
		s.handleRepo(w)
	case strings.HasPrefix(r.URL.Path, repoPrefix+"/contents/"):
		path := strings.TrimPrefix(r.URL.Path, repoPrefix+"/contents/")
		switch r.Method {
		case http.MethodGet:
			s.handleGet(w, path)
		case http.MethodPut:
			s.handlePut(w, path, req.Body)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
}

func (s *Server) handleRepo(w http.ResponseWriter) {
	resp := map[string]any{
		"full_name":      s.Owner + "/" + s.Repo,
		"default_branch": "main",
		"private":        true,
	}

	if s.Permissions != nil {
		resp["permissions"] = s.Permissions
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, path string) {
	s.mu.Lock()
	f, ok := s.files[path]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     "file",
		"encoding": "base64",
		"path":     path,
		"sha":      f.sha,
		"content":  wrapLines(base64.StdEncoding.EncodeToString(f.data)),
	})
}

func (s *Server) handlePut(w http.ResponseWriter, path string, body map[string]any) {
	if s.BeforePut != nil {
		s.BeforePut(path)
	}

	message, _ := body["message"].(string)
	content, _ := body["content"].(string)
	sha, _ := body["sha"].(string)

	if message == "" {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"message\" wasn't supplied.")
		return
	}

	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "content is not valid Base64")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.files[path]

	switch {
	case exists && sha == "":
		writeError(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
		return
	case exists && sha != existing.sha:
		writeError(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, sha))
		return
	case !exists && sha != "":
		writeError(w, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, sha))
		return
	}

	newSHA := BlobSHA(data)
	s.files[path] = file{data: data, sha: newSHA}
	s.commits++

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}

	writeJSON(w, status, map[string]any{
		"content": map[string]any{"path": path, "sha": newSHA},
		"commit":  map[string]any{"sha": fmt.Sprintf("commit%04d", s.commits), "message": message},
	})
}

func wrapLines(s string) string {
	var b strings.Builder

	for len(s) > lineWidth {
		b.WriteString(s[:lineWidth])
		b.WriteByte('\n')
		s = s[lineWidth:]
	}

	b.WriteString(s)
	b.WriteByte('\n')

	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"message":           message,
		"documentation_url": "https://docs.github.com/rest",
	})
}
