package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/motolog/internal/github/githubtest"
	"github.com/tonimelisma/motolog/internal/store"
)

type testSession struct {
	ID      int64   `json:"id"`
	Track   string  `json:"track"`
	Hours   float64 `json:"hours"`
	Notes   string  `json:"notes"`
	Feeling int     `json:"feeling"`
}

func TestSaveDocument_CreateThenUpdate(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := newTestStore(t, fake.URL)
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, store.DocSessions, []testSession{{ID: 1, Track: "Glen Helen", Hours: 1.5}}))

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodGet, reqs[0].Method, "revision read precedes write")
	assert.Equal(t, http.MethodPut, reqs[1].Method)
	assert.NotContains(t, reqs[1].Body, "sha")

	firstSHA := fake.SHA("data/sessions.json")
	require.NotEmpty(t, firstSHA)

	require.NoError(t, s.SaveDocument(ctx, store.DocSessions, []testSession{{ID: 2, Track: "Hangtown", Hours: 2}}))

	reqs = fake.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, http.MethodGet, reqs[2].Method)
	assert.Equal(t, firstSHA, reqs[3].Body["sha"], "update carries the revision just read")
	assert.Equal(t, 2, fake.Commits())
}

func TestSaveLoadDocument_RoundTrip(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := newTestStore(t, fake.URL)
	ctx := context.Background()

	want := []testSession{
		{ID: 2, Track: "Mont-Tremblant", Hours: 0.75, Notes: "ornières profondes, très glissant", Feeling: 4},
		{ID: 1, Track: "Glen Helen", Hours: 1.5, Feeling: 7},
	}
	require.NoError(t, s.SaveDocument(ctx, store.DocSessions, want))

	var got []testSession
	found, err := s.LoadDocument(ctx, store.DocSessions, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLoadDocument_Absent(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := newTestStore(t, fake.URL)

	var got []testSession
	found, err := s.LoadDocument(context.Background(), store.DocSessions, &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestLoadDocument_WrongShapeIsDecodeFailure(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	fake.SetFile("data/sessions.json", []byte(`{"not":"a list"}`))
	s := newTestStore(t, fake.URL)

	var got []testSession
	found, err := s.LoadDocument(context.Background(), store.DocSessions, &got)
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, IsDecode(err))
}

func TestSaveDocument_ConcurrentExternalEditRejected(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	fake.SetFile("data/sessions.json", []byte(`[]`))
	fake.BeforePut = func(path string) {
		fake.SetFile(path, []byte(`[{"id":42,"track":"edited elsewhere"}]`))
	}

	s := newTestStore(t, fake.URL)

	err := s.SaveDocument(context.Background(), store.DocSessions, []testSession{{ID: 1}})
	require.Error(t, err)
	assert.True(t, IsStale(err))

	stored, _ := fake.File("data/sessions.json")
	assert.Contains(t, string(stored), "edited elsewhere")
}

func TestSaveDocument_OverwritesCorruptDocument(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	corruptSHA := fake.SetFile("data/profile.json", []byte(`{"name": "trunc`))
	s := newTestStore(t, fake.URL)

	require.NoError(t, s.SaveDocument(context.Background(), store.DocProfile, map[string]string{"name": "Ana"}))

	reqs := fake.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, corruptSHA, reqs[1].Body["sha"])

	stored, _ := fake.File("data/profile.json")
	assert.JSONEq(t, `{"name":"Ana"}`, string(stored))
}

func TestSaveDocument_ReadFailureStopsWrite(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	fake.FailStatus = http.StatusUnauthorized
	fake.FailMessage = "Bad credentials"
	s := newTestStore(t, fake.URL)

	err := s.SaveDocument(context.Background(), store.DocProfile, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")

	for _, r := range fake.Requests() {
		assert.NotEqual(t, http.MethodPut, r.Method)
	}
}

func TestSaveDocument_UnknownType(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := newTestStore(t, fake.URL)

	err := s.SaveDocument(context.Background(), store.DocType("garage"), 1)
	assert.ErrorIs(t, err, store.ErrUnknownType)
	assert.Empty(t, fake.Requests())
}

func TestTestConnection_OK(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := newTestStore(t, fake.URL)

	info, err := s.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rider/moto-data", info.FullName)
	assert.Equal(t, "main", info.DefaultBranch)
	assert.True(t, info.CanPush)

	reqs := fake.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/repos/rider/moto-data", reqs[0].Path)
}

func TestTestConnection_NoPermissionsObject(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	fake.Permissions = nil
	s := newTestStore(t, fake.URL)

	info, err := s.TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, info.CanPush)
}

func TestTestConnection_ReadOnlyToken(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	fake.Permissions = map[string]bool{"pull": true, "push": false}
	s := newTestStore(t, fake.URL)

	info, err := s.TestConnection(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.False(t, info.CanPush)
}

func TestTestConnection_SurfacesRemoteMessage(t *testing.T) {
	fake := githubtest.NewServer(t, "rider", "moto-data")
	s := NewContentStore(newTestClient(t, fake.URL), ContentStoreConfig{Owner: "rider", Repo: "missing"})

	_, err := s.TestConnection(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Not Found")
	assert.Contains(t, err.Error(), "rider/missing")
}
