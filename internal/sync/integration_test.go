package sync

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/motolog/internal/github"
	"github.com/tonimelisma/motolog/internal/github/githubtest"
	"github.com/tonimelisma/motolog/internal/localstore"
	"github.com/tonimelisma/motolog/internal/ridelog"
	"github.com/tonimelisma/motolog/internal/store"
)

func newGitHubOrchestrator(t *testing.T) (*Orchestrator, *githubtest.Server) {
	t.Helper()

	fake := githubtest.NewServer(t, "rider", "moto-data")
	token := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ghp_test", TokenType: "Bearer"})
	client := github.NewClient(fake.URL, http.DefaultClient, token, slog.Default(), "motolog-test")
	remote := github.NewContentStore(client, github.ContentStoreConfig{Owner: "rider", Repo: "moto-data"})

	o, err := NewOrchestrator(OrchestratorConfig{Remote: remote})
	require.NoError(t, err)

	return o, fake
}

func TestGitHub_LoadMutateSyncReload(t *testing.T) {
	o, fake := newGitHubOrchestrator(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)

	snap, err := o.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ridelog.NewSnapshot(), snap)

	snap.Sessions, _, err = ridelog.AddSession(snap.Sessions, ridelog.Session{
		Track: "Glen Helen", Date: "2024-03-09", Hours: 1.5, Feeling: 8, Notes: "rhythm section ✓",
	}, now)
	require.NoError(t, err)
	require.NoError(t, snap.Suspension.CreatePreset("Sand"))

	report, err := o.SyncAll(ctx, snap)
	require.NoError(t, err)
	assert.Len(t, report.Saved(), 3)
	assert.Equal(t, 3, fake.Commits())

	for _, r := range fake.Requests() {
		assert.Equal(t, "Bearer ghp_test", r.Auth)
	}

	reloaded, err := o.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, reloaded)

	// Saving again updates in place with the current revisions.
	reloaded.Profile.Name = "Ana"
	_, err = o.SyncAll(ctx, reloaded)
	require.NoError(t, err)
	assert.Equal(t, 6, fake.Commits())
}

func TestGitHub_ExternalEditFailsOnlyThatDocument(t *testing.T) {
	o, fake := newGitHubOrchestrator(t)
	ctx := context.Background()

	_, err := o.SyncAll(ctx, ridelog.NewSnapshot())
	require.NoError(t, err)

	sessionsPath, err := store.DocSessions.Path()
	require.NoError(t, err)

	fake.BeforePut = func(path string) {
		if path == sessionsPath {
			fake.SetFile(path, []byte(`[{"id":1,"track":"edited on another device","hours":1}]`))
		}
	}

	snap := ridelog.NewSnapshot()
	snap.Profile.Name = "Ana"

	report, err := o.SyncAll(ctx, snap)
	require.Error(t, err)
	assert.True(t, github.IsStale(err))
	assert.ElementsMatch(t, []store.DocType{store.DocProfile, store.DocSuspension}, report.Saved())

	stored, _ := fake.File(sessionsPath)
	assert.Contains(t, string(stored), "edited on another device")

	profilePath, _ := store.DocProfile.Path()
	stored, _ = fake.File(profilePath)
	assert.Contains(t, string(stored), `"name": "Ana"`)
}

func TestGitHub_AuthFailureOnLoad(t *testing.T) {
	o, fake := newGitHubOrchestrator(t)
	fake.FailStatus = http.StatusUnauthorized
	fake.FailMessage = "Bad credentials"

	_, err := o.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, github.IsAuth(err))
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestDemo_RoundTripThroughDeviceStorage(t *testing.T) {
	ctx := context.Background()

	db, err := localstore.Open(ctx, filepath.Join(t.TempDir(), "motolog.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	o, err := NewOrchestrator(OrchestratorConfig{Demo: true, Local: store.NewLocalStore(db, nil)})
	require.NoError(t, err)

	snap, err := o.LoadAll(ctx)
	require.NoError(t, err)

	_, err = snap.Profile.AddInjury(ridelog.Injury{Description: "Left wrist sprain"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, o.SaveDocument(ctx, store.DocProfile, snap.Profile))

	report, err := o.SyncAll(ctx, snap)
	require.NoError(t, err)
	assert.True(t, report.Skipped)

	raw, ok, err := db.Get(ctx, store.LocalKey(store.DocProfile))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, "Left wrist sprain")

	reloaded, err := o.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Profile, reloaded.Profile)
}
