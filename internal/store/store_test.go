package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data   map[string]string
	getErr error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}

	v, ok := m.data[key]

	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.data[key] = value
	return nil
}

// sessionDoc mirrors the session record shape without importing the domain
// package.
type sessionDoc struct {
	ID         int64   `json:"id"`
	Track      string  `json:"track"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Conditions string  `json:"conditions"`
	Type       string  `json:"type"`
	Notes      string  `json:"notes"`
	Feeling    int     `json:"feeling"`
}

func TestDocTypePath(t *testing.T) {
	tests := []struct {
		t    DocType
		want string
	}{
		{DocProfile, "data/profile.json"},
		{DocSessions, "data/sessions.json"},
		{DocSuspension, "data/suspension.json"},
	}

	for _, tt := range tests {
		got, err := tt.t.Path()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := DocType("garage").Path()
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestParseDocType(t *testing.T) {
	got, err := ParseDocType("sessions")
	require.NoError(t, err)
	assert.Equal(t, DocSessions, got)

	_, err = ParseDocType("Sessions")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []DocType{DocProfile, DocSessions, DocSuspension}, Types())
}

func TestLocalStore_DemoScenario(t *testing.T) {
	s := NewLocalStore(newMemKV(), nil)
	ctx := context.Background()

	var got []sessionDoc
	found, err := s.LoadDocument(ctx, DocSessions, &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []sessionDoc{{
		ID: 1, Track: "Glen Helen", Date: "2024-01-01", Hours: 1.5,
		Conditions: "dry", Type: "practice", Notes: "", Feeling: 7,
	}}
	require.NoError(t, s.SaveDocument(ctx, DocSessions, want))

	found, err = s.LoadDocument(ctx, DocSessions, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestLocalStore_KeyNamespace(t *testing.T) {
	kv := newMemKV()
	s := NewLocalStore(kv, nil)

	require.NoError(t, s.SaveDocument(context.Background(), DocProfile, map[string]string{"name": "Ana"}))
	assert.JSONEq(t, `{"name":"Ana"}`, kv.data["moto_demo_profile"])
}

func TestLocalStore_MultiByteRoundTrip(t *testing.T) {
	s := NewLocalStore(newMemKV(), nil)
	ctx := context.Background()

	in := map[string]string{"notes": "Schräglage üben — 前輪 🏁"}
	require.NoError(t, s.SaveDocument(ctx, DocProfile, in))

	var out map[string]string
	found, err := s.LoadDocument(ctx, DocProfile, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestLocalStore_Corrupt(t *testing.T) {
	kv := newMemKV()
	kv.data["moto_demo_suspension"] = "{oops"

	s := NewLocalStore(kv, nil)

	var out map[string]any
	found, err := s.LoadDocument(context.Background(), DocSuspension, &out)
	require.Error(t, err)
	assert.False(t, found)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLocalStore_UnknownType(t *testing.T) {
	s := NewLocalStore(newMemKV(), nil)

	err := s.SaveDocument(context.Background(), DocType("garage"), 1)
	assert.ErrorIs(t, err, ErrUnknownType)

	var out any
	_, err = s.LoadDocument(context.Background(), DocType("garage"), &out)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestLocalStore_StorageError(t *testing.T) {
	kv := newMemKV()
	kv.getErr = errors.New("db locked")

	s := NewLocalStore(kv, nil)

	var out any
	_, err := s.LoadDocument(context.Background(), DocProfile, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
	assert.NotErrorIs(t, err, ErrCorrupt)
}
