package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bioscope/pkg/biotypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_HistoricalIDLifecycle(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.GetHistoricalID()
	assert.False(t, ok)

	require.NoError(t, s.SetHistoricalID("h1"))
	id, ok := s.GetHistoricalID()
	require.True(t, ok)
	assert.Equal(t, "h1", id)

	// Overwrite is idempotent.
	require.NoError(t, s.SetHistoricalID("h1"))
	require.NoError(t, s.SetHistoricalID("h2"))
	id, _ = s.GetHistoricalID()
	assert.Equal(t, "h2", id)

	require.NoError(t, s.ClearHistoricalID())
	_, ok = s.GetHistoricalID()
	assert.False(t, ok)

	// Clearing an absent key is safe.
	require.NoError(t, s.ClearHistoricalID())
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetHistoricalID("h1"))
	require.NoError(t, s.SetToken("tok"))

	reopened, err := New(dir)
	require.NoError(t, err)

	id, ok := reopened.GetHistoricalID()
	require.True(t, ok)
	assert.Equal(t, "h1", id)

	token, ok := reopened.GetToken()
	require.True(t, ok)
	assert.Equal(t, "tok", token)
}

func TestStore_MalformedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, storeFileName), []byte("{not json"), 0600))

	s, err := New(dir)
	require.NoError(t, err)

	_, ok := s.GetHistoricalID()
	assert.False(t, ok)
}

func TestStore_GetUserID(t *testing.T) {
	s := newTestStore(t)

	// No profile stored.
	_, ok := s.GetUserID()
	assert.False(t, ok)

	require.NoError(t, s.SetUserProfile(&biotypes.UserProfile{ID: "u1", Name: "Ada"}))
	id, ok := s.GetUserID()
	require.True(t, ok)
	assert.Equal(t, "u1", id)
}

func TestStore_GetUserID_LegacyIDField(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.set(keyUser, `{"_id":"legacy-7","email":"a@b.c"}`))

	id, ok := s.GetUserID()
	require.True(t, ok)
	assert.Equal(t, "legacy-7", id)
}

func TestStore_GetUserID_MalformedProfileIsAbsence(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.set(keyUser, "not-json"))

	_, ok := s.GetUserID()
	assert.False(t, ok)

	_, ok = s.GetUserProfile()
	assert.False(t, ok)
}

func TestStore_ClearAuth(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetUserProfile(&biotypes.UserProfile{ID: "u1"}))
	require.NoError(t, s.SetToken("tok"))
	require.NoError(t, s.SetHistoricalID("h1"))

	require.NoError(t, s.ClearAuth())

	_, ok := s.GetUserID()
	assert.False(t, ok)
	_, ok = s.GetToken()
	assert.False(t, ok)

	// The conversation id is not auth state.
	id, ok := s.GetHistoricalID()
	require.True(t, ok)
	assert.Equal(t, "h1", id)
}
