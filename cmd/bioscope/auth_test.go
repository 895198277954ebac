package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bioscope/internal/config"
	"bioscope/internal/store"
)

// setupAuthTest points the store at a throwaway data dir and keeps the global
// viper instance from picking up a real config file.
func setupAuthTest(t *testing.T) string {
	t.Helper()
	viper.Reset()
	config.SetDefaults()

	dataDir := t.TempDir()
	t.Setenv("BIOSCOPE_DATA_DIR", dataDir)
	t.Chdir(t.TempDir())
	return dataDir
}

func TestLoginStoresProfileAndToken(t *testing.T) {
	dataDir := setupAuthTest(t)
	loginUserID, loginName, loginEmail, loginToken = "u1", "Ada", "ada@example.com", "tok-1"

	runLogin(nil, nil)

	s, err := store.New(dataDir)
	require.NoError(t, err)

	id, ok := s.GetUserID()
	require.True(t, ok)
	assert.Equal(t, "u1", id)

	profile, ok := s.GetUserProfile()
	require.True(t, ok)
	assert.Equal(t, "Ada", profile.Name)

	token, ok := s.GetToken()
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)
}

func TestLoginWithoutToken(t *testing.T) {
	dataDir := setupAuthTest(t)
	loginUserID, loginName, loginEmail, loginToken = "u2", "", "", ""

	runLogin(nil, nil)

	s, err := store.New(dataDir)
	require.NoError(t, err)

	id, ok := s.GetUserID()
	require.True(t, ok)
	assert.Equal(t, "u2", id)

	_, ok = s.GetToken()
	assert.False(t, ok)
}

func TestLogoutClearsAuthKeepsConversation(t *testing.T) {
	dataDir := setupAuthTest(t)

	seed, err := store.New(dataDir)
	require.NoError(t, err)
	require.NoError(t, seed.SetHistoricalID("h1"))

	loginUserID, loginName, loginEmail, loginToken = "u1", "", "", "tok-1"
	runLogin(nil, nil)
	runLogout(nil, nil)

	s, err := store.New(dataDir)
	require.NoError(t, err)

	_, ok := s.GetUserID()
	assert.False(t, ok)
	_, ok = s.GetToken()
	assert.False(t, ok)

	// The current conversation survives a sign-out.
	id, ok := s.GetHistoricalID()
	require.True(t, ok)
	assert.Equal(t, "h1", id)
}
