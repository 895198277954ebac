package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bioscope/pkg/biotypes"
)

// stubService is a minimal Service for registry tests.
type stubService struct {
	name    string
	initErr error
	inited  bool
}

func (s *stubService) Name() string { return s.name }
func (s *stubService) Initialize() error {
	s.inited = true
	return s.initErr
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	registry := NewRegistry()
	svc := &stubService{name: "stub"}

	require.NoError(t, registry.RegisterService(svc))

	got, err := registry.GetService("stub")
	require.NoError(t, err)
	assert.Same(t, biotypes.Service(svc), got)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterService(&stubService{name: "stub"}))

	err := registry.RegisterService(&stubService{name: "stub"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_GetMissingServiceFailsLoudly(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.GetService("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistry_InitializeAll(t *testing.T) {
	registry := NewRegistry()
	first := &stubService{name: "first"}
	second := &stubService{name: "second"}
	require.NoError(t, registry.RegisterService(first))
	require.NoError(t, registry.RegisterService(second))

	require.NoError(t, registry.InitializeAll())
	assert.True(t, first.inited)
	assert.True(t, second.inited)
}

func TestRegistry_InitializeAllPropagatesFailure(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterService(&stubService{name: "bad", initErr: errors.New("boom")}))

	err := registry.InitializeAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestRegistry_GetAllServicesReturnsCopy(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.RegisterService(&stubService{name: "stub"}))

	all := registry.GetAllServices()
	delete(all, "stub")

	_, err := registry.GetService("stub")
	assert.NoError(t, err)
}

func TestGlobalRegistry_Swap(t *testing.T) {
	original := GetGlobalRegistry()
	defer SetGlobalRegistry(original)

	replacement := NewRegistry()
	SetGlobalRegistry(replacement)
	assert.Same(t, replacement, GetGlobalRegistry())
}

func TestGetGlobalConversationService(t *testing.T) {
	original := GetGlobalRegistry()
	defer SetGlobalRegistry(original)
	SetGlobalRegistry(NewRegistry())

	_, err := GetGlobalConversationService()
	require.Error(t, err)

	svc := NewConversationService(&mockGateway{}, &memorySessionStore{userID: "u1"}, nil)
	require.NoError(t, GetGlobalRegistry().RegisterService(svc))

	got, err := GetGlobalConversationService()
	require.NoError(t, err)
	assert.Same(t, svc, got)
}
