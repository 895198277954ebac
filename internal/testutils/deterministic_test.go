package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID_DeterministicInTestMode(t *testing.T) {
	ResetTestCounters()

	first := GenerateUUID(true)
	second := GenerateUUID(true)

	assert.Equal(t, "00000001-0000-4000-8000-000000000001", first)
	assert.Equal(t, "00000002-0000-4000-8000-000000000002", second)
}

func TestGenerateUUID_RandomInProduction(t *testing.T) {
	first := GenerateUUID(false)
	second := GenerateUUID(false)

	require.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}

func TestGetCurrentTime_IncrementsInTestMode(t *testing.T) {
	ResetTestCounters()

	first := GetCurrentTime(true)
	second := GetCurrentTime(true)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC), first)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 2, 0, time.UTC), second)
	assert.True(t, second.After(first))
}

func TestResetTestCounters(t *testing.T) {
	ResetTestCounters()
	_ = GenerateUUID(true)
	_ = GetCurrentTime(true)

	ResetTestCounters()
	assert.Equal(t, "00000001-0000-4000-8000-000000000001", GenerateUUID(true))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC), GetCurrentTime(true))
}
