package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Budget vote"))
	assert.Error(t, ValidateTitle("   "))
	assert.Error(t, ValidateTitle(strings.Repeat("a", MaxTitleLength+1)))
	assert.NoError(t, ValidateTitle(strings.Repeat("é", MaxTitleLength)))
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole("EDITOR"))
	assert.NoError(t, ValidateRole("copy_desk"))
	assert.Error(t, ValidateRole(""))
	assert.Error(t, ValidateRole("ed itor"))
	assert.Error(t, ValidateRole("1EDITOR"))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseTimestamp("2025-03-15T08:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)))

	_, err = ParseTimestamp("tomorrow")
	assert.Error(t, err)
}

func TestKVLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewKVLogger(zap.New(core))

	logger.Info("Transition applied", "article_id", int64(42), "to", "APPROVED")
	logger.Error("Transition rejected", "error", errors.New("stale"), "dangling")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Transition applied", entries[0].Message)
	assert.Equal(t, int64(42), entries[0].ContextMap()["article_id"])
	assert.Equal(t, "stale", entries[1].ContextMap()["error"])
	assert.Equal(t, "dangling", entries[1].ContextMap()["extra"])
}
