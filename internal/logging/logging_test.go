package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "json", "info"))

	logger.Debug("hidden")
	logger.Info("participant joined", "event", "participant_joined", "name", "ana")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "participant joined", entry["msg"])
	assert.Equal(t, "ana", entry["name"])
}

func TestNewHandler_TextIncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "text", "debug"))

	logger.Debug("sweep", "evicted", 2)

	assert.Contains(t, buf.String(), "source=")
	assert.Contains(t, buf.String(), "evicted=2")
}
