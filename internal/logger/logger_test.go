package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/garlic-tiger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	id := uuid.New()
	WithSession(log, id).Info("garlic collected", "garlics", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "garlic collected", entry["msg"])
	assert.Equal(t, id.String(), entry["session_id"])
	assert.EqualValues(t, 3, entry["garlics"])
}

func TestNew_DevelopmentIsTextAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	log.Info("hidden")
	WithError(WithRequestID(log, "req-1"), errors.New("boom")).Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"))
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "error=boom")
}
