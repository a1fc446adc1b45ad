package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriticalLevelName(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, "json")

	log.Critical("store down", "step", "append family")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "CRITICAL", entry["level"])
	assert.Equal(t, "append family", entry["step"])
	assert.Equal(t, "water-app", entry["service"])
}

func TestBusinessErrorSkipsNil(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, "text")

	log.BusinessError("ignored", nil)
	assert.Zero(t, buf.Len())

	log.BusinessError("rejected", errors.New("duplicate"), "water_id", "abc_000")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "err=duplicate")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("", "development"))
	assert.Equal(t, slog.LevelInfo, parseLevel("", "production"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING", ""))
	assert.Equal(t, LevelCritical, parseLevel("fatal", ""))
}
