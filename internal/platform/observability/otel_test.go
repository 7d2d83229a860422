package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("dropped")
	logger.Warn("kept", slog.Int64("order_id", 7))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.EqualValues(t, 7, line["order_id"])
	assert.Contains(t, line, "source")
}

func TestNoopInstruments(t *testing.T) {
	inst := Noop()
	require.NotNil(t, inst.Tracer("x"))
	counter, err := inst.Meter("x").Int64Counter("c")
	require.NoError(t, err)
	assert.NotNil(t, counter)

	var nilInst *Instruments
	assert.NotNil(t, nilInst.Meter("y"))
	assert.NotNil(t, nilInst.Tracer("y"))
}
