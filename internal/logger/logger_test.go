package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtx_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "json")

	ctx := WithRequestID(context.Background(), "req-42")
	Ctx(ctx).Info().Str("department", "informatik").Msg("offer computed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-42", line["request_id"])
	assert.Equal(t, "informatik", line["department"])
	assert.Equal(t, "offer computed", line["message"])
}

func TestCtx_WithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "", "json")

	Ctx(context.Background()).Info().Msg("plain")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "request_id")
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", "json")

	Log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	Log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestInit_IgnoresEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "console")

	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")

	Log.Info().Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "loud", "json")

	Log.Debug().Msg("dropped")
	assert.Empty(t, buf.String())
	Log.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
