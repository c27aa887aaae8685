package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudLoggingHandlerWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCloudLoggingHandler(&buf, slog.LevelInfo)).With(slog.String("uid", "alice"))

	ctx := WithTrace(context.Background(), "projects/p/traces/abc")
	l.WarnContext(ctx, "match unavailable", slog.String("matchId", "alice_bob"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARNING", entry["severity"])
	assert.Equal(t, "match unavailable", entry["message"])
	assert.Equal(t, "alice", entry["uid"])
	assert.Equal(t, "alice_bob", entry["matchId"])
	assert.Equal(t, "projects/p/traces/abc", entry["logging.googleapis.com/trace"])
}

func TestCloudLoggingHandlerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewCloudLoggingHandler(&buf, slog.LevelInfo))

	l.Debug("hidden")
	l.Info("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Init(context.Background(), Options{Format: FormatJSON, Level: "debug", Output: &buf})
	require.NoError(t, err)
	defer closeFn()

	Debug("queue write for %s", "bob")

	assert.Contains(t, buf.String(), `"severity":"DEBUG"`)
	assert.Contains(t, buf.String(), "queue write for bob")
}

func TestFromContextFallsBackToProcessLogger(t *testing.T) {
	assert.Equal(t, L(), FromContext(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), custom)
	assert.Equal(t, custom, FromContext(ctx))
}
