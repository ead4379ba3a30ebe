// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bibmerge/internal/match"
	"github.com/pdiddy/bibmerge/internal/merge"
	"github.com/pdiddy/bibmerge/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.WarnLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"trace", zerolog.TraceLevel},
		{"nonsense", zerolog.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFromFlags(t *testing.T) {
	assert.Equal(t, "debug", LevelFromFlags(true, true, "error"))
	assert.Equal(t, "info", LevelFromFlags(false, true, "error"))
	assert.Equal(t, "error", LevelFromFlags(false, false, "error"))
	assert.Equal(t, DefaultLevel, LevelFromFlags(false, false, ""))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogConfig{Level: "info", Format: FormatJSON}, &buf)
	sink := NewSink(logger)

	sink.Emit(merge.Event{Level: merge.LevelDebug, Kind: merge.EventDuplicateKey, Key: "a", Message: "Duplicate key a"})
	sink.Emit(merge.Event{
		Level: merge.LevelInfo, Kind: merge.EventMatch, Key: "b", Primary: "a",
		Rule: match.RuleIdentifier, Field: "doi", Source: "s2.bib",
		Message: "Found match between a and b based on doi",
	})
	sink.Emit(merge.Event{Level: merge.LevelWarn, Kind: merge.EventDubiousMatch, Key: "c", Primary: "a", Message: "Skipping dubious doi match for a and c"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2, "debug event must be filtered at info level")

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "match", lines[0]["kind"])
	assert.Equal(t, "a", lines[0]["primary"])
	assert.Equal(t, "identifier", lines[0]["rule"])
	assert.Equal(t, "doi", lines[0]["field"])
	assert.Equal(t, "s2.bib", lines[0]["source"])
	assert.Equal(t, "Found match between a and b based on doi", lines[0]["message"])

	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "dubious-match", lines[1]["kind"])
}

func TestSinkDefaultLevelShowsWarningsOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(New(types.LogConfig{Format: FormatJSON}, &buf))

	sink.Emit(merge.Event{Level: merge.LevelInfo, Kind: merge.EventMatch, Key: "b"})
	assert.Empty(t, buf.String())

	sink.Emit(merge.Event{Level: merge.LevelWarn, Kind: merge.EventDubiousMatch, Key: "b"})
	assert.Contains(t, buf.String(), "dubious-match")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(types.LogConfig{Level: "debug", Format: FormatConsole}, &buf)
	NewSink(logger).Emit(merge.Event{Level: merge.LevelDebug, Kind: merge.EventNewPrimary, Key: "a"})

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "new-primary")
	assert.Contains(t, out, "key=a")
}
