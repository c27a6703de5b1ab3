package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Initialize(Options{JSON: tt.jsonOutput, Verbosity: VerbosityInfo, Output: &buf})
			require.NoError(t, err)
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Infow("Wrote artifact", FieldFile, "Generated/Database.elm")
			Cleanup()
			assert.Contains(t, buf.String(), "Generated/Database.elm")
		})
	}
}

func TestInitialize_JSONIsParseable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize(Options{JSON: true, Verbosity: VerbosityInfo, Output: &buf}))

	Warnw("Lossy type fallback", FieldModel, "UserProfile", FieldField, "status")
	Cleanup()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "UserProfile", entry[FieldModel])
	assert.Equal(t, "warn", entry["level"])
}

func TestInitialize_VerbosityFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize(Options{Verbosity: VerbosityUser, Output: &buf}))

	Infow("hidden at default verbosity")
	Warnw("visible warning")
	Cleanup()

	out := buf.String()
	assert.NotContains(t, out, "hidden at default verbosity")
	assert.Contains(t, out, "visible warning")
}

func TestInitialize_FileSink(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "buildamp.log")
	var console bytes.Buffer
	require.NoError(t, Initialize(Options{Verbosity: VerbosityUser, Output: &console, File: logPath}))

	Debugw("debug goes to file", FieldPhase, "database")
	Cleanup()

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug goes to file")
	assert.NotContains(t, console.String(), "debug goes to file")
}

func TestPhaseLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Initialize(Options{Verbosity: VerbosityInfo, Output: &buf}))

	PhaseLogger("database").Infow("Phase complete", FieldArtifacts, 2)
	Cleanup()

	out := stripANSI(buf.String())
	assert.Contains(t, out, "p.database")
	assert.Contains(t, out, "phase=database")
	assert.Contains(t, out, "artifacts=2")
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{VerbosityUser, zapcore.WarnLevel},
		{VerbosityInfo, zapcore.InfoLevel},
		{VerbosityDebug, zapcore.DebugLevel},
		{VerbosityTrace, zapcore.DebugLevel},
		{9, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Debug (-vv)", LevelName(2))
	assert.Equal(t, "Trace (-vvv+)", LevelName(7))
	assert.True(t, strings.HasPrefix(LevelName(-3), "Unknown"))
}
