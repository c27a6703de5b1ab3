package logger

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

// The minimal encoder must never silently discard fields.
func TestMinimalEncoderNeverDiscardsFields(t *testing.T) {
	encoder := newMinimalEncoder()

	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "pipeline.database",
		Message:    "Wrote artifact",
	}

	tests := []struct {
		field    zapcore.Field
		mustFind string
	}{
		{zap.String("file", "Generated/Database.elm"), "file=Generated/Database.elm"},
		{zap.Int("models", 3), "models=3"},
		{zap.Int32("int32_field", 42), "int32_field=42"},
		{zap.Uint("uint_field", 7), "uint_field=7"},
		{zap.Bool("scaffold", true), "scaffold=true"},
		{zap.Float64("ratio", 0.5), "ratio=0.5"},
		{zap.Strings("paths", []string{"a", "b"}), "paths=[a b]"},
		{zap.String("field.with.dots", "x"), "field.with.dots=x"},
	}

	fields := make([]zapcore.Field, 0, len(tests))
	for _, tt := range tests {
		fields = append(fields, tt.field)
	}

	buf, err := encoder.EncodeEntry(entry, fields)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "p.database")
	assert.Contains(t, out, "Wrote artifact")
	for _, tt := range tests {
		assert.Contains(t, out, tt.mustFind)
	}
}

func TestMinimalEncoderLevels(t *testing.T) {
	encoder := newMinimalEncoder()

	for level, label := range map[zapcore.Level]string{
		zapcore.WarnLevel:  "WARN",
		zapcore.ErrorLevel: "ERROR",
		zapcore.DebugLevel: "DEBUG",
	} {
		buf, err := encoder.EncodeEntry(zapcore.Entry{Level: level, Message: "m"}, nil)
		require.NoError(t, err)
		assert.Contains(t, stripANSI(buf.String()), label)
	}

	buf, err := encoder.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Message: "m"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, stripANSI(buf.String()), "INFO")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "p.database", abbreviateName("pipeline.database"))
	assert.Equal(t, "extract", abbreviateName("extract"))
	assert.Equal(t, "w.x.y", abbreviateName("watch.x.y"))
}
