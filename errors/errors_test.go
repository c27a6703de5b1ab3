package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("error"), "try this fix")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "try this fix", hints[0])
}

func TestNewUnknownPhaseError(t *testing.T) {
	err := NewUnknownPhaseError("dtabase", []string{"database", "api"})

	assert.True(t, IsUnknownPhase(err))
	assert.Contains(t, err.Error(), `"dtabase"`)
	assert.Equal(t, "valid phases: database, api", FlattenHints(err))
}

func TestNewUnknownPhaseError_NoHint(t *testing.T) {
	err := NewUnknownPhaseError("x", nil)

	assert.True(t, IsUnknownPhase(err))
	assert.Empty(t, GetAllHints(err))
}

func TestWrapPermissionDenied(t *testing.T) {
	err := WrapPermissionDenied(fmt.Errorf("open /ro/x: permission denied"), "/ro/x")

	assert.True(t, IsPermissionDenied(err))
	assert.Contains(t, err.Error(), "write /ro/x")
	assert.False(t, IsUnknownPhase(err))
}

func TestSentinelsNil(t *testing.T) {
	assert.False(t, IsUnknownPhase(nil))
	assert.False(t, IsPermissionDenied(nil))
}

func TestStackTrace(t *testing.T) {
	err := Wrap(ErrPhaseFailed, "database")

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "errors_test.go")
}
