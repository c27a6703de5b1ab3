package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/errors"
)

func TestInfo(t *testing.T) {
	info := Info{CommitHash: "abcdef123456", BuildTime: "now", Version: "1.2.3"}

	assert.Equal(t, "abcdef1", info.Short())
	assert.Equal(t, "buildamp 1.2.3 (commit abcdef1, built now)", info.String())
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.True(t, strings.Contains(info.Platform, "/"))
}

func TestCheckConstraint(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		constraint string
		wantErr    bool
		mismatch   bool
	}{
		{name: "empty constraint", current: "0.1.0", constraint: ""},
		{name: "satisfied", current: "0.4.0", constraint: ">= 0.3.0"},
		{name: "prerelease satisfied", current: "0.4.0-dev", constraint: ">= 0.4.0-0"},
		{name: "too old", current: "0.2.0", constraint: ">= 0.3.0", wantErr: true, mismatch: true},
		{name: "bad constraint", current: "0.2.0", constraint: ">>> nope", wantErr: true},
		{name: "bad version", current: "not-a-version", constraint: ">= 1.0.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkConstraint(tt.current, tt.constraint)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.mismatch, errors.Is(err, errors.ErrVersionMismatch))
		})
	}
}
