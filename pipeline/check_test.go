package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/emit/kv"
	"github.com/teranos/buildamp/emit/persistence"
)

func TestCheck_Clean(t *testing.T) {
	env := newProject(t, modelTree)
	orch := New(env)
	_, err := orch.Run(context.Background(), nil)
	require.NoError(t, err)

	drift, err := orch.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, drift)
}

func TestCheck_Drift(t *testing.T) {
	env := newProject(t, modelTree)
	orch := New(env)
	_, err := orch.Run(context.Background(), nil)
	require.NoError(t, err)

	database := filepath.Join(env.Paths.Elm, filepath.FromSlash(persistence.ElmPath))
	require.NoError(t, os.WriteFile(database, []byte("module Generated.Database exposing (..)\n"), 0644))
	require.NoError(t, os.Remove(filepath.Join(env.Paths.JS, kv.JSPath)))

	// Scaffolds are the developer's and never count as drift
	require.NoError(t, os.WriteFile(filepath.Join(env.Paths.Handlers, "GetFeedHandler.elm"), []byte("edited"), 0644))

	drift, err := orch.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, drift, 2)

	assert.Equal(t, "database", drift[0].Phase)
	assert.Equal(t, "src/.buildamp-gen/Generated/Database.elm", drift[0].Path)
	assert.Equal(t, DriftModified, drift[0].Reason)
	assert.Equal(t, "module Generated.Database exposing (..)\n", string(drift[0].Got))
	assert.NotEmpty(t, drift[0].Want)

	assert.Equal(t, "kv", drift[1].Phase)
	assert.Equal(t, "server/.buildamp-gen/kv-store.js", drift[1].Path)
	assert.Equal(t, DriftMissing, drift[1].Reason)
}

func TestCheck_WritesNothing(t *testing.T) {
	env := newProject(t, modelTree)

	drift, err := New(env).Check(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, drift)
	for _, d := range drift {
		assert.Equal(t, DriftMissing, d.Reason, d.Path)
	}
	assert.NoDirExists(t, env.Paths.Elm)
	assert.NoDirExists(t, env.Paths.JS)
}
