package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildamp/errors"
)

const userProfile = `pub struct UserProfile {
    pub id: DatabaseId<String>,
    pub name: String,
    pub email: String,
    pub bio: Option<String>,
}
`

// newProjectDir creates a project with one db model and an isolated HOME.
func newProjectDir(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "buildamp.toml"), []byte("project = \"todo\"\n"), 0644))
	models := filepath.Join(dir, "src", "models", "db")
	require.NoError(t, os.MkdirAll(models, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(models, "user_profile.rs"), []byte(userProfile), 0644))
	return dir
}

// resetFlags restores every flag of cmd and its subcommands to its default,
// so one Execute never sees values parsed by an earlier one.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	for _, fs := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			require.NoError(t, f.Value.Set(f.DefValue), f.Name)
			f.Changed = false
		})
	}
	for _, sub := range cmd.Commands() {
		resetFlags(t, sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t, RootCmd)
	buf := new(bytes.Buffer)
	RootCmd.SetOut(buf)
	RootCmd.SetErr(buf)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}

func TestRoot_Help(t *testing.T) {
	out, err := execute(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, out, "buildamp [phase]")
	assert.Contains(t, out, "database    db, persistence")
	assert.Contains(t, out, "wasm        build (only when selected or wasm.enabled is set)")
}

func TestRoot_UnknownPhase(t *testing.T) {
	dir := newProjectDir(t)

	_, err := execute(t, "graphql", "-C", dir)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownPhase(err))
	assert.NoDirExists(t, filepath.Join(dir, "src", ".buildamp-gen"))
	assert.NoDirExists(t, filepath.Join(dir, ".buildamp"))
}

func TestRoot_TooManyArgs(t *testing.T) {
	_, err := execute(t, "db", "kv")
	assert.Error(t, err)
}

func TestGen_SinglePhase(t *testing.T) {
	dir := newProjectDir(t)

	_, err := execute(t, "db", "-C", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "src", ".buildamp-gen", "Generated", "Database.elm"))
	assert.FileExists(t, filepath.Join(dir, "server", ".buildamp-gen", "database-queries.js"))
	assert.NoFileExists(t, filepath.Join(dir, "src", ".buildamp-gen", "Generated", "KV.elm"))
	assert.FileExists(t, filepath.Join(dir, ".buildamp", "state.db"))
}

func TestCheck(t *testing.T) {
	dir := newProjectDir(t)

	_, err := execute(t, "check", "-C", dir)
	require.Error(t, err, "nothing generated yet")
	assert.Contains(t, err.Error(), "out of date")

	_, err = execute(t, "gen", "-C", dir)
	require.NoError(t, err)

	_, err = execute(t, "check", "-C", dir)
	require.NoError(t, err)

	kv := filepath.Join(dir, "src", ".buildamp-gen", "Generated", "KV.elm")
	require.NoError(t, os.WriteFile(kv, []byte("module Generated.KV exposing (..)\n"), 0644))
	out, err := execute(t, "check", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, out, "src/.buildamp-gen/Generated/KV.elm (modified)")
	assert.Contains(t, errors.FlattenHints(err), "buildamp gen")
}

func TestStatus_JSON(t *testing.T) {
	dir := newProjectDir(t)

	out, err := execute(t, "status", "-o", "json", "-C", dir)
	require.NoError(t, err)

	var st struct {
		Project string `json:"project"`
		Models  struct {
			Dirty  bool   `json:"dirty"`
			Reason string `json:"reason"`
		} `json:"models"`
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "todo", st.Project)
	assert.True(t, st.Models.Dirty)
	assert.Equal(t, "never_generated", st.Models.Reason)
	assert.Equal(t, []string{"buildamp gen"}, st.Suggestions)

	_, err = execute(t, "-C", dir)
	require.NoError(t, err)

	out, err = execute(t, "status", "-o", "text", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Clean")
	assert.Contains(t, out, "Last run: succeeded")
}

func TestStatus_BadFormat(t *testing.T) {
	dir := newProjectDir(t)
	_, err := execute(t, "status", "-o", "xml", "-C", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestRoot_FlagsDoNotLeakBetweenRuns(t *testing.T) {
	dir := newProjectDir(t)

	out, err := execute(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")

	out, err = execute(t, "db", "-C", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "Usage:", "help from the previous run must not stick")
	assert.FileExists(t, filepath.Join(dir, "src", ".buildamp-gen", "Generated", "Database.elm"))

	_, err = execute(t, "graphql", "-C", dir)
	assert.True(t, errors.IsUnknownPhase(err))
}

func TestConfig_InitAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	_, err := execute(t, "config", "init", "-C", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "buildamp.toml"))

	_, err = execute(t, "config", "init", "-C", dir)
	assert.Error(t, err, "an existing buildamp.toml is never overwritten")

	out, err := execute(t, "config", "show", "--format", "toml", "-C", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "buildamp.toml")
	assert.Contains(t, out, "[output]")
}

func TestVersion_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["platform"])
}

func TestWriteDiff(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	writeDiff(&buf, "module A\nx = 1\ny = 2\n", "module A\nx = 1\ny = 3\nz = 4\n")
	assert.Equal(t, "- y = 2\n+ y = 3\n+ z = 4\n", buf.String())
}
