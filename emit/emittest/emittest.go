// Package emittest builds classified models from inline sources for emitter tests.
package emittest

import (
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/teranos/buildamp/classify"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/extract"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/model/syntax"
)

// Models parses every file of a txtar archive in archive order and classifies
// the result. Parse problems fail the test.
func Models(t *testing.T, archive string) []model.Classified {
	t.Helper()

	var structs []model.ParsedStruct
	for _, f := range txtar.Parse([]byte(archive)).Files {
		parsed := syntax.Parse(f.Name, string(f.Data))
		for _, p := range parsed.Problems {
			t.Fatalf("Fixture %s:%d: %s", f.Name, p.Line, p.Message)
		}
		structs = append(structs, extract.FromFile(parsed)...)
	}
	return classify.All(structs)
}

// UserProfile is the canonical single-model domain.
const UserProfile = `
-- user_profile.rs --
pub struct UserProfile {
    pub id: DatabaseId<String>,
    pub name: String,
    pub email: String,
    pub bio: Option<String>,
}
`

// Content returns the artifact's content or fails the test.
func Content(t *testing.T, res *emit.Result, root emit.Root, path string) string {
	t.Helper()
	f, ok := res.Find(root, path)
	if !ok {
		t.Fatalf("No %s artifact %s", root, path)
	}
	return string(f.Content)
}
