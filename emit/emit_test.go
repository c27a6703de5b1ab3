package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
)

func declared(name, file string, role model.Role) model.Classified {
	return model.Classified{
		ParsedStruct: model.ParsedStruct{Name: name, SourceFile: file},
		Role:         role,
	}
}

func TestUnique(t *testing.T) {
	tests := []struct {
		name   string
		models []model.Classified
		want   []string // name@file in output order
	}{
		{
			name: "primary replaces an earlier component",
			models: []model.Classified{
				declared("Tag", "post.rs", model.Component),
				declared("Post", "post.rs", model.Primary),
				declared("Tag", "tag.rs", model.Primary),
			},
			want: []string{"Tag@tag.rs", "Post@post.rs"},
		},
		{
			name: "later component never replaces a primary",
			models: []model.Classified{
				declared("Tag", "tag.rs", model.Primary),
				declared("Tag", "post.rs", model.Component),
			},
			want: []string{"Tag@tag.rs"},
		},
		{
			name: "same role keeps the first",
			models: []model.Classified{
				declared("Meta", "a.rs", model.Component),
				declared("Meta", "b.rs", model.Component),
			},
			want: []string{"Meta@a.rs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unique(tt.models)
			var names []string
			for _, m := range got {
				names = append(names, m.Name+"@"+m.SourceFile)

				// The kept declaration agrees with the registry built from the same input
				role, ok := registry.Build("db", tt.models).Lookup(m.Name)
				assert.True(t, ok)
				assert.Equal(t, role, m.Role, m.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
