// Package model holds the extracted model graph: structs, fields, roles.
package model

import (
	"path/filepath"
	"strings"

	"github.com/teranos/buildamp/model/syntax"
)

// Role tags a struct as table/collection-backed or auxiliary.
type Role int

const (
	// Component structs get type and codec generation only
	Component Role = iota
	// Primary structs match their file name and get full operation stubs
	Primary
)

func (r Role) String() string {
	if r == Primary {
		return "primary"
	}
	return "component"
}

// Attributes maps attribute name to its arguments, e.g. kv -> {ttl: "600"}.
// Bare flags such as #[api(Required)] map to an empty value.
type Attributes map[string]map[string]string

// Get returns the value of name(key = value).
func (a Attributes) Get(name, key string) (string, bool) {
	args, ok := a[name]
	if !ok {
		return "", false
	}
	v, ok := args[key]
	return v, ok
}

// Has reports whether name(key) is present.
func (a Attributes) Has(name, key string) bool {
	_, ok := a.Get(name, key)
	return ok
}

// FromSyntax flattens parsed attributes; later duplicates win.
func FromSyntax(attrs []syntax.Attribute) Attributes {
	if len(attrs) == 0 {
		return nil
	}
	out := Attributes{}
	for _, a := range attrs {
		args, ok := out[a.Name]
		if !ok {
			args = map[string]string{}
			out[a.Name] = args
		}
		for _, arg := range a.Args {
			args[arg.Key] = arg.Value
		}
	}
	return out
}

// Field is one public field. Optional and List describe the outermost wrapper only.
type Field struct {
	Name     string
	Type     *syntax.TypeExpr
	Optional bool
	List     bool
	Attrs    Attributes
}

// NewField derives the outer-wrapper flags from the type expression.
func NewField(name string, typ *syntax.TypeExpr, attrs Attributes) Field {
	return Field{
		Name:     name,
		Type:     typ,
		Optional: typ.Is("Option", 1),
		List:     typ.Is("Vec", 1) || typ.Is("[]", 1),
		Attrs:    attrs,
	}
}

// RawType is the source spelling of the field type.
func (f Field) RawType() string {
	return f.Type.String()
}

// ParsedStruct is one public struct declaration found by the extractor.
type ParsedStruct struct {
	Name       string
	Fields     []Field
	SourceFile string
	Attrs      Attributes
}

// FileStem returns the declaring file name without directory or extension.
func (s ParsedStruct) FileStem() string {
	base := filepath.Base(s.SourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Field returns the named field.
func (s ParsedStruct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Classified is a struct together with its role in the domain.
type Classified struct {
	ParsedStruct
	Role Role
}

// IsPrimary reports whether the model gets full operation stubs.
func (c Classified) IsPrimary() bool {
	return c.Role == Primary
}

// Primaries filters models down to Primary ones, preserving order.
func Primaries(models []Classified) []Classified {
	var out []Classified
	for _, m := range models {
		if m.IsPrimary() {
			out = append(out, m)
		}
	}
	return out
}
