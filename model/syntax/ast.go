package syntax

import "strings"

// File is the parsed form of one source file.
type File struct {
	Path    string
	Structs []*StructDecl
	// Problems are recoverable issues: malformed fields, skipped items, lexer errors
	Problems []Problem
}

// Problem is a recoverable parse issue tied to a source position.
type Problem struct {
	Line    int
	Col     int
	Struct  string
	Field   string
	Message string
}

// StructDecl is a struct item with named fields. Tuple and unit structs are
// recorded with Fields == nil and Tuple set.
type StructDecl struct {
	Name   string
	Public bool
	Tuple  bool
	Attrs  []Attribute
	Fields []*FieldDecl
	Line   int
}

// FieldDecl is one named field of a struct body.
type FieldDecl struct {
	Name   string
	Public bool
	Type   *TypeExpr
	Attrs  []Attribute
	Line   int
}

// Attribute is an outer attribute such as #[kv(ttl = 600)] or #[api(Required)].
type Attribute struct {
	Name string
	Args []AttrArg
}

// AttrArg is one comma-separated argument; Value is empty for bare flags.
type AttrArg struct {
	Key   string
	Value string
}

// Arg returns the value for key and whether the key is present.
func (a Attribute) Arg(key string) (string, bool) {
	for _, arg := range a.Args {
		if arg.Key == key {
			return arg.Value, true
		}
	}
	return "", false
}

// TypeExpr is a type expression: a path's final segment plus generic arguments.
// Tuples use Name "()" and arrays/slices use Name "[]".
type TypeExpr struct {
	Name string
	Args []*TypeExpr
}

// Named builds a TypeExpr; a convenience for callers and tests.
func Named(name string, args ...*TypeExpr) *TypeExpr {
	return &TypeExpr{Name: name, Args: args}
}

// Is reports whether the expression's head is name with exactly arity arguments.
func (t *TypeExpr) Is(name string, arity int) bool {
	return t != nil && t.Name == name && len(t.Args) == arity
}

// String renders the canonical source spelling, e.g. Option<Vec<String>>.
func (t *TypeExpr) String() string {
	if t == nil {
		return ""
	}
	switch t.Name {
	case "()":
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = a.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case "[]":
		if len(t.Args) == 1 {
			return "[" + t.Args[0].String() + "]"
		}
	}
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}
