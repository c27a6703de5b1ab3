// Package typemap maps model field types to Elm types and JSON codec names.
//
// Rules apply in order and the first match wins:
//
//  1. Option<T>      -> Maybe T'        (Decode.nullable d)  (encodeMaybe e)
//  2. Vec<T>, [T]    -> List T'         (Decode.list d)      (Encode.list e)
//  3. framework wrappers (DatabaseId, Timestamp, Uuid, ...) -> fixed primitives
//  4. registry hit X -> X<suffix>       x<suffix>Decoder     encodeX<suffix>
//  5. base scalars   -> String, Int, Float, Bool
//  6. anything else  -> String, recorded as a Diagnostic
//
// Wrappers are checked before the registry, so a model that happens to share
// a wrapper's name never shadows it.
package typemap

import (
	"strings"
	"unicode"

	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/model/syntax"
	"github.com/teranos/buildamp/registry"
)

// Mapped is the Elm rendering of one type expression.
// Decoder and Encoder are single tokens or parenthesized applications,
// so they can be passed as arguments without further wrapping.
type Mapped struct {
	Target  string
	Decoder string
	Encoder string
}

// Diagnostic records a lossy string fallback (rule 6). Emitters also use it
// for model declarations they reject, with Message set.
type Diagnostic struct {
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
	RawType string `json:"raw_type,omitempty" yaml:"raw_type,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

func (d Diagnostic) String() string {
	msg := d.Message
	if msg == "" {
		msg = d.RawType + " mapped to String"
	}
	loc := d.Model
	if d.Field != "" {
		loc += "." + d.Field
	}
	if loc == "" {
		return msg
	}
	return loc + ": " + msg
}

var (
	stringType = Mapped{Target: "String", Decoder: "Decode.string", Encoder: "Encode.string"}
	intType    = Mapped{Target: "Int", Decoder: "Decode.int", Encoder: "Encode.int"}
	floatType  = Mapped{Target: "Float", Decoder: "Decode.float", Encoder: "Encode.float"}
	boolType   = Mapped{Target: "Bool", Decoder: "Decode.bool", Encoder: "Encode.bool"}
)

// Framework wrappers with a fixed rendering.
var wrappers = map[string]Mapped{
	"DatabaseId":     stringType,
	"Uuid":           stringType,
	"DefaultComment": stringType,
	"DefaultValue":   stringType,
	"CorrelationId":  stringType,
	"ExecuteAt":      stringType,
	"RichContent":    stringType,
	"Timestamp":      {Target: "Int", Decoder: "timestampDecoder", Encoder: "Encode.int"},
}

// Wrappers whose single argument is mapped in their place.
var transparent = map[string]bool{
	"JsonBlob": true,
	"Box":      true,
	"Rc":       true,
	"Arc":      true,
}

var scalars = map[string]Mapped{
	"String": stringType,
	"str":    stringType,
	"char":   stringType,
	"bool":   boolType,
	"f32":    floatType,
	"f64":    floatType,
}

func init() {
	for _, w := range []string{"8", "16", "32", "64", "128", "size"} {
		scalars["i"+w] = intType
		scalars["u"+w] = intType
	}
}

// Mapper resolves type expressions against one domain's registry.
type Mapper struct {
	reg    *registry.Registry
	suffix string
	diags  []Diagnostic
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithSuffix sets the suffix appended to registry hits, e.g. "Db".
func WithSuffix(s string) Option {
	return func(m *Mapper) { m.suffix = s }
}

// New creates a Mapper. reg must be fully built; a nil registry resolves no models.
func New(reg *registry.Registry, opts ...Option) *Mapper {
	m := &Mapper{reg: reg}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Suffix returns the registry-hit suffix.
func (m *Mapper) Suffix() string {
	return m.suffix
}

// Map renders expr. The result depends only on expr and the registry;
// a fallback is also recorded in Diagnostics without model context.
func (m *Mapper) Map(expr *syntax.TypeExpr) Mapped {
	return m.resolve(expr, Diagnostic{RawType: expr.String()})
}

// MapField renders a field type, attributing any fallback to modelName.field.
func (m *Mapper) MapField(modelName string, f model.Field) Mapped {
	return m.resolve(f.Type, Diagnostic{Model: modelName, Field: f.Name, RawType: f.RawType()})
}

// Diagnostics returns the fallbacks recorded so far, in mapping order.
func (m *Mapper) Diagnostics() []Diagnostic {
	return m.diags
}

// ModelRef is the rendering of a reference to a registered model.
func (m *Mapper) ModelRef(name string) Mapped {
	typ := name + m.suffix
	return Mapped{
		Target:  typ,
		Decoder: LowerFirst(typ) + "Decoder",
		Encoder: "encode" + typ,
	}
}

func (m *Mapper) resolve(expr *syntax.TypeExpr, ctx Diagnostic) Mapped {
	if expr == nil {
		m.fallback(ctx)
		return stringType
	}

	// Rule 1
	if expr.Is("Option", 1) {
		inner := m.resolve(expr.Args[0], ctx)
		return Mapped{
			Target:  "Maybe " + Paren(inner.Target),
			Decoder: "(Decode.nullable " + inner.Decoder + ")",
			Encoder: "(encodeMaybe " + inner.Encoder + ")",
		}
	}

	// Rule 2
	if expr.Is("Vec", 1) || expr.Is("[]", 1) {
		inner := m.resolve(expr.Args[0], ctx)
		return Mapped{
			Target:  "List " + Paren(inner.Target),
			Decoder: "(Decode.list " + inner.Decoder + ")",
			Encoder: "(Encode.list " + inner.Encoder + ")",
		}
	}

	// Rule 3
	if w, ok := wrappers[expr.Name]; ok {
		return w
	}
	if transparent[expr.Name] && len(expr.Args) == 1 {
		return m.resolve(expr.Args[0], ctx)
	}

	// Rule 4
	if len(expr.Args) == 0 && m.reg.Contains(expr.Name) {
		return m.ModelRef(expr.Name)
	}

	// Rule 5
	if s, ok := scalars[expr.Name]; ok && len(expr.Args) == 0 {
		return s
	}

	// Rule 6
	m.fallback(ctx)
	return stringType
}

func (m *Mapper) fallback(ctx Diagnostic) {
	m.diags = append(m.diags, ctx)
}

// IsWrapper reports whether name is a framework wrapper (rule 3).
func IsWrapper(name string) bool {
	_, ok := wrappers[name]
	return ok || transparent[name]
}

// Unwrap strips transparent wrappers and the outer Option, returning the core type.
func Unwrap(expr *syntax.TypeExpr) *syntax.TypeExpr {
	for expr != nil && len(expr.Args) == 1 && (transparent[expr.Name] || expr.Name == "Option") {
		expr = expr.Args[0]
	}
	return expr
}

// IsTimestamp reports whether expr is a Timestamp, possibly optional.
func IsTimestamp(expr *syntax.TypeExpr) bool {
	core := Unwrap(expr)
	return core != nil && core.Name == "Timestamp"
}

// Paren wraps s in parentheses when it is an application or tuple.
func Paren(s string) string {
	if strings.ContainsRune(s, ' ') && !(strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")) {
		return "(" + s + ")"
	}
	return s
}

// LowerFirst lowercases the first rune: UserProfileDb -> userProfileDb.
func LowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
