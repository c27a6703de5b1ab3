package typemap

import (
	"github.com/teranos/buildamp/model/syntax"
	"github.com/teranos/buildamp/registry"
)

// JSDocType renders expr as a JSDoc type for the glue target.
// Registered models render as Object; unknown scalars as string.
func JSDocType(expr *syntax.TypeExpr, reg *registry.Registry) string {
	switch {
	case expr == nil:
		return "string"
	case expr.Is("Option", 1):
		return "?" + JSDocType(expr.Args[0], reg)
	case expr.Is("Vec", 1) || expr.Is("[]", 1):
		return "Array<" + JSDocType(expr.Args[0], reg) + ">"
	case transparent[expr.Name] && len(expr.Args) == 1:
		return JSDocType(expr.Args[0], reg)
	}

	if w, ok := wrappers[expr.Name]; ok {
		return jsPrimitive(w.Target)
	}
	if len(expr.Args) == 0 && reg.Contains(expr.Name) {
		return "Object"
	}
	if s, ok := scalars[expr.Name]; ok && len(expr.Args) == 0 {
		return jsPrimitive(s.Target)
	}
	return "string"
}

func jsPrimitive(elm string) string {
	switch elm {
	case "Int", "Float":
		return "number"
	case "Bool":
		return "boolean"
	}
	return "string"
}
