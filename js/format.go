package js

import (
	"strings"
)

const (
	indentWidth = 4
	maxInline   = 80
)

// Format renders f with four-space indentation and a trailing newline.
func Format(f File) []byte {
	var parts []string

	if len(f.Header) > 0 {
		parts = append(parts, docBlock(f.Header, 0))
	}

	if len(f.Imports) > 0 {
		var lines []string
		for _, imp := range f.Imports {
			lines = append(lines, importLine(imp))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}

	for _, n := range f.Body {
		parts = append(parts, FormatNode(n))
	}

	return []byte(strings.Join(parts, "\n\n") + "\n")
}

func importLine(imp Import) string {
	var spec []string
	if imp.Default != "" {
		spec = append(spec, imp.Default)
	}
	if len(imp.Names) > 0 {
		spec = append(spec, "{ "+strings.Join(imp.Names, ", ")+" }")
	}
	if len(spec) == 0 {
		return "import " + quote(imp.From) + ";"
	}
	return "import " + strings.Join(spec, ", ") + " from " + quote(imp.From) + ";"
}

func docBlock(lines []string, indent int) string {
	p := pad(indent)
	var sb strings.Builder
	sb.WriteString(p + "/**\n")
	for _, l := range lines {
		if l == "" {
			sb.WriteString(p + " *\n")
			continue
		}
		sb.WriteString(p + " * " + l + "\n")
	}
	sb.WriteString(p + " */")
	return sb.String()
}

// FormatNode renders one top-level item.
func FormatNode(n Node) string {
	var sb strings.Builder
	switch n := n.(type) {
	case Comment:
		sb.WriteString("// " + n.Text)

	case Func:
		if len(n.Doc) > 0 {
			sb.WriteString(docBlock(n.Doc, 0) + "\n")
		}
		if n.Export {
			sb.WriteString("export ")
		}
		if n.Default {
			sb.WriteString("default ")
		}
		if n.Async {
			sb.WriteString("async ")
		}
		sb.WriteString("function " + n.Name + "(" + strings.Join(n.Params, ", ") + ") ")
		sb.WriteString(block(n.Body, 0))

	case Class:
		if len(n.Doc) > 0 {
			sb.WriteString(docBlock(n.Doc, 0) + "\n")
		}
		if n.Export {
			sb.WriteString("export ")
		}
		sb.WriteString("class " + n.Name + " {\n")
		for i, m := range n.Methods {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(method(m, indentWidth))
			sb.WriteString("\n")
		}
		sb.WriteString("}")

	case Const:
		if len(n.Doc) > 0 {
			sb.WriteString(docBlock(n.Doc, 0) + "\n")
		}
		if n.Export {
			sb.WriteString("export ")
		}
		sb.WriteString("const " + n.Name + " = " + FormatExpr(n.Value, 0) + ";")

	case Raw:
		sb.WriteString(strings.TrimRight(n.Text, "\n"))
	}
	return sb.String()
}

func method(m Method, indent int) string {
	var sb strings.Builder
	if len(m.Doc) > 0 {
		sb.WriteString(docBlock(m.Doc, indent) + "\n")
	}
	sb.WriteString(pad(indent))
	if m.Static {
		sb.WriteString("static ")
	}
	if m.Async {
		sb.WriteString("async ")
	}
	sb.WriteString(m.Name + "(" + strings.Join(m.Params, ", ") + ") ")
	sb.WriteString(block(m.Body, indent))
	return sb.String()
}

// block renders `{ stmts }` whose closing brace sits at indent.
func block(stmts []Stmt, indent int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, s := range stmts {
		line := FormatStmt(s, indent+indentWidth)
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(pad(indent + indentWidth))
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString(pad(indent))
	sb.WriteString("}")
	return sb.String()
}

// FormatStmt renders s starting at column indent; the first line is not padded.
func FormatStmt(s Stmt, indent int) string {
	switch s := s.(type) {
	case Do:
		return FormatExpr(s.X, indent) + ";"
	case Var:
		kind := s.Kind
		if kind == "" {
			kind = "const"
		}
		return kind + " " + s.Name + " = " + FormatExpr(s.Value, indent) + ";"
	case Assign:
		return s.Target + " = " + FormatExpr(s.Value, indent) + ";"
	case Return:
		if s.Value == nil {
			return "return;"
		}
		return "return " + FormatExpr(s.Value, indent) + ";"
	case Throw:
		return "throw " + FormatExpr(s.Value, indent) + ";"
	case If:
		out := "if (" + s.Cond + ") " + block(s.Then, indent)
		if len(s.Else) > 0 {
			out += " else " + block(s.Else, indent)
		}
		return out
	case Try:
		return "try " + block(s.Body, indent) + " catch (" + s.Var + ") " + block(s.Catch, indent)
	case ForOf:
		return "for (const " + s.Var + " of " + s.Iter + ") " + block(s.Body, indent)
	case LineComment:
		return "// " + s.Text
	case Blank:
		return ""
	}
	return ""
}

// FormatExpr renders e starting at column indent; the first line is not padded.
func FormatExpr(e Expr, indent int) string {
	if s, ok := inline(e); ok {
		return s
	}

	switch e := e.(type) {
	case Object:
		var sb strings.Builder
		sb.WriteString("{\n")
		for i, p := range e.Props {
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(prop(p, indent+indentWidth))
			if i < len(e.Props)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(pad(indent))
		sb.WriteString("}")
		return sb.String()

	case Array:
		var sb strings.Builder
		sb.WriteString("[\n")
		for i, item := range e.Items {
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(FormatExpr(item, indent+indentWidth))
			if i < len(e.Items)-1 {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(pad(indent))
		sb.WriteString("]")
		return sb.String()

	case CallExpr:
		// Only the last argument breaks: keep the call open on the first line
		last := len(e.Args) - 1
		head := make([]string, 0, len(e.Args))
		simpleTail := true
		for i, a := range e.Args {
			if i == last {
				break
			}
			s, ok := inline(a)
			if !ok {
				simpleTail = false
				break
			}
			head = append(head, s)
		}
		if simpleTail {
			head = append(head, FormatExpr(e.Args[last], indent))
			return e.Fn + "(" + strings.Join(head, ", ") + ")"
		}

		var sb strings.Builder
		sb.WriteString(e.Fn + "(\n")
		for i, a := range e.Args {
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(FormatExpr(a, indent+indentWidth))
			if i < last {
				sb.WriteString(",")
			}
			sb.WriteString("\n")
		}
		sb.WriteString(pad(indent))
		sb.WriteString(")")
		return sb.String()

	case Arrow:
		prefix := ""
		if e.Async {
			prefix = "async "
		}
		return prefix + "(" + strings.Join(e.Params, ", ") + ") => " + block(e.Body, indent)
	}
	return ""
}

func prop(p Prop, indent int) string {
	if p.Value == nil {
		return p.Key
	}
	return p.Key + ": " + FormatExpr(p.Value, indent)
}

func inline(e Expr) (string, bool) {
	switch e := e.(type) {
	case Code:
		return string(e), true
	case Str:
		return quote(string(e)), true
	case Object:
		if len(e.Props) == 0 {
			return "{}", true
		}
		return "", false
	case Array:
		parts := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			s, ok := inline(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		out := "[" + strings.Join(parts, ", ") + "]"
		if len(out) > maxInline {
			return "", false
		}
		return out, true
	case CallExpr:
		parts := make([]string, 0, len(e.Args))
		for _, a := range e.Args {
			s, ok := inline(a)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return e.Fn + "(" + strings.Join(parts, ", ") + ")", true
	}
	return "", false
}

// quote renders a single-quoted string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// Quote is the exported form of the string literal renderer.
func Quote(s string) string {
	return quote(s)
}

func pad(n int) string {
	return strings.Repeat(" ", n)
}
