package elm

import (
	"strconv"
	"strings"
)

const indentWidth = 4

// Format renders m. Output is deterministic and ends with a single newline.
// One blank line follows the header and doc, two precede declarations.
func Format(m Module) []byte {
	var sb strings.Builder

	if m.Port {
		sb.WriteString("port ")
	}
	sb.WriteString("module ")
	sb.WriteString(m.Name)
	sb.WriteString(" exposing ")
	sb.WriteString(exposing(m.Exposing))

	if m.Doc != "" {
		sb.WriteString("\n\n")
		sb.WriteString(strings.TrimRight(docComment(m.Doc), "\n"))
	}

	if len(m.Imports) > 0 {
		sb.WriteString("\n")
		for _, imp := range m.Imports {
			sb.WriteString("\nimport ")
			sb.WriteString(imp.Module)
			if imp.As != "" {
				sb.WriteString(" as ")
				sb.WriteString(imp.As)
			}
			if imp.Exposing != nil {
				sb.WriteString(" exposing ")
				sb.WriteString(exposing(imp.Exposing))
			}
		}
	}

	for _, d := range m.Decls {
		sb.WriteString("\n\n\n")
		sb.WriteString(FormatDecl(d))
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}

func exposing(names []string) string {
	if names == nil {
		return "(..)"
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func docComment(doc string) string {
	return "{-| " + strings.TrimSpace(doc) + "\n-}\n"
}

// FormatDecl renders one declaration without surrounding blank lines.
func FormatDecl(d Decl) string {
	var sb strings.Builder
	switch d := d.(type) {
	case Section:
		sb.WriteString("-- ")
		sb.WriteString(d.Title)

	case TypeAlias:
		if d.Doc != "" {
			sb.WriteString(docComment(d.Doc))
		}
		sb.WriteString("type alias ")
		sb.WriteString(head(d.Name, d.Params))
		sb.WriteString(" =\n")
		sb.WriteString(pad(indentWidth))
		if d.Fields == nil && d.Type != "" {
			sb.WriteString(d.Type)
			break
		}
		sb.WriteString(recordType(d.Fields, indentWidth))

	case Union:
		if d.Doc != "" {
			sb.WriteString(docComment(d.Doc))
		}
		sb.WriteString("type ")
		sb.WriteString(head(d.Name, d.Params))
		for i, v := range d.Variants {
			sb.WriteString("\n")
			sb.WriteString(pad(indentWidth))
			if i == 0 {
				sb.WriteString("= ")
			} else {
				sb.WriteString("| ")
			}
			sb.WriteString(head(v.Name, v.Args))
		}

	case Port:
		sb.WriteString("port ")
		sb.WriteString(d.Name)
		sb.WriteString(" : ")
		sb.WriteString(d.Type)

	case Func:
		if d.Doc != "" {
			sb.WriteString(docComment(d.Doc))
		}
		if d.Type != "" {
			sb.WriteString(d.Name)
			sb.WriteString(" : ")
			sb.WriteString(d.Type)
			sb.WriteString("\n")
		}
		sb.WriteString(head(d.Name, d.Params))
		sb.WriteString(" =\n")
		sb.WriteString(pad(indentWidth))
		sb.WriteString(FormatExpr(d.Body, indentWidth))

	case RawDecl:
		sb.WriteString(strings.TrimRight(d.Text, "\n"))
	}
	return sb.String()
}

func head(name string, params []string) string {
	if len(params) == 0 {
		return name
	}
	return name + " " + strings.Join(params, " ")
}

func recordType(fields []Field, indent int) string {
	if len(fields) == 0 {
		return "{}"
	}
	var sb strings.Builder
	for i, f := range fields {
		if i == 0 {
			sb.WriteString("{ ")
		} else {
			sb.WriteString("\n")
			sb.WriteString(pad(indent))
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(" : ")
		sb.WriteString(f.Type)
		if f.Comment != "" {
			sb.WriteString(" -- ")
			sb.WriteString(f.Comment)
		}
	}
	sb.WriteString("\n")
	sb.WriteString(pad(indent))
	sb.WriteString("}")
	return sb.String()
}

// FormatExpr renders e as if its first line starts at column indent.
// The first line carries no leading spaces; later lines are fully indented.
func FormatExpr(e Expr, indent int) string {
	if s, ok := inline(e); ok {
		return s
	}

	switch e := e.(type) {
	case App:
		var sb strings.Builder
		fn, ok := inline(e.Fn)
		if !ok {
			fn = FormatExpr(e.Fn, indent)
		}
		sb.WriteString(fn)
		for _, a := range e.Args {
			sb.WriteString("\n")
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(argument(a, indent+indentWidth))
		}
		return sb.String()

	case Pipe:
		var sb strings.Builder
		sb.WriteString(FormatExpr(e.Head, indent))
		for _, step := range e.Steps {
			sb.WriteString("\n")
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString("|> ")
			sb.WriteString(FormatExpr(step, indent+indentWidth+3))
		}
		return sb.String()

	case List:
		return sequence("[", "]", e.Items, indent)

	case Tuple:
		return sequence("(", ")", e.Items, indent)

	case Record:
		var sb strings.Builder
		for i, f := range e.Fields {
			if i == 0 {
				sb.WriteString("{ ")
			} else {
				sb.WriteString("\n")
				sb.WriteString(pad(indent))
				sb.WriteString(", ")
			}
			sb.WriteString(assignment(f, indent))
		}
		sb.WriteString("\n")
		sb.WriteString(pad(indent))
		sb.WriteString("}")
		return sb.String()

	case Update:
		var sb strings.Builder
		sb.WriteString("{ ")
		sb.WriteString(e.Target)
		for i, f := range e.Fields {
			sb.WriteString("\n")
			sb.WriteString(pad(indent + indentWidth))
			if i == 0 {
				sb.WriteString("| ")
			} else {
				sb.WriteString(", ")
			}
			sb.WriteString(assignment(f, indent+indentWidth))
		}
		sb.WriteString("\n")
		sb.WriteString(pad(indent))
		sb.WriteString("}")
		return sb.String()

	case Let:
		var sb strings.Builder
		sb.WriteString("let\n")
		for i, b := range e.Bindings {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(b.Name)
			sb.WriteString(" =\n")
			sb.WriteString(pad(indent + 2*indentWidth))
			sb.WriteString(FormatExpr(b.Value, indent+2*indentWidth))
			sb.WriteString("\n")
		}
		sb.WriteString(pad(indent))
		sb.WriteString("in\n")
		sb.WriteString(pad(indent))
		sb.WriteString(FormatExpr(e.In, indent))
		return sb.String()

	case Case:
		var sb strings.Builder
		sb.WriteString("case ")
		sb.WriteString(FormatExpr(e.Subject, indent+5))
		sb.WriteString(" of")
		for i, b := range e.Branches {
			sb.WriteString("\n")
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(pad(indent + indentWidth))
			sb.WriteString(b.Pattern)
			sb.WriteString(" ->\n")
			sb.WriteString(pad(indent + 2*indentWidth))
			sb.WriteString(FormatExpr(b.Body, indent+2*indentWidth))
		}
		return sb.String()

	case If:
		var sb strings.Builder
		sb.WriteString("if ")
		sb.WriteString(FormatExpr(e.Cond, indent+3))
		sb.WriteString(" then\n")
		sb.WriteString(pad(indent + indentWidth))
		sb.WriteString(FormatExpr(e.Then, indent+indentWidth))
		sb.WriteString("\n\n")
		sb.WriteString(pad(indent))
		sb.WriteString("else\n")
		sb.WriteString(pad(indent + indentWidth))
		sb.WriteString(FormatExpr(e.Else, indent+indentWidth))
		return sb.String()

	case Lambda:
		return "\\" + strings.Join(e.Params, " ") + " ->\n" +
			pad(indent+indentWidth) + FormatExpr(e.Body, indent+indentWidth)

	case Op:
		return FormatExpr(e.Left, indent) + "\n" + pad(indent+indentWidth) +
			e.Op + " " + FormatExpr(e.Right, indent+indentWidth+len(e.Op)+1)
	}
	return ""
}

func sequence(open, close string, items []Expr, indent int) string {
	var sb strings.Builder
	for i, item := range items {
		if i == 0 {
			sb.WriteString(open)
			sb.WriteString(" ")
		} else {
			sb.WriteString("\n")
			sb.WriteString(pad(indent))
			sb.WriteString(", ")
		}
		sb.WriteString(FormatExpr(item, indent+2))
	}
	sb.WriteString("\n")
	sb.WriteString(pad(indent))
	sb.WriteString(close)
	return sb.String()
}

func assignment(a Assign, indent int) string {
	if v, ok := inline(a.Value); ok {
		return a.Name + " = " + v
	}
	return a.Name + " =\n" + pad(indent+indentWidth) + FormatExpr(a.Value, indent+indentWidth)
}

// argument renders a function argument, parenthesizing applications.
func argument(a Expr, indent int) string {
	if !needsParens(a) {
		return FormatExpr(a, indent)
	}
	if s, ok := inline(a); ok {
		return "(" + s + ")"
	}
	return "(" + FormatExpr(a, indent+1) + "\n" + pad(indent) + ")"
}

func needsParens(e Expr) bool {
	switch e := e.(type) {
	case App:
		return len(e.Args) > 0
	case Op, Lambda, Pipe, Let, Case, If:
		return true
	case Int:
		return e < 0
	}
	return false
}

// inline renders e on one line, or reports that it must break.
func inline(e Expr) (string, bool) {
	switch e := e.(type) {
	case Ref:
		return string(e), true
	case Str:
		return Quote(string(e)), true
	case Int:
		return strconv.Itoa(int(e)), true

	case App:
		fn, ok := inline(e.Fn)
		if !ok {
			return "", false
		}
		parts := []string{fn}
		for _, a := range e.Args {
			s, ok := inline(a)
			if !ok {
				return "", false
			}
			if needsParens(a) {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, " "), true

	case Op:
		l, ok := inline(e.Left)
		if !ok {
			return "", false
		}
		r, ok := inline(e.Right)
		if !ok {
			return "", false
		}
		if _, isLambda := e.Left.(Lambda); isLambda {
			l = "(" + l + ")"
		}
		return l + " " + e.Op + " " + r, true

	case List:
		if len(e.Items) == 0 {
			return "[]", true
		}
		if len(e.Items) == 1 {
			s, ok := inline(e.Items[0])
			if ok {
				return "[ " + s + " ]", true
			}
		}
		return "", false

	case Tuple:
		parts := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			s, ok := inline(item)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return "( " + strings.Join(parts, ", ") + " )", true

	case Record:
		if len(e.Fields) == 0 {
			return "{}", true
		}
		return "", false

	case Update:
		if len(e.Fields) != 1 {
			return "", false
		}
		v, ok := inline(e.Fields[0].Value)
		if !ok {
			return "", false
		}
		return "{ " + e.Target + " | " + e.Fields[0].Name + " = " + v + " }", true

	case Lambda:
		body, ok := inline(e.Body)
		if !ok {
			return "", false
		}
		return "\\" + strings.Join(e.Params, " ") + " -> " + body, true
	}
	return "", false
}

// Quote renders s as an Elm string literal.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func pad(n int) string {
	return strings.Repeat(" ", n)
}
