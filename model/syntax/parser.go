package syntax

import (
	"fmt"
)

// Parse reads top-level items from src. It never fails outright: anything it
// cannot make sense of is skipped and reported in File.Problems.
func Parse(path, src string) *File {
	toks, lexErrs := Lex(src)
	p := &parser{toks: toks, file: &File{Path: path}}
	for _, err := range lexErrs {
		p.file.Problems = append(p.file.Problems, Problem{Message: err.Error()})
	}
	p.parseItems()
	return p.file
}

type parser struct {
	toks []Token
	pos  int
	file *File
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) Token {
	if p.pos+off >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+off]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(s string) bool {
	if p.peek().Is(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) problem(t Token, structName, field, format string, args ...interface{}) {
	p.file.Problems = append(p.file.Problems, Problem{
		Line:    t.Line,
		Col:     t.Col,
		Struct:  structName,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) parseItems() {
	for p.peek().Kind != EOF {
		start := p.pos
		attrs := p.parseOuterAttrs()

		// Inner attributes (#![...]) carry no item
		if p.peek().Is("#") && p.peekAt(1).Is("!") {
			p.next()
			p.next()
			p.skipDelimited()
			continue
		}

		public := p.parseVisibility()
		if p.peek().Is("struct") {
			p.next()
			if sd := p.parseStruct(public, attrs); sd != nil {
				p.file.Structs = append(p.file.Structs, sd)
			}
		} else {
			p.skipItem()
		}

		// Guarantee progress on stray tokens
		if p.pos == start {
			p.next()
		}
	}
}

// parseVisibility consumes `pub` and `pub(...)`. Only unrestricted `pub` is public.
func (p *parser) parseVisibility() bool {
	if !p.peek().Is("pub") {
		return false
	}
	p.next()
	if p.peek().Is("(") {
		p.skipDelimited()
		return false
	}
	return true
}

func (p *parser) parseOuterAttrs() []Attribute {
	var attrs []Attribute
	for p.peek().Is("#") && p.peekAt(1).Is("[") {
		p.next()
		open := p.next()
		attr, ok := p.parseAttrBody()
		if !ok {
			p.problem(open, "", "", "malformed attribute")
		} else {
			attrs = append(attrs, attr)
		}
	}
	return attrs
}

// parseAttrBody reads `name` or `name(args)` up to and including the closing `]`.
func (p *parser) parseAttrBody() (Attribute, bool) {
	var attr Attribute
	name := p.next()
	if name.Kind != Ident {
		p.skipUntilClose("[", "]", 1)
		return attr, false
	}
	attr.Name = name.Text
	for p.peek().Is(":") && p.peekAt(1).Is(":") {
		p.next()
		p.next()
		attr.Name += "::" + p.next().Text
	}

	switch {
	case p.accept("("):
		attr.Args = p.parseAttrArgs()
	case p.accept("="):
		v := p.next()
		attr.Args = []AttrArg{{Key: "", Value: v.Text}}
	}

	if !p.accept("]") {
		p.skipUntilClose("[", "]", 1)
		return attr, false
	}
	return attr, true
}

// parseAttrArgs reads `key = value, Flag, nested(..)` up to the closing `)`.
func (p *parser) parseAttrArgs() []AttrArg {
	var args []AttrArg
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			return args
		case t.Is(")"):
			p.next()
			return args
		case t.Is(","):
			p.next()
			continue
		}

		key := p.next()
		arg := AttrArg{Key: key.Text}
		switch {
		case p.accept("="):
			arg.Value = p.next().Text
		case p.peek().Is("("):
			p.skipDelimited()
		}
		args = append(args, arg)

		// Tolerate trailing junk before the next separator
		for !p.peek().Is(",") && !p.peek().Is(")") && p.peek().Kind != EOF {
			if p.peek().Is("(") || p.peek().Is("[") || p.peek().Is("{") {
				p.skipDelimited()
				continue
			}
			p.next()
		}
	}
}

func (p *parser) parseStruct(public bool, attrs []Attribute) *StructDecl {
	nameTok := p.next()
	if nameTok.Kind != Ident {
		p.problem(nameTok, "", "", "expected struct name, found %s", nameTok)
		p.skipItem()
		return nil
	}
	sd := &StructDecl{Name: nameTok.Text, Public: public, Attrs: attrs, Line: nameTok.Line}

	if p.peek().Is("<") {
		p.skipGenerics()
	}
	p.skipWhereClause()

	switch {
	case p.peek().Is("{"):
		p.next()
		sd.Fields = p.parseFields(sd.Name)
	case p.peek().Is("("):
		sd.Tuple = true
		p.skipDelimited()
		p.skipWhereClause()
		p.accept(";")
	case p.peek().Is(";"):
		sd.Tuple = true
		p.next()
	default:
		p.problem(p.peek(), sd.Name, "", "expected struct body, found %s", p.peek())
		p.skipItem()
		return nil
	}
	return sd
}

// parseFields reads named fields until the closing brace of the struct body.
func (p *parser) parseFields(structName string) []*FieldDecl {
	fields := []*FieldDecl{}
	for {
		if p.peek().Kind == EOF {
			p.problem(p.peek(), structName, "", "unterminated struct body")
			return fields
		}
		if p.accept("}") {
			return fields
		}
		if p.accept(",") {
			continue
		}

		attrs := p.parseOuterAttrs()
		public := p.parseVisibility()
		nameTok := p.peek()
		if nameTok.Kind != Ident {
			p.problem(nameTok, structName, "", "expected field name, found %s", nameTok)
			p.skipField()
			continue
		}
		p.next()

		if !p.accept(":") {
			p.problem(nameTok, structName, nameTok.Text, "field has no type")
			p.skipField()
			continue
		}

		typeStart := p.pos
		typ, ok := p.parseType()
		if !ok || !p.atFieldEnd() {
			p.problem(p.toks[typeStart], structName, nameTok.Text, "cannot parse field type")
			p.pos = typeStart
			p.skipField()
			continue
		}

		fields = append(fields, &FieldDecl{
			Name:   nameTok.Text,
			Public: public,
			Type:   typ,
			Attrs:  attrs,
			Line:   nameTok.Line,
		})
	}
}

func (p *parser) atFieldEnd() bool {
	return p.peek().Is(",") || p.peek().Is("}")
}

// skipField advances to the next `,` or the closing `}` at the current depth.
// Angle brackets are not tracked: an unbalanced `<` is the usual reason to be here.
func (p *parser) skipField() {
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF, t.Is("}"):
			return
		case t.Is(","):
			p.next()
			return
		case t.Is("(") || t.Is("[") || t.Is("{"):
			p.skipDelimited()
		default:
			p.next()
		}
	}
}

// parseType parses a type expression. ok is false when no type is present.
func (p *parser) parseType() (*TypeExpr, bool) {
	t := p.peek()
	switch {
	case t.Is("&"):
		p.next()
		if p.peek().Kind == Lifetime {
			p.next()
		}
		p.accept("mut")
		return p.parseType()
	case t.Is("*"):
		p.next()
		if !p.accept("const") {
			p.accept("mut")
		}
		return p.parseType()
	case t.Is("("):
		p.next()
		tuple := &TypeExpr{Name: "()"}
		for !p.accept(")") {
			if p.peek().Kind == EOF {
				return nil, false
			}
			elem, ok := p.parseType()
			if !ok {
				return nil, false
			}
			tuple.Args = append(tuple.Args, elem)
			if !p.accept(",") && !p.peek().Is(")") {
				return nil, false
			}
		}
		return tuple, true
	case t.Is("["):
		p.next()
		elem, ok := p.parseType()
		if !ok {
			return nil, false
		}
		if p.accept(";") {
			// Array length is an expression; only its extent matters
			for !p.peek().Is("]") && p.peek().Kind != EOF {
				p.next()
			}
		}
		if !p.accept("]") {
			return nil, false
		}
		return &TypeExpr{Name: "[]", Args: []*TypeExpr{elem}}, true
	case t.Is("dyn") || t.Is("impl"):
		p.next()
		return p.parseType()
	case t.Kind == Number:
		// Const generic argument, e.g. Bounded<i32, 0, 100>
		p.next()
		return &TypeExpr{Name: t.Text}, true
	case t.Is(":") && p.peekAt(1).Is(":"):
		p.next()
		p.next()
		return p.parseType()
	case t.Kind == Ident:
		return p.parsePath()
	}
	return nil, false
}

// parsePath parses a::b::Name<Args>; the head keeps only the final segment.
func (p *parser) parsePath() (*TypeExpr, bool) {
	name := p.next().Text
	for p.peek().Is(":") && p.peekAt(1).Is(":") && p.peekAt(2).Kind == Ident {
		p.next()
		p.next()
		name = p.next().Text
	}
	expr := &TypeExpr{Name: name}
	if !p.accept("<") {
		return expr, true
	}
	for !p.accept(">") {
		if p.peek().Kind == EOF {
			return nil, false
		}
		if p.peek().Kind == Lifetime {
			p.next()
		} else {
			arg, ok := p.parseType()
			if !ok {
				return nil, false
			}
			expr.Args = append(expr.Args, arg)
		}
		if !p.accept(",") && !p.peek().Is(">") {
			return nil, false
		}
	}
	return expr, true
}

// skipDelimited consumes a balanced (), [] or {} group starting at the current token.
func (p *parser) skipDelimited() {
	open := p.next()
	var closer string
	switch open.Text {
	case "(":
		closer = ")"
	case "[":
		closer = "]"
	case "{":
		closer = "}"
	default:
		return
	}
	p.skipUntilClose(open.Text, closer, 1)
}

func (p *parser) skipUntilClose(open, closer string, depth int) {
	for depth > 0 {
		t := p.next()
		switch {
		case t.Kind == EOF:
			return
		case t.Is(open):
			depth++
		case t.Is(closer):
			depth--
		}
	}
}

// skipGenerics consumes a <...> list, tracking nesting.
func (p *parser) skipGenerics() {
	depth := 0
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			return
		case t.Is("<"):
			depth++
		case t.Is(">"):
			depth--
			if depth == 0 {
				p.next()
				return
			}
		case t.Is("{") || t.Is(";"):
			return
		}
		p.next()
	}
}

func (p *parser) skipWhereClause() {
	if !p.peek().Is("where") {
		return
	}
	for !p.peek().Is("{") && !p.peek().Is(";") && p.peek().Kind != EOF {
		if p.peek().Is("(") || p.peek().Is("[") {
			p.skipDelimited()
			continue
		}
		p.next()
	}
}

// skipItem consumes one non-struct item: up to a `;` or a balanced `{}` block at depth zero.
func (p *parser) skipItem() {
	for {
		t := p.peek()
		switch {
		case t.Kind == EOF:
			return
		case t.Is(";"):
			p.next()
			return
		case t.Is("{"):
			p.skipDelimited()
			// `const X: T = S { .. };` continues after the block
			if p.peek().Is(";") {
				p.next()
			}
			return
		case t.Is("(") || t.Is("["):
			p.skipDelimited()
		case t.Is("#") && p.peekAt(1).Is("["):
			// Next item's attributes: the previous item ended without a terminator
			return
		default:
			p.next()
		}
	}
}
