// Package elm is a small Elm syntax tree and the one formatter that renders it.
//
// Emitters build Modules from declarations and expressions; Format owns
// layout (indentation, list and record breaking, blank lines between
// declarations) so every generated module shares one correct shape.
package elm

// Module is one .elm file.
type Module struct {
	Name string
	Port bool
	// Exposing lists exported names; nil exposes everything (..)
	Exposing []string
	Doc      string
	Imports  []Import
	Decls    []Decl
}

// Import is `import Module as Alias exposing (..)`.
type Import struct {
	Module   string
	As       string
	Exposing []string
}

// Decl is a top-level declaration.
type Decl interface{ decl() }

// Section is a `-- TITLE` comment separating groups of declarations.
type Section struct {
	Title string
}

// TypeAlias is `type alias Name params = { fields }` or `= Type` when Fields is nil.
type TypeAlias struct {
	Doc    string
	Name   string
	Params []string
	Fields []Field
	Type   string
}

// Field is one record field; Comment renders as a trailing `-- comment`.
type Field struct {
	Name    string
	Type    string
	Comment string
}

// Union is a custom type.
type Union struct {
	Doc      string
	Name     string
	Params   []string
	Variants []Variant
}

// Variant is one constructor with its argument types.
type Variant struct {
	Name string
	Args []string
}

// Port declares `port name : Type`.
type Port struct {
	Name string
	Type string
}

// Func is a value or function declaration with an optional annotation.
type Func struct {
	Doc    string
	Name   string
	Type   string
	Params []string
	Body   Expr
}

// RawDecl is emitted verbatim. Reserved for fixed framework text that the
// tree cannot express.
type RawDecl struct {
	Text string
}

func (Section) decl()   {}
func (TypeAlias) decl() {}
func (Union) decl()     {}
func (Port) decl()      {}
func (Func) decl()      {}
func (RawDecl) decl()   {}

// Expr is an expression.
type Expr interface{ expr() }

// Ref is an identifier, qualified name or pre-rendered atom such as
// `Decode.string` or `(Decode.list Decode.int)`.
type Ref string

// Str is a string literal; Format escapes it.
type Str string

// Int is an integer literal.
type Int int

// App applies Fn to Args. Non-atomic arguments are parenthesized.
type App struct {
	Fn   Expr
	Args []Expr
}

// Op is an inline binary operator application, e.g. `a ++ b`.
type Op struct {
	Left  Expr
	Op    string
	Right Expr
}

// Pipe renders `Head |> step |> step`, one step per line.
type Pipe struct {
	Head  Expr
	Steps []Expr
}

// List is a list literal; it breaks over lines when it has more than one item
// or any item is itself broken.
type List struct {
	Items []Expr
}

// Tuple renders `( a, b )`.
type Tuple struct {
	Items []Expr
}

// Record is a record literal, one field per line.
type Record struct {
	Fields []Assign
}

// Update is `{ target | field = value }`.
type Update struct {
	Target string
	Fields []Assign
}

// Assign is `name = value`.
type Assign struct {
	Name  string
	Value Expr
}

// Let binds values for In.
type Let struct {
	Bindings []Assign
	In       Expr
}

// Case matches Subject against branches.
type Case struct {
	Subject  Expr
	Branches []Branch
}

// Branch is `pattern -> body`.
type Branch struct {
	Pattern string
	Body    Expr
}

// Lambda is `\params -> body`.
type Lambda struct {
	Params []string
	Body   Expr
}

// If is `if cond then a else b`.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (Ref) expr()    {}
func (Str) expr()    {}
func (Int) expr()    {}
func (App) expr()    {}
func (Op) expr()     {}
func (Pipe) expr()   {}
func (List) expr()   {}
func (Tuple) expr()  {}
func (Record) expr() {}
func (Update) expr() {}
func (Let) expr()    {}
func (Case) expr()   {}
func (Lambda) expr() {}
func (If) expr()     {}

// Call is shorthand for App with a named function.
func Call(fn string, args ...Expr) App {
	return App{Fn: Ref(fn), Args: args}
}
