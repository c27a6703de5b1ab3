// Package js is a statement-level JavaScript (ES module) tree and its formatter.
//
// Expressions are mostly carried as pre-rendered code; the tree owns the
// structure that is easy to get wrong by hand: blocks, braces, semicolons,
// multi-line object and array literals, and indentation.
package js

// File is one .js module.
type File struct {
	// Header renders as a leading /** */ block, one entry per line
	Header  []string
	Imports []Import
	Body    []Node
}

// Import is `import Default, { Names } from 'From'`.
type Import struct {
	Default string
	Names   []string
	From    string
}

// Node is a top-level item.
type Node interface{ node() }

// Comment renders `// Text`.
type Comment struct {
	Text string
}

// Func is a function declaration.
type Func struct {
	Doc     []string
	Export  bool
	Default bool
	Async   bool
	Name    string
	Params  []string
	Body    []Stmt
}

// Class is a class declaration.
type Class struct {
	Doc     []string
	Export  bool
	Name    string
	Methods []Method
}

// Method is a class method; Name "constructor" is rendered as such.
type Method struct {
	Doc    []string
	Static bool
	Async  bool
	Name   string
	Params []string
	Body   []Stmt
}

// Const is a top-level `const Name = Value;`.
type Const struct {
	Doc    []string
	Export bool
	Name   string
	Value  Expr
}

// Raw is emitted verbatim.
type Raw struct {
	Text string
}

func (Comment) node() {}
func (Func) node()    {}
func (Class) node()   {}
func (Const) node()   {}
func (Raw) node()     {}

// Stmt is a statement inside a block.
type Stmt interface{ stmt() }

// Do is an expression statement.
type Do struct {
	X Expr
}

// Var is `const|let Name = Value;`.
type Var struct {
	Kind  string
	Name  string
	Value Expr
}

// Assign is `Target = Value;`.
type Assign struct {
	Target string
	Value  Expr
}

// Return is `return Value;` or a bare `return;` when Value is nil.
type Return struct {
	Value Expr
}

// If is `if (Cond) { Then } else { Else }`.
type If struct {
	Cond string
	Then []Stmt
	Else []Stmt
}

// Try is `try { Body } catch (Var) { Catch }`.
type Try struct {
	Body  []Stmt
	Var   string
	Catch []Stmt
}

// ForOf is `for (const Var of Iter) { Body }`.
type ForOf struct {
	Var  string
	Iter string
	Body []Stmt
}

// Throw is `throw Value;`.
type Throw struct {
	Value Expr
}

// Blank is an empty line.
type Blank struct{}

// LineComment is `// Text` inside a block.
type LineComment struct {
	Text string
}

func (Do) stmt()          {}
func (Var) stmt()         {}
func (Assign) stmt()      {}
func (Return) stmt()      {}
func (If) stmt()          {}
func (Try) stmt()         {}
func (ForOf) stmt()       {}
func (Throw) stmt()       {}
func (Blank) stmt()       {}
func (LineComment) stmt() {}

// Expr is an expression.
type Expr interface{ expr() }

// Code is a pre-rendered single-line expression.
type Code string

// Str is a single-quoted string literal; the formatter escapes it.
type Str string

// Object is an object literal, one property per line.
type Object struct {
	Props []Prop
}

// Prop is `Key: Value`, or shorthand `Key` when Value is nil.
type Prop struct {
	Key   string
	Value Expr
}

// Array is an array literal; it breaks over lines past one item
// or when any item breaks.
type Array struct {
	Items []Expr
}

// CallExpr is `Fn(args)`; arguments break over lines when any argument breaks.
type CallExpr struct {
	Fn   string
	Args []Expr
}

// Arrow is `(params) => { body }`.
type Arrow struct {
	Async  bool
	Params []string
	Body   []Stmt
}

func (Code) expr()     {}
func (Str) expr()      {}
func (Object) expr()   {}
func (Array) expr()    {}
func (CallExpr) expr() {}
func (Arrow) expr()    {}

// Call is shorthand for CallExpr.
func Call(fn string, args ...Expr) CallExpr {
	return CallExpr{Fn: fn, Args: args}
}
