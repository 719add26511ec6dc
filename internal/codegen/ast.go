// Package codegen holds the output syntax tree for generated C# test files
// and the Renderer that prints it.
package codegen

// CompilationUnit is one generated source file.
type CompilationUnit struct {
	Usings    []string
	Namespace *Namespace
}

// Namespace is a block namespace declaration.
type Namespace struct {
	Name    string
	Classes []*Class
}

// Class is a class declaration.
type Class struct {
	Attributes []string
	Modifiers  []string
	Name       string
	Members    []Member
}

// Member is a field or method declaration inside a class.
type Member interface {
	member()
}

// Field declares a single uninitialized field.
type Field struct {
	Modifiers []string
	Type      Type
	Name      string
}

// Method is a method declaration. Body statements are grouped; the printer
// separates groups with a blank line.
type Method struct {
	Attributes []string
	Modifiers  []string
	ReturnType Type
	Name       string
	Body       [][]Statement
}

func (*Field) member()  {}
func (*Method) member() {}

// Type is a type reference. Name is printed verbatim, followed by the type
// arguments if there are any.
type Type struct {
	Name string
	Args []Type
}

// Named returns a Type without type arguments.
func Named(name string) Type { return Type{Name: name} }

// Generic returns name<args...>.
func Generic(name string, args ...Type) Type { return Type{Name: name, Args: args} }

// Statement is a statement inside a method body.
type Statement interface {
	statement()
}

// LocalDeclaration declares and initializes one local variable.
type LocalDeclaration struct {
	Type Type
	Name string
	Init Expr
}

// ExpressionStatement is an expression followed by a semicolon.
type ExpressionStatement struct {
	Expr Expr
}

func (*LocalDeclaration) statement()    {}
func (*ExpressionStatement) statement() {}

// Expr is an expression.
type Expr interface {
	expr()
}

// Ident is a simple name.
type Ident struct {
	Name string
}

// MemberAccess is Target.Name.
type MemberAccess struct {
	Target Expr
	Name   string
}

// Invocation is Target(Args...).
type Invocation struct {
	Target Expr
	Args   []Expr
}

// ObjectCreation is new Type(Args...).
type ObjectCreation struct {
	Type Type
	Args []Expr
}

// Default is default(Type).
type Default struct {
	Type Type
}

// Assignment is Left = Right.
type Assignment struct {
	Left  Expr
	Right Expr
}

// StringLiteral is a regular C# string literal.
type StringLiteral struct {
	Value string
}

func (*Ident) expr()          {}
func (*MemberAccess) expr()   {}
func (*Invocation) expr()     {}
func (*ObjectCreation) expr() {}
func (*Default) expr()        {}
func (*Assignment) expr()     {}
func (*StringLiteral) expr()  {}

// Call is shorthand for invoking target.name(args...).
func Call(target Expr, name string, args ...Expr) *Invocation {
	return &Invocation{Target: &MemberAccess{Target: target, Name: name}, Args: args}
}

// Id is shorthand for &Ident{Name: name}.
func Id(name string) *Ident { return &Ident{Name: name} }
