// Package model holds the structural model extracted from one source file
// and the generated units produced from it. Values are immutable once built.
package model

import (
	"strings"

	skerrors "skelgen/internal/errors"
)

// VoidTypeName is the return type name meaning "no return value".
const VoidTypeName = "void"

// TypeRef is a type name plus a syntactic abstraction flag.
type TypeRef struct {
	name          string
	isAbstraction bool
}

// NewTypeRef builds a TypeRef. A type is treated as an abstraction when its
// name starts with a capital I; no interface resolution is attempted.
func NewTypeRef(name string) (TypeRef, error) {
	if name == "" {
		return TypeRef{}, skerrors.New(skerrors.ArgumentFailure, "type name must not be empty")
	}
	return TypeRef{name: name, isAbstraction: strings.HasPrefix(name, "I")}, nil
}

// Name returns the declared type name.
func (t TypeRef) Name() string { return t.name }

// IsAbstraction reports whether the type is eligible for mock substitution.
func (t TypeRef) IsAbstraction() bool { return t.isAbstraction }

// IsVoid reports whether the type is the void sentinel.
func (t TypeRef) IsVoid() bool { return t.name == VoidTypeName }

// IsZero reports whether t was never constructed.
func (t TypeRef) IsZero() bool { return t.name == "" }

// Parameter is a named, typed constructor or method parameter.
type Parameter struct {
	name string
	typ  TypeRef
}

// NewParameter builds a Parameter; both name and type are required.
func NewParameter(name string, typ TypeRef) (Parameter, error) {
	if name == "" {
		return Parameter{}, skerrors.New(skerrors.ArgumentFailure, "parameter name must not be empty")
	}
	if typ.IsZero() {
		return Parameter{}, skerrors.Newf(skerrors.ArgumentFailure, "parameter %q has no type", name)
	}
	return Parameter{name: name, typ: typ}, nil
}

func (p Parameter) Name() string  { return p.name }
func (p Parameter) Type() TypeRef { return p.typ }

// Constructor is the selected public constructor of a class. No parameters
// means the class is instantiated with a zero-argument call.
type Constructor struct {
	parameters []Parameter
}

// NewConstructor copies params into a new Constructor.
func NewConstructor(params []Parameter) Constructor {
	return Constructor{parameters: cloneParams(params)}
}

// Parameters returns the parameters in declaration order.
func (c Constructor) Parameters() []Parameter { return cloneParams(c.parameters) }

// Method is a public method of a class.
type Method struct {
	name       string
	returnType TypeRef
	parameters []Parameter
	static     bool
}

// NewMethod builds a Method; name and return type are required.
func NewMethod(name string, returnType TypeRef, params []Parameter, static bool) (Method, error) {
	if name == "" {
		return Method{}, skerrors.New(skerrors.ArgumentFailure, "method name must not be empty")
	}
	if returnType.IsZero() {
		return Method{}, skerrors.Newf(skerrors.ArgumentFailure, "method %q has no return type", name)
	}
	return Method{name: name, returnType: returnType, parameters: cloneParams(params), static: static}, nil
}

func (m Method) Name() string            { return m.name }
func (m Method) ReturnType() TypeRef     { return m.returnType }
func (m Method) Parameters() []Parameter { return cloneParams(m.parameters) }
func (m Method) Static() bool            { return m.static }

// ClassUnit is one class discovered in a source file.
type ClassUnit struct {
	name        string
	namespace   string
	enclosing   []string
	constructor Constructor
	methods     []Method
}

// NewClassUnit builds a ClassUnit; name and namespace are required.
func NewClassUnit(name, namespace string, ctor Constructor, methods []Method) (ClassUnit, error) {
	if name == "" {
		return ClassUnit{}, skerrors.New(skerrors.ArgumentFailure, "class name must not be empty")
	}
	if namespace == "" {
		return ClassUnit{}, skerrors.Newf(skerrors.ArgumentFailure, "class %q has no namespace", name)
	}
	return ClassUnit{
		name:        name,
		namespace:   namespace,
		constructor: ctor,
		methods:     append([]Method(nil), methods...),
	}, nil
}

// WithEnclosing returns a copy of c nested in the given classes, outermost
// first.
func (c ClassUnit) WithEnclosing(outer ...string) (ClassUnit, error) {
	for _, o := range outer {
		if o == "" {
			return ClassUnit{}, skerrors.Newf(skerrors.ArgumentFailure, "class %q has an unnamed enclosing class", c.name)
		}
	}
	c.enclosing = append([]string(nil), outer...)
	return c, nil
}

func (c ClassUnit) Name() string             { return c.name }
func (c ClassUnit) Namespace() string        { return c.namespace }
func (c ClassUnit) Constructor() Constructor { return c.constructor }
func (c ClassUnit) Methods() []Method        { return append([]Method(nil), c.methods...) }
func (c ClassUnit) Enclosing() []string      { return append([]string(nil), c.enclosing...) }

// QualifiedName is the name as seen from the namespace, e.g. "Outer.Inner".
func (c ClassUnit) QualifiedName() string {
	return strings.Join(append(c.Enclosing(), c.name), ".")
}

// FileUnit is the analyzer's output for one source file.
type FileUnit struct {
	imports []string
	classes []ClassUnit
}

// NewFileUnit copies imports and classes into a new FileUnit.
func NewFileUnit(imports []string, classes []ClassUnit) *FileUnit {
	return &FileUnit{
		imports: append([]string(nil), imports...),
		classes: append([]ClassUnit(nil), classes...),
	}
}

func (f *FileUnit) Imports() []string    { return append([]string(nil), f.imports...) }
func (f *FileUnit) Classes() []ClassUnit { return append([]ClassUnit(nil), f.classes...) }

// GeneratedUnit is one generated test file, relative to the output directory.
type GeneratedUnit struct {
	RelativePath string `json:"relativePath" yaml:"relativePath" toml:"relative_path"`
	Content      string `json:"-" yaml:"-" toml:"-"`
}

// NewGeneratedUnit builds a GeneratedUnit; the path is required.
func NewGeneratedUnit(relativePath, content string) (GeneratedUnit, error) {
	if relativePath == "" {
		return GeneratedUnit{}, skerrors.New(skerrors.ArgumentFailure, "generated unit needs a relative path")
	}
	return GeneratedUnit{RelativePath: relativePath, Content: content}, nil
}

func cloneParams(params []Parameter) []Parameter {
	if len(params) == 0 {
		return nil
	}
	return append([]Parameter(nil), params...)
}
