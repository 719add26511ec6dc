package model

import (
	"testing"

	skerrors "skelgen/internal/errors"
)

func mustType(t *testing.T, name string) TypeRef {
	t.Helper()
	typ, err := NewTypeRef(name)
	if err != nil {
		t.Fatalf("NewTypeRef(%q): %v", name, err)
	}
	return typ
}

func TestNewTypeRef(t *testing.T) {
	tests := []struct {
		name        string
		abstraction bool
		void        bool
	}{
		{"IRepository", true, false},
		{"Repository", false, false},
		{"int", false, false},
		{"void", false, true},
		{"IList<int>", true, false},
		{"iPhone", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := mustType(t, tt.name)
			if typ.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", typ.Name(), tt.name)
			}
			if typ.IsAbstraction() != tt.abstraction {
				t.Errorf("IsAbstraction() = %v, want %v", typ.IsAbstraction(), tt.abstraction)
			}
			if typ.IsVoid() != tt.void {
				t.Errorf("IsVoid() = %v, want %v", typ.IsVoid(), tt.void)
			}
		})
	}

	if _, err := NewTypeRef(""); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("NewTypeRef(\"\") error = %v, want ARGUMENT_FAILURE", err)
	}
}

func TestNewParameter(t *testing.T) {
	if _, err := NewParameter("", mustType(t, "int")); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("empty name error = %v, want ARGUMENT_FAILURE", err)
	}
	if _, err := NewParameter("x", TypeRef{}); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("missing type error = %v, want ARGUMENT_FAILURE", err)
	}

	p, err := NewParameter("repo", mustType(t, "IRepository"))
	if err != nil {
		t.Fatalf("NewParameter: %v", err)
	}
	if p.Name() != "repo" || p.Type().Name() != "IRepository" {
		t.Errorf("got %s %s", p.Type().Name(), p.Name())
	}
}

func TestNewClassUnit(t *testing.T) {
	if _, err := NewClassUnit("", "Ns", Constructor{}, nil); err == nil {
		t.Error("empty class name should fail")
	}
	if _, err := NewClassUnit("Foo", "", Constructor{}, nil); err == nil {
		t.Error("empty namespace should fail")
	}

	m, err := NewMethod("Run", mustType(t, "void"), nil, false)
	if err != nil {
		t.Fatalf("NewMethod: %v", err)
	}
	c, err := NewClassUnit("Foo", "Ns", Constructor{}, []Method{m})
	if err != nil {
		t.Fatalf("NewClassUnit: %v", err)
	}
	if len(c.Constructor().Parameters()) != 0 {
		t.Error("zero-value constructor should have no parameters")
	}
	if len(c.Methods()) != 1 || c.Methods()[0].Name() != "Run" {
		t.Errorf("Methods() = %v", c.Methods())
	}
}

func TestClassUnit_WithEnclosing(t *testing.T) {
	c, err := NewClassUnit("Inner", "Ns", Constructor{}, nil)
	if err != nil {
		t.Fatalf("NewClassUnit: %v", err)
	}
	if c.QualifiedName() != "Inner" {
		t.Errorf("QualifiedName() = %q, want Inner", c.QualifiedName())
	}

	nested, err := c.WithEnclosing("Outer", "Middle")
	if err != nil {
		t.Fatalf("WithEnclosing: %v", err)
	}
	if nested.QualifiedName() != "Outer.Middle.Inner" {
		t.Errorf("QualifiedName() = %q, want Outer.Middle.Inner", nested.QualifiedName())
	}
	if nested.Name() != "Inner" {
		t.Errorf("Name() = %q, want Inner", nested.Name())
	}
	if c.QualifiedName() != "Inner" {
		t.Error("WithEnclosing should not modify the receiver")
	}

	if _, err := c.WithEnclosing(""); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("WithEnclosing(\"\") error = %v, want ARGUMENT_FAILURE", err)
	}
}

func TestNewMethod_RequiresReturnType(t *testing.T) {
	if _, err := NewMethod("Run", TypeRef{}, nil, false); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("error = %v, want ARGUMENT_FAILURE", err)
	}
	if _, err := NewMethod("", mustType(t, "int"), nil, false); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("error = %v, want ARGUMENT_FAILURE", err)
	}
}

func TestValuesAreImmutable(t *testing.T) {
	params := []Parameter{}
	p, _ := NewParameter("x", mustType(t, "int"))
	params = append(params, p)

	ctor := NewConstructor(params)
	params[0], _ = NewParameter("y", mustType(t, "int"))
	if got := ctor.Parameters()[0].Name(); got != "x" {
		t.Errorf("constructor saw caller mutation: %q", got)
	}

	got := ctor.Parameters()
	got[0], _ = NewParameter("z", mustType(t, "int"))
	if ctor.Parameters()[0].Name() != "x" {
		t.Error("Parameters() must return a copy")
	}

	imports := []string{"System"}
	file := NewFileUnit(imports, nil)
	imports[0] = "Changed"
	if file.Imports()[0] != "System" {
		t.Error("FileUnit saw caller mutation")
	}
}

func TestNewGeneratedUnit(t *testing.T) {
	if _, err := NewGeneratedUnit("", "x"); err == nil {
		t.Error("empty path should fail")
	}
	u, err := NewGeneratedUnit("FooTest.cs", "content")
	if err != nil {
		t.Fatalf("NewGeneratedUnit: %v", err)
	}
	if u.RelativePath != "FooTest.cs" || u.Content != "content" {
		t.Errorf("got %+v", u)
	}
}
