// Package synth turns analyzed source files into skeletal MSTest/Moq test
// files: one generated unit per class, with arranged constructor and method
// arguments and a failing assertion that marks the test as unfinished.
package synth

import (
	"context"
	"iter"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"skelgen/internal/analyzer"
	"skelgen/internal/codegen"
	skerrors "skelgen/internal/errors"
	"skelgen/internal/model"
)

const (
	actualName       = "actual"
	expectedName     = "expected"
	instanceSuffix   = "UnderTest"
	testSuffix       = "Test"
	mockTypeName     = "Mock"
	mockInstanceName = "Object"
	assertName       = "Assert"
	initializerName  = "TestInitialize"
)

// Options controls the generated text.
type Options struct {
	FileExtension     string
	TestFramework     string
	MockFramework     string
	FailMarker        string
	InvokeVoidMethods bool
	NamespaceDirs     bool
}

// DefaultOptions returns the MSTest + Moq defaults.
func DefaultOptions() Options {
	return Options{
		FileExtension:     ".cs",
		TestFramework:     "Microsoft.VisualStudio.TestTools.UnitTesting",
		MockFramework:     "Moq",
		FailMarker:        "autogenerated",
		InvokeVoidMethods: true,
	}
}

// Synthesizer generates test units from source text.
type Synthesizer struct {
	analyzer *analyzer.Analyzer
	renderer codegen.Renderer
	opts     Options
}

// New creates a Synthesizer. Empty string options fall back to defaults.
func New(a *analyzer.Analyzer, r codegen.Renderer, opts Options) (*Synthesizer, error) {
	if a == nil {
		return nil, skerrors.New(skerrors.ArgumentFailure, "synthesizer needs an analyzer")
	}
	if r == nil {
		return nil, skerrors.New(skerrors.ArgumentFailure, "synthesizer needs a renderer")
	}
	def := DefaultOptions()
	if opts.FileExtension == "" {
		opts.FileExtension = def.FileExtension
	}
	if opts.TestFramework == "" {
		opts.TestFramework = def.TestFramework
	}
	if opts.MockFramework == "" {
		opts.MockFramework = def.MockFramework
	}
	if opts.FailMarker == "" {
		opts.FailMarker = def.FailMarker
	}
	return &Synthesizer{analyzer: a, renderer: r, opts: opts}, nil
}

// Generate returns one unit per class in source, in declaration order.
func (s *Synthesizer) Generate(ctx context.Context, source string) ([]model.GeneratedUnit, error) {
	var units []model.GeneratedUnit
	for unit, err := range s.Units(ctx, source) {
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

// Units yields one unit per class as each is rendered. A failure is yielded
// once, with a zero unit, and ends the sequence.
func (s *Synthesizer) Units(ctx context.Context, source string) iter.Seq2[model.GeneratedUnit, error] {
	return func(yield func(model.GeneratedUnit, error) bool) {
		if source == "" {
			yield(model.GeneratedUnit{}, skerrors.New(skerrors.ArgumentFailure, "source is absent"))
			return
		}
		file, err := s.analyzer.Analyze(ctx, source)
		if err != nil {
			yield(model.GeneratedUnit{}, err)
			return
		}
		for _, class := range file.Classes() {
			if err := ctx.Err(); err != nil {
				yield(model.GeneratedUnit{}, err)
				return
			}
			unit, err := s.unitFor(file.Imports(), class)
			if !yield(unit, err) || err != nil {
				return
			}
		}
	}
}

func (s *Synthesizer) unitFor(imports []string, class model.ClassUnit) (model.GeneratedUnit, error) {
	cu := &codegen.CompilationUnit{
		Usings: union(imports, []string{s.opts.TestFramework, s.opts.MockFramework, class.Namespace()}),
		Namespace: &codegen.Namespace{
			Name:    class.Namespace() + "." + testSuffix,
			Classes: []*codegen.Class{s.testClass(class)},
		},
	}
	content, err := s.renderer.Render(cu)
	if err != nil {
		return model.GeneratedUnit{}, skerrors.Wrap(skerrors.InternalError, "cannot render test for "+class.Name(), err)
	}
	return model.NewGeneratedUnit(s.relativePath(class), content)
}

func (s *Synthesizer) relativePath(class model.ClassUnit) string {
	name := class.Name() + testSuffix + s.opts.FileExtension
	if s.opts.NamespaceDirs {
		return path.Join(strings.ReplaceAll(class.Namespace(), ".", "/"), name)
	}
	return name
}

func (s *Synthesizer) testClass(class model.ClassUnit) *codegen.Class {
	testClassName := class.Name() + testSuffix
	field := lowerFirst(class.Name()) + instanceSuffix

	members := []codegen.Member{
		&codegen.Field{
			Modifiers: []string{"private"},
			Type:      codegen.Named(class.QualifiedName()),
			Name:      field,
		},
		s.initializer(class, field),
	}

	// A member may not share the enclosing class's name.
	taken := map[string]bool{testClassName: true, initializerName: true}
	for _, m := range class.Methods() {
		members = append(members, s.testMethod(class, m, field, uniqueName(taken, m.Name()+testSuffix)))
	}

	return &codegen.Class{
		Attributes: []string{"TestClass"},
		Modifiers:  []string{"public"},
		Name:       testClassName,
		Members:    members,
	}
}

func (s *Synthesizer) initializer(class model.ClassUnit, field string) *codegen.Method {
	locals := newScope()
	locals.reserve(field)
	arrange, args := s.arrange(locals, class.Constructor().Parameters())

	create := &codegen.ExpressionStatement{Expr: &codegen.Assignment{
		Left:  codegen.Id(field),
		Right: &codegen.ObjectCreation{Type: codegen.Named(class.QualifiedName()), Args: args},
	}}

	return &codegen.Method{
		Attributes: []string{initializerName},
		Modifiers:  []string{"public"},
		ReturnType: codegen.Named("void"),
		Name:       initializerName,
		Body:       [][]codegen.Statement{arrange, {create}},
	}
}

func (s *Synthesizer) testMethod(class model.ClassUnit, m model.Method, field, name string) *codegen.Method {
	locals := newScope()
	locals.reserve(field)
	returns := m.ReturnType()
	if !returns.IsVoid() {
		locals.reserve(actualName, expectedName)
	}
	arrange, args := s.arrange(locals, m.Parameters())

	var target codegen.Expr = codegen.Id(field)
	if m.Static() {
		target = codegen.Id(class.QualifiedName())
	}
	call := codegen.Call(target, m.Name(), args...)

	var act, assert []codegen.Statement
	if !returns.IsVoid() {
		act = append(act, &codegen.LocalDeclaration{
			Type: codegen.Named(returns.Name()),
			Name: actualName,
			Init: call,
		})
		expected := s.declare(expectedName, returns)
		assert = append(assert, expected, &codegen.ExpressionStatement{
			Expr: codegen.Call(codegen.Id(assertName), "AreEqual", argument(expectedName, returns), codegen.Id(actualName)),
		})
	} else if s.opts.InvokeVoidMethods {
		act = append(act, &codegen.ExpressionStatement{Expr: call})
	}
	assert = append(assert, &codegen.ExpressionStatement{
		Expr: codegen.Call(codegen.Id(assertName), "Fail", &codegen.StringLiteral{Value: s.opts.FailMarker}),
	})

	return &codegen.Method{
		Attributes: []string{"TestMethod"},
		Modifiers:  []string{"public"},
		ReturnType: codegen.Named("void"),
		Name:       name,
		Body:       [][]codegen.Statement{arrange, act, assert},
	}
}

// arrange declares one local per parameter and returns the argument list
// that passes them on.
func (s *Synthesizer) arrange(locals *scope, params []model.Parameter) ([]codegen.Statement, []codegen.Expr) {
	var stmts []codegen.Statement
	var args []codegen.Expr
	for _, p := range params {
		name := locals.declare(lowerFirst(p.Name()))
		stmts = append(stmts, s.declare(name, p.Type()))
		args = append(args, argument(name, p.Type()))
	}
	return stmts, args
}

// declare initializes an abstraction with a fresh mock and anything else
// with its default value.
func (s *Synthesizer) declare(name string, typ model.TypeRef) *codegen.LocalDeclaration {
	if typ.IsAbstraction() {
		mock := codegen.Generic(mockTypeName, codegen.Named(typ.Name()))
		return &codegen.LocalDeclaration{Type: mock, Name: name, Init: &codegen.ObjectCreation{Type: mock}}
	}
	return &codegen.LocalDeclaration{
		Type: codegen.Named(typ.Name()),
		Name: name,
		Init: &codegen.Default{Type: codegen.Named(typ.Name())},
	}
}

// argument passes a mock's underlying instance, or the local itself.
func argument(local string, typ model.TypeRef) codegen.Expr {
	if typ.IsAbstraction() {
		return &codegen.MemberAccess{Target: codegen.Id(local), Name: mockInstanceName}
	}
	return codegen.Id(local)
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// union appends groups in order, keeping the first occurrence of each name.
func union(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		for _, s := range g {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// scope hands out local variable names that are unique within one method.
type scope struct {
	used map[string]bool
}

func newScope() *scope {
	return &scope{used: make(map[string]bool)}
}

func (s *scope) reserve(names ...string) {
	for _, n := range names {
		s.used[n] = true
	}
}

func (s *scope) declare(name string) string {
	return uniqueName(s.used, name)
}

// uniqueName returns name, or name followed by the smallest positive number
// that is not yet taken, and marks the result as taken.
func uniqueName(taken map[string]bool, name string) string {
	candidate := name
	for i := 1; taken[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	taken[candidate] = true
	return candidate
}
