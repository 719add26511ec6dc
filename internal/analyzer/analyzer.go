// Package analyzer extracts the structural model (imports, classes, the
// widest public constructor, public methods) from source text.
//
// The analysis is purely syntactic. Types are never resolved; whether a
// type is an abstraction is decided from its name alone.
package analyzer

import (
	"context"
	"strings"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/model"
	"skelgen/internal/syntax"
)

const publicModifier = "public"

// Analyzer turns source text into a model.FileUnit.
type Analyzer struct {
	parser syntax.Parser
}

// New creates an Analyzer backed by parser.
func New(parser syntax.Parser) (*Analyzer, error) {
	if parser == nil {
		return nil, skerrors.New(skerrors.ArgumentFailure, "analyzer needs a parser")
	}
	return &Analyzer{parser: parser}, nil
}

// Analyze parses source and extracts one ClassUnit per class declaration.
func (a *Analyzer) Analyze(ctx context.Context, source string) (*model.FileUnit, error) {
	if source == "" {
		return nil, skerrors.New(skerrors.ParseFailure, "source is absent")
	}

	root, err := a.parser.Parse(ctx, source)
	if err != nil {
		if skerrors.Is(err, skerrors.ParseFailure) {
			return nil, err
		}
		return nil, skerrors.Wrap(skerrors.ParseFailure, "cannot parse source", err)
	}
	if root == nil {
		return nil, skerrors.New(skerrors.ParseFailure, "parser returned no tree")
	}

	var imports []string
	for _, u := range root.ChildrenOf(syntax.KindUsing) {
		imports = append(imports, u.Name)
	}

	var classes []model.ClassUnit
	var walkErr error
	syntax.Walk(root, func(n *syntax.Node, ancestors []*syntax.Node) bool {
		if walkErr != nil {
			return false
		}
		if n.Kind != syntax.KindClass {
			return true
		}
		class, err := classUnit(n, ancestors)
		if err != nil {
			walkErr = err
			return false
		}
		classes = append(classes, class)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return model.NewFileUnit(imports, classes), nil
}

func classUnit(n *syntax.Node, ancestors []*syntax.Node) (model.ClassUnit, error) {
	namespace := enclosingNamespace(ancestors)
	if namespace == "" {
		return model.ClassUnit{}, skerrors.Newf(skerrors.ParseFailure, "class %q is not inside a namespace", n.Name)
	}

	ctor, err := widestPublicConstructor(n)
	if err != nil {
		return model.ClassUnit{}, classError(n.Name, err)
	}

	var methods []model.Method
	for _, m := range n.ChildrenOf(syntax.KindMethod) {
		if !m.HasModifier(publicModifier) {
			continue
		}
		method, err := methodOf(m)
		if err != nil {
			return model.ClassUnit{}, classError(n.Name, err)
		}
		methods = append(methods, method)
	}

	class, err := model.NewClassUnit(n.Name, namespace, ctor, methods)
	if err != nil {
		return model.ClassUnit{}, classError(n.Name, err)
	}
	class, err = class.WithEnclosing(enclosingClasses(ancestors)...)
	if err != nil {
		return model.ClassUnit{}, classError(n.Name, err)
	}
	return class, nil
}

// enclosingClasses lists the classes a nested class is declared in,
// outermost first.
func enclosingClasses(ancestors []*syntax.Node) []string {
	var names []string
	for _, a := range ancestors {
		if a.Kind == syntax.KindClass {
			names = append(names, a.Name)
		}
	}
	return names
}

// enclosingNamespace joins every namespace on the path to the class, so
// `namespace A { namespace B { class C } }` yields "A.B".
func enclosingNamespace(ancestors []*syntax.Node) string {
	var parts []string
	for _, a := range ancestors {
		if a.Kind == syntax.KindNamespace && a.Name != "" {
			parts = append(parts, a.Name)
		}
	}
	return strings.Join(parts, ".")
}

// widestPublicConstructor picks the public constructor with the most
// parameters. Ties go to the first one declared.
func widestPublicConstructor(class *syntax.Node) (model.Constructor, error) {
	var best *syntax.Node
	for _, c := range class.ChildrenOf(syntax.KindConstructor) {
		if !c.HasModifier(publicModifier) {
			continue
		}
		if best == nil || len(c.ChildrenOf(syntax.KindParameter)) > len(best.ChildrenOf(syntax.KindParameter)) {
			best = c
		}
	}
	if best == nil {
		return model.Constructor{}, nil
	}
	params, err := parametersOf(best)
	if err != nil {
		return model.Constructor{}, err
	}
	return model.NewConstructor(params), nil
}

func methodOf(n *syntax.Node) (model.Method, error) {
	returnType, err := model.NewTypeRef(n.Type)
	if err != nil {
		return model.Method{}, err
	}
	params, err := parametersOf(n)
	if err != nil {
		return model.Method{}, err
	}
	return model.NewMethod(n.Name, returnType, params, n.HasModifier("static"))
}

func parametersOf(n *syntax.Node) ([]model.Parameter, error) {
	var params []model.Parameter
	for _, p := range n.ChildrenOf(syntax.KindParameter) {
		typ, err := model.NewTypeRef(p.Type)
		if err != nil {
			return nil, err
		}
		param, err := model.NewParameter(p.Name, typ)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func classError(class string, err error) error {
	return skerrors.Wrap(skerrors.ParseFailure, "malformed declaration in class "+class, err)
}
