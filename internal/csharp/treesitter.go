//go:build cgo

package csharp

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	skerrors "skelgen/internal/errors"
	"skelgen/internal/syntax"
)

// Parser parses C# source with tree-sitter and lowers the result into a
// syntax.Node tree. It is safe for concurrent use.
type Parser struct {
	pool sync.Pool
}

// NewParser creates a new tree-sitter backed C# parser.
func NewParser() *Parser {
	p := &Parser{}
	p.pool.New = func() interface{} {
		sp := sitter.NewParser()
		sp.SetLanguage(csharp.GetLanguage())
		return sp
	}
	return p
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool {
	return true
}

// Parse parses source and returns the declaration tree. Any syntax error in
// the source is reported as a ParseFailure.
func (p *Parser) Parse(ctx context.Context, source string) (*syntax.Node, error) {
	sp := p.pool.Get().(*sitter.Parser)
	defer p.pool.Put(sp)

	src := []byte(source)
	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, skerrors.Wrap(skerrors.ParseFailure, "tree-sitter parse failed", err)
	}
	root := tree.RootNode()

	if root.HasError() {
		bad := firstError(root)
		if bad == nil {
			bad = root
		}
		pos := bad.StartPoint()
		return nil, skerrors.Newf(skerrors.ParseFailure, "syntax error at %d:%d near %q",
			pos.Row+1, pos.Column+1, snippet(bad.Content(src)))
	}

	file := &syntax.Node{Kind: syntax.KindFile}
	l := lowerer{src: src}
	l.lowerChildren(root, file)
	return file, nil
}

// lowerer converts tree-sitter nodes into syntax nodes.
type lowerer struct {
	src []byte
}

// lowerChildren lowers the named children of n into parent. A file-scoped
// namespace captures every declaration that follows it.
func (l *lowerer) lowerChildren(n *sitter.Node, parent *syntax.Node) {
	target := parent
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Type() == "file_scoped_namespace_declaration" {
			ns := &syntax.Node{Kind: syntax.KindNamespace, Name: l.fieldText(child, "name")}
			l.lowerChildren(child, ns)
			target.Children = append(target.Children, ns)
			target = ns
			continue
		}
		l.lower(child, target)
	}
}

func (l *lowerer) lower(n *sitter.Node, parent *syntax.Node) {
	switch n.Type() {
	case "using_directive":
		if name := l.usingName(n); name != "" {
			parent.Children = append(parent.Children, &syntax.Node{Kind: syntax.KindUsing, Name: name})
		}

	case "namespace_declaration":
		ns := &syntax.Node{Kind: syntax.KindNamespace, Name: l.fieldText(n, "name")}
		if body := n.ChildByFieldName("body"); body != nil {
			l.lowerChildren(body, ns)
		}
		parent.Children = append(parent.Children, ns)

	case "class_declaration":
		class := &syntax.Node{
			Kind:      syntax.KindClass,
			Name:      l.fieldText(n, "name"),
			Modifiers: l.modifiers(n),
		}
		if body := n.ChildByFieldName("body"); body != nil {
			l.lowerChildren(body, class)
		}
		parent.Children = append(parent.Children, class)

	case "constructor_declaration":
		parent.Children = append(parent.Children, &syntax.Node{
			Kind:      syntax.KindConstructor,
			Name:      l.fieldText(n, "name"),
			Modifiers: l.modifiers(n),
			Children:  l.parameters(n),
		})

	case "method_declaration":
		returns := l.fieldText(n, "returns")
		if returns == "" {
			returns = l.fieldText(n, "type")
		}
		parent.Children = append(parent.Children, &syntax.Node{
			Kind:      syntax.KindMethod,
			Name:      l.fieldText(n, "name"),
			Type:      returns,
			Modifiers: l.modifiers(n),
			Children:  l.parameters(n),
		})

	case "struct_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "record_struct_declaration", "delegate_declaration",
		"global_statement", "block", "arrow_expression_clause":
		// Not classes, or bodies; nothing inside is part of the model.

	default:
		l.lowerChildren(n, parent)
	}
}

// usingName returns the imported name of a using directive, without alias
// or static qualifiers.
func (l *lowerer) usingName(n *sitter.Node) string {
	var name string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "identifier", "qualified_name", "generic_name", "alias_qualified_name":
			name = child.Content(l.src)
		}
	}
	return name
}

var modifierKeywords = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true,
	"static": true, "abstract": true, "sealed": true, "virtual": true,
	"override": true, "async": true, "partial": true, "readonly": true,
	"extern": true, "unsafe": true, "new": true,
}

func (l *lowerer) modifiers(n *sitter.Node) []string {
	var mods []string
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		text := child.Content(l.src)
		switch {
		case child.Type() == "modifier":
			mods = append(mods, text)
		case !child.IsNamed() && modifierKeywords[text]:
			mods = append(mods, text)
		}
	}
	return mods
}

func (l *lowerer) parameters(n *sitter.Node) []*syntax.Node {
	list := n.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []*syntax.Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		if child.Type() != "parameter" && child.Type() != "parameter_array" {
			continue
		}
		params = append(params, &syntax.Node{
			Kind: syntax.KindParameter,
			Name: l.parameterName(child),
			Type: l.parameterType(child),
		})
	}
	return params
}

func (l *lowerer) parameterName(n *sitter.Node) string {
	if name := l.fieldText(n, "name"); name != "" {
		return name
	}
	var name string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "identifier" {
			name = child.Content(l.src)
		}
	}
	return name
}

func (l *lowerer) parameterType(n *sitter.Node) string {
	if typ := l.fieldText(n, "type"); typ != "" {
		return typ
	}
	nameNode := n.ChildByFieldName("name")
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "attribute_list", "parameter_modifier", "equals_value_clause":
			continue
		}
		if nameNode != nil && child.StartByte() == nameNode.StartByte() {
			continue
		}
		if child.Type() == "identifier" && i == int(n.NamedChildCount())-1 {
			continue
		}
		return child.Content(l.src)
	}
	return ""
}

func (l *lowerer) fieldText(n *sitter.Node, field string) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(l.src)
}

// firstError returns the first ERROR or MISSING node under n, in source order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
