package codegen

import (
	"fmt"
	"strings"
)

// Renderer turns a compilation unit into source text.
type Renderer interface {
	Render(cu *CompilationUnit) (string, error)
}

// Printer renders with normalized whitespace: four-space indentation, braces
// on their own lines, LF endings, one blank line between members and between
// statement groups. The same tree always yields the same bytes.
type Printer struct {
	Indent string
}

// NewPrinter returns a Printer with four-space indentation.
func NewPrinter() *Printer {
	return &Printer{Indent: "    "}
}

// Render prints cu.
func (p *Printer) Render(cu *CompilationUnit) (string, error) {
	if cu == nil {
		return "", fmt.Errorf("codegen: nil compilation unit")
	}
	w := &writer{indent: p.Indent}
	if w.indent == "" {
		w.indent = "    "
	}

	for _, u := range cu.Usings {
		w.line("using " + u + ";")
	}

	if ns := cu.Namespace; ns != nil {
		if len(cu.Usings) > 0 {
			w.blank()
		}
		w.line("namespace " + ns.Name)
		w.open()
		for i, class := range ns.Classes {
			if i > 0 {
				w.blank()
			}
			if err := w.class(class); err != nil {
				return "", err
			}
		}
		w.close()
	}

	return w.b.String(), nil
}

type writer struct {
	b      strings.Builder
	indent string
	depth  int
}

func (w *writer) line(s string) {
	for i := 0; i < w.depth; i++ {
		w.b.WriteString(w.indent)
	}
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *writer) blank() { w.b.WriteByte('\n') }

func (w *writer) open() {
	w.line("{")
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line("}")
}

func (w *writer) attributes(attrs []string) {
	for _, a := range attrs {
		w.line("[" + a + "]")
	}
}

func (w *writer) class(c *Class) error {
	w.attributes(c.Attributes)
	w.line(withModifiers(c.Modifiers, "class "+c.Name))
	w.open()
	for i, m := range c.Members {
		if i > 0 {
			w.blank()
		}
		switch m := m.(type) {
		case *Field:
			w.line(withModifiers(m.Modifiers, typeString(m.Type)+" "+m.Name+";"))
		case *Method:
			if err := w.method(m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("codegen: unsupported member %T", m)
		}
	}
	w.close()
	return nil
}

func (w *writer) method(m *Method) error {
	w.attributes(m.Attributes)
	w.line(withModifiers(m.Modifiers, typeString(m.ReturnType)+" "+m.Name+"()"))
	w.open()
	first := true
	for _, group := range m.Body {
		if len(group) == 0 {
			continue
		}
		if !first {
			w.blank()
		}
		first = false
		for _, s := range group {
			text, err := statementString(s)
			if err != nil {
				return err
			}
			w.line(text)
		}
	}
	w.close()
	return nil
}

func withModifiers(mods []string, rest string) string {
	if len(mods) == 0 {
		return rest
	}
	return strings.Join(mods, " ") + " " + rest
}

func typeString(t Type) string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = typeString(a)
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}

func statementString(s Statement) (string, error) {
	switch s := s.(type) {
	case *LocalDeclaration:
		init, err := exprString(s.Init)
		if err != nil {
			return "", err
		}
		return typeString(s.Type) + " " + s.Name + " = " + init + ";", nil
	case *ExpressionStatement:
		e, err := exprString(s.Expr)
		if err != nil {
			return "", err
		}
		return e + ";", nil
	default:
		return "", fmt.Errorf("codegen: unsupported statement %T", s)
	}
}

func exprString(e Expr) (string, error) {
	switch e := e.(type) {
	case *Ident:
		return e.Name, nil
	case *MemberAccess:
		target, err := exprString(e.Target)
		if err != nil {
			return "", err
		}
		return target + "." + e.Name, nil
	case *Invocation:
		target, err := exprString(e.Target)
		if err != nil {
			return "", err
		}
		args, err := argList(e.Args)
		if err != nil {
			return "", err
		}
		return target + "(" + args + ")", nil
	case *ObjectCreation:
		args, err := argList(e.Args)
		if err != nil {
			return "", err
		}
		return "new " + typeString(e.Type) + "(" + args + ")", nil
	case *Default:
		return "default(" + typeString(e.Type) + ")", nil
	case *Assignment:
		left, err := exprString(e.Left)
		if err != nil {
			return "", err
		}
		right, err := exprString(e.Right)
		if err != nil {
			return "", err
		}
		return left + " = " + right, nil
	case *StringLiteral:
		return quote(e.Value), nil
	default:
		return "", fmt.Errorf("codegen: unsupported expression %T", e)
	}
}

func argList(args []Expr) (string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := exprString(a)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\x00", `\0`,
)

func quote(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
