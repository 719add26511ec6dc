package synth

import (
	"context"
	"strings"
	"testing"

	"skelgen/internal/analyzer"
	"skelgen/internal/codegen"
	skerrors "skelgen/internal/errors"
	"skelgen/internal/syntax"
)

func fakeParser(root *syntax.Node) syntax.Parser {
	return syntax.ParserFunc(func(context.Context, string) (*syntax.Node, error) {
		return root, nil
	})
}

func param(name, typ string) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindParameter, Name: name, Type: typ}
}

func method(name, ret string, mods []string, params ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindMethod, Name: name, Type: ret, Modifiers: mods, Children: params}
}

func class(name string, members ...*syntax.Node) *syntax.Node {
	return &syntax.Node{Kind: syntax.KindClass, Name: name, Modifiers: public, Children: members}
}

var public = []string{"public"}

func newSynth(t *testing.T, root *syntax.Node, opts Options) *Synthesizer {
	t.Helper()
	a, err := analyzer.New(fakeParser(root))
	if err != nil {
		t.Fatalf("analyzer.New: %v", err)
	}
	s, err := New(a, codegen.NewPrinter(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func cartTree() *syntax.Node {
	return &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindUsing, Name: "System"},
		{Kind: syntax.KindUsing, Name: "Moq"},
		{Kind: syntax.KindNamespace, Name: "Shop", Children: []*syntax.Node{
			class("Cart",
				&syntax.Node{Kind: syntax.KindConstructor, Modifiers: public, Children: []*syntax.Node{
					param("repository", "IRepository"),
					param("Size", "int"),
				}},
				method("Total", "decimal", public, param("discount", "decimal")),
				method("Add", "void", public, param("item", "IItem")),
				method("Add", "void", public, param("item", "IItem"), param("count", "int")),
				method("Create", "Cart", []string{"public", "static"}),
				method("Compare", "int", public, param("actual", "int")),
				method("GetRepository", "IRepository", public),
			),
		}},
	}}
}

const cartWant = `using System;
using Moq;
using Microsoft.VisualStudio.TestTools.UnitTesting;
using Shop;

namespace Shop.Test
{
    [TestClass]
    public class CartTest
    {
        private Cart cartUnderTest;

        [TestInitialize]
        public void TestInitialize()
        {
            Mock<IRepository> repository = new Mock<IRepository>();
            int size = default(int);

            cartUnderTest = new Cart(repository.Object, size);
        }

        [TestMethod]
        public void TotalTest()
        {
            decimal discount = default(decimal);

            decimal actual = cartUnderTest.Total(discount);

            decimal expected = default(decimal);
            Assert.AreEqual(expected, actual);
            Assert.Fail("autogenerated");
        }

        [TestMethod]
        public void AddTest()
        {
            Mock<IItem> item = new Mock<IItem>();

            cartUnderTest.Add(item.Object);

            Assert.Fail("autogenerated");
        }

        [TestMethod]
        public void AddTest1()
        {
            Mock<IItem> item = new Mock<IItem>();
            int count = default(int);

            cartUnderTest.Add(item.Object, count);

            Assert.Fail("autogenerated");
        }

        [TestMethod]
        public void CreateTest()
        {
            Cart actual = Cart.Create();

            Cart expected = default(Cart);
            Assert.AreEqual(expected, actual);
            Assert.Fail("autogenerated");
        }

        [TestMethod]
        public void CompareTest()
        {
            int actual1 = default(int);

            int actual = cartUnderTest.Compare(actual1);

            int expected = default(int);
            Assert.AreEqual(expected, actual);
            Assert.Fail("autogenerated");
        }

        [TestMethod]
        public void GetRepositoryTest()
        {
            IRepository actual = cartUnderTest.GetRepository();

            Mock<IRepository> expected = new Mock<IRepository>();
            Assert.AreEqual(expected.Object, actual);
            Assert.Fail("autogenerated");
        }
    }
}
`

func TestGenerate_Cart(t *testing.T) {
	s := newSynth(t, cartTree(), DefaultOptions())

	units, err := s.Generate(context.Background(), "class Cart {}")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("Generate() = %d units, want 1", len(units))
	}
	if units[0].RelativePath != "CartTest.cs" {
		t.Errorf("RelativePath = %q, want CartTest.cs", units[0].RelativePath)
	}
	if units[0].Content != cartWant {
		t.Errorf("Content =\n%s\nwant\n%s", units[0].Content, cartWant)
	}
}

func TestGenerate_VoidMethodsNotInvoked(t *testing.T) {
	opts := DefaultOptions()
	opts.InvokeVoidMethods = false
	s := newSynth(t, cartTree(), opts)

	units, err := s.Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(units[0].Content, "cartUnderTest.Add(") {
		t.Error("void methods should not be invoked when InvokeVoidMethods is false")
	}
	if !strings.Contains(units[0].Content, "cartUnderTest.Total(discount)") {
		t.Error("non-void methods should still be invoked")
	}
}

func TestGenerate_OneUnitPerClass(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "A", Children: []*syntax.Node{
			{Kind: syntax.KindNamespace, Name: "B", Children: []*syntax.Node{
				class("First"),
				class("Second", class("Nested")),
			}},
		}},
	}}

	opts := DefaultOptions()
	opts.NamespaceDirs = true
	units, err := newSynth(t, root, opts).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	wantPaths := []string{"A/B/FirstTest.cs", "A/B/SecondTest.cs", "A/B/NestedTest.cs"}
	if len(units) != len(wantPaths) {
		t.Fatalf("Generate() = %d units, want %d", len(units), len(wantPaths))
	}
	for i, u := range units {
		if u.RelativePath != wantPaths[i] {
			t.Errorf("units[%d].RelativePath = %q, want %q", i, u.RelativePath, wantPaths[i])
		}
		if !strings.Contains(u.Content, "namespace A.B.Test\n") {
			t.Errorf("units[%d] missing test namespace:\n%s", i, u.Content)
		}
	}
}

func TestGenerate_ClassWithoutMembers(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{class("Empty")}},
	}}

	units, err := newSynth(t, root, DefaultOptions()).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := `using Microsoft.VisualStudio.TestTools.UnitTesting;
using Moq;
using Ns;

namespace Ns.Test
{
    [TestClass]
    public class EmptyTest
    {
        private Empty emptyUnderTest;

        [TestInitialize]
        public void TestInitialize()
        {
            emptyUnderTest = new Empty();
        }
    }
}
`
	if units[0].Content != want {
		t.Errorf("Content =\n%s\nwant\n%s", units[0].Content, want)
	}
}

func TestGenerate_MethodNamedLikeTheTestClass(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{
			class("Foo", method("Foo", "void", public)),
		}},
	}}

	units, err := newSynth(t, root, DefaultOptions()).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(units[0].Content, "public void FooTest1()") {
		t.Errorf("test for method Foo should not reuse the class name FooTest:\n%s", units[0].Content)
	}
}

func TestGenerate_Failures(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{class("Loose")}}
	s := newSynth(t, root, DefaultOptions())

	if _, err := s.Generate(context.Background(), ""); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("empty source error = %v, want ARGUMENT_FAILURE", err)
	}
	if _, err := s.Generate(context.Background(), "x"); !skerrors.Is(err, skerrors.ParseFailure) {
		t.Errorf("class outside namespace error = %v, want PARSE_FAILURE", err)
	}
}

func TestUnits_StopsEarly(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{class("A"), class("B"), class("C")}},
	}}
	s := newSynth(t, root, DefaultOptions())

	var seen []string
	for unit, err := range s.Units(context.Background(), "x") {
		if err != nil {
			t.Fatalf("Units: %v", err)
		}
		seen = append(seen, unit.RelativePath)
		if len(seen) == 2 {
			break
		}
	}
	if len(seen) != 2 || seen[0] != "ATest.cs" || seen[1] != "BTest.cs" {
		t.Errorf("seen = %v, want [ATest.cs BTest.cs]", seen)
	}
}

func TestUnits_Cancelled(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{class("A")}},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newSynth(t, root, DefaultOptions()).Generate(ctx, "x"); err == nil {
		t.Error("Generate with a cancelled context should fail")
	}
}

func TestNew_Validation(t *testing.T) {
	a, _ := analyzer.New(fakeParser(nil))
	if _, err := New(nil, codegen.NewPrinter(), DefaultOptions()); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("New(nil analyzer) error = %v", err)
	}
	if _, err := New(a, nil, DefaultOptions()); !skerrors.Is(err, skerrors.ArgumentFailure) {
		t.Errorf("New(nil renderer) error = %v", err)
	}
}

func TestLowerFirst(t *testing.T) {
	tests := map[string]string{
		"Cart":  "cart",
		"cart":  "cart",
		"URL":   "uRL",
		"Ärger": "ärger",
		"":      "",
	}
	for in, want := range tests {
		if got := lowerFirst(in); got != want {
			t.Errorf("lowerFirst(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_EmptyOptionsFallBack(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{class("A")}},
	}}

	units, err := newSynth(t, root, Options{}).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if units[0].RelativePath != "ATest.cs" {
		t.Errorf("RelativePath = %q, want ATest.cs", units[0].RelativePath)
	}
	if !strings.Contains(units[0].Content, "using Microsoft.VisualStudio.TestTools.UnitTesting;") {
		t.Errorf("default test framework missing:\n%s", units[0].Content)
	}
}

func TestGenerate_NestedClassIsQualified(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Ns", Children: []*syntax.Node{
			class("Outer", class("Inner",
				method("Make", "int", []string{"public", "static"}),
			)),
		}},
	}}

	units, err := newSynth(t, root, DefaultOptions()).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("Generate() = %d units, want 2", len(units))
	}
	inner := units[1]
	if inner.RelativePath != "InnerTest.cs" {
		t.Errorf("RelativePath = %q, want InnerTest.cs", inner.RelativePath)
	}
	for _, want := range []string{
		"public class InnerTest\n",
		"private Outer.Inner innerUnderTest;",
		"innerUnderTest = new Outer.Inner();",
		"int actual = Outer.Inner.Make();",
	} {
		if !strings.Contains(inner.Content, want) {
			t.Errorf("Content missing %q:\n%s", want, inner.Content)
		}
	}
}

func TestGenerate_ParameterNamedLikeTheField(t *testing.T) {
	root := &syntax.Node{Kind: syntax.KindFile, Children: []*syntax.Node{
		{Kind: syntax.KindNamespace, Name: "Shop", Children: []*syntax.Node{
			class("Cart",
				&syntax.Node{Kind: syntax.KindConstructor, Modifiers: public, Children: []*syntax.Node{
					param("cartUnderTest", "int"),
				}},
				method("Merge", "void", public, param("cartUnderTest", "int")),
			),
		}},
	}}

	units, err := newSynth(t, root, DefaultOptions()).Generate(context.Background(), "x")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	content := units[0].Content
	for _, want := range []string{
		"int cartUnderTest1 = default(int);",
		"cartUnderTest = new Cart(cartUnderTest1);",
		"cartUnderTest.Merge(cartUnderTest1);",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("Content missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "int cartUnderTest = ") {
		t.Errorf("a local must not shadow the field:\n%s", content)
	}
}
