package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureFormat(t *testing.T) {
	cases := []struct {
		name string
		sig  Signature
		want string
	}{
		{
			name: "annotated with default",
			sig: Signature{
				Params: []Param{
					{Name: "a", Type: "int", Kind: PositionalOrKeyword},
					{Name: "b", Type: "int", Default: "0", Kind: PositionalOrKeyword},
				},
				Returns: "int",
			},
			want: "add(a: int, b: int = 0) -> int",
		},
		{
			name: "untyped default",
			sig:  Signature{Params: []Param{{Name: "x", Default: "None", Kind: PositionalOrKeyword}}},
			want: "add(x=None)",
		},
		{
			name: "all kinds",
			sig: Signature{Params: []Param{
				{Name: "p", Kind: PositionalOnly},
				{Name: "q", Kind: PositionalOrKeyword},
				{Name: "args", Type: "str", Kind: VarPositional},
				{Name: "k", Kind: KeywordOnly},
				{Name: "kw", Kind: VarKeyword},
			}},
			want: "add(p, /, q, *args: str, k, **kw)",
		},
		{
			name: "bare keyword separator",
			sig: Signature{Params: []Param{
				{Name: "a", Kind: PositionalOrKeyword},
				{Name: "b", Kind: KeywordOnly},
				{Name: "c", Kind: KeywordOnly},
			}},
			want: "add(a, *, b, c)",
		},
		{
			name: "empty",
			want: "add()",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sig.Format("add"))
		})
	}
}

func TestSignatureDeclared(t *testing.T) {
	sig := Signature{
		Params: []Param{
			{Name: "a", Type: "int", TypeSource: TypeAnnotation},
			{Name: "n", Type: "int", TypeSource: TypeInferred, Default: "4"},
			{Name: "s", Type: "str", TypeSource: TypeDocstring},
		},
		Returns:       "bool",
		ReturnsSource: TypeDocstring,
	}
	assert.Equal(t, "run(a: int, n=4, s)", sig.Declared().Format("run"))
	assert.Equal(t, "run(a: int, n: int = 4, s: str) -> bool", sig.Format("run"), "the receiver is left intact")

	sig.ReturnsSource = TypeAnnotation
	assert.Equal(t, "run(a: int, n=4, s) -> bool", sig.Declared().Format("run"))
}

func TestBoundParams(t *testing.T) {
	params := []Param{{Name: "self"}, {Name: "x"}}

	method := &Function{Signature: Signature{Params: params}, Method: true}
	assert.Equal(t, []Param{{Name: "x"}}, method.BoundParams())

	static := &Function{Signature: Signature{Params: params}, Method: true, Markers: MarkStatic}
	assert.Equal(t, params, static.BoundParams())

	free := &Function{Signature: Signature{Params: params}}
	assert.Equal(t, params, free.BoundParams())

	varargs := &Function{Signature: Signature{Params: []Param{{Name: "args", Kind: VarPositional}}}, Method: true}
	assert.Len(t, varargs.BoundParams(), 1)
}

func TestAnchor(t *testing.T) {
	assert.Equal(t, "pkg-a-foo", Anchor("pkg.a.Foo"))
	assert.Equal(t, "pkg-b-foo", Anchor("pkg.b.Foo"))
	assert.NotEqual(t, Anchor("pkg.a_b"), Anchor("pkg.a.b"))
	assert.Equal(t, Anchor("x.Y"), Anchor("x.Y"))
}

func TestGraph(t *testing.T) {
	g := NewGraph()
	mod := &Module{Base: NewBase("", "pkg", "pkg", 0), Package: true}
	foo := &Class{Base: NewBase("pkg", "pkg", "Foo", 3)}
	alias := &Alias{Base: NewBase("pkg", "pkg", "Bar", 1), Target: "pkg.Foo"}
	mod.Members = []Entity{foo, alias}
	g.Roots = []*Module{mod}

	for _, e := range []Entity{mod, foo, alias} {
		_, ok := g.Register(e)
		require.True(t, ok)
	}

	t.Run("first registration wins", func(t *testing.T) {
		other := &Function{Base: NewBase("pkg", "pkg", "Foo", 9)}
		prev, ok := g.Register(other)
		assert.False(t, ok)
		assert.Same(t, foo, prev)
	})

	t.Run("names differing by case are distinct", func(t *testing.T) {
		assert.Equal(t, "pkg-foo", g.Anchor("pkg.Foo"))

		lower := &Attribute{Base: NewBase("pkg", "pkg", "foo", 12)}
		_, ok := g.Register(lower)
		require.True(t, ok)
		e, ok := g.Lookup("pkg.foo")
		require.True(t, ok)
		assert.Same(t, lower, e)
		e, _ = g.Lookup("pkg.Foo")
		assert.Same(t, foo, e)

		assert.Equal(t, "pkg-foo", g.Anchor("pkg.foo"))
		assert.Equal(t, "pkg-foo-4", g.Anchor("pkg.Foo"))
	})

	t.Run("claimed names disambiguate anchors", func(t *testing.T) {
		assert.Equal(t, "pkg-foo-bar", g.Anchor("pkg.Foo.Bar"))
		g.Claim("pkg.Foo.bar")
		g.Claim("pkg.Foo.Bar")
		assert.Equal(t, "pkg-foo-bar-4-8", g.Anchor("pkg.Foo.Bar"))
		assert.Equal(t, "pkg-foo-bar-4", g.Anchor("pkg.Foo.bar"))
		_, ok := g.Lookup("pkg.Foo.bar")
		assert.False(t, ok, "claiming does not index")
	})

	t.Run("resolve follows aliases", func(t *testing.T) {
		e, ok := g.Resolve("pkg.Bar")
		require.True(t, ok)
		assert.Same(t, foo, e)
	})

	t.Run("resolve rejects cycles", func(t *testing.T) {
		g.Register(&Alias{Base: NewBase("pkg", "pkg", "Ping", 1), Target: "pkg.Pong"})
		g.Register(&Alias{Base: NewBase("pkg", "pkg", "Pong", 1), Target: "pkg.Ping"})
		_, ok := g.Resolve("pkg.Ping")
		assert.False(t, ok)
	})

	t.Run("modules in pre-order", func(t *testing.T) {
		sub := &Module{Base: NewBase("pkg", "pkg.sub", "sub", 0)}
		mod.Submodules = []*Module{sub}
		assert.Equal(t, []*Module{mod, sub}, g.Modules())
	})

	assert.Equal(t, KindPackage, mod.Kind())
	assert.Equal(t, "pkg", foo.Module())
	assert.NotNil(t, foo.Doc())
}
