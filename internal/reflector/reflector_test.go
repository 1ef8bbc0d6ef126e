package reflector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/testutil"
)

func load(t *testing.T, dir string, roots ...string) (*model.Graph, *diag.List) {
	t.Helper()
	diags := &diag.List{}
	r := New(Options{SearchPath: []string{dir}, Jobs: 2}, diags)
	g, err := r.Load(context.Background(), roots)
	require.NoError(t, err)
	return g, diags
}

func loadShapes(t *testing.T) (*model.Graph, *diag.List) {
	t.Helper()
	dir := testutil.Extract(t, filepath.Join("..", "..", "testdata", "shapes.txtar"))
	return load(t, dir, "shapes")
}

func names(es []model.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Name()
	}
	return out
}

func memberNames(c *model.Class) []string {
	out := make([]string, len(c.Members))
	for i, m := range c.Members {
		out[i] = m.Name()
	}
	return out
}

func get[T model.Entity](t *testing.T, g *model.Graph, qual string) T {
	t.Helper()
	e, ok := g.Lookup(qual)
	require.True(t, ok, "%s not in graph", qual)
	v, ok := e.(T)
	require.True(t, ok, "%s is a %s", qual, e.Kind())
	return v
}

func TestLoad_AddFunction(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- mathx.py --
def add(a: int, b: int = 0) -> int:
    """Add two integers.

    Args:
        a: first operand.
        b: second operand.

    Returns:
        int: the sum.
    """
    return a + b
`)
	g, diags := load(t, dir, "mathx")
	assert.Zero(t, diags.Len())

	m := get[*model.Module](t, g, "mathx")
	assert.Equal(t, model.KindModule, m.Kind())
	assert.Equal(t, []string{"add"}, names(m.Members))

	f := get[*model.Function](t, g, "mathx.add")
	assert.Equal(t, "add(a: int, b: int = 0) -> int", f.Format(f.Name()))
	assert.Equal(t, "Add two integers.", f.Doc().Summary)
	require.Len(t, f.Doc().Params, 2)
	assert.Equal(t, "second operand.", f.Doc().Params[1].Description)
	require.NotNil(t, f.Doc().Returns)
	assert.Equal(t, "int", f.Doc().Returns.Type)
}

func TestLoad_Package(t *testing.T) {
	g, diags := loadShapes(t)

	require.Len(t, g.Roots, 1)
	pkg := g.Roots[0]
	assert.Equal(t, model.KindPackage, pkg.Kind())
	assert.Equal(t, "Geometry helpers.", pkg.Doc().Summary)

	var mods []string
	for _, m := range g.Modules() {
		mods = append(mods, m.QualName())
	}
	assert.Equal(t, []string{"shapes", "shapes.core", "shapes.util"}, mods)

	require.Equal(t, 1, diags.Count(diag.ImportFailure))
	failure := diags.Items()[0]
	assert.Equal(t, "shapes.broken", failure.Module)
	assert.Contains(t, failure.Message, "syntax error")

	_, ok := g.Lookup("shapes._impl")
	assert.False(t, ok, "private modules are not documented")
}

func TestLoad_ReExports(t *testing.T) {
	g, _ := loadShapes(t)

	pkg := get[*model.Module](t, g, "shapes")
	assert.Equal(t, []string{"Circle", "Shape", "area", "add"}, names(pkg.Members))

	shape := get[*model.Alias](t, g, "shapes.Shape")
	assert.Equal(t, "shapes.core.Shape", shape.Target)
	resolved, ok := g.Resolve("shapes.Shape")
	require.True(t, ok)
	assert.Equal(t, model.KindClass, resolved.Kind())
	assert.Equal(t, "shapes.core", resolved.Module())

	// Circle lives in a private module, so the package documents it.
	circle := get[*model.Alias](t, g, "shapes.Circle")
	assert.Equal(t, "shapes._impl.Circle", circle.Target)
	cls := get[*model.Class](t, g, "shapes._impl.Circle")
	assert.Equal(t, "shapes", cls.Module())
	method := get[*model.Function](t, g, "shapes._impl.Circle.circumference")
	assert.Equal(t, "shapes", method.Module())

	init := get[*model.Function](t, g, "shapes._impl.Circle.__init__")
	require.Len(t, init.Params, 2)
	assert.Equal(t, "float", init.Params[1].Type)
	assert.Equal(t, model.TypeInferred, init.Params[1].TypeSource)

	util := get[*model.Module](t, g, "shapes.util")
	assert.Equal(t, []string{"Square", "scale", "double"}, names(util.Members))
	sq := get[*model.Alias](t, g, "shapes.util.Square")
	assert.Equal(t, "shapes.core.Square", sq.Target)

	_, ok = g.Lookup("shapes.util.overload")
	assert.False(t, ok, "plain imports are not re-exported")
}

func TestLoad_Inheritance(t *testing.T) {
	g, diags := loadShapes(t)

	shape := get[*model.Class](t, g, "shapes.core.Shape")
	assert.True(t, shape.Abstract)
	assert.False(t, shape.Exception)
	assert.Equal(t, []string{"sides", "area", "describe"}, memberNames(shape))

	square := get[*model.Class](t, g, "shapes.core.Square")
	assert.False(t, square.Abstract)
	assert.Equal(t, []string{"shapes.core.Shape"}, square.MRO)
	require.Len(t, square.Bases, 1)
	assert.Equal(t, "shapes.core.Shape", square.Bases[0].Target)
	assert.Equal(t, []string{"__init__", "area", "diagonal", "sides", "describe"}, memberNames(square))

	area, ok := square.Local("area")
	require.True(t, ok)
	assert.Equal(t, "shapes.core.Shape.area", area.Overrides)

	describe, ok := square.Member("describe")
	require.True(t, ok)
	assert.True(t, describe.Inherited)
	assert.Equal(t, "shapes.core.Shape", describe.DeclaredIn)

	diagonal := get[*model.Property](t, g, "shapes.core.Square.diagonal")
	assert.True(t, diagonal.ReadOnly)
	assert.Equal(t, "float", diagonal.Type)

	errCls := get[*model.Class](t, g, "shapes.core.ShapeError")
	assert.True(t, errCls.Exception)

	// Inherited members are not registered under the subclass.
	_, ok = g.Lookup("shapes.core.Square.describe")
	assert.False(t, ok)

	sides := get[*model.Attribute](t, g, "shapes.core.Shape.sides")
	assert.Equal(t, "int", sides.Type)
	assert.Equal(t, "0", sides.Default)
	assert.Equal(t, "Number of sides.", sides.Doc().Summary)

	unit := get[*model.Attribute](t, g, "shapes.core.UNIT")
	assert.Equal(t, "Square", unit.Type)
	assert.Equal(t, model.TypeInferred, unit.TypeSource)

	core := get[*model.Module](t, g, "shapes.core")
	assert.Equal(t, "shapes.core.Square", core.Refs["Square"])
	assert.Equal(t, "shapes.core.Shape", core.Refs["Shape"])

	desc := get[*model.Function](t, g, "shapes.core.Shape.describe")
	p, ok := desc.Doc().Param("colour")
	require.True(t, ok)
	assert.True(t, p.Orphan)
	assert.Equal(t, 1, diags.Count(diag.DocstringDegradation))
}

func TestLoad_Overloads(t *testing.T) {
	g, _ := loadShapes(t)

	scale := get[*model.Function](t, g, "shapes.util.scale")
	assert.False(t, scale.Has(model.MarkOverload))
	assert.Equal(t, "Scale a number.", scale.Doc().Summary)
	require.Len(t, scale.Overloads, 2)
	assert.Equal(t, "scale(x: int) -> int", scale.Overloads[0].Format("scale"))
	assert.Equal(t, "scale(x: float) -> float", scale.Overloads[1].Format("scale"))
	assert.Equal(t, "scale(x)", scale.Format("scale"))

	double := get[*model.Function](t, g, "shapes.util.double")
	assert.True(t, double.Lambda)
}

func TestLoad_SameNameInSiblingModules(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- pkg/__init__.py --
-- pkg/a.py --
class Foo:
    """Foo of a."""
-- pkg/b.py --
class Foo:
    """Foo of b."""
`)
	g, diags := load(t, dir, "pkg")
	assert.Zero(t, diags.Count(diag.NameCollision))

	a := get[*model.Class](t, g, "pkg.a.Foo")
	b := get[*model.Class](t, g, "pkg.b.Foo")
	assert.Equal(t, "pkg-a-foo", model.Anchor(a.QualName()))
	assert.Equal(t, "pkg-b-foo", model.Anchor(b.QualName()))
	assert.Equal(t, "Foo of b.", b.Doc().Summary)
}

func TestLoad_Collisions(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- pkg/__init__.py --
mod = 1
-- pkg/mod.py --
def f():
    """First f."""


def f(x):
    """Second f."""
`)
	g, diags := load(t, dir, "pkg")

	f := get[*model.Function](t, g, "pkg.mod.f")
	assert.Equal(t, "First f.", f.Doc().Summary)
	get[*model.Module](t, g, "pkg.mod")
	pkg := get[*model.Module](t, g, "pkg")
	assert.Empty(t, pkg.Members, "the submodule owns pkg.mod")
	assert.Equal(t, 2, diags.Count(diag.NameCollision))
}

func TestLoad_NamesDifferingByCase(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- app/__init__.py --
class Config:
    """Application config."""
-- app/config.py --
class Settings:
    """Settings holder."""


settings = Settings()
`)
	g, diags := load(t, dir, "app")
	assert.Zero(t, diags.Count(diag.NameCollision))

	get[*model.Module](t, g, "app.config")
	cfg := get[*model.Class](t, g, "app.Config")
	assert.Equal(t, "Application config.", cfg.Doc().Summary)
	get[*model.Class](t, g, "app.config.Settings")
	settings := get[*model.Attribute](t, g, "app.config.settings")
	assert.Equal(t, "Settings", settings.Type)
	assert.Equal(t, model.TypeInferred, settings.TypeSource)

	app := get[*model.Module](t, g, "app")
	assert.Equal(t, []string{"Config"}, names(app.Members))
	config := get[*model.Module](t, g, "app.config")
	assert.Equal(t, []string{"Settings", "settings"}, names(config.Members))

	assert.Equal(t, "app-config", g.Anchor("app.config"))
	assert.Equal(t, "app-config-4", g.Anchor("app.Config"))
	assert.Equal(t, "app-config-settings", g.Anchor("app.config.settings"))
	assert.Equal(t, "app-config-settings-11", g.Anchor("app.config.Settings"))
	_, ok := g.Lookup("app.CONFIG")
	assert.False(t, ok)
}

func TestLoad_Visibility(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- vis.py --
import os
from os import path as path

__all__ = ["public", "Thing"]
__all__ += ["missing"]


def public():
    pass


def not_listed():
    pass


class Thing:
    def __init__(self):
        pass

    def _hidden(self):
        pass

    @staticmethod
    def make():
        pass

    @classmethod
    def build(cls, n=3):
        pass

    @property
    def size(self):
        """The size.

        Returns:
            int: Size in cells.
        """
        return 1

    @size.setter
    def size(self, v):
        pass
`)
	g, diags := load(t, dir, "vis")

	m := get[*model.Module](t, g, "vis")
	assert.Equal(t, []string{"public", "Thing"}, names(m.Members))
	thing := get[*model.Class](t, g, "vis.Thing")
	assert.Equal(t, []string{"__init__", "make", "build", "size"}, memberNames(thing))

	build := get[*model.Function](t, g, "vis.Thing.build")
	assert.True(t, build.Has(model.MarkClassMethod))
	require.Len(t, build.BoundParams(), 1)
	assert.Equal(t, "int", build.BoundParams()[0].Type)

	size := get[*model.Property](t, g, "vis.Thing.size")
	assert.False(t, size.ReadOnly)
	assert.Equal(t, "int", size.Type)
	assert.Equal(t, model.TypeDocstring, size.TypeSource)

	assert.Equal(t, 1, diags.Count(diag.UnresolvedReference))
}

func TestLoad_ForcedStyle(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- mod.py --
def f(x):
    """Do things.

    Parameters
    ----------
    x : int
        The input.
    """
`)
	diags := &diag.List{}
	r := New(Options{SearchPath: []string{dir}, Style: docstring.NumPy}, diags)
	g, err := r.Load(context.Background(), []string{"mod"})
	require.NoError(t, err)

	f := get[*model.Function](t, g, "mod.f")
	require.Len(t, f.Params, 1)
	assert.Equal(t, "int", f.Params[0].Type)
	assert.Equal(t, model.TypeDocstring, f.Params[0].TypeSource)
}

func TestLoad_NoRoots(t *testing.T) {
	diags := &diag.List{}
	r := New(Options{SearchPath: []string{t.TempDir()}}, diags)
	_, err := r.Load(context.Background(), []string{"missing", "not-a-name"})
	require.ErrorIs(t, err, ErrNoRoots)
	assert.Equal(t, 2, diags.Count(diag.ImportFailure))
}

func TestLinearize(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- mro.py --
class O:
    def who(self):
        """O."""


class A(O):
    pass


class B(O):
    def who(self):
        """B."""


class C(A, B):
    pass


class X(Y):
    pass


class Y(X):
    pass
`)
	g, _ := load(t, dir, "mro")

	c := get[*model.Class](t, g, "mro.C")
	assert.Equal(t, []string{"mro.A", "mro.B", "mro.O"}, c.MRO)
	who, ok := c.Member("who")
	require.True(t, ok)
	assert.Equal(t, "mro.B", who.DeclaredIn)

	x := get[*model.Class](t, g, "mro.X")
	assert.Equal(t, []string{"mro.Y"}, x.MRO)
}
