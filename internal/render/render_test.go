package render

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
	"github.com/agentflare-ai/pydocmd/internal/reflector"
	"github.com/agentflare-ai/pydocmd/internal/testutil"
)

func build(t *testing.T, dir, root string) (*model.Graph, *outpath.Mapper) {
	t.Helper()
	g, err := reflector.New(reflector.Options{SearchPath: []string{dir}}, nil).Load(context.Background(), []string{root})
	require.NoError(t, err)
	paths := outpath.New(outpath.Options{})
	for _, m := range g.Modules() {
		_, err := paths.Add(m.QualName(), m.Package)
		require.NoError(t, err)
	}
	return g, paths
}

func document(t *testing.T, r *Renderer, g *model.Graph, qual string) string {
	t.Helper()
	m, ok := g.Module(qual)
	require.True(t, ok, "module %s", qual)
	var buf bytes.Buffer
	r.Render(&buf, m)
	return buf.String()
}

func shapes(t *testing.T) (*model.Graph, *outpath.Mapper) {
	t.Helper()
	return build(t, testutil.Extract(t, filepath.Join("..", "..", "testdata", "shapes.txtar")), "shapes")
}

const addFixture = `
-- pkg/__init__.py --
-- pkg/sub.py --
def add(a: int, b: int = 0) -> int:
    """Add two numbers.

    Args:
        a: first
        b: second

    Returns:
        sum
    """
    return a + b
`

func TestRender_Function(t *testing.T) {
	g, paths := build(t, testutil.ExtractString(t, addFixture), "pkg")
	got := document(t, New(g, paths, Options{}), g, "pkg.sub")

	want := "# pkg.sub\n\n" +
		"<a id=\"pkg-sub-add\"></a>\n\n" +
		"## _function_ `add(a: int, b: int = 0) -> int`\n\n" +
		"Add two numbers.\n\n" +
		"**Parameters**\n\n" +
		"| Name | Type | Default | Description |\n" +
		"| --- | --- | --- | --- |\n" +
		"| `a` | `int` |  | first |\n" +
		"| `b` | `int` | `0` | second |\n\n" +
		"**Returns**\n\n" +
		"| Type | Description |\n" +
		"| --- | --- |\n" +
		"| `int` | sum |\n\n"
	assert.Equal(t, want, got)
}

func TestRender_AnchorExtend(t *testing.T) {
	g, paths := build(t, testutil.ExtractString(t, addFixture), "pkg")
	got := document(t, New(g, paths, Options{AnchorExtend: true}), g, "pkg.sub")
	assert.Contains(t, got, "## _function_ `add(a: int, b: int = 0) -> int` {#pkg-sub-add}\n")
}

func TestRender_Package(t *testing.T) {
	g, paths := shapes(t)
	got := document(t, New(g, paths, Options{}), g, "shapes")

	assert.True(t, strings.HasPrefix(got, "# shapes\n\nGeometry helpers.\n\nShapes and arithmetic used by the examples.\n\n"))
	assert.Contains(t, got, "## Submodules\n\n"+
		"- [shapes.core](core.md) — Core shape classes.\n"+
		"- [shapes.util](util.md) — Numeric utilities.\n\n")

	// Circle is only defined in a private module, so it is documented here.
	assert.Contains(t, got, "<a id=\"shapes-circle\"></a>\n\n<a id=\"shapes-_impl-circle\"></a>\n\n## _class_ `Circle`\n\n")
	assert.Contains(t, got, "Re-exported from `shapes._impl`")
	assert.Contains(t, got, "### _method_ `circumference() -> float`")

	assert.Contains(t, got, "## _alias_ `Shape`\n\nRe-exported from [`shapes.core.Shape`](core.md#shapes-core-shape)\n\n")
	assert.Contains(t, got, "## _function_ `add(a: int, b: int = 0) -> int`")
}

func TestRender_Classes(t *testing.T) {
	g, paths := shapes(t)
	got := document(t, New(g, paths, Options{}), g, "shapes.core")

	assert.Contains(t, got, "## _abstract class_ `Shape`\n\nBases: `abc.ABC`\n\nA two dimensional shape.\n\n")
	assert.Contains(t, got, "### _abstract method_ `area() -> float`")
	assert.Contains(t, got, "## _class_ `Square`\n\nBases: [`Shape`](#shapes-core-shape)\n\n")
	assert.Contains(t, got, "Overrides [`shapes.core.Shape.area`](#shapes-core-shape-area)")
	assert.Contains(t, got, "### _readonly property_ `diagonal`\n\nType: `float`\n\nThe diagonal length.\n\n")
	assert.Contains(t, got, "## _exception_ `ShapeError`")

	// Inherited members appear once, pointing at the declaring class.
	assert.Contains(t, got, "<a id=\"shapes-core-square-describe\"></a>\n\n"+
		"### _method_ `describe(verbose=False)`\n\n"+
		"Describe the shape.\n\n"+
		"Inherited from [`shapes.core.Shape.describe`](#shapes-core-shape-describe)\n\n")
	assert.Equal(t, 1, strings.Count(got, "Inherited from [`shapes.core.Shape.describe`]"))

	// The heading keeps the source signature; the table shows the type
	// inferred from the default.
	assert.Contains(t, got, "<a id=\"shapes-core-shape-describe\"></a>\n\n### _method_ `describe(verbose=False)`\n\n")
	assert.Contains(t, got, "| `verbose` | `bool` | `False` | Include details. |")
	assert.NotContains(t, got, "verbose: bool")
	assert.Contains(t, got, "| `colour` |  |  | Not a parameter. _(not in signature)_ |")
	assert.Contains(t, got, "| `shape` | [`Shape`](#shapes-core-shape) |  |  |")
	assert.Contains(t, got, "## _attribute_ `UNIT`\n\nType: [`Square`](#shapes-core-square)\n\nDefault: `Square(1.0)`\n\n")
}

func TestRender_Util(t *testing.T) {
	g, paths := shapes(t)
	got := document(t, New(g, paths, Options{}), g, "shapes.util")

	assert.Contains(t, got, "**Overloads**\n\n- `scale(x: int) -> int`\n- `scale(x: float) -> float`\n\n")
	assert.Contains(t, got, "## _lambda function_ `double(x)`")
	assert.Contains(t, got, "Re-exported from [`shapes.core.Square`](core.md#shapes-core-square)")
}

func TestRender_Options(t *testing.T) {
	g, paths := shapes(t)

	got := document(t, New(g, paths, Options{IgnoreData: true}), g, "shapes.core")
	assert.NotContains(t, got, "UNIT")
	assert.NotContains(t, got, "`sides`")

	got = document(t, New(g, paths, Options{SortMembers: true}), g, "shapes.core")
	area := strings.Index(got, `<a id="shapes-core-area">`)
	shape := strings.Index(got, `<a id="shapes-core-shape">`)
	unit := strings.Index(got, `<a id="shapes-core-unit">`)
	require.True(t, area >= 0 && shape >= 0 && unit >= 0)
	assert.Less(t, area, shape)
	assert.Less(t, shape, unit)
}

const caseFixture = `
-- app/__init__.py --
"""Application."""


class Config:
    """Application config."""
-- app/config.py --
"""Configuration."""


class Settings:
    """Settings holder."""


settings = Settings()
"""Default settings."""
`

func TestRender_NamesDifferingByCase(t *testing.T) {
	g, paths := build(t, testutil.ExtractString(t, caseFixture), "app")
	r := New(g, paths, Options{AnchorExtend: true})

	app := document(t, r, g, "app")
	assert.Contains(t, app, "- [app.config](config.md) — Configuration.\n")
	assert.Contains(t, app, "<a id=\"app-config-4\"></a>\n\n## _class_ `Config` {#app-config-4}\n\nApplication config.\n\n")

	config := document(t, r, g, "app.config")
	assert.Contains(t, config, "<a id=\"app-config-settings-11\"></a>\n\n## _class_ `Settings` {#app-config-settings-11}\n\n")
	assert.Contains(t, config, "<a id=\"app-config-settings\"></a>\n\n## _attribute_ `settings` {#app-config-settings}\n\n")
	assert.Contains(t, config, "Type: [`Settings`](#app-config-settings-11)")
}

func TestRender_Idempotent(t *testing.T) {
	g1, paths1 := shapes(t)
	g2, paths2 := shapes(t)
	r1 := New(g1, paths1, Options{})
	r2 := New(g2, paths2, Options{})
	for _, m := range g1.Modules() {
		first := document(t, r1, g1, m.QualName())
		assert.Equal(t, first, document(t, r1, g1, m.QualName()), m.QualName())
		assert.Equal(t, first, document(t, r2, g2, m.QualName()), m.QualName())
	}
}

func TestCell(t *testing.T) {
	assert.Equal(t, `int \| None`, cell("int | None"))
	assert.Equal(t, "one two<br><br>three", cell("one\ntwo\n\nthree"))
}
