package generate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
	"github.com/agentflare-ai/pydocmd/internal/reflector"
	"github.com/agentflare-ai/pydocmd/internal/testutil"
)

func shapesOptions(t *testing.T) Options {
	t.Helper()
	dir := testutil.Extract(t, filepath.Join("..", "..", "testdata", "shapes.txtar"))
	return Options{Reflector: reflector.Options{SearchPath: []string{dir}}}
}

func TestRun(t *testing.T) {
	var diags diag.List
	w := &MemWriter{}
	res, err := Run(context.Background(), []string{"shapes"}, shapesOptions(t), w, &diags)
	require.NoError(t, err)

	want := []string{"shapes/index.md", "shapes/core.md", "shapes/util.md"}
	assert.Equal(t, want, res.Documents)
	assert.ElementsMatch(t, want, w.Paths())
	assert.Equal(t, 1, diags.Count(diag.ImportFailure))
	assert.Zero(t, diags.Count(diag.OutputPathCollision))

	index, ok := w.Get("shapes/index.md")
	require.True(t, ok)
	assert.Contains(t, index, "# shapes\n")
	assert.Contains(t, index, "[shapes.core](core.md)")

	core, _ := w.Get("shapes/core.md")
	assert.Contains(t, core, "# shapes.core\n")
}

func TestRun_Index(t *testing.T) {
	opts := shapesOptions(t)
	opts.Index = true
	w := &MemWriter{}
	res, err := Run(context.Background(), []string{"shapes"}, opts, w, nil)
	require.NoError(t, err)
	assert.Equal(t, "index.md", res.Documents[len(res.Documents)-1])

	index, ok := w.Get("index.md")
	require.True(t, ok)
	assert.Equal(t, "# API reference\n\n## Modules\n\n- [shapes](shapes/index.md) — Geometry helpers.\n\n", index)

	// The root package owns index.md once its name is dropped from paths.
	opts.Paths = outpath.Options{ExcludeModuleName: true}
	w = &MemWriter{}
	res, err = Run(context.Background(), []string{"shapes"}, opts, w, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.md", "core.md", "util.md"}, res.Documents)
	index, _ = w.Get("index.md")
	assert.Contains(t, index, "# shapes\n")
}

func TestRun_PathCollision(t *testing.T) {
	dir := testutil.ExtractString(t, `
-- a/__init__.py --
"""Package a."""
-- a/util.py --
def f():
    pass
-- b/__init__.py --
"""Package b."""
-- b/util.py --
def g():
    pass
`)
	opts := Options{
		Reflector: reflector.Options{SearchPath: []string{dir}},
		Paths:     outpath.Options{ExcludeModuleName: true},
	}
	var diags diag.List
	w := &MemWriter{}
	res, err := Run(context.Background(), []string{"a", "b"}, opts, w, &diags)
	require.NoError(t, err)

	assert.Equal(t, []string{"index.md", "util.md"}, res.Documents)
	assert.Equal(t, 2, diags.Count(diag.OutputPathCollision))
	util, _ := w.Get("util.md")
	assert.Contains(t, util, "# a.util\n")
	assert.NotContains(t, util, "b.util")
}

func TestRun_NoRoots(t *testing.T) {
	_, err := Run(context.Background(), []string{"missing"}, Options{Reflector: reflector.Options{SearchPath: []string{t.TempDir()}}}, &MemWriter{}, nil)
	assert.True(t, errors.Is(err, reflector.ErrNoRoots))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []string{"shapes"}, shapesOptions(t), &MemWriter{}, nil)
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write(string, []byte) error { return errors.New("disk full") }

func TestRun_WriterError(t *testing.T) {
	res, err := Run(context.Background(), []string{"shapes"}, shapesOptions(t), failingWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write shapes/index.md")
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, res.Documents)
}

func TestDirWriter(t *testing.T) {
	root := t.TempDir()
	w := &DirWriter{Root: root}

	require.NoError(t, w.Write("pkg/sub/index.md", []byte("one")))
	got, err := os.ReadFile(filepath.Join(root, "pkg", "sub", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	err = w.Write("pkg/sub/index.md", []byte("two"))
	assert.True(t, errors.Is(err, ErrExists))

	w.Overwrite = true
	require.NoError(t, w.Write("pkg/sub/index.md", []byte("two")))
	got, _ = os.ReadFile(filepath.Join(root, "pkg", "sub", "index.md"))
	assert.Equal(t, "two", string(got))

	assert.Error(t, w.Write("../escape.md", nil))
	assert.Error(t, w.Write("/abs.md", nil))
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &StreamWriter{W: &buf}
	require.NoError(t, w.Write("a.md", []byte("# a\n")))
	require.NoError(t, w.Write("b.md", []byte("# b\n")))
	assert.Equal(t, "<!-- a.md -->\n\n# a\n\n<!-- b.md -->\n\n# b\n", buf.String())
}
