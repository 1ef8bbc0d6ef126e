package outpath

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		qual string
		pkg  bool
		want string
	}{
		{"root package", Options{}, "mypkg", true, "mypkg/index.md"},
		{"root module", Options{}, "mymod", false, "mymod.md"},
		{"submodule", Options{}, "mypkg.util", false, "mypkg/util.md"},
		{"subpackage", Options{}, "mypkg.sub", true, "mypkg/sub/index.md"},
		{"init file name", Options{InitFileName: "README.md"}, "mypkg.sub", true, "mypkg/sub/README.md"},
		{"exclude submodule", Options{ExcludeModuleName: true}, "mypkg.util", false, "util.md"},
		{"exclude subpackage", Options{ExcludeModuleName: true}, "mypkg.sub", true, "sub/index.md"},
		{"exclude root package", Options{ExcludeModuleName: true}, "mypkg", true, "index.md"},
		{"exclude root module", Options{ExcludeModuleName: true}, "mymod", false, "mymod.md"},
		{"deep", Options{ExcludeModuleName: true}, "a.b.c.d", false, "b/c/d.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.opts).Path(tt.qual, tt.pkg))
		})
	}
}

func TestAdd_Collision(t *testing.T) {
	m := New(Options{})

	p, err := m.Add("pkg.Util", false)
	require.NoError(t, err)
	assert.Equal(t, "pkg/Util.md", p)

	_, err = m.Add("pkg.util", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathCollision))
	assert.Contains(t, err.Error(), "pkg.Util")

	// Adding the same module again is not a collision.
	_, err = m.Add("pkg.Util", false)
	require.NoError(t, err)

	got, ok := m.Lookup("pkg.Util")
	require.True(t, ok)
	assert.Equal(t, "pkg/Util.md", got)
	_, ok = m.Lookup("pkg.util")
	assert.False(t, ok)

	owner, ok := m.Owner("PKG/util.md")
	require.True(t, ok)
	assert.Equal(t, "pkg.Util", owner)
	_, ok = m.Owner("index.md")
	assert.False(t, ok)
	assert.Equal(t, "index.md", m.InitFileName())
}

func TestRel(t *testing.T) {
	tests := []struct {
		from, to, anchor string
		want             string
	}{
		{"pkg/a.md", "pkg/a.md", "pkg-a-foo", "#pkg-a-foo"},
		{"pkg/a.md", "pkg/b.md", "pkg-b-foo", "b.md#pkg-b-foo"},
		{"pkg/index.md", "pkg/sub/index.md", "", "sub/index.md"},
		{"pkg/sub/x.md", "pkg/index.md", "pkg-y", "../index.md#pkg-y"},
		{"util.md", "index.md", "", "index.md"},
		{"index.md", "index.md", "", "index.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rel(tt.from, tt.to, tt.anchor), "%s -> %s", tt.from, tt.to)
	}
}
