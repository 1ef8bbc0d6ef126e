// Package outpath maps module qualified names to the relative paths of
// their documents and builds links between documents.
//
// Paths are slash separated and relative to the output root. A package
// "a.b" maps to "a/b/index.md", a module "a.b.c" to "a/b/c.md".
package outpath

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultInitFileName is the document name used for packages.
const DefaultInitFileName = "index.md"

// ErrPathCollision is returned when two modules map to the same document.
var ErrPathCollision = errors.New("output path collision")

type Options struct {
	// ExcludeModuleName drops the root module's own name from every path.
	ExcludeModuleName bool
	InitFileName      string
}

// Mapper assigns document paths to modules and remembers the assignment.
type Mapper struct {
	opts    Options
	owners  map[string]string
	modules map[string]string
}

func New(opts Options) *Mapper {
	if opts.InitFileName == "" {
		opts.InitFileName = DefaultInitFileName
	}
	return &Mapper{
		opts:    opts,
		owners:  make(map[string]string),
		modules: make(map[string]string),
	}
}

// Path computes the document path of a module or package. It does not
// record anything.
func (m *Mapper) Path(qualname string, pkg bool) string {
	segs := strings.Split(qualname, ".")
	if m.opts.ExcludeModuleName && len(segs) > 1 {
		segs = segs[1:]
	} else if m.opts.ExcludeModuleName && pkg {
		return m.opts.InitFileName
	}
	if pkg {
		return path.Join(append(segs, m.opts.InitFileName)...)
	}
	last := len(segs) - 1
	return path.Join(append(segs[:last:last], segs[last]+".md")...)
}

// Add assigns the module its document path. Paths are compared
// case-insensitively; a path already taken by another module is refused
// with ErrPathCollision.
func (m *Mapper) Add(qualname string, pkg bool) (string, error) {
	p := m.Path(qualname, pkg)
	k := strings.ToLower(p)
	if owner, ok := m.owners[k]; ok && owner != qualname {
		return "", errors.Wrapf(ErrPathCollision, "%s maps to %s, already written for %s", qualname, p, owner)
	}
	m.owners[k] = qualname
	m.modules[qualname] = p
	return p, nil
}

// Lookup returns the path assigned to a module by Add.
func (m *Mapper) Lookup(qualname string) (string, bool) {
	p, ok := m.modules[qualname]
	return p, ok
}

// Owner returns the module whose document is at path, compared
// case-insensitively.
func (m *Mapper) Owner(p string) (string, bool) {
	owner, ok := m.owners[strings.ToLower(p)]
	return owner, ok
}

// InitFileName is the document name used for packages.
func (m *Mapper) InitFileName() string {
	return m.opts.InitFileName
}

// Rel returns the link from the document at from to anchor in the document
// at to. Links within one document are bare fragments.
func Rel(from, to, anchor string) string {
	frag := ""
	if anchor != "" {
		frag = "#" + anchor
	}
	if from == to {
		if frag == "" {
			return path.Base(to)
		}
		return frag
	}
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from)), filepath.FromSlash(to))
	if err != nil {
		rel = to
	}
	return filepath.ToSlash(rel) + frag
}
