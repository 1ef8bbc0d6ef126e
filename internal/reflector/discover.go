package reflector

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/pysrc"
)

// unit is a discovered module before it is turned into an entity.
type unit struct {
	name string
	// path is the source file; empty for namespace packages.
	path      string
	dir       string
	pkg       bool
	namespace bool
	// hidden units are private modules. They are parsed so that names
	// re-exported from them resolve, but never documented on their own.
	hidden   bool
	children []*unit

	file *pysrc.File
	err  error
}

func flatten(units []*unit) []*unit {
	var out []*unit
	var walk func(u *unit)
	walk = func(u *unit) {
		out = append(out, u)
		for _, c := range u.children {
			walk(c)
		}
	}
	for _, u := range units {
		walk(u)
	}
	return out
}

func (r *Reflector) discover(roots []string) []*unit {
	var found []*unit
	seen := make(map[string]bool)
	for _, name := range roots {
		name = strings.TrimSpace(name)
		if !validModuleName(name) {
			r.diags.Addf(diag.ImportFailure, name, "", "invalid module name")
			continue
		}
		if seen[name] {
			r.log.WithField("module", name).Debug("module already included by an earlier root")
			continue
		}
		u, ok := r.locate(name)
		if !ok {
			r.diags.Addf(diag.ImportFailure, name, "", "module not found on search path %s", strings.Join(r.opts.SearchPath, string(os.PathListSeparator)))
			continue
		}
		if u.pkg {
			r.walk(u)
		}
		for _, d := range flatten([]*unit{u}) {
			seen[d.name] = true
		}
		found = append(found, u)
	}
	return found
}

// locate resolves a dotted name. A regular package or module in any search
// path entry takes precedence over a namespace package.
func (r *Reflector) locate(name string) (*unit, bool) {
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, dir := range r.opts.SearchPath {
		base := filepath.Join(dir, rel)
		if init := filepath.Join(base, "__init__.py"); isFile(init) {
			return &unit{name: name, path: init, dir: base, pkg: true}, true
		}
		if isFile(base + ".py") {
			return &unit{name: name, path: base + ".py"}, true
		}
	}
	for _, dir := range r.opts.SearchPath {
		base := filepath.Join(dir, rel)
		if hasPython(base) {
			return &unit{name: name, dir: base, pkg: true, namespace: true}, true
		}
	}
	return nil, false
}

// walk discovers the submodules of a package in file name order.
func (r *Reflector) walk(u *unit) {
	entries, err := os.ReadDir(u.dir)
	if err != nil {
		r.diags.Add(diag.Diagnostic{Kind: diag.ImportFailure, Module: u.name, Path: u.dir, Message: err.Error()})
		return
	}
	taken := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if !isIdentifier(name) {
				continue
			}
			dir := filepath.Join(u.dir, name)
			child := &unit{name: u.name + "." + name, dir: dir, pkg: true, hidden: u.hidden || isPrivate(name)}
			switch init := filepath.Join(dir, "__init__.py"); {
			case isFile(init):
				child.path = init
			case hasPython(dir):
				child.namespace = true
			default:
				continue
			}
			taken[name] = true
			r.walk(child)
			u.children = append(u.children, child)
			continue
		}
		stem, ok := strings.CutSuffix(name, ".py")
		if !ok || stem == "__init__" || stem == "__main__" || !isIdentifier(stem) || taken[stem] {
			continue
		}
		taken[stem] = true
		u.children = append(u.children, &unit{
			name:   u.name + "." + stem,
			path:   filepath.Join(u.dir, name),
			hidden: u.hidden || isPrivate(stem),
		})
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// hasPython reports whether dir holds a Python module or package.
func hasPython(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			if isFile(filepath.Join(dir, e.Name(), "__init__.py")) {
				return true
			}
			continue
		}
		if strings.HasSuffix(e.Name(), ".py") {
			return true
		}
	}
	return false
}

func isPrivate(name string) bool { return strings.HasPrefix(name, "_") }

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func validModuleName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}
