package model

import (
	"strconv"
	"unicode"
)

const maxAliasDepth = 16

// Graph is the documentation graph of one run.
type Graph struct {
	Roots []*Module
	index map[string]Entity
	order []string
	// slugs groups the claimed qualified names by their lowercase slug.
	slugs map[string]map[string]bool
}

func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]Entity),
		slugs: make(map[string]map[string]bool),
	}
}

// Register indexes e by qualified name. When another entity already owns
// the name the index is left unchanged and the existing entity is returned
// with false.
func (g *Graph) Register(e Entity) (Entity, bool) {
	q := e.QualName()
	if prev, ok := g.index[q]; ok {
		return prev, false
	}
	g.index[q] = e
	g.order = append(g.order, q)
	g.Claim(q)
	return e, true
}

// Claim reserves the anchor of a section rendered under qualname without
// being indexed, such as a member inherited from a base class. Registered
// names are claimed by Register.
func (g *Graph) Claim(qualname string) {
	slug := Anchor(qualname)
	names, ok := g.slugs[slug]
	if !ok {
		names = make(map[string]bool)
		g.slugs[slug] = names
	}
	names[qualname] = true
}

// Anchor returns the anchor of the section rendered for qualname. It is
// the slug of qualname unless another claimed name differing only by case
// shares that slug. Then every upper case letter adds its byte offset, so
// "app.Config" next to "app.config" becomes "app-config-4". Identifiers
// never start with a digit, so the result cannot equal another slug.
func (g *Graph) Anchor(qualname string) string {
	slug := Anchor(qualname)
	if len(g.slugs[slug]) < 2 {
		return slug
	}
	buf := []byte(slug)
	for i, r := range qualname {
		if unicode.IsUpper(r) {
			buf = append(buf, '-')
			buf = strconv.AppendInt(buf, int64(i), 10)
		}
	}
	return string(buf)
}

// Lookup finds an entity by qualified name.
func (g *Graph) Lookup(qualname string) (Entity, bool) {
	e, ok := g.index[qualname]
	return e, ok
}

// Resolve looks up qualname and follows alias edges to the entity they
// name. It fails on dangling or cyclic aliases.
func (g *Graph) Resolve(qualname string) (Entity, bool) {
	for depth := 0; depth < maxAliasDepth; depth++ {
		e, ok := g.Lookup(qualname)
		if !ok {
			return nil, false
		}
		alias, isAlias := e.(*Alias)
		if !isAlias {
			return e, true
		}
		qualname = alias.Target
	}
	return nil, false
}

// Len is the number of indexed entities.
func (g *Graph) Len() int { return len(g.index) }

// QualNames lists indexed names in registration order.
func (g *Graph) QualNames() []string {
	return append([]string(nil), g.order...)
}

// Modules lists every module depth-first: a package precedes its
// submodules, siblings keep their order.
func (g *Graph) Modules() []*Module {
	var out []*Module
	var walk func(m *Module)
	walk = func(m *Module) {
		out = append(out, m)
		for _, sub := range m.Submodules {
			walk(sub)
		}
	}
	for _, root := range g.Roots {
		walk(root)
	}
	return out
}

// Module finds a module by qualified name.
func (g *Graph) Module(qualname string) (*Module, bool) {
	e, ok := g.Lookup(qualname)
	if !ok {
		return nil, false
	}
	m, ok := e.(*Module)
	return m, ok
}
