package reflector

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/model"
)

const maxResolveDepth = 32

// resolve finds the entity a qualified name denotes, following re-export
// aliases, import bindings and star imports of the modules on the way.
func (b *builder) resolve(qual string, depth int) (model.Entity, bool) {
	if depth > maxResolveDepth || qual == "" {
		return nil, false
	}
	if e, ok := b.lookup(qual); ok {
		if a, isAlias := e.(*model.Alias); isAlias {
			return b.resolve(a.Target, depth+1)
		}
		return e, true
	}
	ms, rest := b.owner(qual)
	if ms == nil {
		return nil, false
	}
	head, tail, _ := strings.Cut(rest, ".")
	if target, ok := ms.mod.Imports[head]; ok {
		if tail != "" {
			target += "." + tail
		}
		return b.resolve(target, depth+1)
	}
	for _, w := range ms.wildcards {
		if src, ok := b.byModule[w]; ok && !starExports(src.mod, head) {
			continue
		}
		if e, ok := b.resolve(w+"."+rest, depth+1); ok {
			return e, true
		}
	}
	return nil, false
}

// owner splits qual into the longest known module prefix and the rest.
func (b *builder) owner(qual string) (*modState, string) {
	for i := strings.LastIndexByte(qual, '.'); i > 0; i = strings.LastIndexByte(qual[:i], '.') {
		if ms, ok := b.byModule[qual[:i]]; ok {
			return ms, qual[i+1:]
		}
	}
	return nil, ""
}

// starExports reports whether "from m import *" binds name.
func starExports(m *model.Module, name string) bool {
	if m.HasAll {
		return m.Exports(name)
	}
	return !isPrivate(name)
}

// resolveName resolves a dotted name as written in the source of ms.
func (b *builder) resolveName(ms *modState, text string) (model.Entity, bool) {
	if e, ok := b.resolve(ms.mod.QualifiedName+"."+text, 0); ok {
		return e, true
	}
	return b.resolve(text, 0)
}

// reexports turns imported names that documented modules expose into
// aliases. An entity that is not documented anywhere else is adopted by the
// first module re-exporting it and rendered in that module's document.
func (b *builder) reexports() {
	for _, ms := range b.modules {
		if ms.hidden {
			continue
		}
		m := ms.mod
		last := make(map[string]binding)
		var names []string
		for _, bd := range ms.imports {
			if _, seen := last[bd.name]; !seen {
				names = append(names, bd.name)
			}
			last[bd.name] = bd
		}
		for _, name := range names {
			bd := last[name]
			if _, local := ms.scope.byName[name]; local || b.submodule(m, name) {
				continue
			}
			if !m.Exports(name) && (m.HasAll || !bd.explicit) {
				continue
			}
			b.alias(ms, name, bd.target, bd.line)
		}
		for _, name := range m.All {
			if _, local := ms.scope.byName[name]; local {
				continue
			}
			if _, imported := last[name]; imported {
				continue
			}
			if b.submodule(m, name) {
				continue
			}
			target := ""
			for _, w := range ms.wildcards {
				if _, ok := b.resolve(w+"."+name, 0); ok {
					target = w + "." + name
					break
				}
			}
			if target == "" {
				b.note(m, diag.UnresolvedReference, "%q is listed in __all__ but never defined", name)
				continue
			}
			b.alias(ms, name, target, 0)
		}
	}
}

func (b *builder) submodule(m *model.Module, name string) bool {
	_, ok := b.byModule[m.QualifiedName+"."+name]
	return ok
}

func (b *builder) alias(ms *modState, name, target string, line int) {
	m := ms.mod
	a := &model.Alias{
		Base:   model.NewBase(m.QualifiedName, m.QualifiedName, name, line),
		Target: target,
	}
	ms.scope.byName[name] = a
	b.declare(a)
	insertByLine(m, a)

	e, ok := b.resolve(target, 0)
	if !ok {
		b.note(a, diag.UnresolvedReference, "re-exported name %s does not resolve", target)
		return
	}
	a.Target = e.QualName()
	if _, isModule := e.(*model.Module); isModule || b.listed[e] {
		return
	}
	b.adopt(e, m.QualifiedName)
	b.adopted[a] = e
}

// insertByLine places a before the first member declared after it.
// Aliases without a source line go last.
func insertByLine(m *model.Module, a *model.Alias) {
	i := len(m.Members)
	if a.Line() > 0 {
		for j, e := range m.Members {
			if e.Line() > a.Line() {
				i = j
				break
			}
		}
	}
	m.Members = append(m.Members, nil)
	copy(m.Members[i+1:], m.Members[i:])
	m.Members[i] = a
}

// adopt moves e and its class members into the document of module.
func (b *builder) adopt(e model.Entity, module string) {
	b.listed[e] = true
	if base := baseOf(e); base != nil {
		base.ModuleName = module
	}
	if c, ok := e.(*model.Class); ok {
		for _, m := range c.Members {
			if !m.Inherited {
				b.adopt(m.Entity, module)
			}
		}
	}
}

func baseOf(e model.Entity) *model.Base {
	switch v := e.(type) {
	case *model.Class:
		return &v.Base
	case *model.Function:
		return &v.Base
	case *model.Property:
		return &v.Base
	case *model.Attribute:
		return &v.Base
	case *model.Alias:
		return &v.Base
	case *model.Module:
		return &v.Base
	}
	return nil
}

// register indexes the documented entities. Modules go first so that a
// member never shadows a module of the same name; of two entities sharing a
// qualified name the first in discovery order is kept.
func (b *builder) register(roots []*model.Module) []*model.Module {
	kept := b.registerModules(roots)
	var walk func(m *model.Module)
	walk = func(m *model.Module) {
		m.Members = b.registerMembers(m.Members)
		for _, sub := range m.Submodules {
			walk(sub)
		}
	}
	for _, m := range kept {
		walk(m)
	}
	return kept
}

func (b *builder) registerModules(mods []*model.Module) []*model.Module {
	var kept []*model.Module
	for _, m := range mods {
		if !b.registerOne(m) {
			continue
		}
		m.Submodules = b.registerModules(m.Submodules)
		kept = append(kept, m)
	}
	return kept
}

func (b *builder) registerMembers(members []model.Entity) []model.Entity {
	kept := members[:0]
	for _, e := range members {
		if !b.registerOne(e) {
			continue
		}
		kept = append(kept, e)
		switch v := e.(type) {
		case *model.Class:
			b.registerClass(v)
		case *model.Alias:
			if target, ok := b.adopted[v]; ok && b.registerOne(target) {
				if c, isClass := target.(*model.Class); isClass {
					b.registerClass(c)
				}
			}
		}
	}
	return kept
}

func (b *builder) registerClass(c *model.Class) {
	kept := c.Members[:0]
	for _, m := range c.Members {
		if m.Inherited {
			b.graph.Claim(c.QualName() + "." + m.Name())
		} else {
			if !b.registerOne(m.Entity) {
				continue
			}
			if inner, ok := m.Entity.(*model.Class); ok {
				b.registerClass(inner)
			}
		}
		kept = append(kept, m)
	}
	c.Members = kept
}

func (b *builder) registerOne(e model.Entity) bool {
	prev, ok := b.graph.Register(e)
	if !ok {
		b.r.diags.Add(diag.Diagnostic{
			Kind:    diag.NameCollision,
			Module:  e.Module(),
			Entity:  e.QualName(),
			Line:    e.Line(),
			Message: fmt.Sprintf("%s dropped; %s %s already owns the name", e.Kind(), prev.Kind(), prev.QualName()),
		})
		return false
	}
	for _, d := range b.pending[e] {
		b.r.diags.Add(d)
	}
	delete(b.pending, e)
	return true
}
