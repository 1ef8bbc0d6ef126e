package reflector

import (
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/model"
)

// builtinExceptions are base names that make a class an exception even
// though they do not follow the Error/Exception/Warning naming scheme.
var builtinExceptions = map[string]bool{
	"BaseException":      true,
	"Exception":          true,
	"GeneratorExit":      true,
	"KeyboardInterrupt":  true,
	"StopAsyncIteration": true,
	"StopIteration":      true,
	"SystemExit":         true,
}

// inherit resolves base classes, linearises every hierarchy and attaches
// inherited members.
func (b *builder) inherit() {
	bases := make(map[*classState][]*classState, len(b.classes))
	for _, cs := range b.classes {
		for i := range cs.cls.Bases {
			ref := &cs.cls.Bases[i]
			e, ok := b.resolveName(cs.ms, baseName(ref.Text))
			if !ok {
				continue
			}
			if parent, isClass := e.(*model.Class); isClass {
				ref.Target = parent.QualifiedName
				bases[cs] = append(bases[cs], b.classOf[parent])
			}
		}
	}
	for _, cs := range b.classes {
		b.linearize(cs, bases)
	}
	for _, cs := range b.classes {
		attach(cs)
		chain := append([]*model.Class{cs.cls}, cs.mro...)
		cs.cls.Exception = isException(chain)
		cs.cls.Abstract = isABC(chain) && hasAbstract(cs.cls)
	}
}

// baseName strips subscripts and call arguments from a base class
// expression: "Generic[T]" is "Generic".
func baseName(text string) string {
	if i := strings.IndexAny(text, "[("); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// linearize computes the C3 method resolution order of cs, excluding cs
// itself. Inconsistent hierarchies fall back to a depth-first, left to right
// order without duplicates; cycles are cut where they are detected.
func (b *builder) linearize(cs *classState, bases map[*classState][]*classState) []*model.Class {
	switch cs.state {
	case visited:
		return cs.mro
	case visiting:
		return nil
	}
	cs.state = visiting

	var seqs [][]*model.Class
	var direct []*model.Class
	for _, p := range bases[cs] {
		seqs = append(seqs, append([]*model.Class{p.cls}, b.linearize(p, bases)...))
		direct = append(direct, p.cls)
	}
	seqs = append(seqs, direct)
	mro, ok := merge(seqs)
	if !ok {
		mro = depthFirst(cs, bases)
	}
	out := mro[:0]
	for _, c := range mro {
		if c != cs.cls {
			out = append(out, c)
		}
	}

	cs.mro = out
	cs.state = visited
	cs.cls.MRO = make([]string, len(out))
	for i, c := range out {
		cs.cls.MRO[i] = c.QualifiedName
	}
	return out
}

func merge(seqs [][]*model.Class) ([]*model.Class, bool) {
	var out []*model.Class
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, true
		}
		var head *model.Class
		for _, s := range seqs {
			if !inTail(seqs, s[0]) {
				head = s[0]
				break
			}
		}
		if head == nil {
			return nil, false
		}
		out = append(out, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(seqs [][]*model.Class, c *model.Class) bool {
	for _, s := range seqs {
		for _, t := range s[1:] {
			if t == c {
				return true
			}
		}
	}
	return false
}

func depthFirst(cs *classState, bases map[*classState][]*classState) []*model.Class {
	seen := map[*classState]bool{cs: true}
	var out []*model.Class
	var walk func(c *classState)
	walk = func(c *classState) {
		for _, p := range bases[c] {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p.cls)
			walk(p)
		}
	}
	walk(cs)
	return out
}

// attach appends the members cs inherits, in MRO order, and links local
// members to the ancestor member they override.
func attach(cs *classState) {
	c := cs.cls
	locals := make(map[string]*model.Member, len(c.Members))
	for _, m := range c.Members {
		locals[m.Name()] = m
	}
	present := make(map[string]bool, len(locals))
	for name := range locals {
		present[name] = true
	}
	for _, anc := range cs.mro {
		for _, m := range anc.Members {
			if m.Inherited {
				continue
			}
			name := m.Name()
			if local, ok := locals[name]; ok && local.Overrides == "" {
				local.Overrides = m.QualName()
			}
			if present[name] {
				continue
			}
			present[name] = true
			c.Members = append(c.Members, &model.Member{
				Entity:     m.Entity,
				Inherited:  true,
				DeclaredIn: anc.QualifiedName,
			})
		}
	}
}

func lastSegment(name string) string {
	return name[strings.LastIndexByte(name, '.')+1:]
}

// isException reports whether any class in chain derives from an exception
// base outside the graph.
func isException(chain []*model.Class) bool {
	for _, c := range chain {
		for _, ref := range c.Bases {
			if ref.Target != "" {
				continue
			}
			name := lastSegment(baseName(ref.Text))
			if builtinExceptions[name] ||
				strings.HasSuffix(name, "Error") ||
				strings.HasSuffix(name, "Exception") ||
				strings.HasSuffix(name, "Warning") {
				return true
			}
		}
	}
	return false
}

// isABC reports whether chain uses abc.ABC or abc.ABCMeta.
func isABC(chain []*model.Class) bool {
	for _, c := range chain {
		if lastSegment(baseName(c.Metaclass)) == "ABCMeta" {
			return true
		}
		for _, ref := range c.Bases {
			if ref.Target != "" {
				continue
			}
			if name := lastSegment(baseName(ref.Text)); name == "ABC" || name == "ABCMeta" {
				return true
			}
		}
	}
	return false
}

// hasAbstract reports whether an abstract member is left unimplemented.
func hasAbstract(c *model.Class) bool {
	for _, m := range c.Members {
		switch v := m.Entity.(type) {
		case *model.Function:
			if v.Has(model.MarkAbstract) {
				return true
			}
		case *model.Property:
			if v.Abstract {
				return true
			}
		}
	}
	return false
}
