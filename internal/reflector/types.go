package reflector

import (
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/pysrc"
)

// builtinNames never produce unresolved reference diagnostics.
var builtinNames = map[string]bool{
	"None": true, "True": true, "False": true, "Ellipsis": true,
	"bool": true, "bytearray": true, "bytes": true, "complex": true,
	"dict": true, "float": true, "frozenset": true, "int": true,
	"list": true, "memoryview": true, "object": true, "range": true,
	"set": true, "slice": true, "str": true, "tuple": true, "type": true,
	"callable": true, "optional": true, "any": true,
}

// inferFrom sets the type of a parameter or attribute from the kind of its
// value. Constructor calls are settled by inferTypes once every class is
// known.
func (b *builder) inferFrom(ms *modState, kind pysrc.ValueKind, callee string, typ *string, src *model.TypeSource) {
	switch kind {
	case "", pysrc.ValueNone:
	case pysrc.ValueCall:
		if callee != "" {
			b.fixes = append(b.fixes, typeFix{ms: ms, callee: callee, typ: typ, src: src})
		}
	default:
		*typ, *src = string(kind), model.TypeInferred
	}
}

func (b *builder) inferTypes() {
	for _, fix := range b.fixes {
		if *fix.src != model.TypeNone {
			continue
		}
		if e, ok := b.resolveName(fix.ms, fix.callee); ok {
			if _, isClass := e.(*model.Class); isClass {
				*fix.typ, *fix.src = fix.callee, model.TypeInferred
			}
		}
	}
}

// collectRefs resolves the names used in type and base class texts. They
// are recorded on the module whose document renders the entity, resolved in
// the scope of the module that declares it.
func (b *builder) collectRefs() {
	for _, ms := range b.modules {
		for _, e := range ms.scope.declared {
			b.refs(ms, e)
		}
	}
}

func (b *builder) refs(ms *modState, e model.Entity) {
	doc, ok := b.byModule[e.Module()]
	if !ok {
		return
	}
	var texts []string
	switch v := e.(type) {
	case *model.Class:
		for _, ref := range v.Bases {
			texts = append(texts, ref.Text)
		}
		for _, m := range v.Members {
			if !m.Inherited {
				b.refs(ms, m.Entity)
			}
		}
	case *model.Function:
		texts = signatureTypes(texts, v.Signature)
		for _, sig := range v.Overloads {
			texts = signatureTypes(texts, sig)
		}
	case *model.Property:
		texts = append(texts, v.Type)
	case *model.Attribute:
		texts = append(texts, v.Type)
	}
	refs := doc.mod.Refs
	for _, text := range texts {
		for _, name := range model.NamePattern.FindAllString(text, -1) {
			if _, done := refs[name]; done {
				continue
			}
			if target, ok := b.resolveName(ms, name); ok {
				refs[name] = target.QualName()
				continue
			}
			head, _, _ := strings.Cut(name, ".")
			if builtinNames[head] || builtinNames[strings.ToLower(head)] {
				continue
			}
			if _, imported := ms.mod.Imports[head]; imported {
				continue
			}
			b.note(e, diag.UnresolvedReference, "type name %s does not resolve", name)
		}
	}
}

func signatureTypes(texts []string, sig model.Signature) []string {
	for _, p := range sig.Params {
		if p.Type != "" {
			texts = append(texts, p.Type)
		}
	}
	if sig.Returns != "" {
		texts = append(texts, sig.Returns)
	}
	return texts
}
