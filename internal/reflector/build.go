package reflector

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/diag"
	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/pysrc"
)

type modState struct {
	mod    *model.Module
	hidden bool
	// imports lists import bindings in source order, later bindings of a
	// name replacing earlier ones.
	imports   []binding
	wildcards []string
	scope     *scope
}

type binding struct {
	name   string
	target string
	line   int
	// explicit is set for the "import x as x" re-export idiom.
	explicit bool
}

type classState struct {
	cls   *model.Class
	ms    *modState
	mro   []*model.Class
	state int
}

const (
	unvisited = iota
	visiting
	visited
)

// typeFix defers type inference from a constructor call until every class
// is known.
type typeFix struct {
	ms     *modState
	callee string
	typ    *string
	src    *model.TypeSource
}

type builder struct {
	r     *Reflector
	graph *model.Graph

	// symbols indexes every declaration, documented or not, by qualified
	// name.
	symbols  map[string]model.Entity
	modules  []*modState
	byModule map[string]*modState
	classes  []*classState
	classOf  map[*model.Class]*classState
	// listed marks entities that appear in the member list of a documented
	// module, directly or through a documented class.
	listed  map[model.Entity]bool
	pending map[model.Entity][]diag.Diagnostic
	adopted map[*model.Alias]model.Entity
	fixes   []typeFix
}

func newBuilder(r *Reflector) *builder {
	return &builder{
		r:        r,
		graph:    model.NewGraph(),
		symbols:  make(map[string]model.Entity),
		byModule: make(map[string]*modState),
		classOf:  make(map[*model.Class]*classState),
		listed:   make(map[model.Entity]bool),
		pending:  make(map[model.Entity][]diag.Diagnostic),
		adopted:  make(map[*model.Alias]model.Entity),
	}
}

func (b *builder) build(roots []*unit) *model.Graph {
	var mods []*model.Module
	for _, u := range roots {
		if m := b.module(u); m != nil {
			mods = append(mods, m)
		}
	}
	b.reexports()
	b.inherit()
	b.inferTypes()
	b.collectRefs()
	b.graph.Roots = b.register(mods)
	return b.graph
}

func (b *builder) declare(e model.Entity) {
	if _, ok := b.symbols[e.QualName()]; !ok {
		b.symbols[e.QualName()] = e
	}
}

func (b *builder) lookup(qual string) (model.Entity, bool) {
	e, ok := b.symbols[qual]
	return e, ok
}

// note records a diagnostic about e, reported once e is registered.
func (b *builder) note(e model.Entity, kind diag.Kind, format string, args ...any) {
	b.pending[e] = append(b.pending[e], diag.Diagnostic{
		Kind:    kind,
		Module:  e.Module(),
		Entity:  e.QualName(),
		Line:    e.Line(),
		Message: fmt.Sprintf(format, args...),
	})
}

// module turns a unit and its children into modules. Units that failed to
// load are reported and skipped together with their submodules.
func (b *builder) module(u *unit) *model.Module {
	if u.err != nil {
		msg := u.err.Error()
		if n := len(flatten(u.children)); n > 0 {
			msg += fmt.Sprintf("; %d submodules skipped", n)
		}
		b.r.diags.Add(diag.Diagnostic{Kind: diag.ImportFailure, Module: u.name, Path: u.path, Message: msg})
		return nil
	}
	name := u.name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	m := &model.Module{
		Base:      model.Base{QualifiedName: u.name, ShortName: name, ModuleName: u.name},
		Path:      u.path,
		Package:   u.pkg,
		Namespace: u.namespace,
		All:       u.file.All,
		HasAll:    u.file.HasAll,
		Imports:   make(map[string]string),
		Refs:      make(map[string]string),
	}
	ms := &modState{mod: m, hidden: u.hidden}
	b.modules = append(b.modules, ms)
	if _, dup := b.byModule[u.name]; !dup {
		b.byModule[u.name] = ms
	}
	b.declare(m)
	if u.file.HasDoc {
		m.Docstring = b.doc(m, u.file.Doc)
	}
	b.imports(ms, u.file.Imports)

	s := &scope{b: b, ms: ms, parent: m.QualifiedName, listed: !u.hidden, byName: make(map[string]model.Entity)}
	for _, d := range u.file.Decls {
		s.add(d)
	}
	ms.scope = s
	m.Members = s.members
	b.mergeAttributes(m.Docstring, s.members)

	for _, c := range u.children {
		sub := b.module(c)
		if sub != nil && !c.hidden {
			m.Submodules = append(m.Submodules, sub)
		}
	}
	return m
}

func (b *builder) imports(ms *modState, imports []pysrc.Import) {
	for _, imp := range imports {
		from := b.importBase(ms, imp)
		if imp.Wildcard {
			if from != "" {
				ms.wildcards = append(ms.wildcards, from)
			}
			continue
		}
		var target string
		switch {
		case imp.Name != "":
			if from == "" {
				continue
			}
			target = from + "." + imp.Name
		case imp.Alias != "":
			target = imp.Module
		default:
			target = imp.Binding()
		}
		name := imp.Binding()
		last := imp.Name
		if last == "" {
			last = imp.Module[strings.LastIndexByte(imp.Module, '.')+1:]
		}
		ms.mod.Imports[name] = target
		ms.imports = append(ms.imports, binding{
			name:     name,
			target:   target,
			line:     imp.Line,
			explicit: imp.Alias != "" && imp.Alias == last,
		})
	}
}

// importBase returns the absolute module a "from" import reads from.
func (b *builder) importBase(ms *modState, imp pysrc.Import) string {
	if imp.Level == 0 {
		return imp.Module
	}
	pkg := ms.mod.QualifiedName
	if !ms.mod.Package {
		pkg = model.Parent(pkg)
	}
	for i := 1; i < imp.Level; i++ {
		if pkg == "" {
			return ""
		}
		pkg = model.Parent(pkg)
	}
	switch {
	case pkg == "":
		return imp.Module
	case imp.Module == "":
		return pkg
	}
	return pkg + "." + imp.Module
}

// doc parses docstring text for e, recording degradations.
func (b *builder) doc(e model.Entity, text string) *docstring.Docstring {
	if text == "" {
		return nil
	}
	d, err := docstring.Parse(text, b.r.opts.Style)
	if err != nil {
		b.note(e, diag.DocstringDegradation, "%v", err)
		d, _ = docstring.Parse(text, docstring.Auto)
	}
	for _, n := range d.Notes {
		b.note(e, diag.DocstringDegradation, "%s", n)
	}
	return d
}

func declDoc(d pysrc.Decl) string {
	if d.HasDoc {
		return d.Doc
	}
	return d.Comment
}

// mergeAttributes completes attribute members from an "Attributes"
// docstring section.
func (b *builder) mergeAttributes(doc *docstring.Docstring, members []model.Entity) {
	if doc == nil || len(doc.Attributes) == 0 {
		return
	}
	for _, e := range members {
		a, ok := e.(*model.Attribute)
		if !ok {
			continue
		}
		da, ok := doc.Attribute(a.Name())
		if !ok {
			continue
		}
		if a.Docstring.Empty() && da.Description != "" {
			a.Docstring, _ = docstring.Parse(da.Description, docstring.Auto)
		}
		if da.Type != "" && a.TypeSource != model.TypeAnnotation {
			a.Type, a.TypeSource = da.Type, model.TypeDocstring
		}
	}
}

// scope collects the members of a module or class body.
type scope struct {
	b      *builder
	ms     *modState
	parent string
	class  *model.Class
	listed bool

	members []model.Entity
	// declared lists every binding in source order, visible or not.
	declared []model.Entity
	byName   map[string]model.Entity
}

func (s *scope) visible(name string) bool {
	if s.class != nil {
		return !isPrivate(name) || name == "__init__"
	}
	if s.ms.mod.HasAll {
		return s.ms.mod.Exports(name)
	}
	return !isPrivate(name)
}

func (s *scope) base(name string, line int) model.Base {
	return model.NewBase(s.parent, s.ms.mod.QualifiedName, name, line)
}

func (s *scope) add(d pysrc.Decl) {
	switch d.Kind {
	case pysrc.DeclClass:
		s.put(s.b.class(d, s))
	case pysrc.DeclFunction:
		s.function(d)
	case pysrc.DeclVariable:
		s.variable(d)
	}
}

// put adds e unless the name is already bound in this scope, in which case
// the first binding is kept.
func (s *scope) put(e model.Entity) {
	name := e.Name()
	if prev, ok := s.byName[name]; ok {
		if s.visible(name) {
			s.b.r.diags.Add(diag.Diagnostic{
				Kind:    diag.NameCollision,
				Module:  s.ms.mod.QualifiedName,
				Entity:  e.QualName(),
				Line:    e.Line(),
				Message: fmt.Sprintf("redefinition ignored; keeping the %s declared on line %d", prev.Kind(), prev.Line()),
			})
		}
		return
	}
	s.byName[name] = e
	s.declared = append(s.declared, e)
	s.b.declare(e)
	if s.visible(name) {
		s.members = append(s.members, e)
		if s.listed {
			s.b.listed[e] = true
		}
	}
}

type propKind int

const (
	propNone propKind = iota
	propPlain
	propCached
)

type decorators struct {
	markers  model.Marker
	prop     propKind
	accessor string
	setter   bool
}

func parseDecorators(list []string) decorators {
	var out decorators
	for _, dec := range list {
		name := dec
		if i := strings.IndexByte(name, '('); i >= 0 {
			name = name[:i]
		}
		last := name[strings.LastIndexByte(name, '.')+1:]
		switch last {
		case "staticmethod":
			out.markers |= model.MarkStatic
		case "classmethod":
			out.markers |= model.MarkClassMethod
		case "abstractmethod":
			out.markers |= model.MarkAbstract
		case "overload":
			out.markers |= model.MarkOverload
		case "property":
			out.prop = propPlain
		case "cached_property":
			out.prop = propCached
		case "abstractproperty":
			out.prop = propPlain
			out.markers |= model.MarkAbstract
		case "setter", "deleter":
			if strings.Count(name, ".") == 1 {
				out.accessor = name[:strings.IndexByte(name, '.')]
				out.setter = last == "setter"
			}
		}
	}
	return out
}

func (s *scope) function(d pysrc.Decl) {
	dec := parseDecorators(d.Decorators)
	if s.class != nil {
		if dec.accessor != "" {
			if p, ok := s.byName[dec.accessor].(*model.Property); ok {
				if dec.setter {
					p.ReadOnly = false
				} else {
					p.Deletable = true
				}
				if p.Docstring.Empty() {
					p.Docstring = s.b.doc(p, declDoc(d))
				}
				return
			}
		}
		if dec.prop != propNone {
			s.put(s.b.property(d, s, dec))
			return
		}
	}
	f := s.b.function(d, s, dec.markers)
	if prev, ok := s.byName[d.Name].(*model.Function); ok && (prev.Has(model.MarkOverload) || f.Has(model.MarkOverload)) {
		s.b.foldOverload(prev, f)
		return
	}
	s.put(f)
}

// foldOverload merges a @typing.overload variant or the implementation
// following the variants into the first declaration.
func (b *builder) foldOverload(prev, f *model.Function) {
	if f.Has(model.MarkOverload) {
		prev.Overloads = append(prev.Overloads, f.Signature)
		return
	}
	sigs := append([]model.Signature{prev.Signature}, prev.Overloads...)
	doc := prev.Docstring
	notes := b.pending[f]
	delete(b.pending, f)
	*prev = *f
	prev.Overloads = sigs
	if prev.Docstring == nil {
		prev.Docstring = doc
	}
	b.pending[prev] = append(b.pending[prev], notes...)
}

func (b *builder) function(d pysrc.Decl, s *scope, markers model.Marker) *model.Function {
	f := &model.Function{
		Base:       s.base(d.Name, d.Line),
		Decorators: d.Decorators,
		Markers:    markers,
		Async:      d.Async,
		Lambda:     d.Lambda,
		Method:     s.class != nil,
	}
	f.Params = make([]model.Param, len(d.Params))
	for i, p := range d.Params {
		f.Params[i] = model.Param{Name: p.Name, Type: p.Annotation, Default: p.Default, Kind: p.Kind}
		if p.Annotation != "" {
			f.Params[i].TypeSource = model.TypeAnnotation
		}
	}
	if d.Returns != "" {
		f.Returns, f.ReturnsSource = d.Returns, model.TypeAnnotation
	}
	f.Docstring = b.doc(f, declDoc(d))
	doc := f.Docstring

	for i, p := range d.Params {
		fp := &f.Params[i]
		if fp.Type != "" {
			continue
		}
		if dp, ok := doc.Param(p.Name); ok && dp.Type != "" {
			fp.Type, fp.TypeSource = dp.Type, model.TypeDocstring
			continue
		}
		b.inferFrom(s.ms, p.DefaultKind, p.DefaultCallee, &fp.Type, &fp.TypeSource)
	}
	if f.Returns == "" && doc != nil && doc.Returns != nil && doc.Returns.Type != "" {
		f.Returns, f.ReturnsSource = doc.Returns.Type, model.TypeDocstring
	}
	b.flagOrphans(f, doc, f.Params)
	return f
}

// flagOrphans marks documented parameters missing from params.
func (b *builder) flagOrphans(e model.Entity, doc *docstring.Docstring, params []model.Param) {
	if doc == nil {
		return
	}
	for i := range doc.Params {
		dp := &doc.Params[i]
		if hasParam(params, dp.Name) {
			continue
		}
		dp.Orphan = true
		b.note(e, diag.DocstringDegradation, "parameter %q is documented but not in the signature", dp.Name)
	}
}

func hasParam(params []model.Param, name string) bool {
	name = strings.TrimLeft(name, "*")
	for _, p := range params {
		if p.Name == name {
			return true
		}
	}
	return false
}

func (b *builder) property(d pysrc.Decl, s *scope, dec decorators) *model.Property {
	p := &model.Property{
		Base:     s.base(d.Name, d.Line),
		ReadOnly: true,
		Cached:   dec.prop == propCached,
		Abstract: dec.markers&model.MarkAbstract != 0,
	}
	p.Docstring = b.doc(p, declDoc(d))
	switch {
	case d.Returns != "":
		p.Type, p.TypeSource = d.Returns, model.TypeAnnotation
	case p.Docstring != nil && p.Docstring.Returns != nil && p.Docstring.Returns.Type != "":
		p.Type, p.TypeSource = p.Docstring.Returns.Type, model.TypeDocstring
	}
	return p
}

func (s *scope) variable(d pysrc.Decl) {
	a := &model.Attribute{Base: s.base(d.Name, d.Line), Default: d.Value}
	if d.HasDoc {
		a.Docstring = s.b.doc(a, d.Doc)
	}
	if d.Annotation != "" {
		a.Type, a.TypeSource = d.Annotation, model.TypeAnnotation
	}
	if prev, ok := s.byName[d.Name].(*model.Attribute); ok {
		// "x: int" followed by "x = 1" describes one variable.
		if prev.Type == "" && a.Type != "" {
			prev.Type, prev.TypeSource = a.Type, a.TypeSource
		}
		if prev.Default == "" {
			prev.Default = a.Default
		}
		if prev.Docstring == nil {
			prev.Docstring = a.Docstring
		}
		if prev.Type == "" {
			s.b.inferFrom(s.ms, d.ValueKind, d.Callee, &prev.Type, &prev.TypeSource)
		}
		return
	}
	if a.Type == "" {
		s.b.inferFrom(s.ms, d.ValueKind, d.Callee, &a.Type, &a.TypeSource)
	}
	s.put(a)
}

func (b *builder) class(d pysrc.Decl, s *scope) *model.Class {
	c := &model.Class{
		Base:       s.base(d.Name, d.Line),
		Decorators: d.Decorators,
		Metaclass:  d.Keywords["metaclass"],
	}
	for _, text := range d.Bases {
		c.Bases = append(c.Bases, model.Ref{Text: text})
	}
	c.Docstring = b.doc(c, declDoc(d))

	inner := &scope{
		b:      b,
		ms:     s.ms,
		parent: c.QualifiedName,
		class:  c,
		listed: s.listed && s.visible(d.Name),
		byName: make(map[string]model.Entity),
	}
	for _, m := range d.Body {
		inner.add(m)
	}
	for _, e := range inner.members {
		c.Members = append(c.Members, &model.Member{Entity: e})
	}
	b.mergeAttributes(c.Docstring, inner.members)
	if init, ok := inner.byName["__init__"].(*model.Function); ok {
		b.flagOrphans(c, c.Docstring, init.Params)
	}

	cs := &classState{cls: c, ms: s.ms}
	b.classes = append(b.classes, cs)
	b.classOf[c] = cs
	return c
}
