// Package render turns modules of a documentation graph into Markdown.
//
// Each module becomes one document: a "#" title, the module docstring, the
// list of submodules for packages, then one "##" section per member in
// declaration order with class members nested one level deeper. Every
// section is preceded by an HTML anchor derived from the entity's qualified
// name, so links between documents never depend on how a Markdown viewer
// slugs headings. Output is a pure function of the graph and the options.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/model"
	"github.com/agentflare-ai/pydocmd/internal/outpath"
)

const maxHeading = 6

// Paths resolves a module to the document it is written to.
type Paths interface {
	Lookup(qualname string) (string, bool)
}

type Options struct {
	// AnchorExtend appends a "{#anchor}" attribute to every heading.
	AnchorExtend bool
	// IgnoreData leaves attributes out.
	IgnoreData bool
	// SortMembers orders members alphabetically instead of by declaration.
	SortMembers bool
}

type Renderer struct {
	graph *model.Graph
	paths Paths
	opts  Options
}

func New(graph *model.Graph, paths Paths, opts Options) *Renderer {
	return &Renderer{graph: graph, paths: paths, opts: opts}
}

// page is the state of one document being written.
type page struct {
	*Renderer
	w    io.Writer
	mod  *model.Module
	path string
}

// Render writes the document of m.
func (r *Renderer) Render(w io.Writer, m *model.Module) {
	path, _ := r.paths.Lookup(m.QualName())
	p := &page{Renderer: r, w: w, mod: m, path: path}
	p.module()
}

func (p *page) module() {
	m := p.mod
	fmt.Fprintf(p.w, "# %s\n\n", m.QualName())
	doc := m.Doc()
	p.prose(doc)
	p.leftoverAttributes(doc, m.Members)
	p.examples(doc)
	if len(m.Submodules) > 0 {
		p.submodules()
	}
	for _, e := range p.order(m.Members) {
		p.entity(e, 2)
	}
}

func (p *page) submodules() {
	fmt.Fprintf(p.w, "## Submodules\n\n")
	for _, sub := range p.mod.Submodules {
		title := "`" + sub.QualName() + "`"
		if href, ok := p.link(sub.QualName()); ok {
			title = "[" + sub.QualName() + "](" + href + ")"
		}
		fmt.Fprintln(p.w, bulletLine(title, summaryText(sub.Doc())))
	}
	fmt.Fprintln(p.w)
}

// order returns members in output order.
func (p *page) order(members []model.Entity) []model.Entity {
	if !p.opts.SortMembers {
		return members
	}
	out := append([]model.Entity(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessName(out[i].Name(), out[j].Name())
	})
	return out
}

func (p *page) orderMembers(members []*model.Member) []*model.Member {
	if !p.opts.SortMembers {
		return members
	}
	out := append([]*model.Member(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		return lessName(out[i].Name(), out[j].Name())
	})
	return out
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// entity writes the section of e. notes are Markdown lines placed after
// the docstring prose.
func (p *page) entity(e model.Entity, level int, notes ...string) {
	switch v := e.(type) {
	case *model.Class:
		p.class(v, level, notes)
	case *model.Function:
		p.function(v, level, notes)
	case *model.Property:
		p.property(v, level, notes)
	case *model.Attribute:
		if !p.opts.IgnoreData {
			p.attribute(v, level, notes)
		}
	case *model.Alias:
		p.alias(v, level)
	}
}

func (p *page) heading(anchor string, level int, kind, title string) {
	if level > maxHeading {
		level = maxHeading
	}
	fmt.Fprintf(p.w, "<a id=\"%s\"></a>\n\n", anchor)
	h := fmt.Sprintf("%s _%s_ `%s`", strings.Repeat("#", level), kind, title)
	if p.opts.AnchorExtend {
		h += " {#" + anchor + "}"
	}
	fmt.Fprintf(p.w, "%s\n\n", h)
}

func (p *page) prose(d *docstring.Docstring) {
	if d.Summary != "" {
		fmt.Fprintf(p.w, "%s\n\n", d.Summary)
	}
	if d.Description != "" {
		fmt.Fprintf(p.w, "%s\n\n", dedent(d.Description))
	}
}

func (p *page) notes(lines []string) {
	for _, line := range lines {
		fmt.Fprintf(p.w, "%s\n\n", line)
	}
}

func (p *page) class(c *model.Class, level int, notes []string) {
	p.heading(p.graph.Anchor(c.QualName()), level, classKind(c), c.Name())
	if len(c.Bases) > 0 {
		bases := make([]string, len(c.Bases))
		for i, ref := range c.Bases {
			bases[i] = p.ref(ref)
		}
		fmt.Fprintf(p.w, "Bases: %s\n\n", strings.Join(bases, ", "))
	}
	doc := c.Doc()
	p.prose(doc)
	p.notes(notes)
	p.classParams(c, doc)
	var locals []model.Entity
	for _, m := range c.Members {
		if !m.Inherited {
			locals = append(locals, m.Entity)
		}
	}
	p.leftoverAttributes(doc, locals)
	p.examples(doc)

	for _, m := range p.orderMembers(c.Members) {
		if m.Inherited {
			p.inherited(c, m, level+1)
			continue
		}
		var lines []string
		if m.Overrides != "" {
			lines = append(lines, "Overrides "+p.entityRef(m.Overrides))
		}
		p.entity(m.Entity, level+1, lines...)
	}
}

// inherited writes a short section for a member declared in a base class,
// pointing to its full documentation.
func (p *page) inherited(c *model.Class, m *model.Member, level int) {
	if _, isAttr := m.Entity.(*model.Attribute); isAttr && p.opts.IgnoreData {
		return
	}
	kind, title := memberTitle(m.Entity)
	p.heading(p.graph.Anchor(c.QualName()+"."+m.Name()), level, kind, title)
	if s := summaryText(m.Doc()); s != "" {
		fmt.Fprintf(p.w, "%s\n\n", s)
	}
	fmt.Fprintf(p.w, "Inherited from %s\n\n", p.entityRef(m.QualName()))
}

func memberTitle(e model.Entity) (string, string) {
	switch v := e.(type) {
	case *model.Function:
		return functionKind(v), boundSignature(v).Declared().Format(v.Name())
	case *model.Property:
		return propertyKind(v), v.Name()
	case *model.Class:
		return classKind(v), v.Name()
	}
	return "attribute", e.Name()
}

func (p *page) function(f *model.Function, level int, notes []string) {
	sig := boundSignature(f)
	p.heading(p.graph.Anchor(f.QualName()), level, functionKind(f), sig.Declared().Format(f.Name()))
	if len(f.Overloads) > 0 {
		fmt.Fprintf(p.w, "**Overloads**\n\n")
		for _, o := range f.Overloads {
			o.Params = bound(f, o.Params)
			fmt.Fprintf(p.w, "- `%s`\n", o.Declared().Format(f.Name()))
		}
		fmt.Fprintln(p.w)
	}
	doc := f.Doc()
	p.prose(doc)
	p.notes(notes)
	p.params(sig.Params, doc)
	p.returns("Returns", doc.Returns, f.Returns)
	p.returns("Yields", doc.Yields, "")
	p.raises(doc)
	p.examples(doc)
}

func boundSignature(f *model.Function) model.Signature {
	sig := f.Signature
	sig.Params = f.BoundParams()
	return sig
}

// bound drops the receiver from an overload's parameters the way
// BoundParams does for the implementation.
func bound(f *model.Function, params []model.Param) []model.Param {
	g := *f
	g.Params = params
	return g.BoundParams()
}

func (p *page) property(v *model.Property, level int, notes []string) {
	p.heading(p.graph.Anchor(v.QualName()), level, propertyKind(v), v.Name())
	if v.Type != "" {
		fmt.Fprintf(p.w, "Type: %s\n\n", p.typeText(v.Type))
	}
	doc := v.Doc()
	p.prose(doc)
	p.notes(notes)
	p.raises(doc)
	p.examples(doc)
}

func (p *page) attribute(a *model.Attribute, level int, notes []string) {
	p.heading(p.graph.Anchor(a.QualName()), level, "attribute", a.Name())
	if a.Type != "" {
		fmt.Fprintf(p.w, "Type: %s\n\n", p.typeText(a.Type))
	}
	if a.Default != "" {
		fmt.Fprintf(p.w, "Default: %s\n\n", code(strings.Join(strings.Fields(a.Default), " ")))
	}
	p.prose(a.Doc())
	p.notes(notes)
}

// alias writes a re-exported name. A target documented nowhere else is
// rendered in full under the alias's own anchor.
func (p *page) alias(a *model.Alias, level int) {
	anchor := p.graph.Anchor(a.QualName())
	target, ok := p.graph.Resolve(a.QualName())
	if ok && target.Module() == a.Module() {
		if _, isAttr := target.(*model.Attribute); isAttr && p.opts.IgnoreData {
			return
		}
		fmt.Fprintf(p.w, "<a id=\"%s\"></a>\n\n", anchor)
		p.entity(target, level, "Re-exported from "+code(model.Parent(target.QualName())))
		return
	}
	p.heading(anchor, level, "alias", a.Name())
	fmt.Fprintf(p.w, "Re-exported from %s\n\n", p.entityRef(a.Target))
}

func classKind(c *model.Class) string {
	kind := "class"
	if c.Exception {
		kind = "exception"
	}
	if c.Abstract {
		kind = "abstract " + kind
	}
	return kind
}

func functionKind(f *model.Function) string {
	var parts []string
	if f.Has(model.MarkAbstract) {
		parts = append(parts, "abstract")
	}
	if f.Async {
		parts = append(parts, "async")
	}
	if f.Lambda {
		parts = append(parts, "lambda")
	}
	switch {
	case !f.Method:
		parts = append(parts, "function")
	case f.Has(model.MarkStatic):
		parts = append(parts, "static method")
	case f.Has(model.MarkClassMethod):
		parts = append(parts, "class method")
	default:
		parts = append(parts, "method")
	}
	return strings.Join(parts, " ")
}

func propertyKind(v *model.Property) string {
	kind := "property"
	switch {
	case v.Cached:
		kind = "cached property"
	case v.ReadOnly:
		kind = "readonly property"
	}
	if v.Abstract {
		kind = "abstract " + kind
	}
	return kind
}

// link returns the relative link from this document to the section of the
// entity named qual. It fails for entities that are not rendered anywhere.
func (p *page) link(qual string) (string, bool) {
	e, ok := p.graph.Resolve(qual)
	if !ok {
		return "", false
	}
	if _, isAttr := e.(*model.Attribute); isAttr && p.opts.IgnoreData {
		return "", false
	}
	doc, ok := p.paths.Lookup(e.Module())
	if !ok {
		return "", false
	}
	anchor := p.graph.Anchor(e.QualName())
	if _, isModule := e.(*model.Module); isModule {
		anchor = ""
	}
	return outpath.Rel(p.path, doc, anchor), true
}

// entityRef renders a qualified name, linked when it is documented.
func (p *page) entityRef(qual string) string {
	if href, ok := p.link(qual); ok {
		return "[" + code(qual) + "](" + href + ")"
	}
	return code(qual)
}

func (p *page) ref(ref model.Ref) string {
	if ref.Target != "" {
		if href, ok := p.link(ref.Target); ok {
			return "[" + code(ref.Text) + "](" + href + ")"
		}
	}
	return code(ref.Text)
}

// typeText renders a type expression, linking the names in it that
// resolve to documented entities.
func (p *page) typeText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	last := 0
	for _, loc := range model.NamePattern.FindAllStringIndex(text, -1) {
		name := text[loc[0]:loc[1]]
		target, ok := p.mod.Refs[name]
		if !ok {
			continue
		}
		href, ok := p.link(target)
		if !ok {
			continue
		}
		b.WriteString(code(text[last:loc[0]]))
		fmt.Fprintf(&b, "[%s](%s)", code(name), href)
		last = loc[1]
	}
	if last == 0 {
		return code(text)
	}
	b.WriteString(code(text[last:]))
	return b.String()
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}

// summaryText is the one-line summary of a docstring.
func summaryText(d *docstring.Docstring) string {
	return strings.Join(strings.Fields(d.Summary), " ")
}

func bulletLine(title, summary string) string {
	if summary == "" {
		return "- " + title
	}
	return fmt.Sprintf("- %s — %s", title, summary)
}

// dedent removes the indentation shared by all non-blank lines.
func dedent(src string) string {
	lines := strings.Split(src, "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := leadingWhitespace(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return src
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}

func leadingWhitespace(line string) int {
	count := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			count++
			continue
		}
		break
	}
	return count
}
