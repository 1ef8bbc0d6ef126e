// Package model holds the documentation graph: modules, classes, functions,
// properties, attributes and re-export aliases, indexed by qualified name.
//
// Tree edges (module members, submodules, class members) are owned by their
// container. Base classes and aliases refer to other entities by qualified
// name only and may point outside the graph.
package model

import (
	"regexp"
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/docstring"
)

// Kind identifies the type of an entity.
type Kind int

const (
	KindPackage Kind = iota
	KindModule
	KindClass
	KindFunction
	KindProperty
	KindAttribute
	KindAlias
)

var kindNames = [...]string{
	KindPackage:   "package",
	KindModule:    "module",
	KindClass:     "class",
	KindFunction:  "function",
	KindProperty:  "property",
	KindAttribute: "attribute",
	KindAlias:     "alias",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Entity is a documentable node.
type Entity interface {
	QualName() string
	Name() string
	Kind() Kind
	Doc() *docstring.Docstring
	// Module returns the qualified name of the module whose document
	// holds the entity's anchor.
	Module() string
	Line() int
}

// Base carries the fields every entity shares.
type Base struct {
	QualifiedName string
	ShortName     string
	ModuleName    string
	Docstring     *docstring.Docstring
	// SourceLine is 1-based; zero when unknown.
	SourceLine int
}

func (b *Base) QualName() string { return b.QualifiedName }

func (b *Base) Name() string { return b.ShortName }

func (b *Base) Module() string { return b.ModuleName }

func (b *Base) Line() int { return b.SourceLine }

// Doc never returns nil.
func (b *Base) Doc() *docstring.Docstring {
	if b.Docstring == nil {
		return &docstring.Docstring{}
	}
	return b.Docstring
}

// NewBase builds a Base for name declared inside the container parent.
func NewBase(parent, module, name string, line int) Base {
	qual := name
	if parent != "" {
		qual = parent + "." + name
	}
	return Base{QualifiedName: qual, ShortName: name, ModuleName: module, SourceLine: line}
}

// Module is an importable unit. Packages are modules with Package set.
type Module struct {
	Base
	Path string
	// Package is set for __init__.py modules and namespace directories.
	Package   bool
	Namespace bool
	Members   []Entity
	// Submodules are ordered by file name.
	Submodules []*Module
	// All is the __all__ list; HasAll distinguishes an empty list from no
	// list at all.
	All    []string
	HasAll bool
	// Imports maps names bound by import statements to the qualified name
	// they refer to.
	Imports map[string]string
	// Refs maps dotted names written in type texts and base lists of the
	// module to the qualified names they resolve to.
	Refs map[string]string
}

func (m *Module) Kind() Kind {
	if m.Package {
		return KindPackage
	}
	return KindModule
}

func (m *Module) Module() string { return m.QualifiedName }

// Exports reports whether name is listed in __all__.
func (m *Module) Exports(name string) bool {
	for _, n := range m.All {
		if n == name {
			return true
		}
	}
	return false
}

// Ref is a reference to another entity by the text written in source.
// Target is the resolved qualified name, empty when unresolved.
type Ref struct {
	Text   string
	Target string
}

// Member is a class member in documentation order.
type Member struct {
	Entity
	Inherited bool
	// DeclaredIn is the qualified name of the class declaring an inherited
	// member.
	DeclaredIn string
	// Overrides is the qualified name of the base class member replaced by
	// a local declaration.
	Overrides string
}

// Class is a class declaration.
type Class struct {
	Base
	Bases      []Ref
	Metaclass  string
	Decorators []string
	Members    []*Member
	// MRO lists the qualified names of resolved ancestors, nearest first,
	// excluding the class itself.
	MRO       []string
	Abstract  bool
	Exception bool
}

func (c *Class) Kind() Kind { return KindClass }

// Local returns the member declared in the class body with the given name.
func (c *Class) Local(name string) (*Member, bool) {
	for _, m := range c.Members {
		if !m.Inherited && m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Member returns any member, local or inherited, with the given name.
func (c *Class) Member(name string) (*Member, bool) {
	for _, m := range c.Members {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// ParamKind is the binding kind of a parameter.
type ParamKind int

const (
	PositionalOnly ParamKind = iota
	PositionalOrKeyword
	VarPositional
	KeywordOnly
	VarKeyword
)

// TypeSource records where a type text came from.
type TypeSource int

const (
	TypeNone TypeSource = iota
	TypeAnnotation
	TypeDocstring
	TypeInferred
)

func (s TypeSource) String() string {
	switch s {
	case TypeAnnotation:
		return "annotation"
	case TypeDocstring:
		return "docstring"
	case TypeInferred:
		return "inferred"
	}
	return ""
}

// Param is one formal parameter.
type Param struct {
	Name       string
	Type       string
	TypeSource TypeSource
	Default    string
	Kind       ParamKind
}

// Marker flags decorators that change how a function is documented.
type Marker uint8

const (
	MarkStatic Marker = 1 << iota
	MarkClassMethod
	MarkAbstract
	MarkOverload
)

// Signature is a parameter list with its return type.
type Signature struct {
	Params        []Param
	Returns       string
	ReturnsSource TypeSource
}

// Format renders the signature with a fixed grammar:
// "name(a: T = d, /, b=d, *args, c, **kw) -> R".
func (s Signature) Format(name string) string {
	var (
		parts      []string
		sawVarArgs bool
		sawKwOnly  bool
	)
	for i, p := range s.Params {
		switch p.Kind {
		case VarPositional:
			sawVarArgs = true
		case KeywordOnly:
			if !sawVarArgs && !sawKwOnly {
				parts = append(parts, "*")
			}
			sawKwOnly = true
		}
		parts = append(parts, p.Format())
		if p.Kind == PositionalOnly && (i+1 == len(s.Params) || s.Params[i+1].Kind != PositionalOnly) {
			parts = append(parts, "/")
		}
	}
	out := name + "(" + strings.Join(parts, ", ") + ")"
	if s.Returns != "" {
		out += " -> " + s.Returns
	}
	return out
}

// Declared returns the signature as written in the source: types that came
// from a docstring or were inferred from a default are left out.
func (s Signature) Declared() Signature {
	out := Signature{Params: make([]Param, len(s.Params))}
	copy(out.Params, s.Params)
	for i := range out.Params {
		if out.Params[i].TypeSource != TypeAnnotation {
			out.Params[i].Type, out.Params[i].TypeSource = "", TypeNone
		}
	}
	if s.ReturnsSource == TypeAnnotation {
		out.Returns, out.ReturnsSource = s.Returns, s.ReturnsSource
	}
	return out
}

// Format renders one parameter: "name: T = d", "name=d", "*args: T".
func (p Param) Format() string {
	name := p.Name
	switch p.Kind {
	case VarPositional:
		name = "*" + name
	case VarKeyword:
		name = "**" + name
	}
	switch {
	case p.Type != "" && p.Default != "":
		return name + ": " + p.Type + " = " + p.Default
	case p.Type != "":
		return name + ": " + p.Type
	case p.Default != "":
		return name + "=" + p.Default
	}
	return name
}

// Function is a function or method.
type Function struct {
	Base
	Signature
	Decorators []string
	Markers    Marker
	Async      bool
	Lambda     bool
	// Method is set for functions declared in a class body.
	Method bool
	// Overloads holds the @overload variants folded into this function.
	Overloads []Signature
}

func (f *Function) Kind() Kind { return KindFunction }

// Has reports whether every marker in m is set.
func (f *Function) Has(m Marker) bool { return f.Markers&m == m }

// BoundParams returns the parameters a caller passes explicitly: the
// receiver of methods and class methods is dropped.
func (f *Function) BoundParams() []Param {
	if !f.Method || f.Has(MarkStatic) || len(f.Params) == 0 {
		return f.Params
	}
	if k := f.Params[0].Kind; k == VarPositional || k == VarKeyword || k == KeywordOnly {
		return f.Params
	}
	return f.Params[1:]
}

// Property is a @property (or cached_property) member.
type Property struct {
	Base
	Type       string
	TypeSource TypeSource
	ReadOnly   bool
	Deletable  bool
	Cached     bool
	Abstract   bool
}

func (p *Property) Kind() Kind { return KindProperty }

// Attribute is a module or class level variable.
type Attribute struct {
	Base
	Type       string
	TypeSource TypeSource
	Default    string
}

func (a *Attribute) Kind() Kind { return KindAttribute }

// Alias is a name re-exported by a module. Target is the qualified name of
// the original entity.
type Alias struct {
	Base
	Target string
}

func (a *Alias) Kind() Kind { return KindAlias }

// NamePattern matches the dotted names inside a type or base class text.
var NamePattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)

// Anchor derives the slug of a qualified name: lowercase with dots replaced
// by hyphens. Python identifiers never contain hyphens, so two names share a
// slug only when they differ by case; Graph.Anchor tells those apart.
func Anchor(qualname string) string {
	return strings.ReplaceAll(strings.ToLower(qualname), ".", "-")
}

// Parent returns the qualified name of the enclosing container.
func Parent(qualname string) string {
	if i := strings.LastIndexByte(qualname, '.'); i >= 0 {
		return qualname[:i]
	}
	return ""
}
