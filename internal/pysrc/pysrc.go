// Package pysrc extracts the declarations of one Python source file: its
// docstring, imports, __all__, and the classes, functions and variables of
// the module body with their decorators, signatures and documentation.
//
// Source is parsed with tree-sitter. Nothing is evaluated.
package pysrc

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/agentflare-ai/pydocmd/internal/model"
)

// ErrSyntax is returned for source that does not parse.
var ErrSyntax = errors.New("python syntax error")

// DeclKind is the kind of a declaration.
type DeclKind int

const (
	DeclClass DeclKind = iota
	DeclFunction
	DeclVariable
)

// ValueKind classifies a literal assigned value.
type ValueKind string

const (
	ValueNone    ValueKind = "none"
	ValueInt     ValueKind = "int"
	ValueFloat   ValueKind = "float"
	ValueComplex ValueKind = "complex"
	ValueStr     ValueKind = "str"
	ValueBytes   ValueKind = "bytes"
	ValueBool    ValueKind = "bool"
	ValueList    ValueKind = "list"
	ValueDict    ValueKind = "dict"
	ValueTuple   ValueKind = "tuple"
	ValueSet     ValueKind = "set"
	ValueCall    ValueKind = "call"
)

// File is the extracted content of one source file.
type File struct {
	Doc     string
	HasDoc  bool
	Decls   []Decl
	Imports []Import
	// All collects the literal strings of __all__; HasAll is set when the
	// module assigns __all__ at all.
	All    []string
	HasAll bool
}

// Import is one imported name. For "import a.b as c" Module is "a.b" and
// Alias "c"; for "from ..a import b" Level is 2, Module "a" and Name "b".
type Import struct {
	Module   string
	Level    int
	Name     string
	Alias    string
	Wildcard bool
	Line     int
}

// Binding returns the local name the import binds.
func (i Import) Binding() string {
	switch {
	case i.Wildcard:
		return ""
	case i.Alias != "":
		return i.Alias
	case i.Name != "":
		return i.Name
	}
	if idx := strings.IndexByte(i.Module, '.'); idx >= 0 {
		return i.Module[:idx]
	}
	return i.Module
}

// Decl is a class, function or variable declaration.
type Decl struct {
	Kind DeclKind
	Name string
	Line int
	// Doc is the docstring; for variables, the string literal following
	// the assignment or its "#:" comments.
	Doc    string
	HasDoc bool
	// Comment is the comment block directly above a class or function.
	Comment    string
	Decorators []string

	// Functions.
	Params  []Param
	Returns string
	Async   bool
	Lambda  bool

	// Classes.
	Bases    []string
	Keywords map[string]string
	Body     []Decl

	// Variables.
	Annotation string
	Value      string
	ValueKind  ValueKind
	// Callee is the called expression when ValueKind is ValueCall.
	Callee string
}

// Param is a formal parameter as written.
type Param struct {
	Name        string
	Annotation  string
	Default     string
	DefaultKind ValueKind
	// DefaultCallee is the called expression when DefaultKind is ValueCall.
	DefaultCallee string
	Kind          model.ParamKind
}

// Parser parses Python source. It is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse extracts the declarations of src.
func (p *Parser) Parse(ctx context.Context, src []byte) (*File, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse python source")
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.Wrapf(ErrSyntax, "line %d", errorLine(root))
	}
	x := &extractor{src: src, comments: make(map[uint32]comment)}
	x.collectComments(root)
	return x.file(root), nil
}

func errorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !(c.HasError() || c.IsMissing()) {
			continue
		}
		return errorLine(c)
	}
	return int(n.StartPoint().Row) + 1
}
