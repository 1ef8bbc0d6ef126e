package pysrc

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentflare-ai/pydocmd/internal/model"
)

type comment struct {
	col      uint32
	text     string
	trailing bool
}

type extractor struct {
	src      []byte
	comments map[uint32]comment
}

func (x *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(x.src)
}

func (x *extractor) collectComments(n *sitter.Node) {
	if n.Type() == "comment" {
		start := n.StartByte()
		lineStart := start
		for lineStart > 0 && x.src[lineStart-1] != '\n' {
			lineStart--
		}
		x.comments[n.StartPoint().Row] = comment{
			col:      n.StartPoint().Column,
			text:     x.text(n),
			trailing: strings.TrimSpace(string(x.src[lineStart:start])) != "",
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil {
			x.collectComments(c)
		}
	}
}

// commentAbove returns the contiguous comment lines ending on the line
// before row at the given column, without their '#' markers.
func (x *extractor) commentAbove(row, col uint32, marker string) []string {
	var lines []string
	for r := int64(row) - 1; r >= 0; r-- {
		c, ok := x.comments[uint32(r)]
		if !ok || c.trailing || c.col != col || !strings.HasPrefix(c.text, marker) {
			break
		}
		lines = append(lines, stripComment(c.text, marker))
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines
}

func stripComment(text, marker string) string {
	text = strings.TrimPrefix(text, marker)
	return strings.TrimPrefix(text, " ")
}

func (x *extractor) statements(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (x *extractor) file(root *sitter.Node) *File {
	f := &File{}
	stmts := x.statements(root)
	f.Doc, f.HasDoc = x.docstring(stmts)
	f.Decls = x.body(stmts, f)
	return f
}

// docstring returns the string literal forming the first statement.
func (x *extractor) docstring(stmts []*sitter.Node) (string, bool) {
	if len(stmts) == 0 {
		return "", false
	}
	return x.stringStatement(stmts[0])
}

func (x *extractor) stringStatement(n *sitter.Node) (string, bool) {
	if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
		return "", false
	}
	s, _, ok := x.stringValue(n.NamedChild(0))
	return s, ok
}

// body extracts the declarations of a module (f set) or class body.
func (x *extractor) body(stmts []*sitter.Node, f *File) []Decl {
	var decls []Decl
	for i, st := range stmts {
		switch st.Type() {
		case "function_definition", "class_definition":
			decls = append(decls, x.definition(st, st, nil))
		case "decorated_definition":
			var decorators []string
			for j := 0; j < int(st.NamedChildCount()); j++ {
				c := st.NamedChild(j)
				if c.Type() == "decorator" && c.NamedChildCount() > 0 {
					decorators = append(decorators, squash(x.text(c.NamedChild(0))))
				}
			}
			if def := st.ChildByFieldName("definition"); def != nil {
				decls = append(decls, x.definition(def, st, decorators))
			}
		case "expression_statement":
			if f != nil && x.dunderAll(st, f) {
				continue
			}
			var next *sitter.Node
			if i+1 < len(stmts) {
				next = stmts[i+1]
			}
			decls = append(decls, x.assignment(st, next)...)
		case "import_statement", "import_from_statement":
			if f != nil {
				f.Imports = append(f.Imports, x.imports(st)...)
			}
		case "if_statement":
			if f == nil || strings.Contains(x.text(st.ChildByFieldName("condition")), "__name__") {
				continue
			}
			decls = append(decls, x.body(x.statements(st.ChildByFieldName("consequence")), f)...)
		case "try_statement":
			if f != nil {
				decls = append(decls, x.body(x.statements(st.ChildByFieldName("body")), f)...)
			}
		}
	}
	return decls
}

// definition extracts a class or function. outer is the node including
// decorators, used to locate the comment block above.
func (x *extractor) definition(n, outer *sitter.Node, decorators []string) Decl {
	d := Decl{
		Name:       x.text(n.ChildByFieldName("name")),
		Line:       int(n.StartPoint().Row) + 1,
		Decorators: decorators,
	}
	pos := outer.StartPoint()
	d.Comment = strings.Join(x.commentAbove(pos.Row, pos.Column, "#"), "\n")
	body := x.statements(n.ChildByFieldName("body"))
	d.Doc, d.HasDoc = x.docstring(body)

	if n.Type() == "class_definition" {
		d.Kind = DeclClass
		if sc := n.ChildByFieldName("superclasses"); sc != nil {
			for i := 0; i < int(sc.NamedChildCount()); i++ {
				arg := sc.NamedChild(i)
				switch arg.Type() {
				case "keyword_argument":
					if d.Keywords == nil {
						d.Keywords = make(map[string]string)
					}
					d.Keywords[x.text(arg.ChildByFieldName("name"))] = squash(x.text(arg.ChildByFieldName("value")))
				case "comment", "list_splat", "dictionary_splat":
				default:
					d.Bases = append(d.Bases, squash(x.text(arg)))
				}
			}
		}
		d.Body = x.body(body, nil)
		return d
	}

	d.Kind = DeclFunction
	d.Async = n.ChildCount() > 0 && n.Child(0).Type() == "async"
	d.Params = x.params(n.ChildByFieldName("parameters"))
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		d.Returns = squash(x.text(rt))
	}
	return d
}

func (x *extractor) params(n *sitter.Node) []Param {
	if n == nil {
		return nil
	}
	var (
		params  []Param
		kwOnly  bool
		splatAt = -1
	)
	kind := func() model.ParamKind {
		if kwOnly {
			return model.KeywordOnly
		}
		return model.PositionalOrKeyword
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		var p Param
		switch c.Type() {
		case "identifier":
			p = Param{Name: x.text(c), Kind: kind()}
		case "typed_parameter":
			p = x.splat(c.NamedChild(0), kind())
			p.Annotation = squash(x.text(c.ChildByFieldName("type")))
		case "default_parameter", "typed_default_parameter":
			p = Param{
				Name:       x.text(c.ChildByFieldName("name")),
				Annotation: squash(x.text(c.ChildByFieldName("type"))),
				Kind:       kind(),
			}
			if v := c.ChildByFieldName("value"); v != nil {
				p.Default = squash(x.text(v))
				p.DefaultKind, p.DefaultCallee = x.valueKind(v)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			p = x.splat(c, kind())
			if p.Name == "" {
				kwOnly = true
				continue
			}
		case "keyword_separator":
			kwOnly = true
			continue
		case "positional_separator":
			splatAt = len(params)
			continue
		default:
			continue
		}
		if p.Kind == model.VarPositional {
			kwOnly = true
		}
		params = append(params, p)
	}
	for i := 0; i < splatAt; i++ {
		params[i].Kind = model.PositionalOnly
	}
	return params
}

func (x *extractor) splat(n *sitter.Node, kind model.ParamKind) Param {
	if n == nil {
		return Param{Kind: kind}
	}
	switch n.Type() {
	case "list_splat_pattern":
		name := ""
		if n.NamedChildCount() > 0 {
			name = x.text(n.NamedChild(0))
		}
		return Param{Name: name, Kind: model.VarPositional}
	case "dictionary_splat_pattern":
		name := ""
		if n.NamedChildCount() > 0 {
			name = x.text(n.NamedChild(0))
		}
		return Param{Name: name, Kind: model.VarKeyword}
	}
	return Param{Name: x.text(n), Kind: kind}
}

// assignment extracts the variables (or lambda function) bound by an
// expression statement. next is the following statement, which may hold
// the variable's docstring.
func (x *extractor) assignment(st, next *sitter.Node) []Decl {
	if st.NamedChildCount() != 1 {
		return nil
	}
	a := st.NamedChild(0)
	if a.Type() != "assignment" {
		return nil
	}
	var targets []*sitter.Node
	value := a.ChildByFieldName("right")
	annotation := a.ChildByFieldName("type")
	targets = append(targets, a.ChildByFieldName("left"))
	for value != nil && value.Type() == "assignment" {
		targets = append(targets, value.ChildByFieldName("left"))
		value = value.ChildByFieldName("right")
	}

	pos := st.StartPoint()
	doc, hasDoc := "", false
	if next != nil {
		doc, hasDoc = x.stringStatement(next)
	}
	if !hasDoc {
		if lines := x.commentAbove(pos.Row, pos.Column, "#:"); len(lines) > 0 {
			doc, hasDoc = strings.Join(lines, "\n"), true
		} else if c, ok := x.comments[st.EndPoint().Row]; ok && c.trailing && strings.HasPrefix(c.text, "#:") {
			doc, hasDoc = stripComment(c.text, "#:"), true
		}
	}

	var decls []Decl
	for _, t := range targets {
		if t == nil {
			continue
		}
		switch t.Type() {
		case "identifier":
			d := Decl{Kind: DeclVariable, Name: x.text(t), Line: int(pos.Row) + 1, Doc: doc, HasDoc: hasDoc}
			if len(targets) == 1 && value != nil && value.Type() == "lambda" {
				d.Kind = DeclFunction
				d.Lambda = true
				d.Params = x.params(value.ChildByFieldName("parameters"))
				decls = append(decls, d)
				continue
			}
			d.Annotation = squash(x.text(annotation))
			if value != nil {
				d.Value = squash(x.text(value))
				d.ValueKind, d.Callee = x.valueKind(value)
			}
			decls = append(decls, d)
		case "pattern_list", "tuple_pattern", "list_pattern":
			for i := 0; i < int(t.NamedChildCount()); i++ {
				if c := t.NamedChild(i); c.Type() == "identifier" {
					decls = append(decls, Decl{Kind: DeclVariable, Name: x.text(c), Line: int(pos.Row) + 1})
				}
			}
		}
	}
	return decls
}

func (x *extractor) valueKind(n *sitter.Node) (ValueKind, string) {
	switch n.Type() {
	case "none":
		return ValueNone, ""
	case "true", "false":
		return ValueBool, ""
	case "integer", "float":
		lit := strings.ToLower(x.text(n))
		switch {
		case strings.HasSuffix(lit, "j"):
			return ValueComplex, ""
		case n.Type() == "float":
			return ValueFloat, ""
		}
		return ValueInt, ""
	case "unary_operator":
		if arg := n.ChildByFieldName("argument"); arg != nil {
			return x.valueKind(arg)
		}
	case "string", "concatenated_string":
		if _, isBytes, ok := x.stringValue(n); ok {
			if isBytes {
				return ValueBytes, ""
			}
			return ValueStr, ""
		}
	case "list", "list_comprehension":
		return ValueList, ""
	case "dictionary", "dictionary_comprehension":
		return ValueDict, ""
	case "tuple":
		return ValueTuple, ""
	case "set", "set_comprehension":
		return ValueSet, ""
	case "call":
		return ValueCall, squash(x.text(n.ChildByFieldName("function")))
	}
	return "", ""
}

// dunderAll records __all__ assignments, "+=" and extend/append calls.
func (x *extractor) dunderAll(st *sitter.Node, f *File) bool {
	if st.NamedChildCount() != 1 {
		return false
	}
	e := st.NamedChild(0)
	switch e.Type() {
	case "assignment", "augmented_assignment":
		if x.text(e.ChildByFieldName("left")) != "__all__" {
			return false
		}
		if e.Type() == "assignment" {
			f.All = nil
		}
		f.HasAll = true
		f.All = append(f.All, x.stringList(e.ChildByFieldName("right"))...)
		return true
	case "call":
		fn := e.ChildByFieldName("function")
		if fn == nil || fn.Type() != "attribute" || x.text(fn.ChildByFieldName("object")) != "__all__" {
			return false
		}
		args := e.ChildByFieldName("arguments")
		switch x.text(fn.ChildByFieldName("attribute")) {
		case "extend":
			if args != nil && args.NamedChildCount() > 0 {
				f.All = append(f.All, x.stringList(args.NamedChild(0))...)
			}
		case "append":
			if args != nil && args.NamedChildCount() > 0 {
				if s, _, ok := x.stringValue(args.NamedChild(0)); ok {
					f.All = append(f.All, s)
				}
			}
		default:
			return false
		}
		f.HasAll = true
		return true
	}
	return false
}

func (x *extractor) stringList(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	switch n.Type() {
	case "list", "tuple", "set", "parenthesized_expression":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if s, _, ok := x.stringValue(n.NamedChild(i)); ok {
				out = append(out, s)
			}
		}
	case "binary_operator":
		out = append(out, x.stringList(n.ChildByFieldName("left"))...)
		out = append(out, x.stringList(n.ChildByFieldName("right"))...)
	}
	return out
}

func (x *extractor) imports(n *sitter.Node) []Import {
	line := int(n.StartPoint().Row) + 1
	var out []Import
	if n.Type() == "import_statement" {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				out = append(out, Import{Module: x.text(c), Line: line})
			case "aliased_import":
				out = append(out, Import{
					Module: x.text(c.ChildByFieldName("name")),
					Alias:  x.text(c.ChildByFieldName("alias")),
					Line:   line,
				})
			}
		}
		return out
	}

	base := Import{Line: line}
	mod := n.ChildByFieldName("module_name")
	if mod != nil {
		if mod.Type() == "relative_import" {
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				c := mod.NamedChild(i)
				switch c.Type() {
				case "import_prefix":
					base.Level = strings.Count(x.text(c), ".")
				case "dotted_name":
					base.Module = x.text(c)
				}
			}
		} else {
			base.Module = x.text(mod)
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if mod != nil && c.StartByte() == mod.StartByte() {
			continue
		}
		imp := base
		switch c.Type() {
		case "wildcard_import":
			imp.Wildcard = true
		case "dotted_name":
			imp.Name = x.text(c)
		case "aliased_import":
			imp.Name = x.text(c.ChildByFieldName("name"))
			imp.Alias = x.text(c.ChildByFieldName("alias"))
		default:
			continue
		}
		out = append(out, imp)
	}
	return out
}

var (
	lineBreak    = regexp.MustCompile(`\s*\n\s*`)
	openBracket  = regexp.MustCompile(`([\[({]) `)
	closeBracket = regexp.MustCompile(`,? ([\])}])`)
)

// squash joins a multi-line expression onto one line.
func squash(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	s = lineBreak.ReplaceAllString(s, " ")
	s = openBracket.ReplaceAllString(s, "$1")
	return closeBracket.ReplaceAllString(s, "$1")
}
