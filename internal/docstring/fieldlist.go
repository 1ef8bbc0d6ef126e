package docstring

import (
	"regexp"
	"strings"
)

// fieldListDialect parses field lists: reST (":param x: text") and Epydoc
// ("@param x: text") differ only in the marker character.
type fieldListDialect struct {
	prefix rune
	name   Style
}

var (
	restField   = regexp.MustCompile(`^:([A-Za-z_]+)((?:\s+[^:]+?)?)\s*:(?:\s+(.*)|\s*)$`)
	epydocField = regexp.MustCompile(`^@([A-Za-z_]+)((?:\s+[^:]+?)?)\s*:(?:\s+(.*)|\s*)$`)
)

var fieldNames = map[string]string{
	"param":     "param",
	"parameter": "param",
	"arg":       "param",
	"argument":  "param",
	"key":       "param",
	"keyword":   "param",
	"kwarg":     "param",
	"kwparam":   "param",
	"type":      "type",
	"kwtype":    "type",
	"returns":   "returns",
	"return":    "returns",
	"rtype":     "rtype",
	"yields":    "yields",
	"yield":     "yields",
	"ytype":     "ytype",
	"raises":    "raises",
	"raise":     "raises",
	"except":    "raises",
	"exception": "raises",
	"var":       "var",
	"ivar":      "var",
	"cvar":      "var",
	"vartype":   "vartype",
	"example":   "example",
	"examples":  "example",
}

func (f fieldListDialect) style() Style { return f.name }

func (f fieldListDialect) match(line string) (field, args, text string, ok bool) {
	re := restField
	if f.prefix == '@' {
		re = epydocField
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), m[3], true
}

func (f fieldListDialect) detect(lines []string) bool {
	for _, line := range lines {
		if leadingWhitespace(line) != 0 {
			continue
		}
		if field, _, _, ok := f.match(line); ok {
			if _, known := fieldNames[field]; known {
				return true
			}
		}
	}
	return false
}

func (f fieldListDialect) parse(text string) *Docstring {
	doc := &Docstring{Style: f.name}
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) {
		if _, _, _, ok := f.match(lines[i]); ok {
			break
		}
		i++
	}
	doc.Summary, doc.Description = splitProse(strings.Join(lines[:i], "\n"))

	b := fieldBuilder{doc: doc}
	var extra []string
	for i < len(lines) {
		field, args, first, ok := f.match(lines[i])
		if !ok {
			extra = append(extra, lines[i])
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && (isBlank(lines[j]) || leadingWhitespace(lines[j]) > 0) {
			j++
		}
		e := entry{head: lines[i], body: lines[i+1 : j]}
		b.add(field, args, e.text(first), string(f.prefix))
		i = j
	}
	doc.appendText(block(extra))
	b.finish()
	return doc
}

// fieldBuilder accumulates fields; types may arrive before or after the
// entry they describe.
type fieldBuilder struct {
	doc        *Docstring
	paramTypes map[string]string
	typeOrder  []string
	attrTypes  map[string]string
}

func (b *fieldBuilder) add(field, args, text, prefix string) {
	doc := b.doc
	switch fieldNames[field] {
	case "param":
		name, typ := splitTypedName(args)
		if name == "" {
			doc.note("%s%s field without a name", prefix, field)
			doc.appendText(text)
			return
		}
		p := upsert(&doc.Params, name)
		p.Description = text
		if typ != "" {
			p.Type, p.Optional, p.Default = typeModifiers(typ)
		}
		if p.Default == "" {
			p.Default = defaultFromText(text)
		}
	case "type":
		name := strings.TrimSpace(args)
		if _, seen := b.paramTypes[name]; !seen {
			b.typeOrder = append(b.typeOrder, name)
		}
		b.paramTypes = setType(b.paramTypes, name, text)
	case "returns":
		ret := ensure(&doc.Returns)
		ret.Description = text
	case "rtype":
		ret := ensure(&doc.Returns)
		ret.Type = text
	case "yields":
		ret := ensure(&doc.Yields)
		ret.Description = text
	case "ytype":
		ret := ensure(&doc.Yields)
		ret.Type = text
	case "raises":
		doc.Raises = append(doc.Raises, Raises{Type: args, Description: text})
	case "var":
		name, typ := splitTypedName(args)
		if name == "" {
			doc.note("%s%s field without a name", prefix, field)
			doc.appendText(text)
			return
		}
		p := upsert(&doc.Attributes, name)
		p.Description = text
		if typ != "" {
			p.Type = typ
		}
	case "vartype":
		b.attrTypes = setType(b.attrTypes, args, text)
	case "example":
		if text != "" {
			doc.Examples = append(doc.Examples, Example{Description: text})
		}
	default:
		title := strings.TrimSpace(field + " " + args)
		if text == "" {
			doc.appendText("**" + title + "**")
		} else {
			doc.appendText("**" + title + "**\n\n" + text)
		}
	}
}

func (b *fieldBuilder) finish() {
	for _, name := range b.typeOrder {
		p, ok := b.doc.Param(name)
		if !ok {
			p = upsert(&b.doc.Params, name)
		}
		p.Type, p.Optional, p.Default = mergeType(b.paramTypes[name], p.Default)
	}
	for i := range b.doc.Attributes {
		a := &b.doc.Attributes[i]
		if typ, ok := b.attrTypes[a.Name]; ok {
			a.Type = typ
		}
	}
}

func mergeType(typ, def string) (string, bool, string) {
	t, optional, d := typeModifiers(typ)
	if d == "" {
		d = def
	}
	return t, optional, d
}

func setType(m map[string]string, name, typ string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[strings.TrimSpace(name)] = strings.TrimSpace(typ)
	return m
}

// splitTypedName splits "int x" into ("x", "int"); the name is the last word.
func splitTypedName(args string) (string, string) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", ""
	}
	idx := strings.LastIndexAny(args, " \t")
	if idx < 0 {
		return args, ""
	}
	return strings.TrimSpace(args[idx+1:]), strings.TrimSpace(args[:idx])
}

func upsert(params *[]Param, name string) *Param {
	for i := range *params {
		if (*params)[i].Name == name {
			return &(*params)[i]
		}
	}
	*params = append(*params, Param{Name: name})
	return &(*params)[len(*params)-1]
}

func ensure(r **Returns) *Returns {
	if *r == nil {
		*r = &Returns{}
	}
	return *r
}
