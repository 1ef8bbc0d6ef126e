package docstring

import (
	"regexp"
	"strings"
)

var numpyUnderline = regexp.MustCompile(`^\s*-{3,}\s*$`)

type numpyDialect struct{}

func (numpyDialect) style() Style { return NumPy }

// numpyHeader reports whether lines[i] is a section title underlined by
// dashes on the next line.
func numpyHeader(lines []string, i int) (string, bool) {
	if i+1 >= len(lines) || isBlank(lines[i]) || leadingWhitespace(lines[i]) != 0 {
		return "", false
	}
	if !numpyUnderline.MatchString(lines[i+1]) {
		return "", false
	}
	return strings.TrimSpace(lines[i]), true
}

func (numpyDialect) detect(lines []string) bool {
	for i := range lines {
		title, ok := numpyHeader(lines, i)
		if !ok {
			continue
		}
		if _, known := sectionTitles[strings.ToLower(title)]; known {
			return true
		}
	}
	return false
}

func (numpyDialect) parse(text string) *Docstring {
	doc := &Docstring{Style: NumPy}
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) {
		if _, ok := numpyHeader(lines, i); ok {
			break
		}
		i++
	}
	doc.Summary, doc.Description = splitProse(strings.Join(lines[:i], "\n"))

	for i < len(lines) {
		title, _ := numpyHeader(lines, i)
		j := i + 2
		for j < len(lines) {
			if _, ok := numpyHeader(lines, j); ok {
				break
			}
			j++
		}
		body := lines[i+2 : j]
		kind, known := sectionTitles[strings.ToLower(title)]
		if !known {
			doc.appendText(freeSection(title, body))
		} else {
			numpyBody(doc, title, kind, body)
		}
		i = j
	}
	return doc
}

func numpyBody(doc *Docstring, title string, kind sectionKind, body []string) {
	switch kind {
	case sectionParams:
		doc.Params = append(doc.Params, numpyParams(body)...)
	case sectionAttributes:
		doc.Attributes = append(doc.Attributes, numpyParams(body)...)
	case sectionReturns:
		doc.Returns = numpyReturns(doc, body)
	case sectionYields:
		doc.Yields = numpyReturns(doc, body)
	case sectionRaises:
		for _, e := range splitEntries(body) {
			doc.Raises = append(doc.Raises, Raises{
				Type:        strings.TrimSpace(e.head),
				Description: e.text(""),
			})
		}
	case sectionExamples:
		if text := block(dedent(body)); text != "" {
			doc.Examples = append(doc.Examples, Example{Description: text})
		}
	default:
		doc.appendText(freeSection(title, body))
	}
}

func numpyParams(body []string) []Param {
	var params []Param
	for _, e := range splitEntries(body) {
		names, typ, _ := strings.Cut(e.head, ":")
		var p Param
		p.Type, p.Optional, p.Default = typeModifiers(strings.TrimSpace(typ))
		p.Description = e.text("")
		if p.Default == "" {
			p.Default = defaultFromText(p.Description)
		}
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			q := p
			q.Name = name
			params = append(params, q)
		}
	}
	return params
}

func numpyReturns(doc *Docstring, body []string) *Returns {
	entries := splitEntries(body)
	if len(entries) == 0 {
		return nil
	}
	var ret *Returns
	for n, e := range entries {
		r := Returns{Description: e.text("")}
		if name, typ, ok := strings.Cut(e.head, ":"); ok {
			r.Name, r.Type = strings.TrimSpace(name), strings.TrimSpace(typ)
		} else {
			r.Type = strings.TrimSpace(e.head)
		}
		if n == 0 {
			ret = &r
			continue
		}
		// Tuple returns are folded into the first entry's description.
		line := "- " + r.Type
		if r.Name != "" {
			line = "- " + r.Name + " (" + r.Type + ")"
		}
		if r.Description != "" {
			line += ": " + r.Description
		}
		ret.Description = strings.TrimSpace(ret.Description + "\n" + line)
	}
	if len(entries) > 1 {
		doc.note("%d return entries folded into one", len(entries))
	}
	return ret
}
