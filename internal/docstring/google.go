package docstring

import (
	"regexp"
	"strings"
)

type sectionKind int

const (
	sectionText sectionKind = iota
	sectionParams
	sectionAttributes
	sectionReturns
	sectionYields
	sectionRaises
	sectionExamples
)

// Section titles shared by the Google and NumPy conventions, lowercased.
var sectionTitles = map[string]sectionKind{
	"args":               sectionParams,
	"arguments":          sectionParams,
	"parameters":         sectionParams,
	"params":             sectionParams,
	"keyword args":       sectionParams,
	"keyword arguments":  sectionParams,
	"other parameters":   sectionParams,
	"other params":       sectionParams,
	"attributes":         sectionAttributes,
	"returns":            sectionReturns,
	"return":             sectionReturns,
	"yields":             sectionYields,
	"yield":              sectionYields,
	"raises":             sectionRaises,
	"raise":              sectionRaises,
	"exceptions":         sectionRaises,
	"except":             sectionRaises,
	"examples":           sectionExamples,
	"example":            sectionExamples,
	"note":               sectionText,
	"notes":              sectionText,
	"warning":            sectionText,
	"warnings":           sectionText,
	"warns":              sectionText,
	"see also":           sectionText,
	"references":         sectionText,
	"todo":               sectionText,
	"tip":                sectionText,
	"hint":               sectionText,
	"important":          sectionText,
	"caution":            sectionText,
	"attention":          sectionText,
	"danger":             sectionText,
	"methods":            sectionText,
	"receives":           sectionText,
}

var (
	googleHeader     = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*?)\s*:\s*$`)
	googleTypedParam = regexp.MustCompile(`^(\*{0,2}\w+)\s*\((.*?)\)\s*:\s*(.*)$`)
	googleParam      = regexp.MustCompile(`^(\*{0,2}\w+)\s*:\s*(.*)$`)
	googleRaise      = regexp.MustCompile(`^([\w.]+)\s*:\s*(.*)$`)
	googleReturn     = regexp.MustCompile(`^([^:]+):\s*(.*)$`)
)

type googleDialect struct{}

func (googleDialect) style() Style { return Google }

func googleSection(line string) (string, sectionKind, bool) {
	if leadingWhitespace(line) != 0 {
		return "", 0, false
	}
	m := googleHeader.FindStringSubmatch(line)
	if m == nil {
		return "", 0, false
	}
	kind, ok := sectionTitles[strings.ToLower(m[1])]
	return m[1], kind, ok
}

func (googleDialect) detect(lines []string) bool {
	for _, line := range lines {
		if _, _, ok := googleSection(line); ok {
			return true
		}
	}
	return false
}

func (googleDialect) parse(text string) *Docstring {
	doc := &Docstring{Style: Google}
	lines := strings.Split(text, "\n")

	i := 0
	for i < len(lines) {
		if _, _, ok := googleSection(lines[i]); ok {
			break
		}
		i++
	}
	doc.Summary, doc.Description = splitProse(strings.Join(lines[:i], "\n"))

	var extra []string
	flushExtra := func() {
		doc.appendText(block(extra))
		extra = nil
	}
	for i < len(lines) {
		title, kind, ok := googleSection(lines[i])
		if !ok {
			// Text back at the base indentation ends the previous section.
			extra = append(extra, lines[i])
			i++
			continue
		}
		flushExtra()
		j := i + 1
		for j < len(lines) && (isBlank(lines[j]) || leadingWhitespace(lines[j]) > 0) {
			j++
		}
		body := lines[i+1 : j]
		googleBody(doc, title, kind, body)
		i = j
	}
	flushExtra()
	return doc
}

func googleBody(doc *Docstring, title string, kind sectionKind, body []string) {
	switch kind {
	case sectionParams:
		doc.Params = append(doc.Params, googleParams(doc, title, body)...)
	case sectionAttributes:
		doc.Attributes = append(doc.Attributes, googleParams(doc, title, body)...)
	case sectionReturns:
		if r := googleReturns(body); r != nil {
			doc.Returns = r
		}
	case sectionYields:
		if r := googleReturns(body); r != nil {
			doc.Yields = r
		}
	case sectionRaises:
		for _, e := range splitEntries(body) {
			if m := googleRaise.FindStringSubmatch(e.head); m != nil {
				doc.Raises = append(doc.Raises, Raises{Type: m[1], Description: e.text(m[2])})
				continue
			}
			doc.Raises = append(doc.Raises, Raises{Type: strings.TrimSpace(e.head), Description: e.text("")})
		}
	case sectionExamples:
		if text := block(dedent(body)); text != "" {
			doc.Examples = append(doc.Examples, Example{Description: text})
		}
	default:
		doc.appendText(freeSection(title, body))
	}
}

func googleParams(doc *Docstring, title string, body []string) []Param {
	var params []Param
	for _, e := range splitEntries(body) {
		var p Param
		if m := googleTypedParam.FindStringSubmatch(e.head); m != nil {
			p.Name = m[1]
			p.Type, p.Optional, p.Default = typeModifiers(m[2])
			p.Description = e.text(m[3])
		} else if m := googleParam.FindStringSubmatch(e.head); m != nil {
			p.Name = m[1]
			p.Description = e.text(m[2])
		} else {
			doc.note("unrecognised %s entry %q", title, e.head)
			if len(params) > 0 {
				last := &params[len(params)-1]
				last.Description = strings.TrimSpace(last.Description + "\n" + e.text(e.head))
			} else {
				doc.appendText(e.text(e.head))
			}
			continue
		}
		if p.Default == "" {
			p.Default = defaultFromText(p.Description)
		}
		params = append(params, p)
	}
	return params
}

func googleReturns(body []string) *Returns {
	lines := dedent(body)
	text := block(lines)
	if text == "" {
		return nil
	}
	first, rest, _ := strings.Cut(text, "\n")
	if m := googleReturn.FindStringSubmatch(first); m != nil && looksLikeType(m[1]) {
		desc := strings.TrimSpace(m[2])
		if rest = block(dedent(strings.Split(rest, "\n"))); rest != "" {
			desc = strings.TrimSpace(desc + "\n" + rest)
		}
		return &Returns{Type: strings.TrimSpace(m[1]), Description: desc}
	}
	return &Returns{Description: text}
}

// freeSection renders an unstructured section as a bold title paragraph.
func freeSection(title string, body []string) string {
	text := block(dedent(body))
	if text == "" {
		return "**" + title + "**"
	}
	return "**" + title + "**\n\n" + text
}
