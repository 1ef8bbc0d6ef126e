// Package docstring parses Python docstrings written in one of several
// conventions (Google, NumPy, reStructuredText, Epydoc) into a structured
// description.
//
// Parsing never fails on malformed text: unknown or broken sections degrade
// to free text and a note is recorded on the result. The only error is text
// that is not valid UTF-8 under an explicitly requested style.
package docstring

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Style selects the docstring convention used by Parse.
type Style string

const (
	Auto   Style = "auto"
	Google Style = "google"
	NumPy  Style = "numpy"
	ReST   Style = "rest"
	Epydoc Style = "epydoc"
)

// ErrUndecodable is returned when a docstring is not valid UTF-8 text and a
// specific style was requested.
var ErrUndecodable = errors.New("docstring is not decodable as text")

// Styles lists every accepted style, auto first.
func Styles() []Style {
	return []Style{Auto, Google, NumPy, ReST, Epydoc}
}

// ParseStyle converts a configuration value into a Style.
func ParseStyle(s string) (Style, error) {
	norm := Style(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "":
		return Auto, nil
	case "numpydoc":
		return NumPy, nil
	case "restructuredtext", "sphinx":
		return ReST, nil
	}
	for _, st := range Styles() {
		if st == norm {
			return st, nil
		}
	}
	return "", errors.Errorf("unknown docstring style %q", s)
}

// Param documents one parameter or attribute.
type Param struct {
	Name        string
	Type        string
	Default     string
	Optional    bool
	Description string
	// Orphan is set when the entry matches nothing in the documented
	// signature. The entry is kept.
	Orphan bool
}

// Returns documents a return or yield value.
type Returns struct {
	Name        string
	Type        string
	Description string
}

// Raises documents one raised exception.
type Raises struct {
	Type        string
	Description string
}

// Example is one example block.
type Example struct {
	Description string
}

// Docstring is the structured form of a docstring.
type Docstring struct {
	// Style is the dialect that produced the structured sections. It is
	// empty when the text had no recognised section markers.
	Style       Style
	Summary     string
	Description string
	Params      []Param
	Attributes  []Param
	Returns     *Returns
	Yields      *Returns
	Raises      []Raises
	Examples    []Example
	// Notes records degradations met while parsing.
	Notes []string
}

// Empty reports whether the docstring carries no text at all.
func (d *Docstring) Empty() bool {
	if d == nil {
		return true
	}
	return d.Summary == "" && d.Description == "" && len(d.Params) == 0 &&
		len(d.Attributes) == 0 && d.Returns == nil && d.Yields == nil &&
		len(d.Raises) == 0 && len(d.Examples) == 0
}

// Prose joins summary and description as paragraphs.
func (d *Docstring) Prose() string {
	if d == nil {
		return ""
	}
	var parts []string
	if d.Summary != "" {
		parts = append(parts, d.Summary)
	}
	if d.Description != "" {
		parts = append(parts, d.Description)
	}
	return strings.Join(parts, "\n\n")
}

// Param finds a documented parameter by name. Leading stars are ignored on
// both sides so "*args" matches "args".
func (d *Docstring) Param(name string) (*Param, bool) {
	if d == nil {
		return nil, false
	}
	want := strings.TrimLeft(name, "*")
	for i := range d.Params {
		if strings.TrimLeft(d.Params[i].Name, "*") == want {
			return &d.Params[i], true
		}
	}
	return nil, false
}

// Attribute finds a documented attribute by name.
func (d *Docstring) Attribute(name string) (*Param, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Attributes {
		if d.Attributes[i].Name == name {
			return &d.Attributes[i], true
		}
	}
	return nil, false
}

func (d *Docstring) note(format string, args ...any) {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
}

// appendText adds a free-text paragraph after the description.
func (d *Docstring) appendText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if d.Description == "" && d.Summary == "" {
		d.Summary, d.Description = splitProse(text)
		return
	}
	if d.Description == "" {
		d.Description = text
		return
	}
	d.Description += "\n\n" + text
}

// dialect is one docstring convention. detect inspects the cleaned lines
// for the dialect's section markers; parse always succeeds.
type dialect interface {
	style() Style
	detect(lines []string) bool
	parse(text string) *Docstring
}

// dialects in auto-detection priority order. Underlined NumPy headers and
// field-list markers are more specific than Google "Title:" lines, so they
// are tried first.
var dialects = []dialect{
	numpyDialect{},
	fieldListDialect{prefix: ':', name: ReST},
	fieldListDialect{prefix: '@', name: Epydoc},
	googleDialect{},
}

func lookup(style Style) (dialect, bool) {
	for _, d := range dialects {
		if d.style() == style {
			return d, true
		}
	}
	return nil, false
}

// Parse parses raw docstring text.
func Parse(text string, style Style) (*Docstring, error) {
	var notes []string
	if !utf8.ValidString(text) {
		if style != Auto && style != "" {
			return nil, errors.Wrapf(ErrUndecodable, "%s docstring", style)
		}
		text = strings.ToValidUTF8(text, "\uFFFD")
		notes = append(notes, "invalid UTF-8 sequences replaced")
	}
	text = Clean(text)

	var doc *Docstring
	switch style {
	case Auto, "":
		doc = detect(text)
	default:
		d, ok := lookup(style)
		if !ok {
			return nil, errors.Errorf("unknown docstring style %q", style)
		}
		doc = d.parse(text)
	}
	doc.Notes = append(notes, doc.Notes...)
	return doc, nil
}

func detect(text string) *Docstring {
	lines := strings.Split(text, "\n")
	for _, d := range dialects {
		if d.detect(lines) {
			return d.parse(text)
		}
	}
	return plain(text)
}

func plain(text string) *Docstring {
	summary, desc := splitProse(text)
	return &Docstring{Summary: summary, Description: desc}
}

// splitProse splits cleaned text into its first paragraph and the rest.
func splitProse(text string) (string, string) {
	text = strings.Trim(text, "\n")
	lines := strings.Split(text, "\n")
	i := 0
	for i < len(lines) && !isBlank(lines[i]) {
		i++
	}
	summary := strings.TrimSpace(strings.Join(lines[:i], "\n"))
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	desc := strings.TrimRight(strings.Join(lines[i:], "\n"), " \n")
	return summary, desc
}
