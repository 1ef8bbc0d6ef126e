package docstring

import (
	"regexp"
	"strings"
)

// Clean normalises docstring indentation the way Python tooling does: tabs
// are expanded, the common indentation of every line after the first is
// removed, the first line is left-trimmed, and leading and trailing blank
// lines are dropped. Blank lines inside the text are kept.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(expandTabs(line), " ")
	}
	margin := -1
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		indent := leadingWhitespace(line)
		if margin == -1 || indent < margin {
			margin = indent
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			}
		}
	}
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func expandTabs(line string) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := 8 - col%8
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
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

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// dedent removes the smallest indentation shared by the non-blank lines.
func dedent(lines []string) []string {
	minIndent := -1
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		indent := leadingWhitespace(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case isBlank(line):
			out[i] = ""
		case minIndent > 0:
			out[i] = line[minIndent:]
		default:
			out[i] = line
		}
	}
	return out
}

// block joins lines into text without surrounding blank lines.
func block(lines []string) string {
	return strings.Trim(strings.Join(lines, "\n"), "\n ")
}

// entry is one item of a list-like section: the head line and its
// continuation lines.
type entry struct {
	head string
	body []string
}

// text returns the entry description: the head remainder followed by the
// dedented continuation lines.
func (e entry) text(first string) string {
	rest := block(dedent(e.body))
	first = strings.TrimSpace(first)
	switch {
	case first == "":
		return rest
	case rest == "":
		return first
	default:
		return first + "\n" + rest
	}
}

// splitEntries groups dedented section lines into entries; a line at
// column zero starts a new entry.
func splitEntries(lines []string) []entry {
	var entries []entry
	for _, line := range dedent(lines) {
		if line == "" {
			if len(entries) > 0 {
				last := &entries[len(entries)-1]
				last.body = append(last.body, "")
			}
			continue
		}
		if leadingWhitespace(line) == 0 || len(entries) == 0 {
			entries = append(entries, entry{head: line})
			continue
		}
		last := &entries[len(entries)-1]
		last.body = append(last.body, line)
	}
	return entries
}

var defaultPattern = regexp.MustCompile("(?i)\\bdefaults?\\s*(?:to|is|:|=)\\s*(`[^`]*`|\"[^\"]*\"|'[^']*'|[^\\s,;]+)")

// typeModifiers splits "int, optional" and "int, default 3" forms.
func typeModifiers(typ string) (string, bool, string) {
	var (
		parts    []string
		optional bool
		def      string
	)
	for _, part := range splitTopLevel(typ, ',') {
		p := strings.TrimSpace(part)
		lower := strings.ToLower(p)
		switch {
		case lower == "optional":
			optional = true
		case strings.HasPrefix(lower, "default"):
			rest := strings.TrimSpace(p[len("default"):])
			rest = strings.TrimSpace(strings.TrimLeft(rest, ":="))
			def = strings.Trim(rest, "`")
		case p != "":
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", "), optional, def
}

// defaultFromText extracts "Defaults to X." from a description.
func defaultFromText(desc string) string {
	m := defaultPattern.FindStringSubmatch(desc)
	if m == nil {
		return ""
	}
	v := strings.TrimRight(m[1], ".")
	return strings.Trim(v, "`")
}

// splitTopLevel splits on sep outside of brackets.
func splitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + len(string(sep))
			}
		}
	}
	return append(parts, s[start:])
}

// looksLikeType reports whether s reads as a type expression rather than
// prose: outside brackets it may only contain spaces next to '|' or ','.
func looksLikeType(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") {
		return false
	}
	depth := 0
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ' ':
			if depth > 0 {
				continue
			}
			prev, next := runes[i-1], rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}
			if prev != '|' && prev != ',' && next != '|' && prev != ' ' && next != ' ' {
				return false
			}
		}
	}
	return depth == 0
}
