package pysrc

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// stringValue decodes a string literal node. f-strings are returned with
// their replacement fields unevaluated.
func (x *extractor) stringValue(n *sitter.Node) (value string, isBytes, ok bool) {
	if n == nil {
		return "", false, false
	}
	switch n.Type() {
	case "string":
		return decodeString(x.text(n))
	case "concatenated_string":
		var b strings.Builder
		for i := 0; i < int(n.NamedChildCount()); i++ {
			s, by, ok := x.stringValue(n.NamedChild(i))
			if !ok {
				continue
			}
			isBytes = isBytes || by
			b.WriteString(s)
		}
		return b.String(), isBytes, true
	}
	return "", false, false
}

// decodeString strips the prefix and quotes of a literal and resolves
// escape sequences unless the literal is raw.
func decodeString(lit string) (string, bool, bool) {
	i := 0
	for i < len(lit) && lit[i] != '"' && lit[i] != '\'' {
		i++
	}
	if i == len(lit) {
		return "", false, false
	}
	prefix := strings.ToLower(lit[:i])
	body := lit[i:]
	quote := body[:1]
	if strings.HasPrefix(body, strings.Repeat(quote, 3)) && len(body) >= 6 {
		quote = strings.Repeat(quote, 3)
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false, false
	}
	body = body[len(quote) : len(body)-len(quote)]
	isBytes := strings.Contains(prefix, "b")
	if strings.Contains(prefix, "r") {
		return body, isBytes, true
	}
	return unescape(body), isBytes, true
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(s[i])
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteRune(rune(v))
					i += 2
					continue
				}
			}
			b.WriteString(`\x`)
		case 'u':
			if i+4 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
