package pcrex

import (
	"strings"
)

// ReplaceAllString returns the subject with every match replaced by the
// template. The template may reference captures as $1, ${1}, $name or
// ${name}; $$ is a literal dollar sign. Unmatched group references
// expand to the empty string.
func (re *Regexp) ReplaceAllString(subject, template string) string {
	return re.replaceAll(subject, func(m *Match) string {
		return re.expand(template, m)
	})
}

// ReplaceAllStringFunc returns the subject with every match replaced by
// the value of repl applied to the match.
func (re *Regexp) ReplaceAllStringFunc(subject string, repl func(*Match) string) string {
	return re.replaceAll(subject, repl)
}

func (re *Regexp) replaceAll(subject string, repl func(*Match) string) string {
	var sb strings.Builder
	last := 0
	any := false
	re.FindAll(subject, func(m *Match) bool {
		any = true
		begin, end := m.Index()
		sb.WriteString(subject[last:begin])
		sb.WriteString(repl(m))
		last = end
		return true
	})
	if !any {
		return subject
	}
	sb.WriteString(subject[last:])
	return sb.String()
}

// expand substitutes group references in a replacement template.
func (re *Regexp) expand(template string, m *Match) string {
	var sb strings.Builder
	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(template) {
			sb.WriteByte('$')
			break
		}
		if template[i] == '$' {
			sb.WriteByte('$')
			i++
			continue
		}

		braced := template[i] == '{'
		if braced {
			i++
		}
		start := i
		for i < len(template) && isTemplateNameByte(template[i]) {
			i++
		}
		name := template[start:i]
		if braced {
			if i < len(template) && template[i] == '}' {
				i++
			} else {
				// Unclosed brace: treat the whole thing literally.
				sb.WriteString("${")
				sb.WriteString(name)
				continue
			}
		}
		if name == "" {
			sb.WriteByte('$')
			if braced {
				sb.WriteString("{}")
			}
			continue
		}

		if idx, isNum := templateNumber(name); isNum {
			if s, ok := m.Group(idx); ok {
				sb.WriteString(s)
			}
		} else if s, ok := m.GroupByName(name); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

func isTemplateNameByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func templateNumber(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}
