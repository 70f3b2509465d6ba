package contract

import (
	"sort"
	"strings"
)

// BuildPath substitutes path parameters into a template. For every key the
// first occurrence of ":key" is replaced by the encoded value. Longer keys
// go first so that ":id" never eats the head of ":idx". Placeholders with no
// value are left verbatim.
func BuildPath(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	path := template
	for _, k := range keys {
		path = strings.Replace(path, ":"+k, EscapeComponent(params[k]), 1)
	}
	return path
}

// RewritePlaceholders replaces every ":name" token of template with
// fn(name). Unlike BuildPath the replacement is not escaped.
func RewritePlaceholders(template string, fn func(name string) string) string {
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != ':' || (i > 0 && template[i-1] != '/') {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(template) && isNameByte(template[j]) {
			j++
		}
		if j == i+1 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(fn(template[i+1 : j]))
		i = j - 1
	}
	return sb.String()
}

// unresolved returns the first placeholder of template with no value in
// params.
func unresolved(template string, params map[string]string) (string, bool) {
	for _, name := range placeholders(template) {
		if _, ok := params[name]; !ok {
			return name, true
		}
	}
	return "", false
}

const upperhex = "0123456789ABCDEF"

// EscapeComponent percent-encodes s the way URI components are encoded in
// browsers: everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped,
// so '/' becomes %2F and ' ' becomes %20.
func EscapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !isComponentSafe(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isComponentSafe(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

func isComponentSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
