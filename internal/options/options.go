// Package options resolves raw job option blobs into ordered key/value maps.
package options

import (
	"fmt"
	"regexp"
	"strings"
)

// Map is an ordered string-to-string mapping of job options. The zero value
// is an empty, valid map. A nil *Map is the parse-failure sentinel: it means
// "could not parse the options" and must abort notification.
type Map struct {
	keys   []string
	values map[string]string
}

// NewMap returns an empty options map.
func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Set adds or replaces a key, preserving first-insertion order.
func (m *Map) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it is present.
func (m *Map) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Values returns a plain map copy for handing to the remote client.
func (m *Map) Values() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// String renders the map back to properties form, in key order.
func (m *Map) String() string {
	var sb strings.Builder
	for _, k := range m.keys {
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(m.values[k])
		sb.WriteString("\n")
	}
	return sb.String()
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand substitutes ${VAR} placeholders from env. Unresolved tokens are left
// verbatim; substitution never fails. It returns the expanded string and the
// list of tokens it could not resolve, for caller-side logging.
func Expand(raw string, env map[string]string) (string, []string) {
	var unresolved []string
	expanded := placeholderRe.ReplaceAllStringFunc(raw, func(token string) string {
		name := token[2 : len(token)-1]
		if v, ok := env[name]; ok {
			return v
		}
		unresolved = append(unresolved, name)
		return token
	})
	return expanded, unresolved
}

// Resolve expands placeholders in raw against env, then parses the result as
// properties-style options. A blank raw string is an empty map, never an
// error. A parse error yields (nil, err): the nil map is the sentinel that
// stops the dispatch path before any remote call.
func Resolve(raw string, env map[string]string) (*Map, error) {
	if strings.TrimSpace(raw) == "" {
		return NewMap(), nil
	}
	expanded, _ := Expand(raw, env)
	return Parse(expanded)
}

// Parse reads newline-separated key=value or key:value pairs. Lines starting
// with # or ! are comments, whitespace around the separator is trimmed, and a
// trailing backslash joins the next line. A line with no separator, an empty
// key, or a key containing whitespace is malformed.
func Parse(s string) (*Map, error) {
	m := NewMap()
	lines := strings.Split(s, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}

		// Trailing backslash continues the logical line.
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + strings.TrimSpace(lines[i])
		}
		line = strings.TrimSuffix(line, "\\")

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			return nil, fmt.Errorf("options line %d: missing key/value separator: %q", i+1, line)
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if key == "" {
			return nil, fmt.Errorf("options line %d: empty key: %q", i+1, line)
		}
		if strings.ContainsAny(key, " \t") {
			return nil, fmt.Errorf("options line %d: key contains whitespace: %q", i+1, key)
		}
		m.Set(key, value)
	}
	return m, nil
}
