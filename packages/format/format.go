// Package format renders runtime values into readable text for failure
// explanations: safe single-line reprs, multi-line structural diffs for
// same-type container pairs, and bounded output with a truncation
// marker.
package format

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Config bounds explanation output. Zero values mean "no limit".
type Config struct {
	// MaxLines caps the number of lines one formatted value or diff may
	// produce before a truncation marker replaces the rest.
	MaxLines int
	// MaxWidth caps the width of a single repr before it is shortened.
	MaxWidth int
}

// DefaultConfig mirrors the configuration defaults in core/config.
var DefaultConfig = Config{MaxLines: 40, MaxWidth: 240}

// Repr formats a single value on one line. It never panics: a value
// whose textual conversion blows up is replaced by a placeholder
// identifying the failure, so one bad value cannot abort assembly of
// the rest of the explanation.
func Repr(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<unrepresentable %T: %v>", v, r)
		}
	}()
	return repr(v)
}

func repr(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = repr(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := sortedKeys(val)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, repr(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ShortRepr is Repr bounded by the configured width. Oversized reprs
// are cut on a rune boundary with an ellipsis so summary lines stay on
// one line.
func (c Config) ShortRepr(v any) string {
	s := Repr(v)
	if c.MaxWidth <= 0 || len(s) <= c.MaxWidth {
		return s
	}
	cut := c.MaxWidth
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Format renders a value as an ordered sequence of lines. Scalars are
// one line; containers with many elements spread over several.
func (c Config) Format(v any) []string {
	var lines []string
	switch val := v.(type) {
	case []any:
		lines = append(lines, "[")
		for _, e := range val {
			lines = append(lines, "  "+Repr(e)+",")
		}
		lines = append(lines, "]")
	case map[string]any:
		lines = append(lines, "{")
		for _, k := range sortedKeys(val) {
			lines = append(lines, fmt.Sprintf("  %q: %s,", k, Repr(val[k])))
		}
		lines = append(lines, "}")
	default:
		lines = []string{Repr(v)}
	}
	return c.Truncate(lines)
}

// Truncate enforces the configured line ceiling, replacing hidden
// lines with a single marker.
func (c Config) Truncate(lines []string) []string {
	if c.MaxLines <= 0 || len(lines) <= c.MaxLines {
		return lines
	}
	hidden := len(lines) - c.MaxLines
	out := make([]string, c.MaxLines, c.MaxLines+1)
	copy(out, lines[:c.MaxLines])
	return append(out, fmt.Sprintf("...Full output truncated (%d lines hidden)", hidden))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
