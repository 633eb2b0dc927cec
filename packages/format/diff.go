package format

import (
	"fmt"
	"sort"
	"strings"
)

// Diff produces a line-based structural diff of two values of the same
// type. It returns nil when the pair is not diffable (mixed types or
// scalars), in which case callers fall back to a plain side-by-side
// representation. Lines present only on the left are marked "-",
// only on the right "+", shared lines are unmarked, and bracket lines
// stand on their own.
func (c Config) Diff(left, right any) []string {
	switch l := left.(type) {
	case []any:
		r, ok := right.([]any)
		if !ok {
			return nil
		}
		return c.Truncate(diffSequences(reprAll(l), reprAll(r), "[", "]"))
	case map[string]any:
		r, ok := right.(map[string]any)
		if !ok {
			return nil
		}
		return c.Truncate(diffMaps(l, r))
	case string:
		r, ok := right.(string)
		if !ok {
			return nil
		}
		if !strings.Contains(l, "\n") && !strings.Contains(r, "\n") {
			return nil
		}
		return c.Truncate(diffStrings(l, r))
	default:
		return nil
	}
}

func reprAll(items []any) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = Repr(v)
	}
	return out
}

// diffSequences collapses the common prefix and suffix of two repr
// slices and marks the differing middle region.
func diffSequences(left, right []string, open, closing string) []string {
	prefix := 0
	for prefix < len(left) && prefix < len(right) && left[prefix] == right[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(left)-prefix && suffix < len(right)-prefix &&
		left[len(left)-1-suffix] == right[len(right)-1-suffix] {
		suffix++
	}

	lines := []string{open}
	for _, item := range left[:prefix] {
		lines = append(lines, "  "+item+",")
	}
	for _, item := range left[prefix : len(left)-suffix] {
		lines = append(lines, "- "+item+",")
	}
	for _, item := range right[prefix : len(right)-suffix] {
		lines = append(lines, "+ "+item+",")
	}
	for _, item := range left[len(left)-suffix:] {
		lines = append(lines, "  "+item+",")
	}
	return append(lines, closing)
}

// diffMaps walks the union of keys in sorted order so output is
// deterministic. Changed values show as a remove/add pair.
func diffMaps(left, right map[string]any) []string {
	union := make(map[string]struct{}, len(left)+len(right))
	for k := range left {
		union[k] = struct{}{}
	}
	for k := range right {
		union[k] = struct{}{}
	}
	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{"{"}
	for _, k := range keys {
		lv, inLeft := left[k]
		rv, inRight := right[k]
		switch {
		case inLeft && inRight && Repr(lv) == Repr(rv):
			lines = append(lines, fmt.Sprintf("  %q: %s,", k, Repr(lv)))
		case inLeft && inRight:
			lines = append(lines, fmt.Sprintf("- %q: %s,", k, Repr(lv)))
			lines = append(lines, fmt.Sprintf("+ %q: %s,", k, Repr(rv)))
		case inLeft:
			lines = append(lines, fmt.Sprintf("- %q: %s,", k, Repr(lv)))
		default:
			lines = append(lines, fmt.Sprintf("+ %q: %s,", k, Repr(rv)))
		}
	}
	return append(lines, "}")
}

func diffStrings(left, right string) []string {
	return diffSequences(strings.Split(left, "\n"), strings.Split(right, "\n"), "\"\"\"", "\"\"\"")
}
