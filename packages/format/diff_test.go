package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Lists(t *testing.T) {
	cfg := DefaultConfig
	left := []any{int64(1), int64(2), int64(3)}
	right := []any{int64(1), int64(9), int64(3)}

	got := cfg.Diff(left, right)
	assert.Equal(t, []string{
		"[",
		"  1,",
		"- 2,",
		"+ 9,",
		"  3,",
		"]",
	}, got)
}

func TestDiff_ListInsertion(t *testing.T) {
	cfg := DefaultConfig
	left := []any{int64(1), int64(3)}
	right := []any{int64(1), int64(2), int64(3)}

	got := cfg.Diff(left, right)
	assert.Equal(t, []string{
		"[",
		"  1,",
		"+ 2,",
		"  3,",
		"]",
	}, got)
}

func TestDiff_Maps(t *testing.T) {
	cfg := DefaultConfig
	left := map[string]any{"a": int64(1), "b": int64(2), "d": int64(4)}
	right := map[string]any{"a": int64(1), "b": int64(3), "c": int64(9)}

	got := cfg.Diff(left, right)
	assert.Equal(t, []string{
		"{",
		`  "a": 1,`,
		`- "b": 2,`,
		`+ "b": 3,`,
		`+ "c": 9,`,
		`- "d": 4,`,
		"}",
	}, got)
}

func TestDiff_MultilineStrings(t *testing.T) {
	cfg := DefaultConfig
	got := cfg.Diff("a\nb\nc", "a\nx\nc")
	assert.Equal(t, []string{
		`"""`,
		"  a,",
		"- b,",
		"+ x,",
		"  c,",
		`"""`,
	}, got)
}

func TestDiff_NotDiffable(t *testing.T) {
	cfg := DefaultConfig

	// mixed types never diff
	assert.Nil(t, cfg.Diff([]any{int64(1)}, map[string]any{}))
	assert.Nil(t, cfg.Diff(map[string]any{}, []any{}))

	// scalars never diff
	assert.Nil(t, cfg.Diff(int64(1), int64(2)))

	// single-line strings stay on the summary line
	assert.Nil(t, cfg.Diff("abc", "abd"))
}

func TestDiff_Truncated(t *testing.T) {
	cfg := Config{MaxLines: 4}
	left := make([]any, 20)
	right := make([]any, 20)
	for i := range left {
		left[i] = int64(i)
		right[i] = int64(i + 100)
	}

	got := cfg.Diff(left, right)
	require.Len(t, got, 5)
	assert.Contains(t, got[4], "Full output truncated")
}
