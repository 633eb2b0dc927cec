package explain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/introspec/packages/format"
)

func TestAssemble_CallOperand(t *testing.T) {
	f := Failure{
		Left:       int64(4),
		Op:         "==",
		Right:      int64(5),
		CondSource: "inc(3) == 5",
		Wheres: []Where{
			{Value: int64(4), Source: "inc(3)", Depth: 1},
		},
	}

	got := Assemble(f, format.DefaultConfig)
	assert.Equal(t, "assert 4 == 5\n+  where 4 = inc(3)", got)
}

func TestAssemble_MessageComesFirst(t *testing.T) {
	f := Failure{
		Left:       int64(1),
		Op:         "==",
		Right:      int64(2),
		CondSource: "1 == 2",
		Message:    "values drifted",
	}

	got := Assemble(f, format.DefaultConfig)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "values drifted", lines[0])
	assert.Equal(t, "assert 1 == 2", lines[1])
}

func TestAssemble_WheresOrderedByDepth(t *testing.T) {
	f := Failure{
		Left:       int64(4),
		Op:         "==",
		Right:      int64(9),
		CondSource: "outer(inner(1)) == 9",
		Wheres: []Where{
			{Value: int64(2), Source: "inner(1)", Depth: 2},
			{Value: int64(4), Source: "outer(inner(1))", Depth: 1},
		},
	}

	got := Assemble(f, format.DefaultConfig)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "+  where 4 = outer(inner(1))", lines[1])
	assert.Equal(t, "+    where 2 = inner(1)", lines[2])
}

func TestAssemble_StableForEqualDepths(t *testing.T) {
	f := Failure{
		Left:       false,
		Bare:       true,
		CondSource: "f() and g()",
		Wheres: []Where{
			{Value: int64(1), Source: "f()", Depth: 1},
			{Value: int64(0), Source: "g()", Depth: 1},
		},
	}

	first := Assemble(f, format.DefaultConfig)
	second := Assemble(f, format.DefaultConfig)
	assert.Equal(t, first, second)

	lines := strings.Split(first, "\n")
	require.Len(t, lines, 3)
	// evaluation order is preserved among equal depths
	assert.Contains(t, lines[1], "f()")
	assert.Contains(t, lines[2], "g()")
}

func TestAssemble_BareCondition(t *testing.T) {
	f := Failure{
		Left:       false,
		Bare:       true,
		CondSource: "check()",
		Wheres: []Where{
			{Value: false, Source: "check()", Depth: 1},
		},
	}

	got := Assemble(f, format.DefaultConfig)
	lines := strings.Split(got, "\n")
	assert.Equal(t, "assert false", lines[0])
	assert.Equal(t, "+  where false = check()", lines[1])
}

func TestAssemble_DiffIndented(t *testing.T) {
	f := Failure{
		Left:       []any{int64(1), int64(2)},
		Op:         "==",
		Right:      []any{int64(1), int64(3)},
		CondSource: "xs == ys",
		Diff:       []string{"[", "  1,", "- 2,", "+ 3,", "]"},
	}

	got := Assemble(f, format.DefaultConfig)
	lines := strings.Split(got, "\n")
	assert.Equal(t, "assert [1, 2] == [1, 3]", lines[0])
	assert.Equal(t, "  [", lines[1])
	assert.Equal(t, "  - 2,", lines[3])
}

func TestAssemble_Truncated(t *testing.T) {
	f := Failure{Left: int64(1), Op: "==", Right: int64(2), CondSource: "1 == 2"}
	for i := 0; i < 50; i++ {
		f.Wheres = append(f.Wheres, Where{Value: int64(i), Source: "w()", Depth: 1})
	}

	got := Assemble(f, format.Config{MaxLines: 5, MaxWidth: 240})
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[5], "Full output truncated")
}

func TestPlainMessage(t *testing.T) {
	assert.Equal(t, "assert x == 1", PlainMessage("x == 1", ""))
	assert.Equal(t, "nope\nassert x == 1", PlainMessage("x == 1", "nope"))
}
