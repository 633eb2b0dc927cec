// Package explain assembles the final multi-line text describing why a
// failed assertion was false, from the values captured during its one
// evaluation pass.
package explain

import (
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/introspec/packages/format"
)

// Where is one captured opaque sub-expression value together with the
// source text that produced it.
type Where struct {
	Value  any
	Source string
	// Depth is the call nesting level; outermost elaborations sit at 1.
	Depth int
}

// Failure carries everything the assembler needs about one failed
// assertion. It is built by the evaluator after the condition has
// already been found false; no field requires re-evaluating anything.
type Failure struct {
	// Left, Op and Right describe the failing pairwise comparison. For
	// non-comparison conditions Bare is set and Left holds the value of
	// the whole expression.
	Left  any
	Op    string
	Right any
	Bare  bool
	// CondSource is the raw source text of the asserted expression.
	CondSource string
	// Wheres are the opaque sub-expression captures, in the order they
	// were evaluated.
	Wheres []Where
	// Diff holds optional structural diff lines for same-type operands.
	Diff []string
	// Message is the user-supplied failure message, evaluated lazily on
	// the failure path only. Empty when the assertion had none.
	Message string
}

// Assemble produces the explanation text. The summary line comes
// first, then where elaborations ordered outermost to innermost, then
// the structural diff. Output is deterministic: assembling the same
// failure twice yields byte-identical text.
func Assemble(f Failure, cfg format.Config) string {
	var lines []string
	if f.Message != "" {
		lines = append(lines, f.Message)
	}

	if f.Bare {
		lines = append(lines, "assert "+cfg.ShortRepr(f.Left))
	} else {
		lines = append(lines, "assert "+cfg.ShortRepr(f.Left)+" "+f.Op+" "+cfg.ShortRepr(f.Right))
	}

	wheres := make([]Where, len(f.Wheres))
	copy(wheres, f.Wheres)
	sort.SliceStable(wheres, func(i, j int) bool { return wheres[i].Depth < wheres[j].Depth })
	for _, w := range wheres {
		indent := strings.Repeat("  ", w.Depth)
		lines = append(lines, "+"+indent+"where "+cfg.ShortRepr(w.Value)+" = "+w.Source)
	}

	for _, d := range f.Diff {
		lines = append(lines, "  "+d)
	}

	return strings.Join(cfg.Truncate(lines), "\n")
}

// PlainMessage is the fallback used when rewriting is disabled for a
// statement: the bare expression text, optionally prefixed by the user
// message.
func PlainMessage(condSource, message string) string {
	if message != "" {
		return message + "\nassert " + condSource
	}
	return "assert " + condSource
}
