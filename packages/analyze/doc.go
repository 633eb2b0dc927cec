// Package analyze decides which sub-expressions of an assertion are
// worth reporting when it fails.
//
// Given a parsed boolean expression it produces a capture plan: the set
// of source spans whose runtime values the evaluator should record
// during its single evaluation pass. Comparison chains decompose into
// pairwise comparisons, boolean operators into their operands, and
// calls, field accesses and index expressions become opaque "where"
// values.
package analyze
