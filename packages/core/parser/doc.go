// Package parser provides parsing functionality for introspec test files.
//
// It parses .spec files into an AST whose nodes carry byte-range spans
// into the original source, so failure explanations can quote the exact
// operand text the author wrote.
//
// The parser handles:
//   - test "name" { ... } blocks
//   - def helper(x) { ... } function definitions
//   - assert statements with an optional trailing message expression
//   - let bindings, assignments and bare expression statements
//   - comparison chains (a < b < c), and/or/not, calls, indexing
//   - annotations attached to the next test (# @tags, # @skip)
package parser
