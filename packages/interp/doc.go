// Package interp executes instrumented test programs.
//
// The evaluator makes a single pass over every expression: values the
// capture plan flagged are recorded as they are produced, never by
// re-running anything, so side effects happen exactly as often as in
// the unrewritten program. Assertions that hold cost nothing beyond
// discarding the raw captures; assertions that fail assemble an
// explanation from the recorded values. Runtime errors inside an
// expression propagate unchanged and are never dressed up as
// assertion failures.
//
// Test scripts also get a registry of builtin functions (len, approx,
// jsonpath, matchesSchema, uuid, ...) in addition to the file's own
// def helpers.
package interp
