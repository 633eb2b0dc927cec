// Package runner discovers .spec files and drives them through the
// parse, rewrite and execution pipeline, collecting per-test results
// for the output layer.
package runner
