// Package rewrite turns parsed test files into instrumented programs:
// assert statements gain a capture plan so the evaluator can record
// sub-expression values during its single evaluation pass, and the
// result is cached on disk keyed by source content hash.
package rewrite

import (
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/introspec/packages/analyze"
	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
)

// Program is the executable form of one test file. Plans maps the span
// of each instrumented assert statement to its capture plan; asserts
// without an entry run in plain, unrewritten form and fail with only
// the bare expression text.
type Program struct {
	Path   string
	Source string
	File   *parser.File
	Plans  map[parser.Span]*analyze.Plan
}

// Rewriter decides which assert statements get instrumented and builds
// their capture plans. Rewriting never changes what a program computes:
// the truth value and side effects of every assertion are preserved
// exactly, instrumented or not.
type Rewriter struct {
	enabled   bool
	testPaths []string
}

type Option func(*Rewriter)

// WithEnabled turns instrumentation off entirely. Disabled rewriters
// still produce runnable programs; their assertions just fail with the
// minimal message.
func WithEnabled(enabled bool) Option {
	return func(r *Rewriter) {
		r.enabled = enabled
	}
}

// WithTestPaths restricts instrumentation to files under the given
// directories. Files outside them are left untouched, matching the
// convention that only the user's own test code gets explanations.
func WithTestPaths(paths []string) Option {
	return func(r *Rewriter) {
		r.testPaths = paths
	}
}

func New(opts ...Option) *Rewriter {
	r := &Rewriter{enabled: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite instruments every assert statement directly inside a test
// block. Asserts inside def bodies are deliberately skipped: helper
// functions run in arbitrary calling contexts where capture recording
// could observe a different assertion's evaluation, so they keep plain
// semantics.
func (r *Rewriter) Rewrite(file *parser.File) *Program {
	prog := &Program{
		Path:   file.Path,
		Source: file.Source,
		File:   file,
		Plans:  make(map[parser.Span]*analyze.Plan),
	}
	if !r.enabled || !r.pathEligible(file.Path) {
		return prog
	}
	for _, test := range file.Tests {
		for _, stmt := range test.Body {
			if a, ok := stmt.(*parser.AssertStmt); ok {
				prog.Plans[a.Pos] = analyze.Analyze(a.Cond)
			}
		}
	}
	return prog
}

// PlanFor returns the capture plan for an assert statement, if it was
// instrumented.
func (p *Program) PlanFor(stmt *parser.AssertStmt) (*analyze.Plan, bool) {
	plan, ok := p.Plans[stmt.Pos]
	return plan, ok
}

// Instruments reports whether this rewriter would instrument the given
// file. Programs built without instrumentation never enter the cache:
// a plan-less program must not be served to a later rewrite-enabled
// run, and an instrumented one must not stand in for a plain run.
func (r *Rewriter) Instruments(path string) bool {
	return r.enabled && r.pathEligible(path)
}

func (r *Rewriter) pathEligible(path string) bool {
	if len(r.testPaths) == 0 {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range r.testPaths {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if abs == rootAbs || strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
