package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/introspec/packages/core/config"
	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
	"github.com/abdul-hamid-achik/introspec/packages/format"
	"github.com/abdul-hamid-achik/introspec/packages/interp"
	"github.com/abdul-hamid-achik/introspec/packages/rewrite"
	"github.com/abdul-hamid-achik/introspec/packages/snapshot"
	"github.com/abdul-hamid-achik/introspec/packages/stats"
)

// SpecExt is the file extension for introspec test files.
const SpecExt = ".spec"

// Runner drives the parse → rewrite → execute pipeline over test
// files. Parse failures on one file are diagnostics, not fatal: the
// run continues over the remaining files with that file reported as
// errored.
type Runner struct {
	config    *Config
	rewriter  *rewrite.Rewriter
	cache     *rewrite.Cache
	timings   *stats.Timings
	snapshots *snapshot.Manager
}

type Config struct {
	Verbose    bool
	Bail       bool
	NameFilter string
	TagsFilter []string

	Rewrite   bool
	TestPaths []string
	CacheDir  string
	NoCache   bool

	MaxExplanationLines int
	MaxReprWidth        int
	ApproxRel           float64
	ApproxAbs           float64

	UpdateSnapshots bool
}

// FromConfig builds a runner Config from file configuration.
func FromConfig(c *config.Config) *Config {
	return &Config{
		Verbose:             c.GetVerbose(),
		Bail:                c.GetBail(),
		TagsFilter:          c.Tags,
		Rewrite:             c.GetRewrite(),
		TestPaths:           c.TestPaths,
		CacheDir:            c.CacheDir,
		NoCache:             c.GetNoCache(),
		MaxExplanationLines: c.MaxExplanationLines,
		MaxReprWidth:        c.MaxReprWidth,
		ApproxRel:           c.ApproxRel,
		ApproxAbs:           c.ApproxAbs,
	}
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{Rewrite: true}
	}

	r := &Runner{
		config:    cfg,
		rewriter:  rewrite.New(rewrite.WithEnabled(cfg.Rewrite), rewrite.WithTestPaths(cfg.TestPaths)),
		timings:   stats.NewTimings(),
		snapshots: snapshot.NewManager(cfg.UpdateSnapshots),
	}
	if !cfg.NoCache && cfg.CacheDir != "" {
		// A cache that cannot be opened just means every file gets
		// re-analyzed this run.
		if cache, err := rewrite.OpenCache(cfg.CacheDir); err == nil {
			r.cache = cache
		}
	}
	return r
}

// Close releases the rewrite cache handle.
func (r *Runner) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

// Timings exposes the per-test duration histogram for reporting.
func (r *Runner) Timings() *stats.Timings {
	return r.timings
}

type RunResult struct {
	File     string
	Results  []*TestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	// Err is set when the file itself could not be loaded or parsed.
	Err error
}

type TestResult struct {
	Name       string
	Tags       []string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	// Explanation is the assembled failure text for a failed assertion.
	Explanation string
	// Line is the source line of the failed assertion.
	Line int
	// Err is a runtime error that aborted the test (not an assertion
	// failure).
	Err error
}

// Discover walks the given paths collecting .spec files in sorted
// order. A path that is itself a file is taken as-is.
func Discover(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == SpecExt {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// RunFile loads one file through the rewrite cache and executes its
// test blocks.
func (r *Runner) RunFile(path string) *RunResult {
	start := time.Now()
	result := &RunResult{File: path}

	prog, err := rewrite.Load(path, r.rewriter, r.cache)
	if err != nil {
		result.Err = fmt.Errorf("loading %s: %w", path, err)
		result.Duration = time.Since(start)
		return result
	}

	fmtCfg := format.Config{MaxLines: r.config.MaxExplanationLines, MaxWidth: r.config.MaxReprWidth}
	if fmtCfg.MaxLines == 0 {
		fmtCfg = format.DefaultConfig
	}
	registry := interp.NewRegistry(r.config.ApproxRel, r.config.ApproxAbs, filepath.Dir(path))
	registry.RegisterSnapshots(r.snapshots, path)

	for _, test := range prog.File.Tests {
		if !r.selected(test) {
			continue
		}
		tr := r.runTest(prog, test, fmtCfg, registry)
		result.Results = append(result.Results, tr)
		switch {
		case tr.Skipped:
			result.Skipped++
		case tr.Passed:
			result.Passed++
		default:
			result.Failed++
		}
		if r.config.Bail && !tr.Passed && !tr.Skipped {
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runTest(prog *rewrite.Program, test *parser.TestBlock, fmtCfg format.Config, registry *interp.Registry) *TestResult {
	tr := &TestResult{Name: test.Name, Tags: test.Tags}
	if test.Skip != "" {
		tr.Skipped = true
		tr.SkipReason = test.Skip
		return tr
	}

	in := interp.New(prog, interp.WithFormatConfig(fmtCfg), interp.WithRegistry(registry))

	start := time.Now()
	err := in.RunTest(test)
	tr.Duration = time.Since(start)
	r.timings.Record(tr.Duration)

	if err == nil {
		tr.Passed = true
		return tr
	}

	var assertErr *interp.AssertionError
	if errors.As(err, &assertErr) {
		tr.Explanation = assertErr.Explanation
		tr.Line = assertErr.Line
		return tr
	}
	tr.Err = err
	return tr
}

// selected applies the name and tag filters.
func (r *Runner) selected(test *parser.TestBlock) bool {
	if r.config.NameFilter != "" && !strings.Contains(strings.ToLower(test.Name), strings.ToLower(r.config.NameFilter)) {
		return false
	}
	if len(r.config.TagsFilter) == 0 {
		return true
	}
	for _, want := range r.config.TagsFilter {
		for _, have := range test.Tags {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}
