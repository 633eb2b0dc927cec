package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/introspec/packages/core/config"
)

func writeSpec(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func newTestRunner(t *testing.T, cfg *Config) *Runner {
	t.Helper()
	if cfg == nil {
		cfg = &Config{Rewrite: true, NoCache: true}
	}
	r := NewRunner(cfg)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	b := writeSpec(t, dir, "b.spec", "test \"b\" {\n    assert true\n}\n")
	a := writeSpec(t, dir, "a.spec", "test \"a\" {\n    assert true\n}\n")
	c := writeSpec(t, sub, "c.spec", "test \"c\" {\n    assert true\n}\n")
	writeSpec(t, dir, "notes.txt", "not a spec")

	files, err := Discover([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, c}, files)
}

func TestDiscover_FileArgument(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "only.spec", "test \"x\" {\n    assert true\n}\n")

	files, err := Discover([]string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDiscover_MissingPath(t *testing.T) {
	_, err := Discover([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestRunFile_Counts(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "mixed.spec", `test "passes" {
    assert 1 == 1
}

test "fails" {
    assert 1 == 2
}

# @skip flaky on ci
test "skipped" {
    assert false
}
`)

	r := newTestRunner(t, nil)
	result := r.RunFile(path)

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Results, 3)

	assert.True(t, result.Results[0].Passed)
	assert.False(t, result.Results[1].Passed)
	assert.Equal(t, "flaky on ci", result.Results[2].SkipReason)
}

func TestRunFile_FailureExplanation(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "explain.spec", `def inc(x) {
    return x + 1
}

test "off by one" {
    assert inc(3) == 5
}
`)

	r := newTestRunner(t, nil)
	result := r.RunFile(path)

	require.NoError(t, result.Err)
	require.Len(t, result.Results, 1)

	tr := result.Results[0]
	assert.False(t, tr.Passed)
	assert.Equal(t, "assert 4 == 5\n+  where 4 = inc(3)", tr.Explanation)
	assert.Equal(t, 6, tr.Line)
	assert.NoError(t, tr.Err)
}

func TestRunFile_RuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "boom.spec", `test "divides by zero" {
    assert 1 / 0 == 1
}
`)

	r := newTestRunner(t, nil)
	result := r.RunFile(path)

	require.NoError(t, result.Err)
	require.Len(t, result.Results, 1)

	tr := result.Results[0]
	assert.False(t, tr.Passed)
	assert.Error(t, tr.Err)
	assert.Empty(t, tr.Explanation)
	assert.Equal(t, 1, result.Failed)
}

func TestRunFile_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "broken.spec", "test \"broken\" {\n    assert ==\n}\n")

	r := newTestRunner(t, nil)
	result := r.RunFile(path)

	assert.Error(t, result.Err)
	assert.Empty(t, result.Results)
}

func TestRunFile_NameFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "filter.spec", `test "alpha works" {
    assert true
}

test "beta works" {
    assert true
}
`)

	r := newTestRunner(t, &Config{Rewrite: true, NoCache: true, NameFilter: "ALPHA"})
	result := r.RunFile(path)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "alpha works", result.Results[0].Name)
}

func TestRunFile_TagsFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "tags.spec", `# @tags smoke, fast
test "tagged" {
    assert true
}

test "untagged" {
    assert true
}
`)

	r := newTestRunner(t, &Config{Rewrite: true, NoCache: true, TagsFilter: []string{"SMOKE"}})
	result := r.RunFile(path)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "tagged", result.Results[0].Name)
	assert.Equal(t, []string{"smoke", "fast"}, result.Results[0].Tags)
}

func TestRunFile_Bail(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "bail.spec", `test "first fails" {
    assert 1 == 2
}

test "never runs" {
    assert true
}
`)

	r := newTestRunner(t, &Config{Rewrite: true, NoCache: true, Bail: true})
	result := r.RunFile(path)

	require.Len(t, result.Results, 1)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Passed)
}

func TestRunFile_RewriteDisabled(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "plain.spec", `def inc(x) {
    return x + 1
}

test "off by one" {
    assert inc(3) == 5
}
`)

	r := newTestRunner(t, &Config{Rewrite: false, NoCache: true})
	result := r.RunFile(path)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "assert inc(3) == 5", result.Results[0].Explanation,
		"without rewriting, the failure shows only the source text")
}

func TestRunFile_CachePersistsAcrossRunners(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	path := writeSpec(t, dir, "cached.spec", "test \"x\" {\n    assert 1 == 1\n}\n")

	first := newTestRunner(t, &Config{Rewrite: true, CacheDir: cacheDir})
	result := first.RunFile(path)
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Passed)

	second := newTestRunner(t, &Config{Rewrite: true, CacheDir: cacheDir})
	result = second.RunFile(path)
	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Passed)
}

func TestRunFile_PlainRunDoesNotPoisonCache(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	path := writeSpec(t, dir, "poison.spec", `def inc(x) {
    return x + 1
}

test "off by one" {
    assert inc(3) == 5
}
`)

	plain := newTestRunner(t, &Config{Rewrite: false, CacheDir: cacheDir})
	result := plain.RunFile(path)
	require.NoError(t, result.Err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "assert inc(3) == 5", result.Results[0].Explanation)

	// A rewrite-enabled run over the same warm cache still gets the
	// full explanation.
	instrumented := newTestRunner(t, &Config{Rewrite: true, CacheDir: cacheDir})
	result = instrumented.RunFile(path)
	require.NoError(t, result.Err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "assert 4 == 5\n+  where 4 = inc(3)", result.Results[0].Explanation)
}

func TestRunner_Timings(t *testing.T) {
	dir := t.TempDir()
	path := writeSpec(t, dir, "timed.spec", `test "a" {
    assert true
}

test "b" {
    assert true
}
`)

	r := newTestRunner(t, nil)
	r.RunFile(path)

	assert.Equal(t, int64(2), r.Timings().Count())
}

func TestFromConfig(t *testing.T) {
	fileCfg := config.DefaultConfig()
	fileCfg.Bail = config.BoolPtr(true)
	fileCfg.Tags = []string{"smoke"}
	fileCfg.ApproxRel = 0.5

	cfg := FromConfig(fileCfg)

	assert.True(t, cfg.Bail)
	assert.True(t, cfg.Rewrite)
	assert.Equal(t, []string{"smoke"}, cfg.TagsFilter)
	assert.Equal(t, 0.5, cfg.ApproxRel)
	assert.Equal(t, config.DefaultCacheDir, cfg.CacheDir)
	assert.Equal(t, 40, cfg.MaxExplanationLines)
}
