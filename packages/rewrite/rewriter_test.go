package rewrite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
)

const sampleSource = `def inc(x) {
    return x + 1
}

test "increments" {
    assert inc(3) == 4
    let y = 2
    assert y > 1
}
`

func parseSample(t *testing.T, path string) *parser.File {
	t.Helper()
	file, err := parser.Parse(sampleSource, path)
	require.NoError(t, err)
	return file
}

func TestRewrite_InstrumentsTestAsserts(t *testing.T) {
	file := parseSample(t, "sample.spec")
	prog := New().Rewrite(file)

	require.Len(t, file.Tests, 1)
	var asserts []*parser.AssertStmt
	for _, stmt := range file.Tests[0].Body {
		if a, ok := stmt.(*parser.AssertStmt); ok {
			asserts = append(asserts, a)
		}
	}
	require.Len(t, asserts, 2)

	assert.Len(t, prog.Plans, 2)
	for _, a := range asserts {
		plan, ok := prog.PlanFor(a)
		assert.True(t, ok)
		assert.NotNil(t, plan)
	}
}

func TestRewrite_DefBodyAssertsStayPlain(t *testing.T) {
	source := `def check(x) {
    assert x > 0
    return x
}

test "calls helper" {
    assert check(1) == 1
}
`
	file, err := parser.Parse(source, "helper.spec")
	require.NoError(t, err)
	prog := New().Rewrite(file)

	// Only the assert inside the test block gains a plan.
	assert.Len(t, prog.Plans, 1)

	require.Len(t, file.Funcs, 1)
	defAssert, ok := file.Funcs[0].Body[0].(*parser.AssertStmt)
	require.True(t, ok)
	_, instrumented := prog.PlanFor(defAssert)
	assert.False(t, instrumented)
}

func TestRewrite_Disabled(t *testing.T) {
	file := parseSample(t, "sample.spec")
	prog := New(WithEnabled(false)).Rewrite(file)

	assert.Empty(t, prog.Plans)
	assert.Equal(t, file, prog.File, "disabled rewriters still produce runnable programs")
	assert.Equal(t, sampleSource, prog.Source)
}

func TestRewrite_TestPaths(t *testing.T) {
	dir := t.TempDir()
	inside := filepath.Join(dir, "specs", "sample.spec")
	outside := filepath.Join(dir, "other", "sample.spec")

	r := New(WithTestPaths([]string{filepath.Join(dir, "specs")}))

	prog := r.Rewrite(parseSample(t, inside))
	assert.Len(t, prog.Plans, 2)

	prog = r.Rewrite(parseSample(t, outside))
	assert.Empty(t, prog.Plans)
}

func TestRewrite_TestPathExactMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.spec")

	r := New(WithTestPaths([]string{path}))
	prog := r.Rewrite(parseSample(t, path))
	assert.Len(t, prog.Plans, 2)
}
