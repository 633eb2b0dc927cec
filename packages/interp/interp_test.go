package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
	"github.com/abdul-hamid-achik/introspec/packages/rewrite"
)

func progOf(t *testing.T, source string) *rewrite.Program {
	t.Helper()
	file, err := parser.Parse(source, "test.spec")
	require.NoError(t, err)
	return rewrite.New().Rewrite(file)
}

func runFirst(t *testing.T, source string, opts ...Option) error {
	t.Helper()
	prog := progOf(t, source)
	require.NotEmpty(t, prog.File.Tests)
	return New(prog, opts...).RunTest(prog.File.Tests[0])
}

// countingRegistry returns a registry with side-effecting builtins and
// a pointer to the call counter, for observing evaluation counts.
func countingRegistry(ret any) (*Registry, *int) {
	reg := NewRegistry(0, 0, "")
	calls := 0
	reg.Register("bump", func(args []any) (any, error) {
		calls++
		return ret, nil
	})
	return reg, &calls
}

func TestInterp_PassingAssert(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert 1 + 1 == 2
}`)
	assert.NoError(t, err)
}

func TestInterp_CallOperandExplanation(t *testing.T) {
	err := runFirst(t, `def inc(x) {
    return x + 1
}

test "t" {
    assert inc(3) == 5
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "assert 4 == 5\n+  where 4 = inc(3)", aerr.Explanation)
	assert.Equal(t, "inc(3) == 5", aerr.CondSource)
	assert.Equal(t, 6, aerr.Line)
}

func TestInterp_NestedCallExplanation(t *testing.T) {
	err := runFirst(t, `def inc(x) {
    return x + 1
}

def twice(x) {
    return x * 2
}

test "t" {
    assert twice(inc(3)) == 9
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "assert 8 == 9\n+  where 8 = twice(inc(3))\n+    where 4 = inc(3)", aerr.Explanation)
}

func TestInterp_SideEffectsRunOnce(t *testing.T) {
	reg, calls := countingRegistry(int64(1))

	err := runFirst(t, `test "t" {
    assert bump() == 1
}`, WithRegistry(reg))
	assert.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestInterp_SideEffectsRunOnceOnFailure(t *testing.T) {
	reg, calls := countingRegistry(int64(1))

	err := runFirst(t, `test "t" {
    assert bump() == 99
}`, WithRegistry(reg))

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	// the captured value appears in the explanation without re-running
	assert.Equal(t, "assert 1 == 99\n+  where 1 = bump()", aerr.Explanation)
	assert.Equal(t, 1, *calls)
}

func TestInterp_AndShortCircuits(t *testing.T) {
	reg, calls := countingRegistry(int64(1))
	reg.Register("no", func(args []any) (any, error) {
		return false, nil
	})

	err := runFirst(t, `test "t" {
    assert no() and bump()
}`, WithRegistry(reg))

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 0, *calls, "right operand must not be evaluated")
	// only the evaluated operand gets a where line
	assert.Equal(t, "assert false\n+  where false = no()", aerr.Explanation)
}

func TestInterp_OrShortCircuits(t *testing.T) {
	reg, calls := countingRegistry(int64(1))
	reg.Register("yes", func(args []any) (any, error) {
		return true, nil
	})

	err := runFirst(t, `test "t" {
    assert yes() or bump()
}`, WithRegistry(reg))
	assert.NoError(t, err)
	assert.Equal(t, 0, *calls)
}

func TestInterp_SucceededOrGroupNotBlamed(t *testing.T) {
	// The or-group evaluates true, so its failed first alternative did
	// not decide the condition; the explanation must report the value
	// of the operand that did.
	err := runFirst(t, `test "t" {
    let ok = nil
    assert (1 == 2 or 1 == 1) and ok
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "assert nil", aerr.Explanation)
}

func TestInterp_FailedOrChainBlamesLastAlternative(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert 1 == 2 or 3 == 4
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "assert 3 == 4", aerr.Explanation)
}

func TestInterp_ComparisonChainShortCircuits(t *testing.T) {
	reg, calls := countingRegistry(int64(1))

	err := runFirst(t, `test "t" {
    assert 1 > 5 < bump()
}`, WithRegistry(reg))

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 0, *calls, "operands past the first false link must not be evaluated")
	assert.Contains(t, aerr.Explanation, "assert 1 > 5")
}

func TestInterp_MessageIsLazy(t *testing.T) {
	reg, calls := countingRegistry("expensive diagnostics")

	err := runFirst(t, `test "t" {
    assert 1 == 1, bump()
}`, WithRegistry(reg))
	assert.NoError(t, err)
	assert.Equal(t, 0, *calls, "message must not be evaluated when the assertion holds")
}

func TestInterp_MessageEvaluatedOnFailure(t *testing.T) {
	reg, calls := countingRegistry("expensive diagnostics")

	err := runFirst(t, `test "t" {
    assert 1 == 2, bump()
}`, WithRegistry(reg))

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, "expensive diagnostics\nassert 1 == 2", aerr.Explanation)
}

func TestInterp_NonStringMessageRendered(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert false, 42
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "42\nassert false", aerr.Explanation)
}

func TestInterp_RuntimeErrorPropagates(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert 1 / 0 == 1
}`)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "division by zero")

	// a runtime error must not become an assertion failure
	var aerr *AssertionError
	assert.False(t, errors.As(err, &aerr))
}

func TestInterp_UndefinedNameIsRuntimeError(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert missing == 1
}`)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "undefined name missing")
}

func TestInterp_PlainAssertWithoutRewrite(t *testing.T) {
	file, err := parser.Parse(`def inc(x) {
    return x + 1
}

test "t" {
    assert inc(3) == 5
}`, "test.spec")
	require.NoError(t, err)

	prog := rewrite.New(rewrite.WithEnabled(false)).Rewrite(file)
	runErr := New(prog).RunTest(prog.File.Tests[0])

	var aerr *AssertionError
	require.ErrorAs(t, runErr, &aerr)
	assert.Equal(t, "assert inc(3) == 5", aerr.Explanation)
}

func TestInterp_DefBodyAssertsArePlain(t *testing.T) {
	err := runFirst(t, `def checked(x) {
    assert x > 10
    return x
}

test "t" {
    checked(3)
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	// helper assertions fail with only the source text
	assert.Equal(t, "assert x > 10", aerr.Explanation)
}

func TestInterp_DiffOnEqualityOfLists(t *testing.T) {
	err := runFirst(t, `test "t" {
    let xs = [1, 2, 3]
    let ys = [1, 9, 3]
    assert xs == ys
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t,
		"assert [1, 2, 3] == [1, 9, 3]\n  [\n    1,\n  - 2,\n  + 9,\n    3,\n  ]",
		aerr.Explanation)
}

func TestInterp_NoDiffForOrderedComparison(t *testing.T) {
	err := runFirst(t, `test "t" {
    let xs = [1, 2]
    assert len(xs) > 5
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "assert 2 > 5\n+  where 2 = len(xs)", aerr.Explanation)
}

func TestInterp_LetAssignReturn(t *testing.T) {
	err := runFirst(t, `def countdown(n) {
    n = n - 1
    return n
}

test "t" {
    let x = 10
    x = countdown(x)
    assert x == 9
}`)
	assert.NoError(t, err)
}

func TestInterp_AssignUndefinedFails(t *testing.T) {
	err := runFirst(t, `test "t" {
    y = 1
}`)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "assignment to undefined name y")
}

func TestInterp_IndexingAndFields(t *testing.T) {
	err := runFirst(t, `test "t" {
    let xs = [10, 20, 30]
    let m = {"a": 1, "nested": {"b": 2}}
    assert xs[0] == 10
    assert xs[-1] == 30
    assert m["a"] == 1
    assert m.nested.b == 2
    assert "hello"[1] == "e"
}`)
	assert.NoError(t, err)
}

func TestInterp_IndexOutOfRange(t *testing.T) {
	err := runFirst(t, `test "t" {
    let xs = [1]
    assert xs[5] == 1
}`)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "out of range")
}

func TestInterp_ApproxEquality(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert approx(0.3) == 0.1 + 0.2
    assert 0.1 + 0.2 == approx(0.3)
}`)
	assert.NoError(t, err)
}

func TestInterp_ApproxFailureShowsTolerance(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert approx(0.3) == 0.4
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Explanation, "0.3 ± ")
}

func TestInterp_ComplexArithmetic(t *testing.T) {
	err := runFirst(t, `test "t" {
    let z = 3 + 4i
    assert z * 1i == -4 + 3i
    assert abs(z) == 5
}`)
	assert.NoError(t, err)
}

func TestInterp_ChainedComparisonPasses(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert 1 < 2 <= 2 < 10
}`)
	assert.NoError(t, err)
}

func TestInterp_FailingChainReportsTheBrokenLink(t *testing.T) {
	err := runFirst(t, `test "t" {
    assert 1 < 2 < 2
}`)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Explanation, "assert 2 < 2")
}

func TestInterp_UserFuncShadowsBuiltin(t *testing.T) {
	err := runFirst(t, `def len(x) {
    return 99
}

test "t" {
    assert len([1]) == 99
}`)
	assert.NoError(t, err)
}

func TestInterp_WrongArity(t *testing.T) {
	err := runFirst(t, `def pair(a, b) {
    return a + b
}

test "t" {
    assert pair(1) == 1
}`)

	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, rerr.Message, "pair expects 2 arguments, got 1")
}

func TestInterp_CapturesScopedToFailingComparison(t *testing.T) {
	reg, _ := countingRegistry(int64(1))
	reg.Register("two", func(args []any) (any, error) {
		return int64(2), nil
	})

	err := runFirst(t, `test "t" {
    assert bump() == 1 and two() == 3
}`, WithRegistry(reg))

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	// only the failing comparison's captures are elaborated
	assert.Equal(t, "assert 2 == 3\n+  where 2 = two()", aerr.Explanation)
}
