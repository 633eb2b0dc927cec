package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/introspec/packages/core/runner"
)

func sampleRunResult() *runner.RunResult {
	return &runner.RunResult{
		File: "example.spec",
		Results: []*runner.TestResult{
			{Name: "adds", Passed: true, Duration: 2 * time.Millisecond},
			{
				Name:        "off by one",
				Explanation: "assert 4 == 5\n+  where 4 = inc(3)",
				Line:        5,
				Duration:    time.Millisecond,
			},
			{Name: "later", Skipped: true, SkipReason: "flaky"},
		},
		Duration: 10 * time.Millisecond,
		Passed:   1,
		Failed:   1,
		Skipped:  1,
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(sampleRunResult())
	out := buf.String()

	assert.Contains(t, out, "Running: example.spec")
	assert.Contains(t, out, "✓ adds")
	assert.Contains(t, out, "✗ off by one")
	assert.Contains(t, out, "- later (flaky)")
	assert.Contains(t, out, "→ example.spec:5")
	assert.Contains(t, out, "    assert 4 == 5")
	assert.Contains(t, out, "    +  where 4 = inc(3)")
	assert.Contains(t, out, "1 passed, 1 failed, 1 skipped, 3 total")
}

func TestConsoleFormatter_FileError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatResult(&runner.RunResult{
		File: "broken.spec",
		Err:  errors.New("loading broken.spec: parse error"),
	})

	assert.Contains(t, buf.String(), "x loading broken.spec: parse error")
}

func TestConsoleFormatter_VerboseTags(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	f.FormatResult(&runner.RunResult{
		File: "tags.spec",
		Results: []*runner.TestResult{
			{Name: "tagged", Passed: true, Tags: []string{"smoke", "fast"}},
		},
		Passed: 1,
	})

	assert.Contains(t, buf.String(), "Tags: smoke, fast")
}

func TestConsoleFormatter_Timings(t *testing.T) {
	var buf bytes.Buffer

	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true)).FormatTimings("timings: n=2")
	assert.Empty(t, buf.String(), "timings only print under verbose")

	NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true)).FormatTimings("timings: n=2")
	assert.Contains(t, buf.String(), "timings: n=2")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))

	f.FormatResult(sampleRunResult())
	require.NoError(t, f.Flush(10*time.Millisecond))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, 3, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Passed)
	assert.Equal(t, 1, out.Summary.Failed)
	assert.Equal(t, 1, out.Summary.Skipped)

	require.Len(t, out.Tests, 3)
	assert.Equal(t, "example.spec", out.Tests[0].File)
	assert.Equal(t, "assert 4 == 5\n+  where 4 = inc(3)", out.Tests[1].Explanation)
	assert.Equal(t, 5, out.Tests[1].Line)
	assert.Equal(t, "flaky", out.Tests[2].SkipReason)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))

	f.FormatResult(sampleRunResult())
	require.NoError(t, f.Flush(10*time.Millisecond))
	out := buf.String()

	assert.Contains(t, out, "TAP version 13\n")
	assert.Contains(t, out, "1..3\n")
	assert.Contains(t, out, "ok 1 - adds\n")
	assert.Contains(t, out, "not ok 2 - off by one\n")
	assert.Contains(t, out, "ok 3 - later # SKIP flaky\n")

	// Explanation lines ride along as a YAML block.
	assert.Contains(t, out, "  explanation:\n")
	assert.Contains(t, out, "    - assert 4 == 5\n")
	assert.Contains(t, out, "    - +  where 4 = inc(3)\n")
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))

	f.FormatResult(sampleRunResult())
	require.NoError(t, f.Flush(10*time.Millisecond))
	out := buf.String()

	assert.Contains(t, out, `<?xml`)
	assert.Contains(t, out, `name="adds"`)
	assert.Contains(t, out, `name="off by one"`)
	assert.Contains(t, out, "Assertion failed at example.spec:5")
	assert.Contains(t, out, "where 4 = inc(3)")
	assert.Contains(t, out, "<skipped")
}
