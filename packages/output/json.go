package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/introspec/packages/core/runner"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Tests    []JSONTest  `json:"tests"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONTest represents a single test result
type JSONTest struct {
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Tags        []string `json:"tags,omitempty"`
	Passed      bool     `json:"passed"`
	Skipped     bool     `json:"skipped,omitempty"`
	SkipReason  string   `json:"skipReason,omitempty"`
	Duration    float64  `json:"duration"`
	Error       string   `json:"error,omitempty"`
	Line        int      `json:"line,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
	errs    []string
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	if result.Err != nil {
		f.errs = append(f.errs, result.Err.Error())
		return
	}
	for _, r := range result.Results {
		test := JSONTest{
			Name:        r.Name,
			File:        result.File,
			Tags:        r.Tags,
			Passed:      r.Passed,
			Skipped:     r.Skipped,
			SkipReason:  r.SkipReason,
			Duration:    float64(r.Duration.Milliseconds()),
			Line:        r.Line,
			Explanation: r.Explanation,
		}
		if r.Err != nil {
			test.Error = r.Err.Error()
		}
		f.results = append(f.results, test)
	}
}

func (f *JSONFormatter) FormatError(err error) {
	f.errs = append(f.errs, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed, skipped int
	for _, t := range f.results {
		if t.Skipped {
			skipped++
		} else if t.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Passed:  passed,
			Failed:  failed,
			Skipped: skipped,
		},
		Tests:    f.results,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
