// Package stats aggregates per-test timing data into an HDR histogram
// so the verbose run summary can report latency percentiles without
// keeping every sample.
package stats
