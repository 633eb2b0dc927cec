// Package snapshot provides golden-value testing for spec files. A
// snapshot is a JSON-serialized value stored next to the spec file;
// the matchesSnapshot builtin compares against it and creates it on
// first use.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"
)

const (
	// SnapshotDir is the directory name for storing snapshots
	SnapshotDir = "__snapshots__"
	// SnapshotExt is the file extension for snapshot files
	SnapshotExt = ".snap.json"
)

// Manager handles snapshot storage and comparison.
type Manager struct {
	updateMode    bool
	snapshotsRead map[string]map[string]any // file -> {name -> value}
}

// NewManager creates a new snapshot manager. In update mode a
// mismatching snapshot is overwritten instead of failing.
func NewManager(updateMode bool) *Manager {
	return &Manager{
		updateMode:    updateMode,
		snapshotsRead: make(map[string]map[string]any),
	}
}

// Result represents the outcome of a snapshot comparison.
type Result struct {
	Passed     bool
	Message    string
	Expected   any
	Actual     any
	IsNew      bool
	WasUpdated bool
}

// Compare checks an actual value against the snapshot named name for a
// spec file. A missing snapshot is created and passes, so the first
// run records the golden value.
func (m *Manager) Compare(specFile, name string, actual any) *Result {
	result := &Result{Actual: actual}

	snapshotFile := m.snapshotFilePath(specFile)

	snapshots, err := m.loadSnapshots(snapshotFile)
	if err != nil {
		result.Message = fmt.Sprintf("failed to load snapshots: %v", err)
		return result
	}

	expected, exists := snapshots[name]
	if !exists {
		snapshots[name] = actual
		if err := m.saveSnapshots(snapshotFile, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to save snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.IsNew = true
		result.Expected = actual
		result.Message = "new snapshot created"
		return result
	}

	result.Expected = expected

	if deepEqual(expected, actual) {
		result.Passed = true
		return result
	}

	if m.updateMode {
		snapshots[name] = actual
		if err := m.saveSnapshots(snapshotFile, snapshots); err != nil {
			result.Message = fmt.Sprintf("failed to update snapshot: %v", err)
			return result
		}
		result.Passed = true
		result.WasUpdated = true
		result.Message = "snapshot updated"
		return result
	}

	result.Message = "snapshot mismatch (run with --update-snapshots to regenerate)"
	return result
}

// snapshotFilePath returns the path to the snapshot file for a spec file.
func (m *Manager) snapshotFilePath(specFile string) string {
	dir := filepath.Dir(specFile)
	base := filepath.Base(specFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(dir, SnapshotDir, name+SnapshotExt)
}

// loadSnapshots loads snapshots from a file.
func (m *Manager) loadSnapshots(path string) (map[string]any, error) {
	if cached, ok := m.snapshotsRead[path]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var snapshots map[string]any
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, err
	}

	m.snapshotsRead[path] = snapshots
	return snapshots, nil
}

// saveSnapshots saves snapshots to a file.
func (m *Manager) saveSnapshots(path string, snapshots map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(snapshots, "", "  ")
	if err != nil {
		return err
	}

	m.snapshotsRead[path] = snapshots

	return os.WriteFile(path, data, 0644)
}

// deepEqual compares values after a JSON round-trip so numeric types
// from the interpreter (int64, float64) match what Unmarshal returns.
func deepEqual(a, b any) bool {
	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)

	var aVal, bVal any
	if err := json.Unmarshal(aJSON, &aVal); err != nil {
		return false
	}
	if err := json.Unmarshal(bJSON, &bVal); err != nil {
		return false
	}

	return cmp.Equal(aVal, bVal)
}
