// Package cmd implements the introspec CLI commands using Cobra.
//
// Available commands:
//   - run: Execute tests from .spec files
//   - validate: Check test file syntax without executing
//   - list: Display all tests defined in files
//   - init: Create a new introspec project with example files
//   - cache: Inspect or clear the rewrite cache
//   - version: Show introspec version information
//
// The CLI supports various flags for filtering, output formatting,
// and watch mode for development workflows.
package cmd
