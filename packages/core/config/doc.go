// Package config handles configuration loading and management for
// introspec.
//
// It provides functionality for:
//   - Loading configuration from JSON or YAML config files
//   - Default values for explanation bounds, rewrite scope, cache
//     location and approx tolerances
//   - Merging file configuration with command-line overrides
package config
