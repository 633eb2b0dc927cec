package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the introspec configuration.
type Config struct {
	// Explanation output bounds.
	MaxExplanationLines int `json:"maxExplanationLines,omitempty" yaml:"maxExplanationLines,omitempty"`
	MaxReprWidth        int `json:"maxReprWidth,omitempty" yaml:"maxReprWidth,omitempty"`

	// Assertion rewriting.
	Rewrite   *bool    `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`
	TestPaths []string `json:"testPaths,omitempty" yaml:"testPaths,omitempty"`
	CacheDir  string   `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`
	NoCache   *bool    `json:"noCache,omitempty" yaml:"noCache,omitempty"`

	// Approx wrapper tolerance defaults; zero keeps the built-in
	// defaults (rel 1e-6, abs 1e-12).
	ApproxRel float64 `json:"approxRel,omitempty" yaml:"approxRel,omitempty"`
	ApproxAbs float64 `json:"approxAbs,omitempty" yaml:"approxAbs,omitempty"`

	// Run behavior.
	Bail    *bool    `json:"bail,omitempty" yaml:"bail,omitempty"`
	Verbose *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Output  string   `json:"output,omitempty" yaml:"output,omitempty"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetRewrite returns the rewrite setting, defaulting to true.
func (c *Config) GetRewrite() bool {
	return getBool(c.Rewrite, true)
}

// GetNoCache returns the no-cache setting, defaulting to false.
func (c *Config) GetNoCache() bool {
	return getBool(c.NoCache, false)
}

// GetBail returns the bail setting, defaulting to false.
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false.
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, checked in
// order.
var ConfigFilenames = []string{
	".introspec.config.json",
	"introspec.config.json",
	".introspec.config.yaml",
	"introspec.config.yaml",
	".introspecrc",
}

// LoadConfig loads configuration from the specified path or searches
// for config files in the current directory.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, err
		}
		return config, nil
	}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge merges another config into this one, with other taking
// precedence.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.MaxExplanationLines > 0 {
		result.MaxExplanationLines = other.MaxExplanationLines
	}
	if other.MaxReprWidth > 0 {
		result.MaxReprWidth = other.MaxReprWidth
	}
	if other.CacheDir != "" {
		result.CacheDir = other.CacheDir
	}
	if other.ApproxRel > 0 {
		result.ApproxRel = other.ApproxRel
	}
	if other.ApproxAbs > 0 {
		result.ApproxAbs = other.ApproxAbs
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if len(other.TestPaths) > 0 {
		result.TestPaths = other.TestPaths
	}
	if len(other.Tags) > 0 {
		result.Tags = other.Tags
	}

	// Boolean flags only override when explicitly set.
	if other.Rewrite != nil {
		result.Rewrite = other.Rewrite
	}
	if other.NoCache != nil {
		result.NoCache = other.NoCache
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	return &result
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
