package config

// DefaultCacheDir is where rewritten-program artifacts live relative
// to the working directory.
const DefaultCacheDir = ".introspec_cache"

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		MaxExplanationLines: 40,
		MaxReprWidth:        240,
		CacheDir:            DefaultCacheDir,
		Output:              "console",
	}
}
