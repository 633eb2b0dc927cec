package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/introspec/packages/core/config"
	"github.com/abdul-hamid-achik/introspec/packages/core/runner"
	"github.com/abdul-hamid-achik/introspec/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Run tests from .spec files",
	Long: `Run tests defined in .spec files. Failed assertions are rewritten
on the fly so the failure output shows the value of every
sub-expression that contributed to the result.

Examples:
  introspec run math.spec
  introspec run ./tests/ --tags smoke
  introspec run math.spec --name "addition"
  introspec run ./tests/ --watch
  introspec run math.spec --no-rewrite`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	nameFlag       string
	tagsFlag       string
	verboseFlag    int // 0=off, 1=-v, 2=-vv
	quietFlag      bool
	bailFlag       bool
	noColorFlag    bool
	dryRunFlag     bool
	outputFlag     string
	outputFileFlag string
	watchFlag      bool
	configFlag     string

	noRewriteFlag bool
	noCacheFlag   bool
	cacheDirFlag  string
	approxRelFlag float64
	approxAbsFlag float64

	updateSnapshotsFlag bool
)

func init() {
	// Core flags
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("INTROSPEC_CONFIG", ""), "Path to config file (env: INTROSPEC_CONFIG)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only tests matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("INTROSPEC_TAGS", ""), "Run only tests with specified tags (comma-separated) (env: INTROSPEC_TAGS)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("INTROSPEC_QUIET", false), "Suppress all output except errors (env: INTROSPEC_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("INTROSPEC_NO_COLOR", false), "Disable colored output (env: INTROSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("INTROSPEC_OUTPUT", "console"), "Output format: console, json, junit, tap (env: INTROSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("INTROSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: INTROSPEC_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("INTROSPEC_BAIL", false), "Stop on first failure (env: INTROSPEC_BAIL)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without executing")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run tests")

	// Rewriting flags
	runCmd.Flags().BoolVar(&noRewriteFlag, "no-rewrite", getEnvBool("INTROSPEC_NO_REWRITE", false), "Disable assertion rewriting; failures report only the source text (env: INTROSPEC_NO_REWRITE)")
	runCmd.Flags().BoolVar(&noCacheFlag, "no-cache", getEnvBool("INTROSPEC_NO_CACHE", false), "Disable the rewrite cache (env: INTROSPEC_NO_CACHE)")
	runCmd.Flags().StringVar(&cacheDirFlag, "cache-dir", getEnvString("INTROSPEC_CACHE_DIR", ""), "Directory for the rewrite cache (env: INTROSPEC_CACHE_DIR)")
	runCmd.Flags().Float64Var(&approxRelFlag, "approx-rel", 0, "Default relative tolerance for approx()")
	runCmd.Flags().Float64Var(&approxAbsFlag, "approx-abs", 0, "Default absolute tolerance for approx()")

	// Snapshot testing flags
	runCmd.Flags().BoolVar(&updateSnapshotsFlag, "update-snapshots", false, "Update snapshot files instead of comparing")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func newFormatter(w *os.File) Formatter {
	switch strings.ToLower(outputFlag) {
	case "json":
		opts := []output.JSONOption{}
		if w != nil {
			opts = append(opts, output.JSONWithWriter(w))
		}
		return output.NewJSONFormatter(opts...)
	case "junit":
		opts := []output.JUnitOption{}
		if w != nil {
			opts = append(opts, output.JUnitWithWriter(w))
		}
		return output.NewJUnitFormatter(opts...)
	case "tap":
		opts := []output.TAPOption{}
		if w != nil {
			opts = append(opts, output.TAPWithWriter(w))
		}
		return output.NewTAPFormatter(opts...)
	default: // "console"
		consoleOpts := []output.ConsoleOption{
			output.WithVerbose(verboseFlag > 0),
			output.WithNoColor(noColorFlag || quietFlag),
		}
		if w != nil {
			consoleOpts = append(consoleOpts, output.WithWriter(w))
		}
		return output.NewConsoleFormatter(consoleOpts...)
	}
}

func buildRunnerConfig(args []string) (*runner.Config, error) {
	var fileConfig *config.Config
	var err error
	if configFlag != "" {
		fileConfig, err = config.LoadConfig(configFlag)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cwd, _ := os.Getwd()
		fileConfig, err = config.FindAndLoadConfig(cwd)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	fileConfig = config.DefaultConfig().Merge(fileConfig)

	cfg := runner.FromConfig(fileConfig)

	// CLI flags override file configuration.
	if verboseFlag > 0 {
		cfg.Verbose = true
	}
	if bailFlag {
		cfg.Bail = true
	}
	cfg.NameFilter = nameFlag
	if tagsFlag != "" {
		for _, t := range strings.Split(tagsFlag, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				cfg.TagsFilter = append(cfg.TagsFilter, t)
			}
		}
	}
	if noRewriteFlag {
		cfg.Rewrite = false
	}
	if noCacheFlag {
		cfg.NoCache = true
	}
	if cacheDirFlag != "" {
		cfg.CacheDir = cacheDirFlag
	}
	if approxRelFlag > 0 {
		cfg.ApproxRel = approxRelFlag
	}
	if approxAbsFlag > 0 {
		cfg.ApproxAbs = approxAbsFlag
	}
	if len(cfg.TestPaths) == 0 {
		cfg.TestPaths = args
	}
	cfg.UpdateSnapshots = updateSnapshotsFlag
	return cfg, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	var outWriter *os.File
	var err error
	if outputFileFlag != "" {
		outWriter, err = os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer outWriter.Close()
	}

	formatter := newFormatter(outWriter)
	formatter.FormatHeader(version)

	files, err := runner.Discover(args)
	if err != nil {
		formatter.FormatError(err)
		os.Exit(ExitUsageError)
	}

	if len(files) == 0 {
		formatter.FormatError(fmt.Errorf("no %s files found", runner.SpecExt))
		os.Exit(ExitUsageError)
	}

	cfg, err := buildRunnerConfig(args)
	if err != nil {
		formatter.FormatError(err)
		os.Exit(ExitConfigError)
	}

	r := runner.NewRunner(cfg)
	defer r.Close()

	runTests := func(formatter Formatter) (failed int, errored int, duration time.Duration) {
		startTime := time.Now()

		for _, file := range files {
			if dryRunFlag {
				fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s\n", file)
				continue
			}

			result := r.RunFile(file)
			formatter.FormatResult(result)

			if result.Err != nil {
				errored++
				continue
			}
			failed += result.Failed
			for _, tr := range result.Results {
				if tr.Err != nil {
					errored++
				}
			}

			if cfg.Bail && result.Failed > 0 {
				break
			}
		}

		return failed, errored, time.Since(startTime)
	}

	totalFailed, totalErrored, totalDuration := runTests(formatter)

	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(totalDuration); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
	if console, ok := formatter.(*output.ConsoleFormatter); ok {
		console.FormatTimings(r.Timings().Summary())
	}

	if !watchFlag {
		switch {
		case totalErrored > 0:
			os.Exit(ExitParseError)
		case totalFailed > 0:
			os.Exit(ExitTestFailure)
		}
		return nil
	}

	return watchLoop(cmd, args, files, func() {
		f := newFormatter(nil)
		_, _, duration := runTests(f)
		if flushable, ok := f.(Flushable); ok {
			_ = flushable.Flush(duration)
		}
	})
}

// watchLoop re-runs the suite when a .spec file changes. Rapid event
// bursts (editors often fire several writes per save) are coalesced by
// a trailing debounce timer, and a rate limiter caps how often a
// re-run can start regardless of event shape.
func watchLoop(cmd *cobra.Command, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(os.Stderr, "failed to watch %s: %v\n", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the original args if they're directories
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	limiter := rate.NewLimiter(rate.Every(WatchDebounceDelay), 1)
	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Write) && filepath.Ext(event.Name) == runner.SpecExt {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
					if !limiter.Allow() {
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running tests...\n\n", event.Name)
					rerun()
					fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}
