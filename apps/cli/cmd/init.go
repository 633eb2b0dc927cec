package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new introspec project",
	Long: `Initialize a new introspec project in the current directory.

This creates:
  - introspec.config.yaml - Configuration file
  - example.spec          - Example test file

Examples:
  introspec init
  introspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, "introspec.config.yaml")
	exampleFile := filepath.Join(cwd, "example.spec")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	configContent := map[string]any{
		"maxExplanationLines": 40,
		"maxReprWidth":        240,
		"rewrite":             true,
		"cacheDir":            ".introspec_cache",
		"testPaths":           []string{"."},
		"output":              "console",
	}

	configYAML, _ := yaml.Marshal(configContent)
	if err := os.WriteFile(configFile, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	exampleContent := `def double(x) {
    return x * 2
}

# @tags smoke
test "doubling" {
    let n = 4
    assert double(n) == 8
    assert double(n) > n
}

test "lists keep order" {
    let xs = [1, 2, 3]
    assert len(xs) == 3
    assert xs[0] == 1, "first element should survive"
}

# @skip flaky upstream fixture
test "pending work" {
    assert false
}
`

	if err := os.WriteFile(exampleFile, []byte(exampleContent), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nintrospec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'introspec run example.spec' to execute the example tests.\n")

	return nil
}
