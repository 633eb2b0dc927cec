package cmd

import (
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
	"github.com/abdul-hamid-achik/introspec/packages/core/runner"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>",
	Short: "Validate .spec files for syntax errors",
	Long: `Validate .spec files for syntax errors without executing them.

Examples:
  introspec validate math.spec
  introspec validate ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := runner.Discover(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no %s files found", runner.SpecExt)
	}

	hasErrors := false
	for _, file := range files {
		_, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		os.Exit(ExitParseError)
	}

	return nil
}
