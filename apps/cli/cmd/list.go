package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/introspec/packages/core/parser"
	"github.com/abdul-hamid-achik/introspec/packages/core/runner"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>",
	Short: "List all tests in .spec files",
	Long: `List all tests defined in .spec files.

Examples:
  introspec list math.spec
  introspec list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := runner.Discover(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no %s files found", runner.SpecExt)
	}

	for _, file := range files {
		f, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, test := range f.Tests {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", test.Name)
			if len(test.Tags) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    tags: %v\n", test.Tags)
			}
			if test.Skip != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    skip: %s\n", test.Skip)
			}
		}
	}

	return nil
}
