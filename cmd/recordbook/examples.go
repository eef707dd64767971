package main

import (
	"github.com/spf13/cobra"

	"recordbook/internal/viewmodel"
)

// ExamplesResponseCLI lists the example queries.
type ExamplesResponseCLI struct {
	Examples []viewmodel.ExampleQuery `json:"examples"`
}

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "List example queries",
	Long: `List the built-in example queries, merged with .recordbook/examples.toml
when present. Entries in that file replace built-ins with the same name.`,
	Args: cobra.NoArgs,
	RunE: runExamples,
}

func init() {
	rootCmd.AddCommand(examplesCmd)
}

func runExamples(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	return printResponse(cmd, &ExamplesResponseCLI{Examples: a.table.Examples().All()})
}
