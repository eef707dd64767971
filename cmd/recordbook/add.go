package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// MutationResponseCLI reports added or deleted records.
type MutationResponseCLI struct {
	Action  string  `json:"action"`
	IDs     []int64 `json:"ids"`
	Skipped int     `json:"skipped,omitempty"`
	Total   int     `json:"total"`
}

var addCmd = &cobra.Command{
	Use:   "add <name>...",
	Short: "Add records",
	Long: `Add one record per name. Blank names are skipped.

Examples:
  recordbook add Alice
  recordbook add Alice Bob "Carol Smith"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, ctx, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	resp := &MutationResponseCLI{Action: "Added", IDs: []int64{}}
	for _, name := range args {
		if strings.TrimSpace(name) == "" {
			resp.Skipped++
			continue
		}
		id, err := a.table.AddItem(ctx, name)
		if err != nil {
			return err
		}
		resp.IDs = append(resp.IDs, id)
	}

	resp.Total = a.table.Snapshot().Total
	return printResponse(cmd, resp)
}
