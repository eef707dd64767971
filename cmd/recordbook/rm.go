package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"delete"},
	Short:   "Delete records by id",
	Long: `Delete records by id. Ids that do not exist are ignored.

Examples:
  recordbook rm 1
  recordbook rm 2 3 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, id)
	}

	a, ctx, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	for _, id := range ids {
		if err := a.table.DeleteItem(ctx, id); err != nil {
			return err
		}
	}

	return printResponse(cmd, &MutationResponseCLI{
		Action: "Deleted",
		IDs:    ids,
		Total:  a.table.Snapshot().Total,
	})
}
