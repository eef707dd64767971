package main

import (
	"time"

	"github.com/spf13/cobra"

	"recordbook/internal/records"
)

var (
	listSort   string
	listDesc   bool
	listSearch string
)

// ListResponseCLI is the filtered and sorted record list.
type ListResponseCLI struct {
	Records   []records.Record      `json:"records"`
	Total     int                   `json:"total"`
	Sort      records.SortField     `json:"sort"`
	Direction records.SortDirection `json:"direction"`
	Search    string                `json:"search,omitempty"`

	dateLayout string
	location   *time.Location
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List records",
	Long: `List records, optionally filtered and sorted.

Examples:
  recordbook list                    # All records by id
  recordbook list --sort name --desc # Names in reverse collation order
  recordbook list --search ali       # Names or ids containing "ali"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listSort, "sort", "s", string(records.SortByID), "Sort field (id, name, created_at)")
	listCmd.Flags().BoolVarP(&listDesc, "desc", "d", false, "Sort descending")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Case-insensitive filter on name or id")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	field, err := records.ParseSortField(listSort)
	if err != nil {
		return err
	}
	direction := records.Ascending
	if listDesc {
		direction = records.Descending
	}

	a, _, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	a.table.SetSort(field, direction)
	a.table.SetSearch(listSearch)
	snap := a.table.Snapshot()

	return printResponse(cmd, &ListResponseCLI{
		Records:    snap.Items,
		Total:      snap.Total,
		Sort:       snap.SortField,
		Direction:  snap.SortDirection,
		Search:     snap.SearchQuery,
		dateLayout: a.config.Display.DateLayout,
		location:   a.location(),
	})
}
