package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var queryExample string

// QueryResponseCLI is the outcome of a raw statement.
type QueryResponseCLI struct {
	SQL       string          `json:"sql"`
	Columns   []string        `json:"columns,omitempty"`
	Rows      [][]interface{} `json:"rows,omitempty"`
	Refreshed bool            `json:"refreshed"`
	Total     int             `json:"total"`
	Duration  string          `json:"duration"`

	dateLayout string
	location   *time.Location
}

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Run a raw SQL statement",
	Long: `Run one SQL statement against the record database. Statements starting
with INSERT, UPDATE or DELETE refresh the record list afterwards.

Examples:
  recordbook query "SELECT COUNT(*) FROM test_table"
  recordbook query --example recentRecords`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryExample, "example", "e", "", "Run a named example query (see 'recordbook examples')")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (queryExample != "") {
		return fmt.Errorf("give either a SQL statement or --example")
	}

	a, ctx, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	if queryExample != "" {
		if err := a.table.SetExampleQuery(queryExample); err != nil {
			return err
		}
	} else {
		a.table.SetRawQuery(args[0])
	}

	before := a.table.Snapshot().RefreshCount
	res, err := a.table.ExecuteRawQuery(ctx)
	if err != nil {
		return err
	}
	snap := a.table.Snapshot()

	resp := &QueryResponseCLI{
		SQL:        strings.TrimSpace(snap.RawQuery),
		Refreshed:  snap.RefreshCount > before,
		Total:      snap.Total,
		Duration:   res.Duration.Round(time.Microsecond).String(),
		dateLayout: a.config.Display.DateLayout,
		location:   a.location(),
	}
	if len(res.Columns) > 0 {
		resp.Columns = res.Columns
		resp.Rows = res.Rows
	}
	return printResponse(cmd, resp)
}
