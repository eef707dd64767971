package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"recordbook/internal/records"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *ListResponseCLI:
		return formatListHuman(v), nil
	case *QueryResponseCLI:
		return formatQueryHuman(v), nil
	case *ExamplesResponseCLI:
		return formatExamplesHuman(v), nil
	case *MutationResponseCLI:
		return formatMutationHuman(v), nil
	case *InitResponseCLI:
		return formatInitHuman(v), nil
	case *ExportResponseCLI:
		return fmt.Sprintf("Exported %d records to %s (%s, compression: %s)",
			v.Records, v.Path, v.Format, v.Compression), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatListHuman(resp *ListResponseCLI) string {
	var b strings.Builder

	if len(resp.Records) == 0 {
		if resp.Search != "" {
			fmt.Fprintf(&b, "No records match %q (%d total).", resp.Search, resp.Total)
		} else {
			b.WriteString("No records yet. Add one with 'recordbook add <name>'.")
		}
		return b.String()
	}

	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED")
	for _, r := range resp.Records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, records.FormatDate(r.CreatedAt, resp.dateLayout, resp.location))
	}
	_ = w.Flush()

	fmt.Fprintf(&b, "\n%d of %d records, sorted by %s %s", len(resp.Records), resp.Total, resp.Sort, resp.Direction)
	if resp.Search != "" {
		fmt.Fprintf(&b, ", matching %q", resp.Search)
	}
	return b.String()
}

func formatQueryHuman(resp *QueryResponseCLI) string {
	var b strings.Builder

	if len(resp.Columns) == 0 {
		fmt.Fprintf(&b, "OK (%s)", resp.Duration)
	} else {
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.ToUpper(strings.Join(resp.Columns, "\t")))
		for _, row := range resp.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = formatCell(v, resp.dateLayout, resp.location)
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		}
		_ = w.Flush()
		fmt.Fprintf(&b, "\n%d rows (%s)", len(resp.Rows), resp.Duration)
	}

	if resp.Refreshed {
		fmt.Fprintf(&b, "\nRecords refreshed: %d total", resp.Total)
	}
	return b.String()
}

func formatCell(v interface{}, layout string, loc *time.Location) string {
	switch c := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return records.FormatDate(c, layout, loc)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(c))
	default:
		return fmt.Sprint(c)
	}
}

func formatExamplesHuman(resp *ExamplesResponseCLI) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tSQL")
	for _, q := range resp.Examples {
		fmt.Fprintf(w, "%s\t%s\t%s\n", q.Name, q.Description, q.SQL)
	}
	_ = w.Flush()
	b.WriteString("\nRun one with 'recordbook query --example <name>'.")
	return b.String()
}

func formatMutationHuman(resp *MutationResponseCLI) string {
	var b strings.Builder
	for _, id := range resp.IDs {
		fmt.Fprintf(&b, "%s record %d\n", resp.Action, id)
	}
	if resp.Skipped > 0 {
		fmt.Fprintf(&b, "Skipped %d blank names\n", resp.Skipped)
	}
	fmt.Fprintf(&b, "%d records total", resp.Total)
	return b.String()
}

func formatInitHuman(resp *InitResponseCLI) string {
	var b strings.Builder
	b.WriteString("recordbook initialized.\n")
	fmt.Fprintf(&b, "  Config:   %s\n", resp.ConfigPath)
	fmt.Fprintf(&b, "  Database: %s", resp.Database)
	if !resp.Persistent {
		b.WriteString(" (transient)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Table:    %s (%d records)\n", resp.Table, resp.Records)
	fmt.Fprintf(&b, "  Engine:   SQLite %s", resp.EngineVersion)
	return b.String()
}
