package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"recordbook/internal/export"
)

var (
	exportTo       string
	exportCompress string
	exportOut      string
)

// ExportResponseCLI reports an export written to a file.
type ExportResponseCLI struct {
	Path        string             `json:"path"`
	Format      export.Format      `json:"format"`
	Compression export.Compression `json:"compression"`
	Records     int                `json:"records"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records",
	Long: `Export all records in id order as json, yaml, toml or csv, optionally
compressed with gzip or zstd. Defaults come from the export section of the
config.

Examples:
  recordbook export                          # JSON to stdout
  recordbook export --to csv -o records.csv
  recordbook export --to yaml --compress zstd -o records.yaml.zst`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Export format (json, yaml, toml, csv)")
	exportCmd.Flags().StringVar(&exportCompress, "compress", "", "Compression (none, gzip, zstd)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, _, done, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer done()

	to := exportTo
	if to == "" {
		to = a.config.Export.Format
	}
	format, err := export.ParseFormat(to)
	if err != nil {
		return err
	}
	compress := exportCompress
	if compress == "" {
		compress = a.config.Export.Compression
	}
	compression, err := export.ParseCompression(compress)
	if err != nil {
		return err
	}

	opts := export.Options{
		Format:      format,
		Compression: compression,
		DateLayout:  a.config.Display.DateLayout,
		Location:    a.location(),
	}
	items := a.table.Items()
	doc := export.NewDocument(a.session.Table(), a.session.EngineVersion(), items)
	exporter := export.NewExporter(a.logger.With("component", "export"))

	if exportOut == "" {
		if compression != export.CompressionNone && isTerminal(os.Stdout) {
			return fmt.Errorf("refusing to write compressed output to a terminal, use --out")
		}
		return exporter.Write(cmd.OutOrStdout(), doc, opts)
	}

	if err := os.MkdirAll(filepath.Dir(exportOut), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeAndClose(f, func(w io.Writer) error { return exporter.Write(w, doc, opts) }); err != nil {
		return err
	}

	return printResponse(cmd, &ExportResponseCLI{
		Path:        exportOut,
		Format:      format,
		Compression: compression,
		Records:     len(items),
	})
}

func writeAndClose(f *os.File, write func(io.Writer) error) error {
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
