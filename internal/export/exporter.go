package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"recordbook/internal/records"
)

// Exporter writes record documents.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates a new exporter
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// NewDocument wraps items with metadata.
func NewDocument(table, engine string, items []records.Record) *Document {
	if items == nil {
		items = []records.Record{}
	}
	return &Document{
		Metadata: Metadata{
			Table:       table,
			Generated:   time.Now().UTC().Truncate(time.Second),
			RecordCount: len(items),
			Engine:      engine,
		},
		Records: items,
	}
}

// Write encodes doc to w according to opts.
func (e *Exporter) Write(w io.Writer, doc *Document, opts Options) error {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if opts.Compression == "" {
		opts.Compression = CompressionNone
	}

	e.logger.Debug("Exporting records",
		"format", opts.Format,
		"compression", opts.Compression,
		"records", len(doc.Records),
	)

	cw, err := compressor(w, opts.Compression)
	if err != nil {
		return err
	}

	if err := encode(cw, doc, opts); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

func encode(w io.Writer, doc *Document, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(doc)
	case FormatCSV:
		return writeCSV(w, doc.Records, opts)
	default:
		return fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

func writeCSV(w io.Writer, items []records.Record, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "created_at"}); err != nil {
		return err
	}
	for _, r := range items {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			records.FormatDate(r.CreatedAt, opts.DateLayout, opts.Location),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
