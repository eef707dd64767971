// Package export writes records as json, yaml, toml or csv, optionally
// compressed.
package export

import (
	"fmt"
	"strings"
	"time"

	"recordbook/internal/records"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
)

// Compression is an optional stream compression.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// Document is the exported payload.
type Document struct {
	Metadata Metadata         `json:"metadata" yaml:"metadata" toml:"metadata"`
	Records  []records.Record `json:"records" yaml:"records" toml:"records"`
}

// Metadata describes an export.
type Metadata struct {
	Table       string    `json:"table" yaml:"table" toml:"table"`
	Generated   time.Time `json:"generated" yaml:"generated" toml:"generated"`
	RecordCount int       `json:"recordCount" yaml:"recordCount" toml:"recordCount"`
	Engine      string    `json:"engine,omitempty" yaml:"engine,omitempty" toml:"engine,omitempty"`
}

// Options configures an export.
type Options struct {
	Format      Format
	Compression Compression
	// DateLayout and Location render created_at in csv output.
	DateLayout string
	Location   *time.Location
}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTOML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ParseCompression accepts none, gzip or zstd; empty means none.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	case "gz":
		return CompressionGzip, nil
	case "zst":
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("unsupported compression %q", s)
	}
}

// Extension returns the file extension for opts, e.g. ".json.gz".
func (o Options) Extension() string {
	ext := "." + string(o.Format)
	switch o.Compression {
	case CompressionGzip:
		ext += ".gz"
	case CompressionZstd:
		ext += ".zst"
	}
	return ext
}
