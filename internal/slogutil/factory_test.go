package slogutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recordbook/internal/config"
	"recordbook/internal/paths"
)

func TestLoggerFactory_ConsoleAndFile(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	var console bytes.Buffer
	factory := NewLoggerFactory(root, cfg, &console, nil)
	logger := factory.Logger()

	logger.Info("Executing query", "sql", "SELECT 1")
	logger.Warn("Query execution failed", "sql", "SELEKT 1")

	if err := factory.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if strings.Contains(console.String(), "Executing query") {
		t.Error("console at warn should not include info records")
	}
	if !strings.Contains(console.String(), "Query execution failed") {
		t.Error("console should include warn records")
	}

	data, err := os.ReadFile(paths.GetLogPath(root, cfg.Logging.File))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "Executing query") {
		t.Error("log file should keep info records")
	}
}

func TestLoggerFactory_CLILevelOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.File = ""
	level := slog.LevelDebug

	var console bytes.Buffer
	logger := NewLoggerFactory("", cfg, &console, &level).Logger()
	logger.Debug("Promiser initialized")

	if !strings.Contains(console.String(), "Promiser initialized") {
		t.Errorf("CLI debug level should win over config, got: %q", console.String())
	}
}

func TestLoggerFactory_UnwritableFile(t *testing.T) {
	root := t.TempDir()
	// A regular file where the data dir should be makes the log path unusable.
	if err := os.WriteFile(filepath.Join(root, paths.DataDirName), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var console bytes.Buffer
	factory := NewLoggerFactory(root, config.DefaultConfig(), &console, nil)
	logger := factory.Logger()
	defer factory.Close()

	if logger == nil {
		t.Fatal("Logger() returned nil")
	}
	if !strings.Contains(console.String(), "Log file unavailable") {
		t.Errorf("expected fallback warning, got: %q", console.String())
	}
}
