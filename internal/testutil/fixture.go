// Package testutil provides fixtures for tests that need a live session.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"recordbook/internal/config"
	"recordbook/internal/records"
	"recordbook/internal/storage"
)

// Fixture is an initialized session with its executor and repository.
type Fixture struct {
	Session    *storage.Session
	Executor   *storage.Executor
	Repository *records.Repository
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewMemoryFixture opens an in-memory database and closes it when the test
// ends.
func NewMemoryFixture(t *testing.T) *Fixture {
	t.Helper()
	return newFixture(t, ":memory:", true)
}

// NewFileFixture opens a database file in a temporary directory.
func NewFileFixture(t *testing.T) *Fixture {
	t.Helper()
	return newFixture(t, filepath.Join(t.TempDir(), "recordbook.sqlite3"), true)
}

// NewUninitializedFixture wires the same components without opening the
// database.
func NewUninitializedFixture(t *testing.T) *Fixture {
	t.Helper()
	return newFixture(t, ":memory:", false)
}

func newFixture(t *testing.T, filename string, initialize bool) *Fixture {
	t.Helper()

	cfg := config.DefaultConfig().Database
	cfg.Filename = filename

	session := storage.NewSession(cfg, Logger())
	executor := storage.NewExecutor(session, Logger())
	repo := records.NewRepository(executor, Logger(), records.WithTable(cfg.Table))

	t.Cleanup(func() {
		if err := session.Close(); err != nil {
			t.Errorf("Failed to close session: %v", err)
		}
	})

	if initialize {
		if err := session.Initialize(context.Background()); err != nil {
			t.Fatalf("Failed to initialize session: %v", err)
		}
	}

	return &Fixture{Session: session, Executor: executor, Repository: repo}
}

// Seed inserts one record per name, failing the test on error.
func (f *Fixture) Seed(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := f.Repository.Create(context.Background(), name); err != nil {
			t.Fatalf("Failed to seed %q: %v", name, err)
		}
	}
}
