package storage

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"recordbook/internal/config"
	"recordbook/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig() config.DatabaseConfig {
	cfg := config.DefaultConfig().Database
	cfg.Filename = ":memory:"
	return cfg
}

func setupSession(t *testing.T) *Session {
	t.Helper()
	session := NewSession(memoryConfig(), testLogger())
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() {
		if err := session.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return session
}

func TestSession_Initialize(t *testing.T) {
	session := NewSession(memoryConfig(), testLogger())
	defer session.Close()

	if session.State() != StateUninitialized {
		t.Errorf("State() = %q, want %q", session.State(), StateUninitialized)
	}
	if session.IsReady() {
		t.Error("IsReady() = true before Initialize")
	}

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if !session.IsReady() {
		t.Error("IsReady() = false after Initialize")
	}
	if session.DBID() == "" {
		t.Error("DBID() should be set")
	}
	if session.Filename() != ":memory:" {
		t.Errorf("Filename() = %q, want :memory:", session.Filename())
	}
	if session.Persistent() {
		t.Error("in-memory session reported as persistent")
	}
	if session.EngineVersion() == "" {
		t.Error("EngineVersion() should be set after the handshake")
	}
}

func TestSession_InitializeIdempotent(t *testing.T) {
	session := setupSession(t)
	id := session.DBID()

	for i := 0; i < 3; i++ {
		if err := session.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize() call %d error = %v", i, err)
		}
	}

	if session.DBID() != id {
		t.Errorf("DBID changed from %q to %q", id, session.DBID())
	}
	if got := session.Stats()["initializations"]; got != int64(1) {
		t.Errorf("initializations = %v, want 1", got)
	}
}

func TestSession_InitializeConcurrent(t *testing.T) {
	session := NewSession(memoryConfig(), testLogger())
	defer session.Close()

	const callers = 16
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- session.Initialize(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Initialize() error = %v", err)
		}
	}
	if got := session.Stats()["initializations"]; got != int64(1) {
		t.Errorf("initializations = %v, want exactly 1", got)
	}
}

func TestSession_InitializeCallerCancel(t *testing.T) {
	for i := 0; i < 20; i++ {
		session := NewSession(memoryConfig(), testLogger())

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		errB := make(chan error, 1)
		go func() { errA <- session.Initialize(ctxA) }()
		go func() { errB <- session.Initialize(context.Background()) }()
		cancelA()

		if err := <-errB; err != nil {
			t.Fatalf("iteration %d: Initialize() with live context error = %v", i, err)
		}
		if err := <-errA; err != nil && !stderrors.Is(err, context.Canceled) {
			t.Errorf("iteration %d: cancelled caller error = %v, want nil or context.Canceled", i, err)
		}
		if !session.IsReady() {
			t.Errorf("iteration %d: IsReady() = false after a successful caller", i)
		}
		if err := session.Close(); err != nil {
			t.Errorf("iteration %d: Close() error = %v", i, err)
		}
	}
}

func TestSession_InitializeCancelledBeforeCall(t *testing.T) {
	session := NewSession(memoryConfig(), testLogger())
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := session.Initialize(ctx); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Initialize() error = %v, want context.Canceled", err)
	}
	if session.State() != StateUninitialized {
		t.Errorf("State() = %q, want %q", session.State(), StateUninitialized)
	}
}

func TestSession_CloseDuringInitialize(t *testing.T) {
	for i := 0; i < 20; i++ {
		session := NewSession(memoryConfig(), testLogger())

		done := make(chan error, 1)
		go func() { done <- session.Initialize(context.Background()) }()

		deadline := time.Now().Add(5 * time.Second)
		for session.State() == StateUninitialized {
			if time.Now().After(deadline) {
				t.Fatal("initialization never started")
			}
			time.Sleep(50 * time.Microsecond)
		}

		if err := session.Close(); err != nil {
			t.Fatalf("iteration %d: Close() error = %v", i, err)
		}
		if session.IsReady() {
			t.Fatalf("iteration %d: IsReady() = true after Close returned", i)
		}

		if err := <-done; err != nil {
			t.Fatalf("iteration %d: Initialize() error = %v", i, err)
		}
		if session.IsReady() || session.DBID() != "" {
			t.Errorf("iteration %d: session ready after Close (dbId %q)", i, session.DBID())
		}
		if _, ok := session.Stats()["engine.openDatabases"]; ok {
			t.Errorf("iteration %d: engine worker still attached after Close", i)
		}
	}
}

func TestSession_InitializeFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := memoryConfig()
	cfg.Filename = filepath.Join(blocker, "book.sqlite3")
	session := NewSession(cfg, testLogger())
	defer session.Close()

	err := session.Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() should fail when the database path is unusable")
	}

	var initErr *errors.InitializationError
	if !stderrors.As(err, &initErr) {
		t.Fatalf("error = %T, want *errors.InitializationError", err)
	}
	if errors.CodeOf(err) != errors.InitializationFailed {
		t.Errorf("CodeOf() = %q, want %q", errors.CodeOf(err), errors.InitializationFailed)
	}
	if session.State() != StateUninitialized {
		t.Errorf("State() = %q after failure, want %q", session.State(), StateUninitialized)
	}
	if session.DBID() != "" {
		t.Error("DBID should stay unset after failure")
	}

	// Removing the obstacle lets a later call succeed.
	if err := os.Remove(blocker); err != nil {
		t.Fatal(err)
	}
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatalf("retry Initialize() error = %v", err)
	}
	if !session.IsReady() {
		t.Error("IsReady() = false after successful retry")
	}
}

func TestSession_InvalidTable(t *testing.T) {
	cfg := memoryConfig()
	cfg.Table = "bad table"
	session := NewSession(cfg, testLogger())
	defer session.Close()

	err := session.Initialize(context.Background())
	if errors.CodeOf(err) != errors.InitializationFailed {
		t.Errorf("CodeOf() = %q, want %q", errors.CodeOf(err), errors.InitializationFailed)
	}
}

func TestSession_FilePersistence(t *testing.T) {
	cfg := memoryConfig()
	cfg.Filename = filepath.Join(t.TempDir(), ".recordbook", "book.sqlite3")
	ctx := context.Background()

	first := NewSession(cfg, testLogger())
	if err := first.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !first.Persistent() {
		t.Error("file session should be persistent")
	}
	if _, err := NewExecutor(first, testLogger()).Exec(ctx, "INSERT INTO test_table (name) VALUES (?)", "kept"); err != nil {
		t.Fatalf("insert error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if first.State() != StateUninitialized {
		t.Errorf("State() after Close = %q", first.State())
	}

	second := NewSession(cfg, testLogger())
	if err := second.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer second.Close()

	res, err := NewExecutor(second, testLogger()).Query(ctx, "SELECT name FROM test_table")
	if err != nil {
		t.Fatalf("select error = %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0][0] != "kept" {
		t.Errorf("rows = %v, want [[kept]]", res.Rows)
	}
}

func TestSchemaSQL(t *testing.T) {
	tests := []struct {
		table   string
		wantErr bool
	}{
		{"", false},
		{"test_table", false},
		{"Records2", false},
		{"2records", true},
		{"a;b", true},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			sql, err := SchemaSQL(tt.table)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SchemaSQL(%q) error = %v, wantErr %v", tt.table, err, tt.wantErr)
			}
			if !tt.wantErr && sql == "" {
				t.Error("SchemaSQL returned empty statement")
			}
		})
	}
}
