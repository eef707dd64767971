package storage

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"recordbook/internal/errors"
)

func TestExecutor_NotInitialized(t *testing.T) {
	session := NewSession(memoryConfig(), testLogger())
	exec := NewExecutor(session, testLogger())

	_, err := exec.Query(context.Background(), "SELECT 1")
	if !errors.IsNotInitialized(err) {
		t.Fatalf("error = %v, want NOT_INITIALIZED", err)
	}

	var dbErr *errors.DatabaseError
	if !stderrors.As(err, &dbErr) {
		t.Errorf("error = %T, want *errors.DatabaseError", err)
	}
	if session.State() != StateUninitialized {
		t.Error("Execute must not initialize the session")
	}
}

func TestExecutor_Execute(t *testing.T) {
	session := setupSession(t)
	exec := NewExecutor(session, testLogger())
	ctx := context.Background()

	ack, err := exec.Exec(ctx, "INSERT INTO test_table (name) VALUES (?)", "Alice")
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if ack.HasRows {
		t.Error("acknowledgement should not carry rows")
	}
	if ack.RowsAffected != 1 || ack.LastInsertID != 1 {
		t.Errorf("ack = %+v, want 1 row affected with id 1", ack)
	}

	res, err := exec.Query(ctx, "SELECT id, name, created_at FROM test_table WHERE name = ?", "Alice")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !res.HasRows {
		t.Error("HasRows = false for a row query")
	}
	if len(res.Columns) != 3 {
		t.Errorf("Columns = %v, want 3", res.Columns)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	if res.Rows[0][1] != "Alice" {
		t.Errorf("name = %v, want Alice", res.Rows[0][1])
	}

	none, err := exec.Query(ctx, "SELECT id FROM test_table WHERE name = ?", "nobody")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if none.Rows == nil || len(none.Rows) != 0 {
		t.Errorf("empty query rows = %#v, want empty slice", none.Rows)
	}
}

func TestExecutor_QueryError(t *testing.T) {
	session := setupSession(t)
	exec := NewExecutor(session, testLogger())

	const bad = "SELECT * FROM no_such_table"
	_, err := exec.Query(context.Background(), bad)
	if err == nil {
		t.Fatal("Query() should fail for a missing table")
	}

	var queryErr *errors.QueryError
	if !stderrors.As(err, &queryErr) {
		t.Fatalf("error = %T, want *errors.QueryError", err)
	}
	if queryErr.Query != bad {
		t.Errorf("Query = %q, want %q", queryErr.Query, bad)
	}
	if !strings.Contains(err.Error(), "no_such_table") {
		t.Errorf("Error() = %q, want engine message", err.Error())
	}

	// A failed statement leaves the session usable.
	if _, err := exec.Query(context.Background(), "SELECT 1"); err != nil {
		t.Errorf("follow-up query error = %v", err)
	}
}

func TestExecutor_AfterClose(t *testing.T) {
	session := NewSession(memoryConfig(), testLogger())
	if err := session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	exec := NewExecutor(session, testLogger())
	if err := session.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := exec.Query(context.Background(), "SELECT 1"); !errors.IsNotInitialized(err) {
		t.Errorf("error = %v, want NOT_INITIALIZED", err)
	}
}

func TestExecutor_CancelledContext(t *testing.T) {
	session := setupSession(t)
	exec := NewExecutor(session, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Query(ctx, "SELECT 1")
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
}
