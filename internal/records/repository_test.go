package records_test

import (
	"context"
	stderrors "errors"
	"testing"

	"recordbook/internal/errors"
	"recordbook/internal/records"
	"recordbook/internal/testutil"
)

func setupRepository(t *testing.T) *records.Repository {
	t.Helper()
	return testutil.NewMemoryFixture(t).Repository
}

func TestRepository_EndToEnd(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "Alice"); err != nil {
		t.Fatalf("Create(Alice) error = %v", err)
	}
	if err := repo.Create(ctx, "Bob"); err != nil {
		t.Fatalf("Create(Bob) error = %v", err)
	}

	items, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != 1 || items[0].Name != "Alice" {
		t.Errorf("items[0] = %+v, want {1 Alice}", items[0])
	}
	if items[1].ID != 2 || items[1].Name != "Bob" {
		t.Errorf("items[1] = %+v, want {2 Bob}", items[1])
	}
	for _, item := range items {
		if item.CreatedAt.IsZero() {
			t.Errorf("record %d has no created_at", item.ID)
		}
	}

	sorted := repo.SortItems(items, records.SortByName, records.Descending)
	if sorted[0].Name != "Bob" || sorted[1].Name != "Alice" {
		t.Errorf("sorted = %v, want [Bob Alice]", recordNames(sorted))
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete(1) error = %v", err)
	}
	items, err = repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(items) != 1 || items[0].Name != "Bob" {
		t.Errorf("after delete items = %+v, want only Bob", items)
	}
}

func TestRepository_CreateAssignsIncreasingIDs(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	var last int64
	for _, name := range []string{"one", "two", "three", "two"} {
		before, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatal(err)
		}

		id, err := repo.CreateReturning(ctx, name)
		if err != nil {
			t.Fatalf("CreateReturning(%q) error = %v", name, err)
		}
		if id <= last {
			t.Errorf("id %d not greater than previous %d", id, last)
		}
		last = id

		after, err := repo.GetAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(after) != len(before)+1 {
			t.Fatalf("len = %d, want %d", len(after), len(before)+1)
		}
		added := after[len(after)-1]
		if added.ID != id || added.Name != name {
			t.Errorf("added = %+v, want id %d name %q", added, id, name)
		}
	}
}

func TestRepository_CreateRejectsBlankNames(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for _, name := range []string{"", " ", "\t\n"} {
		err := repo.Create(ctx, name)
		var valErr *errors.ValidationError
		if !stderrors.As(err, &valErr) {
			t.Errorf("Create(%q) error = %v, want *errors.ValidationError", name, err)
		}
	}

	items, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("blank names inserted %d records", len(items))
	}
}

func TestRepository_DeleteMissingIsNoop(t *testing.T) {
	fixture := testutil.NewMemoryFixture(t)
	fixture.Seed(t, "keep")
	repo := fixture.Repository
	ctx := context.Background()

	if err := repo.Delete(ctx, 42); err != nil {
		t.Errorf("Delete(42) error = %v, want nil", err)
	}

	items, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "keep" {
		t.Errorf("items = %+v, want [keep]", items)
	}
}

func TestRepository_ExecuteRawMatchesGetAll(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	for _, name := range []string{"Carol", "alice", "Bob"} {
		if err := repo.Create(ctx, name); err != nil {
			t.Fatal(err)
		}
	}

	res, err := repo.ExecuteRaw(ctx, "SELECT * FROM test_table")
	if err != nil {
		t.Fatalf("ExecuteRaw() error = %v", err)
	}
	items, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Rows) != len(items) {
		t.Fatalf("raw rows = %d, GetAll = %d", len(res.Rows), len(items))
	}
	for i, row := range res.Rows {
		rec, err := records.RecordFromRow(row)
		if err != nil {
			t.Fatalf("RecordFromRow(%v) error = %v", row, err)
		}
		if rec.ID != items[i].ID || rec.Name != items[i].Name || !rec.CreatedAt.Equal(items[i].CreatedAt) {
			t.Errorf("row %d = %+v, GetAll = %+v", i, rec, items[i])
		}
	}
}

func TestRepository_ExecuteRawError(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.ExecuteRaw(context.Background(), "SELEKT nonsense")
	var queryErr *errors.QueryError
	if !stderrors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *errors.QueryError", err)
	}
	if queryErr.Message != "failed to execute raw query" {
		t.Errorf("Message = %q", queryErr.Message)
	}
	if queryErr.Query != "SELEKT nonsense" {
		t.Errorf("Query = %q", queryErr.Query)
	}
}

func TestRepository_NotInitialized(t *testing.T) {
	repo := testutil.NewUninitializedFixture(t).Repository
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"GetAll", func() error { _, err := repo.GetAll(ctx); return err }},
		{"Create", func() error { return repo.Create(ctx, "Alice") }},
		{"Delete", func() error { return repo.Delete(ctx, 1) }},
		{"ExecuteRaw", func() error { _, err := repo.ExecuteRaw(ctx, "SELECT 1"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.IsNotInitialized(err) {
				t.Fatalf("error = %v, want NOT_INITIALIZED", err)
			}
			if len(errors.GetSuggestedFixes(errors.CodeOf(err))) == 0 {
				t.Error("NOT_INITIALIZED should carry a suggested fix")
			}
		})
	}
}

func TestIsModificationQuery(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"INSERT INTO test_table (name) VALUES ('x')", true},
		{"  update test_table SET name = 'y'", true},
		{"\n\tDelete FROM test_table", true},
		{"SELECT * FROM test_table", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"", false},
		{"-- insert\nSELECT 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			if got := records.IsModificationQuery(tt.sql); got != tt.want {
				t.Errorf("IsModificationQuery(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}

func recordNames(items []records.Record) []string {
	out := make([]string, len(items))
	for i, r := range items {
		out[i] = r.Name
	}
	return out
}

func TestRepository_FilePersistence(t *testing.T) {
	fixture := testutil.NewFileFixture(t)
	fixture.Seed(t, "Alice")

	if !fixture.Session.Persistent() {
		t.Error("file fixture should be persistent")
	}
	items, err := fixture.Repository.GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Alice" {
		t.Errorf("items = %+v", items)
	}
}
