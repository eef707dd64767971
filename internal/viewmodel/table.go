// Package viewmodel holds the per-caller state over the record repository:
// cached items, search and sort, error slots and the raw query console.
package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"recordbook/internal/records"
	"recordbook/internal/storage"
)

// Status is the state of the most recent operation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// RecordStore is the repository surface the view model uses.
// *records.Repository implements it.
type RecordStore interface {
	Initialize(ctx context.Context) error
	GetAll(ctx context.Context) ([]records.Record, error)
	CreateReturning(ctx context.Context, name string) (int64, error)
	Delete(ctx context.Context, id int64) error
	ExecuteRaw(ctx context.Context, sql string) (*storage.Result, error)
	SortItems(items []records.Record, field records.SortField, direction records.SortDirection) []records.Record
}

// Snapshot is a consistent copy of a Table's state.
type Snapshot struct {
	Initialized   bool                  `json:"initialized"`
	Items         []records.Record      `json:"items"`
	Total         int                   `json:"total"`
	Error         string                `json:"error,omitempty"`
	Loading       bool                  `json:"loading"`
	Status        Status                `json:"status"`
	SearchQuery   string                `json:"searchQuery,omitempty"`
	SortField     records.SortField     `json:"sortField"`
	SortDirection records.SortDirection `json:"sortDirection"`
	RawQuery      string                `json:"rawQuery,omitempty"`
	RawResult     *storage.Result       `json:"rawResult,omitempty"`
	RawError      string                `json:"rawError,omitempty"`
	RefreshCount  int                   `json:"refreshCount"`
}

// Table is the view model for one caller. It is safe for concurrent use;
// repository calls run outside the lock.
type Table struct {
	repo     RecordStore
	logger   *slog.Logger
	examples *Catalog

	mu            sync.RWMutex
	initialized   bool
	items         []records.Record
	errMsg        string
	inflight      int
	status        Status
	searchQuery   string
	sortField     records.SortField
	sortDirection records.SortDirection
	rawQuery      string
	rawResult     *storage.Result
	rawErr        string
	refreshCount  int
}

// NewTable creates a view model. A nil catalogue uses the built-in examples.
func NewTable(repo RecordStore, logger *slog.Logger, examples *Catalog) *Table {
	if examples == nil {
		examples, _ = DefaultCatalog("")
	}
	return &Table{
		repo:          repo,
		logger:        logger,
		examples:      examples,
		status:        StatusIdle,
		sortField:     records.SortByID,
		sortDirection: records.Ascending,
	}
}

func (t *Table) begin() {
	t.mu.Lock()
	t.inflight++
	t.status = StatusLoading
	t.mu.Unlock()
}

// end finishes an operation. A non-nil err is recorded under prefix.
func (t *Table) end(prefix string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight--
	if err != nil {
		t.errMsg = prefix + ": " + err.Error()
		t.status = StatusError
		t.logger.Warn(prefix, "error", err)
		return
	}
	t.status = StatusIdle
}

// Initialize prepares the repository and loads the items.
func (t *Table) Initialize(ctx context.Context) error {
	t.begin()
	err := t.repo.Initialize(ctx)
	t.end("Failed to initialize database", err)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.initialized = true
	t.mu.Unlock()

	return t.LoadItems(ctx)
}

// LoadItems replaces the cached items with the repository contents.
func (t *Table) LoadItems(ctx context.Context) error {
	t.begin()
	items, err := t.repo.GetAll(ctx)
	if err == nil {
		t.mu.Lock()
		t.items = items
		t.refreshCount++
		t.mu.Unlock()
	}
	t.end("Failed to load data", err)
	return err
}

// AddItem creates a record, reloads and returns the new id. Blank names
// are ignored and return id 0. The id is returned even when the reload
// fails.
func (t *Table) AddItem(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, nil
	}

	t.begin()
	id, err := t.repo.CreateReturning(ctx, name)
	t.end("Failed to add item", err)
	if err != nil {
		return 0, err
	}
	return id, t.LoadItems(ctx)
}

// DeleteItem deletes a record and reloads.
func (t *Table) DeleteItem(ctx context.Context, id int64) error {
	t.begin()
	err := t.repo.Delete(ctx, id)
	t.end("Failed to delete item", err)
	if err != nil {
		return err
	}
	return t.LoadItems(ctx)
}

// ToggleSort flips the direction when field is already active and
// otherwise switches to field ascending.
func (t *Table) ToggleSort(field records.SortField) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sortField == field {
		t.sortDirection = t.sortDirection.Toggle()
		return
	}
	t.sortField = field
	t.sortDirection = records.Ascending
}

// SetSort sets the field and direction directly.
func (t *Table) SetSort(field records.SortField, direction records.SortDirection) {
	t.mu.Lock()
	t.sortField = field
	t.sortDirection = direction
	t.mu.Unlock()
}

// SetSearch sets the client-side filter.
func (t *Table) SetSearch(query string) {
	t.mu.Lock()
	t.searchQuery = query
	t.mu.Unlock()
}

// ClearError empties the error slot.
func (t *Table) ClearError() {
	t.mu.Lock()
	t.errMsg = ""
	if t.status == StatusError {
		t.status = StatusIdle
	}
	t.mu.Unlock()
}

// SetRawQuery sets the raw console text.
func (t *Table) SetRawQuery(sql string) {
	t.mu.Lock()
	t.rawQuery = sql
	t.mu.Unlock()
}

// SetExampleQuery loads the named example into the raw console.
func (t *Table) SetExampleQuery(name string) error {
	q, ok := t.examples.Get(name)
	if !ok {
		return fmt.Errorf("unknown example query %q", name)
	}
	t.SetRawQuery(q.SQL)
	return nil
}

// Examples returns the example catalogue.
func (t *Table) Examples() *Catalog {
	return t.examples
}

// ExecuteRawQuery runs the raw console text. Statements that modify data
// are followed by exactly one reload of the items.
func (t *Table) ExecuteRawQuery(ctx context.Context) (*storage.Result, error) {
	t.mu.Lock()
	sql := t.rawQuery
	t.rawErr = ""
	t.inflight++
	t.status = StatusLoading
	t.mu.Unlock()

	res, err := t.repo.ExecuteRaw(ctx, sql)

	t.mu.Lock()
	t.inflight--
	if err != nil {
		t.rawErr = err.Error()
		t.rawResult = nil
		t.status = StatusError
	} else {
		t.rawResult = res
		t.status = StatusIdle
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("Raw query failed", "error", err)
		return nil, err
	}

	if records.IsModificationQuery(sql) {
		if err := t.LoadItems(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Items returns the cached items filtered by the search query and sorted.
func (t *Table) Items() []records.Record {
	t.mu.RLock()
	items, query := t.items, t.searchQuery
	field, direction := t.sortField, t.sortDirection
	t.mu.RUnlock()

	return t.repo.SortItems(records.Filter(items, query), field, direction)
}

// Snapshot returns a copy of the current state.
func (t *Table) Snapshot() Snapshot {
	items := t.Items()

	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{
		Initialized:   t.initialized,
		Items:         items,
		Total:         len(t.items),
		Error:         t.errMsg,
		Loading:       t.inflight > 0,
		Status:        t.status,
		SearchQuery:   t.searchQuery,
		SortField:     t.sortField,
		SortDirection: t.sortDirection,
		RawQuery:      t.rawQuery,
		RawResult:     t.rawResult,
		RawError:      t.rawErr,
		RefreshCount:  t.refreshCount,
	}
}
