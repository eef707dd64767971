package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"

	"recordbook/internal/errors"
	"recordbook/internal/storage"
)

// Querier executes one statement. *storage.Executor implements it.
type Querier interface {
	Execute(ctx context.Context, sql string, params []interface{}, expectRows bool) (*storage.Result, error)
}

// Initializer prepares the querier's session.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Repository runs the fixed record queries.
type Repository struct {
	q      Querier
	logger *slog.Logger
	table  string
	locale language.Tag
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithTable sets the record table. It must match the session's schema.
func WithTable(table string) RepositoryOption {
	return func(r *Repository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithLocale sets the collation used when sorting by name.
func WithLocale(tag language.Tag) RepositoryOption {
	return func(r *Repository) {
		r.locale = tag
	}
}

// NewRepository creates a repository over q.
func NewRepository(q Querier, logger *slog.Logger, opts ...RepositoryOption) *Repository {
	r := &Repository{
		q:      q,
		logger: logger,
		table:  storage.DefaultTable,
		locale: language.English,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the record table name.
func (r *Repository) Table() string {
	return r.table
}

// Initialize initializes the underlying session when q supports it.
func (r *Repository) Initialize(ctx context.Context) error {
	if in, ok := r.q.(Initializer); ok {
		return in.Initialize(ctx)
	}
	return nil
}

// GetAll returns every record in id order.
func (r *Repository) GetAll(ctx context.Context) ([]Record, error) {
	sql := fmt.Sprintf("SELECT id, name, created_at FROM %s ORDER BY id", r.table)
	res, err := r.q.Execute(ctx, sql, nil, true)
	if err != nil {
		return nil, err
	}

	items := make([]Record, 0, len(res.Rows))
	for _, row := range res.Rows {
		rec, err := RecordFromRow(row)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}

	r.logger.Debug("Loaded records", "count", len(items))
	return items, nil
}

// Create inserts a record. Blank names are rejected before any insert.
func (r *Repository) Create(ctx context.Context, name string) error {
	_, err := r.CreateReturning(ctx, name)
	return err
}

// CreateReturning inserts a record and returns its id.
func (r *Repository) CreateReturning(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, &errors.ValidationError{Field: "name", Message: "name cannot be empty"}
	}

	sql := fmt.Sprintf("INSERT INTO %s (name) VALUES (?)", r.table)
	res, err := r.q.Execute(ctx, sql, []interface{}{name}, false)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("Record created", "id", res.LastInsertID)
	return res.LastInsertID, nil
}

// Delete removes the record with id. A missing id is not an error.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	res, err := r.q.Execute(ctx, sql, []interface{}{id}, false)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		r.logger.Debug("Delete matched no record", "id", id)
	}
	return nil
}

// ExecuteRaw runs arbitrary SQL with rows requested. NOT_INITIALIZED is
// returned unchanged; other failures become a *errors.QueryError.
func (r *Repository) ExecuteRaw(ctx context.Context, sql string) (*storage.Result, error) {
	res, err := r.q.Execute(ctx, sql, nil, true)
	if err != nil {
		if errors.IsNotInitialized(err) {
			return nil, err
		}
		return nil, errors.NewQueryError("failed to execute raw query", sql, err)
	}
	return res, nil
}

// IsModificationQuery reports whether sql starts with insert, update or
// delete, ignoring case and surrounding whitespace.
func IsModificationQuery(sql string) bool {
	q := strings.ToLower(strings.TrimSpace(sql))
	return strings.HasPrefix(q, "insert") ||
		strings.HasPrefix(q, "update") ||
		strings.HasPrefix(q, "delete")
}

// IsModificationQuery reports whether sql modifies data.
func (r *Repository) IsModificationQuery(sql string) bool {
	return IsModificationQuery(sql)
}

// SortItems returns a sorted copy of items using the repository locale.
func (r *Repository) SortItems(items []Record, field SortField, direction SortDirection) []Record {
	return SortRecords(items, field, direction, r.locale)
}
