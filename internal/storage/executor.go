package storage

import (
	"context"
	"log/slog"
	"time"

	"recordbook/internal/engine"
	"recordbook/internal/errors"
)

// Result is the normalized outcome of one statement. HasRows is set when
// rows were requested; Rows may still be empty.
type Result struct {
	SQL          string          `json:"sql"`
	Columns      []string        `json:"columns,omitempty"`
	Rows         [][]interface{} `json:"rows,omitempty"`
	HasRows      bool            `json:"hasRows"`
	RowsAffected int64           `json:"rowsAffected"`
	LastInsertID int64           `json:"lastInsertId"`
	Duration     time.Duration   `json:"duration"`
}

// Executor forwards SQL and positional parameters to the session.
type Executor struct {
	session *Session
	logger  *slog.Logger
}

// NewExecutor creates an executor over session.
func NewExecutor(session *Session, logger *slog.Logger) *Executor {
	return &Executor{session: session, logger: logger}
}

// Execute runs sql once with params bound positionally. It fails with
// NOT_INITIALIZED before the session is ready and with a *errors.QueryError
// when the engine rejects the statement.
func (e *Executor) Execute(ctx context.Context, sql string, params []interface{}, expectRows bool) (*Result, error) {
	client, id, ok := e.session.handle()
	if !ok {
		return nil, errors.NewNotInitializedError()
	}

	e.logger.Debug("Executing query", "sql", sql, "params", len(params), "expectRows", expectRows)

	start := time.Now()
	res, err := client.Exec(ctx, id, engine.ExecArgs{
		SQL:        sql,
		Bind:       params,
		ReturnRows: expectRows,
	})
	duration := time.Since(start)
	if err != nil {
		e.logger.Warn("Query execution failed", "sql", sql, "error", err.Error())
		return nil, errors.NewQueryError("query execution failed", sql, err)
	}

	result := &Result{
		SQL:          sql,
		HasRows:      expectRows,
		RowsAffected: res.RowsAffected,
		LastInsertID: res.LastInsertID,
		Duration:     duration,
	}
	if expectRows {
		result.Columns = res.Columns
		result.Rows = res.ResultRows
		if result.Rows == nil {
			result.Rows = [][]interface{}{}
		}
	}
	return result, nil
}

// Exec runs a statement that returns no rows.
func (e *Executor) Exec(ctx context.Context, sql string, params ...interface{}) (*Result, error) {
	return e.Execute(ctx, sql, params, false)
}

// Query runs a statement and returns its rows.
func (e *Executor) Query(ctx context.Context, sql string, params ...interface{}) (*Result, error) {
	return e.Execute(ctx, sql, params, true)
}

// Initialize initializes the underlying session.
func (e *Executor) Initialize(ctx context.Context) error {
	return e.session.Initialize(ctx)
}

// Session returns the session the executor runs on.
func (e *Executor) Session() *Session {
	return e.session
}
