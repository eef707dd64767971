package engine

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DriverName is the database/sql driver the worker opens databases with.
const DriverName = "sqlite"

// MemoryFilename opens a private in-process database.
const MemoryFilename = ":memory:"

var (
	// ErrNotStarted is returned for requests sent before Start.
	ErrNotStarted = errors.New("engine worker not started")
	// ErrStopped is returned for requests the worker will never answer.
	ErrStopped = errors.New("engine worker stopped")
)

// WorkerConfig contains configuration for the worker.
type WorkerConfig struct {
	QueueSize   int
	BusyTimeout time.Duration
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		QueueSize:   64,
		BusyTimeout: 5 * time.Second,
	}
}

type envelope struct {
	req   Request
	reply chan *Response
}

type openDB struct {
	conn     *sql.DB
	filename string
}

// Worker owns every database it opened and processes requests one at a
// time, in the order they were queued.
type Worker struct {
	logger *slog.Logger
	config WorkerConfig

	queue chan *envelope
	ready chan struct{}
	done  chan struct{}

	mu      sync.RWMutex
	dbs     map[DBID]*openDB
	version string

	wg       sync.WaitGroup
	started  atomic.Bool
	stopOnce sync.Once

	processedCount atomic.Int64
	failedCount    atomic.Int64
}

// NewWorker creates a worker. Call Start before sending requests.
func NewWorker(logger *slog.Logger, config WorkerConfig) *Worker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultWorkerConfig().QueueSize
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = DefaultWorkerConfig().BusyTimeout
	}

	return &Worker{
		logger: logger,
		config: config,
		queue:  make(chan *envelope, config.QueueSize),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		dbs:    make(map[DBID]*openDB),
	}
}

// Start launches the request loop. Ready is closed once it runs.
func (w *Worker) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("engine worker already started")
	}
	select {
	case <-w.done:
		return ErrStopped
	default:
	}

	w.logger.Debug("Starting engine worker", "queueSize", w.config.QueueSize)

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Ready is closed when the worker accepts requests.
func (w *Worker) Ready() <-chan struct{} {
	return w.ready
}

// Stop signals the loop to exit, waits up to timeout for it, and closes any
// databases still open. Queued requests that were not processed fail with
// ErrStopped.
func (w *Worker) Stop(timeout time.Duration) error {
	w.stopOnce.Do(func() { close(w.done) })
	if !w.started.Load() {
		return nil
	}

	exited := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(timeout):
		return fmt.Errorf("engine worker shutdown timed out after %v", timeout)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for id, db := range w.dbs {
		if err := db.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.dbs, id)
	}

	w.logger.Debug("Engine worker stopped", "processed", w.processedCount.Load())
	return firstErr
}

// Stats returns worker statistics.
func (w *Worker) Stats() map[string]interface{} {
	w.mu.RLock()
	open := len(w.dbs)
	w.mu.RUnlock()

	return map[string]interface{}{
		"queueLength":    len(w.queue),
		"queueCapacity":  cap(w.queue),
		"openDatabases":  open,
		"processedTotal": w.processedCount.Load(),
		"failedTotal":    w.failedCount.Load(),
	}
}

// submit queues req and returns the reply channel.
func (w *Worker) submit(env *envelope) error {
	if !w.started.Load() {
		return ErrNotStarted
	}
	select {
	case <-w.done:
		return ErrStopped
	default:
	}

	select {
	case w.queue <- env:
		return nil
	case <-w.done:
		return ErrStopped
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	close(w.ready)

	for {
		select {
		case env := <-w.queue:
			env.reply <- w.handle(env.req)
		case <-w.done:
			return
		}
	}
}

// handle runs one request. Failures, panics included, become TypeError
// responses.
func (w *Worker) handle(req Request) (resp *Response) {
	resp = &Response{
		Type:               req.Type,
		MessageID:          req.MessageID,
		DBID:               req.DBID,
		DepartureTime:      req.DepartureTime,
		WorkerReceivedTime: time.Now(),
	}

	fail := func(err error) {
		w.failedCount.Add(1)
		w.logger.Debug("Engine request failed",
			"type", req.Type,
			"messageId", req.MessageID,
			"error", err.Error(),
		)
		resp.Type = TypeError
		resp.Result = ErrorResult{
			Operation: req.Type,
			Message:   err.Error(),
			Input:     req.Args,
		}
	}

	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
		resp.WorkerRespondTime = time.Now()
	}()

	var (
		result interface{}
		err    error
	)
	switch req.Type {
	case TypeConfigGet:
		result, err = w.configGet()
	case TypeOpen:
		var args OpenArgs
		if args, err = argsAs[OpenArgs](req.Args); err == nil {
			var opened *OpenResult
			opened, err = w.open(args)
			if err == nil {
				resp.DBID = opened.DBID
				result = opened
			}
		}
	case TypeExec:
		var args ExecArgs
		if args, err = argsAs[ExecArgs](req.Args); err == nil {
			result, err = w.exec(req.DBID, args)
		}
	case TypeClose:
		result, err = w.close(req.DBID)
	default:
		err = fmt.Errorf("unknown message type %q", req.Type)
	}

	if err != nil {
		fail(err)
		return resp
	}

	w.processedCount.Add(1)
	resp.Result = result
	return resp
}

// argsAs accepts both value and pointer forms of the request args.
func argsAs[T any](args interface{}) (T, error) {
	var zero T
	switch v := args.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	case nil:
		return zero, nil
	}
	return zero, fmt.Errorf("unexpected arguments of type %T", args)
}

func (w *Worker) configGet() (*ConfigResult, error) {
	w.mu.RLock()
	version := w.version
	open := len(w.dbs)
	w.mu.RUnlock()

	if version == "" {
		scratch, err := sql.Open(DriverName, MemoryFilename)
		if err != nil {
			return nil, err
		}
		defer scratch.Close()
		if err := scratch.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to read engine version: %w", err)
		}
		w.mu.Lock()
		w.version = version
		w.mu.Unlock()
	}

	return &ConfigResult{Driver: DriverName, Version: version, OpenDatabases: open}, nil
}

func isMemory(filename string) bool {
	return filename == MemoryFilename || strings.Contains(filename, "mode=memory")
}

func (w *Worker) open(args OpenArgs) (*OpenResult, error) {
	filename := args.Filename
	if filename == "" {
		filename = MemoryFilename
	}
	persistent := !isMemory(filename)

	if persistent && !strings.HasPrefix(filename, "file:") {
		if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open(DriverName, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps in-memory databases alive and serializes access.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", w.config.BusyTimeout.Milliseconds()),
	}
	if persistent {
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
		)
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	id := DBID(uuid.New().String())
	w.mu.Lock()
	w.dbs[id] = &openDB{conn: conn, filename: filename}
	w.mu.Unlock()

	w.logger.Debug("Database opened", "dbId", id, "filename", filename, "persistent", persistent)

	return &OpenResult{DBID: id, Filename: filename, Persistent: persistent}, nil
}

func (w *Worker) lookup(id DBID) (*openDB, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	db, ok := w.dbs[id]
	if !ok {
		return nil, fmt.Errorf("unknown database id %q", id)
	}
	return db, nil
}

func (w *Worker) exec(id DBID, args ExecArgs) (*ExecResult, error) {
	db, err := w.lookup(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.SQL) == "" {
		return nil, fmt.Errorf("empty SQL statement")
	}

	result := &ExecResult{SQL: args.SQL}

	if !args.ReturnRows {
		res, err := db.conn.Exec(args.SQL, args.Bind...)
		if err != nil {
			return nil, err
		}
		result.RowsAffected, _ = res.RowsAffected()
		result.LastInsertID, _ = res.LastInsertId()
		return result, nil
	}

	rows, err := db.conn.Query(args.SQL, args.Bind...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result.Columns = columns
	result.ResultRows = [][]interface{}{}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			// Scanned []byte is only valid until the next Next call.
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		result.ResultRows = append(result.ResultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (w *Worker) close(id DBID) (*CloseResult, error) {
	db, err := w.lookup(id)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	delete(w.dbs, id)
	w.mu.Unlock()

	if err := db.conn.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database: %w", err)
	}

	w.logger.Debug("Database closed", "dbId", id)
	return &CloseResult{DBID: id, Filename: db.filename}, nil
}
