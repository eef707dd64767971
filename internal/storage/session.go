// Package storage manages the engine session and executes queries on it.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"recordbook/internal/config"
	"recordbook/internal/engine"
	"recordbook/internal/errors"
)

// State is the lifecycle state of a Session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
)

// Session owns the one engine worker and database handle for a process.
// Filename in the config must already be resolved to a path or ":memory:".
type Session struct {
	config config.DatabaseConfig
	logger *slog.Logger
	group  singleflight.Group

	// lifecycle serializes initialize and Close.
	lifecycle sync.Mutex

	mu            sync.RWMutex
	state         State
	worker        *engine.Worker
	client        *engine.Client
	dbID          engine.DBID
	filename      string
	persistent    bool
	engineVersion string

	initCount atomic.Int64
}

// NewSession creates an uninitialized session.
func NewSession(cfg config.DatabaseConfig, logger *slog.Logger) *Session {
	if cfg.Filename == "" {
		cfg.Filename = engine.MemoryFilename
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	return &Session{
		config: cfg,
		logger: logger,
		state:  StateUninitialized,
	}
}

// Initialize starts the worker, opens the database and creates the schema.
// It is idempotent, and concurrent callers share one in-flight attempt.
// The attempt is not cancelled by any caller's ctx; a cancelled caller only
// stops waiting for it. On failure the session returns to uninitialized and
// may be retried.
func (s *Session) Initialize(ctx context.Context) error {
	if s.IsReady() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("initialize", func() (interface{}, error) {
		s.lifecycle.Lock()
		defer s.lifecycle.Unlock()
		if s.IsReady() {
			return nil, nil
		}
		return nil, s.initialize(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Joined in-flight database initialization")
		}
		return res.Err
	case <-ctx.Done():
		s.logger.Debug("Stopped waiting for database initialization", "error", ctx.Err().Error())
		return ctx.Err()
	}
}

func (s *Session) initialize(ctx context.Context) error {
	s.setState(StateInitializing)
	start := time.Now()

	worker := engine.NewWorker(s.logger.With("component", "engine"), engine.WorkerConfig{
		QueueSize:   s.config.QueueSize,
		BusyTimeout: time.Duration(s.config.BusyTimeoutMs) * time.Millisecond,
	})
	client := engine.NewClient(worker)

	fail := func(stage string, cause error) error {
		if err := worker.Stop(s.stopTimeout()); err != nil {
			s.logger.Warn("Failed to stop engine worker", "error", err.Error())
		}
		s.setState(StateUninitialized)
		s.logger.Error("Failed to initialize SQLite database",
			"stage", stage,
			"filename", s.config.Filename,
			"error", cause.Error(),
		)
		return errors.NewInitializationError("failed to initialize SQLite database", fmt.Errorf("%s: %w", stage, cause))
	}

	if err := worker.Start(); err != nil {
		return fail("start worker", err)
	}

	readyTimeout := time.Duration(s.config.ReadyTimeoutMs) * time.Millisecond
	if readyTimeout <= 0 {
		readyTimeout = 10 * time.Second
	}
	select {
	case <-worker.Ready():
	case <-time.After(readyTimeout):
		return fail("wait for worker", fmt.Errorf("worker not ready after %v", readyTimeout))
	}

	cfg, err := client.ConfigGet(ctx)
	if err != nil {
		return fail("config-get", err)
	}
	s.logger.Debug("Engine ready", "driver", cfg.Driver, "version", cfg.Version)

	opened, err := client.Open(ctx, s.config.Filename)
	if err != nil {
		return fail("open", err)
	}
	if opened.Persistent {
		s.logger.Info("Database stored persistently", "filename", opened.Filename)
	} else {
		s.logger.Info("Database is transient and will not survive the process", "filename", opened.Filename)
	}

	schema, err := SchemaSQL(s.config.Table)
	if err != nil {
		return fail("schema", err)
	}
	if _, err := client.Exec(ctx, opened.DBID, engine.ExecArgs{SQL: schema}); err != nil {
		return fail("schema", err)
	}

	s.mu.Lock()
	s.worker = worker
	s.client = client
	s.dbID = opened.DBID
	s.filename = opened.Filename
	s.persistent = opened.Persistent
	s.engineVersion = cfg.Version
	s.state = StateReady
	s.mu.Unlock()
	s.initCount.Add(1)

	s.logger.Info("SQLite database initialized",
		"dbId", opened.DBID,
		"table", s.config.Table,
		"duration", time.Since(start).String(),
	)
	return nil
}

func (s *Session) stopTimeout() time.Duration {
	if s.config.StopTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.config.StopTimeoutMs) * time.Millisecond
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsReady reports whether a database handle exists.
func (s *Session) IsReady() bool {
	return s.State() == StateReady
}

// DBID returns the handle, empty before initialization.
func (s *Session) DBID() engine.DBID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbID
}

// Filename returns the opened filename, empty before initialization.
func (s *Session) Filename() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filename
}

// Persistent reports whether the opened database is backed by a file.
func (s *Session) Persistent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistent
}

// EngineVersion is the SQLite version reported during the handshake.
func (s *Session) EngineVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engineVersion
}

// Table is the configured record table.
func (s *Session) Table() string {
	return s.config.Table
}

// Stats returns session and worker statistics.
func (s *Session) Stats() map[string]interface{} {
	s.mu.RLock()
	worker := s.worker
	stats := map[string]interface{}{
		"state":           string(s.state),
		"dbId":            string(s.dbID),
		"filename":        s.filename,
		"initializations": s.initCount.Load(),
	}
	s.mu.RUnlock()

	if worker != nil {
		for k, v := range worker.Stats() {
			stats["engine."+k] = v
		}
	}
	return stats
}

// handle returns the client and db id while ready.
func (s *Session) handle() (*engine.Client, engine.DBID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		return nil, "", false
	}
	return s.client, s.dbID, true
}

// Close closes the database, stops the worker and resets the session. An
// initialization in progress finishes first and is then closed.
func (s *Session) Close() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	worker, client, id := s.worker, s.client, s.dbID
	s.worker, s.client, s.dbID = nil, nil, ""
	s.filename, s.persistent = "", false
	s.state = StateUninitialized
	s.mu.Unlock()

	if worker == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout())
	defer cancel()

	var firstErr error
	if err := client.Close(ctx, id); err != nil {
		firstErr = fmt.Errorf("failed to close database: %w", err)
	}
	if err := worker.Stop(s.stopTimeout()); err != nil && firstErr == nil {
		firstErr = err
	}

	s.logger.Debug("Session closed", "dbId", id)
	return firstErr
}
