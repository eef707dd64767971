package slogutil

import (
	"io"
	"log/slog"

	"recordbook/internal/config"
	"recordbook/internal/paths"
)

// LoggerFactory builds the loggers for one CLI invocation.
// Level precedence: CLI flags > config > default (warn).
type LoggerFactory struct {
	root     string
	config   *config.Config
	cliLevel *slog.Level
	console  io.Writer
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory. cliLevel is nil when no
// verbosity flag was given.
func NewLoggerFactory(root string, cfg *config.Config, console io.Writer, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if console == nil {
		console = io.Discard
	}
	return &LoggerFactory{
		root:     root,
		config:   cfg,
		cliLevel: cliLevel,
		console:  console,
	}
}

// Logger returns the process logger: console output in the configured
// format, teed into the rotating log file under the data dir when one is
// configured. A file that cannot be opened degrades to console only.
func (f *LoggerFactory) Logger() *slog.Logger {
	level := f.effectiveLevel()
	consoleLogger := NewFormatLogger(f.console, f.config.Logging.Format, level)

	if f.root == "" || f.config.Logging.File == "" {
		return consoleLogger
	}

	path := paths.GetLogPath(f.root, f.config.Logging.File)
	fileLogger, closer, err := NewFileLoggerWithRotation(path, f.fileLevel(), f.config.Logging.MaxSize, f.config.Logging.MaxBackups)
	if err != nil {
		consoleLogger.Warn("Log file unavailable, logging to console only", "path", path, "error", err)
		return consoleLogger
	}
	f.closers = append(f.closers, closer)

	return slog.New(NewTeeHandler(consoleLogger.Handler(), fileLogger.Handler()))
}

// effectiveLevel is the console level.
func (f *LoggerFactory) effectiveLevel() slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// fileLevel never drops below info so the log file keeps an operation trail
// even when the console is quiet.
func (f *LoggerFactory) fileLevel() slog.Level {
	if level := f.effectiveLevel(); level < slog.LevelInfo {
		return level
	}
	return slog.LevelInfo
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
