// Package logging provides file-based logging for orchd.
// Entries go to a global log file (<root>/logs/orchd.log) and, when a
// task id is present, to a per-task file (<root>/logs/<task-id>.log).
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"orchd/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger writes leveled entries to log files under the state root.
// Fields are ordered to minimize memory padding.
type Logger struct {
	global    *fileLogger
	taskFiles map[string]*fileLogger
	rootDir   string
	mu        sync.Mutex
	level     zerolog.Level
}

// fileLogger pairs an open log file with the zerolog instance writing
// to it.
type fileLogger struct {
	file *os.File
	log  zerolog.Logger
}

// New creates a Logger that writes under the state root's logs directory.
// If rootDir is empty, logging is disabled (returns a no-op logger).
func New(rootDir string, level zerolog.Level) *Logger {
	return &Logger{
		rootDir:   rootDir,
		level:     level,
		taskFiles: make(map[string]*fileLogger),
	}
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(levelStr string) zerolog.Level {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// ensureGlobal opens or returns the global log file.
// Callers must hold l.mu.
func (l *Logger) ensureGlobal() (*fileLogger, error) {
	if l.global != nil {
		return l.global, nil
	}
	fl, err := l.open(domain.GlobalLogPath(l.rootDir))
	if err != nil {
		return nil, err
	}
	l.global = fl
	return fl, nil
}

// ensureTask opens or returns the per-task log file.
// Callers must hold l.mu.
func (l *Logger) ensureTask(taskID string) (*fileLogger, error) {
	if fl, ok := l.taskFiles[taskID]; ok {
		return fl, nil
	}
	fl, err := l.open(domain.TaskLogPath(l.rootDir, taskID))
	if err != nil {
		return nil, err
	}
	l.taskFiles[taskID] = fl
	return fl, nil
}

func (l *Logger) open(path string) (*fileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	writer := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
	}
	return &fileLogger{
		file: f,
		log:  zerolog.New(writer).Level(l.level).With().Timestamp().Logger(),
	}, nil
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.global != nil {
		if err := l.global.file.Close(); err != nil {
			lastErr = err
		}
		l.global = nil
	}
	for id, fl := range l.taskFiles {
		if err := fl.file.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// log writes an entry to the global log and, when taskID is non-empty,
// to that task's log as well.
func (l *Logger) log(level zerolog.Level, taskID, category, msg string) {
	if l.rootDir == "" {
		return // Logging disabled
	}
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if gl, err := l.ensureGlobal(); err == nil {
		event(gl.log, level, taskID, category, msg)
	}
	if taskID != "" {
		if tl, err := l.ensureTask(taskID); err == nil {
			event(tl.log, level, taskID, category, msg)
		}
	}
}

func event(log zerolog.Logger, level zerolog.Level, taskID, category, msg string) {
	e := log.WithLevel(level).Str("category", category)
	if taskID != "" {
		e = e.Str("task", taskID)
	}
	e.Msg(msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID, category, msg string) {
	l.log(zerolog.DebugLevel, taskID, category, msg)
}

// Info logs an info message.
func (l *Logger) Info(taskID, category, msg string) {
	l.log(zerolog.InfoLevel, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID, category, msg string) {
	l.log(zerolog.WarnLevel, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID, category, msg string) {
	l.log(zerolog.ErrorLevel, taskID, category, msg)
}
