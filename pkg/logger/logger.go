package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

type Logger struct {
	level *slog.LevelVar
	log   *slog.Logger
}

func New(w io.Writer, level string) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	return &Logger{
		level: lv,
		log:   slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})),
	}
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

func (l *Logger) Slog() *slog.Logger {
	return l.log
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.logf(slog.LevelInfo, format, v...)
}

func (l *Logger) Warn(format string, v ...interface{}) {
	l.logf(slog.LevelWarn, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.logf(slog.LevelError, format, v...)
}

func (l *Logger) Debug(format string, v ...interface{}) {
	l.logf(slog.LevelDebug, format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.logf(slog.LevelError, format, v...)
	os.Exit(1)
}

func (l *Logger) logf(level slog.Level, format string, v ...interface{}) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}
	l.log.Log(ctx, level, fmt.Sprintf(format, v...))
}

var global atomic.Pointer[Logger]

func init() {
	global.Store(New(os.Stdout, "info"))
}

// Global returns the process-wide logger.
func Global() *Logger {
	return global.Load()
}

// SetGlobal replaces the process-wide logger, typically once from main.
func SetGlobal(l *Logger) {
	if l != nil {
		global.Store(l)
	}
}

// Convenience functions
func Info(format string, v ...interface{}) {
	Global().Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	Global().Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	Global().Error(format, v...)
}

func Debug(format string, v ...interface{}) {
	Global().Debug(format, v...)
}

func Fatal(format string, v ...interface{}) {
	Global().Fatal(format, v...)
}
