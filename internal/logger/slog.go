package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Options struct {
	Debug  bool
	JSON   bool
	Output io.Writer
}

// New builds the process logger.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// PrintfLogger feeds printf-style library logs into slog.
type PrintfLogger struct {
	ctx    context.Context
	logger *slog.Logger
}

func NewPrintf(logger *slog.Logger) *PrintfLogger {
	return &PrintfLogger{
		ctx:    context.Background(),
		logger: logger,
	}
}

func (l *PrintfLogger) log(level slog.Level, format string, args ...any) {
	if !l.logger.Enabled(l.ctx, level) {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.logger.Log(l.ctx, level, msg)
}

func (l *PrintfLogger) Errorf(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *PrintfLogger) Warningf(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *PrintfLogger) Infof(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *PrintfLogger) Debugf(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}
