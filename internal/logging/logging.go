package logging

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled logging surface used across the bot.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Factory creates context-scoped loggers.
type Factory interface {
	CreateLogger(ctx context.Context) Logger
}

var (
	factoryMu sync.RWMutex
	factory   Factory
)

// SetFactory installs a custom logger factory for the whole process.
func SetFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factory = f
}

// NewLogger returns a logger from the installed factory or a logrus default.
func NewLogger(ctx context.Context) Logger {
	factoryMu.RLock()
	f := factory
	factoryMu.RUnlock()
	if f != nil {
		return f.CreateLogger(ctx)
	}
	return newLogrusLogger(ctx)
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func newLogrusLogger(ctx context.Context) Logger {
	return &logrusLogger{entry: logrus.StandardLogger().WithContext(ctx)}
}
