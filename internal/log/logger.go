// Package log provides a global logger with configurable logging level. Messages are written with
// an RFC3339 timestamp and a severity label to stderr and, optionally, to an append-only file.

package log

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	LevelNone    Level = iota // Disables logging.
	LevelError                // Logs anamolies that are not expected to occur during normal use.
	LevelWarning              // Logs anamolies that are expected to occur occasionally during normal use.
	LevelInfo                 // Logs major events.
	LevelDebug                // Logs detailed IO
)

var labels = map[string]Level{
	"none":    LevelNone,
	"error":   LevelError,
	"warn":    LevelWarning,
	"warning": LevelWarning,
	"info":    LevelInfo,
	"debug":   LevelDebug,
}

// ParseLevel converts a configuration string such as "info" or "debug" into a Level.
func ParseLevel(s string) (Level, error) {
	level, ok := labels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return LevelNone, fmt.Errorf("unknown log level '%s'", s)
	}
	return level, nil
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	// Above FatalLevel nothing is enabled.
	return zapcore.FatalLevel + 1
}

var (
	logMutex     sync.Mutex
	atomicLevel  = zap.NewAtomicLevelAt(LevelNone.zapLevel())
	globalLogger = zap.NewNop().Sugar()
	closeOutputs = func() {}
)

// Options control where Init sends log output.
type Options struct {
	Level Level
	// File is appended to in addition to stderr. Leave empty to log to stderr only.
	File string
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	return cfg
}

// Init replaces the global logger with one that writes to stderr and opts.File.
func Init(opts Options) error {
	paths := []string{"stderr"}
	if opts.File != "" {
		paths = append(paths, opts.File)
	}
	sink, closeSink, err := zap.Open(paths...)
	if err != nil {
		return fmt.Errorf("failed to open log output: %w", err)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), sink, atomicLevel)

	logMutex.Lock()
	defer logMutex.Unlock()
	closeOutputs()
	closeOutputs = closeSink
	atomicLevel.SetLevel(opts.Level.zapLevel())
	globalLogger = zap.New(core).Sugar()
	return nil
}

// Replace installs logger as the global logger and returns a function that restores the previous
// one. Intended for tests.
func Replace(logger *zap.Logger) func() {
	logMutex.Lock()
	defer logMutex.Unlock()
	previous := globalLogger
	globalLogger = logger.Sugar()
	return func() {
		logMutex.Lock()
		defer logMutex.Unlock()
		globalLogger = previous
	}
}

// Sync flushes buffered output.
func Sync() {
	_ = current().Sync()
}

func SetLevel(level Level) {
	atomicLevel.SetLevel(level.zapLevel())
}

func current() *zap.SugaredLogger {
	logMutex.Lock()
	defer logMutex.Unlock()
	return globalLogger
}

func Debug(format string, a ...interface{}) {
	current().Debugf(format, a...)
}
func Info(format string, a ...interface{}) {
	current().Infof(format, a...)
}
func Warning(format string, a ...interface{}) {
	current().Warnf(format, a...)
}
func Error(format string, a ...interface{}) {
	current().Errorf(format, a...)
}
