// Package logging provides category-scoped zap loggers for worldkg.
// Categories mirror the subsystems (extract, registry, store, reason, cli)
// so log output can be filtered per concern.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryExtract  Category = "extract"
	CategoryRegistry Category = "registry"
	CategoryStore    Category = "store"
	CategoryReason   Category = "reason"
	CategoryCLI      Category = "cli"
)

var (
	mu      sync.RWMutex
	root    *zap.Logger
	loggers = make(map[Category]*zap.Logger)
)

// Init installs the root logger. debug switches to development config with
// debug-level output. Safe to call more than once; the last call wins.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
	return nil
}

// Get returns the logger for a category. Before Init it returns a no-op
// logger so library code never has to nil-check.
func Get(c Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[c]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if root == nil {
		root = zap.NewNop()
	}
	if l, ok := loggers[c]; ok {
		return l
	}
	l := root.Named(string(c))
	loggers[c] = l
	return l
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}
