package value

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/finalizer"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once

	registry   = finalizer.Default()
	registryMu sync.RWMutex
)

// Logger returns the value package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the value package's logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Registry returns the registry closures attached by DefineProperties and
// NewExternal are parked in.
func Registry() *finalizer.Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry
}

// SetRegistry replaces the closure registry. Sets already registered stay
// with the registry they were registered in.
func SetRegistry(r *finalizer.Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = r
}
