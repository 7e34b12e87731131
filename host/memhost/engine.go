package memhost

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/host"
)

const (
	handleBits = 24
	handleMask = 1<<handleBits - 1
)

// Options configures an Engine.
type Options struct {
	// Version is the feature level reported by the table. Operations above
	// it fail with GenericFailure, like a missing export would. Defaults to 8.
	Version uint32

	// GCThreshold triggers a collection when a handle scope closes and at
	// least this many objects were allocated since the last one. Zero
	// leaves collection to explicit RunGC calls.
	GCThreshold int
}

// Engine is an in-process script value engine implementing host.Table.
// Each Env is an isolated heap with its own global object. An Env must
// only be driven from one goroutine at a time; distinct Envs may be used
// concurrently.
type Engine struct {
	envs   map[host.Env]*envState
	closed map[host.Env]bool
	opts   Options
	next   host.Env
	mu     sync.RWMutex
}

var _ host.Table = (*Engine)(nil)
var _ host.OwnershipChecker = (*Engine)(nil)

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Version == 0 {
		opts.Version = 8
	}
	return &Engine{
		envs:   make(map[host.Env]*envState),
		closed: make(map[host.Env]bool),
		opts:   opts,
	}
}

// Version implements host.Table.
func (e *Engine) Version() uint32 { return e.opts.Version }

// NewEnv creates a fresh execution context with its own global object.
func (e *Engine) NewEnv() host.Env {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	id := e.next
	s := newEnvState(id)
	e.envs[id] = s

	Logger().Debug("env created", zap.Uint64("env", uint64(id)))
	return id
}

// Close tears env down. Every finalizer still attached to a live object
// runs once. Panicking finalizers are recovered and returned as errors.
func (e *Engine) Close(env host.Env) error {
	s, err := e.detach(env)
	if err != nil {
		return err
	}

	var errs error
	for _, o := range s.heap {
		errs = multierr.Append(errs, s.finalize(o))
	}
	s.heap = nil
	s.handles = nil

	Logger().Debug("env closed", zap.Uint64("env", uint64(env)))
	return errs
}

// Abort tears env down without running finalizers, as an engine killed
// mid-flight would.
func (e *Engine) Abort(env host.Env) {
	s, err := e.detach(env)
	if err != nil {
		return
	}
	pending := 0
	for _, o := range s.heap {
		pending += len(o.finalizers)
	}
	Logger().Debug("env aborted",
		zap.Uint64("env", uint64(env)),
		zap.Int("finalizers_dropped", pending))
}

// CloseAll closes every open env.
func (e *Engine) CloseAll() error {
	e.mu.RLock()
	ids := make([]host.Env, 0, len(e.envs))
	for id := range e.envs {
		ids = append(ids, id)
	}
	e.mu.RUnlock()

	var errs error
	for _, id := range ids {
		errs = multierr.Append(errs, e.Close(id))
	}
	return errs
}

func (e *Engine) detach(env host.Env) (*envState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.envs[env]
	if !ok {
		if e.closed[env] {
			return nil, fmt.Errorf("env %d already closed", env)
		}
		return nil, fmt.Errorf("unknown env %d", env)
	}
	delete(e.envs, env)
	e.closed[env] = true
	return s, nil
}

// state looks env up. A closed env reports Closing.
func (e *Engine) state(env host.Env) (*envState, host.Status) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if s, ok := e.envs[env]; ok {
		return s, host.OK
	}
	if e.closed[env] {
		return nil, host.Closing
	}
	return nil, host.InvalidArg
}

// OpenHandleScope starts a scope. Handles created until the matching
// CloseHandleScope are released by it.
func (e *Engine) OpenHandleScope(env host.Env) host.Status {
	s, st := e.state(env)
	if st != host.OK {
		return st
	}
	s.scopes = append(s.scopes, len(s.handles))
	return host.OK
}

// CloseHandleScope releases the handles of the innermost scope.
func (e *Engine) CloseHandleScope(env host.Env) host.Status {
	s, st := e.state(env)
	if st != host.OK {
		return st
	}
	if len(s.scopes) == 0 {
		return host.HandleScopeMismatch
	}
	mark := s.scopes[len(s.scopes)-1]
	s.scopes = s.scopes[:len(s.scopes)-1]
	clear(s.handles[mark:])
	s.handles = s.handles[:mark]

	if e.opts.GCThreshold > 0 && s.allocs >= e.opts.GCThreshold {
		if _, err := s.collect(); err != nil {
			Logger().Warn("finalizer failed during collection", zap.Error(err))
		}
	}
	return host.OK
}

// OwnsHandle implements host.OwnershipChecker.
func (e *Engine) OwnsHandle(env host.Env, h host.Handle) bool {
	s, st := e.state(env)
	if st != host.OK {
		return false
	}
	_, ok := s.lookup(h)
	return ok
}

// RunGC collects every object unreachable from the global object, live
// handles and the pending exception, running their finalizers. It returns
// the number of objects freed.
func (e *Engine) RunGC(env host.Env) (int, error) {
	s, st := e.state(env)
	if st != host.OK {
		return 0, fmt.Errorf("run gc: %s", st)
	}
	return s.collect()
}

// Live returns the number of objects on env's heap.
func (e *Engine) Live(env host.Env) int {
	s, st := e.state(env)
	if st != host.OK {
		return 0
	}
	return len(s.heap)
}

// at looks env up after checking the feature level.
func (e *Engine) at(env host.Env, level uint32) (*envState, host.Status) {
	if e.opts.Version < level {
		return nil, host.GenericFailure
	}
	return e.state(env)
}
