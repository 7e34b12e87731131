package finalizer

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/host"
)

// Registry hands closure sets to an engine's garbage collector.
//
// Register parks a set in the arena and returns the (data, hint) pair to
// pass to host.Table.AddFinalizer together with r.Finalize. The engine only
// ever sees the token and the count; Finalize looks the set up again,
// checks the count and releases every closure once.
type Registry struct {
	arena     *Arena
	observers []Observer
	obsMu     sync.RWMutex
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry creates a registry with its own arena.
func NewRegistry() *Registry {
	return &Registry{arena: NewArena()}
}

// Register takes ownership of closures. The returned data and hint are
// opaque to the engine and must be passed back unchanged to Finalize.
func (r *Registry) Register(closures []Closure) (data, hint uintptr, err error) {
	tok, err := r.arena.Put(closures)
	if err != nil {
		return 0, 0, err
	}

	Logger().Debug("closure set registered",
		zap.Uint64("token", uint64(tok)),
		zap.Int("count", len(closures)))

	r.notify(Event{Type: EventRegistered, Token: tok, Count: len(closures)})
	return uintptr(tok), uintptr(len(closures)), nil
}

// Finalize is the host.Finalize callback for sets created by Register.
// A token that is unknown or already finalized is logged and ignored.
func (r *Registry) Finalize(env host.Env, data, hint uintptr) {
	tok := Token(data)
	closures, err := r.arena.Take(tok, int(hint))
	if err != nil {
		Logger().Warn("finalize skipped",
			zap.Uint64("env", uint64(env)),
			zap.Uint64("token", uint64(tok)),
			zap.Uint64("count", uint64(hint)),
			zap.Error(err))
		r.notify(Event{Type: EventFinalized, Token: tok, Count: int(hint), Err: err})
		return
	}

	err = release(closures)
	if err != nil {
		Logger().Warn("closure release failed",
			zap.Uint64("token", uint64(tok)),
			zap.Error(err))
	}

	Logger().Debug("closure set finalized",
		zap.Uint64("env", uint64(env)),
		zap.Uint64("token", uint64(tok)),
		zap.Int("count", len(closures)))

	r.notify(Event{Type: EventFinalized, Token: tok, Count: len(closures), Err: err})
}

// Abandon drops a registered set without releasing it. It is used when the
// engine refused the finalizer, so ownership never left the caller.
func (r *Registry) Abandon(data, hint uintptr) bool {
	tok := Token(data)
	closures, err := r.arena.Take(tok, int(hint))
	if err != nil {
		return false
	}

	Logger().Debug("closure set abandoned",
		zap.Uint64("token", uint64(tok)),
		zap.Int("count", len(closures)))

	r.notify(Event{Type: EventAbandoned, Token: tok, Count: len(closures)})
	return true
}

// Pending returns the number of registered sets not yet finalized.
func (r *Registry) Pending() int {
	return r.arena.Len()
}

// Close releases every set still pending and stops accepting new ones.
// Engines that never finalize (abrupt teardown) leave their sets here.
func (r *Registry) Close() error {
	var errs error
	for tok, closures := range r.arena.Drain() {
		err := release(closures)
		errs = multierr.Append(errs, err)
		r.notify(Event{Type: EventReleased, Token: tok, Count: len(closures), Err: err})
	}
	return errs
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry) Subscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, o)
}

// Unsubscribe removes an observer.
func (r *Registry) Unsubscribe(o Observer) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, obs := range r.observers {
		if obs == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

func (r *Registry) notify(e Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, o := range r.observers {
		o.OnFinalizerEvent(e)
	}
}

func release(closures []Closure) error {
	var errs error
	for _, c := range closures {
		errs = multierr.Append(errs, c.Release())
	}
	return errs
}
