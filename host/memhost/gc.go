package memhost

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (p *intrinsics) all() []*object {
	return []*object{
		p.object, p.function, p.array, p.error, p.date,
		p.promise, p.arrayBuffer, p.typedArray, p.dataView, p.buffer,
	}
}

// collect is a stop-the-world mark and sweep. Roots are the global object,
// the intrinsic prototypes, live handle slots and the pending exception.
// Finalizers of swept objects run after the heap has been rebuilt, so they
// may allocate.
func (s *envState) collect() (int, error) {
	roots := append(s.protos.all(), s.global)
	for _, v := range s.handles {
		if v.obj != nil {
			roots = append(roots, v.obj)
		}
	}
	if s.pending != nil && s.pending.obj != nil {
		roots = append(roots, s.pending.obj)
	}
	mark(roots)

	var dead []*object
	live := make([]*object, 0, len(s.heap))
	for _, o := range s.heap {
		if o.marked {
			o.marked = false
			live = append(live, o)
		} else {
			dead = append(dead, o)
		}
	}
	s.heap = live
	s.allocs = 0

	var errs error
	for _, o := range dead {
		errs = multierr.Append(errs, s.finalize(o))
	}

	Logger().Debug("collected",
		zap.Uint64("env", uint64(s.id)),
		zap.Int("freed", len(dead)),
		zap.Int("live", len(live)))
	return len(dead), errs
}

func mark(stack []*object) {
	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if o == nil || o.marked {
			continue
		}
		o.marked = true
		stack = append(stack, o.proto, o.backing, o.prim.obj)
		for _, p := range o.props {
			stack = append(stack, p.value.obj)
		}
	}
}

// finalize runs and detaches o's finalizers in registration order.
func (s *envState) finalize(o *object) error {
	recs := o.finalizers
	o.finalizers = nil

	var errs error
	for _, r := range recs {
		errs = multierr.Append(errs, s.runFinalizer(r))
	}
	return errs
}

func (s *envState) runFinalizer(r finalizeRec) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("finalizer panicked: %v", p)
		}
	}()
	r.fin(s.id, r.data, r.hint)
	return nil
}
