package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/host"
)

func (t *Table) id() uint32 {
	t.nextID++
	if t.nextID == 0 {
		t.nextID++
	}
	return t.nextID
}

func (t *Table) registerCallback(cb host.Callback) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.callbacks == nil {
		return 0
	}
	id := t.id()
	t.callbacks[id] = cb
	return id
}

func (t *Table) dropCallback(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.callbacks, id)
}

// registerFinalizer returns 0 for a nil fin, which the guest treats as no
// finalizer.
func (t *Table) registerFinalizer(fin host.Finalize) uint32 {
	if fin == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finalizers == nil {
		return 0
	}
	id := t.id()
	t.finalizers[id] = fin
	return id
}

func (t *Table) dropFinalizer(id uint32) {
	if id == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.finalizers, id)
}

// dispatch runs the Go callback behind id for the guest. A panicking
// callback is turned into a thrown Error.
func (t *Table) dispatch(env, id, info uint32) (result uint32) {
	t.mu.Lock()
	cb := t.callbacks[id]
	t.mu.Unlock()

	e := host.Env(env)
	if cb == nil {
		t.ThrowError(e, "", fmt.Sprintf("unknown callback %d", id))
		return 0
	}

	ci, st := t.callbackInfo(e, info)
	if st != host.OK {
		t.ThrowError(e, "", "reading callback info failed: "+st.String())
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			Logger().Error("callback panicked",
				zap.Uint32("callback", id),
				zap.Any("panic", r))
			t.ThrowError(e, "", fmt.Sprint(r))
			result = 0
		}
	}()
	return uint32(cb(e, ci))
}

// callbackInfo reads the receiver, arguments and data of a guest call in
// two passes: the first learns argc, the second fills argv.
func (t *Table) callbackInfo(env host.Env, info uint32) (host.CallbackInfo, host.Status) {
	const name = "napi_get_cb_info"
	var ci host.CallbackInfo

	st := t.withFrame(func(frame uint32) host.Status {
		argcPtr, thisPtr, dataPtr := frame, frame+4, frame+8
		if err := t.mem.WriteU32(argcPtr, 0); err != nil {
			return t.fault(name, err)
		}
		if st := t.invoke(name, envArg(env), uint64(info), uint64(argcPtr), 0, uint64(thisPtr), uint64(dataPtr)); st != host.OK {
			return st
		}
		argc, err := t.mem.ReadU32(argcPtr)
		if err != nil {
			return t.fault(name, err)
		}
		this, err := t.mem.ReadU32(thisPtr)
		if err != nil {
			return t.fault(name, err)
		}
		data, err := t.mem.ReadU64(dataPtr)
		if err != nil {
			return t.fault(name, err)
		}
		ci.This = host.Handle(this)
		ci.Data = uintptr(data)
		if argc == 0 {
			return host.OK
		}

		return t.withBytes(name, make([]byte, 4*argc), func(argv uint32) host.Status {
			if err := t.mem.WriteU32(argcPtr, argc); err != nil {
				return t.fault(name, err)
			}
			if st := t.invoke(name, envArg(env), uint64(info), uint64(argcPtr), uint64(argv), 0, 0); st != host.OK {
				return st
			}
			ci.Args = make([]host.Handle, argc)
			for i := range ci.Args {
				a, err := t.mem.ReadU32(argv + 4*uint32(i))
				if err != nil {
					return t.fault(name, err)
				}
				ci.Args[i] = host.Handle(a)
			}
			return host.OK
		})
	})
	if st != host.OK {
		return ci, st
	}

	if nt, st := t.handleOut("napi_get_new_target", envArg(env), uint64(info)); st == host.OK {
		ci.NewTarget = nt
	}
	return ci, host.OK
}

// finalize runs and forgets the finalizer behind id. Unknown ids are
// logged; the guest may fire late after Close.
func (t *Table) finalize(env, id uint32, data, hint uint64) {
	t.mu.Lock()
	fin := t.finalizers[id]
	delete(t.finalizers, id)
	t.mu.Unlock()

	if fin == nil {
		Logger().Warn("finalize for unknown id", zap.Uint32("finalizer", id))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			Logger().Error("finalizer panicked",
				zap.Uint32("finalizer", id),
				zap.Any("panic", r))
		}
	}()
	fin(host.Env(env), uintptr(data), uintptr(hint))
}
