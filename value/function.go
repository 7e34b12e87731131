package value

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Callback is a native function exposed to the engine. The returned value
// is converted with Encode; nil becomes undefined. A returned error is
// thrown into the engine as an Error unless an exception is already
// pending.
type Callback func(call CallInfo) (any, error)

// CallInfo is what a Callback sees of its invocation.
type CallInfo struct {
	This      Unknown
	NewTarget Unknown
	Args      []Unknown
	Data      uintptr
}

// Len returns the number of arguments passed.
func (c CallInfo) Len() int { return len(c.Args) }

// Arg decodes argument i into dst with validation. Missing arguments read
// as undefined.
func (c CallInfo) Arg(i int, dst any) error {
	r := c.This.raw
	if i < len(c.Args) {
		r = c.Args[i].raw
	} else {
		h, st := r.Table.GetUndefined(r.Env)
		if err := errors.Check(st, "get undefined failed"); err != nil {
			return err
		}
		r = r.with(h, host.Undefined)
	}
	if err := DecodeChecked(r.Table, r.Env, r.Handle, dst); err != nil {
		return errors.AnnotateIndex(err, uint32(i))
	}
	return nil
}

func trampoline(tab host.Table, cb Callback) host.Callback {
	return func(env host.Env, info host.CallbackInfo) host.Handle {
		call := CallInfo{
			This: Unknown{Value[UnknownKind]{raw: RawUnchecked(tab, env, info.This, host.Unknown)}},
			Data: info.Data,
		}
		if info.NewTarget != 0 {
			call.NewTarget = Unknown{Value[UnknownKind]{raw: RawUnchecked(tab, env, info.NewTarget, host.Unknown)}}
		}
		call.Args = make([]Unknown, len(info.Args))
		for i, a := range info.Args {
			call.Args[i] = Unknown{Value[UnknownKind]{raw: RawUnchecked(tab, env, a, host.Unknown)}}
		}

		out, err := cb(call)
		if err == nil {
			var h host.Handle
			if out == nil {
				h, err = undefined(tab, env)
			} else {
				h, err = Encode(tab, env, out)
			}
			if err == nil {
				return h
			}
		}

		throw(tab, env, err)
		return 0
	}
}

func undefined(tab host.Table, env host.Env) (host.Handle, error) {
	h, st := tab.GetUndefined(env)
	return h, errors.Check(st, "get undefined failed")
}

func throw(tab host.Table, env host.Env, err error) {
	if pending, st := tab.IsExceptionPending(env); st == host.OK && pending {
		return
	}
	var code string
	var e *errors.Error
	if stderrors.As(err, &e) {
		code = string(e.Kind)
	}
	if st := tab.ThrowError(env, code, err.Error()); st != host.OK {
		Logger().Warn("callback error could not be thrown",
			zap.Error(err),
			zap.Stringer("status", st))
	}
}

// NewFunction creates a native function named name.
func NewFunction(tab host.Table, env host.Env, name string, cb Callback) (Function, error) {
	if cb == nil {
		return Function{}, errors.InvalidArgument(errors.PhaseEncode, "nil callback for function '%s'", name)
	}
	h, st := tab.CreateFunction(env, name, trampoline(tab, cb), 0)
	r, err := wrapRaw(tab, env, h, host.Function, st, "create function")
	return Function{ObjectValue[FunctionKind]{FromUnchecked[FunctionKind](r)}}, err
}

// Call invokes the function with this bound to recv. A nil recv means
// undefined. Arguments are converted with Encode.
//
// When the function throws, the exception is cleared and returned as a
// PendingException error whose Value is the thrown value.
func (f Function) Call(recv RawAccess, args ...any) (Unknown, error) {
	r := f.raw
	var this host.Handle
	var err error
	if recv == nil {
		this, err = undefined(r.Table, r.Env)
	} else {
		this, err = r.handleOf(recv)
	}
	if err != nil {
		return Unknown{}, err
	}

	argv, err := encodeArgs(r, args)
	if err != nil {
		return Unknown{}, err
	}

	h, st := r.Table.CallFunction(r.Env, this, r.Handle, argv)
	if st != host.OK {
		return Unknown{}, f.failure(st, "call failed")
	}
	return Unknown{Value[UnknownKind]{raw: r.with(h, host.Unknown)}}, nil
}

// New invokes the function as a constructor.
func (f Function) New(args ...any) (Object, error) {
	r := f.raw
	argv, err := encodeArgs(r, args)
	if err != nil {
		return Object{}, err
	}
	h, st := r.Table.NewInstance(r.Env, r.Handle, argv)
	if st != host.OK {
		return Object{}, f.failure(st, "new instance failed")
	}
	return Object{ObjectValue[ObjectKind]{FromUnchecked[ObjectKind](r.with(h, host.Object))}}, nil
}

func encodeArgs(r Raw, args []any) ([]host.Handle, error) {
	argv := make([]host.Handle, len(args))
	for i, a := range args {
		h, err := Encode(r.Table, r.Env, a)
		if err != nil {
			return nil, errors.AnnotateIndex(err, uint32(i))
		}
		argv[i] = h
	}
	return argv, nil
}

// failure turns a failed call into an error, clearing a pending exception
// so the env stays usable.
func (f Function) failure(st host.Status, detail string) error {
	r := f.raw
	base := errors.FromStatus(st)
	base.Detail = detail
	if st != host.PendingException {
		return base
	}

	exc, cst := r.Table.GetAndClearLastException(r.Env)
	if cst != host.OK {
		return base
	}
	thrown := Unknown{Value[UnknownKind]{raw: r.with(exc, host.Unknown)}}
	base.Value = thrown
	if msg, ok := exceptionMessage(thrown); ok {
		base.Detail = detail + ": " + msg
	}
	return base
}

func exceptionMessage(u Unknown) (string, bool) {
	if e, err := Cast[Error](u); err == nil {
		if msg, err := e.Message(); err == nil {
			return msg, true
		}
	}
	s, err := u.CoerceToString()
	if err != nil {
		return "", false
	}
	msg, err := s.UTF8()
	return msg, err == nil
}
