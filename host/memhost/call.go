package memhost

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/host"
)

// invoke runs a native callback. Handles the callback creates are released
// once its result has been resolved. A panic becomes a pending exception.
func (s *envState) invoke(cb host.Callback, data uintptr, this value, args []value, newTarget *object) (result value, st host.Status) {
	mark := len(s.handles)
	defer func() {
		clear(s.handles[mark:])
		s.handles = s.handles[:mark]
	}()

	info := host.CallbackInfo{
		This: s.push(this),
		Args: make([]host.Handle, len(args)),
		Data: data,
	}
	for i, a := range args {
		info.Args[i] = s.push(a)
	}
	if newTarget != nil {
		info.NewTarget = s.push(objectValue(newTarget))
	}

	defer func() {
		if p := recover(); p != nil {
			Logger().Warn("native callback panicked", zap.Any("panic", p))
			result, st = value{}, s.throw(fmt.Sprintf("native callback panicked: %v", p))
		}
	}()

	h := cb(s.id, info)
	if s.pending != nil {
		return value{}, host.PendingException
	}
	if h == 0 {
		return undefinedValue, host.OK
	}
	v, ok := s.lookup(h)
	if !ok {
		return value{}, s.throwAs("TypeError", "native callback returned a foreign handle")
	}
	return v, host.OK
}

// call invokes fn as a plain function.
func (s *envState) call(fn *object, this value, args []value) (value, host.Status) {
	switch {
	case fn.fn != nil:
		return s.invoke(fn.fn, fn.fnData, this, args, nil)
	case fn.native != nil:
		return fn.native(s, this, args, nil)
	}
	return value{}, s.throwAs("TypeError", fn.name+" is not supported")
}

// construct implements [[Construct]]. Builtins allocate their own result;
// native callbacks receive a fresh receiver whose prototype is fn.prototype
// and may replace it by returning an object.
func (s *envState) construct(fn *object, args []value) (value, host.Status) {
	switch {
	case fn.native != nil:
		return fn.native(s, undefinedValue, args, fn)
	case fn.fn == nil:
		return value{}, s.throwAs("TypeError", fn.name+" is not a constructor")
	}

	proto := s.prototypeOf(fn)
	if proto == nil {
		proto = s.protos.object
	}
	this := objectValue(s.alloc(classObject, proto))
	r, st := s.invoke(fn.fn, fn.fnData, this, args, fn)
	if st != host.OK {
		return value{}, st
	}
	if r.isObject() {
		return r, host.OK
	}
	return this, host.OK
}

// instanceOf walks obj's prototype chain looking for ctor.prototype.
func (s *envState) instanceOf(obj value, ctor *object) (bool, host.Status) {
	proto := s.prototypeOf(ctor)
	if proto == nil {
		return false, s.throwAs("TypeError", "Function has non-object prototype in instanceof check")
	}
	if !obj.isObject() {
		return false, host.OK
	}
	for p := obj.obj.proto; p != nil; p = p.proto {
		if p == proto {
			return true, host.OK
		}
	}
	return false, host.OK
}

func strictEquals(a, b value) bool {
	if a.isObject() || b.isObject() {
		return a.obj == b.obj
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case host.Boolean:
		return a.b == b.b
	case host.Number:
		return a.num == b.num
	case host.String:
		return a.str == b.str
	case host.Symbol:
		return a.sym == b.sym
	}
	return true
}
