package memhost

import (
	"math"
	"time"

	"github.com/wippyai/jsbind/host"
)

// value is what a handle slot holds. Primitives are stored inline; objects
// and symbols by reference.
type value struct {
	obj  *object
	sym  *symbol
	str  string
	num  float64
	kind host.ValueType
	b    bool
}

var (
	undefinedValue = value{kind: host.Undefined}
	nullValue      = value{kind: host.Null}
)

func boolValue(b bool) value      { return value{kind: host.Boolean, b: b} }
func numberValue(f float64) value { return value{kind: host.Number, num: f} }
func stringValue(s string) value  { return value{kind: host.String, str: s} }

func objectValue(o *object) value {
	switch o.class {
	case classFunction:
		return value{kind: host.Function, obj: o}
	case classExternal:
		return value{kind: host.External, obj: o}
	}
	return value{kind: host.Object, obj: o}
}

func (v value) isObject() bool { return v.obj != nil }

type symbol struct {
	description string
}

type class uint8

const (
	classObject class = iota
	classArray
	classFunction
	classError
	classDate
	classPromise
	classArrayBuffer
	classBuffer
	classTypedArray
	classDataView
	classExternal
	classBoxed
)

// builtin is a function implemented by the engine itself.
type builtin func(s *envState, this value, args []value, newTarget *object) (value, host.Status)

type finalizeRec struct {
	fin  host.Finalize
	data uintptr
	hint uintptr
}

type propKey struct {
	sym  *symbol
	name string
}

type property struct {
	getter   host.Callback
	setter   host.Callback
	value    value
	data     uintptr
	attrs    host.PropertyAttributes
	accessor bool
}

func (p *property) has(a host.PropertyAttributes) bool { return p.attrs&a != 0 }

type object struct {
	props      map[propKey]*property
	proto      *object
	fn         host.Callback
	native     builtin
	backing    *object
	data       []byte
	finalizers []finalizeRec
	keys       []propKey
	name       string
	prim       value
	date       float64
	fnData     uintptr
	external   uintptr
	offset     uint32
	length     uint32
	arrayLen   uint32
	taType     host.TypedArrayType
	class      class
	extensible bool
	marked     bool
}

type intrinsics struct {
	object      *object
	function    *object
	array       *object
	error       *object
	date        *object
	promise     *object
	arrayBuffer *object
	typedArray  *object
	dataView    *object
	buffer      *object
}

type envState struct {
	global  *object
	pending *value
	heap    []*object
	handles []value
	scopes  []int
	protos  intrinsics
	allocs  int
	id      host.Env
}

func newEnvState(id host.Env) *envState {
	s := &envState{id: id}

	p := &s.protos
	p.object = s.alloc(classObject, nil)
	p.function = s.alloc(classObject, p.object)
	p.array = s.alloc(classObject, p.object)
	p.error = s.alloc(classObject, p.object)
	p.date = s.alloc(classObject, p.object)
	p.promise = s.alloc(classObject, p.object)
	p.arrayBuffer = s.alloc(classObject, p.object)
	p.typedArray = s.alloc(classObject, p.object)
	p.dataView = s.alloc(classObject, p.object)
	p.buffer = s.alloc(classObject, p.typedArray)

	s.global = s.alloc(classObject, p.object)
	s.defineHidden(s.global, "globalThis", objectValue(s.global))

	s.constructor("Object", p.object, builtinObject)
	s.constructor("Array", p.array, builtinArray)
	s.constructor("Error", p.error, builtinError)
	s.constructor("Date", p.date, builtinDate)
	s.constructor("Promise", p.promise, builtinPromise)
	s.constructor("Function", p.function, nil)

	s.defineHidden(p.error, "name", stringValue("Error"))
	s.defineHidden(p.error, "message", stringValue(""))

	s.allocs = 0
	return s
}

func (s *envState) alloc(c class, proto *object) *object {
	o := &object{
		class:      c,
		proto:      proto,
		props:      make(map[propKey]*property),
		extensible: true,
	}
	s.heap = append(s.heap, o)
	s.allocs++
	return o
}

// push stores v in a new handle slot.
func (s *envState) push(v value) host.Handle {
	s.handles = append(s.handles, v)
	return host.Handle(uintptr(s.id)<<handleBits | uintptr(len(s.handles)))
}

func (s *envState) lookup(h host.Handle) (value, bool) {
	if h == 0 || uintptr(h)>>handleBits != uintptr(s.id) {
		return value{}, false
	}
	idx := int(uintptr(h)&handleMask) - 1
	if idx < 0 || idx >= len(s.handles) {
		return value{}, false
	}
	return s.handles[idx], true
}

// get resolves h, reporting InvalidArg for stale or foreign handles.
func (s *envState) get(h host.Handle) (value, host.Status) {
	v, ok := s.lookup(h)
	if !ok {
		return value{}, host.InvalidArg
	}
	return v, host.OK
}

// getObject resolves h and requires an object-like value.
func (s *envState) getObject(h host.Handle) (*object, host.Status) {
	v, st := s.get(h)
	if st != host.OK {
		return nil, st
	}
	if !v.isObject() {
		return nil, host.ObjectExpected
	}
	return v.obj, host.OK
}

func (s *envState) defineHidden(o *object, name string, v value) {
	s.defineOwn(o, propKey{name: name}, &property{
		value: v,
		attrs: host.AttrWritable | host.AttrConfigurable,
	})
}

func (s *envState) constructor(name string, proto *object, fn builtin) {
	ctor := s.newBuiltin(name, fn)
	s.defineHidden(ctor, "prototype", objectValue(proto))
	s.defineHidden(proto, "constructor", objectValue(ctor))
	s.defineHidden(s.global, name, objectValue(ctor))
}

func (s *envState) newBuiltin(name string, fn builtin) *object {
	o := s.alloc(classFunction, s.protos.function)
	o.native = fn
	o.name = name
	s.defineOwn(o, propKey{name: "name"}, &property{value: stringValue(name), attrs: host.AttrConfigurable})
	return o
}

func (s *envState) newFunction(name string, cb host.Callback, data uintptr) *object {
	o := s.alloc(classFunction, s.protos.function)
	o.fn = cb
	o.fnData = data
	o.name = name
	s.defineOwn(o, propKey{name: "name"}, &property{value: stringValue(name), attrs: host.AttrConfigurable})
	proto := s.alloc(classObject, s.protos.object)
	s.defineHidden(proto, "constructor", objectValue(o))
	s.defineOwn(o, propKey{name: "prototype"}, &property{value: objectValue(proto), attrs: host.AttrWritable})
	return o
}

func (s *envState) newArray(length uint32) *object {
	o := s.alloc(classArray, s.protos.array)
	o.arrayLen = length
	return o
}

func (s *envState) newError(code, msg value, proto *object) *object {
	o := s.alloc(classError, proto)
	s.defineHidden(o, "message", msg)
	if code.kind == host.String {
		s.defineHidden(o, "code", code)
	}
	return o
}

// throw makes a fresh Error with msg the pending exception.
func (s *envState) throw(msg string) host.Status {
	err := s.newError(undefinedValue, stringValue(msg), s.protos.error)
	v := objectValue(err)
	s.pending = &v
	return host.PendingException
}

func (s *envState) newDate(ms float64) *object {
	o := s.alloc(classDate, s.protos.date)
	o.date = timeClip(ms)
	return o
}

func timeClip(ms float64) float64 {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > 8.64e15 {
		return math.NaN()
	}
	return math.Trunc(ms) + 0 // +0 normalizes -0
}

func (s *envState) newArrayBuffer(data []byte) *object {
	o := s.alloc(classArrayBuffer, s.protos.arrayBuffer)
	o.data = data
	return o
}

func builtinObject(s *envState, _ value, args []value, _ *object) (value, host.Status) {
	if len(args) > 0 {
		switch a := args[0]; {
		case a.isObject():
			return a, host.OK
		case a.kind != host.Undefined && a.kind != host.Null:
			return s.toObject(a)
		}
	}
	return objectValue(s.alloc(classObject, s.protos.object)), host.OK
}

func builtinArray(s *envState, _ value, args []value, _ *object) (value, host.Status) {
	if len(args) == 1 && args[0].kind == host.Number {
		n := args[0].num
		if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
			return value{}, s.throw("Invalid array length")
		}
		return objectValue(s.newArray(uint32(n))), host.OK
	}
	arr := s.newArray(0)
	for i, a := range args {
		s.setIndex(arr, uint32(i), a)
	}
	return objectValue(arr), host.OK
}

func builtinError(s *envState, _ value, args []value, newTarget *object) (value, host.Status) {
	msg := stringValue("")
	if len(args) > 0 && args[0].kind != host.Undefined {
		str, st := s.toString(args[0])
		if st != host.OK {
			return value{}, st
		}
		msg = stringValue(str)
	}
	proto := s.protos.error
	if newTarget != nil {
		if p := s.prototypeOf(newTarget); p != nil {
			proto = p
		}
	}
	return objectValue(s.newError(undefinedValue, msg, proto)), host.OK
}

func builtinDate(s *envState, _ value, args []value, _ *object) (value, host.Status) {
	ms := float64(time.Now().UnixMilli())
	if len(args) > 0 {
		n, st := s.toNumber(args[0])
		if st != host.OK {
			return value{}, st
		}
		ms = n
	}
	return objectValue(s.newDate(ms)), host.OK
}

func builtinPromise(s *envState, _ value, _ []value, _ *object) (value, host.Status) {
	return objectValue(s.alloc(classPromise, s.protos.promise)), host.OK
}

// prototypeOf reads ctor.prototype when it is an object.
func (s *envState) prototypeOf(ctor *object) *object {
	p, ok := ctor.props[propKey{name: "prototype"}]
	if !ok || p.accessor || !p.value.isObject() {
		return nil
	}
	return p.value.obj
}
