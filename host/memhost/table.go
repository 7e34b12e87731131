package memhost

import (
	"github.com/wippyai/jsbind/host"
)

// enter looks env up for operations that may run script code. Like a real
// engine, they refuse to start while an exception is pending.
func (e *Engine) enter(env host.Env) (*envState, host.Status) {
	s, st := e.state(env)
	if st != host.OK {
		return nil, st
	}
	if s.pending != nil {
		return nil, host.PendingException
	}
	return s, host.OK
}

func (e *Engine) create(env host.Env, fn func(s *envState) (value, host.Status)) (host.Handle, host.Status) {
	s, st := e.state(env)
	if st != host.OK {
		return 0, st
	}
	v, st := fn(s)
	if st != host.OK {
		return 0, st
	}
	return s.push(v), host.OK
}

func (e *Engine) read(env host.Env, h host.Handle) (*envState, value, host.Status) {
	s, st := e.state(env)
	if st != host.OK {
		return nil, value{}, st
	}
	v, st := s.get(h)
	return s, v, st
}

// classIs reports whether h is an object of one of the given classes.
func (e *Engine) classIs(env host.Env, h host.Handle, classes ...class) (bool, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return false, st
	}
	if !v.isObject() {
		return false, host.OK
	}
	for _, c := range classes {
		if v.obj.class == c {
			return true, host.OK
		}
	}
	return false, host.OK
}

// TypeOf implements host.Table.
func (e *Engine) TypeOf(env host.Env, h host.Handle) (host.ValueType, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return 0, st
	}
	return v.kind, host.OK
}

func (e *Engine) GetUndefined(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(*envState) (value, host.Status) { return undefinedValue, host.OK })
}

func (e *Engine) GetNull(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(*envState) (value, host.Status) { return nullValue, host.OK })
}

func (e *Engine) GetGlobal(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) { return objectValue(s.global), host.OK })
}

func (e *Engine) GetBoolean(env host.Env, b bool) (host.Handle, host.Status) {
	return e.create(env, func(*envState) (value, host.Status) { return boolValue(b), host.OK })
}

func (e *Engine) CreateDouble(env host.Env, f float64) (host.Handle, host.Status) {
	return e.create(env, func(*envState) (value, host.Status) { return numberValue(f), host.OK })
}

func (e *Engine) CreateInt32(env host.Env, n int32) (host.Handle, host.Status) {
	return e.CreateDouble(env, float64(n))
}

func (e *Engine) CreateUint32(env host.Env, n uint32) (host.Handle, host.Status) {
	return e.CreateDouble(env, float64(n))
}

func (e *Engine) CreateInt64(env host.Env, n int64) (host.Handle, host.Status) {
	return e.CreateDouble(env, float64(n))
}

func (e *Engine) CreateStringUTF8(env host.Env, str string) (host.Handle, host.Status) {
	return e.create(env, func(*envState) (value, host.Status) { return stringValue(str), host.OK })
}

// CreateSymbol takes an optional string description; 0 means none.
func (e *Engine) CreateSymbol(env host.Env, description host.Handle) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		sym := &symbol{}
		if description != 0 {
			d, st := s.get(description)
			if st != host.OK {
				return value{}, st
			}
			if d.kind != host.String {
				return value{}, host.StringExpected
			}
			sym.description = d.str
		}
		return value{kind: host.Symbol, sym: sym}, host.OK
	})
}

func (e *Engine) CreateObject(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.alloc(classObject, s.protos.object)), host.OK
	})
}

func (e *Engine) CreateArray(env host.Env) (host.Handle, host.Status) {
	return e.CreateArrayWithLength(env, 0)
}

func (e *Engine) CreateArrayWithLength(env host.Env, length uint32) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.newArray(length)), host.OK
	})
}

// CreateExternal wraps data in an opaque value. fin, when set, runs once
// the value is collected.
func (e *Engine) CreateExternal(env host.Env, data uintptr, fin host.Finalize, hint uintptr) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		o := s.alloc(classExternal, nil)
		o.external = data
		if fin != nil {
			o.finalizers = append(o.finalizers, finalizeRec{fin: fin, data: data, hint: hint})
		}
		return objectValue(o), host.OK
	})
}

func (e *Engine) CreateFunction(env host.Env, name string, cb host.Callback, data uintptr) (host.Handle, host.Status) {
	if cb == nil {
		return 0, host.InvalidArg
	}
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.newFunction(name, cb, data)), host.OK
	})
}

// CreateError requires a string message; code is optional (0).
func (e *Engine) CreateError(env host.Env, code, msg host.Handle) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		m, st := s.get(msg)
		if st != host.OK {
			return value{}, st
		}
		if m.kind != host.String {
			return value{}, host.StringExpected
		}
		c := undefinedValue
		if code != 0 {
			if c, st = s.get(code); st != host.OK {
				return value{}, st
			}
			if c.kind != host.String {
				return value{}, host.StringExpected
			}
		}
		return objectValue(s.newError(c, m, s.protos.error)), host.OK
	})
}

func (e *Engine) CreateArrayBuffer(env host.Env, data []byte) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.newArrayBuffer(append([]byte(nil), data...))), host.OK
	})
}

// CreateBuffer copies data into a Uint8Array-like view over a fresh
// ArrayBuffer.
func (e *Engine) CreateBuffer(env host.Env, data []byte) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		o := s.alloc(classBuffer, s.protos.buffer)
		o.backing = s.newArrayBuffer(append(make([]byte, 0, len(data)), data...))
		o.length = uint32(len(data))
		o.taType = host.Uint8Array
		return objectValue(o), host.OK
	})
}

func (e *Engine) CreateTypedArray(env host.Env, typ host.TypedArrayType, length uint32, arrayBuffer host.Handle, byteOffset uint32) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		ab, st := s.arrayBuffer(arrayBuffer)
		if st != host.OK {
			return value{}, st
		}
		size := typ.ElementSize()
		if size == 0 {
			return value{}, host.InvalidArg
		}
		if byteOffset%size != 0 {
			return value{}, s.throwAs("RangeError", "start offset should be a multiple of the element size")
		}
		if uint64(byteOffset)+uint64(length)*uint64(size) > uint64(len(ab.data)) {
			return value{}, s.throwAs("RangeError", "Invalid typed array length")
		}
		o := s.alloc(classTypedArray, s.protos.typedArray)
		o.backing = ab
		o.offset = byteOffset
		o.length = length
		o.taType = typ
		return objectValue(o), host.OK
	})
}

func (e *Engine) CreateDataView(env host.Env, length uint32, arrayBuffer host.Handle, byteOffset uint32) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		ab, st := s.arrayBuffer(arrayBuffer)
		if st != host.OK {
			return value{}, st
		}
		if uint64(byteOffset)+uint64(length) > uint64(len(ab.data)) {
			return value{}, s.throwAs("RangeError", "byte_offset + byte_length should be less than or equal to the size in bytes of the array passed in")
		}
		o := s.alloc(classDataView, s.protos.dataView)
		o.backing = ab
		o.offset = byteOffset
		o.length = length
		return objectValue(o), host.OK
	})
}

func (s *envState) arrayBuffer(h host.Handle) (*object, host.Status) {
	v, st := s.get(h)
	if st != host.OK {
		return nil, st
	}
	if !v.isObject() || v.obj.class != classArrayBuffer {
		return nil, host.InvalidArg
	}
	return v.obj, host.OK
}

func (e *Engine) CreateDate(env host.Env, t float64) (host.Handle, host.Status) {
	if _, st := e.at(env, host.FeatureDate); st != host.OK {
		return 0, st
	}
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.newDate(t)), host.OK
	})
}

func (e *Engine) CreatePromise(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		return objectValue(s.alloc(classPromise, s.protos.promise)), host.OK
	})
}

func (e *Engine) GetValueBool(env host.Env, h host.Handle) (bool, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return false, st
	}
	if v.kind != host.Boolean {
		return false, host.BooleanExpected
	}
	return v.b, host.OK
}

func (e *Engine) number(env host.Env, h host.Handle) (float64, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return 0, st
	}
	if v.kind != host.Number {
		return 0, host.NumberExpected
	}
	return v.num, host.OK
}

func (e *Engine) GetValueDouble(env host.Env, h host.Handle) (float64, host.Status) {
	return e.number(env, h)
}

// GetValueInt32 applies ToInt32; non-finite numbers read as 0.
func (e *Engine) GetValueInt32(env host.Env, h host.Handle) (int32, host.Status) {
	n, st := e.number(env, h)
	return toInt32(n), st
}

func (e *Engine) GetValueUint32(env host.Env, h host.Handle) (uint32, host.Status) {
	n, st := e.number(env, h)
	return toUint32(n), st
}

// GetValueInt64 truncates and saturates; non-finite numbers read as 0.
func (e *Engine) GetValueInt64(env host.Env, h host.Handle) (int64, host.Status) {
	n, st := e.number(env, h)
	return toInt64(n), st
}

func (e *Engine) GetValueStringUTF8(env host.Env, h host.Handle) (string, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return "", st
	}
	if v.kind != host.String {
		return "", host.StringExpected
	}
	return v.str, host.OK
}

func (e *Engine) GetValueExternal(env host.Env, h host.Handle) (uintptr, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return 0, st
	}
	if !v.isObject() || v.obj.class != classExternal {
		return 0, host.InvalidArg
	}
	return v.obj.external, host.OK
}

func (e *Engine) GetDateValue(env host.Env, h host.Handle) (float64, host.Status) {
	if _, st := e.at(env, host.FeatureDate); st != host.OK {
		return 0, st
	}
	_, v, st := e.read(env, h)
	if st != host.OK {
		return 0, st
	}
	if !v.isObject() || v.obj.class != classDate {
		return 0, host.DateExpected
	}
	return v.obj.date, host.OK
}

// GetBufferInfo returns the live bytes behind a Buffer.
func (e *Engine) GetBufferInfo(env host.Env, h host.Handle) ([]byte, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return nil, st
	}
	if !v.isObject() || v.obj.class != classBuffer {
		return nil, host.InvalidArg
	}
	o := v.obj
	return o.backing.data[o.offset : o.offset+o.length], host.OK
}

// GetArrayBufferInfo returns the live bytes of an ArrayBuffer.
func (e *Engine) GetArrayBufferInfo(env host.Env, h host.Handle) ([]byte, host.Status) {
	_, v, st := e.read(env, h)
	if st != host.OK {
		return nil, st
	}
	if !v.isObject() || v.obj.class != classArrayBuffer {
		return nil, host.InvalidArg
	}
	return v.obj.data, host.OK
}

func (e *Engine) coerce(env host.Env, h host.Handle, fn func(s *envState, v value) (value, host.Status)) (host.Handle, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return 0, st
	}
	v, st := s.get(h)
	if st != host.OK {
		return 0, st
	}
	r, st := fn(s, v)
	if st != host.OK {
		return 0, st
	}
	return s.push(r), host.OK
}

func (e *Engine) CoerceToBool(env host.Env, h host.Handle) (host.Handle, host.Status) {
	return e.coerce(env, h, func(s *envState, v value) (value, host.Status) {
		return boolValue(s.toBoolean(v)), host.OK
	})
}

func (e *Engine) CoerceToNumber(env host.Env, h host.Handle) (host.Handle, host.Status) {
	return e.coerce(env, h, func(s *envState, v value) (value, host.Status) {
		n, st := s.toNumber(v)
		return numberValue(n), st
	})
}

func (e *Engine) CoerceToString(env host.Env, h host.Handle) (host.Handle, host.Status) {
	return e.coerce(env, h, func(s *envState, v value) (value, host.Status) {
		str, st := s.toString(v)
		return stringValue(str), st
	})
}

func (e *Engine) CoerceToObject(env host.Env, h host.Handle) (host.Handle, host.Status) {
	return e.coerce(env, h, (*envState).toObject)
}

func (e *Engine) IsArray(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classArray)
}

func (e *Engine) IsArrayBuffer(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classArrayBuffer)
}

func (e *Engine) IsBuffer(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classBuffer)
}

// IsTypedArray is true for Buffers too; they are Uint8Array views.
func (e *Engine) IsTypedArray(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classTypedArray, classBuffer)
}

func (e *Engine) IsDataView(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classDataView)
}

func (e *Engine) IsDate(env host.Env, h host.Handle) (bool, host.Status) {
	if _, st := e.at(env, host.FeatureDate); st != host.OK {
		return false, st
	}
	return e.classIs(env, h, classDate)
}

func (e *Engine) IsPromise(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classPromise)
}

func (e *Engine) IsError(env host.Env, h host.Handle) (bool, host.Status) {
	return e.classIs(env, h, classError)
}

func (e *Engine) InstanceOf(env host.Env, obj, constructor host.Handle) (bool, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return false, st
	}
	v, st := s.get(obj)
	if st != host.OK {
		return false, st
	}
	c, st := s.get(constructor)
	if st != host.OK {
		return false, st
	}
	if c.kind != host.Function {
		s.throwAs("TypeError", "Constructor must be a function")
		return false, host.FunctionExpected
	}
	return s.instanceOf(v, c.obj)
}

func (e *Engine) StrictEquals(env host.Env, a, b host.Handle) (bool, host.Status) {
	s, st := e.state(env)
	if st != host.OK {
		return false, st
	}
	va, st := s.get(a)
	if st != host.OK {
		return false, st
	}
	vb, st := s.get(b)
	if st != host.OK {
		return false, st
	}
	return strictEquals(va, vb), host.OK
}

func (e *Engine) Throw(env host.Env, err host.Handle) host.Status {
	s, v, st := e.read(env, err)
	if st != host.OK {
		return st
	}
	s.pending = &v
	return host.OK
}

// ThrowError throws a new Error with message msg and, when non-empty, a
// code property.
func (e *Engine) ThrowError(env host.Env, code, msg string) host.Status {
	s, st := e.state(env)
	if st != host.OK {
		return st
	}
	c := undefinedValue
	if code != "" {
		c = stringValue(code)
	}
	v := objectValue(s.newError(c, stringValue(msg), s.protos.error))
	s.pending = &v
	return host.OK
}

func (e *Engine) IsExceptionPending(env host.Env) (bool, host.Status) {
	s, st := e.state(env)
	if st != host.OK {
		return false, st
	}
	return s.pending != nil, host.OK
}

// GetAndClearLastException returns undefined when nothing is pending.
func (e *Engine) GetAndClearLastException(env host.Env) (host.Handle, host.Status) {
	return e.create(env, func(s *envState) (value, host.Status) {
		if s.pending == nil {
			return undefinedValue, host.OK
		}
		v := *s.pending
		s.pending = nil
		return v, host.OK
	})
}

func (e *Engine) CallFunction(env host.Env, recv, fn host.Handle, args []host.Handle) (host.Handle, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return 0, st
	}
	this, st := s.get(recv)
	if st != host.OK {
		return 0, st
	}
	f, st := s.get(fn)
	if st != host.OK {
		return 0, st
	}
	if f.kind != host.Function {
		return 0, host.FunctionExpected
	}
	argv, st := s.values(args)
	if st != host.OK {
		return 0, st
	}
	r, st := s.call(f.obj, this, argv)
	if st != host.OK {
		return 0, st
	}
	return s.push(r), host.OK
}

func (e *Engine) NewInstance(env host.Env, constructor host.Handle, args []host.Handle) (host.Handle, host.Status) {
	s, st := e.enter(env)
	if st != host.OK {
		return 0, st
	}
	f, st := s.get(constructor)
	if st != host.OK {
		return 0, st
	}
	if f.kind != host.Function {
		return 0, host.FunctionExpected
	}
	argv, st := s.values(args)
	if st != host.OK {
		return 0, st
	}
	r, st := s.construct(f.obj, argv)
	if st != host.OK {
		return 0, st
	}
	return s.push(r), host.OK
}

func (s *envState) values(hs []host.Handle) ([]value, host.Status) {
	out := make([]value, len(hs))
	for i, h := range hs {
		v, st := s.get(h)
		if st != host.OK {
			return nil, st
		}
		out[i] = v
	}
	return out, host.OK
}

// AddFinalizer attaches fin to obj. It runs once, when obj is collected or
// its env is closed.
func (e *Engine) AddFinalizer(env host.Env, obj host.Handle, data uintptr, fin host.Finalize, hint uintptr) host.Status {
	s, st := e.at(env, host.FeatureFinalizers)
	if st != host.OK {
		return st
	}
	if fin == nil {
		return host.InvalidArg
	}
	o, st := s.getObject(obj)
	if st != host.OK {
		return st
	}
	o.finalizers = append(o.finalizers, finalizeRec{fin: fin, data: data, hint: hint})
	return host.OK
}

func (e *Engine) ObjectFreeze(env host.Env, obj host.Handle) host.Status {
	return e.lock(env, obj, true)
}

func (e *Engine) ObjectSeal(env host.Env, obj host.Handle) host.Status {
	return e.lock(env, obj, false)
}

func (e *Engine) lock(env host.Env, obj host.Handle, freeze bool) host.Status {
	if _, st := e.at(env, host.FeatureObjectSeal); st != host.OK {
		return st
	}
	s, st := e.enter(env)
	if st != host.OK {
		return st
	}
	o, st := s.getObject(obj)
	if st != host.OK {
		return st
	}
	if freeze && o.isView() && o.length > 0 {
		return s.throwAs("TypeError", "Cannot freeze array buffer views with elements")
	}
	s.lock(o, freeze)
	return host.OK
}
