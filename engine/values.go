package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jsbind/host"
)

func (t *Table) TypeOf(env host.Env, v host.Handle) (host.ValueType, host.Status) {
	n, st := t.u32Out("napi_typeof", envArg(env), handleArg(v))
	return host.ValueType(int32(n)), st
}

func (t *Table) GetUndefined(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_get_undefined", envArg(env))
}

func (t *Table) GetNull(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_get_null", envArg(env))
}

func (t *Table) GetGlobal(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_get_global", envArg(env))
}

func (t *Table) GetBoolean(env host.Env, v bool) (host.Handle, host.Status) {
	return t.handleOut("napi_get_boolean", envArg(env), boolArg(v))
}

func (t *Table) CreateDouble(env host.Env, f float64) (host.Handle, host.Status) {
	return t.handleOut("napi_create_double", envArg(env), api.EncodeF64(f))
}

func (t *Table) CreateInt32(env host.Env, n int32) (host.Handle, host.Status) {
	return t.handleOut("napi_create_int32", envArg(env), api.EncodeI32(n))
}

func (t *Table) CreateUint32(env host.Env, n uint32) (host.Handle, host.Status) {
	return t.handleOut("napi_create_uint32", envArg(env), api.EncodeU32(n))
}

func (t *Table) CreateInt64(env host.Env, n int64) (host.Handle, host.Status) {
	return t.handleOut("napi_create_int64", envArg(env), api.EncodeI64(n))
}

func (t *Table) CreateStringUTF8(env host.Env, s string) (host.Handle, host.Status) {
	var out host.Handle
	st := t.withString("create string", s, func(ptr, n uint32) host.Status {
		var st host.Status
		out, st = t.handleOut("napi_create_string_utf8", envArg(env), uint64(ptr), uint64(n))
		return st
	})
	return out, st
}

func (t *Table) CreateSymbol(env host.Env, description host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_create_symbol", envArg(env), handleArg(description))
}

func (t *Table) CreateObject(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_create_object", envArg(env))
}

func (t *Table) CreateArray(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_create_array", envArg(env))
}

func (t *Table) CreateArrayWithLength(env host.Env, length uint32) (host.Handle, host.Status) {
	return t.handleOut("napi_create_array_with_length", envArg(env), uint64(length))
}

// CreateExternal registers fin, when set, to run once the guest collects
// the external.
func (t *Table) CreateExternal(env host.Env, data uintptr, fin host.Finalize, hint uintptr) (host.Handle, host.Status) {
	id := t.registerFinalizer(fin)
	out, st := t.handleOut("napi_create_external", envArg(env), uint64(data), uint64(id), uint64(hint))
	if st != host.OK {
		t.dropFinalizer(id)
	}
	return out, st
}

func (t *Table) CreateFunction(env host.Env, name string, cb host.Callback, data uintptr) (host.Handle, host.Status) {
	if cb == nil {
		return 0, host.InvalidArg
	}
	id := t.registerCallback(cb)
	var out host.Handle
	st := t.withString("create function", name, func(ptr, n uint32) host.Status {
		var st host.Status
		out, st = t.handleOut("napi_create_function", envArg(env), uint64(ptr), uint64(n), uint64(id), uint64(data))
		return st
	})
	if st != host.OK {
		t.dropCallback(id)
	}
	return out, st
}

func (t *Table) CreateError(env host.Env, code, msg host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_create_error", envArg(env), handleArg(code), handleArg(msg))
}

func (t *Table) CreateArrayBuffer(env host.Env, data []byte) (host.Handle, host.Status) {
	return t.createBacked("napi_create_arraybuffer", env, data)
}

func (t *Table) CreateBuffer(env host.Env, data []byte) (host.Handle, host.Status) {
	return t.createBacked("napi_create_buffer", env, data)
}

// createBacked lets the guest allocate the backing store, then copies data
// into it.
func (t *Table) createBacked(name string, env host.Env, data []byte) (host.Handle, host.Status) {
	var out host.Handle
	st := t.withFrame(func(frame uint32) host.Status {
		if st := t.invoke(name, envArg(env), uint64(len(data)), uint64(frame), uint64(frame+4)); st != host.OK {
			return st
		}
		ptr, err := t.mem.ReadU32(frame)
		if err != nil {
			return t.fault(name, err)
		}
		v, err := t.mem.ReadU32(frame + 4)
		if err != nil {
			return t.fault(name, err)
		}
		if len(data) > 0 {
			if err := t.mem.Write(ptr, data); err != nil {
				return t.fault(name, err)
			}
		}
		out = host.Handle(v)
		return host.OK
	})
	return out, st
}

func (t *Table) CreateTypedArray(env host.Env, typ host.TypedArrayType, length uint32, arrayBuffer host.Handle, byteOffset uint32) (host.Handle, host.Status) {
	return t.handleOut("napi_create_typedarray", envArg(env), uint64(typ), uint64(length), handleArg(arrayBuffer), uint64(byteOffset))
}

func (t *Table) CreateDataView(env host.Env, length uint32, arrayBuffer host.Handle, byteOffset uint32) (host.Handle, host.Status) {
	return t.handleOut("napi_create_dataview", envArg(env), uint64(length), handleArg(arrayBuffer), uint64(byteOffset))
}

func (t *Table) CreateDate(env host.Env, ms float64) (host.Handle, host.Status) {
	return t.handleOut("napi_create_date", envArg(env), api.EncodeF64(ms))
}

func (t *Table) CreatePromise(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_create_promise", envArg(env))
}

func (t *Table) GetValueBool(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_get_value_bool", envArg(env), handleArg(v))
}

func (t *Table) GetValueDouble(env host.Env, v host.Handle) (float64, host.Status) {
	return t.f64Out("napi_get_value_double", envArg(env), handleArg(v))
}

func (t *Table) GetValueInt32(env host.Env, v host.Handle) (int32, host.Status) {
	n, st := t.u32Out("napi_get_value_int32", envArg(env), handleArg(v))
	return int32(n), st
}

func (t *Table) GetValueUint32(env host.Env, v host.Handle) (uint32, host.Status) {
	return t.u32Out("napi_get_value_uint32", envArg(env), handleArg(v))
}

func (t *Table) GetValueInt64(env host.Env, v host.Handle) (int64, host.Status) {
	n, st := t.u64Out("napi_get_value_int64", envArg(env), handleArg(v))
	return int64(n), st
}

// GetValueStringUTF8 asks for the length first, then copies the bytes out
// through a guest buffer.
func (t *Table) GetValueStringUTF8(env host.Env, v host.Handle) (string, host.Status) {
	const name = "napi_get_value_string_utf8"
	n, st := t.u32Out(name, envArg(env), handleArg(v), 0, 0)
	if st != host.OK || n == 0 {
		return "", st
	}

	buf, err := t.alloc.Alloc(n + 1)
	if err != nil {
		return "", t.fault(name, err)
	}
	defer t.release(buf)

	copied, st := t.u32Out(name, envArg(env), handleArg(v), uint64(buf), uint64(n+1))
	if st != host.OK {
		return "", st
	}
	s, err := t.mem.ReadString(buf, min(copied, n))
	if err != nil {
		return "", t.fault(name, err)
	}
	return s, host.OK
}

func (t *Table) GetValueExternal(env host.Env, v host.Handle) (uintptr, host.Status) {
	n, st := t.u64Out("napi_get_value_external", envArg(env), handleArg(v))
	return uintptr(n), st
}

func (t *Table) GetDateValue(env host.Env, v host.Handle) (float64, host.Status) {
	return t.f64Out("napi_get_date_value", envArg(env), handleArg(v))
}

func (t *Table) GetBufferInfo(env host.Env, v host.Handle) ([]byte, host.Status) {
	return t.backing("napi_get_buffer_info", env, v)
}

func (t *Table) GetArrayBufferInfo(env host.Env, v host.Handle) ([]byte, host.Status) {
	return t.backing("napi_get_arraybuffer_info", env, v)
}

// backing returns a view of the guest's backing store. The view aliases
// guest memory and is invalidated when the memory grows.
func (t *Table) backing(name string, env host.Env, v host.Handle) ([]byte, host.Status) {
	var out []byte
	st := t.withFrame(func(frame uint32) host.Status {
		if st := t.invoke(name, envArg(env), handleArg(v), uint64(frame), uint64(frame+4)); st != host.OK {
			return st
		}
		ptr, err := t.mem.ReadU32(frame)
		if err != nil {
			return t.fault(name, err)
		}
		n, err := t.mem.ReadU32(frame + 4)
		if err != nil {
			return t.fault(name, err)
		}
		if n == 0 {
			out = []byte{}
			return host.OK
		}
		if out, err = t.mem.Read(ptr, n); err != nil {
			return t.fault(name, err)
		}
		return host.OK
	})
	return out, st
}

func (t *Table) CoerceToBool(env host.Env, v host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_coerce_to_bool", envArg(env), handleArg(v))
}

func (t *Table) CoerceToNumber(env host.Env, v host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_coerce_to_number", envArg(env), handleArg(v))
}

func (t *Table) CoerceToString(env host.Env, v host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_coerce_to_string", envArg(env), handleArg(v))
}

func (t *Table) CoerceToObject(env host.Env, v host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_coerce_to_object", envArg(env), handleArg(v))
}

func (t *Table) IsArray(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_array", envArg(env), handleArg(v))
}

func (t *Table) IsArrayBuffer(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_arraybuffer", envArg(env), handleArg(v))
}

func (t *Table) IsBuffer(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_buffer", envArg(env), handleArg(v))
}

func (t *Table) IsTypedArray(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_typedarray", envArg(env), handleArg(v))
}

func (t *Table) IsDataView(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_dataview", envArg(env), handleArg(v))
}

func (t *Table) IsDate(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_date", envArg(env), handleArg(v))
}

func (t *Table) IsPromise(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_promise", envArg(env), handleArg(v))
}

func (t *Table) IsError(env host.Env, v host.Handle) (bool, host.Status) {
	return t.boolOut("napi_is_error", envArg(env), handleArg(v))
}

func (t *Table) InstanceOf(env host.Env, obj, constructor host.Handle) (bool, host.Status) {
	return t.boolOut("napi_instanceof", envArg(env), handleArg(obj), handleArg(constructor))
}

func (t *Table) StrictEquals(env host.Env, a, b host.Handle) (bool, host.Status) {
	return t.boolOut("napi_strict_equals", envArg(env), handleArg(a), handleArg(b))
}

func (t *Table) Throw(env host.Env, err host.Handle) host.Status {
	return t.invoke("napi_throw", envArg(env), handleArg(err))
}

// ThrowError passes an empty code as a null pointer.
func (t *Table) ThrowError(env host.Env, code, msg string) host.Status {
	return t.withString("throw error", code+msg, func(ptr, _ uint32) host.Status {
		var codePtr uint64
		if code != "" {
			codePtr = uint64(ptr)
		}
		msgPtr := uint64(ptr) + uint64(len(code))
		if msg == "" {
			msgPtr = 0
		}
		return t.invoke("napi_throw_error", envArg(env), codePtr, uint64(len(code)), msgPtr, uint64(len(msg)))
	})
}

func (t *Table) IsExceptionPending(env host.Env) (bool, host.Status) {
	return t.boolOut("napi_is_exception_pending", envArg(env))
}

func (t *Table) GetAndClearLastException(env host.Env) (host.Handle, host.Status) {
	return t.handleOut("napi_get_and_clear_last_exception", envArg(env))
}
