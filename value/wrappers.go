package value

import (
	"math"
	"time"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/finalizer"
	"github.com/wippyai/jsbind/host"
)

// Named wrappers for every kind this package knows. Object-structured
// kinds embed ObjectValue and so carry the object capability as well.
type (
	Unknown     struct{ Value[UnknownKind] }
	Undefined   struct{ Value[UndefinedKind] }
	Null        struct{ Value[NullKind] }
	Boolean     struct{ Value[BooleanKind] }
	Number      struct{ Value[NumberKind] }
	String      struct{ Value[StringKind] }
	Symbol      struct{ Value[SymbolKind] }
	External    struct{ Value[ExternalKind] }
	Function    struct{ ObjectValue[FunctionKind] }
	Object      struct{ ObjectValue[ObjectKind] }
	Array       struct{ ObjectValue[ArrayKind] }
	Buffer      struct{ ObjectValue[BufferKind] }
	ArrayBuffer struct{ ObjectValue[ArrayBufferKind] }
	TypedArray  struct{ ObjectValue[TypedArrayKind] }
	DataView    struct{ ObjectValue[DataViewKind] }
	Date        struct{ ObjectValue[DateKind] }
	Promise     struct{ ObjectValue[PromiseKind] }
	Error       struct{ ObjectValue[ErrorKind] }
)

func wrapRaw(tab host.Table, env host.Env, h host.Handle, kind host.ValueType, st host.Status, what string) (Raw, error) {
	if err := errors.Check(st, "%s failed", what); err != nil {
		return Raw{}, err
	}
	return RawUnchecked(tab, env, h, kind), nil
}

// NewUndefined returns the engine's undefined value.
func NewUndefined(tab host.Table, env host.Env) (Undefined, error) {
	h, st := tab.GetUndefined(env)
	r, err := wrapRaw(tab, env, h, host.Undefined, st, "get undefined")
	return Undefined{FromUnchecked[UndefinedKind](r)}, err
}

// NewNull returns the engine's null value.
func NewNull(tab host.Table, env host.Env) (Null, error) {
	h, st := tab.GetNull(env)
	r, err := wrapRaw(tab, env, h, host.Null, st, "get null")
	return Null{FromUnchecked[NullKind](r)}, err
}

// Global returns the engine's global object.
func Global(tab host.Table, env host.Env) (Object, error) {
	h, st := tab.GetGlobal(env)
	r, err := wrapRaw(tab, env, h, host.Object, st, "get global")
	return Object{ObjectValue[ObjectKind]{FromUnchecked[ObjectKind](r)}}, err
}

// NewBoolean returns the engine boolean for b.
func NewBoolean(tab host.Table, env host.Env, b bool) (Boolean, error) {
	h, st := tab.GetBoolean(env, b)
	r, err := wrapRaw(tab, env, h, host.Boolean, st, "get boolean")
	return Boolean{FromUnchecked[BooleanKind](r)}, err
}

// Bool reads the boolean.
func (b Boolean) Bool() (bool, error) {
	v, st := b.raw.Table.GetValueBool(b.raw.Env, b.raw.Handle)
	return v, errors.Check(st, "get bool failed")
}

// NewNumber creates a number.
func NewNumber(tab host.Table, env host.Env, f float64) (Number, error) {
	h, st := tab.CreateDouble(env, f)
	r, err := wrapRaw(tab, env, h, host.Number, st, "create double")
	return Number{FromUnchecked[NumberKind](r)}, err
}

// Float64 reads the number.
func (n Number) Float64() (float64, error) {
	v, st := n.raw.Table.GetValueDouble(n.raw.Env, n.raw.Handle)
	return v, errors.Check(st, "get double failed")
}

// Int32 reads the number truncated to int32 the way the engine does.
func (n Number) Int32() (int32, error) {
	v, st := n.raw.Table.GetValueInt32(n.raw.Env, n.raw.Handle)
	return v, errors.Check(st, "get int32 failed")
}

// Uint32 reads the number truncated to uint32.
func (n Number) Uint32() (uint32, error) {
	v, st := n.raw.Table.GetValueUint32(n.raw.Env, n.raw.Handle)
	return v, errors.Check(st, "get uint32 failed")
}

// Int64 reads the number truncated to int64.
func (n Number) Int64() (int64, error) {
	v, st := n.raw.Table.GetValueInt64(n.raw.Env, n.raw.Handle)
	return v, errors.Check(st, "get int64 failed")
}

// NewString creates a string from UTF-8.
func NewString(tab host.Table, env host.Env, s string) (String, error) {
	h, st := tab.CreateStringUTF8(env, s)
	r, err := wrapRaw(tab, env, h, host.String, st, "create string")
	return String{FromUnchecked[StringKind](r)}, err
}

// UTF8 reads the string.
func (s String) UTF8() (string, error) {
	v, st := s.raw.Table.GetValueStringUTF8(s.raw.Env, s.raw.Handle)
	return v, errors.Check(st, "get string failed")
}

// NewSymbol creates a symbol with the given description.
func NewSymbol(tab host.Table, env host.Env, description string) (Symbol, error) {
	desc, err := NewString(tab, env, description)
	if err != nil {
		return Symbol{}, err
	}
	h, st := tab.CreateSymbol(env, desc.Handle())
	r, err := wrapRaw(tab, env, h, host.Symbol, st, "create symbol")
	return Symbol{FromUnchecked[SymbolKind](r)}, err
}

// NewExternal wraps an opaque native word. When closure is non-nil it is
// released once the engine collects the external.
func NewExternal(tab host.Table, env host.Env, data uintptr, closure finalizer.Closure) (External, error) {
	if closure == nil {
		h, st := tab.CreateExternal(env, data, nil, 0)
		r, err := wrapRaw(tab, env, h, host.External, st, "create external")
		return External{FromUnchecked[ExternalKind](r)}, err
	}

	reg := Registry()
	tok, count, err := reg.Register([]finalizer.Closure{closure})
	if err != nil {
		return External{}, err
	}

	// data belongs to the caller, so the token travels as hint
	fin := func(env host.Env, _, tok uintptr) { reg.Finalize(env, tok, count) }
	h, st := tab.CreateExternal(env, data, fin, tok)
	if err := errors.Check(st, "create external failed"); err != nil {
		reg.Abandon(tok, count)
		return External{}, err
	}
	return External{FromUnchecked[ExternalKind](RawUnchecked(tab, env, h, host.External))}, nil
}

// Data returns the native word stored in the external.
func (e External) Data() (uintptr, error) {
	v, st := e.raw.Table.GetValueExternal(e.raw.Env, e.raw.Handle)
	return v, errors.Check(st, "get external failed")
}

// NewObject creates an empty object.
func NewObject(tab host.Table, env host.Env) (Object, error) {
	h, st := tab.CreateObject(env)
	r, err := wrapRaw(tab, env, h, host.Object, st, "create object")
	return Object{ObjectValue[ObjectKind]{FromUnchecked[ObjectKind](r)}}, err
}

// NewArray creates an array of the given length with holes.
func NewArray(tab host.Table, env host.Env, length uint32) (Array, error) {
	var (
		h  host.Handle
		st host.Status
	)
	if length == 0 {
		h, st = tab.CreateArray(env)
	} else {
		h, st = tab.CreateArrayWithLength(env, length)
	}
	r, err := wrapRaw(tab, env, h, host.Object, st, "create array")
	return Array{ObjectValue[ArrayKind]{FromUnchecked[ArrayKind](r)}}, err
}

// Len returns the array length. The kind is already established, so no
// is-array probe is issued.
func (a Array) Len() (uint32, error) {
	return a.ArrayLengthUnchecked()
}

// NewBuffer creates a Buffer holding a copy of data.
func NewBuffer(tab host.Table, env host.Env, data []byte) (Buffer, error) {
	h, st := tab.CreateBuffer(env, data)
	r, err := wrapRaw(tab, env, h, host.Object, st, "create buffer")
	return Buffer{ObjectValue[BufferKind]{FromUnchecked[BufferKind](r)}}, err
}

// Bytes returns the buffer contents. The slice aliases engine memory for
// tables that can share it; copy before the env goes away.
func (b Buffer) Bytes() ([]byte, error) {
	v, st := b.raw.Table.GetBufferInfo(b.raw.Env, b.raw.Handle)
	return v, errors.Check(st, "get buffer info failed")
}

// NewArrayBuffer creates an ArrayBuffer holding a copy of data.
func NewArrayBuffer(tab host.Table, env host.Env, data []byte) (ArrayBuffer, error) {
	h, st := tab.CreateArrayBuffer(env, data)
	r, err := wrapRaw(tab, env, h, host.Object, st, "create arraybuffer")
	return ArrayBuffer{ObjectValue[ArrayBufferKind]{FromUnchecked[ArrayBufferKind](r)}}, err
}

// Bytes returns the backing store.
func (b ArrayBuffer) Bytes() ([]byte, error) {
	v, st := b.raw.Table.GetArrayBufferInfo(b.raw.Env, b.raw.Handle)
	return v, errors.Check(st, "get arraybuffer info failed")
}

// NewTypedArray creates a typed view of length elements over ab.
func NewTypedArray(ab ArrayBuffer, typ host.TypedArrayType, length, byteOffset uint32) (TypedArray, error) {
	r := ab.raw
	h, st := r.Table.CreateTypedArray(r.Env, typ, length, r.Handle, byteOffset)
	out, err := wrapRaw(r.Table, r.Env, h, host.Object, st, "create typedarray")
	return TypedArray{ObjectValue[TypedArrayKind]{FromUnchecked[TypedArrayKind](out)}}, err
}

// NewDataView creates a DataView of length bytes over ab.
func NewDataView(ab ArrayBuffer, length, byteOffset uint32) (DataView, error) {
	r := ab.raw
	h, st := r.Table.CreateDataView(r.Env, length, r.Handle, byteOffset)
	out, err := wrapRaw(r.Table, r.Env, h, host.Object, st, "create dataview")
	return DataView{ObjectValue[DataViewKind]{FromUnchecked[DataViewKind](out)}}, err
}

// NewDate creates a Date for t, truncated to milliseconds.
func NewDate(tab host.Table, env host.Env, t time.Time) (Date, error) {
	if have := tab.Version(); have < host.FeatureDate {
		return Date{}, errors.Unsupported("CreateDate", host.FeatureDate, have)
	}
	h, st := tab.CreateDate(env, float64(t.UnixMilli()))
	r, err := wrapRaw(tab, env, h, host.Object, st, "create date")
	return Date{ObjectValue[DateKind]{FromUnchecked[DateKind](r)}}, err
}

// ValueOf returns milliseconds since the Unix epoch. Invalid dates yield NaN.
func (d Date) ValueOf() (float64, error) {
	v, st := d.raw.Table.GetDateValue(d.raw.Env, d.raw.Handle)
	return v, errors.Check(st, "get date value failed")
}

// Time converts the date to a time.Time in UTC.
func (d Date) Time() (time.Time, error) {
	ms, err := d.ValueOf()
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(ms) {
		return time.Time{}, errors.InvalidArgument(errors.PhaseDecode, "invalid date")
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

// NewPromise creates a pending promise.
func NewPromise(tab host.Table, env host.Env) (Promise, error) {
	h, st := tab.CreatePromise(env)
	r, err := wrapRaw(tab, env, h, host.Object, st, "create promise")
	return Promise{ObjectValue[PromiseKind]{FromUnchecked[PromiseKind](r)}}, err
}

// NewError creates an Error object. code may be empty.
func NewError(tab host.Table, env host.Env, code, msg string) (Error, error) {
	m, err := NewString(tab, env, msg)
	if err != nil {
		return Error{}, err
	}
	var c host.Handle
	if code != "" {
		cs, err := NewString(tab, env, code)
		if err != nil {
			return Error{}, err
		}
		c = cs.Handle()
	}
	h, st := tab.CreateError(env, c, m.Handle())
	r, err := wrapRaw(tab, env, h, host.Object, st, "create error")
	return Error{ObjectValue[ErrorKind]{FromUnchecked[ErrorKind](r)}}, err
}

// Message reads the error's message property.
func (e Error) Message() (string, error) {
	var msg string
	err := e.GetNamed("message", &msg)
	return msg, err
}
