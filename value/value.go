package value

import (
	"go.uber.org/zap"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Value is a handle whose kind is fixed at compile time by K. It carries
// the capability every engine value has: coercions, kind probes and
// instanceof. The zero Value refers to nothing.
type Value[K Tag] struct {
	raw Raw
}

// From validates r against K and wraps it.
func From[K Tag](r RawAccess) (Value[K], error) {
	var k K
	raw, err := k.Descriptor().Validate(r.Raw())
	if err != nil {
		return Value[K]{}, err
	}
	return Value[K]{raw: raw}, nil
}

// FromUnchecked wraps r as K without asking the engine. The caller vouches
// that the handle really has kind K.
func FromUnchecked[K Tag](r RawAccess) Value[K] {
	var k K
	raw := r.Raw()
	if e := k.Descriptor().Expected; e != host.Unknown {
		raw.Kind = e
	}
	return Value[K]{raw: raw}
}

// As validates r and decodes it into a T, typically one of the named
// wrappers: value.As[value.Array](raw).
func As[T any, PT interface {
	*T
	Decoder
}](r RawAccess) (T, error) {
	var out T
	raw := r.Raw()
	if v, ok := any(PT(&out)).(Validator); ok {
		var err error
		if raw, err = v.ValidateHandle(raw); err != nil {
			return out, err
		}
	}
	err := PT(&out).DecodeHandle(raw)
	return out, err
}

// AsUnchecked is As without validation. The wrappers in this package never
// fail to decode; a Decoder that does yields the zero T.
func AsUnchecked[T any, PT interface {
	*T
	Decoder
}](r RawAccess) T {
	var out T
	if err := PT(&out).DecodeHandle(r.Raw()); err != nil {
		Logger().Debug("unchecked decode failed", zap.Error(err))
		var zero T
		return zero
	}
	return out
}

// Cast recovers a concrete kind from an erased handle.
func Cast[T any, PT interface {
	*T
	Decoder
}](u Unknown) (T, error) {
	return As[T, PT](u)
}

// CastUnchecked recovers a concrete kind without validation.
func CastUnchecked[T any, PT interface {
	*T
	Decoder
}](u Unknown) T {
	return AsUnchecked[T, PT](u)
}

// Raw returns the underlying handle triple.
func (v Value[K]) Raw() Raw { return v.raw }

// Handle returns the opaque engine handle.
func (v Value[K]) Handle() host.Handle { return v.raw.Handle }

// Env returns the env the handle belongs to.
func (v Value[K]) Env() host.Env { return v.raw.Env }

// Table returns the function table the handle came from.
func (v Value[K]) Table() host.Table { return v.raw.Table }

// IsZero reports whether v refers to nothing.
func (v Value[K]) IsZero() bool { return v.raw.IsZero() }

// ValidateHandle implements Validator for K.
func (Value[K]) ValidateHandle(r Raw) (Raw, error) {
	var k K
	return k.Descriptor().Validate(r)
}

// DecodeHandle implements Decoder. It wraps r without validation.
func (v *Value[K]) DecodeHandle(r Raw) error {
	*v = FromUnchecked[K](r)
	return nil
}

// EncodeHandle implements Encoder. The handle must belong to env.
func (v Value[K]) EncodeHandle(tab host.Table, env host.Env) (host.Handle, error) {
	return v.raw.EncodeHandle(tab, env)
}

// Decode converts the value into dst with validation, see DecodeChecked.
func (v Value[K]) Decode(dst any) error {
	return DecodeChecked(v.raw.Table, v.raw.Env, v.raw.Handle, dst)
}

// ToUnknown erases the kind. It never fails and never calls the engine.
func (v Value[K]) ToUnknown() Unknown {
	r := v.raw
	r.Kind = host.Unknown
	return Unknown{Value[UnknownKind]{raw: r}}
}

// TypeOf asks the engine for the handle's current kind.
func (v Value[K]) TypeOf() (host.ValueType, error) {
	t, st := v.raw.Table.TypeOf(v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "typeof failed"); err != nil {
		return host.Undefined, err
	}
	return t, nil
}

// CoerceToBool applies the engine's ToBoolean.
func (v Value[K]) CoerceToBool() (Boolean, error) {
	h, st := v.raw.Table.CoerceToBool(v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "coerce to bool failed"); err != nil {
		return Boolean{}, err
	}
	return Boolean{FromUnchecked[BooleanKind](v.raw.with(h, host.Boolean))}, nil
}

// CoerceToNumber applies the engine's ToNumber.
func (v Value[K]) CoerceToNumber() (Number, error) {
	h, st := v.raw.Table.CoerceToNumber(v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "coerce to number failed"); err != nil {
		return Number{}, err
	}
	return Number{FromUnchecked[NumberKind](v.raw.with(h, host.Number))}, nil
}

// CoerceToString applies the engine's ToString.
func (v Value[K]) CoerceToString() (String, error) {
	h, st := v.raw.Table.CoerceToString(v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "coerce to string failed"); err != nil {
		return String{}, err
	}
	return String{FromUnchecked[StringKind](v.raw.with(h, host.String))}, nil
}

// CoerceToObject applies the engine's ToObject. It fails for undefined and
// null.
func (v Value[K]) CoerceToObject() (Object, error) {
	h, st := v.raw.Table.CoerceToObject(v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "coerce to object failed"); err != nil {
		return Object{}, err
	}
	return Object{ObjectValue[ObjectKind]{FromUnchecked[ObjectKind](v.raw.with(h, host.Object))}}, nil
}

func (v Value[K]) is(fn probeFunc, what string) (bool, error) {
	ok, st := fn(v.raw.Table, v.raw.Env, v.raw.Handle)
	if err := errors.Check(st, "%s probe failed", what); err != nil {
		return false, err
	}
	return ok, nil
}

// IsArray reports whether the value is an array.
func (v Value[K]) IsArray() (bool, error) { return v.is(host.Table.IsArray, "is-array") }

// IsArrayBuffer reports whether the value is an ArrayBuffer.
func (v Value[K]) IsArrayBuffer() (bool, error) {
	return v.is(host.Table.IsArrayBuffer, "is-arraybuffer")
}

// IsBuffer reports whether the value is a Buffer.
func (v Value[K]) IsBuffer() (bool, error) { return v.is(host.Table.IsBuffer, "is-buffer") }

// IsTypedArray reports whether the value is a typed array view.
func (v Value[K]) IsTypedArray() (bool, error) {
	return v.is(host.Table.IsTypedArray, "is-typedarray")
}

// IsDataView reports whether the value is a DataView.
func (v Value[K]) IsDataView() (bool, error) { return v.is(host.Table.IsDataView, "is-dataview") }

// IsPromise reports whether the value is a Promise.
func (v Value[K]) IsPromise() (bool, error) { return v.is(host.Table.IsPromise, "is-promise") }

// IsError reports whether the value is an Error.
func (v Value[K]) IsError() (bool, error) { return v.is(host.Table.IsError, "is-error") }

// IsDate reports whether the value is a Date. Needs host.FeatureDate.
func (v Value[K]) IsDate() (bool, error) {
	if have := v.raw.Table.Version(); have < host.FeatureDate {
		return false, errors.Unsupported("IsDate", host.FeatureDate, have)
	}
	return v.is(host.Table.IsDate, "is-date")
}

// InstanceOf evaluates `v instanceof constructor`.
func (v Value[K]) InstanceOf(constructor Function) (bool, error) {
	ctor, err := v.raw.handleOf(constructor)
	if err != nil {
		return false, err
	}
	ok, st := v.raw.Table.InstanceOf(v.raw.Env, v.raw.Handle, ctor)
	if err := errors.Check(st, "instanceof failed"); err != nil {
		return false, err
	}
	return ok, nil
}

// StrictEquals evaluates `v === other`.
func (v Value[K]) StrictEquals(other RawAccess) (bool, error) {
	h, err := v.raw.handleOf(other)
	if err != nil {
		return false, err
	}
	ok, st := v.raw.Table.StrictEquals(v.raw.Env, v.raw.Handle, h)
	if err := errors.Check(st, "strict equals failed"); err != nil {
		return false, err
	}
	return ok, nil
}
