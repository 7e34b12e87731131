package value

import (
	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// ObjectValue adds property, element and prototype access to kinds that
// are structurally objects.
type ObjectValue[K ObjectTag] struct {
	Value[K]
}

// FromObject validates r against K and wraps it with the object capability.
func FromObject[K ObjectTag](r RawAccess) (ObjectValue[K], error) {
	v, err := From[K](r)
	return ObjectValue[K]{v}, err
}

// SetProperty assigns v, encoded with Encode, under key.
func (o ObjectValue[K]) SetProperty(key RawAccess, v any) error {
	k, err := o.raw.handleOf(key)
	if err != nil {
		return err
	}
	h, err := Encode(o.raw.Table, o.raw.Env, v)
	if err != nil {
		return err
	}
	return errors.Check(o.raw.Table.SetProperty(o.raw.Env, o.raw.Handle, k, h), "set property failed")
}

// GetProperty reads the property under key into dst with validation. When
// key is a string the error is annotated with it.
func (o ObjectValue[K]) GetProperty(key RawAccess, dst any) error {
	h, k, err := o.getProperty(key)
	if err != nil {
		return err
	}
	if err := DecodeChecked(o.raw.Table, o.raw.Env, h, dst); err != nil {
		if name, ok := o.keyName(k); ok {
			return errors.AnnotateProperty(err, name)
		}
		return err
	}
	return nil
}

// GetPropertyUnchecked reads the property under key into dst without
// validation.
func (o ObjectValue[K]) GetPropertyUnchecked(key RawAccess, dst any) error {
	h, _, err := o.getProperty(key)
	if err != nil {
		return err
	}
	return Decode(o.raw.Table, o.raw.Env, h, dst)
}

func (o ObjectValue[K]) getProperty(key RawAccess) (host.Handle, host.Handle, error) {
	k, err := o.raw.handleOf(key)
	if err != nil {
		return 0, 0, err
	}
	h, st := o.raw.Table.GetProperty(o.raw.Env, o.raw.Handle, k)
	if err := errors.Check(st, "get property failed"); err != nil {
		return 0, 0, err
	}
	return h, k, nil
}

// keyName is only consulted on the error path.
func (o ObjectValue[K]) keyName(k host.Handle) (string, bool) {
	t, st := o.raw.Table.TypeOf(o.raw.Env, k)
	if st != host.OK || t != host.String {
		return "", false
	}
	s, st := o.raw.Table.GetValueStringUTF8(o.raw.Env, k)
	return s, st == host.OK
}

// SetNamedProperty assigns v, encoded with Encode, under name.
func (o ObjectValue[K]) SetNamedProperty(name string, v any) error {
	h, err := Encode(o.raw.Table, o.raw.Env, v)
	if err != nil {
		return err
	}
	return errors.Check(o.raw.Table.SetNamedProperty(o.raw.Env, o.raw.Handle, name, h),
		"set property '%s' failed", name)
}

// GetNamed reads property name into dst with validation. A kind mismatch
// is reported as "Object property 'name' type mismatch. ...".
func (o ObjectValue[K]) GetNamed(name string, dst any) error {
	h, st := o.raw.Table.GetNamedProperty(o.raw.Env, o.raw.Handle, name)
	if err := errors.Check(st, "get property '%s' failed", name); err != nil {
		return err
	}
	if err := DecodeChecked(o.raw.Table, o.raw.Env, h, dst); err != nil {
		return errors.AnnotateProperty(err, name)
	}
	return nil
}

// GetNamedUnchecked reads property name into dst without validation.
func (o ObjectValue[K]) GetNamedUnchecked(name string, dst any) error {
	h, st := o.raw.Table.GetNamedProperty(o.raw.Env, o.raw.Handle, name)
	if err := errors.Check(st, "get property '%s' failed", name); err != nil {
		return err
	}
	return Decode(o.raw.Table, o.raw.Env, h, dst)
}

// Named returns property name without converting it.
func (o ObjectValue[K]) Named(name string) (Unknown, error) {
	var u Unknown
	err := o.GetNamedUnchecked(name, &u)
	return u, err
}

// CreateNamedMethod defines a native function as property name.
func (o ObjectValue[K]) CreateNamedMethod(name string, cb Callback) error {
	fn, err := NewFunction(o.raw.Table, o.raw.Env, name, cb)
	if err != nil {
		return err
	}
	return errors.Check(o.raw.Table.SetNamedProperty(o.raw.Env, o.raw.Handle, name, fn.Handle()),
		"create named method '%s' failed", name)
}

// HasNamedProperty reports whether name is reachable on the object or its
// prototype chain.
func (o ObjectValue[K]) HasNamedProperty(name string) (bool, error) {
	ok, st := o.raw.Table.HasNamedProperty(o.raw.Env, o.raw.Handle, name)
	return ok, errors.Check(st, "has property '%s' failed", name)
}

// HasProperty reports whether name is reachable on the object or its
// prototype chain.
func (o ObjectValue[K]) HasProperty(name string) (bool, error) {
	k, err := NewString(o.raw.Table, o.raw.Env, name)
	if err != nil {
		return false, err
	}
	return o.HasPropertyKey(k)
}

// HasPropertyKey is HasProperty for a string or symbol key.
func (o ObjectValue[K]) HasPropertyKey(key RawAccess) (bool, error) {
	k, err := o.raw.handleOf(key)
	if err != nil {
		return false, err
	}
	ok, st := o.raw.Table.HasProperty(o.raw.Env, o.raw.Handle, k)
	return ok, errors.Check(st, "has property failed")
}

// HasOwnProperty reports whether the object itself defines name. Inherited
// properties do not count.
func (o ObjectValue[K]) HasOwnProperty(name string) (bool, error) {
	k, err := NewString(o.raw.Table, o.raw.Env, name)
	if err != nil {
		return false, err
	}
	return o.HasOwnPropertyKey(k)
}

// HasOwnPropertyKey is HasOwnProperty for a string or symbol key.
func (o ObjectValue[K]) HasOwnPropertyKey(key RawAccess) (bool, error) {
	k, err := o.raw.handleOf(key)
	if err != nil {
		return false, err
	}
	ok, st := o.raw.Table.HasOwnProperty(o.raw.Env, o.raw.Handle, k)
	return ok, errors.Check(st, "has own property failed")
}

// DeleteProperty removes the property under key. It reports false when the
// property exists but is not configurable.
func (o ObjectValue[K]) DeleteProperty(key RawAccess) (bool, error) {
	k, err := o.raw.handleOf(key)
	if err != nil {
		return false, err
	}
	ok, st := o.raw.Table.DeleteProperty(o.raw.Env, o.raw.Handle, k)
	return ok, errors.Check(st, "delete property failed")
}

// DeleteNamedProperty removes property name.
func (o ObjectValue[K]) DeleteNamedProperty(name string) (bool, error) {
	k, err := NewString(o.raw.Table, o.raw.Env, name)
	if err != nil {
		return false, err
	}
	return o.DeleteProperty(k)
}

// PropertyNames returns the enumerable string keys of the object and its
// prototype chain, as the engine's for-in would visit them.
func (o ObjectValue[K]) PropertyNames() (Array, error) {
	h, st := o.raw.Table.GetPropertyNames(o.raw.Env, o.raw.Handle)
	if err := errors.Check(st, "get property names failed"); err != nil {
		return Array{}, err
	}
	return Array{ObjectValue[ArrayKind]{FromUnchecked[ArrayKind](o.raw.with(h, host.Object))}}, nil
}

// AllPropertyNames returns keys selected by mode, filter and conversion.
// Needs host.FeatureKeyCollection.
func (o ObjectValue[K]) AllPropertyNames(mode host.KeyCollectionMode, filter host.KeyFilter, conv host.KeyConversion) (Array, error) {
	if have := o.raw.Table.Version(); have < host.FeatureKeyCollection {
		return Array{}, errors.Unsupported("GetAllPropertyNames", host.FeatureKeyCollection, have)
	}
	h, st := o.raw.Table.GetAllPropertyNames(o.raw.Env, o.raw.Handle, mode, filter, conv)
	if err := errors.Check(st, "get all property names failed"); err != nil {
		return Array{}, err
	}
	return Array{ObjectValue[ArrayKind]{FromUnchecked[ArrayKind](o.raw.with(h, host.Object))}}, nil
}

// Prototype reads the object's prototype into dst with validation.
func (o ObjectValue[K]) Prototype(dst any) error {
	h, st := o.raw.Table.GetPrototype(o.raw.Env, o.raw.Handle)
	if err := errors.Check(st, "get prototype failed"); err != nil {
		return err
	}
	return DecodeChecked(o.raw.Table, o.raw.Env, h, dst)
}

// PrototypeUnchecked reads the object's prototype into dst without
// validation.
func (o ObjectValue[K]) PrototypeUnchecked(dst any) error {
	h, st := o.raw.Table.GetPrototype(o.raw.Env, o.raw.Handle)
	if err := errors.Check(st, "get prototype failed"); err != nil {
		return err
	}
	return Decode(o.raw.Table, o.raw.Env, h, dst)
}

// SetElement assigns v, encoded with Encode, at index.
func (o ObjectValue[K]) SetElement(index uint32, v any) error {
	h, err := Encode(o.raw.Table, o.raw.Env, v)
	if err != nil {
		return err
	}
	return errors.Check(o.raw.Table.SetElement(o.raw.Env, o.raw.Handle, index, h),
		"set element %d failed", index)
}

// GetElement reads the element at index into dst with validation. Reads
// past the end see undefined.
func (o ObjectValue[K]) GetElement(index uint32, dst any) error {
	h, st := o.raw.Table.GetElement(o.raw.Env, o.raw.Handle, index)
	if err := errors.Check(st, "get element %d failed", index); err != nil {
		return err
	}
	if err := DecodeChecked(o.raw.Table, o.raw.Env, h, dst); err != nil {
		return errors.AnnotateIndex(err, index)
	}
	return nil
}

// GetElementUnchecked reads the element at index into dst without
// validation.
func (o ObjectValue[K]) GetElementUnchecked(index uint32, dst any) error {
	h, st := o.raw.Table.GetElement(o.raw.Env, o.raw.Handle, index)
	if err := errors.Check(st, "get element %d failed", index); err != nil {
		return err
	}
	return Decode(o.raw.Table, o.raw.Env, h, dst)
}

// HasElement reports whether index is present.
func (o ObjectValue[K]) HasElement(index uint32) (bool, error) {
	ok, st := o.raw.Table.HasElement(o.raw.Env, o.raw.Handle, index)
	return ok, errors.Check(st, "has element %d failed", index)
}

// DeleteElement removes the element at index.
func (o ObjectValue[K]) DeleteElement(index uint32) (bool, error) {
	ok, st := o.raw.Table.DeleteElement(o.raw.Env, o.raw.Handle, index)
	return ok, errors.Check(st, "delete element %d failed", index)
}

// ArrayLength returns the length of an array. Values that are not arrays
// fail with an ArrayExpected error before any length query is made.
func (o ObjectValue[K]) ArrayLength() (uint32, error) {
	isArray, err := o.IsArray()
	if err != nil {
		return 0, err
	}
	if !isArray {
		return 0, errors.ArrayExpected("Object is not array")
	}
	return o.ArrayLengthUnchecked()
}

// ArrayLengthUnchecked queries the length without probing the kind. Use it
// only when the value is known to be an array.
func (o ObjectValue[K]) ArrayLengthUnchecked() (uint32, error) {
	n, st := o.raw.Table.GetArrayLength(o.raw.Env, o.raw.Handle)
	return n, errors.Check(st, "get array length failed")
}

// Freeze applies Object.freeze. Needs host.FeatureObjectSeal.
func (o ObjectValue[K]) Freeze() error {
	if have := o.raw.Table.Version(); have < host.FeatureObjectSeal {
		return errors.Unsupported("ObjectFreeze", host.FeatureObjectSeal, have)
	}
	return errors.Check(o.raw.Table.ObjectFreeze(o.raw.Env, o.raw.Handle), "freeze failed")
}

// Seal applies Object.seal. Needs host.FeatureObjectSeal.
func (o ObjectValue[K]) Seal() error {
	if have := o.raw.Table.Version(); have < host.FeatureObjectSeal {
		return errors.Unsupported("ObjectSeal", host.FeatureObjectSeal, have)
	}
	return errors.Check(o.raw.Table.ObjectSeal(o.raw.Env, o.raw.Handle), "seal failed")
}
