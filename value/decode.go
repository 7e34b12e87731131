package value

import (
	stderrors "errors"
	"math"
	"reflect"
	"time"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Decode converts the engine value h into dst without validating its kind
// first. Reads of the wrong kind still fail, with whatever status the
// engine reports, but no property name is attached to the error.
//
// dst must be a non-nil pointer. Supported targets: string, bool, float
// and integer types, []byte (Buffer or ArrayBuffer contents), time.Time
// (Date), any, Raw, every named wrapper, Decoder implementers, structs
// (object fields by `js:"name"` tag), slices (arrays), maps with string
// keys (own enumerable properties), arrays of the exact length and
// pointers (nil for null or undefined). An object that contains itself
// fails with a cyclic value error.
func Decode(tab host.Table, env host.Env, h host.Handle, dst any) error {
	return decoder{tab: tab, env: env}.into(h, dst)
}

// DecodeChecked is Decode with kind validation ahead of every read. Kind
// mismatches below a named property are annotated with the property name.
func DecodeChecked(tab host.Table, env host.Env, h host.Handle, dst any) error {
	return decoder{tab: tab, env: env, checked: true}.into(h, dst)
}

var (
	rawType  = reflect.TypeOf(Raw{})
	timeType = reflect.TypeOf(time.Time{})
)

var bytesKind = Either(kinds[kBuffer], kinds[kArrayBuffer])

type decoder struct {
	tab     host.Table
	env     host.Env
	checked bool
	// objects on the way from the root to the value being decoded
	path []host.Handle
}

var errCyclic = &errors.Error{Kind: errors.KindCyclicValue}

// enter returns a decoder with h pushed onto the path. It fails when h is
// already on it.
func (d decoder) enter(h host.Handle) (decoder, error) {
	for _, p := range d.path {
		same, st := d.tab.StrictEquals(d.env, p, h)
		if err := errors.Check(st, "strict equals failed"); err != nil {
			return d, err
		}
		if same {
			return d, errors.Cyclic(errors.PhaseDecode)
		}
	}
	d.path = append(d.path[:len(d.path):len(d.path)], h)
	return d, nil
}

func (d decoder) raw(h host.Handle) Raw {
	return RawUnchecked(d.tab, d.env, h, host.Unknown)
}

func (d decoder) into(h host.Handle, dst any) error {
	if d.tab == nil {
		return errors.InvalidArgument(errors.PhaseDecode, "nil table")
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.InvalidArgument(errors.PhaseDecode, "decode target must be a non-nil pointer, got %T", dst)
	}
	assertOwned(d.tab, d.env, h)
	return d.value(h, rv.Elem())
}

func (d decoder) validate(h host.Handle, k kindID) (Raw, error) {
	if !d.checked {
		return d.raw(h), nil
	}
	return kinds[k].Validate(d.raw(h))
}

func (d decoder) value(h host.Handle, rv reflect.Value) error {
	if rv.CanAddr() {
		if dec, ok := rv.Addr().Interface().(Decoder); ok {
			r := d.raw(h)
			if d.checked {
				if v, ok := dec.(Validator); ok {
					var err error
					if r, err = v.ValidateHandle(r); err != nil {
						return err
					}
				}
			}
			return dec.DecodeHandle(r)
		}
	}

	switch rv.Type() {
	case rawType:
		r, err := NewRaw(d.tab, d.env, h)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(r))
		return nil
	case timeType:
		return d.time(h, rv)
	}

	switch rv.Kind() {
	case reflect.String:
		if _, err := d.validate(h, kString); err != nil {
			return err
		}
		s, st := d.tab.GetValueStringUTF8(d.env, h)
		if err := errors.Check(st, "get string failed"); err != nil {
			return err
		}
		rv.SetString(s)
		return nil

	case reflect.Bool:
		if _, err := d.validate(h, kBoolean); err != nil {
			return err
		}
		b, st := d.tab.GetValueBool(d.env, h)
		if err := errors.Check(st, "get bool failed"); err != nil {
			return err
		}
		rv.SetBool(b)
		return nil

	case reflect.Float32, reflect.Float64:
		if _, err := d.validate(h, kNumber); err != nil {
			return err
		}
		f, st := d.tab.GetValueDouble(d.env, h)
		if err := errors.Check(st, "get double failed"); err != nil {
			return err
		}
		rv.SetFloat(f)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return d.int(h, rv)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return d.uint(h, rv)

	case reflect.Pointer:
		return d.pointer(h, rv)

	case reflect.Interface:
		if rv.NumMethod() != 0 {
			break
		}
		v, err := d.dynamic(h)
		if err != nil {
			return err
		}
		if v == nil {
			rv.Set(reflect.Zero(rv.Type()))
		} else {
			rv.Set(reflect.ValueOf(v))
		}
		return nil

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return d.bytes(h, rv)
		}
		return d.slice(h, rv)

	case reflect.Array:
		return d.array(h, rv)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		return d.mapping(h, rv)

	case reflect.Struct:
		return d.structure(h, rv)
	}

	return errors.New(errors.PhaseDecode, errors.KindInvalidArgument).
		Status(host.InvalidArg).
		Detail("unsupported decode target %s", rv.Type()).
		Build()
}

func (d decoder) int(h host.Handle, rv reflect.Value) error {
	if _, err := d.validate(h, kNumber); err != nil {
		return err
	}
	var n int64
	switch rv.Kind() {
	case reflect.Int32:
		v, st := d.tab.GetValueInt32(d.env, h)
		if err := errors.Check(st, "get int32 failed"); err != nil {
			return err
		}
		n = int64(v)
	default:
		v, st := d.tab.GetValueInt64(d.env, h)
		if err := errors.Check(st, "get int64 failed"); err != nil {
			return err
		}
		n = v
	}
	if rv.OverflowInt(n) {
		return errors.InvalidArgument(errors.PhaseDecode, "%d overflows %s", n, rv.Type())
	}
	rv.SetInt(n)
	return nil
}

func (d decoder) uint(h host.Handle, rv reflect.Value) error {
	if _, err := d.validate(h, kNumber); err != nil {
		return err
	}
	if rv.Kind() == reflect.Uint32 {
		v, st := d.tab.GetValueUint32(d.env, h)
		if err := errors.Check(st, "get uint32 failed"); err != nil {
			return err
		}
		rv.SetUint(uint64(v))
		return nil
	}
	f, st := d.tab.GetValueDouble(d.env, h)
	if err := errors.Check(st, "get double failed"); err != nil {
		return err
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return errors.InvalidArgument(errors.PhaseDecode, "%v is not representable as %s", f, rv.Type())
	}
	u := uint64(f)
	if rv.OverflowUint(u) {
		return errors.InvalidArgument(errors.PhaseDecode, "%d overflows %s", u, rv.Type())
	}
	rv.SetUint(u)
	return nil
}

func (d decoder) time(h host.Handle, rv reflect.Value) error {
	r, err := d.validate(h, kDate)
	if err != nil {
		return err
	}
	t, err := Date{ObjectValue[DateKind]{FromUnchecked[DateKind](r)}}.Time()
	if err != nil {
		return err
	}
	rv.Set(reflect.ValueOf(t))
	return nil
}

func (d decoder) isNullish(h host.Handle) (bool, error) {
	t, st := d.tab.TypeOf(d.env, h)
	if err := errors.Check(st, "typeof failed"); err != nil {
		return false, err
	}
	return t == host.Undefined || t == host.Null, nil
}

func (d decoder) pointer(h host.Handle, rv reflect.Value) error {
	nullish, err := d.isNullish(h)
	if err != nil {
		return err
	}
	if nullish {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}
	p := reflect.New(rv.Type().Elem())
	if err := d.value(h, p.Elem()); err != nil {
		return err
	}
	rv.Set(p)
	return nil
}

func (d decoder) bytes(h host.Handle, rv reflect.Value) error {
	if d.checked {
		if _, err := bytesKind.Validate(d.raw(h)); err != nil {
			return err
		}
	}
	isBuf, st := d.tab.IsBuffer(d.env, h)
	if err := errors.Check(st, "is-buffer probe failed"); err != nil {
		return err
	}
	var b []byte
	if isBuf {
		b, st = d.tab.GetBufferInfo(d.env, h)
	} else {
		b, st = d.tab.GetArrayBufferInfo(d.env, h)
	}
	if err := errors.Check(st, "get buffer contents failed"); err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), len(b), len(b))
	reflect.Copy(out, reflect.ValueOf(b))
	rv.Set(out)
	return nil
}

// arrayLength validates h as an array and enters it.
func (d decoder) arrayLength(h host.Handle) (decoder, uint32, error) {
	if _, err := d.validate(h, kArray); err != nil {
		return d, 0, err
	}
	d, err := d.enter(h)
	if err != nil {
		return d, 0, err
	}
	n, st := d.tab.GetArrayLength(d.env, h)
	if err := errors.Check(st, "get array length failed"); err != nil {
		return d, 0, err
	}
	return d, n, nil
}

func (d decoder) elements(h host.Handle, out reflect.Value) error {
	for i := 0; i < out.Len(); i++ {
		eh, st := d.tab.GetElement(d.env, h, uint32(i))
		if err := errors.Check(st, "get element %d failed", i); err != nil {
			return err
		}
		if err := d.value(eh, out.Index(i)); err != nil {
			return d.annotateIndex(err, uint32(i))
		}
	}
	return nil
}

func (d decoder) slice(h host.Handle, rv reflect.Value) error {
	d, n, err := d.arrayLength(h)
	if err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), int(n), int(n))
	if err := d.elements(h, out); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

func (d decoder) array(h host.Handle, rv reflect.Value) error {
	d, n, err := d.arrayLength(h)
	if err != nil {
		return err
	}
	if int(n) != rv.Len() {
		return errors.InvalidArgument(errors.PhaseDecode, "array of length %d does not fit %s", n, rv.Type())
	}
	out := reflect.New(rv.Type()).Elem()
	if err := d.elements(h, out); err != nil {
		return err
	}
	rv.Set(out)
	return nil
}

// ownKeys lists own enumerable string keys, falling back to the for-in
// view on tables without key collection.
func (d decoder) ownKeys(h host.Handle) ([]string, error) {
	var (
		names host.Handle
		st    host.Status
	)
	if d.tab.Version() >= host.FeatureKeyCollection {
		names, st = d.tab.GetAllPropertyNames(d.env, h, host.KeyOwnOnly,
			host.KeyEnumerable|host.KeySkipSymbols, host.KeyNumbersToStrings)
	} else {
		names, st = d.tab.GetPropertyNames(d.env, h)
	}
	if err := errors.Check(st, "get property names failed"); err != nil {
		return nil, err
	}

	n, st := d.tab.GetArrayLength(d.env, names)
	if err := errors.Check(st, "get array length failed"); err != nil {
		return nil, err
	}
	keys := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		kh, st := d.tab.GetElement(d.env, names, i)
		if err := errors.Check(st, "get element %d failed", i); err != nil {
			return nil, err
		}
		kh, st = d.tab.CoerceToString(d.env, kh)
		if err := errors.Check(st, "coerce key failed"); err != nil {
			return nil, err
		}
		k, st := d.tab.GetValueStringUTF8(d.env, kh)
		if err := errors.Check(st, "get key failed"); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func (d decoder) mapping(h host.Handle, rv reflect.Value) error {
	if _, err := d.validate(h, kObject); err != nil {
		return err
	}
	d, err := d.enter(h)
	if err != nil {
		return err
	}
	keys, err := d.ownKeys(h)
	if err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(keys))
	for _, k := range keys {
		vh, st := d.tab.GetNamedProperty(d.env, h, k)
		if err := errors.Check(st, "get property '%s' failed", k); err != nil {
			return err
		}
		elem := reflect.New(rv.Type().Elem()).Elem()
		if err := d.value(vh, elem); err != nil {
			return d.annotateProperty(err, k)
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()), elem)
	}
	rv.Set(out)
	return nil
}

func (d decoder) structure(h host.Handle, rv reflect.Value) error {
	if _, err := d.validate(h, kObject); err != nil {
		return err
	}
	d, err := d.enter(h)
	if err != nil {
		return err
	}
	for _, f := range fieldsOf(rv.Type()) {
		vh, st := d.tab.GetNamedProperty(d.env, h, f.name)
		if err := errors.Check(st, "get property '%s' failed", f.name); err != nil {
			return err
		}
		if f.omitEmpty {
			nullish, err := d.isNullish(vh)
			if err != nil {
				return err
			}
			if nullish {
				continue
			}
		}
		if err := d.value(vh, rv.FieldByIndex(f.index)); err != nil {
			return d.annotateProperty(err, f.name)
		}
	}
	return nil
}

// dynamic maps an engine value onto plain Go values: nil, bool, float64,
// string, []any, map[string]any, []byte, time.Time. Kinds with no Go
// counterpart come back as their named wrapper.
func (d decoder) dynamic(h host.Handle) (any, error) {
	t, st := d.tab.TypeOf(d.env, h)
	if err := errors.Check(st, "typeof failed"); err != nil {
		return nil, err
	}
	r := RawUnchecked(d.tab, d.env, h, t)

	switch t {
	case host.Undefined, host.Null:
		return nil, nil
	case host.Boolean:
		return Boolean{FromUnchecked[BooleanKind](r)}.Bool()
	case host.Number:
		return Number{FromUnchecked[NumberKind](r)}.Float64()
	case host.String:
		return String{FromUnchecked[StringKind](r)}.UTF8()
	case host.Symbol:
		return Symbol{FromUnchecked[SymbolKind](r)}, nil
	case host.External:
		return External{FromUnchecked[ExternalKind](r)}, nil
	case host.Function:
		return Function{ObjectValue[FunctionKind]{FromUnchecked[FunctionKind](r)}}, nil
	case host.Object:
		return d.dynamicObject(r)
	}
	return Unknown{FromUnchecked[UnknownKind](r)}, nil
}

func (d decoder) dynamicObject(r Raw) (any, error) {
	o := ObjectValue[ObjectKind]{FromUnchecked[ObjectKind](r)}

	if ok, err := o.IsArray(); err != nil {
		return nil, err
	} else if ok {
		var out []any
		err := d.slice(r.Handle, reflect.ValueOf(&out).Elem())
		return out, err
	}

	isBuf, err := o.IsBuffer()
	if err != nil {
		return nil, err
	}
	isAB, err := o.IsArrayBuffer()
	if err != nil {
		return nil, err
	}
	if isBuf || isAB {
		var out []byte
		err := d.bytes(r.Handle, reflect.ValueOf(&out).Elem())
		return out, err
	}

	if d.tab.Version() >= host.FeatureDate {
		if ok, err := o.IsDate(); err != nil {
			return nil, err
		} else if ok {
			return Date{ObjectValue[DateKind]{FromUnchecked[DateKind](r)}}.Time()
		}
	}

	var out map[string]any
	err = d.mapping(r.Handle, reflect.ValueOf(&out).Elem())
	return out, err
}

func (d decoder) annotateProperty(err error, name string) error {
	if !d.checked && !stderrors.Is(err, errCyclic) {
		return err
	}
	return errors.AnnotateProperty(err, name)
}

func (d decoder) annotateIndex(err error, i uint32) error {
	if !d.checked && !stderrors.Is(err, errCyclic) {
		return err
	}
	return errors.AnnotateIndex(err, i)
}
