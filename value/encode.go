package value

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Encode produces a fresh engine value for v inside env. It accepts the
// same shapes Decode fills, plus Encoder implementers. nil encodes as null;
// structs and maps become new objects and slices become new arrays.
// Wrappers and Raw values are passed through and must belong to env. A
// pointer, map or slice that reaches itself fails with a cyclic value
// error.
func Encode(tab host.Table, env host.Env, v any) (host.Handle, error) {
	if tab == nil {
		return 0, errors.InvalidArgument(errors.PhaseEncode, "nil table")
	}
	return encoder{tab: tab, env: env}.encode(v)
}

type encoder struct {
	tab  host.Table
	env  host.Env
	path []visit
}

type visit struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// enter returns an encoder with the reference rv pushed onto the path.
func (e encoder) enter(rv reflect.Value) (encoder, error) {
	v := visit{typ: rv.Type(), ptr: rv.Pointer()}
	if rv.Kind() == reflect.Slice {
		v.len = rv.Len()
	}
	for _, p := range e.path {
		if p == v {
			return e, errors.Cyclic(errors.PhaseEncode)
		}
	}
	e.path = append(e.path[:len(e.path):len(e.path)], v)
	return e, nil
}

func (e encoder) check(h host.Handle, st host.Status, what string) (host.Handle, error) {
	if err := errors.Check(st, "%s failed", what); err != nil {
		return 0, err
	}
	return h, nil
}

func (e encoder) null() (host.Handle, error) {
	h, st := e.tab.GetNull(e.env)
	return e.check(h, st, "get null")
}

func (e encoder) encode(v any) (host.Handle, error) {
	switch x := v.(type) {
	case nil:
		return e.null()
	case Encoder:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return e.null()
		}
		return x.EncodeHandle(e.tab, e.env)
	case string:
		h, st := e.tab.CreateStringUTF8(e.env, x)
		return e.check(h, st, "create string")
	case bool:
		h, st := e.tab.GetBoolean(e.env, x)
		return e.check(h, st, "get boolean")
	case float64:
		h, st := e.tab.CreateDouble(e.env, x)
		return e.check(h, st, "create double")
	case int32:
		h, st := e.tab.CreateInt32(e.env, x)
		return e.check(h, st, "create int32")
	case uint32:
		h, st := e.tab.CreateUint32(e.env, x)
		return e.check(h, st, "create uint32")
	case int64:
		h, st := e.tab.CreateInt64(e.env, x)
		return e.check(h, st, "create int64")
	case []byte:
		h, st := e.tab.CreateBuffer(e.env, x)
		return e.check(h, st, "create buffer")
	case time.Time:
		if have := e.tab.Version(); have < host.FeatureDate {
			return 0, errors.Unsupported("CreateDate", host.FeatureDate, have)
		}
		h, st := e.tab.CreateDate(e.env, float64(x.UnixMilli()))
		return e.check(h, st, "create date")
	}
	return e.value(reflect.ValueOf(v))
}

func (e encoder) value(rv reflect.Value) (host.Handle, error) {
	if k := rv.Kind(); (k == reflect.Pointer || k == reflect.Interface) && rv.IsNil() {
		return e.null()
	}
	if rv.CanInterface() {
		switch x := rv.Interface().(type) {
		case Encoder, time.Time:
			return e.encode(x)
		}
	}

	switch rv.Kind() {
	case reflect.String:
		h, st := e.tab.CreateStringUTF8(e.env, rv.String())
		return e.check(h, st, "create string")

	case reflect.Bool:
		h, st := e.tab.GetBoolean(e.env, rv.Bool())
		return e.check(h, st, "get boolean")

	case reflect.Float32, reflect.Float64:
		h, st := e.tab.CreateDouble(e.env, rv.Float())
		return e.check(h, st, "create double")

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h, st := e.tab.CreateInt64(e.env, rv.Int())
		return e.check(h, st, "create int64")

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h, st := e.tab.CreateDouble(e.env, float64(rv.Uint()))
		return e.check(h, st, "create double")

	case reflect.Interface:
		return e.encode(rv.Elem().Interface())

	case reflect.Pointer:
		e, err := e.enter(rv)
		if err != nil {
			return 0, err
		}
		return e.encode(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return e.null()
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			h, st := e.tab.CreateBuffer(e.env, b)
			return e.check(h, st, "create buffer")
		}
		e, err := e.enter(rv)
		if err != nil {
			return 0, err
		}
		return e.array(rv)

	case reflect.Array:
		return e.array(rv)

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return e.null()
		}
		e, err := e.enter(rv)
		if err != nil {
			return 0, err
		}
		return e.mapping(rv)

	case reflect.Struct:
		return e.structure(rv)
	}

	return 0, errors.New(errors.PhaseEncode, errors.KindInvalidArgument).
		Status(host.InvalidArg).
		Detail("cannot encode %s", rv.Type()).
		Build()
}

func (e encoder) array(rv reflect.Value) (host.Handle, error) {
	n := rv.Len()
	h, st := e.tab.CreateArrayWithLength(e.env, uint32(n))
	if _, err := e.check(h, st, "create array"); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		eh, err := e.value(rv.Index(i))
		if err != nil {
			return 0, errors.AnnotateIndex(err, uint32(i))
		}
		if err := errors.Check(e.tab.SetElement(e.env, h, uint32(i), eh), "set element %d failed", i); err != nil {
			return 0, err
		}
	}
	return h, nil
}

func (e encoder) mapping(rv reflect.Value) (host.Handle, error) {
	h, st := e.tab.CreateObject(e.env)
	if _, err := e.check(h, st, "create object"); err != nil {
		return 0, err
	}

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	for _, k := range keys {
		vh, err := e.value(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())))
		if err != nil {
			return 0, errors.AnnotateProperty(err, k)
		}
		if err := errors.Check(e.tab.SetNamedProperty(e.env, h, k, vh), "set property '%s' failed", k); err != nil {
			return 0, err
		}
	}
	return h, nil
}

func (e encoder) structure(rv reflect.Value) (host.Handle, error) {
	h, st := e.tab.CreateObject(e.env)
	if _, err := e.check(h, st, "create object"); err != nil {
		return 0, err
	}
	for _, f := range fieldsOf(rv.Type()) {
		fv := rv.FieldByIndex(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		vh, err := e.value(fv)
		if err != nil {
			return 0, errors.AnnotateProperty(err, f.name)
		}
		if err := errors.Check(e.tab.SetNamedProperty(e.env, h, f.name, vh), "set property '%s' failed", f.name); err != nil {
			return 0, err
		}
	}
	return h, nil
}

type field struct {
	name      string
	index     []int
	omitEmpty bool
}

var fieldCache sync.Map // reflect.Type -> []field

// fieldsOf lists the exported fields of a struct type with their property
// names. `js:"-"` skips a field; `js:"name,omitempty"` renames it and
// skips zero values on encode and null or undefined on decode.
func fieldsOf(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}

	var fields []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("js")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, field{
			name:      name,
			index:     sf.Index,
			omitEmpty: opts == "omitempty",
		})
	}

	fieldCache.Store(t, fields)
	return fields
}
