package value

import (
	stderrors "errors"
	"strings"

	"go.uber.org/multierr"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
)

// Descriptor is what a value kind publishes: a display name for errors,
// the ValueType TypeOf must report, and an optional structural check run
// once the ValueType matches.
type Descriptor struct {
	Check    func(tab host.Table, env host.Env, h host.Handle) (bool, error)
	Name     string
	anyOf    []Descriptor
	Expected host.ValueType
}

// Validate confirms that r has the described kind and returns r with Kind
// set to the confirmed ValueType. A mismatch yields a TypeMismatch error
// naming d.Name as expected.
func (d Descriptor) Validate(r Raw) (Raw, error) {
	if len(d.anyOf) > 0 {
		return d.validateAny(r)
	}
	if d.Expected == host.Unknown {
		return r, nil
	}
	if r.Table == nil {
		return Raw{}, errors.InvalidArgument(errors.PhaseValidate, "nil table")
	}
	assertOwned(r.Table, r.Env, r.Handle)

	t, st := r.Table.TypeOf(r.Env, r.Handle)
	if err := errors.Check(st, "typeof failed while validating %s", d.Name); err != nil {
		return Raw{}, err
	}
	if t != d.Expected {
		return Raw{}, errors.TypeMismatch(errors.PhaseValidate, d.Name, t.String())
	}
	r.Kind = t

	if d.Check != nil {
		ok, err := d.Check(r.Table, r.Env, r.Handle)
		if err != nil {
			return Raw{}, err
		}
		if !ok {
			return Raw{}, errors.TypeMismatch(errors.PhaseValidate, d.Name, t.String())
		}
	}
	return r, nil
}

// validateAny succeeds on the first alternative that matches. Any failure
// of an alternative counts as not matching; errors other than a mismatch
// are kept as the cause of the final mismatch.
func (d Descriptor) validateAny(r Raw) (Raw, error) {
	var (
		actual = host.Unknown.String()
		causes error
	)
	for _, alt := range d.anyOf {
		out, err := alt.Validate(r)
		if err == nil {
			return out, nil
		}
		var e *errors.Error
		if stderrors.As(err, &e) && e.Kind == errors.KindTypeMismatch {
			actual = e.Actual
			continue
		}
		causes = multierr.Append(causes, err)
	}
	mismatch := errors.TypeMismatch(errors.PhaseValidate, d.Name, actual)
	mismatch.Cause = causes
	return Raw{}, mismatch
}

// Either builds a union kind that accepts any of ds, tried in order.
func Either(ds ...Descriptor) Descriptor {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return Descriptor{
		Name:     strings.Join(names, " | "),
		Expected: host.Unknown,
		anyOf:    ds,
	}
}

type probeFunc func(host.Table, host.Env, host.Handle) (bool, host.Status)

func probe(fn probeFunc, what string) func(host.Table, host.Env, host.Handle) (bool, error) {
	return func(tab host.Table, env host.Env, h host.Handle) (bool, error) {
		ok, st := fn(tab, env, h)
		if err := errors.Check(st, "%s probe failed", what); err != nil {
			return false, err
		}
		return ok, nil
	}
}

func requires(level uint32, what string, check func(host.Table, host.Env, host.Handle) (bool, error)) func(host.Table, host.Env, host.Handle) (bool, error) {
	return func(tab host.Table, env host.Env, h host.Handle) (bool, error) {
		if v := tab.Version(); v < level {
			return false, errors.Unsupported(what, level, v)
		}
		return check(tab, env, h)
	}
}

type kindID uint8

const (
	kUnknown kindID = iota
	kUndefined
	kNull
	kBoolean
	kNumber
	kString
	kSymbol
	kExternal
	kFunction
	kObject
	kArray
	kBuffer
	kArrayBuffer
	kTypedArray
	kDataView
	kDate
	kPromise
	kError
)

// kinds is the single declaration of every value kind this package knows.
var kinds = [...]Descriptor{
	kUnknown:     {Name: "Unknown", Expected: host.Unknown},
	kUndefined:   {Name: "Undefined", Expected: host.Undefined},
	kNull:        {Name: "Null", Expected: host.Null},
	kBoolean:     {Name: "Boolean", Expected: host.Boolean},
	kNumber:      {Name: "Number", Expected: host.Number},
	kString:      {Name: "String", Expected: host.String},
	kSymbol:      {Name: "Symbol", Expected: host.Symbol},
	kExternal:    {Name: "External", Expected: host.External},
	kFunction:    {Name: "Function", Expected: host.Function},
	kObject:      {Name: "Object", Expected: host.Object},
	kArray:       {Name: "Array", Expected: host.Object, Check: probe(host.Table.IsArray, "is-array")},
	kBuffer:      {Name: "Buffer", Expected: host.Object, Check: probe(host.Table.IsBuffer, "is-buffer")},
	kArrayBuffer: {Name: "ArrayBuffer", Expected: host.Object, Check: probe(host.Table.IsArrayBuffer, "is-arraybuffer")},
	kTypedArray:  {Name: "TypedArray", Expected: host.Object, Check: probe(host.Table.IsTypedArray, "is-typedarray")},
	kDataView:    {Name: "DataView", Expected: host.Object, Check: probe(host.Table.IsDataView, "is-dataview")},
	kDate:        {Name: "Date", Expected: host.Object, Check: requires(host.FeatureDate, "IsDate", probe(host.Table.IsDate, "is-date"))},
	kPromise:     {Name: "Promise", Expected: host.Object, Check: probe(host.Table.IsPromise, "is-promise")},
	kError:       {Name: "Error", Expected: host.Object, Check: probe(host.Table.IsError, "is-error")},
}

// Tag is a zero-size type naming a value kind at compile time.
type Tag interface {
	Descriptor() Descriptor
}

// ObjectTag marks kinds that are structurally objects and so carry the
// object capability.
type ObjectTag interface {
	Tag
	objectKind()
}

type (
	UnknownKind     struct{}
	UndefinedKind   struct{}
	NullKind        struct{}
	BooleanKind     struct{}
	NumberKind      struct{}
	StringKind      struct{}
	SymbolKind      struct{}
	ExternalKind    struct{}
	FunctionKind    struct{}
	ObjectKind      struct{}
	ArrayKind       struct{}
	BufferKind      struct{}
	ArrayBufferKind struct{}
	TypedArrayKind  struct{}
	DataViewKind    struct{}
	DateKind        struct{}
	PromiseKind     struct{}
	ErrorKind       struct{}
)

func (UnknownKind) Descriptor() Descriptor     { return kinds[kUnknown] }
func (UndefinedKind) Descriptor() Descriptor   { return kinds[kUndefined] }
func (NullKind) Descriptor() Descriptor        { return kinds[kNull] }
func (BooleanKind) Descriptor() Descriptor     { return kinds[kBoolean] }
func (NumberKind) Descriptor() Descriptor      { return kinds[kNumber] }
func (StringKind) Descriptor() Descriptor      { return kinds[kString] }
func (SymbolKind) Descriptor() Descriptor      { return kinds[kSymbol] }
func (ExternalKind) Descriptor() Descriptor    { return kinds[kExternal] }
func (FunctionKind) Descriptor() Descriptor    { return kinds[kFunction] }
func (ObjectKind) Descriptor() Descriptor      { return kinds[kObject] }
func (ArrayKind) Descriptor() Descriptor       { return kinds[kArray] }
func (BufferKind) Descriptor() Descriptor      { return kinds[kBuffer] }
func (ArrayBufferKind) Descriptor() Descriptor { return kinds[kArrayBuffer] }
func (TypedArrayKind) Descriptor() Descriptor  { return kinds[kTypedArray] }
func (DataViewKind) Descriptor() Descriptor    { return kinds[kDataView] }
func (DateKind) Descriptor() Descriptor        { return kinds[kDate] }
func (PromiseKind) Descriptor() Descriptor     { return kinds[kPromise] }
func (ErrorKind) Descriptor() Descriptor       { return kinds[kError] }

func (FunctionKind) objectKind()    {}
func (ObjectKind) objectKind()      {}
func (ArrayKind) objectKind()       {}
func (BufferKind) objectKind()      {}
func (ArrayBufferKind) objectKind() {}
func (TypedArrayKind) objectKind()  {}
func (DataViewKind) objectKind()    {}
func (DateKind) objectKind()        {}
func (PromiseKind) objectKind()     {}
func (ErrorKind) objectKind()       {}
