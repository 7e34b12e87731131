package value

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/host"
	"github.com/wippyai/jsbind/host/memhost"
)

func TestValidateKinds(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	mk := func(h host.Handle, st host.Status) Raw {
		t.Helper()
		if st != host.OK {
			t.Fatalf("Expected OK, got %s", st)
		}
		r, err := NewRaw(e, env, h)
		if err != nil {
			t.Fatalf("NewRaw failed: %v", err)
		}
		return r
	}

	ab := mk(e.CreateArrayBuffer(env, make([]byte, 8)))
	str := mk(e.CreateStringUTF8(env, "x"))
	msg := mk(e.CreateStringUTF8(env, "boom"))

	samples := []struct {
		name   string
		raw    Raw
		accept []string
	}{
		{"undefined", mk(e.GetUndefined(env)), []string{"Undefined"}},
		{"null", mk(e.GetNull(env)), []string{"Null"}},
		{"boolean", mk(e.GetBoolean(env, true)), []string{"Boolean"}},
		{"number", mk(e.CreateDouble(env, 1)), []string{"Number"}},
		{"string", str, []string{"String"}},
		{"symbol", mk(e.CreateSymbol(env, str.Handle)), []string{"Symbol"}},
		{"external", mk(e.CreateExternal(env, 1, nil, 0)), []string{"External"}},
		{"function", mk(e.CreateFunction(env, "f", func(host.Env, host.CallbackInfo) host.Handle { return 0 }, 0)), []string{"Function"}},
		{"object", mk(e.CreateObject(env)), []string{"Object"}},
		{"array", mk(e.CreateArray(env)), []string{"Object", "Array"}},
		{"buffer", mk(e.CreateBuffer(env, []byte("x"))), []string{"Object", "Buffer", "TypedArray"}},
		{"arraybuffer", ab, []string{"Object", "ArrayBuffer"}},
		{"typedarray", mk(e.CreateTypedArray(env, host.Uint16Array, 4, ab.Handle, 0)), []string{"Object", "TypedArray"}},
		{"dataview", mk(e.CreateDataView(env, 8, ab.Handle, 0)), []string{"Object", "DataView"}},
		{"date", mk(e.CreateDate(env, 0)), []string{"Object", "Date"}},
		{"promise", mk(e.CreatePromise(env)), []string{"Object", "Promise"}},
		{"error", mk(e.CreateError(env, 0, msg.Handle)), []string{"Object", "Error"}},
	}

	for _, s := range samples {
		t.Run(s.name, func(t *testing.T) {
			for id := kUndefined; id <= kError; id++ {
				d := kinds[id]
				accepted := false
				for _, a := range s.accept {
					if a == d.Name {
						accepted = true
					}
				}

				out, err := d.Validate(s.raw)
				if accepted {
					if err != nil {
						t.Fatalf("Expected %s to accept %s, got %v", d.Name, s.name, err)
					}
					if out.Kind != d.Expected {
						t.Fatalf("Expected confirmed kind %s, got %s", d.Expected, out.Kind)
					}
					continue
				}

				ee := asError(t, err)
				if ee.Kind != errors.KindTypeMismatch {
					t.Fatalf("%s on %s: expected type mismatch, got %s", d.Name, s.name, ee.Kind)
				}
				if ee.Expected != d.Name {
					t.Fatalf("Expected mismatch to name %s, got %s", d.Name, ee.Expected)
				}
				if !strings.HasPrefix(ee.Detail, "Expect value to be "+d.Name) {
					t.Fatalf("Unexpected reason: %s", ee.Detail)
				}
			}
		})
	}
}

func TestUnknownAcceptsAnything(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	h, _ := e.CreateObject(env)
	u, err := As[Unknown](RawUnchecked(e, env, h, host.Unknown))
	if err != nil {
		t.Fatalf("Expected Unknown to accept object, got %v", err)
	}
	if u.Raw().Kind != host.Unknown {
		t.Fatalf("Expected Unknown kind, got %s", u.Raw().Kind)
	}
}

func TestToUnknownRoundTrip(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	arr, err := NewArray(e, env, 3)
	if err != nil {
		t.Fatalf("NewArray failed: %v", err)
	}

	u := arr.ToUnknown()
	if u.Handle() != arr.Handle() || u.Env() != arr.Env() {
		t.Fatal("Expected ToUnknown to keep handle and env")
	}
	if u.ToUnknown() != u {
		t.Fatal("Expected ToUnknown to be idempotent")
	}

	back, err := Cast[Array](u)
	if err != nil {
		t.Fatalf("Cast back to Array failed: %v", err)
	}
	if back.Handle() != arr.Handle() {
		t.Fatal("Expected Cast to keep the handle")
	}
	if back.Raw().Kind != host.Object {
		t.Fatalf("Expected confirmed kind Object, got %s", back.Raw().Kind)
	}

	if _, err := Cast[Function](u); err == nil {
		t.Fatal("Expected Cast to Function to fail for an array")
	}

	unchecked := CastUnchecked[Function](u)
	if unchecked.Handle() != arr.Handle() {
		t.Fatal("Expected CastUnchecked to wrap the handle as-is")
	}
}

func TestConstructorsAndReaders(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	b, _ := NewBoolean(e, env, true)
	if v, err := b.Bool(); err != nil || !v {
		t.Fatalf("Expected true, got %v, %v", v, err)
	}

	n, _ := NewNumber(e, env, -7.5)
	if v, err := n.Float64(); err != nil || v != -7.5 {
		t.Fatalf("Expected -7.5, got %v, %v", v, err)
	}
	if v, err := n.Int32(); err != nil || v != -7 {
		t.Fatalf("Expected -7, got %v, %v", v, err)
	}

	s, _ := NewString(e, env, "héllo")
	if v, err := s.UTF8(); err != nil || v != "héllo" {
		t.Fatalf("Expected héllo, got %q, %v", v, err)
	}

	when := time.UnixMilli(1700000000123).UTC()
	d, err := NewDate(e, env, when)
	if err != nil {
		t.Fatalf("NewDate failed: %v", err)
	}
	got, err := d.Time()
	if err != nil || !got.Equal(when) {
		t.Fatalf("Expected %v, got %v, %v", when, got, err)
	}

	ee, err := NewError(e, env, "E_CODE", "went wrong")
	if err != nil {
		t.Fatalf("NewError failed: %v", err)
	}
	if m, err := ee.Message(); err != nil || m != "went wrong" {
		t.Fatalf("Expected message, got %q, %v", m, err)
	}

	buf, _ := NewBuffer(e, env, []byte{1, 2, 3})
	if raw, err := buf.Bytes(); err != nil || len(raw) != 3 || raw[2] != 3 {
		t.Fatalf("Expected buffer bytes, got %v, %v", raw, err)
	}

	ext, _ := NewExternal(e, env, 99, nil)
	if v, err := ext.Data(); err != nil || v != 99 {
		t.Fatalf("Expected 99, got %v, %v", v, err)
	}
}

func TestProbes(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	ab, _ := NewArrayBuffer(e, env, make([]byte, 4))
	ta, err := NewTypedArray(ab, host.Uint8Array, 4, 0)
	if err != nil {
		t.Fatalf("NewTypedArray failed: %v", err)
	}
	promise, _ := NewPromise(e, env)

	tests := []struct {
		name  string
		probe func() (bool, error)
		want  bool
	}{
		{"typed array is typed array", ta.IsTypedArray, true},
		{"typed array is not buffer", ta.IsBuffer, false},
		{"array buffer", ab.IsArrayBuffer, true},
		{"promise", promise.IsPromise, true},
		{"promise is not error", promise.IsError, false},
		{"promise is not date", promise.IsDate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.probe()
			if err != nil {
				t.Fatalf("probe failed: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFeatureGating(t *testing.T) {
	e, env := newEnv(t, memhost.Options{Version: 4})

	if _, err := NewDate(e, env, time.Now()); asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported, got %v", err)
	}

	obj, _ := NewObject(e, env)
	if _, err := obj.IsDate(); asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported IsDate, got %v", err)
	}
	if err := obj.Freeze(); asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported Freeze, got %v", err)
	}
	if _, err := obj.AllPropertyNames(host.KeyOwnOnly, host.KeyAllProperties, host.KeyKeepNumbers); asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported AllPropertyNames, got %v", err)
	}

	var d Date
	if err := obj.Decode(&d); asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported Date validation, got %v", err)
	}
}

func TestEitherSkipsFailingAlternative(t *testing.T) {
	e, env := newEnv(t, memhost.Options{Version: 4})
	obj, _ := NewObject(e, env)

	out, err := Either(DateKind{}.Descriptor(), ObjectKind{}.Descriptor()).Validate(obj.Raw())
	if err != nil {
		t.Fatalf("Expected Object alternative to match, got %v", err)
	}
	if out.Kind != host.Object {
		t.Fatalf("Expected confirmed kind Object, got %s", out.Kind)
	}

	_, err = Either(DateKind{}.Descriptor(), ArrayKind{}.Descriptor()).Validate(obj.Raw())
	ee := asError(t, err)
	if ee.Kind != errors.KindTypeMismatch || ee.Expected != "Date | Array" {
		t.Fatalf("Expected mismatch naming Date | Array, got %v", err)
	}
	if !stderrors.Is(err, &errors.Error{Kind: errors.KindUnsupported}) {
		t.Fatalf("Expected the unsupported Date check as cause, got %v", err)
	}
}

type failingDecoder struct{ got host.Handle }

func (f *failingDecoder) DecodeHandle(r Raw) error {
	f.got = r.Handle
	return stderrors.New("rejected")
}

func TestAsUncheckedDecodeFailure(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})
	h, _ := e.CreateObject(env)
	r := RawUnchecked(e, env, h, host.Unknown)

	if got := AsUnchecked[failingDecoder](r); got.got != 0 {
		t.Fatalf("Expected zero value on decode failure, got %+v", got)
	}
	if _, err := As[failingDecoder](r); err == nil || err.Error() != "rejected" {
		t.Fatalf("Expected checked path to surface the error, got %v", err)
	}
}

func TestCoercions(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	n, _ := NewNumber(e, env, 0)
	b, err := n.CoerceToBool()
	if err != nil {
		t.Fatalf("CoerceToBool failed: %v", err)
	}
	if v, _ := b.Bool(); v {
		t.Fatal("Expected 0 to coerce to false")
	}

	s, _ := NewString(e, env, "3.25")
	num, err := s.CoerceToNumber()
	if err != nil {
		t.Fatalf("CoerceToNumber failed: %v", err)
	}
	if v, _ := num.Float64(); v != 3.25 {
		t.Fatalf("Expected 3.25, got %v", v)
	}

	big, _ := NewNumber(e, env, 1e21)
	str, err := big.CoerceToString()
	if err != nil {
		t.Fatalf("CoerceToString failed: %v", err)
	}
	if v, _ := str.UTF8(); v != "1e+21" {
		t.Fatalf("Expected 1e+21, got %q", v)
	}

	boxed, err := s.CoerceToObject()
	if err != nil {
		t.Fatalf("CoerceToObject failed: %v", err)
	}
	if typ, _ := boxed.TypeOf(); typ != host.Object {
		t.Fatalf("Expected object, got %s", typ)
	}

	undef, _ := NewUndefined(e, env)
	_, err = undef.CoerceToObject()
	if asError(t, err).Status != host.PendingException {
		t.Fatalf("Expected pending exception, got %v", err)
	}
	e.GetAndClearLastException(env)
}

func TestStrictEqualsAndInstanceOf(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})

	global, _ := Global(e, env)
	var ctor Function
	if err := global.GetNamed("Error", &ctor); err != nil {
		t.Fatalf("GetNamed(Error) failed: %v", err)
	}
	inst, err := ctor.New("boom")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ok, err := inst.InstanceOf(ctor)
	if err != nil || !ok {
		t.Fatalf("Expected instanceof Error, got %v, %v", ok, err)
	}

	a, _ := NewString(e, env, "same")
	b, _ := NewString(e, env, "same")
	if eq, err := a.StrictEquals(b); err != nil || !eq {
		t.Fatalf("Expected equal strings, got %v, %v", eq, err)
	}
	if eq, _ := inst.StrictEquals(a); eq {
		t.Fatal("Expected object and string to differ")
	}
}

func TestCrossEnvRejected(t *testing.T) {
	e := memhost.New(memhost.Options{})
	a, b := e.NewEnv(), e.NewEnv()
	defer e.CloseAll()

	objA, _ := NewObject(e, a)
	objB, _ := NewObject(e, b)

	err := objB.SetNamedProperty("other", objA)
	if asError(t, err).Kind != errors.KindInvalidArgument {
		t.Fatalf("Expected invalid argument, got %v", err)
	}
}
