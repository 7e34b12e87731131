package value

import (
	"fmt"
	"testing"

	"github.com/wippyai/jsbind/errors"
	"github.com/wippyai/jsbind/finalizer"
	"github.com/wippyai/jsbind/host"
	"github.com/wippyai/jsbind/host/memhost"
)

func TestDefineProperties_ReleasedOnCollection(t *testing.T) {
	tests := []struct {
		n, m int
	}{
		{1, 0},
		{3, 1},
		{4, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d,m=%d", tt.n, tt.m), func(t *testing.T) {
			reg := isolateRegistry(t)
			e, env := newEnv(t, memhost.Options{})

			closures := make([]*counter, tt.m)
			for i := range closures {
				closures[i] = &counter{}
			}

			if st := e.OpenHandleScope(env); st != host.OK {
				t.Fatalf("OpenHandleScope = %s", st)
			}
			obj, _ := NewObject(e, env)
			props := make([]Property, tt.n)
			for i := range props {
				props[i] = Property{Name: fmt.Sprintf("p%d", i), Value: i, Attributes: host.AttrDefaultProperty}
				if i < tt.m {
					props[i].Closure = closures[i]
				}
			}
			if err := obj.DefineProperties(props...); err != nil {
				t.Fatalf("DefineProperties failed: %v", err)
			}
			for i := 0; i < tt.n; i++ {
				var v int
				if err := obj.GetNamed(fmt.Sprintf("p%d", i), &v); err != nil || v != i {
					t.Fatalf("Expected p%d = %d, got %d, %v", i, i, v, err)
				}
			}

			wantPending := 0
			if tt.m > 0 {
				wantPending = 1
			}
			if reg.Pending() != wantPending {
				t.Fatalf("Expected %d pending sets, got %d", wantPending, reg.Pending())
			}
			e.CloseHandleScope(env)

			for i := 0; i < 2; i++ {
				if _, err := e.RunGC(env); err != nil {
					t.Fatalf("RunGC failed: %v", err)
				}
			}
			for i, c := range closures {
				if c.n != 1 {
					t.Fatalf("closure %d released %d times", i, c.n)
				}
			}
			if reg.Pending() != 0 {
				t.Fatalf("Expected no pending sets, got %d", reg.Pending())
			}
		})
	}
}

func TestDefineProperties_DoubleFinalize(t *testing.T) {
	reg := isolateRegistry(t)
	e, env := newEnv(t, memhost.Options{})
	rt := &recordingTable{Table: e}

	a, b := &counter{}, &counter{}
	obj, _ := NewObject(rt, env)
	err := obj.DefineProperties(
		Property{Name: "a", Value: "x", Closure: a},
		Property{Name: "b", Value: "y", Closure: b},
		Property{Name: "c", Value: "z"},
	)
	if err != nil {
		t.Fatalf("DefineProperties failed: %v", err)
	}
	if rt.fin == nil {
		t.Fatal("Expected a finalizer to be attached")
	}
	if rt.hint != 2 {
		t.Fatalf("Expected hint to carry the closure count 2, got %d", rt.hint)
	}

	rt.fin(env, rt.data, rt.hint)
	rt.fin(env, rt.data, rt.hint)

	if a.n != 1 || b.n != 1 {
		t.Fatalf("Expected each closure released once, got %d and %d", a.n, b.n)
	}
	if reg.Pending() != 0 {
		t.Fatalf("Expected no pending sets, got %d", reg.Pending())
	}
}

func TestDefineProperties_AttachFailure(t *testing.T) {
	reg := isolateRegistry(t)
	e, env := newEnv(t, memhost.Options{})
	rt := &recordingTable{Table: e, fail: true}

	c := &counter{}
	obj, _ := NewObject(rt, env)
	err := obj.DefineProperties(Property{Name: "a", Value: 1, Closure: c})
	if asError(t, err).Status != host.GenericFailure {
		t.Fatalf("Expected GenericFailure, got %v", err)
	}
	if c.n != 0 {
		t.Fatalf("Expected closure to stay with the caller, released %d times", c.n)
	}
	if reg.Pending() != 0 {
		t.Fatalf("Expected registry to drop the set, got %d pending", reg.Pending())
	}
	if ok, _ := obj.HasOwnProperty("a"); ok {
		t.Fatal("Expected no property defined after attach failure")
	}
}

func TestDefineProperties_DefineFailureKeepsFinalizer(t *testing.T) {
	reg := isolateRegistry(t)
	e, env := newEnv(t, memhost.Options{})

	obj, _ := NewObject(e, env)
	if err := obj.Freeze(); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	c := &counter{}
	err := obj.DefineProperties(Property{Name: "a", Value: 1, Closure: c})
	if asError(t, err).Kind != errors.KindPendingException {
		t.Fatalf("Expected pending exception, got %v", err)
	}
	if reg.Pending() != 1 {
		t.Fatalf("Expected the set to stay with the object, got %d pending", reg.Pending())
	}
	if c.n != 0 {
		t.Fatalf("Expected no release before collection, got %d", c.n)
	}

	_ = e.CloseAll()
	if c.n != 1 {
		t.Fatalf("Expected closure released once on teardown, got %d", c.n)
	}
	if reg.Pending() != 0 {
		t.Fatalf("Expected no pending sets, got %d", reg.Pending())
	}
}

func TestDefineProperties_NoFinalizersBelowLevel(t *testing.T) {
	isolateRegistry(t)
	e, env := newEnv(t, memhost.Options{Version: 4})

	obj, _ := NewObject(e, env)
	err := obj.DefineProperties(Property{Name: "a", Value: 1, Closure: &counter{}})
	if asError(t, err).Kind != errors.KindUnsupported {
		t.Fatalf("Expected unsupported, got %v", err)
	}

	if err := obj.DefineProperties(Property{Name: "b", Value: 1}); err != nil {
		t.Fatalf("Expected closure-free batch to work, got %v", err)
	}
}

func TestDefineProperties_Invalid(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})
	obj, _ := NewObject(e, env)

	get := func(CallInfo) (any, error) { return 1, nil }
	tests := []struct {
		name string
		prop Property
	}{
		{"no name or key", Property{Value: 1}},
		{"nothing set", Property{Name: "x"}},
		{"value and getter", Property{Name: "x", Value: 1, Getter: get}},
		{"method and getter", Property{Name: "x", Method: get, Getter: get}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := obj.DefineProperties(tt.prop)
			if asError(t, err).Kind != errors.KindInvalidArgument {
				t.Fatalf("Expected invalid argument, got %v", err)
			}
		})
	}
}

func TestDefineProperties_Accessors(t *testing.T) {
	e, env := newEnv(t, memhost.Options{})
	obj, _ := NewObject(e, env)

	stored := 0.0
	sym, _ := NewSymbol(e, env, "tag")
	err := obj.DefineProperties(
		Property{
			Name: "level",
			Getter: func(CallInfo) (any, error) {
				return stored, nil
			},
			Setter: func(call CallInfo) (any, error) {
				return nil, call.Arg(0, &stored)
			},
			Attributes: host.AttrEnumerable,
		},
		Property{
			Name: "double",
			Method: func(call CallInfo) (any, error) {
				var n float64
				if err := call.Arg(0, &n); err != nil {
					return nil, err
				}
				return n * 2, nil
			},
		},
		Property{Key: sym, Value: "tagged"},
	)
	if err != nil {
		t.Fatalf("DefineProperties failed: %v", err)
	}

	if err := obj.SetNamedProperty("level", 7); err != nil {
		t.Fatalf("setter failed: %v", err)
	}
	var level float64
	if err := obj.GetNamed("level", &level); err != nil || level != 7 {
		t.Fatalf("Expected 7, got %v, %v", level, err)
	}

	var double Function
	if err := obj.GetNamed("double", &double); err != nil {
		t.Fatalf("GetNamed(double) failed: %v", err)
	}
	out, err := double.Call(obj, 21)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	var n float64
	if err := out.Decode(&n); err != nil || n != 42 {
		t.Fatalf("Expected 42, got %v, %v", n, err)
	}

	var tag string
	if err := obj.GetProperty(sym, &tag); err != nil || tag != "tagged" {
		t.Fatalf("Expected tagged, got %q, %v", tag, err)
	}
}

func TestExternalClosure(t *testing.T) {
	reg := isolateRegistry(t)
	e, env := newEnv(t, memhost.Options{})

	c := &counter{}
	e.OpenHandleScope(env)
	ext, err := NewExternal(e, env, 5, c)
	if err != nil {
		t.Fatalf("NewExternal failed: %v", err)
	}
	if v, _ := ext.Data(); v != 5 {
		t.Fatalf("Expected data 5, got %d", v)
	}
	e.CloseHandleScope(env)

	if _, err := e.RunGC(env); err != nil {
		t.Fatalf("RunGC failed: %v", err)
	}
	if c.n != 1 {
		t.Fatalf("Expected closure released once, got %d", c.n)
	}
	if reg.Pending() != 0 {
		t.Fatalf("Expected no pending sets, got %d", reg.Pending())
	}
}

var _ finalizer.Closure = (*counter)(nil)
