package engine

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jsbind/host"
	"github.com/wippyai/jsbind/host/memhost"
)

// envWASM is (module (memory (export "memory") 4)). Host modules cannot
// export memory, so the test guest imports it from "env" like engines that
// are linked against an external memory do.
var envWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x04, // memory section: 4 pages, no max
	0x07, 0x0a, 0x01, // export section
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // "memory"
	0x02, 0x00, // memory index 0
}

const (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
	f64 = api.ValueTypeF64
)

// guest is a Go stand-in for an engine compiled to wasm: it exports the
// table ABI as a host module and answers it with a memhost engine.
type guest struct {
	ctx  context.Context
	rt   wazero.Runtime
	eng  *memhost.Engine
	mem  api.Memory
	skip map[string]bool

	next  uint32
	frees int

	infos    map[uint32]host.CallbackInfo
	nextInfo uint32

	// backing stores handed to the host for filling; copied into the
	// engine on the next call
	pending []mirror
}

type mirror struct {
	ptr  uint32
	data []byte
}

type fixture struct {
	tab *Table
	g   *guest
	env host.Env
}

func newFixture(t *testing.T, opts memhost.Options, cfg *Config, skip ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })

	envMod, err := rt.InstantiateWithConfig(ctx, envWASM, wazero.NewModuleConfig().WithName("env"))
	if err != nil {
		t.Fatalf("instantiate env: %v", err)
	}

	tab, err := NewTable(ctx, rt, cfg)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	g := &guest{
		ctx:   ctx,
		rt:    rt,
		eng:   memhost.New(opts),
		mem:   envMod.ExportedMemory("memory"),
		skip:  make(map[string]bool),
		next:  1024,
		infos: make(map[uint32]host.CallbackInfo),
	}
	for _, s := range skip {
		g.skip[s] = true
	}
	mod, err := g.instantiate(tab.cfg.ModuleName)
	if err != nil {
		t.Fatalf("instantiate guest: %v", err)
	}
	if err := tab.Bind(mod); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	t.Cleanup(func() {
		_ = tab.Close()
		_ = g.eng.CloseAll()
	})
	return &fixture{tab: tab, g: g, env: g.eng.NewEnv()}
}

func (g *guest) callback(env host.Env, id uint32, info host.CallbackInfo) host.Handle {
	g.nextInfo++
	key := g.nextInfo
	g.infos[key] = info
	defer delete(g.infos, key)

	fn := g.rt.Module("jsbind").ExportedFunction("call_function")
	res, err := fn.Call(g.ctx, uint64(uint32(env)), uint64(id), uint64(key))
	if err != nil {
		panic(err)
	}
	return host.Handle(api.DecodeU32(res[0]))
}

func (g *guest) finalizer(id uint32) host.Finalize {
	if id == 0 {
		return nil
	}
	return func(env host.Env, data, hint uintptr) {
		fn := g.rt.Module("jsbind").ExportedFunction("finalize")
		if _, err := fn.Call(g.ctx, uint64(uint32(env)), uint64(id), uint64(data), uint64(hint)); err != nil {
			panic(err)
		}
	}
}

func (g *guest) malloc(size uint32) uint32 {
	p := g.next
	g.next += (size + 7) &^ 7
	return p
}

func (g *guest) sync() {
	for _, m := range g.pending {
		src, _ := g.mem.Read(m.ptr, uint32(len(m.data)))
		copy(m.data, src)
	}
	g.pending = nil
}

func (g *guest) str(ptr, n uint64) string {
	b, _ := g.mem.Read(uint32(ptr), uint32(n))
	return string(b)
}

func (g *guest) putU32(ptr uint64, v uint32, st host.Status) host.Status {
	if st == host.OK {
		g.mem.WriteUint32Le(uint32(ptr), v)
	}
	return st
}

func (g *guest) putHandle(ptr uint64, v host.Handle, st host.Status) host.Status {
	return g.putU32(ptr, uint32(v), st)
}

func (g *guest) putBool(ptr uint64, v bool, st host.Status) host.Status {
	var n uint32
	if v {
		n = 1
	}
	return g.putU32(ptr, n, st)
}

func (g *guest) putU64(ptr uint64, v uint64, st host.Status) host.Status {
	if st == host.OK {
		g.mem.WriteUint64Le(uint32(ptr), v)
	}
	return st
}

func (g *guest) putF64(ptr uint64, v float64, st host.Status) host.Status {
	if st == host.OK {
		g.mem.WriteFloat64Le(uint32(ptr), v)
	}
	return st
}

func (g *guest) handles(ptr, n uint64) []host.Handle {
	out := make([]host.Handle, n)
	for i := range out {
		v, _ := g.mem.ReadUint32Le(uint32(ptr) + 4*uint32(i))
		out[i] = host.Handle(v)
	}
	return out
}

func ev(s uint64) host.Env    { return host.Env(uint32(s)) }
func hv(s uint64) host.Handle { return host.Handle(uint32(s)) }

func types(ts ...api.ValueType) []api.ValueType { return ts }

func (g *guest) instantiate(name string) (api.Module, error) {
	e := g.eng
	b := g.rt.NewHostModuleBuilder(name)

	export := func(n string, params []api.ValueType, fn func(s []uint64) host.Status) {
		if g.skip[n] {
			return
		}
		b.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
				g.sync()
				stack[0] = api.EncodeI32(int32(fn(stack)))
			}), params, types(i32)).
			Export(n)
	}

	if !g.skip["malloc"] {
		b.NewFunctionBuilder().
			WithFunc(func(_ context.Context, size uint32) uint32 { return g.malloc(size) }).
			Export("malloc")
	}
	if !g.skip["free"] {
		b.NewFunctionBuilder().
			WithFunc(func(_ context.Context, _ uint32) { g.frees++ }).
			Export("free")
	}

	export("napi_get_version", types(i32, i32), func(s []uint64) host.Status {
		return g.putU32(s[1], e.Version(), host.OK)
	})
	export("napi_typeof", types(i32, i32, i32), func(s []uint64) host.Status {
		t, st := e.TypeOf(ev(s[0]), hv(s[1]))
		return g.putU32(s[2], uint32(t), st)
	})
	export("napi_get_undefined", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.GetUndefined(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})
	export("napi_get_null", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.GetNull(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})
	export("napi_get_global", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.GetGlobal(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})
	export("napi_get_boolean", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetBoolean(ev(s[0]), s[1] != 0)
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_double", types(i32, f64, i32), func(s []uint64) host.Status {
		v, st := e.CreateDouble(ev(s[0]), api.DecodeF64(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_int32", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateInt32(ev(s[0]), api.DecodeI32(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_uint32", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateUint32(ev(s[0]), api.DecodeU32(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_int64", types(i32, i64, i32), func(s []uint64) host.Status {
		v, st := e.CreateInt64(ev(s[0]), int64(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_string_utf8", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateStringUTF8(ev(s[0]), g.str(s[1], s[2]))
		return g.putHandle(s[3], v, st)
	})
	export("napi_create_symbol", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateSymbol(ev(s[0]), hv(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_object", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateObject(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})
	export("napi_create_array", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateArray(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})
	export("napi_create_array_with_length", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateArrayWithLength(ev(s[0]), api.DecodeU32(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_external", types(i32, i64, i32, i64, i32), func(s []uint64) host.Status {
		v, st := e.CreateExternal(ev(s[0]), uintptr(s[1]), g.finalizer(api.DecodeU32(s[2])), uintptr(s[3]))
		return g.putHandle(s[4], v, st)
	})
	export("napi_create_function", types(i32, i32, i32, i32, i64, i32), func(s []uint64) host.Status {
		id := api.DecodeU32(s[3])
		cb := func(env host.Env, info host.CallbackInfo) host.Handle { return g.callback(env, id, info) }
		v, st := e.CreateFunction(ev(s[0]), g.str(s[1], s[2]), cb, uintptr(s[4]))
		return g.putHandle(s[5], v, st)
	})
	export("napi_create_error", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateError(ev(s[0]), hv(s[1]), hv(s[2]))
		return g.putHandle(s[3], v, st)
	})
	backed := func(create func(host.Env, []byte) (host.Handle, host.Status), info func(host.Env, host.Handle) ([]byte, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			n := api.DecodeU32(s[1])
			v, st := create(ev(s[0]), make([]byte, n))
			if st != host.OK {
				return st
			}
			data, st := info(ev(s[0]), v)
			if st != host.OK {
				return st
			}
			ptr := g.malloc(n)
			g.pending = append(g.pending, mirror{ptr: ptr, data: data})
			g.putU32(s[2], ptr, host.OK)
			return g.putHandle(s[3], v, host.OK)
		}
	}
	export("napi_create_arraybuffer", types(i32, i32, i32, i32), backed(e.CreateArrayBuffer, e.GetArrayBufferInfo))
	export("napi_create_buffer", types(i32, i32, i32, i32), backed(e.CreateBuffer, e.GetBufferInfo))
	export("napi_create_typedarray", types(i32, i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateTypedArray(ev(s[0]), host.TypedArrayType(api.DecodeI32(s[1])), api.DecodeU32(s[2]), hv(s[3]), api.DecodeU32(s[4]))
		return g.putHandle(s[5], v, st)
	})
	export("napi_create_dataview", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CreateDataView(ev(s[0]), api.DecodeU32(s[1]), hv(s[2]), api.DecodeU32(s[3]))
		return g.putHandle(s[4], v, st)
	})
	export("napi_create_date", types(i32, f64, i32), func(s []uint64) host.Status {
		v, st := e.CreateDate(ev(s[0]), api.DecodeF64(s[1]))
		return g.putHandle(s[2], v, st)
	})
	export("napi_create_promise", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.CreatePromise(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})

	export("napi_get_value_bool", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueBool(ev(s[0]), hv(s[1]))
		return g.putBool(s[2], v, st)
	})
	export("napi_get_value_double", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueDouble(ev(s[0]), hv(s[1]))
		return g.putF64(s[2], v, st)
	})
	export("napi_get_value_int32", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueInt32(ev(s[0]), hv(s[1]))
		return g.putU32(s[2], uint32(v), st)
	})
	export("napi_get_value_uint32", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueUint32(ev(s[0]), hv(s[1]))
		return g.putU32(s[2], v, st)
	})
	export("napi_get_value_int64", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueInt64(ev(s[0]), hv(s[1]))
		return g.putU64(s[2], uint64(v), st)
	})
	export("napi_get_value_string_utf8", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueStringUTF8(ev(s[0]), hv(s[1]))
		if st != host.OK {
			return st
		}
		buf, size := api.DecodeU32(s[2]), api.DecodeU32(s[3])
		if buf == 0 {
			return g.putU32(s[4], uint32(len(v)), host.OK)
		}
		n := min(uint32(len(v)), size-1)
		g.mem.Write(buf, append([]byte(v[:n]), 0))
		return g.putU32(s[4], n, host.OK)
	})
	export("napi_get_value_external", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetValueExternal(ev(s[0]), hv(s[1]))
		return g.putU64(s[2], uint64(v), st)
	})
	export("napi_get_date_value", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetDateValue(ev(s[0]), hv(s[1]))
		return g.putF64(s[2], v, st)
	})
	info := func(read func(host.Env, host.Handle) ([]byte, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			data, st := read(ev(s[0]), hv(s[1]))
			if st != host.OK {
				return st
			}
			ptr := g.malloc(uint32(len(data)))
			g.mem.Write(ptr, data)
			g.putU32(s[2], ptr, host.OK)
			return g.putU32(s[3], uint32(len(data)), host.OK)
		}
	}
	export("napi_get_buffer_info", types(i32, i32, i32, i32), info(e.GetBufferInfo))
	export("napi_get_arraybuffer_info", types(i32, i32, i32, i32), info(e.GetArrayBufferInfo))

	handleOp := func(op func(host.Env, host.Handle) (host.Handle, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			v, st := op(ev(s[0]), hv(s[1]))
			return g.putHandle(s[2], v, st)
		}
	}
	boolOp := func(op func(host.Env, host.Handle) (bool, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			v, st := op(ev(s[0]), hv(s[1]))
			return g.putBool(s[2], v, st)
		}
	}
	export("napi_coerce_to_bool", types(i32, i32, i32), handleOp(e.CoerceToBool))
	export("napi_coerce_to_number", types(i32, i32, i32), handleOp(e.CoerceToNumber))
	export("napi_coerce_to_string", types(i32, i32, i32), handleOp(e.CoerceToString))
	export("napi_coerce_to_object", types(i32, i32, i32), handleOp(e.CoerceToObject))
	export("napi_is_array", types(i32, i32, i32), boolOp(e.IsArray))
	export("napi_is_arraybuffer", types(i32, i32, i32), boolOp(e.IsArrayBuffer))
	export("napi_is_buffer", types(i32, i32, i32), boolOp(e.IsBuffer))
	export("napi_is_typedarray", types(i32, i32, i32), boolOp(e.IsTypedArray))
	export("napi_is_dataview", types(i32, i32, i32), boolOp(e.IsDataView))
	export("napi_is_date", types(i32, i32, i32), boolOp(e.IsDate))
	export("napi_is_promise", types(i32, i32, i32), boolOp(e.IsPromise))
	export("napi_is_error", types(i32, i32, i32), boolOp(e.IsError))
	export("napi_instanceof", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.InstanceOf(ev(s[0]), hv(s[1]), hv(s[2]))
		return g.putBool(s[3], v, st)
	})
	export("napi_strict_equals", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.StrictEquals(ev(s[0]), hv(s[1]), hv(s[2]))
		return g.putBool(s[3], v, st)
	})

	export("napi_set_property", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		return e.SetProperty(ev(s[0]), hv(s[1]), hv(s[2]), hv(s[3]))
	})
	export("napi_get_property", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetProperty(ev(s[0]), hv(s[1]), hv(s[2]))
		return g.putHandle(s[3], v, st)
	})
	keyOp := func(op func(host.Env, host.Handle, host.Handle) (bool, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			v, st := op(ev(s[0]), hv(s[1]), hv(s[2]))
			return g.putBool(s[3], v, st)
		}
	}
	export("napi_has_property", types(i32, i32, i32, i32), keyOp(e.HasProperty))
	export("napi_has_own_property", types(i32, i32, i32, i32), keyOp(e.HasOwnProperty))
	export("napi_delete_property", types(i32, i32, i32, i32), keyOp(e.DeleteProperty))
	export("napi_set_named_property", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		return e.SetNamedProperty(ev(s[0]), hv(s[1]), g.str(s[2], s[3]), hv(s[4]))
	})
	export("napi_get_named_property", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetNamedProperty(ev(s[0]), hv(s[1]), g.str(s[2], s[3]))
		return g.putHandle(s[4], v, st)
	})
	export("napi_has_named_property", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.HasNamedProperty(ev(s[0]), hv(s[1]), g.str(s[2], s[3]))
		return g.putBool(s[4], v, st)
	})
	export("napi_get_property_names", types(i32, i32, i32), handleOp(e.GetPropertyNames))
	export("napi_get_all_property_names", types(i32, i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetAllPropertyNames(ev(s[0]), hv(s[1]),
			host.KeyCollectionMode(api.DecodeI32(s[2])),
			host.KeyFilter(api.DecodeI32(s[3])),
			host.KeyConversion(api.DecodeI32(s[4])))
		return g.putHandle(s[5], v, st)
	})
	export("napi_get_prototype", types(i32, i32, i32), handleOp(e.GetPrototype))

	export("napi_set_element", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		return e.SetElement(ev(s[0]), hv(s[1]), api.DecodeU32(s[2]), hv(s[3]))
	})
	export("napi_get_element", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetElement(ev(s[0]), hv(s[1]), api.DecodeU32(s[2]))
		return g.putHandle(s[3], v, st)
	})
	indexOp := func(op func(host.Env, host.Handle, uint32) (bool, host.Status)) func(s []uint64) host.Status {
		return func(s []uint64) host.Status {
			v, st := op(ev(s[0]), hv(s[1]), api.DecodeU32(s[2]))
			return g.putBool(s[3], v, st)
		}
	}
	export("napi_has_element", types(i32, i32, i32, i32), indexOp(e.HasElement))
	export("napi_delete_element", types(i32, i32, i32, i32), indexOp(e.DeleteElement))
	export("napi_get_array_length", types(i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.GetArrayLength(ev(s[0]), hv(s[1]))
		return g.putU32(s[2], v, st)
	})

	export("napi_define_properties", types(i32, i32, i32, i32), func(s []uint64) host.Status {
		env := ev(s[0])
		count, base := api.DecodeU32(s[2]), api.DecodeU32(s[3])
		props := make([]host.PropertyDescriptor, count)
		for i := range props {
			raw, ok := g.mem.Read(base+uint32(i)*descriptorSize, descriptorSize)
			if !ok {
				return host.InvalidArg
			}
			u32 := func(off int) uint32 {
				return uint32(raw[off]) | uint32(raw[off+1])<<8 | uint32(raw[off+2])<<16 | uint32(raw[off+3])<<24
			}
			p := &props[i]
			if n := u32(4); n > 0 {
				p.Name = g.str(uint64(u32(0)), uint64(n))
			}
			p.Key = host.Handle(u32(8))
			for j, dst := range []*host.Callback{&p.Method, &p.Getter, &p.Setter} {
				if id := u32(12 + 4*j); id != 0 {
					*dst = func(env host.Env, info host.CallbackInfo) host.Handle { return g.callback(env, id, info) }
				}
			}
			p.Value = host.Handle(u32(24))
			p.Attributes = host.PropertyAttributes(u32(28))
			p.Data = uintptr(uint64(u32(32)) | uint64(u32(36))<<32)
		}
		return e.DefineProperties(env, hv(s[1]), props)
	})
	export("napi_add_finalizer", types(i32, i32, i64, i32, i64), func(s []uint64) host.Status {
		return e.AddFinalizer(ev(s[0]), hv(s[1]), uintptr(s[2]), g.finalizer(api.DecodeU32(s[3])), uintptr(s[4]))
	})
	export("napi_object_freeze", types(i32, i32), func(s []uint64) host.Status {
		return e.ObjectFreeze(ev(s[0]), hv(s[1]))
	})
	export("napi_object_seal", types(i32, i32), func(s []uint64) host.Status {
		return e.ObjectSeal(ev(s[0]), hv(s[1]))
	})

	export("napi_call_function", types(i32, i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.CallFunction(ev(s[0]), hv(s[1]), hv(s[2]), g.handles(s[4], s[3]))
		return g.putHandle(s[5], v, st)
	})
	export("napi_new_instance", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		v, st := e.NewInstance(ev(s[0]), hv(s[1]), g.handles(s[3], s[2]))
		return g.putHandle(s[4], v, st)
	})
	export("napi_get_cb_info", types(i32, i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		ci, ok := g.infos[api.DecodeU32(s[1])]
		if !ok {
			return host.InvalidArg
		}
		argcPtr, argv := api.DecodeU32(s[2]), api.DecodeU32(s[3])
		capacity, _ := g.mem.ReadUint32Le(argcPtr)
		if argv != 0 {
			for i := uint32(0); i < capacity && int(i) < len(ci.Args); i++ {
				g.mem.WriteUint32Le(argv+4*i, uint32(ci.Args[i]))
			}
		}
		g.mem.WriteUint32Le(argcPtr, uint32(len(ci.Args)))
		if s[4] != 0 {
			g.putHandle(s[4], ci.This, host.OK)
		}
		if s[5] != 0 {
			g.putU64(s[5], uint64(ci.Data), host.OK)
		}
		return host.OK
	})
	export("napi_get_new_target", types(i32, i32, i32), func(s []uint64) host.Status {
		ci, ok := g.infos[api.DecodeU32(s[1])]
		if !ok {
			return host.InvalidArg
		}
		return g.putHandle(s[2], ci.NewTarget, host.OK)
	})

	export("napi_throw", types(i32, i32), func(s []uint64) host.Status {
		return e.Throw(ev(s[0]), hv(s[1]))
	})
	export("napi_throw_error", types(i32, i32, i32, i32, i32), func(s []uint64) host.Status {
		var code string
		if s[1] != 0 {
			code = g.str(s[1], s[2])
		}
		var msg string
		if s[3] != 0 {
			msg = g.str(s[3], s[4])
		}
		return e.ThrowError(ev(s[0]), code, msg)
	})
	export("napi_is_exception_pending", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.IsExceptionPending(ev(s[0]))
		return g.putBool(s[1], v, st)
	})
	export("napi_get_and_clear_last_exception", types(i32, i32), func(s []uint64) host.Status {
		v, st := e.GetAndClearLastException(ev(s[0]))
		return g.putHandle(s[1], v, st)
	})

	return b.Instantiate(g.ctx)
}
