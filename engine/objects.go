package engine

import (
	"github.com/wippyai/jsbind/host"
)

func (t *Table) SetProperty(env host.Env, obj, key, v host.Handle) host.Status {
	return t.invoke("napi_set_property", envArg(env), handleArg(obj), handleArg(key), handleArg(v))
}

func (t *Table) GetProperty(env host.Env, obj, key host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_get_property", envArg(env), handleArg(obj), handleArg(key))
}

func (t *Table) HasProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	return t.boolOut("napi_has_property", envArg(env), handleArg(obj), handleArg(key))
}

func (t *Table) HasOwnProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	return t.boolOut("napi_has_own_property", envArg(env), handleArg(obj), handleArg(key))
}

func (t *Table) DeleteProperty(env host.Env, obj, key host.Handle) (bool, host.Status) {
	return t.boolOut("napi_delete_property", envArg(env), handleArg(obj), handleArg(key))
}

func (t *Table) SetNamedProperty(env host.Env, obj host.Handle, name string, v host.Handle) host.Status {
	return t.withString("set named property", name, func(ptr, n uint32) host.Status {
		return t.invoke("napi_set_named_property", envArg(env), handleArg(obj), uint64(ptr), uint64(n), handleArg(v))
	})
}

func (t *Table) GetNamedProperty(env host.Env, obj host.Handle, name string) (host.Handle, host.Status) {
	var out host.Handle
	st := t.withString("get named property", name, func(ptr, n uint32) host.Status {
		var st host.Status
		out, st = t.handleOut("napi_get_named_property", envArg(env), handleArg(obj), uint64(ptr), uint64(n))
		return st
	})
	return out, st
}

func (t *Table) HasNamedProperty(env host.Env, obj host.Handle, name string) (bool, host.Status) {
	var out bool
	st := t.withString("has named property", name, func(ptr, n uint32) host.Status {
		var st host.Status
		out, st = t.boolOut("napi_has_named_property", envArg(env), handleArg(obj), uint64(ptr), uint64(n))
		return st
	})
	return out, st
}

func (t *Table) GetPropertyNames(env host.Env, obj host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_get_property_names", envArg(env), handleArg(obj))
}

func (t *Table) GetAllPropertyNames(env host.Env, obj host.Handle, mode host.KeyCollectionMode, filter host.KeyFilter, conv host.KeyConversion) (host.Handle, host.Status) {
	return t.handleOut("napi_get_all_property_names", envArg(env), handleArg(obj), uint64(mode), uint64(filter), uint64(conv))
}

func (t *Table) GetPrototype(env host.Env, obj host.Handle) (host.Handle, host.Status) {
	return t.handleOut("napi_get_prototype", envArg(env), handleArg(obj))
}

func (t *Table) SetElement(env host.Env, obj host.Handle, index uint32, v host.Handle) host.Status {
	return t.invoke("napi_set_element", envArg(env), handleArg(obj), uint64(index), handleArg(v))
}

func (t *Table) GetElement(env host.Env, obj host.Handle, index uint32) (host.Handle, host.Status) {
	return t.handleOut("napi_get_element", envArg(env), handleArg(obj), uint64(index))
}

func (t *Table) HasElement(env host.Env, obj host.Handle, index uint32) (bool, host.Status) {
	return t.boolOut("napi_has_element", envArg(env), handleArg(obj), uint64(index))
}

func (t *Table) DeleteElement(env host.Env, obj host.Handle, index uint32) (bool, host.Status) {
	return t.boolOut("napi_delete_element", envArg(env), handleArg(obj), uint64(index))
}

func (t *Table) GetArrayLength(env host.Env, v host.Handle) (uint32, host.Status) {
	return t.u32Out("napi_get_array_length", envArg(env), handleArg(v))
}

const descriptorSize = 40

// DefineProperties marshals props into guest descriptors. Callbacks are
// registered before the call and dropped again when it fails.
func (t *Table) DefineProperties(env host.Env, obj host.Handle, props []host.PropertyDescriptor) host.Status {
	if len(props) == 0 {
		return host.OK
	}

	var names []byte
	for _, p := range props {
		names = append(names, p.Name...)
	}

	var ids []uint32
	st := t.withBytes("define properties", names, func(namesPtr uint32) host.Status {
		descs := make([]byte, descriptorSize*len(props))
		off := namesPtr
		for i, p := range props {
			d := descs[descriptorSize*i:]
			if p.Name != "" {
				putU32(d[0:], off)
				putU32(d[4:], uint32(len(p.Name)))
				off += uint32(len(p.Name))
			}
			putU32(d[8:], uint32(p.Key))
			for j, cb := range []host.Callback{p.Method, p.Getter, p.Setter} {
				if cb != nil {
					id := t.registerCallback(cb)
					ids = append(ids, id)
					putU32(d[12+4*j:], id)
				}
			}
			putU32(d[24:], uint32(p.Value))
			putU32(d[28:], uint32(p.Attributes))
			putU64(d[32:], uint64(p.Data))
		}
		return t.withBytes("define properties", descs, func(ptr uint32) host.Status {
			return t.invoke("napi_define_properties", envArg(env), handleArg(obj), uint64(len(props)), uint64(ptr))
		})
	})
	if st != host.OK {
		for _, id := range ids {
			t.dropCallback(id)
		}
	}
	return st
}

// AddFinalizer registers fin to run once when the guest collects obj.
func (t *Table) AddFinalizer(env host.Env, obj host.Handle, data uintptr, fin host.Finalize, hint uintptr) host.Status {
	if fin == nil {
		return host.InvalidArg
	}
	id := t.registerFinalizer(fin)
	st := t.invoke("napi_add_finalizer", envArg(env), handleArg(obj), uint64(data), uint64(id), uint64(hint))
	if st != host.OK {
		t.dropFinalizer(id)
	}
	return st
}

func (t *Table) ObjectFreeze(env host.Env, obj host.Handle) host.Status {
	return t.invoke("napi_object_freeze", envArg(env), handleArg(obj))
}

func (t *Table) ObjectSeal(env host.Env, obj host.Handle) host.Status {
	return t.invoke("napi_object_seal", envArg(env), handleArg(obj))
}

func (t *Table) CallFunction(env host.Env, recv, fn host.Handle, args []host.Handle) (host.Handle, host.Status) {
	var out host.Handle
	st := t.withHandles("call function", args, func(argv, argc uint32) host.Status {
		var st host.Status
		out, st = t.handleOut("napi_call_function", envArg(env), handleArg(recv), handleArg(fn), uint64(argc), uint64(argv))
		return st
	})
	return out, st
}

func (t *Table) NewInstance(env host.Env, constructor host.Handle, args []host.Handle) (host.Handle, host.Status) {
	var out host.Handle
	st := t.withHandles("new instance", args, func(argv, argc uint32) host.Status {
		var st host.Status
		out, st = t.handleOut("napi_new_instance", envArg(env), handleArg(constructor), uint64(argc), uint64(argv))
		return st
	})
	return out, st
}
