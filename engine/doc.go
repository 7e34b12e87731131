// Package engine provides a host.Table backed by a script engine compiled to
// WebAssembly and run under wazero.
//
// The guest module exports a napi-shaped function table. Every table export
// takes the env as its first i32 parameter, returns an i32 host.Status and
// writes results through trailing out pointers into guest memory. Handles
// are i32 and never 0. Strings cross as (ptr, len) pairs of UTF-8 bytes in
// memory allocated with the guest's malloc.
//
// # Guest exports
//
//	malloc(size) -> ptr                          required
//	free(ptr)                                    required
//	napi_get_version(env, *u32)                  optional; level 1 when absent
//	napi_typeof(env, v, *i32)
//	napi_get_undefined / get_null / get_global(env, *h)
//	napi_get_boolean(env, b, *h)
//	napi_create_double(env, f64, *h)    create_int32 / create_uint32 / create_int64
//	napi_create_string_utf8(env, ptr, len, *h)
//	napi_create_symbol(env, desc, *h)   create_object / create_array(env, *h)
//	napi_create_array_with_length(env, n, *h)
//	napi_create_external(env, data i64, fin, hint i64, *h)
//	napi_create_function(env, name, len, cb, data i64, *h)
//	napi_create_error(env, code, msg, *h)
//	napi_create_arraybuffer / create_buffer(env, len, *ptr, *h)
//	napi_create_typedarray(env, type, length, ab, offset, *h)
//	napi_create_dataview(env, length, ab, offset, *h)
//	napi_create_date(env, f64, *h)      create_promise(env, *h)
//	napi_get_value_*(env, v, *out)      get_value_string_utf8(env, v, buf, size, *len)
//	napi_get_buffer_info / get_arraybuffer_info(env, v, *ptr, *len)
//	napi_coerce_to_*(env, v, *h)        napi_is_*(env, v, *bool)
//	napi_instanceof(env, obj, ctor, *bool)  strict_equals(env, a, b, *bool)
//	napi_{set,get,has,has_own,delete}_property(env, obj, key, ...)
//	napi_{set,get,has}_named_property(env, obj, name, len, ...)
//	napi_get_property_names(env, obj, *h)
//	napi_get_all_property_names(env, obj, mode, filter, conv, *h)
//	napi_get_prototype(env, obj, *h)
//	napi_{set,get,has,delete}_element(env, obj, index, ...)
//	napi_get_array_length(env, v, *u32)
//	napi_define_properties(env, obj, count, descs)
//	napi_add_finalizer(env, obj, data i64, fin, hint i64)
//	napi_object_freeze / object_seal(env, obj)
//	napi_call_function(env, recv, fn, argc, argv, *h)
//	napi_new_instance(env, ctor, argc, argv, *h)
//	napi_get_cb_info(env, info, *argc, argv, *this, *data i64)
//	napi_get_new_target(env, info, *h)
//	napi_throw(env, v)  throw_error(env, code, clen, msg, mlen)
//	napi_is_exception_pending(env, *bool)  get_and_clear_last_exception(env, *h)
//
// A missing export makes the corresponding table method report
// GenericFailure, which is how feature levels surface for guests that do
// not implement an operation.
//
// Descriptors passed to napi_define_properties are 40 bytes each:
//
//	0  name ptr   4 name len   8 key handle   12 method cb
//	16 getter cb  20 setter cb 24 value       28 attributes
//	32 data (i64)
//
// # Host imports
//
// The table registers a host module (default "jsbind") the guest calls back
// into:
//
//	call_function(env, cb, info) -> h     runs a Go callback
//	finalize(env, fin, data i64, hint i64) runs a Go finalizer once
//
// Callback and finalizer ids are allocated by the table when functions,
// externals, accessors or finalizers are created. A guest that imports its
// memory from "env" instead of exporting it is supported.
//
// # Usage
//
//	tab, err := engine.Load(ctx, wasmBytes, &engine.Config{MemoryLimitPages: 1024})
//	if err != nil {
//	    return err
//	}
//	defer tab.Close()
//
//	obj, err := value.NewObject(tab, env)
//
// A Table drives a single guest instance and is not safe for concurrent use.
package engine
