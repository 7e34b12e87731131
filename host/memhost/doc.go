// Package memhost is a small in-process script value engine that implements
// host.Table.
//
// It models the parts of a script heap the binding layer talks to: primitive
// values, plain objects with ordered properties and prototypes, arrays,
// functions backed by native callbacks, errors, dates, promises, array
// buffers with typed array, buffer and data view views, externals, pending
// exceptions and finalizers.
//
// Handles are slots in a per-Env stack. OpenHandleScope and
// CloseHandleScope release them in bulk. Objects are reclaimed by a mark and
// sweep collector that runs on RunGC, when a scope closes past
// Options.GCThreshold, and (finalizers only) when the Env is closed:
//
//	eng := memhost.New(memhost.Options{})
//	env := eng.NewEnv()
//	defer eng.Close(env)
//
//	obj, _ := eng.CreateObject(env)
//	str, _ := eng.CreateStringUTF8(env, "hello")
//	eng.SetNamedProperty(env, obj, "greeting", str)
//
// Options.Version lowers the reported feature level so callers can exercise
// paths for older tables.
package memhost
