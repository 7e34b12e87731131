// Package finalizer ties native-side closures to the lifetime of engine
// objects.
//
// Property descriptors may carry Go state (getter/setter/method closures,
// buffers, file handles) that must be released when the engine collects
// the object they were defined on. The engine cannot hold Go values, so the
// closures are parked in an Arena and only a token and a count cross the
// boundary:
//
//	data, hint, err := registry.Register(closures)
//	status := tab.AddFinalizer(env, obj, data, registry.Finalize, hint)
//
// # Lifecycle
//
//	Register  -> Pending    set stored, (token, count) handed to the engine
//	Finalize  -> Finalized  engine collected the object; every closure
//	                        released once, slot freed
//	Abandon                 engine refused the finalizer; slot freed without
//	                        release, ownership stays with the caller
//
// A set whose object is never collected (process exit, aborted context)
// stays pending. That is a permitted leak, not an error. Close releases
// whatever is still pending on orderly shutdown.
//
// Finalize never trusts the engine blindly: an unknown token or a count
// that differs from registration is logged and ignored, so a double
// finalize cannot release a closure twice.
package finalizer
