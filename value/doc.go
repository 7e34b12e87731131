// Package value gives engine handles a static kind.
//
// An engine hands out opaque handles and a function table that reports
// every outcome as a status code. This package wraps a handle together
// with its table and env in a Raw, and tags it with a kind at compile
// time:
//
//	raw, _ := value.NewRaw(tab, env, h)
//	obj, err := value.As[value.Object](raw)   // validated
//	arr := value.AsUnchecked[value.Array](raw) // caller vouches
//
// Every wrapper carries the generic capability (coercions, kind probes,
// instanceof, ToUnknown). Object-structured kinds (Object, Array, Function,
// Buffer, ArrayBuffer, TypedArray, DataView, Date, Promise, Error) add
// property, element and prototype access through ObjectValue.
//
// # Checked and unchecked access
//
// Checked entry points validate the kind before reading and report
// mismatches as errors of kind type_mismatch. When the read went through a
// named property, the reason names it:
//
//	Object property 'port' type mismatch. Expect value to be Number, but received String
//
// Unchecked siblings skip the validation. They are for code that already
// established the kind, e.g. right after a probe.
//
// # Conversion
//
// Decode and DecodeChecked read engine values into Go values (strings,
// numbers, byte slices, structs with `js` tags, slices, maps, wrappers).
// Encode goes the other way and always produces fresh engine values.
//
// # Native closures
//
// Properties defined with DefineProperties may carry a finalizer.Closure.
// The closures of one batch are parked in the finalizer registry and
// released exactly once when the engine collects the object.
//
// # Threading
//
// Handles are only valid on the goroutine that drives their env and only
// while the env is alive. Building with -tags jsbind_debug makes
// validation, decoding and handle resolution check ownership on tables
// that implement host.OwnershipChecker.
package value
