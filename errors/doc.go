// Package errors provides structured error types for jsbind.
//
// Errors are categorized by Phase (where the error occurred), Kind (error
// category) and the host Status code that triggered them. The Error type
// carries the expected and actual value kinds, a property path for nested
// reads, and a cause chain.
//
// Every raw table call funnels through Check:
//
//	h, st := tab.GetNamedProperty(env, obj, "name")
//	if err := errors.Check(st, "get property %q", "name"); err != nil {
//		return err
//	}
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseValidate, errors.KindTypeMismatch).
//		Status(host.InvalidArg).
//		Expected("Number").
//		Actual("String").
//		Build()
//
// Reads through a named property annotate validation failures with the
// property name (see AnnotateProperty), so a failure deep in an object
// graph reports the full path.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
