package errors

import (
	"errors"
	"fmt"

	"github.com/wippyai/jsbind/host"
)

// expectedByStatus names the kind an *Expected status complains about.
var expectedByStatus = map[host.Status]string{
	host.ObjectExpected:                "Object",
	host.StringExpected:                "String",
	host.NameExpected:                  "String or Symbol",
	host.FunctionExpected:              "Function",
	host.NumberExpected:                "Number",
	host.BooleanExpected:               "Boolean",
	host.BigintExpected:                "BigInt",
	host.DateExpected:                  "Date",
	host.ArrayBufferExpected:           "ArrayBuffer",
	host.DetachableArraybufferExpected: "detachable ArrayBuffer",
}

// KindOf maps a host status to an error kind.
func KindOf(s host.Status) Kind {
	switch s {
	case host.InvalidArg:
		return KindInvalidArgument
	case host.ArrayExpected:
		return KindArrayExpected
	case host.PendingException:
		return KindPendingException
	case host.Closing:
		return KindClosed
	}
	if _, ok := expectedByStatus[s]; ok {
		return KindTypeMismatch
	}
	return KindGenericFailure
}

// FromStatus builds the error for a non-OK status. It returns nil for OK.
func FromStatus(s host.Status) *Error {
	if s == host.OK {
		return nil
	}
	return &Error{
		Phase:    PhaseHost,
		Kind:     KindOf(s),
		Status:   s,
		Expected: expectedByStatus[s],
	}
}

// Check translates a host status into an error. OK yields nil. The
// optional detail is formatted with fmt.Sprintf.
func Check(s host.Status, detail string, args ...any) error {
	if s == host.OK {
		return nil
	}
	e := FromStatus(s)
	if len(args) > 0 {
		e.Detail = fmt.Sprintf(detail, args...)
	} else {
		e.Detail = detail
	}
	return e
}

// StatusOf returns the host status carried by err, or GenericFailure for
// errors that carry none. A nil error yields OK.
func StatusOf(err error) host.Status {
	if err == nil {
		return host.OK
	}
	var e *Error
	if errors.As(err, &e) && e.Status != host.OK {
		return e.Status
	}
	return host.GenericFailure
}

// AnnotateProperty rewrites a validation failure surfaced while reading the
// named property so the reason names it. Cyclic value errors only get the
// path extended. Other errors pass through.
func AnnotateProperty(err error, name string) error {
	var e *Error
	if !errors.As(err, &e) || !annotated(e.Kind) {
		return err
	}
	out := *e
	if e.Kind == KindTypeMismatch {
		out.Detail = fmt.Sprintf("Object property '%s' type mismatch. %s", name, e.Detail)
	}
	out.Path = append([]string{name}, e.Path...)
	return &out
}

// AnnotateIndex is the element counterpart of AnnotateProperty. Only the
// path is extended.
func AnnotateIndex(err error, index uint32) error {
	var e *Error
	if !errors.As(err, &e) || !annotated(e.Kind) {
		return err
	}
	out := *e
	out.Path = append([]string{fmt.Sprint(index)}, e.Path...)
	return &out
}

func annotated(k Kind) bool {
	return k == KindTypeMismatch || k == KindCyclicValue
}
