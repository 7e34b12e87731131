package errors

import (
	"fmt"
	"strings"

	"github.com/wippyai/jsbind/host"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHost     Phase = "host"     // raw table call
	PhaseValidate Phase = "validate" // kind validation
	PhaseDecode   Phase = "decode"   // engine value to Go
	PhaseEncode   Phase = "encode"   // Go to engine value
	PhaseFinalize Phase = "finalize" // closure release
	PhaseLoad     Phase = "load"     // engine module loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindTypeMismatch     Kind = "type_mismatch"
	KindArrayExpected    Kind = "array_expected"
	KindPendingException Kind = "pending_exception"
	KindGenericFailure   Kind = "generic_failure"
	KindUnsupported      Kind = "unsupported"
	KindClosed           Kind = "closed"
	KindCyclicValue      Kind = "cyclic_value"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Expected string
	Actual   string
	Detail   string
	Path     []string
	Status   host.Status
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Status != host.OK {
		b.WriteString(" (")
		b.WriteString(e.Status.String())
		b.WriteByte(')')
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString(": expected ")
		b.WriteString(orUnknown(e.Expected))
		b.WriteString(", got ")
		b.WriteString(orUnknown(e.Actual))
	}

	if e.Detail != "" {
		if e.Expected != "" || e.Actual != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Reason returns the human-readable reason, without phase or kind prefix.
func (e *Error) Reason() string {
	return e.Detail
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kind must match; Phase and
// Status only when set on the target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	if t.Status != host.OK && e.Status != t.Status {
		return false
	}
	return true
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the property path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Status sets the host status
func (b *Builder) Status(s host.Status) *Builder {
	b.err.Status = s
	return b
}

// Expected sets the expected kind name
func (b *Builder) Expected(kind string) *Builder {
	b.err.Expected = kind
	return b
}

// Actual sets the observed kind name
func (b *Builder) Actual(kind string) *Builder {
	b.err.Actual = kind
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// TypeMismatch creates a kind mismatch error. The status is InvalidArg, the
// code engines report for a value of the wrong kind.
func TypeMismatch(phase Phase, expected, actual string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindTypeMismatch,
		Status:   host.InvalidArg,
		Expected: expected,
		Actual:   actual,
		Detail:   fmt.Sprintf("Expect value to be %s, but received %s", expected, actual),
	}
}

// ArrayExpected creates the error returned when an array-only operation
// meets a non-array value.
func ArrayExpected(detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindArrayExpected,
		Status: host.ArrayExpected,
		Detail: detail,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		Status: host.InvalidArg,
		Detail: detail,
	}
}

// Cyclic creates the error returned when conversion meets a value that
// contains itself. Annotation extends its path.
func Cyclic(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCyclicValue,
		Status: host.InvalidArg,
		Detail: "cyclic value",
	}
}

// Unsupported creates an error for an operation the table's feature level
// does not provide.
func Unsupported(what string, need, have uint32) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindUnsupported,
		Status: host.GenericFailure,
		Detail: fmt.Sprintf("%s requires feature level %d, table provides %d", what, need, have),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates an engine module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindGenericFailure,
		Status: host.GenericFailure,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingExportsError is returned when an engine module lacks table functions
type MissingExportsError struct {
	Module  string
	Exports []string
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("module %q is missing %d export(s):", e.Module, len(e.Exports)))
	for _, name := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(name)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}
