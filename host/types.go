package host

import "fmt"

// Env identifies an engine execution context. Handles are only meaningful
// inside the Env that produced them.
type Env uintptr

// Handle is an opaque token for an engine value. Handle 0 is never valid.
type Handle uintptr

// ValueType is the runtime kind of an engine value as reported by TypeOf.
type ValueType int32

const (
	Undefined ValueType = iota
	Null
	Boolean
	Number
	String
	Symbol
	Object
	Function
	External
	BigInt

	// Unknown is never reported by an engine. It tags handles whose kind
	// has not been established.
	Unknown ValueType = 100
)

var valueTypeNames = [...]string{
	Undefined: "Undefined",
	Null:      "Null",
	Boolean:   "Boolean",
	Number:    "Number",
	String:    "String",
	Symbol:    "Symbol",
	Object:    "Object",
	Function:  "Function",
	External:  "External",
	BigInt:    "BigInt",
}

func (t ValueType) String() string {
	if t >= 0 && int(t) < len(valueTypeNames) {
		return valueTypeNames[t]
	}
	if t == Unknown {
		return "Unknown"
	}
	return fmt.Sprintf("ValueType(%d)", int32(t))
}

// Status is the outcome code every table call reports.
type Status int32

const (
	OK Status = iota
	InvalidArg
	ObjectExpected
	StringExpected
	NameExpected
	FunctionExpected
	NumberExpected
	BooleanExpected
	ArrayExpected
	GenericFailure
	PendingException
	Cancelled
	EscapeCalledTwice
	HandleScopeMismatch
	CallbackScopeMismatch
	QueueFull
	Closing
	BigintExpected
	DateExpected
	ArrayBufferExpected
	DetachableArraybufferExpected
	WouldDeadlock
	NoExternalBuffersAllowed
	CannotRunJS
)

var statusNames = [...]string{
	OK:                            "Ok",
	InvalidArg:                    "InvalidArg",
	ObjectExpected:                "ObjectExpected",
	StringExpected:                "StringExpected",
	NameExpected:                  "NameExpected",
	FunctionExpected:              "FunctionExpected",
	NumberExpected:                "NumberExpected",
	BooleanExpected:               "BooleanExpected",
	ArrayExpected:                 "ArrayExpected",
	GenericFailure:                "GenericFailure",
	PendingException:              "PendingException",
	Cancelled:                     "Cancelled",
	EscapeCalledTwice:             "EscapeCalledTwice",
	HandleScopeMismatch:           "HandleScopeMismatch",
	CallbackScopeMismatch:         "CallbackScopeMismatch",
	QueueFull:                     "QueueFull",
	Closing:                       "Closing",
	BigintExpected:                "BigintExpected",
	DateExpected:                  "DateExpected",
	ArrayBufferExpected:           "ArrayBufferExpected",
	DetachableArraybufferExpected: "DetachableArraybufferExpected",
	WouldDeadlock:                 "WouldDeadlock",
	NoExternalBuffersAllowed:      "NoExternalBuffersAllowed",
	CannotRunJS:                   "CannotRunJS",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// PropertyAttributes control writability, enumerability and configurability
// of a defined property.
type PropertyAttributes int32

const (
	AttrDefault      PropertyAttributes = 0
	AttrWritable     PropertyAttributes = 1 << 0
	AttrEnumerable   PropertyAttributes = 1 << 1
	AttrConfigurable PropertyAttributes = 1 << 2
	AttrStatic       PropertyAttributes = 1 << 10

	// AttrDefaultMethod matches what class methods get.
	AttrDefaultMethod = AttrWritable | AttrConfigurable
	// AttrDefaultProperty matches a plain assignment.
	AttrDefaultProperty = AttrWritable | AttrEnumerable | AttrConfigurable
)

// KeyCollectionMode selects whether prototype keys are included.
type KeyCollectionMode int32

const (
	KeyIncludePrototypes KeyCollectionMode = iota
	KeyOwnOnly
)

// KeyFilter is a bitmask restricting enumerated keys.
type KeyFilter int32

const (
	KeyAllProperties KeyFilter = 0
	KeyWritable      KeyFilter = 1 << 0
	KeyEnumerable    KeyFilter = 1 << 1
	KeyConfigurable  KeyFilter = 1 << 2
	KeySkipStrings   KeyFilter = 1 << 3
	KeySkipSymbols   KeyFilter = 1 << 4
)

// KeyConversion selects how integer-like keys are reported.
type KeyConversion int32

const (
	KeyKeepNumbers KeyConversion = iota
	KeyNumbersToStrings
)

// TypedArrayType is the element type of a typed array view.
type TypedArrayType int32

const (
	Int8Array TypedArrayType = iota
	Uint8Array
	Uint8ClampedArray
	Int16Array
	Uint16Array
	Int32Array
	Uint32Array
	Float32Array
	Float64Array
	BigInt64Array
	BigUint64Array
)

// ElementSize returns the byte width of one element.
func (t TypedArrayType) ElementSize() uint32 {
	switch t {
	case Int8Array, Uint8Array, Uint8ClampedArray:
		return 1
	case Int16Array, Uint16Array:
		return 2
	case Int32Array, Uint32Array, Float32Array:
		return 4
	case Float64Array, BigInt64Array, BigUint64Array:
		return 8
	}
	return 0
}

// CallbackInfo carries the receiver and arguments of a native callback.
type CallbackInfo struct {
	This      Handle
	NewTarget Handle
	Args      []Handle
	Data      uintptr
}

// Callback is a native function invoked by the engine. A callback that
// fails throws through the table and returns 0.
type Callback func(env Env, info CallbackInfo) Handle

// Finalize is invoked by the engine once the value it was attached to has
// been collected or its Env is torn down.
type Finalize func(env Env, data, hint uintptr)

// PropertyDescriptor is the raw form handed to DefineProperties. Name wins
// over Key when both are set. Exactly one of Value, Getter/Setter or Method
// should be populated.
type PropertyDescriptor struct {
	Name       string
	Key        Handle
	Method     Callback
	Getter     Callback
	Setter     Callback
	Value      Handle
	Attributes PropertyAttributes
	Data       uintptr
}
