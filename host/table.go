package host

// Table is the raw, untyped function table of a script engine. Every call
// reports a Status; results are only meaningful when it is OK.
//
// Implementations are not safe for concurrent use on the same Env. Callers
// must stay on the goroutine that owns the Env.
type Table interface {
	// Version reports the feature level of the table. Some operations are
	// only present from a given level (see the Feature* constants).
	Version() uint32

	TypeOf(env Env, v Handle) (ValueType, Status)

	GetUndefined(env Env) (Handle, Status)
	GetNull(env Env) (Handle, Status)
	GetGlobal(env Env) (Handle, Status)
	GetBoolean(env Env, b bool) (Handle, Status)

	CreateDouble(env Env, f float64) (Handle, Status)
	CreateInt32(env Env, n int32) (Handle, Status)
	CreateUint32(env Env, n uint32) (Handle, Status)
	CreateInt64(env Env, n int64) (Handle, Status)
	CreateStringUTF8(env Env, s string) (Handle, Status)
	CreateSymbol(env Env, description Handle) (Handle, Status)
	CreateObject(env Env) (Handle, Status)
	CreateArray(env Env) (Handle, Status)
	CreateArrayWithLength(env Env, length uint32) (Handle, Status)
	CreateExternal(env Env, data uintptr, fin Finalize, hint uintptr) (Handle, Status)
	CreateFunction(env Env, name string, cb Callback, data uintptr) (Handle, Status)
	CreateError(env Env, code, msg Handle) (Handle, Status)
	CreateArrayBuffer(env Env, data []byte) (Handle, Status)
	CreateBuffer(env Env, data []byte) (Handle, Status)
	CreateTypedArray(env Env, typ TypedArrayType, length uint32, arrayBuffer Handle, byteOffset uint32) (Handle, Status)
	CreateDataView(env Env, length uint32, arrayBuffer Handle, byteOffset uint32) (Handle, Status)
	CreateDate(env Env, t float64) (Handle, Status)
	CreatePromise(env Env) (Handle, Status)

	GetValueBool(env Env, v Handle) (bool, Status)
	GetValueDouble(env Env, v Handle) (float64, Status)
	GetValueInt32(env Env, v Handle) (int32, Status)
	GetValueUint32(env Env, v Handle) (uint32, Status)
	GetValueInt64(env Env, v Handle) (int64, Status)
	GetValueStringUTF8(env Env, v Handle) (string, Status)
	GetValueExternal(env Env, v Handle) (uintptr, Status)
	GetDateValue(env Env, v Handle) (float64, Status)
	GetBufferInfo(env Env, v Handle) ([]byte, Status)
	GetArrayBufferInfo(env Env, v Handle) ([]byte, Status)

	CoerceToBool(env Env, v Handle) (Handle, Status)
	CoerceToNumber(env Env, v Handle) (Handle, Status)
	CoerceToString(env Env, v Handle) (Handle, Status)
	CoerceToObject(env Env, v Handle) (Handle, Status)

	IsArray(env Env, v Handle) (bool, Status)
	IsArrayBuffer(env Env, v Handle) (bool, Status)
	IsBuffer(env Env, v Handle) (bool, Status)
	IsTypedArray(env Env, v Handle) (bool, Status)
	IsDataView(env Env, v Handle) (bool, Status)
	IsDate(env Env, v Handle) (bool, Status)
	IsPromise(env Env, v Handle) (bool, Status)
	IsError(env Env, v Handle) (bool, Status)
	InstanceOf(env Env, obj, constructor Handle) (bool, Status)
	StrictEquals(env Env, a, b Handle) (bool, Status)

	SetProperty(env Env, obj, key, v Handle) Status
	GetProperty(env Env, obj, key Handle) (Handle, Status)
	HasProperty(env Env, obj, key Handle) (bool, Status)
	HasOwnProperty(env Env, obj, key Handle) (bool, Status)
	DeleteProperty(env Env, obj, key Handle) (bool, Status)
	SetNamedProperty(env Env, obj Handle, name string, v Handle) Status
	GetNamedProperty(env Env, obj Handle, name string) (Handle, Status)
	HasNamedProperty(env Env, obj Handle, name string) (bool, Status)
	GetPropertyNames(env Env, obj Handle) (Handle, Status)
	GetAllPropertyNames(env Env, obj Handle, mode KeyCollectionMode, filter KeyFilter, conv KeyConversion) (Handle, Status)
	GetPrototype(env Env, obj Handle) (Handle, Status)

	SetElement(env Env, obj Handle, index uint32, v Handle) Status
	GetElement(env Env, obj Handle, index uint32) (Handle, Status)
	HasElement(env Env, obj Handle, index uint32) (bool, Status)
	DeleteElement(env Env, obj Handle, index uint32) (bool, Status)
	GetArrayLength(env Env, v Handle) (uint32, Status)

	DefineProperties(env Env, obj Handle, props []PropertyDescriptor) Status
	AddFinalizer(env Env, obj Handle, data uintptr, fin Finalize, hint uintptr) Status
	ObjectFreeze(env Env, obj Handle) Status
	ObjectSeal(env Env, obj Handle) Status

	CallFunction(env Env, recv, fn Handle, args []Handle) (Handle, Status)
	NewInstance(env Env, constructor Handle, args []Handle) (Handle, Status)

	Throw(env Env, err Handle) Status
	ThrowError(env Env, code, msg string) Status
	IsExceptionPending(env Env) (bool, Status)
	GetAndClearLastException(env Env) (Handle, Status)
}

// Feature levels at which optional operations become available.
const (
	FeatureDate          uint32 = 5 // IsDate, CreateDate, GetDateValue
	FeatureFinalizers    uint32 = 5 // AddFinalizer
	FeatureKeyCollection uint32 = 6 // GetAllPropertyNames
	FeatureObjectSeal    uint32 = 8 // ObjectFreeze, ObjectSeal
)

// OwnershipChecker is optionally implemented by tables that can tell
// whether a handle belongs to an Env. Debug builds use it to catch
// cross-context handle use.
type OwnershipChecker interface {
	OwnsHandle(env Env, v Handle) bool
}
