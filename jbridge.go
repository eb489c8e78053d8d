package jbridge

// Ref is a raw runtime reference. Ref 0 is the null reference.
// Refs are only passed back to the Env that produced them or to the ref
// package; they are never interpreted by value.
type Ref uintptr

// MethodID identifies a resolved method or constructor.
type MethodID uintptr

// FieldID identifies a resolved field.
type FieldID uintptr

// Env is the embedding API of one attached runtime thread.
//
// Operations that can fail inside the runtime leave a pending exception that
// must be observed with ExceptionOccurred and cleared with ExceptionClear
// before the next call.
type Env interface {
	// FindClass returns a local reference to the named class.
	// Names use the slash-separated wire format ("java/lang/String").
	FindClass(name string) Ref

	// GetObjectClass returns a local reference to the class of obj.
	GetObjectClass(obj Ref) Ref

	// IsInstanceOf reports whether obj is assignable to class.
	IsInstanceOf(obj, class Ref) bool

	// NewGlobalRef promotes any reference to a global one.
	// Returns 0 when the global reference table is exhausted.
	NewGlobalRef(r Ref) Ref
	DeleteGlobalRef(r Ref)

	// NewWeakGlobalRef creates a weak reference that does not keep its
	// referent alive.
	NewWeakGlobalRef(r Ref) Ref
	DeleteWeakGlobalRef(r Ref)

	DeleteLocalRef(r Ref)

	// IsSameObject compares references by identity.
	IsSameObject(a, b Ref) bool

	GetMethodID(class Ref, name, sig string) MethodID
	GetStaticMethodID(class Ref, name, sig string) MethodID

	// CallMethod invokes an instance method; ret selects the result kind.
	CallMethod(obj Ref, m MethodID, ret Kind, args []Value) Value
	CallStaticMethod(class Ref, m MethodID, ret Kind, args []Value) Value

	// NewObject allocates an instance and runs the given constructor.
	NewObject(class Ref, ctor MethodID, args []Value) Ref

	// FromReflectedField converts a java/lang/reflect/Field object to a FieldID.
	FromReflectedField(field Ref) FieldID

	GetField(obj Ref, f FieldID, kind Kind) Value
	SetField(obj Ref, f FieldID, v Value)
	GetStaticField(class Ref, f FieldID, kind Kind) Value
	SetStaticField(class Ref, f FieldID, v Value)

	NewObjectArray(length int, elemClass Ref, init Ref) Ref
	GetObjectArrayElement(arr Ref, index int) Ref
	SetObjectArrayElement(arr Ref, index int, v Ref)
	GetArrayLength(arr Ref) int

	NewByteArray(length int) Ref
	GetByteArrayRegion(arr Ref, start int, buf []byte)
	SetByteArrayRegion(arr Ref, start int, buf []byte)

	NewCharArray(length int) Ref
	GetCharArrayRegion(arr Ref, start int, buf []uint16)
	SetCharArrayRegion(arr Ref, start int, buf []uint16)

	NewStringUTF(s string) Ref
	GetStringUTFChars(s Ref) string

	// ExceptionOccurred returns a local reference to the pending exception,
	// or 0 if none is pending.
	ExceptionOccurred() Ref
	ExceptionClear()
}
