package resolve

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

// Exception describes a runtime exception taken from a thread.
type Exception struct {
	Class   string // dotted form
	Message string
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Class
	}
	return e.Class + ": " + e.Message
}

// TakeException clears the pending exception of env and describes it.
// It returns nil when no exception is pending. Describing the exception needs
// a few free local references; when the thread's local table is full the
// class cannot be read and the description falls back to java.lang.Throwable
// with an empty message.
func TakeException(env jbridge.Env) *Exception {
	exc := env.ExceptionOccurred()
	if exc == 0 {
		return nil
	}
	env.ExceptionClear()
	defer env.DeleteLocalRef(exc)

	x := &Exception{Class: "java.lang.Throwable"}
	cls := env.GetObjectClass(exc)
	if cls == 0 {
		env.ExceptionClear()
		return x
	}
	defer env.DeleteLocalRef(cls)

	if name, ok := callString(env, cls, sig.ClassClass, "getName"); ok {
		x.Class = name
	}
	if msg, ok := callString(env, exc, sig.ThrowableClass, "getMessage"); ok {
		x.Message = msg
	}
	return x
}

// exceptionCause is TakeException as an error, nil when nothing is pending.
func exceptionCause(env jbridge.Env) error {
	if x := TakeException(env); x != nil {
		return x
	}
	return nil
}

// callString calls a no-argument String method declared by owner on obj.
// Failures while describing an exception are swallowed.
func callString(env jbridge.Env, obj jbridge.Ref, owner, name string) (string, bool) {
	c := env.FindClass(owner)
	if c == 0 {
		env.ExceptionClear()
		return "", false
	}
	defer env.DeleteLocalRef(c)

	id := env.GetMethodID(c, name, "()Ljava/lang/String;")
	if id == 0 {
		env.ExceptionClear()
		return "", false
	}
	v := env.CallMethod(obj, id, jbridge.KindObject, nil)
	if Pending(env) {
		env.ExceptionClear()
		return "", false
	}
	if v.IsNull() {
		return "", true
	}
	defer env.DeleteLocalRef(v.Ref())
	return env.GetStringUTFChars(v.Ref()), true
}

// Pending reports whether an exception is pending on env without taking it.
func Pending(env jbridge.Env) bool {
	exc := env.ExceptionOccurred()
	if exc == 0 {
		return false
	}
	env.DeleteLocalRef(exc)
	return true
}
