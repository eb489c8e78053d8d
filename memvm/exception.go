package memvm

import (
	"fmt"
)

// Exception is returned by a Method to raise an exception in the runtime.
type Exception struct {
	Class   string
	Message string
}

func (e *Exception) Error() string {
	if e.Message == "" {
		return e.Class
	}
	return e.Class + ": " + e.Message
}

// Throw returns an error that raises an instance of class with msg.
func Throw(class, msg string) error {
	return &Exception{Class: class, Message: msg}
}

// Throwf is Throw with a formatted message.
func Throwf(class, format string, args ...any) error {
	return &Exception{Class: class, Message: fmt.Sprintf(format, args...)}
}

// Common exception classes.
const (
	throwableClass             = "java/lang/Throwable"
	RuntimeException           = "java/lang/RuntimeException"
	IllegalArgumentException   = "java/lang/IllegalArgumentException"
	IllegalStateException      = "java/lang/IllegalStateException"
	NullPointerException       = "java/lang/NullPointerException"
	IndexOutOfBoundsException  = "java/lang/ArrayIndexOutOfBoundsException"
	ArrayStoreException        = "java/lang/ArrayStoreException"
	NegativeArraySizeException = "java/lang/NegativeArraySizeException"
	InstantiationException     = "java/lang/InstantiationException"
	ClassCastException         = "java/lang/ClassCastException"
	UnsupportedOperation       = "java/lang/UnsupportedOperationException"
	NoClassDefFoundError       = "java/lang/NoClassDefFoundError"
	NoSuchMethodError          = "java/lang/NoSuchMethodError"
	NoSuchFieldError           = "java/lang/NoSuchFieldError"
	NoSuchFieldException       = "java/lang/NoSuchFieldException"
	AbstractMethodError        = "java/lang/AbstractMethodError"
	OutOfMemoryError           = "java/lang/OutOfMemoryError"
)

// newThrowable allocates an exception object. Unknown classes fall back to
// java/lang/RuntimeException. Caller holds vm.mu.
func (vm *VM) newThrowable(class, msg string) *Object {
	c, ok := vm.classes[class]
	if !ok || !c.AssignableTo(vm.classes[throwableClass]) {
		c = vm.classes[RuntimeException]
		msg = class + ": " + msg
	}
	o := vm.alloc(c)
	if vm.detailMessage != nil {
		o.fields[vm.detailMessage].obj = vm.newString(msg)
	}
	return o
}

func (vm *VM) newString(s string) *Object {
	o := vm.alloc(vm.classes["java/lang/String"])
	o.str = s
	return o
}
