package memvm

import (
	"fmt"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

func (e *Env) outOfBounds(index, length int) {
	e.throw(IndexOutOfBoundsException, fmt.Sprintf("Index %d out of bounds for length %d", index, length))
}

// derefArray resolves an array reference whose elements have kind elem, or
// any array when elem is KindVoid. Caller holds vm.mu.
func (e *Env) derefArray(r jbridge.Ref, elem jbridge.Kind) *Object {
	o := e.derefNonNull(r, "array is null")
	if o == nil {
		return nil
	}
	if !o.class.IsArray() {
		e.throw(IllegalArgumentException, o.class.JavaName()+" is not an array")
		return nil
	}
	if elem == jbridge.KindVoid {
		return o
	}
	got := o.class.elemType.Kind
	if elem.IsReference() && got.IsReference() {
		return o
	}
	if got != elem {
		e.throw(IllegalArgumentException, fmt.Sprintf("%s is not a %s array", o.class.name, elem))
		return nil
	}
	return o
}

// NewObjectArray implements jbridge.Env.
func (e *Env) NewObjectArray(length int, elemClass, init jbridge.Ref) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if length < 0 {
		e.throw(NegativeArraySizeException, fmt.Sprint(length))
		return 0
	}
	ec := e.derefClass(elemClass)
	if ec == nil {
		return 0
	}
	if ec.primitive {
		e.throw(IllegalArgumentException, "object array of primitive "+ec.name)
		return 0
	}
	var elemType sig.Type
	if ec.IsArray() {
		t, err := sig.Parse(ec.name)
		if err != nil {
			e.throw(IllegalArgumentException, err.Error())
			return 0
		}
		elemType = t
	} else {
		elemType = sig.Object(ec.name)
	}
	fill, ok := e.deref(init)
	if !ok {
		return 0
	}
	if fill != nil && !fill.class.AssignableTo(ec) {
		e.throw(ArrayStoreException, fill.class.JavaName())
		return 0
	}
	o := e.vm.alloc(e.vm.classForType(sig.ArrayOf(elemType)))
	o.elems = make([]*Object, length)
	for i := range o.elems {
		o.elems[i] = fill
	}
	return e.newLocal(o)
}

// GetObjectArrayElement implements jbridge.Env.
func (e *Env) GetObjectArrayElement(arr jbridge.Ref, index int) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindObject)
	if o == nil {
		return 0
	}
	if index < 0 || index >= len(o.elems) {
		e.outOfBounds(index, len(o.elems))
		return 0
	}
	return e.newLocal(o.elems[index])
}

// SetObjectArrayElement implements jbridge.Env.
func (e *Env) SetObjectArrayElement(arr jbridge.Ref, index int, v jbridge.Ref) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindObject)
	if o == nil {
		return
	}
	if index < 0 || index >= len(o.elems) {
		e.outOfBounds(index, len(o.elems))
		return
	}
	el, ok := e.deref(v)
	if !ok {
		return
	}
	if el != nil && !el.class.AssignableTo(o.class.elem) {
		e.throw(ArrayStoreException, el.class.JavaName())
		return
	}
	o.elems[index] = el
}

// GetArrayLength implements jbridge.Env.
func (e *Env) GetArrayLength(arr jbridge.Ref) int {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindVoid)
	if o == nil {
		return 0
	}
	return o.arrayLen()
}

// NewByteArray implements jbridge.Env.
func (e *Env) NewByteArray(length int) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if length < 0 {
		e.throw(NegativeArraySizeException, fmt.Sprint(length))
		return 0
	}
	o := e.vm.alloc(e.vm.classForType(sig.Array("B")))
	o.bytes = make([]byte, length)
	return e.newLocal(o)
}

func regionOK(start, n, length int) bool {
	return start >= 0 && n >= 0 && start <= length && n <= length-start
}

// GetByteArrayRegion implements jbridge.Env.
func (e *Env) GetByteArrayRegion(arr jbridge.Ref, start int, buf []byte) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindByte)
	if o == nil {
		return
	}
	if !regionOK(start, len(buf), len(o.bytes)) {
		e.outOfBounds(start+len(buf)-1, len(o.bytes))
		return
	}
	copy(buf, o.bytes[start:])
}

// SetByteArrayRegion implements jbridge.Env.
func (e *Env) SetByteArrayRegion(arr jbridge.Ref, start int, buf []byte) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindByte)
	if o == nil {
		return
	}
	if !regionOK(start, len(buf), len(o.bytes)) {
		e.outOfBounds(start+len(buf)-1, len(o.bytes))
		return
	}
	copy(o.bytes[start:], buf)
}

// NewCharArray implements jbridge.Env.
func (e *Env) NewCharArray(length int) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if length < 0 {
		e.throw(NegativeArraySizeException, fmt.Sprint(length))
		return 0
	}
	o := e.vm.alloc(e.vm.classForType(sig.Array("C")))
	o.chars = make([]uint16, length)
	return e.newLocal(o)
}

// GetCharArrayRegion implements jbridge.Env.
func (e *Env) GetCharArrayRegion(arr jbridge.Ref, start int, buf []uint16) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindChar)
	if o == nil {
		return
	}
	if !regionOK(start, len(buf), len(o.chars)) {
		e.outOfBounds(start+len(buf)-1, len(o.chars))
		return
	}
	copy(buf, o.chars[start:])
}

// SetCharArrayRegion implements jbridge.Env.
func (e *Env) SetCharArrayRegion(arr jbridge.Ref, start int, buf []uint16) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefArray(arr, jbridge.KindChar)
	if o == nil {
		return
	}
	if !regionOK(start, len(buf), len(o.chars)) {
		e.outOfBounds(start+len(buf)-1, len(o.chars))
		return
	}
	copy(o.chars[start:], buf)
}

// NewStringUTF implements jbridge.Env.
func (e *Env) NewStringUTF(s string) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return e.newLocal(e.vm.newString(s))
}

// GetStringUTFChars implements jbridge.Env.
func (e *Env) GetStringUTFChars(s jbridge.Ref) string {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefNonNull(s, "GetStringUTFChars of null")
	if o == nil {
		return ""
	}
	if o.class.name != sig.StringClass {
		e.throw(IllegalArgumentException, o.class.JavaName()+" is not a string")
		return ""
	}
	return o.str
}
