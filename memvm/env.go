package memvm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

var _ jbridge.Env = (*Env)(nil)

// Env is the embedding API of one attached thread.
type Env struct {
	vm       *VM
	locals   map[jbridge.Ref]*Object
	pending  *Object
	detached bool
}

// VM returns the VM e is attached to.
func (e *Env) VM() *VM { return e.vm }

// Detach deletes e's remaining local references and detaches it.
// It returns the number of local references that were still live.
func (e *Env) Detach() int {
	vm := e.vm
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if e.detached {
		return 0
	}
	e.detached = true
	n := len(e.locals)
	if n > 0 {
		vm.log.Debug("detached with live local references", zap.Int("locals", n))
	}
	e.locals = make(map[jbridge.Ref]*Object)
	e.pending = nil
	delete(vm.envs, e)
	return n
}

// LocalCount returns the number of live local references.
func (e *Env) LocalCount() int {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return len(e.locals)
}

// throw sets a pending exception. Caller holds vm.mu.
func (e *Env) throw(class, msg string) {
	e.vm.log.Debug("exception raised", zap.String("class", class), zap.String("message", msg))
	e.pending = e.vm.newThrowable(class, msg)
}

// newLocal creates a local reference to o. Caller holds vm.mu.
func (e *Env) newLocal(o *Object) jbridge.Ref {
	if o == nil {
		return 0
	}
	if len(e.locals) >= e.vm.localCap {
		e.throw(OutOfMemoryError, "local reference table overflow")
		return 0
	}
	e.vm.nextRef++
	r := jbridge.Ref(e.vm.nextRef)
	e.locals[r] = o
	return r
}

// deref resolves any reference visible to e. The null reference and
// cleared weak references yield nil with ok set. Invalid references are
// counted and raise IllegalArgumentException. Caller holds vm.mu.
func (e *Env) deref(r jbridge.Ref) (*Object, bool) {
	if r == 0 {
		return nil, true
	}
	if o, ok := e.locals[r]; ok {
		return o, true
	}
	if o, ok := e.vm.globals[r]; ok {
		return o, true
	}
	if o, ok := e.vm.weaks[r]; ok {
		return o, true
	}
	e.invalidRef(r)
	return nil, false
}

func (e *Env) invalidRef(r jbridge.Ref) {
	e.vm.invalid++
	e.vm.log.Warn("invalid reference", zap.Uint64("ref", uint64(r)))
	e.throw(IllegalArgumentException, fmt.Sprintf("invalid reference 0x%x", uint64(r)))
}

// derefNonNull is deref that raises NullPointerException for null.
func (e *Env) derefNonNull(r jbridge.Ref, what string) *Object {
	o, ok := e.deref(r)
	if !ok {
		return nil
	}
	if o == nil {
		e.throw(NullPointerException, what)
	}
	return o
}

// derefClass resolves a reference to a java/lang/Class instance.
func (e *Env) derefClass(r jbridge.Ref) *Class {
	o := e.derefNonNull(r, "class is null")
	if o == nil {
		return nil
	}
	c, ok := o.Native.(*Class)
	if !ok || o.class.name != sig.ClassClass {
		e.throw(IllegalArgumentException, o.class.JavaName()+" is not a class")
		return nil
	}
	return c
}

func valueOf(o *Object, r jbridge.Ref) jbridge.Value {
	if o != nil && o.class.IsArray() {
		return jbridge.Array(r)
	}
	return jbridge.Object(r)
}

// Object resolves a reference argument. It returns nil for null and for
// invalid references.
func (e *Env) Object(v jbridge.Value) *Object {
	if !v.IsReference() {
		return nil
	}
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o, _ := e.deref(v.Ref())
	return o
}

// Value returns a new local reference to o as a call result.
func (e *Env) Value(o *Object) jbridge.Value {
	if o == nil {
		return jbridge.Null
	}
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return valueOf(o, e.newLocal(o))
}

// Str resolves a java/lang/String argument. ok is false for null.
func (e *Env) Str(v jbridge.Value) (s string, ok bool) {
	o := e.Object(v)
	if o == nil {
		return "", false
	}
	return o.Text(), true
}

// NewString allocates a java/lang/String.
func (e *Env) NewString(s string) *Object {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return e.vm.newString(s)
}

// NewBytes allocates a byte[] holding a copy of b.
func (e *Env) NewBytes(b []byte) *Object {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.vm.alloc(e.vm.classForType(sig.Array("B")))
	o.bytes = append(make([]byte, 0, len(b)), b...)
	return o
}

// NewStrings allocates a java/lang/String[].
func (e *Env) NewStrings(ss []string) *Object {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.vm.alloc(e.vm.classForType(sig.Array(sig.StringClass)))
	o.elems = make([]*Object, len(ss))
	for i, s := range ss {
		o.elems[i] = e.vm.newString(s)
	}
	return o
}

// New allocates an instance of the named class without running a
// constructor.
func (e *Env) New(class string) (*Object, error) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	c, ok := e.vm.classes[class]
	if !ok {
		return nil, Throw(NoClassDefFoundError, class)
	}
	if c.abstract {
		return nil, Throw(InstantiationException, c.JavaName())
	}
	return e.vm.alloc(c), nil
}

// raise converts a Method error into a pending exception.
func (e *Env) raise(err error) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if ex, ok := err.(*Exception); ok {
		e.throw(ex.Class, ex.Message)
		return
	}
	e.throw(RuntimeException, err.Error())
}

// Pending returns the pending exception without clearing it.
func (e *Env) Pending() *Object {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	return e.pending
}

// FindClass implements jbridge.Env.
func (e *Env) FindClass(name string) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if sig.ValidateClassName(name) != nil {
		e.throw(NoClassDefFoundError, name)
		return 0
	}
	c := e.vm.lookupClass(name)
	if c == nil {
		e.throw(NoClassDefFoundError, name)
		return 0
	}
	return e.newLocal(e.vm.classObject(c))
}

// GetObjectClass implements jbridge.Env.
func (e *Env) GetObjectClass(obj jbridge.Ref) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefNonNull(obj, "GetObjectClass of null")
	if o == nil {
		return 0
	}
	return e.newLocal(e.vm.classObject(o.class))
}

// IsInstanceOf implements jbridge.Env. The null reference is an instance of
// every class.
func (e *Env) IsInstanceOf(obj, class jbridge.Ref) bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	c := e.derefClass(class)
	if c == nil {
		return false
	}
	o, ok := e.deref(obj)
	if !ok {
		return false
	}
	if o == nil {
		return true
	}
	return o.class.AssignableTo(c)
}

// NewGlobalRef implements jbridge.Env.
func (e *Env) NewGlobalRef(r jbridge.Ref) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o, ok := e.deref(r)
	if !ok || o == nil {
		return 0
	}
	if len(e.vm.globals) >= e.vm.globalCap {
		e.vm.log.Warn("global reference table full", zap.Int("capacity", e.vm.globalCap))
		return 0
	}
	e.vm.nextRef++
	g := jbridge.Ref(e.vm.nextRef)
	e.vm.globals[g] = o
	return g
}

// DeleteGlobalRef implements jbridge.Env.
func (e *Env) DeleteGlobalRef(r jbridge.Ref) {
	if r == 0 {
		return
	}
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if _, ok := e.vm.globals[r]; !ok {
		e.invalidRef(r)
		return
	}
	delete(e.vm.globals, r)
}

// NewWeakGlobalRef implements jbridge.Env.
func (e *Env) NewWeakGlobalRef(r jbridge.Ref) jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o, ok := e.deref(r)
	if !ok || o == nil {
		return 0
	}
	if len(e.vm.weaks) >= e.vm.globalCap {
		return 0
	}
	e.vm.nextRef++
	w := jbridge.Ref(e.vm.nextRef)
	e.vm.weaks[w] = o
	return w
}

// DeleteWeakGlobalRef implements jbridge.Env.
func (e *Env) DeleteWeakGlobalRef(r jbridge.Ref) {
	if r == 0 {
		return
	}
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if _, ok := e.vm.weaks[r]; !ok {
		e.invalidRef(r)
		return
	}
	delete(e.vm.weaks, r)
}

// DeleteLocalRef implements jbridge.Env.
func (e *Env) DeleteLocalRef(r jbridge.Ref) {
	if r == 0 {
		return
	}
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if _, ok := e.locals[r]; !ok {
		e.invalidRef(r)
		return
	}
	delete(e.locals, r)
}

// IsSameObject implements jbridge.Env. A cleared weak reference is the
// same object as null.
func (e *Env) IsSameObject(a, b jbridge.Ref) bool {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	oa, ok := e.deref(a)
	if !ok {
		return false
	}
	ob, ok := e.deref(b)
	if !ok {
		return false
	}
	return oa == ob
}

// ExceptionOccurred implements jbridge.Env.
func (e *Env) ExceptionOccurred() jbridge.Ref {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	if e.pending == nil {
		return 0
	}
	// Reporting the pending exception ignores the local table capacity.
	e.vm.nextRef++
	r := jbridge.Ref(e.vm.nextRef)
	e.locals[r] = e.pending
	return r
}

// ExceptionClear implements jbridge.Env.
func (e *Env) ExceptionClear() {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	e.pending = nil
}

func (e *Env) staticSlot(class, name string) (*slot, error) {
	c, ok := e.vm.classes[class]
	if !ok {
		return nil, Throw(NoClassDefFoundError, class)
	}
	for k := c; k != nil; k = k.super {
		for _, f := range k.fields {
			if f.static && f.name == name {
				return k.statics[f], nil
			}
		}
	}
	return nil, Throw(NoSuchFieldError, name)
}

// StaticRef returns a static reference field by class and field name.
func (e *Env) StaticRef(class, name string) (*Object, error) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	s, err := e.staticSlot(class, name)
	if err != nil {
		return nil, err
	}
	return s.obj, nil
}

// SetStaticRef stores a static reference field by class and field name.
func (e *Env) SetStaticRef(class, name string, o *Object) error {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	s, err := e.staticSlot(class, name)
	if err != nil {
		return err
	}
	s.obj = o
	return nil
}
