package memvm

import (
	"fmt"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

func (vm *VM) methodByID(id jbridge.MethodID) *method {
	if id == 0 || int(id) > len(vm.methods) {
		return nil
	}
	return vm.methods[id-1]
}

func (vm *VM) fieldByID(id jbridge.FieldID) *field {
	if id == 0 || int(id) > len(vm.fields) {
		return nil
	}
	return vm.fields[id-1]
}

func zeroValue(k jbridge.Kind) jbridge.Value {
	switch k {
	case jbridge.KindObject:
		return jbridge.Null
	case jbridge.KindArray:
		return jbridge.Array(0)
	case jbridge.KindVoid:
		return jbridge.Void
	default:
		return zeroSlot(sig.Primitive(k)).prim
	}
}

func (e *Env) getMethodID(class jbridge.Ref, name, signature string, static bool) jbridge.MethodID {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	c := e.derefClass(class)
	if c == nil {
		return 0
	}
	if _, _, err := sig.ParseMethod(signature); err != nil {
		e.throw(NoSuchMethodError, fmt.Sprintf("malformed signature %s", signature))
		return 0
	}
	m := c.findMethod(name, signature)
	if m == nil || m.static != static {
		e.throw(NoSuchMethodError, fmt.Sprintf("%s.%s%s", c.JavaName(), name, signature))
		return 0
	}
	return m.id
}

// GetMethodID implements jbridge.Env.
func (e *Env) GetMethodID(class jbridge.Ref, name, signature string) jbridge.MethodID {
	return e.getMethodID(class, name, signature, false)
}

// GetStaticMethodID implements jbridge.Env.
func (e *Env) GetStaticMethodID(class jbridge.Ref, name, signature string) jbridge.MethodID {
	return e.getMethodID(class, name, signature, true)
}

// checkArgs validates argument kinds against m's parameters. Caller holds
// vm.mu.
func (e *Env) checkArgs(m *method, args []jbridge.Value) bool {
	if len(args) != len(m.params) {
		e.throw(IllegalArgumentException, fmt.Sprintf("%s%s: expected %d arguments, got %d",
			m.name, m.sig, len(m.params), len(args)))
		return false
	}
	for i, p := range m.params {
		a := args[i]
		if p.IsReference() {
			if !a.IsReference() {
				e.throw(IllegalArgumentException, fmt.Sprintf("%s%s: argument %d is %s, want reference",
					m.name, m.sig, i, a.Kind()))
				return false
			}
			o, ok := e.deref(a.Ref())
			if !ok {
				return false
			}
			if o != nil {
				if pc := e.vm.classForType(p); pc != nil && !o.class.AssignableTo(pc) {
					e.throw(IllegalArgumentException, fmt.Sprintf("%s%s: argument %d is %s, want %s",
						m.name, m.sig, i, o.class.JavaName(), p))
					return false
				}
			}
			continue
		}
		if a.Kind() != p.Kind {
			e.throw(IllegalArgumentException, fmt.Sprintf("%s%s: argument %d is %s, want %s",
				m.name, m.sig, i, a.Kind(), p.Kind))
			return false
		}
	}
	return true
}

// run executes a method body outside the VM lock and converts its result.
func (e *Env) run(m *method, this *Object, ret jbridge.Kind, args []jbridge.Value) jbridge.Value {
	v, err := m.fn(e, this, args)
	if err != nil {
		e.raise(err)
		return zeroValue(ret)
	}
	if ret.IsReference() {
		if !v.IsReference() {
			return zeroValue(ret)
		}
		v = e.freshResult(v, args)
		if ret == jbridge.KindArray {
			return jbridge.Array(v.Ref())
		}
		return jbridge.Object(v.Ref())
	}
	if ret == jbridge.KindVoid {
		return jbridge.Void
	}
	if v.Kind() != ret {
		e.raise(Throwf(IllegalStateException, "%s%s returned %s, want %s", m.name, m.sig, v.Kind(), ret))
		return zeroValue(ret)
	}
	return v
}

// freshResult makes sure a reference result is a local the caller does not
// already hold through its arguments.
func (e *Env) freshResult(v jbridge.Value, args []jbridge.Value) jbridge.Value {
	r := v.Ref()
	if r == 0 {
		return v
	}
	for _, a := range args {
		if a.IsReference() && a.Ref() == r {
			e.vm.mu.Lock()
			defer e.vm.mu.Unlock()
			o, ok := e.deref(r)
			if !ok {
				return jbridge.Null
			}
			return valueOf(o, e.newLocal(o))
		}
	}
	return v
}

func returnMatches(m *method, ret jbridge.Kind) bool {
	if m.ret.IsReference() {
		return ret.IsReference()
	}
	return m.ret.Kind == ret
}

// CallMethod implements jbridge.Env with virtual dispatch on the receiver.
func (e *Env) CallMethod(obj jbridge.Ref, id jbridge.MethodID, ret jbridge.Kind, args []jbridge.Value) jbridge.Value {
	e.vm.mu.Lock()
	m := e.vm.methodByID(id)
	if m == nil || m.static {
		e.throw(IllegalArgumentException, fmt.Sprintf("invalid instance method id %d", id))
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	this := e.derefNonNull(obj, fmt.Sprintf("invoking %s on null", m.name))
	if this == nil {
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	if !this.class.AssignableTo(m.owner) {
		e.throw(IllegalArgumentException, fmt.Sprintf("%s is not an instance of %s",
			this.class.JavaName(), m.owner.JavaName()))
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	if !returnMatches(m, ret) || !e.checkArgs(m, args) {
		if e.pending == nil {
			e.throw(IllegalArgumentException, fmt.Sprintf("%s%s called for %s result", m.name, m.sig, ret))
		}
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	impl := this.class.dispatch(m)
	e.vm.mu.Unlock()

	if impl.fn == nil {
		e.raise(Throw(AbstractMethodError, fmt.Sprintf("%s.%s%s", this.class.JavaName(), m.name, m.sig)))
		return zeroValue(ret)
	}
	return e.run(impl, this, ret, args)
}

// CallStaticMethod implements jbridge.Env.
func (e *Env) CallStaticMethod(class jbridge.Ref, id jbridge.MethodID, ret jbridge.Kind, args []jbridge.Value) jbridge.Value {
	e.vm.mu.Lock()
	m := e.vm.methodByID(id)
	if m == nil || !m.static {
		e.throw(IllegalArgumentException, fmt.Sprintf("invalid static method id %d", id))
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	c := e.derefClass(class)
	if c == nil {
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	if !returnMatches(m, ret) || !e.checkArgs(m, args) {
		if e.pending == nil {
			e.throw(IllegalArgumentException, fmt.Sprintf("%s%s called for %s result", m.name, m.sig, ret))
		}
		e.vm.mu.Unlock()
		return zeroValue(ret)
	}
	e.vm.mu.Unlock()

	if m.fn == nil {
		e.raise(Throw(AbstractMethodError, m.name))
		return zeroValue(ret)
	}
	return e.run(m, nil, ret, args)
}

// NewObject implements jbridge.Env.
func (e *Env) NewObject(class jbridge.Ref, ctor jbridge.MethodID, args []jbridge.Value) jbridge.Ref {
	e.vm.mu.Lock()
	c := e.derefClass(class)
	if c == nil {
		e.vm.mu.Unlock()
		return 0
	}
	if c.abstract || c.IsArray() {
		e.throw(InstantiationException, c.JavaName())
		e.vm.mu.Unlock()
		return 0
	}
	m := e.vm.methodByID(ctor)
	if m == nil || m.name != "<init>" || m.owner != c {
		e.throw(IllegalArgumentException, fmt.Sprintf("invalid constructor id %d for %s", ctor, c.JavaName()))
		e.vm.mu.Unlock()
		return 0
	}
	if !e.checkArgs(m, args) {
		e.vm.mu.Unlock()
		return 0
	}
	o := e.vm.alloc(c)
	// Keep the instance reachable while its constructor runs.
	r := e.newLocal(o)
	e.vm.mu.Unlock()
	if r == 0 {
		return 0
	}

	if m.fn != nil {
		if _, err := m.fn(e, o, args); err != nil {
			e.raise(err)
			e.DeleteLocalRef(r)
			return 0
		}
	}
	return r
}

// FromReflectedField implements jbridge.Env.
func (e *Env) FromReflectedField(fieldObj jbridge.Ref) jbridge.FieldID {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	o := e.derefNonNull(fieldObj, "FromReflectedField of null")
	if o == nil {
		return 0
	}
	f, ok := o.Native.(*field)
	if !ok {
		e.throw(IllegalArgumentException, o.class.JavaName()+" is not a java.lang.reflect.Field")
		return 0
	}
	return f.id
}

// fieldSlot resolves the storage of an instance or static field. Caller
// holds vm.mu.
func (e *Env) fieldSlot(target jbridge.Ref, id jbridge.FieldID, kind jbridge.Kind, static bool) (*field, *slot) {
	f := e.vm.fieldByID(id)
	if f == nil || f.static != static {
		e.throw(IllegalArgumentException, fmt.Sprintf("invalid field id %d", id))
		return nil, nil
	}
	if f.typ.IsReference() != kind.IsReference() || (!kind.IsReference() && f.typ.Kind != kind) {
		e.throw(IllegalArgumentException, fmt.Sprintf("field %s is %s, accessed as %s", f.name, f.typ, kind))
		return nil, nil
	}
	if static {
		c := e.derefClass(target)
		if c == nil {
			return nil, nil
		}
		if !c.AssignableTo(f.owner) {
			e.throw(IllegalArgumentException, fmt.Sprintf("%s has no field %s", c.JavaName(), f.name))
			return nil, nil
		}
		return f, f.owner.statics[f]
	}
	o := e.derefNonNull(target, "field access on null")
	if o == nil {
		return nil, nil
	}
	s, ok := o.fields[f]
	if !ok {
		e.throw(IllegalArgumentException, fmt.Sprintf("%s has no field %s", o.class.JavaName(), f.name))
		return nil, nil
	}
	return f, s
}

func (e *Env) getField(target jbridge.Ref, id jbridge.FieldID, kind jbridge.Kind, static bool) jbridge.Value {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	_, s := e.fieldSlot(target, id, kind, static)
	if s == nil {
		return zeroValue(kind)
	}
	if kind.IsReference() {
		r := e.newLocal(s.obj)
		if kind == jbridge.KindArray {
			return jbridge.Array(r)
		}
		return jbridge.Object(r)
	}
	return s.prim
}

func (e *Env) setField(target jbridge.Ref, id jbridge.FieldID, v jbridge.Value, static bool) {
	e.vm.mu.Lock()
	defer e.vm.mu.Unlock()
	f, s := e.fieldSlot(target, id, v.Kind(), static)
	if s == nil {
		return
	}
	if !v.IsReference() {
		s.prim = v
		return
	}
	o, ok := e.deref(v.Ref())
	if !ok {
		return
	}
	if o != nil {
		if fc := e.vm.classForType(f.typ); fc != nil && !o.class.AssignableTo(fc) {
			e.throw(IllegalArgumentException, fmt.Sprintf("cannot store %s in field %s of type %s",
				o.class.JavaName(), f.name, f.typ))
			return
		}
	}
	s.obj = o
}

// GetField implements jbridge.Env.
func (e *Env) GetField(obj jbridge.Ref, f jbridge.FieldID, kind jbridge.Kind) jbridge.Value {
	return e.getField(obj, f, kind, false)
}

// SetField implements jbridge.Env.
func (e *Env) SetField(obj jbridge.Ref, f jbridge.FieldID, v jbridge.Value) {
	e.setField(obj, f, v, false)
}

// GetStaticField implements jbridge.Env.
func (e *Env) GetStaticField(class jbridge.Ref, f jbridge.FieldID, kind jbridge.Kind) jbridge.Value {
	return e.getField(class, f, kind, true)
}

// SetStaticField implements jbridge.Env.
func (e *Env) SetStaticField(class jbridge.Ref, f jbridge.FieldID, v jbridge.Value) {
	e.setField(class, f, v, true)
}
