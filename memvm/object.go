package memvm

import (
	"fmt"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

// Object is a heap object of the VM.
type Object struct {
	// Native holds library-defined Go state. It is not traced by Collect;
	// objects reachable only through Native must also be kept in a field.
	Native any

	vm     *VM
	class  *Class
	fields map[*field]*slot
	str    string
	bytes  []byte
	chars  []uint16
	elems  []*Object
	id     uint64
	marked bool
}

type slot struct {
	obj  *Object
	prim jbridge.Value
}

func zeroSlot(t sig.Type) *slot {
	switch t.Kind {
	case jbridge.KindBoolean:
		return &slot{prim: jbridge.Boolean(false)}
	case jbridge.KindByte:
		return &slot{prim: jbridge.Byte(0)}
	case jbridge.KindChar:
		return &slot{prim: jbridge.Char(0)}
	case jbridge.KindShort:
		return &slot{prim: jbridge.Short(0)}
	case jbridge.KindInt:
		return &slot{prim: jbridge.Int(0)}
	case jbridge.KindLong:
		return &slot{prim: jbridge.Long(0)}
	case jbridge.KindFloat:
		return &slot{prim: jbridge.Float(0)}
	case jbridge.KindDouble:
		return &slot{prim: jbridge.Double(0)}
	default:
		return &slot{}
	}
}

// alloc creates an instance of c with zeroed fields. Caller holds vm.mu.
func (vm *VM) alloc(c *Class) *Object {
	vm.nextID++
	o := &Object{vm: vm, class: c, id: vm.nextID}
	if fs := c.instanceFields(); len(fs) > 0 {
		o.fields = make(map[*field]*slot, len(fs))
		for _, f := range fs {
			o.fields[f] = zeroSlot(f.typ)
		}
	}
	vm.heap[o] = struct{}{}
	return o
}

// Class returns the runtime class of o.
func (o *Object) Class() *Class { return o.class }

// ID returns the identity hash of o.
func (o *Object) ID() uint64 { return o.id }

// IsInstanceOf reports whether o is an instance of the named class.
func (o *Object) IsInstanceOf(name string) bool {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	c := o.vm.lookupClass(name)
	return c != nil && o.class.AssignableTo(c)
}

// Text returns the contents of a java/lang/String.
func (o *Object) Text() string {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	return o.str
}

// Bytes returns a copy of the contents of a byte[].
func (o *Object) Bytes() []byte {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	return append([]byte(nil), o.bytes...)
}

// WriteBytes copies b into a byte[] starting at off. It returns false if b
// does not fit.
func (o *Object) WriteBytes(off int, b []byte) bool {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	if !regionOK(off, len(b), len(o.bytes)) {
		return false
	}
	copy(o.bytes[off:], b)
	return true
}

// Chars returns a copy of the contents of a char[].
func (o *Object) Chars() []uint16 {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	return append([]uint16(nil), o.chars...)
}

// Elements returns a copy of the elements of an object array.
func (o *Object) Elements() []*Object {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	return append([]*Object(nil), o.elems...)
}

// Len returns the length of an array.
func (o *Object) Len() int {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	return o.arrayLen()
}

func (o *Object) arrayLen() int {
	if o.class.elem == nil {
		return 0
	}
	switch o.class.elemType.Kind {
	case jbridge.KindByte:
		return len(o.bytes)
	case jbridge.KindChar:
		return len(o.chars)
	default:
		return len(o.elems)
	}
}

func (o *Object) slotNamed(name string) *slot {
	f := o.class.anyField(name)
	if f == nil || f.static {
		return nil
	}
	return o.fields[f]
}

// Prim returns a primitive instance field by name. Missing fields yield
// the void value.
func (o *Object) Prim(name string) jbridge.Value {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	if s := o.slotNamed(name); s != nil {
		return s.prim
	}
	return jbridge.Void
}

// SetPrim stores a primitive instance field by name.
func (o *Object) SetPrim(name string, v jbridge.Value) {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	if s := o.slotNamed(name); s != nil {
		s.prim = v
	}
}

// Ref returns a reference instance field by name.
func (o *Object) Ref(name string) *Object {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	if s := o.slotNamed(name); s != nil {
		return s.obj
	}
	return nil
}

// SetRef stores a reference instance field by name.
func (o *Object) SetRef(name string, v *Object) {
	o.vm.mu.Lock()
	defer o.vm.mu.Unlock()
	if s := o.slotNamed(name); s != nil {
		s.obj = v
	}
}

func (o *Object) String() string {
	if o == nil {
		return "null"
	}
	return fmt.Sprintf("%s@%x", o.class.JavaName(), o.id)
}
