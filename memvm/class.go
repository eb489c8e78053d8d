package memvm

import (
	"strings"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/sig"
)

// Method implements a runtime method in Go. this is nil for static methods.
// Reference arguments are references owned by the caller; results that are
// references must be created with env.Value.
type Method func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error)

// ClassDef declares a runtime class.
type ClassDef struct {
	Name       string
	Super      string // defaults to java/lang/Object
	Interfaces []string
	Fields     []FieldDef
	Methods    []MethodDef
	Interface  bool
	Abstract   bool
}

// FieldDef declares a field. Type is a field signature such as "I" or
// "Ljava/lang/String;". Value initializes primitive static fields.
type FieldDef struct {
	Value   jbridge.Value
	Name    string
	Type    string
	Static  bool
	Final   bool
	Private bool
}

// MethodDef declares a method. A nil Fn declares an abstract method.
type MethodDef struct {
	Fn      Method
	Name    string
	Sig     string
	Static  bool
	Private bool
}

// Reflective modifier bits reported by java/lang/reflect/Field.getModifiers.
const (
	ModPublic  = 0x1
	ModPrivate = 0x2
	ModStatic  = 0x8
	ModFinal   = 0x10
)

// Class is a linked runtime class.
type Class struct {
	super      *Class
	elem       *Class
	object     *Object
	methods    map[string]*method
	statics    map[*field]*slot
	name       string
	interfaces []*Class
	fields     []*field
	elemType   sig.Type
	iface      bool
	abstract   bool
	primitive  bool
}

type method struct {
	fn      Method
	owner   *Class
	name    string
	sig     string
	params  []sig.Type
	ret     sig.Type
	id      jbridge.MethodID
	static  bool
	private bool
}

type field struct {
	owner   *Class
	object  *Object
	name    string
	typ     sig.Type
	id      jbridge.FieldID
	static  bool
	final   bool
	private bool
}

func (f *field) modifiers() int32 {
	var m int32
	if f.private {
		m |= ModPrivate
	} else {
		m |= ModPublic
	}
	if f.static {
		m |= ModStatic
	}
	if f.final {
		m |= ModFinal
	}
	return m
}

// Name returns the slash-separated class name, or the signature for arrays.
func (c *Class) Name() string { return c.name }

// JavaName returns the name java/lang/Class.getName reports.
func (c *Class) JavaName() string { return sig.ToDotted(c.name) }

// Super returns the superclass, or nil for java/lang/Object and interfaces.
func (c *Class) Super() *Class { return c.super }

// IsArray reports whether c is an array class.
func (c *Class) IsArray() bool { return c.elem != nil }

// IsInterface reports whether c is an interface.
func (c *Class) IsInterface() bool { return c.iface }

// AssignableTo reports whether instances of c can be used where t is
// expected.
func (c *Class) AssignableTo(t *Class) bool {
	if c == t {
		return true
	}
	if c.primitive || t.primitive {
		return false
	}
	if c.IsArray() {
		if t.IsArray() {
			if c.elem.primitive || t.elem.primitive {
				return false
			}
			return c.elem.AssignableTo(t.elem)
		}
		return t.name == sig.ObjectClass
	}
	if t.iface {
		for k := c; k != nil; k = k.super {
			for _, i := range k.interfaces {
				if i.AssignableTo(t) {
					return true
				}
			}
		}
		return false
	}
	for k := c.super; k != nil; k = k.super {
		if k == t {
			return true
		}
	}
	return false
}

func methodKey(name, signature string) string {
	return name + signature
}

// findMethod looks name+signature up on c, its superclasses and then its
// interfaces.
func (c *Class) findMethod(name, signature string) *method {
	key := methodKey(name, signature)
	if name == "<init>" {
		return c.methods[key]
	}
	for k := c; k != nil; k = k.super {
		if m, ok := k.methods[key]; ok {
			return m
		}
	}
	seen := map[*Class]bool{}
	var walk func(*Class) *method
	walk = func(k *Class) *method {
		for _, i := range k.interfaces {
			if seen[i] {
				continue
			}
			seen[i] = true
			if m, ok := i.methods[key]; ok {
				return m
			}
			if m := walk(i); m != nil {
				return m
			}
		}
		return nil
	}
	for k := c; k != nil; k = k.super {
		if m := walk(k); m != nil {
			return m
		}
	}
	return nil
}

// dispatch finds the implementation of m for an instance of c.
func (c *Class) dispatch(m *method) *method {
	if m.private || m.name == "<init>" {
		return m
	}
	for k := c; k != nil; k = k.super {
		if impl, ok := k.methods[methodKey(m.name, m.sig)]; ok && impl.fn != nil {
			return impl
		}
	}
	if impl := c.findMethod(m.name, m.sig); impl != nil && impl.fn != nil {
		return impl
	}
	return m
}

// publicField finds a public field by name: declared fields first, then
// superinterfaces, then the superclass.
func (c *Class) publicField(name string) *field {
	for _, f := range c.fields {
		if f.name == name && !f.private {
			return f
		}
	}
	for _, i := range c.interfaces {
		if f := i.publicField(name); f != nil {
			return f
		}
	}
	if c.super != nil {
		return c.super.publicField(name)
	}
	return nil
}

// anyField finds a field by name including private ones.
func (c *Class) anyField(name string) *field {
	for k := c; k != nil; k = k.super {
		for _, f := range k.fields {
			if f.name == name {
				return f
			}
		}
	}
	return nil
}

func (c *Class) instanceFields() []*field {
	var out []*field
	for k := c; k != nil; k = k.super {
		for _, f := range k.fields {
			if !f.static {
				out = append(out, f)
			}
		}
	}
	return out
}

// define registers and links class definitions. Caller holds vm.mu.
func (vm *VM) define(defs []ClassDef) error {
	var added []*Class
	for i := range defs {
		d := &defs[i]
		if err := sig.ValidateClassName(d.Name); err != nil {
			return err
		}
		if strings.HasPrefix(d.Name, "[") {
			return errors.InvalidInput(errors.PhaseConfig, "cannot define array class "+d.Name)
		}
		if _, exists := vm.classes[d.Name]; exists {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Owner(d.Name).
				Detail("class defined twice").
				Build()
		}
		c := &Class{
			name:     d.Name,
			iface:    d.Interface,
			abstract: d.Abstract || d.Interface,
			methods:  make(map[string]*method),
			statics:  make(map[*field]*slot),
		}
		vm.classes[d.Name] = c
		added = append(added, c)
	}

	for i, c := range added {
		d := &defs[i]
		if err := vm.link(c, d); err != nil {
			return err
		}
	}
	for _, c := range added {
		vm.classObject(c)
	}
	return nil
}

func (vm *VM) link(c *Class, d *ClassDef) error {
	if !d.Interface && d.Name != sig.ObjectClass {
		superName := d.Super
		if superName == "" {
			superName = sig.ObjectClass
		}
		super, ok := vm.classes[superName]
		if !ok {
			return errors.ClassNotFound(superName, nil)
		}
		if super.iface {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Owner(d.Name).
				Detail("superclass %s is an interface", superName).
				Build()
		}
		c.super = super
	}
	for _, name := range d.Interfaces {
		i, ok := vm.classes[name]
		if !ok {
			return errors.ClassNotFound(name, nil)
		}
		if !i.iface {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Owner(d.Name).
				Detail("%s is not an interface", name).
				Build()
		}
		c.interfaces = append(c.interfaces, i)
	}

	for _, fd := range d.Fields {
		t, err := sig.Parse(fd.Type)
		if err != nil {
			return err
		}
		f := &field{
			owner:   c,
			name:    fd.Name,
			typ:     t,
			static:  fd.Static,
			final:   fd.Final,
			private: fd.Private,
		}
		vm.fields = append(vm.fields, f)
		f.id = jbridge.FieldID(len(vm.fields))
		c.fields = append(c.fields, f)
		if f.static {
			s := zeroSlot(t)
			if t.Kind.IsPrimitive() && fd.Value.Kind() == t.Kind {
				s.prim = fd.Value
			}
			c.statics[f] = s
		}
	}

	hasCtor := false
	for _, md := range d.Methods {
		params, ret, err := sig.ParseMethod(md.Sig)
		if err != nil {
			return err
		}
		if md.Name == "<init>" {
			if md.Static || ret.Kind != jbridge.KindVoid {
				return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
					Owner(d.Name).
					Member(md.Name).
					Signature(md.Sig).
					Detail("constructors must be instance methods returning void").
					Build()
			}
			hasCtor = true
		}
		vm.addMethod(c, md.Name, md.Sig, params, ret, md.Static, md.Private, md.Fn)
	}
	if !hasCtor && !c.iface {
		vm.addMethod(c, "<init>", "()V", nil, sig.Void, false, false, noop)
	}
	return nil
}

func noop(*Env, *Object, []jbridge.Value) (jbridge.Value, error) {
	return jbridge.Void, nil
}

func (vm *VM) addMethod(c *Class, name, signature string, params []sig.Type, ret sig.Type, static, private bool, fn Method) {
	m := &method{
		fn:      fn,
		owner:   c,
		name:    name,
		sig:     signature,
		params:  params,
		ret:     ret,
		static:  static,
		private: private,
	}
	vm.methods = append(vm.methods, m)
	m.id = jbridge.MethodID(len(vm.methods))
	c.methods[methodKey(name, signature)] = m
}

// classObject returns the java/lang/Class instance for c. Caller holds vm.mu.
func (vm *VM) classObject(c *Class) *Object {
	if c.object == nil {
		cc := vm.classes[sig.ClassClass]
		c.object = vm.alloc(cc)
		c.object.Native = c
	}
	return c.object
}

// lookupClass finds or synthesizes a class by FindClass name.
// Caller holds vm.mu.
func (vm *VM) lookupClass(name string) *Class {
	if c, ok := vm.classes[name]; ok {
		return c
	}
	if !strings.HasPrefix(name, "[") {
		return nil
	}
	t, err := sig.Parse(name)
	if err != nil || t.Kind != jbridge.KindArray {
		return nil
	}
	return vm.classForType(t)
}

// classForType returns the class for a value type, creating array and
// primitive classes on demand. Caller holds vm.mu.
func (vm *VM) classForType(t sig.Type) *Class {
	switch t.Kind {
	case jbridge.KindObject:
		return vm.classes[t.Class]
	case jbridge.KindArray:
		name := t.Signature()
		if c, ok := vm.classes[name]; ok {
			return c
		}
		elem := vm.classForType(*t.Elem)
		if elem == nil {
			return nil
		}
		c := &Class{
			name:     name,
			super:    vm.classes[sig.ObjectClass],
			elem:     elem,
			elemType: *t.Elem,
			methods:  make(map[string]*method),
			statics:  make(map[*field]*slot),
		}
		vm.classes[name] = c
		vm.classObject(c)
		return c
	default:
		name := t.Kind.String()
		if c, ok := vm.primitives[name]; ok {
			return c
		}
		c := &Class{
			name:      name,
			primitive: true,
			abstract:  true,
			methods:   make(map[string]*method),
			statics:   make(map[*field]*slot),
		}
		vm.primitives[name] = c
		vm.classObject(c)
		return c
	}
}
