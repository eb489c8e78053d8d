package memvm

import (
	"fmt"
	"unicode/utf16"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

const (
	stringSig = "Ljava/lang/String;"
	objectSig = "Ljava/lang/Object;"
	classSig  = "Ljava/lang/Class;"
)

// RetString returns s as a java/lang/String call result.
func (e *Env) RetString(s string) jbridge.Value {
	return e.Value(e.NewString(s))
}

func coreClasses() []ClassDef {
	defs := []ClassDef{
		{
			Name: sig.ObjectClass,
			Methods: []MethodDef{
				{Name: "<init>", Sig: "()V", Fn: noop},
				{Name: "toString", Sig: "()" + stringSig, Fn: objectToString},
				{Name: "hashCode", Sig: "()I", Fn: func(_ *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(int32(this.id)), nil
				}},
				{Name: "equals", Sig: "(" + objectSig + ")Z", Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Boolean(env.Object(args[0]) == this), nil
				}},
				{Name: "getClass", Sig: "()" + classSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					env.vm.mu.Lock()
					co := env.vm.classObject(this.class)
					env.vm.mu.Unlock()
					return env.Value(co), nil
				}},
			},
		},
		{
			Name:      sig.CharSequenceClass,
			Interface: true,
			Methods: []MethodDef{
				{Name: "length", Sig: "()I"},
				{Name: "toString", Sig: "()" + stringSig},
				{Name: "charAt", Sig: "(I)C"},
			},
		},
		{
			Name:       sig.StringClass,
			Interfaces: []string{sig.CharSequenceClass},
			Methods: []MethodDef{
				{Name: "<init>", Sig: "()V", Fn: noop},
				{Name: "<init>", Sig: "([B)V", Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					b := env.Object(args[0])
					if b == nil {
						return jbridge.Void, Throw(NullPointerException, "bytes")
					}
					text := string(b.Bytes())
					env.vm.mu.Lock()
					this.str = text
					env.vm.mu.Unlock()
					return jbridge.Void, nil
				}},
				{Name: "length", Sig: "()I", Fn: func(_ *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(int32(len(utf16.Encode([]rune(this.Text()))))), nil
				}},
				{Name: "charAt", Sig: "(I)C", Fn: func(_ *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					units := utf16.Encode([]rune(this.Text()))
					i := int(args[0].Int())
					if i < 0 || i >= len(units) {
						return jbridge.Char(0), Throwf("java/lang/StringIndexOutOfBoundsException",
							"index %d, length %d", i, len(units))
					}
					return jbridge.Char(units[i]), nil
				}},
				{Name: "isEmpty", Sig: "()Z", Fn: func(_ *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Boolean(this.Text() == ""), nil
				}},
				{Name: "toString", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this), nil
				}},
				{Name: "equals", Sig: "(" + objectSig + ")Z", Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					other := env.Object(args[0])
					if other == nil || !other.IsInstanceOf(sig.StringClass) {
						return jbridge.Boolean(false), nil
					}
					return jbridge.Boolean(other.Text() == this.Text()), nil
				}},
				{Name: "hashCode", Sig: "()I", Fn: func(_ *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					var h int32
					for _, u := range utf16.Encode([]rune(this.Text())) {
						h = 31*h + int32(u)
					}
					return jbridge.Int(h), nil
				}},
				{Name: "getBytes", Sig: "()[B", Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(env.NewBytes([]byte(this.Text()))), nil
				}},
				{Name: "concat", Sig: "(" + stringSig + ")" + stringSig, Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					s, ok := env.Str(args[0])
					if !ok {
						return jbridge.Null, Throw(NullPointerException, "concat of null")
					}
					return env.RetString(this.Text() + s), nil
				}},
				{Name: "valueOf", Sig: "(I)" + stringSig, Static: true, Fn: func(env *Env, _ *Object, args []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(fmt.Sprint(args[0].Int())), nil
				}},
			},
		},
		{
			Name: sig.ClassClass,
			Methods: []MethodDef{
				{Name: "getName", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*Class).JavaName()), nil
				}},
				{Name: "getSimpleName", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					name := this.Native.(*Class).name
					for i := len(name) - 1; i >= 0; i-- {
						if name[i] == '/' || name[i] == '$' {
							name = name[i+1:]
							break
						}
					}
					return env.RetString(name), nil
				}},
				{Name: "getField", Sig: "(" + stringSig + ")Ljava/lang/reflect/Field;", Fn: classGetField},
				{Name: "isInstance", Sig: "(" + objectSig + ")Z", Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
					o := env.Object(args[0])
					return jbridge.Boolean(o != nil && o.class.AssignableTo(this.Native.(*Class))), nil
				}},
			},
		},
		{
			Name: sig.FieldClass,
			Methods: []MethodDef{
				{Name: "getName", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*field).name), nil
				}},
				{Name: "getType", Sig: "()" + classSig, Fn: fieldGetType},
				{Name: "getModifiers", Sig: "()I", Fn: func(_ *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(this.Native.(*field).modifiers()), nil
				}},
				{Name: "getDeclaringClass", Sig: "()" + classSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					env.vm.mu.Lock()
					co := env.vm.classObject(this.Native.(*field).owner)
					env.vm.mu.Unlock()
					return env.Value(co), nil
				}},
			},
		},
		{
			Name: throwableClass,
			Fields: []FieldDef{
				{Name: "detailMessage", Type: stringSig, Private: true},
			},
			Methods: append(throwableCtors(),
				MethodDef{Name: "getMessage", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this.Ref("detailMessage")), nil
				}},
				MethodDef{Name: "toString", Sig: "()" + stringSig, Fn: func(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
					s := this.class.JavaName()
					if msg := this.Ref("detailMessage"); msg != nil {
						s += ": " + msg.Text()
					}
					return env.RetString(s), nil
				}},
			),
		},
	}

	hierarchy := [][2]string{
		{"java/lang/Exception", throwableClass},
		{"java/lang/Error", throwableClass},
		{RuntimeException, "java/lang/Exception"},
		{"java/lang/ReflectiveOperationException", "java/lang/Exception"},
		{NoSuchFieldException, "java/lang/ReflectiveOperationException"},
		{"java/lang/ClassNotFoundException", "java/lang/ReflectiveOperationException"},
		{InstantiationException, "java/lang/ReflectiveOperationException"},
		{IllegalArgumentException, RuntimeException},
		{IllegalStateException, RuntimeException},
		{NullPointerException, RuntimeException},
		{ClassCastException, RuntimeException},
		{ArrayStoreException, RuntimeException},
		{NegativeArraySizeException, RuntimeException},
		{UnsupportedOperation, RuntimeException},
		{"java/lang/IndexOutOfBoundsException", RuntimeException},
		{IndexOutOfBoundsException, "java/lang/IndexOutOfBoundsException"},
		{"java/lang/StringIndexOutOfBoundsException", "java/lang/IndexOutOfBoundsException"},
		{"java/lang/LinkageError", "java/lang/Error"},
		{NoClassDefFoundError, "java/lang/LinkageError"},
		{"java/lang/IncompatibleClassChangeError", "java/lang/LinkageError"},
		{NoSuchMethodError, "java/lang/IncompatibleClassChangeError"},
		{NoSuchFieldError, "java/lang/IncompatibleClassChangeError"},
		{AbstractMethodError, "java/lang/IncompatibleClassChangeError"},
		{"java/lang/VirtualMachineError", "java/lang/Error"},
		{OutOfMemoryError, "java/lang/VirtualMachineError"},
	}
	for _, h := range hierarchy {
		defs = append(defs, ExceptionClass(h[0], h[1]))
	}
	return defs
}

// ExceptionClass declares an exception class with the two standard
// constructors.
func ExceptionClass(name, super string) ClassDef {
	return ClassDef{Name: name, Super: super, Methods: throwableCtors()}
}

func throwableCtors() []MethodDef {
	return []MethodDef{
		{Name: "<init>", Sig: "()V", Fn: noop},
		{Name: "<init>", Sig: "(" + stringSig + ")V", Fn: func(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
			this.SetRef("detailMessage", env.Object(args[0]))
			return jbridge.Void, nil
		}},
	}
}

func objectToString(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
	return env.RetString(this.String()), nil
}

func classGetField(env *Env, this *Object, args []jbridge.Value) (jbridge.Value, error) {
	name, ok := env.Str(args[0])
	if !ok {
		return jbridge.Null, Throw(NullPointerException, "field name")
	}
	vm := env.vm
	vm.mu.Lock()
	f := this.Native.(*Class).publicField(name)
	var fo *Object
	if f != nil {
		if f.object == nil {
			f.object = vm.alloc(vm.classes[sig.FieldClass])
			f.object.Native = f
		}
		fo = f.object
	}
	vm.mu.Unlock()
	if fo == nil {
		return jbridge.Null, Throw(NoSuchFieldException, name)
	}
	return env.Value(fo), nil
}

func fieldGetType(env *Env, this *Object, _ []jbridge.Value) (jbridge.Value, error) {
	f := this.Native.(*field)
	vm := env.vm
	vm.mu.Lock()
	c := vm.classForType(f.typ)
	var co *Object
	if c != nil {
		co = vm.classObject(c)
	}
	vm.mu.Unlock()
	if co == nil {
		return jbridge.Null, Throw(NoClassDefFoundError, f.typ.ClassName())
	}
	return env.Value(co), nil
}
