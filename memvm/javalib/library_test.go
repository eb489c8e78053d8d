package javalib

import (
	"testing"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// rt drives the raw runtime interface the way bridge code does.
type rt struct {
	t   *testing.T
	env *memvm.Env
}

func newRT(t *testing.T, lib *Library) *rt {
	t.Helper()
	vm, err := memvm.New(memvm.WithLibrary(lib))
	if err != nil {
		t.Fatalf("memvm.New failed: %v", err)
	}
	env := vm.Attach()
	t.Cleanup(func() { env.Detach() })
	return &rt{t: t, env: env}
}

func (r *rt) class(name string) jbridge.Ref {
	r.t.Helper()
	c := r.env.FindClass(name)
	if c == 0 {
		r.t.Fatalf("FindClass(%q) failed: %v", name, r.env.Pending())
	}
	return c
}

func (r *rt) check() {
	r.t.Helper()
	if p := r.env.Pending(); p != nil {
		r.t.Fatalf("unexpected exception: %v", p)
	}
}

// expect asserts that an exception of the given class is pending and
// clears it.
func (r *rt) expect(class string) {
	r.t.Helper()
	p := r.env.Pending()
	if p == nil {
		r.t.Fatalf("expected %s, got no exception", class)
	}
	if !p.IsInstanceOf(class) {
		r.t.Fatalf("expected %s, got %v", class, p)
	}
	r.env.ExceptionClear()
}

func (r *rt) static(class, name, signature string, ret jbridge.Kind, args ...jbridge.Value) jbridge.Value {
	r.t.Helper()
	c := r.class(class)
	id := r.env.GetStaticMethodID(c, name, signature)
	if id == 0 {
		r.t.Fatalf("GetStaticMethodID(%s.%s%s) failed", class, name, signature)
	}
	return r.env.CallStaticMethod(c, id, ret, args)
}

func (r *rt) call(obj jbridge.Ref, name, signature string, ret jbridge.Kind, args ...jbridge.Value) jbridge.Value {
	r.t.Helper()
	c := r.env.GetObjectClass(obj)
	id := r.env.GetMethodID(c, name, signature)
	if id == 0 {
		r.t.Fatalf("GetMethodID(%s%s) failed", name, signature)
	}
	return r.env.CallMethod(obj, id, ret, args)
}

func (r *rt) new(class, signature string, args ...jbridge.Value) jbridge.Ref {
	r.t.Helper()
	c := r.class(class)
	id := r.env.GetMethodID(c, "<init>", signature)
	if id == 0 {
		r.t.Fatalf("constructor %s%s not found", class, signature)
	}
	o := r.env.NewObject(c, id, args)
	r.check()
	return o
}

func (r *rt) str(s string) jbridge.Value {
	return jbridge.Object(r.env.NewStringUTF(s))
}

func (r *rt) text(v jbridge.Value) string {
	return r.env.GetStringUTFChars(v.Ref())
}

func (r *rt) bytes(b []byte) jbridge.Value {
	arr := r.env.NewByteArray(len(b))
	r.env.SetByteArrayRegion(arr, 0, b)
	return jbridge.Array(arr)
}

func (r *rt) readBytes(v jbridge.Value) []byte {
	n := r.env.GetArrayLength(v.Ref())
	b := make([]byte, n)
	r.env.GetByteArrayRegion(v.Ref(), 0, b)
	return b
}

func TestLibrary_ActivityThreadChain(t *testing.T) {
	r := newRT(t, New(WithPackageName("com.example.app")))

	at := r.static(ActivityThreadName, "currentActivityThread", "()Landroid/app/ActivityThread;", jbridge.KindObject)
	r.check()
	again := r.static(ActivityThreadName, "currentActivityThread", "()Landroid/app/ActivityThread;", jbridge.KindObject)
	if !r.env.IsSameObject(at.Ref(), again.Ref()) {
		t.Fatal("currentActivityThread should return the same thread")
	}

	app := r.call(at.Ref(), "getApplication", "()Landroid/app/Application;", jbridge.KindObject)
	ctx := r.call(app.Ref(), "getApplicationContext", "()Landroid/content/Context;", jbridge.KindObject)
	name := r.call(ctx.Ref(), "getPackageName", "()Ljava/lang/String;", jbridge.KindObject)
	r.check()
	if got := r.text(name); got != "com.example.app" {
		t.Fatalf("getPackageName() = %q", got)
	}
}

func (r *rt) staticField(class, name string, kind jbridge.Kind) jbridge.Value {
	r.t.Helper()
	c := r.class(class)
	f := r.call(jbridge.Ref(c), "getField", "(Ljava/lang/String;)Ljava/lang/reflect/Field;", jbridge.KindObject, r.str(name))
	r.check()
	id := r.env.FromReflectedField(f.Ref())
	if id == 0 {
		r.t.Fatalf("FromReflectedField(%s.%s) failed", class, name)
	}
	return r.env.GetStaticField(c, id, kind)
}

func TestLibrary_StaticConstants(t *testing.T) {
	r := newRT(t, New(WithSDK(30)))

	tests := []struct {
		class string
		name  string
		want  int32
	}{
		{VersionClass, "SDK_INT", 30},
		{ContextClass, "MODE_PRIVATE", 0},
		{CipherClass, "ENCRYPT_MODE", EncryptMode},
		{CipherClass, "DECRYPT_MODE", DecryptMode},
		{KeyPropertiesClass, "PURPOSE_ENCRYPT", PurposeEncrypt},
		{KeyPropertiesClass, "PURPOSE_DECRYPT", PurposeDecrypt},
	}
	for _, tt := range tests {
		got := r.staticField(tt.class, tt.name, jbridge.KindInt)
		r.check()
		if got.Int() != tt.want {
			t.Errorf("%s.%s = %d, want %d", tt.class, tt.name, got.Int(), tt.want)
		}
	}
}

func TestLibrary_Point(t *testing.T) {
	r := newRT(t, New())

	p := r.new(PointClass, "(II)V", jbridge.Int(1), jbridge.Int(2))
	r.call(p, "offset", "(II)V", jbridge.KindVoid, jbridge.Int(10), jbridge.Int(20))
	eq := r.call(p, "equals", "(II)Z", jbridge.KindBoolean, jbridge.Int(11), jbridge.Int(22))
	r.check()
	if !eq.Boolean() {
		t.Fatal("Expected offset point to equal (11, 22)")
	}
	s := r.call(p, "toString", "()Ljava/lang/String;", jbridge.KindObject)
	if got := r.text(s); got != "Point(11, 22)" {
		t.Fatalf("toString() = %q", got)
	}
}

func TestLibrary_Echo(t *testing.T) {
	r := newRT(t, New())

	for _, in := range [][]byte{{}, {0}, {1, 2, 3}, make([]byte, 4096)} {
		arg := r.bytes(in)
		out := r.static(EchoClass, "echo", "([B)[B", jbridge.KindArray, arg)
		r.check()
		if out.Ref() == arg.Ref() {
			t.Fatal("echo result must be a fresh local")
		}
		if !r.env.IsSameObject(out.Ref(), arg.Ref()) {
			t.Fatal("echo should return the same array")
		}
		if got := r.readBytes(out); len(got) != len(in) {
			t.Fatalf("echo length = %d, want %d", len(got), len(in))
		}
	}

	r.static(EchoClass, "fail", "(Ljava/lang/String;)V", jbridge.KindVoid, r.str("broken"))
	r.expect(memvm.IllegalStateException)
}
