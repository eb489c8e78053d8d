package resolve

import (
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
	"github.com/wippyai/jbridge/ref"
)

// calls counts runtime lookups across every recorded thread.
type calls struct {
	counts map[string]int
	mu     sync.Mutex
}

func (c *calls) add(key string) {
	c.mu.Lock()
	c.counts[key]++
	c.mu.Unlock()
}

func (c *calls) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key]
}

// recordingEnv counts the lookups that go through to the runtime.
type recordingEnv struct {
	jbridge.Env
	calls *calls
}

func (r recordingEnv) FindClass(name string) jbridge.Ref {
	r.calls.add("FindClass " + name)
	return r.Env.FindClass(name)
}

func (r recordingEnv) GetMethodID(class jbridge.Ref, name, signature string) jbridge.MethodID {
	r.calls.add("GetMethodID " + name + signature)
	return r.Env.GetMethodID(class, name, signature)
}

func (r recordingEnv) GetStaticMethodID(class jbridge.Ref, name, signature string) jbridge.MethodID {
	r.calls.add("GetStaticMethodID " + name + signature)
	return r.Env.GetStaticMethodID(class, name, signature)
}

func (r recordingEnv) FromReflectedField(field jbridge.Ref) jbridge.FieldID {
	r.calls.add("FromReflectedField")
	return r.Env.FromReflectedField(field)
}

type fixture struct {
	vm    *memvm.VM
	env   recordingEnv
	refs  *ref.Manager
	cache *Cache
	calls *calls
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	vm, err := memvm.New(memvm.WithLibrary(javalib.New()))
	if err != nil {
		t.Fatalf("memvm.New failed: %v", err)
	}
	raw := vm.Attach()
	c := &calls{counts: make(map[string]int)}
	f := &fixture{
		vm:    vm,
		env:   recordingEnv{Env: raw, calls: c},
		refs:  ref.NewManager(raw),
		calls: c,
	}
	f.cache = New(f.refs, opts...)
	t.Cleanup(func() {
		f.cache.Close()
		f.refs.Close()
		raw.Detach()
	})
	return f
}

var addKey = MethodKey{Owner: javalib.EchoClass, Name: "add", Signature: "(II)I", Static: true}

func TestCache_MethodHit(t *testing.T) {
	f := newFixture(t)

	first, err := f.cache.Method(f.env, addKey)
	if err != nil {
		t.Fatalf("Method failed: %v", err)
	}
	second, err := f.cache.Method(f.env, addKey)
	if err != nil {
		t.Fatalf("Method failed: %v", err)
	}
	if first != second {
		t.Fatalf("cached id %d differs from first id %d", second, first)
	}
	if n := f.calls.get("GetStaticMethodID add(II)I"); n != 1 {
		t.Fatalf("GetStaticMethodID calls = %d, want 1", n)
	}
	if n := f.calls.get("FindClass " + javalib.EchoClass); n != 1 {
		t.Fatalf("FindClass calls = %d, want 1", n)
	}

	stats := f.cache.Stats()
	if stats.Hits == 0 || stats.Methods != 1 || stats.Classes != 1 {
		t.Fatalf("Stats = %+v", stats)
	}
}

func TestCache_ClassHeldAsGlobal(t *testing.T) {
	f := newFixture(t)
	before := f.vm.Stats().Globals

	cls, err := f.cache.Class(f.env, javalib.PointClass)
	if err != nil {
		t.Fatalf("Class failed: %v", err)
	}
	if cls == 0 {
		t.Fatal("Class returned null")
	}
	if got := f.vm.Stats().Globals; got != before+1 {
		t.Fatalf("globals = %d, want %d", got, before+1)
	}
	if got := f.env.Env.(*memvm.Env).LocalCount(); got != 0 {
		t.Fatalf("resolution leaked %d locals", got)
	}

	f.cache.Close()
	if got := f.vm.Stats().Globals; got != before {
		t.Fatalf("globals after Close = %d, want %d", got, before)
	}
	if f.refs.Len() != 0 {
		t.Fatalf("manager still holds %d handles", f.refs.Len())
	}
}

func TestCache_Failures(t *testing.T) {
	f := newFixture(t)

	_, err := f.cache.Class(f.env, "com/example/Missing")
	if !errors.IsKind(err, errors.KindResolution) {
		t.Fatalf("Expected resolution error, got %v", err)
	}
	var x *Exception
	if !errors.As(err, &x) || x.Class != "java.lang.NoClassDefFoundError" {
		t.Fatalf("Expected NoClassDefFoundError cause, got %v", err)
	}

	_, err = f.cache.Method(f.env, MethodKey{Owner: javalib.EchoClass, Name: "add", Signature: "(JJ)J", Static: true})
	if !errors.IsKind(err, errors.KindResolution) {
		t.Fatalf("Expected resolution error for wrong signature, got %v", err)
	}
	_, err = f.cache.Method(f.env, MethodKey{Owner: javalib.EchoClass, Name: "add", Signature: "(II)I"})
	if !errors.IsKind(err, errors.KindResolution) {
		t.Fatalf("Expected resolution error for static method looked up as instance, got %v", err)
	}
	_, err = f.cache.Method(f.env, MethodKey{Owner: javalib.EchoClass, Name: "add", Signature: "(II"})
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("Expected invalid input for malformed signature, got %v", err)
	}
	_, err = f.cache.Class(f.env, "java.lang.String")
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("Expected invalid input for dotted name, got %v", err)
	}

	if exc := f.env.ExceptionOccurred(); exc != 0 {
		t.Fatal("failed resolution left a pending exception")
	}
}

func TestCache_Fields(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		key  FieldKey
		kind errors.Kind
	}{
		{key: FieldKey{Owner: javalib.HolderClass, Name: "i", Signature: "I"}},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "name", Signature: "Ljava/lang/String;"}},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "data", Signature: "[B"}},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "counter", Signature: "I", Static: true}},
		{key: FieldKey{Owner: javalib.VersionClass, Name: "SDK_INT", Signature: "I", Static: true}},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "i", Signature: "J"}, kind: errors.KindMarshalMismatch},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "name", Signature: "[B"}, kind: errors.KindMarshalMismatch},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "counter", Signature: "I"}, kind: errors.KindResolution},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "i", Signature: "I", Static: true}, kind: errors.KindResolution},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "missing", Signature: "I"}, kind: errors.KindResolution},
		{key: FieldKey{Owner: javalib.HolderClass, Name: "hidden", Signature: "I"}, kind: errors.KindResolution},
	}
	for _, tt := range tests {
		t.Run(tt.key.Name+tt.key.Signature, func(t *testing.T) {
			id, err := f.cache.Field(f.env, tt.key)
			if tt.kind != "" {
				if !errors.IsKind(err, tt.kind) {
					t.Fatalf("Expected %s error, got %v", tt.kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Field failed: %v", err)
			}
			if id == 0 {
				t.Fatal("Field returned zero id")
			}
		})
	}
	if got := f.env.Env.(*memvm.Env).LocalCount(); got != 0 {
		t.Fatalf("field resolution leaked %d locals", got)
	}
}

func TestCache_FieldCaching(t *testing.T) {
	key := FieldKey{Owner: javalib.HolderClass, Name: "j", Signature: "J"}

	tests := []struct {
		name string
		opts []Option
		want int
	}{
		{"cached", nil, 1},
		{"uncached", []Option{WithFieldCache(false)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts...)
			for i := 0; i < 3; i++ {
				if _, err := f.cache.Field(f.env, key); err != nil {
					t.Fatalf("Field failed: %v", err)
				}
			}
			if n := f.calls.get("FromReflectedField"); n != tt.want {
				t.Fatalf("FromReflectedField calls = %d, want %d", n, tt.want)
			}
		})
	}
}

func TestCache_ConcurrentFirstResolution(t *testing.T) {
	f := newFixture(t)

	const workers = 16
	ids := make([]jbridge.MethodID, workers)
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			env := f.vm.Attach()
			defer env.Detach()
			id, err := f.cache.Method(recordingEnv{Env: env, calls: f.calls}, addKey)
			ids[i] = id
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent resolution failed: %v", err)
	}
	for i, id := range ids {
		if id == 0 || id != ids[0] {
			t.Fatalf("worker %d resolved %d, want %d", i, id, ids[0])
		}
	}
	if n := f.calls.get("GetStaticMethodID add(II)I"); n != 1 {
		t.Fatalf("GetStaticMethodID calls = %d, want 1", n)
	}
	if n := f.calls.get("FindClass " + javalib.EchoClass); n != 1 {
		t.Fatalf("FindClass calls = %d, want 1", n)
	}
}

func TestTakeException(t *testing.T) {
	f := newFixture(t)

	if x := TakeException(f.env); x != nil {
		t.Fatalf("TakeException with nothing pending = %v", x)
	}

	id, err := f.cache.Method(f.env, MethodKey{Owner: javalib.EchoClass, Name: "fail", Signature: "(Ljava/lang/String;)V", Static: true})
	if err != nil {
		t.Fatalf("Method failed: %v", err)
	}
	cls, _ := f.cache.Class(f.env, javalib.EchoClass)
	msg := f.env.NewStringUTF("bad state")
	f.env.CallStaticMethod(cls, id, jbridge.KindVoid, []jbridge.Value{jbridge.Object(msg)})
	f.env.DeleteLocalRef(msg)

	if !Pending(f.env) {
		t.Fatal("Expected pending exception")
	}
	x := TakeException(f.env)
	if x == nil {
		t.Fatal("TakeException returned nil")
	}
	if x.Class != "java.lang.IllegalStateException" || x.Message != "bad state" {
		t.Fatalf("TakeException = %+v", x)
	}
	if x.Error() != "java.lang.IllegalStateException: bad state" {
		t.Fatalf("Error() = %q", x.Error())
	}
	if Pending(f.env) {
		t.Fatal("exception still pending after TakeException")
	}
	if got := f.env.Env.(*memvm.Env).LocalCount(); got != 0 {
		t.Fatalf("TakeException leaked %d locals", got)
	}
}

func TestTakeException_LocalTable(t *testing.T) {
	const capacity = 4
	tests := []struct {
		name    string
		free    bool
		want    Exception
		wantOut int
	}{
		{
			name:    "table full",
			want:    Exception{Class: "java.lang.Throwable"},
			wantOut: capacity,
		},
		{
			name:    "table with room",
			free:    true,
			want:    Exception{Class: "java.lang.OutOfMemoryError", Message: "local reference table overflow"},
			wantOut: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, err := memvm.New(memvm.WithLibrary(javalib.New()), memvm.WithLocalCapacity(capacity))
			if err != nil {
				t.Fatalf("memvm.New failed: %v", err)
			}
			env := vm.Attach()
			defer env.Detach()

			held := make([]jbridge.Ref, 0, capacity)
			for i := 0; i < capacity; i++ {
				r := env.NewStringUTF("held")
				if r == 0 {
					t.Fatalf("NewStringUTF %d failed", i)
				}
				held = append(held, r)
			}
			if r := env.NewStringUTF("overflow"); r != 0 {
				t.Fatalf("NewStringUTF past capacity = %v, want 0", r)
			}
			if tt.free {
				for _, r := range held {
					env.DeleteLocalRef(r)
				}
			}

			x := TakeException(env)
			if x == nil {
				t.Fatal("TakeException returned nil")
			}
			if *x != tt.want {
				t.Errorf("TakeException = %+v, want %+v", *x, tt.want)
			}
			if Pending(env) {
				t.Error("exception still pending after TakeException")
			}
			if got := env.LocalCount(); got != tt.wantOut {
				t.Errorf("LocalCount = %d, want %d", got, tt.wantOut)
			}
		})
	}
}
