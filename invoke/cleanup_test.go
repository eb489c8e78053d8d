package invoke

import (
	"testing"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
	"github.com/wippyai/jbridge/ref"
)

const pairClass = "jbridge/test/Pair"

var pairDef = memvm.ClassDef{
	Name: pairClass,
	Methods: []memvm.MethodDef{
		{Name: "join", Sig: "(Ljava/lang/String;Ljava/lang/String;)V", Static: true,
			Fn: func(_ *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				return jbridge.Void, nil
			}},
		{Name: "<init>", Sig: "()V",
			Fn: func(_ *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				return jbridge.Void, nil
			}},
		{Name: "accept", Sig: "(Ljava/lang/String;)V",
			Fn: func(_ *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				return jbridge.Void, nil
			}},
	},
}

// receivers are instances shared by the operations of one test case.
type receivers struct {
	holder object
	pair   object
}

// fillLocals creates locals on env until only free slots remain and returns
// them.
func fillLocals(t *testing.T, env *memvm.Env, capacity, free int) []jbridge.Ref {
	t.Helper()
	held := make([]jbridge.Ref, 0, capacity)
	for env.LocalCount() < capacity-free {
		r := env.NewStringUTF("held")
		if r == 0 {
			t.Fatalf("NewStringUTF failed with %d locals", env.LocalCount())
		}
		held = append(held, r)
	}
	return held
}

func TestMarshalFailure_LeavesEnvClean(t *testing.T) {
	const capacity = 8

	tests := []struct {
		name string
		free int
		op   func(e *Engine, r receivers) error
	}{
		{
			name: "second string argument",
			free: 1,
			op: func(e *Engine, _ receivers) error {
				return CallStaticVoid(e, pairClass, "join", marshal.String.Arg("a"), marshal.String.Arg("b"))
			},
		},
		{
			name: "string array element",
			free: 2,
			op: func(e *Engine, _ receivers) error {
				_, err := CallStatic(e, javalib.EchoClass, "echoStrings", marshal.Strings, marshal.Strings.Arg([]string{"a", "b"}))
				return err
			},
		},
		{
			name: "instance method argument",
			free: 0,
			op: func(e *Engine, r receivers) error {
				return CallVoid(e, r.pair, "accept", marshal.String.Arg("a"))
			},
		},
		{
			name: "constructor argument",
			free: 0,
			op: func(e *Engine, _ receivers) error {
				h, err := New(e, javalib.HolderClass, marshal.String.Arg("a"))
				if err == nil {
					return e.Release(h)
				}
				return err
			},
		},
		{
			name: "static field",
			free: 0,
			op: func(e *Engine, _ receivers) error {
				return SetStaticField(e, javalib.HolderClass, "label", marshal.String.Arg("a"))
			},
		},
		{
			name: "instance field",
			free: 0,
			op: func(e *Engine, r receivers) error {
				return SetField(e, r.holder, "name", marshal.String.Arg("a"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, err := memvm.New(
				memvm.WithLibrary(javalib.New()),
				memvm.WithClasses(pairDef),
				memvm.WithLocalCapacity(capacity),
			)
			if err != nil {
				t.Fatalf("memvm.New failed: %v", err)
			}
			env := vm.Attach()
			e := NewEngine(env)
			defer func() {
				if leaked := e.Close(); leaked != 0 {
					t.Errorf("Close reported %d leaked handles", leaked)
				}
				env.Detach()
			}()

			h, err := New(e, javalib.HolderClass, marshal.String.Arg("holder"))
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			p, err := New(e, pairClass)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			r := receivers{
				holder: object{typ: javalib.HolderClass, h: h},
				pair:   object{typ: pairClass, h: p},
			}
			defer func() {
				for _, h := range []ref.Handle{h, p} {
					if err := e.Release(h); err != nil {
						t.Errorf("Release failed: %v", err)
					}
				}
			}()

			if _, err := CallStatic(e, javalib.EchoClass, "add", marshal.Int, marshal.Int.Arg(1), marshal.Int.Arg(2)); err != nil {
				t.Fatalf("add failed: %v", err)
			}
			if err := tt.op(e, r); err != nil {
				t.Fatalf("operation with room failed: %v", err)
			}

			held := fillLocals(t, env, capacity, tt.free)
			err = tt.op(e, r)
			if !errors.IsKind(err, errors.KindReference) {
				t.Fatalf("operation with full table = %v, want reference error", err)
			}
			if p := env.Pending(); p != nil {
				t.Fatalf("exception pending after failed operation: %v", p)
			}
			if got := env.LocalCount(); got != len(held) {
				t.Fatalf("LocalCount = %d, want %d", got, len(held))
			}
			for _, l := range held {
				env.DeleteLocalRef(l)
			}

			sum, err := CallStatic(e, javalib.EchoClass, "add", marshal.Int, marshal.Int.Arg(1), marshal.Int.Arg(2))
			if err != nil {
				t.Fatalf("add after failed operation: %v", err)
			}
			if sum != 3 {
				t.Errorf("add(1, 2) = %d, want 3", sum)
			}
			if p := env.Pending(); p != nil {
				t.Errorf("exception pending after add: %v", p)
			}
			if got := env.LocalCount(); got != 0 {
				t.Errorf("LocalCount = %d, want 0", got)
			}
		})
	}
}

func TestFork_ReleaseUsesOwnEnv(t *testing.T) {
	e, vm, _ := newTestEngine(t)

	other := vm.Attach()
	defer other.Detach()
	fe := e.Fork(other)

	h, err := New(fe, javalib.HolderClass, marshal.String.Arg("forked"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	same, err := New(fe, javalib.HolderClass, marshal.String.Arg("forked"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if fe.IsSameObject(h, same) {
		t.Error("distinct instances reported as the same object")
	}
	if !fe.IsSameObject(h, h) {
		t.Error("handle not the same object as itself")
	}
	if err := fe.Release(same); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := fe.Release(h); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if e.Refs().Valid(h) {
		t.Error("released handle still resolves")
	}
	if got := other.LocalCount(); got != 0 {
		t.Errorf("forked env LocalCount = %d, want 0", got)
	}
}
