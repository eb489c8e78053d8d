package javalib

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Diagnostic classes used by tests and bridgectl scenarios.
const (
	EchoClass   = "jbridge/diag/Echo"
	HolderClass = "jbridge/diag/Holder"
)

func echo(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	return env.Value(env.Object(args[0])), nil
}

func diagClasses() []memvm.ClassDef {
	return []memvm.ClassDef{
		{
			Name: EchoClass,
			Methods: []memvm.MethodDef{
				static("echo", "([B)[B", echo),
				static("echoChars", "([C)[C", echo),
				static("echoStrings", "([Ljava/lang/String;)[Ljava/lang/String;", echo),
				static("echoString", "(Ljava/lang/String;)Ljava/lang/String;", echo),
				static("identity", "(Ljava/lang/Object;)Ljava/lang/Object;", echo),
				static("copy", "([B)[B", func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					b := env.Object(args[0])
					if b == nil {
						return jbridge.Null, nil
					}
					return env.Value(env.NewBytes(b.Bytes())), nil
				}),
				static("length", "([B)I", func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					b := env.Object(args[0])
					if b == nil {
						return jbridge.Int(-1), nil
					}
					return jbridge.Int(int32(b.Len())), nil
				}),
				static("add", "(II)I", func(_ *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(args[0].Int() + args[1].Int()), nil
				}),
				static("negate", "(J)J", func(_ *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Long(-args[0].Long()), nil
				}),
				static("fail", "(Ljava/lang/String;)V", func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					msg, _ := env.Str(args[0])
					return jbridge.Void, memvm.Throw(memvm.IllegalStateException, msg)
				}),
			},
		},
		{
			Name: HolderClass,
			Fields: []memvm.FieldDef{
				{Name: "flag", Type: "Z"},
				{Name: "b", Type: "B"},
				{Name: "c", Type: "C"},
				{Name: "s", Type: "S"},
				{Name: "i", Type: "I"},
				{Name: "j", Type: "J"},
				{Name: "f", Type: "F"},
				{Name: "d", Type: "D"},
				{Name: "name", Type: "Ljava/lang/String;"},
				{Name: "data", Type: "[B"},
				{Name: "hidden", Type: "I", Private: true},
				{Name: "counter", Type: "I", Static: true},
				{Name: "label", Type: "Ljava/lang/String;", Static: true},
				{Name: "VERSION", Type: "J", Static: true, Final: true, Value: jbridge.Long(1)},
			},
			Methods: []memvm.MethodDef{
				method("<init>", "(Ljava/lang/String;)V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					this.SetRef("name", env.Object(args[0]))
					return jbridge.Void, nil
				}),
				method("getName", "()Ljava/lang/String;", func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this.Ref("name")), nil
				}),
			},
		},
	}
}
