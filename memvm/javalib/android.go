package javalib

import (
	"fmt"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Class names defined by this file.
const (
	PointClass         = "android/graphics/Point"
	VersionClass       = "android/os/Build$VERSION"
	ActivityThreadName = "android/app/ActivityThread"
	ApplicationClass   = "android/app/Application"
	ContextClass       = "android/content/Context"
)

func (l *Library) androidClasses() []memvm.ClassDef {
	return []memvm.ClassDef{
		{
			Name: PointClass,
			Fields: []memvm.FieldDef{
				{Name: "x", Type: "I"},
				{Name: "y", Type: "I"},
			},
			Methods: []memvm.MethodDef{
				method("<init>", "()V", func(*memvm.Env, *memvm.Object, []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Void, nil
				}),
				method("<init>", "(II)V", pointSet),
				method("set", "(II)V", pointSet),
				method("offset", "(II)V", func(_ *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					this.SetPrim("x", jbridge.Int(this.Prim("x").Int()+args[0].Int()))
					this.SetPrim("y", jbridge.Int(this.Prim("y").Int()+args[1].Int()))
					return jbridge.Void, nil
				}),
				method("equals", "(II)Z", func(_ *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Boolean(this.Prim("x").Int() == args[0].Int() &&
						this.Prim("y").Int() == args[1].Int()), nil
				}),
				method("toString", "()Ljava/lang/String;", func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(fmt.Sprintf("Point(%d, %d)", this.Prim("x").Int(), this.Prim("y").Int())), nil
				}),
			},
		},
		{
			Name: VersionClass,
			Fields: []memvm.FieldDef{
				{Name: "SDK_INT", Type: "I", Static: true, Final: true, Value: jbridge.Int(l.sdk)},
			},
		},
		{
			Name:     ContextClass,
			Abstract: true,
			Fields: []memvm.FieldDef{
				{Name: "MODE_PRIVATE", Type: "I", Static: true, Final: true, Value: jbridge.Int(0)},
			},
			Methods: []memvm.MethodDef{
				abstract("getApplicationContext", "()Landroid/content/Context;"),
				abstract("getPackageName", "()Ljava/lang/String;"),
				abstract("getSharedPreferences", "(Ljava/lang/String;I)Landroid/content/SharedPreferences;"),
			},
		},
		{
			Name:  ApplicationClass,
			Super: ContextClass,
			Methods: []memvm.MethodDef{
				method("getApplicationContext", "()Landroid/content/Context;", returnThis),
				method("getPackageName", "()Ljava/lang/String;", func(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(l.packageName), nil
				}),
				method("getSharedPreferences", "(Ljava/lang/String;I)Landroid/content/SharedPreferences;", l.getSharedPreferences),
			},
		},
		{
			Name: ActivityThreadName,
			Fields: []memvm.FieldDef{
				{Name: "sCurrentActivityThread", Type: "Landroid/app/ActivityThread;", Static: true, Private: true},
				{Name: "mInitialApplication", Type: "Landroid/app/Application;", Private: true},
			},
			Methods: []memvm.MethodDef{
				static("currentActivityThread", "()Landroid/app/ActivityThread;", l.currentActivityThread),
				method("getApplication", "()Landroid/app/Application;", func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this.Ref("mInitialApplication")), nil
				}),
			},
		},
	}
}

func pointSet(_ *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	this.SetPrim("x", args[0])
	this.SetPrim("y", args[1])
	return jbridge.Void, nil
}

// currentActivityThread creates the activity thread and its application on
// first use.
func (l *Library) currentActivityThread(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, err := env.StaticRef(ActivityThreadName, "sCurrentActivityThread")
	if err != nil {
		return jbridge.Null, err
	}
	if at == nil {
		if at, err = env.New(ActivityThreadName); err != nil {
			return jbridge.Null, err
		}
		app, err := env.New(ApplicationClass)
		if err != nil {
			return jbridge.Null, err
		}
		at.SetRef("mInitialApplication", app)
		if err := env.SetStaticRef(ActivityThreadName, "sCurrentActivityThread", at); err != nil {
			return jbridge.Null, err
		}
	}
	return env.Value(at), nil
}
