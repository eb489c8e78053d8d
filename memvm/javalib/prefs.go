package javalib

import (
	"fmt"
	"sync"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Class names defined by this file.
const (
	SharedPreferencesClass = "android/content/SharedPreferences"
	EditorClass            = "android/content/SharedPreferences$Editor"
	prefsImplClass         = "android/app/SharedPreferencesImpl"
	editorImplClass        = "android/app/SharedPreferencesImpl$EditorImpl"
)

type prefsFile struct {
	store  PrefsStore
	values map[string]any
	name   string
	mu     sync.Mutex
}

type prefsEditor struct {
	file  *prefsFile
	edits []Edit
	clear bool
	mu    sync.Mutex
}

func (f *prefsFile) get(key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *prefsFile) commit(clear bool, edits []Edit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.store.Apply(f.name, clear, edits); err != nil {
		return err
	}
	if clear {
		f.values = make(map[string]any)
	}
	for _, e := range edits {
		if e.Remove {
			delete(f.values, e.Key)
			continue
		}
		f.values[e.Key] = e.Value
	}
	return nil
}

func (l *Library) prefsFile(name string) (*prefsFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.files[name]; ok {
		return f, nil
	}
	values, err := l.prefs.Load(name)
	if err != nil {
		return nil, err
	}
	f := &prefsFile{store: l.prefs, name: name, values: values}
	l.files[name] = f
	return f, nil
}

func (l *Library) getSharedPreferences(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	name, ok := env.Str(args[0])
	if !ok {
		name = "null"
	}
	f, err := l.prefsFile(name)
	if err != nil {
		return jbridge.Null, memvm.Throw(memvm.RuntimeException, err.Error())
	}
	o, err := env.New(prefsImplClass)
	if err != nil {
		return jbridge.Null, err
	}
	o.Native = f
	return env.Value(o), nil
}

// getter builds a SharedPreferences getter for values of type T.
func getter[T any](javaType string, box func(T) jbridge.Value) memvm.Method {
	return func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
		key, ok := env.Str(args[0])
		if !ok {
			key = "null"
		}
		v, present := this.Native.(*prefsFile).get(key)
		if !present {
			return args[1], nil
		}
		t, ok := v.(T)
		if !ok {
			return jbridge.Void, memvm.Throwf(memvm.ClassCastException,
				"%s cannot be cast to %s", javaTypeOf(v), javaType)
		}
		return box(t), nil
	}
}

func javaTypeOf(v any) string {
	switch v.(type) {
	case string:
		return "java.lang.String"
	case bool:
		return "java.lang.Boolean"
	case int32:
		return "java.lang.Integer"
	case int64:
		return "java.lang.Long"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func getString(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	key, ok := env.Str(args[0])
	if !ok {
		key = "null"
	}
	v, present := this.Native.(*prefsFile).get(key)
	if !present {
		return env.Value(env.Object(args[1])), nil
	}
	s, ok := v.(string)
	if !ok {
		return jbridge.Null, memvm.Throwf(memvm.ClassCastException,
			"%s cannot be cast to java.lang.String", javaTypeOf(v))
	}
	return env.RetString(s), nil
}

// put builds an Editor put method storing values of one type.
func put(decode func(env *memvm.Env, v jbridge.Value) (any, bool)) memvm.Method {
	return func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
		key, ok := env.Str(args[0])
		if !ok {
			key = "null"
		}
		ed := this.Native.(*prefsEditor)
		v, present := decode(env, args[1])
		ed.mu.Lock()
		if present {
			ed.edits = append(ed.edits, Edit{Key: key, Value: v})
		} else {
			ed.edits = append(ed.edits, Edit{Key: key, Remove: true})
		}
		ed.mu.Unlock()
		return env.Value(this), nil
	}
}

func (ed *prefsEditor) take() (bool, []Edit) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	clear, edits := ed.clear, ed.edits
	ed.clear, ed.edits = false, nil
	return clear, edits
}

func (l *Library) prefsClasses() []memvm.ClassDef {
	const (
		str    = "Ljava/lang/String;"
		editor = "Landroid/content/SharedPreferences$Editor;"
	)
	return []memvm.ClassDef{
		{
			Name:      SharedPreferencesClass,
			Interface: true,
			Methods: []memvm.MethodDef{
				abstract("contains", "("+str+")Z"),
				abstract("getString", "("+str+str+")"+str),
				abstract("getBoolean", "("+str+"Z)Z"),
				abstract("getInt", "("+str+"I)I"),
				abstract("getLong", "("+str+"J)J"),
				abstract("edit", "()"+editor),
			},
		},
		{
			Name:      EditorClass,
			Interface: true,
			Methods: []memvm.MethodDef{
				abstract("putString", "("+str+str+")"+editor),
				abstract("putBoolean", "("+str+"Z)"+editor),
				abstract("putInt", "("+str+"I)"+editor),
				abstract("putLong", "("+str+"J)"+editor),
				abstract("remove", "("+str+")"+editor),
				abstract("clear", "()"+editor),
				abstract("apply", "()V"),
				abstract("commit", "()Z"),
			},
		},
		{
			Name:       prefsImplClass,
			Interfaces: []string{SharedPreferencesClass},
			Methods: []memvm.MethodDef{
				method("contains", "("+str+")Z", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					key, _ := env.Str(args[0])
					_, ok := this.Native.(*prefsFile).get(key)
					return jbridge.Boolean(ok), nil
				}),
				method("getString", "("+str+str+")"+str, getString),
				method("getBoolean", "("+str+"Z)Z", getter("java.lang.Boolean", jbridge.Boolean)),
				method("getInt", "("+str+"I)I", getter("java.lang.Integer", jbridge.Int)),
				method("getLong", "("+str+"J)J", getter("java.lang.Long", jbridge.Long)),
				method("edit", "()"+editor, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					o, err := env.New(editorImplClass)
					if err != nil {
						return jbridge.Null, err
					}
					o.Native = &prefsEditor{file: this.Native.(*prefsFile)}
					return env.Value(o), nil
				}),
			},
		},
		{
			Name:       editorImplClass,
			Interfaces: []string{EditorClass},
			Methods: []memvm.MethodDef{
				method("putString", "("+str+str+")"+editor, put(func(env *memvm.Env, v jbridge.Value) (any, bool) {
					s, ok := env.Str(v)
					return s, ok
				})),
				method("putBoolean", "("+str+"Z)"+editor, put(func(_ *memvm.Env, v jbridge.Value) (any, bool) {
					return v.Boolean(), true
				})),
				method("putInt", "("+str+"I)"+editor, put(func(_ *memvm.Env, v jbridge.Value) (any, bool) {
					return v.Int(), true
				})),
				method("putLong", "("+str+"J)"+editor, put(func(_ *memvm.Env, v jbridge.Value) (any, bool) {
					return v.Long(), true
				})),
				method("remove", "("+str+")"+editor, func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					key, _ := env.Str(args[0])
					ed := this.Native.(*prefsEditor)
					ed.mu.Lock()
					ed.edits = append(ed.edits, Edit{Key: key, Remove: true})
					ed.mu.Unlock()
					return env.Value(this), nil
				}),
				method("clear", "()"+editor, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					ed := this.Native.(*prefsEditor)
					ed.mu.Lock()
					ed.clear = true
					ed.mu.Unlock()
					return env.Value(this), nil
				}),
				method("apply", "()V", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					ed := this.Native.(*prefsEditor)
					clear, edits := ed.take()
					if err := ed.file.commit(clear, edits); err != nil {
						return jbridge.Void, memvm.Throw(memvm.RuntimeException, err.Error())
					}
					return jbridge.Void, nil
				}),
				method("commit", "()Z", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					ed := this.Native.(*prefsEditor)
					clear, edits := ed.take()
					return jbridge.Boolean(ed.file.commit(clear, edits) == nil), nil
				}),
			},
		},
	}
}
