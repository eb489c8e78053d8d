package javalib

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Defaults reported by the library.
const (
	DefaultPackageName = "dev.wippy.jbridge"
	DefaultSDK         = 34
	DefaultKeySize     = 2048
)

// Library is a memvm.Library.
type Library struct {
	prefs       PrefsStore
	keys        KeyStoreBackend
	rand        io.Reader
	files       map[string]*prefsFile
	packageName string
	sdk         int32
	mu          sync.Mutex
}

// Option configures a Library.
type Option func(*Library)

// WithPreferences sets the SharedPreferences store.
func WithPreferences(s PrefsStore) Option {
	return func(l *Library) { l.prefs = s }
}

// WithKeyStore sets the backend of the AndroidKeyStore key store.
func WithKeyStore(b KeyStoreBackend) Option {
	return func(l *Library) { l.keys = b }
}

// WithPackageName sets the name Context.getPackageName reports.
func WithPackageName(name string) Option {
	return func(l *Library) { l.packageName = name }
}

// WithSDK sets android.os.Build.VERSION.SDK_INT.
func WithSDK(level int32) Option {
	return func(l *Library) { l.sdk = level }
}

// WithRandom sets the entropy source for key generation and padding.
func WithRandom(r io.Reader) Option {
	return func(l *Library) { l.rand = r }
}

// New creates a library with in-memory stores unless configured otherwise.
func New(opts ...Option) *Library {
	l := &Library{
		files:       make(map[string]*prefsFile),
		packageName: DefaultPackageName,
		sdk:         DefaultSDK,
		rand:        rand.Reader,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.prefs == nil {
		l.prefs = NewMemoryPrefs()
	}
	if l.keys == nil {
		l.keys = NewMemoryKeyStore()
	}
	return l
}

// Classes implements memvm.Library.
func (l *Library) Classes() []memvm.ClassDef {
	var defs []memvm.ClassDef
	defs = append(defs, l.androidClasses()...)
	defs = append(defs, l.prefsClasses()...)
	defs = append(defs, l.securityClasses()...)
	defs = append(defs, l.cipherClasses()...)
	defs = append(defs, diagClasses()...)
	return defs
}

func method(name, signature string, fn memvm.Method) memvm.MethodDef {
	return memvm.MethodDef{Name: name, Sig: signature, Fn: fn}
}

func static(name, signature string, fn memvm.Method) memvm.MethodDef {
	return memvm.MethodDef{Name: name, Sig: signature, Fn: fn, Static: true}
}

func abstract(name, signature string) memvm.MethodDef {
	return memvm.MethodDef{Name: name, Sig: signature}
}

func returnThis(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
	return env.Value(this), nil
}

// nonNullString resolves a String argument, raising NullPointerException
// for null.
func nonNullString(env *memvm.Env, v jbridge.Value, what string) (string, error) {
	s, ok := env.Str(v)
	if !ok {
		return "", memvm.Throw(memvm.NullPointerException, what+" == null")
	}
	return s, nil
}
