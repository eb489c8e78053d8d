// Package content binds the Android application context and its
// SharedPreferences.
package content

import (
	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

// Runtime class names bound by this package.
const (
	ActivityThreadClass    = "android/app/ActivityThread"
	ApplicationClass       = "android/app/Application"
	ContextClass           = "android/content/Context"
	SharedPreferencesClass = "android/content/SharedPreferences"
	EditorClass            = "android/content/SharedPreferences$Editor"
)

// Mode is a Context file creation mode.
type Mode int32

// ModePrivate restricts a preferences file to the calling application.
const ModePrivate Mode = 0

// ActivityThread is the android/app/ActivityThread of the process.
type ActivityThread struct{ binding.Object }

// Application is an android/app/Application.
type Application struct{ binding.Object }

// Context is an android/content/Context.
type Context struct{ binding.Object }

var (
	activityThreadDecoder = binding.Decoder(ActivityThreadClass, func(o binding.Object) ActivityThread { return ActivityThread{o} })
	applicationDecoder    = binding.Decoder(ApplicationClass, func(o binding.Object) Application { return Application{o} })
	contextDecoder        = binding.Decoder(ContextClass, func(o binding.Object) Context { return Context{o} })
)

// CurrentActivityThread returns the activity thread of the process.
func CurrentActivityThread(e *invoke.Engine) (ActivityThread, error) {
	return invoke.CallStatic(e, ActivityThreadClass, "currentActivityThread", activityThreadDecoder)
}

// Application returns the process's initial application.
func (t ActivityThread) Application() (Application, error) {
	return invoke.Call(t.Engine(), t, "getApplication", applicationDecoder)
}

// Context returns the application context.
func (a Application) Context() (Context, error) {
	return invoke.Call(a.Engine(), a, "getApplicationContext", contextDecoder)
}

// CurrentContext walks ActivityThread, Application and application context
// and returns the context. The caller keeps it for as long as it needs it.
func CurrentContext(e *invoke.Engine) (Context, error) {
	thread, err := CurrentActivityThread(e)
	if err != nil {
		return Context{}, err
	}
	defer thread.Close()
	app, err := thread.Application()
	if err != nil {
		return Context{}, err
	}
	defer app.Close()
	return app.Context()
}

// PackageName returns the application's package name.
func (c Context) PackageName() (string, error) {
	return invoke.Call(c.Engine(), c, "getPackageName", marshal.String)
}

// SharedPreferences opens the named preferences file.
func (c Context) SharedPreferences(name string, mode Mode) (SharedPreferences, error) {
	return invoke.Call(c.Engine(), c, "getSharedPreferences", prefsDecoder,
		marshal.String.Arg(name), marshal.Int.Arg(int32(mode)))
}
