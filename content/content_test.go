package content

import (
	"path/filepath"
	"testing"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
)

func newTestEngine(t *testing.T, opts ...javalib.Option) *invoke.Engine {
	t.Helper()
	vm, err := memvm.New(memvm.WithLibrary(javalib.New(opts...)))
	if err != nil {
		t.Fatalf("memvm.New failed: %v", err)
	}
	env := vm.Attach()
	e := invoke.NewEngine(env)
	t.Cleanup(func() {
		if leaks := e.Close(); leaks != 0 {
			t.Errorf("engine closed with %d leaked handles", leaks)
		}
		env.Detach()
	})
	return e
}

func currentContext(t *testing.T, e *invoke.Engine) Context {
	t.Helper()
	ctx, err := CurrentContext(e)
	if err != nil {
		t.Fatalf("CurrentContext failed: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

func openPrefs(t *testing.T, ctx Context, name string) SharedPreferences {
	t.Helper()
	p, err := ctx.SharedPreferences(name, ModePrivate)
	if err != nil {
		t.Fatalf("SharedPreferences(%s) failed: %v", name, err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func edit(t *testing.T, p SharedPreferences, fn func(ed Editor) error) {
	t.Helper()
	ed, err := p.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	defer ed.Close()
	if err := fn(ed); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if err := ed.Apply(); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func TestCurrentContext(t *testing.T) {
	e := newTestEngine(t, javalib.WithPackageName("org.example.app"))

	ctx := currentContext(t, e)
	name, err := ctx.PackageName()
	if err != nil {
		t.Fatalf("PackageName failed: %v", err)
	}
	if name != "org.example.app" {
		t.Errorf("PackageName() = %q", name)
	}

	again, err := CurrentContext(e)
	if err != nil {
		t.Fatalf("second CurrentContext failed: %v", err)
	}
	defer again.Close()
	if !again.IsSameObject(ctx.Object) {
		t.Error("CurrentContext returned a different context")
	}
}

func TestSharedPreferences_Values(t *testing.T) {
	e := newTestEngine(t)
	p := openPrefs(t, currentContext(t, e), "values")

	edit(t, p, func(ed Editor) error {
		if err := ed.PutString("name", "jbridge"); err != nil {
			return err
		}
		if err := ed.PutBool("enabled", true); err != nil {
			return err
		}
		if err := ed.PutInt("count", -7); err != nil {
			return err
		}
		return ed.PutLong("big", 1<<40)
	})

	if s, err := p.GetString("name", nil); err != nil || s == nil || *s != "jbridge" {
		t.Errorf("GetString(name) = %v, %v", s, err)
	}
	if b, err := p.GetBool("enabled", false); err != nil || !b {
		t.Errorf("GetBool(enabled) = %v, %v", b, err)
	}
	if n, err := p.GetInt("count", 0); err != nil || n != -7 {
		t.Errorf("GetInt(count) = %d, %v", n, err)
	}
	if n, err := p.GetLong("big", 0); err != nil || n != 1<<40 {
		t.Errorf("GetLong(big) = %d, %v", n, err)
	}
	if ok, err := p.Contains("count"); err != nil || !ok {
		t.Errorf("Contains(count) = %v, %v", ok, err)
	}
}

func TestSharedPreferences_Defaults(t *testing.T) {
	e := newTestEngine(t)
	p := openPrefs(t, currentContext(t, e), "defaults")

	if s, err := p.GetString("missing", nil); err != nil || s != nil {
		t.Errorf("GetString(missing, nil) = %v, %v; want nil", s, err)
	}
	def := "fallback"
	if s, err := p.GetString("missing", &def); err != nil || s == nil || *s != def {
		t.Errorf("GetString(missing, %q) = %v, %v", def, s, err)
	}
	if b, _ := p.GetBool("missing", true); !b {
		t.Error("GetBool default not returned")
	}
	if n, _ := p.GetInt("missing", 42); n != 42 {
		t.Errorf("GetInt default = %d", n)
	}
	if n, _ := p.GetLong("missing", -1); n != -1 {
		t.Errorf("GetLong default = %d", n)
	}

	edit(t, p, func(ed Editor) error { return ed.PutString("gone", "x") })
	edit(t, p, func(ed Editor) error { return ed.Remove("gone") })
	if ok, _ := p.Contains("gone"); ok {
		t.Error("removed key still present")
	}
}

func TestSharedPreferences_TypeMismatch(t *testing.T) {
	e := newTestEngine(t)
	p := openPrefs(t, currentContext(t, e), "types")

	edit(t, p, func(ed Editor) error { return ed.PutInt("n", 1) })

	_, err := p.GetString("n", nil)
	var be *errors.Error
	if !errors.As(err, &be) || be.Exception != "java.lang.ClassCastException" {
		t.Fatalf("GetString on int = %v, want ClassCastException", err)
	}
	if _, err := p.GetBool("n", false); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("GetBool on int = %v, want runtime exception", err)
	}
}

func TestEditor_ClearAndCommit(t *testing.T) {
	e := newTestEngine(t)
	p := openPrefs(t, currentContext(t, e), "clear")

	edit(t, p, func(ed Editor) error {
		if err := ed.PutInt("a", 1); err != nil {
			return err
		}
		return ed.PutInt("b", 2)
	})

	ed, err := p.Edit()
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	defer ed.Close()
	if err := ed.PutInt("c", 3); err != nil {
		t.Fatalf("PutInt failed: %v", err)
	}
	if err := ed.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	ok, err := ed.Commit()
	if err != nil || !ok {
		t.Fatalf("Commit() = %v, %v", ok, err)
	}

	for key, want := range map[string]bool{"a": false, "b": false, "c": true} {
		if got, _ := p.Contains(key); got != want {
			t.Errorf("Contains(%s) = %v, want %v", key, got, want)
		}
	}
}

func TestSharedPreferences_SQLitePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")

	write := func() {
		store, err := javalib.OpenSQLite(path)
		if err != nil {
			t.Fatalf("OpenSQLite failed: %v", err)
		}
		defer store.Close()
		e := newTestEngine(t, javalib.WithPreferences(store))
		ctx, err := CurrentContext(e)
		if err != nil {
			t.Fatalf("CurrentContext failed: %v", err)
		}
		defer ctx.Close()
		p, err := ctx.SharedPreferences("persisted", ModePrivate)
		if err != nil {
			t.Fatalf("SharedPreferences failed: %v", err)
		}
		defer p.Close()
		edit(t, p, func(ed Editor) error { return ed.PutString("token", "abc") })
	}
	write()

	store, err := javalib.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer store.Close()
	e := newTestEngine(t, javalib.WithPreferences(store))
	p := openPrefs(t, currentContext(t, e), "persisted")
	if s, err := p.GetString("token", nil); err != nil || s == nil || *s != "abc" {
		t.Errorf("GetString(token) after reopen = %v, %v", s, err)
	}
}
