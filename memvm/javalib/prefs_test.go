package javalib

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

const (
	strSig    = "Ljava/lang/String;"
	editorSig = "Landroid/content/SharedPreferences$Editor;"
)

func (r *rt) prefs(name string) jbridge.Ref {
	r.t.Helper()
	at := r.static(ActivityThreadName, "currentActivityThread", "()Landroid/app/ActivityThread;", jbridge.KindObject)
	app := r.call(at.Ref(), "getApplication", "()Landroid/app/Application;", jbridge.KindObject)
	p := r.call(app.Ref(), "getSharedPreferences", "("+strSig+"I)Landroid/content/SharedPreferences;",
		jbridge.KindObject, r.str(name), jbridge.Int(0))
	r.check()
	return p.Ref()
}

var prefsStores = map[string]func(t *testing.T) PrefsStore{
	"memory": func(*testing.T) PrefsStore {
		return NewMemoryPrefs()
	},
	"sqlite": func(t *testing.T) PrefsStore {
		s, err := OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"))
		if err != nil {
			t.Fatalf("OpenSQLite failed: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func TestPrefs_RoundTrip(t *testing.T) {
	for name, open := range prefsStores {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			r := newRT(t, New(WithPreferences(store)))
			p := r.prefs("settings")

			ed := r.call(p, "edit", "()"+editorSig, jbridge.KindObject).Ref()
			r.call(ed, "putString", "("+strSig+strSig+")"+editorSig, jbridge.KindObject, r.str("name"), r.str("ada"))
			r.call(ed, "putBoolean", "("+strSig+"Z)"+editorSig, jbridge.KindObject, r.str("on"), jbridge.Boolean(true))
			r.call(ed, "putInt", "("+strSig+"I)"+editorSig, jbridge.KindObject, r.str("n"), jbridge.Int(-7))
			r.call(ed, "putLong", "("+strSig+"J)"+editorSig, jbridge.KindObject, r.str("big"), jbridge.Long(1<<40))
			r.call(ed, "apply", "()V", jbridge.KindVoid)
			r.check()

			if got := r.text(r.call(p, "getString", "("+strSig+strSig+")"+strSig, jbridge.KindObject, r.str("name"), jbridge.Null)); got != "ada" {
				t.Errorf("getString = %q", got)
			}
			if got := r.call(p, "getBoolean", "("+strSig+"Z)Z", jbridge.KindBoolean, r.str("on"), jbridge.Boolean(false)); !got.Boolean() {
				t.Error("getBoolean = false")
			}
			if got := r.call(p, "getInt", "("+strSig+"I)I", jbridge.KindInt, r.str("n"), jbridge.Int(0)); got.Int() != -7 {
				t.Errorf("getInt = %d", got.Int())
			}
			if got := r.call(p, "getLong", "("+strSig+"J)J", jbridge.KindLong, r.str("big"), jbridge.Long(0)); got.Long() != 1<<40 {
				t.Errorf("getLong = %d", got.Long())
			}
			r.check()

			loaded, err := store.Load("settings")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			want := map[string]any{"name": "ada", "on": true, "n": int32(-7), "big": int64(1 << 40)}
			if diff := cmp.Diff(want, loaded); diff != "" {
				t.Errorf("persisted preferences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrefs_DefaultsAndRemoval(t *testing.T) {
	r := newRT(t, New())
	p := r.prefs("defaults")

	absent := r.call(p, "getString", "("+strSig+strSig+")"+strSig, jbridge.KindObject, r.str("missing"), jbridge.Null)
	r.check()
	if !absent.IsNull() {
		t.Fatal("Expected null for absent key with null default")
	}
	def := r.call(p, "getString", "("+strSig+strSig+")"+strSig, jbridge.KindObject, r.str("missing"), r.str("fallback"))
	if got := r.text(def); got != "fallback" {
		t.Fatalf("getString default = %q", got)
	}
	if got := r.call(p, "getInt", "("+strSig+"I)I", jbridge.KindInt, r.str("missing"), jbridge.Int(42)); got.Int() != 42 {
		t.Fatalf("getInt default = %d", got.Int())
	}

	ed := r.call(p, "edit", "()"+editorSig, jbridge.KindObject).Ref()
	r.call(ed, "putString", "("+strSig+strSig+")"+editorSig, jbridge.KindObject, r.str("k"), r.str("v"))
	r.call(ed, "apply", "()V", jbridge.KindVoid)
	if got := r.call(p, "contains", "("+strSig+")Z", jbridge.KindBoolean, r.str("k")); !got.Boolean() {
		t.Fatal("Expected key to be present")
	}

	// A null string value removes the key.
	r.call(ed, "putString", "("+strSig+strSig+")"+editorSig, jbridge.KindObject, r.str("k"), jbridge.Null)
	ok := r.call(ed, "commit", "()Z", jbridge.KindBoolean)
	r.check()
	if !ok.Boolean() {
		t.Fatal("commit failed")
	}
	if got := r.call(p, "contains", "("+strSig+")Z", jbridge.KindBoolean, r.str("k")); got.Boolean() {
		t.Fatal("Expected key to be removed")
	}
}

func TestPrefs_TypeMismatch(t *testing.T) {
	r := newRT(t, New())
	p := r.prefs("mixed")

	ed := r.call(p, "edit", "()"+editorSig, jbridge.KindObject).Ref()
	r.call(ed, "putString", "("+strSig+strSig+")"+editorSig, jbridge.KindObject, r.str("k"), r.str("v"))
	r.call(ed, "apply", "()V", jbridge.KindVoid)
	r.check()

	r.call(p, "getInt", "("+strSig+"I)I", jbridge.KindInt, r.str("k"), jbridge.Int(0))
	r.expect(memvm.ClassCastException)
}

func TestPrefs_SharedAcrossInstances(t *testing.T) {
	store := NewMemoryPrefs()
	r := newRT(t, New(WithPreferences(store)))

	a := r.prefs("shared")
	b := r.prefs("shared")
	if r.env.IsSameObject(a, b) {
		t.Fatal("Expected distinct SharedPreferences objects")
	}
	ed := r.call(a, "edit", "()"+editorSig, jbridge.KindObject).Ref()
	r.call(ed, "putInt", "("+strSig+"I)"+editorSig, jbridge.KindObject, r.str("n"), jbridge.Int(5))
	r.call(ed, "apply", "()V", jbridge.KindVoid)
	if got := r.call(b, "getInt", "("+strSig+"I)I", jbridge.KindInt, r.str("n"), jbridge.Int(0)); got.Int() != 5 {
		t.Fatalf("getInt through second instance = %d", got.Int())
	}

	// A fresh library over the same store sees persisted values.
	r2 := newRT(t, New(WithPreferences(store)))
	c := r2.prefs("shared")
	if got := r2.call(c, "getInt", "("+strSig+"I)I", jbridge.KindInt, r2.str("n"), jbridge.Int(0)); got.Int() != 5 {
		t.Fatalf("getInt after reload = %d", got.Int())
	}
}
