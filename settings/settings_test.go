package settings

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/wippyai/jbridge/content"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
)

// countingPrefs counts Apply calls reaching the backing store.
type countingPrefs struct {
	javalib.PrefsStore
	applies atomic.Int32
}

func (c *countingPrefs) Apply(file string, clear bool, edits []javalib.Edit) error {
	c.applies.Add(1)
	return c.PrefsStore.Apply(file, clear, edits)
}

func openDefaults(t *testing.T) (*Defaults, *countingPrefs) {
	t.Helper()
	store := &countingPrefs{PrefsStore: javalib.NewMemoryPrefs()}
	vm, err := memvm.New(memvm.WithLibrary(javalib.New(javalib.WithPreferences(store))))
	if err != nil {
		t.Fatalf("memvm.New failed: %v", err)
	}
	env := vm.Attach()
	e := invoke.NewEngine(env)

	ctx, err := content.CurrentContext(e)
	if err != nil {
		t.Fatalf("CurrentContext failed: %v", err)
	}
	d, err := Open(ctx)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
		ctx.Close()
		if leaks := e.Close(); leaks != 0 {
			t.Errorf("engine closed with %d leaked handles", leaks)
		}
		env.Detach()
	})
	return d, store
}

func strp(s string) *string { return &s }

func TestDefaults_StringNilAndDefault(t *testing.T) {
	d, _ := openDefaults(t)

	check := func(want *string) {
		t.Helper()
		got, err := d.String("greeting")
		if err != nil {
			t.Fatalf("String failed: %v", err)
		}
		switch {
		case want == nil && got != nil:
			t.Fatalf("String() = %q, want nil", *got)
		case want != nil && (got == nil || *got != *want):
			t.Fatalf("String() = %v, want %q", got, *want)
		}
	}

	check(nil)
	if err := d.Register(map[string]any{"greeting": "hello"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	check(strp("hello"))
	if err := d.SetString("greeting", strp("hi")); err != nil {
		t.Fatalf("SetString failed: %v", err)
	}
	check(strp("hi"))
	if err := d.SetString("greeting", nil); err != nil {
		t.Fatalf("SetString(nil) failed: %v", err)
	}
	check(strp("hello"))
	if err := d.Register(nil); err != nil {
		t.Fatalf("Register(nil) failed: %v", err)
	}
	check(nil)
}

func TestDefaults_Scalars(t *testing.T) {
	d, _ := openDefaults(t)

	if err := d.Register(map[string]any{
		"flag":  true,
		"count": 12,
		"epoch": int64(1) << 40,
		"wrong": "not a number",
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if b, err := d.Bool("flag"); err != nil || !b {
		t.Errorf("Bool(flag) default = %v, %v", b, err)
	}
	if b, _ := d.Bool("unset"); b {
		t.Error("Bool(unset) = true")
	}
	if n, err := d.Int("count"); err != nil || n != 12 {
		t.Errorf("Int(count) default = %d, %v", n, err)
	}
	if n, _ := d.Int("wrong"); n != 0 {
		t.Errorf("Int(wrong) = %d, want 0 for a non-integer default", n)
	}
	if n, err := d.Int64("epoch"); err != nil || n != 1<<40 {
		t.Errorf("Int64(epoch) default = %d, %v", n, err)
	}
	if _, err := d.Int("epoch"); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Int(epoch) = %v, want invalid input for an out of range default", err)
	}

	if err := d.SetBool("flag", false); err != nil {
		t.Fatalf("SetBool failed: %v", err)
	}
	if err := d.SetInt("count", -3); err != nil {
		t.Fatalf("SetInt failed: %v", err)
	}
	if err := d.SetInt64("epoch", math.MinInt64); err != nil {
		t.Fatalf("SetInt64 failed: %v", err)
	}
	if b, _ := d.Bool("flag"); b {
		t.Error("Bool(flag) after SetBool(false) = true")
	}
	if n, _ := d.Int("count"); n != -3 {
		t.Errorf("Int(count) = %d, want -3", n)
	}
	if n, _ := d.Int64("epoch"); n != math.MinInt64 {
		t.Errorf("Int64(epoch) = %d", n)
	}

	if err := d.SetInt("count", math.MaxInt32+1); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("SetInt(MaxInt32+1) = %v, want invalid input", err)
	}
	if err := d.Register(map[string]any{"f": 1.5}); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Register(float) = %v, want invalid input", err)
	}
	if err := d.Synchronize(); err != nil {
		t.Errorf("Synchronize failed: %v", err)
	}
}

func TestDefaults_OneApplyPerWrite(t *testing.T) {
	d, store := openDefaults(t)

	writes := []func() error{
		func() error { return d.SetString("a", strp("x")) },
		func() error { return d.SetString("a", nil) },
		func() error { return d.SetBool("b", true) },
		func() error { return d.SetInt("c", 1) },
		func() error { return d.SetInt64("d", 2) },
	}
	for i, w := range writes {
		if err := w(); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
		if got := store.applies.Load(); got != int32(i+1) {
			t.Fatalf("after write %d the store saw %d applies", i, got)
		}
	}
}
