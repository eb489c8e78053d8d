// Package settings provides a string-keyed store of booleans, integers and
// strings persisted in SharedPreferences, with registered defaults.
package settings

import (
	"fmt"
	"math"
	"sync"

	"github.com/wippyai/jbridge/content"
	"github.com/wippyai/jbridge/errors"
)

// FileName is the preferences file Open uses.
const FileName = "UserDefaults"

// Defaults reads and writes settings. Every write is applied on its own.
type Defaults struct {
	prefs content.SharedPreferences
	owned bool

	mu       sync.RWMutex
	defaults map[string]any
}

// New wraps prefs. The caller keeps ownership of prefs.
func New(prefs content.SharedPreferences) *Defaults {
	return &Defaults{prefs: prefs, defaults: map[string]any{}}
}

// Open opens FileName from ctx. Close releases it.
func Open(ctx content.Context) (*Defaults, error) {
	p, err := ctx.SharedPreferences(FileName, content.ModePrivate)
	if err != nil {
		return nil, err
	}
	d := New(p)
	d.owned = true
	return d, nil
}

// Close releases preferences opened by Open.
func (d *Defaults) Close() error {
	if !d.owned {
		return nil
	}
	return d.prefs.Close()
}

// Register replaces the registered defaults. Values must be strings,
// booleans or integers.
func (d *Defaults) Register(defaults map[string]any) error {
	m := make(map[string]any, len(defaults))
	for k, v := range defaults {
		switch v.(type) {
		case string, bool, int, int32, int64:
		default:
			return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
				Member(k).
				Value(v).
				Detail("unsupported default of type %T", v).
				Build()
		}
		m[k] = v
	}
	d.mu.Lock()
	d.defaults = m
	d.mu.Unlock()
	return nil
}

func (d *Defaults) lookup(key string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.defaults[key]
	return v, ok
}

func (d *Defaults) write(fn func(ed content.Editor) error) error {
	ed, err := d.prefs.Edit()
	if err != nil {
		return err
	}
	defer ed.Close()
	if err := fn(ed); err != nil {
		return err
	}
	return ed.Apply()
}

// SetString stores value under key. A nil value removes the key.
func (d *Defaults) SetString(key string, value *string) error {
	return d.write(func(ed content.Editor) error {
		if value == nil {
			return ed.Remove(key)
		}
		return ed.PutString(key, *value)
	})
}

// SetBool stores value under key.
func (d *Defaults) SetBool(key string, value bool) error {
	return d.write(func(ed content.Editor) error { return ed.PutBool(key, value) })
}

// SetInt stores value under key. The value must fit in 32 bits.
func (d *Defaults) SetInt(key string, value int) error {
	if value < math.MinInt32 || value > math.MaxInt32 {
		return errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Member(key).
			Value(value).
			Detail("%d does not fit in an int", value).
			Build()
	}
	return d.write(func(ed content.Editor) error { return ed.PutInt(key, int32(value)) })
}

// SetInt64 stores value under key.
func (d *Defaults) SetInt64(key string, value int64) error {
	return d.write(func(ed content.Editor) error { return ed.PutLong(key, value) })
}

// String returns the string stored under key, the registered default, or
// nil when there is neither.
func (d *Defaults) String(key string) (*string, error) {
	var def *string
	if v, ok := d.lookup(key); ok {
		if s, ok := v.(string); ok {
			def = &s
		}
	}
	return d.prefs.GetString(key, def)
}

// Bool returns the boolean stored under key, the registered default, or
// false.
func (d *Defaults) Bool(key string) (bool, error) {
	def, _ := d.lookup(key)
	b, _ := def.(bool)
	return d.prefs.GetBool(key, b)
}

// Int returns the integer stored under key, the registered default, or 0.
func (d *Defaults) Int(key string) (int, error) {
	def, err := d.intDefault(key, math.MinInt32, math.MaxInt32)
	if err != nil {
		return 0, err
	}
	n, err := d.prefs.GetInt(key, int32(def))
	return int(n), err
}

// Int64 returns the long stored under key, the registered default, or 0.
func (d *Defaults) Int64(key string) (int64, error) {
	def, err := d.intDefault(key, math.MinInt64, math.MaxInt64)
	if err != nil {
		return 0, err
	}
	return d.prefs.GetLong(key, def)
}

func (d *Defaults) intDefault(key string, lo, hi int64) (int64, error) {
	v, _ := d.lookup(key)
	var n int64
	switch v := v.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	default:
		return 0, nil
	}
	if n < lo || n > hi {
		return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("default for %s out of range: %d", key, n))
	}
	return n, nil
}

// Synchronize is a no-op: every write is applied when it is made.
func (d *Defaults) Synchronize() error { return nil }
