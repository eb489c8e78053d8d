package content

import (
	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

// SharedPreferences is an android/content/SharedPreferences.
type SharedPreferences struct{ binding.Object }

// Editor is a SharedPreferences$Editor. Changes are buffered until Apply
// or Commit.
type Editor struct{ binding.Object }

var (
	prefsDecoder  = binding.Decoder(SharedPreferencesClass, func(o binding.Object) SharedPreferences { return SharedPreferences{o} })
	editorDecoder = binding.Decoder(EditorClass, func(o binding.Object) Editor { return Editor{o} })
)

// Edit starts a set of changes.
func (p SharedPreferences) Edit() (Editor, error) {
	return invoke.Call(p.Engine(), p, "edit", editorDecoder)
}

// Contains reports whether key has a value.
func (p SharedPreferences) Contains(key string) (bool, error) {
	return invoke.Call(p.Engine(), p, "contains", marshal.Boolean, marshal.String.Arg(key))
}

// GetString returns the string under key, or def when there is none. A nil
// result means the key is absent and def was nil.
func (p SharedPreferences) GetString(key string, def *string) (*string, error) {
	return invoke.Call(p.Engine(), p, "getString", marshal.NullableString,
		marshal.String.Arg(key), marshal.NullableString.Arg(def))
}

// GetBool returns the boolean under key, or def when there is none.
func (p SharedPreferences) GetBool(key string, def bool) (bool, error) {
	return invoke.Call(p.Engine(), p, "getBoolean", marshal.Boolean,
		marshal.String.Arg(key), marshal.Boolean.Arg(def))
}

// GetInt returns the int under key, or def when there is none.
func (p SharedPreferences) GetInt(key string, def int32) (int32, error) {
	return invoke.Call(p.Engine(), p, "getInt", marshal.Int,
		marshal.String.Arg(key), marshal.Int.Arg(def))
}

// GetLong returns the long under key, or def when there is none.
func (p SharedPreferences) GetLong(key string, def int64) (int64, error) {
	return invoke.Call(p.Engine(), p, "getLong", marshal.Long,
		marshal.String.Arg(key), marshal.Long.Arg(def))
}

// chain calls a setter returning the editor and drops the returned
// reference.
func (ed Editor) chain(name string, args ...marshal.Arg) error {
	self, err := invoke.Call(ed.Engine(), ed, name, editorDecoder, args...)
	if err != nil {
		return err
	}
	return self.Close()
}

// PutString sets key to a string.
func (ed Editor) PutString(key, value string) error {
	return ed.chain("putString", marshal.String.Arg(key), marshal.String.Arg(value))
}

// PutBool sets key to a boolean.
func (ed Editor) PutBool(key string, value bool) error {
	return ed.chain("putBoolean", marshal.String.Arg(key), marshal.Boolean.Arg(value))
}

// PutInt sets key to an int.
func (ed Editor) PutInt(key string, value int32) error {
	return ed.chain("putInt", marshal.String.Arg(key), marshal.Int.Arg(value))
}

// PutLong sets key to a long.
func (ed Editor) PutLong(key string, value int64) error {
	return ed.chain("putLong", marshal.String.Arg(key), marshal.Long.Arg(value))
}

// Remove deletes key.
func (ed Editor) Remove(key string) error {
	return ed.chain("remove", marshal.String.Arg(key))
}

// Clear deletes every key. Puts in the same edit are applied after the
// clear.
func (ed Editor) Clear() error {
	return ed.chain("clear")
}

// Apply writes the changes.
func (ed Editor) Apply() error {
	return invoke.CallVoid(ed.Engine(), ed, "apply")
}

// Commit writes the changes and reports whether they were persisted.
func (ed Editor) Commit() (bool, error) {
	return invoke.Call(ed.Engine(), ed, "commit", marshal.Boolean)
}
