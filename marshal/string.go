package marshal

import (
	"unicode/utf8"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/sig"
)

// NewString creates a local java/lang/String registered as a frame temporary.
func NewString(f Frame, s string) (jbridge.Ref, error) {
	if !utf8.ValidString(s) {
		return 0, errors.InvalidUTF8(errors.PhaseEncode, s)
	}
	env := f.Env()
	r := env.NewStringUTF(s)
	if r == 0 {
		env.ExceptionClear()
		return 0, errors.New(errors.PhaseEncode, errors.KindReference).
			Owner(sig.StringClass).
			Detail("runtime could not allocate string").
			Build()
	}
	f.Temp(r)
	return r, nil
}

// ReadString copies the contents of a java/lang/String.
func ReadString(f Frame, r jbridge.Ref) (string, error) {
	s := f.Env().GetStringUTFChars(r)
	if !utf8.ValidString(s) {
		return "", errors.InvalidUTF8(errors.PhaseDecode, s)
	}
	return s, nil
}

// String converts Go strings to java/lang/String. A null result decodes to
// the empty string; use NullableString to tell the two apart.
var String = NewCodec(sig.Object(sig.StringClass),
	func(f Frame, s string) (jbridge.Value, error) {
		r, err := NewString(f, s)
		if err != nil {
			return jbridge.Null, err
		}
		return jbridge.Object(r), nil
	},
	func(f Frame, _ Origin, v jbridge.Value) (string, error) {
		if v.IsNull() {
			return "", nil
		}
		return ReadString(f, v.Ref())
	},
)

// NullableString converts *string to java/lang/String with nil as null.
var NullableString = NewCodec(sig.Object(sig.StringClass),
	func(f Frame, s *string) (jbridge.Value, error) {
		if s == nil {
			return jbridge.Null, nil
		}
		r, err := NewString(f, *s)
		if err != nil {
			return jbridge.Null, err
		}
		return jbridge.Object(r), nil
	},
	func(f Frame, _ Origin, v jbridge.Value) (*string, error) {
		if v.IsNull() {
			return nil, nil
		}
		s, err := ReadString(f, v.Ref())
		if err != nil {
			return nil, err
		}
		return &s, nil
	},
)

// Strings converts []string to a java/lang/String[] array. A nil slice is
// passed as an empty array; a null result decodes to nil.
var Strings = NewCodec(sig.Array(sig.StringClass),
	func(f Frame, ss []string) (jbridge.Value, error) {
		arr, err := NewStringArray(f, ss)
		if err != nil {
			return jbridge.Array(0), err
		}
		return jbridge.Array(arr), nil
	},
	func(f Frame, _ Origin, v jbridge.Value) ([]string, error) {
		if v.IsNull() {
			return nil, nil
		}
		return ReadStringArray(f, v.Ref())
	},
)

// NewStringArray creates a local java/lang/String[] registered as a frame
// temporary.
func NewStringArray(f Frame, ss []string) (jbridge.Ref, error) {
	env := f.Env()
	cls := env.FindClass(sig.StringClass)
	if cls == 0 {
		env.ExceptionClear()
		return 0, errors.ClassNotFound(sig.StringClass, nil)
	}
	defer env.DeleteLocalRef(cls)

	arr := env.NewObjectArray(len(ss), cls, 0)
	if arr == 0 {
		env.ExceptionClear()
		return 0, errors.New(errors.PhaseEncode, errors.KindReference).
			Owner("[" + sig.Object(sig.StringClass).Signature()).
			Detail("runtime could not allocate array of %d", len(ss)).
			Build()
	}
	f.Temp(arr)

	for i, s := range ss {
		if !utf8.ValidString(s) {
			return 0, errors.InvalidUTF8(errors.PhaseEncode, s)
		}
		elem := env.NewStringUTF(s)
		if elem == 0 {
			env.ExceptionClear()
			return 0, errors.New(errors.PhaseEncode, errors.KindReference).
				Owner(sig.StringClass).
				Value(i).
				Detail("runtime could not allocate element %d of %d", i, len(ss)).
				Build()
		}
		env.SetObjectArrayElement(arr, i, elem)
		env.DeleteLocalRef(elem)
	}
	return arr, nil
}

// ReadStringArray copies the elements of a java/lang/String[]. Null
// elements become empty strings.
func ReadStringArray(f Frame, arr jbridge.Ref) ([]string, error) {
	env := f.Env()
	n := env.GetArrayLength(arr)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		elem := env.GetObjectArrayElement(arr, i)
		if elem == 0 {
			continue
		}
		s, err := ReadString(f, elem)
		env.DeleteLocalRef(elem)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
