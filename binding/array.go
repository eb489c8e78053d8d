package binding

import (
	"unicode/utf16"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

const (
	byteArrayType   = "[B"
	charArrayType   = "[C"
	stringArrayType = "[Ljava/lang/String;"
)

// Array is a runtime array of any element type.
type Array struct{ Object }

// Length returns the number of elements.
func (a Array) Length() (int, error) {
	var n int
	err := a.e.Use(a.h, a.TypeName(), "length", func(f marshal.Frame, raw jbridge.Ref) error {
		n = f.Env().GetArrayLength(raw)
		return nil
	})
	return n, err
}

// ByteArray is a byte[].
type ByteArray struct{ Array }

// ByteArrayDecoder decodes byte[] results without copying their contents.
var ByteArrayDecoder = Decoder(byteArrayType, func(o Object) ByteArray { return ByteArray{Array{o}} })

// NewByteArray creates a byte[] holding a copy of b.
func NewByteArray(e *invoke.Engine, b []byte) (ByteArray, error) {
	h, err := e.Make(byteArrayType, func(f marshal.Frame) (jbridge.Ref, error) {
		return marshal.NewByteArray(f, b)
	})
	if err != nil {
		return ByteArray{}, err
	}
	return ByteArray{Array{Wrap(e, byteArrayType, h)}}, nil
}

// Bytes copies the full contents.
func (a ByteArray) Bytes() ([]byte, error) {
	var out []byte
	err := a.e.Use(a.h, byteArrayType, "bytes", func(f marshal.Frame, raw jbridge.Ref) error {
		out = marshal.ReadByteArray(f.Env(), raw)
		return nil
	})
	return out, err
}

// Region copies n bytes starting at start.
func (a ByteArray) Region(start, n int) ([]byte, error) {
	if start < 0 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, start, n)
	}
	if n < 0 {
		return nil, errors.OutOfBounds(errors.PhaseDecode, n, n)
	}
	out := make([]byte, n)
	err := a.e.Use(a.h, byteArrayType, "region", func(f marshal.Frame, raw jbridge.Ref) error {
		f.Env().GetByteArrayRegion(raw, start, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetBytes overwrites the full contents. b must have the array's length.
func (a ByteArray) SetBytes(b []byte) error {
	return a.e.Use(a.h, byteArrayType, "setBytes", func(f marshal.Frame, raw jbridge.Ref) error {
		env := f.Env()
		if n := env.GetArrayLength(raw); n != len(b) {
			return errors.OutOfBounds(errors.PhaseEncode, len(b), n)
		}
		env.SetByteArrayRegion(raw, 0, b)
		return nil
	})
}

// SetRegion copies b into the array starting at start.
func (a ByteArray) SetRegion(start int, b []byte) error {
	return a.e.Use(a.h, byteArrayType, "setRegion", func(f marshal.Frame, raw jbridge.Ref) error {
		f.Env().SetByteArrayRegion(raw, start, b)
		return nil
	})
}

// CharArray is a char[] of UTF-16 code units.
type CharArray struct{ Array }

// CharArrayDecoder decodes char[] results.
var CharArrayDecoder = Decoder(charArrayType, func(o Object) CharArray { return CharArray{Array{o}} })

// NewCharArray creates a char[] holding the UTF-16 encoding of s. Passwords
// and other secrets are passed this way.
func NewCharArray(e *invoke.Engine, s string) (CharArray, error) {
	return NewCharArrayUnits(e, utf16.Encode([]rune(s)))
}

// NewCharArrayUnits creates a char[] holding a copy of units.
func NewCharArrayUnits(e *invoke.Engine, units []uint16) (CharArray, error) {
	h, err := e.Make(charArrayType, func(f marshal.Frame) (jbridge.Ref, error) {
		env := f.Env()
		arr := env.NewCharArray(len(units))
		if arr == 0 {
			return 0, nil
		}
		f.Temp(arr)
		if len(units) > 0 {
			env.SetCharArrayRegion(arr, 0, units)
		}
		return arr, nil
	})
	if err != nil {
		return CharArray{}, err
	}
	return CharArray{Array{Wrap(e, charArrayType, h)}}, nil
}

// Chars copies the full contents.
func (a CharArray) Chars() ([]uint16, error) {
	var out []uint16
	err := a.e.Use(a.h, charArrayType, "chars", func(f marshal.Frame, raw jbridge.Ref) error {
		env := f.Env()
		out = make([]uint16, env.GetArrayLength(raw))
		if len(out) > 0 {
			env.GetCharArrayRegion(raw, 0, out)
		}
		return nil
	})
	return out, err
}

// Text decodes the contents as UTF-16. Unpaired surrogates become U+FFFD.
func (a CharArray) Text() (string, error) {
	units, err := a.Chars()
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// Clear overwrites every element with zero.
func (a CharArray) Clear() error {
	return a.e.Use(a.h, charArrayType, "clear", func(f marshal.Frame, raw jbridge.Ref) error {
		env := f.Env()
		if n := env.GetArrayLength(raw); n > 0 {
			env.SetCharArrayRegion(raw, 0, make([]uint16, n))
		}
		return nil
	})
}

// StringArray is a java/lang/String[].
type StringArray struct{ Array }

// StringArrayDecoder decodes String[] results.
var StringArrayDecoder = Decoder(stringArrayType, func(o Object) StringArray { return StringArray{Array{o}} })

// NewStringArray creates a String[] holding copies of ss.
func NewStringArray(e *invoke.Engine, ss []string) (StringArray, error) {
	h, err := e.Make(stringArrayType, func(f marshal.Frame) (jbridge.Ref, error) {
		return marshal.NewStringArray(f, ss)
	})
	if err != nil {
		return StringArray{}, err
	}
	return StringArray{Array{Wrap(e, stringArrayType, h)}}, nil
}

// Strings copies the elements. Null elements become empty strings.
func (a StringArray) Strings() ([]string, error) {
	var out []string
	err := a.e.Use(a.h, stringArrayType, "strings", func(f marshal.Frame, raw jbridge.Ref) error {
		var err error
		out, err = marshal.ReadStringArray(f, raw)
		return err
	})
	return out, err
}
