package marshal

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/sig"
)

// Codec converts one Go type in both directions.
type Codec[T any] struct {
	encode func(Frame, T) (jbridge.Value, error)
	decode func(Frame, Origin, jbridge.Value) (T, error)
	typ    sig.Type
}

// NewCodec builds a Codec from an encode and a decode function.
func NewCodec[T any](typ sig.Type,
	encode func(Frame, T) (jbridge.Value, error),
	decode func(Frame, Origin, jbridge.Value) (T, error),
) Codec[T] {
	return Codec[T]{typ: typ, encode: encode, decode: decode}
}

// Type returns the signature type of the codec.
func (c Codec[T]) Type() sig.Type { return c.typ }

// Arg returns v as an outbound parameter.
func (c Codec[T]) Arg(v T) Arg {
	return codecArg[T]{c: c, v: v}
}

// Decode converts a raw value after checking its kind.
func (c Codec[T]) Decode(f Frame, o Origin, v jbridge.Value) (T, error) {
	if err := CheckKind(c.typ, o, v); err != nil {
		var zero T
		return zero, err
	}
	return c.decode(f, o, v)
}

type codecArg[T any] struct {
	c Codec[T]
	v T
}

func (a codecArg[T]) Type() sig.Type { return a.c.typ }

func (a codecArg[T]) Marshal(f Frame) (jbridge.Value, error) {
	return a.c.encode(f, a.v)
}

// CheckKind reports a mismatch between a raw value and the type a decoder
// expects.
func CheckKind(want sig.Type, o Origin, v jbridge.Value) error {
	if v.Kind() == want.Kind {
		return nil
	}
	// The runtime may report a null array as a null object.
	if want.IsReference() && v.IsReference() && v.IsNull() {
		return nil
	}
	return errors.MarshalMismatch(errors.PhaseDecode, []string{o.String()},
		want.Signature(), string(v.Kind().Code()))
}
