package marshal

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/sig"
)

func primitive[T any](typ sig.Type, to func(T) jbridge.Value, from func(jbridge.Value) T) Codec[T] {
	return NewCodec(typ,
		func(_ Frame, v T) (jbridge.Value, error) { return to(v), nil },
		func(_ Frame, _ Origin, v jbridge.Value) (T, error) { return from(v), nil },
	)
}

// Primitive codecs.
var (
	Boolean = primitive(sig.Boolean, jbridge.Boolean, jbridge.Value.Boolean)
	Byte    = primitive(sig.Byte, jbridge.Byte, jbridge.Value.Byte)
	Char    = primitive(sig.Char, jbridge.Char, jbridge.Value.Char)
	Short   = primitive(sig.Short, jbridge.Short, jbridge.Value.Short)
	Int     = primitive(sig.Int, jbridge.Int, jbridge.Value.Int)
	Long    = primitive(sig.Long, jbridge.Long, jbridge.Value.Long)
	Float   = primitive(sig.Float, jbridge.Float, jbridge.Value.Float)
	Double  = primitive(sig.Double, jbridge.Double, jbridge.Value.Double)
)

type voidDecoder struct{}

func (voidDecoder) Type() sig.Type { return sig.Void }

func (voidDecoder) Decode(_ Frame, o Origin, v jbridge.Value) (struct{}, error) {
	return struct{}{}, CheckKind(sig.Void, o, v)
}

// Void decodes the result of a method returning nothing.
var Void Decoder[struct{}] = voidDecoder{}
