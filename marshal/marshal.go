package marshal

import (
	"strings"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/sig"
)

// Frame is the per-call context codecs run in.
type Frame interface {
	// Env returns the embedding API of the calling thread.
	Env() jbridge.Env

	// Borrow returns the raw reference behind h, borrowed until the call
	// returns. The null Handle yields the null reference.
	Borrow(h ref.Handle) (jbridge.Ref, error)

	// Temp registers a local reference to delete when the call returns.
	Temp(r jbridge.Ref)

	// Own promotes a local reference to an owned Global handle. The local
	// itself is still deleted when the call returns.
	Own(r jbridge.Ref) (ref.Handle, error)
}

// Origin tells a Decoder where a raw value came from.
type Origin uint8

const (
	FromMethod Origin = iota
	FromStaticMethod
	FromField
	FromStaticField
)

func (o Origin) String() string {
	switch o {
	case FromMethod:
		return "method result"
	case FromStaticMethod:
		return "static method result"
	case FromField:
		return "field"
	case FromStaticField:
		return "static field"
	default:
		return "unknown origin"
	}
}

// Arg is an outbound parameter.
type Arg interface {
	Type() sig.Type
	Marshal(f Frame) (jbridge.Value, error)
}

// Decoder builds a Go value from a raw runtime value.
type Decoder[T any] interface {
	Type() sig.Type
	Decode(f Frame, o Origin, v jbridge.Value) (T, error)
}

// Signature renders the method signature for args and a return type.
func Signature(ret sig.Type, args []Arg) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, a := range args {
		b.WriteString(a.Type().Signature())
	}
	b.WriteByte(')')
	b.WriteString(ret.Signature())
	return b.String()
}

// Types returns the signature types of args.
func Types(args []Arg) []sig.Type {
	out := make([]sig.Type, len(args))
	for i, a := range args {
		out[i] = a.Type()
	}
	return out
}

type upcast struct {
	Arg
	typ sig.Type
}

func (u upcast) Type() sig.Type { return u.typ }

// Upcast passes a reference argument under a wider declared type, for
// example a java/lang/String where a java/lang/CharSequence is expected.
func Upcast(a Arg, typ sig.Type) Arg {
	return upcast{Arg: a, typ: typ}
}

type nullArg struct {
	typ sig.Type
}

func (n nullArg) Type() sig.Type { return n.typ }

func (n nullArg) Marshal(Frame) (jbridge.Value, error) {
	if n.typ.Kind == jbridge.KindArray {
		return jbridge.Array(0), nil
	}
	return jbridge.Null, nil
}

// Null returns a null reference argument of the given type.
func Null(typ sig.Type) Arg {
	return nullArg{typ: typ}
}
