package binding

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/sig"
)

// Object is an owned reference to a runtime object bound as one type.
// The zero Object is null.
type Object struct {
	e   *invoke.Engine
	typ sig.Type
	h   ref.Handle
}

var (
	_ marshal.Arg     = Object{}
	_ invoke.Receiver = Object{}
)

// typeOf parses a type name. Names starting with '[' are array signatures.
func typeOf(typeName string) sig.Type {
	if len(typeName) > 0 && typeName[0] == '[' {
		if t, err := sig.Parse(typeName); err == nil {
			return t
		}
	}
	return sig.Object(typeName)
}

// Wrap binds an owned handle as typeName. The Object takes ownership of h.
func Wrap(e *invoke.Engine, typeName string, h ref.Handle) Object {
	return Object{e: e, typ: typeOf(typeName), h: h}
}

// Null returns a null Object of the given type, usable as an argument.
func Null(e *invoke.Engine, typeName string) Object {
	return Object{e: e, typ: typeOf(typeName)}
}

// New constructs an instance of typeName with the constructor matching args.
func New(e *invoke.Engine, typeName string, args ...marshal.Arg) (Object, error) {
	h, err := invoke.New(e, typeName, args...)
	if err != nil {
		return Object{}, err
	}
	return Wrap(e, typeName, h), nil
}

// TypeName returns the type the object is bound as, in slash form, or the
// signature for arrays.
func (o Object) TypeName() string {
	if o.typ.Kind == jbridge.KindArray {
		return o.typ.Signature()
	}
	return o.typ.Class
}

// Type returns the signature type the object is bound as.
func (o Object) Type() sig.Type { return o.typ }

// IsNull reports whether o refers to no object.
func (o Object) IsNull() bool { return o.h.IsNull() }

// Handle returns the owned handle.
func (o Object) Handle() ref.Handle { return o.h }

// Engine returns the engine the object was created by.
func (o Object) Engine() *invoke.Engine { return o.e }

// Marshal implements marshal.Arg.
func (o Object) Marshal(f marshal.Frame) (jbridge.Value, error) {
	raw, err := f.Borrow(o.h)
	if err != nil {
		return jbridge.Null, err
	}
	return marshal.RefValue(o.typ, raw), nil
}

// As passes o as a parameter of a wider type.
func (o Object) As(typeName string) marshal.Arg {
	return marshal.Upcast(o, typeOf(typeName))
}

// Close releases the handle. Closing a null Object is a no-op; closing a
// second copy of a closed Object fails with a reference error.
func (o *Object) Close() error {
	if o.h.IsNull() {
		return nil
	}
	err := o.e.Release(o.h)
	o.h = ref.Null
	return err
}

// Move returns a copy of o that takes over its handle and leaves o null.
func (o *Object) Move() Object {
	out := *o
	o.h = ref.Null
	return out
}

// IsSameObject reports whether o and other refer to the same runtime
// object. Null never equals anything, including null.
func (o Object) IsSameObject(other Object) bool {
	if o.h.IsNull() || other.h.IsNull() {
		return false
	}
	return o.e.IsSameObject(o.h, other.h)
}

// ToString calls java/lang/Object.toString on o.
func (o Object) ToString() (string, error) {
	return invoke.Call(o.e, receiver{h: o.h, typeName: sig.ObjectClass}, "toString", marshal.String)
}

// String returns the result of toString, or "null".
func (o Object) String() string {
	if o.h.IsNull() {
		return "null"
	}
	s, err := o.ToString()
	if err != nil {
		return "<" + o.TypeName() + ": " + err.Error() + ">"
	}
	return s
}

// receiver views a handle as another type for method lookup.
type receiver struct {
	typeName string
	h        ref.Handle
}

func (r receiver) Handle() ref.Handle { return r.h }
func (r receiver) TypeName() string   { return r.typeName }

// engineFrame is implemented by frames of the invoke package.
type engineFrame interface {
	Engine() *invoke.Engine
}

type decoder[T any] struct {
	wrap func(Object) T
	typ  sig.Type
}

// Decoder returns a decoder producing wrappers bound as typeName. Results
// are owned by the returned wrapper; null results produce a null Object.
func Decoder[T any](typeName string, wrap func(Object) T) marshal.Decoder[T] {
	return decoder[T]{typ: typeOf(typeName), wrap: wrap}
}

// Of returns a decoder producing plain Objects bound as typeName.
func Of(typeName string) marshal.Decoder[Object] {
	return Decoder(typeName, func(o Object) Object { return o })
}

func (d decoder[T]) Type() sig.Type { return d.typ }

func (d decoder[T]) Decode(f marshal.Frame, origin marshal.Origin, v jbridge.Value) (T, error) {
	ef, ok := f.(engineFrame)
	if !ok {
		var zero T
		return zero, errors.Unsupported(errors.PhaseDecode, "binding decoders need an invoke frame")
	}
	if err := marshal.CheckKind(d.typ, origin, v); err != nil {
		var zero T
		return zero, err
	}
	o := Object{e: ef.Engine(), typ: d.typ}
	if !v.IsNull() {
		h, err := f.Own(v.Ref())
		if err != nil {
			var zero T
			return zero, err
		}
		o.h = h
	}
	return d.wrap(o), nil
}

// Cast binds the object o refers to as typeName under a new handle. The
// object must be an instance of typeName. o keeps its own handle.
func Cast[T any](o Object, typeName string, wrap func(Object) T) (T, error) {
	var zero T
	if o.h.IsNull() {
		return wrap(Null(o.e, typeName)), nil
	}
	ok, err := invoke.InstanceOf(o.e, o, typeName)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, errors.MarshalMismatch(errors.PhaseDecode, []string{"cast"},
			typeName, o.TypeName())
	}
	var h ref.Handle
	err = o.e.Use(o.h, o.TypeName(), "cast", func(f marshal.Frame, raw jbridge.Ref) error {
		var err error
		h, err = f.Own(raw)
		return err
	})
	if err != nil {
		return zero, err
	}
	return wrap(Wrap(o.e, typeName, h)), nil
}

// CharSequence is a java/lang/CharSequence.
type CharSequence struct{ Object }

// CharSequenceDecoder decodes java/lang/CharSequence results.
var CharSequenceDecoder = Decoder(sig.CharSequenceClass, func(o Object) CharSequence { return CharSequence{o} })

// NewString creates a java/lang/String bound as a CharSequence.
func NewString(e *invoke.Engine, s string) (CharSequence, error) {
	h, err := e.Make(sig.StringClass, func(f marshal.Frame) (jbridge.Ref, error) {
		return marshal.NewString(f, s)
	})
	if err != nil {
		return CharSequence{}, err
	}
	return CharSequence{Wrap(e, sig.CharSequenceClass, h)}, nil
}

// Length returns the number of UTF-16 code units.
func (c CharSequence) Length() (int32, error) {
	return invoke.Call(c.e, c, "length", marshal.Int)
}

// CharAt returns the UTF-16 code unit at index.
func (c CharSequence) CharAt(index int32) (uint16, error) {
	return invoke.Call(c.e, c, "charAt", marshal.Char, marshal.Int.Arg(index))
}

// Text returns the contents as a Go string.
func (c CharSequence) Text() (string, error) {
	if c.h.IsNull() {
		return "", errors.NullHandle(errors.PhaseInvoke, sig.CharSequenceClass, "toString")
	}
	return invoke.Call(c.e, c, "toString", marshal.String)
}
