package invoke

import (
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/resolve"
)

// GetStaticField reads a static field of owner. The field must be declared
// with the decoder's type.
func GetStaticField[T any](e *Engine, owner, name string, dec marshal.Decoder[T]) (T, error) {
	var zero T
	typ := dec.Type()
	id, err := e.resolver.Field(e.env, resolve.FieldKey{Owner: owner, Name: name, Signature: typ.Signature(), Static: true})
	if err != nil {
		return zero, err
	}
	cls, err := e.resolver.Class(e.env, owner)
	if err != nil {
		return zero, err
	}

	f := e.frame()
	defer f.close()
	raw := f.result(e.env.GetStaticField(cls, id, typ.Kind))
	if err := f.exception(errors.PhaseField, owner, name, typ.Signature()); err != nil {
		return zero, err
	}
	return decode(f, dec, marshal.FromStaticField, raw, owner, name)
}

// GetField reads an instance field of recv.
func GetField[T any](e *Engine, recv Receiver, name string, dec marshal.Decoder[T]) (T, error) {
	var zero T
	owner := recv.TypeName()
	h := recv.Handle()
	if h.IsNull() {
		return zero, errors.NullHandle(errors.PhaseField, owner, name)
	}
	typ := dec.Type()
	id, err := e.resolver.Field(e.env, resolve.FieldKey{Owner: owner, Name: name, Signature: typ.Signature()})
	if err != nil {
		return zero, err
	}

	f := e.frame()
	defer f.close()
	obj, err := f.Borrow(h)
	if err != nil {
		return zero, err
	}
	raw := f.result(e.env.GetField(obj, id, typ.Kind))
	if err := f.exception(errors.PhaseField, owner, name, typ.Signature()); err != nil {
		return zero, err
	}
	return decode(f, dec, marshal.FromField, raw, owner, name)
}

// SetStaticField writes a static field of owner. The field must be declared
// with the argument's type.
func SetStaticField(e *Engine, owner, name string, v marshal.Arg) error {
	typ := v.Type()
	id, err := e.resolver.Field(e.env, resolve.FieldKey{Owner: owner, Name: name, Signature: typ.Signature(), Static: true})
	if err != nil {
		return err
	}
	cls, err := e.resolver.Class(e.env, owner)
	if err != nil {
		return err
	}

	f := e.frame()
	defer f.close()
	vals, err := f.marshal([]marshal.Arg{v})
	if err != nil {
		return err
	}
	e.env.SetStaticField(cls, id, vals[0])
	return f.exception(errors.PhaseField, owner, name, typ.Signature())
}

// SetField writes an instance field of recv.
func SetField(e *Engine, recv Receiver, name string, v marshal.Arg) error {
	owner := recv.TypeName()
	h := recv.Handle()
	if h.IsNull() {
		return errors.NullHandle(errors.PhaseField, owner, name)
	}
	typ := v.Type()
	id, err := e.resolver.Field(e.env, resolve.FieldKey{Owner: owner, Name: name, Signature: typ.Signature()})
	if err != nil {
		return err
	}

	f := e.frame()
	defer f.close()
	obj, err := f.Borrow(h)
	if err != nil {
		return err
	}
	vals, err := f.marshal([]marshal.Arg{v})
	if err != nil {
		return err
	}
	e.env.SetField(obj, id, vals[0])
	return f.exception(errors.PhaseField, owner, name, typ.Signature())
}
