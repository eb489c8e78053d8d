package invoke

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/resolve"
	"github.com/wippyai/jbridge/sig"
)

// Receiver is an object methods and fields can be accessed on. TypeName is
// the slash-separated type the members are looked up in.
type Receiver interface {
	Handle() ref.Handle
	TypeName() string
}

// CallStatic calls a static method of owner and decodes its result.
func CallStatic[T any](e *Engine, owner, name string, dec marshal.Decoder[T], args ...marshal.Arg) (T, error) {
	var zero T
	signature := marshal.Signature(dec.Type(), args)
	id, err := e.resolver.Method(e.env, resolve.MethodKey{Owner: owner, Name: name, Signature: signature, Static: true})
	if err != nil {
		return zero, err
	}
	cls, err := e.resolver.Class(e.env, owner)
	if err != nil {
		return zero, err
	}

	f := e.frame()
	defer f.close()
	vals, err := f.marshal(args)
	if err != nil {
		return zero, err
	}
	raw := f.result(e.env.CallStaticMethod(cls, id, dec.Type().Kind, vals))
	if err := f.exception(errors.PhaseInvoke, owner, name, signature); err != nil {
		return zero, err
	}
	return decode(f, dec, marshal.FromStaticMethod, raw, owner, name)
}

// CallStaticVoid calls a static method of owner returning void.
func CallStaticVoid(e *Engine, owner, name string, args ...marshal.Arg) error {
	_, err := CallStatic(e, owner, name, marshal.Void, args...)
	return err
}

// Call calls an instance method on recv and decodes its result. The method
// is looked up in recv's type and dispatched on the runtime class.
func Call[T any](e *Engine, recv Receiver, name string, dec marshal.Decoder[T], args ...marshal.Arg) (T, error) {
	var zero T
	owner := recv.TypeName()
	h := recv.Handle()
	if h.IsNull() {
		return zero, errors.NullHandle(errors.PhaseInvoke, owner, name)
	}
	signature := marshal.Signature(dec.Type(), args)
	id, err := e.resolver.Method(e.env, resolve.MethodKey{Owner: owner, Name: name, Signature: signature})
	if err != nil {
		return zero, err
	}

	f := e.frame()
	defer f.close()
	obj, err := f.Borrow(h)
	if err != nil {
		return zero, err
	}
	vals, err := f.marshal(args)
	if err != nil {
		return zero, err
	}
	raw := f.result(e.env.CallMethod(obj, id, dec.Type().Kind, vals))
	if err := f.exception(errors.PhaseInvoke, owner, name, signature); err != nil {
		return zero, err
	}
	return decode(f, dec, marshal.FromMethod, raw, owner, name)
}

// CallVoid calls an instance method returning void.
func CallVoid(e *Engine, recv Receiver, name string, args ...marshal.Arg) error {
	_, err := Call(e, recv, name, marshal.Void, args...)
	return err
}

// New constructs an instance of owner with the constructor matching args
// and returns an owned handle to it.
func New(e *Engine, owner string, args ...marshal.Arg) (ref.Handle, error) {
	signature := marshal.Signature(sig.Void, args)
	id, err := e.resolver.Method(e.env, resolve.MethodKey{Owner: owner, Name: "<init>", Signature: signature})
	if err != nil {
		return ref.Null, err
	}
	cls, err := e.resolver.Class(e.env, owner)
	if err != nil {
		return ref.Null, err
	}

	f := e.frame()
	defer f.close()
	vals, err := f.marshal(args)
	if err != nil {
		return ref.Null, err
	}
	obj := e.env.NewObject(cls, id, vals)
	f.Temp(obj)
	if err := f.exception(errors.PhaseInvoke, owner, "<init>", signature); err != nil {
		return ref.Null, err
	}
	if obj == 0 {
		return ref.Null, errors.New(errors.PhaseInvoke, errors.KindReference).
			Owner(owner).
			Member("<init>").
			Signature(signature).
			Detail("constructor returned null").
			Build()
	}
	return f.Own(obj)
}

// InstanceOf reports whether recv is an instance of typeName.
func InstanceOf(e *Engine, recv Receiver, typeName string) (bool, error) {
	if recv.Handle().IsNull() {
		return false, nil
	}
	cls, err := e.resolver.Class(e.env, typeName)
	if err != nil {
		return false, err
	}
	var ok bool
	err = e.Use(recv.Handle(), recv.TypeName(), "instanceof", func(f marshal.Frame, raw jbridge.Ref) error {
		ok = f.Env().IsInstanceOf(raw, cls)
		return nil
	})
	return ok, err
}

func decode[T any](f *frame, dec marshal.Decoder[T], o marshal.Origin, v jbridge.Value, owner, member string) (T, error) {
	out, err := dec.Decode(f, o, v)
	if err != nil {
		f.clearPending()
		var e *errors.Error
		if errors.As(err, &e) && e.Owner == "" {
			e.Owner, e.Member = owner, member
		}
		return out, err
	}
	return out, nil
}
