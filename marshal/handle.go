package marshal

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/sig"
)

// Handle returns a codec passing ref.Handles as references of the named
// type. Decoded handles are owned Global references the caller must release.
// Names starting with '[' are array signatures.
func Handle(typeName string) Codec[ref.Handle] {
	typ := sig.Object(typeName)
	if len(typeName) > 0 && typeName[0] == '[' {
		if t, err := sig.Parse(typeName); err == nil {
			typ = t
		}
	}
	return HandleOf(typ)
}

// HandleOf is Handle for an already parsed type.
func HandleOf(typ sig.Type) Codec[ref.Handle] {
	return NewCodec(typ,
		func(f Frame, h ref.Handle) (jbridge.Value, error) {
			raw, err := f.Borrow(h)
			if err != nil {
				return jbridge.Null, err
			}
			return RefValue(typ, raw), nil
		},
		func(f Frame, _ Origin, v jbridge.Value) (ref.Handle, error) {
			if v.IsNull() {
				return ref.Null, nil
			}
			return f.Own(v.Ref())
		},
	)
}

// RefValue wraps a raw reference as a value of typ's reference kind.
func RefValue(typ sig.Type, r jbridge.Ref) jbridge.Value {
	if typ.Kind == jbridge.KindArray {
		return jbridge.Array(r)
	}
	return jbridge.Object(r)
}
