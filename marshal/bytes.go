package marshal

import (
	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/sig"
)

// NewByteArray creates a local byte[] holding a copy of b, registered as a
// frame temporary.
func NewByteArray(f Frame, b []byte) (jbridge.Ref, error) {
	env := f.Env()
	arr := env.NewByteArray(len(b))
	if arr == 0 {
		env.ExceptionClear()
		return 0, errors.New(errors.PhaseEncode, errors.KindReference).
			Owner("[B").
			Detail("runtime could not allocate array of %d", len(b)).
			Build()
	}
	f.Temp(arr)
	if len(b) > 0 {
		env.SetByteArrayRegion(arr, 0, b)
	}
	return arr, nil
}

// ReadByteArray copies the full contents of a byte[] into a fresh slice.
func ReadByteArray(env jbridge.Env, arr jbridge.Ref) []byte {
	n := env.GetArrayLength(arr)
	out := make([]byte, n)
	if n > 0 {
		env.GetByteArrayRegion(arr, 0, out)
	}
	return out
}

// Bytes converts []byte to byte[] by copy. A nil slice is passed as an
// empty array; a null result decodes to nil.
var Bytes = NewCodec(sig.Array("B"),
	func(f Frame, b []byte) (jbridge.Value, error) {
		arr, err := NewByteArray(f, b)
		if err != nil {
			return jbridge.Array(0), err
		}
		return jbridge.Array(arr), nil
	},
	func(f Frame, _ Origin, v jbridge.Value) ([]byte, error) {
		if v.IsNull() {
			return nil, nil
		}
		return ReadByteArray(f.Env(), v.Ref()), nil
	},
)
