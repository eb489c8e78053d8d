package invoke

import (
	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/resolve"
)

// frame implements marshal.Frame for one operation.
type frame struct {
	e       *Engine
	temps   []jbridge.Ref
	borrows []ref.Borrow
}

var _ marshal.Frame = (*frame)(nil)

func (e *Engine) frame() *frame {
	return &frame{e: e}
}

func (f *frame) Env() jbridge.Env { return f.e.env }

// Engine gives decoders that build wrappers access to the calling engine.
func (f *frame) Engine() *Engine { return f.e }

func (f *frame) Borrow(h ref.Handle) (jbridge.Ref, error) {
	b, err := f.e.refs.Borrow(h)
	if err != nil {
		return 0, err
	}
	f.borrows = append(f.borrows, b)
	return b.Ref(), nil
}

func (f *frame) Temp(r jbridge.Ref) {
	if r != 0 {
		f.temps = append(f.temps, r)
	}
}

func (f *frame) Own(r jbridge.Ref) (ref.Handle, error) {
	return f.e.refs.NewGlobalFrom(f.e.env, r)
}

// close deletes the frame's locals and returns its borrows.
func (f *frame) close() {
	for i := len(f.temps) - 1; i >= 0; i-- {
		f.e.env.DeleteLocalRef(f.temps[i])
	}
	for i := range f.borrows {
		f.borrows[i].Return()
	}
	f.temps, f.borrows = nil, nil
}

func (f *frame) marshal(args []marshal.Arg) ([]jbridge.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	vals := make([]jbridge.Value, len(args))
	for i, a := range args {
		v, err := a.Marshal(f)
		if err != nil {
			f.clearPending()
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// result registers a reference result for deletion at frame end.
func (f *frame) result(v jbridge.Value) jbridge.Value {
	if v.IsReference() && !v.IsNull() {
		f.Temp(v.Ref())
	}
	return v
}

// exception converts a pending runtime exception into an error.
func (f *frame) exception(phase errors.Phase, owner, member, signature string) error {
	x := resolve.TakeException(f.e.env)
	if x == nil {
		return nil
	}
	f.e.log.Debug("runtime exception",
		zap.String("owner", owner),
		zap.String("member", member),
		zap.String("exception", x.Class),
		zap.String("message", x.Message))
	err := errors.RuntimeException(phase, owner, member, x.Class, x.Message)
	err.Signature = signature
	return err
}

// clearPending drops an exception left behind by an operation that already
// failed with its own error, so it cannot surface in a later call.
func (f *frame) clearPending() {
	if x := resolve.TakeException(f.e.env); x != nil {
		f.e.log.Debug("dropped exception of failed operation",
			zap.String("exception", x.Class),
			zap.String("message", x.Message))
	}
}
