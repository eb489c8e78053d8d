package invoke

import (
	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/resolve"
)

// Engine performs calls on one attached thread.
type Engine struct {
	env          jbridge.Env
	refs         *ref.Manager
	resolver     resolve.Resolver
	log          *zap.Logger
	ownsRefs     bool
	ownsResolver bool
	closed       bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRefs shares an existing reference manager. The engine does not close it.
func WithRefs(m *ref.Manager) Option {
	return func(e *Engine) { e.refs = m }
}

// WithResolver shares an existing resolver. The engine does not close it.
func WithResolver(r resolve.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithLogger sets the engine's logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine for env. Unless shared ones are supplied, it
// creates and owns a reference manager and a caching resolver.
func NewEngine(env jbridge.Env, opts ...Option) *Engine {
	e := &Engine{env: env}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = Logger()
	}
	if e.refs == nil {
		e.refs = ref.NewManager(env)
		e.ownsRefs = true
	}
	if e.resolver == nil {
		e.resolver = resolve.New(e.refs)
		e.ownsResolver = true
	}
	return e
}

// Fork returns an engine for another attached thread sharing e's reference
// manager and resolver.
func (e *Engine) Fork(env jbridge.Env) *Engine {
	return &Engine{env: env, refs: e.refs, resolver: e.resolver, log: e.log}
}

// Env returns the embedding API of the engine's thread.
func (e *Engine) Env() jbridge.Env { return e.env }

// Refs returns the engine's reference manager.
func (e *Engine) Refs() *ref.Manager { return e.refs }

// Resolver returns the engine's descriptor resolver.
func (e *Engine) Resolver() resolve.Resolver { return e.resolver }

// Release releases an owned handle through the engine's thread.
func (e *Engine) Release(h ref.Handle) error {
	return e.refs.ReleaseFrom(e.env, h)
}

// IsSameObject compares two handles by identity on the engine's thread.
func (e *Engine) IsSameObject(a, b ref.Handle) bool {
	return e.refs.IsSameObjectFrom(e.env, a, b)
}

// Close closes what the engine owns and returns the number of handles that
// were still live in an owned reference manager.
func (e *Engine) Close() int {
	if e.closed {
		return 0
	}
	e.closed = true
	if e.ownsResolver {
		e.resolver.Close()
	}
	if e.ownsRefs {
		return e.refs.Close()
	}
	return 0
}

// Use runs fn in a frame with the raw reference behind h borrowed for its
// duration. A pending exception after fn returns is converted into an error.
func (e *Engine) Use(h ref.Handle, owner, member string, fn func(f marshal.Frame, raw jbridge.Ref) error) error {
	if h.IsNull() {
		return errors.NullHandle(errors.PhaseInvoke, owner, member)
	}
	f := e.frame()
	defer f.close()
	raw, err := f.Borrow(h)
	if err != nil {
		return err
	}
	if err := fn(f, raw); err != nil {
		f.clearPending()
		return err
	}
	return f.exception(errors.PhaseInvoke, owner, member, "")
}

// Make runs build in a frame and returns an owned handle to the reference
// it produces. A null reference yields the null Handle.
func (e *Engine) Make(owner string, build func(f marshal.Frame) (jbridge.Ref, error)) (ref.Handle, error) {
	f := e.frame()
	defer f.close()
	r, err := build(f)
	if err != nil {
		f.clearPending()
		return ref.Null, err
	}
	if err := f.exception(errors.PhaseInvoke, owner, "", ""); err != nil {
		return ref.Null, err
	}
	if r == 0 {
		return ref.Null, nil
	}
	return f.Own(r)
}

// Own promotes a local reference of the engine's thread to an owned handle
// and deletes the local.
func (e *Engine) Own(local jbridge.Ref) (ref.Handle, error) {
	if local == 0 {
		return ref.Null, nil
	}
	defer e.env.DeleteLocalRef(local)
	return e.refs.NewGlobalFrom(e.env, local)
}
