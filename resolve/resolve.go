package resolve

import (
	"strconv"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/ref"
	"github.com/wippyai/jbridge/sig"
)

// Field modifier bit for static members, as in java.lang.reflect.Modifier.
const modStatic = 0x0008

// MethodKey identifies a method descriptor.
type MethodKey struct {
	Owner     string
	Name      string
	Signature string
	Static    bool
}

func (k MethodKey) flightKey() string {
	return "m:" + k.Owner + "." + k.Name + k.Signature + ":" + strconv.FormatBool(k.Static)
}

// FieldKey identifies a field descriptor. Signature is the type the caller
// expects the field to be declared with.
type FieldKey struct {
	Owner     string
	Name      string
	Signature string
	Static    bool
}

func (k FieldKey) flightKey() string {
	return "f:" + k.Owner + "." + k.Name + ":" + k.Signature + ":" + strconv.FormatBool(k.Static)
}

// Resolver turns names into runtime descriptors.
type Resolver interface {
	// Class returns a reference to the named class that stays valid until
	// the resolver is closed. Callers must not delete it.
	Class(env jbridge.Env, name string) (jbridge.Ref, error)
	Method(env jbridge.Env, key MethodKey) (jbridge.MethodID, error)
	Field(env jbridge.Env, key FieldKey) (jbridge.FieldID, error)
	Close()
}

// Stats reports cache activity.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Classes int
	Methods int
	Fields  int
}

type classEntry struct {
	raw jbridge.Ref
	h   ref.Handle
}

// Cache is a memoizing Resolver safe for concurrent use. Concurrent first
// lookups of the same descriptor perform a single runtime lookup.
type Cache struct {
	refs       *ref.Manager
	log        *zap.Logger
	classes    sync.Map // string -> classEntry
	methods    sync.Map // MethodKey -> jbridge.MethodID
	fields     sync.Map // FieldKey -> jbridge.FieldID
	group      singleflight.Group
	hits       atomic.Uint64
	misses     atomic.Uint64
	fieldCache bool
}

var _ Resolver = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithFieldCache controls whether field descriptors are memoized. When
// disabled every access repeats the reflective lookup.
func WithFieldCache(enabled bool) Option {
	return func(c *Cache) { c.fieldCache = enabled }
}

// WithLogger sets the cache's logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// New creates a Cache holding its class references in refs.
func New(refs *ref.Manager, opts ...Option) *Cache {
	c := &Cache{refs: refs, fieldCache: true}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	return c
}

// Class implements Resolver.
func (c *Cache) Class(env jbridge.Env, name string) (jbridge.Ref, error) {
	if v, ok := c.classes.Load(name); ok {
		c.hits.Add(1)
		return v.(classEntry).raw, nil
	}
	v, err, _ := c.group.Do("c:"+name, func() (any, error) {
		if v, ok := c.classes.Load(name); ok {
			return v.(classEntry).raw, nil
		}
		c.misses.Add(1)
		if err := sig.ValidateClassName(name); err != nil {
			return nil, err
		}
		local := env.FindClass(name)
		if local == 0 {
			return nil, errors.ClassNotFound(name, exceptionCause(env))
		}
		h, err := c.refs.NewGlobalFrom(env, local)
		env.DeleteLocalRef(local)
		if err != nil {
			return nil, err
		}
		raw, err := c.refs.Raw(h)
		if err != nil {
			return nil, err
		}
		c.classes.Store(name, classEntry{raw: raw, h: h})
		c.log.Debug("resolved class", zap.String("class", name), zap.Stringer("handle", h))
		return raw, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(jbridge.Ref), nil
}

// Method implements Resolver.
func (c *Cache) Method(env jbridge.Env, key MethodKey) (jbridge.MethodID, error) {
	if v, ok := c.methods.Load(key); ok {
		c.hits.Add(1)
		return v.(jbridge.MethodID), nil
	}
	v, err, _ := c.group.Do(key.flightKey(), func() (any, error) {
		if v, ok := c.methods.Load(key); ok {
			return v.(jbridge.MethodID), nil
		}
		c.misses.Add(1)
		if _, _, err := sig.ParseMethod(key.Signature); err != nil {
			return nil, err
		}
		cls, err := c.Class(env, key.Owner)
		if err != nil {
			return nil, err
		}
		var id jbridge.MethodID
		if key.Static {
			id = env.GetStaticMethodID(cls, key.Name, key.Signature)
		} else {
			id = env.GetMethodID(cls, key.Name, key.Signature)
		}
		if id == 0 {
			return nil, errors.MethodNotFound(key.Owner, key.Name, key.Signature, exceptionCause(env))
		}
		c.methods.Store(key, id)
		c.log.Debug("resolved method",
			zap.String("owner", key.Owner),
			zap.String("name", key.Name),
			zap.String("signature", key.Signature),
			zap.Bool("static", key.Static))
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(jbridge.MethodID), nil
}

// Field implements Resolver. The field is located by name through
// java.lang.Class.getField and converted with FromReflectedField. Its
// declared type must match key.Signature and its modifiers key.Static.
func (c *Cache) Field(env jbridge.Env, key FieldKey) (jbridge.FieldID, error) {
	if !c.fieldCache {
		c.misses.Add(1)
		return c.lookupField(env, key)
	}
	if v, ok := c.fields.Load(key); ok {
		c.hits.Add(1)
		return v.(jbridge.FieldID), nil
	}
	v, err, _ := c.group.Do(key.flightKey(), func() (any, error) {
		if v, ok := c.fields.Load(key); ok {
			return v.(jbridge.FieldID), nil
		}
		c.misses.Add(1)
		id, err := c.lookupField(env, key)
		if err != nil {
			return nil, err
		}
		c.fields.Store(key, id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(jbridge.FieldID), nil
}

func (c *Cache) lookupField(env jbridge.Env, key FieldKey) (jbridge.FieldID, error) {
	want, err := sig.Parse(key.Signature)
	if err != nil {
		return 0, err
	}
	cls, err := c.Class(env, key.Owner)
	if err != nil {
		return 0, err
	}
	getField, err := c.Method(env, MethodKey{Owner: sig.ClassClass, Name: "getField",
		Signature: sig.Method(sig.Object(sig.FieldClass), sig.Object(sig.StringClass))})
	if err != nil {
		return 0, err
	}

	name := env.NewStringUTF(key.Name)
	if name == 0 {
		return 0, errors.FieldNotFound(key.Owner, key.Name, exceptionCause(env))
	}
	fv := env.CallMethod(cls, getField, jbridge.KindObject, []jbridge.Value{jbridge.Object(name)})
	env.DeleteLocalRef(name)
	if cause := exceptionCause(env); cause != nil || fv.IsNull() {
		return 0, errors.FieldNotFound(key.Owner, key.Name, cause)
	}
	fld := fv.Ref()
	defer env.DeleteLocalRef(fld)

	declared, err := c.declaredType(env, fld)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseResolve, errors.KindResolution, err,
			"reading declared type of "+key.Owner+"."+key.Name)
	}
	if !declared.Equal(want) {
		return 0, errors.MarshalMismatch(errors.PhaseResolve, []string{key.Owner, key.Name},
			want.Signature(), declared.Signature())
	}

	mods, err := c.modifiers(env, fld)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseResolve, errors.KindResolution, err,
			"reading modifiers of "+key.Owner+"."+key.Name)
	}
	if static := mods&modStatic != 0; static != key.Static {
		detail := "field is static"
		if !static {
			detail = "field is not static"
		}
		return 0, errors.New(errors.PhaseResolve, errors.KindResolution).
			Owner(key.Owner).
			Member(key.Name).
			Signature(key.Signature).
			Detail("%s", detail).
			Build()
	}

	id := env.FromReflectedField(fld)
	if id == 0 {
		return 0, errors.FieldNotFound(key.Owner, key.Name, exceptionCause(env))
	}
	c.log.Debug("resolved field",
		zap.String("owner", key.Owner),
		zap.String("name", key.Name),
		zap.String("signature", key.Signature),
		zap.Bool("static", key.Static))
	return id, nil
}

// declaredType reads Field.getType().getName() and converts it to a type.
func (c *Cache) declaredType(env jbridge.Env, fld jbridge.Ref) (sig.Type, error) {
	getType, err := c.Method(env, MethodKey{Owner: sig.FieldClass, Name: "getType",
		Signature: sig.Method(sig.Object(sig.ClassClass))})
	if err != nil {
		return sig.Type{}, err
	}
	getName, err := c.Method(env, MethodKey{Owner: sig.ClassClass, Name: "getName",
		Signature: sig.Method(sig.Object(sig.StringClass))})
	if err != nil {
		return sig.Type{}, err
	}

	tv := env.CallMethod(fld, getType, jbridge.KindObject, nil)
	if cause := exceptionCause(env); cause != nil || tv.IsNull() {
		return sig.Type{}, errors.RuntimeException(errors.PhaseResolve, sig.FieldClass, "getType", exceptionClass(cause), "no declared type")
	}
	defer env.DeleteLocalRef(tv.Ref())

	nv := env.CallMethod(tv.Ref(), getName, jbridge.KindObject, nil)
	if cause := exceptionCause(env); cause != nil || nv.IsNull() {
		return sig.Type{}, errors.RuntimeException(errors.PhaseResolve, sig.ClassClass, "getName", exceptionClass(cause), "no type name")
	}
	defer env.DeleteLocalRef(nv.Ref())
	return sig.FromClassName(env.GetStringUTFChars(nv.Ref()))
}

func (c *Cache) modifiers(env jbridge.Env, fld jbridge.Ref) (int32, error) {
	getModifiers, err := c.Method(env, MethodKey{Owner: sig.FieldClass, Name: "getModifiers",
		Signature: sig.Method(sig.Int)})
	if err != nil {
		return 0, err
	}
	v := env.CallMethod(fld, getModifiers, jbridge.KindInt, nil)
	if cause := exceptionCause(env); cause != nil {
		return 0, errors.RuntimeException(errors.PhaseResolve, sig.FieldClass, "getModifiers", exceptionClass(cause), cause.Error())
	}
	return v.Int(), nil
}

func exceptionClass(err error) string {
	if x, ok := err.(*Exception); ok {
		return x.Class
	}
	return ""
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	c.classes.Range(func(_, _ any) bool { s.Classes++; return true })
	c.methods.Range(func(_, _ any) bool { s.Methods++; return true })
	c.fields.Range(func(_, _ any) bool { s.Fields++; return true })
	return s
}

// Close releases the cached class references and forgets all descriptors.
func (c *Cache) Close() {
	c.classes.Range(func(k, v any) bool {
		if err := c.refs.Release(v.(classEntry).h); err != nil {
			c.log.Warn("failed to release class reference", zap.Any("class", k), zap.Error(err))
		}
		c.classes.Delete(k)
		return true
	})
	c.methods.Clear()
	c.fields.Clear()
}
