package ref

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/errors"
)

// Manager owns the Global and Weak references the bridge keeps past a call.
// All operations are serialized by the manager's mutex.
type Manager struct {
	env       Env
	log       *zap.Logger
	entries   []entry
	freeList  []int
	observers []Observer
	live      int
	capacity  int
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry struct {
	raw         jbridge.Ref
	gen         uint32
	borrowCount uint32
	kind        Kind
	valid       bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCapacity limits the number of live handles. Zero means unlimited.
func WithCapacity(n int) Option {
	return func(m *Manager) { m.capacity = n }
}

// WithLogger sets the manager's logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a manager that creates and deletes references through env.
func NewManager(env Env, opts ...Option) *Manager {
	m := &Manager{
		env:      env,
		entries:  make([]entry, 0, 64),
		freeList: make([]int, 0, 16),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = Logger()
	}
	return m
}

// NewGlobal promotes raw to a Global reference and returns its handle.
// A null raw reference yields the null Handle.
func (m *Manager) NewGlobal(raw jbridge.Ref) (Handle, error) {
	return m.acquire(m.env, raw, Global)
}

// NewWeak creates a Weak reference to raw.
func (m *Manager) NewWeak(raw jbridge.Ref) (Handle, error) {
	return m.acquire(m.env, raw, Weak)
}

// NewGlobalFrom is NewGlobal for a local reference owned by another
// attached thread. The promotion is performed through env.
func (m *Manager) NewGlobalFrom(env Env, raw jbridge.Ref) (Handle, error) {
	return m.acquire(env, raw, Global)
}

// NewWeakFrom is NewWeak for a local reference owned by another attached
// thread.
func (m *Manager) NewWeakFrom(env Env, raw jbridge.Ref) (Handle, error) {
	return m.acquire(env, raw, Weak)
}

func (m *Manager) acquire(env Env, raw jbridge.Ref, kind Kind) (Handle, error) {
	if raw == 0 {
		return Null, nil
	}

	m.mu.Lock()
	h, promoted, err := m.acquireLocked(env, raw, kind)
	m.mu.Unlock()
	if err != nil {
		return Null, err
	}

	m.log.Debug("reference acquired", zap.Stringer("handle", h), zap.Stringer("kind", kind))
	m.notify(Event{Type: EventAcquired, Handle: h, Raw: promoted, Kind: kind})
	return h, nil
}

// acquireLocked promotes raw through env and inserts it. Caller holds m.mu.
func (m *Manager) acquireLocked(env Env, raw jbridge.Ref, kind Kind) (Handle, jbridge.Ref, error) {
	if m.closed {
		return Null, 0, errors.InvalidState("ref.Manager", "acquire", "closed")
	}
	if m.capacity > 0 && m.live >= m.capacity {
		return Null, 0, errors.ReferenceExhausted("manager capacity")
	}

	var promoted jbridge.Ref
	if kind == Weak {
		promoted = env.NewWeakGlobalRef(raw)
	} else {
		promoted = env.NewGlobalRef(raw)
	}
	if promoted == 0 {
		return Null, 0, errors.ReferenceExhausted(kind.String() + " reference table")
	}
	return m.insert(promoted, kind), promoted, nil
}

func (m *Manager) insert(raw jbridge.Ref, kind Kind) Handle {
	m.live++
	if n := len(m.freeList); n > 0 {
		idx := m.freeList[n-1]
		m.freeList = m.freeList[:n-1]
		e := &m.entries[idx]
		e.raw = raw
		e.kind = kind
		e.valid = true
		return makeHandle(uint32(idx), e.gen)
	}
	m.entries = append(m.entries, entry{raw: raw, kind: kind, gen: 1, valid: true})
	return makeHandle(uint32(len(m.entries)-1), 1)
}

// lookup returns the live entry for h. Caller holds m.mu.
func (m *Manager) lookup(h Handle) (*entry, error) {
	idx := h.index()
	if idx < 0 || idx >= len(m.entries) {
		return nil, errors.StaleHandle(uint64(h))
	}
	e := &m.entries[idx]
	if !e.valid || e.gen != h.generation() {
		return nil, errors.StaleHandle(uint64(h))
	}
	return e, nil
}

// Upgrade promotes a Weak handle to a new Global handle. If the referent has
// been collected the null Handle is returned without error.
func (m *Manager) Upgrade(weak Handle) (Handle, error) {
	return m.UpgradeFrom(m.env, weak)
}

// UpgradeFrom is Upgrade performed through the env of the calling thread.
// The weak entry stays locked until the promotion is done, so a concurrent
// Release of weak cannot delete the reference being promoted.
func (m *Manager) UpgradeFrom(env Env, weak Handle) (Handle, error) {
	if weak.IsNull() {
		return Null, nil
	}

	m.mu.Lock()
	e, err := m.lookup(weak)
	if err != nil {
		m.mu.Unlock()
		return Null, err
	}
	if e.kind != Weak {
		m.mu.Unlock()
		return Null, errors.New(errors.PhaseReference, errors.KindReference).
			Value(uint64(weak)).
			Detail("upgrade of %s handle", e.kind).
			Build()
	}
	raw := e.raw
	if env.IsSameObject(raw, 0) {
		m.mu.Unlock()
		return Null, nil
	}
	h, promoted, err := m.acquireLocked(env, raw, Global)
	if err != nil && env.IsSameObject(raw, 0) {
		m.mu.Unlock()
		return Null, nil
	}
	m.mu.Unlock()
	if err != nil {
		return Null, err
	}

	m.log.Debug("reference upgraded", zap.Stringer("weak", weak), zap.Stringer("handle", h))
	m.notify(Event{Type: EventAcquired, Handle: h, Raw: promoted, Kind: Global})
	return h, nil
}

// Release deletes the reference behind h. It must be called exactly once per
// handle; later calls with any copy of h fail with a stale-handle error.
// Releasing the null Handle is a no-op.
func (m *Manager) Release(h Handle) error {
	return m.ReleaseFrom(m.env, h)
}

// ReleaseFrom is Release performed through the env of the calling thread.
func (m *Manager) ReleaseFrom(env Env, h Handle) error {
	if h.IsNull() {
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.InvalidState("ref.Manager", "release", "closed")
	}
	e, err := m.lookup(h)
	if err != nil {
		m.mu.Unlock()
		m.log.Warn("rejected release of stale handle", zap.Stringer("handle", h))
		return err
	}
	if e.borrowCount > 0 {
		borrows := e.borrowCount
		m.mu.Unlock()
		m.log.Warn("rejected release of borrowed handle",
			zap.Stringer("handle", h), zap.Uint32("borrows", borrows))
		return errors.OutstandingBorrow(uint64(h), borrows)
	}

	raw, kind := e.raw, e.kind
	m.free(h.index())
	deleteRaw(env, raw, kind)
	m.mu.Unlock()

	m.log.Debug("reference released", zap.Stringer("handle", h), zap.Stringer("kind", kind))
	m.notify(Event{Type: EventReleased, Handle: h, Raw: raw, Kind: kind})
	return nil
}

// free invalidates slot idx and bumps its generation. Caller holds m.mu.
func (m *Manager) free(idx int) {
	e := &m.entries[idx]
	e.valid = false
	e.raw = 0
	e.borrowCount = 0
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	m.live--
	m.freeList = append(m.freeList, idx)
}

func deleteRaw(env Env, raw jbridge.Ref, kind Kind) {
	if kind == Weak {
		env.DeleteWeakGlobalRef(raw)
		return
	}
	env.DeleteGlobalRef(raw)
}

// Raw returns the raw reference behind h without borrowing it.
// The result must not be used once h may have been released.
func (m *Manager) Raw(h Handle) (jbridge.Ref, error) {
	if h.IsNull() {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(h)
	if err != nil {
		return 0, err
	}
	return e.raw, nil
}

// KindOf returns the reference kind of a live handle.
func (m *Manager) KindOf(h Handle) (Kind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.lookup(h)
	if err != nil {
		return Local, err
	}
	return e.kind, nil
}

// Valid reports whether h is a live handle.
func (m *Manager) Valid(h Handle) bool {
	if h.IsNull() {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.lookup(h)
	return err == nil
}

// IsSameObject reports whether a and b refer to the same runtime object.
// Null on either side yields false.
func (m *Manager) IsSameObject(a, b Handle) bool {
	return m.IsSameObjectFrom(m.env, a, b)
}

// IsSameObjectFrom is IsSameObject performed through the env of the calling
// thread.
func (m *Manager) IsSameObjectFrom(env Env, a, b Handle) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	ra, err := m.Raw(a)
	if err != nil {
		return false
	}
	rb, err := m.Raw(b)
	if err != nil {
		return false
	}
	return env.IsSameObject(ra, rb)
}

// Len returns the number of live handles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Each calls fn for every live handle until fn returns false.
func (m *Manager) Each(fn func(Handle, Kind) bool) {
	m.mu.Lock()
	type item struct {
		h Handle
		k Kind
	}
	items := make([]item, 0, m.live)
	for i, e := range m.entries {
		if e.valid {
			items = append(items, item{makeHandle(uint32(i), e.gen), e.kind})
		}
	}
	m.mu.Unlock()

	for _, it := range items {
		if !fn(it.h, it.k) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (m *Manager) Subscribe(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, o)
}

// Unsubscribe removes an observer.
func (m *Manager) Unsubscribe(o Observer) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	for i, obs := range m.observers {
		if obs == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

// Close releases every remaining reference through the manager's own env and
// reports each as a leak. It must run on that env's thread. It returns the
// number of leaked handles. Later operations fail.
func (m *Manager) Close() int {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0
	}
	m.closed = true

	var released []Event
	for i := range m.entries {
		e := &m.entries[i]
		if !e.valid {
			continue
		}
		h := makeHandle(uint32(i), e.gen)
		m.log.Warn("reference leaked",
			zap.Stringer("handle", h),
			zap.Stringer("kind", e.kind),
			zap.Uint32("borrows", e.borrowCount))
		released = append(released, Event{Type: EventReleased, Handle: h, Raw: e.raw, Kind: e.kind})
		deleteRaw(m.env, e.raw, e.kind)
		m.free(i)
	}
	m.entries = nil
	m.freeList = nil
	m.mu.Unlock()

	for _, ev := range released {
		m.notify(ev)
	}
	return len(released)
}

func (m *Manager) notify(e Event) {
	m.obsMu.RLock()
	defer m.obsMu.RUnlock()
	for _, o := range m.observers {
		o.OnReferenceEvent(e)
	}
}
