package javalib

import (
	"sort"
	"sync"
	"time"
)

// Edit is one pending change of a SharedPreferences editor.
// Value is a string, bool, int32 or int64.
type Edit struct {
	Value  any
	Key    string
	Remove bool
}

// PrefsStore persists SharedPreferences files.
type PrefsStore interface {
	// Load returns every value of the named file.
	Load(file string) (map[string]any, error)

	// Apply commits edits to the named file atomically. When clear is set
	// the file is emptied before the edits are applied.
	Apply(file string, clear bool, edits []Edit) error
}

// KeyEntry is a stored key pair.
type KeyEntry struct {
	Created     time.Time `cbor:"created"`
	Alias       string    `cbor:"alias"`
	Algorithm   string    `cbor:"algorithm"`
	PrivateKey  []byte    `cbor:"private_key"` // PKCS#8 DER
	Certificate []byte    `cbor:"certificate"` // X.509 DER
	Digests     []string  `cbor:"digests,omitempty"`
	Paddings    []string  `cbor:"paddings,omitempty"`
	Purposes    int32     `cbor:"purposes"`
	KeySize     int32     `cbor:"key_size"`
}

// KeyStoreBackend persists AndroidKeyStore entries.
type KeyStoreBackend interface {
	// Get returns the entry for alias, or nil if there is none.
	Get(alias string) (*KeyEntry, error)
	Put(e *KeyEntry) error
	// Delete removes alias and reports whether it existed.
	Delete(alias string) (bool, error)
	Aliases() ([]string, error)
}

// MemoryPrefs is an in-memory PrefsStore.
type MemoryPrefs struct {
	files map[string]map[string]any
	mu    sync.Mutex
}

// NewMemoryPrefs creates an empty MemoryPrefs.
func NewMemoryPrefs() *MemoryPrefs {
	return &MemoryPrefs{files: make(map[string]map[string]any)}
}

// Load implements PrefsStore.
func (m *MemoryPrefs) Load(file string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.files[file]))
	for k, v := range m.files[file] {
		out[k] = v
	}
	return out, nil
}

// Apply implements PrefsStore.
func (m *MemoryPrefs) Apply(file string, clear bool, edits []Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := m.files[file]
	if f == nil || clear {
		f = make(map[string]any)
		m.files[file] = f
	}
	for _, e := range edits {
		if e.Remove {
			delete(f, e.Key)
			continue
		}
		f[e.Key] = e.Value
	}
	return nil
}

// MemoryKeyStore is an in-memory KeyStoreBackend.
type MemoryKeyStore struct {
	entries map[string]KeyEntry
	mu      sync.Mutex
}

// NewMemoryKeyStore creates an empty MemoryKeyStore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{entries: make(map[string]KeyEntry)}
}

// Get implements KeyStoreBackend.
func (m *MemoryKeyStore) Get(alias string) (*KeyEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[alias]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Put implements KeyStoreBackend.
func (m *MemoryKeyStore) Put(e *KeyEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Alias] = *e
	return nil
}

// Delete implements KeyStoreBackend.
func (m *MemoryKeyStore) Delete(alias string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[alias]
	delete(m.entries, alias)
	return ok, nil
}

// Aliases implements KeyStoreBackend.
func (m *MemoryKeyStore) Aliases() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for a := range m.entries {
		out = append(out, a)
	}
	sort.Strings(out)
	return out, nil
}
