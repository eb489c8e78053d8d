package security

import (
	"sync"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
)

// State is the lifecycle state of key material under one alias.
type State uint8

const (
	// Absent means the store has no entry for the alias.
	Absent State = iota
	// GeneratedUnstored means a pair was generated through this Keychain
	// but the store has not yet reported an entry for it.
	GeneratedUnstored
	// Stored means the store has an entry for the alias.
	Stored
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case GeneratedUnstored:
		return "generated"
	case Stored:
		return "stored"
	default:
		return "unknown"
	}
}

// KeyOptions configures key generation.
type KeyOptions struct {
	Purpose Purpose
	Digest  Digest
	Padding EncryptionPadding
	KeySize int32 // zero selects the provider default
}

// Keychain tracks RSA key material kept in a loaded KeyStore. Keys are
// generated through the AndroidKeyStore provider.
type Keychain struct {
	e     *invoke.Engine
	store KeyStore

	mu      sync.Mutex
	pending map[string]struct{}
}

// OpenKeychain loads a key store of type storeType and wraps it.
func OpenKeychain(e *invoke.Engine, storeType string) (*Keychain, error) {
	ks, err := GetKeyStore(e, storeType)
	if err != nil {
		return nil, err
	}
	if err := ks.Load(LoadStoreParameter{}); err != nil {
		ks.Close()
		return nil, err
	}
	return &Keychain{e: e, store: ks, pending: make(map[string]struct{})}, nil
}

// Store returns the underlying key store. It stays owned by the Keychain.
func (k *Keychain) Store() KeyStore { return k.store }

// Generate creates a key pair under alias. The returned pair is owned by
// the caller.
func (k *Keychain) Generate(alias string, opts KeyOptions) (KeyPair, error) {
	if alias == "" {
		return KeyPair{}, errors.InvalidInput(errors.PhaseEncode, "empty key alias")
	}
	b, err := NewKeyGenParameterSpecBuilder(k.e, alias, opts.Purpose)
	if err != nil {
		return KeyPair{}, err
	}
	defer b.Close()
	if err := b.SetDigests(opts.Digest); err != nil {
		return KeyPair{}, err
	}
	if err := b.SetEncryptionPaddings(opts.Padding); err != nil {
		return KeyPair{}, err
	}
	if opts.KeySize > 0 {
		if err := b.SetKeySize(opts.KeySize); err != nil {
			return KeyPair{}, err
		}
	}
	spec, err := b.Build()
	if err != nil {
		return KeyPair{}, err
	}
	defer spec.Close()

	g, err := GetKeyPairGeneratorFrom(k.e, AlgorithmRSA, AndroidKeyStore)
	if err != nil {
		return KeyPair{}, err
	}
	defer g.Close()
	if err := g.Initialize(spec); err != nil {
		return KeyPair{}, err
	}
	pair, err := g.GenerateKeyPair()
	if err != nil {
		return KeyPair{}, err
	}

	k.mu.Lock()
	k.pending[alias] = struct{}{}
	k.mu.Unlock()
	return pair, nil
}

// State reports the lifecycle state of alias.
func (k *Keychain) State(alias string) (State, error) {
	ok, err := k.store.ContainsAlias(alias)
	if err != nil {
		return Absent, err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if ok {
		delete(k.pending, alias)
		return Stored, nil
	}
	if _, generated := k.pending[alias]; generated {
		return GeneratedUnstored, nil
	}
	return Absent, nil
}

// PrivateKey returns the private key stored under alias, or a null
// PrivateKey when there is none.
func (k *Keychain) PrivateKey(alias string) (PrivateKey, error) {
	key, err := k.store.GetKey(alias, "")
	if err != nil {
		return PrivateKey{}, err
	}
	defer key.Close()
	return key.AsPrivate()
}

// PublicKey returns the public key of the certificate stored under alias,
// or a null PublicKey when there is none.
func (k *Keychain) PublicKey(alias string) (PublicKey, error) {
	cert, err := k.store.GetCertificate(alias)
	if err != nil || cert.IsNull() {
		return PublicKey{}, err
	}
	defer cert.Close()
	return cert.PublicKey()
}

// Delete removes the entry for alias.
func (k *Keychain) Delete(alias string) error {
	if err := k.store.DeleteEntry(alias); err != nil {
		return err
	}
	k.mu.Lock()
	delete(k.pending, alias)
	k.mu.Unlock()
	return nil
}

// Close releases the key store.
func (k *Keychain) Close() error {
	return k.store.Close()
}
