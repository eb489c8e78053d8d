package security

import (
	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

// KeyStore is a java/security/KeyStore.
type KeyStore struct{ binding.Object }

// LoadStoreParameter is a java/security/KeyStore$LoadStoreParameter. The
// zero value loads the store with default parameters.
type LoadStoreParameter struct{ binding.Object }

var keyStoreDecoder = binding.Decoder(KeyStoreClass, func(o binding.Object) KeyStore { return KeyStore{o} })

// GetKeyStore returns an unloaded key store of the given type.
func GetKeyStore(e *invoke.Engine, typ string) (KeyStore, error) {
	return invoke.CallStatic(e, KeyStoreClass, "getInstance", keyStoreDecoder, marshal.String.Arg(typ))
}

// DefaultKeyStoreType returns the runtime's default key store type.
func DefaultKeyStoreType(e *invoke.Engine) (string, error) {
	return invoke.CallStatic(e, KeyStoreClass, "getDefaultType", marshal.String)
}

// Type returns the store type.
func (ks KeyStore) Type() (string, error) {
	return invoke.Call(ks.Engine(), ks, "getType", marshal.String)
}

// Load loads the store. Every other operation fails until it has.
func (ks KeyStore) Load(param LoadStoreParameter) error {
	arg := param.Object
	if arg.IsNull() {
		arg = binding.Null(ks.Engine(), LoadStoreParameterClass)
	}
	return invoke.CallVoid(ks.Engine(), ks, "load", arg)
}

// ContainsAlias reports whether the store has an entry for alias.
func (ks KeyStore) ContainsAlias(alias string) (bool, error) {
	return invoke.Call(ks.Engine(), ks, "containsAlias", marshal.Boolean, marshal.String.Arg(alias))
}

// DeleteEntry removes the entry for alias. Deleting a missing entry is
// not an error.
func (ks KeyStore) DeleteEntry(alias string) error {
	return invoke.CallVoid(ks.Engine(), ks, "deleteEntry", marshal.String.Arg(alias))
}

// GetKey returns the key stored under alias, or a null Key when there is
// none. An empty password is passed as null.
func (ks KeyStore) GetKey(alias, password string) (Key, error) {
	pw := binding.Null(ks.Engine(), "[C")
	if password != "" {
		arr, err := binding.NewCharArray(ks.Engine(), password)
		if err != nil {
			return Key{}, err
		}
		defer func() {
			_ = arr.Clear()
			_ = arr.Close()
		}()
		pw = arr.Object
	}
	return invoke.Call(ks.Engine(), ks, "getKey", keyDecoder, marshal.String.Arg(alias), pw)
}

// GetCertificate returns the certificate stored under alias, or a null
// Certificate when there is none.
func (ks KeyStore) GetCertificate(alias string) (Certificate, error) {
	return invoke.Call(ks.Engine(), ks, "getCertificate", certificateDecoder, marshal.String.Arg(alias))
}

// Size returns the number of entries.
func (ks KeyStore) Size() (int32, error) {
	return invoke.Call(ks.Engine(), ks, "size", marshal.Int)
}

// KeyGenParameterSpec is an android/security/keystore/KeyGenParameterSpec.
type KeyGenParameterSpec struct{ binding.Object }

var keyGenSpecDecoder = binding.Decoder(KeyGenParameterSpecClass, func(o binding.Object) KeyGenParameterSpec { return KeyGenParameterSpec{o} })

// KeystoreAlias returns the alias the generated key is stored under.
func (s KeyGenParameterSpec) KeystoreAlias() (string, error) {
	return invoke.Call(s.Engine(), s, "getKeystoreAlias", marshal.String)
}

// Purposes returns the authorized key purposes.
func (s KeyGenParameterSpec) Purposes() (Purpose, error) {
	p, err := invoke.Call(s.Engine(), s, "getPurposes", marshal.Int)
	return Purpose(p), err
}

// KeySize returns the requested key size in bits, or -1 for the default.
func (s KeyGenParameterSpec) KeySize() (int32, error) {
	return invoke.Call(s.Engine(), s, "getKeySize", marshal.Int)
}

// Digests returns the authorized digest names.
func (s KeyGenParameterSpec) Digests() ([]string, error) {
	return invoke.Call(s.Engine(), s, "getDigests", marshal.Strings)
}

// EncryptionPaddings returns the authorized padding names.
func (s KeyGenParameterSpec) EncryptionPaddings() ([]string, error) {
	return invoke.Call(s.Engine(), s, "getEncryptionPaddings", marshal.Strings)
}

// KeyGenParameterSpecBuilder is a KeyGenParameterSpec$Builder.
type KeyGenParameterSpecBuilder struct{ binding.Object }

// NewKeyGenParameterSpecBuilder starts a spec for a key stored under alias.
func NewKeyGenParameterSpecBuilder(e *invoke.Engine, alias string, purposes Purpose) (KeyGenParameterSpecBuilder, error) {
	o, err := binding.New(e, KeyGenBuilderClass, marshal.String.Arg(alias), marshal.Int.Arg(int32(purposes)))
	if err != nil {
		return KeyGenParameterSpecBuilder{}, err
	}
	return KeyGenParameterSpecBuilder{o}, nil
}

// chain calls a setter returning the builder and drops the returned
// reference.
func (b KeyGenParameterSpecBuilder) chain(name string, arg marshal.Arg) error {
	self, err := invoke.Call(b.Engine(), b, name, binding.Of(KeyGenBuilderClass), arg)
	if err != nil {
		return err
	}
	return self.Close()
}

// SetDigests sets the authorized digests.
func (b KeyGenParameterSpecBuilder) SetDigests(d Digest) error {
	return b.chain("setDigests", marshal.Strings.Arg(d.Strings()))
}

// SetEncryptionPaddings sets the authorized encryption paddings.
func (b KeyGenParameterSpecBuilder) SetEncryptionPaddings(p EncryptionPadding) error {
	return b.chain("setEncryptionPaddings", marshal.Strings.Arg(p.Strings()))
}

// SetKeySize sets the key size in bits.
func (b KeyGenParameterSpecBuilder) SetKeySize(bits int32) error {
	return b.chain("setKeySize", marshal.Int.Arg(bits))
}

// Build returns the finished KeyGenParameterSpec.
func (b KeyGenParameterSpecBuilder) Build() (KeyGenParameterSpec, error) {
	return invoke.Call(b.Engine(), b, "build", keyGenSpecDecoder)
}

// KeyPairGenerator is a java/security/KeyPairGenerator.
type KeyPairGenerator struct{ binding.Object }

var keyPairGeneratorDecoder = binding.Decoder(KeyPairGeneratorClass, func(o binding.Object) KeyPairGenerator { return KeyPairGenerator{o} })

// GetKeyPairGenerator returns a generator for algorithm from the default
// provider.
func GetKeyPairGenerator(e *invoke.Engine, algorithm string) (KeyPairGenerator, error) {
	return invoke.CallStatic(e, KeyPairGeneratorClass, "getInstance", keyPairGeneratorDecoder,
		marshal.String.Arg(algorithm))
}

// GetKeyPairGeneratorFrom returns a generator for algorithm from provider.
func GetKeyPairGeneratorFrom(e *invoke.Engine, algorithm, provider string) (KeyPairGenerator, error) {
	return invoke.CallStatic(e, KeyPairGeneratorClass, "getInstance", keyPairGeneratorDecoder,
		marshal.String.Arg(algorithm), marshal.String.Arg(provider))
}

// Initialize configures the generator from spec.
func (g KeyPairGenerator) Initialize(spec KeyGenParameterSpec) error {
	return invoke.CallVoid(g.Engine(), g, "initialize", spec.As(AlgorithmParameterSpec))
}

// InitializeSize configures the key size of a generator that takes no
// parameter spec.
func (g KeyPairGenerator) InitializeSize(bits int32) error {
	return invoke.CallVoid(g.Engine(), g, "initialize", marshal.Int.Arg(bits))
}

// GenerateKeyPair generates a new key pair. With the AndroidKeyStore
// provider the pair is also stored under the parameter spec's alias.
func (g KeyPairGenerator) GenerateKeyPair() (KeyPair, error) {
	return invoke.Call(g.Engine(), g, "generateKeyPair", keyPairDecoder)
}
