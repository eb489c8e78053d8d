package security

import (
	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
)

// Key is a java/security/Key.
type Key struct{ binding.Object }

// PublicKey is a java/security/PublicKey.
type PublicKey struct{ Key }

// PrivateKey is a java/security/PrivateKey.
type PrivateKey struct{ Key }

var (
	keyDecoder        = binding.Decoder(KeyClass, func(o binding.Object) Key { return Key{o} })
	publicKeyDecoder  = binding.Decoder(PublicKeyClass, func(o binding.Object) PublicKey { return PublicKey{Key{o}} })
	privateKeyDecoder = binding.Decoder(PrivateKeyClass, func(o binding.Object) PrivateKey { return PrivateKey{Key{o}} })
)

// AsKey passes k as a java/security/Key parameter.
func (k Key) AsKey() marshal.Arg { return k.As(KeyClass) }

// Algorithm returns the key algorithm, for example "RSA".
func (k Key) Algorithm() (string, error) {
	return invoke.Call(k.Engine(), k, "getAlgorithm", marshal.String)
}

// Format returns the encoding format name, or nil when the key material
// cannot be exported.
func (k Key) Format() (*string, error) {
	return invoke.Call(k.Engine(), k, "getFormat", marshal.NullableString)
}

// Encoded returns the encoded key, or nil when the key material cannot be
// exported.
func (k Key) Encoded() ([]byte, error) {
	return invoke.Call(k.Engine(), k, "getEncoded", marshal.Bytes)
}

// AsPrivate binds the key as a PrivateKey under a new handle. It fails if
// the key is not private.
func (k Key) AsPrivate() (PrivateKey, error) {
	return binding.Cast(k.Object, PrivateKeyClass, func(o binding.Object) PrivateKey { return PrivateKey{Key{o}} })
}

// KeyPair is a java/security/KeyPair.
type KeyPair struct{ binding.Object }

var keyPairDecoder = binding.Decoder(KeyPairClass, func(o binding.Object) KeyPair { return KeyPair{o} })

// Public returns the public half.
func (p KeyPair) Public() (PublicKey, error) {
	return invoke.Call(p.Engine(), p, "getPublic", publicKeyDecoder)
}

// Private returns the private half.
func (p KeyPair) Private() (PrivateKey, error) {
	return invoke.Call(p.Engine(), p, "getPrivate", privateKeyDecoder)
}

// Certificate is a java/security/cert/Certificate.
type Certificate struct{ binding.Object }

var certificateDecoder = binding.Decoder(CertificateClass, func(o binding.Object) Certificate { return Certificate{o} })

// PublicKey returns the certified public key.
func (c Certificate) PublicKey() (PublicKey, error) {
	return invoke.Call(c.Engine(), c, "getPublicKey", publicKeyDecoder)
}

// Encoded returns the DER encoding of the certificate.
func (c Certificate) Encoded() ([]byte, error) {
	return invoke.Call(c.Engine(), c, "getEncoded", marshal.Bytes)
}

// X509EncodedKeySpec is a java/security/spec/X509EncodedKeySpec.
type X509EncodedKeySpec struct{ binding.Object }

// NewX509EncodedKeySpec wraps a DER SubjectPublicKeyInfo.
func NewX509EncodedKeySpec(e *invoke.Engine, der []byte) (X509EncodedKeySpec, error) {
	o, err := binding.New(e, X509EncodedKeySpecClass, marshal.Bytes.Arg(der))
	if err != nil {
		return X509EncodedKeySpec{}, err
	}
	return X509EncodedKeySpec{o}, nil
}

// Encoded returns the wrapped encoding.
func (s X509EncodedKeySpec) Encoded() ([]byte, error) {
	return invoke.Call(s.Engine(), s, "getEncoded", marshal.Bytes)
}

// KeyFactory is a java/security/KeyFactory.
type KeyFactory struct{ binding.Object }

var keyFactoryDecoder = binding.Decoder(KeyFactoryClass, func(o binding.Object) KeyFactory { return KeyFactory{o} })

// GetKeyFactory returns a factory for algorithm.
func GetKeyFactory(e *invoke.Engine, algorithm string) (KeyFactory, error) {
	return invoke.CallStatic(e, KeyFactoryClass, "getInstance", keyFactoryDecoder, marshal.String.Arg(algorithm))
}

// GeneratePublic rebuilds a public key from its X.509 encoding.
func (f KeyFactory) GeneratePublic(spec X509EncodedKeySpec) (PublicKey, error) {
	return invoke.Call(f.Engine(), f, "generatePublic", publicKeyDecoder, spec.As(KeySpecClass))
}
