package security

import "strings"

// Runtime class names bound by this package.
const (
	KeyStoreClass            = "java/security/KeyStore"
	LoadStoreParameterClass  = "java/security/KeyStore$LoadStoreParameter"
	KeyClass                 = "java/security/Key"
	PublicKeyClass           = "java/security/PublicKey"
	PrivateKeyClass          = "java/security/PrivateKey"
	KeyPairClass             = "java/security/KeyPair"
	KeyPairGeneratorClass    = "java/security/KeyPairGenerator"
	KeyFactoryClass          = "java/security/KeyFactory"
	CertificateClass         = "java/security/cert/Certificate"
	AlgorithmParameterSpec   = "java/security/spec/AlgorithmParameterSpec"
	KeySpecClass             = "java/security/spec/KeySpec"
	X509EncodedKeySpecClass  = "java/security/spec/X509EncodedKeySpec"
	KeyGenParameterSpecClass = "android/security/keystore/KeyGenParameterSpec"
	KeyGenBuilderClass       = "android/security/keystore/KeyGenParameterSpec$Builder"
	CipherClass              = "javax/crypto/Cipher"
)

// AndroidKeyStore names both the platform key store type and its provider.
const AndroidKeyStore = "AndroidKeyStore"

// AlgorithmRSA is the only key algorithm the bindings generate.
const AlgorithmRSA = "RSA"

// Purpose is a set of KeyProperties.PURPOSE_* flags.
type Purpose int32

const (
	PurposeEncrypt Purpose = 1 << iota
	PurposeDecrypt
	PurposeSign
	PurposeVerify
)

func (p Purpose) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		bit  Purpose
		name string
	}{
		{PurposeEncrypt, "encrypt"},
		{PurposeDecrypt, "decrypt"},
		{PurposeSign, "sign"},
		{PurposeVerify, "verify"},
	} {
		if p&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// Digest is a set of KeyProperties.DIGEST_* values.
type Digest uint8

const (
	DigestSHA1 Digest = 1 << iota
	DigestSHA224
	DigestSHA256
	DigestSHA384
	DigestSHA512
)

var digestNames = []struct {
	bit  Digest
	name string
}{
	{DigestSHA1, "SHA-1"},
	{DigestSHA224, "SHA-224"},
	{DigestSHA256, "SHA-256"},
	{DigestSHA384, "SHA-384"},
	{DigestSHA512, "SHA-512"},
}

// Strings returns the runtime names of the set. The empty set is "NONE".
func (d Digest) Strings() []string {
	if d == 0 {
		return []string{"NONE"}
	}
	var out []string
	for _, n := range digestNames {
		if d&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

// EncryptionPadding is a set of KeyProperties.ENCRYPTION_PADDING_* values.
type EncryptionPadding uint8

const (
	PaddingPKCS7 EncryptionPadding = 1 << iota
	PaddingOAEP
	PaddingPKCS1
)

// Strings returns the runtime names of the set. The empty set is
// "NoPadding".
func (p EncryptionPadding) Strings() []string {
	if p == 0 {
		return []string{"NoPadding"}
	}
	var out []string
	if p&PaddingPKCS7 != 0 {
		out = append(out, "PKCS7Padding")
	}
	if p&PaddingOAEP != 0 {
		out = append(out, "OAEPPadding")
	}
	if p&PaddingPKCS1 != 0 {
		out = append(out, "PKCS1Padding")
	}
	return out
}
