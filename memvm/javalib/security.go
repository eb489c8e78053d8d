package javalib

import (
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"time"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Class names defined by this file.
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
	X509CertificateClass     = "java/security/cert/X509Certificate"
	AlgorithmParameterSpec   = "java/security/spec/AlgorithmParameterSpec"
	KeySpecClass             = "java/security/spec/KeySpec"
	EncodedKeySpecClass      = "java/security/spec/EncodedKeySpec"
	X509EncodedKeySpecClass  = "java/security/spec/X509EncodedKeySpec"
	KeyPropertiesClass       = "android/security/keystore/KeyProperties"
	KeyGenParameterSpecClass = "android/security/keystore/KeyGenParameterSpec"
	KeyGenBuilderClass       = "android/security/keystore/KeyGenParameterSpec$Builder"

	rsaPublicKeyIface   = "java/security/interfaces/RSAPublicKey"
	rsaPrivateKeyIface  = "java/security/interfaces/RSAPrivateKey"
	aksPublicKeyClass   = "android/security/keystore2/AndroidKeyStoreRSAPublicKey"
	aksPrivateKeyClass  = "android/security/keystore2/AndroidKeyStoreRSAPrivateKey"
	sslPublicKeyClass   = "com/android/org/conscrypt/OpenSSLRSAPublicKey"
	sslPrivateKeyClass  = "com/android/org/conscrypt/OpenSSLRSAPrivateKey"
	sslCertificateClass = "com/android/org/conscrypt/OpenSSLX509Certificate"

	// AndroidKeyStore is the provider and key store type backed by the
	// library's KeyStoreBackend.
	AndroidKeyStore = "AndroidKeyStore"
)

// Security exception classes.
const (
	GeneralSecurityException           = "java/security/GeneralSecurityException"
	KeyStoreException                  = "java/security/KeyStoreException"
	NoSuchAlgorithmException           = "java/security/NoSuchAlgorithmException"
	NoSuchProviderException            = "java/security/NoSuchProviderException"
	InvalidKeyException                = "java/security/InvalidKeyException"
	InvalidAlgorithmParameterException = "java/security/InvalidAlgorithmParameterException"
	UnrecoverableKeyException          = "java/security/UnrecoverableKeyException"
	InvalidKeySpecException            = "java/security/spec/InvalidKeySpecException"
	ProviderException                  = "java/security/ProviderException"
)

// Key purposes as in android.security.keystore.KeyProperties.
const (
	PurposeEncrypt int32 = 1
	PurposeDecrypt int32 = 2
	PurposeSign    int32 = 4
	PurposeVerify  int32 = 8
)

type keyStore struct {
	backend KeyStoreBackend
	typ     string
	loaded  bool
}

type keyGenSpec struct {
	alias    string
	digests  []string
	paddings []string
	purposes int32
	keySize  int32
}

type keyPairGenerator struct {
	spec      *keyGenSpec
	algorithm string
	provider  string
	keySize   int32
}

// storedKey is the Native value of key objects.
type storedKey struct {
	public  *rsa.PublicKey
	private *rsa.PrivateKey
	alias   string
}

const (
	str       = "Ljava/lang/String;"
	bytesSig  = "[B"
	keySig    = "Ljava/security/Key;"
	pubSig    = "Ljava/security/PublicKey;"
	privSig   = "Ljava/security/PrivateKey;"
	certSig   = "Ljava/security/cert/Certificate;"
	ksSig     = "Ljava/security/KeyStore;"
	lspSig    = "Ljava/security/KeyStore$LoadStoreParameter;"
	kpSig     = "Ljava/security/KeyPair;"
	kpgSig    = "Ljava/security/KeyPairGenerator;"
	kfSig     = "Ljava/security/KeyFactory;"
	specSig   = "Ljava/security/spec/AlgorithmParameterSpec;"
	keySpec   = "Ljava/security/spec/KeySpec;"
	kgpsSig   = "Landroid/security/keystore/KeyGenParameterSpec;"
	kgpsbSig  = "Landroid/security/keystore/KeyGenParameterSpec$Builder;"
	stringArr = "[Ljava/lang/String;"
)

func (l *Library) securityClasses() []memvm.ClassDef {
	defs := []memvm.ClassDef{
		memvm.ExceptionClass(GeneralSecurityException, "java/lang/Exception"),
		memvm.ExceptionClass(KeyStoreException, GeneralSecurityException),
		memvm.ExceptionClass(NoSuchAlgorithmException, GeneralSecurityException),
		memvm.ExceptionClass(NoSuchProviderException, GeneralSecurityException),
		memvm.ExceptionClass(InvalidKeyException, GeneralSecurityException),
		memvm.ExceptionClass(InvalidAlgorithmParameterException, GeneralSecurityException),
		memvm.ExceptionClass(UnrecoverableKeyException, GeneralSecurityException),
		memvm.ExceptionClass(InvalidKeySpecException, GeneralSecurityException),
		memvm.ExceptionClass(ProviderException, memvm.RuntimeException),

		{Name: LoadStoreParameterClass, Interface: true},
		{Name: AlgorithmParameterSpec, Interface: true},
		{Name: KeySpecClass, Interface: true},
		{
			Name:      KeyClass,
			Interface: true,
			Methods: []memvm.MethodDef{
				abstract("getAlgorithm", "()"+str),
				abstract("getEncoded", "()"+bytesSig),
				abstract("getFormat", "()"+str),
			},
		},
		{Name: PublicKeyClass, Interface: true, Interfaces: []string{KeyClass}},
		{Name: PrivateKeyClass, Interface: true, Interfaces: []string{KeyClass}},
		{Name: rsaPublicKeyIface, Interface: true, Interfaces: []string{PublicKeyClass}},
		{Name: rsaPrivateKeyIface, Interface: true, Interfaces: []string{PrivateKeyClass}},
		keyClass(aksPublicKeyClass, rsaPublicKeyIface),
		keyClass(aksPrivateKeyClass, rsaPrivateKeyIface),
		keyClass(sslPublicKeyClass, rsaPublicKeyIface),
		keyClass(sslPrivateKeyClass, rsaPrivateKeyIface),
		{
			Name: KeyPairClass,
			Fields: []memvm.FieldDef{
				{Name: "publicKey", Type: pubSig, Private: true},
				{Name: "privateKey", Type: privSig, Private: true},
			},
			Methods: []memvm.MethodDef{
				method("<init>", "("+pubSig+privSig+")V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					this.SetRef("publicKey", env.Object(args[0]))
					this.SetRef("privateKey", env.Object(args[1]))
					return jbridge.Void, nil
				}),
				method("getPublic", "()"+pubSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this.Ref("publicKey")), nil
				}),
				method("getPrivate", "()"+privSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(this.Ref("privateKey")), nil
				}),
			},
		},
		{
			Name:     CertificateClass,
			Abstract: true,
			Methods: []memvm.MethodDef{
				abstract("getPublicKey", "()"+pubSig),
				abstract("getEncoded", "()"+bytesSig),
				abstract("getType", "()"+str),
			},
		},
		{Name: X509CertificateClass, Super: CertificateClass, Abstract: true},
		{
			Name:  sslCertificateClass,
			Super: X509CertificateClass,
			Methods: []memvm.MethodDef{
				method("getPublicKey", "()"+pubSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					cert := this.Native.(*x509.Certificate)
					pub, ok := cert.PublicKey.(*rsa.PublicKey)
					if !ok {
						return jbridge.Null, memvm.Throw(ProviderException, "unsupported certificate key")
					}
					return newKey(env, sslPublicKeyClass, &storedKey{public: pub})
				}),
				method("getEncoded", "()"+bytesSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(env.NewBytes(this.Native.(*x509.Certificate).Raw)), nil
				}),
				method("getType", "()"+str, func(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString("X.509"), nil
				}),
			},
		},
		{
			Name:       EncodedKeySpecClass,
			Abstract:   true,
			Interfaces: []string{KeySpecClass},
			Methods: []memvm.MethodDef{
				method("getEncoded", "()"+bytesSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(env.NewBytes(this.Native.([]byte))), nil
				}),
			},
		},
		{
			Name:  X509EncodedKeySpecClass,
			Super: EncodedKeySpecClass,
			Methods: []memvm.MethodDef{
				method("<init>", "("+bytesSig+")V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					b := env.Object(args[0])
					if b == nil {
						return jbridge.Void, memvm.Throw(memvm.NullPointerException, "encodedKey == null")
					}
					this.Native = b.Bytes()
					return jbridge.Void, nil
				}),
				method("getFormat", "()"+str, func(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString("X.509"), nil
				}),
			},
		},
		{
			Name: KeyFactoryClass,
			Methods: []memvm.MethodDef{
				static("getInstance", "("+str+")"+kfSig, func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					alg, err := nonNullString(env, args[0], "algorithm")
					if err != nil {
						return jbridge.Null, err
					}
					if alg != "RSA" {
						return jbridge.Null, memvm.Throwf(NoSuchAlgorithmException, "%s KeyFactory not available", alg)
					}
					o, err := env.New(KeyFactoryClass)
					if err != nil {
						return jbridge.Null, err
					}
					return env.Value(o), nil
				}),
				method("generatePublic", "("+keySpec+")"+pubSig, func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					spec := env.Object(args[0])
					if spec == nil || !spec.IsInstanceOf(X509EncodedKeySpecClass) {
						return jbridge.Null, memvm.Throw(InvalidKeySpecException, "only X509EncodedKeySpec is supported")
					}
					parsed, err := x509.ParsePKIXPublicKey(spec.Native.([]byte))
					if err != nil {
						return jbridge.Null, memvm.Throw(InvalidKeySpecException, err.Error())
					}
					pub, ok := parsed.(*rsa.PublicKey)
					if !ok {
						return jbridge.Null, memvm.Throw(InvalidKeySpecException, "not an RSA public key")
					}
					return newKey(env, sslPublicKeyClass, &storedKey{public: pub})
				}),
			},
		},
		{
			Name: KeyPropertiesClass,
			Fields: []memvm.FieldDef{
				{Name: "PURPOSE_ENCRYPT", Type: "I", Static: true, Final: true, Value: jbridge.Int(PurposeEncrypt)},
				{Name: "PURPOSE_DECRYPT", Type: "I", Static: true, Final: true, Value: jbridge.Int(PurposeDecrypt)},
				{Name: "PURPOSE_SIGN", Type: "I", Static: true, Final: true, Value: jbridge.Int(PurposeSign)},
				{Name: "PURPOSE_VERIFY", Type: "I", Static: true, Final: true, Value: jbridge.Int(PurposeVerify)},
			},
		},
		{
			Name:       KeyGenParameterSpecClass,
			Interfaces: []string{AlgorithmParameterSpec},
			Methods: []memvm.MethodDef{
				method("getKeystoreAlias", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*keyGenSpec).alias), nil
				}),
				method("getPurposes", "()I", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(this.Native.(*keyGenSpec).purposes), nil
				}),
				method("getKeySize", "()I", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(this.Native.(*keyGenSpec).keySize), nil
				}),
				method("getDigests", "()"+stringArr, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(env.NewStrings(this.Native.(*keyGenSpec).digests)), nil
				}),
				method("getEncryptionPaddings", "()"+stringArr, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.Value(env.NewStrings(this.Native.(*keyGenSpec).paddings)), nil
				}),
			},
		},
		{
			Name: KeyGenBuilderClass,
			Methods: []memvm.MethodDef{
				method("<init>", "("+str+"I)V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					alias, err := nonNullString(env, args[0], "keystoreAlias")
					if err != nil {
						return jbridge.Void, err
					}
					if alias == "" {
						return jbridge.Void, memvm.Throw(memvm.IllegalArgumentException, "keystoreAlias must not be empty")
					}
					this.Native = &keyGenSpec{alias: alias, purposes: args[1].Int(), keySize: -1}
					return jbridge.Void, nil
				}),
				method("setDigests", "("+stringArr+")"+kgpsbSig, builderStrings(func(s *keyGenSpec, v []string) { s.digests = v })),
				method("setEncryptionPaddings", "("+stringArr+")"+kgpsbSig, builderStrings(func(s *keyGenSpec, v []string) { s.paddings = v })),
				method("setKeySize", "(I)"+kgpsbSig, func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					if args[0].Int() <= 0 {
						return jbridge.Null, memvm.Throw(memvm.IllegalArgumentException, "keySize < 0")
					}
					this.Native.(*keyGenSpec).keySize = args[0].Int()
					return env.Value(this), nil
				}),
				method("build", "()"+kgpsSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					o, err := env.New(KeyGenParameterSpecClass)
					if err != nil {
						return jbridge.Null, err
					}
					spec := *this.Native.(*keyGenSpec)
					spec.digests = append([]string(nil), spec.digests...)
					spec.paddings = append([]string(nil), spec.paddings...)
					o.Native = &spec
					return env.Value(o), nil
				}),
			},
		},
		{
			Name: KeyPairGeneratorClass,
			Methods: []memvm.MethodDef{
				static("getInstance", "("+str+")"+kpgSig, l.newKeyPairGenerator),
				static("getInstance", "("+str+str+")"+kpgSig, l.newKeyPairGenerator),
				method("getAlgorithm", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*keyPairGenerator).algorithm), nil
				}),
				method("initialize", "(I)V", func(_ *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					g := this.Native.(*keyPairGenerator)
					if g.provider == AndroidKeyStore {
						return jbridge.Void, memvm.Throw(InvalidAlgorithmParameterException,
							"AndroidKeyStore requires a KeyGenParameterSpec")
					}
					if args[0].Int() < 512 {
						return jbridge.Void, memvm.Throwf(InvalidAlgorithmParameterException, "key size %d too small", args[0].Int())
					}
					g.keySize = args[0].Int()
					return jbridge.Void, nil
				}),
				method("initialize", "("+specSig+")V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					specObj := env.Object(args[0])
					if specObj == nil || !specObj.IsInstanceOf(KeyGenParameterSpecClass) {
						return jbridge.Void, memvm.Throw(InvalidAlgorithmParameterException, "unsupported parameter spec")
					}
					g := this.Native.(*keyPairGenerator)
					g.spec = specObj.Native.(*keyGenSpec)
					if g.spec.keySize > 0 {
						g.keySize = g.spec.keySize
					}
					return jbridge.Void, nil
				}),
				method("generateKeyPair", "()"+kpSig, l.generateKeyPair),
			},
		},
		{
			Name: KeyStoreClass,
			Methods: []memvm.MethodDef{
				static("getInstance", "("+str+")"+ksSig, l.newKeyStore),
				static("getDefaultType", "()"+str, func(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString("BKS"), nil
				}),
				method("getType", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*keyStore).typ), nil
				}),
				method("load", "("+lspSig+")V", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					this.Native.(*keyStore).loaded = true
					return jbridge.Void, nil
				}),
				method("containsAlias", "("+str+")Z", keyStoreOp(func(_ *memvm.Env, ks *keyStore, alias string, _ []jbridge.Value) (jbridge.Value, error) {
					e, err := ks.backend.Get(alias)
					if err != nil {
						return jbridge.Boolean(false), memvm.Throw(KeyStoreException, err.Error())
					}
					return jbridge.Boolean(e != nil), nil
				})),
				method("deleteEntry", "("+str+")V", keyStoreOp(func(_ *memvm.Env, ks *keyStore, alias string, _ []jbridge.Value) (jbridge.Value, error) {
					if _, err := ks.backend.Delete(alias); err != nil {
						return jbridge.Void, memvm.Throw(KeyStoreException, err.Error())
					}
					return jbridge.Void, nil
				})),
				method("getKey", "("+str+"[C)"+keySig, keyStoreOp(func(env *memvm.Env, ks *keyStore, alias string, _ []jbridge.Value) (jbridge.Value, error) {
					e, err := ks.backend.Get(alias)
					if err != nil {
						return jbridge.Null, memvm.Throw(KeyStoreException, err.Error())
					}
					if e == nil {
						return jbridge.Null, nil
					}
					parsed, err := x509.ParsePKCS8PrivateKey(e.PrivateKey)
					if err != nil {
						return jbridge.Null, memvm.Throw(UnrecoverableKeyException, err.Error())
					}
					priv, ok := parsed.(*rsa.PrivateKey)
					if !ok {
						return jbridge.Null, memvm.Throw(UnrecoverableKeyException, "not an RSA key")
					}
					return newKey(env, aksPrivateKeyClass, &storedKey{private: priv, public: &priv.PublicKey, alias: alias})
				})),
				method("getCertificate", "("+str+")"+certSig, keyStoreOp(func(env *memvm.Env, ks *keyStore, alias string, _ []jbridge.Value) (jbridge.Value, error) {
					e, err := ks.backend.Get(alias)
					if err != nil {
						return jbridge.Null, memvm.Throw(KeyStoreException, err.Error())
					}
					if e == nil {
						return jbridge.Null, nil
					}
					cert, err := x509.ParseCertificate(e.Certificate)
					if err != nil {
						return jbridge.Null, memvm.Throw(KeyStoreException, err.Error())
					}
					o, err := env.New(sslCertificateClass)
					if err != nil {
						return jbridge.Null, err
					}
					o.Native = cert
					return env.Value(o), nil
				})),
				method("size", "()I", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					ks := this.Native.(*keyStore)
					if !ks.loaded {
						return jbridge.Int(0), memvm.Throw(KeyStoreException, "Uninitialized keystore")
					}
					aliases, err := ks.backend.Aliases()
					if err != nil {
						return jbridge.Int(0), memvm.Throw(KeyStoreException, err.Error())
					}
					return jbridge.Int(int32(len(aliases))), nil
				}),
			},
		},
	}
	return defs
}

func keyClass(name, iface string) memvm.ClassDef {
	public := iface == rsaPublicKeyIface
	return memvm.ClassDef{
		Name:       name,
		Interfaces: []string{iface},
		Methods: []memvm.MethodDef{
			method("getAlgorithm", "()"+str, func(env *memvm.Env, _ *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				return env.RetString("RSA"), nil
			}),
			method("getFormat", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				k := this.Native.(*storedKey)
				switch {
				case public:
					return env.RetString("X.509"), nil
				case k.alias != "":
					return jbridge.Null, nil
				default:
					return env.RetString("PKCS#8"), nil
				}
			}),
			method("getEncoded", "()"+bytesSig, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				k := this.Native.(*storedKey)
				if public {
					der, err := x509.MarshalPKIXPublicKey(k.public)
					if err != nil {
						return jbridge.Null, memvm.Throw(ProviderException, err.Error())
					}
					return env.Value(env.NewBytes(der)), nil
				}
				// Key store private keys never leave the key store.
				if k.alias != "" {
					return jbridge.Null, nil
				}
				der, err := x509.MarshalPKCS8PrivateKey(k.private)
				if err != nil {
					return jbridge.Null, memvm.Throw(ProviderException, err.Error())
				}
				return env.Value(env.NewBytes(der)), nil
			}),
			method("toString", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
				k := this.Native.(*storedKey)
				kind := "private"
				if public {
					kind = "public"
				}
				s := "RSA " + kind + " key, " + itoa(k.public.N.BitLen()) + " bits"
				if k.alias != "" {
					s += ", alias " + k.alias
				}
				return env.RetString(s), nil
			}),
		},
	}
}

func itoa(n int) string {
	return big.NewInt(int64(n)).String()
}

func newKey(env *memvm.Env, class string, k *storedKey) (jbridge.Value, error) {
	o, err := env.New(class)
	if err != nil {
		return jbridge.Null, err
	}
	o.Native = k
	return env.Value(o), nil
}

func builderStrings(set func(*keyGenSpec, []string)) memvm.Method {
	return func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
		var values []string
		if arr := env.Object(args[0]); arr != nil {
			for _, el := range arr.Elements() {
				if el == nil {
					return jbridge.Null, memvm.Throw(memvm.NullPointerException, "null element")
				}
				values = append(values, el.Text())
			}
		}
		set(this.Native.(*keyGenSpec), values)
		return env.Value(this), nil
	}
}

// keyStoreOp wraps a KeyStore method taking an alias first.
func keyStoreOp(fn func(env *memvm.Env, ks *keyStore, alias string, args []jbridge.Value) (jbridge.Value, error)) memvm.Method {
	return func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
		ks := this.Native.(*keyStore)
		if !ks.loaded {
			return jbridge.Null, memvm.Throw(KeyStoreException, "Uninitialized keystore")
		}
		alias, err := nonNullString(env, args[0], "alias")
		if err != nil {
			return jbridge.Null, err
		}
		return fn(env, ks, alias, args[1:])
	}
}

func (l *Library) newKeyStore(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	typ, err := nonNullString(env, args[0], "type")
	if err != nil {
		return jbridge.Null, err
	}
	ks := &keyStore{typ: typ}
	switch typ {
	case AndroidKeyStore:
		ks.backend = l.keys
	case "BKS", "PKCS12":
		ks.backend = NewMemoryKeyStore()
	default:
		return jbridge.Null, memvm.Throwf(KeyStoreException, "%s not found", typ)
	}
	o, err := env.New(KeyStoreClass)
	if err != nil {
		return jbridge.Null, err
	}
	o.Native = ks
	return env.Value(o), nil
}

func (l *Library) newKeyPairGenerator(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	alg, err := nonNullString(env, args[0], "algorithm")
	if err != nil {
		return jbridge.Null, err
	}
	if alg != "RSA" {
		return jbridge.Null, memvm.Throwf(NoSuchAlgorithmException, "%s KeyPairGenerator not available", alg)
	}
	g := &keyPairGenerator{algorithm: alg, keySize: DefaultKeySize}
	if len(args) > 1 {
		provider, err := nonNullString(env, args[1], "provider")
		if err != nil {
			return jbridge.Null, err
		}
		if provider != AndroidKeyStore {
			return jbridge.Null, memvm.Throwf(NoSuchProviderException, "no such provider: %s", provider)
		}
		g.provider = provider
	}
	o, err := env.New(KeyPairGeneratorClass)
	if err != nil {
		return jbridge.Null, err
	}
	o.Native = g
	return env.Value(o), nil
}

// generateKeyPair creates an RSA key pair. With the AndroidKeyStore
// provider the pair and a self-signed certificate are stored under the
// spec's alias before the pair is returned.
func (l *Library) generateKeyPair(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
	g := this.Native.(*keyPairGenerator)
	if g.provider == AndroidKeyStore && g.spec == nil {
		return jbridge.Null, memvm.Throw(memvm.IllegalStateException, "KeyPairGenerator not initialized")
	}

	priv, err := rsa.GenerateKey(l.rand, int(g.keySize))
	if err != nil {
		return jbridge.Null, memvm.Throw(ProviderException, err.Error())
	}

	pubClass, privClass := sslPublicKeyClass, sslPrivateKeyClass
	alias := ""
	if g.provider == AndroidKeyStore {
		alias = g.spec.alias
		if err := l.storeKeyPair(g, priv); err != nil {
			return jbridge.Null, err
		}
		pubClass, privClass = aksPublicKeyClass, aksPrivateKeyClass
	}

	pair, err := env.New(KeyPairClass)
	if err != nil {
		return jbridge.Null, err
	}
	pub, err := env.New(pubClass)
	if err != nil {
		return jbridge.Null, err
	}
	pub.Native = &storedKey{public: &priv.PublicKey, alias: alias}
	prv, err := env.New(privClass)
	if err != nil {
		return jbridge.Null, err
	}
	prv.Native = &storedKey{public: &priv.PublicKey, private: priv, alias: alias}
	pair.SetRef("publicKey", pub)
	pair.SetRef("privateKey", prv)
	return env.Value(pair), nil
}

func (l *Library) storeKeyPair(g *keyPairGenerator, priv *rsa.PrivateKey) error {
	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "fake"},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.AddDate(30, 0, 0),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(l.rand, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return memvm.Throw(ProviderException, err.Error())
	}
	pk, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return memvm.Throw(ProviderException, err.Error())
	}
	entry := &KeyEntry{
		Created:     now,
		Alias:       g.spec.alias,
		Algorithm:   g.algorithm,
		PrivateKey:  pk,
		Certificate: der,
		Digests:     g.spec.digests,
		Paddings:    g.spec.paddings,
		Purposes:    g.spec.purposes,
		KeySize:     g.keySize,
	}
	if err := l.keys.Put(entry); err != nil {
		return memvm.Throw(ProviderException, err.Error())
	}
	return nil
}
