package javalib

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"hash"
	"strings"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

// Class names defined by this file.
const (
	CipherClass = "javax/crypto/Cipher"

	BadPaddingException       = "javax/crypto/BadPaddingException"
	IllegalBlockSizeException = "javax/crypto/IllegalBlockSizeException"
	ShortBufferException      = "javax/crypto/ShortBufferException"
	NoSuchPaddingException    = "javax/crypto/NoSuchPaddingException"
)

// Cipher operation modes.
const (
	EncryptMode int32 = 1
	DecryptMode int32 = 2
	WrapMode    int32 = 3
	UnwrapMode  int32 = 4
)

// Providers accepted by Cipher.getInstance(String, String).
var cipherProviders = map[string]bool{
	"AndroidOpenSSL":              true,
	"AndroidKeyStoreBCWorkaround": true,
	"BC":                          true,
}

type padding int

const (
	paddingPKCS1 padding = iota
	paddingOAEP
)

type cipherState struct {
	key       *storedKey
	newHash   func() hash.Hash
	mgfHash   crypto.Hash
	algorithm string
	padding   padding
	mode      int32
}

// parseTransformation accepts "RSA", "RSA/ECB/<padding>" and
// "RSA/NONE/<padding>".
func parseTransformation(t string) (*cipherState, error) {
	parts := strings.Split(t, "/")
	if !strings.EqualFold(parts[0], "RSA") {
		return nil, memvm.Throwf(NoSuchAlgorithmException, "cannot find any provider supporting %s", t)
	}
	st := &cipherState{algorithm: t, padding: paddingPKCS1}
	switch len(parts) {
	case 1:
		return st, nil
	case 3:
	default:
		return nil, memvm.Throwf(NoSuchAlgorithmException, "invalid transformation format: %s", t)
	}
	if mode := strings.ToUpper(parts[1]); mode != "ECB" && mode != "NONE" {
		return nil, memvm.Throwf(NoSuchAlgorithmException, "unsupported mode %s", parts[1])
	}
	switch strings.ToUpper(parts[2]) {
	case "PKCS1PADDING":
	case "OAEPPADDING", "OAEPWITHSHA-1ANDMGF1PADDING":
		st.padding, st.newHash, st.mgfHash = paddingOAEP, sha1.New, crypto.SHA1
	case "OAEPWITHSHA-256ANDMGF1PADDING":
		st.padding, st.newHash, st.mgfHash = paddingOAEP, sha256.New, crypto.SHA256
	default:
		return nil, memvm.Throwf(NoSuchPaddingException, "unsupported padding %s", parts[2])
	}
	return st, nil
}

func (l *Library) newCipher(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
	t, err := nonNullString(env, args[0], "transformation")
	if err != nil {
		return jbridge.Null, err
	}
	if len(args) > 1 {
		provider, err := nonNullString(env, args[1], "provider")
		if err != nil {
			return jbridge.Null, err
		}
		if !cipherProviders[provider] {
			return jbridge.Null, memvm.Throwf(NoSuchProviderException, "no such provider: %s", provider)
		}
	}
	st, err := parseTransformation(t)
	if err != nil {
		return jbridge.Null, err
	}
	o, err := env.New(CipherClass)
	if err != nil {
		return jbridge.Null, err
	}
	o.Native = st
	return env.Value(o), nil
}

func (st *cipherState) maxInput() int {
	size := st.key.public.Size()
	if st.mode == DecryptMode {
		return size
	}
	if st.padding == paddingOAEP {
		return size - 2*st.newHash().Size() - 2
	}
	return size - 11
}

func (l *Library) transform(st *cipherState, in []byte) ([]byte, error) {
	switch st.mode {
	case 0:
		return nil, memvm.Throw(memvm.IllegalStateException, "Cipher not initialized")
	case WrapMode, UnwrapMode:
		return nil, memvm.Throw(memvm.IllegalStateException, "Cipher is in key wrapping mode")
	}
	if len(in) > st.maxInput() {
		return nil, memvm.Throwf(IllegalBlockSizeException, "input must be under %d bytes", st.maxInput()+1)
	}
	var (
		out []byte
		err error
	)
	switch {
	case st.mode == EncryptMode && st.padding == paddingOAEP:
		out, err = rsa.EncryptOAEP(st.newHash(), l.rand, st.key.public, in, nil)
	case st.mode == EncryptMode:
		out, err = rsa.EncryptPKCS1v15(l.rand, st.key.public, in)
	case st.padding == paddingOAEP:
		out, err = st.key.private.Decrypt(l.rand, in, &rsa.OAEPOptions{Hash: st.mgfHash, MGFHash: st.mgfHash})
	default:
		out, err = rsa.DecryptPKCS1v15(l.rand, st.key.private, in)
	}
	if err != nil {
		if st.mode == DecryptMode {
			return nil, memvm.Throw(BadPaddingException, err.Error())
		}
		return nil, memvm.Throw(IllegalBlockSizeException, err.Error())
	}
	return out, nil
}

func (l *Library) cipherClasses() []memvm.ClassDef {
	return []memvm.ClassDef{
		memvm.ExceptionClass(BadPaddingException, GeneralSecurityException),
		memvm.ExceptionClass(IllegalBlockSizeException, GeneralSecurityException),
		memvm.ExceptionClass(ShortBufferException, GeneralSecurityException),
		memvm.ExceptionClass(NoSuchPaddingException, GeneralSecurityException),
		{
			Name: CipherClass,
			Fields: []memvm.FieldDef{
				{Name: "ENCRYPT_MODE", Type: "I", Static: true, Final: true, Value: jbridge.Int(EncryptMode)},
				{Name: "DECRYPT_MODE", Type: "I", Static: true, Final: true, Value: jbridge.Int(DecryptMode)},
				{Name: "WRAP_MODE", Type: "I", Static: true, Final: true, Value: jbridge.Int(WrapMode)},
				{Name: "UNWRAP_MODE", Type: "I", Static: true, Final: true, Value: jbridge.Int(UnwrapMode)},
			},
			Methods: []memvm.MethodDef{
				static("getInstance", "("+str+")Ljavax/crypto/Cipher;", l.newCipher),
				static("getInstance", "("+str+str+")Ljavax/crypto/Cipher;", l.newCipher),
				method("getAlgorithm", "()"+str, func(env *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					return env.RetString(this.Native.(*cipherState).algorithm), nil
				}),
				method("getBlockSize", "()I", func(*memvm.Env, *memvm.Object, []jbridge.Value) (jbridge.Value, error) {
					return jbridge.Int(0), nil
				}),
				method("init", "(I"+keySig+")V", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					st := this.Native.(*cipherState)
					mode := args[0].Int()
					if mode < EncryptMode || mode > UnwrapMode {
						return jbridge.Void, memvm.Throwf(memvm.IllegalArgumentException, "invalid mode %d", mode)
					}
					keyObj := env.Object(args[1])
					if keyObj == nil {
						return jbridge.Void, memvm.Throw(InvalidKeyException, "key == null")
					}
					k, ok := keyObj.Native.(*storedKey)
					if !ok {
						return jbridge.Void, memvm.Throwf(InvalidKeyException, "unsupported key type %s", keyObj.Class().Name())
					}
					public := keyObj.IsInstanceOf(PublicKeyClass)
					switch {
					case (mode == EncryptMode || mode == WrapMode) && !public:
						return jbridge.Void, memvm.Throw(InvalidKeyException, "encryption requires a public key")
					case (mode == DecryptMode || mode == UnwrapMode) && (public || k.private == nil):
						return jbridge.Void, memvm.Throw(InvalidKeyException, "decryption requires a private key")
					}
					st.key, st.mode = k, mode
					return jbridge.Void, nil
				}),
				method("getOutputSize", "(I)I", func(_ *memvm.Env, this *memvm.Object, _ []jbridge.Value) (jbridge.Value, error) {
					st := this.Native.(*cipherState)
					if st.mode == 0 {
						return jbridge.Int(0), memvm.Throw(memvm.IllegalStateException, "Cipher not initialized")
					}
					return jbridge.Int(int32(st.key.public.Size())), nil
				}),
				method("doFinal", "([B)[B", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					in := env.Object(args[0])
					if in == nil {
						return jbridge.Null, memvm.Throw(memvm.NullPointerException, "input == null")
					}
					out, err := l.transform(this.Native.(*cipherState), in.Bytes())
					if err != nil {
						return jbridge.Null, err
					}
					return env.Value(env.NewBytes(out)), nil
				}),
				method("doFinal", "([BII[BI)I", func(env *memvm.Env, this *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
					in, dst := env.Object(args[0]), env.Object(args[3])
					if in == nil || dst == nil {
						return jbridge.Int(0), memvm.Throw(memvm.NullPointerException, "buffer == null")
					}
					off, n, outOff := int(args[1].Int()), int(args[2].Int()), int(args[4].Int())
					if off < 0 || n < 0 || off+n > in.Len() || outOff < 0 {
						return jbridge.Int(0), memvm.Throw(memvm.IllegalArgumentException, "bad arguments")
					}
					out, err := l.transform(this.Native.(*cipherState), in.Bytes()[off:off+n])
					if err != nil {
						return jbridge.Int(0), err
					}
					if !dst.WriteBytes(outOff, out) {
						return jbridge.Int(0), memvm.Throwf(ShortBufferException,
							"need %d bytes of output space", len(out))
					}
					return jbridge.Int(int32(len(out))), nil
				}),
			},
		},
	}
}
