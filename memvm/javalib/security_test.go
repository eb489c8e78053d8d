package javalib

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/jbridge"
	"github.com/wippyai/jbridge/memvm"
)

const testAlias = "test-key"

func (r *rt) strings(ss ...string) jbridge.Value {
	cls := r.class("java/lang/String")
	arr := r.env.NewObjectArray(len(ss), cls, 0)
	for i, s := range ss {
		r.env.SetObjectArrayElement(arr, i, r.env.NewStringUTF(s))
	}
	return jbridge.Array(arr)
}

// generate creates an RSA key pair in the AndroidKeyStore under alias.
func (r *rt) generate(alias string) jbridge.Ref {
	r.t.Helper()
	b := r.new(KeyGenBuilderClass, "("+str+"I)V", r.str(alias), jbridge.Int(PurposeEncrypt|PurposeDecrypt))
	r.call(b, "setKeySize", "(I)"+kgpsbSig, jbridge.KindObject, jbridge.Int(1024))
	r.call(b, "setDigests", "("+stringArr+")"+kgpsbSig, jbridge.KindObject, r.strings("SHA-256", "SHA-1"))
	r.call(b, "setEncryptionPaddings", "("+stringArr+")"+kgpsbSig, jbridge.KindObject, r.strings("PKCS1Padding"))
	spec := r.call(b, "build", "()"+kgpsSig, jbridge.KindObject)
	r.check()

	gen := r.static(KeyPairGeneratorClass, "getInstance", "("+str+str+")"+kpgSig, jbridge.KindObject, r.str("RSA"), r.str(AndroidKeyStore))
	r.call(gen.Ref(), "initialize", "("+specSig+")V", jbridge.KindVoid, spec)
	pair := r.call(gen.Ref(), "generateKeyPair", "()"+kpSig, jbridge.KindObject)
	r.check()
	return pair.Ref()
}

func (r *rt) keyStore() jbridge.Ref {
	r.t.Helper()
	ks := r.static(KeyStoreClass, "getInstance", "("+str+")"+ksSig, jbridge.KindObject, r.str(AndroidKeyStore))
	r.call(ks.Ref(), "load", "("+lspSig+")V", jbridge.KindVoid, jbridge.Null)
	r.check()
	return ks.Ref()
}

func (r *rt) cipher(transformation string, mode int32, key jbridge.Value) jbridge.Ref {
	r.t.Helper()
	c := r.static(CipherClass, "getInstance", "("+str+")Ljavax/crypto/Cipher;", jbridge.KindObject, r.str(transformation))
	r.check()
	r.call(c.Ref(), "init", "(I"+keySig+")V", jbridge.KindVoid, jbridge.Int(mode), key)
	r.check()
	return c.Ref()
}

func TestSecurity_KeyLifecycle(t *testing.T) {
	keys := NewMemoryKeyStore()
	r := newRT(t, New(WithKeyStore(keys)))

	ks := r.keyStore()
	if got := r.call(ks, "containsAlias", "("+str+")Z", jbridge.KindBoolean, r.str(testAlias)); got.Boolean() {
		t.Fatal("Expected alias to be absent")
	}
	if got := r.call(ks, "getKey", "("+str+"[C)"+keySig, jbridge.KindObject, r.str(testAlias), jbridge.Null); !got.IsNull() {
		t.Fatal("Expected null key for absent alias")
	}

	pair := r.generate(testAlias)
	if got := r.call(ks, "containsAlias", "("+str+")Z", jbridge.KindBoolean, r.str(testAlias)); !got.Boolean() {
		t.Fatal("Expected alias to be stored")
	}
	if got := r.call(ks, "size", "()I", jbridge.KindInt); got.Int() != 1 {
		t.Fatalf("size() = %d, want 1", got.Int())
	}

	entry, err := keys.Get(testAlias)
	if err != nil || entry == nil {
		t.Fatalf("backend Get = %v, %v", entry, err)
	}
	want := KeyEntry{
		Alias:     testAlias,
		Algorithm: "RSA",
		Digests:   []string{"SHA-256", "SHA-1"},
		Paddings:  []string{"PKCS1Padding"},
		Purposes:  PurposeEncrypt | PurposeDecrypt,
		KeySize:   1024,
	}
	got := KeyEntry{
		Alias:     entry.Alias,
		Algorithm: entry.Algorithm,
		Digests:   entry.Digests,
		Paddings:  entry.Paddings,
		Purposes:  entry.Purposes,
		KeySize:   entry.KeySize,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored entry mismatch (-want +got):\n%s", diff)
	}

	// The pair's private key never exposes its encoding.
	priv := r.call(pair, "getPrivate", "()"+privSig, jbridge.KindObject)
	if enc := r.call(priv.Ref(), "getEncoded", "()"+bytesSig, jbridge.KindArray); !enc.IsNull() {
		t.Fatal("Expected key store private key encoding to be null")
	}
	pub := r.call(pair, "getPublic", "()"+pubSig, jbridge.KindObject)
	if alg := r.text(r.call(pub.Ref(), "getAlgorithm", "()"+str, jbridge.KindObject)); alg != "RSA" {
		t.Fatalf("getAlgorithm() = %q", alg)
	}

	r.call(ks, "deleteEntry", "("+str+")V", jbridge.KindVoid, r.str(testAlias))
	r.check()
	if got := r.call(ks, "containsAlias", "("+str+")Z", jbridge.KindBoolean, r.str(testAlias)); got.Boolean() {
		t.Fatal("Expected alias to be deleted")
	}
}

func TestSecurity_CipherRoundTrip(t *testing.T) {
	tests := []string{
		"RSA/ECB/PKCS1Padding",
		"RSA/ECB/OAEPWithSHA-256AndMGF1Padding",
		"RSA/NONE/OAEPWithSHA-1AndMGF1Padding",
	}

	r := newRT(t, New())
	r.generate(testAlias)
	ks := r.keyStore()

	// Rebuild the public key from its certificate the way applications do.
	cert := r.call(ks, "getCertificate", "("+str+")"+certSig, jbridge.KindObject, r.str(testAlias))
	certKey := r.call(cert.Ref(), "getPublicKey", "()"+pubSig, jbridge.KindObject)
	encoded := r.call(certKey.Ref(), "getEncoded", "()"+bytesSig, jbridge.KindArray)
	spec := r.new(X509EncodedKeySpecClass, "("+bytesSig+")V", encoded)
	kf := r.static(KeyFactoryClass, "getInstance", "("+str+")"+kfSig, jbridge.KindObject, r.str("RSA"))
	pub := r.call(kf.Ref(), "generatePublic", "("+keySpec+")"+pubSig, jbridge.KindObject, jbridge.Object(spec))
	r.check()

	priv := r.call(ks, "getKey", "("+str+"[C)"+keySig, jbridge.KindObject, r.str(testAlias), jbridge.Null)
	r.check()

	plain := []byte("attack at dawn")
	for _, tr := range tests {
		t.Run(tr, func(t *testing.T) {
			enc := r.cipher(tr, EncryptMode, pub)
			sealed := r.call(enc, "doFinal", "([B)[B", jbridge.KindArray, r.bytes(plain))
			r.check()
			ciphertext := r.readBytes(sealed)
			if len(ciphertext) != 128 {
				t.Fatalf("ciphertext length = %d, want 128", len(ciphertext))
			}

			dec := r.cipher(tr, DecryptMode, priv)
			out := make([]byte, 200)
			for i := range out {
				out[i] = 0xEE
			}
			outArr := r.bytes(out)
			n := r.call(dec, "doFinal", "([BII[BI)I", jbridge.KindInt,
				sealed, jbridge.Int(0), jbridge.Int(int32(len(ciphertext))), outArr, jbridge.Int(0))
			r.check()
			got := r.readBytes(outArr)
			if int(n.Int()) != len(plain) || !bytes.Equal(got[:n.Int()], plain) {
				t.Fatalf("decrypted %q (%d bytes)", got[:n.Int()], n.Int())
			}
			if got[n.Int()] != 0xEE {
				t.Fatal("doFinal wrote past the reported length")
			}
		})
	}
}

func TestSecurity_CipherErrors(t *testing.T) {
	r := newRT(t, New())
	pair := r.generate(testAlias)
	pub := r.call(pair, "getPublic", "()"+pubSig, jbridge.KindObject)
	priv := r.call(pair, "getPrivate", "()"+privSig, jbridge.KindObject)

	c := r.static(CipherClass, "getInstance", "("+str+")Ljavax/crypto/Cipher;", jbridge.KindObject, r.str("RSA/ECB/PKCS1Padding"))
	r.call(c.Ref(), "doFinal", "([B)[B", jbridge.KindArray, r.bytes([]byte("x")))
	r.expect(memvm.IllegalStateException)

	r.call(c.Ref(), "init", "(I"+keySig+")V", jbridge.KindVoid, jbridge.Int(EncryptMode), priv)
	r.expect(InvalidKeyException)
	r.call(c.Ref(), "init", "(I"+keySig+")V", jbridge.KindVoid, jbridge.Int(DecryptMode), pub)
	r.expect(InvalidKeyException)

	enc := r.cipher("RSA/ECB/PKCS1Padding", EncryptMode, pub)
	r.call(enc, "doFinal", "([BII[BI)I", jbridge.KindInt,
		r.bytes([]byte("x")), jbridge.Int(0), jbridge.Int(1), r.bytes(make([]byte, 16)), jbridge.Int(0))
	r.expect(ShortBufferException)

	r.call(enc, "doFinal", "([B)[B", jbridge.KindArray, r.bytes(make([]byte, 200)))
	r.expect(IllegalBlockSizeException)

	r.static(CipherClass, "getInstance", "("+str+")Ljavax/crypto/Cipher;", jbridge.KindObject, r.str("AES/GCM/NoPadding"))
	r.expect(NoSuchAlgorithmException)
	r.static(CipherClass, "getInstance", "("+str+")Ljavax/crypto/Cipher;", jbridge.KindObject, r.str("RSA/ECB/Whatever"))
	r.expect(NoSuchPaddingException)
	r.static(CipherClass, "getInstance", "("+str+str+")Ljavax/crypto/Cipher;", jbridge.KindObject, r.str("RSA"), r.str("Nope"))
	r.expect(NoSuchProviderException)
}

func TestSecurity_UnloadedKeyStore(t *testing.T) {
	r := newRT(t, New())
	ks := r.static(KeyStoreClass, "getInstance", "("+str+")"+ksSig, jbridge.KindObject, r.str(AndroidKeyStore))
	r.check()
	r.call(ks.Ref(), "containsAlias", "("+str+")Z", jbridge.KindBoolean, r.str(testAlias))
	r.expect(KeyStoreException)

	r.static(KeyStoreClass, "getInstance", "("+str+")"+ksSig, jbridge.KindObject, r.str("JKS"))
	r.expect(KeyStoreException)

	def := r.static(KeyStoreClass, "getDefaultType", "()"+str, jbridge.KindObject)
	if got := r.text(def); got != "BKS" {
		t.Fatalf("getDefaultType() = %q", got)
	}
}

func TestSecurity_GeneratorRequiresSpec(t *testing.T) {
	r := newRT(t, New())
	gen := r.static(KeyPairGeneratorClass, "getInstance", "("+str+str+")"+kpgSig, jbridge.KindObject, r.str("RSA"), r.str(AndroidKeyStore))
	r.check()
	r.call(gen.Ref(), "generateKeyPair", "()"+kpSig, jbridge.KindObject)
	r.expect(memvm.IllegalStateException)
	r.call(gen.Ref(), "initialize", "(I)V", jbridge.KindVoid, jbridge.Int(2048))
	r.expect(InvalidAlgorithmParameterException)

	r.static(KeyPairGeneratorClass, "getInstance", "("+str+")"+kpgSig, jbridge.KindObject, r.str("EC"))
	r.expect(NoSuchAlgorithmException)
}

func TestSQLiteStore_KeyEntries(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()

	e := &KeyEntry{
		Created:     time.Unix(1700000000, 0),
		Alias:       "a",
		Algorithm:   "RSA",
		PrivateKey:  []byte{1, 2, 3},
		Certificate: []byte{4, 5},
		Digests:     []string{"SHA-256"},
		Purposes:    PurposeDecrypt,
		KeySize:     2048,
	}
	if err := s.Put(e); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(&KeyEntry{Alias: "b", Algorithm: "RSA"}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if diff := cmp.Diff(e, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}

	aliases, err := s.Aliases()
	if err != nil {
		t.Fatalf("Aliases failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, aliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}

	if ok, err := s.Delete("a"); err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	if ok, _ := s.Delete("a"); ok {
		t.Fatal("Expected second delete to report nothing removed")
	}
	if got, err := s.Get("a"); err != nil || got != nil {
		t.Fatalf("Get after delete = %v, %v", got, err)
	}
}
