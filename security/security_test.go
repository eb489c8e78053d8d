package security

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/memvm"
	"github.com/wippyai/jbridge/memvm/javalib"
	"github.com/wippyai/jbridge/resolve"
)

const testAlias = "bridge-test"

var testOptions = KeyOptions{
	Purpose: PurposeEncrypt | PurposeDecrypt,
	Digest:  DigestSHA1 | DigestSHA256,
	Padding: PaddingPKCS1 | PaddingOAEP,
	KeySize: 1024,
}

func newTestEngine(t *testing.T) *invoke.Engine {
	t.Helper()
	vm, err := memvm.New(memvm.WithLibrary(javalib.New()))
	if err != nil {
		t.Fatalf("memvm.New failed: %v", err)
	}
	env := vm.Attach()
	e := invoke.NewEngine(env)
	t.Cleanup(func() {
		if leaks := e.Close(); leaks != 0 {
			t.Errorf("engine closed with %d leaked handles", leaks)
		}
		env.Detach()
	})
	return e
}

func openKeychain(t *testing.T, e *invoke.Engine, storeType string) *Keychain {
	t.Helper()
	kc, err := OpenKeychain(e, storeType)
	if err != nil {
		t.Fatalf("OpenKeychain(%s) failed: %v", storeType, err)
	}
	t.Cleanup(func() {
		if err := kc.Close(); err != nil {
			t.Errorf("Keychain.Close failed: %v", err)
		}
	})
	return kc
}

type closer interface{ Close() error }

func closeAll(t *testing.T, cs ...closer) {
	t.Helper()
	for _, c := range cs {
		if err := c.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}

func generate(t *testing.T, kc *Keychain, alias string) (PublicKey, PrivateKey) {
	t.Helper()
	pair, err := kc.Generate(alias, testOptions)
	if err != nil {
		t.Fatalf("Generate(%s) failed: %v", alias, err)
	}
	defer closeAll(t, &pair)
	pub, err := pair.Public()
	if err != nil {
		t.Fatalf("Public failed: %v", err)
	}
	priv, err := pair.Private()
	if err != nil {
		t.Fatalf("Private failed: %v", err)
	}
	t.Cleanup(func() { closeAll(t, &pub, &priv) })
	return pub, priv
}

func TestCipher_DoFinalUninitialized(t *testing.T) {
	e := newTestEngine(t)

	c, err := GetCipher(e, "RSA/ECB/PKCS1Padding")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	defer closeAll(t, c)
	if c.Mode() != ModeUninitialized {
		t.Fatalf("Mode() = %v, want uninitialized", c.Mode())
	}

	before := e.Resolver().(*resolve.Cache).Stats()
	out := []byte{7, 7, 7}
	_, err = c.DoFinal([]byte("secret"), 0, 6, out)
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Fatalf("DoFinal on uninitialized cipher = %v, want invalid state", err)
	}
	if _, err := c.Seal([]byte("secret")); !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("Seal on uninitialized cipher = %v, want invalid state", err)
	}
	after := e.Resolver().(*resolve.Cache).Stats()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("uninitialized DoFinal reached the runtime (-before +after):\n%s", diff)
	}
	if !bytes.Equal(out, []byte{7, 7, 7}) {
		t.Errorf("output buffer modified: %v", out)
	}
}

func TestKeychain_Lifecycle(t *testing.T) {
	e := newTestEngine(t)
	kc := openKeychain(t, e, AndroidKeyStore)

	state := func(want State) {
		t.Helper()
		got, err := kc.State(testAlias)
		if err != nil {
			t.Fatalf("State failed: %v", err)
		}
		if got != want {
			t.Fatalf("State() = %v, want %v", got, want)
		}
	}

	state(Absent)
	missing, err := kc.PrivateKey(testAlias)
	if err != nil {
		t.Fatalf("PrivateKey of absent alias failed: %v", err)
	}
	if !missing.IsNull() {
		t.Error("PrivateKey of absent alias is non-null")
	}

	pub, _ := generate(t, kc, testAlias)
	state(Stored)
	if n, err := kc.Store().Size(); err != nil || n != 1 {
		t.Errorf("Size() = %d, %v; want 1", n, err)
	}

	priv, err := kc.PrivateKey(testAlias)
	if err != nil {
		t.Fatalf("PrivateKey failed: %v", err)
	}
	defer closeAll(t, &priv)
	if priv.IsNull() {
		t.Fatal("PrivateKey of stored alias is null")
	}
	if alg, err := priv.Algorithm(); err != nil || alg != AlgorithmRSA {
		t.Errorf("Algorithm() = %q, %v", alg, err)
	}
	if format, err := priv.Format(); err != nil || format != nil {
		t.Errorf("Format() of key store private key = %v, %v; want nil", format, err)
	}
	if enc, err := priv.Encoded(); err != nil || enc != nil {
		t.Errorf("Encoded() of key store private key = %d bytes, %v; want nil", len(enc), err)
	}

	certPub, err := kc.PublicKey(testAlias)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	defer closeAll(t, &certPub)
	want, _ := pub.Encoded()
	got, err := certPub.Encoded()
	if err != nil {
		t.Fatalf("Encoded failed: %v", err)
	}
	if len(want) == 0 || !bytes.Equal(want, got) {
		t.Error("certificate public key differs from the generated one")
	}
	if format, err := certPub.Format(); err != nil || format == nil || *format != "X.509" {
		t.Errorf("Format() of public key = %v, %v", format, err)
	}

	if err := kc.Delete(testAlias); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	state(Absent)
	if err := kc.Delete(testAlias); err != nil {
		t.Errorf("Delete of absent alias failed: %v", err)
	}
}

func TestKeychain_GeneratedUnstored(t *testing.T) {
	e := newTestEngine(t)

	// A BKS store does not observe keys generated by the AndroidKeyStore
	// provider.
	kc := openKeychain(t, e, "BKS")
	generate(t, kc, testAlias)

	got, err := kc.State(testAlias)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if got != GeneratedUnstored {
		t.Errorf("State() = %v, want %v", got, GeneratedUnstored)
	}
	if err := kc.Delete(testAlias); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := kc.State(testAlias); got != Absent {
		t.Errorf("State() after Delete = %v, want %v", got, Absent)
	}
}

func TestKeychain_GenerateErrors(t *testing.T) {
	e := newTestEngine(t)
	kc := openKeychain(t, e, AndroidKeyStore)

	if _, err := kc.Generate("", testOptions); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Generate with empty alias = %v, want invalid input", err)
	}
	opts := testOptions
	opts.KeySize = -5
	if _, err := kc.Generate(testAlias, opts); err != nil {
		t.Errorf("Generate with non-positive size should use the default: %v", err)
	} else if err := kc.Delete(testAlias); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	e := newTestEngine(t)
	kc := openKeychain(t, e, AndroidKeyStore)
	pub, _ := generate(t, kc, testAlias)

	priv, err := kc.PrivateKey(testAlias)
	if err != nil {
		t.Fatalf("PrivateKey failed: %v", err)
	}
	defer closeAll(t, &priv)

	plaintext := []byte("attack at dawn")
	for _, transformation := range []string{
		"RSA/ECB/PKCS1Padding",
		"RSA/ECB/OAEPWithSHA-256AndMGF1Padding",
		"RSA/NONE/OAEPPadding",
	} {
		t.Run(transformation, func(t *testing.T) {
			enc, err := GetCipher(e, transformation)
			if err != nil {
				t.Fatalf("GetCipher failed: %v", err)
			}
			dec, err := GetCipherFrom(e, transformation, "AndroidKeyStoreBCWorkaround")
			if err != nil {
				t.Fatalf("GetCipherFrom failed: %v", err)
			}
			defer closeAll(t, enc, dec)

			if alg, err := enc.Algorithm(); err != nil || alg != transformation {
				t.Errorf("Algorithm() = %q, %v", alg, err)
			}
			if err := enc.Init(ModeEncrypt, pub.AsKey()); err != nil {
				t.Fatalf("Init(encrypt) failed: %v", err)
			}
			if enc.Mode() != ModeEncrypt {
				t.Errorf("Mode() = %v after Init", enc.Mode())
			}
			sealed, err := enc.Seal(plaintext)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(sealed) != 128 {
				t.Errorf("ciphertext is %d bytes, want 128", len(sealed))
			}

			if err := dec.Init(ModeDecrypt, priv.AsKey()); err != nil {
				t.Fatalf("Init(decrypt) failed: %v", err)
			}
			framed := append(append([]byte{0xaa, 0xbb}, sealed...), 0xcc)
			out := bytes.Repeat([]byte{0xee}, 200)
			n, err := dec.DoFinal(framed, 2, len(sealed), out)
			if err != nil {
				t.Fatalf("DoFinal failed: %v", err)
			}
			if !bytes.Equal(out[:n], plaintext) {
				t.Errorf("decrypted %q, want %q", out[:n], plaintext)
			}
			for i, b := range out[n:] {
				if b != 0xee {
					t.Fatalf("output byte %d past the result was modified", n+i)
				}
			}
		})
	}
}

func TestCipher_Errors(t *testing.T) {
	e := newTestEngine(t)
	kc := openKeychain(t, e, AndroidKeyStore)
	pub, priv := generate(t, kc, testAlias)

	if _, err := GetCipher(e, "AES/GCM/NoPadding"); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("GetCipher(AES) = %v, want runtime exception", err)
	}

	c, err := GetCipher(e, "RSA/ECB/PKCS1Padding")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	defer closeAll(t, c)

	err = c.Init(ModeDecrypt, pub.AsKey())
	var be *errors.Error
	if !errors.As(err, &be) || be.Kind != errors.KindRuntimeException || be.Exception != "java.security.InvalidKeyException" {
		t.Fatalf("Init(decrypt, public) = %v, want InvalidKeyException", err)
	}
	if c.Mode() != ModeUninitialized {
		t.Errorf("failed Init changed mode to %v", c.Mode())
	}
	if err := c.Init(Mode(9), pub.AsKey()); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("Init(9) = %v, want invalid input", err)
	}

	if err := c.Init(ModeEncrypt, pub.AsKey()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := c.DoFinal([]byte("abc"), 2, 5, make([]byte, 128)); !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Errorf("DoFinal past input = %v, want out of bounds", err)
	}
	if _, err := c.DoFinal([]byte("abc"), 0, 3, make([]byte, 16)); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("DoFinal into short buffer = %v, want runtime exception", err)
	}
	if _, err := c.Seal(make([]byte, 200)); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("Seal of oversized input = %v, want runtime exception", err)
	}

	if err := c.Init(ModeDecrypt, priv.AsKey()); err != nil {
		t.Fatalf("Init(decrypt) failed: %v", err)
	}
	if _, err := c.Seal(make([]byte, 128)); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("decrypting garbage = %v, want runtime exception", err)
	}
}

func TestKeyFactory_GeneratePublic(t *testing.T) {
	e := newTestEngine(t)
	kc := openKeychain(t, e, AndroidKeyStore)
	pub, priv := generate(t, kc, testAlias)

	der, err := pub.Encoded()
	if err != nil {
		t.Fatalf("Encoded failed: %v", err)
	}
	spec, err := NewX509EncodedKeySpec(e, der)
	if err != nil {
		t.Fatalf("NewX509EncodedKeySpec failed: %v", err)
	}
	factory, err := GetKeyFactory(e, AlgorithmRSA)
	if err != nil {
		t.Fatalf("GetKeyFactory failed: %v", err)
	}
	rebuilt, err := factory.GeneratePublic(spec)
	if err != nil {
		t.Fatalf("GeneratePublic failed: %v", err)
	}
	defer closeAll(t, &spec, &factory, &rebuilt)

	if enc, _ := spec.Encoded(); !bytes.Equal(enc, der) {
		t.Error("spec encoding differs from input")
	}
	if rebuilt.IsSameObject(pub.Object) {
		t.Error("GeneratePublic returned the original key object")
	}

	enc, err := GetCipher(e, "RSA/ECB/PKCS1Padding")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	dec, err := GetCipher(e, "RSA/ECB/PKCS1Padding")
	if err != nil {
		t.Fatalf("GetCipher failed: %v", err)
	}
	defer closeAll(t, enc, dec)
	if err := enc.Init(ModeEncrypt, rebuilt.AsKey()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := dec.Init(ModeDecrypt, priv.AsKey()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	sealed, err := enc.Seal([]byte("via factory"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	opened, err := dec.Seal(sealed)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(opened) != "via factory" {
		t.Errorf("decrypted %q", opened)
	}
}

func TestKeyGenParameterSpec(t *testing.T) {
	e := newTestEngine(t)

	b, err := NewKeyGenParameterSpecBuilder(e, "spec-alias", PurposeEncrypt|PurposeSign)
	if err != nil {
		t.Fatalf("NewKeyGenParameterSpecBuilder failed: %v", err)
	}
	defer closeAll(t, &b)
	if err := b.SetDigests(DigestSHA512 | DigestSHA1); err != nil {
		t.Fatalf("SetDigests failed: %v", err)
	}
	if err := b.SetEncryptionPaddings(0); err != nil {
		t.Fatalf("SetEncryptionPaddings failed: %v", err)
	}
	spec, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer closeAll(t, &spec)

	if got, err := spec.KeySize(); err != nil || got != -1 {
		t.Errorf("KeySize() = %d, %v; want -1", got, err)
	}
	if err := b.SetKeySize(3072); err != nil {
		t.Fatalf("SetKeySize failed: %v", err)
	}
	if got, _ := spec.KeySize(); got != -1 {
		t.Errorf("built spec changed after builder update: KeySize() = %d", got)
	}
	if err := b.SetKeySize(0); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("SetKeySize(0) = %v, want runtime exception", err)
	}

	alias, _ := spec.KeystoreAlias()
	purposes, _ := spec.Purposes()
	digests, _ := spec.Digests()
	paddings, _ := spec.EncryptionPaddings()
	got := struct {
		Alias    string
		Purposes Purpose
		Digests  []string
		Paddings []string
	}{alias, purposes, digests, paddings}
	want := struct {
		Alias    string
		Purposes Purpose
		Digests  []string
		Paddings []string
	}{"spec-alias", PurposeEncrypt | PurposeSign, []string{"SHA-1", "SHA-512"}, []string{"NoPadding"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spec mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewKeyGenParameterSpecBuilder(e, "", PurposeEncrypt); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("builder with empty alias = %v, want runtime exception", err)
	}
}

func TestKeyStore(t *testing.T) {
	e := newTestEngine(t)

	def, err := DefaultKeyStoreType(e)
	if err != nil || def != "BKS" {
		t.Errorf("DefaultKeyStoreType() = %q, %v", def, err)
	}
	if _, err := GetKeyStore(e, "JKS"); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("GetKeyStore(JKS) = %v, want runtime exception", err)
	}

	ks, err := GetKeyStore(e, "PKCS12")
	if err != nil {
		t.Fatalf("GetKeyStore failed: %v", err)
	}
	defer closeAll(t, &ks)
	if typ, err := ks.Type(); err != nil || typ != "PKCS12" {
		t.Errorf("Type() = %q, %v", typ, err)
	}
	if _, err := ks.ContainsAlias("x"); !errors.IsKind(err, errors.KindRuntimeException) {
		t.Errorf("ContainsAlias before Load = %v, want runtime exception", err)
	}
	if err := ks.Load(LoadStoreParameter{}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	key, err := ks.GetKey("x", "hunter2")
	if err != nil || !key.IsNull() {
		t.Errorf("GetKey(x) = %v, %v; want null", key, err)
	}
	cert, err := ks.GetCertificate("x")
	if err != nil || !cert.IsNull() {
		t.Errorf("GetCertificate(x) = %v, %v; want null", cert, err)
	}
}

func TestOptionStrings(t *testing.T) {
	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"no digest", Digest(0).Strings(), []string{"NONE"}},
		{"all digests", (DigestSHA1 | DigestSHA224 | DigestSHA256 | DigestSHA384 | DigestSHA512).Strings(),
			[]string{"SHA-1", "SHA-224", "SHA-256", "SHA-384", "SHA-512"}},
		{"no padding", EncryptionPadding(0).Strings(), []string{"NoPadding"}},
		{"paddings", (PaddingPKCS1 | PaddingOAEP | PaddingPKCS7).Strings(),
			[]string{"PKCS7Padding", "OAEPPadding", "PKCS1Padding"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := (PurposeEncrypt | PurposeVerify).String(); got != "encrypt|verify" {
		t.Errorf("Purpose.String() = %q", got)
	}
	if int32(PurposeDecrypt) != javalib.PurposeDecrypt || int32(PurposeVerify) != javalib.PurposeVerify {
		t.Error("purpose flags disagree with the runtime")
	}
}
