package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/jbridge/binding"
	"github.com/wippyai/jbridge/content"
	"github.com/wippyai/jbridge/invoke"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/memvm/javalib"
	"github.com/wippyai/jbridge/security"
	"github.com/wippyai/jbridge/settings"
	"github.com/wippyai/jbridge/sig"
)

// scenario exercises one part of the bridge against the in-memory runtime.
type scenario struct {
	name  string
	desc  string
	input string // placeholder for the argument, empty when none is taken
	run   func(b *bridge, arg string) (string, error)
}

var scenarios = []scenario{
	{"echo-bytes", "Round-trip a byte array through a static call", "length (default 256)", echoBytes},
	{"identity", "Pass a string through Object identity and compare", "text", identity},
	{"fields", "Read and write instance and static fields", "name", fields},
	{"cipher", "Generate an RSA key and encrypt then decrypt a message", "message", cipherRoundTrip},
	{"keystore", "Walk a key alias through its lifecycle states", "alias", keystore},
	{"settings", "Write and read typed user settings", "greeting", userSettings},
	{"leak-check", "Create and release objects and compare table sizes", "iterations (default 100)", leakCheck},
}

func lookupScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

func intArg(arg string, def int) (int, error) {
	if arg == "" {
		return def, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("argument %q is not a non-negative integer", arg)
	}
	return n, nil
}

func echoBytes(b *bridge, arg string) (string, error) {
	n, err := intArg(arg, 256)
	if err != nil {
		return "", err
	}
	in := make([]byte, n)
	for i := range in {
		in[i] = byte(i)
	}
	arr, err := binding.NewByteArray(b.engine, in)
	if err != nil {
		return "", err
	}
	defer arr.Close()
	out, err := invoke.CallStatic(b.engine, javalib.EchoClass, "echo", binding.ByteArrayDecoder, arr)
	if err != nil {
		return "", err
	}
	defer out.Close()
	got, err := out.Bytes()
	if err != nil {
		return "", err
	}
	if !bytes.Equal(got, in) {
		return "", fmt.Errorf("echoed bytes differ from the input")
	}
	return fmt.Sprintf("echoed %d bytes, same object: %t", len(got), out.IsSameObject(arr.Object)), nil
}

func identity(b *bridge, arg string) (string, error) {
	if arg == "" {
		arg = "hello, bridge"
	}
	s, err := binding.NewString(b.engine, arg)
	if err != nil {
		return "", err
	}
	defer s.Close()
	o, err := invoke.CallStatic(b.engine, javalib.EchoClass, "identity", binding.Of(sig.ObjectClass), s.As(sig.ObjectClass))
	if err != nil {
		return "", err
	}
	defer o.Close()
	text, err := o.ToString()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("identity(%q) = %q, same object: %t", arg, text, o.IsSameObject(s.Object)), nil
}

func fields(b *bridge, arg string) (string, error) {
	if arg == "" {
		arg = "holder"
	}
	h, err := binding.New(b.engine, javalib.HolderClass, marshal.String.Arg(arg))
	if err != nil {
		return "", err
	}
	defer h.Close()

	if err := invoke.SetField(b.engine, h, "i", marshal.Int.Arg(42)); err != nil {
		return "", err
	}
	if err := invoke.SetField(b.engine, h, "data", marshal.Bytes.Arg([]byte{1, 2, 3})); err != nil {
		return "", err
	}
	name, err := invoke.GetField(b.engine, h, "name", marshal.String)
	if err != nil {
		return "", err
	}
	i, err := invoke.GetField(b.engine, h, "i", marshal.Int)
	if err != nil {
		return "", err
	}
	data, err := invoke.GetField(b.engine, h, "data", marshal.Bytes)
	if err != nil {
		return "", err
	}
	version, err := invoke.GetStaticField(b.engine, javalib.HolderClass, "VERSION", marshal.Long)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("name=%q i=%d data=%v VERSION=%d", name, i, data, version), nil
}

const scenarioAlias = "bridgectl"

var scenarioKeyOptions = security.KeyOptions{
	Purpose: security.PurposeEncrypt | security.PurposeDecrypt,
	Digest:  security.DigestSHA256,
	Padding: security.PaddingPKCS1,
}

func cipherRoundTrip(b *bridge, arg string) (string, error) {
	if arg == "" {
		arg = "attack at dawn"
	}
	kc, err := security.OpenKeychain(b.engine, security.AndroidKeyStore)
	if err != nil {
		return "", err
	}
	defer kc.Close()

	pair, err := kc.Generate(scenarioAlias, scenarioKeyOptions)
	if err != nil {
		return "", err
	}
	defer pair.Close()
	defer kc.Delete(scenarioAlias)
	pub, err := pair.Public()
	if err != nil {
		return "", err
	}
	defer pub.Close()
	priv, err := pair.Private()
	if err != nil {
		return "", err
	}
	defer priv.Close()

	const transformation = "RSA/ECB/PKCS1Padding"
	enc, err := security.GetCipher(b.engine, transformation)
	if err != nil {
		return "", err
	}
	defer enc.Close()
	if err := enc.Init(security.ModeEncrypt, pub.AsKey()); err != nil {
		return "", err
	}
	sealed, err := enc.Seal([]byte(arg))
	if err != nil {
		return "", err
	}

	dec, err := security.GetCipher(b.engine, transformation)
	if err != nil {
		return "", err
	}
	defer dec.Close()
	if err := dec.Init(security.ModeDecrypt, priv.AsKey()); err != nil {
		return "", err
	}
	opened, err := dec.Seal(sealed)
	if err != nil {
		return "", err
	}
	if string(opened) != arg {
		return "", fmt.Errorf("decrypted %q, want %q", opened, arg)
	}
	return fmt.Sprintf("%s: %d plaintext bytes -> %d ciphertext bytes -> %q", transformation, len(arg), len(sealed), opened), nil
}

func keystore(b *bridge, arg string) (string, error) {
	alias := arg
	if alias == "" {
		alias = scenarioAlias
	}
	kc, err := security.OpenKeychain(b.engine, security.AndroidKeyStore)
	if err != nil {
		return "", err
	}
	defer kc.Close()

	var out strings.Builder
	report := func(step string) error {
		st, err := kc.State(alias)
		if err != nil {
			return err
		}
		n, err := kc.Store().Size()
		if err != nil {
			return err
		}
		fmt.Fprintf(&out, "%-9s %s=%s entries=%d\n", step, alias, st, n)
		return nil
	}

	if err := report("open"); err != nil {
		return out.String(), err
	}
	pair, err := kc.Generate(alias, scenarioKeyOptions)
	if err != nil {
		return out.String(), err
	}
	pair.Close()
	if err := report("generate"); err != nil {
		return out.String(), err
	}
	pub, err := kc.PublicKey(alias)
	if err != nil {
		return out.String(), err
	}
	if alg, err := pub.Algorithm(); err == nil {
		fmt.Fprintf(&out, "public key algorithm %s\n", alg)
	}
	pub.Close()
	if err := kc.Delete(alias); err != nil {
		return out.String(), err
	}
	if err := report("delete"); err != nil {
		return out.String(), err
	}
	return strings.TrimSuffix(out.String(), "\n"), nil
}

func userSettings(b *bridge, arg string) (string, error) {
	ctx, err := content.CurrentContext(b.engine)
	if err != nil {
		return "", err
	}
	defer ctx.Close()
	pkg, err := ctx.PackageName()
	if err != nil {
		return "", err
	}
	d, err := settings.Open(ctx)
	if err != nil {
		return "", err
	}
	defer d.Close()

	if err := d.Register(map[string]any{"greeting": "hello", "launches": 0}); err != nil {
		return "", err
	}
	before, err := d.String("greeting")
	if err != nil {
		return "", err
	}
	if arg != "" {
		if err := d.SetString("greeting", &arg); err != nil {
			return "", err
		}
	}
	launches, err := d.Int("launches")
	if err != nil {
		return "", err
	}
	if err := d.SetInt("launches", launches+1); err != nil {
		return "", err
	}
	after, err := d.String("greeting")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("package %s: greeting %q -> %q, launches=%d", pkg, *before, *after, launches+1), nil
}

func leakCheck(b *bridge, arg string) (string, error) {
	n, err := intArg(arg, 100)
	if err != nil {
		return "", err
	}
	iteration := func(i int) error {
		s, err := binding.NewString(b.engine, strconv.Itoa(i))
		if err != nil {
			return err
		}
		defer s.Close()
		arr, err := binding.NewStringArray(b.engine, []string{"a", "b"})
		if err != nil {
			return err
		}
		defer arr.Close()
		_, err = s.Length()
		return err
	}

	// The first pass fills the resolver's class cache.
	if err := iteration(-1); err != nil {
		return "", err
	}
	before := b.vm.Stats()
	handles := b.refs.Len()
	for i := 0; i < n; i++ {
		if err := iteration(i); err != nil {
			return "", err
		}
	}
	after := b.vm.Stats()
	if after.Globals != before.Globals || after.Locals != before.Locals || b.refs.Len() != handles {
		return "", fmt.Errorf("tables grew over %d iterations: globals %d -> %d, locals %d -> %d, handles %d -> %d",
			n, before.Globals, after.Globals, before.Locals, after.Locals, handles, b.refs.Len())
	}
	return fmt.Sprintf("%d iterations, globals=%d locals=%d handles=%d unchanged", n, after.Globals, after.Locals, handles), nil
}
