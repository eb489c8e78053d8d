// Package security binds the runtime's key store, key generation and
// cipher classes.
//
// The usual flow generates an RSA key pair inside the platform key store
// and uses it for encryption:
//
//	kc, err := security.OpenKeychain(e, security.AndroidKeyStore)
//	...
//	pair, err := kc.Generate("session", security.KeyOptions{
//		Purpose: security.PurposeEncrypt | security.PurposeDecrypt,
//		Digest:  security.DigestSHA256,
//		Padding: security.PaddingOAEP,
//	})
//	...
//	pub, err := pair.Public()
//	...
//	c, err := security.GetCipher(e, "RSA/ECB/OAEPWithSHA-256AndMGF1Padding")
//	...
//	err = c.Init(security.ModeEncrypt, pub.AsKey())
//	sealed, err := c.Seal(plaintext)
//
// Cipher keeps its mode on the Go side: operations on a cipher that was
// never initialized fail with errors.KindInvalidState without calling into
// the runtime.
package security
