// Package javalib is the class library the bridge runs against in memvm.
//
// It provides the Android and java.security classes the bridge's bindings
// use: graphics points, the application context bootstrap chain, shared
// preferences, the Android key store with RSA key pair generation,
// certificates, key factories and RSA ciphers. Cryptography is real and
// backed by crypto/rsa and crypto/x509.
//
// Preferences and key store entries live in pluggable stores. The memory
// stores are the default; SQLiteStore persists both in one database file:
//
//	store, err := javalib.OpenSQLite("bridge.db")
//	lib := javalib.New(javalib.WithPreferences(store), javalib.WithKeyStore(store))
//	vm, err := memvm.New(memvm.WithLibrary(lib))
package javalib
