// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Kind carries the bridge failure taxonomy:
//
//	KindResolution        class, method or field not found
//	KindReference         reference table exhausted, stale or invalid handle
//	KindRuntimeException  the managed runtime raised an exception
//	KindMarshalMismatch   a value's shape disagrees with the resolved descriptor
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindResolution).
//		Owner("java/security/KeyStore").
//		Member("getKey").
//		Signature("(Ljava/lang/String;[C)Ljava/security/Key;").
//		Detail("no such method").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MethodNotFound(owner, name, sig, cause)
//	err := errors.StaleHandle(uint64(h))
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
