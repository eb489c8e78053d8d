package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve   Phase = "resolve"   // class/method/field lookup
	PhaseReference Phase = "reference" // handle lifecycle
	PhaseEncode    Phase = "encode"    // Go to runtime
	PhaseDecode    Phase = "decode"    // runtime to Go
	PhaseInvoke    Phase = "invoke"    // method and constructor calls
	PhaseField     Phase = "field"     // field reads and writes
	PhaseState     Phase = "state"     // client-side state machines
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseStorage   Phase = "storage"   // persistence backends
)

// Kind categorizes the error
type Kind string

const (
	KindResolution       Kind = "resolution"
	KindReference        Kind = "reference"
	KindRuntimeException Kind = "runtime_exception"
	KindMarshalMismatch  Kind = "marshal_mismatch"
	KindInvalidState     Kind = "invalid_state"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindNullHandle       Kind = "null_handle"
	KindInvalidInput     Kind = "invalid_input"
	KindUnsupported      Kind = "unsupported"
	KindStorage          Kind = "storage"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Owner     string // runtime type name, slash form
	Member    string // method or field name
	Signature string
	Exception string // runtime exception class, dotted form
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Owner != "" || e.Member != "" {
		b.WriteString(" at ")
		b.WriteString(e.Owner)
		if e.Member != "" {
			if e.Owner != "" {
				b.WriteByte('.')
			}
			b.WriteString(e.Member)
		}
		b.WriteString(e.Signature)
	} else if e.Signature != "" {
		b.WriteString(" at ")
		b.WriteString(e.Signature)
	}

	if e.Exception != "" {
		b.WriteString(": ")
		b.WriteString(e.Exception)
	}

	if e.Detail != "" {
		if e.Exception != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err or any error it wraps is an *Error of kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// As is errors.As re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Owner sets the runtime type name
func (b *Builder) Owner(name string) *Builder {
	b.err.Owner = name
	return b
}

// Member sets the method or field name
func (b *Builder) Member(name string) *Builder {
	b.err.Member = name
	return b
}

// Signature sets the descriptor signature
func (b *Builder) Signature(sig string) *Builder {
	b.err.Signature = sig
	return b
}

// Exception sets the runtime exception class name
func (b *Builder) Exception(class string) *Builder {
	b.err.Exception = class
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// ClassNotFound creates a resolution error for a missing class
func ClassNotFound(name string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindResolution,
		Owner:  name,
		Detail: "class not found",
		Cause:  cause,
	}
}

// MethodNotFound creates a resolution error for a missing method
func MethodNotFound(owner, name, sig string, cause error) *Error {
	return &Error{
		Phase:     PhaseResolve,
		Kind:      KindResolution,
		Owner:     owner,
		Member:    name,
		Signature: sig,
		Detail:    "method not found",
		Cause:     cause,
	}
}

// FieldNotFound creates a resolution error for a missing field
func FieldNotFound(owner, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindResolution,
		Owner:  owner,
		Member: name,
		Detail: "field not found",
		Cause:  cause,
	}
}

// ReferenceExhausted creates an error for a full reference table
func ReferenceExhausted(what string) *Error {
	return &Error{
		Phase:  PhaseReference,
		Kind:   KindReference,
		Detail: fmt.Sprintf("%s reference table exhausted", what),
	}
}

// StaleHandle creates an error for a released or never-issued handle
func StaleHandle(handle uint64) *Error {
	return &Error{
		Phase:  PhaseReference,
		Kind:   KindReference,
		Detail: fmt.Sprintf("handle %#x is stale or invalid", handle),
		Value:  handle,
	}
}

// OutstandingBorrow creates an error for releasing a handle still in use
func OutstandingBorrow(handle uint64, borrows uint32) *Error {
	return &Error{
		Phase:  PhaseReference,
		Kind:   KindReference,
		Detail: fmt.Sprintf("handle %#x has %d outstanding borrow(s)", handle, borrows),
		Value:  handle,
	}
}

// NullHandle creates an error for using a null bound value as a receiver
func NullHandle(phase Phase, owner, member string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNullHandle,
		Owner:  owner,
		Member: member,
		Detail: "receiver is null",
	}
}

// RuntimeException creates an error for an exception raised by the runtime
func RuntimeException(phase Phase, owner, member, exception, message string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindRuntimeException,
		Owner:     owner,
		Member:    member,
		Exception: exception,
		Detail:    message,
	}
}

// MarshalMismatch creates an error for a value whose shape differs from the
// resolved descriptor
func MarshalMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMarshalMismatch,
		Member: strings.Join(path, "."),
		Detail: fmt.Sprintf("expected %s, got %s", want, got),
	}
}

// InvalidState creates an error for an operation invalid in the current state
func InvalidState(owner, operation, state string) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindInvalidState,
		Owner:  owner,
		Member: operation,
		Detail: fmt.Sprintf("not valid in state %s", state),
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, data string) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Storage wraps a persistence backend failure
func Storage(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseStorage,
		Kind:   KindStorage,
		Detail: detail,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
