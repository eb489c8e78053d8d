// Package marshal converts between Go values and runtime call parameters.
//
// Every value crossing into the runtime is an Arg: it knows its signature
// type and produces a jbridge.Value inside a call Frame. Every value coming
// back goes through a Decoder, which is told where the raw value came from
// (an instance or static method result, or an instance or static field read).
//
// A Codec pairs both directions for one Go type:
//
//	marshal.Int.Arg(42)             // outbound int
//	marshal.String.Arg("alias")     // outbound java/lang/String
//	invoke.Call(e, obj, "getX", marshal.Int)   // inbound int
//
// Codecs preserve values exactly: primitives bit for bit, strings code point
// for code point (invalid UTF-8 is rejected before it reaches the runtime),
// byte slices byte for byte including the empty slice, and handles by
// referential identity.
//
// Temporary local references created while marshalling are registered with
// the Frame and deleted when the call returns. Reference results that must
// outlive the call are promoted with Frame.Own.
package marshal
