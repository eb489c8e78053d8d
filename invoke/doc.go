// Package invoke calls methods, constructors and fields of runtime objects
// with typed arguments and results.
//
// An Engine binds one attached thread to a reference manager and a
// descriptor resolver. Each operation runs in a frame: arguments are
// marshalled, their handles borrowed, the descriptor resolved, the runtime
// called, any pending exception converted into an error, and the result
// decoded. Local references created on the way are deleted when the frame
// ends.
//
//	e := invoke.NewEngine(env)
//	defer e.Close()
//
//	sum, err := invoke.CallStatic(e, "jbridge/diag/Echo", "add", marshal.Int,
//		marshal.Int.Arg(2), marshal.Int.Arg(3))
//
// Engines are not safe for concurrent use. Use Fork to obtain an engine for
// another attached thread that shares the reference manager and resolver.
package invoke
