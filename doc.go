// Package jbridge lets a Go process drive an object-oriented managed runtime
// (classes, instances, methods, fields and arrays behind a JNI-shaped
// embedding API) as if its objects were locally owned values.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jbridge/          Root package with the Env embedding API, Ref and Value
//	├── sig/          Type-name wire format and signature strings
//	├── ref/          Generation-checked handle arena and reference lifecycle
//	├── marshal/      Outbound arguments and inbound decoders
//	├── resolve/      Memoizing class, method and reflective field resolver
//	├── invoke/       Call engine: resolve, marshal, invoke, translate exceptions
//	├── binding/      Generic bound values: Object, arrays, strings
//	├── security/     KeyStore, key generation and Cipher bindings
//	├── content/      Context and SharedPreferences bindings
//	├── settings/     Persistent key-value façade over SharedPreferences
//	├── memvm/        In-memory runtime implementing Env for tests and demos
//	├── config/       TOML configuration
//	├── errors/       Structured error types
//	└── cmd/bridgectl Scenario runner and TUI over the in-memory runtime
//
// # Quick Start
//
//	vm, err := memvm.New(memvm.WithLibrary(javalib.New()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	env := vm.Attach()
//	defer env.Detach()
//
//	eng := invoke.NewEngine(env)
//	defer eng.Close()
//
//	arr, err := binding.NewByteArray(eng, []byte{1, 2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer arr.Close()
//
// # Ownership
//
// Every value returned from the runtime is promoted to a global reference and
// stored in the engine's ref.Manager; the caller owns it and must Close it
// exactly once. Handles are generation-checked, so a second release or a use
// after release is reported as an error instead of reaching the runtime.
//
// # Thread Safety
//
// An Env belongs to a single attached thread. Engine.Fork creates an engine
// for another Env that shares the reference manager and descriptor cache, both
// of which are safe for concurrent use. Calls are synchronous and cannot be
// cancelled.
package jbridge
