// Package ref manages the lifetime of runtime references.
//
// Raw references handed out by the runtime are opaque and come in three
// strengths: Local references live only inside the native call frame that
// produced them, Global references live until they are deleted, and Weak
// references do not keep their referent alive. This package owns every
// Global and Weak reference the bridge keeps past a call.
//
// # Handles
//
// A Manager stores raw references in an arena and hands out Handles:
//
//	m := ref.NewManager(env)
//	h, err := m.NewGlobal(raw)   // env.NewGlobalRef(raw)
//	...
//	err = m.Release(h)           // env.DeleteGlobalRef, exactly once
//	err = m.Release(h)           // stale handle, never reaches the runtime
//
// A Handle packs an arena index with the generation of its slot. Releasing a
// handle bumps the generation, so every copy of a released Handle is
// rejected afterwards even when the slot has been reused.
//
// # Borrowing
//
// Calls that pass a handle to the runtime borrow it for the duration of the
// call:
//
//	b, err := m.Borrow(h)
//	if err != nil {
//	    return err
//	}
//	defer b.Return()
//	env.CallMethod(b.Ref(), ...)
//
// Release fails with an outstanding-borrow error while any borrow is active.
//
// # Weak references
//
// Weak handles confer no ownership. Upgrade promotes one to a new Global
// handle, or returns the null Handle if the referent has been collected.
//
// # Observers
//
// Subscribe an Observer to receive Acquired, Released, Borrowed and
// BorrowReturned events. Close releases every remaining reference, reports
// each one as a leak and returns how many there were.
package ref
