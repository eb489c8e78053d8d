// Package memvm is an in-memory managed runtime behind the jbridge.Env
// embedding API.
//
// It backs the bridge's tests and the bridgectl demo. Classes are declared
// with ClassDef values whose methods are Go functions:
//
//	vm, err := memvm.New(memvm.WithClasses(memvm.ClassDef{
//	    Name: "com/example/Echo",
//	    Methods: []memvm.MethodDef{{
//	        Name:   "echo",
//	        Sig:    "([B)[B",
//	        Static: true,
//	        Fn: func(env *memvm.Env, _ *memvm.Object, args []jbridge.Value) (jbridge.Value, error) {
//	            return env.Value(env.Object(args[0])), nil
//	        },
//	    }},
//	}))
//	env := vm.Attach()
//	defer env.Detach()
//
// A method returns Throw(class, message) to raise an exception in the
// runtime; the caller observes it through ExceptionOccurred.
//
// # References
//
// Every Env has its own local reference table; globals and weak globals are
// shared by the VM. All three tables are capacity limited. Stale and forged
// references never crash the VM: they are counted in Stats.InvalidRefs and
// raise java/lang/IllegalArgumentException.
//
// Stats reports the size of each table so tests can assert that the bridge
// releases exactly what it acquires. Collect runs a mark and sweep over the
// heap; weak references to swept objects are cleared.
//
// # Class library
//
// The VM always defines java/lang/Object, Class, String, CharSequence,
// reflect/Field, Throwable and the common exception classes. Everything
// else comes from libraries passed with WithLibrary (see memvm/javalib) or
// from WithClasses.
package memvm
