package memvm

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge"
)

// Default reference table capacities.
const (
	DefaultGlobalCapacity = 51200
	DefaultLocalCapacity  = 512
)

// Library supplies class definitions to a VM.
type Library interface {
	Classes() []ClassDef
}

// ClassList is a Library made of literal definitions.
type ClassList []ClassDef

func (l ClassList) Classes() []ClassDef { return l }

// VM is an in-memory managed runtime.
type VM struct {
	log           *zap.Logger
	classes       map[string]*Class
	primitives    map[string]*Class
	heap          map[*Object]struct{}
	globals       map[jbridge.Ref]*Object
	weaks         map[jbridge.Ref]*Object
	envs          map[*Env]struct{}
	detailMessage *field
	libraries     []Library
	methods       []*method
	fields        []*field
	nextRef       uint64
	nextID        uint64
	globalCap     int
	localCap      int
	invalid       int
	mu            sync.Mutex
}

// Option configures a VM.
type Option func(*VM)

// WithLibrary adds class libraries.
func WithLibrary(libs ...Library) Option {
	return func(vm *VM) { vm.libraries = append(vm.libraries, libs...) }
}

// WithClasses adds literal class definitions.
func WithClasses(defs ...ClassDef) Option {
	return WithLibrary(ClassList(defs))
}

// WithGlobalCapacity limits the global and the weak global reference tables.
func WithGlobalCapacity(n int) Option {
	return func(vm *VM) { vm.globalCap = n }
}

// WithLocalCapacity limits the local reference table of each Env.
func WithLocalCapacity(n int) Option {
	return func(vm *VM) { vm.localCap = n }
}

// WithLogger sets the VM's logger. Defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(vm *VM) { vm.log = l }
}

// New creates a VM with the core classes and the configured libraries.
func New(opts ...Option) (*VM, error) {
	vm := &VM{
		classes:    make(map[string]*Class),
		primitives: make(map[string]*Class),
		heap:       make(map[*Object]struct{}),
		globals:    make(map[jbridge.Ref]*Object),
		weaks:      make(map[jbridge.Ref]*Object),
		envs:       make(map[*Env]struct{}),
		globalCap:  DefaultGlobalCapacity,
		localCap:   DefaultLocalCapacity,
		nextRef:    0x1000,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.log == nil {
		vm.log = Logger()
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if err := vm.define(coreClasses()); err != nil {
		return nil, err
	}
	vm.detailMessage = vm.classes[throwableClass].anyField("detailMessage")

	for _, lib := range vm.libraries {
		if err := vm.define(lib.Classes()); err != nil {
			return nil, err
		}
	}
	vm.log.Debug("vm started", zap.Int("classes", len(vm.classes)))
	return vm, nil
}

// Attach creates an Env for the calling thread.
func (vm *VM) Attach() *Env {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	e := &Env{vm: vm, locals: make(map[jbridge.Ref]*Object)}
	vm.envs[e] = struct{}{}
	return e
}

// Class returns a defined class by name.
func (vm *VM) Class(name string) (*Class, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	c := vm.lookupClass(name)
	return c, c != nil
}

// Stats is a snapshot of the VM's reference tables and heap.
type Stats struct {
	Globals     int
	Weaks       int
	Locals      int
	Objects     int
	InvalidRefs int
}

// Stats returns the current table sizes.
func (vm *VM) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	s := Stats{
		Globals:     len(vm.globals),
		Weaks:       len(vm.weaks),
		Objects:     len(vm.heap),
		InvalidRefs: vm.invalid,
	}
	for e := range vm.envs {
		s.Locals += len(e.locals)
	}
	return s
}

// Collect frees every object unreachable from the reference tables, static
// fields and pending exceptions, clears weak references to them, and
// returns how many objects were freed.
func (vm *VM) Collect() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	var stack []*Object
	mark := func(o *Object) {
		if o != nil && !o.marked {
			o.marked = true
			stack = append(stack, o)
		}
	}

	for _, o := range vm.globals {
		mark(o)
	}
	for e := range vm.envs {
		for _, o := range e.locals {
			mark(o)
		}
		mark(e.pending)
	}
	markClass := func(c *Class) {
		mark(c.object)
		for _, s := range c.statics {
			mark(s.obj)
		}
		for _, f := range c.fields {
			mark(f.object)
		}
	}
	for _, c := range vm.classes {
		markClass(c)
	}
	for _, c := range vm.primitives {
		markClass(c)
	}

	for len(stack) > 0 {
		o := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range o.fields {
			mark(s.obj)
		}
		for _, el := range o.elems {
			mark(el)
		}
	}

	freed := 0
	for o := range vm.heap {
		if o.marked {
			o.marked = false
			continue
		}
		delete(vm.heap, o)
		freed++
	}
	for r, o := range vm.weaks {
		if o != nil {
			if _, live := vm.heap[o]; !live {
				vm.weaks[r] = nil
			}
		}
	}

	vm.log.Debug("collected", zap.Int("freed", freed), zap.Int("live", len(vm.heap)))
	return freed
}
