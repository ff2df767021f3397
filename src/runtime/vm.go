package runtime

import (
	"fmt"

	"github.com/wrengo/wren/src/conf"
	"github.com/wrengo/wren/src/werrors"
)

// InterpretResult mirrors the host-facing `interpret` return enum.
type InterpretResult int

const (
	ResultSuccess InterpretResult = iota
	ResultCompileError
	ResultRuntimeError
)

// Config carries the host embedding callbacks and GC tuning knobs.
// ResolveModule/LoadModule/BindForeignMethod/BindForeignClass are optional;
// a nil callback means "this host doesn't support that feature" rather than
// a required no-op, the same convention tanema-luaf's own `runtime.VM`
// config fields use for optional write/error sinks.
type Config struct {
	// ResolveModule rewrites an import name relative to the importing
	// module, returning the canonical name.
	ResolveModule func(importer, name string) string
	// LoadModule returns the source (or precompiled closure, since the
	// compiler itself is out of scope here) for an optional built-in
	// module; ok is false when the host has nothing for that name.
	LoadModule func(name string) (closure *ObjClosure, ok bool)
	// BindForeignMethod resolves a foreign method implementation by
	// signature.
	BindForeignMethod func(module, class string, isStatic bool, signature string) ForeignMethod
	// BindForeignClass resolves a foreign class's allocate/finalize pair.
	BindForeignClass func(module, class string) (allocate, finalize ForeignMethod)
	// Write is the host's stdout sink for the `System.print`-style
	// primitives; the interpreter never calls fmt.Println/os.Stdout itself.
	Write func(vm *VM, text string)
	// Error is invoked once with the runtime message and once per
	// traceback frame.
	Error func(kind werrors.Kind, module string, line int, msg string)
	// DiagnosticTimeFormat, when non-empty, prefixes Write output with a
	// github.com/lestrrat-go/strftime-formatted timestamp.
	DiagnosticTimeFormat string

	InitialHeapSize   int
	MinHeapSize       int
	HeapGrowthPercent int
	GCStress          bool

	UserData any
}

// Handle pins a Value against collection for as long as the host holds it.
type Handle struct {
	value Value
	vm    *VM
}

// Value returns the handle's pinned value.
func (h *Handle) Value() Value { return h.value }

// VM is the interpreter runtime: the intrusive object list, gray worklist,
// temp roots, handle list, method-name symbol table, module registry, the
// current fiber, and config. Grounded on
// tanema-luaf/src/runtime/vm.go's VM struct shape (ctx/env/stack/callDepth
// style fields) generalized to a config-callback surface for host embedding.
type VM struct {
	config Config

	allObjects Obj
	grayList   []Obj

	bytesAllocated int
	nextGC         int
	gcStress       bool

	tempRoots    [conf.MaxTempRoots]Obj
	numTempRoots int

	handles []*Handle

	methodNames    *SymbolTable
	modules        map[string]*ObjModule
	lastImport     *ObjModule
	coreModule     *ObjModule

	fiber *ObjFiber

	// apiStackBase is the fiber-stack index a running Foreign method's slot
	// API calls are relative to, set by invoke() just before calling into
	// host code ("Foreign: sets apiStack to the argument
	// window").
	apiStackBase int

	objectClass   *ObjClass
	classClass    *ObjClass
	boolClass     *ObjClass
	numClass      *ObjClass
	nullClass     *ObjClass
	stringClass   *ObjClass
	listClass     *ObjClass
	mapClass      *ObjClass
	mapEntryClass *ObjClass
	rangeClass    *ObjClass
	fiberClass    *ObjClass
	fnClass       *ObjClass
}

// NewVM constructs a VM and bootstraps its core classes and core module, the
// `newVM(config)` entry point.
func NewVM(config Config) *VM {
	if config.MinHeapSize == 0 {
		config.MinHeapSize = conf.MinHeapSize
	}
	if config.InitialHeapSize == 0 {
		config.InitialHeapSize = conf.InitialHeapSize
	}
	if config.HeapGrowthPercent == 0 {
		config.HeapGrowthPercent = conf.HeapGrowthPercent
	}
	vm := &VM{
		config:      config,
		nextGC:      config.InitialHeapSize,
		gcStress:    config.GCStress,
		methodNames: NewSymbolTable(),
		modules:     make(map[string]*ObjModule),
	}
	vm.bootstrapCoreClasses()
	vm.coreModule = vm.NewModule("")
	vm.modules[""] = vm.coreModule
	registerCorePrimitives(vm)
	return vm
}

// bootstrapCoreClasses wires up the built-in class hierarchy every value's
// classOf() resolves to. Object sits at the root; Class (the metaclass of
// metaclasses) closes the classObj↔superclass cycle back on itself.
func (vm *VM) bootstrapCoreClasses() {
	vm.objectClass = vm.newRawClass("Object", 0)
	vm.classClass = vm.newRawClass("Class", 0)
	vm.classClass.superclass = vm.objectClass

	// objectMeta is unreachable (not yet anyone's classObj, not a root
	// field) until the assignment below; guard it across classMeta's
	// allocation the same way NewClass guards its own metaclass/class pair.
	objectMeta := vm.newRawClass("Object metaclass", 0)
	objectMeta.isMetaclass = true
	objectMeta.superclass = vm.classClass
	vm.pushTempRoot(objectMeta)

	classMeta := vm.newRawClass("Class metaclass", 0)
	classMeta.isMetaclass = true
	classMeta.superclass = objectMeta
	vm.objectClass.header().classObj = objectMeta
	vm.classClass.header().classObj = classMeta
	vm.popTempRoot()

	mk := func(name string) *ObjClass {
		c, _ := vm.NewClass(name, vm.objectClass, 0)
		return c
	}
	vm.boolClass = mk("Bool")
	vm.numClass = mk("Num")
	vm.nullClass = mk("Null")
	vm.stringClass = mk("String")
	vm.listClass = mk("List")
	vm.mapClass = mk("Map")
	vm.mapEntryClass = mk("MapEntry")
	vm.rangeClass = mk("Range")
	vm.fiberClass = mk("Fiber")
	vm.fnClass = mk("Fn")
}

// Interpret runs body (a module's already-compiled entry closure, since the
// source-to-bytecode compiler is an external collaborator) as moduleName's
// body on a fresh root fiber.
func (vm *VM) Interpret(moduleName string, body *ObjClosure) (InterpretResult, error) {
	module := vm.NewModule(moduleName)
	vm.modules[moduleName] = module
	fiber := vm.NewFiber(body)
	fiber.state = FiberRoot
	vm.fiber = fiber

	result, err := vm.run()
	if err != nil {
		return ResultRuntimeError, err
	}
	return result, nil
}

// importModule returns a cached module's value if already loaded,
// otherwise asks the host to resolve/load it.
func (vm *VM) importModule(name string) (*ObjClosure, Value, error) {
	if m, ok := vm.modules[name]; ok {
		return nil, ObjVal(m), nil
	}
	if vm.config.LoadModule == nil {
		return nil, NullVal, werrNew(vm, "Could not load module '$'.", name)
	}
	closure, ok := vm.config.LoadModule(name)
	if !ok {
		return nil, NullVal, werrNew(vm, "Could not find module '$'.", name)
	}
	module := vm.NewModule(name)
	vm.modules[name] = module
	return closure, NullVal, nil
}

// write routes host-visible output through Config.Write, optionally
// timestamped via github.com/lestrrat-go/strftime, never touching os.Stdout
// directly.
func (vm *VM) write(text string) {
	if vm.config.Write == nil {
		return
	}
	if vm.config.DiagnosticTimeFormat != "" {
		if stamp, err := formatDiagnosticTime(vm.config.DiagnosticTimeFormat); err == nil {
			text = fmt.Sprintf("[%s] %s", stamp, text)
		}
	}
	vm.config.Write(vm, text)
}

// MakeHandle pins v, returning a Handle the host can hold across calls into
// the VM without risking collection.
func (vm *VM) MakeHandle(v Value) *Handle {
	h := &Handle{value: v, vm: vm}
	vm.handles = append(vm.handles, h)
	return h
}

// ReleaseHandle unpins h; it becomes invalid to use afterward.
func (vm *VM) ReleaseHandle(h *Handle) {
	for i, cur := range vm.handles {
		if cur == h {
			vm.handles = append(vm.handles[:i], vm.handles[i+1:]...)
			return
		}
	}
}

// PushRoot/PopRoot are the host-facing names for the temp-root guard;
// internally the interpreter uses the same mechanism via
// pushTempRoot/popTempRoot.
func (vm *VM) PushRoot(v Value) {
	if v.typ == ValObj {
		vm.pushTempRoot(v.obj)
	}
}

// PopRoot releases the most recently pushed host root.
func (vm *VM) PopRoot() { vm.popTempRoot() }

// AbortFiber sets the current fiber's error from v, the backing primitive
// for the host's `abortFiber(slot)` call.
func (vm *VM) AbortFiber(v Value) {
	if vm.fiber != nil {
		vm.fiber.err = v
	}
}
