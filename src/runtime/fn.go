package runtime

import "github.com/wrengo/wren/src/bytecode"

// CompilerUpvalue describes, for a single closure prototype slot, whether
// CLOSURE should capture the *caller's* register (isLocal) or reuse the
// caller frame's own upvalue at index.
type CompilerUpvalue struct {
	IsLocal bool
	Index   int
}

// ObjFn is the compiler-facing function prototype: since the
// source-to-bytecode compiler is out of scope here, tests and the
// embedding host construct ObjFn directly the way
// tanema-luaf/src/runtime/vm_test.go hand-assembles parse.FnProto values,
// and ObjFn plays the role luaf splits across parse.FnProto (the compiled
// unit) and runtime.Closure.val (the thing a Closure wraps) since we have
// no separate compiler package to own the former.
type ObjFn struct {
	header_ ObjHeader

	// Module is the module this prototype was compiled against; GETGLOBAL/
	// SETGLOBAL resolve relative to it.
	Module *ObjModule
	// Constants is this prototype's constant table, referenced by K[i] in
	// LOADK and the *K opcode variants.
	Constants []Value
	// Code is the packed instruction stream (bytecode.Op-addressed words).
	Code []uint32
	// Lines holds, per instruction, the source line active when it was
	// compiled, for stack traces.
	Lines []int
	// FnTable holds nested prototypes referenced by CLOSURE's Bx operand.
	FnTable []*ObjFn
	// Upvalues describes, per closure-upvalue slot, how CLOSURE should
	// populate a Closure built from this prototype.
	Upvalues []CompilerUpvalue

	debugName string
	MaxSlots  int
	Arity     int
	IsModuleBody bool
}

func (fn *ObjFn) header() *ObjHeader { return &fn.header_ }
func (fn *ObjFn) Type() ObjType      { return ObjFnType }
func (fn *ObjFn) size() int          { return 64 + len(fn.Code)*4 + len(fn.Constants)*16 }

// NewFn allocates a function prototype. Tests and the (external) compiler
// both use this to build the Proto a CLOSURE instruction later wraps.
func (vm *VM) NewFn(name string, module *ObjModule, arity, maxSlots int) *ObjFn {
	fn := &ObjFn{debugName: name, Module: module, Arity: arity, MaxSlots: maxSlots}
	vm.registerObj(fn, vm.fnClass)
	return fn
}

// Name returns the prototype's debug/display name.
func (fn *ObjFn) Name() string { return fn.debugName }

// LineAt returns the source line recorded for instruction index ip, or 0 if
// no debug info was attached (test-built prototypes routinely omit it).
func (fn *ObjFn) LineAt(ip int) int {
	if ip < 0 || ip >= len(fn.Lines) {
		return 0
	}
	return fn.Lines[ip]
}

// opAt returns the opcode of instruction ip, or NOOP when ip is out of
// range.
func (fn *ObjFn) opAt(ip int) bytecode.Op {
	if ip < 0 || ip >= len(fn.Code) {
		return bytecode.NOOP
	}
	return bytecode.GetOp(fn.Code[ip])
}

// ObjClosure pairs a prototype with its captured upvalues.
type ObjClosure struct {
	header_  ObjHeader
	fn       *ObjFn
	upvalues []*ObjUpvalue
}

func (c *ObjClosure) header() *ObjHeader { return &c.header_ }
func (c *ObjClosure) Type() ObjType      { return ObjClosureType }
func (c *ObjClosure) size() int          { return 16 + len(c.upvalues)*8 }

// Fn returns the closure's underlying prototype.
func (c *ObjClosure) Fn() *ObjFn { return c.fn }

// NewClosure wraps fn with freshly captured upvalues, per the CLOSURE
// opcode's semantics: each CompilerUpvalue either captures the
// calling frame's register (isLocal) or is reused from the calling closure's
// own upvalue array.
func (vm *VM) NewClosure(fn *ObjFn, upvalues []*ObjUpvalue) *ObjClosure {
	c := &ObjClosure{fn: fn, upvalues: upvalues}
	vm.registerObj(c, vm.fnClass)
	return c
}
