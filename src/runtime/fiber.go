package runtime

import "github.com/google/uuid"

// FiberState tags a fiber's relationship to its caller: Root
// (no caller), Other (an ordinary `Fiber.call`ed fiber), Try (entered via
// `.try()`, so a runtime error is caught and delivered as its result rather
// than propagating further).
type FiberState int

const (
	FiberRoot FiberState = iota
	FiberOther
	FiberTry
)

// CallFrame is one activation record on a fiber's frame stack.
// stackStart and returnReg are indices rather than raw pointers: growing a
// fiber's stack is then a plain Go slice `append`, with no interior-pointer
// patching required, the handle-style indirection this Go implementation
// adopts outright instead of manual pointer re-basing.
type CallFrame struct {
	closure    *ObjClosure
	stackStart int
	ip         int
	returnReg  int // -1 => a fiber's entry frame: the result goes to the caller fiber's lastCallReg, and is not stored when there is no caller

	// skipCallerOnFalse marks a frame pushed for a Block-method relational
	// overload (EQ/LT/LTE dispatched to `==(_)`/`<(_)`/`<=(_)`): the caller's
	// skip-next decision can't be made until this frame actually returns a
	// value, so popFrameReturning applies it there instead of at dispatch time.
	skipCallerOnFalse bool
}

// ObjFiber is a first-class cooperative coroutine: value stack, frame stack,
// open-upvalue list, caller link, error slot, and state.
// Grounded on tanema-luaf/src/runtime/lib_coroutine.go's Thread and
// vm.go's yieldFrame/yielded/resume fields, converted from goroutine+channel
// handoff to single-threaded stack switching, since fibers here are
// cooperative and preemptive threading is never in play. ID is a uuid so a
// host juggling many fibers/VMs can correlate stack traces.
type ObjFiber struct {
	header_      ObjHeader
	ID           uuid.UUID
	stack        []Value
	frames       []CallFrame
	openUpvalues *ObjUpvalue
	caller       *ObjFiber
	err          Value
	state        FiberState
	lastCallReg  int
}

func (f *ObjFiber) header() *ObjHeader { return &f.header_ }
func (f *ObjFiber) Type() ObjType      { return ObjFiberType }
func (f *ObjFiber) size() int          { return 96 + len(f.stack)*16 + len(f.frames)*24 }

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// NewFiber creates a fiber with an optional entry closure, whose stack is
// sized to nextPow2(closure.maxSlots+1). A nil closure
// produces a bare fiber for the root/main case, sized to a minimal stack.
func (vm *VM) NewFiber(closure *ObjClosure) *ObjFiber {
	size := 8
	if closure != nil {
		size = nextPow2(closure.fn.MaxSlots + 1)
	}
	fiber := &ObjFiber{
		ID:    uuid.New(),
		stack: make([]Value, size),
		err:   NullVal,
		state: FiberOther,
	}
	for i := range fiber.stack {
		fiber.stack[i] = NullVal
	}
	if closure != nil {
		fiber.stack[0] = ObjVal(closure)
		fiber.frames = append(fiber.frames, CallFrame{closure: closure, stackStart: 0, returnReg: -1})
	}
	vm.registerObj(fiber, vm.fiberClass)
	return fiber
}

// ensureStack grows the fiber's value stack to at least n slots.
func (f *ObjFiber) ensureStack(n int) {
	if n <= len(f.stack) {
		return
	}
	grown := make([]Value, nextPow2(n))
	copy(grown, f.stack)
	for i := len(f.stack); i < len(grown); i++ {
		grown[i] = NullVal
	}
	f.stack = grown
}

// IsDone reports whether the fiber has no more frames to run.
func (f *ObjFiber) IsDone() bool { return len(f.frames) == 0 }

// Error returns the fiber's error slot (Null while healthy).
func (f *ObjFiber) Error() Value { return f.err }

// transferToFiber transfers control to f as a callee of the currently
// running fiber, backing the `Fiber.call`/`Fiber.try` primitives. isTry
// marks f.state as Try so a later abort is delivered back here instead of
// propagating further.
func (vm *VM) transferToFiber(f *ObjFiber, arg Value, isTry bool) {
	if isTry {
		f.state = FiberTry
	} else if f.state == FiberRoot {
		f.state = FiberOther
	}
	f.caller = vm.fiber
	if len(f.stack) > 0 {
		f.stack[0] = arg
	}
	vm.fiber = f
}

// transferDirect implements `Fiber.transfer`: switches to f without
// recording a caller link, so errors in f cannot propagate back here.
func (vm *VM) transferDirect(f *ObjFiber, arg Value) {
	if len(f.stack) > 0 {
		f.stack[0] = arg
	}
	vm.fiber = f
}

// yield suspends the current fiber, returning control to its caller (or
// ending the interpreter entirely if there is none), per the `Fiber.yield`
// primitive.
func (vm *VM) yield(result Value) *ObjFiber {
	current := vm.fiber
	caller := current.caller
	current.caller = nil
	if caller != nil && caller.lastCallReg >= 0 && caller.lastCallReg < len(caller.stack) {
		caller.stack[caller.lastCallReg] = result
	}
	vm.fiber = caller
	return caller
}

// propagateRuntimeError walks from the current fiber along caller links,
// storing the error in each fiber it leaves and unlinking it from its
// caller. The first fiber in Try state (one entered via `.try()`) hands the
// error to its caller as the result of the triggering call. Returns the
// fiber that caught the error (now vm.fiber), or nil if nothing caught it.
func (vm *VM) propagateRuntimeError(errVal Value) *ObjFiber {
	for f := vm.fiber; f != nil; {
		f.err = errVal
		caller := f.caller
		f.caller = nil
		if f.state == FiberTry && caller != nil {
			if caller.lastCallReg >= 0 && caller.lastCallReg < len(caller.stack) {
				caller.stack[caller.lastCallReg] = errVal
			}
			vm.fiber = caller
			return caller
		}
		f = caller
	}
	vm.fiber = nil
	return nil
}
