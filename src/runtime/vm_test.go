package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrengo/wren/src/bytecode"
)

// runTop builds a zero-arity closure from code/constants, runs it to
// completion on a fresh root fiber, and returns the fiber so the caller can
// inspect its registers directly (RETURN leaves its operand register
// untouched rather than clearing it, so reading fiber.stack[reg] after the
// run is complete and correct).
func runTop(t *testing.T, vm *VM, module *ObjModule, maxSlots int, constants []Value, code []uint32) *ObjFiber {
	t.Helper()
	fn := vm.NewFn("top", module, 0, maxSlots)
	fn.Constants = constants
	fn.Code = code
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	res, err := vm.run()
	require.NoError(t, err)
	assert.Equal(t, ResultSuccess, res)
	return fiber
}

func TestVM_Arithmetic(t *testing.T) {
	t.Parallel()

	t.Run("ADD registers", func(t *testing.T) {
		t.Parallel()
		vm := NewVM(Config{})
		module := vm.NewModule("test")
		code := []uint32{
			bytecode.IABx(bytecode.LOADK, 0, 0),
			bytecode.IABx(bytecode.LOADK, 1, 1),
			bytecode.IABC(bytecode.ADD, 2, 0, 1),
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
		}
		fiber := runTop(t, vm, module, 4, []Value{NumVal(40), NumVal(2)}, code)
		assert.Equal(t, NumVal(42), fiber.stack[2])
	})

	t.Run("SUBK constant on the right", func(t *testing.T) {
		t.Parallel()
		vm := NewVM(Config{})
		module := vm.NewModule("test")
		code := []uint32{
			bytecode.IABx(bytecode.LOADK, 0, 0),
			bytecode.IABCK(bytecode.SUBK, 1, 0, false, 1, true),
			bytecode.IABC(bytecode.RETURN, 1, 1, 0),
		}
		fiber := runTop(t, vm, module, 4, []Value{NumVal(10), NumVal(3)}, code)
		assert.Equal(t, NumVal(7), fiber.stack[1])
	})

	t.Run("string concatenation via ADD", func(t *testing.T) {
		t.Parallel()
		vm := NewVM(Config{})
		module := vm.NewModule("test")
		constants := []Value{ObjVal(vm.NewString("foo")), ObjVal(vm.NewString("bar"))}
		code := []uint32{
			bytecode.IABx(bytecode.LOADK, 0, 0),
			bytecode.IABx(bytecode.LOADK, 1, 1),
			bytecode.IABC(bytecode.ADD, 2, 0, 1),
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
		}
		fiber := runTop(t, vm, module, 4, constants, code)
		str, ok := fiber.stack[2].AsObj().(*ObjString)
		require.True(t, ok)
		assert.Equal(t, "foobar", str.value)
	})
}

func TestVM_RelationalSkipSemantics(t *testing.T) {
	t.Parallel()

	// LT's non-overload path skips the following instruction exactly when
	// the comparison is false, regardless of A (A only matters on the
	// Instance-overload fast path, where it names the destination
	// register). A JUMP placed right after the comparison therefore runs
	// only on a true result.
	t.Run("false comparison skips the following JUMP", func(t *testing.T) {
		t.Parallel()
		vm := NewVM(Config{})
		module := vm.NewModule("test")
		code := []uint32{
			bytecode.IABx(bytecode.LOADK, 0, 0), // R0 = 5
			bytecode.IABx(bytecode.LOADK, 1, 1), // R1 = 2
			bytecode.IABC(bytecode.LT, 0, 0, 1), // 5 < 2 is false
			bytecode.IsJx(bytecode.JUMP, 2),     // skipped
			bytecode.IABx(bytecode.LOADK, 2, 2), // R2 = 99 ("false" branch)
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
			bytecode.IABx(bytecode.LOADK, 2, 3), // R2 = 1 ("true" branch, unreached)
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
		}
		constants := []Value{NumVal(5), NumVal(2), NumVal(99), NumVal(1)}
		fiber := runTop(t, vm, module, 4, constants, code)
		assert.Equal(t, NumVal(99), fiber.stack[2])
	})

	t.Run("true comparison runs the following JUMP", func(t *testing.T) {
		t.Parallel()
		vm := NewVM(Config{})
		module := vm.NewModule("test")
		code := []uint32{
			bytecode.IABx(bytecode.LOADK, 0, 0), // R0 = 1
			bytecode.IABx(bytecode.LOADK, 1, 1), // R1 = 2
			bytecode.IABC(bytecode.LT, 0, 0, 1), // 1 < 2 is true
			bytecode.IsJx(bytecode.JUMP, 2),     // taken
			bytecode.IABx(bytecode.LOADK, 2, 2), // R2 = 99 (unreached)
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
			bytecode.IABx(bytecode.LOADK, 2, 3), // R2 = 1 ("true" branch)
			bytecode.IABC(bytecode.RETURN, 2, 1, 0),
		}
		constants := []Value{NumVal(1), NumVal(2), NumVal(99), NumVal(1)}
		fiber := runTop(t, vm, module, 4, constants, code)
		assert.Equal(t, NumVal(1), fiber.stack[2])
	})
}

// buildFib assembles fib(n): if n < 2 return n else return
// fib(n-1) + fib(n-2), recursing through the module global "fib" and the
// Fn class's call(_) primitive rather than a self-upvalue. Since call(_) is
// dispatched as an ordinary method call, R0 of the callee frame holds the
// closure itself (the "receiver"); the declared parameter n lands in R1.
func buildFib(vm *VM, module *ObjModule, fibIdx int) *ObjFn {
	symCall1, ok := vm.methodNames.Find("call(_)")
	if !ok {
		panic("call(_) not registered")
	}

	// R0 = closure (unused, receiver slot)
	// R1 = n (param)
	// R2 = fib closure, then fib(n-1)
	// R3 = n-1 (call argument)
	// R4 = fib closure, then fib(n-2)
	// R5 = n-2 (call argument)
	// R6 = sum
	code := []uint32{
		bytecode.IABCK(bytecode.LTK, 0, 1, false, 0, true), // 0: n < 2
		bytecode.IsJx(bytecode.JUMP, 8),                    // 1: taken only if true -> idx 10
		bytecode.IABx(bytecode.GETGLOBAL, 2, uint32(fibIdx)),
		bytecode.IABCK(bytecode.SUBK, 3, 1, false, 1, true), // R3 = n-1
		bytecode.IvBvC(bytecode.CALLK, 2, 1, uint16(symCall1)),
		bytecode.IABx(bytecode.GETGLOBAL, 4, uint32(fibIdx)),
		bytecode.IABCK(bytecode.SUBK, 5, 1, false, 0, true), // R5 = n-2
		bytecode.IvBvC(bytecode.CALLK, 4, 1, uint16(symCall1)),
		bytecode.IABC(bytecode.ADD, 6, 2, 4),
		bytecode.IABC(bytecode.RETURN, 6, 1, 0),
		bytecode.IABC(bytecode.RETURN, 1, 1, 0), // idx 10: base case, return n
	}
	fn := vm.NewFn("fib", module, 1, 7)
	fn.Constants = []Value{NumVal(2), NumVal(1)}
	fn.Code = code
	return fn
}

func TestVM_Fibonacci(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")
	fibIdx := module.DefineVariable("fib", NullVal)
	fibFn := buildFib(vm, module, fibIdx)
	fibClosure := vm.NewClosure(fibFn, nil)
	module.SetVariableAt(fibIdx, ObjVal(fibClosure))

	want := []float64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55}
	for n, expect := range want {
		n, expect := n, expect
		t.Run("", func(t *testing.T) {
			t.Parallel()
			symCall1, _ := vm.methodNames.Find("call(_)")
			callFn := vm.NewFn("call-fib", module, 0, 2)
			callFn.Constants = []Value{ObjVal(fibClosure), NumVal(float64(n))}
			callFn.Code = []uint32{
				bytecode.IABx(bytecode.LOADK, 0, 0),
				bytecode.IABx(bytecode.LOADK, 1, 1),
				bytecode.IvBvC(bytecode.CALLK, 0, 1, uint16(symCall1)),
				bytecode.IABC(bytecode.RETURN, 0, 1, 0),
			}
			closure := vm.NewClosure(callFn, nil)
			fiber := vm.NewFiber(closure)
			fiber.state = FiberRoot
			vm.fiber = fiber
			_, err := vm.run()
			require.NoError(t, err)
			assert.Equal(t, NumVal(expect), fiber.stack[0])
		})
	}
}

func TestVM_ClassInheritance(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	classA, err := vm.NewClass("A", vm.objectClass, 0)
	require.NoError(t, err)

	fooSym := vm.methodNames.Ensure("foo()")
	fooFn := vm.NewFn("foo", module, 0, 1) // 0 declared params; R0 is the receiver
	fooFn.Constants = []Value{NumVal(1)}
	fooFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	fooClosure := vm.NewClosure(fooFn, nil)
	classA.BindMethod(fooSym, Method{kind: MethodBlock, closure: fooClosure})

	classB, err := vm.NewClass("B", classA, 0)
	require.NoError(t, err)
	// B never overrides foo(); bindSuperclass copied A's table at
	// construction time, so B's own method table already has foo() bound.

	assert.True(t, classB.isSubclassOf(classA))
	assert.Equal(t, MethodBlock, classB.MethodAt(fooSym).kind)

	topFn := vm.NewFn("top", module, 0, 2)
	topFn.Constants = []Value{ObjVal(classB)}
	symCall0, _ := vm.methodNames.Find("foo()")
	topFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABx(bytecode.CONSTRUCT, 0, 0),
		bytecode.IvBvC(bytecode.CALLK, 0, 0, uint16(symCall0)),
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	closure := vm.NewClosure(topFn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err = vm.run()
	require.NoError(t, err)
	assert.Equal(t, NumVal(1), fiber.stack[0])
}

// TestVM_ClassInheritedFieldsCountTowardInstanceSize confirms bindSuperclass
// folds the superclass's numFields into the subclass's own, so NewInstance
// allocates slots for inherited fields as well as the subclass's own.
// Grounded on original_source/src/vm/wren_value.c's wrenBindSuperclass
// (`subclass->numFields += superclass->numFields`).
func TestVM_ClassInheritedFieldsCountTowardInstanceSize(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})

	base, err := vm.NewClass("Base", vm.objectClass, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, base.numFields)

	derived, err := vm.NewClass("Derived", base, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, derived.numFields)

	inst := vm.NewInstance(derived)
	assert.Len(t, inst.fields, 5)

	inst.SetField(0, NumVal(1)) // inherited from Base
	inst.SetField(4, NumVal(2)) // Derived's own last field
	assert.Equal(t, NumVal(1), inst.Field(0))
	assert.Equal(t, NumVal(2), inst.Field(4))
}

// TestVM_ClosureCapturesAndClosesUpvalue builds a counter-style closure: an
// outer function declares a local in R0, creates an inner closure that
// captures it (isLocal upvalue), closes it via CLOSE, and returns the inner
// closure; calling the inner closure then mutates the closed value through
// SETUPVAL.
func TestVM_ClosureCapturesAndClosesUpvalue(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	// inner(): Upvalues[0] += 1; returns the new value. Declares 0 params,
	// so R0 is the receiver slot and is free to use as scratch.
	innerFn := vm.NewFn("inner", module, 0, 2)
	innerFn.Constants = []Value{NumVal(1)}
	innerFn.Upvalues = []CompilerUpvalue{{IsLocal: true, Index: 0}}
	innerFn.Code = []uint32{
		bytecode.IABx(bytecode.GETUPVAL, 0, 0),
		bytecode.IABCK(bytecode.ADDK, 0, 0, false, 0, true),
		bytecode.IABx(bytecode.SETUPVAL, 0, 0),
		bytecode.IABx(bytecode.GETUPVAL, 1, 0),
		bytecode.IABC(bytecode.RETURN, 1, 1, 0),
	}

	// outer(): R0 = 10; R1 = CLOSURE(inner); CLOSE &R0; return R1.
	outerFn := vm.NewFn("outer", module, 0, 2)
	outerFn.Constants = []Value{NumVal(10)}
	outerFn.FnTable = []*ObjFn{innerFn}
	outerFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABx(bytecode.CLOSURE, 1, 0),
		bytecode.IABC(bytecode.CLOSE, 0, 0, 0),
		bytecode.IABC(bytecode.RETURN, 1, 1, 0),
	}
	outerClosure := vm.NewClosure(outerFn, nil)
	outerFiber := vm.NewFiber(outerClosure)
	outerFiber.state = FiberRoot
	vm.fiber = outerFiber
	_, err := vm.run()
	require.NoError(t, err)

	innerClosureVal := outerFiber.stack[1]
	innerClosure, ok := innerClosureVal.AsObj().(*ObjClosure)
	require.True(t, ok)
	require.Len(t, innerClosure.upvalues, 1)
	assert.False(t, innerClosure.upvalues[0].isOpen)
	assert.Equal(t, NumVal(10), innerClosure.upvalues[0].Get())

	// Calling inner() once (via call()) increments the now-closed value
	// from 10 to 11.
	symCall0, _ := vm.methodNames.Find("call()")
	callFn := vm.NewFn("call-inner", module, 0, 1)
	callFn.Constants = []Value{innerClosureVal}
	callFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IvBvC(bytecode.CALLK, 0, 0, uint16(symCall0)),
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	closure := vm.NewClosure(callFn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err = vm.run()
	require.NoError(t, err)
	assert.Equal(t, NumVal(11), fiber.stack[0])
	assert.Equal(t, NumVal(11), innerClosure.upvalues[0].Get())
}

// TestVM_OperatorOverload defines a class V with `+(_)` bound to a primitive
// returning a fixed sentinel, and checks the ADD opcode falls back to the
// overload when neither operand is a number.
func TestVM_OperatorOverload(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	classV, err := vm.NewClass("V", vm.objectClass, 0)
	require.NoError(t, err)
	plusSym := vm.methodNames.Ensure("+(_)")
	classV.BindMethod(plusSym, Method{
		kind: MethodPrimitive,
		primitive: func(vm *VM, fiber *ObjFiber, args []Value) bool {
			args[0] = NumVal(42)
			return true
		},
	})

	fn := vm.NewFn("top", module, 0, 3)
	fn.Constants = []Value{ObjVal(classV)}
	fn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABx(bytecode.CONSTRUCT, 0, 0), // R0 = V.new()
		bytecode.IABx(bytecode.LOADK, 1, 0),
		bytecode.IABx(bytecode.CONSTRUCT, 1, 0), // R1 = V.new()
		bytecode.IABC(bytecode.ADD, 2, 0, 1),    // R2 = R0 + R1, overload dispatch
		bytecode.IABC(bytecode.RETURN, 2, 1, 0),
	}
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err = vm.run()
	require.NoError(t, err)
	assert.Equal(t, NumVal(42), fiber.stack[2])
}

// TestVM_OperatorOverloadBlockRelational binds `<(_)` on class V as a Block
// method (rather than a Primitive) that always returns false regardless of
// its arguments. The receiver register the interpreter stages the call
// through is always truthy (it holds the instance itself), so if the
// skip-next decision were made before the block's body actually ran, it
// would read that stale truthy value and take the wrong branch. Since the
// overload's real result is false, LT must skip the following JUMP.
func TestVM_OperatorOverloadBlockRelational(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	classV, err := vm.NewClass("V", vm.objectClass, 0)
	require.NoError(t, err)
	ltSym := vm.methodNames.Ensure("<(_)")

	// V's <(_): ignores its argument, always returns false.
	ltFn := vm.NewFn("lt", module, 1, 2)
	ltFn.Code = []uint32{
		bytecode.IABC(bytecode.LOADBOOL, 0, 0, 0), // R0 = false
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	ltClosure := vm.NewClosure(ltFn, nil)
	classV.BindMethod(ltSym, Method{kind: MethodBlock, closure: ltClosure})

	fn := vm.NewFn("top", module, 0, 4)
	fn.Constants = []Value{ObjVal(classV), NumVal(99), NumVal(1)}
	fn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABx(bytecode.CONSTRUCT, 0, 0), // R0 = V.new()
		bytecode.IABx(bytecode.LOADK, 1, 0),
		bytecode.IABx(bytecode.CONSTRUCT, 1, 0), // R1 = V.new()
		bytecode.IABC(bytecode.LT, 2, 0, 1),     // R2 = R0 < R1, block overload dispatch
		bytecode.IsJx(bytecode.JUMP, 2),         // must be skipped: overload returns false
		bytecode.IABx(bytecode.LOADK, 3, 1),     // R3 = 99 ("false" branch)
		bytecode.IABC(bytecode.RETURN, 3, 1, 0),
		bytecode.IABx(bytecode.LOADK, 3, 2), // R3 = 1 ("true" branch, unreached)
		bytecode.IABC(bytecode.RETURN, 3, 1, 0),
	}
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err = vm.run()
	require.NoError(t, err)
	assert.Equal(t, FalseVal, fiber.stack[2])
	assert.Equal(t, NumVal(99), fiber.stack[3])
}

// TestVM_RangeInclusiveReadsRegisterOperand builds an inclusive range whose
// "to" operand lives in a register, not a constant, since RANGE's K bit
// selects inclusivity rather than "C addresses the constant table" the way
// every other *K opcode uses it. If RANGE mis-read C as a constant index
// whenever inclusive is set, this would read K[3] (out of range, or the
// wrong constant) instead of R[1].
func TestVM_RangeInclusiveReadsRegisterOperand(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	code := []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0), // R0 = 1 (from)
		bytecode.IABx(bytecode.LOADK, 1, 1), // R1 = 5 (to, register operand)
		bytecode.IABCK(bytecode.RANGE, 2, 0, false, 1, true), // R2 = 1..5 inclusive
		bytecode.IABC(bytecode.RETURN, 2, 1, 0),
	}
	fiber := runTop(t, vm, module, 4, []Value{NumVal(1), NumVal(5)}, code)
	rng, ok := fiber.stack[2].AsObj().(*ObjRange)
	require.True(t, ok)
	assert.Equal(t, 1.0, rng.From())
	assert.Equal(t, 5.0, rng.To())
	assert.True(t, rng.IsInclusive())
}

// TestVM_FiberTry exercises Fiber.try()'s own register plumbing
// (transferToFiber + propagateRuntimeError) directly rather than through
// bytecode; the focus is that an error raised inside the child fiber lands
// in the parent's lastCallReg instead of aborting the whole VM.
func TestVM_FiberTry(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	failFn := vm.NewFn("fail", module, 0, 1)
	failFn.Constants = []Value{ObjVal(vm.NewString("nope"))}
	failFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	failClosure := vm.NewClosure(failFn, nil)
	child := vm.NewFiber(failClosure)

	rootFn := vm.NewFn("root", module, 0, 1)
	rootClosure := vm.NewClosure(rootFn, nil)
	root := vm.NewFiber(rootClosure)
	root.state = FiberRoot
	vm.fiber = root
	root.lastCallReg = 0

	vm.transferToFiber(child, NullVal, true)
	assert.Equal(t, FiberTry, child.state)
	assert.Same(t, root, child.caller)

	caught := vm.propagateRuntimeError(ObjVal(vm.NewString("boom")))
	require.NotNil(t, caught)
	assert.Same(t, root, caught)
	assert.Same(t, root, vm.fiber)
	str, ok := root.stack[0].AsObj().(*ObjString)
	require.True(t, ok)
	assert.Equal(t, "boom", str.value)
	assert.Nil(t, child.caller)
}

// TestVM_FiberAbortDeliversOriginalValue drives Fiber.new/try end to end
// through the interpreter, aborting the child fiber with an Instance rather
// than a string. Per spec, an aborted fiber's error can be any non-null
// value; the delivered value must be that exact Instance, not a string
// produced by flattening it through Go's error interface and back.
func TestVM_FiberAbortDeliversOriginalValue(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	classV, err := vm.NewClass("V", vm.objectClass, 0)
	require.NoError(t, err)

	newSym, _ := vm.methodNames.Find("new(_)")
	trySym, _ := vm.methodNames.Find("try()")
	abortSym, _ := vm.methodNames.Find("abort(_)")

	childFn := vm.NewFn("child", module, 0, 3)
	childFn.Constants = []Value{ObjVal(vm.fiberClass), ObjVal(classV)}
	childFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),      // R0 = Fiber (receiver of abort(_))
		bytecode.IABx(bytecode.LOADK, 1, 1),      // R1 = V
		bytecode.IABx(bytecode.CONSTRUCT, 1, 0),  // R1 = V.new(), the abort value
		bytecode.IvBvC(bytecode.CALLK, 0, 1, uint16(abortSym)),
		bytecode.IABC(bytecode.RETURN, 0, 1, 0), // unreached; abort switches fibers
	}
	childClosure := vm.NewClosure(childFn, nil)

	rootFn := vm.NewFn("root", module, 0, 2)
	rootFn.Constants = []Value{ObjVal(vm.fiberClass), ObjVal(childClosure)}
	rootFn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0), // R0 = Fiber (receiver of new(_))
		bytecode.IABx(bytecode.LOADK, 1, 1), // R1 = childClosure
		bytecode.IvBvC(bytecode.CALLK, 0, 1, uint16(newSym)), // R0 = Fiber.new(childClosure)
		bytecode.IvBvC(bytecode.CALLK, 0, 0, uint16(trySym)), // R0 = the caught error once child aborts
		bytecode.IABC(bytecode.RETURN, 0, 1, 0),
	}
	rootClosure := vm.NewClosure(rootFn, nil)
	root := vm.NewFiber(rootClosure)
	root.state = FiberRoot
	vm.fiber = root

	_, err = vm.run()
	require.NoError(t, err)
	inst, ok := root.stack[0].AsObj().(*ObjInstance)
	require.True(t, ok, "aborted value should reach the Try ancestor as the original Instance, not a stringified copy")
	assert.Same(t, classV, inst.header().classOf())
}
