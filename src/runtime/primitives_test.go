package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrengo/wren/src/bytecode"
)

// TestVM_ListPrimitiveResultReachesCaller is an end-to-end regression test
// for the dispatch.go copy-back fix: List.add(_) and List.count are both
// MethodPrimitive bindings that mutate args[0] and return true, so a bare
// CALLK on a real list must leave the result visible in the caller's
// register, not just in the throwaway args slice the call site builds.
func TestVM_ListPrimitiveResultReachesCaller(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	symAdd, okAdd := vm.methodNames.Find("add(_)")
	symCount, okCount := vm.methodNames.Find("count")
	require.True(t, okAdd)
	require.True(t, okCount)

	list := vm.NewList()
	fn := vm.NewFn("top", module, 0, 3)
	fn.Constants = []Value{ObjVal(list), NumVal(7)}
	fn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),                  // R0 = list
		bytecode.IABx(bytecode.LOADK, 1, 1),                  // R1 = 7
		bytecode.IvBvC(bytecode.CALLK, 0, 1, uint16(symAdd)), // R0 = list.add(7) -> 7
		bytecode.IABx(bytecode.LOADK, 2, 0),                  // R2 = list
		bytecode.IvBvC(bytecode.CALLK, 2, 0, uint16(symCount)),
		bytecode.IABC(bytecode.RETURN, 2, 1, 0),
	}
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err := vm.run()
	require.NoError(t, err)

	assert.Equal(t, NumVal(7), fiber.stack[0])
	assert.Equal(t, NumVal(1), fiber.stack[2])
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, NumVal(7), list.At(0))
}

// TestVM_ListConcatenationFastPath checks that ADD on two lists takes
// arith's inline List+List fast path (mirroring List's own bound "+(_)"
// primitive tested separately) rather than falling through to dispatch.
func TestVM_ListConcatenationFastPath(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	a := vm.NewList(NumVal(1), NumVal(2))
	b := vm.NewList(NumVal(3))

	fn := vm.NewFn("top", module, 0, 3)
	fn.Constants = []Value{ObjVal(a), ObjVal(b)}
	fn.Code = []uint32{
		bytecode.IABx(bytecode.LOADK, 0, 0),
		bytecode.IABx(bytecode.LOADK, 1, 1),
		bytecode.IABC(bytecode.ADD, 2, 0, 1), // R2 = a + b, concatenated inline by arith
		bytecode.IABC(bytecode.RETURN, 2, 1, 0),
	}
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	vm.fiber = fiber
	_, err := vm.run()
	require.NoError(t, err)

	result, ok := fiber.stack[2].AsObj().(*ObjList)
	require.True(t, ok)
	assert.Equal(t, []Value{NumVal(1), NumVal(2), NumVal(3)}, result.elems)
}
