package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allObjectsContains walks the intrusive allocation list looking for target,
// the only way to observe whether sweep actually dropped an object (Go's own
// GC is irrelevant here; collectGarbage manages its own liveness bookkeeping
// independent of real heap reachability).
func allObjectsContains(vm *VM, target Obj) bool {
	for cur := vm.allObjects; cur != nil; cur = cur.header().next {
		if cur == target {
			return true
		}
	}
	return false
}

func TestGC_SweepDropsUnreachableObjects(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})

	garbage := vm.NewString("unreachable")
	require.True(t, allObjectsContains(vm, garbage))

	vm.collectGarbage()

	assert.False(t, allObjectsContains(vm, garbage))
}

func TestGC_TempRootSurvivesCollection(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})

	held := vm.NewString("guarded")
	vm.pushTempRoot(held)
	defer vm.popTempRoot()

	vm.collectGarbage()

	assert.True(t, allObjectsContains(vm, held))
}

func TestGC_ModuleVariableKeepsValueAlive(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})

	module := vm.NewModule("keepalive")
	vm.modules["keepalive"] = module
	str := vm.NewString("referenced")
	idx := module.DefineVariable("x", ObjVal(str))

	vm.collectGarbage()

	assert.True(t, allObjectsContains(vm, module))
	assert.True(t, allObjectsContains(vm, str))
	assert.Equal(t, ObjVal(str), module.VariableAt(idx))
}

func TestGC_FiberStackKeepsValuesAlive(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	module := vm.NewModule("test")

	fn := vm.NewFn("top", module, 0, 2)
	str := vm.NewString("on the stack")
	fn.Constants = []Value{ObjVal(str)}
	fn.Code = nil // never actually run; only the fiber's presence matters
	closure := vm.NewClosure(fn, nil)
	fiber := vm.NewFiber(closure)
	fiber.state = FiberRoot
	fiber.stack[0] = ObjVal(str)
	vm.fiber = fiber

	vm.collectGarbage()

	assert.True(t, allObjectsContains(vm, fiber))
	assert.True(t, allObjectsContains(vm, closure))
	assert.True(t, allObjectsContains(vm, fn))
	assert.True(t, allObjectsContains(vm, str))
}

func TestGC_CoreClassesAlwaysSurvive(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	vm.collectGarbage()
	assert.True(t, allObjectsContains(vm, vm.objectClass))
	assert.True(t, allObjectsContains(vm, vm.stringClass))
	assert.True(t, allObjectsContains(vm, vm.listClass))
}

// TestGC_StressModeSurvivesClassConstruction runs an entire VM boot plus a
// two-level class hierarchy under Config.GCStress, which collects on every
// single allocation. NewClass (and bootstrapCoreClasses before it) allocates
// a metaclass and then further objects before that metaclass is installed
// anywhere durable; without pushTempRoot guarding that window, the metaclass
// is unreachable and a stress collection sweeps it mid-construction.
func TestGC_StressModeSurvivesClassConstruction(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{GCStress: true})

	require.True(t, allObjectsContains(vm, vm.objectClass))
	require.NotNil(t, vm.objectClass.header().classObj)
	require.True(t, allObjectsContains(vm, vm.objectClass.header().classObj))

	base, err := vm.NewClass("Base", vm.objectClass, 2)
	require.NoError(t, err)
	assert.True(t, allObjectsContains(vm, base))
	assert.True(t, allObjectsContains(vm, base.header().classObj))

	derived, err := vm.NewClass("Derived", base, 3)
	require.NoError(t, err)
	assert.True(t, allObjectsContains(vm, derived))
	assert.True(t, allObjectsContains(vm, derived.header().classObj))
}
