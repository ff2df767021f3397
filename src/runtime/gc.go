package runtime

import (
	"reflect"

	"github.com/wrengo/wren/src/conf"
)

// collectGarbage implements tri-color mark-sweep: reset the byte
// counter, gray every root, repeatedly blacken the gray worklist, sweep the
// intrusive allocation list, then recompute nextGC. Grounded on
// _examples/original_source/src/vm/wren_vm.c's collectGarbage for the exact
// floor/growth arithmetic; luaf relies on Go's own GC and has no analogue,
// so this module follows the original C allocator's bookkeeping directly.
func (vm *VM) collectGarbage() {
	vm.bytesAllocated = 0
	vm.grayRoots()
	for len(vm.grayList) > 0 {
		obj := vm.grayList[len(vm.grayList)-1]
		vm.grayList = vm.grayList[:len(vm.grayList)-1]
		vm.blacken(obj)
	}
	vm.sweep()

	vm.nextGC = vm.bytesAllocated + vm.bytesAllocated*vm.config.HeapGrowthPercent/100
	if vm.nextGC < vm.config.MinHeapSize {
		vm.nextGC = vm.config.MinHeapSize
	}
}

func (vm *VM) grayRoots() {
	for _, m := range vm.modules {
		vm.markObj(m)
	}
	for i := 0; i < vm.numTempRoots; i++ {
		vm.markObj(vm.tempRoots[i])
	}
	if vm.fiber != nil {
		vm.markObj(vm.fiber)
	}
	for _, h := range vm.handles {
		vm.markValue(h.value)
	}
	vm.markObj(vm.objectClass)
	vm.markObj(vm.classClass)
	vm.markObj(vm.boolClass)
	vm.markObj(vm.numClass)
	vm.markObj(vm.nullClass)
	vm.markObj(vm.stringClass)
	vm.markObj(vm.listClass)
	vm.markObj(vm.mapClass)
	vm.markObj(vm.mapEntryClass)
	vm.markObj(vm.rangeClass)
	vm.markObj(vm.fiberClass)
	vm.markObj(vm.fnClass)
}

// markValue grays the object a value carries, if any.
func (vm *VM) markValue(v Value) {
	if v.typ == ValObj {
		vm.markObj(v.obj)
	}
}

// markObj grays obj if it isn't already dark, enqueuing it for blacken.
// A nil interface and a typed nil pointer (an unset superclass, caller or
// core-class field) are both skipped.
func (vm *VM) markObj(o Obj) {
	if o == nil {
		return
	}
	if v := reflect.ValueOf(o); v.Kind() == reflect.Pointer && v.IsNil() {
		return
	}
	h := o.header()
	if h.isDark {
		return
	}
	h.isDark = true
	vm.grayList = append(vm.grayList, o)
}

// blacken visits obj's outgoing references, graying each per its concrete
// type. Every object's own class is marked first since method dispatch
// needs it kept alive independent of the value traversal that found this
// object.
func (vm *VM) blacken(o Obj) {
	vm.bytesAllocated += o.size()
	vm.markObj(o.header().classOf())

	switch obj := o.(type) {
	case *ObjClass:
		vm.markObj(obj.superclass)
		vm.markValue(obj.attributes)
		for _, m := range obj.methods {
			if m.kind == MethodBlock && m.closure != nil {
				vm.markObj(m.closure)
			}
		}
	case *ObjClosure:
		vm.markObj(obj.fn)
		for _, u := range obj.upvalues {
			vm.markObj(u)
		}
	case *ObjFiber:
		for _, f := range obj.frames {
			vm.markObj(f.closure)
		}
		for _, v := range obj.stack {
			vm.markValue(v)
		}
		for u := obj.openUpvalues; u != nil; u = u.next {
			vm.markObj(u)
		}
		vm.markObj(obj.caller)
		vm.markValue(obj.err)
	case *ObjFn:
		for _, c := range obj.Constants {
			vm.markValue(c)
		}
		vm.markObj(obj.Module)
		for _, nested := range obj.FnTable {
			vm.markObj(nested)
		}
	case *ObjInstance:
		for _, v := range obj.fields {
			vm.markValue(v)
		}
	case *ObjList:
		for _, v := range obj.elems {
			vm.markValue(v)
		}
	case *ObjMap:
		for _, slot := range obj.entries {
			if slot.isLive() {
				vm.markValue(slot.key)
				vm.markValue(slot.value)
			}
		}
	case *ObjMapEntry:
		vm.markValue(obj.Key)
		vm.markValue(obj.Value)
	case *ObjModule:
		for _, v := range obj.values {
			vm.markValue(v)
		}
	case *ObjUpvalue:
		if !obj.isOpen {
			vm.markValue(obj.closed)
		}
	case *ObjForeign, *ObjRange, *ObjString:
		// no outgoing references beyond the class marked above.
	}
}

// sweep walks the intrusive allocation list, dropping white objects and
// clearing isDark on the survivors for the next cycle.
func (vm *VM) sweep() {
	var head, tail Obj
	for cur := vm.allObjects; cur != nil; {
		next := cur.header().next
		if cur.header().isDark {
			cur.header().isDark = false
			cur.header().next = nil
			if head == nil {
				head = cur
				tail = cur
			} else {
				tail.header().next = cur
				tail = cur
			}
		}
		cur = next
	}
	vm.allObjects = head
}

// registerObj stamps a freshly allocated object's class, charges its size
// against the byte counter, triggers a collection when the threshold is
// crossed, and then links the object into the intrusive list. The collection
// runs before the link, so it never sweeps the object being registered.
// class is nil for Module and Upvalue, which carry no classObj.
func (vm *VM) registerObj(o Obj, class *ObjClass) {
	h := o.header()
	h.classObj = class
	vm.bytesAllocated += o.size()
	if vm.gcStress || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
	h.isDark = false
	h.next = vm.allObjects
	vm.allObjects = o
}

// pushTempRoot guards a newly allocated object that isn't yet reachable
// from anywhere else, across further allocations that might otherwise
// trigger a collection before it is installed somewhere durable.
func (vm *VM) pushTempRoot(o Obj) {
	if vm.numTempRoots >= conf.MaxTempRoots {
		panic("too many temporary roots")
	}
	vm.tempRoots[vm.numTempRoots] = o
	vm.numTempRoots++
}

// popTempRoot releases the most recently pushed temporary root.
func (vm *VM) popTempRoot() {
	vm.numTempRoots--
}
