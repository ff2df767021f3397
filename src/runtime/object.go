// Package runtime implements the Wren-style execution core: the value and
// object model, the collection cores, the tri-color GC, the fiber model, the
// register interpreter, and the host embedding slot API.
package runtime

// ObjType tags the concrete shape of a heap object, mirroring the `type`
// field every heap object header carries.
type ObjType uint8

const (
	ObjClassType ObjType = iota
	ObjClosureType
	ObjFiberType
	ObjFnType
	ObjForeignType
	ObjInstanceType
	ObjListType
	ObjMapType
	ObjMapEntryType
	ObjModuleType
	ObjRangeType
	ObjStringType
	ObjUpvalueType
)

func (t ObjType) String() string {
	switch t {
	case ObjClassType:
		return "class"
	case ObjClosureType:
		return "closure"
	case ObjFiberType:
		return "fiber"
	case ObjFnType:
		return "fn"
	case ObjForeignType:
		return "foreign"
	case ObjInstanceType:
		return "instance"
	case ObjListType:
		return "list"
	case ObjMapType:
		return "map"
	case ObjMapEntryType:
		return "map entry"
	case ObjModuleType:
		return "module"
	case ObjRangeType:
		return "range"
	case ObjStringType:
		return "string"
	case ObjUpvalueType:
		return "upvalue"
	default:
		return "unknown"
	}
}

// ObjHeader is embedded in every heap object. It carries the GC's mark bit,
// the object's runtime class (nil for Module and Upvalue, which carry no
// class of their own), and the intrusive next-link the GC sweeps through
// without a separate object table.
type ObjHeader struct {
	classObj *ObjClass
	next     Obj
	isDark   bool
}

// Obj is satisfied by every heap-allocated object type. Each concrete type
// embeds ObjHeader and implements Type()/size(); blacken() lives in gc.go as
// a type switch rather than a method so the GC's traversal order is visible
// in one place.
type Obj interface {
	header() *ObjHeader
	Type() ObjType
	// size reports the approximate byte footprint charged against
	// vm.bytesAllocated, including variable-length buffers.
	size() int
}

func (h *ObjHeader) classOf() *ObjClass { return h.classObj }

// classOf resolves the runtime class of any Value, the function the GC and
// method dispatch both rely on to find a receiver's method table.
func classOf(vm *VM, v Value) *ObjClass {
	switch v.typ {
	case ValNull:
		return vm.nullClass
	case ValTrue, ValFalse:
		return vm.boolClass
	case ValNum:
		return vm.numClass
	case ValObj:
		return v.obj.header().classOf()
	default:
		return nil
	}
}
