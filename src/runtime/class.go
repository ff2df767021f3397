package runtime

// MethodKind tags which of the five method variants ("Primitive vs
// block methods") a method-table slot holds.
type MethodKind uint8

const (
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodFunctionCall
	MethodBlock
	MethodForeign
)

// Primitive is a method implemented directly by the engine rather than as
// bytecode; it returns true when the result is already in R[receiver] (the
// common case) or false to signal a fiber switch, a pushed call frame, or an
// error left in the fiber's error slot.
type Primitive func(vm *VM, fiber *ObjFiber, args []Value) bool

// ForeignMethod is a host-bound method invoked through the slot API.
type ForeignMethod func(vm *VM)

// Method is the tagged variant stored at each method-symbol index in a
// class's method table.
type Method struct {
	primitive Primitive
	foreign   ForeignMethod
	closure   *ObjClosure
	kind      MethodKind
}

// ObjClass is a runtime class: name, optional superclass, field count
// (-1 marks a foreign class), and a dense method table indexed by
// method-symbol id shared across all classes, so inheritance can copy a
// parent's table by sequential index the way
// tanema-luaf/src/runtime/value.go's getMetatable resolves a single
// metatable chain, generalized here to per-symbol dense dispatch.
type ObjClass struct {
	header_     ObjHeader
	name        string
	superclass  *ObjClass
	methods     []Method
	numFields   int // -1 => foreign class
	attributes  Value
	isMetaclass bool
}

func (c *ObjClass) header() *ObjHeader { return &c.header_ }
func (c *ObjClass) Type() ObjType      { return ObjClassType }
func (c *ObjClass) size() int          { return 64 + len(c.methods)*32 }

// newRawClass allocates a class object with no superclass wiring yet; used
// both for ordinary classes and for the metaclasses that back them.
func (vm *VM) newRawClass(name string, numFields int) *ObjClass {
	c := &ObjClass{name: name, numFields: numFields, attributes: NullVal}
	vm.registerObj(c, vm.classClass)
	return c
}

// NewClass creates a class inheriting from superclass with numFields
// additional (non-inherited) fields, along with its metaclass: classes are
// allocated with a metaclass that itself inherits from the root Class
// class.
func (vm *VM) NewClass(name string, superclass *ObjClass, numFields int) (*ObjClass, error) {
	if superclass != nil && superclass.numFields == -1 && numFields != -1 {
		return nil, werrNew(vm, "Foreign classes may not be inherited by non-foreign classes.")
	}
	if superclass != nil && superclass.numFields >= 0 && numFields == -1 {
		return nil, werrNew(vm, "Foreign classes may not inherit from a class with fields.")
	}

	// metaclass and class are unreachable from any root until installed
	// below; pushTempRoot guards each across the other's allocation so a
	// GC triggered mid-construction (config.GCStress runs one on every
	// allocation) can't sweep either out from under us. Grounded on
	// original_source/src/vm/wren_value.c's wrenNewClass, which brackets
	// the same two allocations with wrenPushRoot/wrenPopRoot.
	metaclass := vm.newRawClass(name+" metaclass", 0)
	metaclass.isMetaclass = true
	metaclass.superclass = vm.classClass
	vm.pushTempRoot(metaclass)

	class := vm.newRawClass(name, numFields)
	vm.pushTempRoot(class)
	class.header().classObj = metaclass
	class.superclass = superclass

	if superclass != nil {
		total := superclass.numFields
		if total >= 0 && numFields >= 0 {
			total += numFields
			if total > maxClassFields {
				vm.popTempRoot()
				vm.popTempRoot()
				return nil, werrNew(vm, "Class '$' may not have more than $ fields, including inherited fields.", name, maxClassFields)
			}
		}
		class.bindSuperclass(superclass)
	}
	vm.popTempRoot()
	vm.popTempRoot()
	return class, nil
}

const maxClassFields = 255

// bindSuperclass copies the superclass's method table by sequential symbol
// index (inheritance is a parent method table copy, not chain lookup) and
// grows c's own field count by superclass.numFields, so inherited field
// indices land past c's own fields the way the compiler numbers them.
// Grounded on original_source/src/vm/wren_value.c's wrenBindSuperclass,
// which does `subclass->numFields += superclass->numFields`.
func (c *ObjClass) bindSuperclass(superclass *ObjClass) {
	if c.header().classObj != nil && c.header().classObj.superclass == nil {
		c.header().classObj.superclass = superclass.header().classObj
	}
	if c.numFields >= 0 && superclass.numFields >= 0 {
		c.numFields += superclass.numFields
	}
	if len(c.methods) < len(superclass.methods) {
		grown := make([]Method, len(superclass.methods))
		copy(grown, c.methods)
		c.methods = grown
	}
	copy(c.methods, superclass.methods)
}

// BindMethod installs method at symbol, growing the table as needed, the
// way METHOD opcode does at class-definition time.
func (c *ObjClass) BindMethod(symbol int, m Method) {
	if symbol >= len(c.methods) {
		grown := make([]Method, symbol+1)
		copy(grown, c.methods)
		c.methods = grown
	}
	c.methods[symbol] = m
}

// MethodAt returns the method bound to symbol, or a None-kind zero value if
// the class (or none of its ancestors, since inheritance is a table copy)
// ever bound it.
func (c *ObjClass) MethodAt(symbol int) Method {
	if symbol < 0 || symbol >= len(c.methods) {
		return Method{}
	}
	return c.methods[symbol]
}

// IsForeign reports whether c was declared foreign (numFields==-1).
func (c *ObjClass) IsForeign() bool { return c.numFields == -1 }

// Name returns the class's display name.
func (c *ObjClass) Name() string { return c.name }

// Superclass returns c's superclass, or nil for the root Object class.
func (c *ObjClass) Superclass() *ObjClass { return c.superclass }

// isSubclassOf walks the superclass chain, used by the `is(_)` primitive.
func (c *ObjClass) isSubclassOf(other *ObjClass) bool {
	for cur := c; cur != nil; cur = cur.superclass {
		if cur == other {
			return true
		}
	}
	return false
}
