package runtime

import (
	"time"

	"github.com/wrengo/wren/src/conf"
	"github.com/wrengo/wren/src/werrors"
)

// registerCorePrimitives wires every built-in class's method table, the
// home for the primitives spread across tanema-luaf's lib_table.go/
// lib_string.go/lib_utf8.go/lib_coroutine.go (one exported Go func per
// primitive, registered into a table at setup), retargeted here at Wren's
// per-class method-symbol dense table instead of luaf's string-keyed
// globals table.
func registerCorePrimitives(vm *VM) {
	registerObjectPrimitives(vm)
	registerClassPrimitives(vm)
	registerBoolPrimitives(vm)
	registerNumPrimitives(vm)
	registerNullPrimitives(vm)
	registerStringPrimitives(vm)
	registerListPrimitives(vm)
	registerMapPrimitives(vm)
	registerRangePrimitives(vm)
	registerFiberPrimitives(vm)
	registerFnPrimitives(vm)
	registerSystemPrimitives(vm)
}

// bind interns signature in vm.methodNames and installs fn as a Primitive
// method on class, the runtime's analogue of luaf's Fn(name, impl)
// table-literal entries.
func bind(vm *VM, class *ObjClass, signature string, fn Primitive) {
	symbol := vm.methodNames.Ensure(signature)
	class.BindMethod(symbol, Method{kind: MethodPrimitive, primitive: fn})
}

// bindMeta installs fn as a static (metaclass-bound) primitive, the
// CONSTRUCT-time analogue of an instance method but invoked on the class
// object itself (e.g. `List.filled(3, 0)`).
func bindMeta(vm *VM, class *ObjClass, signature string, fn Primitive) {
	bind(vm, class.header().classObj, signature, fn)
}

func argErr(vm *VM, format string, args ...any) bool {
	vm.fiber.err = ObjVal(vm.NewString(werrors.Format(format, args...)))
	return false
}

func registerObjectPrimitives(vm *VM) {
	c := vm.objectClass
	bind(vm, c, "==(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(Equal(args[0], args[1]))
		return true
	})
	bind(vm, c, "!=(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(!Equal(args[0], args[1]))
		return true
	})
	bind(vm, c, "!", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = FalseVal
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(ToString(args[0])))
		return true
	})
	bind(vm, c, "is(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		target, ok := args[1].AsObj().(*ObjClass)
		if !ok {
			return argErr(vm, "Right operand must be a class.")
		}
		args[0] = BoolVal(classOf(vm, args[0]).isSubclassOf(target))
		return true
	})
	bind(vm, c, "type", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(classOf(vm, args[0]))
		return true
	})
}

func registerClassPrimitives(vm *VM) {
	c := vm.classClass
	bind(vm, c, "name", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		class, ok := args[0].AsObj().(*ObjClass)
		if !ok {
			return argErr(vm, "Receiver must be a class.")
		}
		args[0] = ObjVal(vm.NewString(class.Name()))
		return true
	})
	bind(vm, c, "supertype", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		class := args[0].AsObj().(*ObjClass)
		if class.Superclass() == nil {
			args[0] = NullVal
		} else {
			args[0] = ObjVal(class.Superclass())
		}
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(args[0].AsObj().(*ObjClass).Name()))
		return true
	})
}

func registerBoolPrimitives(vm *VM) {
	c := vm.boolClass
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if args[0].Truthy() {
			args[0] = ObjVal(vm.NewString("true"))
		} else {
			args[0] = ObjVal(vm.NewString("false"))
		}
		return true
	})
	bind(vm, c, "!", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(!args[0].Truthy())
		return true
	})
}

func registerNullPrimitives(vm *VM) {
	c := vm.nullClass
	bind(vm, c, "!", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = TrueVal
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString("null"))
		return true
	})
}

func registerFnPrimitives(vm *VM) {
	c := vm.fnClass
	bind(vm, c, "arity", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		closure, ok := args[0].AsObj().(*ObjClosure)
		if !ok {
			return argErr(vm, "Receiver must be a function.")
		}
		args[0] = NumVal(float64(closure.Fn().Arity))
		return true
	})
	for arity := 0; arity <= maxCallArity; arity++ {
		sig := callSignature(arity)
		bind(vm, c, sig, func(vm *VM, fiber *ObjFiber, args []Value) bool {
			closure, ok := args[0].AsObj().(*ObjClosure)
			if !ok {
				return argErr(vm, "Receiver must be a function.")
			}
			base := fiber.lastCallReg
			copy(fiber.stack[base:base+len(args)], args)
			if len(fiber.frames) >= conf.MaxCallDepth {
				return argErr(vm, "Stack overflow.")
			}
			fiber.ensureStack(base + closure.Fn().MaxSlots)
			fiber.frames = append(fiber.frames, CallFrame{closure: closure, stackStart: base, returnReg: base})
			return false
		})
	}
}

// maxCallArity bounds the arity-numbered `call()`/`call(_)`/`call(_,_)`
// overloads Fn registers for invoking closures as FunctionCall methods.
const maxCallArity = 16

func callSignature(arity int) string {
	if arity == 0 {
		return "call()"
	}
	sig := "call("
	for i := 0; i < arity; i++ {
		if i > 0 {
			sig += ","
		}
		sig += "_"
	}
	return sig + ")"
}

func registerSystemPrimitives(vm *VM) {
	// System is a user-visible module-level class bound by the (external)
	// compiler's implicit core imports; its static methods live on a
	// dedicated class so `System.print(...)` resolves the same way any
	// other static call does.
	systemClass, _ := vm.NewClass("System", vm.objectClass, 0)
	vm.coreModule.DefineVariable("System", ObjVal(systemClass))
	meta := systemClass.header().classObj
	bind(vm, meta, "print(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		vm.write(ToString(args[1]) + "\n")
		args[0] = args[1]
		return true
	})
	bind(vm, meta, "write(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		vm.write(ToString(args[1]))
		args[0] = args[1]
		return true
	})
	bind(vm, meta, "clock", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(time.Now().UnixNano()) / 1e9)
		return true
	})
}
