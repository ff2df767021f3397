package runtime

// registerFiberPrimitives wires Fiber's methods onto ObjFiber's cooperative
// transfer/yield/error-propagation core, grounded on
// tanema-luaf/src/runtime/lib_coroutine.go's coroutine.create/resume/yield
// primitives, converted from that file's channel-handoff implementation to
// direct vm.fiber reassignment (fiber.go's transferToFiber/yield).
func registerFiberPrimitives(vm *VM) {
	c := vm.fiberClass

	bind(vm, c, "call()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		vm.transferToFiber(f, NullVal, false)
		return false
	})
	bind(vm, c, "call(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		vm.transferToFiber(f, args[1], false)
		return false
	})
	bind(vm, c, "try()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		vm.transferToFiber(f, NullVal, true)
		return false
	})
	bind(vm, c, "transfer()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		vm.transferDirect(f, NullVal)
		return false
	})
	bind(vm, c, "transfer(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		vm.transferDirect(f, args[1])
		return false
	})
	bind(vm, c, "isDone", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		args[0] = BoolVal(f.IsDone())
		return true
	})
	bind(vm, c, "error", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		f, ok := args[0].AsObj().(*ObjFiber)
		if !ok {
			return argErr(vm, "Receiver must be a fiber.")
		}
		args[0] = f.Error()
		return true
	})

	meta := c.header().classObj
	bind(vm, meta, "new(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		closure, ok := args[1].AsObj().(*ObjClosure)
		if !ok {
			return argErr(vm, "Argument must be a function.")
		}
		args[0] = ObjVal(vm.NewFiber(closure))
		return true
	})
	bind(vm, meta, "yield()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		vm.yield(NullVal)
		return false
	})
	bind(vm, meta, "yield(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		vm.yield(args[1])
		return false
	})
	bind(vm, meta, "current", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.fiber)
		return true
	})
	bind(vm, meta, "abort(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		vm.AbortFiber(args[1])
		return false
	})
}
