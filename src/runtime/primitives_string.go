package runtime

import "strings"

// registerStringPrimitives wires String's methods, grounded on
// tanema-luaf/src/runtime/lib_string.go's stdString* functions for the
// byte/rune-index split and on UTF-8 iteration contract for
// codePointAt/byteAt.
func registerStringPrimitives(vm *VM) {
	c := vm.stringClass

	bind(vm, c, "+(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		rhs, ok := args[1].AsObj().(*ObjString)
		if !ok {
			return argErr(vm, "Right operand must be a string.")
		}
		args[0] = ObjVal(vm.NewString(args[0].AsObj().(*ObjString).value + rhs.value))
		return true
	})
	bind(vm, c, "==(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(Equal(args[0], args[1]))
		return true
	})
	bind(vm, c, "!=(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(!Equal(args[0], args[1]))
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool { return true })
	bind(vm, c, "count", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s := args[0].AsObj().(*ObjString)
		n := 0
		for i := 0; i < len(s.value); {
			i += nextUTF8Boundary(s.value, i)
			n++
		}
		args[0] = NumVal(float64(n))
		return true
	})
	bind(vm, c, "byteCount_", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(args[0].AsObj().(*ObjString).ByteLen()))
		return true
	})
	bind(vm, c, "byteAt_(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s := args[0].AsObj().(*ObjString)
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= len(s.value) {
			return argErr(vm, "Index out of bounds.")
		}
		args[0] = NumVal(float64(s.value[idx]))
		return true
	})
	bind(vm, c, "codePointAt_(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s := args[0].AsObj().(*ObjString)
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= len(s.value) {
			return argErr(vm, "Index out of bounds.")
		}
		args[0] = NumVal(float64(codePointAt(s.value, idx)))
		return true
	})
	bind(vm, c, "contains(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		needle, ok := args[1].AsObj().(*ObjString)
		if !ok {
			return argErr(vm, "Argument must be a string.")
		}
		args[0] = BoolVal(strings.Contains(args[0].AsObj().(*ObjString).value, needle.value))
		return true
	})
	bind(vm, c, "startsWith(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(strings.HasPrefix(args[0].AsObj().(*ObjString).value, args[1].AsObj().(*ObjString).value))
		return true
	})
	bind(vm, c, "endsWith(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(strings.HasSuffix(args[0].AsObj().(*ObjString).value, args[1].AsObj().(*ObjString).value))
		return true
	})
	bind(vm, c, "indexOf(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(strings.Index(args[0].AsObj().(*ObjString).value, args[1].AsObj().(*ObjString).value)))
		return true
	})
	bind(vm, c, "replace(_,_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s := args[0].AsObj().(*ObjString)
		from := args[1].AsObj().(*ObjString)
		to := args[2].AsObj().(*ObjString)
		args[0] = ObjVal(vm.NewString(strings.ReplaceAll(s.value, from.value, to.value)))
		return true
	})
	bind(vm, c, "split(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		sep, ok := args[1].AsObj().(*ObjString)
		if !ok {
			return argErr(vm, "Argument must be a string.")
		}
		parts := strings.Split(args[0].AsObj().(*ObjString).value, sep.value)
		list := vm.NewList()
		for _, p := range parts {
			list.Add(ObjVal(vm.NewString(p)))
		}
		args[0] = ObjVal(list)
		return true
	})
	bind(vm, c, "trim()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(strings.TrimSpace(args[0].AsObj().(*ObjString).value)))
		return true
	})
	bind(vm, c, "*(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !args[1].IsNum() {
			return argErr(vm, "Right operand must be a number.")
		}
		args[0] = ObjVal(vm.NewString(strings.Repeat(args[0].AsObj().(*ObjString).value, int(args[1].AsNum()))))
		return true
	})
	bind(vm, c, "[_]", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		s := args[0].AsObj().(*ObjString)
		if !args[1].IsNum() {
			return argErr(vm, "Subscript must be a number.")
		}
		idx := int(args[1].AsNum())
		byteIdx := 0
		for i := 0; i < idx && byteIdx < len(s.value); i++ {
			byteIdx += nextUTF8Boundary(s.value, byteIdx)
		}
		if byteIdx >= len(s.value) {
			return argErr(vm, "String index out of bounds.")
		}
		args[0] = vm.iterValueString(s, NumVal(float64(byteIdx)))
		return true
	})

	bindMeta(vm, c, "fromCodePoint(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(string(rune(int(args[1].AsNum())))))
		return true
	})
}
