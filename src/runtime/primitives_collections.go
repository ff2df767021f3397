package runtime

// registerListPrimitives wires List's methods, grounded on
// tanema-luaf/src/runtime/lib_table.go's stdTableInsert/stdTableRemove
// argument-validation style, retargeted at ObjList's operations.
func registerListPrimitives(vm *VM) {
	c := vm.listClass

	bind(vm, c, "count", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(args[0].AsObj().(*ObjList).Len()))
		return true
	})
	bind(vm, c, "add(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		l.Add(args[1])
		args[0] = args[1]
		return true
	})
	bind(vm, c, "addAll(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		other, ok := args[1].AsObj().(*ObjList)
		if !ok {
			return argErr(vm, "Argument must be a List.")
		}
		l.AddAll(other)
		args[0] = args[1]
		return true
	})
	bind(vm, c, "insert(_,_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		if !args[1].IsNum() {
			return argErr(vm, "Index must be a number.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 || idx > l.Len() {
			return argErr(vm, "Index out of bounds.")
		}
		l.Insert(idx, args[2])
		args[0] = args[2]
		return true
	})
	bind(vm, c, "removeAt(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		if !args[1].IsNum() {
			return argErr(vm, "Index must be a number.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= l.Len() {
			return argErr(vm, "Index out of bounds.")
		}
		args[0] = l.RemoveAt(idx)
		return true
	})
	bind(vm, c, "indexOf(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(args[0].AsObj().(*ObjList).IndexOf(args[1])))
		return true
	})
	bind(vm, c, "clear()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		for l.Len() > 0 {
			l.RemoveAt(l.Len() - 1)
		}
		args[0] = NullVal
		return true
	})
	bind(vm, c, "[_]", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		if !args[1].IsNum() {
			return argErr(vm, "Subscript must be a number.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= l.Len() {
			return argErr(vm, "List index out of bounds.")
		}
		args[0] = l.At(idx)
		return true
	})
	bind(vm, c, "[_]=(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		l := args[0].AsObj().(*ObjList)
		if !args[1].IsNum() {
			return argErr(vm, "Subscript must be a number.")
		}
		idx := int(args[1].AsNum())
		if idx < 0 || idx >= l.Len() {
			return argErr(vm, "List index out of bounds.")
		}
		l.SetAt(idx, args[2])
		args[0] = args[2]
		return true
	})
	bind(vm, c, "+(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		other, ok := args[1].AsObj().(*ObjList)
		if !ok {
			return argErr(vm, "Right operand must be a List.")
		}
		merged := vm.NewList(args[0].AsObj().(*ObjList).elems...)
		merged.AddAll(other)
		args[0] = ObjVal(merged)
		return true
	})
	bind(vm, c, "*(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !args[1].IsNum() {
			return argErr(vm, "Right operand must be a number.")
		}
		args[0] = ObjVal(vm.Repeat(args[0].AsObj().(*ObjList), int(args[1].AsNum())))
		return true
	})
	bind(vm, c, "iterate(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjList).iterNext(args[1])
		return true
	})
	bind(vm, c, "iteratorValue(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjList).iterValue(args[1])
		return true
	})

	bindMeta(vm, c, "filled(_,_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !args[1].IsNum() {
			return argErr(vm, "Size must be a number.")
		}
		n := int(args[1].AsNum())
		elems := make([]Value, n)
		for i := range elems {
			elems[i] = args[2]
		}
		args[0] = ObjVal(vm.NewList(elems...))
		return true
	})
	bindMeta(vm, c, "new()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewList())
		return true
	})
}

// registerMapPrimitives wires Map's methods onto ObjMap's open-addressed
// core.
func registerMapPrimitives(vm *VM) {
	c := vm.mapClass

	bind(vm, c, "count", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(float64(args[0].AsObj().(*ObjMap).Count()))
		return true
	})
	bind(vm, c, "[_]", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !validateKey(args[1]) {
			return argErr(vm, "Key must be a value type.")
		}
		v, ok := args[0].AsObj().(*ObjMap).Get(args[1])
		if !ok {
			args[0] = NullVal
		} else {
			args[0] = v
		}
		return true
	})
	bind(vm, c, "[_]=(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !validateKey(args[1]) {
			return argErr(vm, "Key must be a value type.")
		}
		args[0].AsObj().(*ObjMap).Set(args[1], args[2])
		args[0] = args[2]
		return true
	})
	bind(vm, c, "containsKey(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !validateKey(args[1]) {
			return argErr(vm, "Key must be a value type.")
		}
		args[0] = BoolVal(args[0].AsObj().(*ObjMap).Contains(args[1]))
		return true
	})
	bind(vm, c, "remove(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		if !validateKey(args[1]) {
			return argErr(vm, "Key must be a value type.")
		}
		v, _ := args[0].AsObj().(*ObjMap).Remove(args[1])
		args[0] = v
		return true
	})
	bind(vm, c, "clear()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewMap())
		return true
	})
	bind(vm, c, "iterate(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjMap).iterNext(args[1])
		return true
	})
	bind(vm, c, "iteratorValue(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = vm.iterValueMap(args[0].AsObj().(*ObjMap), args[1])
		return true
	})

	bindMeta(vm, c, "new()", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewMap())
		return true
	})

	e := vm.mapEntryClass
	bind(vm, e, "key", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjMapEntry).Key
		return true
	})
	bind(vm, e, "value", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjMapEntry).Value
		return true
	})
}

// registerRangePrimitives wires Range's methods onto ObjRange's immutable
// from/to/isInclusive fields.
func registerRangePrimitives(vm *VM) {
	c := vm.rangeClass

	bind(vm, c, "from", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(args[0].AsObj().(*ObjRange).From())
		return true
	})
	bind(vm, c, "to", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = NumVal(args[0].AsObj().(*ObjRange).To())
		return true
	})
	bind(vm, c, "isInclusive", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = BoolVal(args[0].AsObj().(*ObjRange).IsInclusive())
		return true
	})
	bind(vm, c, "min", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		r := args[0].AsObj().(*ObjRange)
		if r.From() < r.To() {
			args[0] = NumVal(r.From())
		} else {
			args[0] = NumVal(r.To())
		}
		return true
	})
	bind(vm, c, "max", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		r := args[0].AsObj().(*ObjRange)
		if r.From() > r.To() {
			args[0] = NumVal(r.From())
		} else {
			args[0] = NumVal(r.To())
		}
		return true
	})
	bind(vm, c, "iterate(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjRange).iterNext(args[1])
		return true
	})
	bind(vm, c, "iteratorValue(_)", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = args[0].AsObj().(*ObjRange).iterValue(args[1])
		return true
	})
	bind(vm, c, "toString", func(vm *VM, fiber *ObjFiber, args []Value) bool {
		args[0] = ObjVal(vm.NewString(ToString(args[0])))
		return true
	})
}
