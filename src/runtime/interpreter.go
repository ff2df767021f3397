package runtime

import (
	"github.com/wrengo/wren/src/bytecode"
	"github.com/wrengo/wren/src/conf"
)

// Canonical operator method-symbol names.
const (
	symPlus    = "+(_)"
	symMinus   = "-(_)"
	symStar    = "*(_)"
	symSlash   = "/(_)"
	symEqEq    = "==(_)"
	symNotEq   = "!=(_)"
	symLt      = "<(_)"
	symLte     = "<=(_)"
	symGt      = ">(_)"
	symGte     = ">=(_)"
	symBang    = "!"
	symUnaryM  = "-"
	symSubGet  = "[_]"
	symSubSet  = "[_]=(_)"
	symIterate = "iterate(_)"
	symIterVal = "iteratorValue(_)"
)

// run is the interpreter's main dispatch loop: single-threaded, cooperative,
// not re-entrant on a single fiber. Grounded closely on
// tanema-luaf/src/runtime/vm.go's eval(f *frame) switch-on-opcode loop and
// its vm.get/vm.setStack register helpers, generalized to the register
// opcode set plus the operator-overload fast path.
func (vm *VM) run() (InterpretResult, error) {
	for vm.fiber != nil {
		res, err := vm.runFiber(vm.fiber)
		if err != nil {
			return res, err
		}
		if res != ResultSuccess {
			return res, nil
		}
	}
	return ResultSuccess, nil
}

// runFiber executes fiber's frames until it completes, yields, switches to
// another fiber, or aborts with an uncaught runtime error.
func (vm *VM) runFiber(fiber *ObjFiber) (InterpretResult, error) {
	for len(fiber.frames) > 0 && vm.fiber == fiber {
		frame := &fiber.frames[len(fiber.frames)-1]
		fn := frame.closure.fn
		if frame.ip >= len(fn.Code) {
			vm.popFrameReturning(fiber, frame, NullVal, false)
			continue
		}
		instr := fn.Code[frame.ip]
		frame.ip++

		if err := vm.step(fiber, frame, fn, instr); err != nil {
			caught := vm.propagateRuntimeError(vm.errorValue(err))
			if caught == nil {
				vm.reportRuntimeError(fiber, err.Error())
				return ResultRuntimeError, err
			}
			// caught == vm.fiber now; loop continues on the catching fiber.
			return ResultSuccess, nil
		}
	}
	return ResultSuccess, nil
}

// regGet/regSet read and write a fiber's stack relative to the active frame.
func regGet(fiber *ObjFiber, frame *CallFrame, i int64) Value { return fiber.stack[frame.stackStart+int(i)] }
func regSet(fiber *ObjFiber, frame *CallFrame, i int64, v Value) {
	fiber.stack[frame.stackStart+int(i)] = v
}

// operand resolves a B/C-style operand that may address either a register
// or the owning function's constant table.
func operand(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, idx int64, isConst bool) Value {
	if isConst {
		if int(idx) < len(fn.Constants) {
			return fn.Constants[idx]
		}
		return NullVal
	}
	return regGet(fiber, frame, idx)
}

// step executes one instruction. Returning an error aborts the fiber; the
// caller turns it into the fiber's error value with errorValue (an
// abortError's original Value, otherwise the message as a string).
func (vm *VM) step(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, instr uint32) error {
	op := bytecode.GetOp(instr)
	a := bytecode.GetA(instr)

	switch op {
	case bytecode.MOVE:
		b, _ := bytecode.GetBK(instr)
		regSet(fiber, frame, a, regGet(fiber, frame, b))

	case bytecode.LOADK:
		k := fn.Constants[bytecode.GetBx(instr)]
		regSet(fiber, frame, a, vm.cloneConstant(k))

	case bytecode.LOADNULL:
		regSet(fiber, frame, a, NullVal)

	case bytecode.LOADBOOL:
		b, _ := bytecode.GetBK(instr)
		regSet(fiber, frame, a, BoolVal(b != 0))
		if c, _ := bytecode.GetCK(instr); c != 0 {
			frame.ip++
		}

	case bytecode.GETGLOBAL:
		regSet(fiber, frame, a, fn.Module.VariableAt(int(bytecode.GetBx(instr))))

	case bytecode.SETGLOBAL:
		fn.Module.SetVariableAt(int(bytecode.GetBx(instr)), regGet(fiber, frame, a))

	case bytecode.GETUPVAL:
		regSet(fiber, frame, a, frame.closure.upvalues[bytecode.GetBx(instr)].Get())

	case bytecode.SETUPVAL:
		frame.closure.upvalues[bytecode.GetBx(instr)].Set(regGet(fiber, frame, a))

	case bytecode.GETFIELD:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		inst, ok := regGet(fiber, frame, b).AsObj().(*ObjInstance)
		if !ok {
			return werrNew(vm, "Receiver is not an instance.")
		}
		regSet(fiber, frame, a, inst.Field(int(c)))

	case bytecode.SETFIELD:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		inst, ok := regGet(fiber, frame, b).AsObj().(*ObjInstance)
		if !ok {
			return werrNew(vm, "Receiver is not an instance.")
		}
		inst.SetField(int(c), regGet(fiber, frame, a))

	case bytecode.TEST:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		if regGet(fiber, frame, b).Truthy() != (c != 0) {
			frame.ip++ // skip the paired JUMP
		}

	case bytecode.JUMP:
		frame.ip += int(bytecode.GetsJx(instr))

	case bytecode.RETURN:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		var result Value
		if b != 0 {
			result = regGet(fiber, frame, a)
		} else {
			result = NullVal
		}
		vm.popFrameReturning(fiber, frame, result, c != 0)

	case bytecode.CALLK, bytecode.CALLSUPERK:
		vb := bytecode.GetVB(instr)
		vc := bytecode.GetVC(instr)
		var startClass *ObjClass
		if op == bytecode.CALLSUPERK {
			if sup, ok := regGet(fiber, frame, a+vb+1).AsObj().(*ObjClass); ok {
				startClass = sup
			}
		}
		return vm.invoke(fiber, frame, int(a), int(vb), int(vc), startClass)

	case bytecode.CLOSURE:
		proto := fn.FnTable[bytecode.GetBx(instr)]
		ups := make([]*ObjUpvalue, len(proto.Upvalues))
		for i, desc := range proto.Upvalues {
			if desc.IsLocal {
				ups[i] = vm.captureUpvalue(fiber, frame.stackStart+desc.Index)
			} else {
				ups[i] = frame.closure.upvalues[desc.Index]
			}
		}
		regSet(fiber, frame, a, ObjVal(vm.NewClosure(proto, ups)))

	case bytecode.CLOSE:
		closeUpvalues(fiber, frame.stackStart+int(a))

	case bytecode.CLASS:
		name, _ := regGet(fiber, frame, a-1).AsObj().(*ObjString)
		var super *ObjClass
		if sc, ok := regGet(fiber, frame, a).AsObj().(*ObjClass); ok {
			super = sc
		} else {
			super = vm.objectClass
		}
		sbx := bytecode.GetsBx(instr)
		numFields := int(sbx)
		isForeign := sbx < 0
		if isForeign {
			numFields = -1
		}
		displayName := ""
		if name != nil {
			displayName = name.value
		}
		class, err := vm.NewClass(displayName, super, numFields)
		if err != nil {
			return err
		}
		regSet(fiber, frame, a, ObjVal(class))

	case bytecode.ENDCLASS:
		class, _ := regGet(fiber, frame, a+1).AsObj().(*ObjClass)
		if class != nil {
			class.attributes = regGet(fiber, frame, a)
		}

	case bytecode.METHOD:
		class, ok := regGet(fiber, frame, a).AsObj().(*ObjClass)
		if !ok {
			return werrNew(vm, "METHOD target is not a class.")
		}
		sbx := bytecode.GetsBx(instr)
		symbol := int(sbx)
		isStatic := sbx < 0
		if isStatic {
			symbol = -symbol
		}
		target := class
		if isStatic {
			target = class.header().classObj
		}
		val := regGet(fiber, frame, a-1)
		if closure, ok := val.AsObj().(*ObjClosure); ok {
			target.BindMethod(symbol, Method{kind: MethodBlock, closure: closure})
		} else if sig, ok := val.AsObj().(*ObjString); ok && vm.config.BindForeignMethod != nil {
			moduleName := ""
			if fn.Module != nil {
				moduleName = fn.Module.Name()
			}
			impl := vm.config.BindForeignMethod(moduleName, class.name, isStatic, sig.value)
			target.BindMethod(symbol, Method{kind: MethodForeign, foreign: impl})
		}

	case bytecode.CONSTRUCT:
		class, ok := regGet(fiber, frame, a).AsObj().(*ObjClass)
		if !ok {
			return werrNew(vm, "CONSTRUCT target is not a class.")
		}
		if bytecode.GetBx(instr) != 0 {
			var alloc ForeignMethod
			if vm.config.BindForeignClass != nil {
				moduleName := ""
				if fn.Module != nil {
					moduleName = fn.Module.Name()
				}
				alloc, _ = vm.config.BindForeignClass(moduleName, class.name)
			}
			f := vm.NewForeign(class, 0)
			regSet(fiber, frame, a, ObjVal(f))
			if alloc != nil {
				alloc(vm)
			}
		} else {
			regSet(fiber, frame, a, ObjVal(vm.NewInstance(class)))
		}

	case bytecode.IMPORTMODULE:
		name, _ := fn.Constants[bytecode.GetBx(instr)].AsObj().(*ObjString)
		closure, cached, err := vm.importModule(name.value)
		if err != nil {
			return err
		}
		if closure != nil {
			regSet(fiber, frame, a, ObjVal(closure))
		} else {
			regSet(fiber, frame, a, cached)
		}

	case bytecode.IMPORTVAR:
		name, _ := fn.Constants[bytecode.GetBx(instr)].AsObj().(*ObjString)
		if vm.lastImport == nil {
			return werrNew(vm, "Could not find a variable named '$' in the last imported module.", name.value)
		}
		idx, ok := vm.lastImport.Variables.Find(name.value)
		if !ok {
			return werrNew(vm, "Could not find a variable named '$'.", name.value)
		}
		regSet(fiber, frame, a, vm.lastImport.VariableAt(idx))

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV,
		bytecode.ADDK, bytecode.SUBK, bytecode.MULK, bytecode.DIVK:
		return vm.arith(fiber, frame, fn, instr, op)

	case bytecode.NEG:
		b, bK := bytecode.GetBK(instr)
		v := operand(fiber, frame, fn, b, bK)
		if v.IsNum() {
			regSet(fiber, frame, a, NumVal(-v.AsNum()))
		} else if ok, err := vm.tryUnaryOverload(fiber, frame, v, symUnaryM, int(a)); err != nil {
			return err
		} else if !ok {
			return werrNew(vm, "$ does not implement '-'.", typeNameOf(vm, v))
		}

	case bytecode.NOT:
		b, bK := bytecode.GetBK(instr)
		v := operand(fiber, frame, fn, b, bK)
		if inst, ok := v.AsObj().(*ObjInstance); ok {
			if ok2, err := vm.tryUnaryOverload(fiber, frame, ObjVal(inst), symBang, int(a)); err != nil {
				return err
			} else if ok2 {
				break
			}
		}
		regSet(fiber, frame, a, BoolVal(!v.Truthy()))

	case bytecode.EQ, bytecode.LT, bytecode.LTE,
		bytecode.EQK, bytecode.LTK, bytecode.LTEK:
		return vm.relational(fiber, frame, fn, instr, op)

	case bytecode.ADDELEM, bytecode.ADDELEMK:
		b, _ := bytecode.GetBK(instr)
		c, cK := bytecode.GetCK(instr)
		list, ok := regGet(fiber, frame, b).AsObj().(*ObjList)
		if !ok {
			return werrNew(vm, "Left operand of list append is not a List.")
		}
		if op == bytecode.ADDELEMK {
			if other, ok := operand(fiber, frame, fn, c, cK).AsObj().(*ObjList); ok {
				list.AddAll(other)
			}
		} else {
			list.Add(operand(fiber, frame, fn, c, cK))
		}

	case bytecode.ITERATE:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		seq := regGet(fiber, frame, b)
		it := regGet(fiber, frame, c)
		next, err := vm.iterate(fiber, frame, seq, it, int(a))
		if err != nil {
			return err
		}
		if !next {
			break
		}

	case bytecode.ITERATORVALUE:
		b, _ := bytecode.GetBK(instr)
		c, _ := bytecode.GetCK(instr)
		seq := regGet(fiber, frame, b)
		it := regGet(fiber, frame, c)
		v, err := vm.iteratorValue(fiber, frame, seq, it, int(a))
		if err != nil {
			return err
		}
		_ = v

	case bytecode.GETSUB:
		b, _ := bytecode.GetBK(instr)
		c, cK := bytecode.GetCK(instr)
		return vm.getSub(fiber, frame, fn, regGet(fiber, frame, b), operand(fiber, frame, fn, c, cK), int(a))

	case bytecode.SETSUB:
		b, _ := bytecode.GetBK(instr)
		c, cK := bytecode.GetCK(instr)
		return vm.setSub(fiber, frame, fn, regGet(fiber, frame, b), operand(fiber, frame, fn, c, cK), regGet(fiber, frame, a))

	case bytecode.RANGE:
		// both operands are always registers per spec (RANGE A B C K ->
		// Range(R[B], R[C], inclusive=K)); C's own K bit is repurposed here
		// as the inclusive flag rather than a "C is a constant" selector,
		// since RANGE never addresses the constant table through C.
		b, _ := bytecode.GetBK(instr)
		c, inclusive := bytecode.GetCK(instr)
		from := regGet(fiber, frame, b)
		to := regGet(fiber, frame, c)
		regSet(fiber, frame, a, ObjVal(vm.NewRange(from.AsNum(), to.AsNum(), inclusive)))

	case bytecode.NOOP:
		// reserved for peephole patching; nothing to do.

	default:
		return werrNew(vm, "Unhandled opcode.")
	}
	return nil
}

// cloneConstant shallow-copies List/Map constants on LOADK, so runtime
// mutation of a literal can never poison the constant table.
func (vm *VM) cloneConstant(v Value) Value {
	switch o := v.obj.(type) {
	case *ObjList:
		if v.typ != ValObj {
			return v
		}
		return ObjVal(vm.NewList(o.elems...))
	case *ObjMap:
		if v.typ != ValObj {
			return v
		}
		clone := vm.NewMap()
		for _, slot := range o.entries {
			if slot.isLive() {
				clone.Set(slot.key, slot.value)
			}
		}
		return ObjVal(clone)
	default:
		return v
	}
}

// popFrameReturning implements RETURN: close upvalues at/above
// the frame's start, pop it, and deliver result to the caller's returnReg
// (or end the fiber / transfer to its caller).
func (vm *VM) popFrameReturning(fiber *ObjFiber, frame *CallFrame, result Value, isModuleEnd bool) {
	if isModuleEnd {
		vm.lastImport = fiber.frames[len(fiber.frames)-1].closure.fn.Module
	}
	closeUpvalues(fiber, frame.stackStart)
	returnReg := frame.returnReg
	skipCallerOnFalse := frame.skipCallerOnFalse
	fiber.frames = fiber.frames[:len(fiber.frames)-1]

	if len(fiber.frames) == 0 {
		if fiber.caller != nil {
			caller := fiber.caller
			fiber.caller = nil
			if caller.lastCallReg >= 0 && caller.lastCallReg < len(caller.stack) {
				caller.stack[caller.lastCallReg] = result
			}
			vm.fiber = caller
		} else {
			vm.fiber = nil
		}
		return
	}
	if returnReg >= 0 {
		fiber.stack[returnReg] = result
	} else {
		fiber.stack[frame.stackStart] = result
	}
	// this frame was a Block-method relational overload's body: now that its
	// result is known, apply the skip-next decision to the resumed caller,
	// the deferred half of the delivery relational() couldn't do at dispatch time.
	if skipCallerOnFalse && !result.Truthy() {
		fiber.frames[len(fiber.frames)-1].ip++
	}
}

func typeNameOf(vm *VM, v Value) string {
	return classOf(vm, v).Name()
}

const maxCallDepth = conf.MaxCallDepth
