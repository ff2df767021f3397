package runtime

import (
	"github.com/wrengo/wren/src/bytecode"
	"github.com/wrengo/wren/src/conf"
)

// invoke implements call dispatch given a method variant: look
// up symbol on the receiver's class (or, for CALLSUPERK, on startClass),
// then run it according to its Method.kind.
func (vm *VM) invoke(fiber *ObjFiber, frame *CallFrame, receiverBase, argCount, symbol int, startClass *ObjClass) error {
	base := frame.stackStart + receiverBase
	receiver := fiber.stack[base]
	class := startClass
	if class == nil {
		class = classOf(vm, receiver)
	}
	method := class.MethodAt(symbol)

	switch method.kind {
	case MethodNone:
		return werrNew(vm, "$ does not implement '$'.", typeNameOf(vm, receiver), vm.methodNames.NameAt(symbol))

	case MethodPrimitive, MethodFunctionCall:
		args := make([]Value, argCount+1)
		copy(args, fiber.stack[base:base+argCount+1])
		fiber.lastCallReg = base
		if method.primitive(vm, fiber, args) {
			fiber.stack[base] = args[0]
		} else if !fiber.err.IsNull() {
			return &abortError{value: fiber.err}
		}
		// a false return with a null error means the primitive itself
		// switched vm.fiber or pushed a frame; nothing further to do here.
		return nil

	case MethodBlock:
		if len(fiber.frames) >= conf.MaxCallDepth {
			return werrNew(vm, "Stack overflow.")
		}
		proto := method.closure.Fn()
		fiber.ensureStack(base + proto.MaxSlots)
		for i := argCount + 1; i <= proto.Arity; i++ {
			fiber.stack[base+i] = NullVal
		}
		fiber.frames = append(fiber.frames, CallFrame{
			closure:    method.closure,
			stackStart: base,
			returnReg:  base,
		})
		return nil

	case MethodForeign:
		prevBase := vm.apiStackBase
		vm.apiStackBase = base
		method.foreign(vm)
		vm.apiStackBase = prevBase
		return nil

	default:
		return werrNew(vm, "$ does not implement '$'.", typeNameOf(vm, receiver), vm.methodNames.NameAt(symbol))
	}
}

// overloadable reports whether v is a receiver kind (Instance or Class)
// that should be checked for an operator override before falling back to
// the built-in primitive path.
func overloadable(v Value) bool {
	if !v.IsObj() {
		return false
	}
	switch v.AsObj().(type) {
	case *ObjInstance, *ObjClass:
		return true
	default:
		return false
	}
}

// tryUnaryOverload dispatches sym on receiver if it is an Instance or Class
// with a matching method, writing the result to register dst. ok is false
// if no override was found and the built-in fallback should run instead.
func (vm *VM) tryUnaryOverload(fiber *ObjFiber, frame *CallFrame, receiver Value, sym string, dst int) (bool, error) {
	if !overloadable(receiver) {
		return false, nil
	}
	symbol, ok := vm.methodNames.Find(sym)
	if !ok {
		return false, nil
	}
	method := classOf(vm, receiver).MethodAt(symbol)
	if method.kind == MethodNone {
		return false, nil
	}
	base := frame.stackStart + dst
	fiber.stack[base] = receiver
	fiber.lastCallReg = base
	if method.kind == MethodBlock {
		return true, vm.invoke(fiber, frame, dst, 0, symbol, nil)
	}
	args := []Value{receiver}
	if method.primitive(vm, fiber, args) {
		fiber.stack[base] = args[0]
	} else if !fiber.err.IsNull() {
		return true, &abortError{value: fiber.err}
	}
	return true, nil
}

// tryBinaryOverload is tryUnaryOverload's two-operand sibling, used by the
// arithmetic and GETSUB paths (relational opcodes use tryRelationalOverload).
func (vm *VM) tryBinaryOverload(fiber *ObjFiber, frame *CallFrame, lhs, rhs Value, sym string, dst int) (bool, error) {
	if !overloadable(lhs) {
		return false, nil
	}
	symbol, ok := vm.methodNames.Find(sym)
	if !ok {
		return false, nil
	}
	method := classOf(vm, lhs).MethodAt(symbol)
	if method.kind == MethodNone {
		return false, nil
	}
	base := frame.stackStart + dst
	fiber.ensureStack(base + 2)
	fiber.stack[base] = lhs
	fiber.stack[base+1] = rhs
	fiber.lastCallReg = base
	if method.kind == MethodBlock {
		return true, vm.invoke(fiber, frame, dst, 1, symbol, nil)
	}
	args := []Value{lhs, rhs}
	if method.primitive(vm, fiber, args) {
		fiber.stack[base] = args[0]
	} else if !fiber.err.IsNull() {
		return true, &abortError{value: fiber.err}
	}
	return true, nil
}

// tryRelationalOverload is tryBinaryOverload's counterpart for EQ/LT/LTE: a
// Primitive overload still resolves synchronously (immediate=true, the
// caller may test dst right away), but a Block overload only pushes a call
// frame here: its body hasn't run yet, so dst still holds lhs rather than
// the comparison's result. That frame is flagged skipCallerOnFalse so
// popFrameReturning applies the skip-next decision once the callee actually
// returns a value, instead of relational() deciding it against a stale
// receiver.
func (vm *VM) tryRelationalOverload(fiber *ObjFiber, frame *CallFrame, lhs, rhs Value, sym string, dst int) (ok, immediate bool, err error) {
	if !overloadable(lhs) {
		return false, false, nil
	}
	symbol, found := vm.methodNames.Find(sym)
	if !found {
		return false, false, nil
	}
	method := classOf(vm, lhs).MethodAt(symbol)
	if method.kind == MethodNone {
		return false, false, nil
	}
	base := frame.stackStart + dst
	fiber.ensureStack(base + 2)
	fiber.stack[base] = lhs
	fiber.stack[base+1] = rhs
	fiber.lastCallReg = base

	if method.kind == MethodBlock {
		if len(fiber.frames) >= conf.MaxCallDepth {
			return true, false, werrNew(vm, "Stack overflow.")
		}
		proto := method.closure.Fn()
		fiber.ensureStack(base + proto.MaxSlots)
		for i := 2; i <= proto.Arity; i++ {
			fiber.stack[base+i] = NullVal
		}
		fiber.frames = append(fiber.frames, CallFrame{
			closure:           method.closure,
			stackStart:        base,
			returnReg:         base,
			skipCallerOnFalse: true,
		})
		return true, false, nil
	}

	args := []Value{lhs, rhs}
	if method.primitive(vm, fiber, args) {
		fiber.stack[base] = args[0]
	} else if !fiber.err.IsNull() {
		return true, true, &abortError{value: fiber.err}
	}
	return true, true, nil
}

// arith handles ADD/SUB/MUL/DIV and their *K variants: the built-in
// number+number and string+string fast paths, falling back further to the
// operator-overload path for Instances.
func (vm *VM) arith(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, instr uint32, op bytecode.Op) error {
	a := bytecode.GetA(instr)
	b, bK := bytecode.GetBK(instr)
	c, cK := bytecode.GetCK(instr)
	lhs := operand(fiber, frame, fn, b, bK)
	rhs := operand(fiber, frame, fn, c, cK)

	if lhs.IsNum() && rhs.IsNum() {
		l, r := lhs.AsNum(), rhs.AsNum()
		var result float64
		switch op {
		case bytecode.ADD, bytecode.ADDK:
			result = l + r
		case bytecode.SUB, bytecode.SUBK:
			result = l - r
		case bytecode.MUL, bytecode.MULK:
			result = l * r
		case bytecode.DIV, bytecode.DIVK:
			result = l / r
		}
		regSet(fiber, frame, a, NumVal(result))
		return nil
	}

	if (op == bytecode.ADD || op == bytecode.ADDK) && lhs.IsObj() && rhs.IsObj() {
		if ls, ok := lhs.AsObj().(*ObjString); ok {
			if rs, ok := rhs.AsObj().(*ObjString); ok {
				regSet(fiber, frame, a, ObjVal(vm.NewString(ls.value+rs.value)))
				return nil
			}
		}
		if ll, ok := lhs.AsObj().(*ObjList); ok {
			if rl, ok := rhs.AsObj().(*ObjList); ok {
				merged := vm.NewList(ll.elems...)
				merged.AddAll(rl)
				regSet(fiber, frame, a, ObjVal(merged))
				return nil
			}
		}
	}
	if (op == bytecode.MUL || op == bytecode.MULK) && lhs.IsObj() && rhs.IsNum() {
		if ll, ok := lhs.AsObj().(*ObjList); ok {
			regSet(fiber, frame, a, ObjVal(vm.Repeat(ll, int(rhs.AsNum()))))
			return nil
		}
	}

	sym := map[bytecode.Op]string{
		bytecode.ADD: symPlus, bytecode.ADDK: symPlus,
		bytecode.SUB: symMinus, bytecode.SUBK: symMinus,
		bytecode.MUL: symStar, bytecode.MULK: symStar,
		bytecode.DIV: symSlash, bytecode.DIVK: symSlash,
	}[op]
	if ok, err := vm.tryBinaryOverload(fiber, frame, lhs, rhs, sym, int(a)); err != nil {
		return err
	} else if ok {
		return nil
	}
	return werrNew(vm, "$ does not implement '$'.", typeNameOf(vm, lhs), sym)
}

// relational handles EQ/LT/LTE and their *K variants: when the comparison
// is false the following instruction (LOADBOOL or a peephole-paired JUMP) is
// skipped. A is not compared with the result; it only names the destination
// register of an operator overload.
func (vm *VM) relational(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, instr uint32, op bytecode.Op) error {
	a := bytecode.GetA(instr)
	b, bK := bytecode.GetBK(instr)
	c, cK := bytecode.GetCK(instr)
	lhs := operand(fiber, frame, fn, b, bK)
	rhs := operand(fiber, frame, fn, c, cK)

	sym := map[bytecode.Op]string{
		bytecode.EQ: symEqEq, bytecode.EQK: symEqEq,
		bytecode.LT: symLt, bytecode.LTK: symLt,
		bytecode.LTE: symLte, bytecode.LTEK: symLte,
	}[op]
	if overloadable(lhs) {
		ok, immediate, err := vm.tryRelationalOverload(fiber, frame, lhs, rhs, sym, int(a))
		if err != nil {
			return err
		}
		if ok {
			// a Block overload's result isn't known yet; popFrameReturning
			// applies the skip decision once its frame actually returns.
			if immediate && !regGet(fiber, frame, a).Truthy() {
				frame.ip++
			}
			return nil
		}
	}

	var result bool
	var handled bool

	switch {
	case op == bytecode.EQ || op == bytecode.EQK:
		result, handled = Equal(lhs, rhs), true
	case lhs.IsNum() && rhs.IsNum():
		switch op {
		case bytecode.LT, bytecode.LTK:
			result = lhs.AsNum() < rhs.AsNum()
		case bytecode.LTE, bytecode.LTEK:
			result = lhs.AsNum() <= rhs.AsNum()
		}
		handled = true
	case lhs.IsObj() && rhs.IsObj():
		if ls, ok := lhs.AsObj().(*ObjString); ok {
			if rs, ok := rhs.AsObj().(*ObjString); ok {
				switch op {
				case bytecode.LT, bytecode.LTK:
					result = ls.value < rs.value
				case bytecode.LTE, bytecode.LTEK:
					result = ls.value <= rs.value
				}
				handled = true
			}
		}
	}

	if !handled {
		return werrNew(vm, "$ does not implement '$'.", typeNameOf(vm, lhs), sym)
	}

	if !result {
		frame.ip++
	}
	return nil
}

// iterate implements the ITERATE opcode across every built-in
// sequence type, falling back to an Instance's `iterate(_)` override.
func (vm *VM) iterate(fiber *ObjFiber, frame *CallFrame, seq, it Value, dst int) (bool, error) {
	switch s := seq.AsObj().(type) {
	case *ObjList:
		next := s.iterNext(it)
		regSet(fiber, frame, int64(dst), next)
		return next.Truthy() || next.IsNum(), nil
	case *ObjMap:
		next := s.iterNext(it)
		regSet(fiber, frame, int64(dst), next)
		return next.Truthy() || next.IsNum(), nil
	case *ObjRange:
		next := s.iterNext(it)
		regSet(fiber, frame, int64(dst), next)
		return next.Truthy() || next.IsNum(), nil
	case *ObjString:
		next := s.iterNext(it)
		regSet(fiber, frame, int64(dst), next)
		return next.Truthy() || next.IsNum(), nil
	case *ObjInstance:
		ok, err := vm.tryUnaryOverload(fiber, frame, seq, symIterate, dst)
		if err != nil {
			return false, err
		}
		if ok {
			return fiber.stack[frame.stackStart+dst].Truthy(), nil
		}
		return false, werrNew(vm, "$ is not iterable.", typeNameOf(vm, seq))
	default:
		return false, werrNew(vm, "$ is not iterable.", typeNameOf(vm, seq))
	}
}

// iteratorValue implements ITERATORVALUE. For a Map it always allocates an
// ObjMapEntry; a following GETFIELD with C==0/1 is not special-cased to read
// key/value straight off the entry.
func (vm *VM) iteratorValue(fiber *ObjFiber, frame *CallFrame, seq, it Value, dst int) (Value, error) {
	var v Value
	switch s := seq.AsObj().(type) {
	case *ObjList:
		v = s.iterValue(it)
	case *ObjMap:
		v = vm.iterValueMap(s, it)
	case *ObjRange:
		v = s.iterValue(it)
	case *ObjString:
		v = vm.iterValueString(s, it)
	case *ObjInstance:
		ok, err := vm.tryUnaryOverload(fiber, frame, seq, symIterVal, dst)
		if err != nil {
			return NullVal, err
		}
		if ok {
			return fiber.stack[frame.stackStart+dst], nil
		}
		return NullVal, werrNew(vm, "$ is not iterable.", typeNameOf(vm, seq))
	default:
		return NullVal, werrNew(vm, "$ is not iterable.", typeNameOf(vm, seq))
	}
	regSet(fiber, frame, int64(dst), v)
	return v, nil
}

// getSub/setSub implement GETSUB/SETSUB: List/Map/String
// subscripting, falling back to an Instance's `[_]`/`[_]=(_)` overload.
func (vm *VM) getSub(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, receiver, key Value, dst int) error {
	switch r := receiver.AsObj().(type) {
	case *ObjList:
		if !key.IsNum() {
			return werrNew(vm, "List subscript must be a number.")
		}
		idx := int(key.AsNum())
		if idx < 0 || idx >= r.Len() {
			return werrNew(vm, "List index out of bounds.")
		}
		regSet(fiber, frame, int64(dst), r.At(idx))
	case *ObjMap:
		if !validateKey(key) {
			return werrNew(vm, "Key must be a value type.")
		}
		v, ok := r.Get(key)
		if !ok {
			regSet(fiber, frame, int64(dst), NullVal)
		} else {
			regSet(fiber, frame, int64(dst), v)
		}
	case *ObjString:
		if !key.IsNum() {
			return werrNew(vm, "String subscript must be a number.")
		}
		regSet(fiber, frame, int64(dst), vm.iterValueString(r, NumVal(key.AsNum())))
	default:
		ok, err := vm.tryBinaryOverload(fiber, frame, receiver, key, symSubGet, dst)
		if err != nil {
			return err
		}
		if !ok {
			return werrNew(vm, "$ does not implement '[_]'.", typeNameOf(vm, receiver))
		}
	}
	return nil
}

func (vm *VM) setSub(fiber *ObjFiber, frame *CallFrame, fn *ObjFn, receiver, key, value Value) error {
	switch r := receiver.AsObj().(type) {
	case *ObjList:
		if !key.IsNum() {
			return werrNew(vm, "List subscript must be a number.")
		}
		idx := int(key.AsNum())
		if idx < 0 || idx >= r.Len() {
			return werrNew(vm, "List index out of bounds.")
		}
		r.SetAt(idx, value)
	case *ObjMap:
		if !validateKey(key) {
			return werrNew(vm, "Key must be a value type.")
		}
		r.Set(key, value)
	default:
		dst := int(frame.closure.fn.MaxSlots - 1)
		base := frame.stackStart + dst
		fiber.ensureStack(base + 3)
		fiber.stack[base] = receiver
		fiber.stack[base+1] = key
		fiber.stack[base+2] = value
		symbol, ok := vm.methodNames.Find(symSubSet)
		if !ok {
			return werrNew(vm, "$ does not implement '[_]=(_)'.", typeNameOf(vm, receiver))
		}
		return vm.invoke(fiber, frame, dst, 2, symbol, nil)
	}
	return nil
}
