package runtime

// SlotType tags the variant a slot's getType reports back to a foreign
// method, the host-visible analogue of ValueType.
type SlotType int

const (
	SlotBool SlotType = iota
	SlotNum
	SlotForeign
	SlotList
	SlotMap
	SlotNull
	SlotString
	SlotUnknown
)

// apiSlot returns the stack slot a foreign method's argument window slot i
// addresses, relative to vm.apiStackBase (set by invoke() for the duration
// of the foreign call).
func (vm *VM) apiSlot(i int) int { return vm.apiStackBase + i }

// EnsureSlots grows the current fiber's stack so slots [0,n) are addressable
// from the foreign method's argument window.
func (vm *VM) EnsureSlots(n int) {
	vm.fiber.ensureStack(vm.apiSlot(n))
}

// SlotCount reports how many slots the current call's argument window holds.
func (vm *VM) SlotCount() int { return len(vm.fiber.stack) - vm.apiStackBase }

// GetSlotType reports the variant held in slot i.
func (vm *VM) GetSlotType(i int) SlotType {
	v := vm.fiber.stack[vm.apiSlot(i)]
	switch v.typ {
	case ValTrue, ValFalse:
		return SlotBool
	case ValNum:
		return SlotNum
	case ValNull:
		return SlotNull
	case ValObj:
		switch v.obj.(type) {
		case *ObjString:
			return SlotString
		case *ObjList:
			return SlotList
		case *ObjMap:
			return SlotMap
		case *ObjForeign:
			return SlotForeign
		}
	}
	return SlotUnknown
}

// GetSlotBool/GetSlotDouble/GetSlotString/GetSlotBytes/GetSlotForeign read a
// slot's payload; callers are expected to check GetSlotType first the way a
// foreign method bound via Config.BindForeignMethod would.
func (vm *VM) GetSlotBool(i int) bool   { return vm.fiber.stack[vm.apiSlot(i)].Truthy() }
func (vm *VM) GetSlotDouble(i int) float64 { return vm.fiber.stack[vm.apiSlot(i)].AsNum() }
func (vm *VM) GetSlotString(i int) string {
	if s, ok := vm.fiber.stack[vm.apiSlot(i)].AsObj().(*ObjString); ok {
		return s.value
	}
	return ""
}
func (vm *VM) GetSlotBytes(i int) []byte {
	return []byte(vm.GetSlotString(i))
}
func (vm *VM) GetSlotForeign(i int) []byte {
	if f, ok := vm.fiber.stack[vm.apiSlot(i)].AsObj().(*ObjForeign); ok {
		return f.Data()
	}
	return nil
}
func (vm *VM) GetSlotHandle(i int) *Handle {
	return vm.MakeHandle(vm.fiber.stack[vm.apiSlot(i)])
}

// GetFiberID returns the currently running fiber's correlation id, letting a
// foreign method tag host-side logs/spans with the same id reportRuntimeError
// prefixes into a trace header.
func (vm *VM) GetFiberID() string {
	if vm.fiber == nil {
		return ""
	}
	return vm.fiber.ID.String()
}

// SetSlotBool/SetSlotDouble/SetSlotNull/SetSlotString/SetSlotBytes write a
// scalar into slot i.
func (vm *VM) SetSlotBool(i int, b bool)      { vm.fiber.stack[vm.apiSlot(i)] = BoolVal(b) }
func (vm *VM) SetSlotDouble(i int, n float64) { vm.fiber.stack[vm.apiSlot(i)] = NumVal(n) }
func (vm *VM) SetSlotNull(i int)              { vm.fiber.stack[vm.apiSlot(i)] = NullVal }
func (vm *VM) SetSlotString(i int, s string) {
	vm.fiber.stack[vm.apiSlot(i)] = ObjVal(vm.NewString(s))
}
func (vm *VM) SetSlotBytes(i int, b []byte) { vm.SetSlotString(i, string(b)) }

// SetSlotNewList/SetSlotNewMap/SetSlotNewForeign install a fresh empty
// collection/foreign instance into slot i.
func (vm *VM) SetSlotNewList(i int) { vm.fiber.stack[vm.apiSlot(i)] = ObjVal(vm.NewList()) }
func (vm *VM) SetSlotNewMap(i int)  { vm.fiber.stack[vm.apiSlot(i)] = ObjVal(vm.NewMap()) }
func (vm *VM) SetSlotNewForeign(i int, class *ObjClass, size int) {
	vm.fiber.stack[vm.apiSlot(i)] = ObjVal(vm.NewForeign(class, size))
}
func (vm *VM) SetSlotHandle(i int, h *Handle) { vm.fiber.stack[vm.apiSlot(i)] = h.value }

// GetListCount/GetListElement/SetListElement/InsertInList let a foreign
// method manipulate a List argument without going through the interpreter's
// GETSUB/SETSUB fast path.
func (vm *VM) GetListCount(i int) int {
	l, ok := vm.fiber.stack[vm.apiSlot(i)].AsObj().(*ObjList)
	if !ok {
		return 0
	}
	return l.Len()
}
func (vm *VM) GetListElement(listSlot, index, elementSlot int) {
	l := vm.fiber.stack[vm.apiSlot(listSlot)].AsObj().(*ObjList)
	vm.fiber.stack[vm.apiSlot(elementSlot)] = l.At(index)
}
func (vm *VM) SetListElement(listSlot, index, elementSlot int) {
	l := vm.fiber.stack[vm.apiSlot(listSlot)].AsObj().(*ObjList)
	l.SetAt(index, vm.fiber.stack[vm.apiSlot(elementSlot)])
}
func (vm *VM) InsertInList(listSlot, index, elementSlot int) {
	l := vm.fiber.stack[vm.apiSlot(listSlot)].AsObj().(*ObjList)
	l.Insert(index, vm.fiber.stack[vm.apiSlot(elementSlot)])
}

// GetMapCount/MapContains/GetMapValue/SetMapValue/RemoveMapValue are Map's
// slot-API counterparts.
func (vm *VM) GetMapCount(i int) int {
	m, ok := vm.fiber.stack[vm.apiSlot(i)].AsObj().(*ObjMap)
	if !ok {
		return 0
	}
	return m.Count()
}
func (vm *VM) MapContains(mapSlot, keySlot int) bool {
	m := vm.fiber.stack[vm.apiSlot(mapSlot)].AsObj().(*ObjMap)
	return m.Contains(vm.fiber.stack[vm.apiSlot(keySlot)])
}
func (vm *VM) GetMapValue(mapSlot, keySlot, valueSlot int) {
	m := vm.fiber.stack[vm.apiSlot(mapSlot)].AsObj().(*ObjMap)
	v, ok := m.Get(vm.fiber.stack[vm.apiSlot(keySlot)])
	if !ok {
		v = NullVal
	}
	vm.fiber.stack[vm.apiSlot(valueSlot)] = v
}
func (vm *VM) SetMapValue(mapSlot, keySlot, valueSlot int) {
	m := vm.fiber.stack[vm.apiSlot(mapSlot)].AsObj().(*ObjMap)
	m.Set(vm.fiber.stack[vm.apiSlot(keySlot)], vm.fiber.stack[vm.apiSlot(valueSlot)])
}
func (vm *VM) RemoveMapValue(mapSlot, keySlot, removedValueSlot int) {
	m := vm.fiber.stack[vm.apiSlot(mapSlot)].AsObj().(*ObjMap)
	v, _ := m.Remove(vm.fiber.stack[vm.apiSlot(keySlot)])
	vm.fiber.stack[vm.apiSlot(removedValueSlot)] = v
}

// GetVariable/HasVariable/HasModule expose module globals to a foreign
// method.
func (vm *VM) GetVariable(module, name string, slot int) bool {
	m, ok := vm.modules[module]
	if !ok {
		return false
	}
	idx, ok := m.Variables.Find(name)
	if !ok {
		return false
	}
	vm.fiber.stack[vm.apiSlot(slot)] = m.VariableAt(idx)
	return true
}
func (vm *VM) HasVariable(module, name string) bool {
	m, ok := vm.modules[module]
	if !ok {
		return false
	}
	_, ok = m.Variables.Find(name)
	return ok
}
func (vm *VM) HasModule(module string) bool {
	_, ok := vm.modules[module]
	return ok
}

// CallHandle pins a method signature, ready to invoke against whatever
// receiver and arguments the host has staged in the slot window.
type CallHandle struct {
	symbol   int
	argCount int
}

// MakeCallHandle interns signature in the method-symbol table and records
// how many `_` placeholders it carries, so Call knows the argument count.
func (vm *VM) MakeCallHandle(signature string) *CallHandle {
	return &CallHandle{symbol: vm.methodNames.Ensure(signature), argCount: placeholderCount(signature)}
}

// Call invokes h against the argument window staged in slots [0, N], where
// slot 0 is the receiver and N is h's placeholder count, delivering the
// result back into slot 0. If the resolved method is a Block, this drives
// the interpreter loop far enough to finish exactly that call, without
// touching any frame the caller already had in flight: call handles are
// commonly invoked from inside a foreign method, itself running mid-frame
// on vm.fiber.
func (vm *VM) Call(h *CallHandle) error {
	fiber := vm.fiber
	if fiber == nil {
		return werrNew(vm, "Cannot call into a finished fiber.")
	}
	depthBefore := len(fiber.frames)
	frame := &CallFrame{stackStart: vm.apiStackBase}
	if err := vm.invoke(fiber, frame, 0, h.argCount, h.symbol, nil); err != nil {
		return err
	}
	for vm.fiber == fiber && len(fiber.frames) > depthBefore {
		top := &fiber.frames[len(fiber.frames)-1]
		fn := top.closure.fn
		if top.ip >= len(fn.Code) {
			vm.popFrameReturning(fiber, top, NullVal, false)
			continue
		}
		instr := fn.Code[top.ip]
		top.ip++
		if err := vm.step(fiber, top, fn, instr); err != nil {
			caught := vm.propagateRuntimeError(vm.errorValue(err))
			if caught == nil {
				vm.reportRuntimeError(fiber, err.Error())
				return err
			}
			break
		}
	}
	return nil
}

// placeholderCount counts the `_` placeholders in a method signature like
// "call(_,_)", so Call knows how many argument slots follow the receiver.
func placeholderCount(signature string) int {
	n := 0
	for _, r := range signature {
		if r == '_' {
			n++
		}
	}
	return n
}
