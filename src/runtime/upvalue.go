package runtime

// ObjUpvalue is storage for a variable captured by one or more closures: open
// while its owning fiber's stack slot is still live, closed once that slot
// goes out of scope. Grounded on tanema-luaf/src/runtime/upval.go's
// upvalueBroker (open points into the stack, Close() copies the referent and
// flips state) but without the mutex luaf needs for goroutine-backed
// coroutines, since fibers here are cooperative and single-threaded,
// so no lock is required.
type ObjUpvalue struct {
	header_ ObjHeader
	fiber   *ObjFiber
	slot    int // index into fiber.stack while open
	closed  Value
	isOpen  bool
	next    *ObjUpvalue // threads fiber.openUpvalues in descending slot order
}

func (u *ObjUpvalue) header() *ObjHeader { return &u.header_ }
func (u *ObjUpvalue) Type() ObjType      { return ObjUpvalueType }
func (u *ObjUpvalue) size() int          { return 40 }

// Get reads the upvalue's current value, from the stack if still open.
func (u *ObjUpvalue) Get() Value {
	if u.isOpen {
		return u.fiber.stack[u.slot]
	}
	return u.closed
}

// Set writes the upvalue's value, through to the stack if still open.
func (u *ObjUpvalue) Set(v Value) {
	if u.isOpen {
		u.fiber.stack[u.slot] = v
		return
	}
	u.closed = v
}

// captureUpvalue walks fiber.openUpvalues (sorted by descending slot),
// returning an existing upvalue for slot or inserting a new one in sorted
// position.
func (vm *VM) captureUpvalue(fiber *ObjFiber, slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := fiber.openUpvalues
	for cur != nil && cur.slot > slot {
		prev = cur
		cur = cur.next
	}
	if cur != nil && cur.slot == slot {
		return cur
	}

	// Link created into fiber.openUpvalues before registerObj: fiber is a
	// GC root and blacken walks openUpvalues, so created is already
	// reachable through that chain when registerObj runs a collection
	// (config.GCStress runs one on every allocation).
	created := &ObjUpvalue{fiber: fiber, slot: slot, isOpen: true, next: cur}
	if prev == nil {
		fiber.openUpvalues = created
	} else {
		prev.next = created
	}
	vm.registerObj(created, nil)
	return created
}

// closeUpvalues pops every open upvalue whose slot is at or above last,
// copying its referent into inline storage and unlinking it.
func closeUpvalues(fiber *ObjFiber, last int) {
	for fiber.openUpvalues != nil && fiber.openUpvalues.slot >= last {
		u := fiber.openUpvalues
		u.closed = u.fiber.stack[u.slot]
		u.isOpen = false
		fiber.openUpvalues = u.next
		u.next = nil
	}
}
