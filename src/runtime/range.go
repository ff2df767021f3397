package runtime

// ObjRange is an immutable numeric range.
type ObjRange struct {
	header_     ObjHeader
	from        float64
	to          float64
	isInclusive bool
}

func (r *ObjRange) header() *ObjHeader { return &r.header_ }
func (r *ObjRange) Type() ObjType      { return ObjRangeType }
func (r *ObjRange) size() int          { return 32 }

// From, To, and IsInclusive expose a range's immutable fields.
func (r *ObjRange) From() float64       { return r.from }
func (r *ObjRange) To() float64         { return r.to }
func (r *ObjRange) IsInclusive() bool   { return r.isInclusive }

// NewRange allocates a range, the RANGE opcode's target.
func (vm *VM) NewRange(from, to float64, isInclusive bool) *ObjRange {
	r := &ObjRange{from: from, to: to, isInclusive: isInclusive}
	vm.registerObj(r, vm.rangeClass)
	return r
}

// iterNext implements Range's half of iteration protocol:
// increment or decrement depending on from<to, terminating at to (exclusive
// unless isInclusive).
func (r *ObjRange) iterNext(it Value) Value {
	ascending := r.from <= r.to
	cur := r.from
	if !it.IsNull() {
		cur = it.AsNum()
		if ascending {
			cur++
		} else {
			cur--
		}
	}
	if ascending {
		if r.isInclusive && cur > r.to {
			return FalseVal
		}
		if !r.isInclusive && cur >= r.to {
			return FalseVal
		}
	} else {
		if r.isInclusive && cur < r.to {
			return FalseVal
		}
		if !r.isInclusive && cur <= r.to {
			return FalseVal
		}
	}
	return NumVal(cur)
}

func (r *ObjRange) iterValue(it Value) Value { return it }
