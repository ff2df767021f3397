package runtime

import "golang.org/x/exp/constraints"

// ObjList is a growable Value array.
type ObjList struct {
	header_ ObjHeader
	elems   []Value
}

func (l *ObjList) header() *ObjHeader { return &l.header_ }
func (l *ObjList) Type() ObjType      { return ObjListType }
func (l *ObjList) size() int          { return 24 + cap(l.elems)*16 }

// NewList allocates an empty list, or one pre-populated with elems if given.
func (vm *VM) NewList(elems ...Value) *ObjList {
	l := &ObjList{elems: append([]Value(nil), elems...)}
	vm.registerObj(l, vm.listClass)
	return l
}

// Len reports the list's element count.
func (l *ObjList) Len() int { return len(l.elems) }

// At returns the element at index, or Null if out of range (callers
// bounds-check via the interpreter's runtime-error path; this is the
// permissive accessor used internally).
func (l *ObjList) At(index int) Value {
	if index < 0 || index >= len(l.elems) {
		return NullVal
	}
	return l.elems[index]
}

// SetAt writes the element at index.
func (l *ObjList) SetAt(index int, v Value) {
	if index < 0 || index >= len(l.elems) {
		return
	}
	l.elems[index] = v
}

// Add appends v, the ADDELEM opcode's non-spread path.
func (l *ObjList) Add(v Value) { l.elems = append(l.elems, v) }

// AddAll concatenates every element of other onto l, the ADDELEMK
// (list-literal spread) path.
func (l *ObjList) AddAll(other *ObjList) { l.elems = append(l.elems, other.elems...) }

// Insert inserts v at index, shifting later elements up.
func (l *ObjList) Insert(index int, v Value) {
	if index < 0 {
		index = 0
	}
	if index > len(l.elems) {
		index = len(l.elems)
	}
	l.elems = append(l.elems, NullVal)
	copy(l.elems[index+1:], l.elems[index:])
	l.elems[index] = v
}

// RemoveAt deletes and returns the element at index.
func (l *ObjList) RemoveAt(index int) Value {
	if index < 0 || index >= len(l.elems) {
		return NullVal
	}
	v := l.elems[index]
	l.elems = append(l.elems[:index], l.elems[index+1:]...)
	return v
}

// IndexOf returns the lowest index holding a value Equal to v, or -1 if v
// is absent.
func (l *ObjList) IndexOf(v Value) int {
	for i, e := range l.elems {
		if Equal(e, v) {
			return i
		}
	}
	return -1
}

// Repeat builds a new list repeating l's elements count times as a shallow
// copy: each Value is copied by value, so Obj payloads are shared instances
// across the repeated runs.
func (vm *VM) Repeat(l *ObjList, count int) *ObjList {
	out := make([]Value, 0, len(l.elems)*count)
	for i := 0; i < count; i++ {
		out = append(out, l.elems...)
	}
	return vm.NewList(out...)
}

// iterNext implements List's half of the iteration protocol: it starts at
// Null meaning "not started", advances by one, and terminates using a
// signed comparison rather than the unsigned-underflow-prone
// `index >= count-1`.
func (l *ObjList) iterNext(it Value) Value {
	if it.IsNull() {
		if len(l.elems) == 0 {
			return FalseVal
		}
		return NumVal(0)
	}
	next := int(it.AsNum()) + 1
	if next+1 > len(l.elems) {
		return FalseVal
	}
	return NumVal(float64(next))
}

func (l *ObjList) iterValue(it Value) Value { return l.At(int(it.AsNum())) }

// ensureSize grows a slice in place to at least n elements, zero-filling the
// new tail, mirroring tanema-luaf's own ensureSize[T any] helper but
// constrained to integer lengths via golang.org/x/exp/constraints so callers
// can't accidentally pass a non-integral size.
func ensureSize[T any, N constraints.Integer](s *[]T, n N) {
	if int(n) <= len(*s) {
		return
	}
	grown := make([]T, n)
	copy(grown, *s)
	*s = grown
}
