package runtime

import "github.com/wrengo/wren/src/conf"

// mapSlot is one entry slot in a Map's open-addressed table. Slot state is
// encoded in the payload itself: key==Undefined && value==False
// is empty, key==Undefined && value==True is a tombstone, anything else is
// live.
type mapSlot struct {
	key   Value
	value Value
}

func emptySlot() mapSlot     { return mapSlot{key: UndefinedVal, value: FalseVal} }
func tombstoneSlot() mapSlot { return mapSlot{key: UndefinedVal, value: TrueVal} }
func (s mapSlot) isEmpty() bool     { return s.key.IsUndefined() && s.value.typ == ValFalse }
func (s mapSlot) isTombstone() bool { return s.key.IsUndefined() && s.value.typ == ValTrue }
func (s mapSlot) isLive() bool      { return !s.key.IsUndefined() }

// ObjMap is an open-addressed, linear-probing hash table.
type ObjMap struct {
	header_ ObjHeader
	entries []mapSlot
	count   int // live entries only
}

func (m *ObjMap) header() *ObjHeader { return &m.header_ }
func (m *ObjMap) Type() ObjType      { return ObjMapType }
func (m *ObjMap) size() int          { return 24 + len(m.entries)*32 }

// NewMap allocates an empty map; the entries array is lazily sized on first
// insert, since the array is freed entirely once count reaches zero and an
// empty map need not hold one at all.
func (vm *VM) NewMap() *ObjMap {
	m := &ObjMap{}
	vm.registerObj(m, vm.mapClass)
	return m
}

// Count reports the number of live entries.
func (m *ObjMap) Count() int { return m.count }

func (m *ObjMap) findSlot(entries []mapSlot, key Value) int {
	capacity := len(entries)
	idx := int(hashValue(key) % uint64(capacity))
	firstTombstone := -1
	for {
		slot := entries[idx]
		if slot.isEmpty() {
			if firstTombstone != -1 {
				return firstTombstone
			}
			return idx
		} else if slot.isTombstone() {
			if firstTombstone == -1 {
				firstTombstone = idx
			}
		} else if Equal(slot.key, key) {
			return idx
		}
		idx = (idx + 1) % capacity
	}
}

func (m *ObjMap) resize(newCapacity int) {
	grown := make([]mapSlot, newCapacity)
	for i := range grown {
		grown[i] = emptySlot()
	}
	for _, slot := range m.entries {
		if !slot.isLive() {
			continue
		}
		idx := m.findSlot(grown, slot.key)
		grown[idx] = slot
	}
	m.entries = grown
}

// Get looks up key, reporting whether it was present.
func (m *ObjMap) Get(key Value) (Value, bool) {
	if len(m.entries) == 0 {
		return NullVal, false
	}
	slot := m.entries[m.findSlot(m.entries, key)]
	if !slot.isLive() {
		return NullVal, false
	}
	return slot.value, true
}

// Contains reports whether key is present.
func (m *ObjMap) Contains(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Set inserts or overwrites key/value, growing the table when
// count+1 > capacity*75%.
func (m *ObjMap) Set(key, value Value) {
	if len(m.entries)*conf.MapLoadFactorNum < (m.count+1)*conf.MapLoadFactorDenom {
		newCap := len(m.entries) * conf.MapGrowFactor
		if newCap < conf.MapMinCapacity {
			newCap = conf.MapMinCapacity
		}
		m.resize(newCap)
	}
	idx := m.findSlot(m.entries, key)
	slot := m.entries[idx]
	if !slot.isLive() {
		m.count++
	}
	m.entries[idx] = mapSlot{key: key, value: value}
}

// Remove deletes key, leaving a tombstone, and shrinks the table when
// count < capacity/2*75% and capacity > MapMinCapacity.
func (m *ObjMap) Remove(key Value) (Value, bool) {
	if len(m.entries) == 0 {
		return NullVal, false
	}
	idx := m.findSlot(m.entries, key)
	slot := m.entries[idx]
	if !slot.isLive() {
		return NullVal, false
	}
	removed := slot.value
	m.entries[idx] = tombstoneSlot()
	m.count--

	if m.count == 0 {
		m.entries = nil
	} else if len(m.entries) > conf.MapMinCapacity &&
		len(m.entries)/2*conf.MapLoadFactorNum > m.count*conf.MapLoadFactorDenom {
		newCap := len(m.entries) / 2
		if newCap < conf.MapMinCapacity {
			newCap = conf.MapMinCapacity
		}
		m.resize(newCap)
	}
	return removed, true
}

// iterNext implements Map's half of iteration protocol: it is a
// slot index, advanced until a live entry is found (or terminates false).
func (m *ObjMap) iterNext(it Value) Value {
	start := 0
	if !it.IsNull() {
		start = int(it.AsNum()) + 1
	}
	for i := start; i < len(m.entries); i++ {
		if m.entries[i].isLive() {
			return NumVal(float64(i))
		}
	}
	return FalseVal
}

// ObjMapEntry is the first-class {key,value} snapshot object ITERATORVALUE
// produces for a Map iterator state. ITERATORVALUE allocates one on every
// call; there is no peephole that reads the slot directly for a following
// GETFIELD.
type ObjMapEntry struct {
	header_    ObjHeader
	Key, Value Value
}

func (e *ObjMapEntry) header() *ObjHeader { return &e.header_ }
func (e *ObjMapEntry) Type() ObjType      { return ObjMapEntryType }
func (e *ObjMapEntry) size() int          { return 40 }

func (vm *VM) iterValueMap(m *ObjMap, it Value) Value {
	slot := m.entries[int(it.AsNum())]
	entry := &ObjMapEntry{Key: slot.key, Value: slot.value}
	vm.registerObj(entry, vm.mapEntryClass)
	return ObjVal(entry)
}
