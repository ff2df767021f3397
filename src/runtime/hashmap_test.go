package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrengo/wren/src/conf"
)

func TestObjMap_SetGetContains(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	m := vm.NewMap()

	_, ok := m.Get(ObjVal(vm.NewString("a")))
	assert.False(t, ok)
	assert.False(t, m.Contains(ObjVal(vm.NewString("a"))))

	m.Set(ObjVal(vm.NewString("a")), NumVal(1))
	m.Set(ObjVal(vm.NewString("b")), NumVal(2))
	require.Equal(t, 2, m.Count())

	v, ok := m.Get(ObjVal(vm.NewString("a")))
	require.True(t, ok)
	assert.Equal(t, NumVal(1), v)

	// overwriting an existing key doesn't grow the count.
	m.Set(ObjVal(vm.NewString("a")), NumVal(99))
	assert.Equal(t, 2, m.Count())
	v, _ = m.Get(ObjVal(vm.NewString("a")))
	assert.Equal(t, NumVal(99), v)
}

func TestObjMap_RemoveLeavesTombstone(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	m := vm.NewMap()
	keyA := ObjVal(vm.NewString("a"))
	keyB := ObjVal(vm.NewString("b"))
	m.Set(keyA, NumVal(1))
	m.Set(keyB, NumVal(2))

	removed, ok := m.Remove(keyA)
	require.True(t, ok)
	assert.Equal(t, NumVal(1), removed)
	assert.Equal(t, 1, m.Count())
	assert.False(t, m.Contains(keyA))
	// b must still be reachable by linear probing past the tombstone left
	// by removing a, regardless of which slot either one landed in.
	assert.True(t, m.Contains(keyB))

	_, ok = m.Remove(keyA)
	assert.False(t, ok)
}

func TestObjMap_RemoveLastEntryFreesBackingArray(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	m := vm.NewMap()
	key := ObjVal(vm.NewString("only"))
	m.Set(key, NumVal(1))
	m.Remove(key)
	assert.Equal(t, 0, m.Count())
	assert.Nil(t, m.entries)
}

func TestObjMap_GrowsPastLoadFactor(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	m := vm.NewMap()
	for i := 0; i < conf.MapMinCapacity; i++ {
		m.Set(NumVal(float64(i)), NumVal(float64(i*10)))
	}
	// every key must still resolve correctly after however many resizes
	// that took.
	for i := 0; i < conf.MapMinCapacity; i++ {
		v, ok := m.Get(NumVal(float64(i)))
		require.True(t, ok)
		assert.Equal(t, NumVal(float64(i*10)), v)
	}
	assert.Equal(t, conf.MapMinCapacity, m.Count())
	assert.Greater(t, len(m.entries), conf.MapMinCapacity)
}

func TestObjMap_IterationSkipsTombstonesAndEmpty(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})
	m := vm.NewMap()
	keyA := ObjVal(vm.NewString("a"))
	keyB := ObjVal(vm.NewString("b"))
	keyC := ObjVal(vm.NewString("c"))
	m.Set(keyA, NumVal(1))
	m.Set(keyB, NumVal(2))
	m.Set(keyC, NumVal(3))
	m.Remove(keyB)

	var seen []Value
	it := NullVal
	for {
		it = m.iterNext(it)
		if !it.Truthy() {
			break
		}
		entry := vm.iterValueMap(m, it)
		obj, ok := entry.AsObj().(*ObjMapEntry)
		require.True(t, ok)
		seen = append(seen, obj.Value)
	}
	assert.ElementsMatch(t, []Value{NumVal(1), NumVal(3)}, seen)
}

func TestValidateKey(t *testing.T) {
	t.Parallel()
	vm := NewVM(Config{})

	assert.True(t, validateKey(NullVal))
	assert.True(t, validateKey(TrueVal))
	assert.True(t, validateKey(NumVal(1)))
	assert.True(t, validateKey(ObjVal(vm.NewString("x"))))

	list := vm.NewList()
	assert.False(t, validateKey(ObjVal(list)))
	m := vm.NewMap()
	assert.False(t, validateKey(ObjVal(m)))
}
