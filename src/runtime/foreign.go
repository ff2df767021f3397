package runtime

// ObjForeign is an instance of a foreign class: a host-owned byte buffer
// instead of Wren fields, zero-filled on creation, constructed through
// `<allocate>` and finalized through the reserved `<finalize>` method symbol.
type ObjForeign struct {
	header_ ObjHeader
	data    []byte
}

func (f *ObjForeign) header() *ObjHeader { return &f.header_ }
func (f *ObjForeign) Type() ObjType      { return ObjForeignType }
func (f *ObjForeign) size() int          { return 16 + len(f.data) }

// NewForeign allocates a foreign instance of class with a zero-filled
// buffer of size bytes, set up by the class's bound `<allocate>` method.
func (vm *VM) NewForeign(class *ObjClass, size int) *ObjForeign {
	f := &ObjForeign{data: make([]byte, size)}
	vm.registerObj(f, class)
	return f
}

// Data exposes the foreign object's backing buffer to a foreign method
// implementation (the slot API's getForeign/setNewForeign surface this).
func (f *ObjForeign) Data() []byte { return f.data }

const (
	// AllocateSymbolName and FinalizeSymbolName are the reserved method
	// signatures a foreign class binds to construct/destroy its buffer.
	AllocateSymbolName = "<allocate>"
	FinalizeSymbolName = "<finalize>"
)
