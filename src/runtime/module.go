package runtime

// SymbolTable is an append-only string interner: both method names and
// module variable names use one of these. Lookup goes through a name-to-index
// map.
type SymbolTable struct {
	names []string
	index map[string]int
}

// NewSymbolTable creates an empty interner.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]int)}
}

// Ensure returns name's symbol index, appending it if not already present.
func (t *SymbolTable) Ensure(name string) int {
	if idx, ok := t.index[name]; ok {
		return idx
	}
	idx := len(t.names)
	t.names = append(t.names, name)
	t.index[name] = idx
	return idx
}

// Find returns name's symbol index and whether it has been interned yet,
// without adding it (used by GETGLOBAL-style lookups that must fail rather
// than silently create a variable).
func (t *SymbolTable) Find(name string) (int, bool) {
	idx, ok := t.index[name]
	return idx, ok
}

// NameAt returns the name interned at idx, or "" if out of range.
func (t *SymbolTable) NameAt(idx int) string {
	if idx < 0 || idx >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

// Len reports the number of interned names.
func (t *SymbolTable) Len() int { return len(t.names) }

// ObjModule is a namespace: a name (empty for the implicit core module) plus
// a symbol table of variable names and a parallel Value array.
type ObjModule struct {
	header_   ObjHeader
	name      string
	Variables *SymbolTable
	values    []Value
}

func (m *ObjModule) header() *ObjHeader { return &m.header_ }
func (m *ObjModule) Type() ObjType      { return ObjModuleType }
func (m *ObjModule) size() int          { return 32 + len(m.values)*16 }

// NewModule allocates a module with the given display name ("" for core).
func (vm *VM) NewModule(name string) *ObjModule {
	m := &ObjModule{name: name, Variables: NewSymbolTable()}
	vm.registerObj(m, nil) // modules carry no classObj, header rule
	return m
}

// Name returns the module's display name.
func (m *ObjModule) Name() string { return m.name }

// DefineVariable interns name (if new) and grows the value array, returning
// the variable's symbol index. Used both by the (external) compiler's
// global declarations and by the core module's implicit-import step.
func (m *ObjModule) DefineVariable(name string, v Value) int {
	idx := m.Variables.Ensure(name)
	ensureSize(&m.values, idx+1)
	m.values[idx] = v
	return idx
}

// VariableAt reads the module-global at symbol index idx.
func (m *ObjModule) VariableAt(idx int) Value {
	if idx < 0 || idx >= len(m.values) {
		return NullVal
	}
	return m.values[idx]
}

// SetVariableAt writes the module-global at symbol index idx.
func (m *ObjModule) SetVariableAt(idx int, v Value) {
	ensureSize(&m.values, idx+1)
	m.values[idx] = v
}
