package abi

// FuncPtr is the Go-side counterpart of the `(instance_t*, function_t*)`
// pair a table entry (or an imported-function instance slot) holds: a
// function value plus the instance it should be invoked against, and
// the signature-alphabet string it was registered under.
type FuncPtr struct {
	Instance  *Instance
	Func      interface{}
	Signature string
}

func (f FuncPtr) isNull() bool { return f.Func == nil }

// Table is the Go-side counterpart of `table_t`: a growable array of
// FuncPtr entries with an optional maximum, addressed by funcref index.
type Table struct {
	entries []FuncPtr
	max     uint32
}

// TableAllocate implements `__sable_table_allocate`.
func TableAllocate(numEntries uint32) *Table {
	return &Table{entries: make([]FuncPtr, numEntries), max: UnsetBound}
}

// TableAllocateWithBound implements `__sable_table_allocate_with_bound`.
func TableAllocateWithBound(numEntries, max uint32) *Table {
	return &Table{entries: make([]FuncPtr, numEntries), max: max}
}

// TableFree implements `__sable_table_free`.
func TableFree(t *Table) { t.entries = nil }

// Size reports the table's current entry count (`__sable_table_size`).
func (t *Table) Size() uint32 { return uint32(len(t.entries)) }

// Guard implements `__sable_table_guard`: traps TrapTableOutOfBound for
// an index past the table's extent, TrapTableNull for an in-range but
// unset entry.
func (t *Table) Guard(inst *Instance, idx uint32) {
	if idx >= uint32(len(t.entries)) {
		raise(inst.Trap, TrapTableOutOfBound)
	}
	if t.entries[idx].isNull() {
		raise(inst.Trap, TrapTableNull)
	}
}

// Set implements `__sable_table_set`, returning the entry previously at
// idx (matching the header's `__sable_func_ptr` return value).
func (t *Table) Set(idx uint32, fn FuncPtr) FuncPtr {
	prev := t.entries[idx]
	t.entries[idx] = fn
	return prev
}

// Get implements `__sable_table_get`.
func (t *Table) Get(idx uint32) FuncPtr { return t.entries[idx] }

// Type implements `__sable_table_type`: the signature string the entry
// at idx was registered under.
func (t *Table) Type(idx uint32) string { return t.entries[idx].Signature }

// Check implements the call_indirect signature check performed ahead of
// recovering the callee: compares the entry's registered signature
// against expected using Strcmp, the same comparator the compiled code
// itself is handed.
func (t *Table) Check(inst *Instance, idx uint32, expected string) {
	if Strcmp(t.Type(idx), expected) != 0 {
		raise(inst.Trap, TrapTableNull)
	}
}

// Context implements `__sable_table_context`: the callee's instance
// pointer, falling back to the caller's own instance when the table
// entry carries none.
func (t *Table) Context(caller *Instance, idx uint32) *Instance {
	if inst := t.entries[idx].Instance; inst != nil {
		return inst
	}
	return caller
}

// Function implements `__sable_table_function`: the callee's function
// value, cast by the caller to the expected native signature.
func (t *Table) Function(idx uint32) interface{} { return t.entries[idx].Func }
