// Package abi is the Go-side implementation of the runtime the compiled
// code links against: the `__sable_*` C symbols emitted native code
// calls into for instance/memory/table/global allocation, bounds
// guards, and traps. Machine-code emission itself lives behind the
// backend package's lowering contract; this package owns only the
// symbols that contract commits the emitted code to calling.
package abi

import "fmt"

// TrapCode is one of the three runtime-detected failures a guard can
// raise.
type TrapCode uint32

const (
	TrapMemoryOutOfBound TrapCode = 1
	TrapTableOutOfBound  TrapCode = 2
	TrapTableNull        TrapCode = 3
)

// TrapHandler is invoked with a TrapCode when a guard fails; it is
// expected never to return (the real ABI's trap handler unwinds the
// compiled call stack), so every guard call in this package panics
// immediately after invoking it as a defensive backstop.
type TrapHandler func(code TrapCode)

// Trap is raised by a guard after its handler has been invoked, so a
// caller that supplies a handler which (incorrectly) returns still
// cannot keep executing past the guard.
type Trap struct{ Code TrapCode }

func (t *Trap) Error() string { return fmt.Sprintf("abi: trap %d", t.Code) }

func raise(h TrapHandler, code TrapCode) {
	if h != nil {
		h(code)
	}
	panic(&Trap{Code: code})
}

// UnsetBound is the runtime's `(size_t)-1` "no maximum" sentinel;
// backend.Bound produces this same value from the bytecode layer's
// optional Limits.Max.
const UnsetBound uint32 = ^uint32(0)

// InstanceGetter mirrors `__sable_instance_getter`: a callback an
// instantiator supplies so the native side can resolve one named import
// (global, memory, table, or function) lazily against another
// instance. The four getters are positional in
// `__sable_instance_allocate`'s signature: global, memory, table,
// function.
type InstanceGetter func(inst *Instance, name string)

// Instance is the Go-side counterpart of `instance_t`: the metadata and
// entity pointers every compiled function receives as its first
// argument.
type Instance struct {
	GlobalGetter   InstanceGetter
	MemoryGetter   InstanceGetter
	TableGetter    InstanceGetter
	FunctionGetter InstanceGetter
	Trap           TrapHandler

	Memories []*Memory
	Tables   []*Table
	Globals  []*Global
}

// InstanceAllocate implements `__sable_instance_allocate`: it records
// the getters and trap handler every other allocator call in this
// instance will use, and uses numEntries as the initial capacity of the
// Memories, Tables and Globals slices. Instance has no storage for
// imported-function slot pairs.
func InstanceAllocate(global, memory, table, function InstanceGetter, trap TrapHandler, numEntries uint32) *Instance {
	return &Instance{
		GlobalGetter:   global,
		MemoryGetter:   memory,
		TableGetter:    table,
		FunctionGetter: function,
		Trap:           trap,
		Memories:       make([]*Memory, 0, numEntries),
		Tables:         make([]*Table, 0, numEntries),
		Globals:        make([]*Global, 0, numEntries),
	}
}

// InstanceFree implements `__sable_instance_free`. Entity pointers the
// instance owns live in separate slots and are freed independently;
// this only releases the instance struct itself.
func InstanceFree(i *Instance) {}

// Strcmp implements `__sable_strcmp`, used by call_indirect's signature
// check to compare two C-string signatures.
func Strcmp(a, b string) int32 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
