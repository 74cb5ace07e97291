package abi

// PageSize is the fixed WebAssembly linear memory page size.
const PageSize = 64 * 1024

// Memory is the Go-side counterpart of `memory_t`: a growable byte
// buffer sized in pages, with an optional maximum.
type Memory struct {
	bytes []byte
	max   uint32 // UnsetBound if no declared maximum
}

// MemoryAllocate implements `__sable_memory_allocate`: numPages pages,
// unbounded growth.
func MemoryAllocate(numPages uint32) *Memory {
	return &Memory{bytes: make([]byte, numPages*PageSize), max: UnsetBound}
}

// MemoryAllocateWithBound implements `__sable_memory_allocate_with_bound`.
func MemoryAllocateWithBound(numPages, max uint32) *Memory {
	return &Memory{bytes: make([]byte, numPages*PageSize), max: max}
}

// MemoryFree implements `__sable_memory_free`.
func MemoryFree(m *Memory) { m.bytes = nil }

// Size implements `__sable_memory_size`: the current size in pages.
func (m *Memory) Size() uint32 { return uint32(len(m.bytes) / PageSize) }

// Grow implements `__sable_memory_grow`: grows by delta pages, returning
// the new size in pages, or UnsetBound if the growth would exceed the
// declared maximum.
func (m *Memory) Grow(delta uint32) uint32 {
	prev := m.Size()
	if m.max != UnsetBound && prev+delta > m.max {
		return UnsetBound
	}
	m.bytes = append(m.bytes, make([]byte, uint64(delta)*PageSize)...)
	return m.Size()
}

// Bytes exposes the memory's backing storage for load/store access by
// an embedder driving compiled code directly (rather than through the
// native backend, which addresses this buffer by raw pointer).
func (m *Memory) Bytes() []byte { return m.bytes }

// Guard implements `__sable_memory_guard`: traps TrapMemoryOutOfBound
// when addr falls outside the memory's current extent.
func (m *Memory) Guard(inst *Instance, addr uint32) {
	if uint64(addr) > uint64(len(m.bytes)) {
		raise(inst.Trap, TrapMemoryOutOfBound)
	}
}
