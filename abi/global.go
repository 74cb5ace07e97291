package abi

// GlobalValueType is the one-letter signature alphabet that tags a
// global's scalar type at allocation time.
type GlobalValueType byte

const (
	GlobalI32 GlobalValueType = 'I'
	GlobalI64 GlobalValueType = 'J'
	GlobalF32 GlobalValueType = 'F'
	GlobalF64 GlobalValueType = 'D'
)

// Global is the Go-side counterpart of `global_t`: a single typed
// mutable cell, its value stored bit-for-bit regardless of scalar kind
// (the native side reinterprets per Type, same as mir.InitExpr's
// *Bits fields).
type Global struct {
	Type GlobalValueType
	bits uint64
}

// GlobalAllocate implements `__sable_global_allocate`.
func GlobalAllocate(t GlobalValueType) *Global { return &Global{Type: t} }

// GlobalFree implements `__sable_global_free`.
func GlobalFree(g *Global) {}

// Get and Set are the Go-side read/write this package needs to drive a
// Global in tests and in a pure-Go embedder; the native ABI accesses
// the cell directly through the instance struct's global pointer slot
// instead of a getter/setter pair.
func (g *Global) Get() uint64     { return g.bits }
func (g *Global) Set(bits uint64) { g.bits = bits }
