package backend

// Runtime ABI symbol names: the C linkage names the emitted native code
// calls into. Everything else in this package decides *when* a call to
// one of them is emitted, never what it's called.
const (
	SymInstanceAllocate = "__sable_instance_allocate"
	SymInstanceFree     = "__sable_instance_free"

	SymGlobalAllocate = "__sable_global_allocate"
	SymGlobalFree     = "__sable_global_free"

	SymMemoryAllocate          = "__sable_memory_allocate"
	SymMemoryAllocateWithBound = "__sable_memory_allocate_with_bound"
	SymMemoryFree              = "__sable_memory_free"
	SymMemorySize              = "__sable_memory_size"
	SymMemoryGrow              = "__sable_memory_grow"
	SymMemoryGuard             = "__sable_memory_guard"

	SymTableAllocate          = "__sable_table_allocate"
	SymTableAllocateWithBound = "__sable_table_allocate_with_bound"
	SymTableFree              = "__sable_table_free"
	SymTableGuard             = "__sable_table_guard"
	SymTableSet               = "__sable_table_set"
	SymTableGet               = "__sable_table_get"
	SymTableType              = "__sable_table_type"
	SymTableContext           = "__sable_table_context"
	SymTableFunction          = "__sable_table_function"
	SymTableCheck             = "__sable_table_check"

	SymStrcmp = "__sable_strcmp"
)

// Trap codes a guard raises on failure.
const (
	TrapMemoryOutOfBound uint32 = 1
	TrapTableOutOfBound  uint32 = 2
	TrapTableNull        uint32 = 3
)

// MemoryAccess describes the lowering of one Load/Store's address
// computation and guard: `address = base_of_memory + zext(offset)`,
// preceded by a call to SymMemoryGuard unless opts.SkipMemBoundaryCheck
// is set; Alignment is 1 unless opts.AssumeMemRWAligned requests
// natural alignment.
type MemoryAccess struct {
	EmitGuard bool
	Alignment uint32
}

// LowerMemoryAccess computes the guard/alignment decision for one
// load/store of width bytes.
func LowerMemoryAccess(opts Options, width uint32) MemoryAccess {
	ma := MemoryAccess{EmitGuard: !opts.SkipMemBoundaryCheck, Alignment: 1}
	if opts.AssumeMemRWAligned {
		ma.Alignment = width
	}
	return ma
}

// IndirectCallSequence is the fixed sequence of ABI calls emitted ahead
// of a CallIndirect, in order: an optional table guard, a signature
// check, then recovering the callee's (instance, function) pair.
// TableContextFallsBackToSelf records the "when the recovered instance
// is null, the current instance is used instead" rule so a caller
// doesn't have to re-derive it.
type IndirectCallSequence struct {
	EmitTableGuard          bool
	ExpectedSignature       string
	TableContextFallsBackToSelf bool
}

// LowerCallIndirect computes the call sequence for a CallIndirect whose
// static signature is sig.
func LowerCallIndirect(opts Options, sig string) IndirectCallSequence {
	return IndirectCallSequence{
		EmitTableGuard:              !opts.SkipTblBoundaryCheck,
		ExpectedSignature:           sig,
		TableContextFallsBackToSelf: true,
	}
}
