package wasm

// MemArg is the alignment/offset immediate pair carried by every
// load/store instruction.
type MemArg struct {
	Align  uint32 // log2 of the claimed alignment
	Offset uint32
}

// Instruction is a single decoded bytecode instruction: one struct with
// an Op discriminant and a set of fields that are only meaningful for a
// subset of opcodes, dispatched by category in the validator and the MIR
// translator. Control instructions (Block/Loop/If) own their nested
// instruction sequences directly as []Instruction.
type Instruction struct {
	Op Opcode

	// Control: block/loop/if.
	BlockType BlockResultType
	Then      []Instruction // block/loop body, or if's then-arm
	Else      []Instruction // if's optional else-arm; nil if absent
	HasElse   bool

	// Control: br / br_if / br_table.
	Label        LabelIdx
	TableTargets []LabelIdx // br_table's vector of labels
	TableDefault LabelIdx

	// call / call_indirect.
	Func FuncIdx
	Type TypeIdx

	// local.get/set/tee, global.get/set.
	Local  LocalIdx
	Global GlobalIdx

	// memory ops.
	Mem MemArg

	// numeric constants.
	I32Val  int32
	I64Val  int64
	F32Bits uint32
	F64Bits uint64

	// saturating conversion sub-opcode (valid when Op == OpExtensionFC).
	SatOp uint32

	// SIMD: carries the raw sub-opcode and any lane/shuffle immediate bytes
	// verbatim; see the Open Question note in DESIGN.md on why this spec
	// treats the SIMD table as a generic payload rather than one Go type
	// per lane operation.
	SimdOp  uint32
	SimdImm []byte
}

// IsStructured reports whether i is one of the three structured control
// instructions (block, loop, if).
func (i Instruction) IsStructured() bool {
	return i.Op == OpBlock || i.Op == OpLoop || i.Op == OpIf
}

// BlockSignature converts a BlockResultType into the FunctionType the
// validator and translator actually operate on: `() -> results` for
// block/if, or, when Kind is BlockResultTypeIdx, the full signature named
// by the type section.
func BlockSignature(bt BlockResultType, types []FunctionType) (FunctionType, bool) {
	switch bt.Kind {
	case BlockResultUnit:
		return FunctionType{}, true
	case BlockResultValue:
		return FunctionType{Results: []ValueType{bt.Value}}, true
	case BlockResultTypeIdx:
		if int(bt.Type) >= len(types) {
			return FunctionType{}, false
		}
		return types[bt.Type], true
	}
	return FunctionType{}, false
}
