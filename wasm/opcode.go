package wasm

// Opcode is a single-byte (or, for the two extension prefixes, the first
// byte of a two-byte) WebAssembly instruction opcode.
type Opcode byte

// Control and parametric opcodes.
const (
	OpUnreachable  Opcode = 0x00
	OpNop          Opcode = 0x01
	OpBlock        Opcode = 0x02
	OpLoop         Opcode = 0x03
	OpIf           Opcode = 0x04
	OpElse         Opcode = 0x05
	OpEnd          Opcode = 0x0B
	OpBr           Opcode = 0x0C
	OpBrIf         Opcode = 0x0D
	OpBrTable      Opcode = 0x0E
	OpReturn       Opcode = 0x0F
	OpCall         Opcode = 0x10
	OpCallIndirect Opcode = 0x11
	OpDrop         Opcode = 0x1A
	OpSelect       Opcode = 0x1B
)

// Variable and memory-shape opcodes.
const (
	OpLocalGet  Opcode = 0x20
	OpLocalSet  Opcode = 0x21
	OpLocalTee  Opcode = 0x22
	OpGlobalGet Opcode = 0x23
	OpGlobalSet Opcode = 0x24

	OpMemorySize Opcode = 0x3F
	OpMemoryGrow Opcode = 0x40
)

// Load/store opcodes, contiguous block 0x28..0x3E.
const (
	OpI32Load    Opcode = 0x28
	OpI64Load    Opcode = 0x29
	OpF32Load    Opcode = 0x2A
	OpF64Load    Opcode = 0x2B
	OpI32Load8S  Opcode = 0x2C
	OpI32Load8U  Opcode = 0x2D
	OpI32Load16S Opcode = 0x2E
	OpI32Load16U Opcode = 0x2F
	OpI64Load8S  Opcode = 0x30
	OpI64Load8U  Opcode = 0x31
	OpI64Load16S Opcode = 0x32
	OpI64Load16U Opcode = 0x33
	OpI64Load32S Opcode = 0x34
	OpI64Load32U Opcode = 0x35
	OpI32Store   Opcode = 0x36
	OpI64Store   Opcode = 0x37
	OpF32Store   Opcode = 0x38
	OpF64Store   Opcode = 0x39
	OpI32Store8  Opcode = 0x3A
	OpI32Store16 Opcode = 0x3B
	OpI64Store8  Opcode = 0x3C
	OpI64Store16 Opcode = 0x3D
	OpI64Store32 Opcode = 0x3E
)

// Numeric constant opcodes.
const (
	OpI32Const Opcode = 0x41
	OpI64Const Opcode = 0x42
	OpF32Const Opcode = 0x43
	OpF64Const Opcode = 0x44
)

// Comparison opcodes, contiguous block 0x45..0x66.
const (
	OpI32Eqz  Opcode = 0x45
	OpI32Eq   Opcode = 0x46
	OpI32Ne   Opcode = 0x47
	OpI32LtS  Opcode = 0x48
	OpI32LtU  Opcode = 0x49
	OpI32GtS  Opcode = 0x4A
	OpI32GtU  Opcode = 0x4B
	OpI32LeS  Opcode = 0x4C
	OpI32LeU  Opcode = 0x4D
	OpI32GeS  Opcode = 0x4E
	OpI32GeU  Opcode = 0x4F
	OpI64Eqz  Opcode = 0x50
	OpI64Eq   Opcode = 0x51
	OpI64Ne   Opcode = 0x52
	OpI64LtS  Opcode = 0x53
	OpI64LtU  Opcode = 0x54
	OpI64GtS  Opcode = 0x55
	OpI64GtU  Opcode = 0x56
	OpI64LeS  Opcode = 0x57
	OpI64LeU  Opcode = 0x58
	OpI64GeS  Opcode = 0x59
	OpI64GeU  Opcode = 0x5A
	OpF32Eq   Opcode = 0x5B
	OpF32Ne   Opcode = 0x5C
	OpF32Lt   Opcode = 0x5D
	OpF32Gt   Opcode = 0x5E
	OpF32Le   Opcode = 0x5F
	OpF32Ge   Opcode = 0x60
	OpF64Eq   Opcode = 0x61
	OpF64Ne   Opcode = 0x62
	OpF64Lt   Opcode = 0x63
	OpF64Gt   Opcode = 0x64
	OpF64Le   Opcode = 0x65
	OpF64Ge   Opcode = 0x66
)

// Arithmetic/bitwise/unary opcodes (0x67..0xA6) and conversion opcodes
// (0xA7..0xBF), one contiguous block 0x67..0xBF.
const (
	OpI32Clz    Opcode = 0x67
	OpI32Ctz    Opcode = 0x68
	OpI32Popcnt Opcode = 0x69
	OpI32Add    Opcode = 0x6A
	OpI32Sub    Opcode = 0x6B
	OpI32Mul    Opcode = 0x6C
	OpI32DivS   Opcode = 0x6D
	OpI32DivU   Opcode = 0x6E
	OpI32RemS   Opcode = 0x6F
	OpI32RemU   Opcode = 0x70
	OpI32And    Opcode = 0x71
	OpI32Or     Opcode = 0x72
	OpI32Xor    Opcode = 0x73
	OpI32Shl    Opcode = 0x74
	OpI32ShrS   Opcode = 0x75
	OpI32ShrU   Opcode = 0x76
	OpI32Rotl   Opcode = 0x77
	OpI32Rotr   Opcode = 0x78

	OpI64Clz    Opcode = 0x79
	OpI64Ctz    Opcode = 0x7A
	OpI64Popcnt Opcode = 0x7B
	OpI64Add    Opcode = 0x7C
	OpI64Sub    Opcode = 0x7D
	OpI64Mul    Opcode = 0x7E
	OpI64DivS   Opcode = 0x7F
	OpI64DivU   Opcode = 0x80
	OpI64RemS   Opcode = 0x81
	OpI64RemU   Opcode = 0x82
	OpI64And    Opcode = 0x83
	OpI64Or     Opcode = 0x84
	OpI64Xor    Opcode = 0x85
	OpI64Shl    Opcode = 0x86
	OpI64ShrS   Opcode = 0x87
	OpI64ShrU   Opcode = 0x88
	OpI64Rotl   Opcode = 0x89
	OpI64Rotr   Opcode = 0x8A

	OpF32Abs      Opcode = 0x8B
	OpF32Neg      Opcode = 0x8C
	OpF32Ceil     Opcode = 0x8D
	OpF32Floor    Opcode = 0x8E
	OpF32Trunc    Opcode = 0x8F
	OpF32Nearest  Opcode = 0x90
	OpF32Sqrt     Opcode = 0x91
	OpF32Add      Opcode = 0x92
	OpF32Sub      Opcode = 0x93
	OpF32Mul      Opcode = 0x94
	OpF32Div      Opcode = 0x95
	OpF32Min      Opcode = 0x96
	OpF32Max      Opcode = 0x97
	OpF32Copysign Opcode = 0x98

	OpF64Abs      Opcode = 0x99
	OpF64Neg      Opcode = 0x9A
	OpF64Ceil     Opcode = 0x9B
	OpF64Floor    Opcode = 0x9C
	OpF64Trunc    Opcode = 0x9D
	OpF64Nearest  Opcode = 0x9E
	OpF64Sqrt     Opcode = 0x9F
	OpF64Add      Opcode = 0xA0
	OpF64Sub      Opcode = 0xA1
	OpF64Mul      Opcode = 0xA2
	OpF64Div      Opcode = 0xA3
	OpF64Min      Opcode = 0xA4
	OpF64Max      Opcode = 0xA5
	OpF64Copysign Opcode = 0xA6

	OpI32WrapI64        Opcode = 0xA7
	OpI32TruncF32S      Opcode = 0xA8
	OpI32TruncF32U      Opcode = 0xA9
	OpI32TruncF64S      Opcode = 0xAA
	OpI32TruncF64U      Opcode = 0xAB
	OpI64ExtendI32S     Opcode = 0xAC
	OpI64ExtendI32U     Opcode = 0xAD
	OpI64TruncF32S      Opcode = 0xAE
	OpI64TruncF32U      Opcode = 0xAF
	OpI64TruncF64S      Opcode = 0xB0
	OpI64TruncF64U      Opcode = 0xB1
	OpF32ConvertI32S    Opcode = 0xB2
	OpF32ConvertI32U    Opcode = 0xB3
	OpF32ConvertI64S    Opcode = 0xB4
	OpF32ConvertI64U    Opcode = 0xB5
	OpF32DemoteF64      Opcode = 0xB6
	OpF64ConvertI32S    Opcode = 0xB7
	OpF64ConvertI32U    Opcode = 0xB8
	OpF64ConvertI64S    Opcode = 0xB9
	OpF64ConvertI64U    Opcode = 0xBA
	OpF64PromoteF32     Opcode = 0xBB
	OpI32ReinterpretF32 Opcode = 0xBC
	OpI64ReinterpretF64 Opcode = 0xBD
	OpF32ReinterpretI32 Opcode = 0xBE
	OpF64ReinterpretI64 Opcode = 0xBF
)

// Sign-extension opcodes (single-byte, adopted from the proposal that
// shipped alongside saturating truncation).
const (
	OpI32Extend8S  Opcode = 0xC0
	OpI32Extend16S Opcode = 0xC1
	OpI64Extend8S  Opcode = 0xC2
	OpI64Extend16S Opcode = 0xC3
	OpI64Extend32S Opcode = 0xC4
)

// OpExtensionFC is the prefix byte introducing the saturating
// truncation / misc extension table (second opcode follows as a ULEB32).
const OpExtensionFC Opcode = 0xFC

// OpExtensionSIMD is the prefix byte introducing the SIMD table (second
// opcode follows as a ULEB32).
const OpExtensionSIMD Opcode = 0xFD

// Saturating truncation sub-opcodes, read after the 0xFC prefix.
const (
	SatI32TruncF32S uint32 = 0
	SatI32TruncF32U uint32 = 1
	SatI32TruncF64S uint32 = 2
	SatI32TruncF64U uint32 = 3
	SatI64TruncF32S uint32 = 4
	SatI64TruncF32U uint32 = 5
	SatI64TruncF64S uint32 = 6
	SatI64TruncF64U uint32 = 7
)

// IsComparison reports whether op is one of the i32/i64/f32/f64 comparison
// opcodes (0x45..0x66), which the validator treats uniformly as `[t,t]->[i32]`
// (or `[t]->[i32]` for eqz).
func (op Opcode) IsComparison() bool {
	return op >= OpI32Eqz && op <= OpF64Ge
}

// IsUnary reports whether op is one of the single-operand numeric opcodes
// that preserve their operand type (clz/ctz/popcnt, float unary ops,
// negation, etc.) as opposed to conversions that change type.
func (op Opcode) IsUnary() bool {
	switch {
	case op == OpI32Clz || op == OpI32Ctz || op == OpI32Popcnt:
		return true
	case op == OpI64Clz || op == OpI64Ctz || op == OpI64Popcnt:
		return true
	case op >= OpF32Abs && op <= OpF32Sqrt:
		return true
	case op >= OpF64Abs && op <= OpF64Sqrt:
		return true
	}
	return false
}

// IsBinary reports whether op is a same-type binary arithmetic opcode.
func (op Opcode) IsBinary() bool {
	switch {
	case op >= OpI32Add && op <= OpI32Rotr:
		return true
	case op >= OpI64Add && op <= OpI64Rotr:
		return true
	case op >= OpF32Add && op <= OpF32Copysign:
		return true
	case op >= OpF64Add && op <= OpF64Copysign:
		return true
	}
	return false
}

// IsConversion reports whether op changes the operand's value type
// (wrap/extend/truncate/convert/demote/promote/reinterpret).
func (op Opcode) IsConversion() bool {
	return op >= OpI32WrapI64 && op <= OpF64ReinterpretI64
}

// OperandType returns the ValueType that op's operands (and, for
// same-type ops, its result) are drawn from. Only meaningful for
// comparison/unary/binary opcodes.
func (op Opcode) OperandType() ValueType {
	switch {
	case op == OpI32Eqz || (op >= OpI32Eq && op <= OpI32GeU):
		return I32
	case op == OpI64Eqz || (op >= OpI64Eq && op <= OpI64GeU):
		return I64
	case op >= OpF32Eq && op <= OpF32Ge:
		return F32
	case op >= OpF64Eq && op <= OpF64Ge:
		return F64
	case op == OpI32Clz || op == OpI32Ctz || op == OpI32Popcnt || (op >= OpI32Add && op <= OpI32Rotr):
		return I32
	case op == OpI64Clz || op == OpI64Ctz || op == OpI64Popcnt || (op >= OpI64Add && op <= OpI64Rotr):
		return I64
	case op >= OpF32Abs && op <= OpF32Copysign:
		return F32
	case op >= OpF64Abs && op <= OpF64Copysign:
		return F64
	}
	panic("wasm: OperandType: not a comparison/unary/binary opcode")
}

// loadStoreWidth returns the natural memory width in bytes of a load or
// store opcode, used by the validator's alignment check (2^align <=
// width) and by the MIR translator's sign-extension decision.
func loadStoreWidth(op Opcode) (bytes uint32, signed bool, isLoad bool) {
	switch op {
	case OpI32Load:
		return 4, false, true
	case OpI64Load:
		return 8, false, true
	case OpF32Load:
		return 4, false, true
	case OpF64Load:
		return 8, false, true
	case OpI32Load8S:
		return 1, true, true
	case OpI32Load8U:
		return 1, false, true
	case OpI32Load16S:
		return 2, true, true
	case OpI32Load16U:
		return 2, false, true
	case OpI64Load8S:
		return 1, true, true
	case OpI64Load8U:
		return 1, false, true
	case OpI64Load16S:
		return 2, true, true
	case OpI64Load16U:
		return 2, false, true
	case OpI64Load32S:
		return 4, true, true
	case OpI64Load32U:
		return 4, false, true
	case OpI32Store:
		return 4, false, false
	case OpI64Store:
		return 8, false, false
	case OpF32Store:
		return 4, false, false
	case OpF64Store:
		return 8, false, false
	case OpI32Store8:
		return 1, false, false
	case OpI32Store16:
		return 2, false, false
	case OpI64Store8:
		return 1, false, false
	case OpI64Store16:
		return 2, false, false
	case OpI64Store32:
		return 4, false, false
	}
	panic("wasm: loadStoreWidth: not a load/store opcode")
}

// LoadStoreWidth exposes loadStoreWidth to other packages (the validator
// and the MIR translator both need it).
func LoadStoreWidth(op Opcode) (bytes uint32, signed bool, isLoad bool) {
	return loadStoreWidth(op)
}

// ValueTypeOf returns the value type a load produces / a store consumes.
func ValueTypeOf(op Opcode) ValueType {
	switch op {
	case OpI32Load, OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U, OpI32Store, OpI32Store8, OpI32Store16:
		return I32
	case OpI64Load, OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U, OpI64Store, OpI64Store8, OpI64Store16, OpI64Store32:
		return I64
	case OpF32Load, OpF32Store:
		return F32
	case OpF64Load, OpF64Store:
		return F64
	}
	panic("wasm: ValueTypeOf: not a load/store opcode")
}
