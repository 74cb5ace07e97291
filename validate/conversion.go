package validate

import "github.com/vertexdlt/sablec/wasm"

// conversionTypes returns the (source, destination) value types a
// numeric conversion opcode maps between, used to build its ensure/
// promise pair. Panics for any opcode outside the conversion range,
// mirroring opcode.go's own loadStoreWidth/OperandType convention.
func conversionTypes(op wasm.Opcode) (src, dst wasm.ValueType) {
	switch op {
	case wasm.OpI32WrapI64:
		return wasm.I64, wasm.I32
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF32U:
		return wasm.F32, wasm.I32
	case wasm.OpI32TruncF64S, wasm.OpI32TruncF64U:
		return wasm.F64, wasm.I32
	case wasm.OpI64ExtendI32S, wasm.OpI64ExtendI32U:
		return wasm.I32, wasm.I64
	case wasm.OpI64TruncF32S, wasm.OpI64TruncF32U:
		return wasm.F32, wasm.I64
	case wasm.OpI64TruncF64S, wasm.OpI64TruncF64U:
		return wasm.F64, wasm.I64
	case wasm.OpF32ConvertI32S, wasm.OpF32ConvertI32U:
		return wasm.I32, wasm.F32
	case wasm.OpF32ConvertI64S, wasm.OpF32ConvertI64U:
		return wasm.I64, wasm.F32
	case wasm.OpF32DemoteF64:
		return wasm.F64, wasm.F32
	case wasm.OpF64ConvertI32S, wasm.OpF64ConvertI32U:
		return wasm.I32, wasm.F64
	case wasm.OpF64ConvertI64S, wasm.OpF64ConvertI64U:
		return wasm.I64, wasm.F64
	case wasm.OpF64PromoteF32:
		return wasm.F32, wasm.F64
	case wasm.OpI32ReinterpretF32:
		return wasm.F32, wasm.I32
	case wasm.OpI64ReinterpretF64:
		return wasm.F64, wasm.I64
	case wasm.OpF32ReinterpretI32:
		return wasm.I32, wasm.F32
	case wasm.OpF64ReinterpretI64:
		return wasm.I64, wasm.F64
	}
	panic("validate: conversionTypes: not a conversion opcode")
}

// satTruncTypes returns the (source, destination) types of a saturating
// truncation sub-opcode (read after the 0xFC prefix byte).
func satTruncTypes(sub uint32) (src, dst wasm.ValueType) {
	switch sub {
	case wasm.SatI32TruncF32S, wasm.SatI32TruncF32U:
		return wasm.F32, wasm.I32
	case wasm.SatI32TruncF64S, wasm.SatI32TruncF64U:
		return wasm.F64, wasm.I32
	case wasm.SatI64TruncF32S, wasm.SatI64TruncF32U:
		return wasm.F32, wasm.I64
	case wasm.SatI64TruncF64S, wasm.SatI64TruncF64U:
		return wasm.F64, wasm.I64
	}
	panic("validate: satTruncTypes: not a saturating truncation sub-opcode")
}

func extendOperandType(op wasm.Opcode) wasm.ValueType {
	switch op {
	case wasm.OpI32Extend8S, wasm.OpI32Extend16S:
		return wasm.I32
	case wasm.OpI64Extend8S, wasm.OpI64Extend16S, wasm.OpI64Extend32S:
		return wasm.I64
	}
	panic("validate: extendOperandType: not a sign-extension opcode")
}
