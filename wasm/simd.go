package wasm

import "github.com/vertexdlt/sablec/leb128"

// SimdShape classifies a SIMD sub-opcode by its stack effect, so that
// validate and mir can each build the right ensures/promises or operand
// arity instead of treating every sub-opcode as the common v128 x v128
// -> v128 case. The canonical SIMD proposal opcode table is ~240 entries;
// this groups them by shape rather than naming each one individually.
type SimdShape int

const (
	// SimdShapeBinary covers every v128 x v128 -> v128 op: the lane-wise
	// arithmetic/compare/bitwise ops, swizzle, and the one ternary op
	// (bitselect) this closed classification folds into the binary
	// shape — see the Open Question entry in DESIGN.md.
	SimdShapeBinary SimdShape = iota
	SimdShapeUnary            // v128 -> v128
	SimdShapeTest             // v128 -> i32 (any_true/all_true/bitmask)
	SimdShapeShift            // v128 x i32 -> v128
	SimdShapeConst            // () -> v128, 16-byte literal immediate
	SimdShapeSplat            // scalar -> v128
	SimdShapeExtractLane      // v128 -> scalar
	SimdShapeReplaceLane      // v128 x scalar -> v128
	SimdShapeShuffle          // v128 x v128 -> v128, 16-byte lane-select immediate
	SimdShapeMemoryLoad       // i32 -> v128
	SimdShapeMemoryStore      // i32 x v128 -> ()
	SimdShapeMemoryLoadLane   // i32 x v128 -> v128
	SimdShapeMemoryStoreLane  // i32 x v128 -> ()
)

// extractLaneSubs and replaceLaneSubs split isSimdLaneOp's 21..34 range
// (i8x16/i16x8/i32x4/i64x2/f32x4/f64x2 extract{_s,_u}/replace) into the
// two distinct arities it actually carries.
var extractLaneSubs = map[uint32]bool{21: true, 22: true, 24: true, 25: true, 27: true, 29: true, 31: true, 33: true}
var replaceLaneSubs = map[uint32]bool{23: true, 26: true, 28: true, 30: true, 32: true, 34: true}

// splatSubs: i8x16.splat..f64x2.splat, 15..20.
var splatSubs = map[uint32]bool{15: true, 16: true, 17: true, 18: true, 19: true, 20: true}

// testSubs: any_true plus all_true/bitmask across the four integer lane
// shapes.
var testSubs = map[uint32]bool{83: true, 99: true, 100: true, 131: true, 132: true, 163: true, 164: true, 195: true, 196: true}

// unarySubs: not/abs/neg/popcnt/sqrt, ceil/floor/trunc/nearest, the
// extadd_pairwise and extend_low/high widenings, and the integer<->float
// conversions, which are all v128 -> v128.
var unarySubs = map[uint32]bool{
	77: true, 94: true, 95: true, 96: true, 97: true, 98: true,
	103: true, 104: true, 105: true, 106: true,
	116: true, 117: true, 122: true, 124: true, 125: true, 126: true, 127: true, 128: true, 129: true,
	135: true, 136: true, 137: true, 138: true,
	148: true, 160: true, 161: true, 167: true, 168: true, 169: true, 170: true,
	192: true, 193: true, 199: true, 200: true, 201: true, 202: true,
	224: true, 225: true, 227: true, 236: true, 237: true, 239: true,
	248: true, 249: true, 250: true, 251: true, 252: true, 253: true, 254: true, 255: true,
}

// shiftSubs: shl/shr_s/shr_u across the four integer lane shapes.
var shiftSubs = map[uint32]bool{
	107: true, 108: true, 109: true, 139: true, 140: true, 141: true,
	171: true, 172: true, 173: true, 203: true, 204: true, 205: true,
}

// SimdShapeOf classifies sub, the raw SIMD sub-opcode parseInstruction
// stores on Instruction.SimdOp.
func SimdShapeOf(sub uint32) SimdShape {
	switch {
	case sub <= 10 || sub == 92 || sub == 93:
		return SimdShapeMemoryLoad
	case sub == 11:
		return SimdShapeMemoryStore
	case sub >= 84 && sub <= 87:
		return SimdShapeMemoryLoadLane
	case sub >= 88 && sub <= 91:
		return SimdShapeMemoryStoreLane
	case sub == simdV128Const:
		return SimdShapeConst
	case sub == simdShuffle:
		return SimdShapeShuffle
	case splatSubs[sub]:
		return SimdShapeSplat
	case extractLaneSubs[sub]:
		return SimdShapeExtractLane
	case replaceLaneSubs[sub]:
		return SimdShapeReplaceLane
	case testSubs[sub]:
		return SimdShapeTest
	case shiftSubs[sub]:
		return SimdShapeShift
	case unarySubs[sub]:
		return SimdShapeUnary
	}
	return SimdShapeBinary
}

// SimdScalarType returns the scalar ValueType a splat/extract_lane/
// replace_lane sub-opcode reads or produces.
func SimdScalarType(sub uint32) ValueType {
	switch sub {
	case 15, 16, 17, 21, 22, 23, 24, 25, 26, 27, 28:
		return I32
	case 18, 29, 30:
		return I64
	case 19, 31, 32:
		return F32
	case 20, 33, 34:
		return F64
	}
	return I32
}

// SimdExtractSigned reports whether an extract_lane sub-opcode
// sign-extends the extracted lane into its scalar result (the _s
// variants of the two sub-i32 lane shapes; wider lanes fill the scalar
// exactly and carry no signedness).
func SimdExtractSigned(sub uint32) bool {
	return sub == 21 || sub == 24
}

// SimdMemWidth returns the access width in bytes of a memory-shaped SIMD
// sub-opcode, for the MemoryGuard/Load/Store instructions the translator
// builds from it: the full 16 bytes for v128.load/store, 8 for the
// extending loads, the lane/splat/zero variants' own scalar width
// otherwise.
func SimdMemWidth(sub uint32) uint32 {
	switch sub {
	case 0, 11:
		return 16
	case 1, 2, 3, 4, 5, 6:
		return 8
	case 7, 84, 88:
		return 1
	case 8, 85, 89:
		return 2
	case 9, 86, 90, 92:
		return 4
	case 10, 87, 91, 93:
		return 8
	}
	return 16
}

// SimdLaneShape returns the per-lane bit width and lane count a splat/
// extract_lane/replace_lane sub-opcode operates over, for the LaneInfo
// the backend's vector lowering consumes.
func SimdLaneShape(sub uint32) (width, count int) {
	switch sub {
	case 15, 21, 22, 23:
		return 8, 16
	case 16, 24, 25, 26:
		return 16, 8
	case 17, 19, 27, 28, 31, 32:
		return 32, 4
	case 18, 20, 29, 30, 33, 34:
		return 64, 2
	}
	return 0, 0
}

// simdByteSource adapts a []byte to leb128.ByteSource, for decoding the
// align/offset pair parseSimdImmediate re-encoded into SimdImm.
type simdByteSource struct {
	buf []byte
	pos int
}

func (s *simdByteSource) NextByte() (byte, bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	b := s.buf[s.pos]
	s.pos++
	return b, true
}

// SimdMemArg decodes the align/offset pair a memory-shaped SIMD
// instruction's SimdImm carries, mirroring parseMemArg's own ULEB32 pair
// but reading back out of the re-encoded byte buffer instead of the
// module's Reader.
func SimdMemArg(imm []byte) MemArg {
	src := &simdByteSource{buf: imm}
	align, _ := leb128.ReadUnsigned(src, 32)
	offset, _ := leb128.ReadUnsigned(src, 32)
	return MemArg{Align: uint32(align), Offset: uint32(offset)}
}
