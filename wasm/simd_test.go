package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimdShapeOfClassifiesEachFamily(t *testing.T) {
	require.Equal(t, SimdShapeMemoryLoad, SimdShapeOf(0))   // v128.load
	require.Equal(t, SimdShapeMemoryStore, SimdShapeOf(11)) // v128.store
	require.Equal(t, SimdShapeMemoryLoadLane, SimdShapeOf(84))
	require.Equal(t, SimdShapeMemoryStoreLane, SimdShapeOf(88))
	require.Equal(t, SimdShapeConst, SimdShapeOf(12))
	require.Equal(t, SimdShapeShuffle, SimdShapeOf(13))
	require.Equal(t, SimdShapeSplat, SimdShapeOf(17)) // i32x4.splat
	require.Equal(t, SimdShapeExtractLane, SimdShapeOf(27))
	require.Equal(t, SimdShapeReplaceLane, SimdShapeOf(28))
	require.Equal(t, SimdShapeTest, SimdShapeOf(83)) // v128.any_true
	require.Equal(t, SimdShapeShift, SimdShapeOf(107))
	require.Equal(t, SimdShapeUnary, SimdShapeOf(96))   // i8x16.abs
	require.Equal(t, SimdShapeBinary, SimdShapeOf(174)) // falls through to the default binary shape
}

func TestSimdExtractSigned(t *testing.T) {
	require.True(t, SimdExtractSigned(21))  // i8x16.extract_lane_s
	require.True(t, SimdExtractSigned(24))  // i16x8.extract_lane_s
	require.False(t, SimdExtractSigned(22)) // i8x16.extract_lane_u
	require.False(t, SimdExtractSigned(27)) // i32x4.extract_lane
}

func TestSimdScalarType(t *testing.T) {
	require.Equal(t, I32, SimdScalarType(17)) // i32x4.splat
	require.Equal(t, I64, SimdScalarType(18)) // i64x2.splat
	require.Equal(t, F32, SimdScalarType(19)) // f32x4.splat
	require.Equal(t, F64, SimdScalarType(20)) // f64x2.splat
}

func TestSimdMemWidthCoversLaneAndWholeVectorAccess(t *testing.T) {
	require.EqualValues(t, 16, SimdMemWidth(0))  // v128.load
	require.EqualValues(t, 8, SimdMemWidth(1))   // v128.load8x8_s
	require.EqualValues(t, 4, SimdMemWidth(86))  // v128.load32_lane
	require.EqualValues(t, 16, SimdMemWidth(11)) // v128.store
}

// TestSimdMemArgDecodesReencodedImmediate mirrors how parseSimdImmediate
// re-encodes a memory-shaped SIMD op's align/offset pair into SimdImm:
// two ULEB32 values back to back.
func TestSimdMemArgDecodesReencodedImmediate(t *testing.T) {
	imm := append(uleb(2), uleb(20)...)
	ma := SimdMemArg(imm)
	require.EqualValues(t, 2, ma.Align)
	require.EqualValues(t, 20, ma.Offset)
}
