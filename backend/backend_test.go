package backend_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/backend"
	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

func TestSignatureEncoding(t *testing.T) {
	ft := wasm.FunctionType{Params: []wasm.ValueType{wasm.I32, wasm.F64}, Results: []wasm.ValueType{wasm.I64}}
	require.Equal(t, "ID:J", backend.Signature(ft))

	require.Equal(t, ":", backend.Signature(wasm.FunctionType{}))
	require.EqualValues(t, 'F', backend.GlobalSignature(wasm.F32))
}

func TestBoundBridgesOptionalMaximum(t *testing.T) {
	require.Equal(t, backend.UnsetBound, backend.Bound(wasm.Limits{Min: 1}))
	require.EqualValues(t, 4, backend.Bound(wasm.Limits{Min: 1, Max: 4, HasMax: true}))
}

func TestLowerCompareBinaryUnary(t *testing.T) {
	require.Equal(t, backend.NativeOp{Mnemonic: "lt", Signed: true}, backend.LowerCompare(wasm.OpI32LtS))
	require.Equal(t, backend.NativeOp{Mnemonic: "ge", Signed: false}, backend.LowerCompare(wasm.OpI64GeU))
	require.Equal(t, backend.NativeOp{Mnemonic: "eq", Signed: false}, backend.LowerCompare(wasm.OpF64Eq))

	require.Equal(t, backend.NativeOp{Mnemonic: "clz", Signed: false}, backend.LowerUnary(wasm.OpI32Clz))
	require.Equal(t, backend.NativeOp{Mnemonic: "sqrt", Signed: false}, backend.LowerUnary(wasm.OpF64Sqrt))

	require.Equal(t, backend.NativeOp{Mnemonic: "div", Signed: true}, backend.LowerBinary(wasm.OpI32DivS))
	require.Equal(t, backend.NativeOp{Mnemonic: "shr", Signed: false}, backend.LowerBinary(wasm.OpI64ShrU))
	require.Equal(t, backend.NativeOp{Mnemonic: "max", Signed: false}, backend.LowerBinary(wasm.OpF32Max))
}

func TestLowerMemoryAccessHonorsOptions(t *testing.T) {
	ma := backend.LowerMemoryAccess(backend.Options{}, 4)
	require.True(t, ma.EmitGuard)
	require.EqualValues(t, 1, ma.Alignment)

	ma = backend.LowerMemoryAccess(backend.Options{SkipMemBoundaryCheck: true, AssumeMemRWAligned: true}, 4)
	require.False(t, ma.EmitGuard)
	require.EqualValues(t, 4, ma.Alignment)
}

func TestLowerVecOps(t *testing.T) {
	splat8 := mir.LaneInfo{LaneWidth: 8, LaneCount: 16}
	require.Equal(t, backend.VecOp{Mnemonic: "splat", Lane: splat8}, backend.LowerVecSplat(splat8))

	extract := mir.LaneInfo{LaneWidth: 32, LaneCount: 4, Lane: 2}
	require.Equal(t, backend.VecOp{Mnemonic: "extract_lane", Lane: extract}, backend.LowerVecExtract(extract))

	insert := mir.LaneInfo{LaneWidth: 64, LaneCount: 2, Lane: 1}
	require.Equal(t, backend.VecOp{Mnemonic: "insert_lane", Lane: insert}, backend.LowerVecInsert(insert))

	shuffle := mir.LaneInfo{LaneWidth: 8, LaneCount: 16, Shuffle: []byte{0, 1, 2, 3}}
	require.Equal(t, backend.VecOp{Mnemonic: "shuffle", Lane: shuffle}, backend.LowerVecShuffle(shuffle))
}

func TestLowerSimdArith(t *testing.T) {
	lanes32 := mir.LaneInfo{LaneWidth: 32, LaneCount: 4}

	add := backend.LowerSimdArith(174) // i32x4.add
	require.Equal(t, backend.NativeOp{Mnemonic: "add", Signed: false}, add.Op)
	require.Equal(t, lanes32, add.Lane)

	// comparison runs reuse the scalar mnemonic tables by offset
	ltS := backend.LowerSimdArith(57) // i32x4.lt_s
	require.Equal(t, backend.NativeOp{Mnemonic: "lt", Signed: true}, ltS.Op)
	require.Equal(t, lanes32, ltS.Lane)

	fmul := backend.LowerSimdArith(230) // f32x4.mul
	require.Equal(t, backend.NativeOp{Mnemonic: "mul", Signed: false}, fmul.Op)
	require.Equal(t, lanes32, fmul.Lane)

	neg := backend.LowerSimdArith(97) // i8x16.neg
	require.Equal(t, backend.NativeOp{Mnemonic: "neg", Signed: false}, neg.Op)
	require.Equal(t, mir.LaneInfo{LaneWidth: 8, LaneCount: 16}, neg.Lane)

	shr := backend.LowerSimdArith(140) // i16x8.shr_s
	require.Equal(t, backend.NativeOp{Mnemonic: "shr", Signed: true}, shr.Op)
	require.Equal(t, mir.LaneInfo{LaneWidth: 16, LaneCount: 8}, shr.Lane)

	allTrue := backend.LowerSimdArith(195) // i64x2.all_true
	require.Equal(t, backend.NativeOp{Mnemonic: "all_true", Signed: false}, allTrue.Op)
	require.Equal(t, mir.LaneInfo{LaneWidth: 64, LaneCount: 2}, allTrue.Lane)

	require.Panics(t, func() { backend.LowerSimdArith(12) }) // v128.const is not lane-wise
}

func TestLowerCallIndirectFallsBackToCallerInstance(t *testing.T) {
	seq := backend.LowerCallIndirect(backend.Options{SkipTblBoundaryCheck: true}, "I:I")
	require.False(t, seq.EmitTableGuard)
	require.True(t, seq.TableContextFallsBackToSelf)
	require.Equal(t, "I:I", seq.ExpectedSignature)
}
