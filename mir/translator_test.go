package mir_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			return append(out, b)
		}
	}
}

func sleb(v int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func section(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(payload)))...)
	return append(out, payload...)
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
}

func mustTranslate(t *testing.T, buf []byte) *mir.Module {
	t.Helper()
	wm, err := wasm.ParseModule(buf)
	require.NoError(t, err)
	mm, err := mir.TranslateModule(wm)
	require.NoError(t, err)
	return mm
}

// TestTranslateAddFunction checks that a function body `i32.const 1;
// i32.const 2; i32.add; end` translates to an entry block holding two
// Constants and one Binary(I32Add), branching to an exit block whose
// Phi merges the add's result into a Return.
func TestTranslateAddFunction(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})
	body := []byte{0x00, byte(wasm.OpI32Const)}
	body = append(body, sleb(1)...)
	body = append(body, byte(wasm.OpI32Const))
	body = append(body, sleb(2)...)
	body = append(body, byte(wasm.OpI32Add))
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	require.Len(t, mm.Functions, 1)
	fn := mm.Functions[0]
	require.NotNil(t, fn.Entry)
	require.Len(t, fn.Entry.Instr, 4)

	c1, c2, add, br := fn.Entry.Instr[0], fn.Entry.Instr[1], fn.Entry.Instr[2], fn.Entry.Instr[3]
	require.Equal(t, mir.Constant, c1.Kind)
	require.EqualValues(t, 1, c1.I32)
	require.Equal(t, mir.Constant, c2.Kind)
	require.EqualValues(t, 2, c2.I32)
	require.Equal(t, mir.Binary, add.Kind)
	require.Equal(t, wasm.OpI32Add, add.Op)
	require.Equal(t, []*mir.Instruction{c1, c2}, add.Args)
	require.Equal(t, mir.BranchUncond, br.Kind)
	require.Equal(t, fn.Exit, br.Target)

	require.NotNil(t, fn.Exit)
	require.Len(t, fn.Exit.Instr, 2)
	phi, ret := fn.Exit.Instr[0], fn.Exit.Instr[1]
	require.Equal(t, mir.Phi, phi.Kind)
	require.Len(t, phi.PhiCandidates, 1)
	require.Equal(t, add, phi.PhiCandidates[0].Value)
	require.Equal(t, fn.Entry, phi.PhiCandidates[0].Pred)
	require.Equal(t, mir.Return, ret.Kind)
	require.Equal(t, []*mir.Instruction{phi}, ret.Args)
}

// TestTranslateBlockBranchWithValue checks that `block (result i32)
// i32.const 42 br 0 end; end` flows the constant as a phi candidate
// into the block's own landing block, then again into the function's
// exit.
func TestTranslateBlockBranchWithValue(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})

	inner := []byte{byte(wasm.OpI32Const)}
	inner = append(inner, sleb(42)...)
	inner = append(inner, byte(wasm.OpBr))
	inner = append(inner, uleb(0)...)
	inner = append(inner, byte(wasm.OpEnd))

	body := []byte{0x00, byte(wasm.OpBlock), byte(wasm.I32)}
	body = append(body, inner...)
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]

	require.Len(t, fn.Entry.Instr, 2)
	c42, br := fn.Entry.Instr[0], fn.Entry.Instr[1]
	require.Equal(t, mir.Constant, c42.Kind)
	require.EqualValues(t, 42, c42.I32)
	require.Equal(t, mir.BranchUncond, br.Kind)
	landing := br.Target
	require.NotNil(t, landing)
	require.NotEqual(t, fn.Exit, landing)

	require.Len(t, landing.Instr, 2)
	landingPhi, landingBr := landing.Instr[0], landing.Instr[1]
	require.Equal(t, mir.Phi, landingPhi.Kind)
	require.Len(t, landingPhi.PhiCandidates, 1)
	require.Equal(t, c42, landingPhi.PhiCandidates[0].Value)
	require.Equal(t, fn.Entry, landingPhi.PhiCandidates[0].Pred)
	require.Equal(t, mir.BranchUncond, landingBr.Kind)
	require.Equal(t, fn.Exit, landingBr.Target)

	require.Len(t, fn.Exit.Instr, 2)
	exitPhi, ret := fn.Exit.Instr[0], fn.Exit.Instr[1]
	require.Equal(t, mir.Phi, exitPhi.Kind)
	require.Len(t, exitPhi.PhiCandidates, 1)
	require.Equal(t, landingPhi, exitPhi.PhiCandidates[0].Value)
	require.Equal(t, landing, exitPhi.PhiCandidates[0].Pred)
	require.Equal(t, mir.Return, ret.Kind)
	require.Equal(t, []*mir.Instruction{exitPhi}, ret.Args)
}

// TestTranslateMemOpAppliesOffset checks the effective-address rule:
// `i32.load offset=4` must build the address as a Binary(IntAdd) of the
// base address and a Constant(4), not use the popped address directly —
// the memarg offset is extremely common (struct-field/array access).
func TestTranslateMemOpAppliesOffset(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x01, byte(wasm.I32), 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})
	memSec := section(5, []byte{0x01, 0x00, 0x01})

	body := []byte{0x00, byte(wasm.OpLocalGet)}
	body = append(body, uleb(0)...)
	body = append(body, byte(wasm.OpI32Load))
	body = append(body, uleb(2)...) // align
	body = append(body, uleb(4)...) // offset
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, memSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 6)

	base, offsetConst, add, guard, load := fn.Entry.Instr[0], fn.Entry.Instr[1], fn.Entry.Instr[2], fn.Entry.Instr[3], fn.Entry.Instr[4]
	require.Equal(t, mir.LocalGet, base.Kind)
	require.Equal(t, mir.Constant, offsetConst.Kind)
	require.EqualValues(t, 4, offsetConst.I32)
	require.Equal(t, mir.Binary, add.Kind)
	require.Equal(t, wasm.OpI32Add, add.Op)
	require.Equal(t, []*mir.Instruction{base, offsetConst}, add.Args)
	require.Equal(t, mir.MemoryGuard, guard.Kind)
	require.Equal(t, []*mir.Instruction{add}, guard.Args)
	require.Equal(t, mir.Load, load.Kind)
	require.EqualValues(t, 4, load.Width)
	require.EqualValues(t, 2, load.Align)
}

// TestTranslateMemOpSkipsAddWhenOffsetZero keeps the common
// offset=0 case free of a dead Constant(0)/Add pair.
func TestTranslateMemOpSkipsAddWhenOffsetZero(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x01, byte(wasm.I32), 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})
	memSec := section(5, []byte{0x01, 0x00, 0x01})

	body := []byte{0x00, byte(wasm.OpLocalGet)}
	body = append(body, uleb(0)...)
	body = append(body, byte(wasm.OpI32Load))
	body = append(body, uleb(2)...) // align
	body = append(body, uleb(0)...) // offset
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, memSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 4)
	require.Equal(t, mir.LocalGet, fn.Entry.Instr[0].Kind)
	require.Equal(t, mir.MemoryGuard, fn.Entry.Instr[1].Kind)
	require.Equal(t, []*mir.Instruction{fn.Entry.Instr[0]}, fn.Entry.Instr[1].Args)
}

// TestTranslateSignedNarrowLoadExtends checks that a narrow signed load
// (`i32.load8_s`) is a plain one-byte Load followed by an explicit
// sign-extending Cast, not a Load with extension folded in.
func TestTranslateSignedNarrowLoadExtends(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x01, byte(wasm.I32), 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})
	memSec := section(5, []byte{0x01, 0x00, 0x01})

	body := []byte{0x00, byte(wasm.OpLocalGet)}
	body = append(body, uleb(0)...)
	body = append(body, byte(wasm.OpI32Load8S))
	body = append(body, uleb(0)...) // align
	body = append(body, uleb(0)...) // offset
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, memSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 5)

	load, ext := fn.Entry.Instr[2], fn.Entry.Instr[3]
	require.Equal(t, mir.Load, load.Kind)
	require.EqualValues(t, 1, load.Width)
	require.True(t, load.Signed)
	require.Equal(t, mir.Cast, ext.Kind)
	require.Equal(t, mir.CastConversionSigned, ext.CastMode)
	require.Equal(t, []*mir.Instruction{load}, ext.Args)

	exitPhi := fn.Exit.Instr[0]
	require.Equal(t, ext, exitPhi.PhiCandidates[0].Value)
}

// TestTranslateSimdSplatAndExtractLane exercises the dedicated VecSplat
// and VecExtract kinds: i32x4.splat (scalar -> v128) feeding
// i32x4.extract_lane (v128 -> scalar), not a generic v128 x v128 ->
// v128 Binary.
func TestTranslateSimdSplatAndExtractLane(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})

	body := []byte{0x00, byte(wasm.OpI32Const)}
	body = append(body, sleb(5)...)
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(17)...) // i32x4.splat
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(27)...) // i32x4.extract_lane
	body = append(body, 0x00)        // lane 0
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 4)

	c, splat, extract := fn.Entry.Instr[0], fn.Entry.Instr[1], fn.Entry.Instr[2]
	require.Equal(t, mir.Constant, c.Kind)
	require.Equal(t, mir.VecSplat, splat.Kind)
	require.Equal(t, wasm.OpExtensionSIMD, splat.Op)
	require.EqualValues(t, 17, splat.SimdOp)
	require.Equal(t, wasm.V128, splat.ValueType)
	require.Equal(t, []*mir.Instruction{c}, splat.Args)
	require.Equal(t, mir.VecExtract, extract.Kind)
	require.Equal(t, wasm.OpExtensionSIMD, extract.Op)
	require.EqualValues(t, 27, extract.SimdOp)
	require.Equal(t, wasm.I32, extract.ValueType)
	require.Equal(t, 0, extract.Lane.Lane)
	require.Equal(t, []*mir.Instruction{splat}, extract.Args)
}

// TestTranslateSimdBinaryRecordsSubOpcode checks that a lane-wise
// binary op keeps its operation identity: i32x4.add must come out as a
// Binary carrying (OpExtensionSIMD, sub-opcode 174), not an anonymous
// v128 Binary indistinguishable from every other vector op.
func TestTranslateSimdBinaryRecordsSubOpcode(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(3, []byte{0x01, 0x00})

	body := []byte{0x00, byte(wasm.OpI32Const)}
	body = append(body, sleb(1)...)
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(17)...) // i32x4.splat
	body = append(body, byte(wasm.OpI32Const))
	body = append(body, sleb(2)...)
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(17)...)
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(174)...) // i32x4.add
	body = append(body, byte(wasm.OpDrop))
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 6)

	add := fn.Entry.Instr[4]
	require.Equal(t, mir.Binary, add.Kind)
	require.Equal(t, wasm.OpExtensionSIMD, add.Op)
	require.EqualValues(t, 174, add.SimdOp)
	require.Equal(t, wasm.V128, add.ValueType)
	require.Len(t, add.Args, 2)
}

// TestTranslateSatTruncFoldsConstant exercises the constant fold in the
// saturating-truncation path: `f32.const 1e20; i32.trunc_sat_f32_s` is a
// total operation over a literal, so the translator folds it straight to
// the clamped integer constant instead of emitting a Cast.
func TestTranslateSatTruncFoldsConstant(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})

	bits := math.Float32bits(1e20)
	body := []byte{0x00, byte(wasm.OpF32Const),
		byte(bits), byte(bits >> 8), byte(bits >> 16), byte(bits >> 24)}
	body = append(body, byte(wasm.OpExtensionFC))
	body = append(body, uleb(wasm.SatI32TruncF32S)...)
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	mm := mustTranslate(t, buf)
	fn := mm.Functions[0]
	require.Len(t, fn.Entry.Instr, 2)

	folded, br := fn.Entry.Instr[0], fn.Entry.Instr[1]
	require.Equal(t, mir.Constant, folded.Kind)
	require.Equal(t, wasm.I32, folded.ValueType)
	require.EqualValues(t, math.MaxInt32, folded.I32)
	require.Equal(t, mir.BranchUncond, br.Kind)
}

// TestTranslateMinimalModule checks that the 8-byte header alone
// translates to an MIR module with zero functions.
func TestTranslateMinimalModule(t *testing.T) {
	mm := mustTranslate(t, header())
	require.Empty(t, mm.Functions)
	require.Empty(t, mm.Globals)
	require.Empty(t, mm.Memories)
	require.Empty(t, mm.Tables)
}
