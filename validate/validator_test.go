package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/validate"
	"github.com/vertexdlt/sablec/wasm"
)

func mustParse(t *testing.T, buf []byte) *wasm.Module {
	t.Helper()
	m, err := wasm.ParseModule(buf)
	require.NoError(t, err)
	return m
}

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

// TestValidateAddFunction checks that `i32.const 1; i32.const 2;
// i32.add; end` validates successfully.
func TestValidateAddFunction(t *testing.T) {
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

	m := mustParse(t, buf)
	require.NoError(t, validate.Module(m))
}

// TestValidateInvalidAlign checks that i32.load with align=3 (2^3 = 8 >
// 32/8 = 4) over a declared memory fails with InvalidAlign.
func TestValidateInvalidAlign(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x01, byte(wasm.I32), 0x00})
	funcSec := section(3, []byte{0x01, 0x00})
	memSec := section(5, []byte{0x01, 0x00, 0x01})
	body := []byte{0x00, byte(wasm.OpLocalGet)}
	body = append(body, uleb(0)...)
	body = append(body, byte(wasm.OpI32Load))
	body = append(body, uleb(3)...) // align
	body = append(body, uleb(0)...) // offset
	body = append(body, byte(wasm.OpDrop))
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, memSec...)
	buf = append(buf, codeSec...)

	m := mustParse(t, buf)
	err := validate.Module(m)
	require.Error(t, err)
	var me *validate.MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, validate.InvalidAlign, me.Kind)
}

// TestValidateCallIndirectTypeIndexOutOfBound checks that a
// call_indirect naming a nonexistent type index is rejected before any
// operand checking happens.
func TestValidateCallIndirectTypeIndexOutOfBound(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(3, []byte{0x01, 0x00})
	tableSec := section(4, []byte{0x01, 0x70, 0x00, 0x00})
	body := []byte{0x00, byte(wasm.OpI32Const)}
	body = append(body, sleb(0)...)
	body = append(body, byte(wasm.OpCallIndirect))
	body = append(body, uleb(5)...) // non-existent type index
	body = append(body, 0x00)
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, tableSec...)
	buf = append(buf, codeSec...)

	m := mustParse(t, buf)
	err := validate.Module(m)
	require.Error(t, err)
	var me *validate.MalformedError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, validate.TypeIndexOutOfBound, me.Kind)
}

// TestValidateBlockBranchWithValue checks
// `block (result i32) i32.const 42 br 0 end`.
func TestValidateBlockBranchWithValue(t *testing.T) {
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

	m := mustParse(t, buf)
	require.NoError(t, validate.Module(m))
}

func TestValidateDropRejectsEmptyStack(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x00})
	funcSec := section(3, []byte{0x01, 0x00})
	body := []byte{0x00, byte(wasm.OpDrop), byte(wasm.OpEnd)}
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	m := mustParse(t, buf)
	require.Error(t, validate.Module(m))
}

// TestValidateSimdSplatAndTestOp exercises the two shapes the SIMD case
// used to mistype: f32x4.splat (scalar -> v128, not v128 x v128 -> v128)
// and v128.any_true (v128 -> i32, not v128 -> v128). A function that
// only ever holds one v128 value on the stack at a time would fail
// under the old uniform "v128 x v128 -> v128" rule.
func TestValidateSimdSplatAndTestOp(t *testing.T) {
	typeSec := section(1, []byte{0x01, 0x60, 0x00, 0x01, byte(wasm.I32)})
	funcSec := section(3, []byte{0x01, 0x00})

	body := []byte{0x00, byte(wasm.OpF32Const)}
	body = append(body, 0x00, 0x00, 0x00, 0x00) // f32 bits
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(19)...) // f32x4.splat
	body = append(body, byte(wasm.OpExtensionSIMD))
	body = append(body, uleb(83)...) // v128.any_true
	body = append(body, byte(wasm.OpEnd))
	codeSec := section(10, append([]byte{0x01}, append(uleb(uint32(len(body))), body...)...))

	buf := append(header(), typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	m := mustParse(t, buf)
	require.NoError(t, validate.Module(m))
}
