package wasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalModule() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
}

func TestParseMinimalModule(t *testing.T) {
	m, err := ParseModule(minimalModule())
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumFuncs())
	assert.Equal(t, 0, len(m.Types))
	assert.Nil(t, m.Start)
}

func TestParseBadMagic(t *testing.T) {
	buf := minimalModule()
	buf[0] = 0xFF
	_, err := ParseModule(buf)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseBadVersion(t *testing.T) {
	buf := minimalModule()
	buf[4] = 0x02
	_, err := ParseModule(buf)
	require.Error(t, err)
}

// buildSection prepends a (id, size) header to payload.
func buildSection(id byte, payload []byte) []byte {
	out := []byte{id}
	out = append(out, uleb(uint32(len(payload)))...)
	out = append(out, payload...)
	return out
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

// sleb encodes a signed LEB128 value the way i32.const literals appear on
// the wire.
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

// TestParseAddFunction builds a one-function module by hand
// (`(func (param i32 i32) (result i32) local.get 0 local.get 1 i32.add)`)
// and checks the decoded MIR-adjacent shape: one type, one function, one
// instruction sequence of length 3.
func TestParseAddFunction(t *testing.T) {
	typeSec := buildSection(1, append(append([]byte{0x01, 0x60, 0x02, byte(I32), byte(I32), 0x01}, byte(I32)), []byte{}...))
	funcSec := buildSection(3, []byte{0x01, 0x00})

	body := []byte{0x00} // zero local-decl groups
	body = append(body, byte(OpLocalGet))
	body = append(body, uleb(0)...)
	body = append(body, byte(OpLocalGet))
	body = append(body, uleb(1)...)
	body = append(body, byte(OpI32Add))
	body = append(body, byte(OpEnd))
	codeEntry := append(uleb(uint32(len(body))), body...)
	codeSec := buildSection(10, append([]byte{0x01}, codeEntry...))

	buf := minimalModule()
	buf = append(buf, typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	m, err := ParseModule(buf)
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	require.Len(t, m.Funcs, 1)
	assert.Equal(t, []ValueType{I32, I32}, m.Types[0].Params)
	assert.Equal(t, []ValueType{I32}, m.Types[0].Results)

	fn := m.Funcs[0]
	require.Len(t, fn.Code.Body, 3)
	assert.Equal(t, OpLocalGet, fn.Code.Body[0].Op)
	assert.Equal(t, LocalIdx(0), fn.Code.Body[0].Local)
	assert.Equal(t, OpLocalGet, fn.Code.Body[1].Op)
	assert.Equal(t, LocalIdx(1), fn.Code.Body[1].Local)
	assert.Equal(t, OpI32Add, fn.Code.Body[2].Op)
}

// TestParseBranchOutOfBlockWithValue exercises a `block (result i32)`
// whose body is `i32.const 7; br_if 0; i32.const 0` and checks only the
// parsed shape; the single value before br_if is its condition, so no
// value is carried by the branch and the body is not checked for types.
func TestParseBranchOutOfBlockWithValue(t *testing.T) {
	typeSec := buildSection(1, []byte{0x01, 0x60, 0x00, 0x01, byte(I32)})
	funcSec := buildSection(3, []byte{0x01, 0x00})

	inner := []byte{byte(OpI32Const)}
	inner = append(inner, sleb(7)...)
	inner = append(inner, byte(OpBrIf))
	inner = append(inner, uleb(0)...)
	inner = append(inner, byte(OpI32Const))
	inner = append(inner, sleb(0)...)
	inner = append(inner, byte(OpEnd))

	body := []byte{0x00, byte(OpBlock), byte(I32)}
	body = append(body, inner...)
	body = append(body, byte(OpEnd))
	codeEntry := append(uleb(uint32(len(body))), body...)
	codeSec := buildSection(10, append([]byte{0x01}, codeEntry...))

	buf := minimalModule()
	buf = append(buf, typeSec...)
	buf = append(buf, funcSec...)
	buf = append(buf, codeSec...)

	m, err := ParseModule(buf)
	require.NoError(t, err)
	fn := m.Funcs[0]
	require.Len(t, fn.Code.Body, 1)
	blk := fn.Code.Body[0]
	assert.Equal(t, OpBlock, blk.Op)
	assert.Equal(t, BlockResultValue, blk.BlockType.Kind)
	assert.Equal(t, I32, blk.BlockType.Value)
	require.Len(t, blk.Then, 3)
	assert.Equal(t, OpI32Const, blk.Then[0].Op)
	assert.Equal(t, OpBrIf, blk.Then[1].Op)
}

func TestParseSectionOutOfOrder(t *testing.T) {
	buf := minimalModule()
	buf = append(buf, buildSection(3, []byte{0x00})...) // function
	buf = append(buf, buildSection(1, []byte{0x00})...) // type, after function: illegal
	_, err := ParseModule(buf)
	require.Error(t, err)
}

func TestParseUnknownOpcode(t *testing.T) {
	body := []byte{0x00, 0xEE, byte(OpEnd)} // 0xEE is unassigned
	codeEntry := append(uleb(uint32(len(body))), body...)
	buf := minimalModule()
	buf = append(buf, buildSection(1, []byte{0x01, 0x60, 0x00, 0x00})...)
	buf = append(buf, buildSection(3, []byte{0x01, 0x00})...)
	buf = append(buf, buildSection(10, append([]byte{0x01}, codeEntry...))...)
	_, err := ParseModule(buf)
	require.Error(t, err)
}

func TestParseCallIndirectRequiresReservedZero(t *testing.T) {
	body := []byte{0x00, byte(OpCallIndirect)}
	body = append(body, uleb(0)...)
	body = append(body, 0x01) // reserved byte must be zero
	body = append(body, byte(OpEnd))
	codeEntry := append(uleb(uint32(len(body))), body...)
	buf := minimalModule()
	buf = append(buf, buildSection(1, []byte{0x01, 0x60, 0x00, 0x00})...)
	buf = append(buf, buildSection(3, []byte{0x01, 0x00})...)
	buf = append(buf, buildSection(10, append([]byte{0x01}, codeEntry...))...)
	_, err := ParseModule(buf)
	require.Error(t, err)
}
