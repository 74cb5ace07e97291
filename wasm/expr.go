package wasm

// parseExpression parses a full instruction sequence up to (and
// including, by consuming but not emitting) its terminating `end` byte.
// Nested control instructions recurse through parseInstructionSequence,
// which parses until the next end/else; nesting is tracked by the Go call
// stack alone.
func (p *Parser) parseExpression() ([]Instruction, error) {
	body, term, err := p.parseInstructionSequence()
	if err != nil {
		return nil, err
	}
	if term != OpEnd {
		return nil, parseErr(p.r.Pos(), "expression terminator", ErrUnknownOpcode)
	}
	return body, nil
}

// parseInstructionSequence reads instructions until it hits an `end`
// (0x0B) or `else` (0x05) byte, which it consumes and returns as the
// terminator so the caller (top-level expression vs. if's then-arm) can
// tell the two apart.
func (p *Parser) parseInstructionSequence() ([]Instruction, Opcode, error) {
	var out []Instruction
	for {
		off := p.r.Pos()
		opByte, err := p.r.ReadByte()
		if err != nil {
			return nil, 0, parseErr(off, "opcode", err)
		}
		op := Opcode(opByte)
		if op == OpEnd || op == OpElse {
			return out, op, nil
		}
		inst, err := p.parseInstruction(op)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inst)
	}
}

func (p *Parser) parseInstruction(op Opcode) (Instruction, error) {
	switch op {
	case OpUnreachable, OpNop, OpReturn, OpDrop, OpSelect:
		return Instruction{Op: op}, nil

	case OpBlock, OpLoop:
		bt, err := p.parseBlockResultType()
		if err != nil {
			return Instruction{}, err
		}
		body, term, err := p.parseInstructionSequence()
		if err != nil {
			return Instruction{}, err
		}
		if term != OpEnd {
			return Instruction{}, parseErr(p.r.Pos(), "block terminator", ErrUnknownOpcode)
		}
		return Instruction{Op: op, BlockType: bt, Then: body}, nil

	case OpIf:
		bt, err := p.parseBlockResultType()
		if err != nil {
			return Instruction{}, err
		}
		then, term, err := p.parseInstructionSequence()
		if err != nil {
			return Instruction{}, err
		}
		inst := Instruction{Op: op, BlockType: bt, Then: then}
		if term == OpElse {
			elseBody, term2, err := p.parseInstructionSequence()
			if err != nil {
				return Instruction{}, err
			}
			if term2 != OpEnd {
				return Instruction{}, parseErr(p.r.Pos(), "if/else terminator", ErrUnknownOpcode)
			}
			inst.Else = elseBody
			inst.HasElse = true
		}
		return inst, nil

	case OpBr, OpBrIf:
		l, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "branch label", err)
		}
		return Instruction{Op: op, Label: LabelIdx(l)}, nil

	case OpBrTable:
		n, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "br_table count", err)
		}
		targets := make([]LabelIdx, n)
		for i := range targets {
			v, err := p.r.ReadULEB32()
			if err != nil {
				return Instruction{}, parseErr(p.r.Pos(), "br_table target", err)
			}
			targets[i] = LabelIdx(v)
		}
		def, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "br_table default", err)
		}
		return Instruction{Op: op, TableTargets: targets, TableDefault: LabelIdx(def)}, nil

	case OpCall:
		f, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "call func index", err)
		}
		return Instruction{Op: op, Func: FuncIdx(f)}, nil

	case OpCallIndirect:
		t, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "call_indirect type index", err)
		}
		if err := p.expectReservedZero("call_indirect"); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, Type: TypeIdx(t)}, nil

	case OpLocalGet, OpLocalSet, OpLocalTee:
		l, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "local index", err)
		}
		return Instruction{Op: op, Local: LocalIdx(l)}, nil

	case OpGlobalGet, OpGlobalSet:
		g, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "global index", err)
		}
		return Instruction{Op: op, Global: GlobalIdx(g)}, nil

	case OpMemorySize, OpMemoryGrow:
		if err := p.expectReservedZero("memory.size/grow"); err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op}, nil

	case OpI32Const:
		v, err := p.r.ReadSLEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "i32.const", err)
		}
		return Instruction{Op: op, I32Val: v}, nil

	case OpI64Const:
		v, err := p.r.ReadSLEB64()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "i64.const", err)
		}
		return Instruction{Op: op, I64Val: v}, nil

	case OpF32Const:
		v, err := p.parseF32Bits()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, F32Bits: v}, nil

	case OpF64Const:
		v, err := p.parseF64Bits()
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, F64Bits: v}, nil

	case OpExtensionFC:
		sub, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "misc extension sub-opcode", err)
		}
		return Instruction{Op: op, SatOp: sub}, nil

	case OpExtensionSIMD:
		sub, err := p.r.ReadULEB32()
		if err != nil {
			return Instruction{}, parseErr(p.r.Pos(), "simd sub-opcode", err)
		}
		if sub > 0xFF {
			return Instruction{}, parseErr(p.r.Pos(), "simd sub-opcode", ErrUnknownOpcode)
		}
		imm, err := p.parseSimdImmediate(sub)
		if err != nil {
			return Instruction{}, err
		}
		return Instruction{Op: op, SimdOp: sub, SimdImm: imm}, nil

	case OpI32Extend8S, OpI32Extend16S, OpI64Extend8S, OpI64Extend16S, OpI64Extend32S:
		return Instruction{Op: op}, nil

	default:
		if op.IsComparison() || op.IsUnary() || op.IsBinary() || op.IsConversion() {
			return Instruction{Op: op}, nil
		}
		if op >= OpI32Load && op <= OpI64Store32 {
			mem, err := p.parseMemArg()
			if err != nil {
				return Instruction{}, err
			}
			return Instruction{Op: op, Mem: mem}, nil
		}
		return Instruction{}, parseErr(p.r.Pos()-1, "opcode", ErrUnknownOpcode)
	}
}

func (p *Parser) parseMemArg() (MemArg, error) {
	align, err := p.r.ReadULEB32()
	if err != nil {
		return MemArg{}, parseErr(p.r.Pos(), "memarg align", err)
	}
	offset, err := p.r.ReadULEB32()
	if err != nil {
		return MemArg{}, parseErr(p.r.Pos(), "memarg offset", err)
	}
	return MemArg{Align: align, Offset: offset}, nil
}

func (p *Parser) expectReservedZero(where string) error {
	off := p.r.Pos()
	b, err := p.r.ReadByte()
	if err != nil {
		return parseErr(off, where+" reserved byte", err)
	}
	if b != 0x00 {
		return parseErr(off, where+" reserved byte", ErrReservedByteNonzero)
	}
	return nil
}

func (p *Parser) parseBlockResultType() (BlockResultType, error) {
	off := p.r.Pos()
	b, err := p.r.PeekByte()
	if err != nil {
		return BlockResultType{}, parseErr(off, "block result type", err)
	}
	if b == 0x40 {
		p.r.Skip(1)
		return BlockResultType{Kind: BlockResultUnit}, nil
	}
	if IsValidValueType(b) {
		p.r.Skip(1)
		return BlockResultType{Kind: BlockResultValue, Value: ValueType(b)}, nil
	}
	idx, err := p.r.ReadSLEB64()
	if err != nil {
		return BlockResultType{}, parseErr(p.r.Pos(), "block result type index", err)
	}
	if idx < 0 {
		return BlockResultType{}, parseErr(off, "block result type index", ErrInvalidValueType)
	}
	return BlockResultType{Kind: BlockResultTypeIdx, Type: TypeIdx(idx)}, nil
}

// parseSimdImmediate reads whatever fixed-size immediate the given SIMD
// sub-opcode carries (a v128 constant, a lane index, a 16-byte shuffle
// mask, or a memarg), verbatim, without interpreting it. See DESIGN.md's
// Open Question note on why the full SIMD opcode space is carried as a
// generic payload instead of one named field per shape.
func (p *Parser) parseSimdImmediate(sub uint32) ([]byte, error) {
	switch {
	case sub == simdV128Const:
		return p.r.ReadBytes(16)
	case sub == simdShuffle:
		return p.r.ReadBytes(16)
	case isSimdLaneOp(sub):
		b, err := p.r.ReadByte()
		if err != nil {
			return nil, parseErr(p.r.Pos(), "simd lane index", err)
		}
		return []byte{b}, nil
	case isSimdMemOp(sub):
		mem, err := p.parseMemArg()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 0, 8)
		buf = appendULEB(buf, mem.Align)
		buf = appendULEB(buf, mem.Offset)
		return buf, nil
	default:
		return nil, nil
	}
}

func appendULEB(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			return append(dst, b)
		}
	}
}

// A small, named slice of the SIMD sub-opcode space: enough to route the
// shapes that need extra immediates (v128.const, shuffle, lane
// get/replace, memory ops) without enumerating all ~240 SIMD opcodes.
const (
	simdV128Const uint32 = 12
	simdShuffle   uint32 = 13
)

func isSimdLaneOp(sub uint32) bool {
	// i8x16/i16x8/i32x4/i64x2/f32x4/f64x2 extract_lane{_s,_u} and
	// replace_lane occupy a contiguous range in the canonical SIMD opcode
	// table (21..34).
	return sub >= 21 && sub <= 34
}

func isSimdMemOp(sub uint32) bool {
	// v128.load / v128.store, the partial loads/lane ops, and the two
	// load_zero variants (92, 93), all of which carry a memarg.
	return sub <= 11 || (sub >= 84 && sub <= 93)
}
