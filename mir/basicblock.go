package mir

// BasicBlock owns an ordered sequence of Instructions. Rather than an
// intrusive linked list, instructions are kept as an ordered slice,
// indexed by position for insert-before/splice operations; the
// translator and passes depend on stable insertion order.
type BasicBlock struct {
	base
	Func  *Function
	Instr []*Instruction
}

func newBasicBlock(alloc *idAllocator, name string, fn *Function) *BasicBlock {
	return &BasicBlock{base: base{id: alloc.alloc(), name: name}, Func: fn}
}

// Append adds inst to the end of b and sets inst.Block. It does not
// register inst's operand edges; callers Link those themselves.
func (b *BasicBlock) Append(inst *Instruction) {
	inst.Block = b
	b.Instr = append(b.Instr, inst)
}

// InsertBefore splices inst into b immediately before the instruction
// currently at position pos.
func (b *BasicBlock) InsertBefore(pos int, inst *Instruction) {
	inst.Block = b
	b.Instr = append(b.Instr, nil)
	copy(b.Instr[pos+1:], b.Instr[pos:])
	b.Instr[pos] = inst
}

// Terminator returns b's last instruction if it is a terminator, else nil.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instr) == 0 {
		return nil
	}
	last := b.Instr[len(b.Instr)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// Successors returns the blocks b can transfer control to, read off its
// terminator; empty for a block with no terminator yet or a Return.
func (b *BasicBlock) Successors() []*BasicBlock {
	t := b.Terminator()
	if t == nil {
		return nil
	}
	switch t.Kind {
	case BranchUncond:
		if t.Target == nil {
			return nil
		}
		return []*BasicBlock{t.Target}
	case BranchCond:
		return []*BasicBlock{t.TargetTrue, t.TargetFalse}
	case BranchSwitch:
		out := append([]*BasicBlock(nil), t.Targets...)
		return append(out, t.Default)
	}
	return nil
}

// Detach removes victim from Instr when victim is an instruction owned
// by b; any other victim is ignored.
func (b *BasicBlock) Detach(victim ASTNode) {
	if vi, ok := victim.(*Instruction); ok {
		out := b.Instr[:0]
		for _, inst := range b.Instr {
			if inst != vi {
				out = append(out, inst)
			}
		}
		b.Instr = out
	}
}
