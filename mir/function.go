package mir

import "github.com/vertexdlt/sablec/wasm"

// Function owns an ordered list of BasicBlock and an ordered list of
// Local. Entry and Exit are distinguished members of Blocks
// (always present once the translator has run): Exit holds one Phi per
// result type followed by a Return, so every other block that wants to
// return funnels its live values into Exit's phis instead of each
// carrying its own Return.
type Function struct {
	base
	Sig      wasm.FunctionType
	Imported bool
	Import   ImportSite

	Locals []*Local
	Blocks []*BasicBlock
	Entry  *BasicBlock
	Exit   *BasicBlock
}

func newFunction(alloc *idAllocator, name string, sig wasm.FunctionType) *Function {
	return &Function{base: base{id: alloc.alloc(), name: name}, Sig: sig}
}

// NewBlock creates a basic block owned by f and appends it to Blocks.
func (f *Function) NewBlock(alloc *idAllocator, name string) *BasicBlock {
	b := newBasicBlock(alloc, name, f)
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewLocal creates a local owned by f and appends it to Locals.
func (f *Function) NewLocal(alloc *idAllocator, name string, vt wasm.ValueType, isParam bool) *Local {
	l := newLocal(alloc, name, vt, isParam)
	f.Locals = append(f.Locals, l)
	return l
}

// Detach removes b from f's owned Blocks (or l from Locals) when the
// corresponding entity is destroyed. Other edges (Callee in another
// function's Call instructions) are handled by Instruction.Detach.
func (f *Function) Detach(victim ASTNode) {
	if b, ok := victim.(*BasicBlock); ok {
		out := f.Blocks[:0]
		for _, blk := range f.Blocks {
			if blk != b {
				out = append(out, blk)
			}
		}
		f.Blocks = out
		if f.Entry == b {
			f.Entry = nil
		}
		if f.Exit == b {
			f.Exit = nil
		}
	}
	if l, ok := victim.(*Local); ok {
		out := f.Locals[:0]
		for _, loc := range f.Locals {
			if loc != l {
				out = append(out, loc)
			}
		}
		f.Locals = out
	}
}
