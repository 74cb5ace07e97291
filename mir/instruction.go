package mir

import "github.com/vertexdlt/sablec/wasm"

// InstKind discriminates the closed MIR instruction sum type:
// Unreachable, Branch (uncond/cond/switch), Return, Call, CallIndirect,
// Select, LocalGet/Set, GlobalGet/Set, Constant, Compare, Unary,
// Binary, Load, Store, MemorySize/Grow/Guard, Cast, Extend, Pack,
// Unpack, Phi, and the vector lane ops. Every kind is a case of one
// Instruction struct rather than its own Go type.
type InstKind int

const (
	Unreachable InstKind = iota
	BranchUncond
	BranchCond
	BranchSwitch
	Return
	Call
	CallIndirect
	Select
	LocalGet
	LocalSet
	GlobalGet
	GlobalSet
	Constant
	Compare
	Unary
	Binary
	Load
	Store
	MemorySize
	MemoryGrow
	MemoryGuard
	Cast
	Extend
	Pack
	Unpack
	Phi
	VecSplat
	VecExtract
	VecInsert
	VecShuffle
)

// CastMode distinguishes the ways the backend lowers a Cast.
type CastMode int

const (
	CastConversion CastMode = iota
	CastConversionSigned
	CastConversionUnsigned
	CastReinterpret
	CastSatConversion
)

// LaneInfo is the vector-shape attribute SIMD instructions carry,
// consumed by the backend's shuffle/extract/insert/splat lowering.
type LaneInfo struct {
	LaneWidth int // bits per lane
	LaneCount int
	Lane      int    // meaningful for Extract/Insert
	Shuffle   []byte // meaningful for VecShuffle
}

// PhiCandidate is one incoming value of a Phi, paired with the
// predecessor block it arrives from; the well-formedness pass checks
// that a Phi has exactly one candidate per predecessor.
type PhiCandidate struct {
	Value *Instruction
	Pred  *BasicBlock
}

// Instruction is one MIR instruction: a tagged union over InstKind, with
// operand edges and literal attributes. Op (when set) names the bytecode
// opcode that gave rise to this instruction's Compare/Unary/Binary/Cast
// semantics; the backend's lowering tables key off it.
type Instruction struct {
	base

	Kind  InstKind
	Block *BasicBlock // owning block; not a use-site edge, since Block owns Instruction
	Type  Type        // assigned by the TypeInfer pass; zero until it runs

	Op wasm.Opcode

	// SimdOp is the second-level SIMD sub-opcode, valid when Op ==
	// wasm.OpExtensionSIMD: vector arithmetic keeps its operation
	// identity here the same way scalar arithmetic keeps its in Op.
	SimdOp uint32

	Args []*Instruction // general operand list: unary/binary/compare operand(s), select's [cond,a,b], call args, store's [addr,value]

	Target      *BasicBlock   // BranchUncond target, or the merge block a Phi belongs to
	TargetTrue  *BasicBlock   // BranchCond taken target
	TargetFalse *BasicBlock   // BranchCond fallthrough target
	Targets     []*BasicBlock // BranchSwitch targets
	Default     *BasicBlock   // BranchSwitch default

	Callee    *Function         // Call target
	CalleeSig wasm.FunctionType // CallIndirect's expected signature

	Local  *Local
	Global *Global
	Mem    *Memory

	ValueType wasm.ValueType
	I32       int32
	I64       int64
	F32Bits   uint32
	F64Bits   uint64
	V128      [16]byte // Constant's literal, meaningful when ValueType == wasm.V128

	Align  uint32
	Width  uint32 // load/store width in bytes
	Signed bool   // sign-extending load, or signed compare/cast

	CastMode CastMode
	Lane     LaneInfo

	PhiCandidates []PhiCandidate
	AggregateIdx  int // Unpack's component index
}

func newInstruction(alloc *idAllocator, kind InstKind) *Instruction {
	return &Instruction{base: base{id: alloc.alloc()}, Kind: kind}
}

// Detach nulls out every outgoing edge of i that points at victim.
func (i *Instruction) Detach(victim ASTNode) {
	for idx, a := range i.Args {
		if a != nil && ASTNode(a) == victim {
			i.Args[idx] = nil
		}
	}
	if b, ok := victim.(*BasicBlock); ok {
		if i.Target == b {
			i.Target = nil
		}
		if i.TargetTrue == b {
			i.TargetTrue = nil
		}
		if i.TargetFalse == b {
			i.TargetFalse = nil
		}
		if i.Default == b {
			i.Default = nil
		}
		for idx, t := range i.Targets {
			if t == b {
				i.Targets[idx] = nil
			}
		}
		for idx, c := range i.PhiCandidates {
			if c.Pred == b {
				i.PhiCandidates[idx].Pred = nil
			}
		}
	}
	if f, ok := victim.(*Function); ok && i.Callee == f {
		i.Callee = nil
	}
	if l, ok := victim.(*Local); ok && i.Local == l {
		i.Local = nil
	}
	if g, ok := victim.(*Global); ok && i.Global == g {
		i.Global = nil
	}
	if m, ok := victim.(*Memory); ok && i.Mem == m {
		i.Mem = nil
	}
	for idx, c := range i.PhiCandidates {
		if c.Value != nil && ASTNode(c.Value) == victim {
			i.PhiCandidates[idx].Value = nil
		}
	}
}

// Replace retargets the Args, phi candidate value, Target, TargetTrue,
// TargetFalse and Callee edges of i that equal old to new,
// re-registering the use-site bookkeeping as it goes. The switch edges
// (Targets, Default), phi candidate predecessors, and the Local, Global
// and Mem edges are not retargeted.
func (i *Instruction) Replace(old, new ASTNode) {
	if ni, ok := new.(*Instruction); ok {
		for idx, a := range i.Args {
			if a != nil && ASTNode(a) == old {
				Unlink(i, "Args", old)
				i.Args[idx] = ni
				Link(i, "Args", ni)
			}
		}
		for idx, c := range i.PhiCandidates {
			if c.Value != nil && ASTNode(c.Value) == old {
				Unlink(i, "PhiCandidates.Value", old)
				i.PhiCandidates[idx].Value = ni
				Link(i, "PhiCandidates.Value", ni)
			}
		}
	}
	if nb, ok := new.(*BasicBlock); ok {
		if i.Target != nil && ASTNode(i.Target) == old {
			Unlink(i, "Target", old)
			i.Target = nb
			Link(i, "Target", nb)
		}
		if i.TargetTrue != nil && ASTNode(i.TargetTrue) == old {
			Unlink(i, "TargetTrue", old)
			i.TargetTrue = nb
			Link(i, "TargetTrue", nb)
		}
		if i.TargetFalse != nil && ASTNode(i.TargetFalse) == old {
			Unlink(i, "TargetFalse", old)
			i.TargetFalse = nb
			Link(i, "TargetFalse", nb)
		}
	}
	if nf, ok := new.(*Function); ok && i.Callee != nil && ASTNode(i.Callee) == old {
		Unlink(i, "Callee", old)
		i.Callee = nf
		Link(i, "Callee", nf)
	}
}

// IsTerminator reports whether i ends its basic block; the
// well-formedness pass requires terminators to be last.
func (i *Instruction) IsTerminator() bool {
	switch i.Kind {
	case Unreachable, BranchUncond, BranchCond, BranchSwitch, Return:
		return true
	}
	return false
}
