package passes

import (
	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

// InferTypes assigns an analysis Type to every instruction of fn. It
// walks dt.Order() (dominator preorder) so that an instruction's
// operands always already carry their inferred Type by the time the
// instruction itself is visited.
func InferTypes(fn *mir.Function, dt *DomTree) {
	for _, b := range dt.Order() {
		for _, inst := range b.Instr {
			inst.Type = inferType(inst)
		}
	}
}

func inferType(i *mir.Instruction) mir.Type {
	switch i.Kind {
	case mir.Unreachable, mir.BranchUncond, mir.BranchCond, mir.BranchSwitch, mir.Return,
		mir.LocalSet, mir.GlobalSet, mir.Store, mir.MemoryGuard:
		return mir.Type{Kind: mir.Unit}

	case mir.Constant, mir.LocalGet, mir.GlobalGet, mir.Load, mir.Phi, mir.Cast, mir.Extend,
		mir.Select, mir.MemorySize, mir.MemoryGrow,
		mir.VecSplat, mir.VecExtract, mir.VecInsert, mir.VecShuffle:
		return mir.PrimitiveType(i.ValueType)

	case mir.Compare:
		return mir.PrimitiveType(wasm.I32)

	case mir.Unary:
		// A scalar unary op is type-preserving, so its ValueType already
		// equals its operand's; a SIMD "test" op (v128 -> i32) also routes
		// through Unary and is NOT type-preserving, so ValueType (set by
		// the translator per shape) is the authority here, not the operand.
		return mir.PrimitiveType(i.ValueType)

	case mir.Binary:
		// Vector binaries are not uniformly type-preserving either — a
		// shift's operands are (v128, i32) — so, as with Unary, the
		// translator-assigned ValueType is the authority there.
		if i.Op == wasm.OpExtensionSIMD {
			return mir.PrimitiveType(i.ValueType)
		}
		return binaryOperandType(i.Args)

	case mir.Pack:
		vts := make([]wasm.ValueType, len(i.Args))
		for idx, a := range i.Args {
			if a != nil {
				vts[idx] = a.ValueType
			}
		}
		return mir.AggregateType(vts)

	case mir.Unpack:
		return unpackType(i)

	case mir.Call:
		if i.Callee == nil {
			return mir.Type{Kind: mir.Bottom}
		}
		return callResultType(i.Callee.Sig.Results)

	case mir.CallIndirect:
		return callResultType(i.CalleeSig.Results)
	}

	return mir.Type{Kind: mir.Bottom}
}

// binaryOperandType is a typed binary op's Type: its operands' shared
// type when they agree, Bottom on mismatch.
func binaryOperandType(args []*mir.Instruction) mir.Type {
	if len(args) != 2 || args[0] == nil || args[1] == nil {
		return mir.Type{Kind: mir.Bottom}
	}
	a, b := args[0].Type, args[1].Type
	if !a.Equal(b) {
		return mir.Type{Kind: mir.Bottom}
	}
	return a
}

func unpackType(i *mir.Instruction) mir.Type {
	if len(i.Args) != 1 || i.Args[0] == nil {
		return mir.Type{Kind: mir.Bottom}
	}
	agg := i.Args[0].Type
	if agg.Kind != mir.Aggregate || i.AggregateIdx < 0 || i.AggregateIdx >= len(agg.Components) {
		return mir.Type{Kind: mir.Bottom}
	}
	return mir.PrimitiveType(agg.Components[i.AggregateIdx])
}

func callResultType(results []wasm.ValueType) mir.Type {
	switch len(results) {
	case 0:
		return mir.Type{Kind: mir.Unit}
	case 1:
		return mir.PrimitiveType(results[0])
	default:
		return mir.AggregateType(results)
	}
}
