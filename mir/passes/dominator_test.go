package passes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/mir/passes"
	"github.com/vertexdlt/sablec/wasm"
)

// diamond builds entry -> {a, b} -> merge -> exit, with merge and exit
// each carrying a single i32 phi, matching the shape the translator
// produces for an `if/else` that both arms fall through from.
func diamond(t *testing.T) (fn *mir.Function, entry, a, b, merge, exit *mir.BasicBlock) {
	t.Helper()
	mod := mir.NewModule()
	fn = mod.NewFunction("f", wasm.FunctionType{Results: []wasm.ValueType{wasm.I32}})

	entry = mod.NewBlock(fn, "entry")
	a = mod.NewBlock(fn, "a")
	b = mod.NewBlock(fn, "b")
	merge = mod.NewBlock(fn, "merge")
	exit = mod.NewBlock(fn, "exit")
	fn.Entry = entry
	fn.Exit = exit

	cond := mod.NewInstruction(mir.Constant)
	cond.ValueType = wasm.I32
	entry.Append(cond)

	brc := mod.NewInstruction(mir.BranchCond)
	brc.Args = []*mir.Instruction{cond}
	brc.TargetTrue = a
	brc.TargetFalse = b
	mir.Link(brc, "Args", cond)
	mir.Link(brc, "TargetTrue", a)
	mir.Link(brc, "TargetFalse", b)
	entry.Append(brc)

	ca := mod.NewInstruction(mir.Constant)
	ca.ValueType = wasm.I32
	ca.I32 = 1
	a.Append(ca)
	brA := mod.NewInstruction(mir.BranchUncond)
	brA.Target = merge
	mir.Link(brA, "Target", merge)
	a.Append(brA)

	cb := mod.NewInstruction(mir.Constant)
	cb.ValueType = wasm.I32
	cb.I32 = 2
	b.Append(cb)
	brB := mod.NewInstruction(mir.BranchUncond)
	brB.Target = merge
	mir.Link(brB, "Target", merge)
	b.Append(brB)

	phi := mod.NewInstruction(mir.Phi)
	phi.ValueType = wasm.I32
	phi.Target = merge
	mir.Link(phi, "Target", merge)
	phi.PhiCandidates = []mir.PhiCandidate{{Value: ca, Pred: a}, {Value: cb, Pred: b}}
	mir.Link(phi, "PhiCandidates.Value", ca)
	mir.Link(phi, "PhiCandidates.Value", cb)
	merge.Append(phi)
	brM := mod.NewInstruction(mir.BranchUncond)
	brM.Target = exit
	mir.Link(brM, "Target", exit)
	merge.Append(brM)

	exitPhi := mod.NewInstruction(mir.Phi)
	exitPhi.ValueType = wasm.I32
	exitPhi.Target = exit
	mir.Link(exitPhi, "Target", exit)
	exitPhi.PhiCandidates = []mir.PhiCandidate{{Value: phi, Pred: merge}}
	mir.Link(exitPhi, "PhiCandidates.Value", phi)
	exit.Append(exitPhi)
	ret := mod.NewInstruction(mir.Return)
	ret.Args = []*mir.Instruction{exitPhi}
	mir.Link(ret, "Args", exitPhi)
	exit.Append(ret)

	return fn, entry, a, b, merge, exit
}

func TestBuildDominatorTreeDiamond(t *testing.T) {
	fn, entry, a, b, merge, exit := diamond(t)
	dt := passes.BuildDominatorTree(fn)

	require.True(t, dt.Dominates(entry, a))
	require.True(t, dt.Dominates(entry, b))
	require.True(t, dt.Dominates(entry, merge))
	require.True(t, dt.Dominates(entry, exit))
	require.False(t, dt.Dominates(a, merge))
	require.False(t, dt.Dominates(b, merge))
	require.Equal(t, entry, dt.IDom(merge))
	require.Equal(t, merge, dt.IDom(exit))
	require.Equal(t, entry, dt.IDom(a))
	require.Equal(t, entry, dt.IDom(b))

	order := dt.Order()
	require.Equal(t, entry, order[0])
	pos := map[*mir.BasicBlock]int{}
	for i, blk := range order {
		pos[blk] = i
	}
	require.Less(t, pos[entry], pos[merge])
	require.Less(t, pos[merge], pos[exit])
}
