package passes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/mir/passes"
	"github.com/vertexdlt/sablec/wasm"
)

func TestCheckAcceptsWellFormedDiamond(t *testing.T) {
	fn, _, _, _, _, _ := diamond(t)
	dt := passes.BuildDominatorTree(fn)
	require.NoError(t, passes.Check(fn, dt))
}

func TestCheckRejectsPhiArityMismatch(t *testing.T) {
	fn, _, _, _, merge, _ := diamond(t)
	mergePhi := merge.Instr[0]
	mergePhi.PhiCandidates = mergePhi.PhiCandidates[:1]

	dt := passes.BuildDominatorTree(fn)
	err := passes.Check(fn, dt)
	require.Error(t, err)
	v, ok := err.(*passes.Violation)
	require.True(t, ok)
	require.Equal(t, "phi-arity", v.Kind)
}

func TestCheckRejectsUseBeforeDef(t *testing.T) {
	mod := mir.NewModule()
	fn := mod.NewFunction("g", wasm.FunctionType{})
	entry := mod.NewBlock(fn, "entry")
	fn.Entry, fn.Exit = entry, entry

	c := mod.NewInstruction(mir.Constant)
	c.ValueType = wasm.I32

	neg := mod.NewInstruction(mir.Unary)
	neg.Op = wasm.OpI32Eqz
	neg.Args = []*mir.Instruction{c}
	mir.Link(neg, "Args", c)

	// neg is appended before its own operand is defined: a dominance
	// violation within the same block.
	entry.Append(neg)
	entry.Append(c)
	ret := mod.NewInstruction(mir.Return)
	entry.Append(ret)

	dt := passes.BuildDominatorTree(fn)
	err := passes.Check(fn, dt)
	require.Error(t, err)
	v, ok := err.(*passes.Violation)
	require.True(t, ok)
	require.Equal(t, "dominance", v.Kind)
}

func TestMustCheckPanicsOnViolation(t *testing.T) {
	fn, _, _, _, merge, _ := diamond(t)
	merge.Instr[0].PhiCandidates = merge.Instr[0].PhiCandidates[:1]
	dt := passes.BuildDominatorTree(fn)

	require.Panics(t, func() { passes.MustCheck(fn, dt) })
}
