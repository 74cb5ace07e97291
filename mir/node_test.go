package mir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

// TestUseSiteSymmetryAcrossReplaceAndDestroy checks the two ownership
// invariants every edge mutation must preserve: a target's use-site set
// tracks exactly its live referrers, and destroying a target nulls the
// referrer's edge instead of leaving it dangling.
func TestUseSiteSymmetryAcrossReplaceAndDestroy(t *testing.T) {
	mod := mir.NewModule()
	fn := mod.NewFunction("f", wasm.FunctionType{})
	bb := mod.NewBlock(fn, "entry")
	fn.Entry, fn.Exit = bb, bb

	c1 := mod.NewInstruction(mir.Constant)
	c1.ValueType = wasm.I32
	bb.Append(c1)
	c2 := mod.NewInstruction(mir.Constant)
	c2.ValueType = wasm.I32
	bb.Append(c2)

	use := mod.NewInstruction(mir.Unary)
	use.Op = wasm.OpI32Clz
	use.ValueType = wasm.I32
	use.Args = []*mir.Instruction{c1}
	mir.Link(use, "Args", c1)
	bb.Append(use)

	require.Equal(t, []mir.ASTNode{use}, c1.UseSites())

	use.Replace(c1, c2)
	require.Empty(t, c1.UseSites())
	require.Equal(t, []mir.ASTNode{use}, c2.UseSites())
	require.Equal(t, []*mir.Instruction{c2}, use.Args)

	mir.Destroy(c2)
	require.Equal(t, []*mir.Instruction{nil}, use.Args)
	require.Empty(t, c2.UseSites())
}

// TestDestroyFunctionDetachesCallSites mirrors the module-level half of
// the contract: dropping a function nulls the Callee edge of every call
// that referenced it.
func TestDestroyFunctionDetachesCallSites(t *testing.T) {
	mod := mir.NewModule()
	callee := mod.NewFunction("callee", wasm.FunctionType{})
	caller := mod.NewFunction("caller", wasm.FunctionType{})
	bb := mod.NewBlock(caller, "entry")
	caller.Entry, caller.Exit = bb, bb

	call := mod.NewInstruction(mir.Call)
	call.Callee = callee
	mir.Link(call, "Callee", callee)
	bb.Append(call)

	require.Equal(t, []mir.ASTNode{call}, callee.UseSites())

	mir.Destroy(callee)
	require.Nil(t, call.Callee)
	require.Empty(t, callee.UseSites())
}
