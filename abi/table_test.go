package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableGuardOutOfBoundAndNull(t *testing.T) {
	tbl := TableAllocate(2)
	var code TrapCode
	inst := &Instance{Trap: func(c TrapCode) { code = c }}

	require.PanicsWithError(t, (&Trap{Code: TrapTableOutOfBound}).Error(), func() { tbl.Guard(inst, 5) })
	require.Equal(t, TrapTableOutOfBound, code)

	require.PanicsWithError(t, (&Trap{Code: TrapTableNull}).Error(), func() { tbl.Guard(inst, 0) })
	require.Equal(t, TrapTableNull, code)
}

func TestTableSetGetAndContext(t *testing.T) {
	tbl := TableAllocate(1)
	callee := &Instance{}
	prev := tbl.Set(0, FuncPtr{Instance: callee, Func: "fn", Signature: "I:I"})
	require.True(t, prev.isNull())

	require.Equal(t, "fn", tbl.Get(0).Func)
	require.Equal(t, "I:I", tbl.Type(0))
	require.Equal(t, callee, tbl.Context(&Instance{}, 0))

	tbl.Set(0, FuncPtr{Func: "fn2", Signature: "I:I"})
	caller := &Instance{}
	require.Equal(t, caller, tbl.Context(caller, 0))
}

func TestTableCheckSignatureMismatchTraps(t *testing.T) {
	tbl := TableAllocate(1)
	tbl.Set(0, FuncPtr{Func: "fn", Signature: "I:I"})
	var code TrapCode
	inst := &Instance{Trap: func(c TrapCode) { code = c }}

	require.NotPanics(t, func() { tbl.Check(inst, 0, "I:I") })
	require.PanicsWithError(t, (&Trap{Code: TrapTableNull}).Error(), func() { tbl.Check(inst, 0, "J:J") })
	require.Equal(t, TrapTableNull, code)
}

func TestStrcmp(t *testing.T) {
	require.EqualValues(t, 0, Strcmp("I:I", "I:I"))
	require.Negative(t, Strcmp("I:I", "J:J"))
	require.Positive(t, Strcmp("J:J", "I:I"))
}
