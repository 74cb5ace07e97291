package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySizeAndGrow(t *testing.T) {
	m := MemoryAllocateWithBound(1, 3)
	require.EqualValues(t, 1, m.Size())

	require.EqualValues(t, 3, m.Grow(2))
	require.EqualValues(t, 3, m.Size())
	require.Len(t, m.Bytes(), 3*PageSize)

	require.Equal(t, UnsetBound, m.Grow(1))
	require.EqualValues(t, 3, m.Size())
}

func TestMemoryGrowUnbounded(t *testing.T) {
	m := MemoryAllocate(1)
	require.EqualValues(t, 11, m.Grow(10))
	require.EqualValues(t, 11, m.Size())
}

func TestMemoryGuardTrapsOutOfBound(t *testing.T) {
	m := MemoryAllocate(1)
	var code TrapCode
	inst := &Instance{Trap: func(c TrapCode) { code = c }}

	require.NotPanics(t, func() { m.Guard(inst, uint32(len(m.Bytes()))) })
	require.PanicsWithError(t, (&Trap{Code: TrapMemoryOutOfBound}).Error(), func() {
		m.Guard(inst, uint32(len(m.Bytes()))+1)
	})
	require.Equal(t, TrapMemoryOutOfBound, code)
}
