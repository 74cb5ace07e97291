package backend_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vertexdlt/sablec/backend"
	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

func TestBuildLayoutOrdersSlotsAndMetadata(t *testing.T) {
	mod := mir.NewModule()

	importedFn := mod.NewFunction("env.log", wasm.FunctionType{Params: []wasm.ValueType{wasm.I32}})
	importedFn.Imported = true
	importedFn.Import = mir.ImportSite{Module: "env", Name: "log"}

	localFn := mod.NewFunction("run", wasm.FunctionType{Results: []wasm.ValueType{wasm.I32}})

	mod.NewMemory("", wasm.Limits{Min: 1, Max: 4, HasMax: true}, false)
	mod.NewTable("", wasm.Limits{Min: 2}, false)
	mod.NewGlobal("", wasm.GlobalType{Mutability: wasm.Var, ValueType: wasm.I64}, mir.InitExpr{}, false)

	mod.AddExport("run", mir.ExportFunc, 1)

	layout := backend.BuildLayout(mod)

	require.Equal(t, 2, layout.Functions.Size)
	require.Equal(t, 1, layout.Memories.Size)
	require.Equal(t, 1, layout.Tables.Size)
	require.Equal(t, 1, layout.Globals.Size)

	require.Len(t, layout.Functions.Imports, 1)
	require.Equal(t, "env", layout.Functions.Imports[0].ModuleName)
	require.Equal(t, "log", layout.Functions.Imports[0].EntityName)

	require.Len(t, layout.Functions.Exports, 1)
	require.Equal(t, "run", layout.Functions.Exports[0].Name)
	require.EqualValues(t, 1, layout.Functions.Exports[0].Index)

	require.Equal(t, backend.Signature(importedFn.Sig), layout.FunctionRecords[0].Signature)
	require.Equal(t, backend.Signature(localFn.Sig), layout.FunctionRecords[1].Signature)

	require.Equal(t, uint32(1), layout.MemoryRecords[0].Min)
	require.Equal(t, uint32(4), layout.MemoryRecords[0].Max)
	require.Equal(t, backend.UnsetBound, layout.TableRecords[0].Max)
	require.EqualValues(t, 'J', layout.GlobalRecords[0].Signature)
	require.True(t, layout.GlobalRecords[0].Mutable)

	// Instance slot order: 5 metadata/trap slots, then 1 memory, 1
	// table, 1 global, then the imported function's (instance,
	// function) pair.
	require.Equal(t, backend.SlotMemoryMeta, layout.Slots[0].Kind)
	require.Equal(t, backend.SlotTableMeta, layout.Slots[1].Kind)
	require.Equal(t, backend.SlotGlobalMeta, layout.Slots[2].Kind)
	require.Equal(t, backend.SlotFunctionMeta, layout.Slots[3].Kind)
	require.Equal(t, backend.SlotTrapHandler, layout.Slots[4].Kind)
	require.Equal(t, backend.SlotMemory, layout.Slots[5].Kind)
	require.Equal(t, backend.SlotTable, layout.Slots[6].Kind)
	require.Equal(t, backend.SlotGlobal, layout.Slots[7].Kind)
	require.Equal(t, backend.SlotImportFuncInstance, layout.Slots[8].Kind)
	require.Equal(t, backend.SlotImportFuncPointer, layout.Slots[9].Kind)
	require.Equal(t, 10, layout.NumSlots())
}
