package backend

import (
	"github.com/vertexdlt/sablec/mir"
	"github.com/vertexdlt/sablec/wasm"
)

// ImportDescriptor is one `(index, module_name_cstr, entity_name_cstr)`
// entry of a metadata table's import array.
type ImportDescriptor struct {
	Index      uint32
	ModuleName string
	EntityName string
}

// ExportDescriptor is one `(index, name_cstr)` entry of a metadata
// table's export array.
type ExportDescriptor struct {
	Index uint32
	Name  string
}

// MemoryRecord is a memory-metadata entity record: its page-count
// bound, already passed through Bound's sentinel bridging.
type MemoryRecord struct {
	Min uint32
	Max uint32 // UnsetBound if the memory has no declared maximum
}

// TableRecord is a table-metadata entity record.
type TableRecord struct {
	Min uint32
	Max uint32
}

// GlobalRecord is a global-metadata entity record: its signature
// character and mutability.
type GlobalRecord struct {
	Signature byte
	Mutable   bool
}

// FunctionRecord is a function-metadata entity record: its
// null-terminated (in the real ABI) type signature string.
type FunctionRecord struct {
	Signature string
}

// MetadataTable is one of the four `(size, import_size, export_size)`
// triples attached to the instance struct, followed by its three
// entity/import/export arrays. The entity records themselves are not
// held here but in Layout's parallel MemoryRecords, TableRecords,
// GlobalRecords and FunctionRecords slices, indexed by the same file
// order as the owning Module's entity slice.
type MetadataTable struct {
	Size       int
	ImportSize int
	ExportSize int
	Imports    []ImportDescriptor
	Exports    []ExportDescriptor
}

// InstanceSlot names one pointer-sized slot of the instance struct, in
// fixed order: four metadata pointers, the trap handler, then N
// memory/table/global pointers, then one (instance_t*, function_t*)
// pair per imported function.
type InstanceSlot struct {
	Kind  InstanceSlotKind
	Index int // meaningful for Memory/Table/Global/ImportFunc kinds
}

// InstanceSlotKind discriminates the instance struct's slot roles.
type InstanceSlotKind int

const (
	SlotMemoryMeta InstanceSlotKind = iota
	SlotTableMeta
	SlotGlobalMeta
	SlotFunctionMeta
	SlotTrapHandler
	SlotMemory
	SlotTable
	SlotGlobal
	SlotImportFuncInstance
	SlotImportFuncPointer
)

// Layout is the fully computed backend lowering contract for one
// mir.Module: its instance struct slot order and its four metadata
// tables, built in the module's original file-order index space.
type Layout struct {
	Slots []InstanceSlot

	Memories  MetadataTable
	Tables    MetadataTable
	Globals   MetadataTable
	Functions MetadataTable

	MemoryRecords   []MemoryRecord
	TableRecords    []TableRecord
	GlobalRecords   []GlobalRecord
	FunctionRecords []FunctionRecord
}

// BuildLayout computes mod's instance layout and metadata tables. It
// does not mutate mod; callers run it once translation and the analysis
// passes have completed.
func BuildLayout(mod *mir.Module) *Layout {
	l := &Layout{}

	l.Slots = append(l.Slots,
		InstanceSlot{Kind: SlotMemoryMeta},
		InstanceSlot{Kind: SlotTableMeta},
		InstanceSlot{Kind: SlotGlobalMeta},
		InstanceSlot{Kind: SlotFunctionMeta},
		InstanceSlot{Kind: SlotTrapHandler},
	)

	for i, mem := range mod.Memories {
		l.MemoryRecords = append(l.MemoryRecords, MemoryRecord{Min: mem.Limits.Min, Max: Bound(mem.Limits)})
		if mem.Imported {
			l.Memories.Imports = append(l.Memories.Imports, ImportDescriptor{Index: uint32(i), ModuleName: mem.Import.Module, EntityName: mem.Import.Name})
		}
		l.Slots = append(l.Slots, InstanceSlot{Kind: SlotMemory, Index: i})
	}
	l.Memories.Size = len(mod.Memories)
	l.Memories.ImportSize = len(l.Memories.Imports)

	for i, tbl := range mod.Tables {
		l.TableRecords = append(l.TableRecords, TableRecord{Min: tbl.Limits.Min, Max: Bound(tbl.Limits)})
		if tbl.Imported {
			l.Tables.Imports = append(l.Tables.Imports, ImportDescriptor{Index: uint32(i), ModuleName: tbl.Import.Module, EntityName: tbl.Import.Name})
		}
		l.Slots = append(l.Slots, InstanceSlot{Kind: SlotTable, Index: i})
	}
	l.Tables.Size = len(mod.Tables)
	l.Tables.ImportSize = len(l.Tables.Imports)

	for i, g := range mod.Globals {
		l.GlobalRecords = append(l.GlobalRecords, GlobalRecord{Signature: GlobalSignature(g.Type.ValueType), Mutable: g.Type.Mutability == wasm.Var})
		if g.Imported {
			l.Globals.Imports = append(l.Globals.Imports, ImportDescriptor{Index: uint32(i), ModuleName: g.Import.Module, EntityName: g.Import.Name})
		}
		l.Slots = append(l.Slots, InstanceSlot{Kind: SlotGlobal, Index: i})
	}
	l.Globals.Size = len(mod.Globals)
	l.Globals.ImportSize = len(l.Globals.Imports)

	importFuncIdx := 0
	for i, fn := range mod.Functions {
		l.FunctionRecords = append(l.FunctionRecords, FunctionRecord{Signature: Signature(fn.Sig)})
		if fn.Imported {
			l.Functions.Imports = append(l.Functions.Imports, ImportDescriptor{Index: uint32(i), ModuleName: fn.Import.Module, EntityName: fn.Import.Name})
			l.Slots = append(l.Slots,
				InstanceSlot{Kind: SlotImportFuncInstance, Index: importFuncIdx},
				InstanceSlot{Kind: SlotImportFuncPointer, Index: importFuncIdx},
			)
			importFuncIdx++
		}
	}
	l.Functions.Size = len(mod.Functions)
	l.Functions.ImportSize = len(l.Functions.Imports)

	for _, exp := range mod.Exports {
		switch exp.Kind {
		case mir.ExportFunc:
			l.Functions.Exports = append(l.Functions.Exports, ExportDescriptor{Index: exp.Index, Name: exp.Name})
		case mir.ExportMem:
			l.Memories.Exports = append(l.Memories.Exports, ExportDescriptor{Index: exp.Index, Name: exp.Name})
		case mir.ExportTable:
			l.Tables.Exports = append(l.Tables.Exports, ExportDescriptor{Index: exp.Index, Name: exp.Name})
		case mir.ExportGlobal:
			l.Globals.Exports = append(l.Globals.Exports, ExportDescriptor{Index: exp.Index, Name: exp.Name})
		}
	}
	l.Functions.ExportSize = len(l.Functions.Exports)
	l.Memories.ExportSize = len(l.Memories.Exports)
	l.Tables.ExportSize = len(l.Tables.Exports)
	l.Globals.ExportSize = len(l.Globals.Exports)

	return l
}

// NumSlots is the total pointer-sized width of the instance struct.
func (l *Layout) NumSlots() int { return len(l.Slots) }
