package mir

import "github.com/vertexdlt/sablec/wasm"

// Module owns every top-level MIR entity: Functions, Globals, Memories,
// Tables, DataSegments and ElementSegments. It also
// holds the NodeID allocator shared by every entity created through its
// New* constructors, so ids stay unique module-wide.
type Module struct {
	alloc idAllocator

	Functions       []*Function
	Globals         []*Global
	Memories        []*Memory
	Tables          []*Table
	DataSegments    []*DataSegment
	ElementSegments []*ElementSegment

	StartFunc *Function
	Exports   []Export
}

// NewModule returns an empty Module ready for the translator to populate.
func NewModule() *Module {
	return &Module{}
}

func (m *Module) NewFunction(name string, sig wasm.FunctionType) *Function {
	fn := newFunction(&m.alloc, name, sig)
	m.Functions = append(m.Functions, fn)
	return fn
}

func (m *Module) NewGlobal(name string, gt wasm.GlobalType, init InitExpr, imported bool) *Global {
	g := &Global{base: base{id: m.alloc.alloc(), name: name}, Type: gt, Init: init, Imported: imported}
	if init.Global != nil {
		Link(g, "Init.Global", init.Global)
	}
	m.Globals = append(m.Globals, g)
	return g
}

func (m *Module) NewMemory(name string, lim wasm.Limits, imported bool) *Memory {
	mem := &Memory{base: base{id: m.alloc.alloc(), name: name}, Limits: lim, Imported: imported}
	m.Memories = append(m.Memories, mem)
	return mem
}

func (m *Module) NewTable(name string, lim wasm.Limits, imported bool) *Table {
	t := &Table{base: base{id: m.alloc.alloc(), name: name}, Limits: lim, Imported: imported}
	m.Tables = append(m.Tables, t)
	return t
}

func (m *Module) NewDataSegment(mem *Memory, offset InitExpr, init []byte) *DataSegment {
	d := &DataSegment{base: base{id: m.alloc.alloc()}, Mem: mem, Offset: offset, Init: init}
	Link(d, "Mem", mem)
	if offset.Global != nil {
		Link(d, "Offset.Global", offset.Global)
	}
	m.DataSegments = append(m.DataSegments, d)
	return d
}

func (m *Module) NewElementSegment(tbl *Table, offset InitExpr, funcs []*Function) *ElementSegment {
	e := &ElementSegment{base: base{id: m.alloc.alloc()}, Table: tbl, Offset: offset, Funcs: funcs}
	Link(e, "Table", tbl)
	if offset.Global != nil {
		Link(e, "Offset.Global", offset.Global)
	}
	for _, f := range funcs {
		Link(e, "Funcs", f)
	}
	m.ElementSegments = append(m.ElementSegments, e)
	return e
}

// AddExport records one export-section entry against an entity already
// addressable by its file-order index in the corresponding kind's index
// space; the backend's metadata export descriptors are built by
// replaying this list.
func (m *Module) AddExport(name string, kind ExportKind, index uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Index: index})
}

// NewInstruction allocates an instruction with a module-unique id; it is
// not yet owned by any block until appended via BasicBlock.Append or
// InsertBefore.
func (m *Module) NewInstruction(kind InstKind) *Instruction {
	return newInstruction(&m.alloc, kind)
}

func (m *Module) NewBlock(fn *Function, name string) *BasicBlock {
	return fn.NewBlock(&m.alloc, name)
}

func (m *Module) NewLocal(fn *Function, name string, vt wasm.ValueType, isParam bool) *Local {
	return fn.NewLocal(&m.alloc, name, vt, isParam)
}
