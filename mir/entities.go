package mir

import "github.com/vertexdlt/sablec/wasm"

// Local is one of a Function's locals: its declared value type and
// whether it originated from a parameter (as opposed to a declared
// local, which starts zero-valued). Locals are pure leaves — nothing
// outgoing to track — so Detach/Replace fall back to base's no-ops.
type Local struct {
	base
	Type    wasm.ValueType
	IsParam bool
}

// ImportSite records the two-part name an imported entity (function,
// memory, table, or global) was declared under, needed by the backend's
// metadata import descriptors alongside the plain Imported bool every
// importable entity already carries.
type ImportSite struct {
	Module string
	Name   string
}

// ExportKind mirrors wasm.ExternalKind at the MIR layer, naming which of
// the four entity arrays an Export's Index resolves into.
type ExportKind byte

const (
	ExportFunc ExportKind = iota
	ExportTable
	ExportMem
	ExportGlobal
)

// Export is one export-section entry, carried on Module rather than on
// the exported entity itself: a module can export the same entity under
// several names, and the backend's export descriptor arrays are built
// by walking this list in file order.
type Export struct {
	Name  string
	Kind  ExportKind
	Index uint32 // index into the corresponding entity's index space
}

func newLocal(alloc *idAllocator, name string, vt wasm.ValueType, isParam bool) *Local {
	return &Local{base: base{id: alloc.alloc(), name: name}, Type: vt, IsParam: isParam}
}

// Global is a module-level global: its declared type and its
// initializer. Mutable at runtime iff Type.Mutability == wasm.Var.
type Global struct {
	base
	Type     wasm.GlobalType
	Init     InitExpr
	Imported bool
	Import   ImportSite
}

func (g *Global) Detach(victim ASTNode) {
	if other, ok := victim.(*Global); ok && g.Init.Global == other {
		g.Init.Global = nil
	}
}

func (g *Global) Replace(old, new ASTNode) {
	if g.Init.Global == old {
		if ng, ok := new.(*Global); ok {
			Unlink(g, "Init.Global", old)
			g.Init.Global = ng
			Link(g, "Init.Global", ng)
		}
	}
}

// Memory is a module-level linear memory declaration.
type Memory struct {
	base
	Limits   wasm.Limits
	Imported bool
	Import   ImportSite
}

// Table is a module-level table declaration.
type Table struct {
	base
	Limits   wasm.Limits
	Imported bool
	Import   ImportSite
}

// InitKind distinguishes the two forms a restricted constant expression
// can take.
type InitKind int

const (
	InitConstant InitKind = iota
	InitGlobalGetExpr
)

// InitExpr is the MIR-layer counterpart of wasm.InitExpr: a sum of a
// literal Constant or a reference to another (imported, const) global,
// materialized as a real edge rather than a bare index.
type InitExpr struct {
	Kind    InitKind
	ValType wasm.ValueType
	I32     int32
	I64     int64
	F32Bits uint32
	F64Bits uint64
	Global  *Global
}

// DataSegment initializes a byte range of a memory at module
// instantiation time.
type DataSegment struct {
	base
	Mem    *Memory
	Offset InitExpr
	Init   []byte
}

func (d *DataSegment) Detach(victim ASTNode) {
	if m, ok := victim.(*Memory); ok && d.Mem == m {
		d.Mem = nil
	}
	if g, ok := victim.(*Global); ok && d.Offset.Global == g {
		d.Offset.Global = nil
	}
}

func (d *DataSegment) Replace(old, new ASTNode) {
	if d.Mem == old {
		if nm, ok := new.(*Memory); ok {
			Unlink(d, "Mem", old)
			d.Mem = nm
			Link(d, "Mem", nm)
		}
	}
}

// ElementSegment initializes a range of a table with function references.
type ElementSegment struct {
	base
	Table  *Table
	Offset InitExpr
	Funcs  []*Function
}

func (e *ElementSegment) Detach(victim ASTNode) {
	if t, ok := victim.(*Table); ok && e.Table == t {
		e.Table = nil
	}
	if f, ok := victim.(*Function); ok {
		for i, fn := range e.Funcs {
			if fn == f {
				e.Funcs[i] = nil
			}
		}
	}
}

func (e *ElementSegment) Replace(old, new ASTNode) {
	if e.Table == old {
		if nt, ok := new.(*Table); ok {
			Unlink(e, "Table", old)
			e.Table = nt
			Link(e, "Table", nt)
		}
	}
	if of, ok := old.(*Function); ok {
		if nf, ok := new.(*Function); ok {
			for i, fn := range e.Funcs {
				if fn == of {
					Unlink(e, "Funcs", old)
					e.Funcs[i] = nf
					Link(e, "Funcs", nf)
				}
			}
		}
	}
}
