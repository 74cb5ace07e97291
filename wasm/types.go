// Package wasm implements the bytecode data model and the streaming
// binary-format parser: phantom-tagged index types, a closed instruction
// sum type, and a section iterator that enforces ordering and per-section
// byte budgets.
package wasm

import "fmt"

// ValueType is one of the four scalar WebAssembly value types plus the
// 128-bit vector type.
type ValueType byte

const (
	I32  ValueType = 0x7F
	I64  ValueType = 0x7E
	F32  ValueType = 0x7D
	F64  ValueType = 0x7C
	V128 ValueType = 0x7B
)

func (v ValueType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case V128:
		return "v128"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(v))
	}
}

// IsValidValueType reports whether b encodes one of the known value types.
func IsValidValueType(b byte) bool {
	switch ValueType(b) {
	case I32, I64, F32, F64, V128:
		return true
	}
	return false
}

// FunctionType is an ordered sequence of parameter types and result types.
// Equality between two FunctionTypes is structural (Equal), never pointer
// identity.
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether ft and other declare the same parameter and
// result sequences.
func (ft FunctionType) Equal(other FunctionType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i := range ft.Params {
		if ft.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range ft.Results {
		if ft.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

func (ft FunctionType) String() string {
	return fmt.Sprintf("%v -> %v", ft.Params, ft.Results)
}

// Limits is the {min, max} pair shared by memory and table types. Max is
// only meaningful when HasMax is true; invariant: Min <= Max when HasMax.
type Limits struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// MemoryType describes a memory's page-count limits.
type MemoryType struct {
	Limits Limits
}

// TableElemType is the element type of a table. Version 1 of WebAssembly
// only supports funcref (0x70).
type TableElemType byte

const FuncRef TableElemType = 0x70

// TableType describes a table's element type and entry-count limits.
type TableType struct {
	ElemType TableElemType
	Limits   Limits
}

// Mutability distinguishes constant globals from mutable ones.
type Mutability byte

const (
	Const Mutability = 0x00
	Var   Mutability = 0x01
)

// GlobalType is a global's declared value type and mutability.
type GlobalType struct {
	Mutability Mutability
	ValueType  ValueType
}

// Index types are phantom-tagged so that, for instance, a FuncIdx can
// never be silently passed where a TypeIdx is expected; each is a plain
// uint32 under a distinct name.
type (
	TypeIdx   uint32
	FuncIdx   uint32
	TableIdx  uint32
	MemIdx    uint32
	GlobalIdx uint32
	LocalIdx  uint32
	LabelIdx  uint32
)

// BlockResultKind distinguishes the three encodings a block result type
// can take on the wire.
type BlockResultKind byte

const (
	BlockResultUnit BlockResultKind = iota
	BlockResultValue
	BlockResultTypeIdx
)

// BlockResultType is the sum `unit | ValueType | TypeIdx` used by block,
// loop, and if to describe their (possibly multi-value) signature.
type BlockResultType struct {
	Kind  BlockResultKind
	Value ValueType
	Type  TypeIdx
}

// ExternalKind names the four things an import or export can refer to.
type ExternalKind byte

const (
	ExternalFunc   ExternalKind = 0x00
	ExternalTable  ExternalKind = 0x01
	ExternalMem    ExternalKind = 0x02
	ExternalGlobal ExternalKind = 0x03
)

// ImportDesc is the descriptor carried by an import entry, selecting
// among {type-index, table, memory, global}.
type ImportDesc struct {
	Kind       ExternalKind
	TypeIdx    TypeIdx
	Table      TableType
	Mem        MemoryType
	GlobalType GlobalType
}

// Import is a single entry of the import section.
type Import struct {
	Module string
	Name   string
	Desc   ImportDesc
}

// ExportDesc is the descriptor carried by an export entry.
type ExportDesc struct {
	Kind ExternalKind
	Idx  uint32
}

// Export is a single entry of the export section.
type Export struct {
	Name string
	Desc ExportDesc
}

// InitExprOp names the two constant-expression forms initializer
// expressions are restricted to.
type InitExprOp byte

const (
	InitConst     InitExprOp = iota // a literal ValueType constant
	InitGlobalGet                   // reads another (imported, const) global
)

// InitExpr is a restricted constant expression: `Constant(value) |
// GlobalGet(target)`, used for segment offsets and global initial values.
type InitExpr struct {
	Op      InitExprOp
	Type    ValueType // meaningful when Op == InitConst
	I32     int32
	I64     int64
	F32Bits uint32
	F64Bits uint64
	Global  GlobalIdx // meaningful when Op == InitGlobalGet
}

// Global is a module-level global variable declaration.
type Global struct {
	Type GlobalType
	Init InitExpr
}

// LocalGroup is a run-length encoded group of locals sharing a value
// type, as they appear on the wire inside a code entry.
type LocalGroup struct {
	Count uint32
	Type  ValueType
}

// Code is a single entry of the code section: the function's locals
// (still run-length encoded, matching the wire format; ModuleBuilder
// stores them as is and LocalTypes flattens them on demand) and its
// instruction sequence.
type Code struct {
	Locals []LocalGroup
	Body   []Instruction
}

// Function ties a declared type index to its code-section body. Imported
// functions never appear here; they live in Module.Imports instead and
// are addressed by the same FuncIdx space (imports first, per the
// WebAssembly index-space rule).
type Function struct {
	Type TypeIdx
	Code Code
	Name string // left empty by ModuleBuilder; the "name" custom section is not decoded
}

// LocalTypes flattens a function's run-length encoded local groups into
// one ValueType per local index, with the function's parameter types
// occupying the low indices per the local index space rule.
func (c Code) LocalTypes(params []ValueType) []ValueType {
	out := append([]ValueType(nil), params...)
	for _, g := range c.Locals {
		for i := uint32(0); i < g.Count; i++ {
			out = append(out, g.Type)
		}
	}
	return out
}

// DataSegment initializes a byte range of a memory.
type DataSegment struct {
	Mem    MemIdx
	Offset InitExpr
	Init   []byte
}

// ElementSegment initializes a range of a table with function references.
type ElementSegment struct {
	Table  TableIdx
	Offset InitExpr
	Funcs  []FuncIdx
}

// Module is the fully decoded in-memory form of a binary module: ordered
// sequences of every entity kind, in file order, plus the optional start
// function and the import/export lists. Index spaces (function, table,
// memory, global) are implicit: imports occupy the low indices, followed
// by module-defined entities in section order.
type Module struct {
	Types   []FunctionType
	Imports []Import
	Funcs   []Function
	Tables  []TableType
	Mems    []MemoryType
	Globals []Global
	Exports []Export
	Start   *FuncIdx
	Elems   []ElementSegment
	Data    []DataSegment

	// NumImportedFuncs/.../NumImportedGlobals record how many of the
	// corresponding entries above originate from an import, so callers can
	// split the shared index space without re-scanning Imports.
	NumImportedFuncs   int
	NumImportedTables  int
	NumImportedMems    int
	NumImportedGlobals int
}

// FuncType resolves a function's declared type index, accounting for
// both imported and module-defined functions.
func (m *Module) FuncType(idx FuncIdx) (FunctionType, bool) {
	ti, ok := m.funcTypeIdx(idx)
	if !ok || int(ti) >= len(m.Types) {
		return FunctionType{}, false
	}
	return m.Types[ti], true
}

func (m *Module) funcTypeIdx(idx FuncIdx) (TypeIdx, bool) {
	if int(idx) < m.NumImportedFuncs {
		i := 0
		for _, imp := range m.Imports {
			if imp.Desc.Kind != ExternalFunc {
				continue
			}
			if FuncIdx(i) == idx {
				return imp.Desc.TypeIdx, true
			}
			i++
		}
		return 0, false
	}
	defIdx := int(idx) - m.NumImportedFuncs
	if defIdx < 0 || defIdx >= len(m.Funcs) {
		return 0, false
	}
	return m.Funcs[defIdx].Type, true
}

// NumFuncs is the total size of the function index space (imports plus
// module-defined functions).
func (m *Module) NumFuncs() int { return m.NumImportedFuncs + len(m.Funcs) }

// NumTables is the total size of the table index space.
func (m *Module) NumTables() int { return m.NumImportedTables + len(m.Tables) }

// NumMems is the total size of the memory index space.
func (m *Module) NumMems() int { return m.NumImportedMems + len(m.Mems) }

// NumGlobals is the total size of the global index space.
func (m *Module) NumGlobals() int { return m.NumImportedGlobals + len(m.Globals) }
