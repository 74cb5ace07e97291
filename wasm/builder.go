package wasm

import "github.com/pkg/errors"

// ModuleBuilder is the default Delegate: it accumulates parser events in
// file order and produces a fully linked *Module, splitting each shared
// index space between imported and module-defined entities as it goes.
type ModuleBuilder struct {
	m Module

	codeLocals [][]LocalGroup
	codeBody   [][]Instruction
}

// NewModuleBuilder creates an empty builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

func (b *ModuleBuilder) OnType(idx int, ft FunctionType) error {
	b.m.Types = append(b.m.Types, ft)
	return nil
}

func (b *ModuleBuilder) OnImport(idx int, imp Import) error {
	switch imp.Desc.Kind {
	case ExternalFunc:
		b.m.NumImportedFuncs++
	case ExternalTable:
		b.m.NumImportedTables++
	case ExternalMem:
		b.m.NumImportedMems++
	case ExternalGlobal:
		b.m.NumImportedGlobals++
	}
	b.m.Imports = append(b.m.Imports, imp)
	return nil
}

func (b *ModuleBuilder) OnFunction(idx int, typeIdx TypeIdx) error {
	b.m.Funcs = append(b.m.Funcs, Function{Type: typeIdx})
	return nil
}

func (b *ModuleBuilder) OnTable(idx int, tt TableType) error {
	b.m.Tables = append(b.m.Tables, tt)
	return nil
}

func (b *ModuleBuilder) OnMemory(idx int, mt MemoryType) error {
	b.m.Mems = append(b.m.Mems, mt)
	return nil
}

func (b *ModuleBuilder) OnGlobal(idx int, g Global) error {
	b.m.Globals = append(b.m.Globals, g)
	return nil
}

func (b *ModuleBuilder) OnExport(idx int, e Export) error {
	b.m.Exports = append(b.m.Exports, e)
	return nil
}

func (b *ModuleBuilder) OnStart(f FuncIdx) error {
	v := f
	b.m.Start = &v
	return nil
}

func (b *ModuleBuilder) OnElement(idx int, e ElementSegment) error {
	b.m.Elems = append(b.m.Elems, e)
	return nil
}

func (b *ModuleBuilder) OnCodeLocals(funcIdx int, locals []LocalGroup) error {
	if funcIdx != len(b.codeLocals) {
		return errors.Errorf("wasm: code entry %d arrived out of order", funcIdx)
	}
	b.codeLocals = append(b.codeLocals, locals)
	return nil
}

func (b *ModuleBuilder) OnCodeExpression(funcIdx int, body []Instruction) error {
	if funcIdx != len(b.codeBody) {
		return errors.Errorf("wasm: code entry %d arrived out of order", funcIdx)
	}
	b.codeBody = append(b.codeBody, body)
	return nil
}

func (b *ModuleBuilder) OnData(idx int, d DataSegment) error {
	b.m.Data = append(b.m.Data, d)
	return nil
}

// Module finalizes and returns the built module. It must only be called
// after Parse has returned successfully; calling it earlier yields a
// partially populated module with no error signaled.
func (b *ModuleBuilder) Module() (*Module, error) {
	if len(b.codeLocals) != len(b.m.Funcs) || len(b.codeBody) != len(b.m.Funcs) {
		return nil, errors.Errorf("wasm: code section entry count %d does not match function section count %d", len(b.codeBody), len(b.m.Funcs))
	}
	for i := range b.m.Funcs {
		b.m.Funcs[i].Code = Code{Locals: b.codeLocals[i], Body: b.codeBody[i]}
	}
	return &b.m, nil
}

// ParseModule runs a Parser with a ModuleBuilder delegate end to end and
// returns the assembled Module. This is the entry point cmd/sablec and
// the validator and MIR translator tests use instead of driving Parser
// directly; the validator and translator themselves take the *Module.
func ParseModule(buf []byte) (*Module, error) {
	b := NewModuleBuilder()
	p := NewParser(buf, b)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return b.Module()
}
