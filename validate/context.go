package validate

import "github.com/vertexdlt/sablec/wasm"

// Context is the module-wide information a function body's validation
// needs: the type table and the four index spaces, already split between
// imported and module-defined entities by wasm.Module.
type Context struct {
	mod *wasm.Module
}

// NewContext wraps a decoded module for validation.
func NewContext(m *wasm.Module) *Context { return &Context{mod: m} }

func (c *Context) FuncType(idx wasm.FuncIdx) (wasm.FunctionType, bool) {
	return c.mod.FuncType(idx)
}

func (c *Context) TypeAt(idx wasm.TypeIdx) (wasm.FunctionType, bool) {
	if int(idx) >= len(c.mod.Types) {
		return wasm.FunctionType{}, false
	}
	return c.mod.Types[idx], true
}

func (c *Context) HasMemory() bool { return c.mod.NumMems() > 0 }
func (c *Context) HasTable() bool  { return c.mod.NumTables() > 0 }

func (c *Context) GlobalType(idx wasm.GlobalIdx) (wasm.GlobalType, bool) {
	if int(idx) < c.mod.NumImportedGlobals {
		i := 0
		for _, imp := range c.mod.Imports {
			if imp.Desc.Kind != wasm.ExternalGlobal {
				continue
			}
			if wasm.GlobalIdx(i) == idx {
				return imp.Desc.GlobalType, true
			}
			i++
		}
		return wasm.GlobalType{}, false
	}
	defIdx := int(idx) - c.mod.NumImportedGlobals
	if defIdx < 0 || defIdx >= len(c.mod.Globals) {
		return wasm.GlobalType{}, false
	}
	return c.mod.Globals[defIdx].Type, true
}
