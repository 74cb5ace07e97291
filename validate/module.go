package validate

import "github.com/vertexdlt/sablec/wasm"

// Module validates every function body in m against its declared
// signature, in function-index order, stopping at the first failure. The
// MIR translator's precondition is that this succeeded; no partial MIR is
// ever produced from a module that failed here.
func Module(m *wasm.Module) error {
	ctx := NewContext(m)
	for i := range m.Funcs {
		fn := &m.Funcs[i]
		ft, ok := ctx.TypeAt(fn.Type)
		if !ok {
			return &MalformedError{Kind: TypeIndexOutOfBound, Site: Site{FuncIdx: i + m.NumImportedFuncs}}
		}
		locals := fn.Code.LocalTypes(ft.Params)
		funcIdx := i + m.NumImportedFuncs
		if err := ValidateFunction(ctx, funcIdx, ft, locals, fn.Code.Body); err != nil {
			return err
		}
	}
	return nil
}
