// Package backend implements the native-backend lowering contract: the
// shape of the program a native code-generation library is handed
// (instance layout, metadata tables, per-function native shape,
// per-instruction lowering map) and the runtime ABI that contract
// commits the emitted code to calling. Final machine-code emission is
// delegated to that external library; this package pins down only its
// input and the symbols it must honor.
package backend

import "github.com/vertexdlt/sablec/wasm"

// Options is the translation configuration: the three toggles that
// change what the lowering emits.
type Options struct {
	// SkipMemBoundaryCheck omits every MemoryGuard call.
	SkipMemBoundaryCheck bool
	// SkipTblBoundaryCheck omits every table guard call ahead of
	// call_indirect.
	SkipTblBoundaryCheck bool
	// AssumeMemRWAligned lowers loads/stores at natural alignment
	// instead of alignment 1.
	AssumeMemRWAligned bool
}

// signatureChar is the one-letter code the signature alphabet assigns
// to each scalar value type; V128 has no assigned letter (reserved) and
// signatureChar panics if asked for one.
func signatureChar(vt wasm.ValueType) byte {
	switch vt {
	case wasm.I32:
		return 'I'
	case wasm.I64:
		return 'J'
	case wasm.F32:
		return 'F'
	case wasm.F64:
		return 'D'
	}
	panic("backend: signatureChar: no signature letter for " + vt.String())
}

// Signature encodes a function type into the signature alphabet string
// `<param chars>:<result chars>`, the identifier a call_indirect site
// checks its callee against.
func Signature(ft wasm.FunctionType) string {
	buf := make([]byte, 0, len(ft.Params)+len(ft.Results)+1)
	for _, vt := range ft.Params {
		buf = append(buf, signatureChar(vt))
	}
	buf = append(buf, ':')
	for _, vt := range ft.Results {
		buf = append(buf, signatureChar(vt))
	}
	return string(buf)
}

// GlobalSignature encodes a global's value type using the same
// single-character alphabet function signatures use.
func GlobalSignature(vt wasm.ValueType) byte { return signatureChar(vt) }

// UnsetBound is the runtime's `(size_t)-1` sentinel for "no declared
// maximum". The bytecode and MIR layers keep Limits.HasMax as an
// explicit bool; every place that crosses into backend/runtime
// territory goes through Bound instead of re-deriving this sentinel ad
// hoc.
const UnsetBound uint32 = ^uint32(0)

// Bound bridges a wasm.Limits' optional Max into the runtime ABI's
// sentinel-encoded form.
func Bound(lim wasm.Limits) uint32 {
	if !lim.HasMax {
		return UnsetBound
	}
	return lim.Max
}
