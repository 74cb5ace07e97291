package mir

import "github.com/vertexdlt/sablec/wasm"

// TypeKind distinguishes the four shapes the type-inference pass
// assigns to an instruction: a scalar value, a multi-value aggregate, no
// value at all, or an unreachable/ill-typed result.
type TypeKind int

const (
	Bottom TypeKind = iota
	Unit
	Primitive
	Aggregate
)

// Type is the analysis type TypeInfer assigns to every MIR instruction;
// distinct from wasm.ValueType, which only describes bytecode operands.
type Type struct {
	Kind       TypeKind
	Scalar     wasm.ValueType   // meaningful when Kind == Primitive
	Components []wasm.ValueType // meaningful when Kind == Aggregate
}

func PrimitiveType(vt wasm.ValueType) Type { return Type{Kind: Primitive, Scalar: vt} }
func AggregateType(vts []wasm.ValueType) Type {
	return Type{Kind: Aggregate, Components: append([]wasm.ValueType(nil), vts...)}
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case Primitive:
		return t.Scalar == o.Scalar
	case Aggregate:
		if len(t.Components) != len(o.Components) {
			return false
		}
		for i := range t.Components {
			if t.Components[i] != o.Components[i] {
				return false
			}
		}
		return true
	}
	return true
}
