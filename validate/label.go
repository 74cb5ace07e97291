package validate

import "github.com/vertexdlt/sablec/wasm"

// Label is one entry of the label stack: the value types a `br` (or
// `br_if`/`br_table`) targeting it must supply. For `block`/`if` this is
// the block's result types; for `loop` it is the loop's parameter types,
// since branching to a loop re-enters its header rather than its exit.
type Label struct {
	Results []wasm.ValueType
	IsLoop  bool
}

func elemsFromTypes(types []wasm.ValueType) []Elem {
	out := make([]Elem, len(types))
	for i, t := range types {
		out[i] = Concrete(t)
	}
	return out
}
