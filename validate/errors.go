package validate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/vertexdlt/sablec/wasm"
)

// MalformedErrorKind enumerates the validator's structural error kinds.
type MalformedErrorKind int

const (
	MissingContextReturn MalformedErrorKind = iota
	MalformedFunctionType
	MalformedValueType
	MalformedMemoryType
	MalformedTableType
	TypeIndexOutOfBound
	LabelIndexOutOfBound
	FuncIndexOutOfBound
	TableIndexOutOfBound
	MemIndexOutOfBound
	LocalIndexOutOfBound
	GlobalIndexOutOfBound
	InvalidBranchTable
	InvalidAlign
	GlobalMustBeMut
)

func (k MalformedErrorKind) String() string {
	switch k {
	case MissingContextReturn:
		return "MissingContextReturn"
	case MalformedFunctionType:
		return "MalformedFunctionType"
	case MalformedValueType:
		return "MalformedValueType"
	case MalformedMemoryType:
		return "MalformedMemoryType"
	case MalformedTableType:
		return "MalformedTableType"
	case TypeIndexOutOfBound:
		return "TypeIndexOutOfBound"
	case LabelIndexOutOfBound:
		return "LabelIndexOutOfBound"
	case FuncIndexOutOfBound:
		return "FuncIndexOutOfBound"
	case TableIndexOutOfBound:
		return "TableIndexOutOfBound"
	case MemIndexOutOfBound:
		return "MemIndexOutOfBound"
	case LocalIndexOutOfBound:
		return "LocalIndexOutOfBound"
	case GlobalIndexOutOfBound:
		return "GlobalIndexOutOfBound"
	case InvalidBranchTable:
		return "InvalidBranchTable"
	case InvalidAlign:
		return "InvalidAlign"
	case GlobalMustBeMut:
		return "GlobalMustBeMut"
	default:
		return fmt.Sprintf("MalformedErrorKind(%d)", int(k))
	}
}

// MalformedError reports one of the structural error kinds above,
// located at the enclosing module/entity/instruction-stack context a
// FuncValidator carries.
type MalformedError struct {
	Kind MalformedErrorKind
	Site Site
}

func (e *MalformedError) Error() string {
	return errors.Errorf("validate: %s at %s", e.Kind, e.Site).Error()
}

// TypeError is the `TypeMismatch(expecting, actual, epsilon)` validation
// failure: Apply's ensure step failed to unify the wanted element against
// the live stack (or, if StackEmpty, there was nothing left to unify
// against and the stack was not in epsilon mode).
type TypeError struct {
	Expecting  Elem
	Actual     Elem
	Epsilon    bool
	StackEmpty bool
	Resolved   [2]wasm.ValueType
	Site       Site
}

func (e *TypeError) Error() string {
	if e.StackEmpty {
		return errors.Errorf("validate: type mismatch at %s: operand stack exhausted, expecting %s (epsilon=%v)", e.Site, e.Expecting, e.Epsilon).Error()
	}
	return errors.Errorf("validate: type mismatch at %s: expecting %s, got %s (epsilon=%v)", e.Site, e.Expecting, e.Actual, e.Epsilon).Error()
}

// Site names where a validation failure occurred: the enclosing
// function's index and the ordered stack of structured instructions the
// failure is nested under, outermost first.
type Site struct {
	FuncIdx    int
	BlockStack []string // mnemonics of enclosing block/loop/if instructions, outermost first
}

func (s Site) String() string {
	if len(s.BlockStack) == 0 {
		return fmt.Sprintf("func %d", s.FuncIdx)
	}
	return fmt.Sprintf("func %d (in %v)", s.FuncIdx, s.BlockStack)
}
