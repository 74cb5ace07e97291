package wasm

import "github.com/pkg/errors"

// ParseError is the error type every decode failure in this package is
// reported as. Offset is the absolute byte offset of the failure; it is
// best-effort for errors surfaced by the underlying reader (which already
// rewinds on failure) and precise for errors this package raises itself
// (bad magic, section ordering, unknown opcode, ...).
type ParseError struct {
	Offset uint32
	Kind   string
	cause  error
}

func (e *ParseError) Error() string {
	if e.cause != nil {
		return errors.Wrapf(e.cause, "wasm: parse error at offset %d (%s)", e.Offset, e.Kind).Error()
	}
	return errors.Errorf("wasm: parse error at offset %d: %s", e.Offset, e.Kind).Error()
}

func (e *ParseError) Unwrap() error { return e.cause }

func parseErr(offset uint32, kind string, cause error) *ParseError {
	return &ParseError{Offset: offset, Kind: kind, cause: cause}
}

// Sentinel parse error kinds.
var (
	ErrBadMagic            = errors.New("invalid magic number")
	ErrBadVersion           = errors.New("invalid version number")
	ErrSectionIDOutOfRange  = errors.New("section id out of range")
	ErrSectionOrder         = errors.New("sections out of order")
	ErrSectionSizeMismatch  = errors.New("section size does not match bytes consumed")
	ErrUnknownOpcode        = errors.New("unknown opcode")
	ErrInvalidLimitsTag     = errors.New("invalid limits tag")
	ErrInvalidValueType     = errors.New("invalid value type byte")
	ErrInvalidMutability    = errors.New("invalid mutability byte")
	ErrInvalidFuncTypeForm  = errors.New("invalid function type form byte")
	ErrInvalidExternalKind  = errors.New("invalid import/export external kind")
	ErrInvalidElemType      = errors.New("invalid table element type")
	ErrUnconsumedBytes      = errors.New("unconsumed bytes in section or code entry")
	ErrUnknownCustomHandler = errors.New("no handler registered for custom section")
	ErrReservedByteNonzero  = errors.New("reserved byte must be zero")
	ErrLEBOverflow          = errors.New("leb128 value overflows declared width")
	ErrInvalidInitExpr      = errors.New("invalid initializer expression")
)
