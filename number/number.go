// Package number holds the integer/float truncation and saturation
// helpers the MIR translator's constant folding relies on, using
// chewxy/math32 for native float32 arithmetic instead of promoting to
// float64.
package number

import (
	"math"

	"github.com/chewxy/math32"
)

// Type is an integer or float operand width used by truncation/saturation
// helpers. It is distinct from wasm.ValueType: it only ever names the four
// scalar integer kinds plus the two float kinds that participate in
// conversions.
type Type uint8

const (
	I32 Type = iota
	I64
	U32
	U64
	F32
	F64
)

// TrapCode reports why a conversion could not be performed, mirroring the
// three trap outcomes the WebAssembly spec defines for truncation.
type TrapCode uint8

const (
	// NoTrap indicates the conversion succeeded.
	NoTrap TrapCode = iota
	// NanTrap indicates the source float was NaN.
	NanTrap
	// ConvertTrap indicates the source float was out of the destination's range.
	ConvertTrap
)

// Min returns the minimum representable value of t, reinterpreted as bits
// in a uint64 (sign-extended for signed types).
func Min(t Type) uint64 {
	switch t {
	case I32:
		v := int64(math.MinInt32)
		return uint64(v)
	case I64:
		v := int64(math.MinInt64)
		return uint64(v)
	case U32, U64:
		return 0
	}
	panic("number: Min: invalid type")
}

// Max returns the maximum representable value of t.
func Max(t Type) uint64 {
	switch t {
	case I32:
		return uint64(math.MaxInt32)
	case I64:
		return uint64(math.MaxInt64)
	case U32:
		return uint64(math.MaxUint32)
	case U64:
		return math.MaxUint64
	}
	panic("number: Max: invalid type")
}

// CanTruncate32 reports whether a float32 value can be truncated to an
// integer of type `to` without overflow, using native float32 comparisons
// so the bounds are computed at the same precision as the value being
// checked.
func CanTruncate32(to Type, v float32) bool {
	switch to {
	case I32:
		return float32(math.MinInt32) <= v && v < float32(math.MaxInt32)+1
	case U32:
		return -1 < v && v < float32(math.MaxUint32)+1
	case I64:
		return float32(math.MinInt64) <= v && v < float32(math.MaxInt64)+1
	case U64:
		return -1 < v && v < float32(math.MaxUint64)+1
	}
	panic("number: CanTruncate32: to must be an integer type")
}

// CanTruncate64 is CanTruncate32's float64 counterpart.
func CanTruncate64(to Type, v float64) bool {
	switch to {
	case I32:
		return math.MinInt32 <= v && v < math.MaxInt32+1
	case U32:
		return -1 < v && v < math.MaxUint32+1
	case I64:
		return math.MinInt64 <= v && v < math.MaxInt64+1
	case U64:
		return -1 < v && v < math.MaxUint64+1
	}
	panic("number: CanTruncate64: to must be an integer type")
}

// FloatTruncate truncates the float represented by floatBits (interpreted
// according to `from`) to an integer of type `to`. On NaN input it
// returns 0 and NanTrap; on out-of-range input it returns the saturating
// bound and ConvertTrap, matching the semantics of the non-trapping
// (saturating) conversion opcodes; a trapping caller turns
// ConvertTrap/NanTrap into an actual trap instead of a clamp.
func FloatTruncate(from, to Type, floatBits uint64) (uint64, TrapCode) {
	switch from {
	case F32:
		f := math32.Float32frombits(uint32(floatBits))
		if math32.IsNaN(f) {
			return 0, NanTrap
		}
		if !CanTruncate32(to, f) {
			if math32.Signbit(f) {
				return Min(to), ConvertTrap
			}
			return Max(to), ConvertTrap
		}
		return truncate32(to, f), NoTrap
	case F64:
		f := math.Float64frombits(floatBits)
		if math.IsNaN(f) {
			return 0, NanTrap
		}
		if !CanTruncate64(to, f) {
			if math.Signbit(f) {
				return Min(to), ConvertTrap
			}
			return Max(to), ConvertTrap
		}
		return truncate64(to, f), NoTrap
	}
	panic("number: FloatTruncate: from must be a float type")
}

func truncate32(to Type, f float32) uint64 {
	switch to {
	case I32:
		return uint64(uint32(int32(f)))
	case U32:
		return uint64(uint32(f))
	case I64:
		return uint64(int64(f))
	case U64:
		return uint64(f)
	}
	panic("number: truncate32: to must be an integer type")
}

func truncate64(to Type, f float64) uint64 {
	switch to {
	case I32:
		return uint64(uint32(int32(f)))
	case U32:
		return uint64(uint32(f))
	case I64:
		return uint64(int64(f))
	case U64:
		return uint64(f)
	}
	panic("number: truncate64: to must be an integer type")
}
