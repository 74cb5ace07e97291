// Package leb128 implements the little-endian base-128 variable-length
// integer encoding used throughout the WebAssembly binary format.
package leb128

import "errors"

// ErrOverflow is returned when a LEB128 sequence uses more continuation
// bytes than its declared bit width allows.
var ErrOverflow = errors.New("leb128: value overflows declared bit width")

// ErrTruncated is returned when the byte source runs out before a
// terminating (non-continuation) byte is seen.
var ErrTruncated = errors.New("leb128: truncated sequence")

// ByteSource yields the next unread byte, or ok=false if exhausted.
type ByteSource interface {
	NextByte() (b byte, ok bool)
}

// maxGroups is ceil(bits/7), the most continuation groups a value of the
// given bit width may legally occupy.
func maxGroups(bits uint32) uint32 {
	return (bits + 6) / 7
}

// ReadUnsigned decodes an unsigned LEB128 integer of at most `bits` bits
// from src. It fails with ErrOverflow if more than ceil(bits/7) groups are
// consumed, and ErrTruncated if src is exhausted mid-sequence.
func ReadUnsigned(src ByteSource, bits uint32) (uint64, error) {
	var result uint64
	var shift uint32
	limit := maxGroups(bits)
	for groups := uint32(0); ; groups++ {
		b, ok := src.NextByte()
		if !ok {
			return 0, ErrTruncated
		}
		if groups >= limit {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	return result, nil
}

// ReadSigned decodes a signed LEB128 integer of at most `bits` bits from
// src, sign-extending using the high bit of the final group.
func ReadSigned(src ByteSource, bits uint32) (int64, error) {
	var result int64
	var shift uint32
	var last byte
	limit := maxGroups(bits)
	for groups := uint32(0); ; groups++ {
		b, ok := src.NextByte()
		if !ok {
			return 0, ErrTruncated
		}
		if groups >= limit {
			return 0, ErrOverflow
		}
		last = b
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && last&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// AppendUnsigned encodes v as an unsigned LEB128 sequence and appends it to
// dst, returning the grown slice. Used by tests to exercise the
// encode/decode round trip and by initializer-expression re-serialization
// in tooling built on top of this package.
func AppendUnsigned(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}

// AppendSigned encodes v as a signed LEB128 sequence and appends it to dst.
func AppendSigned(dst []byte, v int64) []byte {
	more := true
	for more {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
