// Package reader implements a bounded byte cursor: a read-only view over
// a borrowed byte slice with an optional soft "barrier" used to scope
// per-section reads, plus the LEB128 and UTF-8 decoding built on top of
// it.
package reader

import (
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/vertexdlt/sablec/leb128"
)

// ErrBeyondEnd is returned when a read would cross the end of the
// underlying buffer.
var ErrBeyondEnd = errors.New("reader: read beyond end of input")

// ErrBeyondBarrier is returned when a read would cross the current
// barrier, even though bytes remain in the underlying buffer.
var ErrBeyondBarrier = errors.New("reader: read beyond section barrier")

// ErrUnconsumedBytes names a scope popped with bytes still unread inside
// it. The reader itself never returns this, it only exposes Remaining()
// for the caller to check; the wasm parser reports that case with its own
// wasm.ErrUnconsumedBytes.
var ErrUnconsumedBytes = errors.New("reader: unconsumed bytes in scope")

// InvalidUTF8Error reports the in-string byte offset of the first invalid
// byte found while decoding a length-prefixed string.
type InvalidUTF8Error struct {
	Offset int
}

func (e *InvalidUTF8Error) Error() string {
	return errors.Errorf("reader: invalid utf-8 at offset %d", e.Offset).Error()
}

// Reader is a bounded cursor over a byte slice. The slice is never copied;
// every returned []byte borrows into it, so the caller must keep the
// source buffer alive for as long as any Reader built over it is in use.
type Reader struct {
	buf     []byte
	pos     uint32
	barrier []uint32 // stack of barrier offsets; top of stack is the active barrier
}

// New creates a Reader over buf starting at offset 0 with no barrier.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the number of bytes consumed so far.
func (r *Reader) Pos() uint32 { return r.pos }

// Len returns the length of the underlying buffer.
func (r *Reader) Len() uint32 { return uint32(len(r.buf)) }

// end returns the effective end of the readable region: the active
// barrier if one is set, else the length of the underlying buffer.
func (r *Reader) end() uint32 {
	if len(r.barrier) > 0 {
		return r.barrier[len(r.barrier)-1]
	}
	return uint32(len(r.buf))
}

// Remaining returns the number of bytes left before the active barrier
// (or the buffer end, if no barrier is set).
func (r *Reader) Remaining() uint32 {
	e := r.end()
	if r.pos >= e {
		return 0
	}
	return e - r.pos
}

// AtEnd reports whether the cursor has reached the active barrier.
func (r *Reader) AtEnd() bool { return r.Remaining() == 0 }

func (r *Reader) checkAvailable(n uint32) error {
	e := r.end()
	if r.pos+n > uint32(len(r.buf)) {
		return ErrBeyondEnd
	}
	if r.pos+n > e {
		return ErrBeyondBarrier
	}
	return nil
}

// ReadByte reads and consumes a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.checkAvailable(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if err := r.checkAvailable(1); err != nil {
		return 0, err
	}
	return r.buf[r.pos], nil
}

// ReadBytes reads n bytes, returning a borrowed view into the source
// buffer. The cursor is left unchanged on failure.
func (r *Reader) ReadBytes(n uint32) ([]byte, error) {
	if err := r.checkAvailable(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n uint32) error {
	if err := r.checkAvailable(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// SkipTo advances the cursor to an absolute offset, which must not be
// behind the current position.
func (r *Reader) SkipTo(pos uint32) error {
	if pos < r.pos {
		return errors.Errorf("reader: cannot skip backward from %d to %d", r.pos, pos)
	}
	return r.Skip(pos - r.pos)
}

// Cursor is an opaque saved position, restorable with Restore.
type Cursor uint32

// Save captures the current position.
func (r *Reader) Save() Cursor { return Cursor(r.pos) }

// Restore rewinds the cursor to a previously saved position.
func (r *Reader) Restore(c Cursor) { r.pos = uint32(c) }

// PushBarrier scopes subsequent reads to the next n bytes (relative to the
// current position). Barriers nest: it returns ErrBeyondEnd when the
// barrier would lie past the buffer end, and an error when it would lie
// past the enclosing barrier; in both cases no barrier is pushed.
func (r *Reader) PushBarrier(n uint32) error {
	abs := r.pos + n
	if abs > uint32(len(r.buf)) {
		return ErrBeyondEnd
	}
	if len(r.barrier) > 0 && abs > r.barrier[len(r.barrier)-1] {
		return errors.Errorf("reader: nested barrier at %d exceeds enclosing barrier at %d", abs, r.barrier[len(r.barrier)-1])
	}
	r.barrier = append(r.barrier, abs)
	return nil
}

// PopBarrier removes the innermost barrier. It does not check that the
// barrier was fully consumed; callers that require that (the section
// parser does) should check Remaining() == 0 before popping.
func (r *Reader) PopBarrier() {
	if len(r.barrier) == 0 {
		panic("reader: PopBarrier with no active barrier")
	}
	r.barrier = r.barrier[:len(r.barrier)-1]
}

// leb128Source adapts a Reader to leb128.ByteSource, recording the
// reader's error so readLEB can report it; readLEB itself rewinds a
// failed decode with Save/Restore.
type leb128Source struct {
	r   *Reader
	err error
}

func (s *leb128Source) NextByte() (byte, bool) {
	b, err := s.r.ReadByte()
	if err != nil {
		s.err = err
		return 0, false
	}
	return b, true
}

// ReadULEB32 decodes an unsigned 32-bit LEB128 integer.
func (r *Reader) ReadULEB32() (uint32, error) {
	v, err := r.readLEB(32, false)
	return uint32(v), err
}

// ReadSLEB32 decodes a signed 32-bit LEB128 integer.
func (r *Reader) ReadSLEB32() (int32, error) {
	v, err := r.readLEBSigned(32)
	return int32(v), err
}

// ReadULEB64 decodes an unsigned 64-bit LEB128 integer.
func (r *Reader) ReadULEB64() (uint64, error) {
	return r.readLEB(64, false)
}

// ReadSLEB64 decodes a signed 64-bit LEB128 integer.
func (r *Reader) ReadSLEB64() (int64, error) {
	return r.readLEBSigned(64)
}

func (r *Reader) readLEB(bits uint32, _ bool) (uint64, error) {
	start := r.Save()
	src := &leb128Source{r: r}
	v, err := leb128.ReadUnsigned(src, bits)
	if err != nil {
		r.Restore(start)
		if src.err != nil {
			return 0, src.err
		}
		return 0, err
	}
	return v, nil
}

func (r *Reader) readLEBSigned(bits uint32) (int64, error) {
	start := r.Save()
	src := &leb128Source{r: r}
	v, err := leb128.ReadSigned(src, bits)
	if err != nil {
		r.Restore(start)
		if src.err != nil {
			return 0, src.err
		}
		return 0, err
	}
	return v, nil
}

// ReadUTF8StringVector reads a ULEB128-prefixed byte run and validates it
// as UTF-8 end to end. On validation failure the cursor is rewound to the
// start of the string (not the start of the length prefix) and the error
// reports the offset of the first invalid byte relative to the start of
// the string content.
func (r *Reader) ReadUTF8StringVector() (string, error) {
	n, err := r.ReadULEB32()
	if err != nil {
		return "", err
	}
	contentStart := r.Save()
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	if off := firstInvalidUTF8(b); off >= 0 {
		r.Restore(contentStart)
		return "", &InvalidUTF8Error{Offset: off}
	}
	return string(b), nil
}

// firstInvalidUTF8 returns the byte offset of the first invalid UTF-8
// sequence in b, or -1 if b is entirely valid.
func firstInvalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
