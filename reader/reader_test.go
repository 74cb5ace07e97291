package reader

import "testing"

func TestReadByteAndBarrier(t *testing.T) {
	r := New([]byte{1, 2, 3, 4, 5})
	if err := r.PushBarrier(3); err != nil {
		t.Fatal(err)
	}
	for i := byte(1); i <= 3; i++ {
		b, err := r.ReadByte()
		if err != nil || b != i {
			t.Fatalf("want %d got %d err %v", i, b, err)
		}
	}
	if !r.AtEnd() {
		t.Fatalf("expected at barrier end")
	}
	if _, err := r.ReadByte(); err != ErrBeyondBarrier {
		t.Fatalf("want ErrBeyondBarrier got %v", err)
	}
	r.PopBarrier()
	b, err := r.ReadByte()
	if err != nil || b != 4 {
		t.Fatalf("want 4 got %d err %v", b, err)
	}
}

func TestSaveRestore(t *testing.T) {
	r := New([]byte{1, 2, 3})
	c := r.Save()
	r.ReadByte()
	r.ReadByte()
	r.Restore(c)
	b, _ := r.ReadByte()
	if b != 1 {
		t.Fatalf("restore failed, got %d", b)
	}
}

func TestUTF8StringVector(t *testing.T) {
	// ULEB length 6 + UTF-8 bytes for "你好"
	input := []byte{0x06, 0xE4, 0xBD, 0xA0, 0xE5, 0xA5, 0xBD}
	r := New(input)
	s, err := r.ReadUTF8StringVector()
	if err != nil {
		t.Fatal(err)
	}
	if s != "你好" {
		t.Fatalf("want 你好 got %q", s)
	}
	if r.Pos() != 7 {
		t.Fatalf("want cursor at 7 got %d", r.Pos())
	}
}

func TestUTF8StringVectorInvalid(t *testing.T) {
	input := []byte{0x02, 0xff, 0x41}
	r := New(input)
	_, err := r.ReadUTF8StringVector()
	ue, ok := err.(*InvalidUTF8Error)
	if !ok {
		t.Fatalf("want InvalidUTF8Error got %v", err)
	}
	if ue.Offset != 0 {
		t.Fatalf("want offset 0 got %d", ue.Offset)
	}
	if r.Pos() != 1 {
		t.Fatalf("cursor should rewind to string start (1), got %d", r.Pos())
	}
}

func TestLEB128ThroughReader(t *testing.T) {
	// 300 encoded as ULEB128: 0xAC 0x02
	r := New([]byte{0xAC, 0x02})
	v, err := r.ReadULEB32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 300 {
		t.Fatalf("want 300 got %d", v)
	}
}
