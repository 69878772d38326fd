package binio

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestCursorEndianness(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}

	le := NewCursor(data, binary.LittleEndian)
	v, err := le.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x04030201 {
		t.Errorf("little endian: got 0x%08X", v)
	}

	be := NewCursor(data, binary.BigEndian)
	v, err = be.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x01020304 {
		t.Errorf("big endian: got 0x%08X", v)
	}
}

func TestCursorReadPastEnd(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3}, binary.LittleEndian)
	if _, err := c.ReadU32(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	if c.Tell() != 0 {
		t.Errorf("failed read moved cursor to %d", c.Tell())
	}
	if _, err := c.ReadU16s(2); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("slice read: expected ErrUnexpectedEOF, got %v", err)
	}
}

func TestCursorSeek(t *testing.T) {
	c := NewCursor(make([]byte, 8), binary.LittleEndian)
	if err := c.Seek(8); err != nil {
		t.Errorf("seek to end should succeed: %v", err)
	}
	if err := c.Seek(9); !errors.Is(err, ErrSeekOutOfRange) {
		t.Errorf("expected ErrSeekOutOfRange, got %v", err)
	}
	if err := c.Seek(4); err != nil {
		t.Fatal(err)
	}
	if err := c.SeekRelative(-2); err != nil {
		t.Fatal(err)
	}
	if c.Tell() != 2 {
		t.Errorf("tell = %d, want 2", c.Tell())
	}
	if err := c.SeekRelative(-3); err == nil {
		t.Error("negative seek should fail")
	}
}

func TestReadCString(t *testing.T) {
	c := NewCursor([]byte("ABC\x00DEF"), binary.LittleEndian)
	s, err := c.ReadCString(16)
	if err != nil {
		t.Fatal(err)
	}
	if s != "ABC" || c.Tell() != 4 {
		t.Errorf("got %q at %d", s, c.Tell())
	}

	if _, err := c.ReadCString(16); !errors.Is(err, ErrUnterminated) {
		t.Errorf("expected ErrUnterminated, got %v", err)
	}

	c = NewCursor([]byte("ABCDEFGH\x00"), binary.LittleEndian)
	if _, err := c.ReadCString(4); !errors.Is(err, ErrUnterminated) {
		t.Errorf("cap exceeded: expected ErrUnterminated, got %v", err)
	}
}

func TestReadCStringShiftJIS(t *testing.T) {
	// "テスト" in Shift-JIS
	raw := []byte{0x83, 0x65, 0x83, 0x58, 0x83, 0x67, 0x00}
	c := NewCursor(raw, binary.LittleEndian)
	s, err := c.ReadCString(16)
	if err != nil {
		t.Fatal(err)
	}
	if s != "テスト" {
		t.Errorf("got %q", s)
	}
}

func TestAlignPad(t *testing.T) {
	tests := []struct {
		pos  int
		mode PadMode
		want int
	}{
		{0, PadNormal, 0},
		{1, PadNormal, 16},
		{16, PadNormal, 16},
		{16, PadForceBlock, 32},
		{17, PadForceBlock, 32},
	}
	for _, tt := range tests {
		c := NewCursor(make([]byte, 64), binary.LittleEndian)
		c.Seek(tt.pos)
		if err := c.AlignPad(16, tt.mode); err != nil {
			t.Fatal(err)
		}
		if c.Tell() != tt.want {
			t.Errorf("AlignPad(pos=%d, mode=%d) = %d, want %d", tt.pos, tt.mode, c.Tell(), tt.want)
		}
	}

	c := NewCursor(make([]byte, 20), binary.LittleEndian)
	c.Seek(17)
	if err := c.AlignPad(16, PadNormal); !errors.Is(err, ErrUnexpectedEOF) {
		t.Errorf("pad past end: got %v", err)
	}
}

func TestCheckFourCC(t *testing.T) {
	if err := CheckFourCC([]byte("FPS4...."), "FPS4"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	err := CheckFourCC([]byte("TLZC"), "FPS4")
	var me *MagicError
	if !errors.As(err, &me) {
		t.Fatalf("expected MagicError, got %v", err)
	}
	if me.Expected != "FPS4" || me.Found != "TLZC" {
		t.Errorf("got %+v", me)
	}
	if !errors.Is(err, ErrInvalidMagic) {
		t.Error("MagicError should match ErrInvalidMagic")
	}

	if err := CheckFourCC([]byte("FP"), "FPS4"); err == nil {
		t.Error("short buffer should fail")
	}
}
