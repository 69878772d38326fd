// Package binio provides the seekable, endian-aware reader every decoder in
// vesperiatools is built on.
package binio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// PadMode selects how AlignPad treats an already aligned position.
type PadMode int

const (
	PadNormal     PadMode = iota // no-op when aligned
	PadForceBlock                // advance a full block when aligned
)

// DefaultStringCap bounds ReadCString when the caller has no better limit.
const DefaultStringCap = 0x400

// Cursor reads primitives from a borrowed byte slice.
// The position is always within [0, len(data)].
type Cursor struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewCursor creates a cursor over data. The slice is not copied.
func NewCursor(data []byte, order binary.ByteOrder) *Cursor {
	if order == nil {
		order = binary.LittleEndian
	}
	return &Cursor{data: data, order: order}
}

// Bytes returns the underlying buffer.
func (c *Cursor) Bytes() []byte { return c.data }

// Order returns the byte order in use.
func (c *Cursor) Order() binary.ByteOrder { return c.order }

// SetOrder switches the byte order for subsequent reads.
func (c *Cursor) SetOrder(order binary.ByteOrder) { c.order = order }

// Tell returns the current position.
func (c *Cursor) Tell() int { return c.pos }

// Len returns the buffer length.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Seek moves to an absolute position.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("%w: 0x%X (size 0x%X)", ErrSeekOutOfRange, pos, len(c.data))
	}
	c.pos = pos
	return nil
}

// SeekRelative moves by delta from the current position.
func (c *Cursor) SeekRelative(delta int) error {
	return c.Seek(c.pos + delta)
}

func (c *Cursor) span(n int) ([]byte, error) {
	if n < 0 || n > len(c.data)-c.pos {
		return nil, fmt.Errorf("%w: need %d bytes at 0x%X, have %d", ErrUnexpectedEOF, n, c.pos, len(c.data)-c.pos)
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// ReadBytes returns the next n bytes as a sub-slice of the buffer.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.span(n)
}

// Peek returns up to n bytes from the current position without advancing.
func (c *Cursor) Peek(n int) []byte {
	end := c.pos + n
	if end > len(c.data) {
		end = len(c.data)
	}
	return c.data[c.pos:end]
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.span(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.span(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.span(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadU8s reads count bytes into a new slice.
func (c *Cursor) ReadU8s(count int) ([]uint8, error) {
	b, err := c.span(count)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, count)
	copy(out, b)
	return out, nil
}

func (c *Cursor) ReadU16s(count int) ([]uint16, error) {
	b, err := c.span(count * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = c.order.Uint16(b[i*2:])
	}
	return out, nil
}

func (c *Cursor) ReadI16s(count int) ([]int16, error) {
	b, err := c.span(count * 2)
	if err != nil {
		return nil, err
	}
	out := make([]int16, count)
	for i := range out {
		out[i] = int16(c.order.Uint16(b[i*2:]))
	}
	return out, nil
}

func (c *Cursor) ReadU32s(count int) ([]uint32, error) {
	b, err := c.span(count * 4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = c.order.Uint32(b[i*4:])
	}
	return out, nil
}

func (c *Cursor) ReadI32s(count int) ([]int32, error) {
	b, err := c.span(count * 4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(c.order.Uint32(b[i*4:]))
	}
	return out, nil
}

func (c *Cursor) ReadF32s(count int) ([]float32, error) {
	b, err := c.span(count * 4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(c.order.Uint32(b[i*4:]))
	}
	return out, nil
}

// ReadCString reads a NUL-terminated string of at most max bytes (excluding
// the terminator) and leaves the cursor after the NUL.
func (c *Cursor) ReadCString(max int) (string, error) {
	if max <= 0 {
		max = DefaultStringCap
	}
	window := c.Peek(max + 1)
	n := bytes.IndexByte(window, 0)
	if n < 0 {
		return "", fmt.Errorf("%w at 0x%X (cap %d)", ErrUnterminated, c.pos, max)
	}
	s := ShiftJIS(window[:n])
	c.pos += n + 1
	return s, nil
}

// ReadCStringAt reads a NUL-terminated string at pos without moving the cursor.
func (c *Cursor) ReadCStringAt(pos, max int) (string, error) {
	saved := c.pos
	defer func() { c.pos = saved }()
	if err := c.Seek(pos); err != nil {
		return "", err
	}
	return c.ReadCString(max)
}

// ReadFixedString reads an n-byte field and trims it at the first NUL.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.span(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return ShiftJIS(b), nil
}

// AlignPad advances to the next multiple of n.
func (c *Cursor) AlignPad(n int, mode PadMode) error {
	if n <= 0 {
		return nil
	}
	skip := (n - c.pos%n) % n
	if skip == 0 && mode == PadForceBlock {
		skip = n
	}
	if c.pos+skip > len(c.data) {
		return fmt.Errorf("%w: pad %d at 0x%X", ErrUnexpectedEOF, skip, c.pos)
	}
	c.pos += skip
	return nil
}
