// Package mtr decodes MTR material tables.
package mtr

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/vesperiatools/pkg/binio"
	"github.com/vesperiatools/pkg/diag"
)

const (
	// DefaultMaterialName is used when no slot names a material.
	DefaultMaterialName = "UNKNOWN_MAT"

	slotCount  = 8
	recordSize = slotCount * 4
)

// Material is one fixed-size record.
type Material struct {
	Offset       int
	Slots        [slotCount]int32 // name offsets relative to their own slot
	MaterialName string
	TextureNames []string
}

// Table is a decoded MTR file.
type Table struct {
	Header      [4]int32
	Count       int32
	Materials   []Material
	Diagnostics diag.List
}

// Options configures decoding.
type Options struct {
	Order binary.ByteOrder // big-endian when nil
}

// Decode parses an MTR buffer. Records are read at a fixed stride whatever
// names they hold. A name that cannot be read is reported and skipped.
func Decode(data []byte, opts Options) (*Table, error) {
	order := opts.Order
	if order == nil {
		order = binary.BigEndian
	}
	c := binio.NewCursor(data, order)

	hdr, err := c.ReadI32s(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read MTR header: %w", err)
	}
	t := &Table{}
	copy(t.Header[:], hdr)

	if err := c.Seek(int(t.Header[2])); err != nil {
		return nil, fmt.Errorf("failed to seek to material records: %w", err)
	}
	if t.Count, err = c.ReadI32(); err != nil {
		return nil, fmt.Errorf("failed to read material count: %w", err)
	}
	if t.Count < 0 || int(t.Count)*recordSize > c.Remaining() {
		return nil, binio.Structuralf("material count %d does not fit in 0x%X bytes", t.Count, c.Remaining())
	}

	t.Materials = make([]Material, 0, t.Count)
	for i := 0; i < int(t.Count); i++ {
		start := c.Tell()
		slots, err := c.ReadI32s(slotCount)
		if err != nil {
			return nil, fmt.Errorf("failed to read material %d: %w", i, err)
		}

		mat := Material{Offset: start, MaterialName: DefaultMaterialName}
		copy(mat.Slots[:], slots)
		found := false
		for s, off := range mat.Slots {
			if off == 0 {
				continue
			}
			at := start + 4*s + int(off)
			name, err := c.ReadCStringAt(at, binio.DefaultStringCap)
			if err != nil {
				t.Diagnostics.Warnf(int64(start+4*s), "material %d slot %d: name at 0x%X unreadable: %v", i, s, at, err)
				continue
			}
			if !found && strings.Contains(name, "MAT") {
				mat.MaterialName = name
				found = true
				continue
			}
			mat.TextureNames = append(mat.TextureNames, name)
		}
		if !found {
			t.Diagnostics.Infof(int64(start), "material %d has no MAT name", i)
		}

		t.Materials = append(t.Materials, mat)
		c.Seek(start + recordSize)
	}

	return t, nil
}
