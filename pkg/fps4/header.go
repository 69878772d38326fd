package fps4

import (
	"encoding/binary"
	"fmt"

	"github.com/vesperiatools/pkg/binio"
)

// IsFPS4 reports whether data starts with the FPS4 magic.
func IsFPS4(data []byte) bool {
	return binio.FourCC(data) == Magic
}

// ReadHeader parses and validates the fixed header.
func ReadHeader(data []byte) (*Header, error) {
	if err := binio.CheckFourCC(data, Magic); err != nil {
		return nil, err
	}

	c := binio.NewCursor(data, binary.BigEndian)
	c.Seek(4)

	var h Header
	var err error
	if h.Count, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("failed to read entry count: %w", err)
	}
	if h.HeaderSize, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if h.DataOffset, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("failed to read data offset: %w", err)
	}
	if h.DescriptorSize, err = c.ReadU16(); err != nil {
		return nil, fmt.Errorf("failed to read descriptor size: %w", err)
	}
	flags, err := c.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor flags: %w", err)
	}
	h.Flags = Flags(flags)
	if h.Reserved, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("failed to read reserved field: %w", err)
	}
	if h.StringTable, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("failed to read string table offset: %w", err)
	}

	if h.HeaderSize != HeaderSize {
		return nil, binio.Structuralf("header size 0x%X, expected 0x%X", h.HeaderSize, HeaderSize)
	}
	if h.Reserved != 0 {
		return nil, binio.Structuralf("reserved header field is 0x%X", h.Reserved)
	}
	if !h.Flags.Has(FlagMinimum) {
		return nil, binio.Structuralf("descriptor flags 0x%04X lack offset/size/real size", uint16(h.Flags))
	}
	if need := h.Flags.DescriptorSize(); int(h.DescriptorSize) < need {
		return nil, binio.Structuralf("descriptor size 0x%X too small for flags 0x%04X (need 0x%X)",
			h.DescriptorSize, uint16(h.Flags), need)
	}

	end := uint64(h.HeaderSize) + uint64(h.Count)*uint64(h.DescriptorSize)
	if end > uint64(len(data)) {
		return nil, binio.Structuralf("%d descriptors of 0x%X bytes exceed file size 0x%X",
			h.Count, h.DescriptorSize, len(data))
	}

	return &h, nil
}

// descriptorOffset returns where descriptor i starts.
func (h *Header) descriptorOffset(i int) int {
	return int(h.HeaderSize) + i*int(h.DescriptorSize)
}
