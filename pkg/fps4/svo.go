package fps4

import (
	"encoding/binary"
	"fmt"

	"github.com/vesperiatools/pkg/binio"
)

// UnpackSVO reads an SVO package: an outer FPS4 whose members are stored
// back to back on 128-byte boundaries. Members are never unpacked further.
func UnpackSVO(data []byte, opts Options) (*Archive, error) {
	hdr, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	a := &Archive{Header: *hdr}
	n := &namer{platform: opts.Platform, used: make(map[string]bool)}
	c := binio.NewCursor(data, binary.BigEndian)
	files := make([]File, 0, hdr.Count)

	var prevEnd uint64
	for i := 0; i < int(hdr.Count); i++ {
		entry, err := readEntry(c, hdr, i, a)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor %d: %w", i, err)
		}

		f := File{Entry: entry}
		if !entry.IsPlaceholder() {
			if entry.Offset%SVOAlignment != 0 {
				a.Diagnostics.Warnf(int64(entry.DescriptorOffset), "entry %d: offset 0x%X not %d-byte aligned",
					i, entry.Offset, SVOAlignment)
			}
			if uint64(entry.Offset) < prevEnd {
				a.Diagnostics.Warnf(int64(entry.DescriptorOffset), "entry %d: offset 0x%X overlaps previous member ending at 0x%X",
					i, entry.Offset, prevEnd)
			}
			end := uint64(entry.Offset) + uint64(entry.RealSize)
			if end > uint64(len(data)) {
				return nil, binio.Structuralf("entry %d payload 0x%X..0x%X exceeds file size 0x%X",
					i, entry.Offset, end, len(data))
			}
			f.Payload = data[entry.Offset:end:end]
			prevEnd = end
		}

		n.resolve(&f, a)
		files = append(files, f)
	}

	a.Files = files
	return a, nil
}
