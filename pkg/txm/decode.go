package txm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vesperiatools/pkg/binio"
)

// ScanDDS returns the offsets of every non-overlapping DDS magic in blob.
func ScanDDS(blob []byte) []int {
	var offsets []int
	pos := 0
	for {
		i := bytes.Index(blob[pos:], DDSMagic)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, pos+i)
		pos += i + len(DDSMagic)
	}
}

// Decode reads the TXM directory and pairs each entry with the DDS image at
// the same position in txv. All images share the distance between the first
// two magics; a lone image runs to the end of the blob.
func Decode(txm, txv []byte, opts Options) (*Set, error) {
	order := opts.Order
	if order == nil {
		order = binary.BigEndian
	}
	c := binio.NewCursor(txm, order)

	set := &Set{}
	tag, err := c.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read TXM header: %w", err)
	}
	copy(set.Header.Tag[:], tag)
	words, err := c.ReadI32s(3)
	if err != nil {
		return nil, fmt.Errorf("failed to read TXM header: %w", err)
	}
	set.Header.DataOffset = words[0]
	set.Header.Reserved = words[1]
	set.Header.ImageCount = words[2]

	count := int(set.Header.ImageCount)
	if count < 0 || count*DescriptorSize > c.Remaining() {
		return nil, binio.Structuralf("image count %d does not fit in 0x%X bytes", count, c.Remaining())
	}

	set.Magics = ScanDDS(txv)
	switch len(set.Magics) {
	case 0:
	case 1:
		set.Stride = len(txv) - set.Magics[0] + 4
	default:
		set.Stride = set.Magics[1] - set.Magics[0]
	}
	if count > len(set.Magics) {
		set.Diagnostics.Warnf(HeaderSize, "%d descriptors but only %d DDS images in TXV", count, len(set.Magics))
	}

	used := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		descStart := c.Tell()
		d, err := c.ReadI32s(7)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor %d: %w", i, err)
		}
		desc := Descriptor{DataOffset: d[0], NameOffset: d[6]}
		copy(desc.Words[:], d[1:6])

		img := Image{
			Index:      i,
			Descriptor: desc,
			DataOffset: int64(set.Header.DataOffset) + int64(desc.DataOffset),
		}
		nameAt := c.Tell() - 4 + int(desc.NameOffset)
		if img.Name, err = c.ReadCStringAt(nameAt, binio.DefaultStringCap); err != nil {
			set.Diagnostics.Warnf(int64(descStart), "image %d: name at 0x%X unreadable: %v", i, nameAt, err)
			img.Name = fmt.Sprintf("TEXTURE%d", i)
		}

		if i >= len(set.Magics) {
			set.Diagnostics.Warnf(int64(descStart), "image %d (%s): no DDS data, skipped", i, img.Name)
			continue
		}

		if used[img.Name] {
			name := uniqueName(used, img.Name)
			set.Diagnostics.Warnf(int64(descStart), "image %d: duplicate name %q renamed to %q", i, img.Name, name)
			img.Name = name
		}
		used[img.Name] = true

		img.Start = set.Magics[i]
		img.End = min(img.Start+set.Stride-4, len(txv))
		if img.End < img.Start {
			img.End = img.Start
		}
		img.DDS = txv[img.Start:img.End:img.End]
		set.Images = append(set.Images, img)
	}

	return set, nil
}

func uniqueName(used map[string]bool, name string) string {
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !used[candidate] {
			return candidate
		}
	}
}

// CompanionPath swaps a .TXM path for its .TXV sibling and back, keeping
// the case of the extension. Other paths yield "".
func CompanionPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	switch ext {
	case ".TXM":
		return stem + ".TXV"
	case ".TXV":
		return stem + ".TXM"
	case ".txm":
		return stem + ".txv"
	case ".txv":
		return stem + ".txm"
	}
	return ""
}
