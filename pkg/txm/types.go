// Package txm decodes TXM texture directories and cuts the matching DDS
// images out of their TXV blob.
package txm

import (
	"encoding/binary"

	"github.com/vesperiatools/pkg/diag"
)

const (
	HeaderSize     = 16
	DescriptorSize = 7 * 4
)

// DDSMagic is "DDS " followed by the low byte of the 124-byte header size.
var DDSMagic = []byte{0x44, 0x44, 0x53, 0x20, 0x7C}

// Header is the fixed TXM prologue.
type Header struct {
	Tag        [4]byte
	DataOffset int32
	Reserved   int32
	ImageCount int32
}

// Descriptor is one directory entry. Words 1..5 are kept as read.
type Descriptor struct {
	DataOffset int32
	Words      [5]int32
	NameOffset int32 // relative to the last word of the descriptor
}

// Image is one decoded directory entry and the bytes it maps to.
type Image struct {
	Index      int
	Name       string
	Descriptor Descriptor
	DataOffset int64 // header DataOffset + descriptor DataOffset, informational
	Start, End int   // span in the TXV blob
	DDS        []byte
}

// FileName is the name the image is written under.
func (img *Image) FileName() string {
	return img.Name + ".DDS"
}

// Set is a decoded TXM/TXV pair.
type Set struct {
	Header      Header
	Magics      []int
	Stride      int
	Images      []Image
	Diagnostics diag.List
}

// Options configures decoding.
type Options struct {
	Order binary.ByteOrder // big-endian when nil
}
