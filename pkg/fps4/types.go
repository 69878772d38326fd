// Package fps4 handles FPS4 archive extraction and packing.
package fps4

import (
	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/filetype"
)

const (
	Magic           = "FPS4"
	HeaderSize      = 0x1C       // fixed for every known archive
	NameSize        = 0x20       // descriptor name field
	Sentinel        = 0xFFFFFFFF // offset of a slot with no payload
	DefaultMaxDepth = 4
	SVOAlignment    = 0x80
	argStringCap    = 0x200
)

// Flags is the descriptor layout bitmask stored at 0x12.
type Flags uint16

const (
	FlagOffset Flags = 1 << iota
	FlagSize
	FlagRealSize
	FlagName
	FlagReserved4
	FlagDataType
	FlagArg
	FlagReserved7

	FlagMinimum = FlagOffset | FlagSize | FlagRealSize
	flagKnown   = Flags(0xFF)
)

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// DescriptorSize returns the number of bytes the fields selected by f take.
func (f Flags) DescriptorSize() int {
	n := 12 // offset, size, real size are always present
	if f.Has(FlagName) {
		n += NameSize
	}
	for _, b := range []Flags{FlagReserved4, FlagDataType, FlagArg, FlagReserved7} {
		if f.Has(b) {
			n += 4
		}
	}
	return n
}

// Header is the fixed FPS4 header. All fields are big-endian.
//
//	0x00 magic "FPS4"
//	0x04 entry count
//	0x08 header size (0x1C)
//	0x0C data offset
//	0x10 descriptor size
//	0x12 descriptor flags
//	0x14 reserved (0)
//	0x18 string table offset
type Header struct {
	Count          uint32
	HeaderSize     uint32
	DataOffset     uint32
	DescriptorSize uint16
	Flags          Flags
	Reserved       uint32
	StringTable    uint32
}

// Entry is one raw directory descriptor.
type Entry struct {
	Index            int
	DescriptorOffset int
	Offset           uint32
	Size             uint32
	RealSize         uint32
	Name             string // uppercased, "" when absent
	DataType         string // e.g. "MDL"
	Arg              string // string table hint, often a path fragment
}

// IsPlaceholder reports whether the entry has no payload.
func (e *Entry) IsPlaceholder() bool { return e.Offset == Sentinel }

// File is an entry with its resolved name and payload.
type File struct {
	Entry       Entry
	Name        string // unique within the parent archive
	Ext         string
	Source      filetype.Source
	Environment string   // arg of environment data entries (TO8*)
	Payload     []byte   // view into the source buffer
	Archive     *Archive // nested archive when unpacked deeply
}

// ArgRecord pairs a resolved name with its string table argument.
type ArgRecord struct {
	Name string
	Arg  string
}

// Archive is an unpacked FPS4 container.
type Archive struct {
	Header      Header
	Files       []File
	Args        []ArgRecord
	Depth       int
	Diagnostics diag.List
}

// Options configures unpacking.
type Options struct {
	Platform filetype.Platform
	Deep     bool // unpack members that are FPS4 archives themselves
	MaxDepth int  // nesting bound for Deep, DefaultMaxDepth when 0
}

// LeftoverNames are placeholder members that carry nothing useful once an
// archive has been extracted.
var LeftoverNames = []string{
	"EMPTY0",
	"NONAME0.FPS4",
	"NONAME1.FPS4",
	"NONAME2.FPS4",
	"NONAME3.FPS4",
}
