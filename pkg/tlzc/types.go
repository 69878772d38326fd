// Package tlzc reads and writes TLZC-wrapped LZSS streams.
package tlzc

import (
	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/lzss"
)

const (
	Magic            = "TLZC"
	HeaderSize       = 16 // magic, total size, decompressed size, reserved
	StreamHeaderSize = 9  // type u8, compressed size u32, decompressed size u32
)

// Header is the outer TLZC header. All fields are little-endian.
type Header struct {
	TotalSize        uint32 // size of the whole file including this header
	DecompressedSize uint32
	Reserved         uint32
}

// StreamHeader precedes every raw LZSS payload.
type StreamHeader struct {
	Variant          lzss.Variant
	CompressedSize   uint32 // payload bytes following the stream header
	DecompressedSize uint32
}

// Result is a decoded TLZC file.
type Result struct {
	Header      Header
	Stream      StreamHeader
	Data        []byte
	Diagnostics diag.List
}
