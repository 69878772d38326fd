package tlzc

import (
	"encoding/binary"
	"fmt"

	"github.com/vesperiatools/pkg/binio"
	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/lzss"
)

// IsTLZC reports whether data starts with the TLZC magic.
func IsTLZC(data []byte) bool {
	return binio.FourCC(data) == Magic
}

// ReadStreamHeader parses the 9-byte header of a raw LZSS stream.
func ReadStreamHeader(data []byte) (StreamHeader, error) {
	c := binio.NewCursor(data, binary.LittleEndian)
	kind, err := c.ReadU8()
	if err != nil {
		return StreamHeader{}, fmt.Errorf("failed to read stream type: %w", err)
	}
	hdr := StreamHeader{Variant: lzss.Variant(kind)}
	if !hdr.Variant.Valid() {
		return hdr, fmt.Errorf("%w: 0x%02X", lzss.ErrUnsupportedVariant, kind)
	}
	if hdr.CompressedSize, err = c.ReadU32(); err != nil {
		return hdr, fmt.Errorf("failed to read compressed size: %w", err)
	}
	if hdr.DecompressedSize, err = c.ReadU32(); err != nil {
		return hdr, fmt.Errorf("failed to read decompressed size: %w", err)
	}
	return hdr, nil
}

// DecompressStream decodes a raw LZSS stream (stream header + payload).
// A zero-length payload yields an empty buffer.
func DecompressStream(data []byte) ([]byte, error) {
	out, _, err := decompressStream(data, nil)
	return out, err
}

func decompressStream(data []byte, diags *diag.List) ([]byte, StreamHeader, error) {
	hdr, err := ReadStreamHeader(data)
	if err != nil {
		return nil, hdr, err
	}

	payload := data[StreamHeaderSize:]
	if uint64(hdr.CompressedSize) > uint64(len(payload)) {
		return nil, hdr, fmt.Errorf("%w: header declares 0x%X bytes, 0x%X available",
			ErrTruncated, hdr.CompressedSize, len(payload))
	}
	if int(hdr.CompressedSize) < len(payload) && diags != nil {
		diags.Warnf(int64(StreamHeaderSize)+int64(hdr.CompressedSize),
			"%d trailing bytes after compressed payload", len(payload)-int(hdr.CompressedSize))
	}
	payload = payload[:hdr.CompressedSize]

	out, err := lzss.Decompress(payload, hdr.Variant, int(hdr.DecompressedSize))
	if err != nil {
		return nil, hdr, fmt.Errorf("failed to decompress %s stream: %w", hdr.Variant, err)
	}
	if len(out) != int(hdr.DecompressedSize) && diags != nil {
		diags.Warnf(-1, "decompressed 0x%X bytes, header declares 0x%X", len(out), hdr.DecompressedSize)
	}
	return out, hdr, nil
}

// Decode unwraps a TLZC file.
func Decode(data []byte) (*Result, error) {
	if err := binio.CheckFourCC(data, Magic); err != nil {
		return nil, err
	}

	c := binio.NewCursor(data, binary.LittleEndian)
	c.Seek(4)
	words, err := c.ReadU32s(3)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLZC header: %w", err)
	}

	res := &Result{
		Header: Header{
			TotalSize:        words[0],
			DecompressedSize: words[1],
			Reserved:         words[2],
		},
	}

	if res.Header.TotalSize < HeaderSize {
		return nil, binio.Structuralf("TLZC total size 0x%X is smaller than the header", res.Header.TotalSize)
	}
	if uint64(res.Header.TotalSize) > uint64(len(data)) {
		return nil, binio.Structuralf("TLZC total size 0x%X exceeds file size 0x%X", res.Header.TotalSize, len(data))
	}
	if int(res.Header.TotalSize) < len(data) {
		res.Diagnostics.Warnf(int64(res.Header.TotalSize), "%d bytes after end of TLZC data", len(data)-int(res.Header.TotalSize))
	}
	if res.Header.Reserved != 0 {
		res.Diagnostics.Warnf(0xC, "reserved field is 0x%X, expected 0", res.Header.Reserved)
	}

	out, stream, err := decompressStream(data[HeaderSize:res.Header.TotalSize], &res.Diagnostics)
	if err != nil {
		return nil, err
	}
	res.Stream = stream
	res.Data = out

	if stream.DecompressedSize != res.Header.DecompressedSize {
		res.Diagnostics.Warnf(8, "outer size 0x%X disagrees with stream size 0x%X",
			res.Header.DecompressedSize, stream.DecompressedSize)
	}

	return res, nil
}
