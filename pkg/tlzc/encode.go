package tlzc

import (
	"encoding/binary"
	"fmt"

	"github.com/vesperiatools/pkg/lzss"
)

// EncodeStream compresses data into a raw LZSS stream with its 9-byte header.
func EncodeStream(data []byte, variant lzss.Variant) ([]byte, error) {
	payload, err := lzss.Compress(data, variant)
	if err != nil {
		return nil, err
	}

	out := make([]byte, StreamHeaderSize, StreamHeaderSize+len(payload))
	out[0] = byte(variant)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(out[5:], uint32(len(data)))
	return append(out, payload...), nil
}

// Encode wraps data in a TLZC container.
func Encode(data []byte, variant lzss.Variant) ([]byte, error) {
	stream, err := EncodeStream(data, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}

	out := make([]byte, HeaderSize, HeaderSize+len(stream))
	copy(out, Magic)
	binary.LittleEndian.PutUint32(out[4:], uint32(HeaderSize+len(stream)))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(data)))
	return append(out, stream...), nil
}
