// Package lzss implements the two LZSS variants used by Tales of Vesperia
// compressed streams (type 1 plain, type 3 with run-length tokens).
package lzss

import "fmt"

const (
	N         = 4096 // Ring buffer size
	F         = 17   // Look-ahead size, places the initial write cursor
	Threshold = 2    // Minimum match length minus one
	NMask     = N - 1

	maxMatch = 0x0F + Threshold + 1
)

// Variant is the stream type tag found in the first header byte.
type Variant byte

const (
	Type1 Variant = 0x01
	Type3 Variant = 0x03
)

func (v Variant) String() string {
	switch v {
	case Type1:
		return "lz01"
	case Type3:
		return "lz03"
	default:
		return fmt.Sprintf("lz%02x", byte(v))
	}
}

// Valid reports whether v is a supported variant.
func (v Variant) Valid() bool {
	return v == Type1 || v == Type3
}

// start is the ring position where output begins.
func (v Variant) start() int {
	if v == Type1 {
		return N - F - 1
	}
	return N - F
}

// InitRing seeds a ring buffer with the pattern the game's decoder expects.
// Back-references that point before the first output byte read from here.
func InitRing(ring []byte) {
	for i := 0; i < 0x100; i++ {
		ring[i*8+6] = byte(i)
	}
	for i := 0; i < 4; i++ {
		ring[0xEFF-i] = 0xFF
	}
}

// Decompress decodes src with the given variant. When sizeHint is positive
// decoding stops once sizeHint bytes have been produced and the output never
// exceeds it. A truncated final token ends decoding.
func Decompress(src []byte, variant Variant, sizeHint int) ([]byte, error) {
	if !variant.Valid() {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedVariant, byte(variant))
	}
	if len(src) == 0 {
		return []byte{}, nil
	}

	ring := make([]byte, N)
	InitRing(ring)

	// sizeHint comes from the stream header; the preallocation never
	// exceeds a typical expansion of src.
	capHint := len(src) * 9
	if sizeHint > 0 && sizeHint < capHint {
		capHint = sizeHint
	}
	result := make([]byte, 0, capHint)
	full := func() bool { return sizeHint > 0 && len(result) >= sizeHint }

	r := variant.start()
	emit := func(c byte) {
		result = append(result, c)
		ring[r] = c
		r = (r + 1) & NMask
	}

	var flags uint
	srcPos := 0
	for srcPos < len(src) && !full() {
		flags >>= 1
		if flags&0x100 == 0 {
			flags = uint(src[srcPos]) | 0xFF00
			srcPos++
		}

		if flags&1 != 0 {
			// Literal byte
			if srcPos >= len(src) {
				break
			}
			emit(src[srcPos])
			srcPos++
			continue
		}

		if srcPos+1 >= len(src) {
			break
		}
		i := int(src[srcPos])
		j := int(src[srcPos+1])
		srcPos += 2

		if variant == Type3 && j&0x0F == 0x0F {
			var c byte
			var length int
			if j == 0x0F {
				// Long run, value follows
				if srcPos >= len(src) {
					break
				}
				c = src[srcPos]
				srcPos++
				length = i + Threshold + 1 + 0x10
			} else {
				c = byte(i)
				length = (j >> 4) + Threshold + 1
			}
			for k := 0; k < length && !full(); k++ {
				emit(c)
			}
			continue
		}

		// Back reference
		offset := i | (j&0xF0)<<4
		length := (j & 0x0F) + Threshold + 1
		for k := 0; k < length && !full(); k++ {
			emit(ring[(offset+k)&NMask])
		}
	}

	return result, nil
}
