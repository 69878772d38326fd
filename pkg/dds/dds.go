// Package dds reads DirectDraw Surface headers and decodes the top mip level
// of the formats found in TXV blobs.
package dds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math/bits"

	"github.com/mauserzjeh/dxt"

	"github.com/vesperiatools/pkg/binio"
)

const (
	Magic      = "DDS "
	HeaderSize = 4 + 124

	pfFourCC = 0x4
	pfRGB    = 0x40
)

var ErrUnsupportedFormat = errors.New("unsupported DDS pixel format")

// PixelFormat is the DDS_PIXELFORMAT block.
type PixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      string
	RGBBitCount uint32
	RMask       uint32
	GMask       uint32
	BMask       uint32
	AMask       uint32
}

// Header is the part of DDS_HEADER needed to decode the image.
type Header struct {
	Size        uint32
	Flags       uint32
	Height      uint32
	Width       uint32
	Pitch       uint32
	Depth       uint32
	MipMapCount uint32
	PixelFormat PixelFormat
	Caps        uint32
}

// Format names the pixel layout, e.g. "DXT1" or "RGBA32".
func (h *Header) Format() string {
	pf := h.PixelFormat
	switch {
	case pf.Flags&pfFourCC != 0:
		return pf.FourCC
	case pf.Flags&pfRGB != 0 && pf.RGBBitCount == 32:
		return "RGBA32"
	default:
		return fmt.Sprintf("RGB%d", pf.RGBBitCount)
	}
}

// ReadHeader parses the magic and the 124-byte header.
func ReadHeader(data []byte) (*Header, error) {
	if err := binio.CheckFourCC(data, Magic); err != nil {
		return nil, err
	}
	c := binio.NewCursor(data, binary.LittleEndian)
	c.Seek(4)

	w, err := c.ReadU32s(7)
	if err != nil {
		return nil, fmt.Errorf("failed to read DDS header: %w", err)
	}
	h := &Header{
		Size: w[0], Flags: w[1], Height: w[2], Width: w[3],
		Pitch: w[4], Depth: w[5], MipMapCount: w[6],
	}
	if h.Size != 124 {
		return nil, binio.Structuralf("DDS header size %d, want 124", h.Size)
	}
	if err := c.Seek(4 + 72); err != nil {
		return nil, err
	}
	pf, err := c.ReadU32s(2)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel format: %w", err)
	}
	fourcc, err := c.ReadBytes(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel format: %w", err)
	}
	rest, err := c.ReadU32s(6)
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel format: %w", err)
	}
	h.PixelFormat = PixelFormat{
		Size: pf[0], Flags: pf[1], FourCC: string(fourcc),
		RGBBitCount: rest[0], RMask: rest[1], GMask: rest[2], BMask: rest[3], AMask: rest[4],
	}
	h.Caps = rest[5]
	return h, nil
}

// Decode returns the top mip level of a DDS file.
func Decode(data []byte) (*image.NRGBA, *Header, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, nil, err
	}
	if h.Width == 0 || h.Height == 0 {
		return nil, h, binio.Structuralf("DDS image is %dx%d", h.Width, h.Height)
	}
	body := data[HeaderSize:]
	w, ht := uint(h.Width), uint(h.Height)
	blocks := int((w + 3) / 4 * ((ht + 3) / 4))

	var pix []byte
	switch format := h.Format(); format {
	case "DXT1":
		if len(body) < blocks*8 {
			return nil, h, fmt.Errorf("%w: DXT1 data is 0x%X bytes, want 0x%X", binio.ErrUnexpectedEOF, len(body), blocks*8)
		}
		pix, err = dxt.DecodeDXT1(body, w, ht)
	case "DXT3":
		if len(body) < blocks*16 {
			return nil, h, fmt.Errorf("%w: DXT3 data is 0x%X bytes, want 0x%X", binio.ErrUnexpectedEOF, len(body), blocks*16)
		}
		pix, err = dxt.DecodeDXT3(body, w, ht)
	case "DXT5":
		if len(body) < blocks*16 {
			return nil, h, fmt.Errorf("%w: DXT5 data is 0x%X bytes, want 0x%X", binio.ErrUnexpectedEOF, len(body), blocks*16)
		}
		pix, err = dxt.DecodeDXT5(body, w, ht)
	case "RGBA32":
		pix, err = unpackMasked(body, int(w), int(ht), h.PixelFormat)
	default:
		return nil, h, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, h, fmt.Errorf("failed to decode %s: %w", h.Format(), err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(ht)))
	copy(img.Pix, pix)
	return img, h, nil
}

func unpackMasked(body []byte, w, h int, pf PixelFormat) ([]byte, error) {
	n := w * h
	if len(body) < n*4 {
		return nil, fmt.Errorf("%w: pixel data is 0x%X bytes, want 0x%X", binio.ErrUnexpectedEOF, len(body), n*4)
	}
	pix := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint32(body[i*4:])
		pix[i*4+0] = channel(v, pf.RMask)
		pix[i*4+1] = channel(v, pf.GMask)
		pix[i*4+2] = channel(v, pf.BMask)
		if pf.AMask == 0 {
			pix[i*4+3] = 0xFF
		} else {
			pix[i*4+3] = channel(v, pf.AMask)
		}
	}
	return pix, nil
}

// channel extracts an 8-bit value under mask.
func channel(v, mask uint32) byte {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	x := (v & mask) >> shift
	if width >= 8 {
		return byte(x >> (width - 8))
	}
	return byte(x * 0xFF / (1<<width - 1))
}
