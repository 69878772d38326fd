package lzss

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	reflzss "github.com/blacktop/lzss"
)

func TestDecompressVectors(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		src     []byte
		want    []byte
	}{
		{
			name:    "literals",
			variant: Type1,
			src:     []byte{0xFF, 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H'},
			want:    []byte("ABCDEFGH"),
		},
		{
			name:    "seeded 0xFF tail",
			variant: Type1,
			src:     []byte{0x00, 0xFC, 0xE1},
			want:    []byte{0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name:    "seeded ascending byte",
			variant: Type3,
			src:     []byte{0x00, 14, 0x00},
			want:    []byte{0x01, 0x00, 0x00},
		},
		{
			name:    "overlapping reference",
			variant: Type1,
			src:     []byte{0x01, 'A', 0xEE, 0xF2},
			want:    []byte("AAAAAA"),
		},
		{
			name:    "short run",
			variant: Type3,
			src:     []byte{0x00, 'A', 0x2F},
			want:    []byte("AAAAA"),
		},
		{
			name:    "long run",
			variant: Type3,
			src:     []byte{0x02, 'x', 0x01, 0x0F, 'Z'},
			want:    append([]byte("x"), bytes.Repeat([]byte("Z"), 20)...),
		},
		{
			name:    "truncated reference ends decoding",
			variant: Type1,
			src:     []byte{0x01, 'Q', 0xEE},
			want:    []byte("Q"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decompress(tt.src, tt.variant, 0)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % X, want % X", got, tt.want)
			}
		})
	}
}

func TestDecompressSizeHint(t *testing.T) {
	src := []byte{0xFF, 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H'}
	got, err := Decompress(src, Type1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ABC" {
		t.Errorf("got %q", got)
	}

	// A run longer than the hint is cut short.
	got, err = Decompress([]byte{0x00, 'A', 0xFF}, Type3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "AAAA" {
		t.Errorf("got %q", got)
	}
}

func TestDecompressHugeSizeHint(t *testing.T) {
	got, err := Decompress([]byte{0xFF, 'A'}, Type1, 0x7FFFFFF0)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "A" {
		t.Errorf("got %q", got)
	}
	if cap(got) > 64 {
		t.Errorf("capacity %d preallocated for a two-byte stream", cap(got))
	}
}

func TestDecompressEmpty(t *testing.T) {
	got, err := Decompress(nil, Type3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(got))
	}
}

func TestUnsupportedVariant(t *testing.T) {
	if _, err := Decompress([]byte{0xFF, 'A'}, Variant(2), 0); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("got %v", err)
	}
	if _, err := Compress([]byte("A"), Variant(9)); !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("got %v", err)
	}
}

func sampleData() []byte {
	rng := rand.New(rand.NewSource(42))
	var buf bytes.Buffer
	words := []string{"SPM", "TXV", "MDL_", "CH_YUR", "\x00\x00\x00\x00", "FPS4"}
	for buf.Len() < 20000 {
		switch rng.Intn(4) {
		case 0:
			buf.WriteString(words[rng.Intn(len(words))])
		case 1:
			buf.Write(bytes.Repeat([]byte{byte(rng.Intn(256))}, 3+rng.Intn(300)))
		default:
			b := make([]byte, 1+rng.Intn(24))
			rng.Read(b)
			buf.Write(b)
		}
	}
	return buf.Bytes()
}

func TestCompressRoundTrip(t *testing.T) {
	data := sampleData()
	for _, v := range []Variant{Type1, Type3} {
		t.Run(v.String(), func(t *testing.T) {
			packed, err := Compress(data, v)
			if err != nil {
				t.Fatal(err)
			}
			if len(packed) >= len(data) {
				t.Errorf("no compression: %d -> %d", len(data), len(packed))
			}
			got, err := Decompress(packed, v, len(data))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("round trip mismatch (got %d bytes, want %d)", len(got), len(data))
			}
		})
	}
}

func TestType1MatchesReferenceDecoder(t *testing.T) {
	// Type 1 output never references the seeded window, so the classic
	// Okumura decoder must agree with ours.
	data := sampleData()
	packed, err := Compress(data, Type1)
	if err != nil {
		t.Fatal(err)
	}
	ref := reflzss.Decompress(packed)
	if len(ref) < len(data) || !bytes.Equal(ref[:len(data)], data) {
		t.Fatalf("reference decoder disagrees (%d bytes vs %d)", len(ref), len(data))
	}
}

func TestInitRing(t *testing.T) {
	ring := make([]byte, N)
	InitRing(ring)
	if ring[6] != 0 || ring[14] != 1 || ring[255*8+6] != 255 {
		t.Error("ascending pattern not seeded")
	}
	for i := 0xEFC; i <= 0xEFF; i++ {
		if ring[i] != 0xFF {
			t.Errorf("ring[0x%X] = 0x%02X, want 0xFF", i, ring[i])
		}
	}
	if ring[0xF00] != 0 || ring[N-1] != 0 {
		t.Error("unexpected bytes outside the seeded ranges")
	}
}
