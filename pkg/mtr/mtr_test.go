package mtr

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/vesperiatools/pkg/binio"
)

// buildMTR writes a header pointing at 0x10, the count, fixed records and
// then the strings. names[i][s] == "" leaves slot s empty.
func buildMTR(names [][slotCount]string) []byte {
	recStart := 0x14
	strStart := recStart + recordSize*len(names)

	buf := make([]byte, strStart)
	binary.BigEndian.PutUint32(buf[8:], 0x10)
	binary.BigEndian.PutUint32(buf[0x10:], uint32(len(names)))

	for i, rec := range names {
		for s, name := range rec {
			if name == "" {
				continue
			}
			slot := recStart + i*recordSize + 4*s
			binary.BigEndian.PutUint32(buf[slot:], uint32(len(buf)-slot))
			buf = append(buf, name...)
			buf = append(buf, 0)
		}
	}
	return buf
}

func TestDecode(t *testing.T) {
	data := buildMTR([][slotCount]string{
		{"", "CH_YUR_BODY", "CH_YUR_MAT01", "CH_YUR_BODY_H"},
		{"", "", "", "", "", "", "", ""},
		{"MAT_A", "MAT_B"},
	})

	tbl, err := Decode(data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Count != 3 || len(tbl.Materials) != 3 {
		t.Fatalf("got %d materials", len(tbl.Materials))
	}

	m := tbl.Materials[0]
	if m.MaterialName != "CH_YUR_MAT01" {
		t.Errorf("material name %q", m.MaterialName)
	}
	if len(m.TextureNames) != 2 || m.TextureNames[0] != "CH_YUR_BODY" || m.TextureNames[1] != "CH_YUR_BODY_H" {
		t.Errorf("textures %v", m.TextureNames)
	}

	if tbl.Materials[1].MaterialName != DefaultMaterialName || len(tbl.Materials[1].TextureNames) != 0 {
		t.Errorf("empty record %+v", tbl.Materials[1])
	}

	// First MAT match wins, later ones are textures.
	if tbl.Materials[2].MaterialName != "MAT_A" || tbl.Materials[2].TextureNames[0] != "MAT_B" {
		t.Errorf("record 2 %+v", tbl.Materials[2])
	}
	if tbl.Materials[2].Offset != 0x14+2*recordSize {
		t.Errorf("record 2 offset 0x%X", tbl.Materials[2].Offset)
	}
}

func TestDecodeBadNameOffset(t *testing.T) {
	data := buildMTR([][slotCount]string{{"TEX"}})
	binary.BigEndian.PutUint32(data[0x14+4:], 0x7FFF)

	tbl, err := Decode(data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !tbl.Diagnostics.HasWarnings() || len(tbl.Materials[0].TextureNames) != 1 {
		t.Errorf("materials %+v diagnostics %v", tbl.Materials, tbl.Diagnostics)
	}
}

func TestDecodeLittleEndian(t *testing.T) {
	buf := make([]byte, 0x14+recordSize)
	binary.LittleEndian.PutUint32(buf[8:], 0x10)
	binary.LittleEndian.PutUint32(buf[0x10:], 1)
	tbl, err := Decode(buf, Options{Order: binary.LittleEndian})
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Materials) != 1 {
		t.Errorf("got %d materials", len(tbl.Materials))
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{0, 0}, Options{}); !errors.Is(err, binio.ErrUnexpectedEOF) {
		t.Errorf("short: %v", err)
	}
	data := buildMTR([][slotCount]string{{"A"}})
	binary.BigEndian.PutUint32(data[0x10:], 100)
	if _, err := Decode(data, Options{}); !errors.Is(err, binio.ErrStructural) {
		t.Errorf("count: %v", err)
	}
}
