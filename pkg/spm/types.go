// Package spm decodes SPM mesh files and their SPV UV companions.
//
// An SPM file is a table of mesh slots. Every slot record holds pointers
// that are relative to the position right after the record, and the slot
// kind decides how the vertex stream behind them is laid out.
package spm

import (
	"encoding/binary"
	"fmt"

	"github.com/vesperiatools/pkg/diag"
)

// Kind is the mesh-kind tag stored in the first word of a slot record.
type Kind int32

const (
	KindSkinned       Kind = 256
	KindSkinnedAlt    Kind = 258
	KindBackground    Kind = 1024
	KindBackgroundAlt Kind = 1026
	KindBackgroundFar Kind = 1027
	KindUnskinned     Kind = 1792
)

func (k Kind) String() string {
	switch k {
	case KindSkinned, KindSkinnedAlt:
		return fmt.Sprintf("skinned(%d)", int32(k))
	case KindBackground, KindBackgroundAlt, KindBackgroundFar:
		return fmt.Sprintf("background(%d)", int32(k))
	case KindUnskinned:
		return fmt.Sprintf("unskinned(%d)", int32(k))
	default:
		return fmt.Sprintf("unknown(%d)", int32(k))
	}
}

// IsSkinned reports whether vertices carry bone indices and weights.
func (k Kind) IsSkinned() bool { return k == KindSkinned || k == KindSkinnedAlt }

// IsBackground reports whether vertices form one pool shared by sub-meshes.
func (k Kind) IsBackground() bool {
	return k == KindBackground || k == KindBackgroundAlt || k == KindBackgroundFar
}

const (
	slotRecordWords = 15
	slotRecordSize  = slotRecordWords * 4
	uvRecordSize    = 5 * 4
	rawDumpSize     = 48

	// Normals of unskinned and far background vertices sit at a fixed
	// distance from the matching position.
	farNormalOffset = 888

	// Bytes per vertex in each pool layout. Skinned vertices add four
	// bytes per stored weight.
	adjacentStride = 24
	farStride      = 12
	skinnedStride  = 28
)

// FileHeader is the first four words of the file.
type FileHeader struct {
	Reserved0   int32
	Reserved1   int32
	TableOffset int32
	SlotCount   int32
}

// TableHeader opens the slot table.
type TableHeader struct {
	HashCount int32
	Reserved1 int32
	Reserved2 int32
	Reserved3 int32
	Reserved4 int32
}

// SlotSummary holds the per-slot vertex group counts.
type SlotSummary struct {
	Reserved0    int32
	Reserved1    int32
	Reserved2    int32
	Reserved3    int32
	VertexCounts [4]int32
}

// SlotFiller follows the summaries; its meaning is unknown.
type SlotFiller [4]int32

// SlotRecord is the 15-word descriptor of one mesh slot. Pointer fields
// are relative to the end of the record.
type SlotRecord struct {
	Kind                Kind
	Reserved1           int32
	Reserved2           int32
	Reserved3           int32
	MaterialID          int32 // 1-based
	Reserved5           int32
	SubMeshCountPtr     int32 // end-36
	VertexDataPtr       int32 // end-32
	Reserved8           int32
	Reserved9           int32
	FallbackVertexCount int32
	Reserved11          int32
	Reserved12          int32
	NamePtr             int32 // end-8
	SubTablePtr         int32 // end-4
}

// Triangle is one reconstructed face. Group numbering starts at 2.
type Triangle struct {
	Group   uint32
	Indices [3]uint32
}

// MeshRecord is one decoded sub-mesh.
type MeshRecord struct {
	Name            string
	MaterialIndex   int32
	Positions       [][3]float32
	Normals         [][3]float32
	UVs             [][2]float32
	SkinIndices     [][4]uint8
	SkinWeights     [][4]float32
	UVCountDeclared uint32
	IndexStream     []uint16 // raw strip indices including 0xFFFF restarts
	Triangles       []Triangle
}

// MeshGroup is the decoded content of one slot.
type MeshGroup struct {
	Slot           int
	Name           string
	Kind           Kind
	RecordOffset   int
	SubTableOffset int
	Combined       bool // decoded through the sub-mesh count 0 fallback
	Meshes         []MeshRecord
}

// Model is a decoded SPM file.
type Model struct {
	Header      FileHeader
	Table       TableHeader
	Summaries   []SlotSummary
	Fillers     []SlotFiller
	Slots       []SlotRecord
	Groups      []MeshGroup
	Skipped     []*UnknownMeshKindError
	HashList    []int32 // opaque, kept as read
	Diagnostics diag.List

	order binary.ByteOrder
}

// Options configures decoding.
type Options struct {
	Order binary.ByteOrder // little-endian when nil
}
