package spm

import (
	"encoding/binary"

	"github.com/chewxy/math32"
	"github.com/vesperiatools/pkg/binio"
)

// MergeUV reads the SPV companion: uvRecordSize-byte records consumed in
// slot and sub-mesh order, UVCountDeclared per mesh. Each record's second
// and third floats become (u, 1-v). NaN components become 0 and a record
// cut short by the end of the buffer becomes (0, 0); both are reported.
func MergeUV(m *Model, spv []byte) {
	order := m.order
	if order == nil {
		order = binary.LittleEndian
	}
	c := binio.NewCursor(spv, order)

	// Skipped slots still own records in the SPV; step over them in slot
	// order so later slots stay aligned.
	skipped := 0
	skipBefore := func(slot int) {
		for ; skipped < len(m.Skipped) && m.Skipped[skipped].Slot < slot; skipped++ {
			for _, n := range m.Skipped[skipped].UVCounts {
				c.Seek(min(c.Tell()+int(n)*uvRecordSize, c.Len()))
			}
		}
	}

	for gi := range m.Groups {
		g := &m.Groups[gi]
		skipBefore(g.Slot)
		for mi := range g.Meshes {
			mesh := &g.Meshes[mi]
			mesh.UVs = make([][2]float32, 0, mesh.UVCountDeclared)
			nan, short := 0, 0
			start := c.Tell()

			for r := uint32(0); r < mesh.UVCountDeclared; r++ {
				f, err := c.ReadF32s(uvRecordSize / 4)
				if err != nil {
					short++
					c.Seek(c.Len())
					mesh.UVs = append(mesh.UVs, [2]float32{0, 0})
					continue
				}
				u, v := f[1], f[2]
				if math32.IsNaN(u) {
					u = 0
					nan++
				}
				if math32.IsNaN(v) {
					v = 0
					nan++
				}
				mesh.UVs = append(mesh.UVs, [2]float32{u, 1 - v})
			}

			if nan > 0 {
				m.Diagnostics.Warnf(int64(start), "%q sub-mesh %d: %d NaN UV components replaced with 0", g.Name, mi, nan)
			}
			if short > 0 {
				m.Diagnostics.Warnf(int64(start), "%q sub-mesh %d: %d UV records past end of SPV, using (0, 0)", g.Name, mi, short)
			}
		}
	}
}
