package spm

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/vesperiatools/pkg/binio"
)

// Decode parses an SPM buffer. When spv is not nil its UV records are
// merged into the decoded meshes. Faces are rebuilt for every mesh.
func Decode(spm, spv []byte, opts Options) (*Model, error) {
	order := opts.Order
	if order == nil {
		order = binary.LittleEndian
	}

	m := &Model{order: order}
	c := binio.NewCursor(spm, order)

	if err := m.readTable(c); err != nil {
		return nil, err
	}

	for i := 0; i < int(m.Header.SlotCount); i++ {
		if err := m.readSlot(c, i); err != nil {
			return nil, fmt.Errorf("failed to decode slot %d: %w", i, err)
		}
	}

	hashes, err := c.ReadI32s(int(m.Table.HashCount))
	if err != nil {
		return nil, fmt.Errorf("failed to read hash list: %w", err)
	}
	m.HashList = hashes

	if spv != nil {
		MergeUV(m, spv)
	}
	for gi := range m.Groups {
		for mi := range m.Groups[gi].Meshes {
			m.Groups[gi].Meshes[mi].BuildFaces()
		}
	}

	return m, nil
}

func (m *Model) readTable(c *binio.Cursor) error {
	words, err := c.ReadI32s(4)
	if err != nil {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	m.Header = FileHeader{words[0], words[1], words[2], words[3]}
	if m.Header.SlotCount < 0 {
		return binio.Structuralf("negative slot count %d", m.Header.SlotCount)
	}

	if err := c.Seek(int(m.Header.TableOffset)); err != nil {
		return fmt.Errorf("failed to seek to slot table: %w", err)
	}
	words, err = c.ReadI32s(5)
	if err != nil {
		return fmt.Errorf("failed to read table header: %w", err)
	}
	m.Table = TableHeader{words[0], words[1], words[2], words[3], words[4]}
	if m.Table.HashCount < 0 {
		return binio.Structuralf("negative hash count %d", m.Table.HashCount)
	}

	n := int(m.Header.SlotCount)
	if need := n * (32 + 16 + slotRecordSize); need > c.Remaining() {
		return binio.Structuralf("%d slots need 0x%X bytes, 0x%X left", n, need, c.Remaining())
	}

	m.Summaries = make([]SlotSummary, n)
	for i := range m.Summaries {
		w, err := c.ReadI32s(8)
		if err != nil {
			return fmt.Errorf("failed to read slot summary %d: %w", i, err)
		}
		s := SlotSummary{Reserved0: w[0], Reserved1: w[1], Reserved2: w[2], Reserved3: w[3]}
		copy(s.VertexCounts[:], w[4:])
		m.Summaries[i] = s
	}

	m.Fillers = make([]SlotFiller, n)
	for i := range m.Fillers {
		w, err := c.ReadI32s(4)
		if err != nil {
			return fmt.Errorf("failed to read slot filler %d: %w", i, err)
		}
		copy(m.Fillers[i][:], w)
	}
	return nil
}

func readSlotRecord(c *binio.Cursor) (SlotRecord, error) {
	w, err := c.ReadI32s(slotRecordWords)
	if err != nil {
		return SlotRecord{}, err
	}
	return SlotRecord{
		Kind:                Kind(w[0]),
		Reserved1:           w[1],
		Reserved2:           w[2],
		Reserved3:           w[3],
		MaterialID:          w[4],
		Reserved5:           w[5],
		SubMeshCountPtr:     w[6],
		VertexDataPtr:       w[7],
		Reserved8:           w[8],
		Reserved9:           w[9],
		FallbackVertexCount: w[10],
		Reserved11:          w[11],
		Reserved12:          w[12],
		NamePtr:             w[13],
		SubTablePtr:         w[14],
	}, nil
}

// readSlot decodes slot i. The cursor is left right after the slot record
// so the next record, or the hash list, follows.
func (m *Model) readSlot(c *binio.Cursor, i int) error {
	start := c.Tell()
	rec, err := readSlotRecord(c)
	if err != nil {
		return fmt.Errorf("failed to read slot record: %w", err)
	}
	m.Slots = append(m.Slots, rec)
	end := c.Tell()
	defer c.Seek(end)

	name, err := c.ReadCStringAt(end-8+int(rec.NamePtr), binio.DefaultStringCap)
	if err != nil {
		return fmt.Errorf("failed to read slot name: %w", err)
	}

	group := MeshGroup{
		Slot:           i,
		Name:           name,
		Kind:           rec.Kind,
		RecordOffset:   start,
		SubTableOffset: end - 4 + int(rec.SubTablePtr),
	}

	if err := c.Seek(end - 36 + int(rec.SubMeshCountPtr)); err != nil {
		return fmt.Errorf("failed to seek to sub-mesh table: %w", err)
	}
	if err := m.readSubMeshes(c, &group, rec); err != nil {
		return err
	}

	vertexPos := end - 32 + int(rec.VertexDataPtr)
	if err := c.Seek(vertexPos); err != nil {
		return fmt.Errorf("failed to seek to vertex data: %w", err)
	}

	summary := m.Summaries[i]
	switch {
	case rec.Kind == KindUnskinned:
		err = m.readUnskinned(c, &group, summary, rec)
	case rec.Kind.IsBackground():
		err = m.readBackground(c, &group, summary, rec)
	case rec.Kind.IsSkinned():
		err = m.readSkinned(c, &group, summary)
	default:
		kindErr := &UnknownMeshKindError{
			Slot:   i,
			Kind:   rec.Kind,
			Offset: vertexPos,
			Raw:    append([]byte(nil), c.Peek(rawDumpSize)...),
		}
		for _, mesh := range group.Meshes {
			kindErr.UVCounts = append(kindErr.UVCounts, mesh.UVCountDeclared)
		}
		m.Skipped = append(m.Skipped, kindErr)
		m.Diagnostics.Warnf(int64(start), "%v", kindErr)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s vertices of %q: %w", rec.Kind, name, err)
	}

	m.Groups = append(m.Groups, group)
	return nil
}

// readSubMeshes reads the sub-mesh count word, the (uv count, index count)
// pairs and then every index stream.
func (m *Model) readSubMeshes(c *binio.Cursor, g *MeshGroup, rec SlotRecord) error {
	pos := c.Tell()
	k, err := c.ReadI32()
	if err != nil {
		return fmt.Errorf("failed to read sub-mesh count: %w", err)
	}
	if k < 0 {
		return binio.Structuralf("negative sub-mesh count %d at 0x%X", k, pos)
	}

	if k == 0 {
		// Legacy combined layout. Known to produce wrong faces upstream.
		g.Combined = true
		g.Meshes = []MeshRecord{{Name: g.Name, MaterialIndex: rec.MaterialID - 1}}
		m.Diagnostics.Infof(int64(pos), "slot %d %q: sub-mesh count 0, using combined fallback", g.Slot, g.Name)
		return nil
	}

	counts, err := c.ReadU16s(int(k) * 2)
	if err != nil {
		return fmt.Errorf("failed to read %d sub-mesh headers: %w", k, err)
	}
	g.Meshes = make([]MeshRecord, k)
	for j := range g.Meshes {
		g.Meshes[j] = MeshRecord{
			Name:            g.Name,
			MaterialIndex:   rec.MaterialID - 1,
			UVCountDeclared: uint32(counts[j*2]),
		}
	}
	for j := range g.Meshes {
		idx, err := c.ReadU16s(int(counts[j*2+1]))
		if err != nil {
			return fmt.Errorf("failed to read index stream %d: %w", j, err)
		}
		g.Meshes[j].IndexStream = idx
	}
	return nil
}

func vertexCount(summary SlotSummary, rec SlotRecord) (int, error) {
	n := summary.VertexCounts[0]
	if n == 0 {
		n = rec.FallbackVertexCount
	}
	if n < 0 {
		return 0, binio.Structuralf("negative vertex count %d", n)
	}
	return int(n), nil
}

// checkPool fails when n vertices of stride bytes cannot fit in what is
// left of the file.
func checkPool(c *binio.Cursor, n, stride int) error {
	if need := n * stride; need > c.Remaining() {
		return binio.Structuralf("%d vertices need 0x%X bytes, 0x%X left", n, need, c.Remaining())
	}
	return nil
}

func readVec3(c *binio.Cursor) ([3]float32, error) {
	var v [3]float32
	f, err := c.ReadF32s(3)
	if err != nil {
		return v, err
	}
	copy(v[:], f)
	return v, nil
}

// readPoolVertex reads a position and its normal. Adjacent normals follow
// the position; otherwise they sit farNormalOffset bytes further.
func readPoolVertex(c *binio.Cursor, adjacent bool) (pos, norm [3]float32, err error) {
	at := c.Tell()
	if pos, err = readVec3(c); err != nil {
		return
	}
	if !adjacent {
		if err = c.Seek(at + farNormalOffset); err != nil {
			return
		}
	}
	if norm, err = readVec3(c); err != nil {
		return
	}
	next := at + farStride
	if adjacent {
		next = at + adjacentStride
	}
	err = c.Seek(next)
	return
}

func (m *Model) readUnskinned(c *binio.Cursor, g *MeshGroup, summary SlotSummary, rec SlotRecord) error {
	n, err := vertexCount(summary, rec)
	if err != nil {
		return err
	}
	if err := checkPool(c, n, farStride); err != nil {
		return err
	}
	mesh := &g.Meshes[0]
	for i := 0; i < n; i++ {
		pos, norm, err := readPoolVertex(c, false)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		mesh.Positions = append(mesh.Positions, pos)
		mesh.Normals = append(mesh.Normals, norm)
	}
	return nil
}

// readBackground reads one vertex pool for the slot and hands each
// sub-mesh the run matching its declared UV count.
func (m *Model) readBackground(c *binio.Cursor, g *MeshGroup, summary SlotSummary, rec SlotRecord) error {
	n, err := vertexCount(summary, rec)
	if err != nil {
		return err
	}
	adjacent := rec.Kind != KindBackgroundFar
	stride := farStride
	if adjacent {
		stride = adjacentStride
	}
	if err := checkPool(c, n, stride); err != nil {
		return err
	}
	positions := make([][3]float32, 0, n)
	normals := make([][3]float32, 0, n)
	for i := 0; i < n; i++ {
		pos, norm, err := readPoolVertex(c, adjacent)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		positions = append(positions, pos)
		normals = append(normals, norm)
	}

	if g.Combined {
		g.Meshes[0].Positions, g.Meshes[0].Normals = positions, normals
		return nil
	}

	start := 0
	for j := range g.Meshes {
		mesh := &g.Meshes[j]
		end := start + int(mesh.UVCountDeclared)
		if end > n {
			m.Diagnostics.Warnf(int64(c.Tell()), "slot %d %q: sub-mesh %d wants vertices up to %d, pool has %d",
				g.Slot, g.Name, j, end, n)
			end = n
		}
		if start < end {
			mesh.Positions = positions[start:end:end]
			mesh.Normals = normals[start:end:end]
		}
		start = end
	}
	return nil
}

// readSkinned reads up to four weight groups per sub-mesh. The first
// sub-mesh takes its counts from the slot summary, later ones read their
// own four-word count record first.
func (m *Model) readSkinned(c *binio.Cursor, g *MeshGroup, summary SlotSummary) error {
	for j := range g.Meshes {
		counts := summary.VertexCounts
		if j > 0 {
			w, err := c.ReadI32s(4)
			if err != nil {
				return fmt.Errorf("sub-mesh %d: failed to read vertex counts: %w", j, err)
			}
			copy(counts[:], w)
		}
		if err := m.readSkinnedVertices(c, g, &g.Meshes[j], counts); err != nil {
			return fmt.Errorf("sub-mesh %d: %w", j, err)
		}
	}
	return nil
}

// readSkinnedVertices reads counts[k] vertices with k stored weights each.
// The weights are kept in reverse order and the missing last one is
// 1 minus the sum of the stored ones.
func (m *Model) readSkinnedVertices(c *binio.Cursor, g *MeshGroup, mesh *MeshRecord, counts [4]int32) error {
	need := 0
	for k, n := range counts {
		if n < 0 {
			return binio.Structuralf("negative vertex count %d in weight group %d", n, k+1)
		}
		need += int(n) * (skinnedStride + 4*k)
	}
	if need > c.Remaining() {
		return binio.Structuralf("weight groups %v need 0x%X bytes, 0x%X left", counts, need, c.Remaining())
	}

	nan := 0
	for k, n := range counts {
		for i := 0; i < int(n); i++ {
			pos, err := readVec3(c)
			if err != nil {
				return err
			}
			norm, err := readVec3(c)
			if err != nil {
				return err
			}
			bones, err := c.ReadBytes(4)
			if err != nil {
				return err
			}
			stored, err := c.ReadF32s(k)
			if err != nil {
				return err
			}

			var weights [4]float32
			var sum float32
			for s, w := range stored {
				if math32.IsNaN(w) {
					w = 0
					nan++
				}
				weights[3-s] = w
				sum += w
			}
			weights[3-k] = 1 - sum

			mesh.Positions = append(mesh.Positions, pos)
			mesh.Normals = append(mesh.Normals, norm)
			mesh.SkinIndices = append(mesh.SkinIndices, [4]uint8{bones[0], bones[1], bones[2], bones[3]})
			mesh.SkinWeights = append(mesh.SkinWeights, weights)
		}
	}
	if nan > 0 {
		m.Diagnostics.Warnf(int64(c.Tell()), "slot %d %q: %d NaN skin weights replaced with 0", g.Slot, g.Name, nan)
	}
	return nil
}

// CompanionPath swaps an .SPM path for its .SPV sibling and back, keeping
// the case of the extension. Other paths yield "".
func CompanionPath(path string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	switch ext {
	case ".SPM":
		return stem + ".SPV"
	case ".SPV":
		return stem + ".SPM"
	case ".spm":
		return stem + ".spv"
	case ".spv":
		return stem + ".spm"
	}
	return ""
}
