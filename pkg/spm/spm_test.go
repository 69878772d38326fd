package spm

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/vesperiatools/pkg/binio"
)

type subMesh struct {
	uvCount uint16
	indices []uint16
}

type slotSpec struct {
	kind     Kind
	material int32
	name     string
	subs     []subMesh
	counts   [4]int32
	fallback int32
	vertices []byte
}

type blob []byte

func (b *blob) i32(vs ...int32) {
	for _, v := range vs {
		*b = binary.LittleEndian.AppendUint32(*b, uint32(v))
	}
}

func (b *blob) u16(vs ...uint16) {
	for _, v := range vs {
		*b = binary.LittleEndian.AppendUint16(*b, v)
	}
}

func (b *blob) f32(vs ...float32) {
	for _, v := range vs {
		*b = binary.LittleEndian.AppendUint32(*b, math.Float32bits(v))
	}
}

func (b *blob) pad4() {
	for len(*b)%4 != 0 {
		*b = append(*b, 0)
	}
}

// buildSPM lays out header, table, summaries, fillers, slot records and the
// hash list, followed by each slot's name, sub-mesh table and vertex data.
func buildSPM(slots []slotSpec, hashes []int32) []byte {
	n := int32(len(slots))
	recBase := 16 + 20 + 48*n
	cur := recBase + 60*n + 4*int32(len(hashes))

	var tail blob
	type ptrs struct{ name, count, vert int32 }
	offs := make([]ptrs, len(slots))
	for i, s := range slots {
		offs[i].name = cur + int32(len(tail))
		tail = append(tail, s.name...)
		tail = append(tail, 0)
		tail.pad4()

		offs[i].count = cur + int32(len(tail))
		tail.i32(int32(len(s.subs)))
		for _, sm := range s.subs {
			tail.u16(sm.uvCount, uint16(len(sm.indices)))
		}
		for _, sm := range s.subs {
			tail.u16(sm.indices...)
		}
		tail.pad4()

		offs[i].vert = cur + int32(len(tail))
		tail = append(tail, s.vertices...)
		tail.pad4()
	}

	var b blob
	b.i32(0, 0, 16, n)
	b.i32(int32(len(hashes)), 0, 0, 0, 0)
	for _, s := range slots {
		b.i32(0, 0, 0, 0)
		b.i32(s.counts[:]...)
	}
	for range slots {
		b.i32(0, 0, 0, 0)
	}
	for i, s := range slots {
		end := recBase + 60*int32(i+1)
		b.i32(int32(s.kind), 0, 0, 0, s.material, 0,
			offs[i].count-(end-36), offs[i].vert-(end-32),
			0, 0, s.fallback, 0, 0,
			offs[i].name-(end-8), 0)
	}
	b.i32(hashes...)
	return append(b, tail...)
}

func skinnedVertex(pos float32, bones [4]byte, weights ...float32) []byte {
	var b blob
	b.f32(pos, pos+1, pos+2)
	b.f32(0, 1, 0)
	b = append(b, bones[:]...)
	b.f32(weights...)
	return b
}

func adjacentPool(n int) []byte {
	var b blob
	for i := 0; i < n; i++ {
		b.f32(float32(i), 0, 0)
		b.f32(0, 0, float32(i))
	}
	return b
}

func farPool(n int) []byte {
	b := make(blob, farNormalOffset+12*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(b[12*i:], math.Float32bits(float32(i+1)))
		binary.LittleEndian.PutUint32(b[farNormalOffset+12*i+8:], math.Float32bits(-float32(i+1)))
	}
	return b
}

func weightSum(w [4]float32) float32 {
	return w[0] + w[1] + w[2] + w[3]
}

func TestDecodeSkinned(t *testing.T) {
	var verts []byte
	verts = append(verts, skinnedVertex(0, [4]byte{1, 0, 0, 0})...)
	verts = append(verts, skinnedVertex(10, [4]byte{1, 2, 0, 0}, 0.25)...)
	verts = append(verts, skinnedVertex(20, [4]byte{1, 2, 3, 0}, 0.5, 0.25)...)
	verts = append(verts, skinnedVertex(30, [4]byte{1, 2, 3, 4}, 0.1, 0.2, 0.3)...)
	var second blob
	second.i32(0, 1, 0, 0)
	verts = append(verts, second...)
	verts = append(verts, skinnedVertex(40, [4]byte{5, 6, 0, 0}, 0.75)...)

	data := buildSPM([]slotSpec{{
		kind:     KindSkinned,
		material: 3,
		name:     "BODY",
		subs: []subMesh{
			{uvCount: 4, indices: []uint16{0, 1, 2, 3}},
			{uvCount: 1, indices: []uint16{0, 0, 0}},
		},
		counts:   [4]int32{1, 1, 1, 1},
		vertices: verts,
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Groups) != 1 || len(m.Groups[0].Meshes) != 2 {
		t.Fatalf("groups %+v", m.Groups)
	}
	g := m.Groups[0]
	if g.Name != "BODY" || g.Kind != KindSkinned {
		t.Errorf("group %q %v", g.Name, g.Kind)
	}

	first := g.Meshes[0]
	if len(first.Positions) != 4 || len(first.Normals) != 4 || len(first.SkinWeights) != 4 {
		t.Fatalf("first sub-mesh has %d positions", len(first.Positions))
	}
	if first.MaterialIndex != 2 || first.UVCountDeclared != 4 {
		t.Errorf("material %d, uv count %d", first.MaterialIndex, first.UVCountDeclared)
	}
	if first.Positions[2] != [3]float32{20, 21, 22} {
		t.Errorf("position %v", first.Positions[2])
	}
	if first.SkinIndices[3] != [4]uint8{1, 2, 3, 4} {
		t.Errorf("bones %v", first.SkinIndices[3])
	}
	if first.SkinWeights[0] != [4]float32{0, 0, 0, 1} {
		t.Errorf("single weight %v", first.SkinWeights[0])
	}
	if first.SkinWeights[1] != [4]float32{0, 0, 0.75, 0.25} {
		t.Errorf("two weights %v", first.SkinWeights[1])
	}
	if w := first.SkinWeights[3]; math32.Abs(w[0]-0.4) > 1e-6 || w[1] != 0.3 || w[2] != 0.2 || w[3] != 0.1 {
		t.Errorf("four weights %v", w)
	}
	if len(first.Triangles) != 2 {
		t.Errorf("triangles %+v", first.Triangles)
	}

	second0 := g.Meshes[1]
	if len(second0.Positions) != 1 || second0.SkinWeights[0] != [4]float32{0, 0, 0.25, 0.75} {
		t.Errorf("second sub-mesh %+v", second0)
	}

	for _, mesh := range g.Meshes {
		for i, w := range mesh.SkinWeights {
			if d := math32.Abs(weightSum(w) - 1); d > 1e-5 {
				t.Errorf("vertex %d weights %v sum off by %g", i, w, d)
			}
		}
	}
}

func TestDecodeSkinnedNaNWeight(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindSkinnedAlt,
		material: 1,
		name:     "ARM",
		subs:     []subMesh{{uvCount: 1}},
		counts:   [4]int32{0, 1, 0, 0},
		vertices: skinnedVertex(0, [4]byte{}, math32.NaN()),
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	w := m.Groups[0].Meshes[0].SkinWeights[0]
	if w != [4]float32{0, 0, 1, 0} {
		t.Errorf("weights %v", w)
	}
	if !m.Diagnostics.HasWarnings() {
		t.Error("expected NaN warning")
	}
}

func TestDecodeUnskinnedFallbackCount(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindUnskinned,
		material: 1,
		name:     "ROCK",
		subs:     []subMesh{{uvCount: 2, indices: []uint16{0, 1, 0}}},
		fallback: 2,
		vertices: farPool(2),
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	mesh := m.Groups[0].Meshes[0]
	if len(mesh.Positions) != 2 || len(mesh.Normals) != 2 {
		t.Fatalf("got %d positions, %d normals", len(mesh.Positions), len(mesh.Normals))
	}
	if mesh.Positions[1] != [3]float32{2, 0, 0} || mesh.Normals[1] != [3]float32{0, 0, -2} {
		t.Errorf("vertex 1: %v %v", mesh.Positions[1], mesh.Normals[1])
	}
}

func TestDecodeBackgroundPartition(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindBackground,
		material: 1,
		name:     "FIELD",
		subs:     []subMesh{{uvCount: 2}, {uvCount: 1}},
		counts:   [4]int32{3},
		vertices: adjacentPool(3),
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	meshes := m.Groups[0].Meshes
	if len(meshes[0].Positions) != 2 || len(meshes[1].Positions) != 1 {
		t.Fatalf("partition %d/%d", len(meshes[0].Positions), len(meshes[1].Positions))
	}
	if meshes[1].Positions[0] != [3]float32{2, 0, 0} || meshes[1].Normals[0] != [3]float32{0, 0, 2} {
		t.Errorf("pooled vertex %v %v", meshes[1].Positions[0], meshes[1].Normals[0])
	}
}

func TestDecodeBackgroundFar(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindBackgroundFar,
		material: 1,
		name:     "SKY",
		subs:     []subMesh{{uvCount: 1}},
		counts:   [4]int32{1},
		vertices: farPool(1),
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	mesh := m.Groups[0].Meshes[0]
	if mesh.Positions[0] != [3]float32{1, 0, 0} || mesh.Normals[0] != [3]float32{0, 0, -1} {
		t.Errorf("got %v %v", mesh.Positions[0], mesh.Normals[0])
	}
}

func TestDecodeCombinedFallback(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindBackgroundAlt,
		material: 1,
		name:     "MERGED",
		counts:   [4]int32{2},
		vertices: adjacentPool(2),
	}}, nil)

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	g := m.Groups[0]
	if !g.Combined || len(g.Meshes) != 1 || len(g.Meshes[0].Positions) != 2 {
		t.Errorf("group %+v", g)
	}
	if len(m.Diagnostics) == 0 {
		t.Error("fallback should be noted")
	}
}

func TestDecodeUnknownKindSkipsSlot(t *testing.T) {
	data := buildSPM([]slotSpec{
		{kind: 999, material: 1, name: "ODD", subs: []subMesh{{uvCount: 1}}, vertices: []byte{1, 2, 3, 4}},
		{kind: KindBackground, material: 1, name: "OK", subs: []subMesh{{uvCount: 1}}, counts: [4]int32{1}, vertices: adjacentPool(1)},
	}, []int32{7, 9})

	m, err := Decode(data, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Groups) != 1 || m.Groups[0].Slot != 1 || m.Groups[0].Name != "OK" {
		t.Fatalf("groups %+v", m.Groups)
	}
	if len(m.Skipped) != 1 || m.Skipped[0].Kind != 999 || len(m.Skipped[0].Raw) == 0 || len(m.Skipped[0].Raw) > 48 {
		t.Fatalf("skipped %+v", m.Skipped)
	}
	if !errors.Is(m.Skipped[0], ErrUnknownMeshKind) {
		t.Error("UnknownMeshKindError should match ErrUnknownMeshKind")
	}
	if !m.Diagnostics.HasWarnings() {
		t.Error("expected a warning")
	}
	if len(m.HashList) != 2 || m.HashList[0] != 7 || m.HashList[1] != 9 {
		t.Errorf("hash list %v", m.HashList)
	}
}

func TestMergeUV(t *testing.T) {
	data := buildSPM([]slotSpec{{
		kind:     KindBackground,
		material: 1,
		name:     "UVS",
		subs:     []subMesh{{uvCount: 3}},
		counts:   [4]int32{3},
		vertices: adjacentPool(3),
	}}, nil)

	var spv blob
	spv.f32(9, 0.25, 0.75, 9, 9)
	spv.f32(9, math32.NaN(), 0.5, 9, 9)
	spv.f32(9, 0.5) // cut short

	m, err := Decode(data, spv, Options{})
	if err != nil {
		t.Fatal(err)
	}
	uvs := m.Groups[0].Meshes[0].UVs
	want := [][2]float32{{0.25, 0.25}, {0, 0.5}, {0, 0}}
	if len(uvs) != len(want) {
		t.Fatalf("got %v", uvs)
	}
	for i := range want {
		if uvs[i] != want[i] {
			t.Errorf("uv %d: got %v, want %v", i, uvs[i], want[i])
		}
	}
	if n := len(m.Diagnostics.Warnings()); n != 2 {
		t.Errorf("expected NaN and short-read warnings, got %v", m.Diagnostics)
	}
}

func TestMergeUVStepsOverSkippedSlot(t *testing.T) {
	data := buildSPM([]slotSpec{
		{kind: 999, material: 1, name: "ODD", subs: []subMesh{{uvCount: 1}}, vertices: []byte{1, 2, 3, 4}},
		{kind: KindBackground, material: 1, name: "OK", subs: []subMesh{{uvCount: 1}}, counts: [4]int32{1}, vertices: adjacentPool(1)},
	}, nil)

	var spv blob
	spv.f32(0, 0.1, 0, 0, 0)
	spv.f32(0, 0.9, 0, 0, 0)

	m, err := Decode(data, spv, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Skipped) != 1 || len(m.Skipped[0].UVCounts) != 1 || m.Skipped[0].UVCounts[0] != 1 {
		t.Fatalf("skipped %+v", m.Skipped)
	}
	uvs := m.Groups[0].Meshes[0].UVs
	if len(uvs) != 1 || uvs[0] != [2]float32{0.9, 1} {
		t.Errorf("slot OK got UVs %v, want [[0.9 1]]", uvs)
	}
}

func TestDecodeRejectsOversizedVertexCount(t *testing.T) {
	huge := int32(0x7FFFFFFF)
	for _, kind := range []Kind{KindBackground, KindBackgroundFar, KindUnskinned, KindSkinned} {
		data := buildSPM([]slotSpec{
			{kind: kind, material: 1, name: "BIG", subs: []subMesh{{uvCount: 1}}, counts: [4]int32{huge}, vertices: adjacentPool(1)},
		}, nil)
		if _, err := Decode(data, nil, Options{}); !errors.Is(err, binio.ErrStructural) {
			t.Errorf("kind %s: expected ErrStructural, got %v", kind, err)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{1, 2}, nil, Options{}); !errors.Is(err, binio.ErrUnexpectedEOF) {
		t.Errorf("short file: %v", err)
	}

	var b blob
	b.i32(0, 0, 0x1000, 1)
	if _, err := Decode(b, nil, Options{}); !errors.Is(err, binio.ErrSeekOutOfRange) {
		t.Errorf("bad table offset: %v", err)
	}

	b = nil
	b.i32(0, 0, 16, 50)
	b.i32(0, 0, 0, 0, 0)
	if _, err := Decode(b, nil, Options{}); !errors.Is(err, binio.ErrStructural) {
		t.Errorf("slot count past end: %v", err)
	}
}

func TestCompanionPath(t *testing.T) {
	tests := map[string]string{
		"out/CH_YUR.SPM": "out/CH_YUR.SPV",
		"CH_YUR.SPV":     "CH_YUR.SPM",
		"a.spm":          "a.spv",
		"a.mtr":          "",
	}
	for in, want := range tests {
		if got := CompanionPath(in); got != want {
			t.Errorf("CompanionPath(%q) = %q, want %q", in, got, want)
		}
	}
}
