package spm

// StripRestart separates triangle strips inside an index stream.
const StripRestart = 0xFFFF

// CreateFaces turns a strip index stream into triangles. Every window of
// three indices is a candidate face. A window starting the stream or
// starting with a restart opens a new group and resets the winding; windows
// containing a restart emit nothing. Winding alternates after each emitted
// face, with every second face reversed.
func CreateFaces(indices []uint16) []Triangle {
	if len(indices) < 3 {
		return nil
	}

	var tris []Triangle
	group := uint32(1)
	clockwise := false
	for i := 0; i+2 < len(indices); i++ {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if i == 0 || a == StripRestart {
			group++
			clockwise = true
		}
		if a == StripRestart || b == StripRestart || c == StripRestart {
			continue
		}

		t := Triangle{Group: group, Indices: [3]uint32{uint32(a), uint32(b), uint32(c)}}
		if !clockwise {
			t.Indices[0], t.Indices[2] = t.Indices[2], t.Indices[0]
		}
		tris = append(tris, t)
		clockwise = !clockwise
	}
	return tris
}

// BuildFaces rebuilds Triangles from IndexStream.
func (r *MeshRecord) BuildFaces() {
	r.Triangles = CreateFaces(r.IndexStream)
}
