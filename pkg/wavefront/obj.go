// Package wavefront writes decoded meshes and materials as Wavefront OBJ and
// MTL text.
package wavefront

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/vesperiatools/pkg/spm"
)

// File is one generated output file.
type File struct {
	Name string
	Data []byte
}

// SanitizeName makes a mesh or material name safe to use as a file name.
// Spaces become underscores and anything other than letters, digits, '_',
// '-' and '.' is dropped.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			return r
		}
		return -1
	}, name)
}

// WriteMesh writes one sub-mesh as an OBJ object. base is the number of
// vertices already written to the same file and offsets the face indices.
func WriteMesh(w io.Writer, index int, name string, mesh *spm.MeshRecord, base int) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# submesh %d: %s\n", index+1, name)
	fmt.Fprintf(bw, "o %s\n", name)
	bw.WriteString("s 1\n")

	for _, p := range mesh.Positions {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", p[0], p[1], p[2])
	}
	for _, n := range mesh.Normals {
		fmt.Fprintf(bw, "vn %.6f %.6f %.6f\n", n[0], n[1], n[2])
	}
	for _, uv := range mesh.UVs {
		fmt.Fprintf(bw, "vt %.6f %.6f\n", uv[0], uv[1])
	}

	for i, tri := range mesh.Triangles {
		if i == 0 || tri.Group != mesh.Triangles[i-1].Group {
			fmt.Fprintf(bw, "# group %d\n", tri.Group)
		}
		a := int(tri.Indices[0]) + base + 1
		b := int(tri.Indices[1]) + base + 1
		c := int(tri.Indices[2]) + base + 1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}

// OBJFiles renders every sub-mesh of m into its own OBJ file named after
// the mesh. A mesh named like the one before it in the same group gets its
// index appended. Meshes from different groups that share a name go into
// the same file.
func OBJFiles(m *spm.Model) []File {
	var order []string
	bufs := make(map[string]*bytes.Buffer)
	verts := make(map[string]int)

	for gi := range m.Groups {
		g := &m.Groups[gi]
		prev := ""
		for i := range g.Meshes {
			mesh := &g.Meshes[i]
			name := mesh.Name
			if i > 0 && name == prev {
				name = fmt.Sprintf("%s_%d", name, i)
			}
			prev = mesh.Name

			clean := SanitizeName(name)
			if clean == "" {
				clean = fmt.Sprintf("MESH%d_%d", g.Slot, i)
			}
			fileName := clean + ".obj"

			buf, ok := bufs[fileName]
			if !ok {
				buf = &bytes.Buffer{}
				bufs[fileName] = buf
				order = append(order, fileName)
			}
			// Writes to a bytes.Buffer cannot fail.
			WriteMesh(buf, i, clean, mesh, verts[fileName])
			verts[fileName] += len(mesh.Positions)
		}
	}

	files := make([]File, 0, len(order))
	for _, name := range order {
		files = append(files, File{Name: name, Data: bufs[name].Bytes()})
	}
	return files
}
