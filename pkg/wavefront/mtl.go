package wavefront

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vesperiatools/pkg/mtr"
)

// TextureExt is appended to every texture reference.
const TextureExt = ".dds"

// MapKind picks the MTL map statement for a texture. Names ending in "H"
// are highlight maps.
func MapKind(texture string) string {
	if strings.HasSuffix(texture, "H") {
		return "map_Ns"
	}
	return "map_Kd"
}

// WriteMaterial writes one newmtl block.
func WriteMaterial(w io.Writer, mat *mtr.Material) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "newmtl %s\n", mat.MaterialName)
	for _, tex := range mat.TextureNames {
		fmt.Fprintf(bw, "%s %s%s\n", MapKind(tex), tex, TextureExt)
	}
	return bw.Flush()
}

// MTLFiles renders one MTL file per material. Later materials with the same
// name replace earlier ones.
func MTLFiles(t *mtr.Table) []File {
	var files []File
	index := make(map[string]int)
	for i := range t.Materials {
		mat := &t.Materials[i]
		var buf bytes.Buffer
		WriteMaterial(&buf, mat)

		name := SanitizeName(mat.MaterialName) + ".mtl"
		if j, ok := index[name]; ok {
			files[j].Data = buf.Bytes()
			continue
		}
		index[name] = len(files)
		files = append(files, File{Name: name, Data: buf.Bytes()})
	}
	return files
}
