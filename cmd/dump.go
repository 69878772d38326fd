package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/asset"
	"github.com/vesperiatools/pkg/fps4"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Display the structure of a game file",
	Long: `Display the decoded structure of an archive, mesh, material table or
texture directory without writing anything.

Shows:
  - Archive flags and every member with offset, size and naming source
  - Mesh groups with their kind and sub-mesh sizes
  - Materials with their textures
  - Texture names and DDS spans

Examples:
  vesperiatools dump CHARA.DAT --deep
  vesperiatools dump CH_YUR.SPM`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

var dumpDeep bool

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().BoolVar(&dumpDeep, "deep", false,
		"list members of nested archives")
}

func runDump(cmd *cobra.Command, args []string) error {
	file := args[0]

	// Check file exists
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", file)
	}

	opts, err := assetOptions(dumpDeep)
	if err != nil {
		return err
	}
	node, err := asset.Open(file, opts)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", file)
	switch n := node.(type) {
	case *asset.ArchiveNode:
		h := n.Archive.Header
		fmt.Printf("Format: FPS4, flags 0x%04X, descriptor size 0x%X\n", uint16(h.Flags), h.DescriptorSize)
		fmt.Printf("Files: %d\n", h.Count)
		fmt.Println()
		fps4.Walk(n.Archive, func(p string, f *fps4.File) error {
			indent := strings.Repeat("  ", strings.Count(p, "/"))
			fmt.Printf("  %s%-32s 0x%08X %10d  %s", indent, path.Base(p), f.Entry.Offset, f.Entry.RealSize, f.Source)
			if f.Entry.Arg != "" {
				fmt.Printf("  arg=%s", f.Entry.Arg)
			}
			fmt.Println()
			return nil
		})

	case *asset.RawNode:
		fmt.Printf("Format: TLZC (%s), %d bytes decompressed\n", n.Compressed.Stream.Variant, len(n.Compressed.Data))

	case *asset.MeshNode:
		m := n.Model
		fmt.Printf("Format: SPM, %d slots\n", m.Header.SlotCount)
		for _, g := range m.Groups {
			fmt.Printf("  [%d] %s (%s), %d meshes\n", g.Slot, g.Name, g.Kind, len(g.Meshes))
			for _, mesh := range g.Meshes {
				fmt.Printf("      %-24s %6d verts %6d uvs %6d tris\n", mesh.Name, len(mesh.Positions), len(mesh.UVs), len(mesh.Triangles))
			}
		}
		for _, s := range m.Skipped {
			fmt.Printf("  [%d] skipped: %v\n", s.Slot, s)
		}

	case *asset.MaterialNode:
		fmt.Printf("Format: MTR, %d materials\n", n.Table.Count)
		for _, mat := range n.Table.Materials {
			fmt.Printf("  %s: %s\n", mat.MaterialName, strings.Join(mat.TextureNames, ", "))
		}

	case *asset.TextureNode:
		fmt.Printf("Format: TXM, %d images, stride 0x%X\n", n.Set.Header.ImageCount, n.Set.Stride)
		for _, img := range n.Set.Images {
			fmt.Printf("  %-24s 0x%08X..0x%08X\n", img.Name, img.Start, img.End)
		}
	}

	reportDiagnostics(file, node.Diagnostics())
	return nil
}
