package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/asset"
)

var (
	objOutput string

	mtlOutput string

	texturesOutput      string
	texturesPreview     string
	texturesPreviewSize int
	texturesFlip        bool
)

var objCmd = &cobra.Command{
	Use:   "obj <file.SPM>",
	Short: "Convert an SPM/SPV mesh pair to Wavefront OBJ",
	Long: `Convert an SPM mesh to one OBJ file per sub-mesh. UVs are read from the
SPV file beside it when present.

Examples:
  vesperiatools obj CH_YUR.SPM -o meshes/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(args[0], objOutput, "mesh", nil)
	},
}

var mtlCmd = &cobra.Command{
	Use:   "mtl <file.MTR>",
	Short: "Convert an MTR material table to Wavefront MTL",
	Long: `Write one MTL file per material. Texture names ending in "H" become
highlight maps (map_Ns), the rest diffuse maps (map_Kd).

Examples:
  vesperiatools mtl CH_YUR.MTR -o materials/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return convert(args[0], mtlOutput, "material", nil)
	},
}

var texturesCmd = &cobra.Command{
	Use:   "textures <file.TXM>",
	Short: "Extract DDS textures from a TXM/TXV pair",
	Long: `Cut the DDS images listed in a TXM file out of the TXV beside it.
Optionally decode each image and write a preview next to it.

Examples:
  vesperiatools textures CH_YUR.TXM
  vesperiatools textures CH_YUR.TXM --preview webp --preview-size 512`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prev, err := previewOptions(texturesPreview, texturesPreviewSize, texturesFlip)
		if err != nil {
			return err
		}
		return convert(args[0], texturesOutput, "texture", &exportOptions{Preview: prev})
	},
}

func init() {
	rootCmd.AddCommand(objCmd, mtlCmd, texturesCmd)

	objCmd.Flags().StringVarP(&objOutput, "output", "o", "",
		"output directory")
	mtlCmd.Flags().StringVarP(&mtlOutput, "output", "o", "",
		"output directory")
	texturesCmd.Flags().StringVarP(&texturesOutput, "output", "o", "",
		"output directory")
	texturesCmd.Flags().StringVar(&texturesPreview, "preview", "",
		"also write previews: png, bmp, tga or webp")
	texturesCmd.Flags().IntVar(&texturesPreviewSize, "preview-size", 0,
		"scale previews down to this many pixels on the longest edge")
	texturesCmd.Flags().BoolVar(&texturesFlip, "flip", false,
		"flip previews vertically")
}

// convert opens input, checks it decoded to the wanted kind and exports it.
func convert(input, output, want string, base *exportOptions) error {
	opts, err := assetOptions(false)
	if err != nil {
		return err
	}
	node, err := asset.Open(input, opts)
	if err != nil {
		return err
	}
	reportDiagnostics(input, node.Diagnostics())

	if got := nodeKind(node); got != want {
		return fmt.Errorf("%s is a %s file, not a %s", input, got, want)
	}

	eo := exportOptions{}
	if base != nil {
		eo = *base
	}
	eo.OutputDir = outputDir(output)
	eo.Verbose = rootVerbose

	n, err := exportNode(node, eo)
	if err != nil {
		return err
	}
	fmt.Printf("Converted: %s (%d files)\n", node.Name(), n)
	return nil
}

func nodeKind(node asset.Node) string {
	switch node.(type) {
	case *asset.ArchiveNode:
		return "archive"
	case *asset.RawNode:
		return "compressed"
	case *asset.MeshNode:
		return "mesh"
	case *asset.MaterialNode:
		return "material"
	case *asset.TextureNode:
		return "texture"
	}
	return "unknown"
}
