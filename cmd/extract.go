package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/asset"
	"github.com/vesperiatools/pkg/fps4"
)

var (
	extractFilter         string
	extractOutput         string
	extractDeep           bool
	extractClean          bool
	extractKeepContainers bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract files from FPS4 and SVO archives",
	Long: `Extract the members of a Tales of Vesperia archive.

Supported formats:
  FPS4: the generic container (.DAT, .FPS4, .TO8CHLI, ...)
  SVO:  FPS4 with members aligned to 0x80 (.SVO)
  TLZC: compressed wrapper, decompressed before unpacking

Members without a stored name are named from their data type, type code
or the name of the entry before them. Entries with an argument string are
listed in arg_list.txt beside the extracted files.

Examples:
  # Extract an archive to out/CHARA
  vesperiatools extract CHARA.DAT

  # Unpack nested FPS4 members as subdirectories
  vesperiatools extract CHARA.DAT --deep

  # Xbox 360 type codes, drop placeholder members
  vesperiatools extract CHARA.DAT -p x360 --clean -o extracted/`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractFilter, "filter", "f", "",
		"filter extracted files (case-insensitive substring match)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "",
		"output directory for extracted files")
	extractCmd.Flags().BoolVar(&extractDeep, "deep", false,
		"unpack nested FPS4 archives")
	extractCmd.Flags().BoolVar(&extractClean, "clean", false,
		"remove EMPTY/NONAME placeholder members")
	extractCmd.Flags().BoolVar(&extractKeepContainers, "keep-containers", false,
		"also write nested archives as files")
}

func runExtract(cmd *cobra.Command, args []string) error {
	archivePath := args[0]

	// Check file exists
	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		return fmt.Errorf("archive not found: %s", archivePath)
	}

	opts, err := assetOptions(extractDeep)
	if err != nil {
		return err
	}
	node, err := asset.Open(archivePath, opts)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	reportDiagnostics(archivePath, node.Diagnostics())

	if an, ok := node.(*asset.ArchiveNode); ok {
		fmt.Printf("Extracting: %s\n", filepath.Base(archivePath))
		if an.Compressed != nil {
			fmt.Printf("Compressed: %s, %d -> %d bytes\n",
				an.Compressed.Stream.Variant, an.Compressed.Header.TotalSize, len(an.Compressed.Data))
		}
		fmt.Printf("Flags: 0x%04X\n", uint16(an.Archive.Header.Flags))
		fmt.Printf("Files: %d (%d with nested)\n", len(an.Archive.Files), an.Archive.Count())
		fps4.Walk(an.Archive, func(p string, f *fps4.File) error {
			if f.Archive != nil {
				reportDiagnostics(p, f.Archive.Diagnostics)
			}
			return nil
		})
	} else if _, ok := node.(*asset.RawNode); !ok {
		return fmt.Errorf("%s is not an archive", archivePath)
	}

	if extractFilter != "" {
		fmt.Printf("Filter: %s\n", extractFilter)
	}
	fmt.Println()

	n, err := exportNode(node, exportOptions{
		OutputDir:      outputDir(extractOutput),
		Filter:         extractFilter,
		Clean:          extractClean,
		KeepContainers: extractKeepContainers,
		Verbose:        rootVerbose,
	})
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	fmt.Printf("Extraction complete! %d files written\n", n)
	return nil
}
