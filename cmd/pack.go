package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/fps4"
	"github.com/vesperiatools/pkg/lzss"
	"github.com/vesperiatools/pkg/tlzc"
)

var (
	packOutput   string
	packAlign    int
	packCompress bool
)

var packCmd = &cobra.Command{
	Use:   "pack <input_dir>",
	Short: "Pack a directory into an FPS4 archive",
	Long: `Pack the files of a directory into a new FPS4 archive.

Files are stored in name order with their names. An arg_list.txt left by
extract restores the argument strings of the entries it lists.

Examples:
  # Repack an extracted directory
  vesperiatools pack out/CHARA -o CHARA.DAT

  # Align member data to 0x80 and wrap the result in TLZC
  vesperiatools pack out/MAP -o MAP.DAT --align 128 --compress`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().StringVarP(&packOutput, "output", "o", "",
		"output archive (default: <input_dir>.FPS4)")
	packCmd.Flags().IntVar(&packAlign, "align", 0,
		"member data alignment in bytes")
	packCmd.Flags().BoolVar(&packCompress, "compress", false,
		"wrap the archive in TLZC")
}

func runPack(cmd *cobra.Command, args []string) error {
	inputDir := args[0]

	// Check input directory exists
	if info, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory not found: %s", inputDir)
	} else if !info.IsDir() {
		return fmt.Errorf("input path is not a directory: %s", inputDir)
	}

	output := packOutput
	if output == "" {
		output = filepath.Clean(inputDir) + ".FPS4"
	}

	fmt.Printf("Input directory: %s\n", inputDir)
	fmt.Printf("Output: %s\n", output)
	fmt.Println()

	packer := fps4.NewPacker(inputDir, fps4.PackOptions{
		Alignment: packAlign,
		Verbose:   rootVerbose,
	})
	if err := packer.Pack(output); err != nil {
		return fmt.Errorf("packing failed: %w", err)
	}

	if packCompress {
		data, err := os.ReadFile(output)
		if err != nil {
			return err
		}
		packed, err := tlzc.Encode(data, lzss.Type3)
		if err != nil {
			return fmt.Errorf("failed to compress archive: %w", err)
		}
		if err := os.WriteFile(output, packed, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
	}

	fmt.Println("Packing complete!")
	return nil
}
