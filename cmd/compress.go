package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/lzss"
	"github.com/vesperiatools/pkg/tlzc"
)

var (
	compressOutput  string
	compressVariant uint8
)

var compressCmd = &cobra.Command{
	Use:   "compress <input> [output]",
	Short: "Compress a file as TLZC",
	Long: `Wrap a file in a TLZC container compressed with LZSS type 1 or 3.

Examples:
  vesperiatools compress MAP.FPS4 MAP.TLZC
  vesperiatools compress MAP.FPS4 --variant 1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCompress,
}

func init() {
	rootCmd.AddCommand(compressCmd)

	compressCmd.Flags().StringVarP(&compressOutput, "output", "o", "",
		"output file (default: <input>.TLZC)")
	compressCmd.Flags().Uint8Var(&compressVariant, "variant", uint8(lzss.Type3),
		"LZSS type (1 or 3)")
}

func runCompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	output := compressOutput
	if output == "" {
		if len(args) > 1 {
			output = args[1]
		} else {
			output = input + ".TLZC"
		}
	}

	packed, err := tlzc.Encode(data, lzss.Variant(compressVariant))
	if err != nil {
		return fmt.Errorf("failed to compress %s: %w", input, err)
	}
	if err := os.WriteFile(output, packed, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	fmt.Printf("Compressed: %s (%d -> %d bytes)\n", output, len(data), len(packed))
	return nil
}
