package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/lzss"
	"github.com/vesperiatools/pkg/tlzc"
)

var (
	decompressOutput  string
	decompressRaw     bool
	decompressVariant uint8
	decompressSize    int
)

var decompressCmd = &cobra.Command{
	Use:   "decompress <input> [output]",
	Short: "Decompress a TLZC file or LZSS stream",
	Long: `Decompress a TLZC file, a bare LZSS stream with its 9-byte header, or
a headerless LZSS payload.

Examples:
  # TLZC file, output next to the input as .bin
  vesperiatools decompress MAP.TLZC

  # Stream with header (type, compressed size, decompressed size)
  vesperiatools decompress chunk.lz map.bin --raw

  # Headerless type 3 payload
  vesperiatools decompress chunk.lz --variant 3 --size 65536`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDecompress,
}

func init() {
	rootCmd.AddCommand(decompressCmd)

	decompressCmd.Flags().StringVarP(&decompressOutput, "output", "o", "",
		"output file")
	decompressCmd.Flags().BoolVar(&decompressRaw, "raw", false,
		"input is an LZSS stream with its header, not a TLZC file")
	decompressCmd.Flags().Uint8Var(&decompressVariant, "variant", 0,
		"decode a headerless payload with this LZSS type (1 or 3)")
	decompressCmd.Flags().IntVar(&decompressSize, "size", 0,
		"expected output size for headerless payloads")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	output := decompressOutput
	if output == "" {
		if len(args) > 1 {
			output = args[1]
		} else {
			output = strings.TrimSuffix(input, filepath.Ext(input)) + ".bin"
		}
	}

	var out []byte
	switch {
	case decompressVariant != 0:
		out, err = lzss.Decompress(data, lzss.Variant(decompressVariant), decompressSize)
	case decompressRaw:
		out, err = tlzc.DecompressStream(data)
	default:
		var res *tlzc.Result
		res, err = tlzc.Decode(data)
		if err == nil {
			reportDiagnostics(input, res.Diagnostics)
			out = res.Data
		}
	}
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", input, err)
	}

	if err := os.WriteFile(output, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("Decompressed: %s (%d -> %d bytes)\n", filepath.Base(output), len(data), len(out))
	return nil
}
