package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vesperiatools/pkg/pkgname"
	"github.com/vesperiatools/pkg/tlzc"
)

var namesFallback bool

var namesCmd = &cobra.Command{
	Use:   "names <file>",
	Short: "Guess package names from embedded strings",
	Long: `List the file names with known extensions embedded in a file, in order
of first appearance. TLZC input is decompressed first.

With --fallback every upper-case identifier is listed when no such name is
found. Expect noise.

Examples:
  vesperiatools names CHARA.DAT
  vesperiatools names BTL.DAT --fallback`,
	Args: cobra.ExactArgs(1),
	RunE: runNames,
}

func init() {
	rootCmd.AddCommand(namesCmd)

	namesCmd.Flags().BoolVar(&namesFallback, "fallback", false,
		"list generic identifiers when no file name is found")
}

func runNames(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if tlzc.IsTLZC(data) {
		res, err := tlzc.Decode(data)
		if err != nil {
			return fmt.Errorf("failed to decompress %s: %w", args[0], err)
		}
		data = res.Data
	}

	cands := pkgname.Infer(data)
	if len(cands) == 0 && namesFallback {
		fmt.Println("No file names found, generic identifiers:")
		cands = pkgname.InferFallback(data)
	}
	for _, c := range cands {
		fmt.Printf("  0x%08X  %s\n", c.Offset, c.Name)
	}
	if stems := pkgname.Stems(cands); len(stems) > 0 && cands[0].Ext != "" {
		fmt.Printf("Package: %s\n", stems[0])
	}
	return nil
}
