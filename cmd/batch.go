package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/vesperiatools/internal/batch"
	"github.com/vesperiatools/internal/config"
	"github.com/vesperiatools/pkg/asset"
)

var (
	batchOutput   string
	batchWorkers  int
	batchDeep     bool
	batchManifest string
	batchPreview  string
)

var batchCmd = &cobra.Command{
	Use:   "batch <file|dir>...",
	Short: "Decode many files in parallel",
	Long: `Decode every given file, or every file below the given directories, and
export each one the way its own subcommand would. SPV and TXV halves are
picked up through their SPM and TXM partners. A file that fails is reported
and the rest continue.

Examples:
  vesperiatools batch data/ -o out/ --workers 8
  vesperiatools batch *.DAT --deep --manifest out/manifest.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "",
		"output directory")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0,
		"number of parallel workers (default: CPU count)")
	batchCmd.Flags().BoolVar(&batchDeep, "deep", false,
		"unpack nested FPS4 archives")
	batchCmd.Flags().StringVar(&batchManifest, "manifest", "",
		"write a JSON summary of the results")
	batchCmd.Flags().StringVar(&batchPreview, "preview", "",
		"write texture previews in this format")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg.Resolve(config.Flags{Workers: batchWorkers, OutputDir: batchOutput, Deep: batchDeep})

	paths, err := collectInputs(args)
	if err != nil {
		return err
	}
	opts, err := assetOptions(batchDeep)
	if err != nil {
		return err
	}
	prev, err := previewOptions(batchPreview, 0, false)
	if err != nil {
		return err
	}

	fmt.Printf("Files: %d\n", len(paths))
	fmt.Printf("Workers: %d\n", cfg.Workers)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := batch.Run(ctx, batch.Config{Workers: cfg.Workers, Logger: log.Log}, paths,
		func(ctx context.Context, path string) batch.Result {
			node, err := asset.Open(path, opts)
			if err != nil {
				return batch.Result{Err: err}
			}
			diags := node.Diagnostics()
			reportDiagnostics(path, diags)

			n, err := exportNode(node, exportOptions{
				OutputDir: cfg.OutputDir,
				Preview:   prev,
				Verbose:   rootVerbose,
			})
			return batch.Result{
				Kind:     nodeKind(node),
				Outputs:  n,
				Warnings: len(diags.Warnings()),
				Err:      err,
			}
		})

	for _, r := range results {
		if r.Err != nil {
			log.WithField("file", r.Path).WithError(r.Err).Error("failed")
		}
	}
	if batchManifest != "" {
		if err := batch.WriteManifest(batchManifest, results); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
	}

	failed := batch.Failed(results)
	fmt.Printf("Processed %d files, %d failed\n", len(results), failed)
	if failed == len(results) && failed > 0 {
		return fmt.Errorf("all %d files failed", failed)
	}
	return nil
}

// collectInputs expands directories into their files. Companion halves
// (.SPV, .TXV) are dropped when their partner is in the list.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input not found: %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				paths = append(paths, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	have := make(map[string]bool, len(paths))
	for _, p := range paths {
		have[strings.ToUpper(p)] = true
	}
	partner := map[string]string{".SPV": ".SPM", ".TXV": ".TXM"}

	out := paths[:0]
	for _, p := range paths {
		ext := strings.ToUpper(filepath.Ext(p))
		if other, ok := partner[ext]; ok {
			if have[strings.ToUpper(strings.TrimSuffix(p, filepath.Ext(p))+other)] {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}
