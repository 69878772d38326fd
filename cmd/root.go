package cmd

import (
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	"github.com/vesperiatools/internal/config"
	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/filetype"
)

var (
	rootVerbose  bool
	rootConfig   string
	rootPlatform string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vesperiatools",
	Short: "Tools for Tales of Vesperia game files",
	Long: `vesperiatools decodes the asset formats of Tales of Vesperia.

Supported operations:
  - Extract FPS4 and SVO archives, including TLZC-compressed ones
  - Compress and decompress TLZC / LZSS streams
  - Repack a directory into an FPS4 archive
  - Convert SPM/SPV meshes to OBJ and MTR materials to MTL
  - Cut DDS textures out of TXM/TXV pairs, with PNG/BMP/TGA/WebP previews
  - Guess package names from embedded strings`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.SetHandler(cli.New(os.Stderr))
		if rootVerbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}

		loaded, err := config.LoadOptional(rootConfig)
		if err != nil {
			return err
		}
		cfg = loaded
		cfg.Resolve(config.Flags{Platform: rootPlatform})
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false,
		"print verbose progress information")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "",
		"JSON config file (default: "+config.DefaultPath+" when present)")
	rootCmd.PersistentFlags().StringVarP(&rootPlatform, "platform", "p", "",
		"type table for archive members: pc or x360")
}

func platform() (filetype.Platform, error) {
	p, err := filetype.ParsePlatform(cfg.Platform)
	if err != nil {
		return p, fmt.Errorf("invalid platform: %w", err)
	}
	return p, nil
}

// reportDiagnostics replays decode diagnostics through the logger.
func reportDiagnostics(file string, list diag.List) {
	for _, d := range list {
		ctx := log.WithField("file", file)
		if d.Offset >= 0 {
			ctx = ctx.WithField("offset", fmt.Sprintf("0x%X", d.Offset))
		}
		if d.Severity == diag.Warning {
			ctx.Warn(d.Message)
		} else {
			ctx.Debug(d.Message)
		}
	}
}
