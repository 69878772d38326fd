package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/apex/log"

	"github.com/vesperiatools/internal/outdir"
	"github.com/vesperiatools/pkg/asset"
	"github.com/vesperiatools/pkg/dds"
	"github.com/vesperiatools/pkg/preview"
	"github.com/vesperiatools/pkg/wavefront"
)

// exportOptions controls how a decoded node is written out.
type exportOptions struct {
	OutputDir      string
	Filter         string
	Clean          bool
	KeepContainers bool
	Preview        *preview.Options // nil skips previews
	Verbose        bool
}

// exportNode writes node below opts.OutputDir in a directory named after
// it and returns the number of files written.
func exportNode(node asset.Node, opts exportOptions) (int, error) {
	dir := filepath.Join(opts.OutputDir, node.Name())

	switch n := node.(type) {
	case *asset.ArchiveNode:
		stats, err := outdir.NewExtractor(n.Archive, outdir.ExtractOptions{
			Filter:         opts.Filter,
			OutputDir:      dir,
			Verbose:        opts.Verbose,
			Clean:          opts.Clean,
			KeepContainers: opts.KeepContainers,
		}).Extract()
		reportDiagnostics(dir, stats.Diagnostics)
		return stats.Files, err

	case *asset.RawNode:
		files := map[string][]byte{node.Name() + ".bin": n.Compressed.Data}
		return writeFiles(opts.OutputDir, files, opts.Verbose)

	case *asset.MeshNode:
		return writeGenerated(dir, wavefront.OBJFiles(n.Model), opts.Verbose)

	case *asset.MaterialNode:
		return writeGenerated(dir, wavefront.MTLFiles(n.Table), opts.Verbose)

	case *asset.TextureNode:
		files := make(map[string][]byte, len(n.Set.Images))
		for i := range n.Set.Images {
			img := &n.Set.Images[i]
			files[img.FileName()] = img.DDS
			if opts.Preview == nil {
				continue
			}
			data, err := renderPreview(img.DDS, *opts.Preview)
			if err != nil {
				log.WithField("image", img.Name).WithError(err).Warn("preview skipped")
				continue
			}
			files[img.Name+opts.Preview.Format.Ext()] = data
		}
		return writeFiles(dir, files, opts.Verbose)
	}

	return 0, fmt.Errorf("%w: %T", asset.ErrUnsupported, node)
}

func writeGenerated(dir string, generated []wavefront.File, verbose bool) (int, error) {
	files := make(map[string][]byte, len(generated))
	for _, f := range generated {
		files[f.Name] = f.Data
	}
	return writeFiles(dir, files, verbose)
}

func writeFiles(dir string, files map[string][]byte, verbose bool) (int, error) {
	diags, err := outdir.WriteFiles(dir, files, verbose)
	reportDiagnostics(dir, diags)
	return len(files), err
}

func renderPreview(data []byte, opts preview.Options) ([]byte, error) {
	img, _, err := dds.Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := preview.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// previewOptions builds preview settings from flags and config, or nil when
// no format was asked for.
func previewOptions(format string, size int, flip bool) (*preview.Options, error) {
	if format == "" {
		format = cfg.PreviewFormat
	}
	if size <= 0 {
		size = cfg.PreviewSize
	}
	if format == "" {
		return nil, nil
	}
	f, err := preview.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &preview.Options{Format: f, MaxSize: size, FlipV: flip}, nil
}

// assetOptions builds decoder options from the resolved config.
func assetOptions(deep bool) (asset.Options, error) {
	p, err := platform()
	if err != nil {
		return asset.Options{}, err
	}
	opts := asset.Options{}
	opts.Archive.Platform = p
	opts.Archive.Deep = deep || cfg.DeepExtract
	return opts, nil
}

func outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.OutputDir
}
