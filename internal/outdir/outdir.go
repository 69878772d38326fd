package outdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/filetype"
	"github.com/vesperiatools/pkg/fps4"
)

// ExtractOptions configures the extraction process.
type ExtractOptions struct {
	Filter         string // Only extract files containing this string (case-insensitive)
	OutputDir      string // Output directory (default: "out")
	Verbose        bool   // Print detailed progress
	Clean          bool   // Drop placeholder leftovers (fps4.LeftoverNames)
	KeepContainers bool   // Also write nested archives as files
}

// Stats summarises one extraction.
type Stats struct {
	Files   int
	Dirs    int
	Bytes   int64
	Removed int

	// Diagnostics lists member names that had to be flattened.
	Diagnostics diag.List
}

// Extractor writes a decoded archive tree to disk.
type Extractor struct {
	archive *fps4.Archive
	opts    ExtractOptions
	stats   Stats
}

// NewExtractor creates a new extractor for the given archive.
func NewExtractor(a *fps4.Archive, opts ExtractOptions) *Extractor {
	if opts.OutputDir == "" {
		opts.OutputDir = "out"
	}
	return &Extractor{archive: a, opts: opts}
}

// Extract writes every member below OutputDir. Members of nested archives
// go into a directory named after the containing file's stem, each
// directory with its own arg list.
func (e *Extractor) Extract() (Stats, error) {
	e.stats = Stats{}
	if err := e.extractDir(e.archive, e.opts.OutputDir); err != nil {
		return e.stats, err
	}
	return e.stats, nil
}

func (e *Extractor) extractDir(a *fps4.Archive, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	e.stats.Dirs++

	for i := range a.Files {
		f := &a.Files[i]

		name, changed := SafeName(f.Name)
		if changed {
			e.stats.Diagnostics.Warnf(-1, "member %q in %s written as %q", f.Name, dir, name)
		}

		if f.Archive != nil {
			sub, _ := SafeName(filetype.Stem(name))
			if err := e.extractDir(f.Archive, filepath.Join(dir, sub)); err != nil {
				return err
			}
			if !e.opts.KeepContainers {
				continue
			}
		}
		if e.opts.Clean && slices.Contains(fps4.LeftoverNames, f.Name) {
			continue
		}
		if e.opts.Filter != "" {
			if !strings.Contains(strings.ToLower(f.Name), strings.ToLower(e.opts.Filter)) {
				continue
			}
		}

		outPath := filepath.Join(dir, name)
		if e.opts.Verbose {
			fmt.Printf("\t%s\n", outPath)
		}
		if err := os.WriteFile(outPath, f.Payload, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		e.stats.Files++
		e.stats.Bytes += int64(len(f.Payload))
	}

	if err := fps4.WriteArgList(dir, a); err != nil {
		return fmt.Errorf("failed to write arg list: %w", err)
	}
	if e.opts.Clean {
		n, err := RemoveLeftovers(dir)
		e.stats.Removed += n
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveLeftovers deletes placeholder members left in dir by an earlier
// extraction and reports how many were removed.
func RemoveLeftovers(dir string) (int, error) {
	n := 0
	for _, name := range fps4.LeftoverNames {
		err := os.Remove(filepath.Join(dir, name))
		switch {
		case err == nil:
			n++
		case errors.Is(err, os.ErrNotExist):
		default:
			return n, fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return n, nil
}

// SafeName reduces name to a single path element. Separators and drive
// colons become underscores and dot-only names get a leading underscore.
// The second result reports whether name changed.
func SafeName(name string) (string, bool) {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
	if strings.Trim(safe, ".") == "" {
		safe = "_" + safe
	}
	return safe, safe != name
}

// WriteFiles writes generated files into dir, creating it first. Names that
// are not a single path element are flattened with SafeName and reported.
func WriteFiles(dir string, files map[string][]byte, verbose bool) (diag.List, error) {
	var diags diag.List
	if err := os.MkdirAll(dir, 0755); err != nil {
		return diags, fmt.Errorf("failed to create output directory: %w", err)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		safe, changed := SafeName(name)
		if changed {
			diags.Warnf(-1, "%q written as %q", name, safe)
		}
		outPath := filepath.Join(dir, safe)
		if verbose {
			fmt.Printf("\t%s\n", outPath)
		}
		if err := os.WriteFile(outPath, files[name], 0644); err != nil {
			return diags, fmt.Errorf("failed to write %s: %w", outPath, err)
		}
	}
	return diags, nil
}
