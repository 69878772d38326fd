// Package pkgname guesses container and package names from the strings
// embedded in a decoded buffer.
package pkgname

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vesperiatools/pkg/filetype"
)

// Candidate is one name found in the data.
type Candidate struct {
	Name   string
	Ext    string // without the dot, empty for fallback matches
	Offset int
}

var (
	primary  = regexp.MustCompile(`[A-Z0-9_]{2,}\.(` + extAlternation() + `)`)
	fallback = regexp.MustCompile(`[A-Z][A-Z0-9_]{3,31}`)
)

func extAlternation() string {
	exts := []string{"FPS4", "DAT", "SVO", "DDS"}
	for ext := range filetype.KnownExt {
		exts = append(exts, strings.TrimPrefix(ext, "."))
	}
	// Longest first so FPS4 is not cut short by a shorter prefix.
	sort.Slice(exts, func(i, j int) bool {
		if len(exts[i]) != len(exts[j]) {
			return len(exts[i]) > len(exts[j])
		}
		return exts[i] < exts[j]
	})
	return strings.Join(exts, "|")
}

// Infer returns the file names with a known extension in data, in order of
// first appearance. Repeats are dropped.
func Infer(data []byte) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)
	for _, m := range primary.FindAllSubmatchIndex(data, -1) {
		name := string(data[m[0]:m[1]])
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Candidate{
			Name:   name,
			Ext:    string(data[m[2]:m[3]]),
			Offset: m[0],
		})
	}
	return out
}

// InferFallback returns every upper-case identifier-like run in data. It
// matches far more than Infer and is only meant for when Infer finds
// nothing.
func InferFallback(data []byte) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)
	for _, m := range fallback.FindAllIndex(data, -1) {
		name := string(data[m[0]:m[1]])
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Candidate{Name: name, Offset: m[0]})
	}
	return out
}

// Stems returns the candidate names without their extension, deduplicated.
func Stems(cands []Candidate) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range cands {
		stem := c.Name
		if c.Ext != "" {
			stem = strings.TrimSuffix(stem, "."+c.Ext)
		}
		if !seen[stem] {
			seen[stem] = true
			out = append(out, stem)
		}
	}
	return out
}
