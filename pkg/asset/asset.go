// Package asset opens a game file of any supported kind and returns it as a
// single decoded node.
package asset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vesperiatools/pkg/diag"
	"github.com/vesperiatools/pkg/filetype"
	"github.com/vesperiatools/pkg/fps4"
	"github.com/vesperiatools/pkg/mtr"
	"github.com/vesperiatools/pkg/spm"
	"github.com/vesperiatools/pkg/tlzc"
	"github.com/vesperiatools/pkg/txm"
)

var ErrUnsupported = errors.New("unsupported asset type")

// Node is one decoded asset.
type Node interface {
	Name() string
	Diagnostics() diag.List
	isNode()
}

// ArchiveNode holds an FPS4 or SVO archive. Compressed is set when the
// archive was wrapped in TLZC.
type ArchiveNode struct {
	Path       string
	Archive    *fps4.Archive
	Compressed *tlzc.Result
}

// MeshNode holds an SPM model, with UVs merged when the SPV was found.
type MeshNode struct {
	Path  string
	Model *spm.Model
}

// MaterialNode holds an MTR table.
type MaterialNode struct {
	Path  string
	Table *mtr.Table
}

// TextureNode holds a TXM directory and its images.
type TextureNode struct {
	Path string
	Set  *txm.Set
}

// RawNode is a TLZC file whose payload is not an archive.
type RawNode struct {
	Path       string
	Compressed *tlzc.Result
}

func (n *ArchiveNode) Name() string  { return filetype.Stem(filepath.Base(n.Path)) }
func (n *MeshNode) Name() string     { return filetype.Stem(filepath.Base(n.Path)) }
func (n *MaterialNode) Name() string { return filetype.Stem(filepath.Base(n.Path)) }
func (n *TextureNode) Name() string  { return filetype.Stem(filepath.Base(n.Path)) }
func (n *RawNode) Name() string      { return filetype.Stem(filepath.Base(n.Path)) }

func (n *ArchiveNode) Diagnostics() diag.List {
	var l diag.List
	if n.Compressed != nil {
		l = append(l, n.Compressed.Diagnostics...)
	}
	return append(l, n.Archive.Diagnostics...)
}
func (n *MeshNode) Diagnostics() diag.List     { return n.Model.Diagnostics }
func (n *MaterialNode) Diagnostics() diag.List { return n.Table.Diagnostics }
func (n *TextureNode) Diagnostics() diag.List  { return n.Set.Diagnostics }
func (n *RawNode) Diagnostics() diag.List      { return n.Compressed.Diagnostics }

func (*ArchiveNode) isNode()  {}
func (*MeshNode) isNode()     {}
func (*MaterialNode) isNode() {}
func (*TextureNode) isNode()  {}
func (*RawNode) isNode()      {}

// Options configures decoding of every asset kind.
type Options struct {
	Archive fps4.Options
	Order   binary.ByteOrder // MTR and TXM byte order, big-endian when nil
	Mesh    spm.Options
}

// Open reads path and, for meshes and textures, its companion file.
func Open(path string, opts Options) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var companion []byte
	ext := strings.ToUpper(filepath.Ext(path))
	switch ext {
	case ".SPM", ".SPV", ".TXM", ".TXV":
		other := spm.CompanionPath(path)
		if other == "" {
			other = txm.CompanionPath(path)
		}
		companion, err = os.ReadFile(other)
		if err != nil && (ext == ".TXM" || ext == ".TXV" || ext == ".SPV") {
			return nil, fmt.Errorf("failed to read companion %s: %w", other, err)
		}
	}

	node, err := Decode(path, data, companion, opts)
	if err != nil {
		return nil, err
	}
	if m, ok := node.(*MeshNode); ok && companion == nil {
		m.Model.Diagnostics.Infof(-1, "no %s beside %s, UVs not merged", filepath.Base(spm.CompanionPath(path)), filepath.Base(path))
	}
	return node, nil
}

// Decode dispatches on magic first and extension second. For the paired
// formats either half may be passed as data with the other as companion.
func Decode(path string, data, companion []byte, opts Options) (Node, error) {
	switch {
	case tlzc.IsTLZC(data):
		res, err := tlzc.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		if !fps4.IsFPS4(res.Data) {
			return &RawNode{Path: path, Compressed: res}, nil
		}
		a, err := fps4.Unpack(res.Data, opts.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", path, err)
		}
		return &ArchiveNode{Path: path, Archive: a, Compressed: res}, nil

	case fps4.IsFPS4(data):
		a, err := fps4.Unpack(data, opts.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", path, err)
		}
		return &ArchiveNode{Path: path, Archive: a}, nil
	}

	switch ext := strings.ToUpper(filepath.Ext(path)); ext {
	case ".SVO":
		a, err := fps4.UnpackSVO(data, opts.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s: %w", path, err)
		}
		return &ArchiveNode{Path: path, Archive: a}, nil

	case ".SPM", ".SPV":
		if ext == ".SPV" {
			data, companion = companion, data
			path = spm.CompanionPath(path)
		}
		m, err := spm.Decode(data, companion, opts.Mesh)
		if err != nil {
			return nil, fmt.Errorf("failed to decode mesh %s: %w", path, err)
		}
		return &MeshNode{Path: path, Model: m}, nil

	case ".MTR":
		t, err := mtr.Decode(data, mtr.Options{Order: opts.Order})
		if err != nil {
			return nil, fmt.Errorf("failed to decode materials %s: %w", path, err)
		}
		return &MaterialNode{Path: path, Table: t}, nil

	case ".TXM", ".TXV":
		if ext == ".TXV" {
			data, companion = companion, data
			path = txm.CompanionPath(path)
		}
		s, err := txm.Decode(data, companion, txm.Options{Order: opts.Order})
		if err != nil {
			return nil, fmt.Errorf("failed to decode textures %s: %w", path, err)
		}
		return &TextureNode{Path: path, Set: s}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
}
