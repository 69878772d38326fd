// Package filetype assigns names and extensions to anonymous archive
// members from payload signatures and neighbouring entries.
package filetype

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path"
	"strings"
)

// Platform selects the short type-code table.
type Platform int

const (
	PC Platform = iota
	X360
)

func (p Platform) String() string {
	switch p {
	case PC:
		return "pc"
	case X360:
		return "x360"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// ParsePlatform accepts "pc", "x360" or "360" in any case.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pc":
		return PC, nil
	case "x360", "360", "xbox360":
		return X360, nil
	}
	return PC, fmt.Errorf("unknown platform %q (want pc or x360)", s)
}

// Table returns the short type-code table for p.
func (p Platform) Table() map[uint32]string {
	if p == X360 {
		return TypeToExtX360
	}
	return TypeToExtPC
}

// Source records which rule produced an extension.
type Source int

const (
	SourceNone Source = iota
	SourceLiteral
	SourceShortCode
	SourceLongTag
	SourceInherited
)

func (s Source) String() string {
	switch s {
	case SourceLiteral:
		return "literal"
	case SourceShortCode:
		return "short-code"
	case SourceLongTag:
		return "long-tag"
	case SourceInherited:
		return "inherited"
	default:
		return "none"
	}
}

// Input is everything Resolve looks at.
type Input struct {
	Head     []byte // first bytes of the payload, at least 8 for long tags
	Name     string // name from the directory, may be empty
	Previous string // resolved name of the previous entry
	DataType string // descriptor data type tag, e.g. "MDL"
	Platform Platform
}

// Result of resolving one entry.
type Result struct {
	Name   string // possibly synthesized from Previous, may still be empty
	Ext    string // with leading dot, or ""
	Source Source
}

// Companion returns the paired data-file name for a previous entry ending in
// .SPM or .TXM (the V sibling), or "".
func Companion(previous string) string {
	if strings.HasSuffix(previous, ".SPM") || strings.HasSuffix(previous, ".TXM") {
		return previous[:len(previous)-1] + "V"
	}
	return ""
}

// LiteralExt returns the extension already carried by name. ".DAT" is a
// container suffix and does not count.
func LiteralExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || strings.HasSuffix(name, ".DAT") {
		return ""
	}
	return name[i:]
}

// ShortExt looks up the big-endian code in head for platform p.
func ShortExt(head []byte, p Platform) string {
	if len(head) < 4 {
		return ""
	}
	return p.Table()[binary.BigEndian.Uint32(head)]
}

// LongExt matches the first eight bytes of head, NUL/space-trimmed, against
// LongTypes.
func LongExt(head []byte) string {
	if len(head) > 8 {
		head = head[:8]
	}
	tag := string(bytes.TrimRight(head, "\x00 "))
	if longTypeSet[tag] {
		return "." + tag
	}
	return ""
}

// Resolve computes the name and extension of an entry. An unnamed entry
// after an .SPM or .TXM takes the companion name, extension included.
// Otherwise precedence is the literal extension in the name, the short code
// table, then the long tag table. It is a pure function of in.
func Resolve(in Input) Result {
	if in.Name == "" {
		if companion := Companion(in.Previous); companion != "" {
			return Result{Name: companion, Ext: LiteralExt(companion), Source: SourceInherited}
		}
	}
	if ext := LiteralExt(in.Name); ext != "" {
		return Result{Name: in.Name, Ext: ext, Source: SourceLiteral}
	}

	res := Result{Name: in.Name}
	if ext := ShortExt(in.Head, in.Platform); ext != "" {
		res.Ext, res.Source = ext, SourceShortCode
	} else if ext := LongExt(in.Head); ext != "" {
		res.Ext, res.Source = ext, SourceLongTag
	}
	return res
}

// Stem strips the extension from name.
func Stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
