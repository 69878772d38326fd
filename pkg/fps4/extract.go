package fps4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/vesperiatools/pkg/binio"
	"github.com/vesperiatools/pkg/filetype"
)

// mdlParts is the number of entries following an MDL-typed entry that
// belong to the same model.
const mdlParts = 9

// Unpack parses an FPS4 archive held in data. Payloads are views into data.
// Header problems fail before any file is produced; per-entry oddities are
// recorded as diagnostics.
func Unpack(data []byte, opts Options) (*Archive, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return unpack(data, opts, 0)
}

func unpack(data []byte, opts Options, depth int) (*Archive, error) {
	hdr, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	a := &Archive{Header: *hdr, Depth: depth}
	if unknown := hdr.Flags &^ flagKnown; unknown != 0 {
		a.Diagnostics.Warnf(0x12, "unknown descriptor flag bits 0x%04X", uint16(unknown))
	}

	n := &namer{platform: opts.Platform, used: make(map[string]bool)}
	c := binio.NewCursor(data, binary.BigEndian)
	files := make([]File, 0, hdr.Count)

	for i := 0; i < int(hdr.Count); i++ {
		entry, err := readEntry(c, hdr, i, a)
		if err != nil {
			return nil, fmt.Errorf("failed to read descriptor %d: %w", i, err)
		}

		f := File{Entry: entry}
		if !entry.IsPlaceholder() {
			end := uint64(entry.Offset) + uint64(entry.RealSize)
			if end > uint64(len(data)) {
				return nil, binio.Structuralf("entry %d payload 0x%X..0x%X exceeds file size 0x%X",
					i, entry.Offset, end, len(data))
			}
			f.Payload = data[entry.Offset:end:end]
		}

		n.resolve(&f, a)
		files = append(files, f)
	}

	for i := range files {
		f := &files[i]
		if !opts.Deep || !IsFPS4(f.Payload) {
			continue
		}
		if depth+1 >= opts.MaxDepth {
			a.Diagnostics.Infof(int64(f.Entry.Offset), "%s: nesting limit %d reached, kept as file", f.Name, opts.MaxDepth)
			continue
		}
		child, err := unpack(f.Payload, opts, depth+1)
		if err != nil {
			a.Diagnostics.Warnf(int64(f.Entry.Offset), "%s: nested archive not unpacked: %v", f.Name, err)
			continue
		}
		f.Archive = child
	}

	a.Files = files
	return a, nil
}

// readEntry decodes descriptor i. Only cursor failures are returned; soft
// inconsistencies go to a.Diagnostics.
func readEntry(c *binio.Cursor, hdr *Header, i int, a *Archive) (Entry, error) {
	base := hdr.descriptorOffset(i)
	e := Entry{Index: i, DescriptorOffset: base}
	if err := c.Seek(base); err != nil {
		return e, err
	}

	words, err := c.ReadU32s(3)
	if err != nil {
		return e, err
	}
	e.Offset, e.Size, e.RealSize = words[0], words[1], words[2]

	if e.IsPlaceholder() {
		rest, err := binio.NewCursor(c.Bytes()[base+4:base+int(hdr.DescriptorSize)], binary.BigEndian).
			ReadU32s((int(hdr.DescriptorSize) - 4) / 4)
		if err == nil {
			for _, w := range rest {
				if w != 0 {
					a.Diagnostics.Warnf(int64(base), "entry %d: sentinel offset with non-zero descriptor fields", i)
					break
				}
			}
		}
	}

	if hdr.Flags.Has(FlagName) {
		name, err := c.ReadFixedString(NameSize)
		if err != nil {
			return e, err
		}
		e.Name = strings.ToUpper(name)
	}

	if hdr.Flags.Has(FlagReserved4) {
		if err := reserved(c, a, i, 4); err != nil {
			return e, err
		}
	}

	if hdr.Flags.Has(FlagDataType) {
		if e.DataType, err = c.ReadFixedString(4); err != nil {
			return e, err
		}
	}

	if hdr.Flags.Has(FlagArg) {
		pos := c.Tell()
		off, err := c.ReadU32()
		if err != nil {
			return e, err
		}
		switch {
		case off == 0:
		case off < hdr.StringTable:
			a.Diagnostics.Warnf(int64(pos), "entry %d: arg offset 0x%X below string table 0x%X, dropped", i, off, hdr.StringTable)
		default:
			arg, err := c.ReadCStringAt(int(off), argStringCap)
			if err != nil {
				a.Diagnostics.Warnf(int64(pos), "entry %d: arg at 0x%X unreadable: %v", i, off, err)
			} else {
				e.Arg = arg
			}
		}
	}

	if hdr.Flags.Has(FlagReserved7) {
		if err := reserved(c, a, i, 7); err != nil {
			return e, err
		}
	}

	return e, nil
}

func reserved(c *binio.Cursor, a *Archive, i, bit int) error {
	pos := c.Tell()
	v, err := c.ReadU32()
	if err != nil {
		return err
	}
	if v != 0 {
		a.Diagnostics.Warnf(int64(pos), "entry %d: reserved field (flag bit %d) is 0x%X", i, bit, v)
	}
	return nil
}

// namer carries the naming state of one archive directory.
type namer struct {
	platform filetype.Platform
	previous string
	mdlLeft  int
	empty    int
	noname   int
	used     map[string]bool
}

func (n *namer) resolve(f *File, a *Archive) {
	head := f.Payload
	if len(head) > 8 {
		head = head[:8]
	}
	res := filetype.Resolve(filetype.Input{
		Head:     head,
		Name:     f.Entry.Name,
		Previous: n.previous,
		DataType: f.Entry.DataType,
		Platform: n.platform,
	})
	name, ext := res.Name, res.Ext
	f.Source = res.Source

	if n.mdlLeft > 0 && name == "" && n.previous != "" {
		name = filetype.Stem(n.previous) + ext
	}
	n.mdlLeft--
	if f.Entry.DataType == "MDL" {
		n.mdlLeft = mdlParts
	}

	if name == "" {
		if len(f.Payload) == 0 {
			name = fmt.Sprintf("EMPTY%d", n.empty)
			n.empty++
		} else {
			name = fmt.Sprintf("NONAME%d%s", n.noname, ext)
			n.noname++
		}
	}

	if arg := f.Entry.Arg; arg != "" {
		hint := strings.ReplaceAll(arg, "/", "_") + ext
		switch {
		case ext == ".FPS4" || ext == ".T8BTMO":
			name = hint
		case filetype.KnownExt[ext] && strings.Contains(arg, "/"):
			name = hint
		case isEnvironment(ext):
			f.Environment = arg
		}
	}

	name = n.unique(name)
	if f.Entry.Arg != "" {
		a.Args = append(a.Args, ArgRecord{Name: name, Arg: f.Entry.Arg})
	}

	f.Name, f.Ext = name, ext
	n.previous = name
}

// unique appends _<n> before the extension until name is unused.
func (n *namer) unique(name string) string {
	if !n.used[name] {
		n.used[name] = true
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !n.used[candidate] {
			n.used[candidate] = true
			return candidate
		}
	}
}

func isEnvironment(ext string) bool {
	for _, t := range filetype.EnvironmentTypes {
		if ext == "."+t {
			return true
		}
	}
	return false
}

// Walk visits every file depth first. Paths of members of nested archives
// are prefixed with the stem of the containing file. Returning ErrStop from
// fn ends the walk without error.
func Walk(a *Archive, fn func(p string, f *File) error) error {
	err := walk(a, "", fn)
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func walk(a *Archive, dir string, fn func(string, *File) error) error {
	for i := range a.Files {
		f := &a.Files[i]
		p := path.Join(dir, f.Name)
		if err := fn(p, f); err != nil {
			return err
		}
		if f.Archive != nil {
			if err := walk(f.Archive, path.Join(dir, filetype.Stem(f.Name)), fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Count returns the number of files including nested ones.
func (a *Archive) Count() int {
	n := 0
	Walk(a, func(string, *File) error {
		n++
		return nil
	})
	return n
}
