package fps4

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArgListName is the manifest written beside extracted members that carry
// a string table argument.
const ArgListName = "arg_list.txt"

// BuildFile is one member to write.
type BuildFile struct {
	Name        string
	Data        []byte
	DataType    string
	Arg         string
	Placeholder bool // write a sentinel offset and no payload
}

// BuildOptions configures Build.
type BuildOptions struct {
	Flags     Flags // descriptor layout, derived from the files when 0
	Alignment int   // payload alignment, 0x10 when 0
}

// Build writes an FPS4 archive holding files in order.
func Build(files []BuildFile, opts BuildOptions) ([]byte, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if opts.Alignment <= 0 {
		opts.Alignment = 0x10
	}

	flags := opts.Flags
	if flags == 0 {
		flags = FlagMinimum | FlagName
		for _, f := range files {
			if f.DataType != "" {
				flags |= FlagDataType
			}
			if f.Arg != "" {
				flags |= FlagArg
			}
		}
	}
	flags |= FlagMinimum

	descSize := flags.DescriptorSize()
	stringTable := HeaderSize + len(files)*descSize

	// String table: one NUL-terminated arg per file that has one.
	var strs bytes.Buffer
	argOffsets := make([]uint32, len(files))
	for i, f := range files {
		if f.Arg == "" || f.Placeholder || !flags.Has(FlagArg) {
			continue
		}
		argOffsets[i] = uint32(stringTable + strs.Len())
		strs.WriteString(f.Arg)
		strs.WriteByte(0)
	}

	dataOffset := align(stringTable+strs.Len(), opts.Alignment)
	size := dataOffset
	offsets := make([]int, len(files))
	for i, f := range files {
		if f.Placeholder {
			continue
		}
		offsets[i] = size
		size += align(len(f.Data), opts.Alignment)
	}

	buf := make([]byte, size)
	copy(buf, Magic)
	binary.BigEndian.PutUint32(buf[0x04:], uint32(len(files)))
	binary.BigEndian.PutUint32(buf[0x08:], HeaderSize)
	binary.BigEndian.PutUint32(buf[0x0C:], uint32(dataOffset))
	binary.BigEndian.PutUint16(buf[0x10:], uint16(descSize))
	binary.BigEndian.PutUint16(buf[0x12:], uint16(flags))
	binary.BigEndian.PutUint32(buf[0x18:], uint32(stringTable))
	copy(buf[stringTable:], strs.Bytes())

	for i, f := range files {
		pos := HeaderSize + i*descSize

		if f.Placeholder {
			// The rest of a sentinel descriptor stays zero.
			binary.BigEndian.PutUint32(buf[pos:], Sentinel)
			continue
		}
		binary.BigEndian.PutUint32(buf[pos:], uint32(offsets[i]))
		binary.BigEndian.PutUint32(buf[pos+4:], uint32(align(len(f.Data), opts.Alignment)))
		binary.BigEndian.PutUint32(buf[pos+8:], uint32(len(f.Data)))
		copy(buf[offsets[i]:], f.Data)
		pos += 12

		if flags.Has(FlagName) {
			if len(f.Name) > NameSize {
				return nil, fmt.Errorf("%w: %q", ErrNameTooLong, f.Name)
			}
			copy(buf[pos:pos+NameSize], f.Name)
			pos += NameSize
		}
		if flags.Has(FlagReserved4) {
			pos += 4
		}
		if flags.Has(FlagDataType) {
			copy(buf[pos:pos+4], f.DataType)
			pos += 4
		}
		if flags.Has(FlagArg) {
			binary.BigEndian.PutUint32(buf[pos:], argOffsets[i])
		}
	}

	return buf, nil
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}

// PackOptions configures the packing process.
type PackOptions struct {
	Alignment int
	Verbose   bool // Print detailed progress
}

// Packer builds an FPS4 archive from a directory of files.
type Packer struct {
	inputDir string
	opts     PackOptions
}

// NewPacker creates a new packer for inputDir.
func NewPacker(inputDir string, opts PackOptions) *Packer {
	return &Packer{inputDir: inputDir, opts: opts}
}

// Collect reads the regular files of the input directory in name order.
// Args listed in an arg_list.txt manifest are restored.
func (p *Packer) Collect() ([]BuildFile, error) {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	args, err := readArgList(filepath.Join(p.inputDir, ArgListName))
	if err != nil {
		return nil, err
	}

	var files []BuildFile
	for _, de := range entries {
		if de.IsDir() || de.Name() == ArgListName {
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.inputDir, de.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", de.Name(), err)
		}
		files = append(files, BuildFile{
			Name: de.Name(),
			Data: data,
			Arg:  args[de.Name()],
		})
		if p.opts.Verbose {
			fmt.Printf("  + %s (%d bytes)\n", de.Name(), len(data))
		}
	}
	return files, nil
}

// Pack writes the archive to outPath.
func (p *Packer) Pack(outPath string) error {
	files, err := p.Collect()
	if err != nil {
		return err
	}
	data, err := Build(files, BuildOptions{Alignment: p.opts.Alignment})
	if err != nil {
		return fmt.Errorf("failed to build archive: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// readArgList parses "<name> <arg>" lines. A missing file is not an error.
func readArgList(path string) (map[string]string, error) {
	args := make(map[string]string)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return args, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name, arg, ok := strings.Cut(sc.Text(), " ")
		if ok && name != "" {
			args[name] = arg
		}
	}
	return args, sc.Err()
}

// WriteArgList writes the manifest for a's top-level members into dir.
func WriteArgList(dir string, a *Archive) error {
	if len(a.Args) == 0 {
		return nil
	}
	var b strings.Builder
	for _, r := range a.Args {
		fmt.Fprintf(&b, "%s %s\n", r.Name, r.Arg)
	}
	return os.WriteFile(filepath.Join(dir, ArgListName), []byte(b.String()), 0644)
}
