package outdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vesperiatools/pkg/fps4"
)

func nested(t *testing.T) *fps4.Archive {
	t.Helper()
	inner, err := fps4.Build([]fps4.BuildFile{
		{Name: "CH_YUR.SPM", Data: []byte("mesh"), Arg: "slot0"},
		{Name: "CH_YUR.SPV", Data: []byte("uv")},
	}, fps4.BuildOptions{Flags: fps4.FlagMinimum | fps4.FlagName | fps4.FlagArg})
	if err != nil {
		t.Fatal(err)
	}
	outer, err := fps4.Build([]fps4.BuildFile{
		{Name: "YURI.FPS4", Data: inner},
		{Name: "README.TXT", Data: []byte("readme")},
	}, fps4.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	a, err := fps4.Unpack(outer, fps4.Options{Deep: true})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestExtractTree(t *testing.T) {
	dir := t.TempDir()
	stats, err := NewExtractor(nested(t), ExtractOptions{OutputDir: dir}).Extract()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 3 || stats.Dirs != 2 {
		t.Errorf("stats %+v", stats)
	}

	got, err := os.ReadFile(filepath.Join(dir, "YURI", "CH_YUR.SPM"))
	if err != nil || string(got) != "mesh" {
		t.Errorf("nested member: %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "YURI.FPS4")); !os.IsNotExist(err) {
		t.Errorf("container written without KeepContainers: %v", err)
	}
	args, err := os.ReadFile(filepath.Join(dir, "YURI", fps4.ArgListName))
	if err != nil || string(args) != "CH_YUR.SPM slot0\n" {
		t.Errorf("arg list %q, %v", args, err)
	}
}

func TestExtractFilterAndContainers(t *testing.T) {
	dir := t.TempDir()
	stats, err := NewExtractor(nested(t), ExtractOptions{OutputDir: dir, Filter: "fps4", KeepContainers: true}).Extract()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Files != 1 {
		t.Errorf("stats %+v", stats)
	}
	if _, err := os.Stat(filepath.Join(dir, "YURI.FPS4")); err != nil {
		t.Error(err)
	}
}

func TestRemoveLeftovers(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"EMPTY0", "NONAME2.FPS4", "KEEP.SPM"} {
		os.WriteFile(filepath.Join(dir, name), nil, 0644)
	}
	n, err := RemoveLeftovers(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("removed %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "KEEP.SPM")); err != nil {
		t.Error(err)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	diags, err := WriteFiles(dir, map[string][]byte{"A.obj": []byte("o A\n")}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(diags) != 0 {
		t.Errorf("unexpected diagnostics %v", diags)
	}
	if got, _ := os.ReadFile(filepath.Join(dir, "A.obj")); string(got) != "o A\n" {
		t.Errorf("got %q", got)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
		changed  bool
	}{
		{"CH_YUR.SPM", "CH_YUR.SPM", false},
		{"../ESCAPED.MTR", ".._ESCAPED.MTR", true},
		{`..\..\X.DDS`, ".._.._X.DDS", true},
		{"/etc/passwd", "_etc_passwd", true},
		{"C:X", "C_X", true},
		{"..", "_..", true},
		{"", "_", true},
	}
	for _, tt := range tests {
		got, changed := SafeName(tt.in)
		if got != tt.want || changed != tt.changed {
			t.Errorf("SafeName(%q) = %q, %v; want %q, %v", tt.in, got, changed, tt.want, tt.changed)
		}
	}
}

func TestExtractKeepsMembersInsideOutputDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "out")
	a := &fps4.Archive{Files: []fps4.File{
		{Name: "../ESCAPED.MTR", Payload: []byte("mtr")},
		{Name: "OK.MTR", Payload: []byte("ok")},
	}}

	stats, err := NewExtractor(a, ExtractOptions{OutputDir: dir}).Extract()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "ESCAPED.MTR")); !os.IsNotExist(err) {
		t.Errorf("member written outside the output directory: %v", err)
	}
	if got, err := os.ReadFile(filepath.Join(dir, ".._ESCAPED.MTR")); err != nil || string(got) != "mtr" {
		t.Errorf("flattened member: %q, %v", got, err)
	}
	if stats.Files != 2 || !stats.Diagnostics.HasWarnings() {
		t.Errorf("stats %+v", stats)
	}
}

func TestWriteFilesKeepsNamesInsideDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "BG")
	diags, err := WriteFiles(dir, map[string][]byte{"../X.DDS": []byte("dds")}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "X.DDS")); !os.IsNotExist(err) {
		t.Errorf("image written outside the output directory: %v", err)
	}
	if got, _ := os.ReadFile(filepath.Join(dir, ".._X.DDS")); string(got) != "dds" {
		t.Errorf("got %q", got)
	}
	if !diags.HasWarnings() {
		t.Error("expected a warning for the flattened name")
	}
}
