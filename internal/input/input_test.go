package input_test

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/texbundle/texbundle/internal/input"
)

func drain(t *testing.T, src input.Source) map[string]string {
	t.Helper()
	result := make(map[string]string)
	for {
		f, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error: %v", err)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("read error: %v", err)
		}
		f.Close()
		result[f.Path] = string(data)
	}
	return result
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "tex", "generic"), 0755)
	os.WriteFile(filepath.Join(root, "tex", "generic", "foo.sty"), []byte("foo"), 0644)
	os.WriteFile(filepath.Join(root, "top.txt"), []byte("top"), 0644)

	src, err := input.NewDir(root)
	if err != nil {
		t.Fatalf("NewDir() error: %v", err)
	}
	got := drain(t, src)
	want := map[string]string{
		"tex/generic/foo.sty": "foo",
		"top.txt":             "top",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("entry %q = %q, want %q", k, got[k], v)
		}
	}
}

func writeTar(t *testing.T, files map[string]string, gz bool) string {
	t.Helper()
	var buf bytes.Buffer
	var w io.Writer = &buf
	var gzw *gzip.Writer
	if gz {
		gzw = gzip.NewWriter(&buf)
		w = gzw
	}
	tw := tar.NewWriter(w)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data := files[name]
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(data))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader: %v", err)
		}
		if _, err := tw.Write([]byte(data)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}
	if gz {
		if err := gzw.Close(); err != nil {
			t.Fatalf("gzip Close: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "archive.tar")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestTarPlain(t *testing.T) {
	path := writeTar(t, map[string]string{
		"root/tex/foo.sty": "foo",
		"root/doc/readme":  "readme",
	}, false)

	src, err := input.NewTar(path, "root")
	if err != nil {
		t.Fatalf("NewTar() error: %v", err)
	}
	got := drain(t, src)
	want := map[string]string{
		"tex/foo.sty": "foo",
		"doc/readme":  "readme",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("entry %q = %q, want %q", k, got[k], v)
		}
	}
}

func TestTarGzip(t *testing.T) {
	path := writeTar(t, map[string]string{
		"foo.sty": "foo",
	}, true)

	src, err := input.NewTar(path, "")
	if err != nil {
		t.Fatalf("NewTar() error: %v", err)
	}
	got := drain(t, src)
	if got["foo.sty"] != "foo" {
		t.Fatalf("got %v", got)
	}
}

func TestTarArchiveSHA256(t *testing.T) {
	path := writeTar(t, map[string]string{"foo.sty": "foo"}, false)
	want := sha256.Sum256(readFile(t, path))

	src, err := input.NewTar(path, "")
	if err != nil {
		t.Fatalf("NewTar() error: %v", err)
	}
	got, err := src.ArchiveSHA256()
	if err != nil {
		t.Fatalf("ArchiveSHA256() error: %v", err)
	}
	if got != hex.EncodeToString(want[:]) {
		t.Fatalf("ArchiveSHA256() = %s, want %s", got, hex.EncodeToString(want[:]))
	}
	// The hashing pass must not disturb iteration.
	drained := drain(t, src)
	if drained["foo.sty"] != "foo" {
		t.Fatalf("drain after hashing = %v", drained)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

func TestTarRootExcludesOutsideFiles(t *testing.T) {
	path := writeTar(t, map[string]string{
		"root/in.sty":  "in",
		"other/out.sty": "out",
	}, false)

	src, err := input.NewTar(path, "root")
	if err != nil {
		t.Fatalf("NewTar() error: %v", err)
	}
	got := drain(t, src)
	if len(got) != 1 || got["in.sty"] != "in" {
		t.Fatalf("got %v", got)
	}
}
