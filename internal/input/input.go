// Package input implements the polymorphic iteration over a bundle's raw
// inputs: plain directories and tar archives (optionally gzip- or
// xz-compressed), each yielding a stream of (relative path, byte stream)
// pairs.
package input

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// File is a single regular file produced by a Source: its path relative to
// the input's root, and an open reader positioned at its first byte. The
// caller must call Close once it is done reading.
type File struct {
	Path string
	io.ReadCloser
}

// Source iterates the regular files of a bundle input. Next returns
// io.EOF once every file has been visited.
type Source interface {
	Next() (File, error)
}

// nopCloser adapts a bare io.Reader that has no independent lifetime of its
// own (e.g. a tar.Reader positioned at the current entry) to io.ReadCloser.
type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// Dir walks a plain directory tree, yielding every regular file found
// beneath it with a path relative to root.
type Dir struct {
	root  string
	files []string
	pos   int
}

// NewDir prepares a Source over every regular file beneath root.
func NewDir(root string) (*Dir, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot walk directory %s: %w", root, err)
	}
	return &Dir{root: root, files: files}, nil
}

func (d *Dir) Next() (File, error) {
	if d.pos >= len(d.files) {
		return File{}, io.EOF
	}
	rel := d.files[d.pos]
	d.pos++
	f, err := os.Open(filepath.Join(d.root, rel))
	if err != nil {
		return File{}, err
	}
	return File{Path: rel, ReadCloser: f}, nil
}

// Tar iterates the regular files inside a tar archive, optionally
// gzip- or xz-compressed (auto-detected from the stream's magic bytes), and
// optionally restricted to files below a root prefix inside the archive.
type Tar struct {
	file          *os.File
	reader        *tar.Reader
	root          string
	archiveSHA256 string
}

// NewTar opens the tar archive at path. If root is non-empty, only entries
// whose archive path is at or below root are returned, with root stripped
// from the reported path.
//
// The archive's raw bytes are hashed in a first streaming pass over the
// file before any decompression, so ArchiveSHA256 always reflects exactly
// what was read from disk, compressed or not.
func NewTar(path string, root string) (*Tar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot hash archive %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}

	r, err := decompress(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	debugf("opened tar input %s (root %q)", path, root)
	root = strings.Trim(root, "/")
	return &Tar{
		file:          f,
		reader:        tar.NewReader(r),
		root:          root,
		archiveSHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// ArchiveSHA256 returns the SHA-256 digest of the archive's raw, possibly
// compressed, bytes as read from disk.
func (t *Tar) ArchiveSHA256() (string, error) {
	return t.archiveSHA256, nil
}

func (t *Tar) Next() (File, error) {
	for {
		hdr, err := t.reader.Next()
		if err == io.EOF {
			return File{}, io.EOF
		}
		if err != nil {
			return File{}, fmt.Errorf("cannot read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := strings.TrimPrefix(hdr.Name, "./")
		if t.root != "" {
			if name != t.root && !strings.HasPrefix(name, t.root+"/") {
				continue
			}
			name = strings.TrimPrefix(strings.TrimPrefix(name, t.root), "/")
			if name == "" {
				continue
			}
		}
		return File{Path: name, ReadCloser: nopCloser{t.reader}}, nil
	}
}

// Close releases the underlying archive file.
func (t *Tar) Close() error {
	return t.file.Close()
}

// decompress sniffs the magic bytes of f and returns a reader that
// transparently decompresses gzip or xz streams, or the original reader
// unchanged if neither magic is present.
func decompress(f *os.File) (io.Reader, error) {
	var magic [6]byte
	n, err := io.ReadFull(f, magic[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	switch {
	case n >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		return gzip.NewReader(f)
	case n >= 6 && magic[0] == 0xfd && magic[1] == '7' && magic[2] == 'z' && magic[3] == 'X' && magic[4] == 'Z' && magic[5] == 0x00:
		return xz.NewReader(f)
	default:
		return f, nil
	}
}
