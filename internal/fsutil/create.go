package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type CreateOptions struct {
	Root string
	// Path is relative to Root.
	Path string
	Mode os.FileMode
	Data io.Reader
	// If MakeParents is true, missing parent directories of Path are
	// created with permissions 0755.
	MakeParents bool
}

// Entry describes a regular file created by Create, including the
// streaming SHA-256 digest computed while the file was written.
type Entry struct {
	Path   string
	Mode   os.FileMode
	SHA256 string
	Size   int
}

// Create copies a regular file into the content tree, computing its
// SHA-256 digest as it streams through, and returns the resulting Entry.
//
// Create can return errors from the os package.
func Create(options *CreateOptions) (*Entry, error) {
	o, err := getValidOptions(options)
	if err != nil {
		return nil, err
	}

	rp := &readerProxy{inner: options.Data, h: sha256.New()}
	o.Data = rp

	path, err := absPath(o.Root, o.Path)
	if err != nil {
		return nil, err
	}

	if o.MakeParents {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	if err := createFile(o); err != nil {
		return nil, err
	}

	entry := &Entry{
		Path:   path,
		Mode:   o.Mode,
		SHA256: hex.EncodeToString(rp.h.Sum(nil)),
		Size:   rp.size,
	}
	return entry, nil
}

// CreateWriter handles the creation of a regular file and collects the
// information recorded in Entry. The SHA256 and Size attributes are set on
// calling Close() on the Writer.
func CreateWriter(options *CreateOptions) (io.WriteCloser, *Entry, error) {
	o, err := getValidOptions(options)
	if err != nil {
		return nil, nil, err
	}

	path, err := absPath(o.Root, o.Path)
	if err != nil {
		return nil, nil, err
	}

	if o.MakeParents {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, o.Mode)
	if err != nil {
		return nil, nil, err
	}
	entry := &Entry{
		Path: path,
		Mode: o.Mode,
	}
	wp := &writerProxy{
		entry: entry,
		inner: file,
		h:     sha256.New(),
	}
	return wp, entry, nil
}

func createFile(o *CreateOptions) error {
	debugf("Writing file: %s (mode %#o)", o.Path, o.Mode)
	path, err := absPath(o.Root, o.Path)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, o.Mode)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(file, o.Data)
	err = file.Close()
	if copyErr != nil {
		return copyErr
	}
	return err
}

func getValidOptions(options *CreateOptions) (*CreateOptions, error) {
	optsCopy := *options
	o := &optsCopy
	if o.Root == "" {
		return nil, fmt.Errorf("internal error: CreateOptions.Root is unset")
	}
	if o.Mode == 0 {
		o.Mode = 0644
	}
	if o.Root != "/" {
		o.Root = filepath.Clean(o.Root) + "/"
	}
	return o, nil
}

// absPath requires root to be a clean path that ends in "/".
func absPath(root, relPath string) (string, error) {
	path := filepath.Clean(filepath.Join(root, relPath))
	if !strings.HasPrefix(path, root) {
		return "", fmt.Errorf("cannot create path %s outside of root %s", path, root)
	}
	return path, nil
}

// readerProxy implements the io.Reader interface proxying the calls to its
// inner io.Reader. On each read, the proxy keeps track of the file size and hash.
type readerProxy struct {
	inner io.Reader
	h     hash.Hash
	size  int
}

var _ io.Reader = (*readerProxy)(nil)

func (rp *readerProxy) Read(p []byte) (n int, err error) {
	n, err = rp.inner.Read(p)
	rp.h.Write(p[:n])
	rp.size += n
	return n, err
}

// writerProxy implements the io.WriteCloser interface proxying the calls to its
// inner io.WriteCloser. On each write, the proxy keeps track of the file size
// and hash. The associated entry hash and size are updated when Close() is
// called.
type writerProxy struct {
	inner io.WriteCloser
	h     hash.Hash
	size  int
	entry *Entry
}

var _ io.WriteCloser = (*writerProxy)(nil)

func (wp *writerProxy) Write(p []byte) (n int, err error) {
	n, err = wp.inner.Write(p)
	wp.h.Write(p[:n])
	wp.size += n
	return n, err
}

func (wp *writerProxy) Close() error {
	wp.entry.SHA256 = hex.EncodeToString(wp.h.Sum(nil))
	wp.entry.Size = wp.size
	return wp.inner.Close()
}
