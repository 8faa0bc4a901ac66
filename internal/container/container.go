// Package container is the read-side companion to packer: it opens a ttbv1
// file, parses its fixed header and gzip-compressed index, and extracts
// individual file bodies by seeking directly to their recorded offset.
//
// This mirrors, in reverse, the layout packer.Pack writes: reading the
// index without extracting every file body is the same "scan the table of
// contents lazily" operation bundle consumers need before deciding what to
// fetch.
package container

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/texbundle/texbundle/internal/packer"
)

// Entry describes one file stored in the container, as recorded in its
// FILELIST section of the index.
type Entry struct {
	Path    string
	Hash    string
	Start   uint64
	GzipLen uint32
	RealLen uint32
}

// Reader provides random access to the files packed into a ttbv1 bundle.
type Reader struct {
	ra      io.ReaderAt
	Version uint32
	SHA256  [32]byte

	search  []string
	entries map[string]Entry
	order   []string
}

// Open parses the header and index of a ttbv1 bundle accessible through ra
// (typically an *os.File, or an HTTP range-request wrapper).
func Open(ra io.ReaderAt) (*Reader, error) {
	header := make([]byte, packer.HeaderSize)
	if _, err := ra.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	if string(header[:14]) != "tectonicbundle" {
		return nil, fmt.Errorf("not a tectonic bundle: bad magic %q", header[:14])
	}

	r := &Reader{ra: ra, entries: make(map[string]Entry)}
	r.Version = binary.LittleEndian.Uint32(header[14:18])
	indexStart := binary.LittleEndian.Uint64(header[18:26])
	indexGzipLen := binary.LittleEndian.Uint32(header[26:30])
	indexRealLen := binary.LittleEndian.Uint32(header[30:34])
	copy(r.SHA256[:], header[34:66])

	compressed := make([]byte, indexGzipLen)
	if _, err := ra.ReadAt(compressed, int64(indexStart)); err != nil {
		return nil, fmt.Errorf("cannot read index: %w", err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("cannot decompress index: %w", err)
	}
	index, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress index: %w", err)
	}
	if uint32(len(index)) != indexRealLen {
		return nil, fmt.Errorf("index real length mismatch: got %d, header says %d", len(index), indexRealLen)
	}

	if err := r.parseIndex(string(index)); err != nil {
		return nil, err
	}
	logf("opened bundle: version %d, %d entries", r.Version, len(r.entries))
	return r, nil
}

func (r *Reader) parseIndex(index string) error {
	const (
		sectionNone = iota
		sectionSearch
		sectionFileList
	)
	section := sectionNone

	for _, line := range strings.Split(index, "\n") {
		switch line {
		case "[DEFAULTSEARCH]", "MAIN", "[SEARCH:MAIN]":
			section = sectionSearch
			continue
		case "[FILELIST]":
			section = sectionFileList
			continue
		case "":
			continue
		}

		switch section {
		case sectionSearch:
			r.search = append(r.search, line)
		case sectionFileList:
			entry, err := parseFileListLine(line)
			if err != nil {
				return err
			}
			r.entries[entry.Path] = entry
			r.order = append(r.order, entry.Path)
		}
	}
	return nil
}

func parseFileListLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Entry{}, fmt.Errorf("malformed index filelist line: %q", line)
	}
	start, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("malformed index filelist line %q: %w", line, err)
	}
	gzipLen, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("malformed index filelist line %q: %w", line, err)
	}
	realLen, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("malformed index filelist line %q: %w", line, err)
	}
	return Entry{
		Start:   start,
		GzipLen: uint32(gzipLen),
		RealLen: uint32(realLen),
		Path:    fields[3],
		Hash:    fields[4],
	}, nil
}

// Search returns the resolved search order recorded under [SEARCH:MAIN].
func (r *Reader) Search() []string {
	return append([]string(nil), r.search...)
}

// List returns every entry in the container, in the order they were packed.
func (r *Reader) List() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, path := range r.order {
		entries = append(entries, r.entries[path])
	}
	return entries
}

// Stat returns the index entry for path, which must include its leading
// slash (as recorded in FILELIST, e.g. "/texlive/tex/generic/foo.sty").
func (r *Reader) Stat(path string) (Entry, bool) {
	e, ok := r.entries[path]
	return e, ok
}

// Extract returns the decompressed contents of path.
func (r *Reader) Extract(path string) ([]byte, error) {
	entry, ok := r.Stat(path)
	if !ok {
		return nil, fmt.Errorf("not found in bundle: %s", path)
	}
	debugf("extracting %s (%d bytes compressed, %d real)", path, entry.GzipLen, entry.RealLen)

	compressed := make([]byte, entry.GzipLen)
	if _, err := r.ra.ReadAt(compressed, int64(entry.Start)); err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("cannot decompress %s: %w", path, err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress %s: %w", path, err)
	}
	if uint32(len(data)) != entry.RealLen {
		return nil, fmt.Errorf("%s: real length mismatch: got %d, index says %d", path, len(data), entry.RealLen)
	}
	return data, nil
}
