// Package packer implements stage two of the bundle pipeline: streaming a
// selector-produced content tree into the single-file, seekable ttbv1
// container format.
package packer

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// HeaderSize is the fixed size, in bytes, of a ttbv1 header.
const HeaderSize = 66

const magic = "tectonicbundle"
const version = 1

// ErrSizeOverflow is returned when a compressed or uncompressed length
// would not fit in the container's 32-bit length fields.
var ErrSizeOverflow = errors.New("packer: size exceeds uint32 range")

// fileListEntry mirrors bundlev1.rs's FileListEntry: the placement and
// size of one file's gzip-compressed body inside the container.
type fileListEntry struct {
	path    string
	hash    string
	start   uint64
	realLen uint32
	gzipLen uint32
}

func (e fileListEntry) String() string {
	return fmt.Sprintf("%d %d %d %s %s", e.start, e.gzipLen, e.realLen, e.path, e.hash)
}

// Pack streams contentDir (a selector-produced tree containing FILELIST,
// SEARCH and SHA256SUM) into target as a ttbv1 container. target must
// support both writing and seeking; Pack seeks past the header, writes
// every file body and the index, then seeks back to write the header last.
func Pack(target io.WriteSeeker, contentDir string) error {
	if _, err := target.Seek(HeaderSize, io.SeekStart); err != nil {
		return err
	}

	entries, byteCount, err := addFiles(target, contentDir)
	if err != nil {
		return err
	}

	indexStart, indexGzipLen, indexRealLen, err := writeIndex(target, contentDir, entries, byteCount)
	if err != nil {
		return err
	}

	return writeHeader(target, contentDir, indexStart, indexGzipLen, indexRealLen)
}

func addFiles(target io.Writer, contentDir string) ([]fileListEntry, uint64, error) {
	filelistPath := filepath.Join(contentDir, "FILELIST")
	f, err := os.Open(filelistPath)
	if err != nil {
		return nil, 0, fmt.Errorf("cannot open FILELIST: %w", err)
	}
	defer f.Close()

	var entries []fileListEntry
	byteCount := uint64(HeaderSize)
	count := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, 0, fmt.Errorf("malformed FILELIST line: %q", line)
		}
		path, hash := fields[0], fields[1]
		count++
		debugf("packing file %d: %s", count, path)

		body, err := os.Open(filepath.Join(contentDir, strings.TrimPrefix(path, "/")))
		if err != nil {
			return nil, 0, fmt.Errorf("cannot open %s: %w", path, err)
		}

		var compressed bytes.Buffer
		gz, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
		if err != nil {
			body.Close()
			return nil, 0, err
		}
		realLen, err := io.Copy(gz, body)
		body.Close()
		if err != nil {
			return nil, 0, err
		}
		if err := gz.Close(); err != nil {
			return nil, 0, err
		}
		if realLen > math.MaxUint32 || compressed.Len() > math.MaxUint32 {
			return nil, 0, ErrSizeOverflow
		}

		gzipLen, err := target.Write(compressed.Bytes())
		if err != nil {
			return nil, 0, err
		}

		entries = append(entries, fileListEntry{
			path:    path,
			hash:    hash,
			start:   byteCount,
			realLen: uint32(realLen),
			gzipLen: uint32(gzipLen),
		})
		byteCount += uint64(gzipLen)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	logf("packed %d files", count)
	return entries, byteCount, nil
}

func writeIndex(target io.WriteSeeker, contentDir string, entries []fileListEntry, byteCount uint64) (start uint64, gzipLen, realLen uint32, err error) {
	start, err = target.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, 0, err
	}

	var compressed bytes.Buffer
	gz, err := gzip.NewWriterLevel(&compressed, gzip.DefaultCompression)
	if err != nil {
		return 0, 0, 0, err
	}

	real := 0
	n, err := gz.Write([]byte("[DEFAULTSEARCH]\nMAIN\n[SEARCH:MAIN]\n"))
	if err != nil {
		return 0, 0, 0, err
	}
	real += n

	search, err := os.ReadFile(filepath.Join(contentDir, "SEARCH"))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("cannot read SEARCH: %w", err)
	}
	for _, line := range strings.Split(strings.TrimRight(string(search), "\n"), "\n") {
		n, err := fmt.Fprintf(gz, "%s\n", line)
		if err != nil {
			return 0, 0, 0, err
		}
		real += n
	}

	n, err = gz.Write([]byte("[FILELIST]\n"))
	if err != nil {
		return 0, 0, 0, err
	}
	real += n
	for _, e := range entries {
		n, err := fmt.Fprintf(gz, "%s\n", e.String())
		if err != nil {
			return 0, 0, 0, err
		}
		real += n
	}

	if err := gz.Close(); err != nil {
		return 0, 0, 0, err
	}
	if real > math.MaxUint32 || compressed.Len() > math.MaxUint32 {
		return 0, 0, 0, ErrSizeOverflow
	}

	written, err := target.Write(compressed.Bytes())
	if err != nil {
		return 0, 0, 0, err
	}
	return start, uint32(written), uint32(real), nil
}

func writeHeader(target io.WriteSeeker, contentDir string, indexStart uint64, indexGzipLen, indexRealLen uint32) error {
	hashText, err := os.ReadFile(filepath.Join(contentDir, "SHA256SUM"))
	if err != nil {
		return fmt.Errorf("cannot read SHA256SUM: %w", err)
	}
	digest, err := hex.DecodeString(strings.TrimSpace(string(hashText)))
	if err != nil {
		return fmt.Errorf("invalid SHA256SUM contents: %w", err)
	}
	if len(digest) != 32 {
		return fmt.Errorf("invalid SHA256SUM length: %d", len(digest))
	}

	if _, err := target.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var header bytes.Buffer
	header.WriteString(magic)
	binary.Write(&header, binary.LittleEndian, uint32(version))
	binary.Write(&header, binary.LittleEndian, indexStart)
	binary.Write(&header, binary.LittleEndian, indexGzipLen)
	binary.Write(&header, binary.LittleEndian, indexRealLen)
	header.Write(digest)

	if header.Len() != HeaderSize {
		return fmt.Errorf("internal error: header is %d bytes, want %d", header.Len(), HeaderSize)
	}

	_, err = target.Write(header.Bytes())
	return err
}
