// Package selector implements stage one of the bundle pipeline: walking
// every configured input, filtering and patching files, and assembling a
// content tree together with its SEARCH, FILELIST and SHA256SUM companions.
package selector

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/juju/fslock"
	"golang.org/x/term"

	"github.com/texbundle/texbundle/internal/bundlespec"
	"github.com/texbundle/texbundle/internal/fsutil"
	"github.com/texbundle/texbundle/internal/ignore"
	"github.com/texbundle/texbundle/internal/input"
	"github.com/texbundle/texbundle/internal/manifest"
	"github.com/texbundle/texbundle/internal/patch"
	"github.com/texbundle/texbundle/internal/pathexpand"
)

// Options controls a Run beyond what the bundle spec itself describes.
type Options struct {
	Spec           *bundlespec.Spec
	BuildDir       string
	SaveDebugFiles bool
}

// Run walks every input named in spec, builds buildDir/content, and writes
// SEARCH, FILELIST and SHA256SUM into it. It holds an exclusive lock on
// buildDir for the duration of the run, so concurrent selections into the
// same build directory fail fast instead of corrupting each other.
func Run(options *Options) (*Stats, error) {
	spec := options.Spec
	buildDir := options.BuildDir

	lock := fslock.New(filepath.Join(buildDir, ".texbundle.lock"))
	if err := lock.LockWithTimeout(5 * time.Second); err != nil {
		return nil, fmt.Errorf("cannot lock build directory %s: %w", buildDir, err)
	}
	defer lock.Unlock()

	contentDir := filepath.Join(buildDir, "content")
	if err := os.MkdirAll(contentDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create content directory: %w", err)
	}

	stats := newStats()
	builder := manifest.NewBuilder()

	names := make([]string, 0, len(spec.Inputs))
	for name := range spec.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	progress := newProgress()
	for _, name := range names {
		added, err := addSource(contentDir, name, spec.Inputs[name], spec.Bundle.Ignore, builder, stats, progress)
		if err != nil {
			return nil, fmt.Errorf("cannot add input %q: %w", name, err)
		}
		stats.Added[name] = added
	}
	progress.done()

	search, err := writeSearch(contentDir, spec, builder)
	if err != nil {
		return nil, err
	}

	digest, err := builder.Generate(contentDir)
	if err != nil {
		return nil, err
	}
	if want := spec.Bundle.ExpectedHash; want != "" && !strings.EqualFold(want, digest) {
		logf("bundle digest mismatch: computed %s, expected_hash %s", digest, want)
	}

	if options.SaveDebugFiles {
		if err := writeSearchReport(buildDir, contentDir, search); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

// addSource copies every non-ignored file of a single input into
// contentDir/<name>, applying that input's patches, and returns the number
// of files added.
func addSource(contentDir, name string, in bundlespec.Input, globalIgnore []string, builder *manifest.Builder, stats *Stats, progress *progress) (int, error) {
	filter, err := ignore.New(name, globalIgnore, in.Ignore)
	if err != nil {
		return 0, err
	}

	patches := patch.NewRegistry()
	if in.PatchDir != "" {
		if err := patches.LoadDir(in.PatchDir); err != nil {
			return 0, err
		}
		stats.PatchFound += patches.Found
	}

	var src input.Source
	switch in.Kind {
	case bundlespec.KindDir:
		src, err = input.NewDir(in.Location)
	case bundlespec.KindTar:
		src, err = input.NewTar(in.Location, in.Root)
	default:
		return 0, fmt.Errorf("unknown input kind %q", in.Kind)
	}
	if err != nil {
		return 0, err
	}
	if closer, ok := src.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	added := 0
	for {
		file, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return added, err
		}
		relPath := filepath.ToSlash(file.Path)
		logical := "/" + name + "/" + relPath
		if filter.Match(logical) {
			file.Close()
			stats.Ignored++
			continue
		}

		targetRel := filepath.ToSlash(filepath.Join(name, relPath))
		if builder.Has(targetRel) {
			file.Close()
			stats.ExtraConflict++
			debugf("%s from input %q already exists, skipping", logical, name)
			continue
		}

		entry, err := fsutil.Create(&fsutil.CreateOptions{
			Root:        contentDir,
			Path:        targetRel,
			Data:        file,
			Mode:        0644,
			MakeParents: true,
		})
		file.Close()
		if err != nil {
			return added, fmt.Errorf("cannot add file %s: %w", logical, err)
		}

		if diffPath, ok := patches.Lookup(targetRel); ok {
			if err := patches.Apply(entry.Path, diffPath); err != nil {
				return added, fmt.Errorf("cannot patch %s: %w", logical, err)
			}
			rehashed, err := rehash(entry.Path)
			if err != nil {
				return added, err
			}
			entry.SHA256 = rehashed
		}

		builder.Add(targetRel, entry.SHA256)
		added++
		progress.tick()
	}
	stats.PatchApplied += patches.Applied
	return added, nil
}

// writeSearch resolves the bundle's search order into the plain path list
// written as content/SEARCH, registering it (with a real digest) in builder.
func writeSearch(contentDir string, spec *bundlespec.Spec, builder *manifest.Builder) ([]string, error) {
	var lines []string
	for _, entry := range spec.Bundle.SearchOrder {
		if entry.Input == "" {
			expanded, err := pathexpand.Expand(entry.Literal)
			if err != nil {
				return nil, err
			}
			lines = append(lines, expanded...)
			continue
		}
		in := spec.Inputs[entry.Input]
		if len(in.SearchOrder) == 0 {
			expanded, err := pathexpand.Expand("/" + entry.Input + "//")
			if err != nil {
				return nil, err
			}
			lines = append(lines, expanded...)
			continue
		}
		for _, sub := range in.SearchOrder {
			expanded, err := pathexpand.Expand("/" + entry.Input + "/" + sub)
			if err != nil {
				return nil, err
			}
			lines = append(lines, expanded...)
		}
	}

	searchPath := filepath.Join(contentDir, "SEARCH")
	f, err := os.OpenFile(searchPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("cannot write SEARCH: %w", err)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot write SEARCH: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("cannot write SEARCH: %w", err)
	}

	hash, err := rehash(searchPath)
	if err != nil {
		return nil, err
	}
	builder.Add("SEARCH", hash)
	return lines, nil
}

// writeSearchReport lists every content directory not covered by the
// resolved search order, for operators diagnosing missing files.
func writeSearchReport(buildDir, contentDir string, search []string) error {
	reportPath := filepath.Join(buildDir, "search-report")
	f, err := os.OpenFile(reportPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write search-report: %w", err)
	}
	defer f.Close()

	return filepath.Walk(contentDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(contentDir, path)
		if err != nil {
			return err
		}
		entry := "/" + filepath.ToSlash(rel)
		if entry == "/." {
			return nil
		}

		searched := false
		for _, rule := range search {
			if strings.HasSuffix(rule, "//") {
				if strings.HasPrefix(entry, rule[:len(rule)-1]) {
					searched = true
					break
				}
			} else if entry == rule {
				searched = true
				break
			}
		}
		if !searched {
			depth := strings.Count(entry, "/")
			if depth > 0 {
				depth--
			}
			fmt.Fprintf(f, "%s%s\n", strings.Repeat("\t", depth), entry)
		}
		return nil
	})
}

// rehash computes the SHA-256 digest of the file at path in a single
// streaming pass. It is used after an external patch(1) invocation, since
// the patch rewrites the file outside of fsutil's own streaming hash.
func rehash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// progress prints a carriage-return-updated file counter when stdout is a
// terminal, and stays silent otherwise (logs, pipes, CI).
type progress struct {
	tty   bool
	count int
}

func newProgress() *progress {
	return &progress{tty: term.IsTerminal(int(os.Stdout.Fd()))}
}

func (p *progress) tick() {
	p.count++
	if p.tty && p.count%500 == 0 {
		fmt.Fprintf(os.Stdout, "\rSelecting files... %d", p.count)
	}
}

func (p *progress) done() {
	if p.tty {
		fmt.Fprintf(os.Stdout, "\rSelecting files... %d  Done.\n", p.count)
	}
}
