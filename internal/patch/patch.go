// Package patch implements the registry of per-input unified diffs applied
// to files as they are copied into a bundle's content tree.
package patch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/texbundle/texbundle/internal/pathexpand"
)

// entry records where a registered patch target's diff file lives.
type entry struct {
	diffPath string
	source   string
}

// Registry holds every patch registered for a single input's patch_dir,
// keyed by the target path it applies to: the logical path relative to the
// content tree root, no leading slash (e.g. "src/a/b.tex").
//
// Found and Applied are running counts used to confirm, once the whole
// input has been processed, that every discovered patch was used exactly
// once: duplicate target registrations are rejected before Found is
// incremented, so Applied can never exceed Found.
type Registry struct {
	targets map[string]entry
	Found   int
	Applied int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{targets: make(map[string]entry)}
}

// LoadDir scans dir for *.diff files. Each diff's first line holds a
// brace-expandable target pattern; the remaining lines are the unified diff
// body. Every expansion of the pattern is registered as a target for that
// file. If a target is already registered by an earlier diff, the new
// registration is skipped with a warning and Found is not incremented for
// it: the earlier diff wins.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read patch directory %s: %w", dir, err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".diff" {
			continue
		}
		diffPath := filepath.Join(dir, de.Name())
		data, err := os.ReadFile(diffPath)
		if err != nil {
			return fmt.Errorf("cannot read patch %s: %w", diffPath, err)
		}
		firstLine, _, found := strings.Cut(string(data), "\n")
		if !found {
			return fmt.Errorf("patch %s has no diff body", diffPath)
		}
		targets, err := pathexpand.Expand(strings.TrimSpace(firstLine))
		if err != nil {
			return fmt.Errorf("patch %s has invalid target: %w", diffPath, err)
		}
		for _, target := range targets {
			target = strings.TrimPrefix(target, "/")
			if existing, ok := r.targets[target]; ok {
				logf("patch %s conflicts with %s on target %s, ignoring", diffPath, existing.diffPath, target)
				continue
			}
			r.targets[target] = entry{diffPath: diffPath, source: de.Name()}
			r.Found++
		}
	}
	return nil
}

// Lookup reports whether path, relative to the content tree root (a leading
// slash is ignored), has a registered patch, returning its diff file path if
// so.
func (r *Registry) Lookup(path string) (diffPath string, ok bool) {
	e, ok := r.targets[strings.TrimPrefix(path, "/")]
	return e.diffPath, ok
}

// Apply runs the external patch(1) utility against targetPath, feeding it
// the body of the diff at diffPath (its first line, the target pattern, is
// dropped). It increments Applied on success.
func (r *Registry) Apply(targetPath, diffPath string) error {
	data, err := os.ReadFile(diffPath)
	if err != nil {
		return fmt.Errorf("cannot read patch %s: %w", diffPath, err)
	}
	_, body, _ := strings.Cut(string(data), "\n")

	debugf("patching %s with %s", targetPath, diffPath)

	cmd := exec.Command("patch", "--quiet", "--no-backup", targetPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("cannot patch %s: %w", targetPath, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cannot patch %s: %w", targetPath, err)
	}
	if _, err := stdin.Write([]byte(body)); err != nil {
		stdin.Close()
		cmd.Wait()
		return fmt.Errorf("cannot patch %s: %w", targetPath, err)
	}
	if err := stdin.Close(); err != nil {
		cmd.Wait()
		return fmt.Errorf("cannot patch %s: %w", targetPath, err)
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("cannot patch %s: %w", targetPath, err)
	}
	r.Applied++
	return nil
}
