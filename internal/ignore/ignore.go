// Package ignore implements the anchored regular-expression filters that
// decide which files a bundle input contributes to the content tree.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Filter holds the compiled ignore patterns for a single input source,
// already combined with any patterns declared globally for the bundle.
type Filter struct {
	patterns []*regexp.Regexp
}

// Compile builds a Filter out of raw, unanchored pattern strings. Each
// pattern is anchored with ^ and $ before compiling, matching the logical
// path in full.
func Compile(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		re, err := regexp.Compile("^" + p + "$")
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// New returns the combined Filter for a single input source: every global
// pattern as-is, plus every per-input pattern prefixed with the input's own
// logical path root "^/<source>/". Patterns are trimmed of surrounding
// whitespace; blank ones and ones starting with '#' are dropped.
func New(source string, global, local []string) (*Filter, error) {
	patterns := make([]string, 0, len(global)+len(local))
	for _, p := range global {
		if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
			patterns = append(patterns, p)
		}
	}
	for _, p := range local {
		if p = strings.TrimSpace(p); p != "" && !strings.HasPrefix(p, "#") {
			patterns = append(patterns, "/"+source+"/"+p)
		}
	}
	return Compile(patterns)
}

// Match reports whether logicalPath (of the form "/<source>/<relative>")
// should be excluded from the content tree.
func (f *Filter) Match(logicalPath string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(logicalPath) {
			return true
		}
	}
	return false
}

// ReadLines reads one raw pattern per line, skipping blank lines and lines
// starting with '#'.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
