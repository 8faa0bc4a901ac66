// Package pathexpand implements brace expansion of search-order and patch
// target lines, such as "/a/{tex,latex}/b" expanding into the cross product
// of its alternatives.
package pathexpand

import (
	"fmt"
	"strings"
)

// Expand transforms a line containing shell-like brace alternatives into the
// plain list of strings it denotes, preserving input order. A line with no
// braces expands to a single-element slice holding the line unchanged.
//
// Only the first brace pair in the line is expanded directly; anything after
// its closing brace is expanded recursively, so "/a/{x,y}/{1,2}" yields all
// four combinations in the order x1, x2, y1, y2.
func Expand(line string) ([]string, error) {
	if !strings.ContainsAny(line, "{}") {
		return []string{line}, nil
	}

	first := strings.IndexByte(line, '{')
	last := strings.IndexByte(line, '}')
	if first < 0 || last < 0 {
		return nil, fmt.Errorf("bad search path format: %q", line)
	}
	if last < first {
		return nil, fmt.Errorf("bad search path format: %q", line)
	}

	head := line[:first]
	mid := line[first+1 : last]
	if strings.ContainsAny(mid, "{}") {
		return nil, fmt.Errorf("bad search path format: %q", line)
	}
	if mid == "" {
		return nil, fmt.Errorf("bad search path format: %q", line)
	}

	tail, err := Expand(line[last+1:])
	if err != nil {
		return nil, err
	}

	var out []string
	for _, alt := range strings.Split(mid, ",") {
		if alt == "" {
			return nil, fmt.Errorf("bad search path format: %q", line)
		}
		for _, t := range tail {
			out = append(out, head+alt+t)
		}
	}
	return out, nil
}
