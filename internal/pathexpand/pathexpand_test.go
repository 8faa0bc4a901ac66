package pathexpand_test

import (
	"reflect"
	"testing"

	"github.com/texbundle/texbundle/internal/pathexpand"
)

func TestExpand(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"/a/b/c", []string{"/a/b/c"}},
		{"/a/{x,y}/b", []string{"/a/x/b", "/a/y/b"}},
		{"/a/{x,y}/{1,2}", []string{"/a/x/1", "/a/x/2", "/a/y/1", "/a/y/2"}},
		{"{x,y,z}", []string{"x", "y", "z"}},
		{"/a//", []string{"/a//"}},
		{"a{1,2}b{x,y,z}", []string{"a1bx", "a1by", "a1bz", "a2bx", "a2by", "a2bz"}},
	}
	for _, c := range cases {
		got, err := pathexpand.Expand(c.line)
		if err != nil {
			t.Fatalf("Expand(%q) error: %v", c.line, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Expand(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func TestExpandErrors(t *testing.T) {
	cases := []string{
		"/a/{x,y",
		"/a/x,y}",
		"/a/{{x,y}}",
		"/a/{}",
		"/a/{,y}",
	}
	for _, line := range cases {
		if _, err := pathexpand.Expand(line); err == nil {
			t.Errorf("Expand(%q) expected error, got none", line)
		}
	}
}
