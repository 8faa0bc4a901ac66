package fsutil_test

import (
	"bytes"
	"fmt"
	"path/filepath"

	. "gopkg.in/check.v1"

	"github.com/texbundle/texbundle/internal/fsutil"
	"github.com/texbundle/texbundle/internal/testutil"
)

type createTest struct {
	options fsutil.CreateOptions
	result  map[string]string
	error   string
}

var createTests = []createTest{{
	options: fsutil.CreateOptions{
		Path:        "foo/bar",
		Data:        bytes.NewBufferString("data1"),
		Mode:        0444,
		MakeParents: true,
	},
	result: map[string]string{
		"/foo/":    "dir 0755",
		"/foo/bar": "file 0444 5b41362b",
	},
}, {
	options: fsutil.CreateOptions{
		Path:        "data/empty",
		Data:        bytes.NewBufferString(""),
		Mode:        0644,
		MakeParents: true,
	},
	result: map[string]string{
		"/data/":      "dir 0755",
		"/data/empty": "file 0644 empty",
	},
}, {
	options: fsutil.CreateOptions{
		Path: "foo/bar",
		Data: bytes.NewBufferString("x"),
		Mode: 0644,
	},
	error: `.*: no such file or directory`,
}}

func (s *S) TestCreate(c *C) {
	for _, test := range createTests {
		if test.result == nil {
			test.result = make(map[string]string)
		}
		c.Logf("Options: %v", test.options)
		dir := c.MkDir()
		options := test.options
		options.Root = dir
		entry, err := fsutil.Create(&options)

		if test.error != "" {
			c.Assert(err, ErrorMatches, test.error)
			continue
		}

		c.Assert(err, IsNil)
		c.Assert(testutil.TreeDump(dir), DeepEquals, test.result)
		c.Assert(dumpFSEntry(entry, dir), DeepEquals, test.result[entry.Path[len(dir):]])
	}
}

// dumpFSEntry returns the file entry in the same format as [testutil.TreeDump].
func dumpFSEntry(fsEntry *fsutil.Entry, root string) string {
	if fsEntry.Size == 0 {
		return fmt.Sprintf("file %#o empty", fsEntry.Mode.Perm())
	}
	return fmt.Sprintf("file %#o %s", fsEntry.Mode.Perm(), fsEntry.SHA256[:8])
}

func (s *S) TestCreateWriter(c *C) {
	dir := c.MkDir()
	w, entry, err := fsutil.CreateWriter(&fsutil.CreateOptions{
		Root:        dir,
		Path:        "sub/file",
		Mode:        0644,
		MakeParents: true,
	})
	c.Assert(err, IsNil)
	_, err = w.Write([]byte("data1"))
	c.Assert(err, IsNil)
	c.Assert(w.Close(), IsNil)

	c.Assert(entry.Size, Equals, 5)
	c.Assert(entry.SHA256, Equals, "5b41362bc82b7f3d56edc5a306db22105707d01ff4819e26faef9724a2d406c9")
	c.Assert(testutil.TreeDump(dir), DeepEquals, map[string]string{
		"/sub/":     "dir 0755",
		"/sub/file": "file 0644 5b41362b",
	})
	c.Assert(filepath.Join(dir, "sub", "file"), Equals, entry.Path)
}
