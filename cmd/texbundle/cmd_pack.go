package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/packer"
)

var shortPackHelp = "Pack a content tree into a .ttb bundle"
var longPackHelp = `
The pack command streams a selector-produced content tree into a single
seekable ttbv1 bundle file.
`

type cmdPack struct {
	BuildDir string `long:"build-dir" value-name:"<dir>" required:"yes"`

	Positional struct {
		Output string `positional-arg-name:"<output-file>" required:"yes"`
	} `positional-args:"yes"`
}

func init() {
	addCommand("pack", shortPackHelp, longPackHelp, func() flags.Commander { return &cmdPack{} })
}

func (cmd *cmdPack) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	contentDir := filepath.Join(cmd.BuildDir, "content")
	if _, err := os.Stat(contentDir); err != nil {
		return fmt.Errorf("cannot find content tree at %s, did you run select first? %w", contentDir, err)
	}

	out, err := os.Create(cmd.Positional.Output)
	if err != nil {
		return err
	}
	if err := packer.Pack(out, contentDir); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
