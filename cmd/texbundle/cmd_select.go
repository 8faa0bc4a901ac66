package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/bundlespec"
	"github.com/texbundle/texbundle/internal/selector"
)

var shortSelectHelp = "Select and assemble a bundle's content tree"
var longSelectHelp = `
The select command reads a bundle specification, walks every declared
input, applies ignore rules and patches, and writes the resulting content
tree (together with SEARCH, FILELIST and SHA256SUM) into the build
directory.
`

type cmdSelect struct {
	BuildDir string `long:"build-dir" value-name:"<dir>" required:"yes"`
	Debug    bool   `long:"save-debug-files"`

	Positional struct {
		Spec string `positional-arg-name:"<spec-file>" required:"yes"`
	} `positional-args:"yes"`
}

func init() {
	addCommand("select", shortSelectHelp, longSelectHelp, func() flags.Commander { return &cmdSelect{} })
}

func (cmd *cmdSelect) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	data, err := os.ReadFile(cmd.Positional.Spec)
	if err != nil {
		return err
	}
	spec, err := bundlespec.Parse(data)
	if err != nil {
		return err
	}

	stats, err := selector.Run(&selector.Options{
		Spec:           spec,
		BuildDir:       cmd.BuildDir,
		SaveDebugFiles: cmd.Debug,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(Stdout, stats.String())
	return nil
}
