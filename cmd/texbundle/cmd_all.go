package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/bundlespec"
	"github.com/texbundle/texbundle/internal/packer"
	"github.com/texbundle/texbundle/internal/selector"
)

var shortAllHelp = "Select and pack a bundle in one step"
var longAllHelp = `
The all command runs select followed by pack, using a temporary build
directory unless --build-dir is given.
`

type cmdAll struct {
	BuildDir string `long:"build-dir" value-name:"<dir>"`
	Debug    bool   `long:"save-debug-files"`

	Positional struct {
		Spec   string `positional-arg-name:"<spec-file>" required:"yes"`
		Output string `positional-arg-name:"<output-file>" required:"yes"`
	} `positional-args:"yes"`
}

func init() {
	addCommand("all", shortAllHelp, longAllHelp, func() flags.Commander { return &cmdAll{} })
}

func (cmd *cmdAll) Execute(args []string) error {
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

	buildDir := cmd.BuildDir
	if buildDir == "" {
		buildDir, err = os.MkdirTemp("", "texbundle-build-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(buildDir)
	}

	stats, err := selector.Run(&selector.Options{
		Spec:           spec,
		BuildDir:       buildDir,
		SaveDebugFiles: cmd.Debug,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, stats.String())

	out, err := os.Create(cmd.Positional.Output)
	if err != nil {
		return err
	}
	if err := packer.Pack(out, filepath.Join(buildDir, "content")); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
