package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/container"
)

var shortDebugExtractHelp = "Extract a single file from a bundle"
var longDebugExtractHelp = `
The debug extract command opens a .ttb bundle, locates a single file by
its bundle-relative path, and writes its decompressed contents to stdout.
`

type cmdDebugExtract struct {
	Positional struct {
		Bundle string `positional-arg-name:"<bundle-file>" required:"yes"`
		Path   string `positional-arg-name:"<path>" required:"yes"`
	} `positional-args:"yes"`
}

func init() {
	addDebugCommand("extract", shortDebugExtractHelp, longDebugExtractHelp, func() flags.Commander { return &cmdDebugExtract{} })
}

func (cmd *cmdDebugExtract) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}

	f, err := os.Open(cmd.Positional.Bundle)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := container.Open(f)
	if err != nil {
		return err
	}

	data, err := r.Extract(cmd.Positional.Path)
	if err != nil {
		return err
	}

	_, err = Stdout.Write(data)
	return err
}
