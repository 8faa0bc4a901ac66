package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/container"
)

var shortCheckSearchHelp = "Print the search order recorded in a bundle"
var longCheckSearchHelp = `
The debug check-search command opens a .ttb bundle and prints the search
order resolved into its index, without extracting any file.
`

type cmdDebugCheckSearch struct {
	Positional struct {
		Bundle string `positional-arg-name:"<bundle-file>" required:"yes"`
	} `positional-args:"yes"`
}

func init() {
	addDebugCommand("check-search", shortCheckSearchHelp, longCheckSearchHelp, func() flags.Commander { return &cmdDebugCheckSearch{} })
}

func (cmd *cmdDebugCheckSearch) Execute(args []string) error {
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

	for _, line := range r.Search() {
		fmt.Fprintln(Stdout, line)
	}
	return nil
}
