package main

import (
	"fmt"

	"github.com/jessevdk/go-flags"
)

var shortVersionHelp = "Show version details"
var longVersionHelp = `
The version command displays the version of the running texbundle binary.
`

type cmdVersion struct{}

func init() {
	addCommand("version", shortVersionHelp, longVersionHelp, func() flags.Commander { return &cmdVersion{} })
}

func (cmd cmdVersion) Execute(args []string) error {
	if len(args) > 0 {
		return ErrExtraArgs
	}
	fmt.Fprintf(Stdout, "%s\n", Version)
	return nil
}
