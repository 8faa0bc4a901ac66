package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/texbundle/texbundle/internal/container"
	"github.com/texbundle/texbundle/internal/input"
	"github.com/texbundle/texbundle/internal/packer"
	"github.com/texbundle/texbundle/internal/patch"
	"github.com/texbundle/texbundle/internal/selector"
)

var (
	// Standard streams, redirected for testing.
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Version is the texbundle CLI version, set via -ldflags at release build
// time; it defaults to "devel" for local builds.
var Version = "devel"

type options struct {
	Version func() `long:"version"`
}

var optionsData options

// ErrExtraArgs is returned if extra arguments to a command are found.
var ErrExtraArgs = fmt.Errorf("too many arguments for command")

// cmdInfo holds information needed to call parser.AddCommand(...).
type cmdInfo struct {
	name, shortHelp, longHelp string
	builder                   func() flags.Commander
	hidden                    bool
}

// commands holds information about all non-debug commands.
var commands []*cmdInfo

// debugCommands holds information about all debug commands.
var debugCommands []*cmdInfo

func addCommand(name, shortHelp, longHelp string, builder func() flags.Commander) *cmdInfo {
	info := &cmdInfo{name: name, shortHelp: shortHelp, longHelp: longHelp, builder: builder}
	commands = append(commands, info)
	return info
}

func addDebugCommand(name, shortHelp, longHelp string, builder func() flags.Commander) *cmdInfo {
	info := &cmdInfo{name: name, shortHelp: shortHelp, longHelp: longHelp, builder: builder}
	debugCommands = append(debugCommands, info)
	return info
}

// Parser creates and populates a fresh parser. A fresh parser is required
// on every call so that command-local state doesn't leak between tests.
func Parser() *flags.Parser {
	optionsData.Version = func() {
		fmt.Fprintf(Stdout, "%s\n", Version)
		panic(&exitStatus{0})
	}
	parser := flags.NewParser(&optionsData, flags.Options(flags.PassDoubleDash))
	parser.ShortDescription = "Build seekable, content-addressed bundles"
	parser.LongDescription = strings.TrimSpace(`
texbundle selects files from one or more typesetting-support trees or
archives, and packs the result into a single seekable .ttb bundle file.
`)
	if version := parser.FindOptionByLongName("version"); version != nil {
		version.Description = "Print the version and exit"
		version.Hidden = true
	}

	for _, c := range commands {
		cmd, err := parser.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), c.builder())
		if err != nil {
			panic(fmt.Errorf("cannot add command %q: %v", c.name, err))
		}
		cmd.Hidden = c.hidden
	}

	debugCommand, err := parser.AddCommand("debug", "Internal commands for debugging", "", &cmdDebug{})
	if err != nil {
		panic(fmt.Errorf("cannot add command %q: %v", "debug", err))
	}
	debugCommand.Hidden = true
	for _, c := range debugCommands {
		cmd, err := debugCommand.AddCommand(c.name, c.shortHelp, strings.TrimSpace(c.longHelp), c.builder())
		if err != nil {
			panic(fmt.Errorf("cannot add debug command %q: %v", c.name, err))
		}
		cmd.Hidden = c.hidden
	}
	return parser
}

type cmdDebug struct{}

func (cmd cmdDebug) Execute(args []string) error {
	return ErrExtraArgs
}

func main() {
	defer func() {
		if v := recover(); v != nil {
			if e, ok := v.(*exitStatus); ok {
				os.Exit(e.code)
			}
			panic(v)
		}
	}()

	if err := run(); err != nil {
		fmt.Fprintf(Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitStatus can be used in panic(&exitStatus{code}) to exit with a given
// status code from deep inside a command, when an error return isn't
// available (e.g. the --version flag callback).
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("internal error: exitStatus{%d} being handled as normal error", e.code)
}

func run() error {
	selector.SetLogger(log.Default())
	packer.SetLogger(log.Default())
	container.SetLogger(log.Default())
	patch.SetLogger(log.Default())
	input.SetLogger(log.Default())

	parser := Parser()
	_, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok {
			switch e.Type {
			case flags.ErrCommandRequired:
				parser.WriteHelp(Stdout)
				return nil
			case flags.ErrHelp:
				parser.WriteHelp(Stdout)
				return nil
			}
		}
		return err
	}
	return nil
}
