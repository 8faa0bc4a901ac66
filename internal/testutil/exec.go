package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FakeCommand replaces the named command on PATH with a script that logs
// every invocation's argv, then runs body as a shell script fragment.
type FakeCommand struct {
	exe     string
	callLog string
	restore func()
}

// NewFakeCommand installs name as an executable on PATH that runs body (a
// shell script fragment) and records each invocation's argv for later
// inspection via Calls. Restore must be called to remove it from PATH.
func NewFakeCommand(t testing.TB, name, body string) *FakeCommand {
	t.Helper()
	dir := t.TempDir()
	callLog := filepath.Join(dir, "calls.log")

	exe := filepath.Join(dir, name)
	script := "#!/bin/sh\n" +
		fmt.Sprintf("printf '%%s' \"$0\" >> %q\n", callLog) +
		fmt.Sprintf("for a in \"$@\"; do printf '\\037%%s' \"$a\" >> %q; done\n", callLog) +
		fmt.Sprintf("printf '\\n' >> %q\n", callLog) +
		body + "\n"
	if err := os.WriteFile(exe, []byte(script), 0755); err != nil {
		t.Fatalf("cannot write fake command: %v", err)
	}

	oldPath := os.Getenv("PATH")
	os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath)

	return &FakeCommand{
		exe:     exe,
		callLog: callLog,
		restore: func() { os.Setenv("PATH", oldPath) },
	}
}

// Exe returns the path to the fake executable.
func (f *FakeCommand) Exe() string { return f.exe }

// Restore removes the fake command's directory from PATH.
func (f *FakeCommand) Restore() { f.restore() }

// Calls returns the argv of every invocation recorded so far, in order.
func (f *FakeCommand) Calls() [][]string {
	data, err := os.ReadFile(f.callLog)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		panic(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	var calls [][]string
	for _, line := range lines {
		if line == "" {
			continue
		}
		calls = append(calls, strings.Split(line, "\x1f"))
	}
	return calls
}
