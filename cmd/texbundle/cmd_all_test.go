package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAllThenDebugCommands(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "tex", "generic", "foo.sty"), "foo contents")

	specPath := filepath.Join(t.TempDir(), "bundle.yaml")
	writeFile(t, specPath, `
bundle:
  name: test-bundle
  search_order:
    - input: texlive
inputs:
  texlive:
    kind: dir
    location: `+srcDir+`
`)

	bundlePath := filepath.Join(t.TempDir(), "out.ttb")

	stdout, _ := captureStreams(t)
	fakeArgs(t, "texbundle", "all", specPath, bundlePath)
	if err := run(); err != nil {
		t.Fatalf("all command error: %v", err)
	}
	if !strings.Contains(stdout.String(), "Summary") {
		t.Fatalf("expected stats summary in output, got %q", stdout.String())
	}

	if _, err := os.Stat(bundlePath); err != nil {
		t.Fatalf("bundle was not created: %v", err)
	}

	stdout, _ = captureStreams(t)
	fakeArgs(t, "texbundle", "debug", "check-search", bundlePath)
	if err := run(); err != nil {
		t.Fatalf("debug check-search error: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "/texlive//" {
		t.Fatalf("check-search output = %q", stdout.String())
	}

	stdout, _ = captureStreams(t)
	fakeArgs(t, "texbundle", "debug", "extract", bundlePath, "/texlive/tex/generic/foo.sty")
	if err := run(); err != nil {
		t.Fatalf("debug extract error: %v", err)
	}
	if stdout.String() != "foo contents" {
		t.Fatalf("extract output = %q, want %q", stdout.String(), "foo contents")
	}
}

func TestSelectThenPack(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a.tex"), "hello")

	specPath := filepath.Join(t.TempDir(), "bundle.yaml")
	writeFile(t, specPath, `
bundle:
  name: test-bundle
  search_order:
    - input: texlive
inputs:
  texlive:
    kind: dir
    location: `+srcDir+`
`)

	buildDir := t.TempDir()
	captureStreams(t)
	fakeArgs(t, "texbundle", "select", "--build-dir", buildDir, specPath)
	if err := run(); err != nil {
		t.Fatalf("select command error: %v", err)
	}

	bundlePath := filepath.Join(t.TempDir(), "out.ttb")
	captureStreams(t)
	fakeArgs(t, "texbundle", "pack", "--build-dir", buildDir, bundlePath)
	if err := run(); err != nil {
		t.Fatalf("pack command error: %v", err)
	}

	if info, err := os.Stat(bundlePath); err != nil || info.Size() == 0 {
		t.Fatalf("pack did not produce a non-empty bundle: %v", err)
	}
}
