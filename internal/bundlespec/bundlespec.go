// Package bundlespec parses and validates the YAML bundle specification
// that drives selection: which inputs contribute files, under what search
// order, with what ignore and patch rules.
package bundlespec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// InputKind identifies the shape of a single input source.
type InputKind string

const (
	KindDir InputKind = "dir"
	KindTar InputKind = "tar"
)

// SearchOrderEntry is one line of the bundle's search order: either a plain,
// brace-expandable path pattern, or a reference to one of the bundle's
// named inputs (whose own search_order, or a default catch-all, supplies
// the actual patterns).
type SearchOrderEntry struct {
	Literal string
	Input   string
}

// UnmarshalYAML accepts either a plain scalar string (a literal pattern) or
// a mapping of the form `{input: name}` (an input reference), matching the
// two cases original_source's BundleSearchOrder enum distinguishes.
func (e *SearchOrderEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Literal = value.Value
		return nil
	}
	var ref struct {
		Input string `yaml:"input"`
	}
	if err := value.Decode(&ref); err != nil {
		return fmt.Errorf("invalid search_order entry: %w", err)
	}
	if ref.Input == "" {
		return fmt.Errorf("invalid search_order entry: expected a string or {input: <name>}")
	}
	e.Input = ref.Input
	return nil
}

// Bundle holds the top-level bundle metadata and search configuration.
type Bundle struct {
	Name         string             `yaml:"name"`
	ExpectedHash string             `yaml:"expected_hash"`
	Ignore       []string           `yaml:"ignore"`
	SearchOrder  []SearchOrderEntry `yaml:"search_order"`
}

// Input describes a single named input source.
type Input struct {
	Kind        InputKind `yaml:"kind"`
	Location    string    `yaml:"location"`
	Root        string    `yaml:"root"`
	PatchDir    string    `yaml:"patch_dir"`
	Ignore      []string  `yaml:"ignore"`
	SearchOrder []string  `yaml:"search_order"`
}

// Spec is the full bundle specification document.
type Spec struct {
	Bundle Bundle           `yaml:"bundle"`
	Inputs map[string]Input `yaml:"inputs"`
}

// Parse decodes and validates a bundle specification document. Unknown
// fields are rejected so that typos in the YAML surface as errors instead
// of being silently ignored.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("cannot parse bundle spec: %w", err)
	}
	if err := Validate(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks structural invariants that the YAML schema alone cannot
// express: every search_order input reference must name a declared input,
// and no input may be referenced by search_order more than once.
func Validate(spec *Spec) error {
	if spec.Bundle.Name == "" {
		return fmt.Errorf("invalid bundle spec: bundle.name is required")
	}
	referenced := make(map[string]bool)
	for _, entry := range spec.Bundle.SearchOrder {
		if entry.Input == "" {
			continue
		}
		if _, ok := spec.Inputs[entry.Input]; !ok {
			return fmt.Errorf("invalid bundle spec: search_order references unknown input %q", entry.Input)
		}
		if referenced[entry.Input] {
			return fmt.Errorf("invalid bundle spec: input %q referenced by search_order more than once", entry.Input)
		}
		referenced[entry.Input] = true
	}
	for name, input := range spec.Inputs {
		switch input.Kind {
		case KindDir, KindTar:
		default:
			return fmt.Errorf("invalid bundle spec: input %q has unknown kind %q", name, input.Kind)
		}
		if input.Location == "" {
			return fmt.Errorf("invalid bundle spec: input %q has no location", name)
		}
	}
	return nil
}
