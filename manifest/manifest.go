// Package manifest reads declarative wiring documents and applies them onto
// a caps.Registry.
//
// A document owns aggregates and their edges only. Capabilities, providers,
// and context types carry Go types, so they stay in code; the document refers
// to them by registered name. Keys appear in two forms: `key` holds a name
// key literally, and `typeKey` holds an alias that Apply resolves through
// WithTypeKeys, since a type key cannot be spelled in YAML.
//
// Parse is strict: a field the schema does not define fails the decode, so a
// typo like `provder` surfaces at read time instead of as an unwired edge.
package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is one parsed wiring manifest.
type Document struct {
	// External names aggregates the code registered before Apply. Delegate
	// targets must appear here or in Aggregates.
	External ExternalDecl `yaml:"external"`

	// Aggregates are declared on the registry in document order, then their
	// edges are applied in document order.
	Aggregates []AggregateDecl `yaml:"aggregates"`
}

// ExternalDecl lists registry-side names the document refers to but does not
// declare.
type ExternalDecl struct {
	Aggregates []string `yaml:"aggregates"`
}

// AggregateDecl declares one aggregate and its edges.
type AggregateDecl struct {
	Name      string         `yaml:"name"`
	Wires     []WireDecl     `yaml:"wires"`
	Delegates []DelegateDecl `yaml:"delegates"`
}

// WireDecl is a terminal edge: the capability ends at the named provider. At
// most one of Key and TypeKey may be set; neither means the edge is unkeyed.
type WireDecl struct {
	Capability string `yaml:"capability"`
	Provider   string `yaml:"provider"`
	Key        string `yaml:"key"`
	TypeKey    string `yaml:"typeKey"`

	// Constraint is an optional semver range the provider's declared version
	// must satisfy at wiring time.
	Constraint string `yaml:"constraint"`
}

// DelegateDecl is a delegating edge: the capability is looked up again on the
// target aggregate.
type DelegateDecl struct {
	Capability string `yaml:"capability"`
	Key        string `yaml:"key"`
	TypeKey    string `yaml:"typeKey"`
	To         string `yaml:"to"`
}

// Parse decodes one document. Unknown fields are rejected.
func Parse(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	return &doc, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
