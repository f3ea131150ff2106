// Package manifest implements the client manifest/lockfile pair (spec.md
// §4.9): `bdp.yml` (YAML, unknown top-level keys preserved on write-back)
// and `bdl.lock` (JSON, atomic write).
package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bdp-project/bdp/internal/resolve"
)

// Document is the parsed `bdp.yml`: the known top-level keys spec.md §4.9
// names, plus node is retained so ParseManifest/Marshal round-trip
// any unrecognized keys and comments untouched.
type Document struct {
	Name    string
	Version string
	Sources []resolve.ManifestEntry
	Tools   []resolve.ManifestEntry

	node *yaml.Node // the full parsed document, mutated in place on write
}

// ParseManifest parses bdp.yml content. The parser is forgiving of
// trailing whitespace and empty sections, per spec.md §4.9.
func ParseManifest(data []byte) (*Document, error) {
	var root yaml.Node
	trimmed := strings.TrimRight(string(data), " \t\r\n")
	if trimmed == "" {
		trimmed = "{}"
	}
	if err := yaml.Unmarshal([]byte(trimmed), &root); err != nil {
		return nil, fmt.Errorf("manifest: parse yaml: %w", err)
	}
	if len(root.Content) == 0 {
		root.Kind = yaml.DocumentNode
		root.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}

	doc := &Document{node: &root}
	mapping := root.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		val := mapping.Content[i+1]
		switch key {
		case "name":
			doc.Name = val.Value
		case "version":
			doc.Version = val.Value
		case "sources":
			entries, err := decodeSpecList(val)
			if err != nil {
				return nil, fmt.Errorf("manifest: sources: %w", err)
			}
			doc.Sources = entries
		case "tools":
			entries, err := decodeSpecList(val)
			if err != nil {
				return nil, fmt.Errorf("manifest: tools: %w", err)
			}
			doc.Tools = entries
		}
	}
	return doc, nil
}

func decodeSpecList(node *yaml.Node) ([]resolve.ManifestEntry, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil // an empty section such as a bare `sources:`
	}
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a sequence, got %v", node.Kind)
	}
	entries := make([]resolve.ManifestEntry, 0, len(node.Content))
	for _, item := range node.Content {
		spec := strings.TrimSpace(item.Value)
		if spec == "" {
			continue
		}
		entries = append(entries, resolve.ManifestEntry{Spec: spec})
	}
	return entries, nil
}

// Marshal re-encodes the document, with Name/Version/Sources/Tools written
// back into the original parsed node so any other top-level key the parser
// didn't recognize survives unchanged.
func (d *Document) Marshal() ([]byte, error) {
	root := d.node
	if root == nil {
		root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode}}}
	}
	mapping := root.Content[0]

	setScalar(mapping, "name", d.Name)
	setScalar(mapping, "version", d.Version)
	setSpecList(mapping, "sources", d.Sources)
	setSpecList(mapping, "tools", d.Tools)

	out, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("manifest: marshal yaml: %w", err)
	}
	return out, nil
}

func setScalar(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1].SetString(value)
			return
		}
	}
	if value == "" {
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	valNode := &yaml.Node{Kind: yaml.ScalarNode}
	valNode.SetString(value)
	mapping.Content = append(mapping.Content, keyNode, valNode)
}

func setSpecList(mapping *yaml.Node, key string, entries []resolve.ManifestEntry) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range entries {
		item := &yaml.Node{Kind: yaml.ScalarNode}
		item.SetString(e.Spec)
		seq.Content = append(seq.Content, item)
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = seq
			return
		}
	}
	if len(entries) == 0 {
		return
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}
	mapping.Content = append(mapping.Content, keyNode, seq)
}
