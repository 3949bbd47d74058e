package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crlotwhite/libetude-sub008/pkg/errs"
)

// descriptor is the on-disk YAML shape a graph is authored in outside
// of a LEF model file — e.g. for the `graph run` CLI subcommand
// exercising a hand-written pipeline without a compiled model.
type descriptor struct {
	Nodes   []nodeDescriptor `yaml:"nodes"`
	Outputs []string         `yaml:"outputs"`
}

type nodeDescriptor struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Inputs []string       `yaml:"inputs"`
	Params map[string]any `yaml:"params"`
}

// LoadYAMLFile reads and parses a graph descriptor file into a Graph.
func LoadYAMLFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("graph: read descriptor %s: %w", path, err)
	}
	return LoadYAML(data)
}

// LoadYAML parses a graph descriptor from YAML bytes. Nodes are declared
// in dependency order: a node's "inputs" must name nodes already
// declared earlier in the file, mirroring the id-ordering invariant
// Graph.Validate enforces.
func LoadYAML(data []byte) (*Graph, error) {
	var d descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("graph: parse descriptor: %w", err)
	}

	g := New()
	nameToID := make(map[string]NodeID, len(d.Nodes))
	for _, nd := range d.Nodes {
		if nd.Name == "" || nd.Type == "" {
			return nil, fmt.Errorf("graph: descriptor node missing name or type: %w", errs.ErrInvalidArgument)
		}
		if _, dup := nameToID[nd.Name]; dup {
			return nil, fmt.Errorf("graph: duplicate node name %q: %w", nd.Name, errs.ErrInvalidArgument)
		}
		ids := make([]NodeID, 0, len(nd.Inputs))
		for _, in := range nd.Inputs {
			id, ok := nameToID[in]
			if !ok {
				return nil, fmt.Errorf("graph: node %q references undeclared input %q (declare inputs before consumers): %w", nd.Name, in, errs.ErrInvalidArgument)
			}
			ids = append(ids, id)
		}
		id := g.AddNode(nd.Name, nd.Type, nd.Params, ids...)
		nameToID[nd.Name] = id
	}

	outIDs := make([]NodeID, 0, len(d.Outputs))
	for _, name := range d.Outputs {
		id, ok := nameToID[name]
		if !ok {
			return nil, fmt.Errorf("graph: output references undeclared node %q: %w", name, errs.ErrInvalidArgument)
		}
		outIDs = append(outIDs, id)
	}
	g.SetOutputs(outIDs...)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
