// Package loader auto-detects and loads graph definitions from JSON or
// YAML files, grounded in the teacher's loader package (DetectSchema's
// extension-driven format switch and its YAML -> map[string]any -> JSON
// conversion strategy), simplified to this module's single schema.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowcore-dev/flowcore"
	"github.com/flowcore-dev/flowcore/graphdef"
	"github.com/flowcore-dev/flowcore/registry"
	"gopkg.in/yaml.v3"
)

// isYAML returns true if path has a YAML extension.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// toJSON normalizes data to JSON bytes, converting from YAML first when
// path's extension calls for it. yaml.v3 decodes into map[string]any,
// which is already JSON-compatible.
func toJSON(data []byte, path string) ([]byte, error) {
	if !isYAML(path) {
		return data, nil
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("loader: parsing YAML: %w", err)
	}
	return json.Marshal(raw)
}

// LoadGraphDefinition reads path (JSON or YAML, chosen by extension),
// parses it into a GraphDefinition, and validates every node's type
// against reg before returning it.
func LoadGraphDefinition(path string, reg *registry.Registry) (*graphdef.GraphDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", path, err)
	}

	jsonData, err := toJSON(data, path)
	if err != nil {
		return nil, err
	}

	var def graphdef.GraphDefinition
	if err := json.Unmarshal(jsonData, &def); err != nil {
		return nil, fmt.Errorf("loader: parsing graph definition: %w", err)
	}

	if reg != nil {
		for _, node := range def.Nodes {
			if _, ok := reg.Get(node.NodeType); !ok {
				return nil, fmt.Errorf("loader: node %q: %w: %q", node.ID, flowcore.ErrUnknownType, node.NodeType)
			}
		}
	}

	return &def, nil
}

// SaveGraphDefinition writes def to path as JSON or YAML, chosen by
// path's extension, after filling any unset node positions. YAML output
// goes through the same JSON encoding as the JSON path first (then
// re-decodes into a generic value for yaml.Marshal), since DataType only
// defines a JSON tagged-union encoding — handing def to yaml.v3's struct
// reflection directly would ignore that encoding and the json field
// tags, producing a document LoadGraphDefinition could not read back as
// the same definition.
func SaveGraphDefinition(path string, def *graphdef.GraphDefinition) error {
	graphdef.EnsurePositions(def)

	jsonData, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("loader: marshaling graph definition: %w", err)
	}

	out := jsonData
	if isYAML(path) {
		var generic any
		if err := json.Unmarshal(jsonData, &generic); err != nil {
			return fmt.Errorf("loader: re-decoding graph definition for YAML: %w", err)
		}
		out, err = yaml.Marshal(generic)
		if err != nil {
			return fmt.Errorf("loader: marshaling graph definition as YAML: %w", err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("loader: writing %s: %w", path, err)
	}
	return nil
}
