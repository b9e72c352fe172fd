package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceSpec is the declarative description of one monitored resource.
type ResourceSpec struct {
	Name           string            `yaml:"name"`
	Abbreviation   string            `yaml:"abbreviation"`
	Global         bool              `yaml:"global"`
	Notify         *bool             `yaml:"notify"`
	ErrorMessage   *string           `yaml:"error_message"`
	WarningMessage *string           `yaml:"warning_message"`
	Style          map[string]string `yaml:"style"`
	Graph          string            `yaml:"graph"` // true | false | inherit
	Checker        CheckerSpec       `yaml:"checker"`
	Targets        TargetSpecs       `yaml:"targets"`
}

// CheckerSpec names a checker type; every other key is an option for it.
type CheckerSpec struct {
	Type    string
	Options map[string]any
}

func (c *CheckerSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		// shorthand: "checker: http"
		c.Type = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: checker must be a type name or a mapping", node.Line)
	}

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if t, ok := raw["type"]; ok {
		s, ok := t.(string)
		if !ok {
			return fmt.Errorf("line %d: checker type must be a string", node.Line)
		}
		c.Type = s
		delete(raw, "type")
	}
	if len(raw) > 0 {
		c.Options = raw
	}
	return nil
}

type TargetSpec struct {
	Name    string
	Checker CheckerSpec
}

// TargetSpecs keeps targets in the order they were declared in the file.
type TargetSpecs []TargetSpec

func (t *TargetSpecs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: targets must be a mapping of name to checker", node.Line)
	}
	out := make(TargetSpecs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		ts := TargetSpec{Name: key.Value}
		if !(val.Kind == yaml.ScalarNode && val.Tag == "!!null") {
			if err := val.Decode(&ts.Checker); err != nil {
				return fmt.Errorf("target %q: %w", key.Value, err)
			}
		}
		out = append(out, ts)
	}
	*t = out
	return nil
}

// ParseResources decodes the resources list of a config document.
func ParseResources(data []byte) ([]ResourceSpec, error) {
	var doc struct {
		Resources []ResourceSpec `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse resources: %w", err)
	}
	return doc.Resources, nil
}

func LoadResources(path string) ([]ResourceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	return ParseResources(data)
}
