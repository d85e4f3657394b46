// Package loader reads and writes streams of ironvirt resource documents.
//
// A stream is one or more YAML documents separated by "---". Each document
// carries a kind discriminator; documents are returned in stream order.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/ironvirt/api/v1alpha1"
)

// ErrUnknownKind is returned for documents whose kind is not recognized.
var ErrUnknownKind = errors.New("unknown resource kind")

// LoadFromFile loads every resource in a YAML stream file.
func LoadFromFile(path string) ([]v1alpha1.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	resources, err := LoadFromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return resources, nil
}

// LoadFromYAML decodes, defaults and validates every document in data.
// Empty documents are skipped.
func LoadFromYAML(data []byte) ([]v1alpha1.Resource, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var resources []v1alpha1.Resource
	for i := 0; ; i++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: failed to unmarshal YAML: %w", i, err)
		}
		if isEmptyDocument(&node) {
			continue
		}

		res, err := decodeResource(&node)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		resources = append(resources, res)
	}

	return resources, nil
}

// decodeResource dispatches on the kind field of a single document.
func decodeResource(node *yaml.Node) (v1alpha1.Resource, error) {
	var meta v1alpha1.TypeMeta
	if err := node.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if meta.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}

	expectedAPIVersion := v1alpha1.GroupName + "/" + v1alpha1.Version
	if meta.APIVersion != "" && meta.APIVersion != expectedAPIVersion {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", meta.APIVersion, expectedAPIVersion)
	}

	switch meta.Kind {
	case v1alpha1.MachineKind:
		var m v1alpha1.Machine
		if err := node.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", meta.Kind, err)
		}

		applyDefaults(&m)

		if err := validateMachine(&m); err != nil {
			return nil, fmt.Errorf("validation failed for %s %q: %w", m.Kind, m.Name, err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, meta.Kind)
	}
}

func isEmptyDocument(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		inner := node.Content[0]
		return inner.Kind == yaml.ScalarNode && inner.Tag == "!!null"
	}
	return false
}

// MarshalYAML encodes resources as a "---" separated stream.
func MarshalYAML(resources []v1alpha1.Resource) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	for _, res := range resources {
		if m, ok := res.(*v1alpha1.Machine); ok {
			v1alpha1.SetDefaultAPIVersion(m)
		}
		if err := enc.Encode(res); err != nil {
			return nil, fmt.Errorf("failed to marshal %s %q: %w", res.GetKind(), res.GetName(), err)
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish YAML stream: %w", err)
	}

	return buf.Bytes(), nil
}

// SaveToFile writes resources to path as a YAML stream.
func SaveToFile(resources []v1alpha1.Resource, path string) error {
	data, err := MarshalYAML(resources)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

// Machines filters the Machine resources out of a stream, keeping order.
func Machines(resources []v1alpha1.Resource) []*v1alpha1.Machine {
	var out []*v1alpha1.Machine
	for _, res := range resources {
		if m, ok := res.(*v1alpha1.Machine); ok {
			out = append(out, m)
		}
	}
	return out
}

// applyDefaults sets default values for optional fields.
func applyDefaults(m *v1alpha1.Machine) {
	v1alpha1.SetDefaultAPIVersion(m)
	m.Normalize()
}
