package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/ironvirt/internal/image"
	"github.com/jbweber/ironvirt/internal/vm"
)

// YAMLFormatter formats listings as YAML sequences.
type YAMLFormatter struct{}

// FormatInstances formats instances as a YAML sequence.
func (f *YAMLFormatter) FormatInstances(instances []vm.InstanceStatus) (string, error) {
	return marshalYAML(instances, len(instances), "instances")
}

// FormatImages formats images as a YAML sequence.
func (f *YAMLFormatter) FormatImages(images []image.Info) (string, error) {
	return marshalYAML(images, len(images), "images")
}

func marshalYAML(v any, n int, what string) (string, error) {
	if n == 0 {
		return "[]\n", nil
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}

	return string(data), nil
}
