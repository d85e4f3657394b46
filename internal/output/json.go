package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/ironvirt/internal/image"
	"github.com/jbweber/ironvirt/internal/vm"
)

// JSONFormatter formats listings as JSON arrays.
type JSONFormatter struct{}

// FormatInstances formats instances as a JSON array.
func (f *JSONFormatter) FormatInstances(instances []vm.InstanceStatus) (string, error) {
	return marshalJSON(instances, len(instances), "instances")
}

// FormatImages formats images as a JSON array.
func (f *JSONFormatter) FormatImages(images []image.Info) (string, error) {
	return marshalJSON(images, len(images), "images")
}

func marshalJSON(v any, n int, what string) (string, error) {
	if n == 0 {
		return "[]\n", nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}

	return string(data) + "\n", nil
}
