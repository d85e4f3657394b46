package cloudinit

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Metadata is the meta-data document of a configuration drive.
type Metadata struct {
	InstanceID        string   `yaml:"instance-id"`
	LocalHostname     string   `yaml:"local-hostname"`
	NetworkInterfaces string   `yaml:"network-interfaces,omitempty"`
	PublicKeys        []string `yaml:"public-keys,omitempty"`
}

// NewMetadata returns metadata with instance-id and local-hostname set to name.
//
// Reusing the machine name as instance-id means cloud-init runs again when
// a machine is destroyed and recreated under the same name.
func NewMetadata(name string) Metadata {
	return Metadata{
		InstanceID:    name,
		LocalHostname: name,
	}
}

// Marshal renders the metadata document.
func (m Metadata) Marshal() ([]byte, error) {
	yamlBytes, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal meta-data to YAML: %w", err)
	}
	return yamlBytes, nil
}
