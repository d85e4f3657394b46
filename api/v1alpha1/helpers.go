package v1alpha1

import (
	"strings"
)

const (
	// GroupName is the API group for ironvirt resources.
	GroupName = "ironvirt.jbweber.github.io"

	// Version is the API version.
	Version = "v1alpha1"

	// MachineKind is the kind string for Machine resources.
	MachineKind = "Machine"
)

// Resource is one document of a resource stream. Every kind implements it.
type Resource interface {
	GetKind() string
	GetName() string
}

var _ Resource = (*Machine)(nil)

// NewMachine creates a new Machine with TypeMeta and ObjectMeta set.
func NewMachine(name string) *Machine {
	return &Machine{
		TypeMeta: TypeMeta{
			APIVersion: GroupName + "/" + Version,
			Kind:       MachineKind,
		},
		ObjectMeta: ObjectMeta{
			Name: name,
		},
	}
}

// GetKind returns the kind discriminator.
func (m *Machine) GetKind() string {
	return m.Kind
}

// GetName returns the machine name from metadata.
func (m *Machine) GetName() string {
	return m.Name
}

// SetDefaultAPIVersion ensures the machine has an apiVersion.
// Documents commonly omit it.
func SetDefaultAPIVersion(m *Machine) {
	if m.APIVersion == "" {
		m.APIVersion = GroupName + "/" + Version
	}
	if m.Kind == "" {
		m.Kind = MachineKind
	}
}

// Normalize sanitizes user input to consistent formats.
// The name keeps its case: it is the domain and directory name, and destroy
// looks it up verbatim. Parent device names and paths must match the host exactly.
func (m *Machine) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Spec.Image.Hash = strings.ToLower(strings.TrimSpace(m.Spec.Image.Hash))
	m.Spec.Memory = strings.TrimSpace(m.Spec.Memory)
	m.Spec.Image.Resize = strings.TrimSpace(m.Spec.Image.Resize)
}

// MemoryBytes returns Spec.Memory in bytes.
func (m *Machine) MemoryBytes() (uint64, error) {
	return ToSize(m.Spec.Memory)
}

// ResizeBytes returns the requested boot disk size, or nil when no resize is set.
func (m *Machine) ResizeBytes() (*uint64, error) {
	if m.Spec.Image.Resize == "" {
		return nil, nil
	}
	n, err := ToSize(m.Spec.Image.Resize)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// BridgedNICs returns the number of Bridge interfaces.
func (m *Machine) BridgedNICs() int {
	n := 0
	for _, nic := range m.Spec.NICs {
		if nic.Kind == NICBridge {
			n++
		}
	}
	return n
}
