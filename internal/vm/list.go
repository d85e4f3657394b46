package vm

import (
	"context"
	"fmt"
)

// StatusUnknown is reported for every instance; state is held by libvirt
// only and not tracked locally.
const StatusUnknown = "unknown"

// InstanceStatus is one row of List.
type InstanceStatus struct {
	ID     string `json:"id" yaml:"id"`
	Status string `json:"status" yaml:"status"`
}

// List returns every instance directory in the store, sorted by name.
func (m *Manager) List(_ context.Context) ([]InstanceStatus, error) {
	names, err := m.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	statuses := make([]InstanceStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, InstanceStatus{ID: name, Status: StatusUnknown})
	}
	return statuses, nil
}
