package vm

import (
	"context"
	"fmt"

	"github.com/jbweber/ironvirt/internal/loader"
	"github.com/jbweber/ironvirt/internal/logger"
)

// ApplyFile creates every Machine in the resource document at path, in
// document order, stopping at the first failure. It returns the names of
// the machines created.
func (m *Manager) ApplyFile(ctx context.Context, path string) ([]string, error) {
	resources, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	machines := loader.Machines(resources)
	logger.FromContext(ctx).InfoContext(ctx, "applying resources", "path", path, "machines", len(machines))

	created := make([]string, 0, len(machines))
	for _, machine := range machines {
		if err := m.Create(ctx, machine); err != nil {
			return created, fmt.Errorf("machine %s: %w", machine.Name, err)
		}
		created = append(created, machine.Name)
	}

	return created, nil
}
