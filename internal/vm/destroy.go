package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/jbweber/ironvirt/internal/disk"
	"github.com/jbweber/ironvirt/internal/libvirt"
	"github.com/jbweber/ironvirt/internal/logger"
)

// Destroy stops the domain named id and removes its instance directory.
//
// Destroying an instance that does not exist succeeds. If the domain stops
// but the directory cannot be removed, the error is returned and the
// directory is left for the operator.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).With("instance", id)

	hv, err := m.connect(ctx)
	if err != nil {
		return err
	}

	if err := libvirt.Destroy(ctx, hv, id); err != nil {
		return err
	}

	if err := m.store.Destroy(id); err != nil {
		if errors.Is(err, disk.ErrInstanceNotFound) {
			log.InfoContext(ctx, "no instance directory to remove")
			return nil
		}
		return fmt.Errorf("domain %s stopped but instance directory remains: %w", id, err)
	}

	log.InfoContext(ctx, "instance destroyed")
	return nil
}
