package vm

import (
	"context"

	"github.com/jbweber/ironvirt/internal/cloudinit"
	"github.com/jbweber/ironvirt/internal/libvirt"
	"github.com/jbweber/ironvirt/internal/naming"
)

// imageRepository defines the image operations needed for provisioning.
//
// In production, this is satisfied by *image.Repository.
// In tests, this is satisfied by mock implementations.
type imageRepository interface {
	// Import stores the image at source under the expected digest
	Import(ctx context.Context, source, expected string) (string, error)

	// Resolve returns the path of a stored image
	Resolve(hex string) (string, error)
}

// instanceStore defines the per-instance directory operations.
//
// In production, this is satisfied by *disk.Store.
type instanceStore interface {
	// Allocate creates the instance directory, failing if it exists
	Allocate(name string) (string, error)

	// CreateInstanceDisk creates the copy-on-write boot disk
	CreateInstanceDisk(ctx context.Context, name, baseImage string, resize *uint64) (string, error)

	// Destroy removes the instance directory and its contents
	Destroy(name string) error

	// List returns the names of all instances
	List() ([]string, error)
}

// driveBuilder builds configuration drives.
//
// In production, this is satisfied by *cloudinit.Builder.
type driveBuilder interface {
	Build(ctx context.Context, drive cloudinit.Drive, baseDir string) (string, error)
}

// macGenerator hands out MAC addresses for new interfaces.
//
// In production, this is satisfied by *naming.Generator.
type macGenerator interface {
	Generate() (naming.MAC, error)
}

// hypervisor starts and stops domains.
//
// In production, this is satisfied by *libvirt.Libvirt from go-libvirt.
type hypervisor interface {
	libvirt.DomainCreator
	libvirt.DomainDestroyer
}
