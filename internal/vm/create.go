package vm

import (
	"context"
	"fmt"

	"github.com/jbweber/ironvirt/api/v1alpha1"
	"github.com/jbweber/ironvirt/internal/cloudinit"
	"github.com/jbweber/ironvirt/internal/libvirt"
	"github.com/jbweber/ironvirt/internal/logger"
)

// Create provisions and starts machine m.
//
// The pipeline runs in order and stops at the first failure:
//  1. Import and verify the base image
//  2. Allocate the instance directory and create the boot disk
//  3. Assign MAC addresses and attach network interfaces
//  4. Synthesize network-config and build the configuration drive
//  5. Attach the drive and extra storage, then start the domain
//
// Nothing is rolled back on failure. A failed create can leave an instance
// directory behind; Destroy removes it.
func (m *Manager) Create(ctx context.Context, machine *v1alpha1.Machine) error {
	name := machine.Name
	spec := machine.Spec
	log := logger.FromContext(ctx).With("instance", name)

	// Fail before touching the host if the devices cannot all be attached.
	if n := len(spec.Storage); n > libvirt.MaxExtraDrives {
		return fmt.Errorf("machine %s declares %d storage attachments: %w", name, n, libvirt.ErrDriveLettersExhausted)
	}

	memory, err := machine.MemoryBytes()
	if err != nil {
		return fmt.Errorf("invalid memory for %s: %w", name, err)
	}
	resize, err := machine.ResizeBytes()
	if err != nil {
		return fmt.Errorf("invalid image resize for %s: %w", name, err)
	}
	log.DebugContext(ctx, "resolved machine resources",
		"cpu", spec.CPU, "memory", v1alpha1.FormatSize(memory), "bridged_nics", machine.BridgedNICs())

	// Step 1: Import base image
	log.InfoContext(ctx, "importing base image", "image", spec.Image.Hash)
	hex, err := m.images.Import(ctx, spec.Image.URL, spec.Image.Hash)
	if err != nil {
		return fmt.Errorf("failed to import image for %s: %w", name, err)
	}
	basePath, err := m.images.Resolve(hex)
	if err != nil {
		return fmt.Errorf("failed to resolve image for %s: %w", name, err)
	}

	// Step 2: Instance directory and boot disk
	instanceDir, err := m.store.Allocate(name)
	if err != nil {
		return fmt.Errorf("failed to allocate instance %s: %w", name, err)
	}
	log.InfoContext(ctx, "allocated instance directory", "path", instanceDir)

	diskPath, err := m.store.CreateInstanceDisk(ctx, name, basePath, resize)
	if err != nil {
		return fmt.Errorf("failed to create disk for %s: %w", name, err)
	}
	log.InfoContext(ctx, "created instance disk", "path", diskPath, "image", hex)

	builder := libvirt.NewDomainBuilder(name, spec.CPU, memory, diskPath, m.domain)

	// Step 3: Network interfaces
	nics, err := ResolveInterfaces(spec.NICs, m.macs)
	if err != nil {
		return fmt.Errorf("failed to resolve interfaces for %s: %w", name, err)
	}
	for _, nic := range nics {
		switch nic.Kind {
		case v1alpha1.NICBridge:
			builder.AddBridgedInterface(nic.Parent, nic.MACAddress)
		case v1alpha1.NICMacvtap:
			builder.AddMacvtapInterface(nic.Parent, nic.MACAddress)
		default:
			return fmt.Errorf("unsupported nic kind %q for %s", nic.Kind, name)
		}
		log.DebugContext(ctx, "attached interface", "kind", nic.Kind, "parent", nic.Parent, "mac", nic.MACAddress)
	}

	// Step 4: Configuration drive
	networkConfig, err := cloudinit.SynthesizeNetworkConfig(networkInterfaces(nics))
	if err != nil {
		return fmt.Errorf("failed to synthesize network config for %s: %w", name, err)
	}

	metadata := cloudinit.NewMetadata(name)
	metadata.NetworkInterfaces = spec.NetworkInterfaces
	metadata.PublicKeys = spec.PublicKeys

	drive := cloudinit.Drive{
		Metadata:      metadata,
		NetworkConfig: networkConfig,
	}
	if spec.UserData != "" {
		drive.UserData = []byte(spec.UserData)
	}

	isoPath, err := m.drives.Build(ctx, drive, instanceDir)
	if err != nil {
		return fmt.Errorf("failed to build configuration drive for %s: %w", name, err)
	}
	log.InfoContext(ctx, "built configuration drive", "path", isoPath)

	// Step 5: Remaining devices and start
	builder.AddCdromFromISO(isoPath)
	for i, s := range spec.Storage {
		var target string
		switch s.Kind {
		case v1alpha1.StorageFile:
			target, err = builder.AddFileBackedStorage(s.Path)
		case v1alpha1.StorageBlock:
			target, err = builder.AddBlockBackedStorage(s.Path)
		default:
			err = fmt.Errorf("unsupported storage kind %q", s.Kind)
		}
		if err != nil {
			return fmt.Errorf("failed to attach storage[%d] for %s: %w", i, name, err)
		}
		log.DebugContext(ctx, "attached storage", "path", s.Path, "target", target)
	}

	hv, err := m.connect(ctx)
	if err != nil {
		return err
	}
	if err := builder.Build(ctx, hv); err != nil {
		return err
	}

	if nic, ok := lastBridged(nics); ok {
		log.InfoContext(ctx, "machine started", "parent", nic.Parent, "ipv6_slaac", nic.MAC.IPv6LinkLocal())
	} else {
		log.InfoContext(ctx, "machine started")
	}

	return nil
}
