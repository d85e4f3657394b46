package libvirt

import (
	"context"
	"errors"
	"fmt"

	"github.com/digitalocean/go-libvirt"
	"github.com/google/uuid"
	"libvirt.org/go/libvirtxml"

	"github.com/jbweber/ironvirt/internal/logger"
)

const (
	// MaxExtraDrives is the number of storage attachments that fit after the
	// boot disk (vdb through vdz).
	MaxExtraDrives = 25

	// DefaultSMBIOSVendor is reported as BIOS vendor and system manufacturer
	// when SMBIOS metadata is enabled.
	DefaultSMBIOSVendor = "BigIron"

	smbiosProduct = "OpenStack Nova"
	cdromTarget   = "hdc"
)

var (
	// ErrDriveLettersExhausted is returned when more than MaxExtraDrives
	// storage attachments are added to one domain.
	ErrDriveLettersExhausted = errors.New("drive letters exhausted")

	// ErrBuilderConsumed is returned by Build on a builder that already
	// submitted its domain.
	ErrBuilderConsumed = errors.New("domain builder already consumed")
)

// DomainCreator starts transient domains. *libvirt.Libvirt satisfies it.
type DomainCreator interface {
	DomainCreateXML(XMLDesc string, Flags libvirt.DomainCreateFlags) (libvirt.Domain, error)
}

// DomainDestroyer stops domains by name. *libvirt.Libvirt satisfies it.
type DomainDestroyer interface {
	DomainLookupByName(Name string) (libvirt.Domain, error)
	DomainDestroy(Dom libvirt.Domain) error
}

// DeviceKind tags the variants of Device.
type DeviceKind int

const (
	DeviceBridge DeviceKind = iota
	DeviceMacvtap
	DeviceFile
	DeviceBlock
	DeviceCdrom
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceBridge:
		return "bridge"
	case DeviceMacvtap:
		return "macvtap"
	case DeviceFile:
		return "file"
	case DeviceBlock:
		return "block"
	case DeviceCdrom:
		return "cdrom"
	default:
		return fmt.Sprintf("DeviceKind(%d)", int(k))
	}
}

// Device is one accumulated device declaration. Source is the parent
// interface for network devices and the host path for disks.
type Device struct {
	Kind   DeviceKind
	Source string
	MAC    string
	Target string
}

// Options carries host-level knobs for rendered domains.
type Options struct {
	// SMBIOSMetadata adds BIOS vendor and system product entries to the
	// domain's SMBIOS tables.
	SMBIOSMetadata bool
	SMBIOSVendor   string
}

// DomainBuilder accumulates devices for a single domain and renders it
// through libvirtxml.
type DomainBuilder struct {
	name        string
	uuid        string
	cpus        uint32
	memoryBytes uint64
	bootDisk    string
	opts        Options

	devices    []Device
	extraDisks int
	consumed   bool
}

// NewDomainBuilder starts a domain with the given identity, resources and
// boot disk. The boot disk is always attached as vda.
func NewDomainBuilder(name string, cpus uint32, memoryBytes uint64, bootDisk string, opts Options) *DomainBuilder {
	if opts.SMBIOSVendor == "" {
		opts.SMBIOSVendor = DefaultSMBIOSVendor
	}
	return &DomainBuilder{
		name:        name,
		uuid:        uuid.NewString(),
		cpus:        cpus,
		memoryBytes: memoryBytes,
		bootDisk:    bootDisk,
		opts:        opts,
	}
}

// Name returns the domain name.
func (b *DomainBuilder) Name() string { return b.name }

// UUID returns the domain UUID fixed at construction.
func (b *DomainBuilder) UUID() string { return b.uuid }

// Devices returns a copy of the accumulated device list in call order.
func (b *DomainBuilder) Devices() []Device {
	out := make([]Device, len(b.devices))
	copy(out, b.devices)
	return out
}

// AddBridgedInterface attaches a virtio NIC to a host bridge.
func (b *DomainBuilder) AddBridgedInterface(parent, mac string) {
	b.devices = append(b.devices, Device{Kind: DeviceBridge, Source: parent, MAC: mac})
}

// AddMacvtapInterface attaches a virtio NIC directly to a host device in
// macvtap bridge mode.
func (b *DomainBuilder) AddMacvtapInterface(parent, mac string) {
	b.devices = append(b.devices, Device{Kind: DeviceMacvtap, Source: parent, MAC: mac})
}

// AddFileBackedStorage attaches a disk image file on the next free target
// and returns that target.
func (b *DomainBuilder) AddFileBackedStorage(path string) (string, error) {
	return b.addStorage(DeviceFile, path)
}

// AddBlockBackedStorage attaches a host block device on the next free target
// and returns that target.
func (b *DomainBuilder) AddBlockBackedStorage(path string) (string, error) {
	return b.addStorage(DeviceBlock, path)
}

func (b *DomainBuilder) addStorage(kind DeviceKind, path string) (string, error) {
	target, err := DriveTarget(b.extraDisks)
	if err != nil {
		return "", err
	}
	b.extraDisks++
	b.devices = append(b.devices, Device{Kind: kind, Source: path, Target: target})
	return target, nil
}

// AddCdromFromISO attaches a read-only ISO image, typically the
// configuration drive.
func (b *DomainBuilder) AddCdromFromISO(path string) {
	b.devices = append(b.devices, Device{Kind: DeviceCdrom, Source: path, Target: cdromTarget})
}

// DriveTarget maps the zero-based index of an extra storage attachment to
// its virtio target name. vda belongs to the boot disk.
func DriveTarget(index int) (string, error) {
	if index < 0 || index >= MaxExtraDrives {
		return "", fmt.Errorf("%w: attachment %d exceeds %d extra drives", ErrDriveLettersExhausted, index, MaxExtraDrives)
	}
	return "vd" + string(rune('b'+index)), nil
}

// Render produces the domain XML. It has no side effects and may be called
// any number of times.
func (b *DomainBuilder) Render() (string, error) {
	domain := b.domain()

	xml, err := domain.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal domain XML: %w", err)
	}

	return xml, nil
}

func (b *DomainBuilder) domain() *libvirtxml.Domain {
	serialPort := uint(0)

	domain := &libvirtxml.Domain{
		Type: "kvm",
		Name: b.name,
		UUID: b.uuid,
		Memory: &libvirtxml.DomainMemory{
			Value: uint(b.memoryBytes),
			Unit:  "bytes",
		},
		CurrentMemory: &libvirtxml.DomainCurrentMemory{
			Value: uint(b.memoryBytes),
			Unit:  "bytes",
		},
		VCPU: &libvirtxml.DomainVCPU{
			Value: uint(b.cpus),
		},
		OS: &libvirtxml.DomainOS{
			Type: &libvirtxml.DomainOSType{
				Arch:    "x86_64",
				Machine: "pc",
				Type:    "hvm",
			},
			BootDevices: []libvirtxml.DomainBootDevice{
				{Dev: "hd"},
			},
		},
		Features: &libvirtxml.DomainFeatureList{
			ACPI: &libvirtxml.DomainFeature{},
			APIC: &libvirtxml.DomainFeatureAPIC{},
		},
		Clock: &libvirtxml.DomainClock{
			Offset: "utc",
		},
		PM: &libvirtxml.DomainPM{
			SuspendToMem:  &libvirtxml.DomainPMPolicy{Enabled: "no"},
			SuspendToDisk: &libvirtxml.DomainPMPolicy{Enabled: "no"},
		},
		Devices: &libvirtxml.DomainDeviceList{
			Serials: []libvirtxml.DomainSerial{
				{
					Source: &libvirtxml.DomainChardevSource{
						Pty: &libvirtxml.DomainChardevSourcePty{},
					},
					Target: &libvirtxml.DomainSerialTarget{
						Type: "isa-serial",
						Port: &serialPort,
					},
				},
			},
			Inputs: []libvirtxml.DomainInput{
				{Type: "keyboard", Bus: "ps2"},
				{Type: "mouse", Bus: "ps2"},
			},
			MemBalloon: &libvirtxml.DomainMemBalloon{
				Model: "virtio",
			},
		},
	}

	if b.opts.SMBIOSMetadata {
		domain.OS.SMBios = &libvirtxml.DomainSMBios{Mode: "sysinfo"}
		domain.SysInfo = []libvirtxml.DomainSysInfo{
			{
				SMBIOS: &libvirtxml.DomainSysInfoSMBIOS{
					BIOS: &libvirtxml.DomainSysInfoBIOS{
						Entry: []libvirtxml.DomainSysInfoEntry{
							{Name: "vendor", Value: b.opts.SMBIOSVendor},
						},
					},
					System: &libvirtxml.DomainSysInfoSystem{
						Entry: []libvirtxml.DomainSysInfoEntry{
							{Name: "manufacturer", Value: b.opts.SMBIOSVendor},
							{Name: "product", Value: smbiosProduct},
						},
					},
				},
			},
		}
	}

	domain.Devices.Disks = append(domain.Devices.Disks, libvirtxml.DomainDisk{
		Device: "disk",
		Driver: &libvirtxml.DomainDiskDriver{
			Name:  "qemu",
			Type:  "qcow2",
			Cache: "writeback",
		},
		Source: &libvirtxml.DomainDiskSource{
			File: &libvirtxml.DomainDiskSourceFile{File: b.bootDisk},
		},
		Target: &libvirtxml.DomainDiskTarget{
			Dev: "vda",
			Bus: "virtio",
		},
	})

	for _, dev := range b.devices {
		switch dev.Kind {
		case DeviceBridge:
			domain.Devices.Interfaces = append(domain.Devices.Interfaces, libvirtxml.DomainInterface{
				MAC: &libvirtxml.DomainInterfaceMAC{Address: dev.MAC},
				Source: &libvirtxml.DomainInterfaceSource{
					Bridge: &libvirtxml.DomainInterfaceSourceBridge{Bridge: dev.Source},
				},
				Model: &libvirtxml.DomainInterfaceModel{Type: "virtio"},
			})
		case DeviceMacvtap:
			domain.Devices.Interfaces = append(domain.Devices.Interfaces, libvirtxml.DomainInterface{
				MAC: &libvirtxml.DomainInterfaceMAC{Address: dev.MAC},
				Source: &libvirtxml.DomainInterfaceSource{
					Direct: &libvirtxml.DomainInterfaceSourceDirect{Dev: dev.Source, Mode: "bridge"},
				},
				Model: &libvirtxml.DomainInterfaceModel{Type: "virtio"},
			})
		case DeviceFile:
			domain.Devices.Disks = append(domain.Devices.Disks, libvirtxml.DomainDisk{
				Device: "disk",
				Source: &libvirtxml.DomainDiskSource{
					File: &libvirtxml.DomainDiskSourceFile{File: dev.Source},
				},
				Target: &libvirtxml.DomainDiskTarget{Dev: dev.Target, Bus: "virtio"},
			})
		case DeviceBlock:
			domain.Devices.Disks = append(domain.Devices.Disks, libvirtxml.DomainDisk{
				Device: "disk",
				Source: &libvirtxml.DomainDiskSource{
					Block: &libvirtxml.DomainDiskSourceBlock{Dev: dev.Source},
				},
				Target: &libvirtxml.DomainDiskTarget{Dev: dev.Target, Bus: "virtio"},
			})
		case DeviceCdrom:
			domain.Devices.Disks = append(domain.Devices.Disks, libvirtxml.DomainDisk{
				Device: "cdrom",
				Source: &libvirtxml.DomainDiskSource{
					File: &libvirtxml.DomainDiskSourceFile{File: dev.Source},
				},
				Target:   &libvirtxml.DomainDiskTarget{Dev: dev.Target, Bus: "ide"},
				ReadOnly: &libvirtxml.DomainDiskReadOnly{},
			})
		}
	}

	return domain
}

// Build renders the domain and asks the hypervisor to create and start it
// as a transient domain. The builder is consumed even when the hypervisor
// rejects the domain.
func (b *DomainBuilder) Build(ctx context.Context, conn DomainCreator) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	b.consumed = true

	xml, err := b.Render()
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.DebugContext(ctx, "submitting domain", "instance", b.name, "uuid", b.uuid, "xml", xml)

	if _, err := conn.DomainCreateXML(xml, 0); err != nil {
		return fmt.Errorf("failed to create domain %s: %w", b.name, err)
	}

	log.InfoContext(ctx, "domain started", "instance", b.name, "uuid", b.uuid)
	return nil
}

// Destroy stops the named domain. A domain that does not exist is treated
// as already destroyed.
func Destroy(ctx context.Context, conn DomainDestroyer, name string) error {
	log := logger.FromContext(ctx)

	dom, err := conn.DomainLookupByName(name)
	if err != nil {
		if libvirt.IsNotFound(err) {
			log.InfoContext(ctx, "domain not found, nothing to stop", "instance", name)
			return nil
		}
		return fmt.Errorf("failed to look up domain %s: %w", name, err)
	}

	if err := conn.DomainDestroy(dom); err != nil {
		if libvirt.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to destroy domain %s: %w", name, err)
	}

	log.InfoContext(ctx, "domain stopped", "instance", name)
	return nil
}
