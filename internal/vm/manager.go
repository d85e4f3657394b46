package vm

import (
	"context"
	"fmt"
	"io"

	"github.com/jbweber/ironvirt/internal/cloudinit"
	"github.com/jbweber/ironvirt/internal/config"
	"github.com/jbweber/ironvirt/internal/disk"
	"github.com/jbweber/ironvirt/internal/image"
	"github.com/jbweber/ironvirt/internal/libvirt"
	"github.com/jbweber/ironvirt/internal/logger"
	"github.com/jbweber/ironvirt/internal/naming"
)

// Manager provisions and tears down machines on this host.
type Manager struct {
	images imageRepository
	store  instanceStore
	drives driveBuilder
	macs   macGenerator
	domain libvirt.Options

	hv     hypervisor
	dial   func(ctx context.Context) (hypervisor, io.Closer, error)
	closer io.Closer
}

// Deps are the collaborators of a Manager. Hypervisor may be nil when Dial
// is set; the connection is then opened on first use.
type Deps struct {
	Images     imageRepository
	Store      instanceStore
	Drives     driveBuilder
	MACs       macGenerator
	Hypervisor hypervisor
	Dial       func(ctx context.Context) (hypervisor, io.Closer, error)
	Domain     libvirt.Options
}

// NewManager returns a Manager using deps.
func NewManager(deps Deps) *Manager {
	return &Manager{
		images: deps.Images,
		store:  deps.Store,
		drives: deps.Drives,
		macs:   deps.MACs,
		domain: deps.Domain,
		hv:     deps.Hypervisor,
		dial:   deps.Dial,
	}
}

// Open wires a Manager to the host described by cfg. The libvirt
// connection is deferred until an operation needs it, so listing
// instances works without a running daemon.
//
// Callers must Close the returned Manager.
func Open(cfg *config.HostConfig) (*Manager, error) {
	images, err := image.NewRepository(cfg.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open image repository: %w", err)
	}

	runner := disk.ExecRunner{}

	store, err := disk.NewStore(cfg.InstanceDir, runner, cfg.QemuImgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance store: %w", err)
	}

	var author cloudinit.ISOAuthor
	switch cfg.ISOBackend {
	case config.ISOBackendNative:
		author = cloudinit.NativeAuthor{}
	default:
		author = cloudinit.NewMkisofsAuthor(runner, cfg.MkisofsPath)
	}

	socket, timeout := cfg.LibvirtSocket, cfg.ConnectTimeout

	return NewManager(Deps{
		Images: images,
		Store:  store,
		Drives: cloudinit.NewBuilder(author),
		MACs:   naming.NewGenerator(nil),
		Dial: func(ctx context.Context) (hypervisor, io.Closer, error) {
			logger.FromContext(ctx).DebugContext(ctx, "connecting to libvirt", "socket", socket)
			client, err := libvirt.ConnectWithContext(ctx, socket, timeout)
			if err != nil {
				return nil, nil, err
			}
			return client.Libvirt(), client, nil
		},
		Domain: libvirt.Options{
			SMBIOSMetadata: cfg.SMBIOSMetadata,
			SMBIOSVendor:   cfg.SMBIOSVendor,
		},
	}), nil
}

// connect returns the libvirt connection, dialing it on first use.
func (m *Manager) connect(ctx context.Context) (hypervisor, error) {
	if m.hv != nil {
		return m.hv, nil
	}
	if m.dial == nil {
		return nil, fmt.Errorf("no hypervisor connection configured")
	}

	hv, closer, err := m.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to libvirt: %w", err)
	}
	m.hv, m.closer = hv, closer
	return hv, nil
}

// Close releases the libvirt connection if one was opened.
func (m *Manager) Close() error {
	if m.closer == nil {
		return nil
	}
	c := m.closer
	m.closer, m.hv = nil, nil
	return c.Close()
}
