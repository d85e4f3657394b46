package vm

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/digitalocean/go-libvirt"

	"github.com/jbweber/ironvirt/internal/cloudinit"
	"github.com/jbweber/ironvirt/internal/disk"
	"github.com/jbweber/ironvirt/internal/naming"
)

// mockImages is a mock implementation of imageRepository.
type mockImages struct {
	importFunc  func(source, expected string) (string, error)
	resolveFunc func(hex string) (string, error)

	importCalls  []string
	resolveCalls []string
}

func newMockImages() *mockImages {
	return &mockImages{
		importFunc: func(_, expected string) (string, error) {
			return expected, nil
		},
		resolveFunc: func(hex string) (string, error) {
			return filepath.Join("/images", naming.ImageFileName(hex)), nil
		},
	}
}

func (m *mockImages) Import(_ context.Context, source, expected string) (string, error) {
	m.importCalls = append(m.importCalls, source)
	return m.importFunc(source, expected)
}

func (m *mockImages) Resolve(hex string) (string, error) {
	m.resolveCalls = append(m.resolveCalls, hex)
	return m.resolveFunc(hex)
}

// mockStore is an in-memory instanceStore.
type mockStore struct {
	root      string
	instances map[string]bool

	allocateErr error
	diskErr     error
	destroyErr  error

	allocateCalls []string
	diskCalls     []diskCall
	destroyCalls  []string
}

type diskCall struct {
	name   string
	base   string
	resize *uint64
}

func newMockStore() *mockStore {
	return &mockStore{root: "/instances", instances: map[string]bool{}}
}

func (m *mockStore) Allocate(name string) (string, error) {
	m.allocateCalls = append(m.allocateCalls, name)
	if m.allocateErr != nil {
		return "", m.allocateErr
	}
	if m.instances[name] {
		return "", disk.ErrInstanceExists
	}
	m.instances[name] = true
	return filepath.Join(m.root, name), nil
}

func (m *mockStore) CreateInstanceDisk(_ context.Context, name, base string, resize *uint64) (string, error) {
	m.diskCalls = append(m.diskCalls, diskCall{name: name, base: base, resize: resize})
	if m.diskErr != nil {
		return "", m.diskErr
	}
	return filepath.Join(m.root, name, naming.InstanceDiskName), nil
}

func (m *mockStore) Destroy(name string) error {
	m.destroyCalls = append(m.destroyCalls, name)
	if m.destroyErr != nil {
		return m.destroyErr
	}
	if !m.instances[name] {
		return disk.ErrInstanceNotFound
	}
	delete(m.instances, name)
	return nil
}

func (m *mockStore) List() ([]string, error) {
	var names []string
	for name := range m.instances {
		names = append(names, name)
	}
	return names, nil
}

// mockDrives records every drive it is asked to build.
type mockDrives struct {
	err    error
	drives []cloudinit.Drive
}

func (m *mockDrives) Build(_ context.Context, drive cloudinit.Drive, baseDir string) (string, error) {
	m.drives = append(m.drives, drive)
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join(baseDir, naming.ConfigDriveISOName), nil
}

// mockHypervisor is a mock implementation of hypervisor.
type mockHypervisor struct {
	createErr  error
	lookupErr  error
	destroyErr error

	createdXML   []string
	lookupCalls  []string
	destroyCalls []string
}

func (m *mockHypervisor) DomainCreateXML(xml string, _ libvirt.DomainCreateFlags) (libvirt.Domain, error) {
	m.createdXML = append(m.createdXML, xml)
	if m.createErr != nil {
		return libvirt.Domain{}, m.createErr
	}
	return libvirt.Domain{}, nil
}

func (m *mockHypervisor) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.lookupCalls = append(m.lookupCalls, name)
	if m.lookupErr != nil {
		return libvirt.Domain{}, m.lookupErr
	}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockHypervisor) DomainDestroy(dom libvirt.Domain) error {
	m.destroyCalls = append(m.destroyCalls, dom.Name)
	return m.destroyErr
}

func errNoDomain() error {
	return libvirt.Error{Code: uint32(libvirt.ErrNoDomain), Message: "Domain not found"}
}

// fixedMACs yields 00:16:3e:23:59:0f, then 00:16:3e:5f:5d:47, then fails.
func fixedMACs() *naming.Generator {
	return naming.NewGenerator(bytes.NewReader([]byte{0x23, 0x59, 0x0f, 0x5f, 0x5d, 0x47}))
}

type testEnv struct {
	images *mockImages
	store  *mockStore
	drives *mockDrives
	hv     *mockHypervisor
	mgr    *Manager
}

func newTestEnv() *testEnv {
	env := &testEnv{
		images: newMockImages(),
		store:  newMockStore(),
		drives: &mockDrives{},
		hv:     &mockHypervisor{},
	}
	env.mgr = NewManager(Deps{
		Images:     env.images,
		Store:      env.store,
		Drives:     env.drives,
		MACs:       fixedMACs(),
		Hypervisor: env.hv,
	})
	return env
}
