package libvirt

import (
	"github.com/digitalocean/go-libvirt"
)

// mockHypervisor implements DomainCreator and DomainDestroyer for testing.
type mockHypervisor struct {
	CreateXMLFunc    func(xml string) (libvirt.Domain, error)
	LookupByNameFunc func(name string) (libvirt.Domain, error)
	DestroyFunc      func(dom libvirt.Domain) error

	// Call tracking
	CreatedXML     []string
	LookedUp       []string
	DestroyedNames []string
}

func (m *mockHypervisor) DomainCreateXML(xml string, _ libvirt.DomainCreateFlags) (libvirt.Domain, error) {
	m.CreatedXML = append(m.CreatedXML, xml)
	if m.CreateXMLFunc != nil {
		return m.CreateXMLFunc(xml)
	}
	return libvirt.Domain{}, nil
}

func (m *mockHypervisor) DomainLookupByName(name string) (libvirt.Domain, error) {
	m.LookedUp = append(m.LookedUp, name)
	if m.LookupByNameFunc != nil {
		return m.LookupByNameFunc(name)
	}
	return libvirt.Domain{Name: name}, nil
}

func (m *mockHypervisor) DomainDestroy(dom libvirt.Domain) error {
	m.DestroyedNames = append(m.DestroyedNames, dom.Name)
	if m.DestroyFunc != nil {
		return m.DestroyFunc(dom)
	}
	return nil
}

func errNoDomain(name string) error {
	return libvirt.Error{
		Code:    uint32(libvirt.ErrNoDomain),
		Message: "Domain not found: no domain with matching name '" + name + "'",
	}
}
