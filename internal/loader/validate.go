package loader

import (
	_ "crypto/sha256"
	"fmt"
	"net/netip"
	"regexp"

	"github.com/opencontainers/go-digest"
	"golang.org/x/crypto/ssh"

	"github.com/jbweber/ironvirt/api/v1alpha1"
)

// machineNamePattern keeps names usable as a directory name and a libvirt domain name.
var machineNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]{0,61}[a-z0-9])?$`)

// validateMachine validates the Machine for required fields and consistency.
func validateMachine(m *v1alpha1.Machine) error {
	if m.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if !machineNamePattern.MatchString(m.Name) {
		return fmt.Errorf("metadata.name %q must be lowercase alphanumerics, '.', '_' or '-'", m.Name)
	}

	if m.Spec.CPU == 0 {
		return fmt.Errorf("spec.cpu must be greater than 0")
	}

	mem, err := m.MemoryBytes()
	if err != nil {
		return fmt.Errorf("spec.memory: %w", err)
	}
	if mem == 0 {
		return fmt.Errorf("spec.memory must be greater than 0")
	}

	if err := validateImage(&m.Spec.Image); err != nil {
		return err
	}

	for i, s := range m.Spec.Storage {
		switch s.Kind {
		case v1alpha1.StorageFile, v1alpha1.StorageBlock:
		default:
			return fmt.Errorf("spec.storage[%d].kind %q must be %s or %s", i, s.Kind, v1alpha1.StorageFile, v1alpha1.StorageBlock)
		}
		if s.Path == "" {
			return fmt.Errorf("spec.storage[%d].path is required", i)
		}
	}

	for i := range m.Spec.NICs {
		if err := validateNIC(i, &m.Spec.NICs[i]); err != nil {
			return err
		}
	}

	for i, key := range m.Spec.PublicKeys {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(key)); err != nil {
			return fmt.Errorf("spec.publicKeys[%d] is not a valid authorized key: %w", i, err)
		}
	}

	return nil
}

func validateImage(img *v1alpha1.ImageSpec) error {
	if img.URL == "" {
		return fmt.Errorf("spec.image.url is required")
	}
	if img.Hash == "" {
		return fmt.Errorf("spec.image.hash is required")
	}
	if err := digest.NewDigestFromEncoded(digest.SHA256, img.Hash).Validate(); err != nil {
		return fmt.Errorf("spec.image.hash is not a sha256 hex digest: %w", err)
	}
	if img.Resize != "" {
		if _, err := v1alpha1.ToSize(img.Resize); err != nil {
			return fmt.Errorf("spec.image.resize: %w", err)
		}
	}
	return nil
}

func validateNIC(i int, nic *v1alpha1.NICSpec) error {
	switch nic.Kind {
	case v1alpha1.NICBridge, v1alpha1.NICMacvtap:
	default:
		return fmt.Errorf("spec.nics[%d].kind %q must be %s or %s", i, nic.Kind, v1alpha1.NICBridge, v1alpha1.NICMacvtap)
	}
	if nic.Parent == "" {
		return fmt.Errorf("spec.nics[%d].parent is required", i)
	}

	addr := nic.Address
	switch addr.Kind {
	case v1alpha1.AddressIPv6SLAAC:
		if addr.Addr != "" || addr.Gateway != "" || len(addr.Nameservers) > 0 {
			return fmt.Errorf("spec.nics[%d].address: %s takes no addr, gateway or nameservers", i, addr.Kind)
		}
	case v1alpha1.AddressIPv4Static:
		prefix, err := netip.ParsePrefix(addr.Addr)
		if err != nil || !prefix.Addr().Is4() {
			return fmt.Errorf("spec.nics[%d].address.addr %q must be an IPv4 address with prefix length", i, addr.Addr)
		}
		gw, err := netip.ParseAddr(addr.Gateway)
		if err != nil || !gw.Is4() {
			return fmt.Errorf("spec.nics[%d].address.gateway %q must be an IPv4 address", i, addr.Gateway)
		}
		for j, ns := range addr.Nameservers {
			if _, err := netip.ParseAddr(ns); err != nil {
				return fmt.Errorf("spec.nics[%d].address.nameservers[%d] %q is not an IP address", i, j, ns)
			}
		}
	default:
		return fmt.Errorf("spec.nics[%d].address.kind %q must be %s or %s", i, addr.Kind, v1alpha1.AddressIPv6SLAAC, v1alpha1.AddressIPv4Static)
	}

	return nil
}
