package vm

import (
	"fmt"

	"github.com/jbweber/ironvirt/api/v1alpha1"
	"github.com/jbweber/ironvirt/internal/cloudinit"
	"github.com/jbweber/ironvirt/internal/naming"
)

// ResolvedInterface is a declared NIC with its assigned MAC address. The
// same MAC goes into the domain and the network-config document.
type ResolvedInterface struct {
	v1alpha1.NICSpec
	MAC naming.MAC
}

// ResolveInterfaces assigns a fresh MAC to every declared NIC, in order.
// The declared slice is not modified.
func ResolveInterfaces(nics []v1alpha1.NICSpec, macs macGenerator) ([]ResolvedInterface, error) {
	resolved := make([]ResolvedInterface, 0, len(nics))
	for i, nic := range nics {
		mac, err := macs.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate MAC for nics[%d]: %w", i, err)
		}

		spec := *nic.DeepCopy()
		spec.MACAddress = mac.String()
		resolved = append(resolved, ResolvedInterface{NICSpec: spec, MAC: mac})
	}
	return resolved, nil
}

// networkInterfaces converts resolved NICs for the network-config synthesizer.
func networkInterfaces(resolved []ResolvedInterface) []cloudinit.Interface {
	out := make([]cloudinit.Interface, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, cloudinit.Interface{
			MACAddress: r.MACAddress,
			Address:    r.Address,
		})
	}
	return out
}

// lastBridged returns the last bridge-attached NIC, if any.
func lastBridged(resolved []ResolvedInterface) (ResolvedInterface, bool) {
	for i := len(resolved) - 1; i >= 0; i-- {
		if resolved[i].Kind == v1alpha1.NICBridge {
			return resolved[i], true
		}
	}
	return ResolvedInterface{}, false
}
