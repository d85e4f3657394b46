// Package cloudinit builds NoCloud configuration drives: the meta-data and
// network-config documents and the ISO-9660 volume that carries them.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/datasources/nocloud.html
package cloudinit

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/ironvirt/api/v1alpha1"
)

// Interface is a declared NIC whose MAC address has been resolved.
type Interface struct {
	MACAddress string
	Address    v1alpha1.AddressSpec
}

// NetworkDocument is the network-config file: a network v2 block.
//
// See https://cloudinit.readthedocs.io/en/latest/reference/network-config-format-v2.html
type NetworkDocument struct {
	Network NetworkConfig `yaml:"network"`
}

// NetworkConfig is the version 2 network configuration.
type NetworkConfig struct {
	Version   int                 `yaml:"version"`
	Ethernets map[string]Ethernet `yaml:"ethernets"`
}

// Ethernet is one physical device entry. Only Match is required.
type Ethernet struct {
	Match       MatchConfig  `yaml:"match"`
	DHCP4       *bool        `yaml:"dhcp4,omitempty"`
	DHCP6       *bool        `yaml:"dhcp6,omitempty"`
	Addresses   []string     `yaml:"addresses,omitempty"`
	Gateway4    string       `yaml:"gateway4,omitempty"`
	Gateway6    string       `yaml:"gateway6,omitempty"`
	Nameservers *Nameservers `yaml:"nameservers,omitempty"`
	Routes      []Route      `yaml:"routes,omitempty"`
	WakeOnLAN   *bool        `yaml:"wakeonlan,omitempty"`
	SetName     string       `yaml:"set-name,omitempty"`
}

// MatchConfig matches an interface by MAC address, never by name.
type MatchConfig struct {
	MACAddress string `yaml:"macaddress,omitempty"`
	Name       string `yaml:"name,omitempty"`
	Driver     string `yaml:"driver,omitempty"`
}

// Nameservers represents DNS server configuration.
type Nameservers struct {
	Search    []string `yaml:"search,omitempty"`
	Addresses []string `yaml:"addresses"`
}

// Route represents a static route.
type Route struct {
	To     string `yaml:"to"`
	Via    string `yaml:"via"`
	Metric int    `yaml:"metric,omitempty"`
}

// NetworkVersion is the only schema version emitted.
const NetworkVersion = 2

// SynthesizeNetworkConfig renders the network-config document for ifaces.
//
// Each interface gets the opaque key id<index>. An empty list yields an
// empty document, meaning no network-config file should be attached.
func SynthesizeNetworkConfig(ifaces []Interface) ([]byte, error) {
	if len(ifaces) == 0 {
		return nil, nil
	}

	doc := NetworkDocument{
		Network: NetworkConfig{
			Version:   NetworkVersion,
			Ethernets: make(map[string]Ethernet, len(ifaces)),
		},
	}

	for i, iface := range ifaces {
		if iface.MACAddress == "" {
			return nil, fmt.Errorf("interface %d has no MAC address", i)
		}

		eth := Ethernet{
			Match: MatchConfig{MACAddress: iface.MACAddress},
		}

		switch iface.Address.Kind {
		case v1alpha1.AddressIPv6SLAAC:
			enabled := true
			eth.DHCP6 = &enabled
		case v1alpha1.AddressIPv4Static:
			eth.Addresses = []string{iface.Address.Addr}
			eth.Gateway4 = iface.Address.Gateway
			if len(iface.Address.Nameservers) > 0 {
				eth.Nameservers = &Nameservers{
					Addresses: iface.Address.Nameservers,
				}
			}
		default:
			return nil, fmt.Errorf("interface %d: unsupported address kind %q", i, iface.Address.Kind)
		}

		doc.Network.Ethernets[fmt.Sprintf("id%d", i)] = eth
	}

	yamlBytes, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal network-config to YAML: %w", err)
	}

	return yamlBytes, nil
}
