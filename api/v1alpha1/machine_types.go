package v1alpha1

// Machine describes one virtual machine to provision on the local host.
//
// +kubebuilder:object:root=true
type Machine struct {
	// TypeMeta contains the kind discriminator.
	TypeMeta `json:",inline" yaml:",inline"`

	// ObjectMeta contains the machine name.
	ObjectMeta `json:"metadata" yaml:"metadata"`

	// Status is reserved. It is never tracked locally.
	// +optional
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	// Spec defines the desired machine.
	Spec MachineSpec `json:"spec" yaml:"spec"`
}

// MachineSpec defines the resources, image, devices and boot data of a Machine.
//
// +k8s:deepcopy-gen=true
type MachineSpec struct {
	// CPU is the number of virtual CPUs.
	// +kubebuilder:validation:Minimum=1
	CPU uint32 `json:"cpu" yaml:"cpu"`

	// Memory is a scaled size string, e.g. "512Mi" or "4G".
	Memory string `json:"memory" yaml:"memory"`

	// Image is the base image the boot disk is layered on.
	Image ImageSpec `json:"image" yaml:"image"`

	// Storage lists extra disks. Order determines the target device
	// letter (vdb, vdc, ...).
	// +optional
	// +kubebuilder:validation:MaxItems=25
	Storage []StorageSpec `json:"storage,omitempty" yaml:"storage,omitempty"`

	// NICs lists network interfaces in guest order.
	// +optional
	NICs []NICSpec `json:"nics,omitempty" yaml:"nics,omitempty"`

	// UserData is passed verbatim to the guest as cloud-init user-data.
	// +optional
	UserData string `json:"userdata,omitempty" yaml:"userdata,omitempty"`

	// PublicKeys are SSH authorized keys published through the metadata document.
	// +optional
	PublicKeys []string `json:"publicKeys,omitempty" yaml:"publicKeys,omitempty"`

	// NetworkInterfaces is a raw ENI-style block published as metadata
	// network-interfaces.
	// +optional
	NetworkInterfaces string `json:"networkInterfaces,omitempty" yaml:"networkInterfaces,omitempty"`
}

// ImageSpec references a base image by location and content digest.
//
// +k8s:deepcopy-gen=true
type ImageSpec struct {
	// URL locates the image. Only file:// URLs and plain paths are supported.
	URL string `json:"url" yaml:"url"`

	// Hash is the hex SHA-256 of the image contents.
	Hash string `json:"hash" yaml:"hash"`

	// Resize grows the instance disk to this scaled size.
	// +optional
	Resize string `json:"resize,omitempty" yaml:"resize,omitempty"`
}

// StorageKind selects how a storage attachment is backed.
// +kubebuilder:validation:Enum=File;Block
type StorageKind string

const (
	// StorageFile is a disk image file on the host, attached raw.
	StorageFile StorageKind = "File"
	// StorageBlock is a host block device.
	StorageBlock StorageKind = "Block"
)

// StorageSpec is one extra disk.
//
// +k8s:deepcopy-gen=true
type StorageSpec struct {
	Kind StorageKind `json:"kind" yaml:"kind"`
	Path string      `json:"path" yaml:"path"`
}

// NICKind selects the libvirt interface model.
// +kubebuilder:validation:Enum=Bridge;Macvtap
type NICKind string

const (
	// NICBridge attaches to a host bridge.
	NICBridge NICKind = "Bridge"
	// NICMacvtap attaches directly to a host device in bridge mode.
	NICMacvtap NICKind = "Macvtap"
)

// NICSpec is one network interface.
//
// +k8s:deepcopy-gen=true
type NICSpec struct {
	Kind NICKind `json:"kind" yaml:"kind"`

	// Parent is the host bridge or device the interface attaches to.
	Parent string `json:"parent" yaml:"parent"`

	// Address selects how the guest configures the interface.
	Address AddressSpec `json:"address" yaml:"address"`

	// MACAddress is derived during provisioning and never serialized.
	MACAddress string `json:"-" yaml:"-"`
}

// AddressKind selects the guest address mode.
// +kubebuilder:validation:Enum=IPv6SLAAC;IPv4Static
type AddressKind string

const (
	// AddressIPv6SLAAC enables stateless v6 autoconfiguration.
	AddressIPv6SLAAC AddressKind = "IPv6SLAAC"
	// AddressIPv4Static assigns a fixed v4 address.
	AddressIPv4Static AddressKind = "IPv4Static"
)

// AddressSpec configures a NIC address. Addr, Gateway and Nameservers
// only apply to IPv4Static.
//
// +k8s:deepcopy-gen=true
type AddressSpec struct {
	Kind AddressKind `json:"kind" yaml:"kind"`

	// Addr is the address with prefix length, e.g. 192.168.3.160/24.
	// +optional
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// +optional
	Gateway string `json:"gateway,omitempty" yaml:"gateway,omitempty"`

	// +optional
	Nameservers []string `json:"nameservers,omitempty" yaml:"nameservers,omitempty"`
}

// DeepCopy creates a deep copy of Machine.
func (in *Machine) DeepCopy() *Machine {
	if in == nil {
		return nil
	}
	out := new(Machine)
	*out = *in
	out.TypeMeta = *in.TypeMeta.DeepCopy()
	out.ObjectMeta = *in.ObjectMeta.DeepCopy()
	out.Spec = *in.Spec.DeepCopy()
	return out
}

// DeepCopy creates a deep copy of MachineSpec.
func (in *MachineSpec) DeepCopy() *MachineSpec {
	if in == nil {
		return nil
	}
	out := new(MachineSpec)
	*out = *in

	if in.Storage != nil {
		out.Storage = make([]StorageSpec, len(in.Storage))
		copy(out.Storage, in.Storage)
	}
	if in.NICs != nil {
		out.NICs = make([]NICSpec, len(in.NICs))
		for i := range in.NICs {
			out.NICs[i] = *in.NICs[i].DeepCopy()
		}
	}
	if in.PublicKeys != nil {
		out.PublicKeys = make([]string, len(in.PublicKeys))
		copy(out.PublicKeys, in.PublicKeys)
	}

	return out
}

// DeepCopy creates a deep copy of NICSpec.
func (in *NICSpec) DeepCopy() *NICSpec {
	if in == nil {
		return nil
	}
	out := new(NICSpec)
	*out = *in
	out.Address = *in.Address.DeepCopy()
	return out
}

// DeepCopy creates a deep copy of AddressSpec.
func (in *AddressSpec) DeepCopy() *AddressSpec {
	if in == nil {
		return nil
	}
	out := new(AddressSpec)
	*out = *in
	if in.Nameservers != nil {
		out.Nameservers = make([]string, len(in.Nameservers))
		copy(out.Nameservers, in.Nameservers)
	}
	return out
}
