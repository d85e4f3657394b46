package config

import (
	"fmt"
	"time"
)

// ISO authoring backends for configuration drives.
const (
	ISOBackendMkisofs = "mkisofs"
	ISOBackendNative  = "native"
)

// Default host settings.
const (
	DefaultPath           = "/etc/ironvirt/config.yaml"
	DefaultImageDir       = "/var/lib/bigiron-virt/images"
	DefaultInstanceDir    = "/var/lib/bigiron-virt/instances"
	DefaultLibvirtSocket  = "/var/run/libvirt/libvirt-sock"
	DefaultConnectTimeout = 5 * time.Second
	DefaultQemuImgPath    = "/usr/bin/qemu-img"
	DefaultMkisofsPath    = "/usr/bin/mkisofs"
	DefaultSMBIOSVendor   = "BigIron"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// HostConfig holds the per-host settings of ironvirt: where images and
// instances live, how to reach libvirt, and which external tools to run.
type HostConfig struct {
	ImageDir       string        `yaml:"imageDir"`
	InstanceDir    string        `yaml:"instanceDir"`
	LibvirtSocket  string        `yaml:"libvirtSocket"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	QemuImgPath    string        `yaml:"qemuImgPath"`
	ISOBackend     string        `yaml:"isoBackend"`
	MkisofsPath    string        `yaml:"mkisofsPath"`

	// SMBIOSMetadata adds vendor and product entries to each domain's
	// SMBIOS tables. Off unless a metadata service on the host expects them.
	SMBIOSMetadata bool   `yaml:"smbiosMetadata"`
	SMBIOSVendor   string `yaml:"smbiosVendor"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// Default returns a HostConfig with every field set to its default.
func Default() *HostConfig {
	return &HostConfig{
		ImageDir:       DefaultImageDir,
		InstanceDir:    DefaultInstanceDir,
		LibvirtSocket:  DefaultLibvirtSocket,
		ConnectTimeout: DefaultConnectTimeout,
		QemuImgPath:    DefaultQemuImgPath,
		ISOBackend:     ISOBackendMkisofs,
		MkisofsPath:    DefaultMkisofsPath,
		SMBIOSVendor:   DefaultSMBIOSVendor,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
	}
}

// Validate checks the configuration for errors.
// Does not check that paths exist on the host.
func (c *HostConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"imageDir", c.ImageDir},
		{"instanceDir", c.InstanceDir},
		{"libvirtSocket", c.LibvirtSocket},
		{"qemuImgPath", c.QemuImgPath},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connectTimeout must be > 0, got %s", c.ConnectTimeout)
	}

	switch c.ISOBackend {
	case ISOBackendMkisofs:
		if c.MkisofsPath == "" {
			return fmt.Errorf("mkisofsPath is required for isoBackend %q", ISOBackendMkisofs)
		}
	case ISOBackendNative:
	default:
		return fmt.Errorf("isoBackend must be %q or %q, got %q", ISOBackendMkisofs, ISOBackendNative, c.ISOBackend)
	}

	if c.SMBIOSMetadata && c.SMBIOSVendor == "" {
		return fmt.Errorf("smbiosVendor is required when smbiosMetadata is enabled")
	}

	return nil
}
