package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IRONVIRT_"

// Load builds the host configuration from defaults, the YAML file at path,
// and IRONVIRT_* environment variables, in that order of precedence.
// A .env file in the working directory is loaded first if present.
//
// A missing file is not an error; an empty path uses DefaultPath.
func Load(path string) (*HostConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *HostConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnv overrides fields from environment variables looked up via getenv.
func (c *HostConfig) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"IMAGE_DIR":      &c.ImageDir,
		"INSTANCE_DIR":   &c.InstanceDir,
		"LIBVIRT_SOCKET": &c.LibvirtSocket,
		"QEMU_IMG":       &c.QemuImgPath,
		"ISO_BACKEND":    &c.ISOBackend,
		"MKISOFS":        &c.MkisofsPath,
		"SMBIOS_VENDOR":  &c.SMBIOSVendor,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
	}
	for key, field := range strs {
		if v := getenv(EnvPrefix + key); v != "" {
			*field = v
		}
	}

	if v := getenv(EnvPrefix + "CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sCONNECT_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		c.ConnectTimeout = d
	}

	if v := getenv(EnvPrefix + "SMBIOS_METADATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSMBIOS_METADATA %q: %w", EnvPrefix, v, err)
		}
		c.SMBIOSMetadata = b
	}

	return nil
}
