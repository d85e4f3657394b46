// Package disk implements the per-instance store: one directory per machine
// holding its copy-on-write boot disk and configuration drive.
//
// Disk images are created with qemu-img directly rather than through
// libvirt storage pools; the store is a flat directory and nothing else.
package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jbweber/ironvirt/internal/filestore"
	"github.com/jbweber/ironvirt/internal/logger"
	"github.com/jbweber/ironvirt/internal/naming"
)

const (
	// DefaultQemuImg is the default path of the disk-image utility.
	DefaultQemuImg = "/usr/bin/qemu-img"

	// DirPermissions are the permissions for instance directories
	DirPermissions = 0755
)

var (
	// ErrInstanceExists is returned when allocating a name that already has a directory.
	ErrInstanceExists = errors.New("instance already exists")

	// ErrInstanceNotFound is returned when an instance has no directory.
	ErrInstanceNotFound = errors.New("instance not found")
)

// Store allocates and removes instance directories.
type Store struct {
	dir     *filestore.Dir
	runner  Runner
	qemuImg string
}

// NewStore opens the instance store at path, creating it if absent.
// A nil runner uses ExecRunner; an empty qemuImg uses DefaultQemuImg.
func NewStore(path string, runner Runner, qemuImg string) (*Store, error) {
	dir, err := filestore.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance store: %w", err)
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if qemuImg == "" {
		qemuImg = DefaultQemuImg
	}
	return &Store{dir: dir, runner: runner, qemuImg: qemuImg}, nil
}

// Path returns the store directory.
func (s *Store) Path() string {
	return s.dir.Path()
}

// InstanceDir returns the directory for name without checking it exists.
func (s *Store) InstanceDir(name string) (string, error) {
	return s.dir.Join(name)
}

// Allocate creates a fresh directory for name. It never reuses an
// existing directory, so of two racing creates exactly one wins.
func (s *Store) Allocate(name string) (string, error) {
	dir, err := s.InstanceDir(name)
	if err != nil {
		return "", err
	}

	if err := os.Mkdir(dir, DirPermissions); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrInstanceExists, name)
		}
		return "", fmt.Errorf("failed to create instance directory %s: %w", dir, err)
	}

	return dir, nil
}

// CreateInstanceDisk creates the copy-on-write boot disk for name on top of
// baseImage. When resize is set the disk is created with that virtual size
// in bytes.
func (s *Store) CreateInstanceDisk(ctx context.Context, name, baseImage string, resize *uint64) (string, error) {
	dir, err := s.InstanceDir(name)
	if err != nil {
		return "", err
	}
	diskPath := filepath.Join(dir, naming.InstanceDiskName)

	args := []string{
		"create", "-q",
		"-f", "qcow2",
		"-b", baseImage,
		"-F", "qcow2",
		diskPath,
	}
	if resize != nil {
		args = append(args, strconv.FormatUint(*resize, 10))
	}

	logger.FromContext(ctx).InfoContext(ctx, "creating instance disk", "instance", name, "path", diskPath, "backing", baseImage)

	if _, err := s.runner.Run(ctx, s.qemuImg, args...); err != nil {
		return "", fmt.Errorf("failed to create instance disk %s: %w", diskPath, err)
	}

	return diskPath, nil
}

// Destroy removes every file in the instance directory and then the
// directory. It stops at the first failure and leaves what remains.
// A configuration-drive staging directory left by an interrupted create
// is removed with its contents; any other subdirectory is a failure.
func (s *Store) Destroy(name string) error {
	dir, err := s.InstanceDir(name)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrInstanceNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to read instance directory %s: %w", dir, err)
	}

	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		remove := os.Remove
		if e.IsDir() && e.Name() == naming.StagingDirName {
			remove = os.RemoveAll
		}
		if err := remove(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}

	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove instance directory %s: %w", dir, err)
	}

	return nil
}

// Exists reports whether name has an instance directory.
func (s *Store) Exists(name string) (bool, error) {
	dir, err := s.InstanceDir(name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check instance directory %s: %w", dir, err)
	}

	return info.IsDir(), nil
}

// List returns the names of all instance directories.
func (s *Store) List() ([]string, error) {
	names, err := s.dir.List()
	if err != nil {
		return nil, err
	}

	var instances []string
	for _, n := range names {
		info, err := os.Stat(filepath.Join(s.dir.Path(), n))
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", n, err)
		}
		if info.IsDir() {
			instances = append(instances, n)
		}
	}
	return instances, nil
}
