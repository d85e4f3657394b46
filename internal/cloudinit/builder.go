package cloudinit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jbweber/ironvirt/internal/logger"
	"github.com/jbweber/ironvirt/internal/naming"
)

// FilePermissions are the permissions for staged files and the produced ISO.
const FilePermissions = 0644

// Drive is the content of one configuration drive.
type Drive struct {
	Metadata Metadata

	// UserData is written verbatim. Nil writes an empty user-data file,
	// the NoCloud datasource requires one to exist.
	UserData []byte

	// NetworkConfig is attached only when non-empty.
	NetworkConfig []byte
}

type stagedFile struct {
	name string
	data []byte
}

// Builder stages drive files and hands them to an ISOAuthor.
type Builder struct {
	author ISOAuthor
}

// NewBuilder returns a Builder using author.
func NewBuilder(author ISOAuthor) *Builder {
	return &Builder{author: author}
}

// Build writes the drive into baseDir/cidata.iso and returns its path.
//
// Files are staged in baseDir/cidata-dir, which is removed whether or not
// the build succeeds. The ISO is written outside the staging directory.
func (b *Builder) Build(ctx context.Context, drive Drive, baseDir string) (isoPath string, err error) {
	log := logger.FromContext(ctx)

	staging := filepath.Join(baseDir, naming.StagingDirName)
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging directory %s: %w", staging, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove staging directory %s: %w", staging, rmErr)
		}
	}()

	metaData, err := drive.Metadata.Marshal()
	if err != nil {
		return "", err
	}

	userData := drive.UserData
	if userData == nil {
		userData = []byte{}
	}

	files := []stagedFile{
		{naming.UserDataFile, userData},
		{naming.MetaDataFile, metaData},
	}
	if len(drive.NetworkConfig) > 0 {
		files = append(files, stagedFile{naming.NetworkConfigFile, drive.NetworkConfig})
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(staging, f.name)
		if err := os.WriteFile(p, f.data, FilePermissions); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		paths = append(paths, p)
	}

	isoPath = filepath.Join(baseDir, naming.ConfigDriveISOName)

	log.InfoContext(ctx, "building configuration drive",
		"instance", drive.Metadata.InstanceID,
		"path", isoPath,
		"network_config", len(drive.NetworkConfig) > 0)

	if err := b.author.Author(ctx, isoPath, paths); err != nil {
		return "", fmt.Errorf("failed to build configuration drive %s: %w", isoPath, err)
	}

	return isoPath, nil
}
