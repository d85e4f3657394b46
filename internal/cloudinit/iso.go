package cloudinit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kdomanski/iso9660"
)

// ErrISOAuthoring is returned when the configuration drive image cannot be written.
var ErrISOAuthoring = errors.New("failed to author configuration drive")

// VolumeID is the volume label cloud-init's NoCloud datasource looks for.
const VolumeID = "cidata"

// DefaultMkisofs is the default path of the external ISO authoring tool.
const DefaultMkisofs = "/usr/bin/mkisofs"

// ISOAuthor packs files into an ISO-9660 volume labelled VolumeID at isoPath.
// Files land in the volume root under their base names.
type ISOAuthor interface {
	Author(ctx context.Context, isoPath string, files []string) error
}

// Runner executes an external tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// MkisofsAuthor shells out to mkisofs (or genisoimage) to build a
// Joliet/Rock Ridge volume.
type MkisofsAuthor struct {
	Runner Runner
	Path   string
}

// NewMkisofsAuthor returns an author running path through runner.
// An empty path uses DefaultMkisofs.
func NewMkisofsAuthor(runner Runner, path string) *MkisofsAuthor {
	if path == "" {
		path = DefaultMkisofs
	}
	return &MkisofsAuthor{Runner: runner, Path: path}
}

// Author implements ISOAuthor.
func (a *MkisofsAuthor) Author(ctx context.Context, isoPath string, files []string) error {
	args := []string{
		"-output", isoPath,
		"-input-charset", "utf-8",
		"-volid", VolumeID,
		"-joliet",
		"-r",
	}
	args = append(args, files...)

	if _, err := a.Runner.Run(ctx, a.Path, args...); err != nil {
		return fmt.Errorf("%w: %v", ErrISOAuthoring, err)
	}
	return nil
}

// NativeAuthor writes the volume in-process with github.com/kdomanski/iso9660,
// for hosts without mkisofs.
type NativeAuthor struct{}

// Author implements ISOAuthor.
func (NativeAuthor) Author(ctx context.Context, isoPath string, files []string) error {
	writer, err := iso9660.NewWriter()
	if err != nil {
		return fmt.Errorf("%w: failed to create ISO writer: %v", ErrISOAuthoring, err)
	}
	defer func() {
		// The image is already written (or failed) by the time cleanup runs.
		_ = writer.Cleanup()
	}()

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := addFile(writer, f); err != nil {
			return err
		}
	}

	out, err := os.Create(isoPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrISOAuthoring, isoPath, err)
	}

	// The volume identifier must be upper case d-characters.
	if err := writer.WriteTo(out, "CIDATA"); err != nil {
		out.Close()
		_ = os.Remove(isoPath)
		return fmt.Errorf("%w: failed to write ISO image: %v", ErrISOAuthoring, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(isoPath)
		return fmt.Errorf("%w: failed to close %s: %v", ErrISOAuthoring, isoPath, err)
	}

	return nil
}

func addFile(writer *iso9660.ImageWriter, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrISOAuthoring, err)
	}
	defer f.Close()

	if err := writer.AddFile(f, filepath.Base(path)); err != nil {
		return fmt.Errorf("%w: failed to add %s: %v", ErrISOAuthoring, filepath.Base(path), err)
	}
	return nil
}
