// Package image implements the content-addressed base image repository.
//
// Images live flat in one directory as <sha256-hex>.qcow2. A file stored
// under digest D always hashes to D: imports stream through a verifier into
// a temporary file and are renamed into place only when the digest matches.
package image

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/jbweber/ironvirt/internal/filestore"
	"github.com/jbweber/ironvirt/internal/logger"
	"github.com/jbweber/ironvirt/internal/naming"
)

// FilePermissions are the permissions for stored images.
const FilePermissions = 0644

// Repository is a content-addressed image store.
type Repository struct {
	dir *filestore.Dir
}

// Info describes one stored image.
type Info struct {
	Digest    string    `json:"digest" yaml:"digest"`
	Path      string    `json:"path" yaml:"path"`
	SizeBytes int64     `json:"sizeBytes" yaml:"sizeBytes"`
	ModTime   time.Time `json:"modTime" yaml:"modTime"`
}

// NewRepository opens the repository at path, creating the directory if absent.
func NewRepository(path string) (*Repository, error) {
	dir, err := filestore.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image repository: %w", err)
	}
	return &Repository{dir: dir}, nil
}

// Path returns the repository directory.
func (r *Repository) Path() string {
	return r.dir.Path()
}

// ParseDigest validates a hex SHA-256 string and returns it as a digest.
func ParseDigest(hex string) (digest.Digest, error) {
	d := digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(hex))
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidDigest, hex, err)
	}
	return d, nil
}

// SourcePath converts an image locator to a local path. file:// URLs and
// plain paths are accepted, every other scheme fails. A locator without
// "://" is a plain path and is used as is, '%' included.
func SourcePath(source string) (string, error) {
	if !strings.Contains(source, "://") {
		return source, nil
	}

	u, err := url.Parse(source)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedSource, source, err)
	}

	switch u.Scheme {
	case "":
		return source, nil
	case "file":
		if u.Host != "" && u.Host != "localhost" {
			return "", fmt.Errorf("%w: %q: remote file host", ErrUnsupportedSource, source)
		}
		if u.Path == "" {
			return "", fmt.Errorf("%w: %q: empty path", ErrUnsupportedSource, source)
		}
		return u.Path, nil
	default:
		return "", fmt.Errorf("%w: %q: scheme %s", ErrUnsupportedSource, source, u.Scheme)
	}
}

// Import stores the image at source under expected and returns the digest hex.
//
// An image already stored under expected is not read again. On mismatch
// nothing is left under expected.
func (r *Repository) Import(ctx context.Context, source, expected string) (string, error) {
	log := logger.FromContext(ctx)

	d, err := ParseDigest(expected)
	if err != nil {
		return "", err
	}

	srcPath, err := SourcePath(source)
	if err != nil {
		return "", err
	}

	dest, err := r.dir.Join(naming.ImageFileName(d.Encoded()))
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dest); err == nil {
		log.InfoContext(ctx, "image already present", "digest", d.Encoded(), "path", dest)
		return d.Encoded(), nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check image %s: %w", dest, err)
	}

	log.InfoContext(ctx, "importing image", "source", srcPath, "digest", d.Encoded())

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open image source %s: %w", srcPath, err)
	}
	defer src.Close()

	// The temp file lives in the repository so the rename is atomic and
	// concurrent importers never observe a partial image.
	tmp, err := os.CreateTemp(r.dir.Path(), ".import-"+d.Encoded()+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary image file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	verifier := d.Verifier()
	digester := digest.SHA256.Digester()
	w := io.MultiWriter(tmp, verifier, digester.Hash())

	n, err := io.Copy(w, &contextReader{ctx: ctx, r: src})
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to copy image %s: %w", srcPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close image: %w", err)
	}

	if !verifier.Verified() {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrDigestMismatch, d.Encoded(), digester.Digest().Encoded())
	}

	if err := os.Chmod(tmpPath, FilePermissions); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("failed to store image %s: %w", dest, err)
	}
	committed = true

	log.InfoContext(ctx, "image imported", "digest", d.Encoded(), "path", dest, "bytes", n)

	return d.Encoded(), nil
}

// Resolve returns the path of the image stored under hex.
func (r *Repository) Resolve(hex string) (string, error) {
	d, err := ParseDigest(hex)
	if err != nil {
		return "", err
	}

	p, err := r.dir.Join(naming.ImageFileName(d.Encoded()))
	if err != nil {
		return "", err
	}

	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, d.Encoded())
	}
	if err != nil {
		return "", fmt.Errorf("failed to check image %s: %w", p, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, p)
	}

	return p, nil
}

// List returns the file names of stored images.
func (r *Repository) List() ([]string, error) {
	names, err := r.dir.List()
	if err != nil {
		return nil, err
	}

	var images []string
	for _, n := range names {
		if strings.HasSuffix(n, naming.ImageSuffix) && !strings.HasPrefix(n, ".") {
			images = append(images, n)
		}
	}
	return images, nil
}

// Infos returns details for every stored image.
func (r *Repository) Infos() ([]Info, error) {
	names, err := r.List()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(names))
	for _, n := range names {
		p := filepath.Join(r.dir.Path(), n)
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat image %s: %w", p, err)
		}
		infos = append(infos, Info{
			Digest:    strings.TrimSuffix(n, naming.ImageSuffix),
			Path:      p,
			SizeBytes: st.Size(),
			ModTime:   st.ModTime(),
		})
	}
	return infos, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
