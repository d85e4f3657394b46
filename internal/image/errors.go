package image

import "errors"

var (
	// ErrNotFound is returned when no image is stored under a digest.
	ErrNotFound = errors.New("image not found")

	// ErrDigestMismatch is returned when imported content does not hash to the declared digest.
	ErrDigestMismatch = errors.New("image digest mismatch")

	// ErrUnsupportedSource is returned for source locators other than local files.
	ErrUnsupportedSource = errors.New("unsupported image source")

	// ErrInvalidDigest is returned for digests that are not hex SHA-256.
	ErrInvalidDigest = errors.New("invalid image digest")
)
