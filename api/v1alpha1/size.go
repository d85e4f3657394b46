package v1alpha1

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/docker/go-units"
)

// ErrInvalidSize is returned for size strings ToSize cannot parse.
var ErrInvalidSize = errors.New("invalid size")

// sizePattern accepts an integer magnitude and an optional k/m/g/t unit,
// optionally followed by "i" for binary multiples.
var sizePattern = regexp.MustCompile(`^([0-9]+)(?:([kKmMgGtT])(i)?)?$`)

// ToSize converts a scaled size string to bytes.
//
// Plain units are powers of 1000 and "i" units powers of 1024:
// "100M" is 100000000, "12Gi" is 12*1024^3. A bare number is bytes.
// The magnitude is parsed as an exact integer; results past 2^64-1 fail.
func ToSize(s string) (uint64, error) {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	num, unit, binary := m[1], m[2], m[3] != ""

	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}

	multiplier, err := unitMultiplier(unit, binary)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidSize, s, err)
	}
	if n > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}

	return n * multiplier, nil
}

// unitMultiplier returns the byte count of one unit; every multiplier up to
// Ti is exactly representable, so the float round trip inside go-units is lossless.
func unitMultiplier(unit string, binary bool) (uint64, error) {
	if unit == "" {
		return 1, nil
	}

	parse := units.FromHumanSize
	if binary {
		parse = units.RAMInBytes
	}

	v, err := parse("1" + unit)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// FormatSize renders bytes for display, e.g. "2.5GiB".
func FormatSize(bytes uint64) string {
	return units.BytesSize(float64(bytes))
}
