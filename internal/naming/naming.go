// Package naming holds the host-level naming conventions shared by the
// image repository, the instance store and the domain builder: MAC address
// generation, the SLAAC link-local address derived from a MAC, and the
// fixed file names used on disk.
package naming

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// ErrInvalidMAC is returned when a string does not decode to a 6-octet MAC.
var ErrInvalidMAC = errors.New("invalid MAC address")

// Prefix is the OUI used for every generated MAC (Xen/virtualization range).
var Prefix = [3]byte{0x00, 0x16, 0x3e}

// MAC is a 6-octet hardware address.
type MAC [6]byte

// String returns the canonical lowercase colon-hex form, e.g. 00:16:3e:23:59:0f.
func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// ParseMAC is the inverse of MAC.String. Anything that is not exactly
// 6 octets (EUI-64, InfiniBand) is rejected.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	hw, err := net.ParseMAC(s)
	if err != nil {
		return m, fmt.Errorf("%w: %q: %v", ErrInvalidMAC, s, err)
	}
	if len(hw) != len(m) {
		return m, fmt.Errorf("%w: %q has %d octets", ErrInvalidMAC, s, len(hw))
	}
	copy(m[:], hw)
	return m, nil
}

// IPv6LinkLocal derives the modified EUI-64 link-local address for m.
//
// The universal/local bit of the first octet is set, ff:fe is inserted in
// the middle, and leading zeros are trimmed from the whole suffix only.
//
// Example: 00:16:3e:23:59:0f → fe80::216:3eff:fe23:590f
func (m MAC) IPv6LinkLocal() string {
	groups := [][2]byte{
		{m[0] | 0x02, m[1]},
		{m[2], 0xff},
		{0xfe, m[3]},
		{m[4], m[5]},
	}

	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		parts = append(parts, hex.EncodeToString(g[:]))
	}

	return "fe80::" + strings.TrimLeft(strings.Join(parts, ":"), "0")
}

// Generator produces random MAC addresses under Prefix.
type Generator struct {
	rand io.Reader
}

// NewGenerator returns a Generator reading from r. A nil reader uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Generate returns a new MAC. The fourth octet is kept below 0x80, the
// remaining two octets are unconstrained. No collision tracking is done.
func (g *Generator) Generate() (MAC, error) {
	var buf [3]byte
	if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
		return MAC{}, fmt.Errorf("failed to read random source: %w", err)
	}

	return MAC{
		Prefix[0], Prefix[1], Prefix[2],
		buf[0] & 0x7f,
		buf[1],
		buf[2],
	}, nil
}
