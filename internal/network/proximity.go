// Package network holds the subnet heuristic used to decide whether a student
// is plausibly on the same local network as the faculty device that opened a
// class session. It is a weak co-location signal, not an authorization check.
package network

import (
	"encoding/binary"
	"net"
	"net/netip"
	"strings"
)

const defaultMask = "255.255.255.0"

// Checker compares two addresses under a fixed IPv4 subnet mask.
type Checker struct {
	mask uint32
}

// NewChecker builds a checker from a dotted-quad mask, e.g. "255.255.255.0".
// An unparsable mask falls back to /24.
func NewChecker(mask string) *Checker {
	m := net.ParseIP(mask)
	if m != nil {
		m = m.To4()
	}
	if m == nil {
		m = net.ParseIP(defaultMask).To4()
	}
	return &Checker{mask: binary.BigEndian.Uint32(m)}
}

// SameSubnet reports whether both addresses fall in the same masked block.
// Malformed input is never proximate. For native IPv6 pairs the comparison
// degrades to a best-effort match on the first three hextets.
func (c *Checker) SameSubnet(a, b string) bool {
	addrA, errA := netip.ParseAddr(strings.TrimSpace(a))
	addrB, errB := netip.ParseAddr(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return false
	}
	addrA = addrA.Unmap()
	addrB = addrB.Unmap()

	if addrA.Is4() && addrB.Is4() {
		rawA := addrA.As4()
		rawB := addrB.As4()
		intA := binary.BigEndian.Uint32(rawA[:])
		intB := binary.BigEndian.Uint32(rawB[:])
		return intA&c.mask == intB&c.mask
	}

	if addrA.Is6() && addrB.Is6() {
		rawA := addrA.As16()
		rawB := addrB.As16()
		for i := 0; i < 6; i++ {
			if rawA[i] != rawB[i] {
				return false
			}
		}
		return true
	}

	// Mixed families never match.
	return false
}
