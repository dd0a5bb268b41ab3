package network

import "testing"

func TestSameSubnet(t *testing.T) {
	c := NewChecker("255.255.255.0")

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"same /24", "10.0.0.5", "10.0.0.9", true},
		{"different /24", "10.0.0.5", "10.0.1.5", false},
		{"identical", "192.168.1.1", "192.168.1.1", true},
		{"boundary .255 vs .0", "10.0.0.255", "10.0.1.0", false},
		{"malformed first", "not-an-ip", "10.0.0.1", false},
		{"malformed second", "10.0.0.1", "999.0.0.1", false},
		{"both malformed", "", "", false},
		{"mapped v4-in-v6", "::ffff:10.0.0.5", "10.0.0.9", true},
		{"ipv6 same prefix", "2001:db8:1:2::1", "2001:db8:1:2::9", true},
		{"ipv6 different prefix", "2001:db8:1::1", "2001:db9:1::1", false},
		{"mixed families", "10.0.0.5", "2001:db8::1", false},
		{"whitespace tolerated", " 10.0.0.5 ", "10.0.0.6", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.SameSubnet(tt.a, tt.b); got != tt.want {
				t.Errorf("SameSubnet(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCheckerWiderMask(t *testing.T) {
	c := NewChecker("255.255.0.0")
	if !c.SameSubnet("10.0.0.5", "10.0.200.5") {
		t.Error("/16 mask should match across third octet")
	}
	if c.SameSubnet("10.0.0.5", "10.1.0.5") {
		t.Error("/16 mask should not match across second octet")
	}
}

func TestCheckerBadMaskFallsBack(t *testing.T) {
	c := NewChecker("garbage")
	if !c.SameSubnet("10.0.0.1", "10.0.0.2") {
		t.Error("fallback /24 should match same block")
	}
	if c.SameSubnet("10.0.0.1", "10.0.1.1") {
		t.Error("fallback /24 should not match across blocks")
	}
}
