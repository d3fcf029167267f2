package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestRealClientIPAndLimitKey(t *testing.T) {
	cases := []struct {
		remote, ip, key string
	}{
		{"203.0.113.7:5123", "203.0.113.7", "203.0.113.7"},
		{"203.0.113.7", "203.0.113.7", "203.0.113.7"},
		{"[::ffff:198.51.100.4]:80", "198.51.100.4", "198.51.100.4"},
		{"[2001:db8:1:2:aaaa::1]:443", "2001:db8:1:2:aaaa::1", "2001:db8:1:2::/64"},
		{"[fe80::1%eth0]:8080", "fe80::1", "fe80::/64"},
		{"not-an-ip", "not-an-ip", "not-an-ip"},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = c.remote
		if got := RealClientIP(r); got != c.ip {
			t.Errorf("RealClientIP(%q) = %q, want %q", c.remote, got, c.ip)
		}
		if got := LimitKey(r); got != c.key {
			t.Errorf("LimitKey(%q) = %q, want %q", c.remote, got, c.key)
		}
	}
}

func TestLimitKeyGroupsIPv6Prefix(t *testing.T) {
	a := httptest.NewRequest("GET", "/", nil)
	a.RemoteAddr = "[2001:db8::1]:1"
	b := httptest.NewRequest("GET", "/", nil)
	b.RemoteAddr = "[2001:db8::ffff]:2"
	if LimitKey(a) != LimitKey(b) {
		t.Fatalf("addresses in one /64 must share a bucket: %s vs %s", LimitKey(a), LimitKey(b))
	}
}
