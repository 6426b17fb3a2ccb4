package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseHostNoPort returns the host part (no port) from strings like "ip:port", "[v6]:port", or "ip".
func ParseHostNoPort(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return strings.Trim(s, "[]")
}

// FirstForwardedFor returns the left-most entry of an X-Forwarded-For value.
func FirstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// proxyHeaders are consulted in order when the proxy is trusted.
var proxyHeaders = []struct {
	name  string
	parse func(string) string
}{
	{"CF-Connecting-IP", strings.TrimSpace},
	{"X-Forwarded-For", FirstForwardedFor},
	{"X-Real-IP", strings.TrimSpace},
}

// ClientIP resolves the client address of r. Proxy headers are only read
// when trustProxy is set, i.e. when the server is only reachable through a
// trusted reverse proxy or tunnel.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			if v := h.parse(r.Header.Get(h.name)); v != "" {
				if ip := ParseHostNoPort(v); ip != "" {
					return ip
				}
			}
		}
	}
	return ParseHostNoPort(r.RemoteAddr)
}

// IPMatcher matches single addresses and CIDR prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher accepts "10.0.0.0/8" style prefixes and bare addresses.
// Unparseable entries are ignored.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

func (m *IPMatcher) Allow(ipStr string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ipStr))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
