package tenancy

import (
	"net"
	"strings"
)

// SubdomainHeader is the override header that takes precedence over
// host-based resolution. It enables non-subdomain routing, e.g. local
// development against localhost.
const SubdomainHeader = "X-Tenant-Subdomain"

// ResolveSubdomain derives a tenant subdomain from a request's host and the
// optional override header value. It returns false when no subdomain can be
// determined; the caller must reject the request before any handler runs.
func ResolveSubdomain(host, override string) (string, bool) {
	if override != "" {
		return override, true
	}

	bare := stripPort(host)

	// Loopback and private-network hosts never carry a meaningful subdomain.
	if isLocalHost(bare) {
		return "", false
	}

	// For production domains like acme.example.com the first label is the
	// subdomain.
	parts := strings.Split(bare, ".")
	if len(parts) > 2 {
		return parts[0], true
	}

	return "", false
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

func isLocalHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "192.168.") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate()
	}
	return false
}
