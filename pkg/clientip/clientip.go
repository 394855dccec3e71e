// Package clientip resolves the originating address of an HTTP request.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the caller's IP for rate limiting and logging. The
// service is reached directly rather than through a trusted proxy, so
// r.RemoteAddr is authoritative; forwarding headers are ignored because they
// are trivially spoofable when nothing in front strips them.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (some test servers).
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
