package middleware

import (
	"net"
	"net/http"
)

// ClientIP is the bare host of r.RemoteAddr. chi's RealIP has already
// replaced RemoteAddr with a forwarded address when the proxy supplied one.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
