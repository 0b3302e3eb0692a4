package middleware

import (
	"net"
	"net/http"
)

// ClientIP returns the address the request came from. It is meant to run
// behind chi's RealIP middleware, which copies X-Forwarded-For or X-Real-IP
// into RemoteAddr. The port is dropped.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
