package site

import (
	"net"
	"net/http"
	"strings"
)

// RequestContext carries the effective host and client IP for one request.
// Values are derived once and never change for the life of the request.
type RequestContext struct {
	Host     string
	ClientIP string
}

// RequestContextFrom resolves the host and client IP from the request,
// honoring reverse-proxy forwarding headers. The headers are trusted as-is:
// the deployment is assumed to sit behind a proxy that sets them, and they
// are spoofable otherwise.
func RequestContextFrom(r *http.Request) RequestContext {
	// r.Host already carries the Host header (or the URL host for HTTP/2),
	// so the forwarded header is the only other source to consult.
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}

	var ip string
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		ip = strings.TrimSpace(parts[0])
	} else if r.RemoteAddr != "" {
		if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = h
		} else {
			ip = r.RemoteAddr
		}
	}

	return RequestContext{Host: host, ClientIP: ip}
}
