package rate

import (
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const clientIPHeader = "X-Forwarded-For"

// KeyFunc selects the rate limiting key of a request.
type KeyFunc func(r *http.Request) string

// RemoteIP keys requests on the host of the connection's remote address.
func RemoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedClientIP keys requests on the first X-Forwarded-For entry, falling
// back to RemoteIP. The header is client controlled, so this is only safe
// behind a proxy that overwrites it.
func ForwardedClientIP(r *http.Request) string {
	if forwarded := r.Header.Get(clientIPHeader); len(forwarded) > 0 {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); len(ip) > 0 {
			return ip
		}
	}
	return RemoteIP(r)
}

// HTTPMiddleware limits requests per key. Limited requests are served by
// onLimited. Limiter failures are logged and the request is let through.
func HTTPMiddleware(limiter Limiter, key KeyFunc, onLimited http.Handler, next http.Handler) http.Handler {
	log := logrus.StandardLogger().WithField("type", "rate/http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := key(r)

		allowed, err := limiter.Allow(ip)
		if err != nil {
			log.WithError(err).WithField("ip", ip).Warn("failure checking ip rate limit")
		} else if !allowed {
			log.WithField("ip", ip).Trace("ip is rate limited")
			onLimited.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
