package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies makes c.RealIP() return the admin's address when the API
// sits behind the gateway. The bulk rate limiter keys on that address, so
// without it every admin would share one bucket.
//
// Forwarding headers are honoured only when the peer address falls inside
// one of trustedCIDRs (TRUSTED_PROXIES). Invalid entries are logged and
// skipped.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	e.IPExtractor = buildIPExtractor(trustedCIDRs)
}

func buildIPExtractor(trustedCIDRs []string) echo.IPExtractor {
	trusted := parsePrefixes(trustedCIDRs)

	return func(req *http.Request) string {
		peer := peerAddr(req.RemoteAddr)
		if !inAny(peer, trusted) {
			return peer
		}

		if ip := strings.TrimSpace(req.Header.Get(echo.HeaderXRealIP)); ip != "" {
			return ip
		}
		// X-Forwarded-For lists the client first.
		if xff := req.Header.Get(echo.HeaderXForwardedFor); xff != "" {
			client, _, _ := strings.Cut(xff, ",")
			if client = strings.TrimSpace(client); client != "" {
				return client
			}
		}
		return peer
	}
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("ignoring invalid trusted proxy CIDR",
				slog.String("cidr", cidr),
				slog.Any("error", err),
			)
			continue
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes
}

// peerAddr strips the port from a RemoteAddr.
func peerAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func inAny(ip string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
