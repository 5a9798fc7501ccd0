package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterOps mounts /metrics and /debug (pprof and expvar) for operators
// only. An empty allowlist locks both.
func RegisterOps(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.Group(func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, logger))
		r.Handle("/metrics", promhttp.Handler())
		r.Mount("/debug", chimiddleware.Profiler())
	})
}

// IPAllowlist admits a request only when its peer address lies in one of
// cidrs. Forwarded headers are not consulted. Unparseable entries are
// logged and ignored.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		p, err := netip.ParsePrefix(cidr)
		if err != nil {
			logger.Warn("ignoring ops allowlist entry",
				slog.String("cidr", cidr),
				slog.String("error", err.Error()),
			)
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := peerAddr(r.RemoteAddr)
			if ok {
				for _, p := range prefixes {
					if p.Contains(addr) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			logger.WarnContext(r.Context(), "ops endpoint refused",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}
}

// peerAddr parses RemoteAddr with or without a port. IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 prefixes.
func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
