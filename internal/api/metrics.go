// ABOUTME: Prometheus counters for permission decisions and access resolutions.
// ABOUTME: Registered once on the default registry served at /metrics.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hassandayeh/NRE-sub001/internal/access"
)

var (
	permissionDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nre_permission_decisions_total",
		Help: "Permission checks by deciding layer and outcome.",
	}, []string{"source", "allowed"})

	accessResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nre_access_resolutions_total",
		Help: "Participant access resolutions by pool and outcome (own, fallback, none).",
	}, []string{"pool", "outcome"})
)

// recordAccess counts every entry of a resolved pool.
func recordAccess(v access.PoolView) {
	for _, e := range v.Entries {
		outcome := "own"
		switch {
		case e.Value == nil:
			outcome = "none"
		case e.UsedFallback:
			outcome = "fallback"
		}
		accessResolutions.WithLabelValues(v.Pool.String(), outcome).Inc()
	}
}
