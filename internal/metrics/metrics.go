// Package metrics exposes Prometheus instrumentation for the anti-nuke
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// GatewayFrames counts raw monitored gateway frames, before any typed
	// decoding.
	GatewayFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "gateway_frames_total",
		Help:      "Raw monitored gateway frames, by dispatch type.",
	}, []string{"type"})

	// EventsObserved counts gateway events the correlator inspected.
	EventsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "events_observed_total",
		Help:      "Gateway events inspected, by action type.",
	}, []string{"action"})

	// EventsAttributed counts events successfully attributed to an actor.
	EventsAttributed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "events_attributed_total",
		Help:      "Events attributed to a live guild member, by action type.",
	}, []string{"action"})

	// EventsDropped counts events that were discarded before evaluation.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "events_dropped_total",
		Help:      "Events dropped before evaluation, by reason.",
	}, []string{"reason"})

	// PunishmentsApplied counts successful remediations.
	PunishmentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "punishments_applied_total",
		Help:      "Remediations successfully applied, by punishment type.",
	}, []string{"punishment"})

	// PunishmentFailures counts remediations that could not be applied.
	PunishmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "antinuke",
		Name:      "punishment_failures_total",
		Help:      "Remediations that failed at the platform API, by punishment type.",
	}, []string{"punishment"})

	// AttributionLatency measures time from gateway event receipt to audit
	// attribution, grace delay included.
	AttributionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "antinuke",
		Name:      "attribution_latency_seconds",
		Help:      "Latency from gateway event to audit-log attribution.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
	})
)

// Drop reasons used with EventsDropped.
const (
	DropBotActor      = "bot_actor"
	DropGuildOwner    = "guild_owner"
	DropActorDeparted = "actor_departed"
	DropNoAuditMatch  = "no_audit_match"
	DropAPIError      = "api_error"
	DropStoreError    = "store_error"
	DropWhitelisted   = "whitelisted"
)

// Serve starts the /metrics endpoint on addr. Blocks; run in a goroutine.
func Serve(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
	}
}
