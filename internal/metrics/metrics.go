// Package metrics holds Prometheus instruments that are used across the
// relay.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesForwardedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_forwarded_total",
			Help: "Messages forwarded into the target channel.",
		})

	MessagesRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_rejected_total",
			Help: "Messages carrying an unknown prefix.",
		})

	MessagesIgnoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_ignored_total",
			Help: "Messages dropped without a reply.",
		})

	SnapshotReloadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_snapshot_reload_total",
			Help: "Successful routing-snapshot reloads.",
		})

	SnapshotReloadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_snapshot_reload_errors_total",
			Help: "Routing-snapshot reloads that failed and kept the old view.",
		})

	ActiveAdminSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_admin_sessions_active",
			Help: "Admin sessions currently in progress.",
		})

	DebugTogglesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_debug_toggles_total",
			Help: "Debug-recorder on/off flips.",
		})
)

func init() {
	prometheus.MustRegister(
		MessagesForwardedTotal,
		MessagesRejectedTotal,
		MessagesIgnoredTotal,
		SnapshotReloadTotal,
		SnapshotReloadErrorsTotal,
		ActiveAdminSessions,
		DebugTogglesTotal,
	)
}
