// Package telemetry exposes Prometheus metrics for the alert pipeline.
package telemetry

import (
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	// SessionsOpened counts alert sessions created, by severity.
	SessionsOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alertd",
			Name:      "sessions_opened_total",
			Help:      "Alert sessions opened, labeled by alert severity.",
		},
		[]string{"alert_type"},
	)

	// Responses counts patient decisions recorded on pending sessions.
	Responses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alertd",
			Name:      "responses_total",
			Help:      "Patient responses recorded, labeled by decision.",
		},
		[]string{"decision"},
	)

	// Escalations counts care-team dispatches, by what triggered them.
	Escalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alertd",
			Name:      "escalations_total",
			Help:      "Care-team escalations dispatched, labeled by trigger.",
		},
		[]string{"trigger"},
	)

	// Sends counts individual notification attempts.
	Sends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alertd",
			Name:      "notification_sends_total",
			Help:      "Notification send attempts, labeled by channel and result.",
		},
		[]string{"channel", "result"},
	)

	// PanicsRecovered counts handler panics turned into 500 responses.
	PanicsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "alertd",
			Name:      "panics_recovered_total",
			Help:      "Handler panics caught by the recovery middleware.",
		},
	)

	// SweepDuration observes how long a full timeout sweep takes.
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "alertd",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of timeout sweeper runs.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Init registers all collectors with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SessionsOpened,
			Responses,
			Escalations,
			Sends,
			PanicsRecovered,
			SweepDuration,
		)
	})
}

// Handler returns the /metrics endpoint handler.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
