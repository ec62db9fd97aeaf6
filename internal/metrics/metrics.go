package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	appStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "starts_total",
			Help:      "Number of successful app starts.",
		}, []string{"app"},
	)
	appStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "stops_total",
			Help:      "Number of operator or scheduled stops.",
		}, []string{"app"},
	)
	appCrashes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "crashes_total",
			Help:      "Number of crash detections (probe lost a running app).",
		}, []string{"app"},
	)
	guardRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "guard_restarts_total",
			Help:      "Number of automatic restarts triggered by the guard.",
		}, []string{"app"},
	)
	scheduleFires = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "schedule",
			Name:      "fires_total",
			Help:      "Number of schedule task fires per action.",
		}, []string{"app", "action"},
	)
	runningApps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "running",
			Help:      "Current number of apps in the Running state.",
		},
	)
	appMemoryBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fleetwatch",
			Subsystem: "app",
			Name:      "memory_bytes",
			Help:      "Resident set size of each running app.",
		}, []string{"app"},
	)
	tickFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fleetwatch",
			Subsystem: "poll",
			Name:      "tick_failures_total",
			Help:      "Number of per-app tick panics recovered by the poll loop.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{appStarts, appStops, appCrashes, guardRestarts, scheduleFires, runningApps, appMemoryBytes, tickFailures}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the
// DefaultGatherer. The caller wires the route and runs the server.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has been called.

func IncStart(app string) {
	if regOK.Load() {
		appStarts.WithLabelValues(app).Inc()
	}
}

func IncStop(app string) {
	if regOK.Load() {
		appStops.WithLabelValues(app).Inc()
	}
}

func IncCrash(app string) {
	if regOK.Load() {
		appCrashes.WithLabelValues(app).Inc()
	}
}

func IncGuardRestart(app string) {
	if regOK.Load() {
		guardRestarts.WithLabelValues(app).Inc()
	}
}

func IncScheduleFire(app, action string) {
	if regOK.Load() {
		scheduleFires.WithLabelValues(app, action).Inc()
	}
}

func SetRunningApps(n int) {
	if regOK.Load() {
		runningApps.Set(float64(n))
	}
}

func SetAppMemory(app string, bytes uint64) {
	if regOK.Load() {
		appMemoryBytes.WithLabelValues(app).Set(float64(bytes))
	}
}

func IncTickFailure() {
	if regOK.Load() {
		tickFailures.Inc()
	}
}
