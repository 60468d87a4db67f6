// internal/obs/metrics.go
package obs

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	CyclesTotal        *prometheus.CounterVec
	CyclesDegraded     *prometheus.CounterVec
	GroupFailures      *prometheus.CounterVec
	ReadRetries        *prometheus.CounterVec
	PublishFailures    *prometheus.CounterVec
	CycleDuration      *prometheus.HistogramVec
	HealthState        *prometheus.GaugeVec
	LastCycleTimestamp *prometheus.GaugeVec
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inverter_poll_cycles_total",
			Help: "Poll cycles completed, including degraded and failed ones.",
		}, []string{"inverter"})

		CyclesDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inverter_poll_cycles_degraded_total",
			Help: "Poll cycles that lost at least one register group.",
		}, []string{"inverter"})

		GroupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inverter_group_failures_total",
			Help: "Register group reads that exhausted all attempts.",
		}, []string{"inverter", "group"})

		ReadRetries = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inverter_read_retries_total",
			Help: "Re-attempts after a failed group read.",
		}, []string{"inverter", "group"})

		PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "inverter_publish_failures_total",
			Help: "Telemetry batches a sink failed to deliver.",
		}, []string{"inverter"})

		CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inverter_poll_cycle_seconds",
			Help:    "Wall time of one poll cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"inverter"})

		HealthState = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inverter_health_state",
			Help: "Health per inverter: 0 unknown, 1 ok, 2 degraded, 3 outage.",
		}, []string{"inverter"})

		LastCycleTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inverter_last_cycle_timestamp_seconds",
			Help: "Unix time of the most recent completed poll cycle.",
		}, []string{"inverter"})
	})
}

// StartServer exposes /metrics on addr in a background goroutine.
func StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("obs: serving /metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("obs: metrics server: %v", err)
		}
	}()
}
