package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	redispb "github.com/yssource/redis-protobuf"
)

// metrics holds the server's collectors on a private registry, with the Go
// runtime and process collectors alongside.
type metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	commands    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	durations   *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redispb",
			Name:      "connections",
			Help:      "Currently open client connections.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redispb",
			Name:      "commands_total",
			Help:      "Commands dispatched, by command name.",
		}, []string{"cmd"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redispb",
			Name:      "command_errors_total",
			Help:      "Commands that produced an error reply, by command name.",
		}, []string{"cmd"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redispb",
			Name:      "command_duration_seconds",
			Help:      "Command execution time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cmd"}),
	}
	m.registry.MustRegister(
		m.connections, m.commands, m.errors, m.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observe(cmd string, rep redispb.Reply, d time.Duration) {
	m.commands.WithLabelValues(cmd).Inc()
	if rep.IsError() {
		m.errors.WithLabelValues(cmd).Inc()
	}
	m.durations.WithLabelValues(cmd).Observe(d.Seconds())
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
