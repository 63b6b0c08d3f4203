// Package metrics provides Prometheus metrics collection for Slack API
// traffic, directory refreshes and read-marker pushes.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ewholloway/slackline/pkg/logger"
)

const (
	subsystem = "slackline"
)

// API call outcome labels.
const (
	OutcomeOK             = "ok"
	OutcomeRemoteError    = "remote_error"
	OutcomeTransportError = "transport_error"
)

// Metrics holds the collectors on a private registry so tests can run
// side by side without duplicate-registration panics.
type Metrics struct {
	reg *prometheus.Registry

	TotalAPIRequestsCounter prometheus.Counter
	APIRequestCounters      map[string]prometheus.Counter
	APIOutcomeCounters      map[string]prometheus.Counter
	CacheRefreshCounters    map[string]prometheus.Counter
	MarkPushCounter         prometheus.Counter

	customMetrics []prometheus.Collector

	stopChan chan os.Signal
	errChan  chan error
	log      logger.Logger
}

// NewMetrics creates a Metrics instance with all collectors registered.
func NewMetrics(l logger.Logger) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}

	m.TotalAPIRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_api_requests",
		Help:      "Total Slack API requests",
	})
	m.reg.MustRegister(m.TotalAPIRequestsCounter)
	m.APIRequestCounters = make(map[string]prometheus.Counter)
	m.APIOutcomeCounters = make(map[string]prometheus.Counter)
	m.CacheRefreshCounters = make(map[string]prometheus.Counter)

	m.MarkPushCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_marks_pushed",
		Help:      "Total read markers pushed",
	})
	m.reg.MustRegister(m.MarkPushCounter)

	return m
}

// IncrementAPIRequest counts one request to the given endpoint.
func (m *Metrics) IncrementAPIRequest(endpoint string) {
	m.TotalAPIRequestsCounter.Inc()
	c, ok := m.APIRequestCounters[endpoint]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem:   subsystem,
			Name:        "total_endpoint_requests",
			Help:        "Total requests per Slack API endpoint",
			ConstLabels: prometheus.Labels{"endpoint": endpoint},
		})
		m.reg.MustRegister(c)
		m.APIRequestCounters[endpoint] = c
	}
	c.Inc()
}

// IncrementAPIOutcome counts one call outcome (ok, remote_error,
// transport_error).
func (m *Metrics) IncrementAPIOutcome(outcome string) {
	c, ok := m.APIOutcomeCounters[outcome]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem:   subsystem,
			Name:        "total_api_outcomes",
			Help:        "Total Slack API call outcomes",
			ConstLabels: prometheus.Labels{"outcome": outcome},
		})
		m.reg.MustRegister(c)
		m.APIOutcomeCounters[outcome] = c
	}
	c.Inc()
}

// IncrementCacheRefresh counts one successful listing refresh for the given
// resource (users, channels, groups).
func (m *Metrics) IncrementCacheRefresh(resource string) {
	c, ok := m.CacheRefreshCounters[resource]
	if !ok {
		c = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem:   subsystem,
			Name:        "total_cache_refreshes",
			Help:        "Total directory refreshes per resource",
			ConstLabels: prometheus.Labels{"resource": resource},
		})
		m.reg.MustRegister(c)
		m.CacheRefreshCounters[resource] = c
	}
	c.Inc()
}

// IncrementMarkPush counts one successful read-marker push.
func (m *Metrics) IncrementMarkPush() {
	m.MarkPushCounter.Inc()
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// Listen starts the metrics HTTP server on the specified port.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal)
	errChan := make(chan error)
	go func() {
		errChan <- server.ListenAndServe()
	}()
	go func() {
		for {
			sig := <-sigChan
			if sig == os.Interrupt {
				m.log.Info("Stopping metrics listener")
				_ = server.Shutdown(context.Background())
				return
			}
		}
	}()
	m.errChan = errChan
	m.stopChan = sigChan
}

// Stop shuts the metrics listener down.
func (m *Metrics) Stop() {
	if m.stopChan != nil {
		m.stopChan <- os.Interrupt
	}
}
