package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the HTTP surface and the
// call-sync flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	webhookEventsTotal      *prometheus.CounterVec
	syncRunsTotal           prometheus.Counter
	callsSyncedTotal        prometheus.Counter
	syncErrorsTotal         prometheus.Counter
	analysisTriggeredTotal  prometheus.Counter
	analysisFailedTotal     prometheus.Counter
	campaignRecomputesTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "leadflow",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		webhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "webhook_events_total",
				Help:      "Total number of voice provider webhook events by resulting call status.",
			},
			[]string{"status"},
		),
		syncRunsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "sync_runs_total",
				Help:      "Total number of reconciliation poll runs.",
			},
		),
		callsSyncedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "calls_synced_total",
				Help:      "Total number of calls updated by the reconciliation poller.",
			},
		),
		syncErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "sync_errors_total",
				Help:      "Total number of per-call failures during reconciliation polls.",
			},
		),
		analysisTriggeredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "analysis_triggered_total",
				Help:      "Total number of transcript analysis invocations.",
			},
		),
		analysisFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "analysis_failed_total",
				Help:      "Total number of failed transcript analysis invocations.",
			},
		),
		campaignRecomputesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "leadflow",
				Name:      "campaign_recomputes_total",
				Help:      "Total number of campaign metric recomputations by result.",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.webhookEventsTotal,
		m.syncRunsTotal,
		m.callsSyncedTotal,
		m.syncErrorsTotal,
		m.analysisTriggeredTotal,
		m.analysisFailedTotal,
		m.campaignRecomputesTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the private registry for scrape assertions.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncWebhookEvent(status string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(status))
	if label == "" {
		label = "unknown"
	}
	m.webhookEventsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) IncSyncRun() {
	if m == nil {
		return
	}
	m.syncRunsTotal.Inc()
}

func (m *Metrics) AddCallsSynced(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.callsSyncedTotal.Add(float64(n))
}

func (m *Metrics) AddSyncErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.syncErrorsTotal.Add(float64(n))
}

func (m *Metrics) IncAnalysisTriggered() {
	if m == nil {
		return
	}
	m.analysisTriggeredTotal.Inc()
}

func (m *Metrics) IncAnalysisFailed() {
	if m == nil {
		return
	}
	m.analysisFailedTotal.Inc()
}

func (m *Metrics) IncCampaignRecompute(result string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(result))
	if label == "" {
		label = "unknown"
	}
	m.campaignRecomputesTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
