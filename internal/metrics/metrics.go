package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/sitecrawl/internal/model"
)

const namespace = "sitecrawl"

// Fetch outcome label values.
const (
	OutcomeSuccess        = "success"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
)

// Collector records crawl metrics.
type Collector struct {
	registry *prometheus.Registry

	pagesFetched    *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	linksDiscovered prometheus.Counter
	linksEnqueued   prometheus.Counter
	linksRejected   *prometheus.CounterVec
	sinkErrors      prometheus.Counter
	pending         prometheus.Gauge
	inFlight        prometheus.Gauge
	completed       prometheus.Gauge
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		pagesFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_fetched_total",
				Help:      "Total number of fetched pages by outcome.",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of page fetches.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		linksDiscovered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_discovered_total",
			Help:      "Total number of href values extracted from pages.",
		}),
		linksEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_enqueued_total",
			Help:      "Total number of links accepted into the frontier.",
		}),
		linksRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_rejected_total",
				Help:      "Total number of discarded links by reason.",
			},
			[]string{"reason"},
		),
		sinkErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Total number of page persistence failures.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_pending",
			Help:      "Current number of pending URLs.",
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_in_flight",
			Help:      "Current number of URLs being processed.",
		}),
		completed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_completed",
			Help:      "Current number of completed URLs.",
		}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records the outcome and duration of one fetch.
func (c *Collector) ObserveFetch(result model.FetchResult) {
	if c == nil {
		return
	}
	outcome := Outcome(result)
	c.pagesFetched.WithLabelValues(outcome).Inc()
	c.fetchDuration.WithLabelValues(outcome).Observe(result.Duration.Seconds())
}

// AddDiscovered adds n extracted links.
func (c *Collector) AddDiscovered(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.linksDiscovered.Add(float64(n))
}

// IncEnqueued records one link accepted by the frontier.
func (c *Collector) IncEnqueued() {
	if c == nil {
		return
	}
	c.linksEnqueued.Inc()
}

// IncRejected records one discarded link.
func (c *Collector) IncRejected(reason string) {
	if c == nil {
		return
	}
	c.linksRejected.WithLabelValues(reason).Inc()
}

// IncSinkError records one failed page store.
func (c *Collector) IncSinkError() {
	if c == nil {
		return
	}
	c.sinkErrors.Inc()
}

// SetFrontier updates the frontier size gauges.
func (c *Collector) SetFrontier(pending, inFlight, completed int) {
	if c == nil {
		return
	}
	c.pending.Set(float64(pending))
	c.inFlight.Set(float64(inFlight))
	c.completed.Set(float64(completed))
}

// Outcome classifies a fetch result for the outcome label.
func Outcome(result model.FetchResult) string {
	switch {
	case result.Err != nil:
		return OutcomeTransportError
	case result.OK():
		return OutcomeSuccess
	default:
		return OutcomeHTTPError
	}
}
