// Package metrics contains the Prometheus collectors of the API and the event
// store.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/netutil/httputil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace is the namespace of all metrics.
const namespace = "dnsreport"

// CounterSource is the source of the store counters.  [*eventstore.Store]
// implements it.
type CounterSource interface {
	Counters() (c eventstore.Counters)
}

// type check
var _ CounterSource = (*eventstore.Store)(nil)

// RegisterStore registers the collectors reading the counters of src in reg.
func RegisterStore(reg prometheus.Registerer, src CounterSource) (err error) {
	const subsystem = "store"

	counter := func(name, help string, fn func(c *eventstore.Counters) (n int64)) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, func() (v float64) {
			c := src.Counters()

			return float64(fn(&c))
		})
	}

	collectors := []prometheus.Collector{
		counter("queries_total", "The total number of recorded queries.", func(c *eventstore.Counters) (n int64) {
			return c.Queries
		}),
		counter("blocked_total", "The number of blocked queries.", func(c *eventstore.Counters) (n int64) {
			return c.Blocked
		}),
		counter("cached_total", "The number of queries answered from the cache.", func(c *eventstore.Counters) (n int64) {
			return c.Cached
		}),
		counter("forwarded_total", "The number of forwarded queries.", func(c *eventstore.Counters) (n int64) {
			return c.Forwarded
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "gravity_size",
			Help:      "The number of domains on the block lists.",
		}, func() (v float64) {
			return float64(src.Counters().GravitySize)
		}),
	}

	var errs []error
	for _, c := range collectors {
		regErr := reg.Register(c)
		if regErr != nil {
			errs = append(errs, regErr)
		}
	}

	return errors.Annotate(errors.Join(errs...), "registering store metrics: %w")
}

// HTTP contains the collectors of the API requests.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers the API collectors in reg and returns them.
func NewHTTP(reg prometheus.Registerer) (m *HTTP, err error) {
	const subsystem = "http"

	labels := []string{"route", "code"}
	m = &HTTP{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The number of processed API requests.",
		}, labels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "The time of processing of API requests.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, labels),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		err = reg.Register(c)
		if err != nil {
			return nil, fmt.Errorf("registering http metrics: %w", err)
		}
	}

	return m, nil
}

// Wrap returns h which records its requests under route.  m may be nil, in
// which case h is returned as is.
func (m *HTTP) Wrap(route string, h http.Handler) (wrapped http.Handler) {
	if m == nil {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := httputil.NewCodeRecorderResponseWriter(w)

		h.ServeHTTP(rec, r)
		rec.SetImplicitSuccess()

		code := strconv.Itoa(rec.Code())
		m.requests.WithLabelValues(route, code).Inc()
		m.duration.WithLabelValues(route, code).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the handler serving the metrics gathered by g.
func Handler(g prometheus.Gatherer) (h http.Handler) {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
