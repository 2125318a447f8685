// Package metrics instruments the record.Decoder and collector with
// Prometheus counters and gauges, following the teacher's metric
// naming and vector-label conventions.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adelbot/logstash-codec-netflow/cache"
)

const namespace = "netflowcollector"

var (
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Datagrams that failed to decode, by NetFlow version.",
		},
		[]string{"version"},
	)
	unsupportedFields = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unsupported_fields_total",
			Help:      "Templates rejected for a field the catalog has no entry for, by protocol.",
		},
		[]string{"protocol"},
	)
	templatesCached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_cached_total",
			Help:      "Templates successfully compiled and cached, by protocol.",
		},
		[]string{"protocol"},
	)
	templatesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "templates_rejected_total",
			Help:      "Templates that failed field resolution, by protocol.",
		},
		[]string{"protocol"},
	)
	templateCacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_cache_misses_total",
			Help:      "Data flowsets referencing an unknown or expired template, by protocol.",
		},
		[]string{"protocol"},
	)
	widthMismatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_width_mismatches_total",
			Help:      "Data flowsets whose payload length didn't match the cached template width, by protocol.",
		},
		[]string{"protocol"},
	)
	eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Flow events emitted to the sink, by protocol.",
		},
		[]string{"protocol"},
	)
)

func init() {
	prometheus.MustRegister(
		decodeFailures,
		unsupportedFields,
		templatesCached,
		templatesRejected,
		templateCacheMisses,
		widthMismatches,
		eventsEmitted,
	)
}

// Prom implements record.Metrics with Prometheus counters, and exposes
// a cache-size gauge backed by the live template cache.
type Prom struct {
	cacheSize prometheus.GaugeFunc
}

// New returns a Prom instrumenter whose cache-size gauge reads live
// from c. The gauge is registered against the default registry; a
// later New replaces the gauge an earlier one registered, so the
// exported cache size always reads the most recently built Prom's
// cache. The counters are shared by every Prom.
func New(c *cache.Cache) *Prom {
	gauge := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "template_cache_size",
			Help:      "Current number of templates held in the cache.",
		},
		func() float64 { return float64(c.Len()) },
	)
	if err := prometheus.Register(gauge); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
		prometheus.Unregister(already.ExistingCollector)
		prometheus.MustRegister(gauge)
	}
	return &Prom{cacheSize: gauge}
}

func (p *Prom) DecodeFailure(version uint16) {
	decodeFailures.WithLabelValues(strconv.Itoa(int(version))).Inc()
}

func (p *Prom) UnsupportedField(protocol string) {
	unsupportedFields.WithLabelValues(protocol).Inc()
}

func (p *Prom) TemplateCached(protocol string) {
	templatesCached.WithLabelValues(protocol).Inc()
}

func (p *Prom) TemplateRejected(protocol string) {
	templatesRejected.WithLabelValues(protocol).Inc()
}

func (p *Prom) TemplateCacheMiss(protocol string) {
	templateCacheMisses.WithLabelValues(protocol).Inc()
}

func (p *Prom) WidthMismatch(protocol string) {
	widthMismatches.WithLabelValues(protocol).Inc()
}

func (p *Prom) EventEmitted(protocol string) {
	eventsEmitted.WithLabelValues(protocol).Inc()
}
