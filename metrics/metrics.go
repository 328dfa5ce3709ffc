package metrics

import (
	"haidetect.com/hai/types"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"time"
)

const DefaultNamespace = "hai"

var ErrEmptyNamespace = errors.New("metrics namespace is required")

type Config struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	Buckets              []float64
}

// Collector counts processed documents and their annotations. It satisfies pipeline.Observer.
type Collector struct {
	registry    *prometheus.Registry
	documents   prometheus.Counter
	sentences   prometheus.Counter
	annotations *prometheus.CounterVec
	failures    prometheus.Counter
	duration    prometheus.Histogram
}

func NewCollector(cfg Config) (*Collector, error) {
	if cfg.Namespace == "" {
		return nil, ErrEmptyNamespace
	}
	if cfg.Buckets == nil {
		cfg.Buckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(prometheus.NewGoCollector())
	}

	c := &Collector{
		registry: registry,
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "documents_total",
			Help:      "Documents annotated.",
		}),
		sentences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sentences_total",
			Help:      "Sentences detected in annotated documents.",
		}),
		annotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "annotations_total",
			Help:      "Kept annotations by classification.",
		}, []string{"classification"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "classification_failures_total",
			Help:      "Mentions skipped because they could not be classified.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "document_duration_seconds",
			Help:      "Time to annotate one document.",
			Buckets:   cfg.Buckets,
		}),
	}
	for _, collector := range []prometheus.Collector{c.documents, c.sentences, c.annotations, c.failures, c.duration} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveDocument(doc types.Document, failures int, elapsed time.Duration) {
	c.documents.Inc()
	c.sentences.Add(float64(doc.SentenceCount()))
	for _, ann := range doc.Annotations {
		c.annotations.WithLabelValues(ann.Classification).Inc()
	}
	c.failures.Add(float64(failures))
	c.duration.Observe(elapsed.Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
