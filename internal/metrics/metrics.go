// Package metrics exposes prometheus collectors for the report pipeline.
//
// A nil *Recorder is valid and records nothing, so services can take one
// unconditionally.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sred"

// Recorder owns a private registry and the pipeline collectors.
type Recorder struct {
	registry *prometheus.Registry

	sections     *prometheus.CounterVec
	sectionTime  *prometheus.HistogramVec
	generation   *prometheus.HistogramVec
	genErrors    *prometheus.CounterVec
	relaxations  *prometheus.CounterVec
	retrieved    *prometheus.HistogramVec
	reports      *prometheus.CounterVec
	ingestedRecs prometheus.Counter
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_total",
			Help:      "Sections completed, by section and terminal state.",
		}, []string{"section", "state"}),
		sectionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "section_duration_seconds",
			Help:      "Wall time of one section pipeline.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"section"}),
		generation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of text generation calls, by stage.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"stage"}),
		genErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Failed text generation calls, by stage.",
		}, []string{"stage"}),
		relaxations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_relaxations_total",
			Help:      "Retrieval queries re-issued with a relaxed filter, by dropped field.",
		}, []string{"field"}),
		retrieved: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Exemplars returned per retrieval, by section.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}, []string{"section"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report generations, by outcome.",
		}, []string{"outcome"}),
		ingestedRecs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_records_total",
			Help:      "Section records written to the exemplar collection.",
		}),
	}
	r.registry.MustRegister(
		r.sections, r.sectionTime, r.generation, r.genErrors,
		r.relaxations, r.retrieved, r.reports, r.ingestedRecs,
	)
	return r
}

// Registry returns the underlying registry, for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SectionDone records a section reaching a terminal state.
func (r *Recorder) SectionDone(section, state string, d time.Duration) {
	if r == nil {
		return
	}
	r.sections.WithLabelValues(section, state).Inc()
	r.sectionTime.WithLabelValues(section).Observe(d.Seconds())
}

// Generation records one text generation call.
func (r *Recorder) Generation(stage string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.generation.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		r.genErrors.WithLabelValues(stage).Inc()
	}
}

// Relaxed records a retrieval query re-issued without field.
func (r *Recorder) Relaxed(field string) {
	if r == nil {
		return
	}
	r.relaxations.WithLabelValues(field).Inc()
}

// Retrieved records the final number of exemplars for a section.
func (r *Recorder) Retrieved(section string, n int) {
	if r == nil {
		return
	}
	r.retrieved.WithLabelValues(section).Observe(float64(n))
}

// Report records the outcome of one report generation ("ok" or "error").
func (r *Recorder) Report(outcome string) {
	if r == nil {
		return
	}
	r.reports.WithLabelValues(outcome).Inc()
}

// Ingested records n section records written by ingestion.
func (r *Recorder) Ingested(n int) {
	if r == nil {
		return
	}
	r.ingestedRecs.Add(float64(n))
}
