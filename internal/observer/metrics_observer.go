package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels on deepfake_analyses_total
const (
	OutcomeScored      = "scored"
	OutcomeFailed      = "failed"
	OutcomeStub        = "stub"
	OutcomeUnsupported = "unsupported"
)

// MetricsObserver exports pipeline events as Prometheus metrics
type MetricsObserver struct {
	analyses     *prometheus.CounterVec
	scores       prometheus.Histogram
	explanations *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewMetricsObserver registers its collectors on reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfake_analyses_total",
				Help: "Total number of media analyses by outcome and tier.",
			},
			[]string{"outcome", "tier"},
		),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepfake_score",
			Help:    "Distribution of deepfake scores for analysed images.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		explanations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deepfake_explanations_total",
				Help: "Explanations produced, by template or enhancer.",
			},
			[]string{"source"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deepfake_analysis_duration_seconds",
			Help:    "Time spent in the analysis pipeline.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{o.analyses, o.scores, o.explanations, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent counts terminal events only
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	switch event.EventType {
	case AnalysisCompleted:
		o.analyses.WithLabelValues(OutcomeScored, event.Tier).Inc()
		o.scores.Observe(float64(event.Score))
	case AnalysisFailed:
		o.analyses.WithLabelValues(OutcomeFailed, "").Inc()
	case AnalysisSkipped:
		outcome := event.Outcome
		if outcome == "" {
			outcome = OutcomeUnsupported
		}
		o.analyses.WithLabelValues(outcome, event.Tier).Inc()
	default:
		return
	}

	if event.ExplanationSource != "" {
		o.explanations.WithLabelValues(event.ExplanationSource).Inc()
	}
	o.duration.Observe(event.ProcessingTime.Seconds())
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}
