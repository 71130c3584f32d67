package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the recognition service.
type Metrics struct {
	TokenRefreshes    prometheus.Counter
	TokenCacheHits    prometheus.Counter
	SubmitRequests    prometheus.Counter
	SubmitFailures    prometheus.Counter
	PollAttempts      prometheus.Counter
	PollTransient     prometheus.Counter
	RecognizeSuccess  prometheus.Counter
	RecognizeRejected prometheus.Counter
	RecognizeGaveUp   prometheus.Counter
	PipelineDuration  prometheus.Histogram
}

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TokenRefreshes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_token_refreshes_total",
			Help: "Total number of access token fetches from the platform",
		}),
		TokenCacheHits: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_token_cache_hits_total",
			Help: "Total number of token requests served from cache",
		}),
		SubmitRequests: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_submit_requests_total",
			Help: "Total number of voice uploads submitted for recognition",
		}),
		SubmitFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_submit_failures_total",
			Help: "Total number of rejected voice uploads",
		}),
		PollAttempts: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_poll_attempts_total",
			Help: "Total number of recognition status queries",
		}),
		PollTransient: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_poll_transient_total",
			Help: "Total number of poll responses classified as transient",
		}),
		RecognizeSuccess: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_recognize_success_total",
			Help: "Total number of pipelines that produced text",
		}),
		RecognizeRejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_recognize_rejected_total",
			Help: "Total number of pipelines rejected by the platform",
		}),
		RecognizeGaveUp: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "scribe_recognize_exhausted_total",
			Help: "Total number of pipelines that ran out of poll attempts",
		}),
		PipelineDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "scribe_pipeline_duration_seconds",
			Help:    "End to end duration of the recognize pipeline",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8.5 minutes
		}),
	}
}
