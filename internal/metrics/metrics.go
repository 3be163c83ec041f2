package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kanso_tracker"

var (
	CompletionsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completions_added_total",
		Help:      "Completion records added to the ledger.",
	})
	CompletionsRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completions_removed_total",
		Help:      "Completion records removed from the ledger, cascades included.",
	})
	TrackerMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracker_mutations_total",
		Help:      "Committed tracker mutations by operation.",
	}, []string{"op"})
	ProjectionRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "projection_recomputes_total",
		Help:      "Times the visible sectioned projection was rebuilt.",
	})
	VisibleTrackers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "visible_trackers",
		Help:      "Trackers in the last computed projection.",
	})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

var once sync.Once

// Init registers collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			CompletionsAdded,
			CompletionsRemoved,
			TrackerMutations,
			ProjectionRecomputes,
			VisibleTrackers,
			HTTPRequestDuration,
		)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
