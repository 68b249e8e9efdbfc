package obslog

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the build-time counters and histogram exposed when the CLI
// is started with --metrics-addr. Registered lazily via NewMetrics so the
// core packages never depend on an HTTP listener.
type Metrics struct {
	FilesIndexed  prometheus.Counter
	ParseErrors   prometheus.Counter
	BuildDuration prometheus.Histogram

	// ParsesByLanguage, ParseErrorsByLanguage and ParseDuration give the
	// teacher's ast/metrics.go per-parse instrumentation (latency, error
	// count, a "language" attribute) a Prometheus equivalent, at the
	// granularity of a single strategy.ParseFile call rather than a whole
	// build.
	ParsesByLanguage      *prometheus.CounterVec
	ParseErrorsByLanguage *prometheus.CounterVec
	ParseDuration         *prometheus.HistogramVec
}

// NewMetrics creates and registers the counters against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codeindex",
			Name:      "files_indexed_total",
			Help:      "Number of source files successfully parsed into the deep index.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "codeindex",
			Name:      "parse_errors_total",
			Help:      "Number of files that failed to parse during a build.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "codeindex",
			Name:      "build_duration_seconds",
			Help:      "Wall-clock time spent building the deep index.",
			Buckets:   prometheus.DefBuckets,
		}),
		ParsesByLanguage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeindex",
			Name:      "parses_total",
			Help:      "Number of strategy.ParseFile calls, by language.",
		}, []string{"language"}),
		ParseErrorsByLanguage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codeindex",
			Name:      "parse_errors_by_language_total",
			Help:      "Number of strategy.ParseFile calls that returned an error, by language.",
		}, []string{"language"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "codeindex",
			Name:      "parse_duration_seconds",
			Help:      "Per-file parse latency, by language.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"language"}),
	}
	reg.MustRegister(
		m.FilesIndexed, m.ParseErrors, m.BuildDuration,
		m.ParsesByLanguage, m.ParseErrorsByLanguage, m.ParseDuration,
	)
	return m
}
