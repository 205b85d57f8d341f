package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zodlint_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	LintDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zodlint_lint_file_seconds",
		Help:    "Time spent running all enabled rules over one file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesLintedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zodlint_files_linted_total",
		Help: "Total number of files linted, by outcome.",
	}, []string{"outcome"})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zodlint_diagnostics_total",
		Help: "Total number of diagnostics reported.",
	}, []string{"rule", "severity"})

	FixesAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zodlint_fixes_applied_total",
		Help: "Total number of autofixes written back to source files.",
	}, []string{"rule"})

	RuleFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zodlint_rule_failures_total",
		Help: "Total number of rule listeners that panicked and were skipped.",
	}, []string{"rule"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zodlint_cache_lookups_total",
		Help: "Result cache lookups by tier and result.",
	}, []string{"tier", "result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zodlint_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zodlint_watcher_throttled_total",
		Help: "Total number of re-lints deferred because a file changed too often.",
	})
)
