package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talos_scans_total",
		Help: "Completed URL analyses by verdict.",
	}, []string{"verdict"})

	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "talos_stage_failures_total",
		Help: "Enrichment stage failures that degraded to fallback values.",
	}, []string{"stage"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talos_cache_hits_total",
		Help: "Analyses served from the redis result cache.",
	})

	RejectedInputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "talos_rejected_inputs_total",
		Help: "Analysis requests rejected during URL normalization.",
	})
)
