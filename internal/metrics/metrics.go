package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCallsTotal tracks calls per upstream service and method
	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_upstream_calls_total",
			Help: "Total number of upstream calls",
		},
		[]string{"service", "method"},
	)

	// UpstreamErrorsTotal tracks classified upstream errors
	UpstreamErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_upstream_errors_total",
			Help: "Total number of upstream errors by kind",
		},
		[]string{"service", "kind"},
	)

	// UpstreamLatency tracks end-to-end call latency including retries
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shipbridge_upstream_latency_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// BreakerState exposes the circuit phase per service (0 closed, 1 open, 2 half-open)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shipbridge_breaker_state",
			Help: "Circuit breaker phase per upstream service",
		},
		[]string{"service"},
	)

	// RateQueriesTotal tracks rate aggregation queries per scope and outcome
	RateQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_rate_queries_total",
			Help: "Total number of carrier rate queries",
		},
		[]string{"scope", "outcome"},
	)

	// RateCacheTotal tracks rate cache lookups
	RateCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_rate_cache_total",
			Help: "Rate cache lookups by result",
		},
		[]string{"result"},
	)

	// FulfillmentRunsTotal tracks fulfillment runs by outcome and shipment path
	FulfillmentRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_fulfillment_runs_total",
			Help: "Total number of fulfillment runs",
		},
		[]string{"outcome", "path"},
	)

	// RunsPrunedTotal tracks finished runs removed by retention
	RunsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shipbridge_runs_pruned_total",
			Help: "Total number of fulfillment runs removed by retention",
		},
	)

	// ToolCallsTotal tracks tool invocations
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shipbridge_tool_calls_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool", "outcome"},
	)
)
