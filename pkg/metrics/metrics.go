// Package metrics exposes the gateway's prometheus counters. Counters are
// process-local; durable daily aggregates live in the metrics store.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analyses counts completed pipeline runs by final risk color.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardinia_analyses_total",
		Help: "Completed message analyses by risk color.",
	}, []string{"color"})

	// InvalidInputs counts rejected inputs by reason.
	InvalidInputs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_invalid_inputs_total",
		Help: "Messages rejected before scoring.",
	})

	// VerifierCalls counts cognitive verifier passes by model tier.
	VerifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guardinia_verifier_calls_total",
		Help: "Cognitive verifier passes by tier.",
	}, []string{"tier"})

	// VerifierFallbacks counts failed or rejected verifier passes that
	// degraded to heuristic-only scoring.
	VerifierFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_verifier_fallbacks_total",
		Help: "Verifier passes that failed validation or transport.",
	})

	// VerifierCostUSD accumulates verifier spend.
	VerifierCostUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_verifier_cost_usd_total",
		Help: "Accumulated verifier cost in USD.",
	})

	// CacheHits counts analyses answered from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_cache_hits_total",
		Help: "Analyses served from the result cache.",
	})

	// RateLimited counts messages dropped by the per-sender limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_rate_limited_total",
		Help: "Messages rejected by the per-sender rate limiter.",
	})

	// Divergences counts heuristic/verifier disagreements past the
	// configured threshold.
	Divergences = promauto.NewCounter(prometheus.CounterOpts{
		Name: "guardinia_cognitive_divergences_total",
		Help: "Heuristic vs verifier score divergences past threshold.",
	})
)
