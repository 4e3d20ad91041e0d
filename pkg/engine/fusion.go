package engine

import (
	"fmt"
	"log"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/metrics"
	"github.com/luansvb/guardinia/pkg/verifier"
)

// Fusion constants beyond the configurable weights.
const (
	manipulationBoost      = 10
	manipulationBoostMin   = 8
	lowConfidenceFactor    = 0.85
	lowConfidenceHeuristic = 30
	lowConfidenceVerifier  = 15
	scoreCeiling           = 200
)

// Fuse combines the heuristic score with a validated verifier response.
// With no response the heuristic score passes through unchanged. All
// weighting choices land in the indicator map; nothing here can fail — a
// malformed response was already rejected upstream.
func Fuse(cfg *config.Config, heuristicScore int, resp *verifier.Response, indicators map[string]any) (int, []string) {
	if resp == nil {
		indicators["fusion_applied"] = false
		return clampScore(heuristicScore), nil
	}

	var reasons []string
	probability := resp.FraudProbability

	if diff := abs(heuristicScore - probability); diff > cfg.DivergenceThreshold {
		indicators["cognitive_divergence"] = diff
		metrics.Divergences.Inc()
		log.Printf("cognitive_divergence | heuristic=%d verifier=%d diff=%d tier=%s",
			heuristicScore, probability, diff, resp.ModelTier)
	}

	// Once the heuristics are already confident, the verifier only refines.
	heuristicWeight := 0.5
	if heuristicScore >= 100 {
		heuristicWeight = cfg.HighHeuristicWeight
	}
	fused := int(float64(heuristicScore)*heuristicWeight + float64(probability)*(1-heuristicWeight))

	if resp.ManipulationLevel >= manipulationBoostMin {
		fused += manipulationBoost
		reasons = append(reasons, fmt.Sprintf("🧠 Alto nível de manipulação confirmado (%d/10)", resp.ManipulationLevel))
	}

	// Two independent low readings agree: suppress residual noise.
	if heuristicScore <= lowConfidenceHeuristic && probability <= lowConfidenceVerifier {
		fused = int(float64(fused) * lowConfidenceFactor)
	}

	fused = clampScore(fused)

	indicators["fusion_applied"] = true
	indicators["heuristic_weight"] = heuristicWeight
	indicators["verifier_probability"] = probability
	indicators["verifier_tier"] = string(resp.ModelTier)
	indicators["verifier_category"] = resp.PrimaryCategory
	indicators["verifier_subtype"] = resp.Subtype
	indicators["manipulation_level"] = resp.ManipulationLevel
	return fused, reasons
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > scoreCeiling {
		return scoreCeiling
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
