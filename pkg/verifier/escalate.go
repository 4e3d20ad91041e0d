package verifier

import (
	"strings"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/heuristics"
	"github.com/luansvb/guardinia/pkg/textutil"
)

// Decision is the escalation engine's verdict for one message.
type Decision struct {
	Escalate bool
	Tier     config.VerifierTier
	Reason   string
}

// escalationCritical is the category set that on its own justifies a
// verifier call. Wider than heuristics.CriticalCategories: an authority
// claim warrants the cognitive tier even though it does not count toward
// the multi-vector amplifier.
var escalationCritical = []string{
	heuristics.CategoryPhishing,
	heuristics.CategorySocialEngineering,
	heuristics.CategoryFinancial,
	heuristics.CategoryAuthority,
}

func hasEscalationCritical(active map[string]bool) bool {
	for _, cat := range escalationCritical {
		if active[cat] {
			return true
		}
	}
	return false
}

// Decide applies the cost-aware escalation policy over the adjusted
// heuristic score:
//
//   - below the cognitive zone the message is safe without an external call;
//   - at or above the zone ceiling the heuristics are already conclusive;
//   - inside the zone, escalate only when a critical category fired or a
//     secondary trigger (score, estimated pressure, URL) says ambiguity is
//     worth paying for. Basic tier up to BasicTierMax, deep above it.
func Decide(cfg *config.Config, score int, active map[string]bool, signals heuristics.SignalSet, rawText string) Decision {
	if score < cfg.CognitiveZoneMin {
		return Decision{Reason: "abaixo_da_zona"}
	}
	if score >= cfg.CognitiveZoneMax {
		return Decision{Reason: "acima_da_zona"}
	}

	triggered := ""
	switch {
	case hasEscalationCritical(active):
		triggered = "categoria_critica"
	case score >= cfg.EscalationScoreMin:
		triggered = "score_minimo"
	case heuristics.PressureEstimate(signals) >= float64(cfg.PressureEstimateMin):
		triggered = "pressao_estimada"
	case textutil.HasURL(rawText):
		triggered = "url_presente"
	}
	if triggered == "" {
		return Decision{Reason: "sem_gatilho"}
	}

	tier := config.TierBasic
	if score > cfg.BasicTierMax {
		tier = config.TierDeep
	}
	return Decision{Escalate: true, Tier: tier, Reason: triggered}
}

// Markers in the basic verdict's subtype that flag an internally
// inconsistent read, warranting the deeper model.
var contradictionMarkers = []string{"contradicao", "inconsistencia"}

// NeedsSecondPass decides whether a basic-tier verdict is trustworthy or
// the message should be re-run at the deep tier. The deep verdict, when
// obtained, replaces the basic one outright.
func NeedsSecondPass(cfg *config.Config, resp *Response) bool {
	if resp == nil {
		return false
	}
	if resp.FraudProbability >= cfg.RepassProbLow && resp.FraudProbability <= cfg.RepassProbHigh {
		return true
	}
	if resp.ManipulationLevel >= cfg.RepassManipulationMin {
		return true
	}
	folded := textutil.Fold(resp.Subtype)
	for _, marker := range contradictionMarkers {
		if strings.Contains(folded, marker) {
			return true
		}
	}
	return false
}
