// Package engine orchestrates the full analysis pipeline: input
// validation, heuristic evaluation, semantic signals, pressure index,
// contextual adjusters, cost-aware escalation with double-pass, hybrid
// fusion and final classification. One Analyze call is synchronous and
// self-contained; nothing is shared across calls except the immutable
// rule registry and configuration.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/heuristics"
	"github.com/luansvb/guardinia/pkg/metrics"
	"github.com/luansvb/guardinia/pkg/textutil"
	"github.com/luansvb/guardinia/pkg/verifier"
)

// SemanticMultiplier converts the positive signal sum into score points.
const SemanticMultiplier = 20

// Verifier is the cognitive tier as the engine sees it. A nil Verifier
// disables escalation entirely (heuristic-only mode).
type Verifier interface {
	Verify(ctx context.Context, text string, tier config.VerifierTier) (*verifier.Response, error)
}

// SignatureMatcher is the optional embedding-similarity layer. Score
// returns extra social-engineering points for narratives resembling known
// scam seeds, with a short label for the reason line.
type SignatureMatcher interface {
	Score(ctx context.Context, text string) (int, string, error)
}

// Engine runs the pipeline. Safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	evaluator *heuristics.Evaluator
	verifier  Verifier
	semantic  SignatureMatcher
}

// New assembles an engine. verifierClient and matcher may be nil.
func New(cfg *config.Config, evaluator *heuristics.Evaluator, verifierClient Verifier, matcher SignatureMatcher) *Engine {
	return &Engine{cfg: cfg, evaluator: evaluator, verifier: verifierClient, semantic: matcher}
}

// Analyze scores one message end to end. It always returns a well-formed
// Result; invalid input yields the zero-score invalid variant and any
// verifier failure degrades to heuristic-only scoring.
func (e *Engine) Analyze(ctx context.Context, text string) *Result {
	started := time.Now()
	id := uuid.NewString()

	if err := textutil.Validate(text); err != nil {
		metrics.InvalidInputs.Inc()
		return &Result{
			ID:           id,
			StatusLabel:  "⚪ ENTRADA INVÁLIDA",
			ColorTag:     "cinza",
			TotalScore:   0,
			Reasons:      []string{err.Error()},
			Indicators:   map[string]any{"invalid_input": true},
			AnalyzedText: text,
			Invalid:      true,
		}
	}

	msg := heuristics.NewMessage(text)
	eval := e.evaluator.Evaluate(msg)
	indicators := eval.Indicators
	reasons := eval.Reasons
	total := eval.Total
	active := eval.ActiveCategories()

	// Critical-combination bonuses over the active category set.
	comboBonus, comboReasons := heuristics.ApplyCombos(e.evaluator.Tunables().Combos, active)
	total += comboBonus
	reasons = append(reasons, comboReasons...)

	// Semantic signal layer.
	signals := heuristics.ExtractSignals(msg)
	if points := int(signals.PositiveSum() * SemanticMultiplier); points > 0 {
		total += points
		indicators["semantic_points"] = points
	}
	indicators["signals"] = signals

	// Optional embedding similarity against known scam narratives.
	if e.semantic != nil {
		if points, label, err := e.semantic.Score(ctx, msg.Raw); err != nil {
			log.Printf("semantic_skip | err=%v", err)
		} else if points > 0 {
			total += points
			reasons = append(reasons, fmt.Sprintf("🧬 Narrativa similar a golpe conhecido (%s)", label))
			indicators["semantic_similarity_points"] = points
		}
	}

	// Psychological pressure index, added to the total before the
	// contextual adjusters so dampening applies to it as well.
	ipp, ippReasons := heuristics.PressureIndex(signals, msg.Raw)
	if ipp > 0 {
		total += int(ipp)
	}
	indicators["pressure_index"] = ipp
	reasons = append(reasons, ippReasons...)

	// Contextual adjusters, in fixed order.
	if signals.Investigative() {
		total = int(float64(total) * e.cfg.InvestigativeFactor)
		reasons = append(reasons, "🔎 Pergunta investigativa: usuário verificando, não sendo golpeado")
		indicators["investigative_dampening"] = true
	}
	if heuristics.IsStructuredBilling(msg.Folded) {
		total = int(float64(total) * heuristics.StructuredBillingFactor)
		reasons = append(reasons, heuristics.StructuredBillingReason)
		indicators["structured_billing"] = true
	}
	if criticalCount := heuristics.CountCriticalActive(active); criticalCount >= 3 {
		total = int(float64(total) * e.cfg.CriticalAmplifier)
		reasons = append(reasons, "⚠️ Ataque multi-vetor: três categorias críticas simultâneas")
		indicators["critical_amplified"] = true
	}
	total = clampScore(total)
	indicators["heuristic_score"] = total

	// Escalation and (optional) double-pass.
	response := e.escalate(ctx, msg.Raw, total, active, signals, indicators)

	fused, fusionReasons := Fuse(e.cfg, total, response, indicators)
	reasons = append(reasons, fusionReasons...)

	if heuristics.HasTemporalManipulation(msg.Folded) {
		fused = clampScore(fused + heuristics.TemporalManipulationBump)
		reasons = append(reasons, heuristics.TemporalManipulationReason)
	}

	classification := Classify(fused)
	indicators["pipeline_ms"] = time.Since(started).Milliseconds()
	metrics.Analyses.WithLabelValues(classification.ColorTag).Inc()

	return &Result{
		ID:                id,
		StatusLabel:       classification.StatusLabel,
		ColorTag:          classification.ColorTag,
		Confidence:        classification.Confidence,
		TotalScore:        fused,
		Reasons:           reasons,
		RecommendedAction: classification.RecommendedAction,
		Indicators:        indicators,
		AnalyzedText:      msg.Raw,
	}
}

// escalate runs the decision engine and at most one verifier pass per
// tier. A basic verdict flagged by the double-pass controller is replaced
// by a deep pass. Failures degrade to nil (heuristic-only).
func (e *Engine) escalate(ctx context.Context, text string, score int, active map[string]bool, signals heuristics.SignalSet, indicators map[string]any) *verifier.Response {
	decision := verifier.Decide(e.cfg, score, active, signals, text)
	indicators["escalation"] = decision.Reason
	if !decision.Escalate || e.verifier == nil {
		return nil
	}
	indicators["escalation_tier"] = string(decision.Tier)

	response, err := e.verifier.Verify(ctx, text, decision.Tier)
	if err != nil {
		metrics.VerifierFallbacks.Inc()
		log.Printf("verifier_fallback | tier=%s err=%v", decision.Tier, err)
		return nil
	}
	metrics.VerifierCalls.WithLabelValues(string(decision.Tier)).Inc()
	metrics.VerifierCostUSD.Add(response.CostUSD)
	indicators["verifier_cost_usd"] = response.CostUSD

	if decision.Tier == config.TierBasic && verifier.NeedsSecondPass(e.cfg, response) {
		indicators["double_pass"] = true
		deep, err := e.verifier.Verify(ctx, text, config.TierDeep)
		if err != nil {
			metrics.VerifierFallbacks.Inc()
			log.Printf("verifier_fallback | tier=deep err=%v", err)
			return response // keep the basic verdict rather than nothing
		}
		metrics.VerifierCalls.WithLabelValues(string(config.TierDeep)).Inc()
		metrics.VerifierCostUSD.Add(deep.CostUSD)
		indicators["verifier_cost_usd"] = response.CostUSD + deep.CostUSD
		return deep
	}
	return response
}
