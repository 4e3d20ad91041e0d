// Package heuristics implements the deterministic scoring layer: a rule
// registry evaluated in registration order, semantic signal extraction,
// the psychological pressure index, scam signature matching and the
// contextual score adjusters. Everything here is pure over the input
// message; the registry is built once at startup and read-only afterwards,
// so concurrent evaluations need no locking.
package heuristics

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/luansvb/guardinia/pkg/textutil"
)

// Message is the normalized input every detector sees. Folded is the
// lower-cased, accent-stripped form all keyword matching runs on.
type Message struct {
	Raw    string
	Folded string
}

// NewMessage normalizes and folds raw text.
func NewMessage(raw string) Message {
	normalized := textutil.Normalize(raw)
	return Message{Raw: normalized, Folded: textutil.Fold(normalized)}
}

// Detection is the tagged result of one detector run. Exactly one variant
// is meaningful: a fixed-weight hit (Hit, scored at the rule's declared
// weight) or a dynamic per-category contribution (Categories, with its own
// explanatory reasons). NoHit() is the zero value.
type Detection struct {
	Hit        bool
	Categories map[string]int
	Reasons    []string
}

// FixedHit reports a boolean detection scored at the rule's weight.
func FixedHit(hit bool) Detection { return Detection{Hit: hit} }

// CategoryHits reports dynamic per-category scores with explanations.
func CategoryHits(scores map[string]int, reasons ...string) Detection {
	return Detection{Categories: scores, Reasons: reasons}
}

// NoHit is the empty detection.
func NoHit() Detection { return Detection{} }

// Detector inspects a message and reports what it found. Detectors must
// not retain the message; a panicking detector is logged and skipped.
type Detector func(Message) Detection

// Rule is one named heuristic. Weight applies only to fixed-weight hits;
// Group throttles highly correlated fixed-weight rule families (any
// activation beyond the second in one evaluation is suppressed).
type Rule struct {
	Name     string
	Category string
	Weight   int
	Group    string
	Detect   Detector
}

// ErrInvalidRule is returned by Register for malformed rules.
var ErrInvalidRule = errors.New("invalid heuristic rule")

// Registry holds the ordered rule set. Build it fully before the first
// Evaluate call; it is not safe to register rules concurrently with
// evaluation and there is no need to.
type Registry struct {
	rules  []Rule
	strict bool
}

// NewRegistry creates an empty registry. With strict set, a malformed rule
// makes Register return an error the caller should treat as fatal;
// otherwise the rule is logged and dropped.
func NewRegistry(strict bool) *Registry {
	return &Registry{strict: strict}
}

// Register validates and appends a rule. Insertion order is evaluation
// order.
func (r *Registry) Register(rule Rule) error {
	if err := validateRule(rule); err != nil {
		log.Printf("registry_reject | rule=%q err=%v", rule.Name, err)
		if r.strict {
			return err
		}
		return nil
	}
	r.rules = append(r.rules, rule)
	return nil
}

// Len returns the number of registered rules.
func (r *Registry) Len() int { return len(r.rules) }

func validateRule(rule Rule) error {
	switch {
	case rule.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidRule)
	case rule.Category == "":
		return fmt.Errorf("%w: rule %q has empty category", ErrInvalidRule, rule.Name)
	case rule.Weight < 0:
		return fmt.Errorf("%w: rule %q has negative weight %d", ErrInvalidRule, rule.Name, rule.Weight)
	case rule.Detect == nil:
		return fmt.Errorf("%w: rule %q has nil detector", ErrInvalidRule, rule.Name)
	}
	return nil
}

// Evaluation is the outcome of running every rule over one message.
// Categories holds capped per-category scores; RawCategories the pre-cap
// accumulation after legitimacy reduction.
type Evaluation struct {
	Total         int
	Categories    map[string]int
	RawCategories map[string]int
	Reasons       []string
	Indicators    map[string]any
}

// ActiveCategories returns the categories with a non-zero capped score.
func (e *Evaluation) ActiveCategories() map[string]bool {
	active := make(map[string]bool, len(e.Categories))
	for cat, score := range e.Categories {
		if score > 0 {
			active[cat] = true
		}
	}
	return active
}

// Evaluator runs a registry against messages and normalizes the result
// through legitimacy reduction and the per-category cap table.
type Evaluator struct {
	registry *Registry
	tunables *Tunables
}

// NewEvaluator binds a registry to a cap/combo table.
func NewEvaluator(registry *Registry, tunables *Tunables) *Evaluator {
	if tunables == nil {
		tunables = DefaultTunables()
	}
	return &Evaluator{registry: registry, tunables: tunables}
}

// Tunables exposes the bound score tables (read-only by convention).
func (e *Evaluator) Tunables() *Tunables { return e.tunables }

// Evaluate runs all rules in registration order over one message. A rule
// whose detector panics is logged and skipped without affecting the
// others. Boolean hits sharing a Group stop scoring after the second
// activation; dynamic hits bypass group throttling.
func (e *Evaluator) Evaluate(msg Message) *Evaluation {
	start := time.Now()
	raw := make(map[string]int)
	var reasons []string
	groupHits := make(map[string]int)
	suppressed := 0

	for _, rule := range e.registry.rules {
		detection := e.runDetector(rule, msg)

		if detection.Categories != nil {
			for cat, score := range detection.Categories {
				raw[cat] += score
			}
			reasons = append(reasons, detection.Reasons...)
			continue
		}
		if !detection.Hit {
			continue
		}
		if rule.Group != "" {
			groupHits[rule.Group]++
			if groupHits[rule.Group] > 2 {
				suppressed++
				continue
			}
		}
		raw[rule.Category] += rule.Weight
		reasons = append(reasons, "🚩 "+rule.Name)
	}

	reasons = append(reasons, applyLegitimacyReduction(msg.Folded, raw)...)

	capped := make(map[string]int, len(raw))
	total := 0
	for cat, score := range raw {
		if score <= 0 {
			continue
		}
		limit := e.tunables.CapFor(cat)
		if score > limit {
			score = limit
		}
		capped[cat] = score
		total += score
	}

	return &Evaluation{
		Total:         total,
		Categories:    capped,
		RawCategories: raw,
		Reasons:       reasons,
		Indicators: map[string]any{
			"category_scores": capped,
			"rules_evaluated": e.registry.Len(),
			"suppressed_hits": suppressed,
			"evaluation_ms":   time.Since(start).Milliseconds(),
		},
	}
}

// runDetector is the fault boundary around one rule: a panic becomes
// "no hit, log and continue".
func (e *Evaluator) runDetector(rule Rule, msg Message) (detection Detection) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("rule_fault | rule=%q err=%v", rule.Name, rec)
			detection = NoHit()
		}
	}()
	return rule.Detect(msg)
}
