package heuristics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/luansvb/guardinia/pkg/textutil"
)

// Signal names. Positive values raise risk; investigative intent is the
// one negative signal — a user asking whether something is a scam is not
// in the middle of being scammed.
const (
	SignalMoneyRequest  = "money_request"
	SignalReturnPromise = "return_promise"
	SignalAuthority     = "authority_claim"
	SignalUrgency       = "urgency"
	SignalIsolation     = "isolation_request"
	SignalPersonalBond  = "personal_bond"
	SignalThreat        = "threat"
	SignalInvestigative = "investigative_intent"
)

// SignalSet maps signal names to signed intensities for one message.
// Computed fresh per message, never mutated afterwards.
type SignalSet map[string]float64

// Keyword tables are stored pre-folded (lower case, no accents) and
// matched against Message.Folded.
var (
	moneyRequestTerms = []string{
		"faz um pix", "me manda", "me passa", "transfere", "me envia", "deposita",
	}
	moneyNeedRe = regexp.MustCompile(`(preciso|necessito)[^.!?]{0,40}(dinheiro|grana)`)

	returnPromiseTerms = []string{
		"te devolvo", "te pago", "lucro garantido", "sem risco",
		"retorno garantido", "rendimento garantido",
	}

	authorityTerms = []string{
		"sou do banco", "sou da receita", "setor de fraude",
		"central de seguranca", "suporte oficial",
	}
	authorityDeptRe = regexp.MustCompile(`departamento[^.!?]{0,30}(fraude|seguranca|bloqueio)`)

	urgencyTerms = []string{
		"urgente", "agora", "imediato", "imediatamente", "ultimo aviso", "hoje mesmo",
	}

	isolationTerms = []string{
		"nao conta", "nao liga", "nao fala", "nao chama",
		"segredo nosso", "confidencial", "entre nos",
	}

	personalBondTerms = []string{
		"meu amor", "querido", "querida", "confia em mim", "so voce pode me ajudar",
	}

	threatTerms = []string{
		"bloqueio", "cancelamento", "prisao",
		"sera bloqueado", "sera cancelado", "sera suspenso",
		"perdera acesso", "consequencias",
	}

	investigativeTerms = []string{
		"isso e golpe", "e golpe", "e seguro", "e confiavel", "e fraude",
	}
	investigativeTopics = []string{"golpe", "seguro", "confiavel", "fraude"}
)

// Signal intensities. Urgency saturates: each distinct cue adds 0.8 up to
// 2.4 so a wall of "URGENTE AGORA HOJE" cannot dominate the set alone.
const (
	weightMoneyRequest  = 1.0
	weightReturnPromise = 1.0
	weightAuthority     = 1.0
	weightUrgencyStep   = 0.8
	weightUrgencyCap    = 2.4
	weightIsolation     = 1.2
	weightPersonalBond  = 0.7
	weightThreat        = 1.1
	weightInvestigative = -1.5
)

// ExtractSignals computes the SignalSet for one message. Only fired
// signals appear in the map.
func ExtractSignals(msg Message) SignalSet {
	folded := msg.Folded
	signals := make(SignalSet)

	if containsAnyFolded(folded, moneyRequestTerms) || moneyNeedRe.MatchString(folded) {
		signals[SignalMoneyRequest] = weightMoneyRequest
	}
	if containsAnyFolded(folded, returnPromiseTerms) {
		signals[SignalReturnPromise] = weightReturnPromise
	}
	if containsAnyFolded(folded, authorityTerms) || authorityDeptRe.MatchString(folded) {
		signals[SignalAuthority] = weightAuthority
	}
	if n := countAnyFolded(folded, urgencyTerms); n > 0 {
		v := float64(n) * weightUrgencyStep
		if v > weightUrgencyCap {
			v = weightUrgencyCap
		}
		signals[SignalUrgency] = v
	}
	if containsAnyFolded(folded, isolationTerms) {
		signals[SignalIsolation] = weightIsolation
	}
	if containsAnyFolded(folded, personalBondTerms) {
		signals[SignalPersonalBond] = weightPersonalBond
	}
	if containsAnyFolded(folded, threatTerms) {
		signals[SignalThreat] = weightThreat
	}
	if isInvestigative(folded) {
		signals[SignalInvestigative] = weightInvestigative
	}
	return signals
}

// isInvestigative detects a user asking about legitimacy rather than
// relaying a scam: either an explicit "isso é golpe?" phrase, or a
// question mark alongside a legitimacy topic word.
func isInvestigative(folded string) bool {
	if containsAnyFolded(folded, investigativeTerms) {
		return true
	}
	return strings.Contains(folded, "?") && containsAnyFolded(folded, investigativeTopics)
}

// PositiveSum adds the risk-raising signal values (the negative
// investigative signal is excluded; it dampens downstream instead).
func (s SignalSet) PositiveSum() float64 {
	sum := 0.0
	for _, v := range s {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

// Investigative reports whether the negative signal fired.
func (s SignalSet) Investigative() bool {
	return s[SignalInvestigative] < 0
}

// Pressure index weights. The index aggregates coercive intensity across
// content (urgency, threat, isolation) and formatting (caps, exclamation
// stacking).
const (
	ippUrgencyWeight   = 10
	ippThreatWeight    = 20
	ippIsolationWeight = 25
	ippUppercaseWeight = 15
	ippExclamationMax  = 5
	ippExclamationStep = 2
)

// PressureIndex computes the IPP over extracted signals plus formatting
// cues from the raw (case-preserving) text, and the graded reasons it
// produces.
func PressureIndex(signals SignalSet, raw string) (float64, []string) {
	excl := textutil.ExclamationCount(raw)
	if excl > ippExclamationMax {
		excl = ippExclamationMax
	}
	ipp := signals[SignalUrgency]*ippUrgencyWeight +
		signals[SignalThreat]*ippThreatWeight +
		signals[SignalIsolation]*ippIsolationWeight +
		textutil.UppercaseRatio(raw)*ippUppercaseWeight +
		float64(excl*ippExclamationStep)

	var reasons []string
	switch {
	case ipp >= 25:
		reasons = append(reasons, fmt.Sprintf("🧠 Pressão psicológica extrema detectada (IPP %.1f)", ipp))
	case ipp >= 12:
		reasons = append(reasons, fmt.Sprintf("🧠 Alta pressão psicológica (IPP %.1f)", ipp))
	case ipp >= 5:
		reasons = append(reasons, fmt.Sprintf("🧠 Pressão psicológica moderada (IPP %.1f)", ipp))
	}
	return ipp, reasons
}

// PressureEstimate is the cheap urgency/threat-only estimate the
// escalation engine uses as a secondary trigger.
func PressureEstimate(signals SignalSet) float64 {
	return signals[SignalUrgency]*ippUrgencyWeight + signals[SignalThreat]*ippThreatWeight
}

// containsAnyFolded assumes keywords are already folded; no per-call
// folding like textutil.ContainsAny does.
func containsAnyFolded(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func countAnyFolded(folded string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(folded, kw) {
			n++
		}
	}
	return n
}
