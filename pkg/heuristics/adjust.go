package heuristics

import (
	"fmt"
	"regexp"
)

// Legitimacy contexts. The presence of institutional or structured
// financial vocabulary does not clear a message, but it discounts the
// categories that vocabulary most often false-positives on.
var (
	generalLegitimacyTerms = []string{
		"site oficial", "aplicativo oficial", "app oficial", "loja fisica",
		"atendimento presencial", "contrato assinado", "documento oficial",
		"gov.br", "canal oficial", "central oficial",
	}
	financialLegitimacyTerms = []string{
		"boleto registrado", "nota fiscal", "pagamento recorrente",
		"contrato bancario", "suporte tecnico oficial", "assistencia autorizada",
	}
)

const (
	generalLegitimacyFactor   = 0.7
	financialLegitimacyFactor = 0.6
)

// applyLegitimacyReduction discounts PHISHING/ENGENHARIA_SOCIAL on general
// institutional context and FINANCEIRO on structured financial context.
// Runs pre-cap, mutating the raw score map in place.
func applyLegitimacyReduction(folded string, raw map[string]int) []string {
	var reasons []string
	if containsAnyFolded(folded, generalLegitimacyTerms) {
		reduced := false
		for _, cat := range []string{CategoryPhishing, CategorySocialEngineering} {
			if raw[cat] > 0 {
				raw[cat] = int(float64(raw[cat]) * generalLegitimacyFactor)
				reduced = true
			}
		}
		if reduced {
			reasons = append(reasons, "🏛️ Contexto institucional legítimo reduz o risco")
		}
	}
	if containsAnyFolded(folded, financialLegitimacyTerms) && raw[CategoryFinancial] > 0 {
		raw[CategoryFinancial] = int(float64(raw[CategoryFinancial]) * financialLegitimacyFactor)
		reasons = append(reasons, "🏛️ Contexto financeiro estruturado reduz o risco")
	}
	return reasons
}

// ApplyCombos sums the flat bonuses of every combination whose categories
// are all simultaneously active. Bonuses stack.
func ApplyCombos(combos []ComboBonus, active map[string]bool) (int, []string) {
	total := 0
	var reasons []string
	for _, combo := range combos {
		matched := len(combo.Categories) > 0
		for _, cat := range combo.Categories {
			if !active[cat] {
				matched = false
				break
			}
		}
		if matched {
			total += combo.Bonus
			reasons = append(reasons, fmt.Sprintf("⚠️ Combinação crítica %v (+%d)", combo.Categories, combo.Bonus))
		}
	}
	return total, reasons
}

// CountCriticalActive reports how many critical categories fired.
func CountCriticalActive(active map[string]bool) int {
	n := 0
	for _, cat := range CriticalCategories {
		if active[cat] {
			n++
		}
	}
	return n
}

// Structured billing: a real invoice mentions an amount and an
// installment or document number, asks for no credentials, and carries no
// severe threat.
var (
	monetaryRe    = regexp.MustCompile(`r\$\s?\d+[.,]?\d*`)
	installmentRe = regexp.MustCompile(`parcela\s?\d+|numero\s?\d+|\b\d{8,}\b`)

	sensitiveRequestTerms = []string{"senha", "token", "codigo", "confirme seus dados"}
	severeThreatTerms     = []string{
		"bloqueado imediatamente", "prisao", "ultimo aviso", "suspensao imediata",
	}
)

// StructuredBillingFactor is the total-score multiplier for a message that
// looks like legitimate structured billing.
const StructuredBillingFactor = 0.55

// StructuredBillingReason is appended when the reduction applies.
const StructuredBillingReason = "📄 Cobrança estruturada detectada (padrão legítimo)"

// IsStructuredBilling reports whether the reduction applies to the folded
// text.
func IsStructuredBilling(folded string) bool {
	if !monetaryRe.MatchString(folded) || !installmentRe.MatchString(folded) {
		return false
	}
	if containsAnyFolded(folded, sensitiveRequestTerms) {
		return false
	}
	return !containsAnyFolded(folded, severeThreatTerms)
}

// Temporal manipulation: a countdown coupled with a claimed consequence.
var (
	deadlineRe       = regexp.MustCompile(`(em|dentro de)\s+\d+\s+(minutos?|horas?)|expira em|so ate hoje|ultimos minutos`)
	consequenceTerms = []string{
		"bloqueado", "cancelado", "suspenso", "perdera", "multa", "protesto", "negativado",
	}
)

// TemporalManipulationBump is added post-fusion when a deadline threat is
// present.
const TemporalManipulationBump = 12

// TemporalManipulationReason is appended when the bump applies.
const TemporalManipulationReason = "⏱️ Manipulação temporal (prazo artificial com consequência)"

// HasTemporalManipulation reports deadline-plus-consequence phrasing.
func HasTemporalManipulation(folded string) bool {
	return deadlineRe.MatchString(folded) && containsAnyFolded(folded, consequenceTerms)
}
