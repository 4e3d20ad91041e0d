package heuristics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/luansvb/guardinia/pkg/textutil"
)

// Cue tables for the boolean rules. All pre-folded.
var (
	credentialTerms = []string{"senha", "cpf", "cartao", "conta", "dados", "token"}
	clickTerms      = []string{"clique", "acesse", "entre no link", "toque aqui"}
	verifyTerms     = []string{"verifique", "confirme", "atualize", "regularize", "valide"}
	bankEntityTerms = []string{
		"banco", "nubank", "caixa", "itau", "bradesco", "santander",
		"receita federal", "correios", "serasa", "gov.br",
	}
	actionVerbTerms = []string{"clique", "acesse", "pague", "transfira", "envie", "deposite"}

	moneyContextTerms = []string{"pix", "transferencia", "deposito", "dinheiro", "valor", "r$", "grana"}

	shortenerTerms = []string{
		"bit.ly", "tinyurl", "cutt.ly", "t.co/", "is.gd", "encurtador", "rb.gy", "shorturl",
	}
	suspiciousTLDRe = regexp.MustCompile(`\.(xyz|top|click|tk|buzz|icu|rest)(/|\s|$)`)
)

// PhishingDetector fires when at least three independent phishing cue
// groups co-occur: a link, credential vocabulary, a click prompt, a
// verification prompt, or a spoofed sensitive entity. Requiring three
// keeps single-cue legitimate messages ("confirme sua presença") quiet.
func PhishingDetector(msg Message) Detection {
	cues := 0
	if textutil.HasURL(msg.Raw) {
		cues++
	}
	if containsAnyFolded(msg.Folded, credentialTerms) {
		cues++
	}
	if containsAnyFolded(msg.Folded, clickTerms) {
		cues++
	}
	if containsAnyFolded(msg.Folded, verifyTerms) {
		cues++
	}
	if containsAnyFolded(msg.Folded, bankEntityTerms) {
		cues++
	}
	return FixedHit(cues >= 3)
}

// AuthorityDetector fires on false institutional authority claims.
func AuthorityDetector(msg Message) Detection {
	return FixedHit(containsAnyFolded(msg.Folded, authorityTerms) ||
		authorityDeptRe.MatchString(msg.Folded))
}

// UrgencyActionDetector fires when urgency phrasing is coupled with a
// demanded action. Urgency alone is noise; urgency plus "clique"/"pague"
// is coercion.
func UrgencyActionDetector(msg Message) Detection {
	return FixedHit(containsAnyFolded(msg.Folded, urgencyTerms) &&
		containsAnyFolded(msg.Folded, actionVerbTerms))
}

// MoneyRequestDetector fires on a direct transfer request ("me passa",
// "faz um pix") in money context.
func MoneyRequestDetector(msg Message) Detection {
	return FixedHit((containsAnyFolded(msg.Folded, moneyRequestTerms) ||
		moneyNeedRe.MatchString(msg.Folded)) &&
		containsAnyFolded(msg.Folded, moneyContextTerms))
}

// URLDetector fires on any link.
func URLDetector(msg Message) Detection {
	return FixedHit(textutil.HasURL(msg.Raw))
}

// ShortenerDetector fires on known URL shorteners, which hide the real
// destination.
func ShortenerDetector(msg Message) Detection {
	return FixedHit(containsAnyFolded(msg.Folded, shortenerTerms))
}

// SuspiciousDomainDetector fires on throwaway TLDs or bank names embedded
// in non-official domains.
func SuspiciousDomainDetector(msg Message) Detection {
	for _, u := range textutil.ExtractURLs(msg.Raw) {
		if suspiciousTLDRe.MatchString(u) {
			return FixedHit(true)
		}
		for _, bank := range []string{"nubank", "itau", "bradesco", "santander", "caixa"} {
			if strings.Contains(u, bank) && !strings.Contains(u, bank+".com.br") {
				return FixedHit(true)
			}
		}
	}
	return FixedHit(false)
}

// --- Financial progression ---

var (
	financialContextTerms = []string{
		"investimento", "aplicacao", "rendimento", "lucro", "pix", "deposito", "retorno",
	}
	proposalVerbTerms = []string{
		"invista", "investe", "deposite", "pague", "transfira", "ganhe", "multiplica", "aplique",
	}
	reportVerbTerms = []string{"recebi", "paguei", "transferi", "ganhei", "investi"}

	numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// FinancialProgressionWeight is the FINANCEIRO contribution when an
// escalating money proposal is detected.
const FinancialProgressionWeight = 35

// extractAmounts parses the numeric tokens of the folded text, treating a
// single ',' as the decimal separator.
func extractAmounts(folded string) []float64 {
	var amounts []float64
	for _, tok := range numberRe.FindAllString(folded, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", "."), 64)
		if err == nil {
			amounts = append(amounts, v)
		}
	}
	return amounts
}

// FinancialProgressionDetector flags proposals whose cited values escalate:
// a later amount at least doubling an earlier one, in financial context,
// phrased as a proposal rather than a past-tense report.
func FinancialProgressionDetector(msg Message) Detection {
	folded := msg.Folded
	if !containsAnyFolded(folded, financialContextTerms) {
		return NoHit()
	}
	if !containsAnyFolded(folded, proposalVerbTerms) || containsAnyFolded(folded, reportVerbTerms) {
		return NoHit()
	}
	amounts := extractAmounts(folded)
	if len(amounts) < 2 {
		return NoHit()
	}
	for i := 0; i < len(amounts); i++ {
		for j := i + 1; j < len(amounts); j++ {
			if amounts[i] > 0 && amounts[j] >= 2*amounts[i] {
				return CategoryHits(
					map[string]int{CategoryFinancial: FinancialProgressionWeight},
					"📈 Progressão financeira suspeita (valores escalando)",
				)
			}
		}
	}
	return NoHit()
}

// --- Unrealistic return ---

var (
	sendVerbTerms   = []string{"pague", "deposite", "invista", "envie", "transfira", "aplique", "coloca"}
	returnVerbTerms = []string{"receba", "ganhe", "lucre", "retorno", "volta", "rende", "recebe"}

	intensifierTerms = []string{
		"garantido", "lucro certo", "sem risco", "renda facil",
		"retorno imediato", "oportunidade unica", "so hoje",
	}
	refundTerms = []string{"cashback", "troco", "reembolso", "estorno", "restituicao", "desconto"}
)

const (
	intensifierBonus   = 20
	refundReduction    = 25
	extremeRatioBonus  = 25 // extra FINANCEIRO when the promised multiple is >=5x
	maxPlausibleAmount = 1_000_000
)

// returnRatioScore maps the promised multiple onto the stepped scale.
func returnRatioScore(ratio float64) int {
	switch {
	case ratio >= 10:
		return 60
	case ratio >= 5:
		return 45
	case ratio >= 3:
		return 35
	case ratio >= 2:
		return 25
	case ratio >= 1.5:
		return 15
	}
	return 0
}

// UnrealisticReturnDetector scores "pay X, receive Y" promises on a
// stepped ratio scale, raised by guarantee phrasing and lowered by
// legitimate-refund vocabulary. A non-positive result is discarded.
func UnrealisticReturnDetector(msg Message) Detection {
	folded := msg.Folded
	if !containsAnyFolded(folded, sendVerbTerms) || !containsAnyFolded(folded, returnVerbTerms) {
		return NoHit()
	}
	var pair []float64
	for _, v := range extractAmounts(folded) {
		if v > 0 && v < maxPlausibleAmount {
			pair = append(pair, v)
			if len(pair) == 2 {
				break
			}
		}
	}
	if len(pair) < 2 || pair[1] <= pair[0] {
		return NoHit()
	}
	ratio := pair[1] / pair[0]
	score := returnRatioScore(ratio)
	if score == 0 {
		return NoHit()
	}
	if containsAnyFolded(folded, intensifierTerms) {
		score += intensifierBonus
	}
	if containsAnyFolded(folded, refundTerms) {
		score -= refundReduction
	}
	if score <= 0 {
		return NoHit()
	}
	hits := map[string]int{CategorySocialEngineering: score}
	reasons := []string{fmt.Sprintf("💸 Promessa de retorno irreal (%.1fx)", ratio)}
	if ratio >= 5 {
		hits[CategoryFinancial] = extremeRatioBonus
	}
	return CategoryHits(hits, reasons...)
}

// --- Fake receipt ---

var (
	confirmPressureTerms = []string{"chegou?", "confirma", "recebeu", "caiu", "confirma ai"}
	processingTerms      = []string{"em processamento", "processando", "aguardando compensacao"}
	receiptUrgencyTerms  = []string{"urgente", "urgencia", "agora", "ja esta", "esperando"}
	deliveryTerms        = []string{"motoboy", "entrega", "produto", "mercadoria", "caminho"}
	debitedTerms         = []string{"ja foi debitado", "ja saiu da conta", "ja debitou"}
)

const (
	receiptConfirmWeight    = 50
	receiptProcessingWeight = 60
	receiptUrgencyWeight    = 30
	receiptDeliveryWeight   = 25
	receiptDebitedWeight    = 40
)

// FakeReceiptDetector scores the fabricated-receipt play: a receipt
// mention plus independent pressure sub-signals, summed uncapped here and
// bounded later by the FALSO_COMPROVANTE ceiling. "Comprovante" alone is
// receipt context; the more generic "recibo" only counts next to a PIX
// mention.
func FakeReceiptDetector(msg Message) Detection {
	folded := msg.Folded
	hasReceipt := strings.Contains(folded, "comprovante") ||
		(strings.Contains(folded, "recibo") && strings.Contains(folded, "pix"))
	if !hasReceipt {
		return NoHit()
	}
	score := 0
	var reasons []string
	if containsAnyFolded(folded, confirmPressureTerms) {
		score += receiptConfirmWeight
		reasons = append(reasons, "🧾 Pressão por confirmação de comprovante")
	}
	if containsAnyFolded(folded, processingTerms) {
		score += receiptProcessingWeight
		reasons = append(reasons, "🧾 Comprovante \"em processamento\" (PIX é instantâneo)")
	}
	if containsAnyFolded(folded, receiptUrgencyTerms) {
		score += receiptUrgencyWeight
	}
	if containsAnyFolded(folded, deliveryTerms) {
		score += receiptDeliveryWeight
		reasons = append(reasons, "🧾 Justificativa de entrega junto ao comprovante")
	}
	if containsAnyFolded(folded, debitedTerms) {
		score += receiptDebitedWeight
		reasons = append(reasons, "🧾 Alegação de débito prematuro")
	}
	if score == 0 {
		return NoHit()
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "🧾 Indícios de comprovante falso")
	}
	return CategoryHits(map[string]int{CategoryFakeReceipt: score}, reasons...)
}
