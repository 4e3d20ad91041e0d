package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luansvb/guardinia/pkg/engine"
	"github.com/luansvb/guardinia/pkg/textutil"
)

var errNoExtractor = errors.New("bot: no media extractor configured")

const greetingReply = "👋 Oi! Eu sou a GuardinIA.\n\n" +
	"Me encaminhe qualquer mensagem suspeita que você recebeu e eu analiso na hora se parece golpe.\n\n" +
	"Dica: encaminhe a mensagem original completa, com links e tudo."

const throttleReply = "⏳ Calma! Você enviou muitas mensagens em pouco tempo. " +
	"Espere um minuto e tente de novo."

const mediaUnsupportedReply = "📎 Ainda não consigo analisar esse tipo de arquivo. " +
	"Se puder, copie e cole o texto da mensagem suspeita."

const investigativeAdvisory = "💡 Boa atitude verificar antes de agir! " +
	"Na dúvida, confirme sempre pelos canais oficiais."

const bankAdvisory = "🏦 Lembre-se: bancos NUNCA pedem senha, código ou " +
	"transferência por WhatsApp."

// Greetings arrive folded; keep the table accent-free.
var greetingTerms = []string{
	"oi", "ola", "bom dia", "boa tarde", "boa noite", "oie",
	"e ai", "opa", "tudo bem", "hello", "hi", "hey",
}

var bankCredentialTerms = []string{
	"banco", "bancaria", "bancario", "conta corrente", "cartao", "agencia",
}

var credentialAskTerms = []string{
	"senha", "codigo", "token", "cvv", "dados do cartao", "confirme seus dados",
}

// IsGreeting reports whether the text is a short salutation with no
// content worth scoring. Anything long enough to carry a scam goes
// through the pipeline even if it opens with "oi".
func IsGreeting(text string) bool {
	folded := strings.TrimSpace(textutil.Fold(textutil.Normalize(text)))
	if folded == "" || len(folded) > 40 {
		return false
	}
	stripped := strings.Trim(folded, "!?., ")
	for _, term := range greetingTerms {
		if stripped == term {
			return true
		}
	}
	// Compound salutations like "oi, tudo bem?".
	words := strings.FieldsFunc(stripped, func(r rune) bool { return r == ' ' || r == ',' })
	if len(words) > 4 {
		return false
	}
	matched := 0
	for _, term := range greetingTerms {
		if strings.Contains(stripped, term) {
			matched++
		}
	}
	return matched >= 2
}

// MentionsBankCredentials reports whether the text pairs bank vocabulary
// with a credential request, the pattern behind the preventive alert.
func MentionsBankCredentials(text string) bool {
	folded := textutil.Fold(textutil.Normalize(text))
	return textutil.ContainsAny(folded, bankCredentialTerms) &&
		textutil.ContainsAny(folded, credentialAskTerms)
}

const maxReasonsShown = 5

// FormatReply renders a result as the WhatsApp reply: verdict header,
// score, the strongest reasons and the recommended action.
func FormatReply(result *engine.Result) string {
	var sb strings.Builder
	sb.WriteString(result.StatusLabel)
	sb.WriteString("\n\n")

	if result.Invalid {
		if len(result.Reasons) > 0 {
			sb.WriteString(result.Reasons[0])
			sb.WriteString("\n")
		}
		sb.WriteString("Me envie o texto da mensagem suspeita para eu analisar.")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Pontuação de risco: %d/200 (confiança %d%%)\n", result.TotalScore, result.Confidence)

	if len(result.Reasons) > 0 {
		sb.WriteString("\nO que encontrei:\n")
		shown := result.Reasons
		if len(shown) > maxReasonsShown {
			shown = shown[:maxReasonsShown]
		}
		for _, reason := range shown {
			sb.WriteString("• ")
			sb.WriteString(reason)
			sb.WriteString("\n")
		}
		if extra := len(result.Reasons) - maxReasonsShown; extra > 0 {
			fmt.Fprintf(&sb, "• ...e mais %d sinais\n", extra)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(result.RecommendedAction)
	return sb.String()
}
