package verifier

import (
	"fmt"

	"github.com/luansvb/guardinia/pkg/config"
	"github.com/luansvb/guardinia/pkg/textutil"
)

// Prompt truncation limits. The basic tier sees less text; the deep tier
// gets more context plus worked examples.
const (
	basicPromptChars = 500
	deepPromptChars  = 800
)

const verdictSchema = `Responda SOMENTE com JSON neste formato exato:
{"probabilidade_fraude": <int 0-100>, "categoria_principal": "<PHISHING|ENGENHARIA_SOCIAL|FINANCEIRO|MALWARE|CRYPTO|TRABALHO|ECOMMERCE|OUTRO>", "subtipo": "<string>", "nivel_manipulacao": <int 0-10>, "intencao_detectada": "<string>", "explicacao_tecnica": "<string>"}`

const basicInstruction = `Você é um analista de fraudes digitais brasileiro. Avalie se a mensagem abaixo é tentativa de golpe (PIX, phishing, engenharia social).

Mensagem: "%s"

` + verdictSchema

const deepInstruction = `Você é um analista sênior de fraudes digitais brasileiro. Analise profundamente a mensagem abaixo: intenção real, técnicas de manipulação psicológica, inconsistências narrativas.

Exemplo 1:
Mensagem: "Sou do setor de fraude do seu banco. Sua conta será bloqueada, confirme sua senha agora."
Resposta: {"probabilidade_fraude": 95, "categoria_principal": "PHISHING", "subtipo": "falsa central bancária", "nivel_manipulacao": 9, "intencao_detectada": "captura de credenciais sob coação", "explicacao_tecnica": "autoridade falsa + ameaça de bloqueio + pedido de credencial"}

Exemplo 2:
Mensagem: "Oi, a reunião de amanhã mudou para 15h, confirma presença?"
Resposta: {"probabilidade_fraude": 2, "categoria_principal": "OUTRO", "subtipo": "mensagem legítima", "nivel_manipulacao": 0, "intencao_detectada": "coordenação de agenda", "explicacao_tecnica": "sem pedido financeiro, sem pressão, sem link"}

Mensagem: "%s"

` + verdictSchema

// BuildPrompt renders the tier-appropriate prompt over truncated text.
func BuildPrompt(text string, tier config.VerifierTier) string {
	if tier == config.TierDeep {
		return fmt.Sprintf(deepInstruction, textutil.Truncate(text, deepPromptChars))
	}
	return fmt.Sprintf(basicInstruction, textutil.Truncate(text, basicPromptChars))
}
