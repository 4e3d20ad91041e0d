package heuristics

import "fmt"

// SignatureSpec names a known scam narrative as keyword groups: the
// message must contain at least one MustAny term, and — when AndAny is
// non-empty — at least one AndAny term as well. Keywords are stored
// pre-folded.
type SignatureSpec struct {
	Name    string   `yaml:"name"`
	MustAny []string `yaml:"must_any"`
	AndAny  []string `yaml:"and_any,omitempty"`
}

// SignatureWeight is the flat ENGENHARIA_SOCIAL contribution per matched
// signature. Matches add independently; correlated-family suppression is
// the registry group's job, not this layer's.
const SignatureWeight = 40

// DefaultSignatures returns the built-in scam narrative catalog.
func DefaultSignatures() []SignatureSpec {
	return []SignatureSpec{
		{
			Name:    "CONTATO_CLONADO",
			MustAny: []string{"mudei de numero", "novo numero", "perdi o celular", "esse e meu numero novo"},
			AndAny:  []string{"pix", "transferencia", "dinheiro", "pagamento"},
		},
		{
			Name:    "PEDIDO_CODIGO",
			MustAny: []string{"me passa o codigo", "codigo que chegou", "codigo de verificacao", "me manda o codigo"},
		},
		{
			Name:    "ROMANCE_GOLPE",
			MustAny: []string{"meu amor", "amor da minha vida", "nunca nos vimos"},
			AndAny:  []string{"dinheiro", "passagem", "ajuda financeira", "deposito"},
		},
		{
			Name:    "CRISE_FAMILIAR",
			MustAny: []string{"sou seu filho", "sua filha", "sofri um acidente", "hospital", "emergencia familiar"},
			AndAny:  []string{"dinheiro", "pix", "deposito", "urgente"},
		},
		{
			Name:    "TRABALHO_TAXA",
			MustAny: []string{"vaga de emprego", "trabalhe em casa", "renda extra", "home office"},
			AndAny:  []string{"taxa", "cadastro", "deposito inicial", "pagamento antecipado"},
		},
		{
			Name:    "PROMESSA_DINHEIRO_FACIL",
			MustAny: []string{"dinheiro facil", "renda garantida", "multiplique seu dinheiro", "ganhos garantidos"},
		},
		{
			Name:    "SIGILO",
			MustAny: []string{"nao conta pra ninguem", "segredo", "sigilo absoluto", "confidencial"},
			AndAny:  []string{"dinheiro", "pix", "transferencia", "codigo"},
		},
		{
			Name:    "FALSA_CENTRAL",
			MustAny: []string{"central de atendimento", "central de seguranca", "setor de fraude", "compra suspeita"},
			AndAny:  []string{"confirme", "bloquear", "cancelar", "codigo"},
		},
	}
}

// Matches reports whether the folded text satisfies the signature.
func (s SignatureSpec) Matches(folded string) bool {
	if !containsAnyFolded(folded, s.MustAny) {
		return false
	}
	if len(s.AndAny) > 0 && !containsAnyFolded(folded, s.AndAny) {
		return false
	}
	return true
}

// SignatureDetector builds the dynamic detector that scores every matched
// signature from the catalog.
func SignatureDetector(catalog []SignatureSpec) Detector {
	return func(msg Message) Detection {
		score := 0
		var reasons []string
		for _, sig := range catalog {
			if sig.Matches(msg.Folded) {
				score += SignatureWeight
				reasons = append(reasons, fmt.Sprintf("🎭 Assinatura de golpe: %s", sig.Name))
			}
		}
		if score == 0 {
			return NoHit()
		}
		return CategoryHits(map[string]int{CategorySocialEngineering: score}, reasons...)
	}
}
