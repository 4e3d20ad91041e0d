// Package semantic matches messages against known scam narratives by
// embedding similarity. It complements the keyword signatures: a scam
// rephrased enough to dodge every keyword still lands near its narrative
// seed in embedding space. The layer is optional — without an embedder the
// engine runs purely on the lexical heuristics.
package semantic

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"

	"github.com/luansvb/guardinia/pkg/config"
)

// MatchWeight is the maximum score contribution of a similarity match.
const MatchWeight = 40

// Narrative seeds. One exemplar per scam family, phrased the way real
// messages arrive.
var seedNarratives = map[string]string{
	"contato_clonado": "Oi mãe, perdi meu celular, esse é meu número novo. Preciso que você me faça um pix urgente, depois te explico.",
	"falsa_central":   "Aqui é da central de segurança do seu banco. Detectamos uma compra suspeita no seu cartão e precisamos que confirme seus dados para bloquear.",
	"premio_falso":    "Parabéns! Você foi sorteado e ganhou um prêmio. Para liberar, basta pagar a taxa de envio pelo link.",
	"investimento":    "Invista 200 reais hoje e receba 2000 em uma semana, lucro garantido, sem risco nenhum, oportunidade única.",
	"romance":         "Meu amor, nunca senti isso por ninguém. Preciso de uma ajuda financeira para comprar a passagem e finalmente te encontrar.",
	"emergencia":      "Filho, sofri um acidente e estou no hospital. Não liga agora, só faz um depósito urgente nessa conta.",
	"falso_emprego":   "Vaga home office pagando 300 por dia. Para garantir seu cadastro é só fazer um depósito inicial de 50 reais.",
	"comprovante_pix": "Já fiz o pix, olha o comprovante. Está em processamento, mas pode liberar a mercadoria que o valor já foi debitado.",
}

// Matcher holds the seeded in-memory collection.
type Matcher struct {
	collection *chromem.Collection
	threshold  float32
}

// New builds a matcher using an OpenAI-compatible embeddings endpoint
// from configuration. Returns an error if seeding fails; callers should
// log and continue without the layer.
func New(ctx context.Context, cfg *config.Config) (*Matcher, error) {
	embed := chromem.NewEmbeddingFuncOpenAICompat(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, nil)
	return NewWithEmbedder(ctx, embed, float32(cfg.SemanticThreshold))
}

// NewWithEmbedder builds a matcher over any embedding function. Used
// directly in tests and by callers with a local embedder.
func NewWithEmbedder(ctx context.Context, embed chromem.EmbeddingFunc, threshold float32) (*Matcher, error) {
	db := chromem.NewDB()
	collection, err := db.CreateCollection("scam-narratives", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("semantic: creating collection: %w", err)
	}
	docs := make([]chromem.Document, 0, len(seedNarratives))
	for id, content := range seedNarratives {
		docs = append(docs, chromem.Document{ID: id, Content: content})
	}
	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("semantic: seeding narratives: %w", err)
	}
	return &Matcher{collection: collection, threshold: threshold}, nil
}

// Score returns the similarity contribution for a message: zero below the
// threshold, scaled up to MatchWeight at perfect similarity. The label
// names the closest narrative family.
func (m *Matcher) Score(ctx context.Context, text string) (int, string, error) {
	results, err := m.collection.Query(ctx, text, 1, nil, nil)
	if err != nil {
		return 0, "", fmt.Errorf("semantic: query: %w", err)
	}
	if len(results) == 0 {
		return 0, "", nil
	}
	best := results[0]
	if best.Similarity < m.threshold {
		return 0, "", nil
	}
	return int(best.Similarity * MatchWeight), best.ID, nil
}
