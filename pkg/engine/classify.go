package engine

// Classification maps a fused score onto the discrete risk ladder shown to
// users.
type Classification struct {
	StatusLabel       string
	ColorTag          string
	Confidence        int
	RecommendedAction string
}

// Band thresholds. Confidence is highest at both extremes: a very high
// score is almost certainly a scam, a very low one almost certainly safe;
// the middle bands are where the engine is least sure.
const (
	thresholdConfirmed = 120
	thresholdHigh      = 80
	thresholdSuspect   = 50
	thresholdLow       = 30
)

// Classify is a pure function over the five fixed bands.
func Classify(score int) Classification {
	switch {
	case score >= thresholdConfirmed:
		return Classification{
			StatusLabel:       "🔴 GOLPE CONFIRMADO",
			ColorTag:          "vermelho",
			Confidence:        95,
			RecommendedAction: "Não responda. Bloqueie o contato e denuncie.",
		}
	case score >= thresholdHigh:
		return Classification{
			StatusLabel:       "🟠 ALTAMENTE SUSPEITO",
			ColorTag:          "laranja",
			Confidence:        85,
			RecommendedAction: "Não clique em links nem envie dinheiro. Verifique pelos canais oficiais.",
		}
	case score >= thresholdSuspect:
		return Classification{
			StatusLabel:       "🟡 SUSPEITO",
			ColorTag:          "amarelo",
			Confidence:        70,
			RecommendedAction: "Desconfie. Confirme a identidade por outro canal antes de qualquer ação.",
		}
	case score >= thresholdLow:
		return Classification{
			StatusLabel:       "🟢 BAIXO RISCO",
			ColorTag:          "verde-claro",
			Confidence:        50,
			RecommendedAction: "Sem sinais fortes de golpe, mas mantenha atenção.",
		}
	default:
		return Classification{
			StatusLabel:       "✅ SEGURO",
			ColorTag:          "verde",
			Confidence:        95,
			RecommendedAction: "Nenhum sinal de golpe identificado.",
		}
	}
}
