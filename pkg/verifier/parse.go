package verifier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Valid categories the verifier may assign. Anything else is treated as a
// hallucination and the whole verdict is discarded.
var validCategories = map[string]bool{
	"PHISHING":          true,
	"ENGENHARIA_SOCIAL": true,
	"FINANCEIRO":        true,
	"MALWARE":           true,
	"CRYPTO":            true,
	"TRABALHO":          true,
	"ECOMMERCE":         true,
	"OUTRO":             true,
}

type rawVerdict struct {
	FraudProbability     *int   `json:"probabilidade_fraude"`
	PrimaryCategory      string `json:"categoria_principal"`
	Subtype              string `json:"subtipo"`
	ManipulationLevel    *int   `json:"nivel_manipulacao"`
	DetectedIntent       string `json:"intencao_detectada"`
	TechnicalExplanation string `json:"explicacao_tecnica"`
}

// extractJSON recovers a JSON object from model output that wraps it in
// markdown fences or prose: take the first '{' through the last '}'.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return cleaned[start : end+1]
}

// ParseVerdict parses and validates raw model output into a Response.
// Direct JSON parse first, then the fence/brace fallback. Validation is
// strict: fields out of range or empty reject the verdict.
func ParseVerdict(raw string) (*Response, error) {
	var verdict rawVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		extracted := extractJSON(raw)
		if extracted == "" {
			return nil, fmt.Errorf("no JSON object found in output")
		}
		if err := json.Unmarshal([]byte(extracted), &verdict); err != nil {
			return nil, fmt.Errorf("invalid JSON after extraction: %w", err)
		}
	}
	return validateVerdict(&verdict)
}

func validateVerdict(v *rawVerdict) (*Response, error) {
	switch {
	case v.FraudProbability == nil:
		return nil, fmt.Errorf("missing probabilidade_fraude")
	case *v.FraudProbability < 0 || *v.FraudProbability > 100:
		return nil, fmt.Errorf("probabilidade_fraude %d out of range", *v.FraudProbability)
	case v.ManipulationLevel == nil:
		return nil, fmt.Errorf("missing nivel_manipulacao")
	case *v.ManipulationLevel < 0 || *v.ManipulationLevel > 10:
		return nil, fmt.Errorf("nivel_manipulacao %d out of range", *v.ManipulationLevel)
	case !validCategories[v.PrimaryCategory]:
		return nil, fmt.Errorf("unknown categoria_principal %q", v.PrimaryCategory)
	case strings.TrimSpace(v.Subtype) == "":
		return nil, fmt.Errorf("empty subtipo")
	case strings.TrimSpace(v.DetectedIntent) == "":
		return nil, fmt.Errorf("empty intencao_detectada")
	case strings.TrimSpace(v.TechnicalExplanation) == "":
		return nil, fmt.Errorf("empty explicacao_tecnica")
	}
	return &Response{
		FraudProbability:     *v.FraudProbability,
		PrimaryCategory:      v.PrimaryCategory,
		Subtype:              v.Subtype,
		ManipulationLevel:    *v.ManipulationLevel,
		DetectedIntent:       v.DetectedIntent,
		TechnicalExplanation: v.TechnicalExplanation,
	}, nil
}
