package verifier

import (
	"strings"
	"testing"
)

const goodVerdict = `{"probabilidade_fraude": 85, "categoria_principal": "PHISHING", "subtipo": "falsa central", "nivel_manipulacao": 7, "intencao_detectada": "captura de credenciais", "explicacao_tecnica": "autoridade falsa com link"}`

func TestParseVerdictDirectJSON(t *testing.T) {
	resp, err := ParseVerdict(goodVerdict)
	if err != nil {
		t.Fatalf("ParseVerdict failed: %v", err)
	}
	if resp.FraudProbability != 85 || resp.PrimaryCategory != "PHISHING" || resp.ManipulationLevel != 7 {
		t.Errorf("parsed fields wrong: %+v", resp)
	}
}

func TestParseVerdictFallbacks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"markdown fenced", "```json\n" + goodVerdict + "\n```"},
		{"bare fence", "```\n" + goodVerdict + "\n```"},
		{"prose wrapped", "Claro! Segue a análise:\n" + goodVerdict + "\nEspero ter ajudado."},
		{"leading whitespace", "   \n" + goodVerdict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseVerdict(tt.raw)
			if err != nil {
				t.Fatalf("ParseVerdict failed: %v", err)
			}
			if resp.FraudProbability != 85 {
				t.Errorf("probability = %d, want 85", resp.FraudProbability)
			}
		})
	}
}

func TestParseVerdictRejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "não consegui analisar essa mensagem"},
		{"empty", ""},
		{"probability out of range", strings.Replace(goodVerdict, `"probabilidade_fraude": 85`, `"probabilidade_fraude": 140`, 1)},
		{"negative probability", strings.Replace(goodVerdict, `"probabilidade_fraude": 85`, `"probabilidade_fraude": -3`, 1)},
		{"missing probability", strings.Replace(goodVerdict, `"probabilidade_fraude": 85, `, "", 1)},
		{"manipulation out of range", strings.Replace(goodVerdict, `"nivel_manipulacao": 7`, `"nivel_manipulacao": 15`, 1)},
		{"hallucinated category", strings.Replace(goodVerdict, `"PHISHING"`, `"EXTORSAO_QUANTICA"`, 1)},
		{"empty subtype", strings.Replace(goodVerdict, `"subtipo": "falsa central"`, `"subtipo": "  "`, 1)},
		{"empty explanation", strings.Replace(goodVerdict, `"explicacao_tecnica": "autoridade falsa com link"`, `"explicacao_tecnica": ""`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp, err := ParseVerdict(tt.raw); err == nil {
				t.Errorf("ParseVerdict accepted invalid verdict: %+v", resp)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"nested braces", `resultado: {"a": {"b": 2}} fim`, `{"a": {"b": 2}}`},
		{"no braces", "nada aqui", ""},
	}
	for _, tt := range tests {
		if got := extractJSON(tt.raw); got != tt.want {
			t.Errorf("%s: extractJSON = %q, want %q", tt.name, got, tt.want)
		}
	}
}
