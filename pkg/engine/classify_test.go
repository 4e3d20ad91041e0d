package engine

import "testing"

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		score          int
		wantColor      string
		wantConfidence int
	}{
		{200, "vermelho", 95},
		{120, "vermelho", 95},
		{119, "laranja", 85},
		{80, "laranja", 85},
		{79, "amarelo", 70},
		{50, "amarelo", 70},
		{49, "verde-claro", 50},
		{30, "verde-claro", 50},
		{29, "verde", 95},
		{0, "verde", 95},
	}
	for _, tt := range tests {
		got := Classify(tt.score)
		if got.ColorTag != tt.wantColor || got.Confidence != tt.wantConfidence {
			t.Errorf("Classify(%d) = %s/%d, want %s/%d",
				tt.score, got.ColorTag, got.Confidence, tt.wantColor, tt.wantConfidence)
		}
		if got.StatusLabel == "" || got.RecommendedAction == "" {
			t.Errorf("Classify(%d) missing label or action", tt.score)
		}
	}
}
